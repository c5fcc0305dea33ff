package events

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/lark/internal/shared"
)

// Subscription is one open event stream. Events is closed after [Hub.Unsubscribe] or [Hub.Close].
type Subscription struct {
	ID     string
	Events <-chan Event
}

// Source is the subscribe side of an event channel.
type Source interface {
	Subscribe() (Subscription, error)
	Unsubscribe(id string) error
}

var _ Source = (*Hub)(nil)

// Hub delivers published events to every open subscription.
type Hub struct {
	mu     sync.Mutex
	subs   map[string]*mailbox
	closed bool
	logger *log.Logger
}

// NewHub creates an empty Hub. A nil logger falls back to [shared.NewLogger].
func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Hub{
		subs:   make(map[string]*mailbox),
		logger: shared.WithLogger(logger, "component", "events"),
	}
}

// Subscribe opens a subscription keyed by a fresh uuid.
func (h *Hub) Subscribe() (Subscription, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return Subscription{}, fmt.Errorf("%w: hub is closed", shared.ErrChannel)
	}

	id := shared.GenerateID()
	m := newMailbox()
	h.subs[id] = m
	h.logger.Debug("subscribed", "id", id, "open", len(h.subs))
	return Subscription{ID: id, Events: m.out}, nil
}

// Unsubscribe closes the subscription. Unknown or already closed ids return [shared.ErrChannel].
func (h *Hub) Unsubscribe(id string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, ok := h.subs[id]
	if !ok {
		return fmt.Errorf("%w: unknown subscription %s", shared.ErrChannel, id)
	}
	delete(h.subs, id)
	m.stop()
	h.logger.Debug("unsubscribed", "id", id, "open", len(h.subs))
	return nil
}

// Publish queues e on every open subscription.
func (h *Hub) Publish(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, m := range h.subs {
		m.push(e)
	}
}

// Len returns the number of open subscriptions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close stops every subscription and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, m := range h.subs {
		m.stop()
		delete(h.subs, id)
	}
}

// mailbox is an unbounded FIFO between the publisher and one reader.
type mailbox struct {
	in   chan Event
	out  chan Event
	done chan struct{}
	once sync.Once
}

func newMailbox() *mailbox {
	m := &mailbox{
		in:   make(chan Event, 64),
		out:  make(chan Event),
		done: make(chan struct{}),
	}
	go m.run()
	return m
}

func (m *mailbox) push(e Event) {
	select {
	case m.in <- e:
	case <-m.done:
	}
}

func (m *mailbox) stop() {
	m.once.Do(func() { close(m.done) })
}

func (m *mailbox) run() {
	defer close(m.out)

	var queue []Event
	for {
		var (
			out  chan Event
			head Event
		)
		if len(queue) > 0 {
			out = m.out
			head = queue[0]
		}

		select {
		case e := <-m.in:
			queue = append(queue, e)
		case out <- head:
			queue = queue[1:]
		case <-m.done:
			return
		}
	}
}
