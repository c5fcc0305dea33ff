// Package refresh invalidates library views after writes.
//
// Writers publish named topics; each publish bumps that topic's version and wakes its subscribers.
// Readers keep a [Cache] stamped with the version they loaded and refetch only when the topic has moved past it.
package refresh

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/lark/internal/shared"
)

// Topic names one invalidation signal.
type Topic string

// PlaylistsChanged fires when the playlist list changes.
const PlaylistsChanged Topic = "playlists-changed"

const tracksPrefix = "tracks-changed:"

// TracksChanged names the topic for one playlist's track list.
func TracksChanged(playlistID int64) Topic {
	return Topic(tracksPrefix + strconv.FormatInt(playlistID, 10))
}

// PlaylistID extracts the id from a tracks topic.
func (t Topic) PlaylistID() (int64, bool) {
	s, ok := strings.CutPrefix(string(t), tracksPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// Notice is delivered to subscribers after a publish.
type Notice struct {
	Topic   Topic
	Version uint64
}

type subscriber struct {
	topics map[Topic]struct{} // empty means every topic
	ch     chan Notice
}

func (s *subscriber) wants(t Topic) bool {
	if len(s.topics) == 0 {
		return true
	}
	_, ok := s.topics[t]
	return ok
}

// Coordinator tracks topic versions and fans out notices. It is safe for concurrent use.
type Coordinator struct {
	mu       sync.Mutex
	versions map[Topic]uint64
	subs     map[string]*subscriber
	logger   *log.Logger
}

func NewCoordinator(logger *log.Logger) *Coordinator {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Coordinator{
		versions: make(map[Topic]uint64),
		subs:     make(map[string]*subscriber),
		logger:   shared.WithLogger(logger, "component", "refresh"),
	}
}

// Publish bumps each topic's version and notifies interested subscribers.
// Delivery never blocks: a subscriber whose buffer is full misses the notice but still sees the new version.
func (c *Coordinator) Publish(topics ...Topic) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, t := range topics {
		c.versions[t]++
		n := Notice{Topic: t, Version: c.versions[t]}
		for id, s := range c.subs {
			if !s.wants(t) {
				continue
			}
			select {
			case s.ch <- n:
			default:
				c.logger.Debug("subscriber buffer full", "id", id, "topic", t)
			}
		}
		c.logger.Debug("published", "topic", t, "version", n.Version)
	}
}

// Version returns the number of times topic has been published.
func (c *Coordinator) Version(topic Topic) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.versions[topic]
}

// Subscribe registers for the given topics, or for every topic when none are given.
func (c *Coordinator) Subscribe(topics ...Topic) (string, <-chan Notice) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := &subscriber{topics: make(map[Topic]struct{}, len(topics)), ch: make(chan Notice, 16)}
	for _, t := range topics {
		s.topics[t] = struct{}{}
	}
	id := shared.GenerateID()
	c.subs[id] = s
	return id, s.ch
}

// Unsubscribe closes the subscriber's channel.
func (c *Coordinator) Unsubscribe(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.subs[id]
	if !ok {
		return fmt.Errorf("%w: unknown refresh subscription %s", shared.ErrChannel, id)
	}
	delete(c.subs, id)
	close(s.ch)
	return nil
}

// Cache holds one query result stamped with the topic version it was loaded at.
type Cache[T any] struct {
	mu      sync.Mutex
	topic   Topic
	coord   *Coordinator
	fetch   func() (T, error)
	value   T
	version uint64
	loaded  bool
}

// NewCache creates a cache for topic that calls fetch when stale.
func NewCache[T any](coord *Coordinator, topic Topic, fetch func() (T, error)) *Cache[T] {
	return &Cache[T]{coord: coord, topic: topic, fetch: fetch}
}

// Stale reports whether the topic has been published since the last load.
func (c *Cache[T]) Stale() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.loaded || c.coord.Version(c.topic) != c.version
}

// Get returns the cached value, refetching first when stale. A failed fetch keeps the previous value and stays stale.
func (c *Cache[T]) Get() (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	current := c.coord.Version(c.topic)
	if c.loaded && current == c.version {
		return c.value, nil
	}

	v, err := c.fetch()
	if err != nil {
		return c.value, err
	}
	c.value = v
	c.version = current
	c.loaded = true
	return c.value, nil
}

// Topic returns the topic the cache follows.
func (c *Cache[T]) Topic() Topic {
	return c.topic
}
