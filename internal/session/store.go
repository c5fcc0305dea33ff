package session

import (
	"sync"

	"github.com/desertthunder/lark/internal/shared"
)

// Store holds the most recent [Snapshot] and fans it out to subscribers.
//
// Subscribers receive only the latest value: a slow reader skips intermediate snapshots instead of blocking the session.
type Store struct {
	mu   sync.Mutex
	snap Snapshot
	subs map[string]chan Snapshot
}

func NewStore() *Store {
	return &Store{subs: make(map[string]chan Snapshot)}
}

// Get returns the current snapshot.
func (s *Store) Get() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Subscribe returns an id and a channel that receives every new snapshot. The current one is delivered immediately.
func (s *Store) Subscribe() (string, <-chan Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := shared.GenerateID()
	ch := make(chan Snapshot, 1)
	ch <- s.snap
	s.subs[id] = ch
	return id, ch
}

// Unsubscribe closes the channel for id. Unknown ids are ignored.
func (s *Store) Unsubscribe(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ch, ok := s.subs[id]; ok {
		delete(s.subs, id)
		close(ch)
	}
}

func (s *Store) set(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snap = snap
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}
