// Package state holds the latest cell reading and notifies subscribers when
// it changes.
package state

import (
	"slices"
	"sync"

	"cellwatch/internal/cell"
)

// Subscriber receives the store contents after every Replace.
type Subscriber func(records []cell.Record)

type subscription struct {
	id int
	fn Subscriber
}

// Store holds the most recent collection result. Writes come from a single
// poller; reads may come from any goroutine.
type Store struct {
	mu      sync.RWMutex
	records []cell.Record
	version uint64

	subMu  sync.Mutex
	nextID int
	subs   []subscription
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Replace discards the current contents, installs records and notifies
// every subscriber before returning.
func (s *Store) Replace(records []cell.Record) {
	snapshot := slices.Clone(records)

	s.mu.Lock()
	s.records = snapshot
	s.version++
	s.mu.Unlock()

	s.subMu.Lock()
	subs := slices.Clone(s.subs)
	s.subMu.Unlock()

	for _, sub := range subs {
		sub.fn(slices.Clone(snapshot))
	}
}

// Current returns a copy of the current contents.
func (s *Store) Current() []cell.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.records)
}

// Version returns the number of Replace calls so far.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Snapshot returns the contents together with the version they belong to.
func (s *Store) Snapshot() ([]cell.Record, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.records), s.version
}

// Subscribe registers fn for notifications. The returned function removes
// the subscription and may be called more than once.
func (s *Store) Subscribe(fn Subscriber) (cancel func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscription{id: id, fn: fn})

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		s.subs = slices.DeleteFunc(s.subs, func(sub subscription) bool {
			return sub.id == id
		})
	}
}
