package actorstate

import (
	"sync"
	"time"
)

// Entry is one actor's in-flight workflow state, e.g. a partially entered
// offer held by an external chat or UI controller.
type Entry struct {
	ActorID   string
	Data      map[string]interface{}
	UpdatedAt time.Time
}

// Store holds per-actor state with an explicit TTL. The store never expires
// entries on its own; the owner calls Sweep on its own schedule.
type Store struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]*Entry
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		ttl:     ttl,
		entries: make(map[string]*Entry),
	}
}

// Get returns the actor's state, or nil if none is held. Expired entries
// remain visible until swept.
func (s *Store) Get(actorID string) *Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[actorID]
}

// Put stores the actor's state and refreshes its TTL clock.
func (s *Store) Put(actorID string, data map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[actorID] = &Entry{
		ActorID:   actorID,
		Data:      data,
		UpdatedAt: time.Now().UTC(),
	}
}

// Touch refreshes the TTL clock of an existing entry.
func (s *Store) Touch(actorID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[actorID]
	if !ok {
		return false
	}
	e.UpdatedAt = time.Now().UTC()
	return true
}

// Delete removes the actor's state.
func (s *Store) Delete(actorID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, actorID)
}

// Sweep removes entries idle longer than the TTL as of now and returns how
// many were removed.
func (s *Store) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, e := range s.entries {
		if now.Sub(e.UpdatedAt) > s.ttl {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}

// Len reports the number of held entries, including expired ones not yet
// swept.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
