package catalog

import (
	"sync"

	"github.com/fjyeo/Open-Photo-Lab/internal/debug"
)

// Invalidator is notified after every mutation so the view can redraw.
// Invalidate is called with the store lock held and must not call back in.
type Invalidator interface {
	Invalidate()
}

// Store is the single source of truth for imported entries.
//
// Entries live in a map keyed by id; display order is kept separately so
// async completions always patch by id and never by position.
// All mutations go through Store methods which hold the mutex.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	order   []string

	invalidator Invalidator
}

// NewStore creates an empty store. inv may be nil.
func NewStore(inv Invalidator) *Store {
	return &Store{
		entries:     make(map[string]*Entry),
		order:       make([]string, 0),
		invalidator: inv,
	}
}

// Append adds entries at the end in the given order.
// Entries with an empty or already known id are skipped.
// Returns the number of entries actually appended.
func (s *Store) Append(entries ...Entry) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, e := range entries {
		if e.ID == "" {
			continue
		}
		if _, exists := s.entries[e.ID]; exists {
			debug.Log(debug.CATALOG, "Append: duplicate id %s skipped", e.ID)
			continue
		}
		entry := e
		s.entries[e.ID] = &entry
		s.order = append(s.order, e.ID)
		added++
	}

	debug.Log(debug.CATALOG, "Append: added %d, total %d", added, len(s.order))
	if added > 0 {
		s.invalidate()
	}
	return added
}

// Remove deletes the given ids and returns the ones that were present.
// Callers own the invariant repair of any state that references them.
func (s *Store) Remove(ids ...string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	drop := make(map[string]bool, len(ids))
	removed := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := s.entries[id]; ok && !drop[id] {
			drop[id] = true
			removed = append(removed, id)
			delete(s.entries, id)
		}
	}
	if len(removed) == 0 {
		return removed
	}

	order := make([]string, 0, len(s.order)-len(removed))
	for _, id := range s.order {
		if !drop[id] {
			order = append(order, id)
		}
	}
	s.order = order

	debug.Log(debug.CATALOG, "Remove: removed %d, total %d", len(removed), len(s.order))
	s.invalidate()
	return removed
}

// Find returns a copy of the entry with id.
func (s *Store) Find(id string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Contains reports whether id is a live entry.
func (s *Store) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[id]
	return ok
}

// AttachFull sets the full-resolution payload of id.
// It is a no-op (returning false) when the entry is gone, already has one,
// or rep is empty.
func (s *Store) AttachFull(id, rep string) bool {
	if rep == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		debug.Log(debug.CATALOG, "AttachFull: %s no longer in catalog", id)
		return false
	}
	if e.Full != "" {
		return false
	}
	e.Full = rep
	s.invalidate()
	return true
}

// Entries returns copies of all entries in insertion order.
func (s *Store) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Entry, len(s.order))
	for i, id := range s.order {
		result[i] = *s.entries[id]
	}
	return result
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Neighbor returns the id step positions away from id with circular
// wraparound. With a single entry it returns id itself.
func (s *Store) Neighbor(id string, step int) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.order)
	if n == 0 {
		return "", false
	}
	idx := -1
	for i, cur := range s.order {
		if cur == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return "", false
	}
	next := ((idx+step)%n + n) % n
	return s.order[next], true
}

func (s *Store) invalidate() {
	if s.invalidator != nil {
		s.invalidator.Invalidate()
	}
}
