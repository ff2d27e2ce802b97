// Package registry owns the entity entries for the process lifetime:
// each discovered descriptor paired with its resolved schema set.
// Entries are loaded once at setup and immutable afterwards.
package registry

import (
	"sort"
	"sync"

	"autobridge/internal/metadata"
	"autobridge/internal/schema"
)

type Entry struct {
	Entity  *metadata.Entity
	Schemas schema.Set
	Origin  schema.Origin
}

type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

func New() *Registry {
	return &Registry{entries: make(map[string]*Entry)}
}

// Load replaces all entries. Called exactly once during setup.
func (r *Registry) Load(entries []*Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[string]*Entry, len(entries))
	for _, e := range entries {
		r.entries[metadata.Key(e.Entity.Name)] = e
	}
}

// Get returns the entry for the given entity key, or nil.
func (r *Registry) Get(key string) *Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries[key]
}

// All returns every entry, sorted by entity key.
func (r *Registry) All() []*Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := make([]*Entry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return metadata.Key(entries[i].Entity.Name) < metadata.Key(entries[j].Entity.Name)
	})
	return entries
}

// Keys returns every entity key, sorted.
func (r *Registry) Keys() []string {
	entries := r.All()
	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = metadata.Key(e.Entity.Name)
	}
	return keys
}

// Len returns the number of entries.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
