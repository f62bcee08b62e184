package server

import (
	"sort"
	"sync"

	"github.com/formwell/formwell/internal/schema"
)

// Entry is one compiled schema held by the registry.
type Entry struct {
	BlockType string
	Hash      string
	Schema    *schema.Schema
}

// Registry holds the compiled schemas served by the API. All schemas are
// swapped atomically on reload, so a request sees either the old set or
// the new set, never a mix.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewRegistry creates a registry holding the given entries.
func NewRegistry(entries []Entry) *Registry {
	r := &Registry{}
	r.Replace(entries)
	return r
}

// Replace swaps the full schema set.
func (r *Registry) Replace(entries []Entry) {
	m := make(map[string]Entry, len(entries))
	for _, e := range entries {
		m[e.BlockType] = e
	}
	r.mu.Lock()
	r.entries = m
	r.mu.Unlock()
}

// Get returns the entry for a block type.
func (r *Registry) Get(blockType string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[blockType]
	return e, ok
}

// BlockTypes returns the registered block types in sorted order.
func (r *Registry) BlockTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.entries))
	for bt := range r.entries {
		types = append(types, bt)
	}
	sort.Strings(types)
	return types
}
