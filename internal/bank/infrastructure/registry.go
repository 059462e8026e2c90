// Package infrastructure provides adapters for the bank application ports:
// an in-memory registry, fetchers for http(s), local files and data URIs,
// and a filesystem watcher that reloads local banks.
package infrastructure

import (
	"sort"

	"github.com/patrickmn/go-cache"

	"github.com/zjrosen/pitchplay/internal/bank/domain"
)

// Registry is the process-wide bank registry. Entries never expire; a Put
// for an existing id replaces it. Safe for concurrent use.
type Registry struct {
	entries *cache.Cache
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: cache.New(cache.NoExpiration, 0)}
}

// Put stores entry under entry.ID, replacing any previous entry.
func (r *Registry) Put(entry domain.Entry) {
	r.entries.Set(entry.ID, entry, cache.NoExpiration)
}

// Get returns the entry registered under id.
func (r *Registry) Get(id string) (domain.Entry, bool) {
	v, ok := r.entries.Get(id)
	if !ok {
		return domain.Entry{}, false
	}
	entry, ok := v.(domain.Entry)
	return entry, ok
}

// Bank returns just the bank registered under id.
func (r *Registry) Bank(id string) (*domain.Bank, bool) {
	entry, ok := r.Get(id)
	if !ok {
		return nil, false
	}
	return entry.Bank, true
}

// IDs returns the registered ids in sorted order.
func (r *Registry) IDs() []string {
	items := r.entries.Items()
	ids := make([]string, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of registered banks.
func (r *Registry) Len() int {
	return r.entries.ItemCount()
}

// Delete removes id. The loader never calls this; it exists for long-running
// callers such as the watch command.
func (r *Registry) Delete(id string) {
	r.entries.Delete(id)
}

// Clear removes every entry.
func (r *Registry) Clear() {
	r.entries.Flush()
}
