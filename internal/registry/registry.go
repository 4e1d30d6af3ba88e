// Package registry implements the Provider Registry: the holder of live
// adapters plus their mutable health status (spec.md §4.2). It is the
// only place that map is written, and it never blocks on I/O while
// holding its lock.
package registry

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/textenhance/core/pkg/interfaces"
	"github.com/textenhance/core/pkg/types"
)

type entry struct {
	adapter interfaces.ProviderAdapter
	status  types.ProviderStatus
}

// Registry holds one entry per configured adapter, ordered by the
// priority the Configuration Resolver assigned at startup.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	entries map[string]*entry
}

// New builds a Registry from adapters in priority order (index 0 is
// highest priority). Each starts marked available with a zero status.
func New(adaptersInPriorityOrder []interfaces.ProviderAdapter) *Registry {
	r := &Registry{
		order:   make([]string, 0, len(adaptersInPriorityOrder)),
		entries: make(map[string]*entry, len(adaptersInPriorityOrder)),
	}
	for _, a := range adaptersInPriorityOrder {
		name := a.Name()
		r.order = append(r.order, name)
		r.entries[name] = &entry{
			adapter: a,
			status: types.ProviderStatus{
				Name:           name,
				Available:      true,
				LastCheckedAt:  time.Time{},
				SupportsVision: a.SupportsVision(),
			},
		}
	}
	return r
}

// ByPriority returns adapters in configured priority order. The slice is
// a fresh copy; callers may reorder it (e.g. to float a sticky
// preference) without affecting the Registry.
func (r *Registry) ByPriority() []interfaces.ProviderAdapter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]interfaces.ProviderAdapter, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.entries[name].adapter)
	}
	return out
}

// StatusSnapshot returns a defensive copy of every adapter's current
// status, safe for the caller to read without further locking.
func (r *Registry) StatusSnapshot() map[string]types.ProviderStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]types.ProviderStatus, len(r.entries))
	for name, e := range r.entries {
		out[name] = e.status
	}
	return out
}

// Update replaces one adapter's status record. The critical section
// holds the write lock only long enough to copy the struct in; no I/O
// ever happens here.
func (r *Registry) Update(name string, status types.ProviderStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[name]; ok {
		e.status = status
	}
}

// Get returns the adapter registered under name, if any.
func (r *Registry) Get(name string) (interfaces.ProviderAdapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	return e.adapter, true
}

// Names returns the registered adapter names sorted alphabetically, not
// in priority order (ByPriority gives that order).
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	sort.Strings(out) // deterministic for snapshot comparisons in tests
	return out
}

var _ interfaces.ProviderRegistry = (*Registry)(nil)

// Swappable lets the Provider Manager depend on a stable
// interfaces.ProviderRegistry value while the underlying Registry is
// atomically replaced wholesale, which is what a config hot-reload
// needs: a changed priority list or a newly enabled provider requires a
// different adapter set entirely, not a status mutation.
type Swappable struct {
	current atomic.Pointer[Registry]
}

// NewSwappable wraps an initial Registry.
func NewSwappable(initial *Registry) *Swappable {
	s := &Swappable{}
	s.current.Store(initial)
	return s
}

// Replace swaps in a freshly built Registry. In-flight calls against the
// old Registry complete unaffected; new calls see next immediately.
func (s *Swappable) Replace(next *Registry) {
	s.current.Store(next)
}

func (s *Swappable) ByPriority() []interfaces.ProviderAdapter {
	return s.current.Load().ByPriority()
}

func (s *Swappable) StatusSnapshot() map[string]types.ProviderStatus {
	return s.current.Load().StatusSnapshot()
}

func (s *Swappable) Update(name string, status types.ProviderStatus) {
	s.current.Load().Update(name, status)
}

func (s *Swappable) Get(name string) (interfaces.ProviderAdapter, bool) {
	return s.current.Load().Get(name)
}

var _ interfaces.ProviderRegistry = (*Swappable)(nil)
