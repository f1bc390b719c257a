package guise

import (
	"fmt"
	"log/slog"
	"sync"
)

// Registry stores registrations by identity. It is safe for concurrent use:
// lookups share a read lock, mutations take the write lock, and factories run
// outside the lock so a slow factory never blocks unrelated operations.
//
// Use [New] for an isolated registry or [Default] for the process-wide one.
// The zero Registry is empty and ready to use.
type Registry struct {
	mu            sync.RWMutex
	registrations map[AnyKey]Registration

	logger *slog.Logger
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		registrations: make(map[AnyKey]Registration),
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var defaultRegistry = sync.OnceValue(func() *Registry { return New() })

// Default returns the process-wide registry. It is created on first use and
// lives until the process exits; call [Registry.Clear] to reset it between
// tests.
func Default() *Registry { return defaultRegistry() }

// ---------------------------------------------------------------------------
// Registration
// ---------------------------------------------------------------------------

// Register stores factory under key, replacing any existing registration and
// dropping its cached value. Registrations are not cached unless
// [WithCaching] says otherwise. The key is returned for chaining.
//
// Register panics if the key's name or container is not comparable.
func Register[T any](r *Registry, key Key[T], factory Factory[T], opts ...RegisterOption) Key[T] {
	cfg := newRegisterConfig(false, opts)
	r.store(&registration[T]{
		key:      key.AnyKey(),
		factory:  factory,
		metadata: cfg.metadata,
		cached:   *cfg.cached,
		slot:     &retainedSlot[T]{},
	})
	return key
}

// RegisterWeak stores a factory whose cached values are held weakly: the
// registry does not keep the value alive, and once it has been collected the
// next cached resolution calls the factory again. Weak registrations are
// cached by default.
func RegisterWeak[E any](r *Registry, key Key[*E], factory Factory[*E], opts ...RegisterOption) Key[*E] {
	cfg := newRegisterConfig(true, opts)
	r.store(&registration[*E]{
		key:      key.AnyKey(),
		factory:  factory,
		metadata: cfg.metadata,
		cached:   *cfg.cached,
		slot:     &weakSlot[E]{},
	})
	return key
}

// RegisterInstance registers a fixed value. It is shorthand for a cached
// factory returning v.
func RegisterInstance[T any](r *Registry, key Key[T], v T, opts ...RegisterOption) Key[T] {
	opts = append([]RegisterOption{WithCaching(true)}, opts...)
	return Register(r, key, func(*Registry, any) (T, error) { return v, nil }, opts...)
}

func (r *Registry) store(reg Registration) {
	key := reg.Key()
	if !key.hashable() {
		panic(fmt.Sprintf("guise: key %s has a non-comparable name or container", key))
	}

	r.mu.Lock()
	if r.registrations == nil {
		r.registrations = make(map[AnyKey]Registration)
	}
	_, replaced := r.registrations[key]
	r.registrations[key] = reg
	r.mu.Unlock()

	r.log().Debug("guise registered", "key", key, "cached", reg.Cached(), "holding", reg.Holding().String(), "replaced", replaced)
}

// log returns the registry's logger, falling back to slog.Default for the
// zero Registry.
func (r *Registry) log() *slog.Logger {
	if r.logger == nil {
		return slog.Default()
	}
	return r.logger
}

// Unregister removes the registrations for keys and returns how many were
// removed. Keys without a registration are ignored.
func (r *Registry) Unregister(keys ...Keyed) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for _, k := range keys {
		key := k.AnyKey()
		if !key.hashable() {
			continue
		}
		if _, ok := r.registrations[key]; !ok {
			continue
		}
		delete(r.registrations, key)
		removed++
	}

	if removed > 0 {
		r.log().Debug("guise unregistered", "count", removed)
	}
	return removed
}

// UnregisterWhere removes every registration whose key satisfies pred and
// returns how many were removed.
func (r *Registry) UnregisterWhere(pred Predicate) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for key := range r.registrations {
		if pred == nil || pred(key) {
			delete(r.registrations, key)
			removed++
		}
	}

	if removed > 0 {
		r.log().Debug("guise unregistered", "count", removed)
	}
	return removed
}

// Clear removes every registration.
func (r *Registry) Clear() {
	r.mu.Lock()
	n := len(r.registrations)
	clear(r.registrations)
	r.mu.Unlock()

	r.log().Debug("guise cleared", "count", n)
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

// Filter returns a snapshot of the registrations whose key satisfies pred. A
// nil predicate matches everything. The registry is not modified.
func (r *Registry) Filter(pred Predicate) map[AnyKey]Registration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[AnyKey]Registration)
	for key, reg := range r.registrations {
		if pred == nil || pred(key) {
			out[key] = reg
		}
	}
	return out
}

// Lookup returns the registration stored under key.
func (r *Registry) Lookup(key Keyed) (Registration, bool) {
	k := key.AnyKey()
	if !k.hashable() {
		return nil, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.registrations[k]
	return reg, ok
}

// Len returns the number of registrations.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.registrations)
}
