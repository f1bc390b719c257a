package guise

import (
	"errors"
	"reflect"
)

// ---------------------------------------------------------------------------
// Single key
// ---------------------------------------------------------------------------

// Resolve produces the value registered under key.
//
// ok is false, with a nil error, when nothing is registered under key or the
// registration's metadata fails the [WhereMetadata] predicate. A non-nil
// error is always a [*FactoryError]; a failed factory never populates the
// cache.
//
//	w, ok, err := guise.Resolve(r, guise.TypeKey[*Widget](), guise.Cached(true))
func Resolve[T any](r *Registry, key Key[T], opts ...ResolveOption) (v T, ok bool, err error) {
	cfg := newResolveConfig(opts)

	reg, ok := lookup(r, key)
	if !ok || !cfg.matches(reg) {
		return v, false, nil
	}

	v, err = reg.resolve(r, cfg.param, cfg.cached)
	if err != nil {
		return v, false, err
	}
	return v, true, nil
}

// ResolveType resolves T with the default name and container.
func ResolveType[T any](r *Registry, opts ...ResolveOption) (T, bool, error) {
	return Resolve(r, TypeKey[T](), opts...)
}

// ResolveNamed resolves T by name in the default container.
func ResolveNamed[T any](r *Registry, name any, opts ...ResolveOption) (T, bool, error) {
	return Resolve(r, NamedKey[T](name), opts...)
}

// ResolveIn resolves T with the default name in container.
func ResolveIn[T any](r *Registry, container any, opts ...ResolveOption) (T, bool, error) {
	return Resolve(r, ContainerKey[T](container), opts...)
}

// ResolveNamedIn resolves T by name in container.
func ResolveNamedIn[T any](r *Registry, name, container any, opts ...ResolveOption) (T, bool, error) {
	return Resolve(r, NewKey[T](name, container), opts...)
}

// ---------------------------------------------------------------------------
// Batch
// ---------------------------------------------------------------------------

// ResolveAll resolves every key in keys that has a registration matching the
// [WhereMetadata] predicate, if any. Duplicate keys are resolved once.
//
// Keys without a match are omitted. A failing factory does not stop the
// batch: its key is omitted from the map and its error is included in the
// joined error returned alongside the successful values.
func ResolveAll[T any](r *Registry, keys []Key[T], opts ...ResolveOption) (map[Key[T]]T, error) {
	cfg := newResolveConfig(opts)

	regs := lookupAll(r, keys)

	out := make(map[Key[T]]T, len(regs))
	var errs []error
	for key, reg := range regs {
		if !cfg.matches(reg) {
			continue
		}
		v, err := reg.resolve(r, cfg.param, cfg.cached)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out[key] = v
	}
	return out, errors.Join(errs...)
}

// ResolveValues is [ResolveAll] without the keys. The order of the returned
// values is unspecified and may differ between calls.
func ResolveValues[T any](r *Registry, keys []Key[T], opts ...ResolveOption) ([]T, error) {
	resolved, err := ResolveAll(r, keys, opts...)

	values := make([]T, 0, len(resolved))
	for _, v := range resolved {
		values = append(values, v)
	}
	return values, err
}

// ---------------------------------------------------------------------------
// Injection
// ---------------------------------------------------------------------------

// InjectionParams is the parameter passed to factories registered in
// [InjectionsContainer].
type InjectionParams[T any] struct {
	// Target is the instance passed to [ResolveInto].
	Target T

	// Resolver is the registry performing the injection.
	Resolver *Registry
}

// ResolveInto looks up the registration for T in [InjectionsContainer] and
// returns what its factory makes of target. When there is no such
// registration target is returned unchanged. The factory is never cached.
//
// Registrations for ResolveInto are usually built with [NewInjector].
func ResolveInto[T any](r *Registry, target T) (T, error) {
	reg, ok := lookup(r, ContainerKey[T](InjectionsContainer))
	if !ok {
		return target, nil
	}

	uncached := false
	out, err := reg.resolve(r, InjectionParams[T]{Target: target, Resolver: r}, &uncached)
	if err != nil {
		return target, err
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Internal
// ---------------------------------------------------------------------------

func (cfg resolveConfig) matches(reg Registration) bool {
	return cfg.metadata == nil || cfg.metadata(reg.Metadata())
}

// lookup finds the typed registration for key under the read lock.
func lookup[T any](r *Registry, key Key[T]) (*registration[T], bool) {
	ak := key.AnyKey()
	if !ak.hashable() {
		return nil, false
	}

	r.mu.RLock()
	reg, ok := r.registrations[ak]
	r.mu.RUnlock()

	if !ok {
		return nil, false
	}
	return typed[T](reg), true
}

// lookupAll finds the typed registrations for keys under one read lock.
func lookupAll[T any](r *Registry, keys []Key[T]) map[Key[T]]*registration[T] {
	out := make(map[Key[T]]*registration[T], len(keys))

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, key := range keys {
		ak := key.AnyKey()
		if !ak.hashable() {
			continue
		}
		if reg, ok := r.registrations[ak]; ok {
			out[key] = typed[T](reg)
		}
	}
	return out
}

// typed recovers the concrete registration. The store is keyed by type, so a
// mismatch means the store is corrupt.
func typed[T any](reg Registration) *registration[T] {
	tr, ok := reg.(*registration[T])
	if !ok {
		panic(&TypeMismatchError{Want: reflect.TypeFor[T](), Got: reg.Key().Type})
	}
	return tr
}
