package guise

import (
	"fmt"

	"golang.org/x/sync/singleflight"
)

// Factory produces a value of type T. r is the registry the value is being
// resolved from, so factories can resolve their own dependencies; param is
// the value passed with [WithParameter], or nil.
type Factory[T any] func(r *Registry, param any) (T, error)

// Registration is the read-only view of a registered factory returned by
// [Registry.Filter] and [Registry.Lookup].
type Registration interface {
	// Key returns the identity the registration is stored under.
	Key() AnyKey

	// Metadata returns the value attached with [WithMetadata], or nil.
	Metadata() any

	// Cached reports whether resolutions are cached unless overridden per
	// call with [Cached].
	Cached() bool

	// Holding returns how cached values are kept.
	Holding() Holding
}

// MetadataAs returns the registration's metadata as M. ok is false when the
// metadata is not an M.
func MetadataAs[M any](reg Registration) (M, bool) {
	m, ok := reg.Metadata().(M)
	return m, ok
}

// registration is the typed record behind a [Registration]. Everything except
// the slot is fixed at construction.
type registration[T any] struct {
	key      AnyKey
	factory  Factory[T]
	metadata any
	cached   bool
	slot     slot[T]

	// flight serialises cache population so the factory runs at most once
	// per populated value.
	flight singleflight.Group
}

func (reg *registration[T]) Key() AnyKey      { return reg.key }
func (reg *registration[T]) Metadata() any    { return reg.metadata }
func (reg *registration[T]) Cached() bool     { return reg.cached }
func (reg *registration[T]) Holding() Holding { return reg.slot.holding() }

// resolve applies the caching policy. override, when non-nil, replaces the
// registration's default caching flag for this call only.
func (reg *registration[T]) resolve(r *Registry, param any, override *bool) (T, error) {
	cached := reg.cached
	if override != nil {
		cached = *override
	}

	if !cached {
		return reg.call(r, param)
	}

	if v, ok := reg.slot.load(); ok {
		return v, nil
	}

	v, err, _ := reg.flight.Do("", func() (any, error) {
		// Another flight may have finished between the fast-path load and
		// entering Do.
		if v, ok := reg.slot.load(); ok {
			return v, nil
		}
		v, err := reg.call(r, param)
		if err != nil {
			return nil, err
		}
		reg.slot.store(v)
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}

	// A nil interface result comes back as a nil any.
	out, _ := v.(T)
	return out, nil
}

// call invokes the factory, converting panics and errors into a
// [*FactoryError].
func (reg *registration[T]) call(r *Registry, param any) (v T, err error) {
	defer func() {
		rec := recover()
		if rec == nil {
			return
		}
		var zero T
		v = zero
		err = &FactoryError{Key: reg.key, Err: fmt.Errorf("%w: %v", ErrFactoryPanic, rec)}
		r.log().Error("guise factory panicked", "key", reg.key, "panic", rec)
	}()

	v, err = reg.factory(r, param)
	if err != nil {
		r.log().Debug("guise factory failed", "key", reg.key, "error", err)
		var zero T
		return zero, &FactoryError{Key: reg.key, Err: err}
	}
	return v, nil
}
