package guise

import (
	"sync/atomic"
	"weak"
)

// Holding controls how a cached value is kept by its registration.
type Holding int

const (
	// Retained is the default holding. The first cached value is kept for as
	// long as the registration exists.
	Retained Holding = iota

	// Weak keeps only a weak pointer to the cached value. Once nothing else
	// references it the value may be collected, and the next cached
	// resolution calls the factory again. See [RegisterWeak].
	Weak
)

// String returns the human-readable name of the holding.
func (h Holding) String() string {
	switch h {
	case Retained:
		return "retained"
	case Weak:
		return "weak"
	default:
		return "unknown"
	}
}

// slot is the cache cell of a registration. Implementations are safe for
// concurrent use.
type slot[T any] interface {
	load() (T, bool)
	store(v T)
	holding() Holding
}

type retainedSlot[T any] struct {
	p atomic.Pointer[T]
}

func (s *retainedSlot[T]) load() (T, bool) {
	if p := s.p.Load(); p != nil {
		return *p, true
	}
	var zero T
	return zero, false
}

func (s *retainedSlot[T]) store(v T) { s.p.Store(&v) }

func (s *retainedSlot[T]) holding() Holding { return Retained }

type weakSlot[E any] struct {
	p atomic.Pointer[weak.Pointer[E]]
}

func (s *weakSlot[E]) load() (*E, bool) {
	wp := s.p.Load()
	if wp == nil {
		return nil, false
	}
	if v := wp.Value(); v != nil {
		return v, true
	}
	return nil, false
}

// store ignores nil so a nil result is recomputed rather than cached.
func (s *weakSlot[E]) store(v *E) {
	if v == nil {
		return
	}
	wp := weak.Make(v)
	s.p.Store(&wp)
}

func (s *weakSlot[E]) holding() Holding { return Weak }
