package guise

import (
	"fmt"
	"reflect"
)

// Injection fills dependencies into target and returns the result, which is
// normally target itself.
type Injection[T any] func(target T, r *Registry) (T, error)

// Injector collects injections for T and registers them as the
// [InjectionsContainer] registration consumed by [ResolveInto].
//
//	guise.InjectKey(guise.NewInjector[*Handler](r), guise.TypeKey[Store](),
//	    func(h *Handler, s Store) { h.Store = s }).
//	    Register()
type Injector[T any] struct {
	r          *Registry
	injections []Injection[T]
}

// NewInjector returns an empty injector for T bound to r.
func NewInjector[T any](r *Registry) *Injector[T] {
	return &Injector[T]{r: r}
}

// Inject appends an injection. Injections run in the order they were added.
func (i *Injector[T]) Inject(inj Injection[T]) *Injector[T] {
	if inj != nil {
		i.injections = append(i.injections, inj)
	}
	return i
}

// InjectKey appends an injection that resolves key and passes the value to
// assign. When key has no registration assign is not called.
func InjectKey[T, D any](i *Injector[T], key Key[D], assign func(target T, dep D), opts ...ResolveOption) *Injector[T] {
	return i.Inject(func(target T, r *Registry) (T, error) {
		dep, ok, err := Resolve(r, key, opts...)
		if err != nil {
			return target, fmt.Errorf("inject %s: %w", key, err)
		}
		if ok {
			assign(target, dep)
		}
		return target, nil
	})
}

// Register stores the injector under (T, [DefaultName],
// [InjectionsContainer]), replacing any earlier injector for T. The chain
// stops at the first failing injection.
func (i *Injector[T]) Register() Key[T] {
	injections := append([]Injection[T](nil), i.injections...)

	return Register(i.r, ContainerKey[T](InjectionsContainer), func(r *Registry, param any) (T, error) {
		p, ok := param.(InjectionParams[T])
		if !ok {
			var zero T
			return zero, fmt.Errorf("injector for %s: unexpected parameter %T", reflect.TypeFor[T](), param)
		}

		target := p.Target
		for _, inj := range injections {
			var err error
			if target, err = inj(target, r); err != nil {
				return target, err
			}
		}
		return target, nil
	})
}
