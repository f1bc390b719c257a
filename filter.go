package guise

import "reflect"

// Predicate selects registrations by key.
type Predicate func(AnyKey) bool

// InContainer matches keys in container.
func InContainer(container any) Predicate {
	return func(k AnyKey) bool { return k.Container == container }
}

// Named matches keys with the given name.
func Named(name any) Predicate {
	return func(k AnyKey) bool { return k.Name == name }
}

// OfType matches keys registered as T.
func OfType[T any]() Predicate {
	t := reflect.TypeFor[T]()
	return func(k AnyKey) bool { return k.Type == t }
}

// AllOf matches keys that satisfy every predicate.
func AllOf(preds ...Predicate) Predicate {
	return func(k AnyKey) bool {
		for _, p := range preds {
			if !p(k) {
				return false
			}
		}
		return true
	}
}

// AnyOf matches keys that satisfy at least one predicate.
func AnyOf(preds ...Predicate) Predicate {
	return func(k AnyKey) bool {
		for _, p := range preds {
			if p(k) {
				return true
			}
		}
		return false
	}
}

// Not inverts p.
func Not(p Predicate) Predicate {
	return func(k AnyKey) bool { return !p(k) }
}

// FilterKeys returns the registrations of type T whose typed key satisfies
// pred. A nil predicate matches every registration of type T.
func FilterKeys[T any](r *Registry, pred func(Key[T]) bool) map[Key[T]]Registration {
	out := make(map[Key[T]]Registration)
	for ak, reg := range r.Filter(OfType[T]()) {
		key := MustKey[T](ak)
		if pred == nil || pred(key) {
			out[key] = reg
		}
	}
	return out
}

// Keys returns the keys of type T that satisfy pred, in no particular order.
// The result is typically passed to [ResolveAll] or [ResolveValues].
func Keys[T any](r *Registry, pred Predicate) []Key[T] {
	match := OfType[T]()
	if pred != nil {
		match = AllOf(match, pred)
	}

	regs := r.Filter(match)
	keys := make([]Key[T], 0, len(regs))
	for ak := range regs {
		keys = append(keys, MustKey[T](ak))
	}
	return keys
}
