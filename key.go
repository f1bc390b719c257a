package guise

import (
	"fmt"
	"log/slog"
	"reflect"
)

// BuiltinName is the type of the name sentinels defined by this package. A
// caller's plain string "default" is never equal to [DefaultName].
type BuiltinName string

// BuiltinContainer is the type of the container sentinels defined by this
// package.
type BuiltinContainer string

const (
	// DefaultName is used when a key is built without a name.
	DefaultName BuiltinName = "default"

	// DefaultContainer is used when a key is built without a container.
	DefaultContainer BuiltinContainer = "default"

	// InjectionsContainer holds the registrations consumed by [ResolveInto].
	InjectionsContainer BuiltinContainer = "injections"
)

// Keyed is implemented by anything that can be reduced to an [AnyKey].
type Keyed interface {
	AnyKey() AnyKey
}

// Key addresses a registration of type T. Name and container are arbitrary
// comparable values; T takes part in equality, so Key[A] and Key[B] with the
// same name and container address different registrations.
//
// Keys are comparable with ==. The zero Key[T] equals TypeKey[T]().
type Key[T any] struct {
	// nil stands for DefaultName and DefaultContainer.
	name      any
	container any
}

// NewKey returns the key for (T, name, container). A nil name or container
// means [DefaultName] or [DefaultContainer].
func NewKey[T any](name, container any) Key[T] {
	if name == DefaultName {
		name = nil
	}
	if container == DefaultContainer {
		container = nil
	}
	return Key[T]{name: name, container: container}
}

// TypeKey returns the key for T with the default name and container.
func TypeKey[T any]() Key[T] { return Key[T]{} }

// NamedKey returns the key for T with the given name in the default container.
func NamedKey[T any](name any) Key[T] { return NewKey[T](name, nil) }

// ContainerKey returns the key for T with the default name in the given
// container.
func ContainerKey[T any](container any) Key[T] { return NewKey[T](nil, container) }

// Name returns the key's name.
func (k Key[T]) Name() any {
	if k.name == nil {
		return DefaultName
	}
	return k.name
}

// Container returns the key's container.
func (k Key[T]) Container() any {
	if k.container == nil {
		return DefaultContainer
	}
	return k.container
}

// Type returns the registered type T.
func (k Key[T]) Type() reflect.Type { return reflect.TypeFor[T]() }

// AnyKey erases the key.
func (k Key[T]) AnyKey() AnyKey {
	return AnyKey{Type: reflect.TypeFor[T](), Name: k.Name(), Container: k.Container()}
}

func (k Key[T]) String() string { return k.AnyKey().String() }

// AnyKey is the type-erased form of a [Key]. It is comparable and safe to use
// as a map key as long as Name and Container hold comparable values.
type AnyKey struct {
	Type      reflect.Type
	Name      any
	Container any
}

// AnyKey returns k itself, so AnyKey satisfies [Keyed].
func (k AnyKey) AnyKey() AnyKey { return k }

func (k AnyKey) String() string {
	return fmt.Sprintf("%s[%v@%v]", k.Type, k.Name, k.Container)
}

// LogValue renders the key as a structured group.
func (k AnyKey) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("type", fmt.Sprint(k.Type)),
		slog.String("name", fmt.Sprint(k.Name)),
		slog.String("container", fmt.Sprint(k.Container)),
	)
}

// AsKey recovers the typed key from k. ok is false when k does not address a
// registration of type T.
func AsKey[T any](k AnyKey) (key Key[T], ok bool) {
	if k.Type != reflect.TypeFor[T]() {
		return Key[T]{}, false
	}
	return NewKey[T](k.Name, k.Container), true
}

// MustKey recovers the typed key from k and panics with a
// [*TypeMismatchError] when k does not address a registration of type T.
func MustKey[T any](k AnyKey) Key[T] {
	key, ok := AsKey[T](k)
	if !ok {
		panic(&TypeMismatchError{Want: reflect.TypeFor[T](), Got: k.Type})
	}
	return key
}

// hashable reports whether k can be stored in a map without panicking.
func (k AnyKey) hashable() bool {
	return isComparable(k.Name) && isComparable(k.Container)
}

func isComparable(v any) bool {
	if v == nil {
		return true
	}
	return reflect.ValueOf(v).Comparable()
}
