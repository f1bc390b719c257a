package guise

import (
	"errors"
	"reflect"
)

var (
	// ErrTypeMismatch is the sentinel wrapped by [TypeMismatchError]. It is
	// only ever raised through a panic: asking for a typed key or
	// registration of the wrong type is a programming error.
	ErrTypeMismatch = errors.New("guise: type mismatch")

	// ErrFactoryPanic is wrapped by a [FactoryError] when the factory panicked
	// instead of returning.
	ErrFactoryPanic = errors.New("guise: factory panicked")
)

// TypeMismatchError reports an erased key or registration recovered as the
// wrong type.
type TypeMismatchError struct {
	Want reflect.Type
	Got  reflect.Type
}

// Error implements the error interface.
func (e *TypeMismatchError) Error() string {
	return ErrTypeMismatch.Error() + ": want " + typeName(e.Want) + ", got " + typeName(e.Got)
}

// Unwrap returns [ErrTypeMismatch].
func (e *TypeMismatchError) Unwrap() error { return ErrTypeMismatch }

// FactoryError is returned when a registration's factory fails. The cache
// slot is never populated by a failed call.
type FactoryError struct {
	Key AnyKey
	Err error
}

// Error implements the error interface.
func (e *FactoryError) Error() string {
	return "guise: factory for " + e.Key.String() + ": " + e.Err.Error()
}

// Unwrap returns the underlying factory error.
func (e *FactoryError) Unwrap() error { return e.Err }

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
