package hrec

import (
	"fmt"
	"strings"
)

// Optional is the result of a lookup. The variant is part of the static
// type: a value is either a Present[T] or an Absent[T] and never changes.
type Optional[T any] interface {
	// Option converts to Go's comma-ok form.
	Option() (T, bool)
	IsPresent() bool
	// Unwrap returns the value, and panics with a *MissingError when
	// there is none.
	Unwrap() T
	// Expect is Unwrap with the requested key named in the panic.
	Expect(key string) T
	isOptional()
}

type Absent[T any] struct{}

type Present[T any] struct {
	value T
}

var (
	_ Optional[int] = Absent[int]{}
	_ Optional[int] = Present[int]{}
)

// Some is the Present constructor.
func Some[T any](v T) Present[T] {
	return Present[T]{value: v}
}

func None[T any]() Absent[T] {
	return Absent[T]{}
}

// FromOption is the inverse of Option.
func FromOption[T any](v T, ok bool) Optional[T] {
	if ok {
		return Some(v)
	}
	return None[T]()
}

// Combine returns lhs if it is present and rhs otherwise.
func Combine[T any](lhs, rhs Optional[T]) Optional[T] {
	if lhs.IsPresent() {
		return lhs
	}
	return rhs
}

func (Absent[T]) Option() (T, bool) {
	var zero T
	return zero, false
}

func (Absent[T]) IsPresent() bool { return false }

func (Absent[T]) Unwrap() T {
	panic(&MissingError{Type: typeName[T]()})
}

func (Absent[T]) Expect(key string) T {
	panic(&MissingError{Key: key, Type: typeName[T]()})
}

func (Absent[T]) String() string {
	return fmt.Sprintf("Absent[%s]", typeName[T]())
}

func (Absent[T]) isOptional() {}

// Value returns the wrapped value. Unlike Unwrap it is only defined on
// Present, so it cannot fail.
func (p Present[T]) Value() T { return p.value }

func (p Present[T]) Option() (T, bool) { return p.value, true }

func (Present[T]) IsPresent() bool { return true }

func (p Present[T]) Unwrap() T { return p.value }

func (p Present[T]) Expect(string) T { return p.value }

func (p Present[T]) String() string {
	return fmt.Sprintf("Present(%v)", p.value)
}

func (Present[T]) isOptional() {}

// MissingError is the panic value raised when an absent lookup result is
// unwrapped.
type MissingError struct {
	Key  string
	Type string
}

func (e *MissingError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("hrec: no value of type %s present", e.Type)
	}
	return fmt.Sprintf("hrec: no value found for key %s (want %s)", e.Key, e.Type)
}

func typeName[T any]() string {
	return strings.TrimPrefix(fmt.Sprintf("%T", (*T)(nil)), "*")
}
