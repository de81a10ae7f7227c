package hrec

// Bool is a Boolean lifted into the type system. Its only implementations
// are True and False.
type Bool interface {
	Value() bool
	isBool()
}

type True struct{}

type False struct{}

func (True) Value() bool  { return true }
func (False) Value() bool { return false }

func (True) isBool()  {}
func (False) isBool() {}

func (True) String() string  { return "True" }
func (False) String() string { return "False" }

// BoolOf lifts v.
func BoolOf(v bool) Bool {
	if v {
		return True{}
	}
	return False{}
}

// And returns b if a is True and False otherwise.
func And(a, b Bool) Bool {
	if a.Value() {
		return b
	}
	return False{}
}

// Or returns True if a is True and b otherwise.
func Or(a, b Bool) Bool {
	if a.Value() {
		return True{}
	}
	return b
}

func Not(a Bool) Bool {
	if a.Value() {
		return False{}
	}
	return True{}
}

// Then turns b into an Optional. value is only called when b is True.
func Then[T any](b Bool, value func() T) Optional[T] {
	if b.Value() {
		return Some(value())
	}
	return None[T]()
}

type probe[T any] struct{}

func (probe[T]) is(T) {}

type isser[T any] interface {
	is(T)
}

// Equal reports whether X and Y are identical types. The default answer
// is False; a probe[X] only has the method is(Y) when X and Y are the
// same type, and that overrides it.
func Equal[X, Y any]() Bool {
	var p any = probe[X]{}
	if _, ok := p.(isser[Y]); ok {
		return True{}
	}
	return False{}
}
