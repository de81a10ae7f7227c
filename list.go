package hrec

// List is a heterogeneous list: Nil, or a Cons whose tail is itself a
// List. A chain that does not end in Nil does not satisfy the constraint
// on Cons and fails to compile.
type List interface {
	Len() int
	uncons() (head any, tail List, ok bool)
}

var (
	_ List = Nil{}
	_ List = Cons[Member[struct{}, int], Nil]{}
)

type Nil struct{}

func (Nil) Len() int { return 0 }

func (Nil) uncons() (any, List, bool) { return nil, nil, false }

// Cons is a non-empty list. Its fields are exported so generated
// accessors can reach them; treat a built list as read-only.
type Cons[H any, T List] struct {
	Head H
	Tail T
}

func (c Cons[H, T]) Len() int { return 1 + c.Tail.Len() }

func (c Cons[H, T]) uncons() (any, List, bool) { return c.Head, c.Tail, true }

// Push prepends head to tail.
func Push[H any, T List](head H, tail T) Cons[H, T] {
	return Cons[H, T]{Head: head, Tail: tail}
}

// Member is a record field. K is a tag type that only exists at compile
// time; Value is the field's payload. Members are immutable by convention:
// nothing in this package assigns Value after Field builds it, and callers
// should not either.
type Member[K, V any] struct {
	Value V
}

// Field builds a member for key K. V is inferred from v:
//
//	hrec.Field[Name]("gopher")
func Field[K, V any](v V) Member[K, V] {
	return Member[K, V]{Value: v}
}

func (Member[K, V]) tag(K) {}

func (m Member[K, V]) value() V { return m.Value }

func (m Member[K, V]) boxed() any { return m.Value }

type keyed[K any] interface {
	tag(K)
}

type valued[V any] interface {
	value() V
}

type boxer interface {
	boxed() any
}
