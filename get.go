package hrec

// Get looks up the field with key K and value type V in l. The first
// matching field wins; later fields with the same key are shadowed.
//
// Get decides type identity while the program runs. Generated accessors
// (see cmd/hrecgen) settle the same question at generate time and should
// be preferred when the record shape is declared in a .hrec file.
func Get[K, V any](l List) Optional[V] {
	head, tail, ok := l.uncons()
	if !ok {
		return None[V]()
	}
	return Combine(lookup[K, V](head), Get[K, V](tail))
}

// Find is the single-key form of Get. The value type is not known to the
// caller, so the result is an Optional[any].
func Find[K any](l List) Optional[any] {
	head, tail, ok := l.uncons()
	if !ok {
		return None[any]()
	}
	return Combine(lookupKey[K](head), Find[K](tail))
}

func lookup[K, V any](node any) Optional[V] {
	_, keyOK := node.(keyed[K])
	f, valueOK := node.(valued[V])
	return Then(And(BoolOf(keyOK), BoolOf(valueOK)), func() V {
		return f.value()
	})
}

func lookupKey[K any](node any) Optional[any] {
	_, keyOK := node.(keyed[K])
	b, _ := node.(boxer)
	return Then(BoolOf(keyOK), func() any {
		return b.boxed()
	})
}
