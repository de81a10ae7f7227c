package types

import (
	"go/token"
	gotypes "go/types"

	"github.com/smasher164/hrec"
	"golang.org/x/tools/go/types/typeutil"
)

// Equal decides type identity the way the compiler does. Aliases are
// identical to the type they denote; distinct named types never are.
func Equal(x, y gotypes.Type) hrec.Bool {
	return hrec.BoolOf(gotypes.Identical(x, y))
}

// Opt is the outcome of a lookup: either the field at Index, whose value
// type is Elem, or an absent value of type Elem.
type Opt struct {
	Present bool
	Index   int
	Elem    gotypes.Type
}

func absent(elem gotypes.Type) Opt { return Opt{Index: -1, Elem: elem} }

// Then yields the field at index when b is True.
func Then(b hrec.Bool, index int, elem gotypes.Type) Opt {
	if b.Value() {
		return Opt{Present: true, Index: index, Elem: elem}
	}
	return absent(elem)
}

// Combine is left-biased: lhs wins whenever it is present.
func Combine(lhs, rhs Opt) Opt {
	if lhs.Present {
		return lhs
	}
	return rhs
}

var anyType = gotypes.Universe.Lookup("any").Type()

// Resolver evaluates lookups against records and remembers the answer for
// every distinct key and value combination it has seen.
type Resolver struct {
	memo  map[*Record]*typeutil.Map
	evals int
}

func NewResolver() *Resolver {
	return &Resolver{memo: make(map[*Record]*typeutil.Map)}
}

// Resolve looks up key in r. A nil value selects the single-key form,
// where only keys are compared and a miss has element type any.
func (res *Resolver) Resolve(r *Record, key, value gotypes.Type) Opt {
	m := res.memo[r]
	if m == nil {
		m = new(typeutil.Map)
		res.memo[r] = m
	}
	k := lookupKey(key, value)
	if opt, ok := m.At(k).(Opt); ok {
		return opt
	}
	res.evals++
	opt := get(r.Fields, 0, key, value)
	m.Set(k, opt)
	return opt
}

func lookupKey(key, value gotypes.Type) *gotypes.Tuple {
	vars := []*gotypes.Var{gotypes.NewParam(token.NoPos, nil, "", key)}
	if value != nil {
		vars = append(vars, gotypes.NewParam(token.NoPos, nil, "", value))
	}
	return gotypes.NewTuple(vars...)
}

func get(fields []*Field, i int, key, value gotypes.Type) Opt {
	if i == len(fields) {
		if value == nil {
			return absent(anyType)
		}
		return absent(value)
	}
	return Combine(member(fields[i], i, key, value), get(fields, i+1, key, value))
}

func member(f *Field, i int, key, value gotypes.Type) Opt {
	match := Equal(f.Key, key)
	if value != nil {
		match = hrec.And(match, Equal(f.Value, value))
	}
	return Then(match, i, f.Value)
}
