package zen

import (
	"fmt"
	"strings"

	"github.com/benbjohnson/immutable"
)

// Value is the lowering of an expression onto a solver's native terms.
// Scalars hold a single term; composites hold one value per component.
type Value[T any] interface {
	Solver() Solver[T]

	// Merge returns a value that equals the receiver when guard holds and
	// other otherwise. Both values must have the same shape.
	Merge(guard T, other Value[T]) (Value[T], error)

	value()
}

func (*SymbolicBool[T]) value()    {}
func (*SymbolicBitvec[T]) value()  {}
func (*SymbolicInteger[T]) value() {}
func (*SymbolicString[T]) value()  {}
func (*SymbolicObject[T]) value()  {}
func (*SymbolicDict[T]) value()    {}
func (*SymbolicList[T]) value()    {}
func (*SymbolicSeq[T]) value()     {}

// SymbolicBool represents a boolean term.
type SymbolicBool[T any] struct {
	solver Solver[T]
	Term   T
}

// NewSymbolicBool returns a boolean value for term.
func NewSymbolicBool[T any](s Solver[T], term T) *SymbolicBool[T] {
	return &SymbolicBool[T]{solver: s, Term: term}
}

// Solver returns the solver that created the value's terms.
func (v *SymbolicBool[T]) Solver() Solver[T] { return v.solver }

// Merge returns ite(guard, v, other).
func (v *SymbolicBool[T]) Merge(guard T, other Value[T]) (Value[T], error) {
	o := mustSameVariant(v, other)
	term, err := v.solver.Ite(guard, v.Term, o.Term)
	if err != nil {
		return nil, err
	}
	return NewSymbolicBool(v.solver, term), nil
}

// SymbolicBitvec represents a fixed-width bit vector term.
type SymbolicBitvec[T any] struct {
	solver Solver[T]
	Term   T
	Width  uint
}

// NewSymbolicBitvec returns a bit vector value for term.
func NewSymbolicBitvec[T any](s Solver[T], term T, width uint) *SymbolicBitvec[T] {
	return &SymbolicBitvec[T]{solver: s, Term: term, Width: width}
}

// Solver returns the solver that created the value's terms.
func (v *SymbolicBitvec[T]) Solver() Solver[T] { return v.solver }

// Merge returns ite(guard, v, other).
func (v *SymbolicBitvec[T]) Merge(guard T, other Value[T]) (Value[T], error) {
	o := mustSameVariant(v, other)
	assert(v.Width == o.Width, "merge: bitvec width mismatch: %d != %d", v.Width, o.Width)
	term, err := v.solver.Ite(guard, v.Term, o.Term)
	if err != nil {
		return nil, err
	}
	return NewSymbolicBitvec(v.solver, term, v.Width), nil
}

// SymbolicInteger represents an unbounded integer term.
type SymbolicInteger[T any] struct {
	solver Solver[T]
	Term   T
}

// NewSymbolicInteger returns an integer value for term.
func NewSymbolicInteger[T any](s Solver[T], term T) *SymbolicInteger[T] {
	return &SymbolicInteger[T]{solver: s, Term: term}
}

// Solver returns the solver that created the value's terms.
func (v *SymbolicInteger[T]) Solver() Solver[T] { return v.solver }

// Merge returns ite(guard, v, other).
func (v *SymbolicInteger[T]) Merge(guard T, other Value[T]) (Value[T], error) {
	o := mustSameVariant(v, other)
	term, err := v.solver.Ite(guard, v.Term, o.Term)
	if err != nil {
		return nil, err
	}
	return NewSymbolicInteger(v.solver, term), nil
}

// SymbolicString represents a string term.
type SymbolicString[T any] struct {
	solver Solver[T]
	Term   T
}

// NewSymbolicString returns a string value for term.
func NewSymbolicString[T any](s Solver[T], term T) *SymbolicString[T] {
	return &SymbolicString[T]{solver: s, Term: term}
}

// Solver returns the solver that created the value's terms.
func (v *SymbolicString[T]) Solver() Solver[T] { return v.solver }

// Merge returns ite(guard, v, other).
func (v *SymbolicString[T]) Merge(guard T, other Value[T]) (Value[T], error) {
	o := mustSameVariant(v, other)
	term, err := v.solver.Ite(guard, v.Term, o.Term)
	if err != nil {
		return nil, err
	}
	return NewSymbolicString(v.solver, term), nil
}

// SymbolicObject represents a record with one value per field.
type SymbolicObject[T any] struct {
	solver Solver[T]
	Type   *Type
	Fields *immutable.SortedMap // field name -> Value[T]
}

// NewSymbolicObject returns an object value with no fields set.
func NewSymbolicObject[T any](s Solver[T], typ *Type) *SymbolicObject[T] {
	return &SymbolicObject[T]{solver: s, Type: typ, Fields: immutable.NewSortedMap(keyComparer{})}
}

// Solver returns the solver that created the value's terms.
func (v *SymbolicObject[T]) Solver() Solver[T] { return v.solver }

// Field returns the value of the named field or nil if not set.
func (v *SymbolicObject[T]) Field(name string) Value[T] {
	if value, ok := v.Fields.Get(name); ok {
		return value.(Value[T])
	}
	return nil
}

// WithField returns a copy of v with the named field set to value.
func (v *SymbolicObject[T]) WithField(name string, value Value[T]) *SymbolicObject[T] {
	return &SymbolicObject[T]{solver: v.solver, Type: v.Type, Fields: v.Fields.Set(name, value)}
}

// Merge merges each field.
func (v *SymbolicObject[T]) Merge(guard T, other Value[T]) (Value[T], error) {
	o := mustSameVariant(v, other)
	assert(v.Type == o.Type, "merge: object type mismatch: %s != %s", v.Type, o.Type)
	assert(v.Fields.Len() == o.Fields.Len(), "merge: object field count mismatch: %d != %d", v.Fields.Len(), o.Fields.Len())

	out := NewSymbolicObject(v.solver, v.Type)
	for itr := v.Fields.Iterator(); !itr.Done(); {
		name, value := itr.Next()
		ov := o.Field(name.(string))
		assert(ov != nil, "merge: missing object field: %s", name)

		merged, err := value.(Value[T]).Merge(guard, ov)
		if err != nil {
			return nil, err
		}
		out = out.WithField(name.(string), merged)
	}
	return out, nil
}

// DictEntry is a dictionary binding that exists when Present holds.
type DictEntry[T any] struct {
	Present T
	Value   Value[T]
}

// SymbolicDict represents a dictionary over constant keys. A key without an
// entry is not present.
type SymbolicDict[T any] struct {
	solver  Solver[T]
	Type    *Type
	Entries *immutable.SortedMap // key -> DictEntry[T]
}

// NewSymbolicDict returns an empty dictionary value.
func NewSymbolicDict[T any](s Solver[T], typ *Type) *SymbolicDict[T] {
	return &SymbolicDict[T]{solver: s, Type: typ, Entries: immutable.NewSortedMap(keyComparer{})}
}

// Solver returns the solver that created the value's terms.
func (v *SymbolicDict[T]) Solver() Solver[T] { return v.solver }

// Entry returns the entry for key, if any.
func (v *SymbolicDict[T]) Entry(key interface{}) (DictEntry[T], bool) {
	if entry, ok := v.Entries.Get(key); ok {
		return entry.(DictEntry[T]), true
	}
	return DictEntry[T]{}, false
}

// WithEntry returns a copy of v with key bound to entry.
func (v *SymbolicDict[T]) WithEntry(key interface{}, entry DictEntry[T]) *SymbolicDict[T] {
	return &SymbolicDict[T]{solver: v.solver, Type: v.Type, Entries: v.Entries.Set(key, entry)}
}

// Merge merges the entries of both dictionaries. A key bound on only one
// side is present only when that side is selected.
func (v *SymbolicDict[T]) Merge(guard T, other Value[T]) (Value[T], error) {
	o := mustSameVariant(v, other)
	assert(v.Type == o.Type, "merge: dict type mismatch: %s != %s", v.Type, o.Type)

	f, err := v.solver.Bool(false)
	if err != nil {
		return nil, err
	}

	out := NewSymbolicDict(v.solver, v.Type)
	for itr := v.Entries.Iterator(); !itr.Done(); {
		key, value := itr.Next()
		entry := value.(DictEntry[T])

		oentry, ok := o.Entry(key)
		if !ok {
			present, err := v.solver.Ite(guard, entry.Present, f)
			if err != nil {
				return nil, err
			}
			out = out.WithEntry(key, DictEntry[T]{Present: present, Value: entry.Value})
			continue
		}

		present, err := v.solver.Ite(guard, entry.Present, oentry.Present)
		if err != nil {
			return nil, err
		}
		merged, err := entry.Value.Merge(guard, oentry.Value)
		if err != nil {
			return nil, err
		}
		out = out.WithEntry(key, DictEntry[T]{Present: present, Value: merged})
	}

	for itr := o.Entries.Iterator(); !itr.Done(); {
		key, value := itr.Next()
		if _, ok := v.Entries.Get(key); ok {
			continue
		}
		entry := value.(DictEntry[T])
		present, err := v.solver.Ite(guard, f, entry.Present)
		if err != nil {
			return nil, err
		}
		out = out.WithEntry(key, DictEntry[T]{Present: present, Value: entry.Value})
	}
	return out, nil
}

// SymbolicList represents a list with a fixed number of elements.
type SymbolicList[T any] struct {
	solver Solver[T]
	Type   *Type
	Elems  *immutable.List // Value[T]
}

// NewSymbolicList returns a list value holding elems.
func NewSymbolicList[T any](s Solver[T], typ *Type, elems ...Value[T]) *SymbolicList[T] {
	return &SymbolicList[T]{solver: s, Type: typ, Elems: newValueList(elems)}
}

// Solver returns the solver that created the value's terms.
func (v *SymbolicList[T]) Solver() Solver[T] { return v.solver }

// Elem returns the element at index i.
func (v *SymbolicList[T]) Elem(i int) Value[T] { return v.Elems.Get(i).(Value[T]) }

// WithElem returns a copy of v with the element at index i replaced.
func (v *SymbolicList[T]) WithElem(i int, elem Value[T]) *SymbolicList[T] {
	return &SymbolicList[T]{solver: v.solver, Type: v.Type, Elems: v.Elems.Set(i, elem)}
}

// Merge merges the lists element-wise.
func (v *SymbolicList[T]) Merge(guard T, other Value[T]) (Value[T], error) {
	o := mustSameVariant(v, other)
	elems, err := mergeValueLists(guard, v.Elems, o.Elems)
	if err != nil {
		return nil, err
	}
	return &SymbolicList[T]{solver: v.solver, Type: v.Type, Elems: elems}, nil
}

// SymbolicSeq represents a sequence of bounded capacity. Only the first
// Length elements are part of the sequence.
type SymbolicSeq[T any] struct {
	solver Solver[T]
	Type   *Type
	Length T // integer term
	Elems  *immutable.List
}

// NewSymbolicSeq returns a sequence value of the given length over elems.
func NewSymbolicSeq[T any](s Solver[T], typ *Type, length T, elems ...Value[T]) *SymbolicSeq[T] {
	return &SymbolicSeq[T]{solver: s, Type: typ, Length: length, Elems: newValueList(elems)}
}

// Solver returns the solver that created the value's terms.
func (v *SymbolicSeq[T]) Solver() Solver[T] { return v.solver }

// Elem returns the element at index i.
func (v *SymbolicSeq[T]) Elem(i int) Value[T] { return v.Elems.Get(i).(Value[T]) }

// Merge merges the lengths and the elements.
func (v *SymbolicSeq[T]) Merge(guard T, other Value[T]) (Value[T], error) {
	o := mustSameVariant(v, other)
	length, err := v.solver.Ite(guard, v.Length, o.Length)
	if err != nil {
		return nil, err
	}
	elems, err := mergeValueLists(guard, v.Elems, o.Elems)
	if err != nil {
		return nil, err
	}
	return &SymbolicSeq[T]{solver: v.solver, Type: v.Type, Length: length, Elems: elems}, nil
}

func newValueList[T any](elems []Value[T]) *immutable.List {
	l := immutable.NewList()
	for _, elem := range elems {
		l = l.Append(elem)
	}
	return l
}

func mergeValueLists[T any](guard T, a, b *immutable.List) (*immutable.List, error) {
	assert(a.Len() == b.Len(), "merge: length mismatch: %d != %d", a.Len(), b.Len())

	out := immutable.NewList()
	for i := 0; i < a.Len(); i++ {
		merged, err := a.Get(i).(Value[T]).Merge(guard, b.Get(i).(Value[T]))
		if err != nil {
			return nil, err
		}
		out = out.Append(merged)
	}
	return out, nil
}

// mustSameVariant returns other as the variant of v or panics.
func mustSameVariant[V Value[T], T any](v V, other Value[T]) V {
	o, ok := other.(V)
	assert(ok, "merge: value mismatch: %T != %T", v, other)
	return o
}

// keyComparer orders dictionary keys and field names. Implements
// immutable.Comparer. Keys of different types order by type name.
type keyComparer struct{}

// Compare returns -1 if a is less than b, returns 1 if a is greater than b,
// and returns 0 if a is equal to b.
func (keyComparer) Compare(a, b interface{}) int {
	switch a := a.(type) {
	case string:
		if b, ok := b.(string); ok {
			return strings.Compare(a, b)
		}
	case int:
		if b, ok := b.(int); ok {
			return compareOrdered(a, b)
		}
	case int64:
		if b, ok := b.(int64); ok {
			return compareOrdered(a, b)
		}
	case uint64:
		if b, ok := b.(uint64); ok {
			return compareOrdered(a, b)
		}
	case bool:
		if b, ok := b.(bool); ok {
			switch {
			case a == b:
				return 0
			case !a:
				return -1
			default:
				return 1
			}
		}
	}

	if a == b {
		return 0
	} else if c := strings.Compare(fmt.Sprintf("%T", a), fmt.Sprintf("%T", b)); c != 0 {
		return c
	}
	return strings.Compare(fmt.Sprintf("%#v", a), fmt.Sprintf("%#v", b))
}

func compareOrdered[K int | int64 | uint64](a, b K) int {
	if a < b {
		return -1
	} else if a > b {
		return 1
	}
	return 0
}

// ValueVisitor computes a value of type R for each variant of Value[T].
type ValueVisitor[T, P, R any] interface {
	VisitBool(v *SymbolicBool[T], p P) (R, error)
	VisitBitvec(v *SymbolicBitvec[T], p P) (R, error)
	VisitInteger(v *SymbolicInteger[T], p P) (R, error)
	VisitString(v *SymbolicString[T], p P) (R, error)
	VisitObject(v *SymbolicObject[T], p P) (R, error)
	VisitDict(v *SymbolicDict[T], p P) (R, error)
	VisitList(v *SymbolicList[T], p P) (R, error)
	VisitSeq(v *SymbolicSeq[T], p P) (R, error)
}

// VisitValue calls the method of vis for the variant of v.
func VisitValue[T, P, R any](vis ValueVisitor[T, P, R], v Value[T], p P) (R, error) {
	switch v := v.(type) {
	case *SymbolicBool[T]:
		return vis.VisitBool(v, p)
	case *SymbolicBitvec[T]:
		return vis.VisitBitvec(v, p)
	case *SymbolicInteger[T]:
		return vis.VisitInteger(v, p)
	case *SymbolicString[T]:
		return vis.VisitString(v, p)
	case *SymbolicObject[T]:
		return vis.VisitObject(v, p)
	case *SymbolicDict[T]:
		return vis.VisitDict(v, p)
	case *SymbolicList[T]:
		return vis.VisitList(v, p)
	case *SymbolicSeq[T]:
		return vis.VisitSeq(v, p)
	default:
		panic("unreachable")
	}
}
