package zen

import (
	"fmt"
	"strconv"
	"strings"
)

type (
	listKey struct {
		typ   *Type
		elems string
	}
	indexKey struct {
		x uint64
		i int
	}
	listSetKey struct {
		l     uint64
		i     int
		value uint64
	}

	listArgs struct {
		typ   *Type
		elems []Expr
	}
	indexArgs struct {
		x Expr
		i int
	}
	listSetArgs struct {
		l     Expr
		i     int
		value Expr
	}
)

var (
	listCache        *cache[listKey, listArgs, Expr]
	listGetCache     *cache[indexKey, indexArgs, Expr]
	listSetCache     *cache[listSetKey, listSetArgs, Expr]
	seqCache         *cache[listKey, listArgs, Expr]
	seqLengthCache   *cache[uint64, Expr, Expr]
	seqGetCache      *cache[indexKey, indexArgs, Expr]
	seqAddFrontCache *cache[pairKey, pairArgs, Expr]
)

func init() {
	listCache = newCache[listKey]("list", func(args listArgs) Expr {
		listCache.nodes.Add(1)
		return &ListExpr{exprNode: newExprNode(args.typ), elems: args.elems}
	})
	listGetCache = newCache[indexKey]("list-get", simplifyListGet)
	listSetCache = newCache[listSetKey]("list-set", simplifyListSet)
	seqCache = newCache[listKey]("seq", func(args listArgs) Expr {
		seqCache.nodes.Add(1)
		return &SeqExpr{exprNode: newExprNode(args.typ), elems: args.elems}
	})
	seqLengthCache = newCache[uint64]("seq-length", simplifySeqLength)
	seqGetCache = newCache[indexKey]("seq-get", simplifySeqGet)
	seqAddFrontCache = newCache[pairKey]("seq-add-front", simplifySeqAddFront)
}

// elemIDs returns the comma-separated ids of elems, requiring each to have
// type elem.
func elemIDs(op string, elem *Type, elems []Expr) string {
	var ids strings.Builder
	for i, e := range elems {
		requireExpr(op, "elem", e)
		assert(e.Type() == elem, "%s: element %d: type mismatch: %s != %s", op, i, e.Type(), elem)
		if i > 0 {
			ids.WriteByte(',')
		}
		ids.WriteString(strconv.FormatUint(e.ID(), 10))
	}
	return ids.String()
}

func formatElems(name string, typ *Type, elems []Expr) string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "(%s %s", name, typ)
	for _, e := range elems {
		fmt.Fprintf(&buf, " %s", e)
	}
	buf.WriteString(")")
	return buf.String()
}

// ListExpr represents a list literal.
type ListExpr struct {
	exprNode
	elems []Expr
}

// NewListExpr returns a list of type typ holding elems. The number of
// elements must equal the length of the type.
func NewListExpr(typ *Type, elems ...Expr) Expr {
	assert(typ != nil && typ.Kind() == KindList, "list: non-list type: %s", typ)
	assert(len(elems) == typ.Size(), "list: %s: length mismatch: %d != %d", typ, len(elems), typ.Size())

	k := listKey{typ: typ, elems: elemIDs("NewListExpr", typ.Elem(), elems)}
	return listCache.GetOrInsert(k, listArgs{typ: typ, elems: append([]Expr(nil), elems...)})
}

// Elems returns a copy of the element expressions.
func (e *ListExpr) Elems() []Expr { return append([]Expr(nil), e.elems...) }

// Elem returns the expression of the element at index i.
func (e *ListExpr) Elem(i int) Expr { return e.elems[i] }

// String returns the string representation of the expression.
func (e *ListExpr) String() string { return formatElems("list", e.typ, e.elems) }

// ListGetExpr represents reading a constant index of a list.
type ListGetExpr struct {
	exprNode
	l Expr
	i int
}

// NewListGetExpr returns the element of l at index i.
func NewListGetExpr(l Expr, i int) Expr {
	requireExpr("NewListGetExpr", "list", l)
	assert(l.Type().Kind() == KindList, "list-get: non-list operand: %s", l.Type())
	assert(i >= 0 && i < l.Type().Size(), "list-get: index out of range: %d", i)

	return listGetCache.GetOrInsert(indexKey{x: l.ID(), i: i}, indexArgs{x: l, i: i})
}

func simplifyListGet(args indexArgs) Expr {
	switch l := args.x.(type) {
	case *ListExpr:
		return l.elems[args.i]
	case *ListSetExpr:
		// get(set(l, i, v), i) = v
		// get(set(l, j, v), i) = get(l, i)
		if l.i == args.i {
			return l.value
		}
		return NewListGetExpr(l.l, args.i)
	}

	listGetCache.nodes.Add(1)
	return &ListGetExpr{exprNode: newExprNode(args.x.Type().Elem()), l: args.x, i: args.i}
}

// List returns the list being read.
func (e *ListGetExpr) List() Expr { return e.l }

// Index returns the constant index.
func (e *ListGetExpr) Index() int { return e.i }

// String returns the string representation of the expression.
func (e *ListGetExpr) String() string {
	return fmt.Sprintf("(list-get %s %d)", e.l, e.i)
}

// ListSetExpr represents a list with the element at a constant index replaced.
type ListSetExpr struct {
	exprNode
	l     Expr
	i     int
	value Expr
}

// NewListSetExpr returns l with the element at index i replaced by value.
func NewListSetExpr(l Expr, i int, value Expr) Expr {
	requireExpr("NewListSetExpr", "list", l)
	requireExpr("NewListSetExpr", "value", value)
	assert(l.Type().Kind() == KindList, "list-set: non-list operand: %s", l.Type())
	assert(i >= 0 && i < l.Type().Size(), "list-set: index out of range: %d", i)
	assert(value.Type() == l.Type().Elem(), "list-set: value type mismatch: %s != %s", value.Type(), l.Type().Elem())

	k := listSetKey{l: l.ID(), i: i, value: value.ID()}
	return listSetCache.GetOrInsert(k, listSetArgs{l: l, i: i, value: value})
}

func simplifyListSet(args listSetArgs) Expr {
	switch l := args.l.(type) {
	case *ListExpr:
		elems := l.Elems()
		elems[args.i] = args.value
		return NewListExpr(l.typ, elems...)
	case *ListSetExpr:
		// set(set(l, i, a), i, b) = set(l, i, b)
		if l.i == args.i {
			return NewListSetExpr(l.l, args.i, args.value)
		}
	}

	listSetCache.nodes.Add(1)
	return &ListSetExpr{exprNode: newExprNode(args.l.Type()), l: args.l, i: args.i, value: args.value}
}

// List returns the list being updated.
func (e *ListSetExpr) List() Expr { return e.l }

// Index returns the constant index.
func (e *ListSetExpr) Index() int { return e.i }

// Value returns the new element.
func (e *ListSetExpr) Value() Expr { return e.value }

// String returns the string representation of the expression.
func (e *ListSetExpr) String() string {
	return fmt.Sprintf("(list-set %s %d %s)", e.l, e.i, e.value)
}

// SeqExpr represents a sequence literal.
type SeqExpr struct {
	exprNode
	elems []Expr
}

// NewSeqExpr returns a sequence of type typ holding elems. The number of
// elements may not exceed the capacity of the type.
func NewSeqExpr(typ *Type, elems ...Expr) Expr {
	assert(typ != nil && typ.Kind() == KindSeq, "seq: non-seq type: %s", typ)
	assert(len(elems) <= typ.Size(), "seq: %s: capacity exceeded: %d", typ, len(elems))

	k := listKey{typ: typ, elems: elemIDs("NewSeqExpr", typ.Elem(), elems)}
	return seqCache.GetOrInsert(k, listArgs{typ: typ, elems: append([]Expr(nil), elems...)})
}

// Elems returns a copy of the element expressions.
func (e *SeqExpr) Elems() []Expr { return append([]Expr(nil), e.elems...) }

// Len returns the number of elements.
func (e *SeqExpr) Len() int { return len(e.elems) }

// String returns the string representation of the expression.
func (e *SeqExpr) String() string { return formatElems("seq", e.typ, e.elems) }

// SeqLengthExpr represents the number of elements of a sequence.
type SeqLengthExpr struct {
	exprNode
	s Expr
}

// NewSeqLengthExpr returns the length of s as an integer.
func NewSeqLengthExpr(s Expr) Expr {
	requireExpr("NewSeqLengthExpr", "seq", s)
	assert(s.Type().Kind() == KindSeq, "seq-length: non-seq operand: %s", s.Type())
	return seqLengthCache.GetOrInsert(s.ID(), s)
}

func simplifySeqLength(s Expr) Expr {
	if s, ok := s.(*SeqExpr); ok {
		return NewIntegerExprInt64(int64(len(s.elems)))
	}
	seqLengthCache.nodes.Add(1)
	return &SeqLengthExpr{exprNode: newExprNode(IntType()), s: s}
}

// Seq returns the sequence operand.
func (e *SeqLengthExpr) Seq() Expr { return e.s }

// String returns the string representation of the expression.
func (e *SeqLengthExpr) String() string {
	return fmt.Sprintf("(seq-length %s)", e.s)
}

// SeqGetExpr represents reading a constant index of a sequence. An index at
// or past the length reads as the default value of the element type.
type SeqGetExpr struct {
	exprNode
	s Expr
	i int
}

// NewSeqGetExpr returns the element of s at index i.
func NewSeqGetExpr(s Expr, i int) Expr {
	requireExpr("NewSeqGetExpr", "seq", s)
	assert(s.Type().Kind() == KindSeq, "seq-get: non-seq operand: %s", s.Type())
	assert(i >= 0 && i < s.Type().Size(), "seq-get: index out of range: %d", i)

	return seqGetCache.GetOrInsert(indexKey{x: s.ID(), i: i}, indexArgs{x: s, i: i})
}

func simplifySeqGet(args indexArgs) Expr {
	switch s := args.x.(type) {
	case *SeqExpr:
		if args.i < len(s.elems) {
			return s.elems[args.i]
		} else if e, ok := defaultScalarExpr(s.typ.Elem()); ok {
			return e
		}
	case *SeqAddFrontExpr:
		// get(add-front(x, s), 0) = x
		// get(add-front(x, s), i) = get(s, i-1)
		if args.i == 0 {
			return s.x
		}
		return NewSeqGetExpr(s.s, args.i-1)
	}

	seqGetCache.nodes.Add(1)
	return &SeqGetExpr{exprNode: newExprNode(args.x.Type().Elem()), s: args.x, i: args.i}
}

// defaultScalarExpr returns the constant holding the default value of a
// scalar type.
func defaultScalarExpr(typ *Type) (Expr, bool) {
	switch typ.Kind() {
	case KindBool:
		return NewBoolConstantExpr(false), true
	case KindBitvec:
		return NewConstantExpr(0, typ.Width()), true
	case KindInt:
		return NewIntegerExprInt64(0), true
	case KindString:
		return NewStringExpr(""), true
	default:
		return nil, false
	}
}

// Seq returns the sequence being read.
func (e *SeqGetExpr) Seq() Expr { return e.s }

// Index returns the constant index.
func (e *SeqGetExpr) Index() int { return e.i }

// String returns the string representation of the expression.
func (e *SeqGetExpr) String() string {
	return fmt.Sprintf("(seq-get %s %d)", e.s, e.i)
}

// SeqAddFrontExpr represents a sequence with an element prepended. When the
// sequence is at capacity its last element is dropped.
type SeqAddFrontExpr struct {
	exprNode
	s Expr
	x Expr
}

// NewSeqAddFrontExpr returns s with x prepended.
func NewSeqAddFrontExpr(s, x Expr) Expr {
	requireExpr("NewSeqAddFrontExpr", "seq", s)
	requireExpr("NewSeqAddFrontExpr", "x", x)
	assert(s.Type().Kind() == KindSeq, "seq-add-front: non-seq operand: %s", s.Type())
	assert(s.Type().Size() > 0, "seq-add-front: zero capacity: %s", s.Type())
	assert(x.Type() == s.Type().Elem(), "seq-add-front: element type mismatch: %s != %s", x.Type(), s.Type().Elem())

	return seqAddFrontCache.GetOrInsert(pairKey{lhs: s.ID(), rhs: x.ID()}, pairArgs{lhs: s, rhs: x})
}

func simplifySeqAddFront(args pairArgs) Expr {
	s, x := args.lhs, args.rhs

	if s, ok := s.(*SeqExpr); ok {
		elems := append([]Expr{x}, s.elems...)
		if len(elems) > s.typ.Size() {
			elems = elems[:s.typ.Size()]
		}
		return NewSeqExpr(s.typ, elems...)
	}

	seqAddFrontCache.nodes.Add(1)
	return &SeqAddFrontExpr{exprNode: newExprNode(s.Type()), s: s, x: x}
}

// Seq returns the sequence being extended.
func (e *SeqAddFrontExpr) Seq() Expr { return e.s }

// X returns the prepended element.
func (e *SeqAddFrontExpr) X() Expr { return e.x }

// String returns the string representation of the expression.
func (e *SeqAddFrontExpr) String() string {
	return fmt.Sprintf("(seq-add-front %s %s)", e.s, e.x)
}
