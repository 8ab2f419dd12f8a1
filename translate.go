package zen

import (
	"fmt"

	"github.com/cockroachdb/apd/v3"
)

// Translator lowers expressions onto the terms of a solver. Results are
// memoized by node id so shared subexpressions are translated once.
//
// Dictionary variables receive one presence variable and one value variable
// per constant key used with their type in the translated expression, so a
// predicate should be translated in a single call.
type Translator[T any] struct {
	solver Solver[T]
	cache  map[uint64]Value[T]
	keys   map[*Type][]interface{}

	vars        map[string]Value[T]
	constraints []T
}

// NewTranslator returns a new instance of Translator for s.
func NewTranslator[T any](s Solver[T]) *Translator[T] {
	return &Translator[T]{
		solver: s,
		cache:  make(map[uint64]Value[T]),
		keys:   make(map[*Type][]interface{}),
		vars:   make(map[string]Value[T]),
	}
}

// Translate returns the symbolic value of e.
func (t *Translator[T]) Translate(e Expr) (Value[T], error) {
	for typ, keys := range FindMapKeys(e) {
	NEXT:
		for _, key := range keys {
			for _, k := range t.keys[typ] {
				if k == key {
					continue NEXT
				}
			}
			t.keys[typ] = append(t.keys[typ], key)
		}
	}
	return t.translate(e)
}

// Vars returns the values of the variables translated so far, keyed by name.
func (t *Translator[T]) Vars() map[string]Value[T] { return t.vars }

// Constraints returns the well-formedness constraints of the translated
// variables, such as sequence length bounds.
func (t *Translator[T]) Constraints() []T { return t.constraints }

func (t *Translator[T]) translate(e Expr) (Value[T], error) {
	if v, ok := t.cache[e.ID()]; ok {
		return v, nil
	}
	v, err := VisitExpr[struct{}, Value[T]](t, e, struct{}{})
	if err != nil {
		return nil, err
	}
	t.cache[e.ID()] = v
	return v, nil
}

// translateTerm translates a scalar expression to its term.
func (t *Translator[T]) translateTerm(e Expr) (T, error) {
	v, err := t.translate(e)
	if err != nil {
		var zero T
		return zero, err
	}
	return scalarTerm(v), nil
}

func (t *Translator[T]) translatePair(lhs, rhs Expr) (x, y T, err error) {
	if x, err = t.translateTerm(lhs); err != nil {
		return x, y, err
	}
	y, err = t.translateTerm(rhs)
	return x, y, err
}

// scalarTerm returns the term of a scalar value.
func scalarTerm[T any](v Value[T]) T {
	switch v := v.(type) {
	case *SymbolicBool[T]:
		return v.Term
	case *SymbolicBitvec[T]:
		return v.Term
	case *SymbolicInteger[T]:
		return v.Term
	case *SymbolicString[T]:
		return v.Term
	default:
		panic(fmt.Sprintf("non-scalar value: %T", v))
	}
}

// scalar wraps term in the value variant of typ.
func (t *Translator[T]) scalar(typ *Type, term T) Value[T] {
	switch typ.Kind() {
	case KindBool:
		return NewSymbolicBool(t.solver, term)
	case KindBitvec:
		return NewSymbolicBitvec(t.solver, term, typ.Width())
	case KindInt:
		return NewSymbolicInteger(t.solver, term)
	case KindString:
		return NewSymbolicString(t.solver, term)
	default:
		panic(fmt.Sprintf("non-scalar type: %s", typ))
	}
}

func (t *Translator[T]) VisitConstant(e *ConstantExpr, _ struct{}) (Value[T], error) {
	if e.width == WidthBool {
		term, err := t.solver.Bool(e.IsTrue())
		if err != nil {
			return nil, err
		}
		return NewSymbolicBool(t.solver, term), nil
	}

	term, err := t.solver.Bitvec(e.value, e.width)
	if err != nil {
		return nil, err
	}
	return NewSymbolicBitvec(t.solver, term, e.width), nil
}

func (t *Translator[T]) VisitInteger(e *IntegerExpr, _ struct{}) (Value[T], error) {
	term, err := t.solver.Int(e.Value())
	if err != nil {
		return nil, err
	}
	return NewSymbolicInteger(t.solver, term), nil
}

func (t *Translator[T]) VisitString(e *StringExpr, _ struct{}) (Value[T], error) {
	term, err := t.solver.String(e.value)
	if err != nil {
		return nil, err
	}
	return NewSymbolicString(t.solver, term), nil
}

func (t *Translator[T]) VisitVar(e *VarExpr, _ struct{}) (Value[T], error) {
	v, err := t.newVar(e.name, e.typ)
	if err != nil {
		return nil, err
	}
	t.vars[e.name] = v
	return v, nil
}

// newVar returns a fresh value of typ. Components of composite values are
// named after the path from the root variable.
func (t *Translator[T]) newVar(name string, typ *Type) (Value[T], error) {
	switch typ.Kind() {
	case KindBool:
		term, err := t.solver.BoolVar(name)
		if err != nil {
			return nil, err
		}
		return NewSymbolicBool(t.solver, term), nil

	case KindBitvec:
		term, err := t.solver.BitvecVar(name, typ.Width())
		if err != nil {
			return nil, err
		}
		return NewSymbolicBitvec(t.solver, term, typ.Width()), nil

	case KindInt:
		term, err := t.solver.IntVar(name)
		if err != nil {
			return nil, err
		}
		return NewSymbolicInteger(t.solver, term), nil

	case KindString:
		term, err := t.solver.StringVar(name)
		if err != nil {
			return nil, err
		}
		return NewSymbolicString(t.solver, term), nil

	case KindObject:
		obj := NewSymbolicObject(t.solver, typ)
		for _, f := range typ.Fields() {
			v, err := t.newVar(name+"."+f.Name, f.Type)
			if err != nil {
				return nil, err
			}
			obj = obj.WithField(f.Name, v)
		}
		return obj, nil

	case KindDict:
		dict := NewSymbolicDict(t.solver, typ)
		for _, key := range t.keys[typ] {
			elemName := fmt.Sprintf("%s[%s]", name, formatKey(key))
			present, err := t.solver.BoolVar(elemName + "?")
			if err != nil {
				return nil, err
			}
			v, err := t.newVar(elemName, typ.Elem())
			if err != nil {
				return nil, err
			}
			dict = dict.WithEntry(key, DictEntry[T]{Present: present, Value: v})
		}
		return dict, nil

	case KindList:
		elems, err := t.newElems(name, typ)
		if err != nil {
			return nil, err
		}
		return NewSymbolicList(t.solver, typ, elems...), nil

	case KindSeq:
		elems, err := t.newElems(name, typ)
		if err != nil {
			return nil, err
		}
		length, err := t.solver.IntVar(name + ".len")
		if err != nil {
			return nil, err
		}
		if err := t.boundLength(length, typ.Size()); err != nil {
			return nil, err
		}
		return NewSymbolicSeq(t.solver, typ, length, elems...), nil

	default:
		panic("unreachable")
	}
}

func (t *Translator[T]) newElems(name string, typ *Type) ([]Value[T], error) {
	elems := make([]Value[T], typ.Size())
	for i := range elems {
		v, err := t.newVar(fmt.Sprintf("%s[%d]", name, i), typ.Elem())
		if err != nil {
			return nil, err
		}
		elems[i] = v
	}
	return elems, nil
}

// boundLength records 0 <= length <= capacity.
func (t *Translator[T]) boundLength(length T, capacity int) error {
	zero, err := t.solver.Int(apd.NewBigInt(0))
	if err != nil {
		return err
	}
	max, err := t.solver.Int(apd.NewBigInt(int64(capacity)))
	if err != nil {
		return err
	}

	lo, err := t.solver.IntLe(zero, length)
	if err != nil {
		return err
	}
	hi, err := t.solver.IntLe(length, max)
	if err != nil {
		return err
	}
	t.constraints = append(t.constraints, lo, hi)
	return nil
}

// defaultValue returns the value a missing dictionary entry reads as.
func (t *Translator[T]) defaultValue(typ *Type) (Value[T], error) {
	switch typ.Kind() {
	case KindBool:
		term, err := t.solver.Bool(false)
		if err != nil {
			return nil, err
		}
		return NewSymbolicBool(t.solver, term), nil

	case KindBitvec:
		term, err := t.solver.Bitvec(0, typ.Width())
		if err != nil {
			return nil, err
		}
		return NewSymbolicBitvec(t.solver, term, typ.Width()), nil

	case KindInt:
		term, err := t.solver.Int(apd.NewBigInt(0))
		if err != nil {
			return nil, err
		}
		return NewSymbolicInteger(t.solver, term), nil

	case KindString:
		term, err := t.solver.String("")
		if err != nil {
			return nil, err
		}
		return NewSymbolicString(t.solver, term), nil

	case KindObject:
		obj := NewSymbolicObject(t.solver, typ)
		for _, f := range typ.Fields() {
			v, err := t.defaultValue(f.Type)
			if err != nil {
				return nil, err
			}
			obj = obj.WithField(f.Name, v)
		}
		return obj, nil

	case KindDict:
		return NewSymbolicDict(t.solver, typ), nil

	case KindList, KindSeq:
		elems := make([]Value[T], typ.Size())
		for i := range elems {
			v, err := t.defaultValue(typ.Elem())
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		if typ.Kind() == KindList {
			return NewSymbolicList(t.solver, typ, elems...), nil
		}

		length, err := t.solver.Int(apd.NewBigInt(0))
		if err != nil {
			return nil, err
		}
		return NewSymbolicSeq(t.solver, typ, length, elems...), nil

	default:
		panic("unreachable")
	}
}

func (t *Translator[T]) VisitNot(e *NotExpr, _ struct{}) (Value[T], error) {
	x, err := t.translateTerm(e.x)
	if err != nil {
		return nil, err
	}
	term, err := t.solver.Not(x)
	if err != nil {
		return nil, err
	}
	return NewSymbolicBool(t.solver, term), nil
}

func (t *Translator[T]) VisitLogical(e *LogicalExpr, _ struct{}) (Value[T], error) {
	x, y, err := t.translatePair(e.lhs, e.rhs)
	if err != nil {
		return nil, err
	}

	var term T
	switch e.op {
	case LogicalAnd:
		term, err = t.solver.And(x, y)
	case LogicalOr:
		term, err = t.solver.Or(x, y)
	default:
		panic("unreachable")
	}
	if err != nil {
		return nil, err
	}
	return NewSymbolicBool(t.solver, term), nil
}

func (t *Translator[T]) VisitIf(e *IfExpr, _ struct{}) (Value[T], error) {
	guard, err := t.translateTerm(e.cond)
	if err != nil {
		return nil, err
	}
	then, err := t.translate(e.then)
	if err != nil {
		return nil, err
	}
	els, err := t.translate(e.els)
	if err != nil {
		return nil, err
	}
	return then.Merge(guard, els)
}

func (t *Translator[T]) VisitBinary(e *BinaryExpr, _ struct{}) (Value[T], error) {
	x, y, err := t.translatePair(e.lhs, e.rhs)
	if err != nil {
		return nil, err
	}

	var term T
	if e.op == EQ {
		term, err = t.solver.Eq(x, y)
	} else if e.lhs.Type().Kind() == KindInt {
		switch e.op {
		case ADD:
			term, err = t.solver.IntAdd(x, y)
		case SUB:
			term, err = t.solver.IntSub(x, y)
		case MUL:
			term, err = t.solver.IntMul(x, y)
		case SLT:
			term, err = t.solver.IntLt(x, y)
		case SLE:
			term, err = t.solver.IntLe(x, y)
		default:
			panic("unreachable")
		}
	} else {
		switch e.op {
		case ADD:
			term, err = t.solver.BitvecAdd(x, y)
		case SUB:
			term, err = t.solver.BitvecSub(x, y)
		case MUL:
			term, err = t.solver.BitvecMul(x, y)
		case AND:
			term, err = t.solver.BitvecAnd(x, y)
		case OR:
			term, err = t.solver.BitvecOr(x, y)
		case XOR:
			term, err = t.solver.BitvecXor(x, y)
		case SHL:
			term, err = t.solver.BitvecShl(x, y)
		case LSHR:
			term, err = t.solver.BitvecLShr(x, y)
		case ULT:
			term, err = t.solver.BitvecLt(x, y, false)
		case ULE:
			term, err = t.solver.BitvecLe(x, y, false)
		case SLT:
			term, err = t.solver.BitvecLt(x, y, true)
		case SLE:
			term, err = t.solver.BitvecLe(x, y, true)
		default:
			panic("unreachable")
		}
	}
	if err != nil {
		return nil, err
	}
	return t.scalar(e.typ, term), nil
}

func (t *Translator[T]) VisitStrConcat(e *StrConcatExpr, _ struct{}) (Value[T], error) {
	x, y, err := t.translatePair(e.lhs, e.rhs)
	if err != nil {
		return nil, err
	}
	term, err := t.solver.Concat(x, y)
	if err != nil {
		return nil, err
	}
	return NewSymbolicString(t.solver, term), nil
}

func (t *Translator[T]) VisitStrLength(e *StrLengthExpr, _ struct{}) (Value[T], error) {
	x, err := t.translateTerm(e.x)
	if err != nil {
		return nil, err
	}
	term, err := t.solver.Length(x)
	if err != nil {
		return nil, err
	}
	return NewSymbolicInteger(t.solver, term), nil
}

func (t *Translator[T]) VisitObject(e *ObjectExpr, _ struct{}) (Value[T], error) {
	obj := NewSymbolicObject(t.solver, e.typ)
	for i, f := range e.typ.Fields() {
		v, err := t.translate(e.fields[i])
		if err != nil {
			return nil, err
		}
		obj = obj.WithField(f.Name, v)
	}
	return obj, nil
}

func (t *Translator[T]) VisitGetField(e *GetFieldExpr, _ struct{}) (Value[T], error) {
	v, err := t.translate(e.obj)
	if err != nil {
		return nil, err
	}
	return v.(*SymbolicObject[T]).Field(e.name), nil
}

func (t *Translator[T]) VisitMapSet(e *MapSetExpr, _ struct{}) (Value[T], error) {
	m, err := t.translate(e.m)
	if err != nil {
		return nil, err
	}
	v, err := t.translate(e.value)
	if err != nil {
		return nil, err
	}
	present, err := t.solver.Bool(true)
	if err != nil {
		return nil, err
	}
	return m.(*SymbolicDict[T]).WithEntry(e.key, DictEntry[T]{Present: present, Value: v}), nil
}

func (t *Translator[T]) VisitMapGet(e *MapGetExpr, _ struct{}) (Value[T], error) {
	m, err := t.translate(e.m)
	if err != nil {
		return nil, err
	}
	def, err := t.defaultValue(e.typ)
	if err != nil {
		return nil, err
	}

	entry, ok := m.(*SymbolicDict[T]).Entry(e.key)
	if !ok {
		return def, nil
	}
	return entry.Value.Merge(entry.Present, def)
}

func (t *Translator[T]) translateElems(elems []Expr) ([]Value[T], error) {
	values := make([]Value[T], len(elems))
	for i, elem := range elems {
		v, err := t.translate(elem)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

func (t *Translator[T]) VisitList(e *ListExpr, _ struct{}) (Value[T], error) {
	elems, err := t.translateElems(e.elems)
	if err != nil {
		return nil, err
	}
	return NewSymbolicList(t.solver, e.typ, elems...), nil
}

func (t *Translator[T]) VisitListGet(e *ListGetExpr, _ struct{}) (Value[T], error) {
	l, err := t.translate(e.l)
	if err != nil {
		return nil, err
	}
	return l.(*SymbolicList[T]).Elem(e.i), nil
}

func (t *Translator[T]) VisitListSet(e *ListSetExpr, _ struct{}) (Value[T], error) {
	l, err := t.translate(e.l)
	if err != nil {
		return nil, err
	}
	v, err := t.translate(e.value)
	if err != nil {
		return nil, err
	}
	return l.(*SymbolicList[T]).WithElem(e.i, v), nil
}

// VisitSeq pads the literal's elements with default values up to capacity.
func (t *Translator[T]) VisitSeq(e *SeqExpr, _ struct{}) (Value[T], error) {
	elems, err := t.translateElems(e.elems)
	if err != nil {
		return nil, err
	}
	for len(elems) < e.typ.Size() {
		v, err := t.defaultValue(e.typ.Elem())
		if err != nil {
			return nil, err
		}
		elems = append(elems, v)
	}

	length, err := t.solver.Int(apd.NewBigInt(int64(len(e.elems))))
	if err != nil {
		return nil, err
	}
	return NewSymbolicSeq(t.solver, e.typ, length, elems...), nil
}

func (t *Translator[T]) VisitSeqLength(e *SeqLengthExpr, _ struct{}) (Value[T], error) {
	s, err := t.translate(e.s)
	if err != nil {
		return nil, err
	}
	return NewSymbolicInteger(t.solver, s.(*SymbolicSeq[T]).Length), nil
}

// VisitSeqGet selects the element when the index is below the length and
// the default value otherwise.
func (t *Translator[T]) VisitSeqGet(e *SeqGetExpr, _ struct{}) (Value[T], error) {
	v, err := t.translate(e.s)
	if err != nil {
		return nil, err
	}
	s := v.(*SymbolicSeq[T])

	i, err := t.solver.Int(apd.NewBigInt(int64(e.i)))
	if err != nil {
		return nil, err
	}
	inBounds, err := t.solver.IntLt(i, s.Length)
	if err != nil {
		return nil, err
	}
	def, err := t.defaultValue(e.typ)
	if err != nil {
		return nil, err
	}
	return s.Elem(e.i).Merge(inBounds, def)
}

// VisitSeqAddFront shifts every element up one index. The new length is
// min(length+1, capacity).
func (t *Translator[T]) VisitSeqAddFront(e *SeqAddFrontExpr, _ struct{}) (Value[T], error) {
	v, err := t.translate(e.s)
	if err != nil {
		return nil, err
	}
	s := v.(*SymbolicSeq[T])

	x, err := t.translate(e.x)
	if err != nil {
		return nil, err
	}

	capacity := e.typ.Size()
	elems := s.Elems.Prepend(x).Slice(0, capacity)

	one, err := t.solver.Int(apd.NewBigInt(1))
	if err != nil {
		return nil, err
	}
	limit, err := t.solver.Int(apd.NewBigInt(int64(capacity)))
	if err != nil {
		return nil, err
	}
	notFull, err := t.solver.IntLt(s.Length, limit)
	if err != nil {
		return nil, err
	}
	next, err := t.solver.IntAdd(s.Length, one)
	if err != nil {
		return nil, err
	}
	length, err := t.solver.Ite(notFull, next, limit)
	if err != nil {
		return nil, err
	}
	return &SymbolicSeq[T]{solver: t.solver, Type: e.typ, Length: length, Elems: elems}, nil
}
