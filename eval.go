package zen

import (
	"fmt"
	"unicode/utf8"

	"github.com/cockroachdb/apd/v3"
)

// Evaluate returns the Go value of e with variables bound by a. Unbound
// variables read as the default value of their type. Values use the same
// representation as Assignment.
func Evaluate(e Expr, a Assignment) (interface{}, error) {
	requireExpr("Evaluate", "e", e)
	return NewExprEvaluator(a).Evaluate(e)
}

// ExprEvaluator evaluates expressions under a variable assignment.
type ExprEvaluator struct {
	a    Assignment
	memo map[uint64]interface{}
}

// NewExprEvaluator returns a new instance of ExprEvaluator bound to a.
func NewExprEvaluator(a Assignment) *ExprEvaluator {
	return &ExprEvaluator{a: a, memo: make(map[uint64]interface{})}
}

// Evaluate evaluates e to a Go value.
// Returns an error if a bound variable holds a value of the wrong type.
func (ev *ExprEvaluator) Evaluate(e Expr) (interface{}, error) {
	if v, ok := ev.memo[e.ID()]; ok {
		return v, nil
	}
	v, err := VisitExpr[struct{}, interface{}](ev, e, struct{}{})
	if err != nil {
		return nil, err
	}
	ev.memo[e.ID()] = v
	return v, nil
}

// literal evaluates a scalar expression to a constant expression.
func (ev *ExprEvaluator) literal(e Expr) (Expr, error) {
	v, err := ev.Evaluate(e)
	if err != nil {
		return nil, err
	}
	return literalExpr(e.Type(), v)
}

// literalExpr returns the constant expression of typ holding v.
func literalExpr(typ *Type, v interface{}) (Expr, error) {
	switch typ.Kind() {
	case KindBool:
		if v, ok := v.(bool); ok {
			return NewBoolConstantExpr(v), nil
		}
	case KindBitvec:
		if v, ok := v.(uint64); ok {
			return NewConstantExpr(v, typ.Width()), nil
		}
	case KindInt:
		if v, ok := v.(*apd.BigInt); ok && v != nil {
			return NewIntegerExpr(v), nil
		}
	case KindString:
		if v, ok := v.(string); ok {
			return NewStringExpr(v), nil
		}
	default:
		panic(fmt.Sprintf("non-scalar type: %s", typ))
	}
	return nil, fmt.Errorf("invalid %s value: %T", typ, v)
}

// literalValue returns the Go value of a constant expression.
func literalValue(e Expr) interface{} {
	switch e := e.(type) {
	case *ConstantExpr:
		if e.width == WidthBool {
			return e.IsTrue()
		}
		return e.value
	case *IntegerExpr:
		return e.Value()
	case *StringExpr:
		return e.value
	default:
		panic(fmt.Sprintf("non-constant expression: %s", e))
	}
}

func (ev *ExprEvaluator) VisitConstant(e *ConstantExpr, _ struct{}) (interface{}, error) {
	return literalValue(e), nil
}

func (ev *ExprEvaluator) VisitInteger(e *IntegerExpr, _ struct{}) (interface{}, error) {
	return e.Value(), nil
}

func (ev *ExprEvaluator) VisitString(e *StringExpr, _ struct{}) (interface{}, error) {
	return e.value, nil
}

func (ev *ExprEvaluator) VisitVar(e *VarExpr, _ struct{}) (interface{}, error) {
	v, ok := ev.a[e.name]
	if !ok {
		return zeroValue(e.typ), nil
	}
	if e.typ.Kind().IsScalar() {
		if _, err := literalExpr(e.typ, v); err != nil {
			return nil, fmt.Errorf("variable %s: %w", e.name, err)
		}
	}
	return v, nil
}

func (ev *ExprEvaluator) VisitNot(e *NotExpr, _ struct{}) (interface{}, error) {
	x, err := ev.literal(e.x)
	if err != nil {
		return nil, err
	}
	return literalValue(NewNotExpr(x)), nil
}

func (ev *ExprEvaluator) VisitLogical(e *LogicalExpr, _ struct{}) (interface{}, error) {
	x, err := ev.literal(e.lhs)
	if err != nil {
		return nil, err
	}
	y, err := ev.literal(e.rhs)
	if err != nil {
		return nil, err
	}
	return literalValue(NewLogicalExpr(e.op, x, y)), nil
}

func (ev *ExprEvaluator) VisitIf(e *IfExpr, _ struct{}) (interface{}, error) {
	cond, err := ev.literal(e.cond)
	if err != nil {
		return nil, err
	} else if IsConstantTrue(cond) {
		return ev.Evaluate(e.then)
	}
	return ev.Evaluate(e.els)
}

func (ev *ExprEvaluator) VisitBinary(e *BinaryExpr, _ struct{}) (interface{}, error) {
	x, err := ev.literal(e.lhs)
	if err != nil {
		return nil, err
	}
	y, err := ev.literal(e.rhs)
	if err != nil {
		return nil, err
	}
	return literalValue(NewBinaryExpr(e.op, x, y)), nil
}

func (ev *ExprEvaluator) VisitStrConcat(e *StrConcatExpr, _ struct{}) (interface{}, error) {
	x, err := ev.literal(e.lhs)
	if err != nil {
		return nil, err
	}
	y, err := ev.literal(e.rhs)
	if err != nil {
		return nil, err
	}
	return literalValue(NewStrConcatExpr(x, y)), nil
}

func (ev *ExprEvaluator) VisitStrLength(e *StrLengthExpr, _ struct{}) (interface{}, error) {
	x, err := ev.literal(e.x)
	if err != nil {
		return nil, err
	}
	return apd.NewBigInt(int64(utf8.RuneCountInString(x.(*StringExpr).value))), nil
}

func (ev *ExprEvaluator) VisitObject(e *ObjectExpr, _ struct{}) (interface{}, error) {
	m := make(map[string]interface{}, len(e.fields))
	for i, f := range e.typ.Fields() {
		v, err := ev.Evaluate(e.fields[i])
		if err != nil {
			return nil, err
		}
		m[f.Name] = v
	}
	return m, nil
}

func (ev *ExprEvaluator) VisitGetField(e *GetFieldExpr, _ struct{}) (interface{}, error) {
	v, err := ev.Evaluate(e.obj)
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid %s value: %T", e.obj.Type(), v)
	} else if x, ok := m[e.name]; ok {
		return x, nil
	}
	return zeroValue(e.typ), nil
}

func (ev *ExprEvaluator) dict(e Expr) (map[interface{}]interface{}, error) {
	v, err := ev.Evaluate(e)
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[interface{}]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid %s value: %T", e.Type(), v)
	}
	return m, nil
}

func (ev *ExprEvaluator) VisitMapSet(e *MapSetExpr, _ struct{}) (interface{}, error) {
	m, err := ev.dict(e.m)
	if err != nil {
		return nil, err
	}
	v, err := ev.Evaluate(e.value)
	if err != nil {
		return nil, err
	}

	other := make(map[interface{}]interface{}, len(m)+1)
	for k, x := range m {
		other[k] = x
	}
	other[e.key] = v
	return other, nil
}

func (ev *ExprEvaluator) VisitMapGet(e *MapGetExpr, _ struct{}) (interface{}, error) {
	m, err := ev.dict(e.m)
	if err != nil {
		return nil, err
	}
	if v, ok := m[e.key]; ok {
		return v, nil
	}
	return zeroValue(e.typ), nil
}

// elems evaluates a list or sequence expression, checking its length.
func (ev *ExprEvaluator) elems(e Expr) ([]interface{}, error) {
	v, err := ev.Evaluate(e)
	if err != nil {
		return nil, err
	}
	a, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid %s value: %T", e.Type(), v)
	}

	switch typ := e.Type(); typ.Kind() {
	case KindList:
		if len(a) != typ.Size() {
			return nil, fmt.Errorf("invalid %s value: length %d", typ, len(a))
		}
	case KindSeq:
		if len(a) > typ.Size() {
			return nil, fmt.Errorf("seq length out of range: %d", len(a))
		}
	}
	return a, nil
}

func (ev *ExprEvaluator) evaluateAll(exprs []Expr) ([]interface{}, error) {
	a := make([]interface{}, len(exprs))
	for i, e := range exprs {
		v, err := ev.Evaluate(e)
		if err != nil {
			return nil, err
		}
		a[i] = v
	}
	return a, nil
}

func (ev *ExprEvaluator) VisitList(e *ListExpr, _ struct{}) (interface{}, error) {
	return ev.evaluateAll(e.elems)
}

func (ev *ExprEvaluator) VisitListGet(e *ListGetExpr, _ struct{}) (interface{}, error) {
	a, err := ev.elems(e.l)
	if err != nil {
		return nil, err
	}
	return a[e.i], nil
}

func (ev *ExprEvaluator) VisitListSet(e *ListSetExpr, _ struct{}) (interface{}, error) {
	a, err := ev.elems(e.l)
	if err != nil {
		return nil, err
	}
	v, err := ev.Evaluate(e.value)
	if err != nil {
		return nil, err
	}

	other := append([]interface{}(nil), a...)
	other[e.i] = v
	return other, nil
}

func (ev *ExprEvaluator) VisitSeq(e *SeqExpr, _ struct{}) (interface{}, error) {
	return ev.evaluateAll(e.elems)
}

func (ev *ExprEvaluator) VisitSeqLength(e *SeqLengthExpr, _ struct{}) (interface{}, error) {
	a, err := ev.elems(e.s)
	if err != nil {
		return nil, err
	}
	return apd.NewBigInt(int64(len(a))), nil
}

func (ev *ExprEvaluator) VisitSeqGet(e *SeqGetExpr, _ struct{}) (interface{}, error) {
	a, err := ev.elems(e.s)
	if err != nil {
		return nil, err
	} else if e.i < len(a) {
		return a[e.i], nil
	}
	return zeroValue(e.typ), nil
}

func (ev *ExprEvaluator) VisitSeqAddFront(e *SeqAddFrontExpr, _ struct{}) (interface{}, error) {
	a, err := ev.elems(e.s)
	if err != nil {
		return nil, err
	}
	x, err := ev.Evaluate(e.x)
	if err != nil {
		return nil, err
	}

	other := append([]interface{}{x}, a...)
	if len(other) > e.typ.Size() {
		other = other[:e.typ.Size()]
	}
	return other, nil
}
