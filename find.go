package zen

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/benbjohnson/immutable"
	"github.com/cockroachdb/apd/v3"
)

// Assignment maps variable names to Go values. Booleans are bool, bit vectors
// uint64, integers *apd.BigInt, strings string, objects map[string]any,
// dictionaries map[any]any holding present keys only, lists and sequences
// []any.
type Assignment map[string]interface{}

// String returns the assignment sorted by variable name.
func (a Assignment) String() string {
	names := make([]string, 0, len(a))
	for name := range a {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf strings.Builder
	for i, name := range names {
		if i > 0 {
			buf.WriteString(" ")
		}
		fmt.Fprintf(&buf, "%s=%v", name, a[name])
	}
	return buf.String()
}

// Find searches for an assignment of the variables in pred that makes it
// true. ok is false if no such assignment exists.
func Find[T any](ctx context.Context, s Solver[T], pred Expr) (ok bool, a Assignment, err error) {
	requireExpr("Find", "pred", pred)
	assert(pred.Type() == BoolType(), "find: non-boolean predicate: %s", pred.Type())

	t := NewTranslator(s)
	v, err := t.Translate(pred)
	if err != nil {
		return false, nil, err
	}
	constraints := append([]T{scalarTerm(v)}, t.Constraints()...)

	log.Printf("[find] solving: vars=%d constraints=%d", len(t.Vars()), len(constraints))
	start := time.Now()
	sat, m, err := s.Solve(ctx, constraints)
	if err != nil {
		return false, nil, err
	}
	log.Printf("[find] solved: sat=%v elapsed=%s", sat, time.Since(start))
	if !sat {
		return false, nil, nil
	}

	a = make(Assignment, len(t.Vars()))
	for name, value := range t.Vars() {
		if a[name], err = EvaluateValue(m, value); err != nil {
			return false, nil, err
		}
	}
	return true, a, nil
}

// Verify checks that inv holds for every assignment of its variables. If not,
// a counterexample is returned.
func Verify[T any](ctx context.Context, s Solver[T], inv Expr) (ok bool, counterexample Assignment, err error) {
	requireExpr("Verify", "inv", inv)
	found, a, err := Find(ctx, s, NewNotExpr(inv))
	if err != nil {
		return false, nil, err
	}
	return !found, a, nil
}

// EvaluateValue returns the Go value of v under m.
func EvaluateValue[T any](m Model[T], v Value[T]) (interface{}, error) {
	return VisitValue[T, Model[T], interface{}](valueEvaluator[T]{}, v, m)
}

type valueEvaluator[T any] struct{}

func (valueEvaluator[T]) VisitBool(v *SymbolicBool[T], m Model[T]) (interface{}, error) {
	return m.Bool(v.Term)
}

func (valueEvaluator[T]) VisitBitvec(v *SymbolicBitvec[T], m Model[T]) (interface{}, error) {
	return m.Bitvec(v.Term)
}

func (valueEvaluator[T]) VisitInteger(v *SymbolicInteger[T], m Model[T]) (interface{}, error) {
	return m.Int(v.Term)
}

func (valueEvaluator[T]) VisitString(v *SymbolicString[T], m Model[T]) (interface{}, error) {
	return m.String(v.Term)
}

func (e valueEvaluator[T]) VisitObject(v *SymbolicObject[T], m Model[T]) (interface{}, error) {
	out := make(map[string]interface{}, v.Fields.Len())
	for itr := v.Fields.Iterator(); !itr.Done(); {
		name, value := itr.Next()
		x, err := EvaluateValue(m, value.(Value[T]))
		if err != nil {
			return nil, err
		}
		out[name.(string)] = x
	}
	return out, nil
}

func (e valueEvaluator[T]) VisitDict(v *SymbolicDict[T], m Model[T]) (interface{}, error) {
	out := make(map[interface{}]interface{})
	for itr := v.Entries.Iterator(); !itr.Done(); {
		key, value := itr.Next()
		entry := value.(DictEntry[T])
		if present, err := m.Bool(entry.Present); err != nil {
			return nil, err
		} else if !present {
			continue
		}

		x, err := EvaluateValue(m, entry.Value)
		if err != nil {
			return nil, err
		}
		out[key] = x
	}
	return out, nil
}

func (e valueEvaluator[T]) VisitList(v *SymbolicList[T], m Model[T]) (interface{}, error) {
	return evaluateElems(m, v.Elems, v.Elems.Len())
}

func (e valueEvaluator[T]) VisitSeq(v *SymbolicSeq[T], m Model[T]) (interface{}, error) {
	n, err := m.Int(v.Length)
	if err != nil {
		return nil, err
	} else if !n.IsInt64() || n.Int64() < 0 || n.Int64() > int64(v.Elems.Len()) {
		return nil, fmt.Errorf("seq length out of range: %s", n)
	}
	return evaluateElems(m, v.Elems, int(n.Int64()))
}

func evaluateElems[T any](m Model[T], elems *immutable.List, n int) ([]interface{}, error) {
	out := make([]interface{}, n)
	for i := range out {
		x, err := EvaluateValue(m, elems.Get(i).(Value[T]))
		if err != nil {
			return nil, err
		}
		out[i] = x
	}
	return out, nil
}

// zeroValue returns the Go value an unassigned variable of typ reads as.
func zeroValue(typ *Type) interface{} {
	switch typ.Kind() {
	case KindBool:
		return false
	case KindBitvec:
		return uint64(0)
	case KindInt:
		return apd.NewBigInt(0)
	case KindString:
		return ""
	case KindObject:
		m := make(map[string]interface{}, len(typ.Fields()))
		for _, f := range typ.Fields() {
			m[f.Name] = zeroValue(f.Type)
		}
		return m
	case KindDict:
		return map[interface{}]interface{}{}
	case KindList:
		a := make([]interface{}, typ.Size())
		for i := range a {
			a[i] = zeroValue(typ.Elem())
		}
		return a
	case KindSeq:
		return []interface{}{}
	default:
		panic("unreachable")
	}
}
