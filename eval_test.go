package zen_test

import (
	"testing"

	"github.com/benbjohnson/zen"
	"github.com/cockroachdb/apd/v3"
	"github.com/google/go-cmp/cmp"
)

// bigIntComparer compares integers by value.
var bigIntComparer = cmp.Comparer(func(x, y *apd.BigInt) bool { return x.Cmp(y) == 0 })

func TestEvaluate(t *testing.T) {
	x := zen.NewVarExpr("eval.x", zen.BitvecType(8))
	i := zen.NewVarExpr("eval.i", zen.IntType())
	s := zen.NewVarExpr("eval.s", zen.StringType())
	b := zen.NewVarExpr("eval.b", zen.BoolType())

	a := zen.Assignment{
		"eval.x": uint64(200),
		"eval.i": apd.NewBigInt(7),
		"eval.s": "ab",
		"eval.b": true,
	}

	for _, tt := range []struct {
		name string
		e    zen.Expr
		want interface{}
	}{
		{"Wraparound", zen.NewBinaryExpr(zen.ADD, x, zen.NewConstantExpr(100, 8)), uint64(44)},
		{"Signed", zen.NewBinaryExpr(zen.SLT, x, zen.NewConstantExpr(0, 8)), true},
		{"Int", zen.NewBinaryExpr(zen.MUL, i, zen.NewIntegerExprInt64(-3)), apd.NewBigInt(-21)},
		{"StrLength", zen.NewStrLengthExpr(zen.NewStrConcatExpr(s, zen.NewStringExpr("é"))), apd.NewBigInt(3)},
		{"StrEq", zen.NewBinaryExpr(zen.EQ, s, zen.NewStringExpr("ab")), true},
		{"If", zen.NewIfExpr(b, x, zen.NewConstantExpr(1, 8)), uint64(200)},
		{"Logical", zen.NewOrExpr(zen.NewNotExpr(b), zen.NewBinaryExpr(zen.ULE, x, zen.NewConstantExpr(100, 8))), false},
	} {
		t.Run(tt.name, func(t *testing.T) {
			v, err := zen.Evaluate(tt.e, a)
			if err != nil {
				t.Fatal(err)
			} else if diff := cmp.Diff(v, tt.want, bigIntComparer); diff != "" {
				t.Fatal(diff)
			}
		})
	}

	t.Run("Unbound", func(t *testing.T) {
		v, err := zen.Evaluate(zen.NewBinaryExpr(zen.EQ, zen.NewStrLengthExpr(s), zen.NewIntegerExprInt64(0)), nil)
		if err != nil {
			t.Fatal(err)
		} else if v != true {
			t.Fatalf("unexpected value: %v", v)
		}
	})

	t.Run("ErrWrongType", func(t *testing.T) {
		_, err := zen.Evaluate(zen.NewNotExpr(b), zen.Assignment{"eval.b": "yes"})
		if err == nil || err.Error() != "variable eval.b: invalid bool value: string" {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestEvaluate_Object(t *testing.T) {
	typ := zen.ObjectType("EvalPair",
		zen.Field{Name: "A", Type: zen.BitvecType(8)},
		zen.Field{Name: "B", Type: zen.StringType()},
	)
	p := zen.NewVarExpr("eval.p", typ)

	t.Run("GetField", func(t *testing.T) {
		a := zen.Assignment{"eval.p": map[string]interface{}{"A": uint64(9)}}
		if v, err := zen.Evaluate(zen.NewGetFieldExpr(p, "A"), a); err != nil {
			t.Fatal(err)
		} else if v != uint64(9) {
			t.Fatalf("unexpected value: %v", v)
		}

		// Missing fields read as the default value.
		if v, err := zen.Evaluate(zen.NewGetFieldExpr(p, "B"), a); err != nil {
			t.Fatal(err)
		} else if v != "" {
			t.Fatalf("unexpected value: %v", v)
		}
	})

	t.Run("Literal", func(t *testing.T) {
		e := zen.NewObjectExpr(typ, zen.NewConstantExpr(1, 8), zen.NewStringExpr("x"))
		if v, err := zen.Evaluate(e, nil); err != nil {
			t.Fatal(err)
		} else if diff := cmp.Diff(v, map[string]interface{}{"A": uint64(1), "B": "x"}); diff != "" {
			t.Fatal(diff)
		}
	})
}

func TestEvaluate_Dict(t *testing.T) {
	m := zen.NewVarExpr("eval.m", zen.DictType(zen.BitvecType(8)))
	a := zen.Assignment{"eval.m": map[interface{}]interface{}{"z": uint64(9)}}

	for _, tt := range []struct {
		name string
		e    zen.Expr
		want interface{}
	}{
		{"Get", zen.NewMapGetExpr(m, "z"), uint64(9)},
		{"GetMissing", zen.NewMapGetExpr(m, "q"), uint64(0)},
		{"GetAfterSet", zen.NewMapGetExpr(zen.NewMapSetExpr(m, "q", zen.NewConstantExpr(5, 8)), "q"), uint64(5)},
		{"Set", zen.NewMapSetExpr(m, "q", zen.NewConstantExpr(5, 8)), map[interface{}]interface{}{"z": uint64(9), "q": uint64(5)}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			v, err := zen.Evaluate(tt.e, a)
			if err != nil {
				t.Fatal(err)
			} else if diff := cmp.Diff(v, tt.want); diff != "" {
				t.Fatal(diff)
			}
		})
	}

	t.Run("SetCopies", func(t *testing.T) {
		if _, err := zen.Evaluate(zen.NewMapSetExpr(m, "r", zen.NewConstantExpr(1, 8)), a); err != nil {
			t.Fatal(err)
		} else if _, ok := a["eval.m"].(map[interface{}]interface{})["r"]; ok {
			t.Fatal("expected assignment to be unchanged")
		}
	})

	t.Run("ErrWrongType", func(t *testing.T) {
		_, err := zen.Evaluate(zen.NewMapGetExpr(m, "z"), zen.Assignment{"eval.m": []interface{}{}})
		if err == nil || err.Error() != "invalid dict[bv8] value: []interface {}" {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestExprEvaluator_Memo(t *testing.T) {
	x := zen.NewVarExpr("memo.x", zen.BitvecType(8))
	e := zen.NewBinaryExpr(zen.MUL, x, x)

	ev := zen.NewExprEvaluator(zen.Assignment{"memo.x": uint64(3)})
	for i := 0; i < 2; i++ {
		if v, err := ev.Evaluate(e); err != nil {
			t.Fatal(err)
		} else if v != uint64(9) {
			t.Fatalf("unexpected value: %v", v)
		}
	}
}
