package zen_test

import (
	"fmt"
	"testing"

	"github.com/benbjohnson/zen"
	"github.com/benbjohnson/zen/concrete"
	"github.com/cockroachdb/apd/v3"
	"github.com/google/go-cmp/cmp"
)

func TestListExpr(t *testing.T) {
	typ := zen.ListType(zen.BitvecType(8), 3)
	c := func(v uint64) zen.Expr { return zen.NewConstantExpr(v, 8) }
	l := zen.NewVarExpr("list.l", typ)
	x := zen.NewVarExpr("list.x", zen.BitvecType(8))

	t.Run("HashConsed", func(t *testing.T) {
		if a, b := zen.NewListExpr(typ, c(1), x, c(3)), zen.NewListExpr(typ, c(1), x, c(3)); a != b {
			t.Fatalf("expected same instance: %d != %d", a.ID(), b.ID())
		} else if a == zen.NewListExpr(typ, c(1), c(3), x) {
			t.Fatal("expected distinct instance for different order")
		}
	})

	for _, tt := range []struct {
		name string
		got  zen.Expr
		want zen.Expr
	}{
		{"GetLiteral", zen.NewListGetExpr(zen.NewListExpr(typ, c(1), x, c(3)), 1), x},
		{"SetLiteral", zen.NewListSetExpr(zen.NewListExpr(typ, c(1), c(2), c(3)), 0, x), zen.NewListExpr(typ, x, c(2), c(3))},
		{"GetAfterSet", zen.NewListGetExpr(zen.NewListSetExpr(l, 2, x), 2), x},
		{"GetSkipsSet", zen.NewListGetExpr(zen.NewListSetExpr(l, 2, x), 0), zen.NewListGetExpr(l, 0)},
		{"SetAfterSet", zen.NewListSetExpr(zen.NewListSetExpr(l, 1, c(5)), 1, x), zen.NewListSetExpr(l, 1, x)},
	} {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Fatalf("got %s, want %s", tt.got, tt.want)
			}
		})
	}

	t.Run("String", func(t *testing.T) {
		if s := zen.NewListGetExpr(l, 1).String(); s != "(list-get list.l 1)" {
			t.Fatalf("unexpected string: %s", s)
		} else if s := zen.NewListExpr(zen.ListType(zen.BoolType(), 1), zen.NewBoolConstantExpr(true)).String(); s != "(list list[1]bool true)" {
			t.Fatalf("unexpected string: %s", s)
		}
	})

	t.Run("ElemsCopy", func(t *testing.T) {
		e := zen.NewListExpr(typ, c(1), c(2), c(3)).(*zen.ListExpr)
		e.Elems()[0] = x
		if e.Elem(0) != c(1) {
			t.Fatal("expected node to be unchanged")
		}
	})

	t.Run("ErrLength", func(t *testing.T) {
		defer func() {
			if r := recover(); r != "assert: list: list[3]bv8: length mismatch: 1 != 3" {
				t.Fatalf("unexpected panic: %v", r)
			}
		}()
		zen.NewListExpr(typ, x)
	})

	t.Run("ErrIndex", func(t *testing.T) {
		defer func() {
			if r := recover(); r != "assert: list-get: index out of range: 3" {
				t.Fatalf("unexpected panic: %v", r)
			}
		}()
		zen.NewListGetExpr(l, 3)
	})
}

func TestSeqExpr(t *testing.T) {
	typ := zen.SeqType(zen.IntType(), 2)
	i := zen.NewIntegerExprInt64
	s := zen.NewVarExpr("seq.s", typ)
	x := zen.NewVarExpr("seq.x", zen.IntType())

	for _, tt := range []struct {
		name string
		got  zen.Expr
		want zen.Expr
	}{
		{"LengthLiteral", zen.NewSeqLengthExpr(zen.NewSeqExpr(typ, i(4))), i(1)},
		{"AddFrontLiteral", zen.NewSeqAddFrontExpr(zen.NewSeqExpr(typ, i(4)), x), zen.NewSeqExpr(typ, x, i(4))},
		{"AddFrontFull", zen.NewSeqAddFrontExpr(zen.NewSeqExpr(typ, i(4), i(5)), x), zen.NewSeqExpr(typ, x, i(4))},
		{"GetLiteral", zen.NewSeqGetExpr(zen.NewSeqExpr(typ, i(4), x), 1), x},
		{"GetPastLength", zen.NewSeqGetExpr(zen.NewSeqExpr(typ, i(4)), 1), i(0)},
		{"GetFront", zen.NewSeqGetExpr(zen.NewSeqAddFrontExpr(s, x), 0), x},
		{"GetShifted", zen.NewSeqGetExpr(zen.NewSeqAddFrontExpr(s, x), 1), zen.NewSeqGetExpr(s, 0)},
	} {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Fatalf("got %s, want %s", tt.got, tt.want)
			}
		})
	}

	t.Run("NoFolding", func(t *testing.T) {
		before := zen.CacheStats()["seq-length"].Nodes
		e := zen.NewSeqLengthExpr(zen.NewSeqAddFrontExpr(s, x))
		if _, ok := e.(*zen.SeqLengthExpr); !ok {
			t.Fatalf("unexpected expr: %s", e)
		} else if e != zen.NewSeqLengthExpr(zen.NewSeqAddFrontExpr(s, x)) {
			t.Fatal("expected same instance")
		} else if n := zen.CacheStats()["seq-length"].Nodes - before; n > 1 {
			t.Fatalf("unexpected node allocation: %d", n)
		}
	})

	t.Run("ErrCapacity", func(t *testing.T) {
		defer func() {
			if r := recover(); r != "assert: seq: seq[2]int: capacity exceeded: 3" {
				t.Fatalf("unexpected panic: %v", r)
			}
		}()
		zen.NewSeqExpr(typ, i(1), i(2), i(3))
	})

	t.Run("ErrZeroCapacity", func(t *testing.T) {
		defer func() {
			if r := recover(); r != "assert: seq-add-front: zero capacity: seq[0]int" {
				t.Fatalf("unexpected panic: %v", r)
			}
		}()
		zen.NewSeqAddFrontExpr(zen.NewVarExpr("seq.empty", zen.SeqType(zen.IntType(), 0)), x)
	})
}

func TestEvaluate_List(t *testing.T) {
	l := zen.NewVarExpr("evallist.l", zen.ListType(zen.StringType(), 2))
	a := zen.Assignment{"evallist.l": []interface{}{"a", "b"}}

	if v, err := zen.Evaluate(zen.NewListGetExpr(zen.NewListSetExpr(l, 0, zen.NewStringExpr("z")), 1), a); err != nil {
		t.Fatal(err)
	} else if v != "b" {
		t.Fatalf("unexpected value: %v", v)
	}

	if v, err := zen.Evaluate(zen.NewListSetExpr(l, 0, zen.NewStringExpr("z")), a); err != nil {
		t.Fatal(err)
	} else if diff := cmp.Diff(v, []interface{}{"z", "b"}); diff != "" {
		t.Fatal(diff)
	} else if diff := cmp.Diff(a["evallist.l"], []interface{}{"a", "b"}); diff != "" {
		t.Fatalf("expected assignment to be unchanged: %s", diff)
	}

	t.Run("ErrLength", func(t *testing.T) {
		_, err := zen.Evaluate(zen.NewListGetExpr(l, 0), zen.Assignment{"evallist.l": []interface{}{"a"}})
		if err == nil || err.Error() != "invalid list[2]string value: length 1" {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

// Ensure sequence operations lower to solver terms that agree with direct
// evaluation for every length of the sequence.
func TestTranslator_SeqOps(t *testing.T) {
	typ := zen.SeqType(zen.BitvecType(8), 3)
	s := zen.NewVarExpr("seqops.s", typ)
	x := zen.NewVarExpr("seqops.x", zen.BitvecType(8))
	front := zen.NewSeqAddFrontExpr(s, x)

	exprs := []zen.Expr{
		zen.NewSeqLengthExpr(s),
		zen.NewSeqLengthExpr(front),
		front,
		zen.NewSeqAddFrontExpr(front, zen.NewConstantExpr(1, 8)),
		zen.NewBinaryExpr(zen.ADD, zen.NewSeqGetExpr(s, 0), zen.NewSeqGetExpr(front, 2)),
	}
	for i := 0; i < typ.Size(); i++ {
		exprs = append(exprs, zen.NewSeqGetExpr(s, i), zen.NewSeqGetExpr(front, i))
	}

	elems := []interface{}{uint64(10), uint64(20), uint64(30)}
	for n := 0; n <= typ.Size(); n++ {
		env := zen.Assignment{"seqops.x": uint64(7), "seqops.s.len": apd.NewBigInt(int64(n))}
		for i, elem := range elems {
			env[fmt.Sprintf("seqops.s[%d]", i)] = elem
		}
		a := zen.Assignment{"seqops.x": uint64(7), "seqops.s": elems[:n]}

		for _, e := range exprs {
			tr := zen.NewTranslator[concrete.Term](concrete.NewSolver(env))
			v, err := tr.Translate(e)
			if err != nil {
				t.Fatal(err)
			}
			got, err := zen.EvaluateValue[concrete.Term](concrete.Model{}, v)
			if err != nil {
				t.Fatal(err)
			}

			want, err := zen.Evaluate(e, a)
			if err != nil {
				t.Fatal(err)
			} else if diff := cmp.Diff(got, want, bigIntComparer); diff != "" {
				t.Fatalf("len=%d %s: %s", n, e, diff)
			}
		}
	}
}

func TestTranslator_ListOps(t *testing.T) {
	typ := zen.ListType(zen.IntType(), 2)
	l := zen.NewVarExpr("listops.l", typ)
	y := zen.NewVarExpr("listops.y", zen.IntType())
	e := zen.NewListSetExpr(l, 1, zen.NewBinaryExpr(zen.ADD, zen.NewListGetExpr(l, 0), y))

	env := zen.Assignment{"listops.l[0]": apd.NewBigInt(2), "listops.l[1]": apd.NewBigInt(9), "listops.y": apd.NewBigInt(3)}
	v, err := zen.NewTranslator[concrete.Term](concrete.NewSolver(env)).Translate(e)
	if err != nil {
		t.Fatal(err)
	}
	out, err := zen.EvaluateValue[concrete.Term](concrete.Model{}, v)
	if err != nil {
		t.Fatal(err)
	} else if diff := cmp.Diff(out, []interface{}{apd.NewBigInt(2), apd.NewBigInt(5)}, bigIntComparer); diff != "" {
		t.Fatal(diff)
	}
}
