package concrete_test

import (
	"context"
	"errors"
	"testing"

	"github.com/benbjohnson/zen"
	"github.com/benbjohnson/zen/concrete"
	"github.com/cockroachdb/apd/v3"
	"github.com/go-quicktest/qt"
	"github.com/google/go-cmp/cmp"
)

// bigIntComparer compares integers by value.
var bigIntComparer = cmp.Comparer(func(x, y *apd.BigInt) bool { return x.Cmp(y) == 0 })

func TestSolver_Bitvec(t *testing.T) {
	s := concrete.NewSolver(zen.Assignment{"x": uint64(0xF0)})

	x := MustTerm(s.BitvecVar("x", 8))
	t.Run("Add", func(t *testing.T) {
		qt.Assert(t, qt.Equals(MustTerm(s.BitvecAdd(x, MustTerm(s.Bitvec(0x20, 8)))), concrete.Term(concrete.Bitvec{Value: 0x10, Width: 8})))
	})
	t.Run("Sub", func(t *testing.T) {
		qt.Assert(t, qt.Equals(MustTerm(s.BitvecSub(MustTerm(s.Bitvec(0, 8)), x)), concrete.Term(concrete.Bitvec{Value: 0x10, Width: 8})))
	})
	t.Run("Shl", func(t *testing.T) {
		qt.Assert(t, qt.Equals(MustTerm(s.BitvecShl(x, MustTerm(s.Bitvec(8, 8)))), concrete.Term(concrete.Bitvec{Value: 0, Width: 8})))
		qt.Assert(t, qt.Equals(MustTerm(s.BitvecShl(x, MustTerm(s.Bitvec(1, 8)))), concrete.Term(concrete.Bitvec{Value: 0xE0, Width: 8})))
	})
	t.Run("Signed", func(t *testing.T) {
		zero := MustTerm(s.Bitvec(0, 8))
		qt.Assert(t, qt.Equals(MustTerm(s.BitvecLt(x, zero, true)), concrete.Term(true)))
		qt.Assert(t, qt.Equals(MustTerm(s.BitvecLt(x, zero, false)), concrete.Term(false)))
	})
	t.Run("WidthMismatch", func(t *testing.T) {
		_, err := s.BitvecAdd(x, MustTerm(s.Bitvec(1, 16)))
		qt.Assert(t, qt.ErrorMatches(err, `concrete: bitvec width mismatch: 16 != 8`))
	})
}

func TestSolver_Var(t *testing.T) {
	t.Run("Missing", func(t *testing.T) {
		s := concrete.NewSolver(nil)
		qt.Assert(t, qt.Equals(MustTerm(s.BoolVar("b")), concrete.Term(false)))
		qt.Assert(t, qt.Equals(MustTerm(s.StringVar("s")), concrete.Term("")))
		qt.Assert(t, qt.Equals(MustTerm(s.IntVar("i")).(*apd.BigInt).Sign(), 0))
		qt.Assert(t, qt.Equals(s.Stats().Vars, 3))
	})
	t.Run("WrongType", func(t *testing.T) {
		s := concrete.NewSolver(zen.Assignment{"b": "yes"})
		_, err := s.BoolVar("b")
		qt.Assert(t, qt.ErrorMatches(err, `concrete: variable b: expected bool, got string`))
	})
}

func TestSolver_Solve(t *testing.T) {
	s := concrete.NewSolver(nil)
	t.Run("OK", func(t *testing.T) {
		sat, _, err := s.Solve(context.Background(), []concrete.Term{true, true})
		qt.Assert(t, qt.IsNil(err))
		qt.Assert(t, qt.IsTrue(sat))
	})
	t.Run("False", func(t *testing.T) {
		sat, _, err := s.Solve(context.Background(), []concrete.Term{true, false})
		qt.Assert(t, qt.IsNil(err))
		qt.Assert(t, qt.IsFalse(sat))
	})
	t.Run("Canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, _, err := s.Solve(ctx, nil)
		qt.Assert(t, qt.IsTrue(errors.Is(err, zen.ErrSolverCanceled)))
	})
}

func TestFind(t *testing.T) {
	typ := zen.ObjectType("Pair",
		zen.Field{Name: "A", Type: zen.BitvecType(8)},
		zen.Field{Name: "B", Type: zen.IntType()},
	)
	p := zen.NewVarExpr("p", typ)
	pred := zen.NewAndExpr(
		zen.NewBinaryExpr(zen.ULT, zen.NewGetFieldExpr(p, "A"), zen.NewConstantExpr(10, 8)),
		zen.NewBinaryExpr(zen.SLT, zen.NewIntegerExprInt64(0), zen.NewGetFieldExpr(p, "B")),
	)

	t.Run("Satisfied", func(t *testing.T) {
		s := concrete.NewSolver(zen.Assignment{"p.A": uint64(3), "p.B": apd.NewBigInt(5)})
		ok, a, err := zen.Find[concrete.Term](context.Background(), s, pred)
		if err != nil {
			t.Fatal(err)
		} else if !ok {
			t.Fatal("expected assignment")
		} else if diff := cmp.Diff(a, zen.Assignment{
			"p": map[string]interface{}{"A": uint64(3), "B": apd.NewBigInt(5)},
		}, bigIntComparer); diff != "" {
			t.Fatal(diff)
		}

		// Evaluating the predicate under the found assignment agrees.
		v, err := zen.Evaluate(pred, a)
		qt.Assert(t, qt.IsNil(err))
		qt.Assert(t, qt.Equals(v, interface{}(true)))
	})

	t.Run("Violated", func(t *testing.T) {
		s := concrete.NewSolver(zen.Assignment{"p.A": uint64(12), "p.B": apd.NewBigInt(5)})
		ok, _, err := zen.Find[concrete.Term](context.Background(), s, pred)
		qt.Assert(t, qt.IsNil(err))
		qt.Assert(t, qt.IsFalse(ok))
	})
}

func TestFind_Dict(t *testing.T) {
	m := zen.NewVarExpr("m", zen.DictType(zen.StringType()))
	pred := zen.NewBinaryExpr(zen.EQ, zen.NewMapGetExpr(zen.NewMapSetExpr(m, "x", zen.NewStringExpr("1")), "y"), zen.NewStringExpr("2"))

	t.Run("Present", func(t *testing.T) {
		s := concrete.NewSolver(zen.Assignment{`m["y"]?`: true, `m["y"]`: "2", `m["x"]`: "9"})
		ok, a, err := zen.Find[concrete.Term](context.Background(), s, pred)
		qt.Assert(t, qt.IsNil(err))
		qt.Assert(t, qt.IsTrue(ok))
		qt.Assert(t, qt.DeepEquals(a, zen.Assignment{"m": map[interface{}]interface{}{"y": "2"}}))
	})

	t.Run("Absent", func(t *testing.T) {
		s := concrete.NewSolver(zen.Assignment{`m["y"]`: "2"})
		ok, _, err := zen.Find[concrete.Term](context.Background(), s, pred)
		qt.Assert(t, qt.IsNil(err))
		qt.Assert(t, qt.IsFalse(ok))
	})
}

func TestMerge(t *testing.T) {
	s := &RecordingSolver{Solver: concrete.NewSolver(nil)}

	typ := zen.ObjectType("Point",
		zen.Field{Name: "X", Type: zen.BitvecType(8)},
		zen.Field{Name: "Y", Type: zen.StringType()},
	)
	a := zen.NewSymbolicObject[concrete.Term](s, typ).
		WithField("X", zen.NewSymbolicBitvec[concrete.Term](s, concrete.Bitvec{Value: 1, Width: 8}, 8)).
		WithField("Y", zen.NewSymbolicString[concrete.Term](s, "a"))
	b := zen.NewSymbolicObject[concrete.Term](s, typ).
		WithField("X", zen.NewSymbolicBitvec[concrete.Term](s, concrete.Bitvec{Value: 2, Width: 8}, 8)).
		WithField("Y", zen.NewSymbolicString[concrete.Term](s, "b"))

	for _, guard := range []bool{true, false} {
		s.Ites = 0
		v, err := a.Merge(guard, b)
		qt.Assert(t, qt.IsNil(err))
		qt.Assert(t, qt.Equals(s.Ites, 2))

		obj := v.(*zen.SymbolicObject[concrete.Term])
		want := a
		if !guard {
			want = b
		}
		qt.Assert(t, qt.Equals(obj.Field("X").(*zen.SymbolicBitvec[concrete.Term]).Term, want.Field("X").(*zen.SymbolicBitvec[concrete.Term]).Term))
		qt.Assert(t, qt.Equals(obj.Field("Y").(*zen.SymbolicString[concrete.Term]).Term, want.Field("Y").(*zen.SymbolicString[concrete.Term]).Term))
	}
}

func TestMerge_Bool(t *testing.T) {
	for _, g := range []bool{true, false} {
		s := &RecordingSolver{Solver: concrete.NewSolver(zen.Assignment{"g": g})}
		b1 := zen.NewSymbolicBool[concrete.Term](s, MustTerm(s.Bool(true)))
		b2 := zen.NewSymbolicBool[concrete.Term](s, MustTerm(s.Bool(false)))
		guard := MustTerm(s.BoolVar("g"))

		v, err := b1.Merge(guard, b2)
		qt.Assert(t, qt.IsNil(err))
		qt.Assert(t, qt.Equals(s.Ites, 1))
		qt.Assert(t, qt.Equals(v.(*zen.SymbolicBool[concrete.Term]).Term, MustTerm(s.Solver.Ite(guard, true, false))))
	}
}

func TestMerge_Dict(t *testing.T) {
	s := &RecordingSolver{Solver: concrete.NewSolver(nil)}
	typ := zen.DictType(zen.BoolType())

	a := zen.NewSymbolicDict[concrete.Term](s, typ).
		WithEntry("k", zen.DictEntry[concrete.Term]{Present: true, Value: zen.NewSymbolicBool[concrete.Term](s, true)})
	b := zen.NewSymbolicDict[concrete.Term](s, typ)

	v, err := a.Merge(false, b)
	qt.Assert(t, qt.IsNil(err))
	entry, ok := v.(*zen.SymbolicDict[concrete.Term]).Entry("k")
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(entry.Present, concrete.Term(false)))
	qt.Assert(t, qt.Equals(s.Ites, 1))
}

func TestMerge_Mismatch(t *testing.T) {
	s := concrete.NewSolver(nil)
	a := zen.NewSymbolicBool[concrete.Term](s, true)
	b := zen.NewSymbolicString[concrete.Term](s, "x")
	qt.Assert(t, qt.PanicMatches(func() { a.Merge(true, b) }, `assert: merge: value mismatch: .*`))
}

// RecordingSolver counts calls to Ite on an embedded solver.
type RecordingSolver struct {
	*concrete.Solver
	Ites int
}

func (s *RecordingSolver) Ite(cond, x, y concrete.Term) (concrete.Term, error) {
	s.Ites++
	return s.Solver.Ite(cond, x, y)
}

// MustTerm returns term or panics if err is not nil.
func MustTerm(term concrete.Term, err error) concrete.Term {
	if err != nil {
		panic(err)
	}
	return term
}
