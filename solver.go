package zen

import (
	"context"

	"github.com/cockroachdb/apd/v3"
)

// Solver is implemented by constraint solving backends. T is the backend's
// native term type. Every term passed to a Solver must have been created by
// the same Solver.
//
// Bit vector arithmetic wraps around at the operand width.
type Solver[T any] interface {
	Bool(v bool) (T, error)
	BoolVar(name string) (T, error)
	Bitvec(v uint64, width uint) (T, error)
	BitvecVar(name string, width uint) (T, error)
	Int(v *apd.BigInt) (T, error)
	IntVar(name string) (T, error)
	String(v string) (T, error)
	StringVar(name string) (T, error)

	Not(x T) (T, error)
	And(x, y T) (T, error)
	Or(x, y T) (T, error)
	Ite(cond, x, y T) (T, error)
	Eq(x, y T) (T, error)

	BitvecAdd(x, y T) (T, error)
	BitvecSub(x, y T) (T, error)
	BitvecMul(x, y T) (T, error)
	BitvecAnd(x, y T) (T, error)
	BitvecOr(x, y T) (T, error)
	BitvecXor(x, y T) (T, error)
	BitvecShl(x, y T) (T, error)
	BitvecLShr(x, y T) (T, error)
	BitvecLt(x, y T, signed bool) (T, error)
	BitvecLe(x, y T, signed bool) (T, error)

	IntAdd(x, y T) (T, error)
	IntSub(x, y T) (T, error)
	IntMul(x, y T) (T, error)
	IntLt(x, y T) (T, error)
	IntLe(x, y T) (T, error)

	Concat(x, y T) (T, error)
	Length(x T) (T, error)

	// Solve checks the conjunction of constraints. If satisfiable, the
	// returned model assigns every variable in the constraints.
	Solve(ctx context.Context, constraints []T) (satisfiable bool, m Model[T], err error)
}

// Model holds the variable assignment of a satisfiable Solve() call.
type Model[T any] interface {
	Bool(x T) (bool, error)
	Bitvec(x T) (uint64, error)
	Int(x T) (*apd.BigInt, error)
	String(x T) (string, error)
}
