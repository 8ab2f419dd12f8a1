// Package concrete implements a solver whose terms are plain Go values.
// Variables read their values from a fixed environment, so Solve only
// evaluates its constraints. It is used to run symbolic code concretely
// and to cross-check other backends.
package concrete

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/benbjohnson/zen"
	"github.com/cockroachdb/apd/v3"
)

// Ensure solver implements interface.
var _ zen.Solver[Term] = (*Solver)(nil)

// Term holds a bool, Bitvec, *apd.BigInt, or string.
type Term interface{}

// Bitvec is a fixed-width bit vector value.
type Bitvec struct {
	Value uint64
	Width uint
}

func (b Bitvec) String() string { return fmt.Sprintf("#%d:%d", b.Value, b.Width) }

func newBitvec(v uint64, width uint) Bitvec {
	if width < 64 {
		v &= (1 << width) - 1
	}
	return Bitvec{Value: v, Width: width}
}

// signed returns the two's complement interpretation of b.
func (b Bitvec) signed() int64 {
	if b.Width < 64 && b.Value&(1<<(b.Width-1)) != 0 {
		return int64(b.Value) - int64(1)<<b.Width
	}
	return int64(b.Value)
}

// Solver evaluates terms against an environment of variable values.
type Solver struct {
	env   zen.Assignment
	stats Stats
}

// Stats holds counters for terms built by the solver.
type Stats struct {
	Vars  int // variable lookups
	Solve int // calls to Solve()
}

// NewSolver returns a new instance of Solver. Variables missing from env
// read as the zero value of their sort.
func NewSolver(env zen.Assignment) *Solver {
	if env == nil {
		env = zen.Assignment{}
	}
	return &Solver{env: env}
}

// Stats returns statistics for the solver.
func (s *Solver) Stats() Stats { return s.stats }

func (s *Solver) Bool(v bool) (Term, error) { return v, nil }

func (s *Solver) BoolVar(name string) (Term, error) {
	s.stats.Vars++
	v, ok := s.env[name]
	if !ok {
		return false, nil
	} else if b, ok := v.(bool); ok {
		return b, nil
	}
	return nil, fmt.Errorf("concrete: variable %s: expected bool, got %T", name, v)
}

func (s *Solver) Bitvec(v uint64, width uint) (Term, error) {
	if width == 0 || width > 64 {
		return nil, fmt.Errorf("concrete: invalid bitvec width: %d", width)
	}
	return newBitvec(v, width), nil
}

func (s *Solver) BitvecVar(name string, width uint) (Term, error) {
	s.stats.Vars++
	v, ok := s.env[name]
	if !ok {
		return s.Bitvec(0, width)
	} else if u, ok := v.(uint64); ok {
		return s.Bitvec(u, width)
	}
	return nil, fmt.Errorf("concrete: variable %s: expected uint64, got %T", name, v)
}

func (s *Solver) Int(v *apd.BigInt) (Term, error) {
	return new(apd.BigInt).Set(v), nil
}

func (s *Solver) IntVar(name string) (Term, error) {
	s.stats.Vars++
	v, ok := s.env[name]
	if !ok {
		return apd.NewBigInt(0), nil
	} else if i, ok := v.(*apd.BigInt); ok && i != nil {
		return s.Int(i)
	}
	return nil, fmt.Errorf("concrete: variable %s: expected *apd.BigInt, got %T", name, v)
}

func (s *Solver) String(v string) (Term, error) { return v, nil }

func (s *Solver) StringVar(name string) (Term, error) {
	s.stats.Vars++
	v, ok := s.env[name]
	if !ok {
		return "", nil
	} else if str, ok := v.(string); ok {
		return str, nil
	}
	return nil, fmt.Errorf("concrete: variable %s: expected string, got %T", name, v)
}

func (s *Solver) Not(x Term) (Term, error) {
	b, err := asBool(x)
	if err != nil {
		return nil, err
	}
	return !b, nil
}

func (s *Solver) And(x, y Term) (Term, error) {
	a, b, err := asBools(x, y)
	if err != nil {
		return nil, err
	}
	return a && b, nil
}

func (s *Solver) Or(x, y Term) (Term, error) {
	a, b, err := asBools(x, y)
	if err != nil {
		return nil, err
	}
	return a || b, nil
}

func (s *Solver) Ite(cond, x, y Term) (Term, error) {
	c, err := asBool(cond)
	if err != nil {
		return nil, err
	} else if c {
		return x, nil
	}
	return y, nil
}

func (s *Solver) Eq(x, y Term) (Term, error) {
	switch x := x.(type) {
	case bool:
		b, ok := y.(bool)
		if !ok {
			return nil, fmt.Errorf("concrete: eq: sort mismatch: %T != %T", x, y)
		}
		return x == b, nil
	case string:
		s, ok := y.(string)
		if !ok {
			return nil, fmt.Errorf("concrete: eq: sort mismatch: %T != %T", x, y)
		}
		return x == s, nil
	case Bitvec:
		b, err := asBitvec(y, x.Width)
		if err != nil {
			return nil, err
		}
		return x.Value == b.Value, nil
	case *apd.BigInt:
		i, ok := y.(*apd.BigInt)
		if !ok {
			return nil, fmt.Errorf("concrete: eq: sort mismatch: %T != %T", x, y)
		}
		return x.Cmp(i) == 0, nil
	default:
		return nil, fmt.Errorf("concrete: eq: invalid term: %T", x)
	}
}

// bitvecOp applies fn to two bit vectors of equal width.
func bitvecOp(x, y Term, fn func(a, b Bitvec) uint64) (Term, error) {
	a, ok := x.(Bitvec)
	if !ok {
		return nil, fmt.Errorf("concrete: expected bitvec, got %T", x)
	}
	b, err := asBitvec(y, a.Width)
	if err != nil {
		return nil, err
	}
	return newBitvec(fn(a, b), a.Width), nil
}

func (s *Solver) BitvecAdd(x, y Term) (Term, error) {
	return bitvecOp(x, y, func(a, b Bitvec) uint64 { return a.Value + b.Value })
}

func (s *Solver) BitvecSub(x, y Term) (Term, error) {
	return bitvecOp(x, y, func(a, b Bitvec) uint64 { return a.Value - b.Value })
}

func (s *Solver) BitvecMul(x, y Term) (Term, error) {
	return bitvecOp(x, y, func(a, b Bitvec) uint64 { return a.Value * b.Value })
}

func (s *Solver) BitvecAnd(x, y Term) (Term, error) {
	return bitvecOp(x, y, func(a, b Bitvec) uint64 { return a.Value & b.Value })
}

func (s *Solver) BitvecOr(x, y Term) (Term, error) {
	return bitvecOp(x, y, func(a, b Bitvec) uint64 { return a.Value | b.Value })
}

func (s *Solver) BitvecXor(x, y Term) (Term, error) {
	return bitvecOp(x, y, func(a, b Bitvec) uint64 { return a.Value ^ b.Value })
}

func (s *Solver) BitvecShl(x, y Term) (Term, error) {
	return bitvecOp(x, y, func(a, b Bitvec) uint64 {
		if b.Value >= uint64(a.Width) {
			return 0
		}
		return a.Value << b.Value
	})
}

func (s *Solver) BitvecLShr(x, y Term) (Term, error) {
	return bitvecOp(x, y, func(a, b Bitvec) uint64 {
		if b.Value >= uint64(a.Width) {
			return 0
		}
		return a.Value >> b.Value
	})
}

func (s *Solver) BitvecLt(x, y Term, signed bool) (Term, error) {
	return bitvecCompare(x, y, func(cmp int) bool { return cmp < 0 }, signed)
}

func (s *Solver) BitvecLe(x, y Term, signed bool) (Term, error) {
	return bitvecCompare(x, y, func(cmp int) bool { return cmp <= 0 }, signed)
}

func bitvecCompare(x, y Term, fn func(cmp int) bool, signed bool) (Term, error) {
	a, ok := x.(Bitvec)
	if !ok {
		return nil, fmt.Errorf("concrete: expected bitvec, got %T", x)
	}
	b, err := asBitvec(y, a.Width)
	if err != nil {
		return nil, err
	}

	var cmp int
	if signed {
		cmp = compare(a.signed(), b.signed())
	} else {
		cmp = compare(a.Value, b.Value)
	}
	return fn(cmp), nil
}

func compare[T int64 | uint64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// intOp applies fn to two integers and returns a new integer.
func intOp(x, y Term, fn func(z, a, b *apd.BigInt) *apd.BigInt) (Term, error) {
	a, b, err := asInts(x, y)
	if err != nil {
		return nil, err
	}
	return fn(new(apd.BigInt), a, b), nil
}

func (s *Solver) IntAdd(x, y Term) (Term, error) { return intOp(x, y, (*apd.BigInt).Add) }
func (s *Solver) IntSub(x, y Term) (Term, error) { return intOp(x, y, (*apd.BigInt).Sub) }
func (s *Solver) IntMul(x, y Term) (Term, error) { return intOp(x, y, (*apd.BigInt).Mul) }

func (s *Solver) IntLt(x, y Term) (Term, error) {
	a, b, err := asInts(x, y)
	if err != nil {
		return nil, err
	}
	return a.Cmp(b) < 0, nil
}

func (s *Solver) IntLe(x, y Term) (Term, error) {
	a, b, err := asInts(x, y)
	if err != nil {
		return nil, err
	}
	return a.Cmp(b) <= 0, nil
}

func (s *Solver) Concat(x, y Term) (Term, error) {
	a, ok := x.(string)
	if !ok {
		return nil, fmt.Errorf("concrete: expected string, got %T", x)
	}
	b, ok := y.(string)
	if !ok {
		return nil, fmt.Errorf("concrete: expected string, got %T", y)
	}
	return a + b, nil
}

func (s *Solver) Length(x Term) (Term, error) {
	str, ok := x.(string)
	if !ok {
		return nil, fmt.Errorf("concrete: expected string, got %T", x)
	}
	return apd.NewBigInt(int64(utf8.RuneCountInString(str))), nil
}

// Solve reports whether every constraint evaluated to true. The returned
// model maps terms to their values.
func (s *Solver) Solve(ctx context.Context, constraints []Term) (satisfiable bool, m zen.Model[Term], err error) {
	s.stats.Solve++
	if err := ctx.Err(); err != nil {
		return false, nil, zen.ErrSolverCanceled
	}

	for _, c := range constraints {
		if b, err := asBool(c); err != nil {
			return false, nil, err
		} else if !b {
			return false, nil, nil
		}
	}
	return true, Model{}, nil
}

// Model reads values directly from concrete terms.
type Model struct{}

func (Model) Bool(x Term) (bool, error) { return asBool(x) }

func (Model) Bitvec(x Term) (uint64, error) {
	b, ok := x.(Bitvec)
	if !ok {
		return 0, fmt.Errorf("concrete: expected bitvec, got %T", x)
	}
	return b.Value, nil
}

func (Model) Int(x Term) (*apd.BigInt, error) {
	i, ok := x.(*apd.BigInt)
	if !ok {
		return nil, fmt.Errorf("concrete: expected int, got %T", x)
	}
	return new(apd.BigInt).Set(i), nil
}

func (Model) String(x Term) (string, error) {
	s, ok := x.(string)
	if !ok {
		return "", fmt.Errorf("concrete: expected string, got %T", x)
	}
	return s, nil
}

func asBool(x Term) (bool, error) {
	b, ok := x.(bool)
	if !ok {
		return false, fmt.Errorf("concrete: expected bool, got %T", x)
	}
	return b, nil
}

func asBools(x, y Term) (bool, bool, error) {
	a, err := asBool(x)
	if err != nil {
		return false, false, err
	}
	b, err := asBool(y)
	return a, b, err
}

func asBitvec(x Term, width uint) (Bitvec, error) {
	b, ok := x.(Bitvec)
	if !ok {
		return Bitvec{}, fmt.Errorf("concrete: expected bitvec, got %T", x)
	} else if b.Width != width {
		return Bitvec{}, fmt.Errorf("concrete: bitvec width mismatch: %d != %d", b.Width, width)
	}
	return b, nil
}

func asInts(x, y Term) (*apd.BigInt, *apd.BigInt, error) {
	a, ok := x.(*apd.BigInt)
	if !ok {
		return nil, nil, fmt.Errorf("concrete: expected int, got %T", x)
	}
	b, ok := y.(*apd.BigInt)
	if !ok {
		return nil, nil, fmt.Errorf("concrete: expected int, got %T", y)
	}
	return a, b, nil
}
