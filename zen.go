// Package zen implements a hash-consed expression IR for symbolic
// verification along with a symbolic value layer that lowers expressions onto
// a pluggable constraint solver.
package zen

import (
	"errors"
	"fmt"
)

// Standard widths.
const (
	WidthBool = 1
	Width8    = 8
	Width16   = 16
	Width32   = 32
	Width64   = 64
)

var (
	ErrSolverTimeout       = errors.New("Solver timeout")
	ErrSolverCanceled      = errors.New("Solver canceled")
	ErrSolverResourceLimit = errors.New("Solver resource limit")
	ErrSolverUnknown       = errors.New("Solver unknown error")
)

// ErrInvalidArgument is wrapped by the panic value of a constructor that
// receives a nil operand.
var ErrInvalidArgument = errors.New("zen: invalid argument")

// OperandError is the panic value raised when a constructor is called with a
// missing operand.
type OperandError struct {
	Op      string // constructor name
	Operand string // operand name
}

// Error returns the error as a string.
func (e *OperandError) Error() string {
	return fmt.Sprintf("zen.%s: nil %s", e.Op, e.Operand)
}

// Unwrap returns ErrInvalidArgument.
func (e *OperandError) Unwrap() error { return ErrInvalidArgument }

// assert panics if condition is false.
func assert(condition bool, format string, args ...interface{}) {
	if !condition {
		panic(fmt.Sprintf("assert: "+format, args...))
	}
}

// requireExpr panics with an OperandError if expr is nil or holds a nil node.
func requireExpr(op, name string, expr Expr) {
	if isNilExpr(expr) {
		panic(&OperandError{Op: op, Operand: name})
	}
}

// requireRegex panics with an OperandError if r is nil or holds a nil node.
func requireRegex(op, name string, r Regex) {
	if isNilRegex(r) {
		panic(&OperandError{Op: op, Operand: name})
	}
}

func isNilExpr(expr Expr) bool {
	switch e := expr.(type) {
	case nil:
		return true
	case *ConstantExpr:
		return e == nil
	case *IntegerExpr:
		return e == nil
	case *StringExpr:
		return e == nil
	case *VarExpr:
		return e == nil
	case *NotExpr:
		return e == nil
	case *LogicalExpr:
		return e == nil
	case *IfExpr:
		return e == nil
	case *BinaryExpr:
		return e == nil
	case *StrConcatExpr:
		return e == nil
	case *StrLengthExpr:
		return e == nil
	case *ObjectExpr:
		return e == nil
	case *GetFieldExpr:
		return e == nil
	case *MapSetExpr:
		return e == nil
	case *MapGetExpr:
		return e == nil
	case *ListExpr:
		return e == nil
	case *ListGetExpr:
		return e == nil
	case *ListSetExpr:
		return e == nil
	case *SeqExpr:
		return e == nil
	case *SeqLengthExpr:
		return e == nil
	case *SeqGetExpr:
		return e == nil
	case *SeqAddFrontExpr:
		return e == nil
	default:
		return false
	}
}

func isNilRegex(r Regex) bool {
	switch r := r.(type) {
	case nil:
		return true
	case *RegexEmptyExpr:
		return r == nil
	case *RegexEpsilonExpr:
		return r == nil
	case *RegexRangeExpr:
		return r == nil
	case *RegexAnchorExpr:
		return r == nil
	case *RegexUnopExpr:
		return r == nil
	case *RegexBinopExpr:
		return r == nil
	default:
		return false
	}
}
