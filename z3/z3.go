package z3

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unsafe"

	"github.com/benbjohnson/zen"
	"github.com/cockroachdb/apd/v3"
)

/*
#cgo LDFLAGS: -lz3
#include <z3.h>
#include <stdlib.h>
#include <stdio.h>
*/
import "C"

// Ensure solver implements interface.
var _ zen.Solver[Term] = (*Solver)(nil)

// Term is a Z3 AST owned by the Solver that created it.
type Term struct {
	ast C.Z3_ast
}

// Solver represents a solver that uses an embedded Z3 solver.
type Solver struct {
	ctx    *Context
	models []*Model
	stats  Stats

	// Maximum time for a single Solve() call. Zero means no limit.
	Timeout time.Duration
}

// NewSolver returns a new instance of Solver.
func NewSolver() *Solver {
	return &Solver{
		ctx: NewContext(),
	}
}

// Close releases all models and deletes the underlying Z3 context.
func (s *Solver) Close() error {
	for _, m := range s.models {
		C.Z3_model_dec_ref(s.ctx.raw, m.raw)
	}
	s.models = nil
	return s.ctx.Close()
}

// Stats returns statistics for the solver.
func (s *Solver) Stats() Stats {
	return s.stats
}

func (s *Solver) Bool(v bool) (Term, error) {
	if v {
		return s.ctx.term(C.Z3_mk_true(s.ctx.raw), "Z3_mk_true")
	}
	return s.ctx.term(C.Z3_mk_false(s.ctx.raw), "Z3_mk_false")
}

func (s *Solver) BoolVar(name string) (Term, error) {
	sort := C.Z3_mk_bool_sort(s.ctx.raw)
	if err := s.ctx.err("Z3_mk_bool_sort"); err != nil {
		return Term{}, err
	}
	return s.ctx.makeConst(name, sort)
}

func (s *Solver) Bitvec(v uint64, width uint) (Term, error) {
	sort, err := s.ctx.makeBVSort(width)
	if err != nil {
		return Term{}, err
	}
	return s.ctx.term(C.Z3_mk_unsigned_int64(s.ctx.raw, C.uint64_t(v), sort), "Z3_mk_unsigned_int64")
}

func (s *Solver) BitvecVar(name string, width uint) (Term, error) {
	sort, err := s.ctx.makeBVSort(width)
	if err != nil {
		return Term{}, err
	}
	return s.ctx.makeConst(name, sort)
}

func (s *Solver) Int(v *apd.BigInt) (Term, error) {
	sort := C.Z3_mk_int_sort(s.ctx.raw)
	if err := s.ctx.err("Z3_mk_int_sort"); err != nil {
		return Term{}, err
	}

	cs := C.CString(v.String())
	defer C.free(unsafe.Pointer(cs))
	return s.ctx.term(C.Z3_mk_numeral(s.ctx.raw, cs, sort), "Z3_mk_numeral")
}

func (s *Solver) IntVar(name string) (Term, error) {
	sort := C.Z3_mk_int_sort(s.ctx.raw)
	if err := s.ctx.err("Z3_mk_int_sort"); err != nil {
		return Term{}, err
	}
	return s.ctx.makeConst(name, sort)
}

func (s *Solver) String(v string) (Term, error) {
	cs := C.CString(escapeString(v))
	defer C.free(unsafe.Pointer(cs))
	return s.ctx.term(C.Z3_mk_string(s.ctx.raw, cs), "Z3_mk_string")
}

func (s *Solver) StringVar(name string) (Term, error) {
	sort := C.Z3_mk_string_sort(s.ctx.raw)
	if err := s.ctx.err("Z3_mk_string_sort"); err != nil {
		return Term{}, err
	}
	return s.ctx.makeConst(name, sort)
}

func (s *Solver) Not(x Term) (Term, error) {
	return s.ctx.term(C.Z3_mk_not(s.ctx.raw, x.ast), "Z3_mk_not")
}

func (s *Solver) And(x, y Term) (Term, error) {
	args := [2]C.Z3_ast{x.ast, y.ast}
	return s.ctx.term(C.Z3_mk_and(s.ctx.raw, 2, &args[0]), "Z3_mk_and")
}

func (s *Solver) Or(x, y Term) (Term, error) {
	args := [2]C.Z3_ast{x.ast, y.ast}
	return s.ctx.term(C.Z3_mk_or(s.ctx.raw, 2, &args[0]), "Z3_mk_or")
}

func (s *Solver) Ite(cond, x, y Term) (Term, error) {
	return s.ctx.term(C.Z3_mk_ite(s.ctx.raw, cond.ast, x.ast, y.ast), "Z3_mk_ite")
}

func (s *Solver) Eq(x, y Term) (Term, error) {
	return s.ctx.term(C.Z3_mk_eq(s.ctx.raw, x.ast, y.ast), "Z3_mk_eq")
}

func (s *Solver) BitvecAdd(x, y Term) (Term, error) {
	return s.ctx.term(C.Z3_mk_bvadd(s.ctx.raw, x.ast, y.ast), "Z3_mk_bvadd")
}

func (s *Solver) BitvecSub(x, y Term) (Term, error) {
	return s.ctx.term(C.Z3_mk_bvsub(s.ctx.raw, x.ast, y.ast), "Z3_mk_bvsub")
}

func (s *Solver) BitvecMul(x, y Term) (Term, error) {
	return s.ctx.term(C.Z3_mk_bvmul(s.ctx.raw, x.ast, y.ast), "Z3_mk_bvmul")
}

func (s *Solver) BitvecAnd(x, y Term) (Term, error) {
	return s.ctx.term(C.Z3_mk_bvand(s.ctx.raw, x.ast, y.ast), "Z3_mk_bvand")
}

func (s *Solver) BitvecOr(x, y Term) (Term, error) {
	return s.ctx.term(C.Z3_mk_bvor(s.ctx.raw, x.ast, y.ast), "Z3_mk_bvor")
}

func (s *Solver) BitvecXor(x, y Term) (Term, error) {
	return s.ctx.term(C.Z3_mk_bvxor(s.ctx.raw, x.ast, y.ast), "Z3_mk_bvxor")
}

func (s *Solver) BitvecShl(x, y Term) (Term, error) {
	return s.ctx.term(C.Z3_mk_bvshl(s.ctx.raw, x.ast, y.ast), "Z3_mk_bvshl")
}

func (s *Solver) BitvecLShr(x, y Term) (Term, error) {
	return s.ctx.term(C.Z3_mk_bvlshr(s.ctx.raw, x.ast, y.ast), "Z3_mk_bvlshr")
}

func (s *Solver) BitvecLt(x, y Term, signed bool) (Term, error) {
	if signed {
		return s.ctx.term(C.Z3_mk_bvslt(s.ctx.raw, x.ast, y.ast), "Z3_mk_bvslt")
	}
	return s.ctx.term(C.Z3_mk_bvult(s.ctx.raw, x.ast, y.ast), "Z3_mk_bvult")
}

func (s *Solver) BitvecLe(x, y Term, signed bool) (Term, error) {
	if signed {
		return s.ctx.term(C.Z3_mk_bvsle(s.ctx.raw, x.ast, y.ast), "Z3_mk_bvsle")
	}
	return s.ctx.term(C.Z3_mk_bvule(s.ctx.raw, x.ast, y.ast), "Z3_mk_bvule")
}

func (s *Solver) IntAdd(x, y Term) (Term, error) {
	args := [2]C.Z3_ast{x.ast, y.ast}
	return s.ctx.term(C.Z3_mk_add(s.ctx.raw, 2, &args[0]), "Z3_mk_add")
}

func (s *Solver) IntSub(x, y Term) (Term, error) {
	args := [2]C.Z3_ast{x.ast, y.ast}
	return s.ctx.term(C.Z3_mk_sub(s.ctx.raw, 2, &args[0]), "Z3_mk_sub")
}

func (s *Solver) IntMul(x, y Term) (Term, error) {
	args := [2]C.Z3_ast{x.ast, y.ast}
	return s.ctx.term(C.Z3_mk_mul(s.ctx.raw, 2, &args[0]), "Z3_mk_mul")
}

func (s *Solver) IntLt(x, y Term) (Term, error) {
	return s.ctx.term(C.Z3_mk_lt(s.ctx.raw, x.ast, y.ast), "Z3_mk_lt")
}

func (s *Solver) IntLe(x, y Term) (Term, error) {
	return s.ctx.term(C.Z3_mk_le(s.ctx.raw, x.ast, y.ast), "Z3_mk_le")
}

func (s *Solver) Concat(x, y Term) (Term, error) {
	args := [2]C.Z3_ast{x.ast, y.ast}
	return s.ctx.term(C.Z3_mk_seq_concat(s.ctx.raw, 2, &args[0]), "Z3_mk_seq_concat")
}

func (s *Solver) Length(x Term) (Term, error) {
	return s.ctx.term(C.Z3_mk_seq_length(s.ctx.raw, x.ast), "Z3_mk_seq_length")
}

// Solve checks the conjunction of constraints. Canceling ctx interrupts the
// check in progress.
func (s *Solver) Solve(ctx context.Context, constraints []Term) (satisfiable bool, m zen.Model[Term], err error) {
	if ctx.Err() != nil {
		return false, nil, zen.ErrSolverCanceled
	}

	t := time.Now()
	defer func() {
		s.stats.SolveN++
		s.stats.SolveTime += time.Since(t)
	}()

	solver := C.Z3_mk_solver(s.ctx.raw)
	if err := s.ctx.err("Z3_mk_solver"); err != nil {
		return false, nil, err
	}
	C.Z3_solver_inc_ref(s.ctx.raw, solver)
	defer C.Z3_solver_dec_ref(s.ctx.raw, solver)

	if s.Timeout > 0 {
		if err := s.ctx.setTimeout(solver, s.Timeout); err != nil {
			return false, nil, err
		}
	}

	// Assert constraints.
	for _, constraint := range constraints {
		C.Z3_solver_assert(s.ctx.raw, solver, constraint.ast)
		if err := s.ctx.err("Z3_solver_assert"); err != nil {
			return false, nil, err
		}
	}

	// Interrupt the check if the caller gives up.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			C.Z3_interrupt(s.ctx.raw)
		case <-done:
		}
	}()

	// Check equations with the solver.
	// Exit immediately if unsatisfiable or the solver encountered an error.
	ret := C.Z3_solver_check(s.ctx.raw, solver)
	if err := s.ctx.err("Z3_solver_check"); err != nil {
		if ctx.Err() != nil {
			return false, nil, zen.ErrSolverCanceled
		}
		return false, nil, err
	} else if ret == C.Z3_L_FALSE {
		return false, nil, nil
	} else if ret == C.Z3_L_UNDEF {
		// An interrupt may be reported under several reasons.
		if ctx.Err() != nil {
			return false, nil, zen.ErrSolverCanceled
		}

		reason := C.GoString(C.Z3_solver_get_reason_unknown(s.ctx.raw, solver))
		switch {
		case strings.Contains(reason, "timeout"):
			return false, nil, zen.ErrSolverTimeout
		case strings.Contains(reason, "canceled"), strings.Contains(reason, "interrupted"):
			return false, nil, zen.ErrSolverCanceled
		case strings.Contains(reason, "(resource limits reached)"):
			return false, nil, zen.ErrSolverResourceLimit
		case strings.Contains(reason, "unknown"):
			return false, nil, zen.ErrSolverUnknown
		default:
			return false, nil, fmt.Errorf("z3: %s", reason)
		}
	}

	// Calculate a model for the given formula.
	model := C.Z3_solver_get_model(s.ctx.raw, solver)
	if err := s.ctx.err("Z3_solver_get_model"); err != nil {
		return true, nil, err
	}
	C.Z3_model_inc_ref(s.ctx.raw, model)

	mm := &Model{ctx: s.ctx, raw: model}
	s.models = append(s.models, mm)
	return true, mm, nil
}

// Ensure model implements interface.
var _ zen.Model[Term] = (*Model)(nil)

// Model is a satisfying assignment returned by Solver.Solve(). It is valid
// until the solver is closed.
type Model struct {
	ctx *Context
	raw C.Z3_model
}

// eval evaluates x against the model, completing unassigned variables.
func (m *Model) eval(x Term) (C.Z3_ast, error) {
	var out C.Z3_ast
	if ok := C.Z3_model_eval(m.ctx.raw, m.raw, x.ast, C.bool(true), &out); !ok {
		if err := m.ctx.err("Z3_model_eval"); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("z3: cannot evaluate term: %s", m.ctx.astToString(x.ast))
	}
	return out, m.ctx.err("Z3_model_eval")
}

func (m *Model) Bool(x Term) (bool, error) {
	ast, err := m.eval(x)
	if err != nil {
		return false, err
	}
	switch C.Z3_get_bool_value(m.ctx.raw, ast) {
	case C.Z3_L_TRUE:
		return true, nil
	case C.Z3_L_FALSE:
		return false, nil
	default:
		return false, fmt.Errorf("z3: non-boolean value: %s", m.ctx.astToString(ast))
	}
}

func (m *Model) Bitvec(x Term) (uint64, error) {
	ast, err := m.eval(x)
	if err != nil {
		return 0, err
	}
	var v C.uint64_t
	if ok := C.Z3_get_numeral_uint64(m.ctx.raw, ast, &v); !ok {
		return 0, fmt.Errorf("z3: non-numeral value: %s", m.ctx.astToString(ast))
	}
	return uint64(v), m.ctx.err("Z3_get_numeral_uint64")
}

func (m *Model) Int(x Term) (*apd.BigInt, error) {
	ast, err := m.eval(x)
	if err != nil {
		return nil, err
	}
	s := C.GoString(C.Z3_get_numeral_string(m.ctx.raw, ast))
	if err := m.ctx.err("Z3_get_numeral_string"); err != nil {
		return nil, err
	}

	v, ok := new(apd.BigInt).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("z3: invalid integer value: %q", s)
	}
	return v, nil
}

func (m *Model) String(x Term) (string, error) {
	ast, err := m.eval(x)
	if err != nil {
		return "", err
	}
	s := C.GoString(C.Z3_get_string(m.ctx.raw, ast))
	if err := m.ctx.err("Z3_get_string"); err != nil {
		return "", err
	}
	return unescapeString(s)
}

// Context represents a Z3 context object that is used for constructing expressions.
type Context struct {
	raw C.Z3_context
}

// NewContext returns a new instance of Context.
func NewContext() *Context {
	config := C.Z3_mk_config()
	defer C.Z3_del_config(config)

	raw := C.Z3_mk_context(config)
	C.Z3_set_error_handler(raw, nil)
	C.Z3_set_ast_print_mode(raw, C.Z3_PRINT_SMTLIB2_COMPLIANT)
	return &Context{raw: raw}
}

// Close deletes the underlying Z3 context.
func (ctx *Context) Close() error {
	C.Z3_del_context(ctx.raw)
	return nil
}

// err returns the error for the last API call. Returns nil if last call was successful.
func (ctx *Context) err(op string) error {
	if code := C.Z3_get_error_code(ctx.raw); code != C.Z3_OK {
		return &Error{Code: int(code), Op: op, Message: C.GoString(C.Z3_get_error_msg(ctx.raw, code))}
	}
	return nil
}

// term wraps the result of an API call and its error.
func (ctx *Context) term(ast C.Z3_ast, op string) (Term, error) {
	if err := ctx.err(op); err != nil {
		return Term{}, err
	}
	return Term{ast: ast}, nil
}

func (ctx *Context) makeBVSort(width uint) (C.Z3_sort, error) {
	return C.Z3_mk_bv_sort(ctx.raw, C.uint(width)), ctx.err("Z3_mk_bv_sort")
}

// makeConst returns a named constant of the given sort.
func (ctx *Context) makeConst(name string, sort C.Z3_sort) (Term, error) {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))

	symbol := C.Z3_mk_string_symbol(ctx.raw, cname)
	if err := ctx.err("Z3_mk_string_symbol"); err != nil {
		return Term{}, err
	}
	return ctx.term(C.Z3_mk_const(ctx.raw, symbol, sort), "Z3_mk_const")
}

// setTimeout sets the per-check timeout of solver.
func (ctx *Context) setTimeout(solver C.Z3_solver, d time.Duration) error {
	params := C.Z3_mk_params(ctx.raw)
	if err := ctx.err("Z3_mk_params"); err != nil {
		return err
	}
	C.Z3_params_inc_ref(ctx.raw, params)
	defer C.Z3_params_dec_ref(ctx.raw, params)

	cname := C.CString("timeout")
	defer C.free(unsafe.Pointer(cname))
	symbol := C.Z3_mk_string_symbol(ctx.raw, cname)

	ms := d.Milliseconds()
	if ms < 1 {
		ms = 1
	}
	C.Z3_params_set_uint(ctx.raw, params, symbol, C.uint(ms))
	if err := ctx.err("Z3_params_set_uint"); err != nil {
		return err
	}
	C.Z3_solver_set_params(ctx.raw, solver, params)
	return ctx.err("Z3_solver_set_params")
}

func (ctx *Context) astToString(ast C.Z3_ast) string {
	return C.GoString(C.Z3_ast_to_string(ctx.raw, ast))
}

// escapeString encodes s as a Z3 string literal. Runes outside of printable
// ASCII and the backslash are written as \u{X}.
func escapeString(s string) string {
	var buf strings.Builder
	for _, c := range s {
		if c >= 0x20 && c < 0x7f && c != '\\' {
			buf.WriteRune(c)
			continue
		}
		fmt.Fprintf(&buf, `\u{%x}`, c)
	}
	return buf.String()
}

// unescapeString decodes a string returned by Z3_get_string.
func unescapeString(s string) (string, error) {
	var buf strings.Builder
	for i := 0; i < len(s); {
		if !strings.HasPrefix(s[i:], `\u{`) {
			buf.WriteByte(s[i])
			i++
			continue
		}

		end := strings.IndexByte(s[i:], '}')
		if end < 0 {
			return "", fmt.Errorf("z3: invalid string escape: %q", s[i:])
		}
		c, err := strconv.ParseUint(s[i+3:i+end], 16, 32)
		if err != nil {
			return "", fmt.Errorf("z3: invalid string escape: %q", s[i:i+end+1])
		}
		buf.WriteRune(rune(c))
		i += end + 1
	}
	return buf.String(), nil
}

// Error represents an error from the Z3 API.
type Error struct {
	Code    int
	Op      string
	Message string
}

// Error returns the error as a string.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s (%d)", e.Op, e.Message, e.Code)
}

// Possible error codes.
const (
	ErrorCodeOK = iota
	ErrorCodeSortError
	ErrorCodeIOB
	ErrorCodeInvalidArg
	ErrorCodeParserError
	ErrorCodeNoParser
	ErrorCodeInvalidPattern
	ErrorCodeMemoutFail
	ErrorCodeFileAccessError
	ErrorCodeInternalFatal
	ErrorCodeInvalidUsage
	ErrorCodeDecRefError
	ErrorCodeException
)

// Stats holds counters across all Solve() calls of a Solver.
type Stats struct {
	SolveN    int
	SolveTime time.Duration
}
