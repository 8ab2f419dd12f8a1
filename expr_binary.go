package zen

import (
	"fmt"

	"github.com/cockroachdb/apd/v3"
)

// BinaryOp represents a binary expression operations.
type BinaryOp int

// BinaryExpr operations.
const (
	arithmetic_op_begin = BinaryOp(iota)
	ADD
	SUB
	MUL
	AND
	OR
	XOR
	SHL
	LSHR
	arithmetic_op_end

	compare_op_begin
	EQ
	NE
	ULT
	ULE
	UGT
	UGE
	SLT
	SLE
	SGT
	SGE
	compare_op_end
)

var binaryOps = [...]string{
	ADD:  "add",
	SUB:  "sub",
	MUL:  "mul",
	AND:  "bvand",
	OR:   "bvor",
	XOR:  "bvxor",
	SHL:  "shl",
	LSHR: "lshr",
	EQ:   "eq",
	NE:   "ne",
	ULT:  "ult",
	ULE:  "ule",
	UGT:  "ugt",
	UGE:  "uge",
	SLT:  "slt",
	SLE:  "sle",
	SGT:  "sgt",
	SGE:  "sge",
}

// String returns the string representation of the operation.
func (op BinaryOp) String() string {
	if op >= 0 && op < BinaryOp(len(binaryOps)) && binaryOps[op] != "" {
		return binaryOps[op]
	}
	return fmt.Sprintf("BinaryOp<%d>", op)
}

// IsArithmetic returns true if op is an arithmetic operator.
func (op BinaryOp) IsArithmetic() bool {
	return op > arithmetic_op_begin && op < arithmetic_op_end
}

// IsCompare returns true if op is a comparison operator.
func (op BinaryOp) IsCompare() bool {
	return op > compare_op_begin && op < compare_op_end
}

// IsCommutative returns true if the operands of op may be exchanged.
func (op BinaryOp) IsCommutative() bool {
	switch op {
	case ADD, MUL, AND, OR, XOR, EQ:
		return true
	default:
		return false
	}
}

// BinaryExpr represents an operation on two expressions.
type BinaryExpr struct {
	exprNode
	op  BinaryOp
	lhs Expr
	rhs Expr
}

// NewBinaryExpr returns a new instance of BinaryExpr. Derived comparisons
// (NE, UGT, UGE, SGT, SGE) are expressed using the canonical ones.
func NewBinaryExpr(op BinaryOp, lhs, rhs Expr) Expr {
	requireExpr("NewBinaryExpr", "lhs", lhs)
	requireExpr("NewBinaryExpr", "rhs", rhs)
	checkBinaryOperands(op, lhs, rhs)

	switch op {
	case NE:
		return NewNotExpr(NewBinaryExpr(EQ, lhs, rhs))
	case UGT:
		return NewBinaryExpr(ULT, rhs, lhs) // reverse
	case UGE:
		return NewBinaryExpr(ULE, rhs, lhs) // reverse
	case SGT:
		return NewBinaryExpr(SLT, rhs, lhs) // reverse
	case SGE:
		return NewBinaryExpr(SLE, rhs, lhs) // reverse
	}

	k := binaryKey{op: op, lhs: lhs.ID(), rhs: rhs.ID()}
	return binaryCache.GetOrInsert(k, binaryArgs{op: op, lhs: lhs, rhs: rhs})
}

func checkBinaryOperands(op BinaryOp, lhs, rhs Expr) {
	assert(lhs.Type() == rhs.Type(), "%s: type mismatch: %s != %s", op, lhs.Type(), rhs.Type())

	kind := lhs.Type().Kind()
	switch op {
	case ADD, SUB, MUL, SLT, SLE, SGT, SGE:
		assert(kind == KindBitvec || kind == KindInt, "%s: invalid operand type: %s", op, lhs.Type())
	case AND, OR, XOR, SHL, LSHR, ULT, ULE, UGT, UGE:
		assert(kind == KindBitvec, "%s: invalid operand type: %s", op, lhs.Type())
	case EQ, NE:
		assert(kind.IsScalar(), "%s: invalid operand type: %s", op, lhs.Type())
	default:
		panic(fmt.Sprintf("invalid binary op: %s", op))
	}
}

func simplifyBinary(args binaryArgs) Expr {
	switch args.op {
	case ADD:
		return simplifyAdd(args.lhs, args.rhs)
	case SUB:
		return simplifySub(args.lhs, args.rhs)
	case MUL:
		return simplifyMul(args.lhs, args.rhs)
	case AND:
		return simplifyBitAnd(args.lhs, args.rhs)
	case OR:
		return simplifyBitOr(args.lhs, args.rhs)
	case XOR:
		return simplifyXor(args.lhs, args.rhs)
	case SHL, LSHR:
		return simplifyShift(args.op, args.lhs, args.rhs)
	case EQ:
		return simplifyEq(args.lhs, args.rhs)
	case ULT, SLT:
		return simplifyLt(args.op, args.lhs, args.rhs)
	case ULE, SLE:
		return simplifyLe(args.op, args.lhs, args.rhs)
	default:
		panic("unreachable")
	}
}

func newBinaryNode(op BinaryOp, lhs, rhs Expr) *BinaryExpr {
	typ := lhs.Type()
	if op.IsCompare() {
		typ = BoolType()
	}
	binaryCache.nodes.Add(1)
	return &BinaryExpr{exprNode: newExprNode(typ), op: op, lhs: lhs, rhs: rhs}
}

// Op returns the operation.
func (e *BinaryExpr) Op() BinaryOp { return e.op }

// LHS returns the left operand.
func (e *BinaryExpr) LHS() Expr { return e.lhs }

// RHS returns the right operand.
func (e *BinaryExpr) RHS() Expr { return e.rhs }

// String returns the string representation of the expression.
func (e *BinaryExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", e.op, e.lhs, e.rhs)
}

// isLiteral returns true if expr is a constant of any scalar type.
func isLiteral(expr Expr) bool {
	switch expr.(type) {
	case *ConstantExpr, *IntegerExpr, *StringExpr:
		return true
	default:
		return false
	}
}

// isZero returns true if expr is a bitvec or integer constant zero.
func isZero(expr Expr) bool {
	switch expr := expr.(type) {
	case *ConstantExpr:
		return expr.value == 0
	case *IntegerExpr:
		return expr.value.Sign() == 0
	default:
		return false
	}
}

// isOne returns true if expr is a bitvec or integer constant one.
func isOne(expr Expr) bool {
	switch expr := expr.(type) {
	case *ConstantExpr:
		return expr.value == 1
	case *IntegerExpr:
		return expr.value.Cmp(apd.NewBigInt(1)) == 0
	default:
		return false
	}
}

// zeroOf returns the constant zero of typ.
func zeroOf(typ *Type) Expr {
	if typ.Kind() == KindInt {
		return NewIntegerExprInt64(0)
	}
	return NewConstantExpr(0, typ.Width())
}

// reorder returns the operands of a commutative operation with constants on
// the left and otherwise in ascending id order. The bool is true if the
// order changed.
func reorder(lhs, rhs Expr) (Expr, Expr, bool) {
	if isLiteral(rhs) && !isLiteral(lhs) {
		return rhs, lhs, true
	} else if !isLiteral(lhs) && rhs.ID() < lhs.ID() {
		return rhs, lhs, true
	}
	return lhs, rhs, false
}

// fold evaluates op over two constants. Returns nil if either side is not a
// constant.
func fold(op BinaryOp, lhs, rhs Expr) Expr {
	switch lhs := lhs.(type) {
	case *ConstantExpr:
		if rhs, ok := rhs.(*ConstantExpr); ok {
			return lhs.fold(op, rhs)
		}
	case *IntegerExpr:
		if rhs, ok := rhs.(*IntegerExpr); ok {
			return lhs.fold(op, rhs)
		}
	case *StringExpr:
		if rhs, ok := rhs.(*StringExpr); ok && op == EQ {
			return NewBoolConstantExpr(lhs.value == rhs.value)
		}
	}
	return nil
}

func simplifyAdd(lhs, rhs Expr) Expr {
	if e := fold(ADD, lhs, rhs); e != nil {
		return e
	} else if l, r, ok := reorder(lhs, rhs); ok {
		return NewBinaryExpr(ADD, l, r)
	}

	if isZero(lhs) {
		return rhs
	}

	// X + (Y+z) == (X+Y) + z
	if isLiteral(lhs) {
		if rhs, ok := rhs.(*BinaryExpr); ok && rhs.op == ADD && isLiteral(rhs.lhs) {
			return NewBinaryExpr(ADD, NewBinaryExpr(ADD, lhs, rhs.lhs), rhs.rhs)
		}
	}
	return newBinaryNode(ADD, lhs, rhs)
}

func simplifySub(lhs, rhs Expr) Expr {
	// Subtracting a value from itself is zero.
	if lhs == rhs {
		return zeroOf(lhs.Type())
	}

	if e := fold(SUB, lhs, rhs); e != nil {
		return e
	} else if isZero(rhs) {
		return lhs
	}

	// If constant is on right side, refactor to addition with LHS & RHS flipped.
	if isLiteral(rhs) {
		return NewBinaryExpr(ADD, NewBinaryExpr(SUB, zeroOf(rhs.Type()), rhs), lhs)
	}
	return newBinaryNode(SUB, lhs, rhs)
}

func simplifyMul(lhs, rhs Expr) Expr {
	if e := fold(MUL, lhs, rhs); e != nil {
		return e
	} else if l, r, ok := reorder(lhs, rhs); ok {
		return NewBinaryExpr(MUL, l, r)
	}

	// Optimize for multiplication with a constant 1 or 0.
	if isZero(lhs) {
		return lhs
	} else if isOne(lhs) {
		return rhs
	}
	return newBinaryNode(MUL, lhs, rhs)
}

func simplifyBitAnd(lhs, rhs Expr) Expr {
	if lhs == rhs {
		return lhs
	} else if e := fold(AND, lhs, rhs); e != nil {
		return e
	} else if l, r, ok := reorder(lhs, rhs); ok {
		return NewBinaryExpr(AND, l, r)
	}

	// Optimize for if constant is all ones or zeros.
	if lhs, ok := lhs.(*ConstantExpr); ok {
		if lhs.IsAllOnes() {
			return rhs
		} else if lhs.value == 0 {
			return lhs
		}
	}
	return newBinaryNode(AND, lhs, rhs)
}

func simplifyBitOr(lhs, rhs Expr) Expr {
	if lhs == rhs {
		return lhs
	} else if e := fold(OR, lhs, rhs); e != nil {
		return e
	} else if l, r, ok := reorder(lhs, rhs); ok {
		return NewBinaryExpr(OR, l, r)
	}

	// Optimize for if constant is all ones or zeros.
	if lhs, ok := lhs.(*ConstantExpr); ok {
		if lhs.IsAllOnes() {
			return lhs
		} else if lhs.value == 0 {
			return rhs
		}
	}
	return newBinaryNode(OR, lhs, rhs)
}

func simplifyXor(lhs, rhs Expr) Expr {
	if lhs == rhs {
		return zeroOf(lhs.Type())
	} else if e := fold(XOR, lhs, rhs); e != nil {
		return e
	} else if l, r, ok := reorder(lhs, rhs); ok {
		return NewBinaryExpr(XOR, l, r)
	}

	if isZero(lhs) {
		return rhs
	}
	return newBinaryNode(XOR, lhs, rhs)
}

func simplifyShift(op BinaryOp, lhs, rhs Expr) Expr {
	if e := fold(op, lhs, rhs); e != nil {
		return e
	} else if isZero(rhs) || isZero(lhs) {
		return lhs
	}
	return newBinaryNode(op, lhs, rhs)
}

func simplifyEq(lhs, rhs Expr) Expr {
	if lhs == rhs {
		return NewBoolConstantExpr(true)
	} else if e := fold(EQ, lhs, rhs); e != nil {
		return e
	} else if l, r, ok := reorder(lhs, rhs); ok {
		return NewBinaryExpr(EQ, l, r)
	}

	// Boolean equality with a constant is the operand or its negation.
	if lhs, ok := lhs.(*ConstantExpr); ok && lhs.width == WidthBool {
		if lhs.IsTrue() {
			return rhs
		}
		return NewNotExpr(rhs)
	}

	// X = Y + z => X - Y = z
	if isLiteral(lhs) {
		if rhs, ok := rhs.(*BinaryExpr); ok && rhs.op == ADD && isLiteral(rhs.lhs) {
			return NewBinaryExpr(EQ, NewBinaryExpr(SUB, lhs, rhs.lhs), rhs.rhs)
		}
	}
	return newBinaryNode(EQ, lhs, rhs)
}

func simplifyLt(op BinaryOp, lhs, rhs Expr) Expr {
	if lhs == rhs {
		return NewBoolConstantExpr(false)
	} else if e := fold(op, lhs, rhs); e != nil {
		return e
	}

	// Nothing is below zero unsigned.
	if op == ULT && isZero(rhs) {
		return NewBoolConstantExpr(false)
	}
	return newBinaryNode(op, lhs, rhs)
}

func simplifyLe(op BinaryOp, lhs, rhs Expr) Expr {
	if lhs == rhs {
		return NewBoolConstantExpr(true)
	} else if e := fold(op, lhs, rhs); e != nil {
		return e
	}

	// Zero is below everything unsigned.
	if op == ULE && isZero(lhs) {
		return NewBoolConstantExpr(true)
	}
	return newBinaryNode(op, lhs, rhs)
}

// fold evaluates op over two bit vector constants with wraparound.
func (e *ConstantExpr) fold(op BinaryOp, other *ConstantExpr) Expr {
	assert(e.width == other.width, "%s: width mismatch: %d != %d", op, e.width, other.width)
	switch op {
	case ADD:
		return NewConstantExpr(e.value+other.value, e.width)
	case SUB:
		return NewConstantExpr(e.value-other.value, e.width)
	case MUL:
		return NewConstantExpr(e.value*other.value, e.width)
	case AND:
		return NewConstantExpr(e.value&other.value, e.width)
	case OR:
		return NewConstantExpr(e.value|other.value, e.width)
	case XOR:
		return NewConstantExpr(e.value^other.value, e.width)
	case SHL:
		if other.value >= uint64(e.width) {
			return NewConstantExpr(0, e.width)
		}
		return NewConstantExpr(e.value<<other.value, e.width)
	case LSHR:
		if other.value >= uint64(e.width) {
			return NewConstantExpr(0, e.width)
		}
		return NewConstantExpr(e.value>>other.value, e.width)
	case EQ:
		return NewBoolConstantExpr(e.value == other.value)
	case ULT:
		return NewBoolConstantExpr(e.value < other.value)
	case ULE:
		return NewBoolConstantExpr(e.value <= other.value)
	case SLT:
		return NewBoolConstantExpr(e.Signed() < other.Signed())
	case SLE:
		return NewBoolConstantExpr(e.Signed() <= other.Signed())
	default:
		panic("unreachable")
	}
}

// fold evaluates op over two integer constants.
func (e *IntegerExpr) fold(op BinaryOp, other *IntegerExpr) Expr {
	var v apd.BigInt
	switch op {
	case ADD:
		return NewIntegerExpr(v.Add(e.value, other.value))
	case SUB:
		return NewIntegerExpr(v.Sub(e.value, other.value))
	case MUL:
		return NewIntegerExpr(v.Mul(e.value, other.value))
	case EQ:
		return NewBoolConstantExpr(e.value.Cmp(other.value) == 0)
	case SLT:
		return NewBoolConstantExpr(e.value.Cmp(other.value) < 0)
	case SLE:
		return NewBoolConstantExpr(e.value.Cmp(other.value) <= 0)
	default:
		panic("unreachable")
	}
}
