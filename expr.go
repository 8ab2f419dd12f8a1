package zen

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/cockroachdb/apd/v3"
)

// Expr represents a hash-consed expression. Two expressions built from the
// same structural request are the same instance, so pointer or id equality
// may be used in place of deep equality.
type Expr interface {
	ID() uint64
	Type() *Type
	String() string
	expr()
}

func (*ConstantExpr) expr()    {}
func (*IntegerExpr) expr()     {}
func (*StringExpr) expr()      {}
func (*VarExpr) expr()         {}
func (*NotExpr) expr()         {}
func (*LogicalExpr) expr()     {}
func (*IfExpr) expr()          {}
func (*BinaryExpr) expr()      {}
func (*StrConcatExpr) expr()   {}
func (*StrLengthExpr) expr()   {}
func (*ObjectExpr) expr()      {}
func (*GetFieldExpr) expr()    {}
func (*MapSetExpr) expr()      {}
func (*MapGetExpr) expr()      {}
func (*ListExpr) expr()        {}
func (*ListGetExpr) expr()     {}
func (*ListSetExpr) expr()     {}
func (*SeqExpr) expr()         {}
func (*SeqLengthExpr) expr()   {}
func (*SeqGetExpr) expr()      {}
func (*SeqAddFrontExpr) expr() {}

// exprNode holds the identity and static type of an expression.
type exprNode struct {
	node
	typ *Type
}

func newExprNode(typ *Type) exprNode {
	return exprNode{node: newNode(), typ: typ}
}

// Type returns the static type of the expression.
func (n *exprNode) Type() *Type { return n.typ }

// Structural keys. Operands are referenced by id only.
type (
	constantKey struct {
		value uint64
		width uint
	}
	varKey struct {
		name string
		typ  *Type
	}
	logicalKey struct {
		op       LogicalOp
		lhs, rhs uint64
	}
	ifKey struct {
		cond, then, els uint64
	}
	binaryKey struct {
		op       BinaryOp
		lhs, rhs uint64
	}
	pairKey struct {
		lhs, rhs uint64
	}
	objectKey struct {
		typ    *Type
		fields string
	}
	fieldKey struct {
		obj  uint64
		name string
	}
	mapSetKey struct {
		m     uint64
		key   interface{}
		value uint64
	}
	mapGetKey struct {
		m   uint64
		key interface{}
	}
)

// Raw construction requests passed to the simplifiers on a table miss.
type (
	logicalArgs struct {
		op       LogicalOp
		lhs, rhs Expr
	}
	ifArgs struct {
		cond, then, els Expr
	}
	binaryArgs struct {
		op       BinaryOp
		lhs, rhs Expr
	}
	pairArgs struct {
		lhs, rhs Expr
	}
	objectArgs struct {
		typ    *Type
		fields []Expr
	}
	fieldArgs struct {
		obj  Expr
		name string
	}
	mapSetArgs struct {
		m     Expr
		key   interface{}
		value Expr
	}
	mapGetArgs struct {
		m   Expr
		key interface{}
	}
)

var (
	constantCache  *cache[constantKey, constantKey, *ConstantExpr]
	integerCache   *cache[string, *apd.BigInt, *IntegerExpr]
	stringCache    *cache[string, string, *StringExpr]
	varCache       *cache[varKey, varKey, *VarExpr]
	notCache       *cache[uint64, Expr, Expr]
	logicalCache   *cache[logicalKey, logicalArgs, Expr]
	ifCache        *cache[ifKey, ifArgs, Expr]
	binaryCache    *cache[binaryKey, binaryArgs, Expr]
	strConcatCache *cache[pairKey, pairArgs, Expr]
	strLengthCache *cache[uint64, Expr, Expr]
	objectCache    *cache[objectKey, objectArgs, Expr]
	getFieldCache  *cache[fieldKey, fieldArgs, Expr]
	mapSetCache    *cache[mapSetKey, mapSetArgs, Expr]
	mapGetCache    *cache[mapGetKey, mapGetArgs, Expr]
)

func init() {
	constantCache = newCache[constantKey]("constant", func(k constantKey) *ConstantExpr {
		constantCache.nodes.Add(1)
		return &ConstantExpr{exprNode: newExprNode(BitvecType(k.width)), value: k.value, width: k.width}
	})
	integerCache = newCache[string]("integer", func(v *apd.BigInt) *IntegerExpr {
		integerCache.nodes.Add(1)
		return &IntegerExpr{exprNode: newExprNode(IntType()), value: v}
	})
	stringCache = newCache[string]("string", func(v string) *StringExpr {
		stringCache.nodes.Add(1)
		return &StringExpr{exprNode: newExprNode(StringType()), value: v}
	})
	varCache = newCache[varKey]("var", func(k varKey) *VarExpr {
		varCache.nodes.Add(1)
		return &VarExpr{exprNode: newExprNode(k.typ), name: k.name}
	})
	notCache = newCache[uint64]("not", simplifyNot)
	logicalCache = newCache[logicalKey]("logical", simplifyLogical)
	ifCache = newCache[ifKey]("if", simplifyIf)
	binaryCache = newCache[binaryKey]("binary", simplifyBinary)
	strConcatCache = newCache[pairKey]("str-concat", simplifyStrConcat)
	strLengthCache = newCache[uint64]("str-length", simplifyStrLength)
	objectCache = newCache[objectKey]("object", func(args objectArgs) Expr {
		objectCache.nodes.Add(1)
		return &ObjectExpr{exprNode: newExprNode(args.typ), fields: args.fields}
	})
	getFieldCache = newCache[fieldKey]("get-field", simplifyGetField)
	mapSetCache = newCache[mapSetKey]("map-set", simplifyMapSet)
	mapGetCache = newCache[mapGetKey]("map-get", simplifyMapGet)
}

// ConstantExpr represents a boolean or fixed-width bit vector constant.
// Booleans are constants of width one.
type ConstantExpr struct {
	exprNode
	value uint64
	width uint
}

// NewConstantExpr returns the constant of the given width. Bits above the
// width are discarded.
func NewConstantExpr(value uint64, width uint) *ConstantExpr {
	assert(width > 0 && width <= Width64, "constant width out of range: %d", width)
	k := constantKey{value: value & bitmask(width), width: width}
	return constantCache.GetOrInsert(k, k)
}

// NewBoolConstantExpr is an ease of use function for creating constant boolean expressions.
func NewBoolConstantExpr(value bool) *ConstantExpr {
	if value {
		return NewConstantExpr(1, WidthBool)
	}
	return NewConstantExpr(0, WidthBool)
}

// Value returns the constant's bits.
func (e *ConstantExpr) Value() uint64 { return e.value }

// Width returns the constant's width in bits.
func (e *ConstantExpr) Width() uint { return e.width }

// String returns the string representation of the expression.
func (e *ConstantExpr) String() string {
	if e.width == WidthBool {
		return strconv.FormatBool(e.value != 0)
	}
	return fmt.Sprintf("(const %d %d)", e.value, e.width)
}

// IsTrue returns true if this is a boolean true expression.
func (e *ConstantExpr) IsTrue() bool {
	return e.width == WidthBool && e.value != 0
}

// IsFalse returns true if this is a boolean false expression.
func (e *ConstantExpr) IsFalse() bool {
	return e.width == WidthBool && e.value == 0
}

// IsAllOnes returns true if all bits in the value are one.
func (e *ConstantExpr) IsAllOnes() bool {
	return e.value == bitmask(e.width)
}

// Signed returns the value interpreted as a two's complement integer.
func (e *ConstantExpr) Signed() int64 {
	shift := Width64 - e.width
	return int64(e.value<<shift) >> shift
}

func bitmask(width uint) uint64 {
	return (1 << width) - 1
}

// IsConstantExpr returns true if expr is an instance of ConstantExpr.
func IsConstantExpr(expr Expr) bool {
	_, ok := expr.(*ConstantExpr)
	return ok
}

// IsConstantTrue returns true if expr is an instance of ConstantExpr and is true.
func IsConstantTrue(expr Expr) bool {
	tmp, ok := expr.(*ConstantExpr)
	return ok && tmp.IsTrue()
}

// IsConstantFalse returns true if expr is an instance of ConstantExpr and is false.
func IsConstantFalse(expr Expr) bool {
	tmp, ok := expr.(*ConstantExpr)
	return ok && tmp.IsFalse()
}

// IntegerExpr represents an arbitrary precision integer constant.
type IntegerExpr struct {
	exprNode
	value *apd.BigInt
}

// NewIntegerExpr returns the integer constant equal to v.
func NewIntegerExpr(v *apd.BigInt) *IntegerExpr {
	assert(v != nil, "integer value required")
	return integerCache.GetOrInsert(v.String(), new(apd.BigInt).Set(v))
}

// NewIntegerExprInt64 returns the integer constant equal to v.
func NewIntegerExprInt64(v int64) *IntegerExpr {
	return NewIntegerExpr(apd.NewBigInt(v))
}

// Value returns a copy of the integer value.
func (e *IntegerExpr) Value() *apd.BigInt { return new(apd.BigInt).Set(e.value) }

// Sign returns -1, 0, or +1 depending on the sign of the value.
func (e *IntegerExpr) Sign() int { return e.value.Sign() }

// String returns the string representation of the expression.
func (e *IntegerExpr) String() string {
	return fmt.Sprintf("(int %s)", e.value.String())
}

// StringExpr represents a string constant.
type StringExpr struct {
	exprNode
	value string
}

// NewStringExpr returns the string constant equal to v.
func NewStringExpr(v string) *StringExpr {
	return stringCache.GetOrInsert(v, v)
}

// Value returns the string value.
func (e *StringExpr) Value() string { return e.value }

// String returns the string representation of the expression.
func (e *StringExpr) String() string { return strconv.Quote(e.value) }

// VarExpr represents a free variable of a given type.
type VarExpr struct {
	exprNode
	name string
}

// NewVarExpr returns the variable with the given name and type.
func NewVarExpr(name string, typ *Type) *VarExpr {
	assert(name != "", "variable name required")
	assert(typ != nil, "variable type required: %s", name)
	k := varKey{name: name, typ: typ}
	return varCache.GetOrInsert(k, k)
}

// Name returns the name of the variable.
func (e *VarExpr) Name() string { return e.name }

// String returns the string representation of the expression.
func (e *VarExpr) String() string { return e.name }

// NotExpr represents the boolean negation of an expression.
type NotExpr struct {
	exprNode
	x Expr
}

// NewNotExpr returns the negation of x.
func NewNotExpr(x Expr) Expr {
	requireExpr("NewNotExpr", "x", x)
	assert(x.Type() == BoolType(), "not: non-boolean operand: %s", x.Type())
	return notCache.GetOrInsert(x.ID(), x)
}

func simplifyNot(x Expr) Expr {
	switch x := x.(type) {
	case *ConstantExpr:
		return NewBoolConstantExpr(x.IsFalse())
	case *NotExpr: // !!x = x
		return x.x
	}
	notCache.nodes.Add(1)
	return &NotExpr{exprNode: newExprNode(BoolType()), x: x}
}

// X returns the negated expression.
func (e *NotExpr) X() Expr { return e.x }

// String returns the string representation of the expression.
func (e *NotExpr) String() string {
	return fmt.Sprintf("(not %s)", e.x)
}

// LogicalOp represents a boolean connective.
type LogicalOp int

// LogicalExpr operations.
const (
	LogicalAnd = LogicalOp(iota + 1)
	LogicalOr
)

// String returns the string representation of the operation.
func (op LogicalOp) String() string {
	switch op {
	case LogicalAnd:
		return "and"
	case LogicalOr:
		return "or"
	default:
		return fmt.Sprintf("LogicalOp<%d>", op)
	}
}

// LogicalExpr represents a conjunction or disjunction of two booleans.
type LogicalExpr struct {
	exprNode
	op  LogicalOp
	lhs Expr
	rhs Expr
}

// NewAndExpr returns the conjunction of lhs & rhs.
func NewAndExpr(lhs, rhs Expr) Expr {
	return NewLogicalExpr(LogicalAnd, lhs, rhs)
}

// NewOrExpr returns the disjunction of lhs & rhs.
func NewOrExpr(lhs, rhs Expr) Expr {
	return NewLogicalExpr(LogicalOr, lhs, rhs)
}

// NewLogicalExpr returns a new boolean connective expression.
func NewLogicalExpr(op LogicalOp, lhs, rhs Expr) Expr {
	requireExpr("NewLogicalExpr", "lhs", lhs)
	requireExpr("NewLogicalExpr", "rhs", rhs)
	assert(op == LogicalAnd || op == LogicalOr, "invalid logical op: %s", op)
	assert(lhs.Type() == BoolType() && rhs.Type() == BoolType(), "%s: non-boolean operands: %s, %s", op, lhs.Type(), rhs.Type())

	k := logicalKey{op: op, lhs: lhs.ID(), rhs: rhs.ID()}
	return logicalCache.GetOrInsert(k, logicalArgs{op: op, lhs: lhs, rhs: rhs})
}

func simplifyLogical(args logicalArgs) Expr {
	op, lhs, rhs := args.op, args.lhs, args.rhs

	// The annihilator absorbs and the identity vanishes.
	annihilator, identity := IsConstantFalse, IsConstantTrue
	if op == LogicalOr {
		annihilator, identity = IsConstantTrue, IsConstantFalse
	}

	// x & x = x
	if lhs == rhs {
		return lhs
	}

	// F & x = F, x & F = F
	if annihilator(lhs) {
		return lhs
	} else if annihilator(rhs) {
		return rhs
	}

	// T & x = x, x & T = x
	if identity(lhs) {
		return rhs
	} else if identity(rhs) {
		return lhs
	}

	// !x & x = F, !x | x = T
	if isNegationOf(lhs, rhs) || isNegationOf(rhs, lhs) {
		return NewBoolConstantExpr(op == LogicalOr)
	}

	// a & (a & b) = a & b
	if rhs, ok := rhs.(*LogicalExpr); ok && rhs.op == op && rhs.lhs == lhs {
		return rhs
	}

	// (a & b) & c = a & (b & c)
	if lhs, ok := lhs.(*LogicalExpr); ok && lhs.op == op {
		return NewLogicalExpr(op, lhs.lhs, NewLogicalExpr(op, lhs.rhs, rhs))
	}

	// a & b = b & a when b < a
	if rhs.ID() < lhs.ID() {
		return NewLogicalExpr(op, rhs, lhs)
	}

	logicalCache.nodes.Add(1)
	return &LogicalExpr{exprNode: newExprNode(BoolType()), op: op, lhs: lhs, rhs: rhs}
}

// isNegationOf returns true if a is the negation of b.
func isNegationOf(a, b Expr) bool {
	not, ok := a.(*NotExpr)
	return ok && not.x == b
}

// Op returns the connective.
func (e *LogicalExpr) Op() LogicalOp { return e.op }

// LHS returns the left operand.
func (e *LogicalExpr) LHS() Expr { return e.lhs }

// RHS returns the right operand.
func (e *LogicalExpr) RHS() Expr { return e.rhs }

// String returns the string representation of the expression.
func (e *LogicalExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", e.op, e.lhs, e.rhs)
}

// IfExpr represents a conditional selection between two expressions.
type IfExpr struct {
	exprNode
	cond Expr
	then Expr
	els  Expr
}

// NewIfExpr returns an expression that evaluates to then if cond holds and to
// els otherwise.
func NewIfExpr(cond, then, els Expr) Expr {
	requireExpr("NewIfExpr", "cond", cond)
	requireExpr("NewIfExpr", "then", then)
	requireExpr("NewIfExpr", "else", els)
	assert(cond.Type() == BoolType(), "if: non-boolean condition: %s", cond.Type())
	assert(then.Type() == els.Type(), "if: branch type mismatch: %s != %s", then.Type(), els.Type())

	k := ifKey{cond: cond.ID(), then: then.ID(), els: els.ID()}
	return ifCache.GetOrInsert(k, ifArgs{cond: cond, then: then, els: els})
}

func simplifyIf(args ifArgs) Expr {
	cond, then, els := args.cond, args.then, args.els

	if cond, ok := cond.(*ConstantExpr); ok {
		if cond.IsTrue() {
			return then
		}
		return els
	} else if then == els {
		return then
	}

	// if !c then a else b = if c then b else a
	if cond, ok := cond.(*NotExpr); ok {
		return NewIfExpr(cond.x, els, then)
	}

	// Boolean selections with a constant branch reduce to connectives.
	if then.Type() == BoolType() {
		switch {
		case IsConstantTrue(then): // c | b
			return NewOrExpr(cond, els)
		case IsConstantFalse(els): // c & a
			return NewAndExpr(cond, then)
		case IsConstantFalse(then): // !c & b
			return NewAndExpr(NewNotExpr(cond), els)
		case IsConstantTrue(els): // !c | a
			return NewOrExpr(NewNotExpr(cond), then)
		}
	}

	ifCache.nodes.Add(1)
	return &IfExpr{exprNode: newExprNode(then.Type()), cond: cond, then: then, els: els}
}

// Cond returns the guard.
func (e *IfExpr) Cond() Expr { return e.cond }

// Then returns the expression selected when the guard holds.
func (e *IfExpr) Then() Expr { return e.then }

// Else returns the expression selected when the guard does not hold.
func (e *IfExpr) Else() Expr { return e.els }

// String returns the string representation of the expression.
func (e *IfExpr) String() string {
	return fmt.Sprintf("(if %s %s %s)", e.cond, e.then, e.els)
}

// StrConcatExpr represents the concatenation of two strings.
type StrConcatExpr struct {
	exprNode
	lhs Expr
	rhs Expr
}

// NewStrConcatExpr returns the concatenation of lhs and rhs.
func NewStrConcatExpr(lhs, rhs Expr) Expr {
	requireExpr("NewStrConcatExpr", "lhs", lhs)
	requireExpr("NewStrConcatExpr", "rhs", rhs)
	assert(lhs.Type() == StringType() && rhs.Type() == StringType(), "concat: non-string operands: %s, %s", lhs.Type(), rhs.Type())

	k := pairKey{lhs: lhs.ID(), rhs: rhs.ID()}
	return strConcatCache.GetOrInsert(k, pairArgs{lhs: lhs, rhs: rhs})
}

func simplifyStrConcat(args pairArgs) Expr {
	lhs, rhs := args.lhs, args.rhs

	if lhs, ok := lhs.(*StringExpr); ok {
		if lhs.value == "" {
			return rhs
		} else if rhs, ok := rhs.(*StringExpr); ok {
			return NewStringExpr(lhs.value + rhs.value)
		}

		// "a" . ("b" . x) = "ab" . x
		if rhs, ok := rhs.(*StrConcatExpr); ok {
			if rlhs, ok := rhs.lhs.(*StringExpr); ok {
				return NewStrConcatExpr(NewStringExpr(lhs.value+rlhs.value), rhs.rhs)
			}
		}
	}
	if rhs, ok := rhs.(*StringExpr); ok && rhs.value == "" {
		return lhs
	}

	// (a . b) . c = a . (b . c)
	if lhs, ok := lhs.(*StrConcatExpr); ok {
		return NewStrConcatExpr(lhs.lhs, NewStrConcatExpr(lhs.rhs, rhs))
	}

	strConcatCache.nodes.Add(1)
	return &StrConcatExpr{exprNode: newExprNode(StringType()), lhs: lhs, rhs: rhs}
}

// LHS returns the prefix.
func (e *StrConcatExpr) LHS() Expr { return e.lhs }

// RHS returns the suffix.
func (e *StrConcatExpr) RHS() Expr { return e.rhs }

// String returns the string representation of the expression.
func (e *StrConcatExpr) String() string {
	return fmt.Sprintf("(concat %s %s)", e.lhs, e.rhs)
}

// StrLengthExpr represents the number of characters in a string.
type StrLengthExpr struct {
	exprNode
	x Expr
}

// NewStrLengthExpr returns the length of x as an integer.
func NewStrLengthExpr(x Expr) Expr {
	requireExpr("NewStrLengthExpr", "x", x)
	assert(x.Type() == StringType(), "length: non-string operand: %s", x.Type())
	return strLengthCache.GetOrInsert(x.ID(), x)
}

func simplifyStrLength(x Expr) Expr {
	if x, ok := x.(*StringExpr); ok {
		return NewIntegerExprInt64(int64(utf8.RuneCountInString(x.value)))
	}
	strLengthCache.nodes.Add(1)
	return &StrLengthExpr{exprNode: newExprNode(IntType()), x: x}
}

// X returns the string operand.
func (e *StrLengthExpr) X() Expr { return e.x }

// String returns the string representation of the expression.
func (e *StrLengthExpr) String() string {
	return fmt.Sprintf("(length %s)", e.x)
}
