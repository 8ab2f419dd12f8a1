package zen

import (
	"fmt"
	"strconv"
	"unicode"
)

// Regex represents a hash-consed regular expression over runes. Regex nodes
// share the id sequence of expressions.
type Regex interface {
	ID() uint64
	String() string
	regex()
}

func (*RegexEmptyExpr) regex()   {}
func (*RegexEpsilonExpr) regex() {}
func (*RegexRangeExpr) regex()   {}
func (*RegexAnchorExpr) regex()  {}
func (*RegexUnopExpr) regex()    {}
func (*RegexBinopExpr) regex()   {}

type (
	rangeKey struct {
		lo, hi rune
	}
	regexUnopKey struct {
		op RegexUnop
		x  uint64
	}
	regexBinopKey struct {
		op       RegexBinop
		lhs, rhs uint64
	}
	regexUnopArgs struct {
		op RegexUnop
		x  Regex
	}
	regexBinopArgs struct {
		op       RegexBinop
		lhs, rhs Regex
	}
)

var (
	regexEmptyCache   *cache[struct{}, struct{}, *RegexEmptyExpr]
	regexEpsilonCache *cache[struct{}, struct{}, *RegexEpsilonExpr]
	regexRangeCache   *cache[rangeKey, rangeKey, Regex]
	regexAnchorCache  *cache[bool, bool, *RegexAnchorExpr]
	regexUnopCache    *cache[regexUnopKey, regexUnopArgs, Regex]
	regexBinopCache   *cache[regexBinopKey, regexBinopArgs, Regex]
)

func init() {
	regexEmptyCache = newCache[struct{}]("regex-empty", func(struct{}) *RegexEmptyExpr {
		regexEmptyCache.nodes.Add(1)
		return &RegexEmptyExpr{node: newNode()}
	})
	regexEpsilonCache = newCache[struct{}]("regex-epsilon", func(struct{}) *RegexEpsilonExpr {
		regexEpsilonCache.nodes.Add(1)
		return &RegexEpsilonExpr{node: newNode()}
	})
	regexRangeCache = newCache[rangeKey]("regex-range", func(k rangeKey) Regex {
		if k.lo > k.hi {
			return NewRegexEmptyExpr()
		}
		regexRangeCache.nodes.Add(1)
		return &RegexRangeExpr{node: newNode(), lo: k.lo, hi: k.hi}
	})
	regexAnchorCache = newCache[bool]("regex-anchor", func(begin bool) *RegexAnchorExpr {
		regexAnchorCache.nodes.Add(1)
		return &RegexAnchorExpr{node: newNode(), begin: begin}
	})
	regexUnopCache = newCache[regexUnopKey]("regex-unop", simplifyRegexUnop)
	regexBinopCache = newCache[regexBinopKey]("regex-binop", simplifyRegexBinop)
}

// RegexEmptyExpr matches no string.
type RegexEmptyExpr struct {
	node
}

// NewRegexEmptyExpr returns the regex that matches nothing.
func NewRegexEmptyExpr() *RegexEmptyExpr {
	return regexEmptyCache.GetOrInsert(struct{}{}, struct{}{})
}

// String returns the string representation of the regex.
func (r *RegexEmptyExpr) String() string { return "(empty)" }

// RegexEpsilonExpr matches only the empty string.
type RegexEpsilonExpr struct {
	node
}

// NewRegexEpsilonExpr returns the regex that matches the empty string.
func NewRegexEpsilonExpr() *RegexEpsilonExpr {
	return regexEpsilonCache.GetOrInsert(struct{}{}, struct{}{})
}

// String returns the string representation of the regex.
func (r *RegexEpsilonExpr) String() string { return "(epsilon)" }

// RegexRangeExpr matches a single rune in the inclusive range [lo, hi].
type RegexRangeExpr struct {
	node
	lo, hi rune
}

// NewRegexRangeExpr returns the regex matching one rune between lo and hi
// inclusive. An inverted range matches nothing.
func NewRegexRangeExpr(lo, hi rune) Regex {
	k := rangeKey{lo: lo, hi: hi}
	return regexRangeCache.GetOrInsert(k, k)
}

// Lo returns the lowest rune of the range.
func (r *RegexRangeExpr) Lo() rune { return r.lo }

// Hi returns the highest rune of the range.
func (r *RegexRangeExpr) Hi() rune { return r.hi }

// Contains returns true if c is within the range.
func (r *RegexRangeExpr) Contains(c rune) bool {
	return c >= r.lo && c <= r.hi
}

// String returns the string representation of the regex.
func (r *RegexRangeExpr) String() string {
	return fmt.Sprintf("(range %s %s)", strconv.QuoteRune(r.lo), strconv.QuoteRune(r.hi))
}

// RegexAnchorExpr matches the empty string at the beginning or end of the
// input.
type RegexAnchorExpr struct {
	node
	begin bool
}

// NewRegexAnchorExpr returns the begin anchor (^) if begin is true or the end
// anchor ($) otherwise.
func NewRegexAnchorExpr(begin bool) *RegexAnchorExpr {
	return regexAnchorCache.GetOrInsert(begin, begin)
}

// IsBegin returns true for the begin anchor.
func (r *RegexAnchorExpr) IsBegin() bool { return r.begin }

// String returns the string representation of the regex.
func (r *RegexAnchorExpr) String() string {
	if r.begin {
		return "(begin)"
	}
	return "(end)"
}

// RegexUnop represents a unary regex operation.
type RegexUnop int

// RegexUnopExpr operations.
const (
	RegexStarOp = RegexUnop(iota + 1)
	RegexNegationOp
)

// String returns the string representation of the operation.
func (op RegexUnop) String() string {
	switch op {
	case RegexStarOp:
		return "star"
	case RegexNegationOp:
		return "not"
	default:
		return fmt.Sprintf("RegexUnop<%d>", op)
	}
}

// RegexUnopExpr represents the Kleene star or the complement of a regex.
type RegexUnopExpr struct {
	node
	op RegexUnop
	x  Regex
}

// NewRegexUnopExpr returns a new unary regex.
func NewRegexUnopExpr(op RegexUnop, x Regex) Regex {
	requireRegex("NewRegexUnopExpr", "x", x)
	assert(op == RegexStarOp || op == RegexNegationOp, "invalid regex unop: %s", op)

	k := regexUnopKey{op: op, x: x.ID()}
	return regexUnopCache.GetOrInsert(k, regexUnopArgs{op: op, x: x})
}

func simplifyRegexUnop(args regexUnopArgs) Regex {
	switch args.op {
	case RegexStarOp:
		switch x := args.x.(type) {
		case *RegexUnopExpr:
			if x.op == RegexStarOp { // (r*)* = r*
				return x
			}
		case *RegexEpsilonExpr: // ε* = ε
			return x
		case *RegexEmptyExpr: // ∅* = ε
			return NewRegexEpsilonExpr()
		}
	case RegexNegationOp:
		if x, ok := args.x.(*RegexUnopExpr); ok && x.op == RegexNegationOp { // ¬¬r = r
			return x.x
		}
	}

	regexUnopCache.nodes.Add(1)
	return &RegexUnopExpr{node: newNode(), op: args.op, x: args.x}
}

// Op returns the operation.
func (r *RegexUnopExpr) Op() RegexUnop { return r.op }

// X returns the operand.
func (r *RegexUnopExpr) X() Regex { return r.x }

// String returns the string representation of the regex.
func (r *RegexUnopExpr) String() string {
	return fmt.Sprintf("(%s %s)", r.op, r.x)
}

// RegexBinop represents a binary regex operation.
type RegexBinop int

// RegexBinopExpr operations.
const (
	RegexUnionOp = RegexBinop(iota + 1)
	RegexIntersectionOp
	RegexConcatenationOp
)

// String returns the string representation of the operation.
func (op RegexBinop) String() string {
	switch op {
	case RegexUnionOp:
		return "union"
	case RegexIntersectionOp:
		return "inter"
	case RegexConcatenationOp:
		return "concat"
	default:
		return fmt.Sprintf("RegexBinop<%d>", op)
	}
}

// RegexBinopExpr represents the union, intersection or concatenation of two
// regexes.
type RegexBinopExpr struct {
	node
	op  RegexBinop
	lhs Regex
	rhs Regex
}

// NewRegexBinopExpr returns a new binary regex.
func NewRegexBinopExpr(op RegexBinop, lhs, rhs Regex) Regex {
	requireRegex("NewRegexBinopExpr", "lhs", lhs)
	requireRegex("NewRegexBinopExpr", "rhs", rhs)
	assert(op >= RegexUnionOp && op <= RegexConcatenationOp, "invalid regex binop: %s", op)

	k := regexBinopKey{op: op, lhs: lhs.ID(), rhs: rhs.ID()}
	return regexBinopCache.GetOrInsert(k, regexBinopArgs{op: op, lhs: lhs, rhs: rhs})
}

func simplifyRegexBinop(args regexBinopArgs) Regex {
	var r Regex
	switch args.op {
	case RegexIntersectionOp:
		r = simplifyRegexIntersection(args.lhs, args.rhs)
	case RegexUnionOp:
		r = simplifyRegexUnion(args.lhs, args.rhs)
	case RegexConcatenationOp:
		r = simplifyRegexConcat(args.lhs, args.rhs)
	}
	if r != nil {
		return r
	}

	regexBinopCache.nodes.Add(1)
	return &RegexBinopExpr{node: newNode(), op: args.op, lhs: args.lhs, rhs: args.rhs}
}

// isRegexAll returns true if r is the complement of the empty regex.
func isRegexAll(r Regex) bool {
	x, ok := r.(*RegexUnopExpr)
	if !ok || x.op != RegexNegationOp {
		return false
	}
	_, ok = x.x.(*RegexEmptyExpr)
	return ok
}

func isRegexEmpty(r Regex) bool {
	_, ok := r.(*RegexEmptyExpr)
	return ok
}

// regexBinop returns r as a binary regex if it has the given operation.
func regexBinop(r Regex, op RegexBinop) (*RegexBinopExpr, bool) {
	x, ok := r.(*RegexBinopExpr)
	return x, ok && x.op == op
}

// simplifyRegexIntersection returns nil if no rule applies.
func simplifyRegexIntersection(lhs, rhs Regex) Regex {
	switch {
	case lhs == rhs: // r & r = r
		return lhs
	case isRegexEmpty(lhs): // ∅ & r = ∅
		return lhs
	case isRegexEmpty(rhs): // r & ∅ = ∅
		return rhs
	case isRegexAll(lhs): // ¬∅ & r = r
		return rhs
	case isRegexAll(rhs): // r & ¬∅ = r
		return lhs
	}

	// a & (a & b) = a & b
	if x, ok := regexBinop(rhs, RegexIntersectionOp); ok && x.lhs == lhs {
		return rhs
	}

	// (r & s) & t = r & (s & t)
	if x, ok := regexBinop(lhs, RegexIntersectionOp); ok {
		return RegexIntersect(x.lhs, RegexIntersect(x.rhs, rhs))
	}

	if rhs.ID() < lhs.ID() {
		return RegexIntersect(rhs, lhs)
	}
	return nil
}

// simplifyRegexUnion returns nil if no rule applies.
func simplifyRegexUnion(lhs, rhs Regex) Regex {
	switch {
	case lhs == rhs: // r + r = r
		return lhs
	case isRegexEmpty(lhs): // ∅ + r = r
		return rhs
	case isRegexEmpty(rhs): // r + ∅ = r
		return lhs
	}

	// a + (a + b) = a + b
	if x, ok := regexBinop(rhs, RegexUnionOp); ok && x.lhs == lhs {
		return rhs
	}

	switch {
	case isRegexAll(lhs): // ¬∅ + r = ¬∅
		return lhs
	case isRegexAll(rhs): // r + ¬∅ = ¬∅
		return rhs
	}

	// [a-b] + [c-d] keeps the range that contains the other.
	if r1, ok := lhs.(*RegexRangeExpr); ok {
		if r2, ok := rhs.(*RegexRangeExpr); ok {
			if r1.Contains(r2.lo) && r1.Contains(r2.hi) {
				return lhs
			} else if r2.Contains(r1.lo) && r2.Contains(r1.hi) {
				return rhs
			}
		}
	}

	// (r + s) + t = r + (s + t)
	if x, ok := regexBinop(lhs, RegexUnionOp); ok {
		return RegexUnion(x.lhs, RegexUnion(x.rhs, rhs))
	}

	if rhs.ID() < lhs.ID() {
		return RegexUnion(rhs, lhs)
	}
	return nil
}

// simplifyRegexConcat returns nil if no rule applies.
func simplifyRegexConcat(lhs, rhs Regex) Regex {
	if isRegexEmpty(lhs) || isRegexEmpty(rhs) {
		return NewRegexEmptyExpr()
	}

	if _, ok := lhs.(*RegexEpsilonExpr); ok {
		return rhs
	} else if _, ok := rhs.(*RegexEpsilonExpr); ok {
		return lhs
	}

	// Nothing follows the end and nothing precedes the beginning.
	if a, ok := lhs.(*RegexAnchorExpr); ok && !a.begin {
		if _, ok := rhs.(*RegexRangeExpr); ok {
			return NewRegexEmptyExpr()
		}
	}
	if a, ok := rhs.(*RegexAnchorExpr); ok && a.begin {
		if _, ok := lhs.(*RegexRangeExpr); ok {
			return NewRegexEmptyExpr()
		}
	}

	// (r . s) . t = r . (s . t)
	if x, ok := regexBinop(lhs, RegexConcatenationOp); ok {
		return RegexConcat(x.lhs, RegexConcat(x.rhs, rhs))
	}
	return nil
}

// Op returns the operation.
func (r *RegexBinopExpr) Op() RegexBinop { return r.op }

// LHS returns the left operand.
func (r *RegexBinopExpr) LHS() Regex { return r.lhs }

// RHS returns the right operand.
func (r *RegexBinopExpr) RHS() Regex { return r.rhs }

// String returns the string representation of the regex.
func (r *RegexBinopExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", r.op, r.lhs, r.rhs)
}

// RegexUnion returns the regex matching strings matched by either a or b.
func RegexUnion(a, b Regex) Regex { return NewRegexBinopExpr(RegexUnionOp, a, b) }

// RegexIntersect returns the regex matching strings matched by both a and b.
func RegexIntersect(a, b Regex) Regex { return NewRegexBinopExpr(RegexIntersectionOp, a, b) }

// RegexConcat returns the concatenation of the given regexes. No arguments
// returns epsilon.
func RegexConcat(a ...Regex) Regex {
	if len(a) == 0 {
		return NewRegexEpsilonExpr()
	}
	r := a[len(a)-1]
	for i := len(a) - 2; i >= 0; i-- {
		r = NewRegexBinopExpr(RegexConcatenationOp, a[i], r)
	}
	return r
}

// RegexStar returns zero or more repetitions of r.
func RegexStar(r Regex) Regex { return NewRegexUnopExpr(RegexStarOp, r) }

// RegexNegate returns the complement of r.
func RegexNegate(r Regex) Regex { return NewRegexUnopExpr(RegexNegationOp, r) }

// RegexOpt returns zero or one occurrence of r.
func RegexOpt(r Regex) Regex { return RegexUnion(NewRegexEpsilonExpr(), r) }

// RegexPlus returns one or more repetitions of r.
func RegexPlus(r Regex) Regex { return RegexConcat(r, RegexStar(r)) }

// RegexRepeat returns between lo and hi repetitions of r. A negative hi
// leaves the upper bound open.
func RegexRepeat(r Regex, lo, hi int) Regex {
	assert(lo >= 0, "regex repeat: negative lower bound: %d", lo)
	assert(hi < 0 || hi >= lo, "regex repeat: invalid bounds: {%d,%d}", lo, hi)

	parts := make([]Regex, 0, lo+1)
	for i := 0; i < lo; i++ {
		parts = append(parts, r)
	}
	if hi < 0 {
		parts = append(parts, RegexStar(r))
		return RegexConcat(parts...)
	}

	// Optional tail nested so that each repetition requires the previous one.
	tail := Regex(NewRegexEpsilonExpr())
	for i := lo; i < hi; i++ {
		tail = RegexOpt(RegexConcat(r, tail))
	}
	parts = append(parts, tail)
	return RegexConcat(parts...)
}

// RegexChar returns the regex matching exactly c.
func RegexChar(c rune) Regex { return NewRegexRangeExpr(c, c) }

// RegexDot returns the regex matching any single rune.
func RegexDot() Regex { return NewRegexRangeExpr(0, unicode.MaxRune) }

// RegexAll returns the regex matching every string.
func RegexAll() Regex { return RegexNegate(NewRegexEmptyExpr()) }

// RegexBegin returns the begin anchor.
func RegexBegin() Regex { return NewRegexAnchorExpr(true) }

// RegexEnd returns the end anchor.
func RegexEnd() Regex { return NewRegexAnchorExpr(false) }

// RegexString returns the regex matching exactly s.
func RegexString(s string) Regex {
	var a []Regex
	for _, c := range s {
		a = append(a, RegexChar(c))
	}
	return RegexConcat(a...)
}
