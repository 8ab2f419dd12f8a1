package zen

import "sort"

// ExprVisitor computes a value of type R for each kind of expression, given
// a parameter of type P. Use VisitExpr() to dispatch on the expression kind.
type ExprVisitor[P, R any] interface {
	VisitConstant(e *ConstantExpr, p P) (R, error)
	VisitInteger(e *IntegerExpr, p P) (R, error)
	VisitString(e *StringExpr, p P) (R, error)
	VisitVar(e *VarExpr, p P) (R, error)
	VisitNot(e *NotExpr, p P) (R, error)
	VisitLogical(e *LogicalExpr, p P) (R, error)
	VisitIf(e *IfExpr, p P) (R, error)
	VisitBinary(e *BinaryExpr, p P) (R, error)
	VisitStrConcat(e *StrConcatExpr, p P) (R, error)
	VisitStrLength(e *StrLengthExpr, p P) (R, error)
	VisitObject(e *ObjectExpr, p P) (R, error)
	VisitGetField(e *GetFieldExpr, p P) (R, error)
	VisitMapSet(e *MapSetExpr, p P) (R, error)
	VisitMapGet(e *MapGetExpr, p P) (R, error)
	VisitList(e *ListExpr, p P) (R, error)
	VisitListGet(e *ListGetExpr, p P) (R, error)
	VisitListSet(e *ListSetExpr, p P) (R, error)
	VisitSeq(e *SeqExpr, p P) (R, error)
	VisitSeqLength(e *SeqLengthExpr, p P) (R, error)
	VisitSeqGet(e *SeqGetExpr, p P) (R, error)
	VisitSeqAddFront(e *SeqAddFrontExpr, p P) (R, error)
}

// VisitExpr calls the method of v for the kind of e.
func VisitExpr[P, R any](v ExprVisitor[P, R], e Expr, p P) (R, error) {
	switch e := e.(type) {
	case *ConstantExpr:
		return v.VisitConstant(e, p)
	case *IntegerExpr:
		return v.VisitInteger(e, p)
	case *StringExpr:
		return v.VisitString(e, p)
	case *VarExpr:
		return v.VisitVar(e, p)
	case *NotExpr:
		return v.VisitNot(e, p)
	case *LogicalExpr:
		return v.VisitLogical(e, p)
	case *IfExpr:
		return v.VisitIf(e, p)
	case *BinaryExpr:
		return v.VisitBinary(e, p)
	case *StrConcatExpr:
		return v.VisitStrConcat(e, p)
	case *StrLengthExpr:
		return v.VisitStrLength(e, p)
	case *ObjectExpr:
		return v.VisitObject(e, p)
	case *GetFieldExpr:
		return v.VisitGetField(e, p)
	case *MapSetExpr:
		return v.VisitMapSet(e, p)
	case *MapGetExpr:
		return v.VisitMapGet(e, p)
	case *ListExpr:
		return v.VisitList(e, p)
	case *ListGetExpr:
		return v.VisitListGet(e, p)
	case *ListSetExpr:
		return v.VisitListSet(e, p)
	case *SeqExpr:
		return v.VisitSeq(e, p)
	case *SeqLengthExpr:
		return v.VisitSeqLength(e, p)
	case *SeqGetExpr:
		return v.VisitSeqGet(e, p)
	case *SeqAddFrontExpr:
		return v.VisitSeqAddFront(e, p)
	default:
		panic("unreachable")
	}
}

// ExprActionVisitor performs an action for each kind of expression.
type ExprActionVisitor interface {
	VisitConstant(e *ConstantExpr)
	VisitInteger(e *IntegerExpr)
	VisitString(e *StringExpr)
	VisitVar(e *VarExpr)
	VisitNot(e *NotExpr)
	VisitLogical(e *LogicalExpr)
	VisitIf(e *IfExpr)
	VisitBinary(e *BinaryExpr)
	VisitStrConcat(e *StrConcatExpr)
	VisitStrLength(e *StrLengthExpr)
	VisitObject(e *ObjectExpr)
	VisitGetField(e *GetFieldExpr)
	VisitMapSet(e *MapSetExpr)
	VisitMapGet(e *MapGetExpr)
	VisitList(e *ListExpr)
	VisitListGet(e *ListGetExpr)
	VisitListSet(e *ListSetExpr)
	VisitSeq(e *SeqExpr)
	VisitSeqLength(e *SeqLengthExpr)
	VisitSeqGet(e *SeqGetExpr)
	VisitSeqAddFront(e *SeqAddFrontExpr)
}

// AcceptExpr calls the method of v for the kind of e.
func AcceptExpr(v ExprActionVisitor, e Expr) {
	switch e := e.(type) {
	case *ConstantExpr:
		v.VisitConstant(e)
	case *IntegerExpr:
		v.VisitInteger(e)
	case *StringExpr:
		v.VisitString(e)
	case *VarExpr:
		v.VisitVar(e)
	case *NotExpr:
		v.VisitNot(e)
	case *LogicalExpr:
		v.VisitLogical(e)
	case *IfExpr:
		v.VisitIf(e)
	case *BinaryExpr:
		v.VisitBinary(e)
	case *StrConcatExpr:
		v.VisitStrConcat(e)
	case *StrLengthExpr:
		v.VisitStrLength(e)
	case *ObjectExpr:
		v.VisitObject(e)
	case *GetFieldExpr:
		v.VisitGetField(e)
	case *MapSetExpr:
		v.VisitMapSet(e)
	case *MapGetExpr:
		v.VisitMapGet(e)
	case *ListExpr:
		v.VisitList(e)
	case *ListGetExpr:
		v.VisitListGet(e)
	case *ListSetExpr:
		v.VisitListSet(e)
	case *SeqExpr:
		v.VisitSeq(e)
	case *SeqLengthExpr:
		v.VisitSeqLength(e)
	case *SeqGetExpr:
		v.VisitSeqGet(e)
	case *SeqAddFrontExpr:
		v.VisitSeqAddFront(e)
	default:
		panic("unreachable")
	}
}

// NopExprActionVisitor implements ExprActionVisitor with methods that do
// nothing. Embed it to handle only some kinds.
type NopExprActionVisitor struct{}

func (NopExprActionVisitor) VisitConstant(*ConstantExpr)       {}
func (NopExprActionVisitor) VisitInteger(*IntegerExpr)         {}
func (NopExprActionVisitor) VisitString(*StringExpr)           {}
func (NopExprActionVisitor) VisitVar(*VarExpr)                 {}
func (NopExprActionVisitor) VisitNot(*NotExpr)                 {}
func (NopExprActionVisitor) VisitLogical(*LogicalExpr)         {}
func (NopExprActionVisitor) VisitIf(*IfExpr)                   {}
func (NopExprActionVisitor) VisitBinary(*BinaryExpr)           {}
func (NopExprActionVisitor) VisitStrConcat(*StrConcatExpr)     {}
func (NopExprActionVisitor) VisitStrLength(*StrLengthExpr)     {}
func (NopExprActionVisitor) VisitObject(*ObjectExpr)           {}
func (NopExprActionVisitor) VisitGetField(*GetFieldExpr)       {}
func (NopExprActionVisitor) VisitMapSet(*MapSetExpr)           {}
func (NopExprActionVisitor) VisitMapGet(*MapGetExpr)           {}
func (NopExprActionVisitor) VisitList(*ListExpr)               {}
func (NopExprActionVisitor) VisitListGet(*ListGetExpr)         {}
func (NopExprActionVisitor) VisitListSet(*ListSetExpr)         {}
func (NopExprActionVisitor) VisitSeq(*SeqExpr)                 {}
func (NopExprActionVisitor) VisitSeqLength(*SeqLengthExpr)     {}
func (NopExprActionVisitor) VisitSeqGet(*SeqGetExpr)           {}
func (NopExprActionVisitor) VisitSeqAddFront(*SeqAddFrontExpr) {}

// Children returns the direct operands of e.
func Children(e Expr) []Expr {
	switch e := e.(type) {
	case *ConstantExpr, *IntegerExpr, *StringExpr, *VarExpr:
		return nil
	case *NotExpr:
		return []Expr{e.x}
	case *LogicalExpr:
		return []Expr{e.lhs, e.rhs}
	case *IfExpr:
		return []Expr{e.cond, e.then, e.els}
	case *BinaryExpr:
		return []Expr{e.lhs, e.rhs}
	case *StrConcatExpr:
		return []Expr{e.lhs, e.rhs}
	case *StrLengthExpr:
		return []Expr{e.x}
	case *ObjectExpr:
		return e.Fields()
	case *GetFieldExpr:
		return []Expr{e.obj}
	case *MapSetExpr:
		return []Expr{e.m, e.value}
	case *MapGetExpr:
		return []Expr{e.m}
	case *ListExpr:
		return e.Elems()
	case *ListGetExpr:
		return []Expr{e.l}
	case *ListSetExpr:
		return []Expr{e.l, e.value}
	case *SeqExpr:
		return e.Elems()
	case *SeqLengthExpr:
		return []Expr{e.s}
	case *SeqGetExpr:
		return []Expr{e.s}
	case *SeqAddFrontExpr:
		return []Expr{e.s, e.x}
	default:
		panic("unreachable")
	}
}

// WalkExpr accepts v on every distinct node reachable from exprs. Operands
// are accepted before the expressions that use them and shared nodes are
// accepted once.
func WalkExpr(v ExprActionVisitor, exprs ...Expr) {
	seen := make(map[uint64]struct{})
	var walk func(Expr)
	walk = func(e Expr) {
		if _, ok := seen[e.ID()]; ok {
			return
		}
		seen[e.ID()] = struct{}{}
		for _, child := range Children(e) {
			walk(child)
		}
		AcceptExpr(v, e)
	}
	for _, e := range exprs {
		walk(e)
	}
}

// FindVars returns all variables in the expression trees, sorted by name.
func FindVars(exprs ...Expr) []*VarExpr {
	v := newVarExprVisitor()
	WalkExpr(v, exprs...)
	sort.Slice(v.vars, func(i, j int) bool { return v.vars[i].name < v.vars[j].name })
	return v.vars
}

type varExprVisitor struct {
	NopExprActionVisitor
	vars []*VarExpr
}

func newVarExprVisitor() *varExprVisitor {
	return &varExprVisitor{}
}

func (v *varExprVisitor) VisitVar(e *VarExpr) {
	v.vars = append(v.vars, e)
}

// FindMapKeys returns the constant keys read or written in the expression
// trees, grouped by dictionary type, in first-seen order.
func FindMapKeys(exprs ...Expr) map[*Type][]interface{} {
	v := newMapKeyExprVisitor()
	WalkExpr(v, exprs...)
	return v.m
}

type mapKeyExprVisitor struct {
	NopExprActionVisitor
	m map[*Type][]interface{}
}

func newMapKeyExprVisitor() *mapKeyExprVisitor {
	return &mapKeyExprVisitor{m: make(map[*Type][]interface{})}
}

func (v *mapKeyExprVisitor) VisitMapSet(e *MapSetExpr) { v.add(e.m.Type(), e.key) }
func (v *mapKeyExprVisitor) VisitMapGet(e *MapGetExpr) { v.add(e.m.Type(), e.key) }

func (v *mapKeyExprVisitor) add(typ *Type, key interface{}) {
	for _, k := range v.m[typ] {
		if k == key {
			return
		}
	}
	v.m[typ] = append(v.m[typ], key)
}

// NodeCounts returns the number of distinct nodes of each kind reachable
// from exprs.
func NodeCounts(exprs ...Expr) map[string]int {
	v := &countExprVisitor{m: make(map[string]int)}
	WalkExpr(v, exprs...)
	return v.m
}

type countExprVisitor struct {
	m map[string]int
}

func (v *countExprVisitor) VisitConstant(*ConstantExpr)       { v.m["constant"]++ }
func (v *countExprVisitor) VisitInteger(*IntegerExpr)         { v.m["integer"]++ }
func (v *countExprVisitor) VisitString(*StringExpr)           { v.m["string"]++ }
func (v *countExprVisitor) VisitVar(*VarExpr)                 { v.m["var"]++ }
func (v *countExprVisitor) VisitNot(*NotExpr)                 { v.m["not"]++ }
func (v *countExprVisitor) VisitLogical(*LogicalExpr)         { v.m["logical"]++ }
func (v *countExprVisitor) VisitIf(*IfExpr)                   { v.m["if"]++ }
func (v *countExprVisitor) VisitBinary(*BinaryExpr)           { v.m["binary"]++ }
func (v *countExprVisitor) VisitStrConcat(*StrConcatExpr)     { v.m["str-concat"]++ }
func (v *countExprVisitor) VisitStrLength(*StrLengthExpr)     { v.m["str-length"]++ }
func (v *countExprVisitor) VisitObject(*ObjectExpr)           { v.m["object"]++ }
func (v *countExprVisitor) VisitGetField(*GetFieldExpr)       { v.m["get-field"]++ }
func (v *countExprVisitor) VisitMapSet(*MapSetExpr)           { v.m["map-set"]++ }
func (v *countExprVisitor) VisitMapGet(*MapGetExpr)           { v.m["map-get"]++ }
func (v *countExprVisitor) VisitList(*ListExpr)               { v.m["list"]++ }
func (v *countExprVisitor) VisitListGet(*ListGetExpr)         { v.m["list-get"]++ }
func (v *countExprVisitor) VisitListSet(*ListSetExpr)         { v.m["list-set"]++ }
func (v *countExprVisitor) VisitSeq(*SeqExpr)                 { v.m["seq"]++ }
func (v *countExprVisitor) VisitSeqLength(*SeqLengthExpr)     { v.m["seq-length"]++ }
func (v *countExprVisitor) VisitSeqGet(*SeqGetExpr)           { v.m["seq-get"]++ }
func (v *countExprVisitor) VisitSeqAddFront(*SeqAddFrontExpr) { v.m["seq-add-front"]++ }

// RegexVisitor computes a value of type R for each kind of regex, given a
// parameter of type P. Use VisitRegex() to dispatch on the regex kind.
type RegexVisitor[P, R any] interface {
	VisitEmpty(r *RegexEmptyExpr, p P) R
	VisitEpsilon(r *RegexEpsilonExpr, p P) R
	VisitRange(r *RegexRangeExpr, p P) R
	VisitAnchor(r *RegexAnchorExpr, p P) R
	VisitUnop(r *RegexUnopExpr, p P) R
	VisitBinop(r *RegexBinopExpr, p P) R
}

// VisitRegex calls the method of v for the kind of r.
func VisitRegex[P, R any](v RegexVisitor[P, R], r Regex, p P) R {
	switch r := r.(type) {
	case *RegexEmptyExpr:
		return v.VisitEmpty(r, p)
	case *RegexEpsilonExpr:
		return v.VisitEpsilon(r, p)
	case *RegexRangeExpr:
		return v.VisitRange(r, p)
	case *RegexAnchorExpr:
		return v.VisitAnchor(r, p)
	case *RegexUnopExpr:
		return v.VisitUnop(r, p)
	case *RegexBinopExpr:
		return v.VisitBinop(r, p)
	default:
		panic("unreachable")
	}
}

// RegexActionVisitor performs an action for each kind of regex.
type RegexActionVisitor interface {
	VisitEmpty(r *RegexEmptyExpr)
	VisitEpsilon(r *RegexEpsilonExpr)
	VisitRange(r *RegexRangeExpr)
	VisitAnchor(r *RegexAnchorExpr)
	VisitUnop(r *RegexUnopExpr)
	VisitBinop(r *RegexBinopExpr)
}

// AcceptRegex calls the method of v for the kind of r.
func AcceptRegex(v RegexActionVisitor, r Regex) {
	switch r := r.(type) {
	case *RegexEmptyExpr:
		v.VisitEmpty(r)
	case *RegexEpsilonExpr:
		v.VisitEpsilon(r)
	case *RegexRangeExpr:
		v.VisitRange(r)
	case *RegexAnchorExpr:
		v.VisitAnchor(r)
	case *RegexUnopExpr:
		v.VisitUnop(r)
	case *RegexBinopExpr:
		v.VisitBinop(r)
	default:
		panic("unreachable")
	}
}

// RegexChildren returns the direct operands of r.
func RegexChildren(r Regex) []Regex {
	switch r := r.(type) {
	case *RegexEmptyExpr, *RegexEpsilonExpr, *RegexRangeExpr, *RegexAnchorExpr:
		return nil
	case *RegexUnopExpr:
		return []Regex{r.x}
	case *RegexBinopExpr:
		return []Regex{r.lhs, r.rhs}
	default:
		panic("unreachable")
	}
}

// WalkRegex accepts v on every distinct node reachable from r, operands first.
func WalkRegex(v RegexActionVisitor, r Regex) {
	seen := make(map[uint64]struct{})
	var walk func(Regex)
	walk = func(r Regex) {
		if _, ok := seen[r.ID()]; ok {
			return
		}
		seen[r.ID()] = struct{}{}
		for _, child := range RegexChildren(r) {
			walk(child)
		}
		AcceptRegex(v, r)
	}
	walk(r)
}

// RegexNodeCounts returns the number of distinct nodes of each kind reachable
// from r.
func RegexNodeCounts(r Regex) map[string]int {
	v := &countRegexVisitor{m: make(map[string]int)}
	WalkRegex(v, r)
	return v.m
}

type countRegexVisitor struct {
	m map[string]int
}

func (v *countRegexVisitor) VisitEmpty(*RegexEmptyExpr)     { v.m["empty"]++ }
func (v *countRegexVisitor) VisitEpsilon(*RegexEpsilonExpr) { v.m["epsilon"]++ }
func (v *countRegexVisitor) VisitRange(*RegexRangeExpr)     { v.m["range"]++ }
func (v *countRegexVisitor) VisitAnchor(*RegexAnchorExpr)   { v.m["anchor"]++ }
func (v *countRegexVisitor) VisitUnop(r *RegexUnopExpr)     { v.m[r.op.String()]++ }
func (v *countRegexVisitor) VisitBinop(r *RegexBinopExpr)   { v.m[r.op.String()]++ }
