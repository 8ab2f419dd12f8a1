package zen

// SetType returns the type of sets of constant elements, represented as a
// dictionary from element to membership.
func SetType() *Type {
	return DictType(BoolType())
}

// NewSetAddExpr returns the set s with elem added.
func NewSetAddExpr[K comparable](s Expr, elem K) Expr {
	return NewMapSetExpr(s, elem, NewBoolConstantExpr(true))
}

// NewSetDeleteExpr returns the set s with elem removed.
func NewSetDeleteExpr[K comparable](s Expr, elem K) Expr {
	return NewMapSetExpr(s, elem, NewBoolConstantExpr(false))
}

// NewSetContainsExpr returns whether elem is a member of s.
func NewSetContainsExpr[K comparable](s Expr, elem K) Expr {
	return NewMapGetExpr(s, elem)
}
