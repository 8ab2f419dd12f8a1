package zen

import (
	"fmt"
	"strconv"
	"strings"
)

// ObjectExpr represents a record built from one expression per field.
type ObjectExpr struct {
	exprNode
	fields []Expr
}

// NewObjectExpr returns an object of type typ. Fields are given positionally
// in the order the type declares them.
func NewObjectExpr(typ *Type, fields ...Expr) Expr {
	assert(typ != nil && typ.Kind() == KindObject, "object: non-object type: %s", typ)
	assert(len(fields) == len(typ.Fields()), "object: %s: field count mismatch: %d != %d", typ.Name(), len(fields), len(typ.Fields()))

	var ids strings.Builder
	for i, f := range fields {
		requireExpr("NewObjectExpr", typ.Fields()[i].Name, f)
		assert(f.Type() == typ.Fields()[i].Type, "object: %s.%s: type mismatch: %s != %s", typ.Name(), typ.Fields()[i].Name, f.Type(), typ.Fields()[i].Type)
		if i > 0 {
			ids.WriteByte(',')
		}
		ids.WriteString(strconv.FormatUint(f.ID(), 10))
	}

	k := objectKey{typ: typ, fields: ids.String()}
	return objectCache.GetOrInsert(k, objectArgs{typ: typ, fields: append([]Expr(nil), fields...)})
}

// Fields returns a copy of the field expressions in declaration order.
func (e *ObjectExpr) Fields() []Expr { return append([]Expr(nil), e.fields...) }

// Field returns the expression of the named field.
func (e *ObjectExpr) Field(name string) Expr {
	i := e.typ.FieldIndex(name)
	assert(i >= 0, "object: %s: unknown field: %s", e.typ.Name(), name)
	return e.fields[i]
}

// String returns the string representation of the expression.
func (e *ObjectExpr) String() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "(object %s", e.typ.Name())
	for _, f := range e.fields {
		fmt.Fprintf(&buf, " %s", f)
	}
	buf.WriteString(")")
	return buf.String()
}

// GetFieldExpr represents reading a field of an object.
type GetFieldExpr struct {
	exprNode
	obj  Expr
	name string
}

// NewGetFieldExpr returns the value of the named field of obj.
func NewGetFieldExpr(obj Expr, name string) Expr {
	requireExpr("NewGetFieldExpr", "obj", obj)
	assert(obj.Type().Kind() == KindObject, "get-field: non-object operand: %s", obj.Type())
	assert(obj.Type().FieldIndex(name) >= 0, "get-field: %s: unknown field: %s", obj.Type().Name(), name)

	k := fieldKey{obj: obj.ID(), name: name}
	return getFieldCache.GetOrInsert(k, fieldArgs{obj: obj, name: name})
}

func simplifyGetField(args fieldArgs) Expr {
	if obj, ok := args.obj.(*ObjectExpr); ok {
		return obj.Field(args.name)
	}

	typ := args.obj.Type().Fields()[args.obj.Type().FieldIndex(args.name)].Type
	getFieldCache.nodes.Add(1)
	return &GetFieldExpr{exprNode: newExprNode(typ), obj: args.obj, name: args.name}
}

// Object returns the object operand.
func (e *GetFieldExpr) Object() Expr { return e.obj }

// Name returns the field name.
func (e *GetFieldExpr) Name() string { return e.name }

// String returns the string representation of the expression.
func (e *GetFieldExpr) String() string {
	return fmt.Sprintf("(get-field %s %s)", e.obj, e.name)
}

// MapSetExpr represents a dictionary with one constant key bound to a value.
type MapSetExpr struct {
	exprNode
	m     Expr
	key   interface{}
	value Expr
}

// NewMapSetExpr returns the dictionary m with key bound to value.
//
// Keys are compared with ==, so a key whose dynamic type is not comparable
// causes a panic.
func NewMapSetExpr[K comparable](m Expr, key K, value Expr) Expr {
	return newMapSet(m, key, value)
}

func newMapSet(m Expr, key interface{}, value Expr) Expr {
	requireExpr("NewMapSetExpr", "map", m)
	requireExpr("NewMapSetExpr", "value", value)
	assert(m.Type().Kind() == KindDict, "map-set: non-dict operand: %s", m.Type())
	assert(value.Type() == m.Type().Elem(), "map-set: value type mismatch: %s != %s", value.Type(), m.Type().Elem())

	k := mapSetKey{m: m.ID(), key: key, value: value.ID()}
	return mapSetCache.GetOrInsert(k, mapSetArgs{m: m, key: key, value: value})
}

func simplifyMapSet(args mapSetArgs) Expr {
	// set(set(m, k, a), k, b) = set(m, k, b)
	if m, ok := args.m.(*MapSetExpr); ok && m.key == args.key {
		return newMapSet(m.m, args.key, args.value)
	}

	mapSetCache.nodes.Add(1)
	return &MapSetExpr{exprNode: newExprNode(args.m.Type()), m: args.m, key: args.key, value: args.value}
}

// Map returns the dictionary being updated.
func (e *MapSetExpr) Map() Expr { return e.m }

// Key returns the constant key.
func (e *MapSetExpr) Key() interface{} { return e.key }

// Value returns the value bound to the key.
func (e *MapSetExpr) Value() Expr { return e.value }

// String returns the string representation of the expression.
func (e *MapSetExpr) String() string {
	return fmt.Sprintf("(map-set %s %s %s)", e.m, formatKey(e.key), e.value)
}

// MapGetExpr represents reading a constant key of a dictionary. A key that is
// not present reads as the default value of the dictionary's value type.
type MapGetExpr struct {
	exprNode
	m   Expr
	key interface{}
}

// NewMapGetExpr returns the value bound to key in m.
func NewMapGetExpr[K comparable](m Expr, key K) Expr {
	return newMapGet(m, key)
}

func newMapGet(m Expr, key interface{}) Expr {
	requireExpr("NewMapGetExpr", "map", m)
	assert(m.Type().Kind() == KindDict, "map-get: non-dict operand: %s", m.Type())

	k := mapGetKey{m: m.ID(), key: key}
	return mapGetCache.GetOrInsert(k, mapGetArgs{m: m, key: key})
}

func simplifyMapGet(args mapGetArgs) Expr {
	// get(set(m, k, v), k) = v
	// get(set(m, j, v), k) = get(m, k)
	if m, ok := args.m.(*MapSetExpr); ok {
		if m.key == args.key {
			return m.value
		}
		return newMapGet(m.m, args.key)
	}

	mapGetCache.nodes.Add(1)
	return &MapGetExpr{exprNode: newExprNode(args.m.Type().Elem()), m: args.m, key: args.key}
}

// Map returns the dictionary being read.
func (e *MapGetExpr) Map() Expr { return e.m }

// Key returns the constant key.
func (e *MapGetExpr) Key() interface{} { return e.key }

// String returns the string representation of the expression.
func (e *MapGetExpr) String() string {
	return fmt.Sprintf("(map-get %s %s)", e.m, formatKey(e.key))
}

func formatKey(key interface{}) string {
	if s, ok := key.(string); ok {
		return strconv.Quote(s)
	}
	return fmt.Sprint(key)
}
