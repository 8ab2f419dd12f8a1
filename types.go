package zen

import (
	"fmt"
	"strings"

	"github.com/benbjohnson/zen/internal/hashcons"
)

// Kind represents the category of a Type.
type Kind int

// Type kinds.
const (
	KindBool = Kind(iota + 1)
	KindBitvec
	KindInt
	KindString
	KindObject
	KindDict
	KindList
	KindSeq
)

var kinds = [...]string{
	KindBool:   "bool",
	KindBitvec: "bitvec",
	KindInt:    "int",
	KindString: "string",
	KindObject: "object",
	KindDict:   "dict",
	KindList:   "list",
	KindSeq:    "seq",
}

// String returns the string representation of the kind.
func (k Kind) String() string {
	if k >= 0 && k < Kind(len(kinds)) && kinds[k] != "" {
		return kinds[k]
	}
	return fmt.Sprintf("Kind<%d>", k)
}

// IsScalar returns true if values of the kind are represented by a single
// solver term.
func (k Kind) IsScalar() bool {
	return k >= KindBool && k <= KindString
}

// Type represents the static type of an expression. Types are interned so two
// types are identical if and only if their pointers are equal.
type Type struct {
	kind   Kind
	width  uint    // bitvec width
	name   string  // object name
	fields []Field // object fields
	elem   *Type   // dict value, list & seq element
	size   int     // list length, seq capacity
	sig    string
}

// Field represents a named field of an object type.
type Field struct {
	Name string
	Type *Type
}

// Kind returns the kind of the type.
func (t *Type) Kind() Kind { return t.kind }

// Width returns the bit width of a bool or bitvec type.
func (t *Type) Width() uint { return t.width }

// Name returns the name of an object type.
func (t *Type) Name() string { return t.name }

// Fields returns the fields of an object type, in declaration order.
func (t *Type) Fields() []Field { return t.fields }

// Elem returns the value type of a dict or the element type of a list or seq.
func (t *Type) Elem() *Type { return t.elem }

// Size returns the length of a list or the capacity of a seq.
func (t *Type) Size() int { return t.size }

// FieldIndex returns the index of the named field or -1 if it does not exist.
func (t *Type) FieldIndex(name string) int {
	for i := range t.fields {
		if t.fields[i].Name == name {
			return i
		}
	}
	return -1
}

// String returns the string representation of the type.
func (t *Type) String() string { return t.sig }

var typeTable = hashcons.New[string, *Type, *Type](func(t *Type) *Type { return t })

func internType(t *Type) *Type {
	return typeTable.GetOrInsert(t.sig, t)
}

// BoolType returns the boolean type.
func BoolType() *Type {
	return internType(&Type{kind: KindBool, width: WidthBool, sig: "bool"})
}

// BitvecType returns the type of bit vectors with the given width.
// A width of one returns BoolType().
func BitvecType(width uint) *Type {
	assert(width > 0 && width <= Width64, "bitvec width out of range: %d", width)
	if width == WidthBool {
		return BoolType()
	}
	return internType(&Type{kind: KindBitvec, width: width, sig: fmt.Sprintf("bv%d", width)})
}

// IntType returns the type of unbounded integers.
func IntType() *Type {
	return internType(&Type{kind: KindInt, sig: "int"})
}

// StringType returns the string type.
func StringType() *Type {
	return internType(&Type{kind: KindString, sig: "string"})
}

// ObjectType returns a named record type with the given fields.
func ObjectType(name string, fields ...Field) *Type {
	var buf strings.Builder
	fmt.Fprintf(&buf, "%s{", name)
	for i, f := range fields {
		assert(f.Type != nil, "object field type required: %s.%s", name, f.Name)
		for j := 0; j < i; j++ {
			assert(fields[j].Name != f.Name, "duplicate object field: %s.%s", name, f.Name)
		}
		if i > 0 {
			buf.WriteString(", ")
		}
		fmt.Fprintf(&buf, "%s %s", f.Name, f.Type)
	}
	buf.WriteString("}")

	return internType(&Type{
		kind:   KindObject,
		name:   name,
		fields: append([]Field(nil), fields...),
		sig:    buf.String(),
	})
}

// DictType returns the type of maps from constant keys to values of type elem.
func DictType(elem *Type) *Type {
	assert(elem != nil, "dict value type required")
	return internType(&Type{kind: KindDict, elem: elem, sig: fmt.Sprintf("dict[%s]", elem)})
}

// ListType returns the type of lists with exactly n elements of type elem.
func ListType(elem *Type, n int) *Type {
	assert(elem != nil, "list element type required")
	assert(n >= 0, "invalid list length: %d", n)
	return internType(&Type{kind: KindList, elem: elem, size: n, sig: fmt.Sprintf("list[%d]%s", n, elem)})
}

// SeqType returns the type of sequences of at most capacity elements.
func SeqType(elem *Type, capacity int) *Type {
	assert(elem != nil, "seq element type required")
	assert(capacity >= 0, "invalid seq capacity: %d", capacity)
	return internType(&Type{kind: KindSeq, elem: elem, size: capacity, sig: fmt.Sprintf("seq[%d]%s", capacity, elem)})
}
