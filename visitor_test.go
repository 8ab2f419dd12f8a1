package zen_test

import (
	"testing"

	"github.com/benbjohnson/zen"
	"github.com/google/go-cmp/cmp"
)

func TestFindVars(t *testing.T) {
	x := zen.NewVarExpr("vars.x", zen.BitvecType(8))
	y := zen.NewVarExpr("vars.y", zen.BitvecType(8))
	b := zen.NewVarExpr("vars.b", zen.BoolType())

	e := zen.NewIfExpr(b, zen.NewBinaryExpr(zen.ADD, y, x), x)
	vars := zen.FindVars(e, zen.NewBinaryExpr(zen.EQ, y, x))

	var names []string
	for _, v := range vars {
		names = append(names, v.Name())
	}
	if diff := cmp.Diff(names, []string{"vars.b", "vars.x", "vars.y"}); diff != "" {
		t.Fatal(diff)
	}
}

func TestWalkExpr(t *testing.T) {
	x := zen.NewVarExpr("walk.x", zen.BitvecType(8))
	sum := zen.NewBinaryExpr(zen.ADD, x, zen.NewConstantExpr(1, 8))
	e := zen.NewBinaryExpr(zen.ULT, sum, zen.NewBinaryExpr(zen.MUL, sum, x))

	var v recordingVisitor
	zen.WalkExpr(&v, e)

	// Shared nodes are visited once and operands precede their users.
	if diff := cmp.Diff(v.ids, []uint64{
		zen.NewConstantExpr(1, 8).ID(),
		x.ID(),
		sum.ID(),
		zen.NewBinaryExpr(zen.MUL, x, sum).ID(),
		e.ID(),
	}); diff != "" {
		t.Fatal(diff)
	}
}

type recordingVisitor struct {
	zen.NopExprActionVisitor
	ids []uint64
}

func (v *recordingVisitor) VisitConstant(e *zen.ConstantExpr) { v.ids = append(v.ids, e.ID()) }
func (v *recordingVisitor) VisitVar(e *zen.VarExpr)           { v.ids = append(v.ids, e.ID()) }
func (v *recordingVisitor) VisitBinary(e *zen.BinaryExpr)     { v.ids = append(v.ids, e.ID()) }

func TestNodeCounts(t *testing.T) {
	s := zen.NewVarExpr("counts.s", zen.StringType())
	n := zen.NewStrLengthExpr(zen.NewStrConcatExpr(zen.NewStringExpr("x"), s))
	e := zen.NewNotExpr(zen.NewBinaryExpr(zen.EQ, n, zen.NewIntegerExprInt64(4)))

	if diff := cmp.Diff(zen.NodeCounts(e), map[string]int{
		"not":        1,
		"binary":     1,
		"integer":    1,
		"str-length": 1,
		"str-concat": 1,
		"string":     1,
		"var":        1,
	}); diff != "" {
		t.Fatal(diff)
	}
}

func TestChildren(t *testing.T) {
	c := zen.NewVarExpr("children.c", zen.BoolType())
	x := zen.NewVarExpr("children.x", zen.IntType())
	y := zen.NewVarExpr("children.y", zen.IntType())

	if children := zen.Children(zen.NewIfExpr(c, x, y)); len(children) != 3 || children[0] != c || children[1] != x || children[2] != y {
		t.Fatalf("unexpected children: %v", children)
	} else if children := zen.Children(x); len(children) != 0 {
		t.Fatalf("unexpected children: %v", children)
	}

	s := zen.NewVarExpr("children.s", zen.SeqType(zen.IntType(), 2))
	if children := zen.Children(zen.NewSeqAddFrontExpr(s, x)); len(children) != 2 || children[0] != s || children[1] != x {
		t.Fatalf("unexpected children: %v", children)
	}
}

func TestNodeCounts_Seq(t *testing.T) {
	s := zen.NewVarExpr("counts.seq", zen.SeqType(zen.BitvecType(8), 3))
	x := zen.NewVarExpr("counts.x", zen.BitvecType(8))
	e := zen.NewBinaryExpr(zen.EQ, zen.NewSeqGetExpr(zen.NewSeqAddFrontExpr(s, x), 2), x)

	// The read skips the prepended element.
	if diff := cmp.Diff(zen.NodeCounts(e), map[string]int{
		"binary":  1,
		"seq-get": 1,
		"var":     2,
	}); diff != "" {
		t.Fatal(diff)
	}
}

// sizeVisitor computes the tree size of an expression, counting shared
// operands once per use.
type sizeVisitor struct{}

func (v sizeVisitor) visit(e zen.Expr) (int, error) {
	n := 1
	for _, child := range zen.Children(e) {
		m, err := zen.VisitExpr[struct{}, int](v, child, struct{}{})
		if err != nil {
			return 0, err
		}
		n += m
	}
	return n, nil
}

func (v sizeVisitor) VisitConstant(e *zen.ConstantExpr, _ struct{}) (int, error)       { return v.visit(e) }
func (v sizeVisitor) VisitInteger(e *zen.IntegerExpr, _ struct{}) (int, error)         { return v.visit(e) }
func (v sizeVisitor) VisitString(e *zen.StringExpr, _ struct{}) (int, error)           { return v.visit(e) }
func (v sizeVisitor) VisitVar(e *zen.VarExpr, _ struct{}) (int, error)                 { return v.visit(e) }
func (v sizeVisitor) VisitNot(e *zen.NotExpr, _ struct{}) (int, error)                 { return v.visit(e) }
func (v sizeVisitor) VisitLogical(e *zen.LogicalExpr, _ struct{}) (int, error)         { return v.visit(e) }
func (v sizeVisitor) VisitIf(e *zen.IfExpr, _ struct{}) (int, error)                   { return v.visit(e) }
func (v sizeVisitor) VisitBinary(e *zen.BinaryExpr, _ struct{}) (int, error)           { return v.visit(e) }
func (v sizeVisitor) VisitStrConcat(e *zen.StrConcatExpr, _ struct{}) (int, error)     { return v.visit(e) }
func (v sizeVisitor) VisitStrLength(e *zen.StrLengthExpr, _ struct{}) (int, error)     { return v.visit(e) }
func (v sizeVisitor) VisitObject(e *zen.ObjectExpr, _ struct{}) (int, error)           { return v.visit(e) }
func (v sizeVisitor) VisitGetField(e *zen.GetFieldExpr, _ struct{}) (int, error)       { return v.visit(e) }
func (v sizeVisitor) VisitMapSet(e *zen.MapSetExpr, _ struct{}) (int, error)           { return v.visit(e) }
func (v sizeVisitor) VisitMapGet(e *zen.MapGetExpr, _ struct{}) (int, error)           { return v.visit(e) }
func (v sizeVisitor) VisitList(e *zen.ListExpr, _ struct{}) (int, error)               { return v.visit(e) }
func (v sizeVisitor) VisitListGet(e *zen.ListGetExpr, _ struct{}) (int, error)         { return v.visit(e) }
func (v sizeVisitor) VisitListSet(e *zen.ListSetExpr, _ struct{}) (int, error)         { return v.visit(e) }
func (v sizeVisitor) VisitSeq(e *zen.SeqExpr, _ struct{}) (int, error)                 { return v.visit(e) }
func (v sizeVisitor) VisitSeqLength(e *zen.SeqLengthExpr, _ struct{}) (int, error)     { return v.visit(e) }
func (v sizeVisitor) VisitSeqGet(e *zen.SeqGetExpr, _ struct{}) (int, error)           { return v.visit(e) }
func (v sizeVisitor) VisitSeqAddFront(e *zen.SeqAddFrontExpr, _ struct{}) (int, error) { return v.visit(e) }

func TestVisitExpr(t *testing.T) {
	x := zen.NewVarExpr("visit.x", zen.BitvecType(16))
	sum := zen.NewBinaryExpr(zen.ADD, x, x)
	e := zen.NewBinaryExpr(zen.ULT, sum, sum)

	// x + x is not simplified; x+x < x+x is false.
	if n, err := zen.VisitExpr[struct{}, int](sizeVisitor{}, e, struct{}{}); err != nil {
		t.Fatal(err)
	} else if n != 1 {
		t.Fatalf("unexpected size: %d", n)
	}

	e = zen.NewBinaryExpr(zen.ULT, x, sum)
	if n, err := zen.VisitExpr[struct{}, int](sizeVisitor{}, e, struct{}{}); err != nil {
		t.Fatal(err)
	} else if n != 5 {
		t.Fatalf("unexpected size: %d", n)
	}
}

func TestRegexNodeCounts(t *testing.T) {
	r := zen.RegexConcat(zen.RegexStar(zen.RegexChar('a')), zen.RegexChar('b'), zen.RegexStar(zen.RegexChar('a')))
	if diff := cmp.Diff(zen.RegexNodeCounts(r), map[string]int{
		"concat": 2,
		"star":   1,
		"range":  2,
	}); diff != "" {
		t.Fatal(diff)
	}
}
