package zen_test

import (
	"testing"

	"github.com/benbjohnson/zen"
)

func TestType(t *testing.T) {
	t.Run("Interned", func(t *testing.T) {
		if zen.BitvecType(8) != zen.BitvecType(8) {
			t.Fatal("expected same bitvec type")
		} else if zen.BitvecType(1) != zen.BoolType() {
			t.Fatal("expected bv1 to be bool")
		} else if zen.DictType(zen.IntType()) != zen.DictType(zen.IntType()) {
			t.Fatal("expected same dict type")
		} else if zen.ListType(zen.IntType(), 2) == zen.SeqType(zen.IntType(), 2) {
			t.Fatal("expected distinct list & seq types")
		}
	})

	t.Run("String", func(t *testing.T) {
		pair := zen.ObjectType("KV",
			zen.Field{Name: "K", Type: zen.StringType()},
			zen.Field{Name: "V", Type: zen.BitvecType(16)},
		)
		for _, tt := range []struct {
			typ  *zen.Type
			want string
		}{
			{zen.BoolType(), "bool"},
			{zen.BitvecType(32), "bv32"},
			{zen.IntType(), "int"},
			{zen.StringType(), "string"},
			{pair, "KV{K string, V bv16}"},
			{zen.DictType(pair), "dict[KV{K string, V bv16}]"},
			{zen.ListType(zen.BoolType(), 3), "list[3]bool"},
			{zen.SeqType(zen.IntType(), 4), "seq[4]int"},
		} {
			if got := tt.typ.String(); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		}
	})

	t.Run("Object", func(t *testing.T) {
		typ := zen.ObjectType("Flow",
			zen.Field{Name: "Src", Type: zen.BitvecType(32)},
			zen.Field{Name: "Proto", Type: zen.BitvecType(8)},
		)
		if typ.Kind() != zen.KindObject || typ.Name() != "Flow" || len(typ.Fields()) != 2 {
			t.Fatalf("unexpected type: %s", typ)
		} else if i := typ.FieldIndex("Proto"); i != 1 {
			t.Fatalf("unexpected index: %d", i)
		} else if i := typ.FieldIndex("Dst"); i != -1 {
			t.Fatalf("unexpected index: %d", i)
		}
	})

	t.Run("ErrDuplicateField", func(t *testing.T) {
		defer func() {
			if r := recover(); r != "assert: duplicate object field: Dup.A" {
				t.Fatalf("unexpected panic: %v", r)
			}
		}()
		zen.ObjectType("Dup", zen.Field{Name: "A", Type: zen.IntType()}, zen.Field{Name: "A", Type: zen.IntType()})
	})

	t.Run("ErrWidth", func(t *testing.T) {
		defer func() {
			if r := recover(); r != "assert: bitvec width out of range: 65" {
				t.Fatalf("unexpected panic: %v", r)
			}
		}()
		zen.BitvecType(65)
	})
}

func TestKind_String(t *testing.T) {
	if s := zen.KindSeq.String(); s != "seq" {
		t.Fatalf("unexpected string: %s", s)
	} else if s := zen.Kind(99).String(); s != "Kind<99>" {
		t.Fatalf("unexpected string: %s", s)
	} else if !zen.KindString.IsScalar() || zen.KindObject.IsScalar() {
		t.Fatal("unexpected scalar kinds")
	}
}
