package simplify

import (
	"testing"

	"github.com/aclements/rvxlate/internal/ir"
)

func TestSubstituteSimpleRHSAlwaysInlines(t *testing.T) {
	stmts := []ir.Statement{
		ir.Let{"v", ir.Lit(5)},
		ir.StoreReg{ir.RegA0, ir.Bin{ir.Add, ir.Var("v"), ir.Lit(1)}},
	}

	out := Substitute(stmts)

	if len(out) != 1 {
		t.Fatalf("Substitute: got %d statements, want 1: %#v", len(out), out)
	}
	store, ok := out[0].(ir.StoreReg)
	if !ok {
		t.Fatalf("out[0] = %#v, want StoreReg", out[0])
	}
	want := ir.Bin{ir.Add, ir.Lit(5), ir.Lit(1)}
	if !ir.Equal(store.Value, want) {
		t.Errorf("out[0].Value = %v, want %v", store.Value, want)
	}
}

func TestSubstituteBlockedByHazard(t *testing.T) {
	// v is bound to a read of a1, but a1 is overwritten before the
	// only later use of v, so substituting would read the wrong
	// value: the Let must survive untouched.
	stmts := []ir.Statement{
		ir.Let{"v", ir.LoadReg(ir.RegA1)},
		ir.StoreReg{ir.RegA1, ir.Lit(0)},
		ir.StoreReg{ir.RegA0, ir.Var("v")},
	}

	out := Substitute(stmts)

	if len(out) != 3 {
		t.Fatalf("Substitute: got %d statements, want 3: %#v", len(out), out)
	}
	if _, ok := out[0].(ir.Let); !ok {
		t.Errorf("out[0] = %#v, want the Let to survive", out[0])
	}
}

func TestSubstituteNonSimpleSingleUseInlines(t *testing.T) {
	rhs := ir.Bin{ir.Add, ir.LoadReg(ir.RegA0), ir.LoadReg(ir.RegA1)}
	stmts := []ir.Statement{
		ir.Let{"v", rhs},
		ir.StoreReg{ir.RegA2, ir.Var("v")},
	}

	out := Substitute(stmts)

	if len(out) != 1 {
		t.Fatalf("Substitute: got %d statements, want 1: %#v", len(out), out)
	}
	store, ok := out[0].(ir.StoreReg)
	if !ok {
		t.Fatalf("out[0] = %#v, want StoreReg", out[0])
	}
	if !ir.Equal(store.Value, rhs) {
		t.Errorf("out[0].Value = %v, want %v", store.Value, rhs)
	}
}

func TestSubstituteNonSimpleMultiUseKeepsLet(t *testing.T) {
	rhs := ir.Bin{ir.Add, ir.LoadReg(ir.RegA0), ir.LoadReg(ir.RegA1)}
	stmts := []ir.Statement{
		ir.Let{"v", rhs},
		ir.StoreReg{ir.RegA2, ir.Var("v")},
		ir.StoreReg{ir.RegA3, ir.Var("v")},
	}

	out := Substitute(stmts)

	if len(out) != 3 {
		t.Fatalf("Substitute: got %d statements, want 3 (Let kept): %#v", len(out), out)
	}
	if _, ok := out[0].(ir.Let); !ok {
		t.Errorf("out[0] = %#v, want the Let to survive since v has two uses", out[0])
	}
}
