package deadstore

import (
	"testing"

	"github.com/aclements/rvxlate/internal/ir"
	"github.com/aclements/rvxlate/internal/region"
)

// TestEliminateRewritesDeadStore reproduces concrete scenario C5: a0
// is stored but not live out of the block, so the store becomes a
// Let nothing reads.
func TestEliminateRewritesDeadStore(t *testing.T) {
	stmts := []ir.Statement{
		ir.StoreReg{ir.RegA0, ir.Bin{ir.Add, ir.LoadReg(ir.RegA1), ir.Lit(1)}},
		ir.StoreReg{ir.RegA1, ir.Lit(0)},
	}

	out := Eliminate(stmts, region.Of(ir.RegA1))

	if _, ok := out[0].(ir.StoreReg); ok {
		t.Errorf("expected dead store to a0 to be rewritten, got %#v", out[0])
	}
	let, ok := out[0].(ir.Let)
	if !ok {
		t.Fatalf("expected Let, got %T", out[0])
	}
	if !ir.Equal(let.RHS, ir.Bin{ir.Add, ir.LoadReg(ir.RegA1), ir.Lit(1)}) {
		t.Errorf("Eliminate must preserve the dead store's value expression, got %v", let.RHS)
	}

	if _, ok := out[1].(ir.StoreReg); !ok {
		t.Errorf("the live store to a1 must survive unchanged, got %#v", out[1])
	}
}

// TestEliminateKeepsLiveStore checks that a store whose register is
// live at exit is left untouched.
func TestEliminateKeepsLiveStore(t *testing.T) {
	stmts := []ir.Statement{
		ir.StoreReg{ir.RegA0, ir.Lit(5)},
	}
	out := Eliminate(stmts, region.Of(ir.RegA0))
	store, ok := out[0].(ir.StoreReg)
	if !ok || store.Reg != ir.RegA0 {
		t.Errorf("live store must survive, got %#v", out[0])
	}
}

// TestEliminateEarlierDeadStoreOverwrittenBeforeUse checks that a
// store killed by a later store to the same register (with no read
// in between) is treated as dead even when the register is live out
// of the block overall.
func TestEliminateEarlierDeadStoreOverwrittenBeforeUse(t *testing.T) {
	stmts := []ir.Statement{
		ir.StoreReg{ir.RegA0, ir.Lit(1)}, // overwritten below before any read
		ir.StoreReg{ir.RegA0, ir.Lit(2)},
	}
	out := Eliminate(stmts, region.Of(ir.RegA0))

	if _, ok := out[0].(ir.StoreReg); ok {
		t.Errorf("first store to a0 is dead (overwritten before use), got %#v", out[0])
	}
	if store, ok := out[1].(ir.StoreReg); !ok || store.Reg != ir.RegA0 {
		t.Errorf("second store to a0 is the live one, got %#v", out[1])
	}
}

// TestEliminateFreshNamesDontCollide checks that rewriting more than
// one dead store in the same block produces distinct variable names.
func TestEliminateFreshNamesDontCollide(t *testing.T) {
	stmts := []ir.Statement{
		ir.StoreReg{ir.RegA0, ir.Lit(1)},
		ir.StoreReg{ir.RegA1, ir.Lit(2)},
	}
	out := Eliminate(stmts, region.Empty)

	let0, ok0 := out[0].(ir.Let)
	let1, ok1 := out[1].(ir.Let)
	if !ok0 || !ok1 {
		t.Fatalf("expected both stores rewritten to Let, got %#v, %#v", out[0], out[1])
	}
	if let0.Name == let1.Name {
		t.Errorf("rewritten dead stores must get distinct names, both got %q", let0.Name)
	}
}
