package simplify

import (
	"testing"

	"github.com/aclements/rvxlate/internal/ir"
)

func TestLiftNonFinalStoresRewritesInterveningReads(t *testing.T) {
	stmts := []ir.Statement{
		ir.StoreReg{ir.RegA0, ir.Lit(1)},
		ir.StoreReg{ir.RegA1, ir.LoadReg(ir.RegA0)},
		ir.StoreReg{ir.RegA0, ir.Lit(2)},
		ir.StoreReg{ir.RegA2, ir.LoadReg(ir.RegA0)},
	}

	out := LiftNonFinalStores(stmts, &Namer{})

	let, ok := out[0].(ir.Let)
	if !ok {
		t.Fatalf("out[0] = %#v, want Let", out[0])
	}
	if !ir.Equal(let.RHS, ir.Lit(1)) {
		t.Errorf("out[0].RHS = %v, want Lit(1)", let.RHS)
	}

	store1, ok := out[1].(ir.StoreReg)
	if !ok {
		t.Fatalf("out[1] = %#v, want StoreReg", out[1])
	}
	if !ir.Equal(store1.Value, ir.Var(let.Name)) {
		t.Errorf("out[1].Value = %v, want Var(%s)", store1.Value, let.Name)
	}

	store2, ok := out[2].(ir.StoreReg)
	if !ok || store2.Reg != ir.RegA0 || !ir.Equal(store2.Value, ir.Lit(2)) {
		t.Errorf("out[2] = %#v, want unchanged final store of a0 := 2", out[2])
	}

	store3, ok := out[3].(ir.StoreReg)
	if !ok || store3.Reg != ir.RegA2 || !ir.Equal(store3.Value, ir.LoadReg(ir.RegA0)) {
		t.Errorf("out[3] = %#v, want unchanged read of a0 after its final store", out[3])
	}
}

func TestLiftNonFinalStoresLeavesFinalStoreAlone(t *testing.T) {
	stmts := []ir.Statement{
		ir.StoreReg{ir.RegA0, ir.Lit(1)},
	}

	out := LiftNonFinalStores(stmts, &Namer{})

	if _, ok := out[0].(ir.Let); ok {
		t.Errorf("out[0] = %#v, a store with no later store of the same register must not be lifted", out[0])
	}
}
