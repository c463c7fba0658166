package simplify

import (
	"testing"

	"github.com/aclements/rvxlate/internal/ir"
)

func TestConstPropPropagatesKnownRegister(t *testing.T) {
	stmts := []ir.Statement{
		ir.StoreReg{ir.RegA0, ir.Lit(5)},
		ir.StoreReg{ir.RegA1, ir.Bin{ir.Add, ir.LoadReg(ir.RegA0), ir.Lit(1)}},
	}

	out := ConstProp(stmts)

	store, ok := out[1].(ir.StoreReg)
	if !ok {
		t.Fatalf("out[1] = %#v, want StoreReg", out[1])
	}
	want := ir.Bin{ir.Add, ir.Lit(5), ir.Lit(1)}
	if !ir.Equal(store.Value, want) {
		t.Errorf("out[1].Value = %v, want %v", store.Value, want)
	}
}

func TestConstPropClearsOnOverwrite(t *testing.T) {
	stmts := []ir.Statement{
		ir.StoreReg{ir.RegA0, ir.Lit(5)},
		ir.StoreReg{ir.RegA0, ir.LoadReg(ir.RegA1)},
		ir.StoreReg{ir.RegA2, ir.LoadReg(ir.RegA0)},
	}

	out := ConstProp(stmts)

	store, ok := out[2].(ir.StoreReg)
	if !ok {
		t.Fatalf("out[2] = %#v, want StoreReg", out[2])
	}
	if !ir.Equal(store.Value, ir.LoadReg(ir.RegA0)) {
		t.Errorf("out[2].Value = %v, want LoadReg(a0) since a0 was reassigned to an unknown value", store.Value)
	}
}

func TestConstPropStopsAfterBlockEnd(t *testing.T) {
	stmts := []ir.Statement{
		ir.StoreReg{ir.RegA0, ir.Lit(5)},
		ir.Syscall{Continuation: 0x1000},
		ir.StoreReg{ir.RegA1, ir.LoadReg(ir.RegA0)},
	}

	out := ConstProp(stmts)

	store, ok := out[2].(ir.StoreReg)
	if !ok {
		t.Fatalf("out[2] = %#v, want StoreReg", out[2])
	}
	if !ir.Equal(store.Value, ir.LoadReg(ir.RegA0)) {
		t.Errorf("out[2].Value = %v, want LoadReg(a0) unchanged: env does not apply once the block has ended", store.Value)
	}
}
