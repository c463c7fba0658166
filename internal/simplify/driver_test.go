package simplify

import (
	"context"
	"errors"
	"testing"

	"github.com/aclements/rvxlate/internal/ir"
)

func TestSimplifyBB1AllFoldsAcrossBlocks(t *testing.T) {
	prog := ir.Program{
		0x1000: {Entry: 0x1000, Stmts: []ir.Statement{
			ir.StoreReg{ir.RegA0, ir.Bin{ir.Add, ir.Lit(1), ir.Lit(2)}},
			ir.Break{},
		}},
		0x1004: {Entry: 0x1004, Stmts: []ir.Statement{
			ir.StoreReg{ir.RegA1, ir.Bin{ir.Mult, ir.Lit(0), ir.LoadReg(ir.RegA0)}},
			ir.Break{},
		}},
	}

	out := SimplifyBB1All(prog)

	store0 := out[0x1000].Stmts[0].(ir.StoreReg)
	if !ir.Equal(store0.Value, ir.Lit(3)) {
		t.Errorf("block 0x1000: a0 = %v, want Lit(3)", store0.Value)
	}
	store1 := out[0x1004].Stmts[0].(ir.StoreReg)
	if !ir.Equal(store1.Value, ir.Lit(0)) {
		t.Errorf("block 0x1004: a1 = %v, want Lit(0)", store1.Value)
	}
}

func TestLiftAllGivesEachBlockItsOwnNamer(t *testing.T) {
	prog := ir.Program{
		0x2000: {Entry: 0x2000, Stmts: []ir.Statement{
			ir.StoreReg{ir.RegA0, ir.Lit(1)},
			ir.StoreReg{ir.RegA1, ir.LoadReg(ir.RegA0)},
			ir.StoreReg{ir.RegA0, ir.Lit(2)},
			ir.Break{},
		}},
		0x2010: {Entry: 0x2010, Stmts: []ir.Statement{
			ir.StoreReg{ir.RegA2, ir.Lit(5)},
			ir.StoreReg{ir.RegA3, ir.LoadReg(ir.RegA2)},
			ir.StoreReg{ir.RegA2, ir.Lit(6)},
			ir.Break{},
		}},
	}

	out := LiftAll(prog)

	let0, ok := out[0x2000].Stmts[0].(ir.Let)
	if !ok {
		t.Fatalf("block 0x2000 stmt 0 = %#v, want Let", out[0x2000].Stmts[0])
	}
	let1, ok := out[0x2010].Stmts[0].(ir.Let)
	if !ok {
		t.Fatalf("block 0x2010 stmt 0 = %#v, want Let", out[0x2010].Stmts[0])
	}
	if let0.Name != let1.Name {
		t.Errorf("block namers are not independent: block 0x2000 used %q, block 0x2010 used %q, want equal since each block restarts its counter", let0.Name, let1.Name)
	}
}

func TestRunPerBlockPropagatesError(t *testing.T) {
	prog := ir.Program{
		0x3000: {Entry: 0x3000, Stmts: []ir.Statement{ir.Break{}}},
	}
	wantErr := errors.New("boom")

	_, err := RunPerBlock(context.Background(), prog, func(b ir.Block) (ir.Block, error) {
		return ir.Block{}, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("RunPerBlock error = %v, want %v", err, wantErr)
	}
}
