// Package deadstore implements §4.6: given a block and the liveness
// result for its exit, rewrite every StoreReg whose register is not
// live at the point of the store into a Let of a fresh, never-read
// variable, so that simplifyBB1's substitution pass, which drops a
// Let referenced at most once, removes it together with whatever
// expression computed a value nobody uses.
package deadstore

import (
	"github.com/aclements/rvxlate/internal/ir"
	"github.com/aclements/rvxlate/internal/region"
	"github.com/aclements/rvxlate/internal/simplify"
)

// Eliminate rewrites the dead stores of stmts, given liveOut, the
// region live at the end of the block (i.e. liveness.InOut.Out for
// this block).
func Eliminate(stmts []ir.Statement, liveOut region.Region) []ir.Statement {
	// live is, at each point during the backward walk, the region
	// that is live immediately after the statement currently being
	// visited.
	live := liveOut

	out := make([]ir.Statement, len(stmts))
	copy(out, stmts)

	var namer simplify.Namer
	for i := len(out) - 1; i >= 0; i-- {
		s := out[i]
		wr := region.Write(s)

		if store, ok := s.(ir.StoreReg); ok && !region.Overlaps(live, region.Of(store.Reg)) {
			out[i] = ir.Let{namer.Next("dead_var"), store.Value}
		}

		rd := region.Read(s)
		live = region.Union(region.Difference(live, wr), rd)
	}
	return out
}

// EliminateAll applies Eliminate to every block of prog using the
// exit region recorded in exit for that block's address.
func EliminateAll(prog ir.Program, exit func(ir.Address) region.Region) ir.Program {
	out := make(ir.Program, len(prog))
	for addr, b := range prog {
		out[addr] = ir.Block{Entry: b.Entry, Stmts: Eliminate(b.Stmts, exit(addr))}
	}
	return out
}
