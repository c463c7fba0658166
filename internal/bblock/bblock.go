// Package bblock partitions a flat, address-ordered instruction
// stream into the basic-block map (ir.Program) the rest of the
// mid-end operates on. The block-start rules follow obj/internal/asm's
// BasicBlocks function closely (every block start becomes a block; no
// reachability scan is done), with RISC-V's implicit fall-through (rather than x86's explicit "next
// instruction" edge) resolved by synthesizing an unconditional Jump.
package bblock

import (
	"fmt"
	"sort"

	"github.com/aclements/rvxlate/internal/graph"
	"github.com/aclements/rvxlate/internal/ir"
)

// Inst pairs a decoded statement with the guest address it starts
// at, the shape the decoder interface (§6) produces.
type Inst struct {
	Addr ir.Address
	Stmt ir.Statement
}

// Build partitions insts (in ascending Addr order) into basic blocks.
// indirectTargets is the global, possibly-duplicated set of addresses
// reachable via computed jumps; Build deduplicates it. Build fails if
// a Jump's direct target has no corresponding instruction address
// (the UnknownJumpTarget error of §7).
func Build(insts []Inst, indirectTargets []ir.Address) (ir.Program, error) {
	if len(insts) == 0 {
		return nil, fmt.Errorf("bblock: empty instruction stream")
	}

	indirectSet := make(map[ir.Address]bool, len(indirectTargets))
	for _, a := range indirectTargets {
		indirectSet[a] = true
	}

	addrIndex := make(map[ir.Address]int, len(insts))
	for i, inst := range insts {
		addrIndex[inst.Addr] = i
	}

	// A new block starts at the first instruction, at any
	// indirect-jump target, and immediately after a terminator.
	starts := map[ir.Address]bool{insts[0].Addr: true}
	for a := range indirectSet {
		if _, ok := addrIndex[a]; ok {
			starts[a] = true
		}
	}
	for i, inst := range insts {
		if inst.Stmt.Terminator() && i+1 < len(insts) {
			starts[insts[i+1].Addr] = true
		}
	}

	// Validate direct Jump targets up front so a malformed
	// decoder stream is reported uniformly regardless of which
	// block would have referenced it.
	for _, inst := range insts {
		j, ok := inst.Stmt.(ir.Jump)
		if !ok {
			continue
		}
		for _, target := range [2]ir.Address{j.Then, j.Else} {
			if _, ok := addrIndex[target]; !ok {
				return nil, fmt.Errorf("bblock: jump at %#x has unknown target %#x", inst.Addr, target)
			}
		}
	}

	startAddrs := make([]ir.Address, 0, len(starts))
	for a := range starts {
		startAddrs = append(startAddrs, a)
	}
	sort.Slice(startAddrs, func(i, j int) bool { return startAddrs[i] < startAddrs[j] })

	prog := make(ir.Program, len(startAddrs))
	for i, start := range startAddrs {
		startIdx := addrIndex[start]
		endIdx := len(insts)
		if i+1 < len(startAddrs) {
			endIdx = addrIndex[startAddrs[i+1]]
		}

		stmts := make([]ir.Statement, 0, endIdx-startIdx)
		closed := false
		for k := startIdx; k < endIdx; k++ {
			stmts = append(stmts, insts[k].Stmt)
			if insts[k].Stmt.Terminator() {
				closed = true
				break
			}
		}
		if !closed {
			// Fall-through into the next entry: close with
			// a synthetic always-taken jump (§4.2).
			next := startAddrs[i+1]
			stmts = append(stmts, ir.Jump{ir.LitCond(true), next, next})
		}
		prog[start] = ir.Block{Entry: start, Stmts: stmts}
	}

	return prog, nil
}

// Graph adapts a Program's direct-jump edges to graph.BiGraph, using
// order as the dense node numbering (order[i] is the Address of node
// i). Indirect jumps contribute no edges here, and a Syscall
// contributes only the edge to its continuation; liveness
// (internal/liveness) handles the indirect successor of IndirectJump
// and Syscall itself since it is whole-program rather than a simple
// CFG edge.
func Graph(prog ir.Program, order []ir.Address) graph.BiGraph {
	index := make(map[ir.Address]int, len(order))
	for i, a := range order {
		index[a] = i
	}
	g := make(graph.IntGraph, len(order))
	for i, a := range order {
		for _, succ := range DirectSuccessors(prog[a]) {
			if j, ok := index[succ]; ok {
				g[i] = append(g[i], j)
			}
		}
	}
	return graph.MakeBiGraph(g)
}

// DirectSuccessors returns the direct successor addresses of b's
// terminator: the feasible targets of a Jump, or the continuation of
// a Syscall. Indirect successors are not included.
func DirectSuccessors(b ir.Block) []ir.Address {
	if len(b.Stmts) == 0 {
		return nil
	}
	switch t := b.Stmts[len(b.Stmts)-1].(type) {
	case ir.Jump:
		switch cond := t.Cond.(type) {
		case ir.LitCond:
			if bool(cond) {
				return []ir.Address{t.Then}
			}
			return []ir.Address{t.Else}
		default:
			if t.Then == t.Else {
				return []ir.Address{t.Then}
			}
			return []ir.Address{t.Then, t.Else}
		}
	case ir.Syscall:
		return []ir.Address{t.Continuation}
	default:
		return nil
	}
}

// SortedAddrs returns the keys of prog in ascending order, the
// canonical iteration order for deterministic, reproducible output
// (§5, §9 of the design).
func SortedAddrs(prog ir.Program) []ir.Address {
	addrs := make([]ir.Address, 0, len(prog))
	for a := range prog {
		addrs = append(addrs, a)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	return addrs
}
