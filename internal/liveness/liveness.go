// Package liveness implements the backward iterative dataflow of
// §4.5: per block, (in, out) Region pairs computed from gen/kill sets
// and the block's direct/indirect/syscall successors. The iteration
// order follows obj/internal/graph's reverse-post-order traversal
// (as rtcheck/live.go's backward walk over *ssa.BasicBlock.Preds
// does for a different dataflow problem) purely to converge faster;
// the fixed point itself does not depend on visitation order, since
// every update is monotone in the Region lattice.
package liveness

import (
	"sort"

	"github.com/aclements/rvxlate/internal/bblock"
	"github.com/aclements/rvxlate/internal/graph"
	"github.com/aclements/rvxlate/internal/ir"
	"github.com/aclements/rvxlate/internal/region"
)

// InOut holds the live-in and live-out regions computed for a block.
type InOut struct {
	In, Out region.Region
}

// Result maps each block's entry Address to its computed InOut.
type Result map[ir.Address]InOut

type genKill struct {
	gen, kill region.Region
}

// blockGenKill folds stmts from last to first: gen := (gen \ wr) ∪
// rd, kill := kill ∪ wr for each statement's read/write region.
func blockGenKill(stmts []ir.Statement) genKill {
	var gk genKill
	for i := len(stmts) - 1; i >= 0; i-- {
		rd, wr := region.Read(stmts[i]), region.Write(stmts[i])
		gk.gen = region.Union(region.Difference(gk.gen, wr), rd)
		gk.kill = region.Union(gk.kill, wr)
	}
	return gk
}

// fullPostOrder returns a post-order covering every node in [0, n),
// running graph.PostOrder from each node not yet reached by a
// previous root. The basic-block graph is not necessarily connected
// under direct edges alone (indirect-jump targets have no direct
// predecessor), so a single-root traversal would silently skip them.
func fullPostOrder(g graph.Graph, n int) []int {
	visited := make([]bool, n)
	var out []int
	for root := 0; root < n; root++ {
		if visited[root] {
			continue
		}
		for _, node := range graph.PostOrder(g, root) {
			if !visited[node] {
				visited[node] = true
				out = append(out, node)
			}
		}
	}
	return out
}

type successors struct {
	direct   []ir.Address
	indirect bool
}

func blockSuccessors(b ir.Block) successors {
	if len(b.Stmts) == 0 {
		return successors{}
	}
	switch t := b.Stmts[len(b.Stmts)-1].(type) {
	case ir.Jump:
		return successors{direct: bblock.DirectSuccessors(b)}
	case ir.IndirectJump:
		return successors{indirect: true}
	case ir.Syscall:
		return successors{direct: []ir.Address{t.Continuation}, indirect: true}
	case ir.Break:
		return successors{}
	default:
		return successors{}
	}
}

// Analyze runs liveness to a fixed point over prog.
// indirectTargets is the global set of addresses reachable via
// computed jumps; every iteration's "indirect-in" region is the union
// of the live-in regions of exactly those blocks (§4.5).
func Analyze(prog ir.Program, indirectTargets []ir.Address) Result {
	addrs := bblock.SortedAddrs(prog)
	g := bblock.Graph(prog, addrs)

	index := make(map[ir.Address]int, len(addrs))
	for i, a := range addrs {
		index[a] = i
	}

	gk := make([]genKill, len(addrs))
	succ := make([]successors, len(addrs))
	for i, a := range addrs {
		b := prog[a]
		gk[i] = blockGenKill(b.Stmts)
		succ[i] = blockSuccessors(b)
	}

	indirectIdx := make([]int, 0, len(indirectTargets))
	seen := make(map[int]bool)
	for _, a := range indirectTargets {
		if i, ok := index[a]; ok && !seen[i] {
			seen[i] = true
			indirectIdx = append(indirectIdx, i)
		}
	}
	sort.Ints(indirectIdx)

	in := make([]region.Region, len(addrs))
	out := make([]region.Region, len(addrs))

	// Reverse post-order over the direct-edge graph gives the
	// fastest-converging visitation order for this backward
	// problem in the common (reducible, mostly-forward) case;
	// correctness does not depend on it. Indirect-jump targets are
	// not reachable from any single root by construction, so the
	// traversal runs from every node not yet visited rather than
	// graph.PostOrder's single root, to guarantee every block is
	// still iterated at least once per round.
	rpo := graph.Reverse(fullPostOrder(g, len(addrs)))

	for {
		changed := false
		indirectIn := region.Empty
		for _, i := range indirectIdx {
			indirectIn = region.Union(indirectIn, in[i])
		}

		for _, i := range rpo {
			newIn := region.Union(region.Difference(out[i], gk[i].kill), gk[i].gen)

			newOut := region.Empty
			for _, d := range succ[i].direct {
				if j, ok := index[d]; ok {
					newOut = region.Union(newOut, in[j])
				}
			}
			if succ[i].indirect {
				newOut = region.Union(newOut, indirectIn)
			}

			if newIn != in[i] || newOut != out[i] {
				changed = true
			}
			in[i], out[i] = newIn, newOut
		}

		if !changed {
			break
		}
	}

	result := make(Result, len(addrs))
	for i, a := range addrs {
		result[a] = InOut{in[i], out[i]}
	}
	return result
}
