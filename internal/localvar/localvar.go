// Package localvar implements §4.8: assigning each VarName bound in a
// block a target-language local slot index, such that two VarNames
// whose live ranges overlap never share a slot. The package exposes
// this as an Allocator interface so that an emitter backend wanting a
// different policy (e.g. one slot per name, for debuggability) can
// substitute its own without touching the rest of the pipeline.
package localvar

import (
	"sort"

	"github.com/aclements/rvxlate/internal/ir"
)

// Allocator assigns local slot indices to the VarNames of a block.
type Allocator interface {
	// Allocate returns a mapping from each VarName bound anywhere in
	// stmts to a non-negative slot index, and the number of slots
	// used.
	Allocate(stmts []ir.Statement) (slots map[ir.VarName]int, numSlots int)
}

// LinearScan is the reference Allocator described in §4.8: a range
// runs from a Let's binding statement to its last textual use in the
// block, and slots are reused greedily in address (statement index)
// order, the same way a simple single-pass register allocator walks
// a basic block.
type LinearScan struct{}

type interval struct {
	name       ir.VarName
	start, end int
}

// Allocate implements Allocator.
func (LinearScan) Allocate(stmts []ir.Statement) (map[ir.VarName]int, int) {
	intervals := computeIntervals(stmts)

	sort.Slice(intervals, func(i, j int) bool {
		return intervals[i].start < intervals[j].start
	})

	slots := make(map[ir.VarName]int, len(intervals))
	var free []int  // slots available for reuse, sorted ascending
	var active []interval // currently live, sorted by end ascending
	numSlots := 0

	for _, iv := range intervals {
		// Retire any active interval that ended before iv starts,
		// freeing its slot for reuse.
		remaining := active[:0]
		for _, a := range active {
			if a.end < iv.start {
				free = append(free, slots[a.name])
			} else {
				remaining = append(remaining, a)
			}
		}
		active = remaining
		sort.Ints(free)

		var slot int
		if len(free) > 0 {
			slot, free = free[0], free[1:]
		} else {
			slot = numSlots
			numSlots++
		}
		slots[iv.name] = slot
		active = insertByEnd(active, iv)
	}

	return slots, numSlots
}

func insertByEnd(active []interval, iv interval) []interval {
	i := sort.Search(len(active), func(i int) bool { return active[i].end >= iv.end })
	active = append(active, interval{})
	copy(active[i+1:], active[i:])
	active[i] = iv
	return active
}

// computeIntervals walks stmts to find, for each bound VarName,
// the index of its Let and the index of its last use (MapExprs over
// every later statement's Exprs/CondExprs).
func computeIntervals(stmts []ir.Statement) []interval {
	starts := make(map[ir.VarName]int)
	ends := make(map[ir.VarName]int)

	for i, s := range stmts {
		if let, ok := s.(ir.Let); ok {
			starts[let.Name] = i
			ends[let.Name] = i
		}
	}

	for i, s := range stmts {
		extend := func(v ir.VarName) {
			if _, ok := starts[v]; ok && i > ends[v] {
				ends[v] = i
			}
		}
		ir.MapExprs(s,
			func(e ir.Expr) ir.Expr { visitUses(e, extend); return e },
			func(c ir.CondExpr) ir.CondExpr { visitCondUses(c, extend); return c },
		)
	}

	out := make([]interval, 0, len(starts))
	for name, start := range starts {
		out = append(out, interval{name, start, ends[name]})
	}
	return out
}

func visitUses(e ir.Expr, f func(ir.VarName)) {
	switch e := e.(type) {
	case ir.Var:
		f(ir.VarName(e))
	case ir.LoadMem:
		visitUses(e.Addr, f)
	case ir.Un:
		visitUses(e.X, f)
	case ir.Bin:
		visitUses(e.X, f)
		visitUses(e.Y, f)
	}
}

func visitCondUses(c ir.CondExpr, f func(ir.VarName)) {
	if bc, ok := c.(ir.BinCond); ok {
		visitUses(bc.X, f)
		visitUses(bc.Y, f)
	}
}
