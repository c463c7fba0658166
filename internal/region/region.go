// Package region implements the bitmap abstraction over guest
// storage (the 31 integer registers plus "any memory location") used
// to detect aliasing between reads and writes. It is modeled
// directly on obj/internal/asm's LocSet: a single machine word where
// bit 0 is memory and bits 1..31 are the registers in ir.RegName
// order, so union/difference/overlaps are all constant-time bitwise
// operations.
package region

import (
	"math/bits"

	"github.com/aclements/rvxlate/internal/ir"
)

// Region is a bitmap over the fixed universe {memory} ∪ {registers}.
// Bit 0 is memory; bit 1+r is register r.
type Region uint64

const memBit = 0

// Memory is the region denoting "any memory location".
const Memory Region = 1 << memBit

// AllRegion has every bit in the universe set, used for operations
// (like Syscall) whose effect on guest state is unconstrained.
const AllRegion Region = ^Region(0)

// Empty is the region containing nothing.
const Empty Region = 0

// Of returns the singleton region for register r.
func Of(r ir.RegName) Region {
	return 1 << (uint(r) + 1)
}

// Union returns the union of a and b.
func Union(a, b Region) Region { return a | b }

// Difference returns the elements of a not in b.
func Difference(a, b Region) Region { return a &^ b }

// Overlaps reports whether a and b share any element.
func Overlaps(a, b Region) bool { return a&b != 0 }

// IsEmpty reports whether r denotes no storage at all.
func IsEmpty(r Region) bool { return r == 0 }

// Count returns the number of registers (memory excluded) set in r;
// used only by the -dump-cfg diagnostic's heat values.
func Count(r Region) int {
	return bits.OnesCount64(uint64(Difference(r, Memory)))
}

// ReadExpr returns the read region of an expression: the set of
// guest storage an evaluation of e may observe.
func ReadExpr(e ir.Expr) Region {
	switch e := e.(type) {
	case ir.Lit, ir.Var:
		return Empty
	case ir.LoadReg:
		return Of(ir.RegName(e))
	case ir.LoadMem:
		return Union(Memory, ReadExpr(e.Addr))
	case ir.Un:
		return ReadExpr(e.X)
	case ir.Bin:
		return Union(ReadExpr(e.X), ReadExpr(e.Y))
	default:
		panic("region: unknown expression kind")
	}
}

// ReadCond returns the read region of a condition expression.
func ReadCond(c ir.CondExpr) Region {
	switch c := c.(type) {
	case ir.LitCond:
		return Empty
	case ir.BinCond:
		return Union(ReadExpr(c.X), ReadExpr(c.Y))
	default:
		panic("region: unknown condition kind")
	}
}

// Read returns the read region of a statement: the guest storage its
// execution may observe before (or instead of) writing anything.
// This is the authoritative aliasing model; §4.1 requires it be
// exact, since hazard detection (internal/simplify), liveness
// (internal/liveness) and dead-store elimination (internal/deadstore)
// all build directly on it.
func Read(s ir.Statement) Region {
	switch s := s.(type) {
	case ir.Let:
		return ReadExpr(s.RHS)
	case ir.StoreReg:
		return ReadExpr(s.Value)
	case ir.StoreMem:
		return Union(ReadExpr(s.Addr), ReadExpr(s.Value))
	case ir.Jump:
		return ReadCond(s.Cond)
	case ir.IndirectJump:
		return ReadExpr(s.Target)
	case ir.Syscall:
		return AllRegion
	case ir.Break:
		return Empty
	default:
		panic("region: unknown statement kind")
	}
}

// Write returns the write region of a statement: the guest storage
// its execution may modify.
func Write(s ir.Statement) Region {
	switch s := s.(type) {
	case ir.StoreReg:
		return Of(s.Reg)
	case ir.StoreMem:
		return Memory
	case ir.Syscall:
		return AllRegion
	default:
		return Empty
	}
}
