// Package emit implements the emitter side of the external interface
// named in §6: given the simplified block map, the set of
// indirect-jump targets, the data chunks, the entry address, and the
// program break, produce target-language source text. Local slots are
// assigned here, per block, with localvar.LinearScan. This
// implementation targets a small C-like dialect: the register file and guest memory are arrays, each basic block becomes
// a free function, and indirect jumps thread control through a
// switch over block addresses. The core makes no assumptions about
// this syntax (§6); a different emitter could replace this package
// entirely without touching internal/ir, internal/simplify, or
// internal/driver.
package emit

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aclements/rvxlate/internal/elfload"
	"github.com/aclements/rvxlate/internal/ir"
	"github.com/aclements/rvxlate/internal/localvar"
)

// Program is everything the emitter needs, matching §6's "produced"
// interface.
type Program struct {
	Blocks          ir.Program
	IndirectTargets []ir.Address
	Data            []elfload.Chunk
	Entry           ir.Address
	ProgramBreak    uint32
}

// Emit renders p as a (header, implementation) pair of C-like source
// files.
func Emit(p Program) (header, impl string, err error) {
	addrs := sortedAddrs(p.Blocks)

	var h, b strings.Builder

	fmt.Fprintln(&h, "// Code generated by rvxlate. DO NOT EDIT.")
	fmt.Fprintln(&h, "#ifndef RVXLATE_OUT_H")
	fmt.Fprintln(&h, "#define RVXLATE_OUT_H")
	fmt.Fprintln(&h, "#include <stdint.h>")
	fmt.Fprintln(&h)
	fmt.Fprintf(&h, "#define RVXLATE_NUM_REGS %d\n", ir.NumRegs)
	fmt.Fprintf(&h, "#define RVXLATE_ENTRY 0x%xu\n", uint32(p.Entry))
	fmt.Fprintf(&h, "#define RVXLATE_PROGRAM_BREAK 0x%xu\n", p.ProgramBreak)
	fmt.Fprintln(&h, "extern uint32_t rvxlate_regs[RVXLATE_NUM_REGS];")
	fmt.Fprintln(&h, "extern uint8_t *rvxlate_mem;")
	fmt.Fprintln(&h, "void rvxlate_run(void);")
	fmt.Fprintln(&h, "#endif")

	fmt.Fprintln(&b, "// Code generated by rvxlate. DO NOT EDIT.")
	fmt.Fprintln(&b, `#include "out.h"`)
	fmt.Fprintln(&b, `#include <string.h>`)
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "uint32_t rvxlate_regs[RVXLATE_NUM_REGS];")
	fmt.Fprintln(&b, "uint8_t *rvxlate_mem;")
	fmt.Fprintln(&b)

	emitDataSection(&b, p.Data)

	for _, a := range addrs {
		fmt.Fprintf(&b, "static uint32_t block_%#x(void);\n", uint32(a))
	}
	fmt.Fprintln(&b)

	for _, a := range addrs {
		blk := p.Blocks[a]
		slots, numSlots := localvar.LinearScan{}.Allocate(blk.Stmts)
		if err := emitBlock(&b, a, blk, slots, numSlots); err != nil {
			return "", "", err
		}
	}

	emitDispatch(&b, addrs, p.Entry)

	return h.String(), b.String(), nil
}

func sortedAddrs(prog ir.Program) []ir.Address {
	addrs := make([]ir.Address, 0, len(prog))
	for a := range prog {
		addrs = append(addrs, a)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	return addrs
}

func emitDataSection(b *strings.Builder, chunks []elfload.Chunk) {
	for i, c := range chunks {
		fmt.Fprintf(b, "static const uint8_t data_%d[%d] = {", i, len(c.Data))
		for j, by := range c.Data {
			if j > 0 {
				fmt.Fprint(b, ",")
			}
			fmt.Fprintf(b, "%d", by)
		}
		fmt.Fprintln(b, "};")
		fmt.Fprintf(b, "// loaded at %#x\n", c.Addr)
	}
	fmt.Fprintln(b)
}

// emitBlock writes one free function per basic block. The function
// returns the address of the next block to run (the dispatch loop in
// rvxlate_run reads this), which is how the switch-threaded control
// flow named in §6's emitter interface is realized without a jump
// table that the C dialect would need computed-goto extensions for.
func emitBlock(b *strings.Builder, addr ir.Address, blk ir.Block, slots map[ir.VarName]int, numSlots int) error {
	fmt.Fprintf(b, "static uint32_t block_%#x(void) {\n", uint32(addr))
	if numSlots > 0 {
		fmt.Fprintf(b, "  uint32_t local[%d];\n", numSlots)
	}
	for _, s := range blk.Stmts {
		line, err := emitStatement(s, slots)
		if err != nil {
			return err
		}
		fmt.Fprintf(b, "  %s\n", line)
	}
	fmt.Fprintln(b, "}")
	fmt.Fprintln(b)
	return nil
}

func emitStatement(s ir.Statement, slots map[ir.VarName]int) (string, error) {
	switch s := s.(type) {
	case ir.Let:
		return fmt.Sprintf("local[%d] = %s; /* %s */", slots[s.Name], emitExpr(s.RHS, slots), s.Name), nil
	case ir.StoreReg:
		return fmt.Sprintf("rvxlate_regs[%d] = %s;", int(s.Reg), emitExpr(s.Value, slots)), nil
	case ir.StoreMem:
		return fmt.Sprintf("%s;", emitMemStore(s, slots)), nil
	case ir.Jump:
		return fmt.Sprintf("return (%s) ? 0x%xu : 0x%xu;", emitCond(s.Cond, slots), uint32(s.Then), uint32(s.Else)), nil
	case ir.IndirectJump:
		return fmt.Sprintf("return %s;", emitExpr(s.Target, slots)), nil
	case ir.Syscall:
		return fmt.Sprintf("rvxlate_syscall(); return 0x%xu;", uint32(s.Continuation)), nil
	case ir.Break:
		return "rvxlate_break(); return 0;", nil
	default:
		return "", fmt.Errorf("emit: unknown statement kind %T", s)
	}
}

func emitMemStore(s ir.StoreMem, slots map[ir.VarName]int) string {
	addr := emitExpr(s.Addr, slots)
	val := emitExpr(s.Value, slots)
	switch s.Op {
	case ir.MemByte, ir.MemByteU:
		return fmt.Sprintf("*(uint8_t *)(rvxlate_mem + (%s)) = (uint8_t)(%s)", addr, val)
	case ir.MemHalf, ir.MemHalfU:
		return fmt.Sprintf("*(uint16_t *)(rvxlate_mem + (%s)) = (uint16_t)(%s)", addr, val)
	default:
		return fmt.Sprintf("*(uint32_t *)(rvxlate_mem + (%s)) = (uint32_t)(%s)", addr, val)
	}
}

func emitExpr(e ir.Expr, slots map[ir.VarName]int) string {
	switch e := e.(type) {
	case ir.Lit:
		return fmt.Sprintf("(int32_t)0x%xu", uint32(int32(e)))
	case ir.Var:
		return fmt.Sprintf("local[%d]", slots[ir.VarName(e)])
	case ir.LoadReg:
		return fmt.Sprintf("rvxlate_regs[%d]", int(e))
	case ir.LoadMem:
		return emitMemLoad(e, slots)
	case ir.Un:
		return fmt.Sprintf("(%s(%s))", unOp(e.Op), emitExpr(e.X, slots))
	case ir.Bin:
		return emitBin(e, slots)
	default:
		return "/* unknown expr */0"
	}
}

func emitMemLoad(e ir.LoadMem, slots map[ir.VarName]int) string {
	addr := emitExpr(e.Addr, slots)
	switch e.Op {
	case ir.MemByte:
		return fmt.Sprintf("(int32_t)*(int8_t *)(rvxlate_mem + (%s))", addr)
	case ir.MemByteU:
		return fmt.Sprintf("(int32_t)*(uint8_t *)(rvxlate_mem + (%s))", addr)
	case ir.MemHalf:
		return fmt.Sprintf("(int32_t)*(int16_t *)(rvxlate_mem + (%s))", addr)
	case ir.MemHalfU:
		return fmt.Sprintf("(int32_t)*(uint16_t *)(rvxlate_mem + (%s))", addr)
	default:
		return fmt.Sprintf("(int32_t)*(uint32_t *)(rvxlate_mem + (%s))", addr)
	}
}

func unOp(op ir.UnOp) string {
	if op == ir.Not {
		return "~"
	}
	return "-"
}

// emitBin renders a binary expression, falling back to a helper call
// for the handful of operators (division/remainder, the high-word
// multiplies, the set-if-less comparisons) C's operators do not
// express with RISC-V-exact semantics.
func emitBin(e ir.Bin, slots map[ir.VarName]int) string {
	x, y := emitExpr(e.X, slots), emitExpr(e.Y, slots)
	switch e.Op {
	case ir.Add:
		return fmt.Sprintf("((int32_t)((uint32_t)(%s) + (uint32_t)(%s)))", x, y)
	case ir.Sub:
		return fmt.Sprintf("((int32_t)((uint32_t)(%s) - (uint32_t)(%s)))", x, y)
	case ir.Mult:
		return fmt.Sprintf("((int32_t)((uint32_t)(%s) * (uint32_t)(%s)))", x, y)
	case ir.And:
		return fmt.Sprintf("((%s) & (%s))", x, y)
	case ir.Or:
		return fmt.Sprintf("((%s) | (%s))", x, y)
	case ir.Xor:
		return fmt.Sprintf("((%s) ^ (%s))", x, y)
	case ir.LogicalShiftLeft:
		return fmt.Sprintf("((int32_t)((uint32_t)(%s) << ((%s) & 31)))", x, y)
	case ir.LogicalShiftRight:
		return fmt.Sprintf("((int32_t)((uint32_t)(%s) >> ((%s) & 31)))", x, y)
	case ir.ArithShiftRight:
		return fmt.Sprintf("((%s) >> ((%s) & 31))", x, y)
	default:
		return fmt.Sprintf("rvxlate_%s(%s, %s)", binHelperName(e.Op), x, y)
	}
}

func binHelperName(op ir.BinOp) string {
	switch op {
	case ir.MultHi:
		return "mulh"
	case ir.MultHiU:
		return "mulhu"
	case ir.Quot:
		return "div"
	case ir.QuotU:
		return "divu"
	case ir.Rem:
		return "rem"
	case ir.RemU:
		return "remu"
	case ir.SetIfLess:
		return "slt"
	case ir.SetIfLessU:
		return "sltu"
	default:
		return "unknown_op"
	}
}

func emitCond(c ir.CondExpr, slots map[ir.VarName]int) string {
	switch c := c.(type) {
	case ir.LitCond:
		if bool(c) {
			return "1"
		}
		return "0"
	case ir.BinCond:
		x, y := emitExpr(c.X, slots), emitExpr(c.Y, slots)
		switch c.Op {
		case ir.Equal:
			return fmt.Sprintf("(%s) == (%s)", x, y)
		case ir.NotEqual:
			return fmt.Sprintf("(%s) != (%s)", x, y)
		case ir.LessThan:
			return fmt.Sprintf("(%s) < (%s)", x, y)
		case ir.GtrEqual:
			return fmt.Sprintf("(%s) >= (%s)", x, y)
		case ir.LessThanU:
			return fmt.Sprintf("(uint32_t)(%s) < (uint32_t)(%s)", x, y)
		case ir.GtrEqualU:
			return fmt.Sprintf("(uint32_t)(%s) >= (uint32_t)(%s)", x, y)
		}
	}
	return "0"
}

// emitDispatch writes the rvxlate_run entry point: a trampoline loop
// that calls the current block's function and jumps to whatever
// address it returns, via a dense switch. Direct successors never
// need this indirection, but an IndirectJump's target is only known
// at runtime, so every block's continuation is threaded through the
// same switch for uniformity.
func emitDispatch(b *strings.Builder, addrs []ir.Address, entry ir.Address) {
	fmt.Fprintln(b, "void rvxlate_run(void) {")
	fmt.Fprintf(b, "  uint32_t pc = 0x%xu;\n", uint32(entry))
	fmt.Fprintln(b, "  for (;;) {")
	fmt.Fprintln(b, "    switch (pc) {")
	for _, a := range addrs {
		fmt.Fprintf(b, "    case 0x%xu: pc = block_%#x(); break;\n", uint32(a), uint32(a))
	}
	fmt.Fprintln(b, "    default: return;")
	fmt.Fprintln(b, "    }")
	fmt.Fprintln(b, "  }")
	fmt.Fprintln(b, "}")
}
