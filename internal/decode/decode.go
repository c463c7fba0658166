// Package decode implements the decoder side of the external
// interface named in §6: given the code chunks extracted by
// internal/elfload, produce the unsorted, possibly-duplicated list of
// indirect-jump target addresses and the ordered (Address, Statement)
// stream the core's block builder (internal/bblock) consumes.
//
// This is an illustrative decoder for a subset of the RV32I base
// instruction set (arithmetic and logic on registers and immediates,
// loads, stores, branches, jal/jalr, ecall) — enough to drive the
// pipeline end to end and exercise the builder and simplifier against
// real decoded instructions. It is explicitly not a production-grade
// RISC-V disassembler (out of scope, §1): unrecognized opcodes are
// reported rather than guessed at.
package decode

import (
	"fmt"

	"github.com/aclements/rvxlate/internal/bblock"
	"github.com/aclements/rvxlate/internal/elfload"
	"github.com/aclements/rvxlate/internal/ir"
)

// UnsupportedInstructionError reports an opcode outside the
// illustrative subset this decoder understands.
type UnsupportedInstructionError struct {
	Addr ir.Address
	Word uint32
}

func (e *UnsupportedInstructionError) Error() string {
	return fmt.Sprintf("decode: unsupported instruction %#08x at %#x", e.Word, uint32(e.Addr))
}

// Result is the decoder's output: the deduplicated-by-the-core raw
// indirect-jump target list and the flat instruction stream, in
// address order, ready for bblock.Build.
type Result struct {
	IndirectTargets []ir.Address
	Insts           []bblock.Inst
}

// Decode disassembles every code chunk of img into Result.
func Decode(img *elfload.Image) (*Result, error) {
	res := &Result{}
	for _, chunk := range img.Code {
		if err := decodeChunk(chunk, res); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func decodeChunk(chunk elfload.Chunk, res *Result) error {
	for off := 0; off+4 <= len(chunk.Data); off += 4 {
		addr := ir.Address(chunk.Addr + uint32(off))
		word := le32(chunk.Data[off:])

		stmt, target, err := decodeInst(addr, word)
		if err != nil {
			return err
		}
		res.Insts = append(res.Insts, bblock.Inst{Addr: addr, Stmt: stmt})
		if target != nil {
			res.IndirectTargets = append(res.IndirectTargets, *target)
		}
	}
	return nil
}

func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

// decodeInst decodes a single 32-bit instruction word at addr. It
// returns the IR statement it corresponds to (a Let/StoreReg/StoreMem
// for non-control-flow instructions, with the fall-through handled by
// bblock.Build's synthetic jump) and, for jalr (register-indirect
// jump-and-link), a hint address if the target happens to be
// statically known (rd == x0, rs1 a constant established by a prior
// lui — tracking that is beyond this illustrative decoder, so the
// hint is always nil here). Nothing else in the pipeline supplies
// indirect targets either (elfload does not scan the symbol table),
// so Result.IndirectTargets is always empty.
func decodeInst(addr ir.Address, word uint32) (ir.Statement, *ir.Address, error) {
	opcode := word & 0x7f
	rd := (word >> 7) & 0x1f
	funct3 := (word >> 12) & 0x7
	rs1 := (word >> 15) & 0x1f
	rs2 := (word >> 20) & 0x1f
	funct7 := (word >> 25) & 0x7f

	switch opcode {
	case 0x33: // R-type: register-register arithmetic
		op, ok := rTypeOp(funct3, funct7)
		if !ok {
			return nil, nil, &UnsupportedInstructionError{addr, word}
		}
		return storeReg(rd, ir.Bin{op, loadOrZero(rs1), loadOrZero(rs2)}), nil, nil

	case 0x13: // I-type: register-immediate arithmetic
		imm := signExtend(word>>20, 12)
		if funct3 == 0x1 || funct3 == 0x5 {
			// slli/srli/srai: shift amount is the low 5 bits of the
			// immediate field, not sign-extended.
			shamt := int32((word >> 20) & 0x1f)
			op := ir.LogicalShiftLeft
			if funct3 == 0x5 {
				if funct7>>1 == 0x10 {
					op = ir.ArithShiftRight
				} else {
					op = ir.LogicalShiftRight
				}
			}
			return storeReg(rd, ir.Bin{op, loadOrZero(rs1), ir.Lit(shamt)}), nil, nil
		}
		op, ok := iTypeOp(funct3)
		if !ok {
			return nil, nil, &UnsupportedInstructionError{addr, word}
		}
		return storeReg(rd, ir.Bin{op, loadOrZero(rs1), ir.Lit(imm)}), nil, nil

	case 0x03: // loads
		memOp, ok := loadOp(funct3)
		if !ok {
			return nil, nil, &UnsupportedInstructionError{addr, word}
		}
		imm := signExtend(word>>20, 12)
		addrExpr := ir.Bin{ir.Add, loadOrZero(rs1), ir.Lit(imm)}
		return storeReg(rd, ir.LoadMem{memOp, addrExpr}), nil, nil

	case 0x23: // stores
		memOp, ok := storeOp(funct3)
		if !ok {
			return nil, nil, &UnsupportedInstructionError{addr, word}
		}
		immHi := (word >> 25) & 0x7f
		immLo := (word >> 7) & 0x1f
		imm := signExtend((immHi<<5)|immLo, 12)
		addrExpr := ir.Bin{ir.Add, loadOrZero(rs1), ir.Lit(imm)}
		return ir.StoreMem{memOp, addrExpr, loadOrZero(rs2)}, nil, nil

	case 0x63: // branches (B-type)
		cond, ok := branchCond(funct3, rs1, rs2)
		if !ok {
			return nil, nil, &UnsupportedInstructionError{addr, word}
		}
		imm := branchImm(word)
		target := ir.Address(int64(addr) + int64(imm))
		next := addr + 4
		return ir.Jump{cond, target, next}, nil, nil

	case 0x6f: // jal
		// A jal with rd != x0 also links the return address into rd;
		// that write and the jump cannot share one Statement, and
		// this illustrative decoder does not split a machine word
		// into two IR statements (see jalr below), so only the plain
		// unconditional jump (rd == x0, the "j" pseudo-instruction)
		// is supported.
		if rd != 0 {
			return nil, nil, &UnsupportedInstructionError{addr, word}
		}
		imm := jalImm(word)
		target := ir.Address(int64(addr) + int64(imm))
		return ir.Jump{ir.LitCond(true), target, target}, nil, nil

	case 0x67: // jalr
		imm := signExtend(word>>20, 12)
		targetExpr := ir.Bin{ir.Add, loadOrZero(rs1), ir.Lit(imm)}
		if rd == 0 {
			return ir.IndirectJump{targetExpr}, nil, nil
		}
		// rd != 0 (a call through a function pointer): the link
		// value must be stored before the jump, which would need two
		// IR statements at two addresses. Unsupported by this
		// illustrative decoder; see the jal case above.
		return nil, nil, &UnsupportedInstructionError{addr, word}

	case 0x73: // ecall/ebreak
		if word == 0x00000073 {
			return ir.Syscall{addr + 4}, nil, nil
		}
		if word == 0x00100073 {
			return ir.Break{}, nil, nil
		}
		return nil, nil, &UnsupportedInstructionError{addr, word}

	case 0x37: // lui
		imm := int32(word & 0xfffff000)
		return storeReg(rd, ir.Lit(imm)), nil, nil

	case 0x17: // auipc
		imm := int32(word & 0xfffff000)
		return storeReg(rd, ir.Lit(int32(addr)+imm)), nil, nil

	default:
		return nil, nil, &UnsupportedInstructionError{addr, word}
	}
}

// reg converts a raw 5-bit RISC-V register field (0 = the hardwired
// zero register x0, 1..31 = x1..x31) to the RegName x1..x31 map onto:
// since RegName elides x0, RegName n corresponds to raw register
// n+1 (§3's RegName doc comment).
func reg(raw uint32) (r ir.RegName, isZero bool) {
	if raw == 0 {
		return 0, true
	}
	return ir.RegName(raw - 1), false
}

func loadOrZero(raw uint32) ir.Expr {
	r, isZero := reg(raw)
	if isZero {
		return ir.Lit(0)
	}
	return ir.LoadReg(r)
}

func storeReg(raw uint32, e ir.Expr) ir.Statement {
	r, isZero := reg(raw)
	if isZero {
		// Writes to x0 are discarded by the ISA; represent as a
		// no-op Let of a name nothing reads, rather than a StoreReg
		// the emitter would have to special-case.
		return ir.Let{"x0_sink", e}
	}
	return ir.StoreReg{r, e}
}

func signExtend(v uint32, bits uint) int32 {
	shift := 32 - bits
	return int32(v<<shift) >> shift
}

func rTypeOp(funct3, funct7 uint32) (ir.BinOp, bool) {
	if funct7 != 0 && !(funct7 == 0x20 && (funct3 == 0x0 || funct3 == 0x5)) {
		return 0, false
	}
	switch funct3 {
	case 0x0:
		if funct7 == 0x20 {
			return ir.Sub, true
		}
		return ir.Add, true
	case 0x1:
		return ir.LogicalShiftLeft, true
	case 0x2:
		return ir.SetIfLess, true
	case 0x3:
		return ir.SetIfLessU, true
	case 0x4:
		return ir.Xor, true
	case 0x5:
		if funct7 == 0x20 {
			return ir.ArithShiftRight, true
		}
		return ir.LogicalShiftRight, true
	case 0x6:
		return ir.Or, true
	case 0x7:
		return ir.And, true
	}
	return 0, false
}

func iTypeOp(funct3 uint32) (ir.BinOp, bool) {
	switch funct3 {
	case 0x0:
		return ir.Add, true
	case 0x2:
		return ir.SetIfLess, true
	case 0x3:
		return ir.SetIfLessU, true
	case 0x4:
		return ir.Xor, true
	case 0x6:
		return ir.Or, true
	case 0x7:
		return ir.And, true
	}
	return 0, false
}

func loadOp(funct3 uint32) (ir.MemOp, bool) {
	switch funct3 {
	case 0x0:
		return ir.MemByte, true
	case 0x1:
		return ir.MemHalf, true
	case 0x2:
		return ir.MemWord, true
	case 0x4:
		return ir.MemByteU, true
	case 0x5:
		return ir.MemHalfU, true
	}
	return 0, false
}

func storeOp(funct3 uint32) (ir.MemOp, bool) {
	switch funct3 {
	case 0x0:
		return ir.MemByte, true
	case 0x1:
		return ir.MemHalf, true
	case 0x2:
		return ir.MemWord, true
	}
	return 0, false
}

func branchCond(funct3 uint32, rs1, rs2 uint32) (ir.CondExpr, bool) {
	x, y := loadOrZero(rs1), loadOrZero(rs2)
	switch funct3 {
	case 0x0:
		return ir.BinCond{ir.Equal, x, y}, true
	case 0x1:
		return ir.BinCond{ir.NotEqual, x, y}, true
	case 0x4:
		return ir.BinCond{ir.LessThan, x, y}, true
	case 0x5:
		return ir.BinCond{ir.GtrEqual, x, y}, true
	case 0x6:
		return ir.BinCond{ir.LessThanU, x, y}, true
	case 0x7:
		return ir.BinCond{ir.GtrEqualU, x, y}, true
	}
	return nil, false
}

func branchImm(word uint32) int32 {
	b12 := (word >> 31) & 0x1
	b11 := (word >> 7) & 0x1
	b10_5 := (word >> 25) & 0x3f
	b4_1 := (word >> 8) & 0xf
	raw := (b12 << 12) | (b11 << 11) | (b10_5 << 5) | (b4_1 << 1)
	return signExtend(raw, 13)
}

func jalImm(word uint32) int32 {
	b20 := (word >> 31) & 0x1
	b19_12 := (word >> 12) & 0xff
	b11 := (word >> 20) & 0x1
	b10_1 := (word >> 21) & 0x3ff
	raw := (b20 << 20) | (b19_12 << 12) | (b11 << 11) | (b10_1 << 1)
	return signExtend(raw, 21)
}
