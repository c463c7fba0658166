package emit

import (
	"strings"
	"testing"

	"github.com/aclements/rvxlate/internal/elfload"
	"github.com/aclements/rvxlate/internal/ir"
)

func simpleProgram() Program {
	return Program{
		Blocks: ir.Program{
			0: ir.Block{Entry: 0, Stmts: []ir.Statement{
				ir.StoreReg{ir.RegA0, ir.Bin{ir.Add, ir.LoadReg(ir.RegA1), ir.Lit(1)}},
				ir.Jump{ir.LitCond(true), 4, 4},
			}},
			4: ir.Block{Entry: 4, Stmts: []ir.Statement{
				ir.Break{},
			}},
		},
		Data:         []elfload.Chunk{{Addr: 0x2000, Data: []byte{1, 2, 3}}},
		Entry:        0,
		ProgramBreak: 0x3000,
	}
}

func TestEmitHeaderDeclaresConstants(t *testing.T) {
	header, _, err := Emit(simpleProgram())
	if err != nil {
		t.Fatalf("Emit error: %v", err)
	}
	for _, want := range []string{
		"RVXLATE_NUM_REGS",
		"RVXLATE_ENTRY 0x0u",
		"RVXLATE_PROGRAM_BREAK 0x3000u",
		"void rvxlate_run(void);",
	} {
		if !strings.Contains(header, want) {
			t.Errorf("header missing %q:\n%s", want, header)
		}
	}
}

func TestEmitImplDeclaresOneFunctionPerBlock(t *testing.T) {
	_, impl, err := Emit(simpleProgram())
	if err != nil {
		t.Fatalf("Emit error: %v", err)
	}
	for _, want := range []string{
		"static uint32_t block_0x0(void) {",
		"static uint32_t block_0x4(void) {",
		"case 0x0u: pc = block_0x0(); break;",
		"case 0x4u: pc = block_0x4(); break;",
		"rvxlate_break(); return 0;",
	} {
		if !strings.Contains(impl, want) {
			t.Errorf("impl missing %q:\n%s", want, impl)
		}
	}
}

func TestEmitDataSectionIncludesBytes(t *testing.T) {
	_, impl, err := Emit(simpleProgram())
	if err != nil {
		t.Fatalf("Emit error: %v", err)
	}
	if !strings.Contains(impl, "1,2,3") {
		t.Errorf("impl missing data bytes:\n%s", impl)
	}
	if !strings.Contains(impl, "// loaded at 0x2000") {
		t.Errorf("impl missing data chunk address comment:\n%s", impl)
	}
}

func TestEmitUnsupportedHelperCallFallback(t *testing.T) {
	p := Program{
		Blocks: ir.Program{
			0: ir.Block{Entry: 0, Stmts: []ir.Statement{
				ir.StoreReg{ir.RegA0, ir.Bin{ir.Quot, ir.LoadReg(ir.RegA1), ir.LoadReg(ir.RegA2)}},
				ir.Break{},
			}},
		},
	}
	_, impl, err := Emit(p)
	if err != nil {
		t.Fatalf("Emit error: %v", err)
	}
	if !strings.Contains(impl, "rvxlate_div(") {
		t.Errorf("division must fall back to the rvxlate_div helper, impl:\n%s", impl)
	}
}
