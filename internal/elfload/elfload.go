// Package elfload loads a 32-bit RISC-V ELF executable into the flat
// code/data chunks the decoder (internal/decode) and core pipeline
// need. It is the one ambient concern left on the standard library's
// debug/elf: the retrieved reference pack carries no third-party ELF
// parser for any architecture, so there is nothing in the corpus to
// ground a replacement on (see DESIGN.md).
package elfload

import (
	"debug/elf"
	"fmt"
	"io"
)

// MalformedInputError reports an ELF that is not a loadable 32-bit
// RISC-V executable.
type MalformedInputError struct {
	Path   string
	Reason string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("elfload: %s: %s", e.Path, e.Reason)
}

// Chunk is a contiguous loadable span of an ELF segment.
type Chunk struct {
	Addr uint32
	Data []byte
	// Exec is true for segments with the executable flag, i.e. code
	// the decoder should disassemble rather than treat as data.
	Exec bool
}

// Image is the loaded, architecture-checked contents of the ELF
// needed downstream: its loadable segments split into code and data
// chunks, its entry address, and the initial program break (the end
// of the highest loadable segment, rounded up, per the Unix
// convention the emitter's runtime memory model follows).
type Image struct {
	Entry        uint32
	Code         []Chunk
	Data         []Chunk
	ProgramBreak uint32
}

// Load parses the ELF at path (via r) as a 32-bit RISC-V executable.
func Load(path string, r io.ReaderAt) (*Image, error) {
	f, err := elf.NewFile(r)
	if err != nil {
		return nil, &MalformedInputError{path, err.Error()}
	}
	defer f.Close()

	if f.Class != elf.ELFCLASS32 {
		return nil, &MalformedInputError{path, fmt.Sprintf("not a 32-bit ELF (class %v)", f.Class)}
	}
	if f.Machine != elf.EM_RISCV {
		return nil, &MalformedInputError{path, fmt.Sprintf("not a RISC-V ELF (machine %v)", f.Machine)}
	}
	if f.Type != elf.ET_EXEC && f.Type != elf.ET_DYN {
		return nil, &MalformedInputError{path, fmt.Sprintf("not an executable ELF (type %v)", f.Type)}
	}

	img := &Image{Entry: uint32(f.Entry)}

	var haveLoad bool
	for _, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD {
			continue
		}
		haveLoad = true

		data := make([]byte, prog.Filesz)
		if _, err := prog.ReadAt(data, 0); err != nil && err != io.EOF {
			return nil, &MalformedInputError{path, fmt.Sprintf("reading PT_LOAD at %#x: %v", prog.Vaddr, err)}
		}
		chunk := Chunk{Addr: uint32(prog.Vaddr), Data: data, Exec: prog.Flags&elf.PF_X != 0}

		if chunk.Exec {
			img.Code = append(img.Code, chunk)
		} else {
			img.Data = append(img.Data, chunk)
		}

		end := uint32(prog.Vaddr + prog.Memsz)
		if end > img.ProgramBreak {
			img.ProgramBreak = end
		}
	}
	if !haveLoad {
		return nil, &MalformedInputError{path, "no PT_LOAD segments"}
	}

	img.ProgramBreak = (img.ProgramBreak + 0xfff) &^ 0xfff

	return img, nil
}
