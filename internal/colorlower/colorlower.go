// Package colorlower turns the image decoder's opcode sequence into the
// compiled program IR (spec.md §4.5), grounded on
// original_source/src/color_lang/lower.py and compiler.py.
package colorlower

import (
	"github.com/marcohefti/dvc/internal/imagedecode"
	"github.com/marcohefti/dvc/internal/schema"
)

// CompilerVersion identifies this lowerer in provenance and compiled-program
// metadata, mirroring compiler.py's "ColorCompiler-v0.1".
const CompilerVersion = "dvc-color-compiler-v0.1"

// ProgramIR is the lowered `{metadata, program}` document from spec.md §4.5.
type ProgramIR struct {
	Metadata Metadata               `json:"metadata"`
	Program  []schema.InstructionV1 `json:"program"`
}

// Metadata accumulates compiler-facing counters; GridSize and SourceFile are
// filled in by the caller after lowering (compiler.py attaches these too).
type Metadata struct {
	Compiler           string             `json:"compiler"`
	UnrecognizedColors int                `json:"unrecognized_colors"`
	SourceFile         string             `json:"source_file,omitempty"`
	GridSize           *schema.GridSizeV1 `json:"grid_size,omitempty"`
}

// Lower never fails (spec.md §4.5): unrecognized tiles become NOP with an
// explanatory comment, recognized tiles become a bare opcode entry.
func Lower(opcodes []string) ProgramIR {
	program := make([]schema.InstructionV1, 0, len(opcodes))
	unrecognized := 0
	for _, op := range opcodes {
		if op == imagedecode.UnrecognizedOpcode {
			unrecognized++
			program = append(program, schema.InstructionV1{
				Opcode:  "NOP",
				Comment: "Unrecognized color",
			})
			continue
		}
		program = append(program, schema.InstructionV1{Opcode: op})
	}
	return ProgramIR{
		Metadata: Metadata{
			Compiler:           CompilerVersion,
			UnrecognizedColors: unrecognized,
		},
		Program: program,
	}
}
