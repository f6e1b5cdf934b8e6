package colorlower

import (
	"testing"

	"github.com/marcohefti/dvc/internal/imagedecode"
)

func TestLower_RecognizedAndUnrecognizedTiles(t *testing.T) {
	ir := Lower([]string{"RED_OP", imagedecode.UnrecognizedOpcode, "GREEN_OP"})

	if len(ir.Program) != 3 {
		t.Fatalf("expected 3 instructions, got %d", len(ir.Program))
	}
	if ir.Program[0].Opcode != "RED_OP" {
		t.Fatalf("expected RED_OP, got %q", ir.Program[0].Opcode)
	}
	if ir.Program[1].Opcode != "NOP" || ir.Program[1].Comment != "Unrecognized color" {
		t.Fatalf("expected NOP with comment for unrecognized tile, got %+v", ir.Program[1])
	}
	if ir.Program[2].Opcode != "GREEN_OP" {
		t.Fatalf("expected GREEN_OP, got %q", ir.Program[2].Opcode)
	}
	if ir.Metadata.UnrecognizedColors != 1 {
		t.Fatalf("expected 1 unrecognized color counted, got %d", ir.Metadata.UnrecognizedColors)
	}
	if ir.Metadata.Compiler != CompilerVersion {
		t.Fatalf("expected compiler version %q, got %q", CompilerVersion, ir.Metadata.Compiler)
	}
}

func TestLower_NeverFails(t *testing.T) {
	ir := Lower(nil)
	if len(ir.Program) != 0 {
		t.Fatalf("expected empty program for empty input")
	}
	if ir.Metadata.UnrecognizedColors != 0 {
		t.Fatalf("expected zero unrecognized colors")
	}
}
