package opcode

import (
	"encoding/json"
	"fmt"

	"github.com/marcohefti/dvc/internal/schema"
)

// FromJSON parses a program document. It accepts an object with `op` (the
// VM's own spelling) or `opcode` (the color lowerer's spelling, spec.md
// §4.5/§6) for each entry; a `comment` field is accepted and discarded.
func FromJSON(data []byte) (*Program, error) {
	var raw []schema.InstructionV1
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, newErr("program JSON must be an array of instruction objects: %v", err)
	}
	return FromInstructions(raw)
}

// FromInstructions validates an already-decoded instruction sequence, the
// shared path for FromJSON and for translating the color lowerer's IR
// directly into a VM-ready program without a JSON round-trip.
func FromInstructions(raw []schema.InstructionV1) (*Program, error) {
	instrs := make([]Instruction, 0, len(raw))
	for idx, v := range raw {
		name := v.Op
		if name == "" {
			name = v.Opcode
		}
		if name == "" {
			return nil, newErr("invalid instruction at index %d", idx)
		}
		instr := Instruction{Op: Name(name), Arg: v.Arg}
		if err := instr.Validate(); err != nil {
			return nil, newErr("invalid instruction at index %d: %v", idx, err)
		}
		instrs = append(instrs, instr)
	}
	return &Program{Instructions: instrs}, nil
}

// ToJSON renders the program in the VM's own `{op, arg?}` spelling.
func ToJSON(p *Program) ([]byte, error) {
	out := make([]schema.InstructionV1, 0, len(p.Instructions))
	for _, instr := range p.Instructions {
		out = append(out, schema.InstructionV1{Op: string(instr.Op), Arg: instr.Arg})
	}
	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode program: %w", err)
	}
	return b, nil
}
