package schema

// InstructionV1 is the raw JSON shape of one program instruction (spec.md
// §4.2, §6). The core accepts both the VM spelling (`op`) and the lowerer's
// spelling (`opcode`); callers normalize before validation.
type InstructionV1 struct {
	Op      string  `json:"op,omitempty"`
	Opcode  string  `json:"opcode,omitempty"`
	Arg     *string `json:"arg,omitempty"`
	Comment string  `json:"comment,omitempty"`
}

// ProgramV1 is a bare JSON array of instructions on the wire; this alias
// exists so callers have a named type to decode into.
type ProgramV1 = []InstructionV1
