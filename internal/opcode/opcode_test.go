package opcode

import "testing"

func TestInstruction_Validate(t *testing.T) {
	cases := []struct {
		name    string
		instr   Instruction
		wantErr bool
	}{
		{"nop ok", Instruction{Op: NOP}, false},
		{"pushi requires arg", Instruction{Op: PUSHI}, true},
		{"pushi with arg ok", Instruction{Op: PUSHI, Arg: strPtr("5")}, false},
		{"add with arg rejected", Instruction{Op: ADD, Arg: strPtr("1")}, true},
		{"unknown opcode", Instruction{Op: "FOO"}, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.instr.Validate()
			if (err != nil) != c.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, c.wantErr)
			}
		})
	}
}

func TestFromJSON_AcceptsBothSpellings(t *testing.T) {
	data := []byte(`[{"op":"PUSHI","arg":"2"},{"opcode":"HALT"}]`)
	prog, err := FromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if len(prog.Instructions) != 2 {
		t.Fatalf("expected 2 instructions, got %d", len(prog.Instructions))
	}
	if prog.Instructions[0].Op != PUSHI || prog.Instructions[1].Op != HALT {
		t.Fatalf("unexpected ops: %+v", prog.Instructions)
	}
}

func TestFromJSON_RejectsInvalidInstruction(t *testing.T) {
	data := []byte(`[{"op":"PUSHI"}]`)
	if _, err := FromJSON(data); err == nil {
		t.Fatalf("expected error for PUSHI missing arg")
	}
}

func TestFromJSON_RejectsNonArray(t *testing.T) {
	if _, err := FromJSON([]byte(`{"op":"NOP"}`)); err == nil {
		t.Fatalf("expected error for non-array program")
	}
}

func strPtr(s string) *string { return &s }
