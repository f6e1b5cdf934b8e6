// Package vm implements the stack machine described in spec.md §4.6:
// arbitrary-precision integers, a fixed opcode table, and typed faults that
// become trace state rather than propagated errors. Grounded on
// original_source/src/dvc_core/vm.py and vm_state.py.
package vm

import (
	"math/big"

	"github.com/marcohefti/dvc/internal/opcode"
)

// Status is the VM's three-valued run state (spec.md §3).
type Status string

const (
	Running Status = "running"
	Halted  Status = "halted"
	Faulted Status = "faulted"
)

// State is the VM's mutable execution state.
type State struct {
	IP      int
	Stack   []*big.Int
	Outputs []*big.Int
	Status  Status
}

// Step is one raw execution step, matching trace_models.py's TraceStep
// before hash-chaining. Arg/Output/Note/Fault are nil when absent.
type Step struct {
	Index       int
	IP          int
	Op          opcode.Name
	Arg         *string
	StackBefore []*big.Int
	StackAfter  []*big.Int
	Output      *big.Int
	Note        *string
	Fault       *string
}

// reserved opcodes are currently aliased to NOP (spec.md §9): they appear
// distinctly in compiled programs so they carry palette provenance, but
// this version of the VM does not interpret them.
var reserved = map[opcode.Name]bool{
	opcode.RED_OP: true, opcode.GREEN_OP: true, opcode.BLUE_OP: true, opcode.WHITE_OP: true,
}

// Execute runs program to completion, a fault, or stepLimit exhaustion
// (whichever comes first) and returns the raw step list plus final status
// and fault flag. It never returns a Go error: VM faults are recorded in
// the returned steps, per spec.md §7's policy that faults never propagate.
func Execute(prog *opcode.Program, stepLimit int) (steps []Step, status Status, faulted bool) {
	state := &State{IP: 0, Status: Running}

	i := 0
	for state.Status == Running && i < stepLimit && state.IP < len(prog.Instructions) {
		instr := prog.Instructions[state.IP]
		step := Step{
			Index:       i,
			IP:          state.IP,
			Op:          instr.Op,
			Arg:         instr.Arg,
			StackBefore: cloneStack(state.Stack),
		}

		if fault := dispatch(state, instr, &step); fault != "" {
			step.Fault = &fault
			state.Status = Faulted
			faulted = true
		}

		step.StackAfter = cloneStack(state.Stack)
		steps = append(steps, step)
		i++

		if faulted {
			break
		}
	}

	if i >= stepLimit && state.Status == Running {
		state.Status = Halted
	}

	return steps, state.Status, faulted
}

// dispatch executes one instruction, returning a non-empty fault reason on
// failure. It never panics: all preconditions are checked explicitly.
func dispatch(state *State, instr opcode.Instruction, step *Step) (fault string) {
	switch instr.Op {
	case opcode.NOP:
		state.IP++
	case opcode.HALT:
		state.Status = Halted
		state.IP++
	case opcode.PUSHI:
		if instr.Arg == nil {
			return "invalid PUSHI immediate"
		}
		n := new(big.Int)
		if _, ok := n.SetString(*instr.Arg, 10); !ok {
			return "invalid PUSHI immediate"
		}
		state.Stack = append(state.Stack, n)
		state.IP++
	case opcode.POP:
		if len(state.Stack) < 1 {
			return "stack underflow"
		}
		state.Stack = state.Stack[:len(state.Stack)-1]
		state.IP++
	case opcode.ADD, opcode.SUB, opcode.MUL:
		if len(state.Stack) < 2 {
			return "stack underflow"
		}
		b, a := popTwo(state)
		r := new(big.Int)
		switch instr.Op {
		case opcode.ADD:
			r.Add(a, b)
		case opcode.SUB:
			r.Sub(a, b)
		case opcode.MUL:
			r.Mul(a, b)
		}
		state.Stack = append(state.Stack, r)
		state.IP++
	case opcode.DIV:
		if len(state.Stack) < 2 {
			return "stack underflow"
		}
		b, a := popTwo(state)
		if b.Sign() == 0 {
			return "division by zero"
		}
		r := new(big.Int).Quo(a, b) // truncated toward zero
		state.Stack = append(state.Stack, r)
		state.IP++
	case opcode.PRINT:
		if len(state.Stack) < 1 {
			return "stack underflow"
		}
		v := state.Stack[len(state.Stack)-1]
		state.Stack = state.Stack[:len(state.Stack)-1]
		state.Outputs = append(state.Outputs, v)
		step.Output = v
		state.IP++
	default:
		if reserved[instr.Op] {
			state.IP++
			return ""
		}
		return "unknown opcode: " + string(instr.Op)
	}
	return ""
}

// popTwo pops b then a, matching vm.py's `b, a = pop(), pop()` order.
func popTwo(state *State) (b, a *big.Int) {
	n := len(state.Stack)
	b = state.Stack[n-1]
	a = state.Stack[n-2]
	state.Stack = state.Stack[:n-2]
	return b, a
}

func cloneStack(stack []*big.Int) []*big.Int {
	out := make([]*big.Int, len(stack))
	copy(out, stack)
	return out
}
