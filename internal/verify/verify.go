// Package verify implements the trace verifier (spec.md §4.8): structural,
// hash-chain, outputs, and provenance checks, returning a verdict value
// rather than raising on invalidity. Grounded on
// original_source/src/dvc_core/verifier.py and the teacher's
// internal/validate Result/Finding shape.
package verify

import (
	"strconv"

	"github.com/marcohefti/dvc/internal/schema"
	"github.com/marcohefti/dvc/internal/store"
)

// Finding names one verifier failure.
type Finding struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Index   *int   `json:"index,omitempty"`
}

// Result is the verifier's returned verdict (spec.md §4.8): `valid` with a
// summary, or `invalid` with the first failing reason. Verify itself never
// returns a Go error; reading and decoding the trace file is left to the
// caller, and only that step can fail with one.
type Result struct {
	Status    string  `json:"status"` // "valid" | "invalid"
	Reason    string  `json:"reason,omitempty"`
	FinalRoot string  `json:"final_root,omitempty"`
	Steps     int     `json:"steps,omitempty"`
	Halted    bool    `json:"halted,omitempty"`
	Faulted   bool    `json:"faulted,omitempty"`
}

func invalid(reason string) Result {
	return Result{Status: "invalid", Reason: reason}
}

// Options configures an optional strict pass (spec.md §4.8 point 6) and a
// reserved no-op replay flag the spec requires to be accepted and ignored.
type Options struct {
	Strict bool
	Replay bool
}

// Verify runs the fixed-order checks from spec.md §4.8 against a decoded
// trace and returns a verdict value.
func Verify(t *schema.TraceV1, opts Options) Result {
	if r := checkFinalRoot(t); r.Status == "invalid" {
		return r
	}
	if r := checkRequiredFields(t); r.Status == "invalid" {
		return r
	}
	if r := checkHashChain(t); r.Status == "invalid" {
		return r
	}
	if r := checkOutputsConsistency(t); r.Status == "invalid" {
		return r
	}
	if r := checkProvenanceShape(t); r.Status == "invalid" {
		return r
	}
	if opts.Strict {
		if r := checkStrict(t); r.Status == "invalid" {
			return r
		}
	}

	return Result{
		Status:    "valid",
		FinalRoot: t.Meta.FinalRoot,
		Steps:     len(t.Steps),
		Halted:    t.Meta.Halted,
		Faulted:   t.Meta.Faulted,
	}
}

// checkFinalRoot implements §4.8.1.
func checkFinalRoot(t *schema.TraceV1) Result {
	if len(t.Steps) == 0 {
		if t.Meta.FinalRoot != schema.ZeroHash {
			return invalid("final_root must be all-zeros for an empty trace")
		}
		return Result{Status: "valid"}
	}
	last := t.Steps[len(t.Steps)-1]
	if t.Meta.FinalRoot != last.StepHash {
		return invalid("meta.final_root does not match the last step's step_hash")
	}
	return Result{Status: "valid"}
}

// checkRequiredFields implements §4.8.2.
func checkRequiredFields(t *schema.TraceV1) Result {
	for _, s := range t.Steps {
		if s.Op == "" || s.StepHash == "" || s.StackBefore == nil || s.StackAfter == nil {
			return invalid("step is missing a required field")
		}
	}
	return Result{Status: "valid"}
}

// checkHashChain implements §4.8.3.
func checkHashChain(t *schema.TraceV1) Result {
	prev := schema.ZeroHash
	for i, s := range t.Steps {
		recomputed, err := recomputeStepHash(s, prev)
		if err != nil {
			return invalid("failed to recompute hash at index " + strconv.Itoa(i))
		}
		if recomputed != s.StepHash {
			return invalid("hash chain mismatch at index " + strconv.Itoa(i))
		}
		prev = s.StepHash
	}
	return Result{Status: "valid"}
}

// checkOutputsConsistency implements §4.8.4.
func checkOutputsConsistency(t *schema.TraceV1) Result {
	var fromSteps []string
	for _, s := range t.Steps {
		if s.Output != nil {
			fromSteps = append(fromSteps, *s.Output)
		}
	}
	if len(fromSteps) != len(t.Meta.Outputs) {
		return invalid("meta.outputs does not match per-step outputs")
	}
	for i := range fromSteps {
		if fromSteps[i] != t.Meta.Outputs[i] {
			return invalid("meta.outputs does not match per-step outputs")
		}
	}
	return Result{Status: "valid"}
}

// checkProvenanceShape implements §4.8.5.
func checkProvenanceShape(t *schema.TraceV1) Result {
	p := t.Meta.ColorProvenance
	if p == nil {
		return Result{Status: "valid"}
	}
	if p.PaletteHash == "" {
		return invalid("color_provenance.palette_hash must be non-empty")
	}
	if p.CompilerVersion == "" {
		return invalid("color_provenance.compiler_version must be non-empty")
	}
	if p.TileSize <= 0 {
		return invalid("color_provenance.tile_size must be positive")
	}
	if p.GridSize.Width <= 0 || p.GridSize.Height <= 0 {
		return invalid("color_provenance.grid_size must have positive width and height")
	}
	if p.CompilationSummary.TilesProcessed < 0 || p.CompilationSummary.InstructionsGenerated < 0 {
		return invalid("color_provenance.compilation_summary must be non-negative")
	}
	return Result{Status: "valid"}
}

// checkStrict implements §4.8.6.
func checkStrict(t *schema.TraceV1) Result {
	for i, s := range t.Steps {
		if s.Index != i {
			return invalid("step index is not sequential at position " + strconv.Itoa(i))
		}
		if i < len(t.Steps)-1 {
			next := t.Steps[i+1]
			if !stringsEqual(s.StackAfter, next.StackBefore) {
				return invalid("stack continuity broken between steps " + strconv.Itoa(i) + " and " + strconv.Itoa(i+1))
			}
		}
	}
	return Result{Status: "valid"}
}

func recomputeStepHash(s schema.TraceStepV1, prev string) (string, error) {
	shadow := struct {
		Index       int      `json:"index"`
		IP          int      `json:"ip"`
		Op          string   `json:"op"`
		Arg         *string  `json:"arg,omitempty"`
		StackBefore []string `json:"stack_before"`
		StackAfter  []string `json:"stack_after"`
		Output      *string  `json:"output,omitempty"`
		Note        *string  `json:"note,omitempty"`
		Fault       *string  `json:"fault,omitempty"`
	}{
		Index: s.Index, IP: s.IP, Op: s.Op, Arg: s.Arg,
		StackBefore: s.StackBefore, StackAfter: s.StackAfter,
		Output: s.Output, Note: s.Note, Fault: s.Fault,
	}
	b, err := store.CanonicalJSON(shadow)
	if err != nil {
		return "", err
	}
	b = append(b, []byte(prev)...)
	return store.SHA256Hex(b), nil
}

func stringsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

