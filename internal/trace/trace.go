// Package trace wraps a VM's raw step list into the hash-chained canonical
// trace document (spec.md §4.7), grounded on
// original_source/src/dvc_core/hash_chain.py and trace_models.py.
package trace

import (
	"math/big"
	"time"

	"github.com/marcohefti/dvc/internal/schema"
	"github.com/marcohefti/dvc/internal/store"
	"github.com/marcohefti/dvc/internal/vm"
)

// DeterministicTimestamp is substituted for both started_at and finished_at
// when deterministic_meta mode is requested, so two runs of the same
// program produce byte-identical trace files (spec.md §4.7, P2).
const DeterministicTimestamp = "1970-01-01T00:00:00Z"

const isoLayout = "2006-01-02T15:04:05Z"

// Options configures trace assembly.
type Options struct {
	StepLimit         int
	DeterministicMeta bool
	Provenance        *schema.ColorProvenanceV1
	Now               func() time.Time // nil uses time.Now
}

// Build converts vm.Execute's raw steps into the canonical, hash-chained
// trace document.
func Build(steps []vm.Step, status vm.Status, faulted bool, opts Options) (*schema.TraceV1, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	startedAt := timestamp(opts.DeterministicMeta, now)

	wireSteps := make([]schema.TraceStepV1, 0, len(steps))
	outputs := make([]string, 0)
	prev := schema.ZeroHash

	for _, s := range steps {
		step := schema.TraceStepV1{
			Index:       s.Index,
			IP:          s.IP,
			Op:          string(s.Op),
			Arg:         s.Arg,
			StackBefore: bigStrings(s.StackBefore),
			StackAfter:  bigStrings(s.StackAfter),
			Note:        s.Note,
			Fault:       s.Fault,
		}
		if s.Output != nil {
			v := s.Output.String()
			step.Output = &v
			outputs = append(outputs, v)
		}

		h, err := stepHash(step, prev)
		if err != nil {
			return nil, err
		}
		step.StepHash = h
		prev = h

		wireSteps = append(wireSteps, step)
	}

	finishedAt := timestamp(opts.DeterministicMeta, now)

	return &schema.TraceV1{
		Meta: schema.TraceMetaV1{
			Version:         schema.TraceVersionV1,
			StepLimit:       opts.StepLimit,
			Halted:          status == vm.Halted,
			Faulted:         faulted,
			Outputs:         outputs,
			FinalRoot:       prev,
			StartedAt:       startedAt,
			FinishedAt:      finishedAt,
			ColorProvenance: opts.Provenance,
		},
		Steps: wireSteps,
	}, nil
}

// stepHash implements spec.md §4.7's hash-chain step: canonical encoding of
// the step (everything but step_hash itself, optional fields omitted when
// absent) concatenated with the previous hash, then SHA-256'd.
func stepHash(step schema.TraceStepV1, prev string) (string, error) {
	withoutHash := step
	withoutHash.StepHash = ""
	b, err := store.CanonicalJSON(withoutHashView(withoutHash))
	if err != nil {
		return "", err
	}
	b = append(b, []byte(prev)...)
	return store.SHA256Hex(b), nil
}

// stepHashView is the hashed form of a step: every TraceStepV1 field except
// step_hash. Clearing StepHash is not enough, because TraceStepV1's
// `json:"step_hash"` tag has no `omitempty` and encoding/json would still
// emit "step_hash":"", so withoutHashView copies the step into this shadow
// type instead.
type stepHashView struct {
	Index       int      `json:"index"`
	IP          int      `json:"ip"`
	Op          string   `json:"op"`
	Arg         *string  `json:"arg,omitempty"`
	StackBefore []string `json:"stack_before"`
	StackAfter  []string `json:"stack_after"`
	Output      *string  `json:"output,omitempty"`
	Note        *string  `json:"note,omitempty"`
	Fault       *string  `json:"fault,omitempty"`
}

func withoutHashView(s schema.TraceStepV1) stepHashView {
	return stepHashView{
		Index: s.Index, IP: s.IP, Op: s.Op, Arg: s.Arg,
		StackBefore: s.StackBefore, StackAfter: s.StackAfter,
		Output: s.Output, Note: s.Note, Fault: s.Fault,
	}
}

func bigStrings(vals []*big.Int) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = v.String()
	}
	return out
}

func timestamp(deterministic bool, now func() time.Time) string {
	if deterministic {
		return DeterministicTimestamp
	}
	return now().UTC().Format(isoLayout)
}
