package cli

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/marcohefti/dvc/internal/config"
	"github.com/marcohefti/dvc/internal/opcode"
	"github.com/marcohefti/dvc/internal/store"
	"github.com/marcohefti/dvc/internal/trace"
	"github.com/marcohefti/dvc/internal/vm"
)

func printRunHelp(w io.Writer) {
	fmt.Fprint(w, `dvc run --program <program.json> --trace <trace.json> [--step-limit N] [--deterministic-meta] [--format json]

Executes a validated program on the stack VM (spec.md §4.6) and writes a
hash-chained trace (§4.7). Faults halt the VM but are recorded as trace
state, not propagated as an error.
`)
}

func (r Runner) runRun(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	programPath := fs.String("program", "", "program JSON path")
	tracePath := fs.String("trace", "", "output trace JSON path")
	stepLimit := fs.Int("step-limit", 0, "VM step budget (default from config, else 10000)")
	deterministicMeta := fs.Bool("deterministic-meta", false, "substitute fixed timestamps for byte-identical traces")
	format := fs.String("format", "text", "output format: text|json")
	help := fs.Bool("help", false, "show help")

	if err := fs.Parse(args); err != nil {
		return r.failUsage("run: invalid flags")
	}
	if *help {
		printRunHelp(r.Stdout)
		return 0
	}

	merged, err := config.LoadMerged(config.FlagOverrides{StepLimit: *stepLimit})
	if err != nil {
		return r.failIO(err.Error())
	}
	if *stepLimit <= 0 {
		*stepLimit = merged.StepLimit
	}
	if *programPath == "" || *tracePath == "" {
		printRunHelp(r.Stderr)
		return r.failUsage("run: --program and --trace are required")
	}

	raw, err := os.ReadFile(*programPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "%s: program file not found: %s\n", codeIO, *programPath)
		return 1
	}
	prog, err := opcode.FromJSON(raw)
	if err != nil {
		fmt.Fprintf(r.Stderr, "%s: %v\n", codeProgram, err)
		return 1
	}

	steps, status, faulted := vm.Execute(prog, *stepLimit)

	doc, err := trace.Build(steps, status, faulted, trace.Options{
		StepLimit:         *stepLimit,
		DeterministicMeta: *deterministicMeta,
		Now:               r.Now,
	})
	if err != nil {
		return r.failIO(err.Error())
	}
	if err := store.WriteCanonicalJSONAtomic(*tracePath, doc); err != nil {
		return r.failIO(err.Error())
	}

	if *format == "json" {
		_ = r.writeJSON(map[string]any{
			"status":     string(status),
			"steps":      len(doc.Steps),
			"outputs":    doc.Meta.Outputs,
			"final_root": doc.Meta.FinalRoot,
			"faulted":    faulted,
			"trace_path": *tracePath,
		})
	} else {
		fmt.Fprintf(r.Stdout, "status=%s steps=%d faulted=%v final_root=%s trace=%s\n",
			status, len(doc.Steps), faulted, doc.Meta.FinalRoot, *tracePath)
	}
	return exitCode(faulted)
}
