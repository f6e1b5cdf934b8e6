package cli

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/marcohefti/dvc/internal/schema"
	"github.com/marcohefti/dvc/internal/verify"
)

func printVerifyHelp(w io.Writer) {
	fmt.Fprint(w, `dvc verify --trace <trace.json> [--strict] [--replay] [--format json]

Validates a trace's structure and hash chain (spec.md §4.8). Never raises
on structural invalidity — returns an "invalid" verdict with a reason.
`)
}

func (r Runner) runVerify(args []string) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	tracePath := fs.String("trace", "", "trace JSON path")
	strict := fs.Bool("strict", false, "additionally check sequential index and stack continuity")
	replay := fs.Bool("replay", false, "reserved no-op: the verifier never re-executes the program")
	format := fs.String("format", "text", "output format: text|json")
	help := fs.Bool("help", false, "show help")

	if err := fs.Parse(args); err != nil {
		return r.failUsage("verify: invalid flags")
	}
	if *help {
		printVerifyHelp(r.Stdout)
		return 0
	}
	if *tracePath == "" {
		printVerifyHelp(r.Stderr)
		return r.failUsage("verify: --trace is required")
	}

	raw, err := os.ReadFile(*tracePath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "%s: trace file not found: %s\n", codeIO, *tracePath)
		return 1
	}
	var doc schema.TraceV1
	if err := json.Unmarshal(raw, &doc); err != nil {
		fmt.Fprintf(r.Stderr, "%s: invalid JSON in trace file: %v\n", codeTrace, err)
		return 1
	}

	result := verify.Verify(&doc, verify.Options{Strict: *strict, Replay: *replay})

	if *format == "json" {
		return r.writeJSON(result)
	}
	if result.Status == "valid" {
		fmt.Fprintf(r.Stdout, "valid final_root=%s steps=%d halted=%v faulted=%v\n",
			result.FinalRoot, result.Steps, result.Halted, result.Faulted)
		return 0
	}
	fmt.Fprintf(r.Stdout, "invalid: %s\n", result.Reason)
	return 1
}
