package cli

import (
	"flag"
	"fmt"
	"io"

	"github.com/marcohefti/dvc/internal/config"
	"github.com/marcohefti/dvc/internal/opcode"
	"github.com/marcohefti/dvc/internal/schema"
	"github.com/marcohefti/dvc/internal/store"
	"github.com/marcohefti/dvc/internal/trace"
	"github.com/marcohefti/dvc/internal/vm"
)

func printColorRunHelp(w io.Writer) {
	fmt.Fprint(w, `dvc color-run --palette <palette.json> --image <image> --trace <trace.json> [--step-limit N] [--format json]

Compiles an image (§4.4-§4.5) and immediately executes the result (§4.6),
writing a hash-chained trace with color_provenance populated. Unlike
original_source's stub, this composes color-compile with run end to end.
`)
}

func (r Runner) runColorRun(args []string) int {
	fs := flag.NewFlagSet("color-run", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	palettePath := fs.String("palette", "", "palette JSON path")
	imagePath := fs.String("image", "", "input image path")
	tracePath := fs.String("trace", "", "output trace JSON path")
	stepLimit := fs.Int("step-limit", 0, "VM step budget (default from config, else 10000)")
	deterministicMeta := fs.Bool("deterministic-meta", false, "substitute fixed timestamps for byte-identical traces")
	format := fs.String("format", "text", "output format: text|json")
	help := fs.Bool("help", false, "show help")

	if err := fs.Parse(args); err != nil {
		return r.failUsage("color-run: invalid flags")
	}
	if *help {
		printColorRunHelp(r.Stdout)
		return 0
	}

	merged, err := config.LoadMerged(config.FlagOverrides{PalettePath: *palettePath, StepLimit: *stepLimit})
	if err != nil {
		return r.failIO(err.Error())
	}
	if *palettePath == "" {
		*palettePath = merged.PalettePath
	}
	if *stepLimit <= 0 {
		*stepLimit = merged.StepLimit
	}
	if *palettePath == "" || *imagePath == "" || *tracePath == "" {
		printColorRunHelp(r.Stderr)
		return r.failUsage("color-run: --palette, --image, and --trace are required")
	}

	ir, grid, pal, err := compileImage(*palettePath, *imagePath)
	if err != nil {
		return r.reportCompileError(err, *format)
	}
	paletteHash, err := pal.Hash()
	if err != nil {
		return r.failIO(err.Error())
	}

	prog, err := opcode.FromInstructions(ir.Program)
	if err != nil {
		fmt.Fprintf(r.Stderr, "%s: %v\n", codeProgram, err)
		return 1
	}
	steps, status, faulted := vm.Execute(prog, *stepLimit)

	provenance := &schema.ColorProvenanceV1{
		PaletteHash:     paletteHash,
		CompilerVersion: ir.Metadata.Compiler,
		TileSize:        pal.TileSize,
		GridSize:        grid,
		CompilationSummary: schema.CompilationSummaryV1{
			TilesProcessed:        len(ir.Program),
			InstructionsGenerated: len(ir.Program),
		},
	}

	doc, err := trace.Build(steps, status, faulted, trace.Options{
		StepLimit:         *stepLimit,
		DeterministicMeta: *deterministicMeta,
		Provenance:        provenance,
		Now:               r.Now,
	})
	if err != nil {
		return r.failIO(err.Error())
	}
	if err := store.WriteCanonicalJSONAtomic(*tracePath, doc); err != nil {
		return r.failIO(err.Error())
	}

	summary := map[string]any{
		"status":     string(status),
		"steps":      len(doc.Steps),
		"outputs":    doc.Meta.Outputs,
		"final_root": doc.Meta.FinalRoot,
		"trace_path": *tracePath,
		"compilation": map[string]any{
			"tiles_processed": len(ir.Program),
			"palette_hash":    paletteHash,
			"grid_size":       grid,
		},
	}
	if *format == "json" {
		_ = r.writeJSON(summary)
	} else {
		fmt.Fprintf(r.Stdout, "status=%s steps=%d final_root=%s trace=%s\n", status, len(doc.Steps), doc.Meta.FinalRoot, *tracePath)
	}
	return exitCode(faulted)
}
