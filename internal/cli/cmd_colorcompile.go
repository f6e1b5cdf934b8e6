package cli

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/marcohefti/dvc/internal/colorlower"
	"github.com/marcohefti/dvc/internal/config"
	"github.com/marcohefti/dvc/internal/imagedecode"
	"github.com/marcohefti/dvc/internal/palette"
	"github.com/marcohefti/dvc/internal/schema"
)

func printColorCompileHelp(w io.Writer) {
	fmt.Fprint(w, `dvc color-compile --palette <palette.json> --image <image> --out <program.json> [--format json]

Compiles an image into a DVC program, sampling each tile's center pixel
against the palette (spec.md §4.4-§4.5). Unrecognized colors lower to NOP
placeholders rather than failing the compile.
`)
}

func (r Runner) runColorCompile(args []string) int {
	fs := flag.NewFlagSet("color-compile", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	palettePath := fs.String("palette", "", "palette JSON path")
	imagePath := fs.String("image", "", "input image path")
	outPath := fs.String("out", "", "output program JSON path")
	format := fs.String("format", "text", "output format: text|json")
	help := fs.Bool("help", false, "show help")

	if err := fs.Parse(args); err != nil {
		return r.failUsage("color-compile: invalid flags")
	}
	if *help {
		printColorCompileHelp(r.Stdout)
		return 0
	}

	merged, err := config.LoadMerged(config.FlagOverrides{PalettePath: *palettePath})
	if err != nil {
		return r.failIO(err.Error())
	}
	if *palettePath == "" {
		*palettePath = merged.PalettePath
	}
	if *palettePath == "" || *imagePath == "" || *outPath == "" {
		printColorCompileHelp(r.Stderr)
		return r.failUsage("color-compile: --palette, --image, and --out are required")
	}

	ir, grid, _, err := compileImage(*palettePath, *imagePath)
	if err != nil {
		return r.reportCompileError(err, *format)
	}

	if err := writeProgramIR(*outPath, ir); err != nil {
		return r.failIO(err.Error())
	}

	if *format == "json" {
		summary := map[string]any{
			"status":                 "success",
			"tiles_processed":        len(ir.Program),
			"instructions_generated": len(ir.Program),
			"program_path":           *outPath,
			"grid_size":              grid,
			"unrecognized_colors":    ir.Metadata.UnrecognizedColors,
		}
		return r.writeJSON(summary)
	}

	fmt.Fprintf(r.Stdout, "Compilation Summary for %s:\n", *imagePath)
	fmt.Fprintf(r.Stdout, "  Compiler: %s\n", ir.Metadata.Compiler)
	fmt.Fprintf(r.Stdout, "  Total Instructions: %d\n", len(ir.Program))
	fmt.Fprintf(r.Stdout, "  Unrecognized Colors: %d\n", ir.Metadata.UnrecognizedColors)
	fmt.Fprintf(r.Stdout, "  Grid Size: %dx%d\n", grid.Width, grid.Height)
	return 0
}

// compileImage runs the §4.4→§4.5 pipeline shared by color-compile and
// color-run, also returning the parsed palette so callers needing its hash
// or tile size don't have to re-read and re-parse the same file.
func compileImage(palettePath, imagePath string) (colorlower.ProgramIR, schema.GridSizeV1, *palette.Palette, error) {
	raw, err := os.ReadFile(palettePath)
	if err != nil {
		return colorlower.ProgramIR{}, schema.GridSizeV1{}, nil, fmt.Errorf("%s: palette file not found: %s", codeIO, palettePath)
	}
	pal, err := palette.FromJSON(raw)
	if err != nil {
		return colorlower.ProgramIR{}, schema.GridSizeV1{}, nil, fmt.Errorf("%s: %v", codePalette, err)
	}

	if _, statErr := os.Stat(imagePath); statErr != nil {
		return colorlower.ProgramIR{}, schema.GridSizeV1{}, nil, fmt.Errorf("%s: image file not found: %s", codeIO, imagePath)
	}
	opcodes, gridWidth, gridHeight, err := imagedecode.Decode(imagePath, pal)
	if err != nil {
		if ierr, ok := err.(*imagedecode.Error); ok && ierr.Kind == imagedecode.IOError {
			return colorlower.ProgramIR{}, schema.GridSizeV1{}, nil, fmt.Errorf("%s: %v", codeIO, err)
		}
		return colorlower.ProgramIR{}, schema.GridSizeV1{}, nil, fmt.Errorf("%s: %v", codeImage, err)
	}

	ir := colorlower.Lower(opcodes)
	grid := schema.GridSizeV1{Width: gridWidth, Height: gridHeight}
	ir.Metadata.GridSize = &grid
	ir.Metadata.SourceFile = imagePath
	return ir, grid, pal, nil
}

// reportCompileError reports a compileImage failure. Every error
// compileImage can return happens before a program is produced — missing
// input files, invalid palette JSON, undecodable images — so all of them
// are input/validation errors under spec §6 (exit 1). I/O failures writing
// the compiled output are handled separately by the caller via r.failIO
// (exit 2), since those happen after a successful compile.
func (r Runner) reportCompileError(err error, format string) int {
	if format == "json" {
		summary := map[string]any{
			"status":          "error",
			"error":           err.Error(),
			"tiles_processed": 0,
			"program_path":    nil,
		}
		_ = r.writeJSON(summary)
		return 1
	}
	fmt.Fprintf(r.Stderr, "%s\n", err.Error())
	return 1
}

// writeProgramIR persists only the lowered program array (not the metadata
// envelope) to path, matching color_commands.py's choice to write
// `dvc_ir["program"]` rather than the full IR document to --out.
func writeProgramIR(path string, ir colorlower.ProgramIR) error {
	b, err := json.MarshalIndent(ir.Program, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
