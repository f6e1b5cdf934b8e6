package cli

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func newRunner() (Runner, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	return Runner{Version: "test", Stdout: &stdout, Stderr: &stderr}, &stdout, &stderr
}

// inTempDir isolates config-file discovery (dvc.config.yaml is resolved
// relative to the working directory) from the rest of the test suite.
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestRun_VersionCommand(t *testing.T) {
	r, stdout, _ := newRunner()
	if code := r.Run([]string{"version"}); code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if stdout.String() != "test\n" {
		t.Fatalf("expected version string, got %q", stdout.String())
	}
}

func TestRun_HelpCommand(t *testing.T) {
	r, stdout, _ := newRunner()
	if code := r.Run([]string{"help"}); code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if stdout.Len() == 0 {
		t.Fatalf("expected root help text")
	}
}

func TestRun_UnknownCommandIsUsageError(t *testing.T) {
	r, _, stderr := newRunner()
	code := r.Run([]string{"bogus"})
	if code != 1 {
		t.Fatalf("expected exit 1 for unknown command, got %d", code)
	}
	if stderr.Len() == 0 {
		t.Fatalf("expected an error message on stderr")
	}
}

func TestRun_ProgramRunAndVerifyRoundTrip(t *testing.T) {
	dir := inTempDir(t)

	programPath := filepath.Join(dir, "program.json")
	tracePath := filepath.Join(dir, "trace.json")
	program := `[{"op":"PUSHI","arg":"2"},{"op":"PUSHI","arg":"3"},{"op":"ADD"},{"op":"PRINT"},{"op":"HALT"}]`
	if err := os.WriteFile(programPath, []byte(program), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	r, _, stderr := newRunner()
	code := r.Run([]string{"run", "--program", programPath, "--trace", tracePath, "--deterministic-meta"})
	if code != 0 {
		t.Fatalf("expected exit 0 from run, got %d, stderr=%s", code, stderr.String())
	}

	r2, stdout2, stderr2 := newRunner()
	code = r2.Run([]string{"verify", "--trace", tracePath, "--format", "json"})
	if code != 0 {
		t.Fatalf("expected exit 0 from verify, got %d, stderr=%s", code, stderr2.String())
	}
	var result map[string]any
	if err := json.Unmarshal(stdout2.Bytes(), &result); err != nil {
		t.Fatalf("unmarshal verify output: %v", err)
	}
	if result["status"] != "valid" {
		t.Fatalf("expected valid verdict, got %v", result)
	}
}

func TestRun_MissingProgramFileIsExitOne(t *testing.T) {
	dir := inTempDir(t)
	r, _, stderr := newRunner()
	code := r.Run([]string{"run", "--program", filepath.Join(dir, "missing.json"), "--trace", filepath.Join(dir, "t.json")})
	if code != 1 {
		t.Fatalf("expected exit 1 for missing program file, got %d", code)
	}
	if stderr.Len() == 0 {
		t.Fatalf("expected an error message")
	}
}

func writeTestPNG(t *testing.T, path string, w, h int, c color.NRGBA) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
}

func TestRun_ColorCompileAndColorRun(t *testing.T) {
	dir := inTempDir(t)

	imagePath := filepath.Join(dir, "image.png")
	writeTestPNG(t, imagePath, 2, 2, color.NRGBA{R: 255, G: 0, B: 0, A: 255})

	palettePath := filepath.Join(dir, "palette.json")
	paletteJSON := `{"version":"palette-v0.1","tile_size":2,"tolerance":5,"opcodes":{"FF0000":"RED_OP"}}`
	if err := os.WriteFile(palettePath, []byte(paletteJSON), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	programOut := filepath.Join(dir, "compiled.json")
	r, _, stderr := newRunner()
	code := r.Run([]string{"color-compile", "--palette", palettePath, "--image", imagePath, "--out", programOut})
	if code != 0 {
		t.Fatalf("expected exit 0 from color-compile, got %d, stderr=%s", code, stderr.String())
	}
	if _, err := os.Stat(programOut); err != nil {
		t.Fatalf("expected compiled program to be written: %v", err)
	}

	traceOut := filepath.Join(dir, "colorrun-trace.json")
	r2, _, stderr2 := newRunner()
	code = r2.Run([]string{"color-run", "--palette", palettePath, "--image", imagePath, "--trace", traceOut, "--deterministic-meta"})
	if code != 0 {
		t.Fatalf("expected exit 0 from color-run, got %d, stderr=%s", code, stderr2.String())
	}

	r3, stdout3, stderr3 := newRunner()
	code = r3.Run([]string{"verify", "--trace", traceOut, "--format", "json"})
	if code != 0 {
		t.Fatalf("expected exit 0 from verify, got %d, stderr=%s", code, stderr3.String())
	}
	var result map[string]any
	if err := json.Unmarshal(stdout3.Bytes(), &result); err != nil {
		t.Fatalf("unmarshal verify output: %v", err)
	}
	if result["status"] != "valid" {
		t.Fatalf("expected valid verdict for color-run trace, got %v", result)
	}
}

func TestRun_PackRoundTrip(t *testing.T) {
	dir := inTempDir(t)

	imagePath := filepath.Join(dir, "image.png")
	writeTestPNG(t, imagePath, 2, 2, color.NRGBA{R: 0, G: 255, B: 0, A: 255})
	palettePath := filepath.Join(dir, "palette.json")
	if err := os.WriteFile(palettePath, []byte(`{"version":"1.0","tile_size":2,"opcodes":{"00FF00":"GREEN_OP"}}`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	programPath := filepath.Join(dir, "program.json")
	if err := os.WriteFile(programPath, []byte(`[{"op":"HALT"}]`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	tracePath := filepath.Join(dir, "trace.json")

	r, _, stderr := newRunner()
	if code := r.Run([]string{"run", "--program", programPath, "--trace", tracePath, "--deterministic-meta"}); code != 0 {
		t.Fatalf("expected exit 0 from run, got %d, stderr=%s", code, stderr.String())
	}

	bundlePath := filepath.Join(dir, "bundle.dvcf")
	r2, _, stderr2 := newRunner()
	code := r2.Run([]string{
		"pack",
		"--image", imagePath,
		"--palette", palettePath,
		"--program", programPath,
		"--trace", tracePath,
		"--out", bundlePath,
	})
	if code != 0 {
		t.Fatalf("expected exit 0 from pack, got %d, stderr=%s", code, stderr2.String())
	}
	if _, err := os.Stat(bundlePath); err != nil {
		t.Fatalf("expected bundle to be written: %v", err)
	}
}
