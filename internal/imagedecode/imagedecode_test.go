package imagedecode

import (
	"image"
	"image/color"
	"testing"

	"github.com/marcohefti/dvc/internal/palette"
)

func testPalette(t *testing.T) *palette.Palette {
	t.Helper()
	data := []byte(`{
		"version": "palette-v0.1",
		"tile_size": 2,
		"tolerance": 5,
		"opcodes": {
			"FF0000": "RED_OP",
			"00FF00": "GREEN_OP"
		}
	}`)
	p, err := palette.FromJSON(data)
	if err != nil {
		t.Fatalf("palette.FromJSON: %v", err)
	}
	return p
}

func solidImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestDecodeImage_ExactGrid(t *testing.T) {
	pal := testPalette(t)
	img := solidImage(4, 2, color.NRGBA{R: 255, G: 0, B: 0, A: 255})

	opcodes, gw, gh, err := DecodeImage(img, pal)
	if err != nil {
		t.Fatalf("DecodeImage: %v", err)
	}
	if gw != 2 || gh != 1 {
		t.Fatalf("expected grid 2x1, got %dx%d", gw, gh)
	}
	for i, op := range opcodes {
		if op != "RED_OP" {
			t.Fatalf("tile %d: expected RED_OP, got %q", i, op)
		}
	}
}

func TestDecodeImage_TruncatedEdgeTile(t *testing.T) {
	pal := testPalette(t)
	// Width 3 with tile_size 2 ceil-divides to a 2-wide grid: one full tile,
	// one truncated 1-wide edge tile.
	img := solidImage(3, 2, color.NRGBA{R: 0, G: 255, B: 0, A: 255})

	_, gw, gh, err := DecodeImage(img, pal)
	if err != nil {
		t.Fatalf("DecodeImage: %v", err)
	}
	if gw != 2 || gh != 1 {
		t.Fatalf("expected ceil-division grid 2x1 for width 3, got %dx%d", gw, gh)
	}
}

func TestDecodeImage_UnrecognizedColorYieldsSentinel(t *testing.T) {
	pal := testPalette(t)
	img := solidImage(2, 2, color.NRGBA{R: 10, G: 10, B: 200, A: 255})

	opcodes, _, _, err := DecodeImage(img, pal)
	if err != nil {
		t.Fatalf("DecodeImage: %v", err)
	}
	if len(opcodes) != 1 || opcodes[0] != UnrecognizedOpcode {
		t.Fatalf("expected a single unrecognized-sentinel tile, got %v", opcodes)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/to/image.png")
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
	derr, ok := err.(*Error)
	if !ok || derr.Kind != IOError {
		t.Fatalf("expected IOError kind, got %v", err)
	}
}
