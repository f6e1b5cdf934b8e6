// Package imagedecode loads a raster image and samples it into a tile grid
// of opcode names via a palette (spec.md §4.4), grounded on
// original_source/src/color_lang/decoder.py.
package imagedecode

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/marcohefti/dvc/internal/palette"
)

// Error is the single error value type this package raises; Kind
// distinguishes the `io-error` and `image-error` subsystems named in
// spec.md §7 within one Go type.
type Kind string

const (
	IOError    Kind = "io-error"
	ImageError Kind = "image-error"
)

type Error struct {
	Kind   Kind
	Reason string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Kind, e.Reason) }

func ioErr(format string, a ...any) *Error {
	return &Error{Kind: IOError, Reason: fmt.Sprintf(format, a...)}
}

func imageErr(format string, a ...any) *Error {
	return &Error{Kind: ImageError, Reason: fmt.Sprintf(format, a...)}
}

// UnrecognizedOpcode is the sentinel emitted when a tile's center pixel does
// not match any palette entry (spec.md §4.4: "a no-match yields a sentinel
// unrecognized marker, not an error").
const UnrecognizedOpcode = ""

// Load reads an image file from disk and normalizes it to 8-bit RGB,
// discarding any alpha channel the same way PIL's `.convert("RGB")` drops
// it (a straight channel truncation, not an alpha blend).
func Load(path string) (*image.NRGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ioErr("image file not found: %s", path)
		}
		return nil, ioErr("%v", err)
	}
	defer func() { _ = f.Close() }()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, imageErr("%v", err)
	}

	bounds := img.Bounds()
	rgba := image.NewNRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			rgba.Set(x, y, img.At(x, y))
		}
	}
	return rgba, nil
}

// Decode runs the full §4.4 pipeline: load, tile, sample, match. It returns
// the per-tile opcode sequence (UnrecognizedOpcode for no-match tiles) plus
// grid dimensions. Tiles are iterated row-major; edge tiles not covering a
// full T×T square are still sampled at their own truncated center (an
// intentional stability contract — see DESIGN.md).
func Decode(path string, pal *palette.Palette) (opcodes []string, gridWidth, gridHeight int, err error) {
	img, err := Load(path)
	if err != nil {
		return nil, 0, 0, err
	}
	return DecodeImage(img, pal)
}

// DecodeImage runs the tiling/sampling/matching pipeline over an
// already-decoded raster, letting tests exercise §4.4 without disk I/O.
func DecodeImage(img *image.NRGBA, pal *palette.Palette) (opcodes []string, gridWidth, gridHeight int, err error) {
	t := pal.TileSize
	if t <= 0 {
		return nil, 0, 0, imageErr("palette tile size must be positive, got %d", t)
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	gridWidth = ceilDiv(width, t)
	gridHeight = ceilDiv(height, t)

	for gy := 0; gy < gridHeight; gy++ {
		y := bounds.Min.Y + gy*t
		bottom := min(y+t, bounds.Max.Y)
		for gx := 0; gx < gridWidth; gx++ {
			x := bounds.Min.X + gx*t
			right := min(x+t, bounds.Max.X)

			tileW := right - x
			tileH := bottom - y
			centerX := x + tileW/2
			centerY := y + tileH/2

			c := img.NRGBAAt(centerX, centerY)
			rgb := palette.RGB{R: int(c.R), G: int(c.G), B: int(c.B)}

			op, _, matchErr := pal.Match(rgb)
			if matchErr != nil {
				opcodes = append(opcodes, UnrecognizedOpcode)
				continue
			}
			opcodes = append(opcodes, op)
		}
	}
	return opcodes, gridWidth, gridHeight, nil
}

func ceilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
