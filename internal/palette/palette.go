// Package palette implements the color↔opcode mapping, tolerance matching,
// and immediate encoding described in spec.md §4.3, grounded on
// original_source/src/color_lang/palette.py.
package palette

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/marcohefti/dvc/internal/opcode"
	"github.com/marcohefti/dvc/internal/schema"
)

// Error is the single `palette-error` kind (spec.md §7).
type Error struct {
	Reason string
}

func (e *Error) Error() string { return e.Reason }

func newErr(format string, a ...any) *Error {
	return &Error{Reason: fmt.Sprintf(format, a...)}
}

const (
	defaultImmediateMode = "rgb-to-int"
	defaultScanOrder     = "row-major"
	defaultTolerance     = 5.0
)

// Palette is the validated, immutable color↔opcode mapping.
type Palette struct {
	Version       string
	TileSize      int
	Tolerance     float64
	ImmediateMode string
	ScanOrder     string
	Opcodes       map[string]string // uppercase hex -> opcode name
	Fiducials     map[string]string // uppercase hex -> fiducial tag

	sortedHexKeys []string // opcode keys, ascending, precomputed for tie-break
}

// FromJSON parses and validates a palette document (spec.md §4.3).
func FromJSON(data []byte) (*Palette, error) {
	var v schema.PaletteV1
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, newErr("invalid JSON in palette file: %v", err)
	}
	return fromV1(v)
}

func fromV1(v schema.PaletteV1) (*Palette, error) {
	if v.Version == "" {
		return nil, newErr("palette missing required 'version' field")
	}
	if v.Version != schema.PaletteVersionV1 {
		return nil, newErr("unsupported palette version: %s", v.Version)
	}
	if v.TileSize <= 0 {
		return nil, newErr("invalid tile_size: must be positive integer, got %d", v.TileSize)
	}
	if len(v.Opcodes) == 0 {
		return nil, newErr("palette opcodes cannot be empty")
	}

	opcodes := make(map[string]string, len(v.Opcodes))
	for hexKey, op := range v.Opcodes {
		norm, err := normalizeHex(hexKey)
		if err != nil {
			return nil, newErr("invalid hex color format: '%s' (must be 6-character RRGGBB)", hexKey)
		}
		if !opcode.Known(op) {
			return nil, newErr("invalid opcode: '%s'", op)
		}
		opcodes[norm] = op
	}

	fiducials := make(map[string]string, len(v.Fiducials))
	for hexKey, tag := range v.Fiducials {
		norm, err := normalizeHex(hexKey)
		if err != nil {
			return nil, newErr("invalid hex color format in fiducials: '%s'", hexKey)
		}
		fiducials[norm] = tag
	}

	tolerance := defaultTolerance
	if v.Tolerance != nil {
		tolerance = *v.Tolerance
	}
	immediateMode := v.ImmediateMode
	if immediateMode == "" {
		immediateMode = defaultImmediateMode
	}
	scanOrder := v.ScanOrder
	if scanOrder == "" {
		scanOrder = defaultScanOrder
	}

	keys := make([]string, 0, len(opcodes))
	for k := range opcodes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return &Palette{
		Version:       v.Version,
		TileSize:      v.TileSize,
		Tolerance:     tolerance,
		ImmediateMode: immediateMode,
		ScanOrder:     scanOrder,
		Opcodes:       opcodes,
		Fiducials:     fiducials,
		sortedHexKeys: keys,
	}, nil
}

func normalizeHex(s string) (string, error) {
	if len(s) != 6 {
		return "", newErr("not 6 hex digits")
	}
	up := strings.ToUpper(s)
	for _, c := range up {
		if !((c >= '0' && c <= '9') || (c >= 'A' && c <= 'F')) {
			return "", newErr("not hex digits")
		}
	}
	return up, nil
}

// RGB is a color triple in [0, 255] components.
type RGB struct{ R, G, B int }

// ToHex renders rgb as its uppercase 6-hex-digit key.
func (c RGB) ToHex() string {
	return fmt.Sprintf("%02X%02X%02X", c.R, c.G, c.B)
}

// HexToRGB parses a normalized 6-hex-digit key back into an RGB triple.
func HexToRGB(hex string) RGB {
	var r, g, b int
	_, _ = fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b)
	return RGB{R: r, G: g, B: b}
}

// Match implements spec.md §4.3's match(rgb): exact lookup first, then a
// tolerance scan with ties broken by ascending sorted hex key.
func (p *Palette) Match(rgb RGB) (op string, hexKey string, err error) {
	key := rgb.ToHex()
	if op, ok := p.Opcodes[key]; ok {
		return op, key, nil
	}

	if p.Tolerance > 0 {
		bestDist := math.Inf(1)
		bestOp, bestKey := "", ""
		for _, candidateKey := range p.sortedHexKeys {
			candidate := HexToRGB(candidateKey)
			d := colorDistance(rgb, candidate)
			if d <= p.Tolerance && d < bestDist {
				bestDist = d
				bestOp = p.Opcodes[candidateKey]
				bestKey = candidateKey
			}
		}
		if bestKey != "" {
			return bestOp, bestKey, nil
		}
	}

	return "", "", newErr("no matching color for RGB(%d, %d, %d) within tolerance %v", rgb.R, rgb.G, rgb.B, p.Tolerance)
}

func colorDistance(a, b RGB) float64 {
	dr := float64(a.R - b.R)
	dg := float64(a.G - b.G)
	db := float64(a.B - b.B)
	return math.Sqrt(dr*dr + dg*dg + db*db)
}

// EncodeImmediate implements r + (g<<8) + (b<<16).
func (p *Palette) EncodeImmediate(rgb RGB) int {
	return rgb.R + (rgb.G << 8) + (rgb.B << 16)
}

// IsFiducial reports whether rgb is tagged as a fiducial color.
func (p *Palette) IsFiducial(rgb RGB) bool {
	_, ok := p.Fiducials[rgb.ToHex()]
	return ok
}

// GetFiducial returns the fiducial tag for rgb, or "" if it isn't one.
func (p *Palette) GetFiducial(rgb RGB) string {
	return p.Fiducials[rgb.ToHex()]
}
