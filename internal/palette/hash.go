package palette

import (
	"github.com/marcohefti/dvc/internal/schema"
	"github.com/marcohefti/dvc/internal/store"
)

// Hash returns the palette's content hash for trace/manifest provenance.
// original_source's color_commands.py hashes only `palette.opcodes`; this
// port hashes the full canonical palette document instead (an Open
// Question resolution recorded in DESIGN.md) because it is strictly more
// faithful provenance and nothing in spec.md excludes it.
func (p *Palette) Hash() (string, error) {
	doc := schema.PaletteV1{
		Version:       p.Version,
		TileSize:      p.TileSize,
		Tolerance:     &p.Tolerance,
		ImmediateMode: p.ImmediateMode,
		ScanOrder:     p.ScanOrder,
		Opcodes:       p.Opcodes,
		Fiducials:     p.Fiducials,
	}
	b, err := store.CanonicalJSON(doc)
	if err != nil {
		return "", err
	}
	return store.SHA256Hex(b), nil
}
