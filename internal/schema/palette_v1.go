package schema

// PaletteV1 is the raw JSON shape of a palette file (spec.md §3, §4.3),
// before validation into palette.Palette. Field presence, not zero values,
// drives defaulting, so optional fields are pointers or left as zero and
// checked against the JSON that produced them by the caller.
type PaletteV1 struct {
	Version       string            `json:"version"`
	TileSize      int               `json:"tile_size"`
	Tolerance     *float64          `json:"tolerance,omitempty"`
	ImmediateMode string            `json:"immediate_mode,omitempty"`
	ScanOrder     string            `json:"scan_order,omitempty"`
	Opcodes       map[string]string `json:"opcodes"`
	Fiducials     map[string]string `json:"fiducials,omitempty"`
}
