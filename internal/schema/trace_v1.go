package schema

// TraceStepV1 is the wire shape of one trace step (spec.md §3, §4.7).
// Optional fields must be omitted, never emitted as null, because presence
// itself is part of the hashed byte stream.
type TraceStepV1 struct {
	Index       int      `json:"index"`
	IP          int      `json:"ip"`
	Op          string   `json:"op"`
	Arg         *string  `json:"arg,omitempty"`
	StackBefore []string `json:"stack_before"`
	StackAfter  []string `json:"stack_after"`
	Output      *string  `json:"output,omitempty"`
	Note        *string  `json:"note,omitempty"`
	Fault       *string  `json:"fault,omitempty"`
	StepHash    string   `json:"step_hash"`
}

// GridSizeV1 is the compiled tile-grid dimensions embedded in provenance.
type GridSizeV1 struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// CompilationSummaryV1 mirrors compiler.py's generate_compilation_summary.
type CompilationSummaryV1 struct {
	TilesProcessed        int `json:"tiles_processed"`
	InstructionsGenerated int `json:"instructions_generated"`
}

// ColorProvenanceV1 binds a trace to the palette and compiler that produced
// its program (spec.md §3, §4.7).
type ColorProvenanceV1 struct {
	PaletteHash        string               `json:"palette_hash"`
	CompilerVersion    string               `json:"compiler_version"`
	TileSize           int                  `json:"tile_size"`
	GridSize           GridSizeV1           `json:"grid_size"`
	CompilationSummary CompilationSummaryV1 `json:"compilation_summary"`
}

// TraceMetaV1 is the trace's meta block (spec.md §3).
type TraceMetaV1 struct {
	Version         string             `json:"version"`
	StepLimit       int                `json:"step_limit"`
	Halted          bool               `json:"halted"`
	Faulted         bool               `json:"faulted"`
	Outputs         []string           `json:"outputs"`
	FinalRoot       string             `json:"final_root"`
	StartedAt       string             `json:"started_at"`
	FinishedAt      string             `json:"finished_at"`
	ColorProvenance *ColorProvenanceV1 `json:"color_provenance,omitempty"`
}

// TraceV1 is the full on-disk trace document.
type TraceV1 struct {
	Meta  TraceMetaV1   `json:"meta"`
	Steps []TraceStepV1 `json:"steps"`
}
