package schema

// ManifestEntryV1 is one content-hashed file entry in an archive manifest.
type ManifestEntryV1 struct {
	Path   string `json:"path"`
	SHA256 string `json:"sha256"`
}

// ManifestTraceEntryV1 extends ManifestEntryV1 with the trace's final_root,
// duplicated into the manifest so archive-verify can cross-check it without
// re-running the hash-chain verifier (spec.md §4.9).
type ManifestTraceEntryV1 struct {
	Path      string `json:"path"`
	SHA256    string `json:"sha256"`
	FinalRoot string `json:"final_root"`
}

// ManifestV1 is the archive manifest document (spec.md §3, §4.9). SHA256 is
// absent on the first serialization, computed over those manifest bytes,
// then filled in and the manifest serialized again.
type ManifestV1 struct {
	Version    string               `json:"version"`
	CreatedAt  string               `json:"created_at"`
	Tool       string               `json:"tool"`
	Program    ManifestEntryV1      `json:"program"`
	Trace      ManifestTraceEntryV1 `json:"trace"`
	Assets     []ManifestEntryV1    `json:"assets"`
	Provenance *ColorProvenanceV1   `json:"provenance,omitempty"`
	SHA256     string               `json:"sha256,omitempty"`
}
