// Package archive packs and verifies the deterministic `.dvcf` bundle
// described in spec.md §4.9: a stored-method ZIP with fixed entry order,
// timestamps, and mode bits, binding its contents by manifest content hash.
// Grounded on original_source/src/dvc_core/bundle.py.
package archive

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/marcohefti/dvc/internal/schema"
	"github.com/marcohefti/dvc/internal/store"
)

// fixedModTime is bundle.py's `_normalize_zip_info` timestamp, chosen so
// two packs of the same inputs produce byte-identical archives.
var fixedModTime = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)

const unixCreateSystem = 3

// Error is the single `archive-error` kind (spec.md §7).
type Error struct {
	Reason string
}

func (e *Error) Error() string { return e.Reason }

func newErr(format string, a ...any) *Error {
	return &Error{Reason: fmt.Sprintf(format, a...)}
}

// PackInputs names the four source files a pack operation binds together.
type PackInputs struct {
	ImagePath   string
	PalettePath string
	ProgramPath string
	TracePath   string
}

// DeterministicCreatedAt is substituted for manifest.created_at when
// deterministic-timestamp mode is requested, mirroring
// trace.DeterministicTimestamp, so two packs of the same four inputs
// produce byte-identical .dvcf archives (spec.md §4.9, P7).
const DeterministicCreatedAt = "1970-01-01T00:00:00Z"

// PackOptions configures Pack's manifest assembly, mirroring
// trace.Options's clock-injection shape.
type PackOptions struct {
	// DeterministicMeta substitutes DeterministicCreatedAt for the
	// wall-clock created_at timestamp, so repeated packs of identical
	// inputs are byte-identical regardless of when they run.
	DeterministicMeta bool
	// Now returns the current time; nil uses time.Now. Ignored when
	// DeterministicMeta is set.
	Now func() time.Time
}

// createdAt resolves the manifest's created_at per opts, matching
// trace.Build's timestamp substitution.
func createdAt(opts PackOptions) string {
	if opts.DeterministicMeta {
		return DeterministicCreatedAt
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return now().UTC().Format("2006-01-02T15:04:05Z")
}

// Pack builds a deterministic .dvcf archive at outputPath. It refuses to
// overwrite an existing path (spec.md §4.9 step 1).
func Pack(in PackInputs, outputPath string, tool string, opts PackOptions) (*schema.ManifestV1, error) {
	if _, err := os.Stat(outputPath); err == nil {
		return nil, newErr("output bundle already exists: %s", outputPath)
	} else if !os.IsNotExist(err) {
		return nil, newErr("%v", err)
	}

	programHash, err := store.SHA256File(in.ProgramPath)
	if err != nil {
		return nil, newErr("program file not found: %s", in.ProgramPath)
	}
	traceHash, err := store.SHA256File(in.TracePath)
	if err != nil {
		return nil, newErr("trace file not found: %s", in.TracePath)
	}
	imageHash, err := store.SHA256File(in.ImagePath)
	if err != nil {
		return nil, newErr("image file not found: %s", in.ImagePath)
	}
	paletteHash, err := store.SHA256File(in.PalettePath)
	if err != nil {
		return nil, newErr("palette file not found: %s", in.PalettePath)
	}

	traceBytes, err := os.ReadFile(in.TracePath)
	if err != nil {
		return nil, newErr("trace file not found: %s", in.TracePath)
	}
	var traceDoc schema.TraceV1
	if err := json.Unmarshal(traceBytes, &traceDoc); err != nil {
		return nil, newErr("invalid JSON in trace file %s: %v", in.TracePath, err)
	}

	manifest := &schema.ManifestV1{
		Version:   schema.ManifestVersionV1,
		CreatedAt: createdAt(opts),
		Tool:      tool,
		Program: schema.ManifestEntryV1{
			Path:   path.Join("build", filepath.Base(in.ProgramPath)),
			SHA256: programHash,
		},
		Trace: schema.ManifestTraceEntryV1{
			Path:      path.Join("trace", filepath.Base(in.TracePath)),
			SHA256:    traceHash,
			FinalRoot: traceDoc.Meta.FinalRoot,
		},
		Assets: []schema.ManifestEntryV1{
			{Path: path.Join("assets", filepath.Base(in.ImagePath)), SHA256: imageHash},
			{Path: path.Join("assets", filepath.Base(in.PalettePath)), SHA256: paletteHash},
		},
		Provenance: traceDoc.Meta.ColorProvenance,
	}

	manifestBytes, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, newErr("%v", err)
	}
	manifest.SHA256 = store.SHA256Hex(manifestBytes)
	manifestBytes, err = json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, newErr("%v", err)
	}

	if err := writeZip(outputPath, manifestBytes, in); err != nil {
		return nil, err
	}
	return manifest, nil
}

func writeZip(outputPath string, manifestBytes []byte, in PackInputs) error {
	f, err := os.OpenFile(outputPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return newErr("%v", err)
	}
	defer func() { _ = f.Close() }()

	zw := zip.NewWriter(f)

	type entry struct {
		arcName string
		data    []byte
	}

	entries := []entry{{arcName: "manifest.json", data: manifestBytes}}
	for _, src := range []struct {
		path, prefix string
	}{
		{in.ImagePath, "assets"},
		{in.PalettePath, "assets"},
		{in.ProgramPath, "build"},
		{in.TracePath, "trace"},
	} {
		b, err := os.ReadFile(src.path)
		if err != nil {
			_ = zw.Close()
			return newErr("%s not found: %s", src.prefix, src.path)
		}
		entries = append(entries, entry{
			arcName: path.Join(src.prefix, filepath.Base(src.path)),
			data:    b,
		})
	}

	for _, e := range entries {
		hdr := &zip.FileHeader{
			Name:     e.arcName,
			Method:   zip.Store,
			Modified: fixedModTime,
		}
		hdr.CreatorVersion = unixCreateSystem << 8 // low byte is set by CreateHeader
		hdr.ExternalAttrs = 0o644 << 16

		w, err := zw.CreateHeader(hdr)
		if err != nil {
			_ = zw.Close()
			return newErr("%v", err)
		}
		if _, err := w.Write(e.data); err != nil {
			_ = zw.Close()
			return newErr("%v", err)
		}
	}

	if err := zw.Close(); err != nil {
		return newErr("%v", err)
	}
	return nil
}

// VerifyResult summarizes an archive-verify pass (spec.md §4.9's "Verify").
type VerifyResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Verify checks the manifest's self-hash, every entry's content hash, and
// the trace's final_root cross-check (spec.md §4.9 "Verify (archive)").
func Verify(archivePath string) (VerifyResult, error) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return VerifyResult{}, newErr("%v", err)
	}
	defer func() { _ = zr.Close() }()

	manifestBytes, err := readEntry(&zr.Reader, "manifest.json")
	if err != nil {
		return VerifyResult{}, newErr("bundle is missing manifest.json")
	}

	var manifest schema.ManifestV1
	if err := json.Unmarshal(manifestBytes, &manifest); err != nil {
		return VerifyResult{}, newErr("invalid JSON in manifest.json: %v", err)
	}

	if manifest.SHA256 != "" {
		// Pack's self-hash was computed over the manifest serialized
		// *before* the sha256 field existed. Reproduce those bytes by
		// zeroing the field (omitempty drops it) and re-marshaling with
		// the same field order and indentation.
		withoutHash := manifest
		withoutHash.SHA256 = ""
		recomputedBytes, err := json.MarshalIndent(withoutHash, "", "  ")
		if err != nil {
			return VerifyResult{}, newErr("%v", err)
		}
		if store.SHA256Hex(recomputedBytes) != manifest.SHA256 {
			return VerifyResult{}, newErr("manifest-hash-mismatch")
		}
	}

	if err := checkEntryHash(&zr.Reader, manifest.Program.Path, manifest.Program.SHA256); err != nil {
		return VerifyResult{}, err
	}

	traceBytes, err := readEntry(&zr.Reader, manifest.Trace.Path)
	if err != nil {
		return VerifyResult{}, newErr("trace file not found in bundle: %s", manifest.Trace.Path)
	}
	if store.SHA256Hex(traceBytes) != manifest.Trace.SHA256 {
		return VerifyResult{}, newErr("content-hash-mismatch: %s", manifest.Trace.Path)
	}
	var traceDoc schema.TraceV1
	if err := json.Unmarshal(traceBytes, &traceDoc); err != nil {
		return VerifyResult{}, newErr("invalid JSON in trace file %s: %v", manifest.Trace.Path, err)
	}
	if traceDoc.Meta.FinalRoot != manifest.Trace.FinalRoot {
		return VerifyResult{}, newErr("trace-root-mismatch")
	}

	for _, asset := range manifest.Assets {
		if err := checkEntryHash(&zr.Reader, asset.Path, asset.SHA256); err != nil {
			return VerifyResult{}, err
		}
	}

	return VerifyResult{Status: "valid", Message: "bundle integrity verified successfully"}, nil
}

func checkEntryHash(zr *zip.Reader, arcPath, wantHash string) error {
	b, err := readEntry(zr, arcPath)
	if err != nil {
		return newErr("content-hash-mismatch: %s not found in bundle", arcPath)
	}
	if store.SHA256Hex(b) != wantHash {
		return newErr("content-hash-mismatch: %s", arcPath)
	}
	return nil
}

func readEntry(zr *zip.Reader, arcPath string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name == arcPath {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer func() { _ = rc.Close() }()
			return io.ReadAll(rc)
		}
	}
	return nil, newErr("entry not found: %s", arcPath)
}

// Extract unpacks every entry in the archive to outDir, mirroring
// bundle.py's unpack(output_dir) (spec.md's supplemented feature — not
// bound to a CLI verb, but exercised directly and by tests).
func Extract(archivePath, outDir string) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return newErr("bundle file not found: %s", archivePath)
	}
	defer func() { _ = zr.Close() }()

	for _, f := range zr.File {
		dest := filepath.Join(outDir, filepath.FromSlash(f.Name))
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return newErr("%v", err)
		}
		rc, err := f.Open()
		if err != nil {
			return newErr("%v", err)
		}
		out, err := os.Create(dest)
		if err != nil {
			_ = rc.Close()
			return newErr("%v", err)
		}
		_, copyErr := io.Copy(out, rc)
		_ = rc.Close()
		closeErr := out.Close()
		if copyErr != nil {
			return newErr("%v", copyErr)
		}
		if closeErr != nil {
			return newErr("%v", closeErr)
		}
	}
	return nil
}
