// Package schema holds the versioned wire-format JSON shapes shared across
// the compiler, VM, trace builder, verifier, and archive packer. Business
// logic and validation live in the owning packages (palette, opcode, vm,
// trace, verify, archive); this package only fixes the byte-level contract.
package schema

// Version tags embedded in on-disk documents. palette.FromJSON compares the
// palette tag verbatim, so a palette carrying any other version string is
// rejected; the trace and manifest tags are written on output but are not
// checked when those documents are read back.
const (
	PaletteVersionV1  = "palette-v0.1"
	TraceVersionV1    = "dvc-trace-0.1"
	ManifestVersionV1 = "dvcf-v0.1"
)

// DefaultStepLimit is the VM's step budget when none is supplied.
const DefaultStepLimit = 10_000

// ZeroHash is the hash-chain genesis value and the final_root of an empty trace.
const ZeroHash = "0000000000000000000000000000000000000000000000000000000000000000"
