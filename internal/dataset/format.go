package dataset

// On-disk layout of a .cvds ragged dataset file:
//
//	[0x00] fixed header: magic "CVDS", uint32 version, uint32 flags, 4 reserved bytes
//	[0x10] data section: per row, input_ids then labels as little-endian int32
//	[...]  index: JSON Index document
//	[EOF-16] footer: uint64 index offset, uint64 index size
//
// Rows are streamed into the data section as they are appended; the index is
// only known once writing is finished, so it lives at the tail and is located
// through the fixed-size footer. The file carries no timestamps: writing the
// same rows with the same metadata always produces identical bytes.
const (
	MagicBytes      = "CVDS"
	FormatVersion   = 1
	FixedHeaderSize = 16
	FooterSize      = 16

	// maxIndexSize bounds the JSON index a reader will load.
	maxIndexSize = 512 * 1024 * 1024
)

// tokenSize is the byte width of one token id or label (int32).
const tokenSize = 4

// Index is the JSON document stored in the index section.
type Index struct {
	FormatVersion int               `json:"format_version"`
	Rows          []RowMeta         `json:"rows"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// RowMeta locates one row inside the data section.
//
// Length is the per-array token count; the row occupies 2*Length*4 bytes at
// Offset (input_ids first, labels second), relative to the data section start.
type RowMeta struct {
	Offset int64 `json:"offset"`
	Length int64 `json:"length"`
}
