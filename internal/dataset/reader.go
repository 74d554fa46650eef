package dataset

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Reader provides random access to the rows of a .cvds file.
type Reader struct {
	file   *os.File
	index  Index
	closed bool
}

// Open opens a dataset file, verifies the header and loads the row index.
func Open(path string) (*Reader, error) {
	//nolint:gosec // G304: Path comes from user input, expected for inspection.
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file: %w", err)
	}

	r := &Reader{file: file}
	if err := r.parse(); err != nil {
		_ = file.Close()
		return nil, err
	}
	return r, nil
}

func (r *Reader) parse() error {
	header := make([]byte, FixedHeaderSize)
	if _, err := io.ReadFull(r.file, header); err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}
	if string(header[0:4]) != MagicBytes {
		return ErrInvalidMagic
	}
	if version := binary.LittleEndian.Uint32(header[4:8]); version != FormatVersion {
		return fmt.Errorf("%w: got %d, expected %d", ErrUnsupportedVersion, version, FormatVersion)
	}

	info, err := r.file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}
	if info.Size() < FixedHeaderSize+FooterSize {
		return fmt.Errorf("%w: file truncated", ErrCorruptIndex)
	}

	footer := make([]byte, FooterSize)
	if _, err := r.file.ReadAt(footer, info.Size()-FooterSize); err != nil {
		return fmt.Errorf("failed to read footer: %w", err)
	}
	indexOffset := binary.LittleEndian.Uint64(footer[0:8])
	indexSize := binary.LittleEndian.Uint64(footer[8:16])

	if indexSize > maxIndexSize {
		return fmt.Errorf("%w: index size %d exceeds limit", ErrCorruptIndex, indexSize)
	}
	//nolint:gosec // G115: Bounds checked against the file size below.
	if int64(indexOffset) < FixedHeaderSize || int64(indexOffset+indexSize) != info.Size()-FooterSize {
		return fmt.Errorf("%w: index does not fit the file", ErrCorruptIndex)
	}

	indexJSON := make([]byte, indexSize)
	if _, err := r.file.ReadAt(indexJSON, int64(indexOffset)); err != nil { //nolint:gosec // G115: checked above
		return fmt.Errorf("failed to read index: %w", err)
	}
	if err := json.Unmarshal(indexJSON, &r.index); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptIndex, err)
	}

	dataSize := int64(indexOffset) - FixedHeaderSize //nolint:gosec // G115: checked above
	for i, row := range r.index.Rows {
		if row.Offset < 0 || row.Length <= 0 || row.Offset+2*row.Length*tokenSize > dataSize {
			return fmt.Errorf("%w: row %d extends beyond data section", ErrCorruptIndex, i)
		}
	}
	return nil
}

// Rows returns the number of rows in the dataset.
func (r *Reader) Rows() int {
	return len(r.index.Rows)
}

// Metadata returns the key/value pairs recorded by the writer.
func (r *Reader) Metadata() map[string]string {
	return r.index.Metadata
}

// Row reads row i and returns its (input_ids, labels) pair.
func (r *Reader) Row(i int) ([]int32, []int32, error) {
	if r.closed {
		return nil, nil, ErrClosed
	}
	if i < 0 || i >= len(r.index.Rows) {
		return nil, nil, fmt.Errorf("%w: %d of %d", ErrRowOutOfRange, i, len(r.index.Rows))
	}

	meta := r.index.Rows[i]
	raw := make([]byte, 2*meta.Length*tokenSize)
	if _, err := r.file.ReadAt(raw, FixedHeaderSize+meta.Offset); err != nil {
		return nil, nil, fmt.Errorf("failed to read row %d: %w", i, err)
	}

	inputIDs := make([]int32, meta.Length)
	labels := make([]int32, meta.Length)
	for j := range inputIDs {
		inputIDs[j] = int32(binary.LittleEndian.Uint32(raw[j*tokenSize:])) //nolint:gosec // G115: round-trip of stored int32
	}
	labelBase := meta.Length * tokenSize
	for j := range labels {
		labels[j] = int32(binary.LittleEndian.Uint32(raw[labelBase+int64(j)*tokenSize:])) //nolint:gosec // G115: round-trip of stored int32
	}
	return inputIDs, labels, nil
}

// Close releases the file handle. Calling Close more than once is a no-op.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.file.Close()
}
