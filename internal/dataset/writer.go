package dataset

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
)

// Writer appends (input_ids, labels) rows to a .cvds file.
//
// Rows are append-only: once written they are never resized or overwritten.
// The writer owns the output file exclusively for its whole lifetime and
// must be closed to produce a readable file (Close writes the row index).
type Writer struct {
	file     *os.File
	buf      *bufio.Writer
	rows     []RowMeta
	offset   int64 // next write position, relative to data section start
	metadata map[string]string
	closed   bool
}

// Create creates the output file, writes the fixed header and returns a
// writer positioned at the start of the data section.
func Create(path string) (*Writer, error) {
	//nolint:gosec // G304: Output path comes from user configuration.
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create dataset file: %w", err)
	}

	w := &Writer{
		file:     file,
		buf:      bufio.NewWriter(file),
		metadata: make(map[string]string),
	}

	header := make([]byte, FixedHeaderSize)
	copy(header[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(header[4:8], FormatVersion)
	binary.LittleEndian.PutUint32(header[8:12], 0) // flags
	if _, err := w.buf.Write(header); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	return w, nil
}

// PutMetadata records a key/value pair in the index written at Close.
// Metadata must be deterministic for a given run configuration; the format
// deliberately carries no timestamps.
func (w *Writer) PutMetadata(key, value string) {
	w.metadata[key] = value
}

// Append stores one row.
//
// Both slices must have equal length; a mismatch returns ErrShape and leaves
// the writer open and usable. An empty pair is a deliberate no-op: nothing is
// written and the row count does not change.
func (w *Writer) Append(inputIDs, labels []int32) error {
	if w.closed {
		return ErrClosed
	}
	if len(inputIDs) != len(labels) {
		return fmt.Errorf("%w: input_ids has %d, labels has %d", ErrShape, len(inputIDs), len(labels))
	}
	if len(inputIDs) == 0 {
		return nil
	}

	if err := binary.Write(w.buf, binary.LittleEndian, inputIDs); err != nil {
		return fmt.Errorf("failed to write input_ids: %w", err)
	}
	if err := binary.Write(w.buf, binary.LittleEndian, labels); err != nil {
		return fmt.Errorf("failed to write labels: %w", err)
	}

	length := int64(len(inputIDs))
	w.rows = append(w.rows, RowMeta{Offset: w.offset, Length: length})
	w.offset += 2 * length * tokenSize
	return nil
}

// Rows returns the number of rows appended so far.
func (w *Writer) Rows() int {
	return len(w.rows)
}

// Close flushes buffered rows, writes the index and footer, and releases the
// file handle. Calling Close more than once is a no-op.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	index := Index{
		FormatVersion: FormatVersion,
		Rows:          w.rows,
		Metadata:      w.metadata,
	}
	if index.Rows == nil {
		index.Rows = []RowMeta{}
	}

	indexJSON, err := json.Marshal(index)
	if err != nil {
		_ = w.file.Close()
		return fmt.Errorf("failed to marshal index: %w", err)
	}

	if _, err := w.buf.Write(indexJSON); err != nil {
		_ = w.file.Close()
		return fmt.Errorf("failed to write index: %w", err)
	}

	footer := make([]byte, FooterSize)
	binary.LittleEndian.PutUint64(footer[0:8], uint64(FixedHeaderSize+w.offset))
	binary.LittleEndian.PutUint64(footer[8:16], uint64(len(indexJSON)))
	if _, err := w.buf.Write(footer); err != nil {
		_ = w.file.Close()
		return fmt.Errorf("failed to write footer: %w", err)
	}

	if err := w.buf.Flush(); err != nil {
		_ = w.file.Close()
		return fmt.Errorf("failed to flush dataset: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		_ = w.file.Close()
		return fmt.Errorf("failed to sync dataset: %w", err)
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("failed to close dataset: %w", err)
	}
	return nil
}
