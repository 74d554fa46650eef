// Package dataset provides the public API for .cvds ragged training
// datasets: two parallel variable-length int32 arrays, "input_ids" and
// "labels", one row per exported conversation.
package dataset

import (
	"github.com/convkit/convkit/internal/dataset"
)

// Writer appends rows to a .cvds file.
type Writer = dataset.Writer

// Reader provides random access to the rows of a .cvds file.
type Reader = dataset.Reader

// Index is the row index stored at the tail of a .cvds file.
type Index = dataset.Index

// RowMeta locates one row inside the data section.
type RowMeta = dataset.RowMeta

// Common errors.
var (
	ErrShape         = dataset.ErrShape
	ErrClosed        = dataset.ErrClosed
	ErrRowOutOfRange = dataset.ErrRowOutOfRange
)

// Create creates a dataset file and returns a writer for it.
var Create = dataset.Create

// Open opens a dataset file for random-access reading.
var Open = dataset.Open
