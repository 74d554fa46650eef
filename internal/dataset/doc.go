// Package dataset implements the .cvds ragged training dataset format.
//
// A .cvds file stores two parallel ragged int32 arrays, "input_ids" and
// "labels", one row per exported conversation. Rows may have different
// lengths, but row i of both arrays is always the same length. The format is
// append-only and streamed: rows go straight to disk as raw little-endian
// int32 payloads, and the per-row (offset, length) index is written as a
// JSON document at the tail when the writer is closed, located through a
// fixed-size footer. Readers use the index for random access by row.
package dataset
