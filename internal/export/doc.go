// Package export converts conversation files into tokenized training
// sequences with per-token learnability masks and streams them into a .cvds
// ragged dataset.
//
// The Encoder maps one conversation to an aligned (input_ids, labels) pair:
// special tokens frame every turn, and labels are masked by content kind and
// conversational role so the loss only covers what the assistant should
// learn to produce. The Pipeline orchestrates a whole run on a background
// goroutine: deterministic file discovery, schema validation, optional
// system-prompt injection, encoding, appending and progress reporting, with
// cooperative cancellation at file boundaries. Per-file problems skip the
// file; storage and configuration problems abort the run.
package export
