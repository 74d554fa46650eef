// Package export provides the public conversation-to-training-data API.
//
// This package wraps the internal export implementation: the conversation
// encoder with its role- and content-kind-dependent label masking, and the
// pipeline that streams encoded rows into a ragged dataset.
//
// Example usage:
//
//	import (
//	    "github.com/convkit/convkit/export"
//	    "github.com/convkit/convkit/tokenizer"
//	)
//
//	tok, err := tokenizer.AutoLoad("cl100k_base")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	cfg := export.DefaultConfig()
//	cfg.RootDir = "corpus/"
//	cfg.OutputPath = "train.cvds"
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//
//	pipeline := export.NewPipeline(tok, cfg, logger)
//	for ev := range pipeline.Run(ctx) {
//	    if ev.Terminal {
//	        fmt.Println(ev.Outcome)
//	    }
//	}
package export

import (
	"github.com/convkit/convkit/internal/export"
)

// Config controls one export run.
type Config = export.Config

// SpecialTokens holds the wire-format token strings.
type SpecialTokens = export.SpecialTokens

// Record is one encoded conversation.
type Record = export.Record

// Encoder turns a validated conversation into an aligned Record.
type Encoder = export.Encoder

// Pipeline runs one export end to end.
type Pipeline = export.Pipeline

// Event is one entry in a run's event stream.
type Event = export.Event

// Stats summarizes a run.
type Stats = export.Stats

// Outcome is the terminal state of an export run.
type Outcome = export.Outcome

// Terminal outcomes.
const (
	OutcomeCompleted = export.OutcomeCompleted
	OutcomeCancelled = export.OutcomeCancelled
	OutcomeFailed    = export.OutcomeFailed
)

// IgnoreIndex is the default label value excluded from the training loss.
const IgnoreIndex = export.IgnoreIndex

// Common errors.
var (
	ErrConfig             = export.ErrConfig
	ErrNoFiles            = export.ErrNoFiles
	ErrEncoding           = export.ErrEncoding
	ErrUnsupportedContent = export.ErrUnsupportedContent
	ErrStorage            = export.ErrStorage
)

// DefaultConfig returns a Config with all non-path fields defaulted.
var DefaultConfig = export.DefaultConfig

// DefaultSpecialTokens returns the Llama 3 style token set.
var DefaultSpecialTokens = export.DefaultSpecialTokens

// NewEncoder creates an Encoder for the given tokenizer and configuration.
var NewEncoder = export.NewEncoder

// NewPipeline creates a Pipeline over a validated configuration.
var NewPipeline = export.NewPipeline
