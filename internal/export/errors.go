package export

import "errors"

// Error taxonomy for an export run. Per-file errors (encoding, unsupported
// content, validation — see conversation.ErrInvalid and
// conversation.ErrUnknownKind, shape — see dataset.ErrShape) skip the file
// and the run continues. ErrConfig, ErrNoFiles and ErrStorage are fatal to
// the whole run.
var (
	ErrConfig             = errors.New("invalid export configuration")
	ErrNoFiles            = errors.New("no conversation files found")
	ErrEncoding           = errors.New("tokenizer failed to encode text")
	ErrUnsupportedContent = errors.New("unsupported content block")
	ErrStorage            = errors.New("dataset storage failure")
)
