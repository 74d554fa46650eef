package tokenizer

// Tokenizer is the encoder adapter used by the export pipeline.
//
// Implementations are stateless with respect to calls: encoding one text
// never affects the encoding of the next. Special tokens are plain strings
// resolved through Encode like any other text.
type Tokenizer interface {
	// Encode converts text to token IDs.
	Encode(text string) ([]int32, error)

	// Decode converts token IDs back to text.
	Decode(tokens []int32) (string, error)

	// VocabSize returns the total vocabulary size.
	VocabSize() int

	// Name identifies the tokenizer (encoding name or source path).
	Name() string
}
