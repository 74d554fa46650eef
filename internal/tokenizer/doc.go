// Package tokenizer provides the text-to-token-ID encoder adapter used by
// the export pipeline.
//
// Two implementations are provided:
//   - TikToken: OpenAI BPE encodings via pkoukk/tiktoken-go
//   - BPETokenizer: pure Go BPE that loads HuggingFace tokenizer.json files
//
// Both treat special tokens as ordinary strings: encoding "<|eot_id|>"
// yields whatever IDs the vocabulary assigns, reserved single IDs included.
// The exporter depends on exactly this behavior to resolve its configured
// wire-format tokens.
package tokenizer
