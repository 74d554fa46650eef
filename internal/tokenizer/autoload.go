package tokenizer

import (
	"fmt"
	"os"
	"path/filepath"
)

// AutoLoad attempts to automatically load the correct tokenizer.
//
// It tries multiple strategies:
//  1. Load a HuggingFace tokenizer.json (given directly or inside a directory)
//  2. Load tiktoken by model name
//  3. Load tiktoken by encoding name
func AutoLoad(pathOrName string) (Tokenizer, error) {
	if info, err := os.Stat(pathOrName); err == nil {
		path := pathOrName
		if info.IsDir() {
			path = filepath.Join(pathOrName, "tokenizer.json")
		}
		if _, err := os.Stat(path); err == nil {
			return LoadBPEFromHuggingFace(path)
		}
	}

	if tok, err := NewTikTokenForModel(pathOrName); err == nil {
		return tok, nil
	}

	if tok, err := NewTikToken(pathOrName); err == nil {
		return tok, nil
	}

	return nil, fmt.Errorf("failed to auto-load tokenizer from %q", pathOrName)
}
