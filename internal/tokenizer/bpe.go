package tokenizer

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// BPETokenizer implements Byte-Pair Encoding tokenization.
//
// This is a pure Go implementation that can load HuggingFace tokenizer.json
// files. Added special tokens are matched as atomic units before the merge
// loop runs, so configured wire-format strings like "<think>" encode to
// their single reserved IDs instead of being split.
type BPETokenizer struct {
	vocab        map[string]int32 // token -> ID
	merges       []pair           // BPE merge rules
	mergeRanks   map[pair]int
	reverseVocab map[int32]string // ID -> token
	addedTokens  []string         // special token strings, longest first
	unkToken     int32
	name         string
}

type pair struct {
	first  string
	second string
}

// NewBPETokenizer creates a new BPE tokenizer from vocab and merges.
func NewBPETokenizer(vocab map[string]int32, merges []pair) *BPETokenizer {
	reverseVocab := make(map[int32]string, len(vocab))
	for token, id := range vocab {
		reverseVocab[id] = token
	}

	mergeRanks := make(map[pair]int, len(merges))
	for i, m := range merges {
		mergeRanks[m] = i
	}

	return &BPETokenizer{
		vocab:        vocab,
		merges:       merges,
		mergeRanks:   mergeRanks,
		reverseVocab: reverseVocab,
		unkToken:     -1,
		name:         "bpe",
	}
}

// AddSpecialToken registers a token string that encodes as a single atomic
// unit. The string must already be present in the vocabulary.
func (b *BPETokenizer) AddSpecialToken(content string) {
	b.addedTokens = append(b.addedTokens, content)
	// Longest first, so overlapping tokens match greedily.
	sort.Slice(b.addedTokens, func(i, j int) bool {
		return len(b.addedTokens[i]) > len(b.addedTokens[j])
	})
}

// SetUnkToken configures the unknown-token fallback ID.
func (b *BPETokenizer) SetUnkToken(id int32) {
	b.unkToken = id
}

// Encode converts text to token IDs using BPE.
func (b *BPETokenizer) Encode(text string) ([]int32, error) {
	tokens := []int32{}
	for _, piece := range b.splitSpecial(text) {
		if id, ok := b.vocab[piece.text]; ok && piece.special {
			tokens = append(tokens, id)
			continue
		}
		ids, err := b.encodePiece(piece.text)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, ids...)
	}
	return tokens, nil
}

type piece struct {
	text    string
	special bool
}

// splitSpecial cuts text into plain pieces and atomic special-token pieces.
func (b *BPETokenizer) splitSpecial(text string) []piece {
	if len(b.addedTokens) == 0 {
		return []piece{{text: text}}
	}

	var pieces []piece
	for text != "" {
		bestIdx := -1
		bestToken := ""
		for _, tok := range b.addedTokens {
			if idx := strings.Index(text, tok); idx >= 0 && (bestIdx == -1 || idx < bestIdx) {
				bestIdx = idx
				bestToken = tok
			}
		}
		if bestIdx == -1 {
			pieces = append(pieces, piece{text: text})
			break
		}
		if bestIdx > 0 {
			pieces = append(pieces, piece{text: text[:bestIdx]})
		}
		pieces = append(pieces, piece{text: bestToken, special: true})
		text = text[bestIdx+len(bestToken):]
	}
	return pieces
}

// encodePiece applies BPE merges to one plain-text piece. Characters outside
// the vocabulary fall back to the unk token when one is set; otherwise they
// are an error, so no text is ever silently lost from the encoding.
func (b *BPETokenizer) encodePiece(text string) ([]int32, error) {
	if text == "" {
		return nil, nil
	}

	chars := []string{}
	for _, r := range text {
		chars = append(chars, string(r))
	}

	for len(chars) > 1 {
		// Find the best-ranked adjacent pair to merge.
		bestIdx := -1
		bestRank := len(b.merges) + 1
		for i := 0; i < len(chars)-1; i++ {
			if rank, ok := b.mergeRanks[pair{chars[i], chars[i+1]}]; ok && rank < bestRank {
				bestIdx = i
				bestRank = rank
			}
		}
		if bestIdx == -1 {
			break
		}

		merged := chars[bestIdx] + chars[bestIdx+1]
		chars = append(chars[:bestIdx], append([]string{merged}, chars[bestIdx+2:]...)...)
	}

	var tokens []int32
	for _, char := range chars {
		id, ok := b.vocab[char]
		if !ok {
			if b.unkToken < 0 {
				return nil, fmt.Errorf("character %q is not in the vocabulary and no unk token is set", char)
			}
			id = b.unkToken
		}
		tokens = append(tokens, id)
	}
	return tokens, nil
}

// Decode converts token IDs back to text.
func (b *BPETokenizer) Decode(tokens []int32) (string, error) {
	var sb strings.Builder
	for _, token := range tokens {
		if text, ok := b.reverseVocab[token]; ok {
			sb.WriteString(text)
		} else {
			sb.WriteString("�")
		}
	}
	return sb.String(), nil
}

// VocabSize returns the total vocabulary size.
func (b *BPETokenizer) VocabSize() int {
	return len(b.vocab)
}

// Name returns the tokenizer name.
func (b *BPETokenizer) Name() string {
	return b.name
}

// HuggingFaceTokenizerConfig represents a subset of tokenizer.json structure.
type HuggingFaceTokenizerConfig struct {
	Model struct {
		Vocab  map[string]int `json:"vocab"`
		Merges []string       `json:"merges"`
	} `json:"model"`
	AddedTokens []struct {
		ID      int    `json:"id"`
		Content string `json:"content"`
		Special bool   `json:"special"`
	} `json:"added_tokens"`
}

// LoadBPEFromHuggingFace loads a BPE tokenizer from tokenizer.json.
//
// This is a simplified loader that handles the most common HuggingFace format.
func LoadBPEFromHuggingFace(path string) (*BPETokenizer, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: Path comes from trusted caller
	if err != nil {
		return nil, fmt.Errorf("failed to read tokenizer.json: %w", err)
	}

	var config HuggingFaceTokenizerConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse tokenizer.json: %w", err)
	}

	// Build vocab.
	vocab := make(map[string]int32, len(config.Model.Vocab))
	for token, id := range config.Model.Vocab {
		vocab[token] = int32(id) //nolint:gosec // G115: vocab IDs fit in int32
	}

	// Added tokens live outside model.vocab but are part of the ID space.
	for _, added := range config.AddedTokens {
		vocab[added.Content] = int32(added.ID) //nolint:gosec // G115: vocab IDs fit in int32
	}

	// Parse merges.
	var merges []pair
	for _, mergeStr := range config.Model.Merges {
		parts := strings.Fields(mergeStr)
		if len(parts) == 2 {
			merges = append(merges, pair{parts[0], parts[1]})
		}
	}

	tok := NewBPETokenizer(vocab, merges)
	tok.name = path

	for _, added := range config.AddedTokens {
		if !added.Special {
			continue
		}
		tok.AddSpecialToken(added.Content)
		if strings.Contains(strings.ToLower(added.Content), "unk") {
			tok.unkToken = int32(added.ID) //nolint:gosec // G115: vocab IDs fit in int32
		}
	}

	return tok, nil
}
