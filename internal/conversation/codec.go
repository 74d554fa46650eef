package conversation

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownKind reports a content block whose "type" discriminator is not
// part of the closed variant set.
var ErrUnknownKind = errors.New("unknown content block kind")

// UnmarshalJSON applies the legacy default: segments without an explicit
// "learnable" field are learnable.
func (s *TextSegment) UnmarshalJSON(data []byte) error {
	var aux struct {
		Text      string `json:"text"`
		Learnable *bool  `json:"learnable"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	s.Text = aux.Text
	s.Learnable = aux.Learnable == nil || *aux.Learnable
	return nil
}

// segmentedBlock is the wire shape shared by text and reasoning blocks.
//
// Older files carry a single "text" field instead of "segments"; those are
// migrated in place to one learnable segment.
type segmentedBlock struct {
	Text     *string       `json:"text,omitempty"`
	Segments []TextSegment `json:"segments"`
}

func (sb *segmentedBlock) segments() []TextSegment {
	if len(sb.Segments) > 0 {
		return sb.Segments
	}
	if sb.Text != nil {
		return []TextSegment{{Text: *sb.Text, Learnable: true}}
	}
	return []TextSegment{{Text: "", Learnable: true}}
}

type blockEnvelope struct {
	Type string `json:"type"`
	segmentedBlock
	Definitions []ToolDefinition `json:"definitions,omitempty"`
	Calls       []ToolCall       `json:"calls,omitempty"`
	Results     []ToolResult     `json:"results,omitempty"`
}

func decodeBlock(data []byte) (Block, error) {
	var env blockEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}

	switch env.Type {
	case KindText:
		return &TextBlock{Segments: env.segments()}, nil
	case KindReasoning:
		return &ReasoningBlock{Segments: env.segments()}, nil
	case KindTools:
		return &ToolsBlock{Definitions: env.Definitions}, nil
	case KindToolCall:
		return &ToolCallBlock{Calls: env.Calls}, nil
	case KindToolResults:
		return &ToolResultsBlock{Results: env.Results}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, env.Type)
	}
}

// UnmarshalJSON decodes a turn with its discriminated content list.
func (it *Item) UnmarshalJSON(data []byte) error {
	var aux struct {
		Role    string            `json:"role"`
		Content []json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	it.Role = aux.Role
	it.Content = make([]Block, 0, len(aux.Content))
	for i, raw := range aux.Content {
		block, err := decodeBlock(raw)
		if err != nil {
			return fmt.Errorf("content[%d]: %w", i, err)
		}
		it.Content = append(it.Content, block)
	}
	return nil
}

// MarshalJSON encodes a turn back to the wire shape, tagging every block
// with its discriminator.
func (it Item) MarshalJSON() ([]byte, error) {
	content := make([]any, 0, len(it.Content))
	for _, block := range it.Content {
		encoded, err := encodeBlock(block)
		if err != nil {
			return nil, err
		}
		content = append(content, encoded)
	}

	return json.Marshal(struct {
		Role    string `json:"role"`
		Content []any  `json:"content"`
	}{Role: it.Role, Content: content})
}

func encodeBlock(block Block) (any, error) {
	type segmented struct {
		Type     string        `json:"type"`
		Segments []TextSegment `json:"segments"`
	}

	switch b := block.(type) {
	case *TextBlock:
		return segmented{Type: KindText, Segments: b.Segments}, nil
	case *ReasoningBlock:
		return segmented{Type: KindReasoning, Segments: b.Segments}, nil
	case *ToolsBlock:
		return struct {
			Type        string           `json:"type"`
			Definitions []ToolDefinition `json:"definitions"`
		}{KindTools, b.Definitions}, nil
	case *ToolCallBlock:
		return struct {
			Type  string     `json:"type"`
			Calls []ToolCall `json:"calls"`
		}{KindToolCall, b.Calls}, nil
	case *ToolResultsBlock:
		return struct {
			Type    string       `json:"type"`
			Results []ToolResult `json:"results"`
		}{KindToolResults, b.Results}, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownKind, block)
	}
}

// Decode parses and validates a raw conversation file.
func Decode(data []byte) (Conversation, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}

	var conv Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, err
	}
	return conv, nil
}
