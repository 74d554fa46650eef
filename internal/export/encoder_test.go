package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convkit/convkit/internal/conversation"
)

// byteTok encodes each byte as its own token ID. It is lossless and
// deterministic, which lets tests assert exact ID/label alignment.
type byteTok struct{}

func (byteTok) Encode(text string) ([]int32, error) {
	ids := make([]int32, len(text))
	for i := 0; i < len(text); i++ {
		ids[i] = int32(text[i])
	}
	return ids, nil
}

func (byteTok) Decode(tokens []int32) (string, error) {
	b := make([]byte, len(tokens))
	for i, tok := range tokens {
		b[i] = byte(tok)
	}
	return string(b), nil
}

func (byteTok) VocabSize() int { return 256 }
func (byteTok) Name() string   { return "bytes" }

// span is one stretch of expected output text with a uniform label rule.
type span struct {
	text      string
	learnable bool
}

// expect builds the expected (input_ids, labels) pair for a list of spans
// under the byte tokenizer.
func expect(spans []span, ignore int32) ([]int32, []int32) {
	var ids, labels []int32
	for _, s := range spans {
		for i := 0; i < len(s.text); i++ {
			id := int32(s.text[i])
			ids = append(ids, id)
			if s.learnable {
				labels = append(labels, id)
			} else {
				labels = append(labels, ignore)
			}
		}
	}
	return ids, labels
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Tokens = SpecialTokens{
		Bos:               "<bos>",
		Eot:               "<eot>",
		HeaderStart:       "<h>",
		HeaderEnd:         "</h>",
		ThinkStart:        "<think>",
		ThinkEnd:          "</think>",
		ToolsStart:        "<tools>",
		ToolsEnd:          "</tools>",
		ToolCallStart:     "<tool_call>",
		ToolCallEnd:       "</tool_call>",
		ToolResponseStart: "<tool_response>",
		ToolResponseEnd:   "</tool_response>",
	}
	return cfg
}

func TestEncoder_Masking(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		conv   conversation.Conversation
		spans  []span
	}{
		{
			name: "system turn is fully masked",
			conv: conversation.Conversation{{
				Role: "system",
				Content: []conversation.Block{
					&conversation.TextBlock{Segments: []conversation.TextSegment{{Text: "Hello", Learnable: false}}},
				},
			}},
			spans: []span{
				{"<bos>", false},
				{"<h>system</h>\n", false},
				{"Hello", false},
				{"<eot>", false},
			},
		},
		{
			name: "assistant learnable text and eot",
			conv: conversation.Conversation{{
				Role: "assistant",
				Content: []conversation.Block{
					&conversation.TextBlock{Segments: []conversation.TextSegment{{Text: "Hi", Learnable: true}}},
				},
			}},
			spans: []span{
				{"<bos>", false},
				{"<h>assistant</h>\n", false},
				{"Hi", true},
				{"<eot>", true},
			},
		},
		{
			name: "learnable text on non-assistant turn is masked",
			conv: conversation.Conversation{{
				Role: "user",
				Content: []conversation.Block{
					&conversation.TextBlock{Segments: []conversation.TextSegment{{Text: "question", Learnable: true}}},
				},
			}},
			spans: []span{
				{"<bos>", false},
				{"<h>user</h>\n", false},
				{"question", false},
				{"<eot>", false},
			},
		},
		{
			name: "non-learnable segment on assistant turn is masked",
			conv: conversation.Conversation{{
				Role: "assistant",
				Content: []conversation.Block{
					&conversation.TextBlock{Segments: []conversation.TextSegment{
						{Text: "keep ", Learnable: true},
						{Text: "drop", Learnable: false},
					}},
				},
			}},
			spans: []span{
				{"<bos>", false},
				{"<h>assistant</h>\n", false},
				{"keep ", true},
				{"drop", false},
				{"<eot>", true},
			},
		},
		{
			name: "reasoning masks by segment flag regardless of role",
			conv: conversation.Conversation{{
				Role: "user",
				Content: []conversation.Block{
					&conversation.ReasoningBlock{Segments: []conversation.TextSegment{
						{Text: "visible", Learnable: true},
						{Text: " hidden", Learnable: false},
					}},
				},
			}},
			spans: []span{
				{"<bos>", false},
				{"<h>user</h>\n", false},
				{"<think>", true},
				{"visible", true},
				{" hidden", false},
				{"</think>\n", true},
				{"<eot>", false},
			},
		},
		{
			name:   "reasoning excluded by config",
			modify: func(cfg *Config) { cfg.IncludeReasoning = false },
			conv: conversation.Conversation{{
				Role: "assistant",
				Content: []conversation.Block{
					&conversation.ReasoningBlock{Segments: []conversation.TextSegment{{Text: "thoughts", Learnable: true}}},
					&conversation.TextBlock{Segments: []conversation.TextSegment{{Text: "answer", Learnable: true}}},
				},
			}},
			spans: []span{
				{"<bos>", false},
				{"<h>assistant</h>\n", false},
				{"answer", true},
				{"<eot>", true},
			},
		},
		{
			name: "tool calls are learnable even on non-assistant turns",
			conv: conversation.Conversation{{
				Role: "user",
				Content: []conversation.Block{
					&conversation.ToolCallBlock{Calls: []conversation.ToolCall{
						{Name: "lookup", Arguments: map[string]any{"q": "go"}},
					}},
				},
			}},
			spans: []span{
				{"<bos>", false},
				{"<h>user</h>\n", false},
				{`<tool_call>{"name":"lookup","arguments":{"q":"go"}}</tool_call>` + "\n", true},
				{"<eot>", false},
			},
		},
		{
			name: "tool definitions and results are always masked",
			conv: conversation.Conversation{{
				Role: "assistant",
				Content: []conversation.Block{
					&conversation.ToolsBlock{},
					&conversation.ToolResultsBlock{Results: []conversation.ToolResult{{Name: "lookup", Content: "ok"}}},
				},
			}},
			spans: []span{
				{"<bos>", false},
				{"<h>assistant</h>\n", false},
				{"<tools>[]</tools>\n", false},
				{`<tool_response>[{"name":"lookup","content":"ok"}]</tool_response>` + "\n", false},
				{"<eot>", true},
			},
		},
		{
			name: "empty segments contribute nothing",
			conv: conversation.Conversation{{
				Role: "assistant",
				Content: []conversation.Block{
					&conversation.TextBlock{Segments: []conversation.TextSegment{
						{Text: "", Learnable: true},
						{Text: "body", Learnable: true},
						{Text: "", Learnable: false},
					}},
				},
			}},
			spans: []span{
				{"<bos>", false},
				{"<h>assistant</h>\n", false},
				{"body", true},
				{"<eot>", true},
			},
		},
		{
			name: "multi-turn order is preserved",
			conv: conversation.Conversation{
				{
					Role: "user",
					Content: []conversation.Block{
						&conversation.TextBlock{Segments: []conversation.TextSegment{{Text: "2+2?", Learnable: false}}},
					},
				},
				{
					Role: "assistant",
					Content: []conversation.Block{
						&conversation.TextBlock{Segments: []conversation.TextSegment{{Text: "4", Learnable: true}}},
					},
				},
			},
			spans: []span{
				{"<bos>", false},
				{"<h>user</h>\n", false},
				{"2+2?", false},
				{"<eot>", false},
				{"<h>assistant</h>\n", false},
				{"4", true},
				{"<eot>", true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			if tt.modify != nil {
				tt.modify(&cfg)
			}

			enc := NewEncoder(byteTok{}, cfg)
			rec, err := enc.Encode(tt.conv)
			require.NoError(t, err)

			wantIDs, wantLabels := expect(tt.spans, cfg.IgnoreIndex)
			assert.Equal(t, wantIDs, rec.InputIDs)
			assert.Equal(t, wantLabels, rec.Labels)
			assert.Len(t, rec.Labels, len(rec.InputIDs))
		})
	}
}

func TestEncoder_RoundTripText(t *testing.T) {
	cfg := testConfig()
	enc := NewEncoder(byteTok{}, cfg)

	conv := conversation.Conversation{
		{
			Role: "user",
			Content: []conversation.Block{
				&conversation.TextBlock{Segments: []conversation.TextSegment{{Text: "hello there", Learnable: false}}},
			},
		},
		{
			Role: "assistant",
			Content: []conversation.Block{
				&conversation.ReasoningBlock{Segments: []conversation.TextSegment{{Text: "hmm", Learnable: true}}},
				&conversation.TextBlock{Segments: []conversation.TextSegment{{Text: "hi!", Learnable: true}}},
			},
		},
	}

	rec, err := enc.Encode(conv)
	require.NoError(t, err)

	decoded, err := byteTok{}.Decode(rec.InputIDs)
	require.NoError(t, err)

	want := "<bos>" +
		"<h>user</h>\nhello there<eot>" +
		"<h>assistant</h>\n<think>hmm</think>\nhi!<eot>"
	assert.Equal(t, want, decoded)
}

func TestEncoder_UnsupportedBlock(t *testing.T) {
	enc := NewEncoder(byteTok{}, testConfig())

	conv := conversation.Conversation{{
		Role:    "assistant",
		Content: []conversation.Block{nil},
	}}

	_, err := enc.Encode(conv)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedContent)
}

func TestEncoder_EmptyConversation(t *testing.T) {
	enc := NewEncoder(byteTok{}, testConfig())

	rec, err := enc.Encode(conversation.Conversation{})
	require.NoError(t, err)

	// Only the begin-of-text token, fully masked.
	decoded, err := byteTok{}.Decode(rec.InputIDs)
	require.NoError(t, err)
	assert.Equal(t, "<bos>", decoded)
	for _, label := range rec.Labels {
		assert.Equal(t, int32(IgnoreIndex), label)
	}
}

func TestEncoder_MalformedToolArgumentsDegrade(t *testing.T) {
	enc := NewEncoder(byteTok{}, testConfig())

	// A channel cannot be marshalled; the call degrades to "{}".
	conv := conversation.Conversation{{
		Role: "assistant",
		Content: []conversation.Block{
			&conversation.ToolCallBlock{Calls: []conversation.ToolCall{
				{Name: "bad", Arguments: map[string]any{"ch": make(chan int)}},
			}},
		},
	}}

	rec, err := enc.Encode(conv)
	require.NoError(t, err)

	decoded, err := byteTok{}.Decode(rec.InputIDs)
	require.NoError(t, err)
	assert.Contains(t, decoded, "<tool_call>{}</tool_call>")
	assert.Len(t, rec.Labels, len(rec.InputIDs))
}
