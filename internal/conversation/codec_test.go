package conversation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConversation = `[
  {
    "role": "system",
    "content": [
      {"type": "text", "segments": [{"text": "You are helpful.", "learnable": false}]}
    ]
  },
  {
    "role": "user",
    "content": [
      {"type": "text", "segments": [{"text": "What is the weather?", "learnable": false}]}
    ]
  },
  {
    "role": "assistant",
    "content": [
      {"type": "reason", "segments": [{"text": "Need a tool.", "learnable": true}]},
      {"type": "tools", "definitions": [
        {
          "type": "function",
          "name": "get_weather",
          "description": "Current weather for a city",
          "parameters": {
            "type": "object",
            "properties": {"city": {"type": "string", "description": "City name"}},
            "required": ["city"]
          }
        }
      ]},
      {"type": "tool_call", "calls": [{"name": "get_weather", "arguments": {"city": "Oslo"}}]},
      {"type": "tool_response", "results": [{"name": "get_weather", "content": "4C, rain"}]},
      {"type": "text", "segments": [{"text": "It is raining in Oslo.", "learnable": true}]}
    ]
  }
]`

func TestDecode_AllBlockKinds(t *testing.T) {
	conv, err := Decode([]byte(sampleConversation))
	require.NoError(t, err)
	require.Len(t, conv, 3)

	assert.Equal(t, "system", conv[0].Role)
	assert.Equal(t, "user", conv[1].Role)
	assert.Equal(t, "assistant", conv[2].Role)

	require.Len(t, conv[2].Content, 5)

	reason, ok := conv[2].Content[0].(*ReasoningBlock)
	require.True(t, ok)
	assert.Equal(t, "Need a tool.", reason.FullText())
	assert.True(t, reason.Segments[0].Learnable)

	tools, ok := conv[2].Content[1].(*ToolsBlock)
	require.True(t, ok)
	require.Len(t, tools.Definitions, 1)
	assert.Equal(t, "get_weather", tools.Definitions[0].Name)
	assert.Equal(t, []string{"city"}, tools.Definitions[0].Parameters.Required)

	calls, ok := conv[2].Content[2].(*ToolCallBlock)
	require.True(t, ok)
	require.Len(t, calls.Calls, 1)
	assert.Equal(t, "Oslo", calls.Calls[0].Arguments["city"])

	results, ok := conv[2].Content[3].(*ToolResultsBlock)
	require.True(t, ok)
	require.Len(t, results.Results, 1)
	assert.Equal(t, "4C, rain", results.Results[0].Content)

	text, ok := conv[2].Content[4].(*TextBlock)
	require.True(t, ok)
	assert.Equal(t, "It is raining in Oslo.", text.FullText())
}

func TestDecode_LearnableDefaultsToTrue(t *testing.T) {
	raw := `[{"role": "assistant", "content": [
		{"type": "text", "segments": [{"text": "implicit"}, {"text": "explicit", "learnable": false}]}
	]}]`

	conv, err := Decode([]byte(raw))
	require.NoError(t, err)

	text := conv[0].Content[0].(*TextBlock)
	assert.True(t, text.Segments[0].Learnable)
	assert.False(t, text.Segments[1].Learnable)
}

func TestDecode_LegacyTextField(t *testing.T) {
	raw := `[{"role": "assistant", "content": [
		{"type": "text", "text": "old style"},
		{"type": "reason", "text": "old thoughts"}
	]}]`

	conv, err := Decode([]byte(raw))
	require.NoError(t, err)

	text := conv[0].Content[0].(*TextBlock)
	require.Len(t, text.Segments, 1)
	assert.Equal(t, "old style", text.Segments[0].Text)
	assert.True(t, text.Segments[0].Learnable)

	reason := conv[0].Content[1].(*ReasoningBlock)
	assert.Equal(t, "old thoughts", reason.FullText())
}

func TestDecode_MissingSegmentsBecomeEmptySegment(t *testing.T) {
	raw := `[{"role": "user", "content": [{"type": "text"}]}]`

	conv, err := Decode([]byte(raw))
	require.NoError(t, err)

	text := conv[0].Content[0].(*TextBlock)
	require.Len(t, text.Segments, 1)
	assert.Empty(t, text.Segments[0].Text)
}

func TestDecode_UnknownKind(t *testing.T) {
	raw := `[{"role": "user", "content": [{"type": "image", "url": "x.png"}]}]`

	_, err := Decode([]byte(raw))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"malformed json", `[{"role": "user"`},
		{"not an array", `{"role": "user", "content": []}`},
		{"missing role", `[{"content": []}]`},
		{"missing content", `[{"role": "user"}]`},
		{"non-object item", `["hello"]`},
		{"segment without text", `[{"role": "u", "content": [{"type": "text", "segments": [{"learnable": true}]}]}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.raw))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestItem_MarshalRoundTrip(t *testing.T) {
	conv, err := Decode([]byte(sampleConversation))
	require.NoError(t, err)

	data, err := json.Marshal(conv)
	require.NoError(t, err)

	again, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, conv, again)
}

func TestFullText_ConcatenatesSegments(t *testing.T) {
	block := &TextBlock{Segments: []TextSegment{
		{Text: "a", Learnable: true},
		{Text: "", Learnable: false},
		{Text: "bc", Learnable: false},
	}}
	assert.Equal(t, "abc", block.FullText())
}
