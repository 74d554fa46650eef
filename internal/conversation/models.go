package conversation

import "strings"

// TextSegment is a span of text with an individual learnability flag.
//
// Concatenating segment texts in order reconstructs the full block text
// losslessly; the flags only affect label masking during export.
type TextSegment struct {
	Text      string `json:"text"`
	Learnable bool   `json:"learnable"`
}

// Block is a single piece of content inside an Item.
//
// The set of implementations is closed: TextBlock, ReasoningBlock,
// ToolsBlock, ToolCallBlock and ToolResultsBlock are the only variants.
// The unexported marker method keeps it that way.
type Block interface {
	// Kind returns the wire discriminator for this block ("text",
	// "reason", "tools", "tool_call" or "tool_response").
	Kind() string

	isBlock()
}

// TextBlock holds ordinary message text split into learnable segments.
type TextBlock struct {
	Segments []TextSegment
}

// ReasoningBlock holds chain-of-thought text split into learnable segments.
type ReasoningBlock struct {
	Segments []TextSegment
}

// ToolProperty describes one parameter of a tool definition.
type ToolProperty struct {
	Type        any      `json:"type"`
	Description string   `json:"description"`
	Enum        []string `json:"enum,omitempty"`
}

// ToolParameters is the JSON-schema-shaped parameter object of a tool.
type ToolParameters struct {
	Type       string                  `json:"type"`
	Properties map[string]ToolProperty `json:"properties"`
	Required   []string                `json:"required,omitempty"`
}

// ToolDefinition declares one callable tool.
type ToolDefinition struct {
	Type        string         `json:"type"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  ToolParameters `json:"parameters"`
}

// ToolsBlock advertises the tools available to the model for this turn.
type ToolsBlock struct {
	Definitions []ToolDefinition
}

// ToolCall is one invocation of a tool by name.
type ToolCall struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ToolCallBlock holds the calls emitted in a single turn.
type ToolCallBlock struct {
	Calls []ToolCall
}

// ToolResult carries the value a tool returned.
type ToolResult struct {
	Name    string `json:"name"`
	Content any    `json:"content"`
}

// ToolResultsBlock holds the results fed back to the model.
type ToolResultsBlock struct {
	Results []ToolResult
}

func (*TextBlock) isBlock()        {}
func (*ReasoningBlock) isBlock()   {}
func (*ToolsBlock) isBlock()       {}
func (*ToolCallBlock) isBlock()    {}
func (*ToolResultsBlock) isBlock() {}

// Kind returns "text".
func (*TextBlock) Kind() string { return KindText }

// Kind returns "reason".
func (*ReasoningBlock) Kind() string { return KindReasoning }

// Kind returns "tools".
func (*ToolsBlock) Kind() string { return KindTools }

// Kind returns "tool_call".
func (*ToolCallBlock) Kind() string { return KindToolCall }

// Kind returns "tool_response".
func (*ToolResultsBlock) Kind() string { return KindToolResults }

// Wire discriminator values for the content block union.
const (
	KindText        = "text"
	KindReasoning   = "reason"
	KindTools       = "tools"
	KindToolCall    = "tool_call"
	KindToolResults = "tool_response"
)

// FullText returns the concatenation of all segment texts.
func (b *TextBlock) FullText() string { return joinSegments(b.Segments) }

// FullText returns the concatenation of all segment texts.
func (b *ReasoningBlock) FullText() string { return joinSegments(b.Segments) }

func joinSegments(segments []TextSegment) string {
	var sb strings.Builder
	for _, s := range segments {
		sb.WriteString(s.Text)
	}
	return sb.String()
}

// Item is one conversational turn: a role plus ordered content blocks.
//
// Roles are plain strings compared by exact equality; the exporter only
// distinguishes the configured assistant role from everything else.
type Item struct {
	Role    string
	Content []Block
}

// Conversation is an ordered list of turns. Turn order is semantically
// significant and is never reordered.
type Conversation []Item
