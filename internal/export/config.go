package export

import (
	"fmt"
	"os"
	"path/filepath"
)

// IgnoreIndex is the default label value excluded from the training loss.
const IgnoreIndex = -100

// SpecialTokens holds the wire-format token strings injected around
// conversation content. Every token is a configuration string, never a
// hardcoded ID: each one is resolved to IDs through the same tokenizer used
// for conversation text.
type SpecialTokens struct {
	Bos               string `json:"bos" mapstructure:"bos"`
	Eot               string `json:"eot" mapstructure:"eot"`
	HeaderStart       string `json:"header_start" mapstructure:"header_start"`
	HeaderEnd         string `json:"header_end" mapstructure:"header_end"`
	ThinkStart        string `json:"think_start" mapstructure:"think_start"`
	ThinkEnd          string `json:"think_end" mapstructure:"think_end"`
	ToolsStart        string `json:"tools_start" mapstructure:"tools_start"`
	ToolsEnd          string `json:"tools_end" mapstructure:"tools_end"`
	ToolCallStart     string `json:"tool_call_start" mapstructure:"tool_call_start"`
	ToolCallEnd       string `json:"tool_call_end" mapstructure:"tool_call_end"`
	ToolResponseStart string `json:"tool_response_start" mapstructure:"tool_response_start"`
	ToolResponseEnd   string `json:"tool_response_end" mapstructure:"tool_response_end"`
}

// DefaultSpecialTokens returns the Llama 3 style token set.
func DefaultSpecialTokens() SpecialTokens {
	return SpecialTokens{
		Bos:               "<|begin_of_text|>",
		Eot:               "<|eot_id|>",
		HeaderStart:       "<|start_header_id|>",
		HeaderEnd:         "<|end_header_id|>",
		ThinkStart:        "<think>",
		ThinkEnd:          "</think>",
		ToolsStart:        "<tools>",
		ToolsEnd:          "</tools>",
		ToolCallStart:     "<tool_call>",
		ToolCallEnd:       "</tool_call>",
		ToolResponseStart: "<tool_response>",
		ToolResponseEnd:   "</tool_response>",
	}
}

// Config controls one export run.
type Config struct {
	// RootDir is the corpus root: every *.json file under it, in
	// lexicographic path order, becomes one candidate dataset row.
	RootDir string `json:"root_dir" mapstructure:"root_dir"`

	// OutputPath is the .cvds dataset file to create.
	OutputPath string `json:"output_path" mapstructure:"output_path"`

	// Tokenizer is a tokenizer.json path, model name or encoding name.
	Tokenizer string `json:"tokenizer" mapstructure:"tokenizer"`

	// IncludeReasoning controls whether reasoning blocks are emitted.
	IncludeReasoning bool `json:"include_reasoning" mapstructure:"include_reasoning"`

	// IgnoreIndex is the label marking a position as excluded from the loss.
	IgnoreIndex int32 `json:"ignore_index" mapstructure:"ignore_index"`

	// AssistantName is the role whose turns are trained on.
	AssistantName string `json:"assistant_name" mapstructure:"assistant_name"`

	// Tokens is the wire-format special token set.
	Tokens SpecialTokens `json:"special_tokens" mapstructure:"special_tokens"`
}

// DefaultConfig returns a Config with all non-path fields set to their
// defaults. RootDir, OutputPath and Tokenizer must still be provided.
func DefaultConfig() Config {
	return Config{
		IncludeReasoning: true,
		IgnoreIndex:      IgnoreIndex,
		AssistantName:    "assistant",
		Tokens:           DefaultSpecialTokens(),
	}
}

// Validate checks paths and token strings before any file is processed.
// All failures wrap ErrConfig.
func (c *Config) Validate() error {
	info, err := os.Stat(c.RootDir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: root directory %q does not exist", ErrConfig, c.RootDir)
	}
	if c.OutputPath == "" {
		return fmt.Errorf("%w: output path is empty", ErrConfig)
	}
	if dir := filepath.Dir(c.OutputPath); dir != "." {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			return fmt.Errorf("%w: output directory %q does not exist", ErrConfig, dir)
		}
	}
	if c.AssistantName == "" {
		return fmt.Errorf("%w: assistant name is empty", ErrConfig)
	}

	tokens := map[string]string{
		"bos":                 c.Tokens.Bos,
		"eot":                 c.Tokens.Eot,
		"header_start":        c.Tokens.HeaderStart,
		"header_end":          c.Tokens.HeaderEnd,
		"think_start":         c.Tokens.ThinkStart,
		"think_end":           c.Tokens.ThinkEnd,
		"tools_start":         c.Tokens.ToolsStart,
		"tools_end":           c.Tokens.ToolsEnd,
		"tool_call_start":     c.Tokens.ToolCallStart,
		"tool_call_end":       c.Tokens.ToolCallEnd,
		"tool_response_start": c.Tokens.ToolResponseStart,
		"tool_response_end":   c.Tokens.ToolResponseEnd,
	}
	for name, value := range tokens {
		if value == "" {
			return fmt.Errorf("%w: special token %q is empty", ErrConfig, name)
		}
	}
	return nil
}
