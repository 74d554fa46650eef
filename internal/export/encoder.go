package export

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/convkit/convkit/internal/conversation"
	"github.com/convkit/convkit/internal/tokenizer"
)

// Record is one encoded conversation: parallel token ID and label streams.
// InputIDs and Labels always have equal length.
type Record struct {
	InputIDs []int32
	Labels   []int32
}

// Encoder turns a validated conversation into an aligned Record.
//
// Masking rules, by content kind:
//
//	header      always ignored
//	text        learnable iff the segment is learnable AND the turn is an
//	            assistant turn
//	reasoning   delimiters always learnable; interior segments follow their
//	            own flag only, regardless of role
//	tools       always ignored
//	tool_call   always learnable
//	tool_response always ignored
//	eot         learnable iff the turn is an assistant turn
type Encoder struct {
	tok tokenizer.Tokenizer
	cfg Config
}

// NewEncoder creates an Encoder for the given tokenizer and configuration.
func NewEncoder(tok tokenizer.Tokenizer, cfg Config) *Encoder {
	return &Encoder{tok: tok, cfg: cfg}
}

// record accumulates the parallel ID and label streams.
type record struct {
	inputIDs []int32
	labels   []int32
	ignore   int32
}

// emit appends ids to the input stream. Learnable positions copy the ID into
// the label stream; masked positions get the ignore index.
func (r *record) emit(ids []int32, learnable bool) {
	r.inputIDs = append(r.inputIDs, ids...)
	if learnable {
		r.labels = append(r.labels, ids...)
		return
	}
	for range ids {
		r.labels = append(r.labels, r.ignore)
	}
}

// Encode converts a conversation into a Record.
func (e *Encoder) Encode(conv conversation.Conversation) (Record, error) {
	rec := &record{ignore: e.cfg.IgnoreIndex}

	ids, err := e.encode(e.cfg.Tokens.Bos)
	if err != nil {
		return Record{}, err
	}
	rec.emit(ids, false)

	for i := range conv {
		if err := e.encodeItem(&conv[i], rec); err != nil {
			return Record{}, err
		}
	}

	return Record{InputIDs: rec.inputIDs, Labels: rec.labels}, nil
}

func (e *Encoder) encodeItem(item *conversation.Item, rec *record) error {
	isAssistant := item.Role == e.cfg.AssistantName

	header := e.cfg.Tokens.HeaderStart + item.Role + e.cfg.Tokens.HeaderEnd + "\n"
	ids, err := e.encode(header)
	if err != nil {
		return err
	}
	rec.emit(ids, false)

	for _, block := range item.Content {
		if err := e.encodeBlock(block, isAssistant, rec); err != nil {
			return err
		}
	}

	ids, err = e.encode(e.cfg.Tokens.Eot)
	if err != nil {
		return err
	}
	// The model is trained to terminate only on turns it produces.
	rec.emit(ids, isAssistant)
	return nil
}

func (e *Encoder) encodeBlock(block conversation.Block, isAssistant bool, rec *record) error {
	switch b := block.(type) {
	case *conversation.TextBlock:
		for _, seg := range b.Segments {
			ids, err := e.encode(seg.Text)
			if err != nil {
				return err
			}
			rec.emit(ids, seg.Learnable && isAssistant)
		}

	case *conversation.ReasoningBlock:
		if !e.cfg.IncludeReasoning {
			return nil
		}
		ids, err := e.encode(e.cfg.Tokens.ThinkStart)
		if err != nil {
			return err
		}
		rec.emit(ids, true)
		for _, seg := range b.Segments {
			ids, err := e.encode(seg.Text)
			if err != nil {
				return err
			}
			// Interior reasoning masks on the segment flag alone; the
			// role is deliberately not a factor here.
			rec.emit(ids, seg.Learnable)
		}
		ids, err = e.encode(e.cfg.Tokens.ThinkEnd + "\n")
		if err != nil {
			return err
		}
		rec.emit(ids, true)

	case *conversation.ToolsBlock:
		ids, err := e.encode(e.serializeTools(b) + "\n")
		if err != nil {
			return err
		}
		rec.emit(ids, false)

	case *conversation.ToolCallBlock:
		ids, err := e.encode(e.serializeToolCalls(b) + "\n")
		if err != nil {
			return err
		}
		rec.emit(ids, true)

	case *conversation.ToolResultsBlock:
		ids, err := e.encode(e.serializeToolResults(b) + "\n")
		if err != nil {
			return err
		}
		rec.emit(ids, false)

	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedContent, block)
	}
	return nil
}

func (e *Encoder) encode(text string) ([]int32, error) {
	ids, err := e.tok.Encode(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncoding, err)
	}
	return ids, nil
}

// serializeTools renders tool definitions as compact JSON inside the tools
// tokens. A marshal failure degrades to the empty list rather than failing
// the whole record.
func (e *Encoder) serializeTools(b *conversation.ToolsBlock) string {
	body := "[]"
	if len(b.Definitions) > 0 {
		if data, err := json.Marshal(b.Definitions); err == nil {
			body = string(data)
		}
	}
	return e.cfg.Tokens.ToolsStart + body + e.cfg.Tokens.ToolsEnd
}

// serializeToolCalls renders each call as compact JSON inside its own pair
// of tool-call tokens, joined by newlines.
func (e *Encoder) serializeToolCalls(b *conversation.ToolCallBlock) string {
	parts := make([]string, 0, len(b.Calls))
	for _, call := range b.Calls {
		body := "{}"
		if data, err := json.Marshal(call); err == nil {
			body = string(data)
		}
		parts = append(parts, e.cfg.Tokens.ToolCallStart+body+e.cfg.Tokens.ToolCallEnd)
	}
	return strings.Join(parts, "\n")
}

// serializeToolResults renders tool results as compact JSON inside the
// tool-response tokens, with the same empty-list degradation as tools.
func (e *Encoder) serializeToolResults(b *conversation.ToolResultsBlock) string {
	body := "[]"
	if len(b.Results) > 0 {
		if data, err := json.Marshal(b.Results); err == nil {
			body = string(data)
		}
	}
	return e.cfg.Tokens.ToolResponseStart + body + e.cfg.Tokens.ToolResponseEnd
}
