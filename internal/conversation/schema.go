package conversation

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// ErrInvalid reports a file that is not valid JSON or does not conform to
// the conversation schema.
var ErrInvalid = errors.New("invalid conversation")

// conversationSchema is the wire contract for conversation files: a list of
// turns, each with a role and a list of typed content blocks. The block
// "type" is deliberately left open here; decodeBlock enforces the closed
// variant set so unknown kinds surface as ErrUnknownKind, not ErrInvalid.
const conversationSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["role", "content"],
    "properties": {
      "role": {"type": "string"},
      "content": {
        "type": "array",
        "items": {
          "type": "object",
          "required": ["type"],
          "properties": {
            "type": {"type": "string"},
            "segments": {
              "type": "array",
              "items": {
                "type": "object",
                "required": ["text"],
                "properties": {
                  "text": {"type": "string"},
                  "learnable": {"type": "boolean"}
                }
              }
            }
          }
        }
      }
    }
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *gojsonschema.Schema
	schemaErr      error
)

func schema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(conversationSchema))
	})
	return compiledSchema, schemaErr
}

// Validate checks raw bytes against the conversation schema.
func Validate(data []byte) error {
	s, err := schema()
	if err != nil {
		return fmt.Errorf("compile conversation schema: %w", err)
	}

	result, err := s.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(details, "; "))
	}
	return nil
}

// Load reads, validates and decodes a conversation file.
func Load(path string) (Conversation, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: Path comes from corpus enumeration.
	if err != nil {
		return nil, fmt.Errorf("read conversation file: %w", err)
	}
	return Decode(data)
}
