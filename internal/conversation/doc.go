// Package conversation defines the multi-turn conversation data model and
// its JSON wire format.
//
// A conversation file is a JSON array of turns. Each turn carries a role and
// an ordered list of content blocks discriminated by a "type" field:
//
//	text          ordinary message text, split into learnable segments
//	reason        chain-of-thought text, split into learnable segments
//	tools         tool definitions advertised to the model
//	tool_call     tool invocations emitted by the model
//	tool_response results fed back to the model
//
// Files are validated against a JSON Schema before decoding; the block union
// is closed, so an unrecognized "type" is an error rather than a passthrough.
package conversation
