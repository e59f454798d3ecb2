package importer

import (
	"encoding/json"
	"fmt"
)

// Format identifies a recognized export shape.
type Format string

const (
	FormatChatGPT Format = "ChatGPT"
	FormatClaude  Format = "Claude"
	FormatDOCX    Format = "DOCX"
	FormatUnknown Format = "Unknown"
)

// rawConversation is one undecoded conversation entry from an export.
type rawConversation map[string]json.RawMessage

// parsePayload accepts either a bare array of conversations or an
// object wrapping one under a "conversations" key.
func parsePayload(raw []byte) ([]rawConversation, error) {
	var list []rawConversation
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}

	var wrapper struct {
		Conversations []rawConversation `json:"conversations"`
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, fmt.Errorf("parse import payload: %w", err)
	}
	return wrapper.Conversations, nil
}

// detectFormat inspects the structural shape of the conversation set.
// ChatGPT markers are checked before Claude markers; the order matters
// because some exports carry overlapping generic fields.
func detectFormat(conversations []rawConversation) Format {
	if len(conversations) == 0 {
		return FormatUnknown
	}
	first := conversations[0]

	if _, ok := first["mapping"]; ok {
		return FormatChatGPT
	}
	if _, ok := first["create_time"]; ok {
		return FormatChatGPT
	}

	if _, ok := first["uuid"]; ok {
		return FormatClaude
	}
	if _, ok := first["chat_messages"]; ok {
		return FormatClaude
	}

	return FormatUnknown
}
