package importer

import (
	"encoding/json"
	"strings"

	"chat-archive/internal/domain/sync"
)

type claudeMessage struct {
	UUID      string          `json:"uuid"`
	Sender    string          `json:"sender"`
	Text      string          `json:"text"`
	Content   json.RawMessage `json:"content"`
	CreatedAt json.RawMessage `json:"created_at"`
}

// extractClaude normalizes one Claude export conversation.
// chat_messages arrive already linearized.
func extractClaude(conv rawConversation) extracted {
	out := extracted{
		SourceID:        stringField(conv, "uuid", "id"),
		Title:           stringField(conv, "name", "title"),
		SourceUpdatedAt: timestampField(conv, "updated_at", "created_at"),
	}
	if out.Title == "" {
		out.Title = "Untitled"
	}

	var messages []claudeMessage
	if raw, ok := conv["chat_messages"]; ok {
		_ = json.Unmarshal(raw, &messages)
	}

	for _, msg := range messages {
		content := msg.Text
		if content == "" {
			content = claudeContentText(msg.Content)
		}
		if strings.TrimSpace(content) == "" {
			continue
		}

		incoming := sync.IncomingMessage{
			Role:    claudeRole(msg.Sender),
			Content: content,
		}
		if msg.UUID != "" {
			id := msg.UUID
			incoming.SourceID = &id
		}
		if t, ok := rawTimestamp(msg.CreatedAt); ok {
			ts := t
			incoming.CreatedAt = &ts
		}
		out.Messages = append(out.Messages, incoming)
	}
	return out
}

func claudeRole(sender string) string {
	switch strings.ToLower(sender) {
	case "assistant":
		return "assistant"
	case "human", "user", "":
		return "user"
	default:
		return "user"
	}
}

// claudeContentText flattens the structured content block list used by
// newer Claude exports.
func claudeContentText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var blocks []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return ""
	}
	var texts []string
	for _, block := range blocks {
		if block.Text != "" {
			texts = append(texts, block.Text)
		}
	}
	return strings.Join(texts, "\n")
}
