package importer

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"chat-archive/internal/domain/sync"
	"chat-archive/internal/utils/timeparse"
)

// extracted is the normalized form of one conversation from an export.
type extracted struct {
	SourceID        string
	Title           string
	SourceUpdatedAt *time.Time
	Messages        []sync.IncomingMessage
}

type chatgptNode struct {
	Parent   *string  `json:"parent"`
	Children []string `json:"children"`
	Message  *struct {
		ID     string `json:"id"`
		Author *struct {
			Role string `json:"role"`
		} `json:"author"`
		Role    string `json:"role"`
		Content *struct {
			Parts []json.RawMessage `json:"parts"`
		} `json:"content"`
		CreateTime json.RawMessage `json:"create_time"`
	} `json:"message"`
}

// extractChatGPT normalizes one ChatGPT export conversation. The
// mapping is a tree keyed by node ID; thread order comes from walking
// the root's children chain. When every surviving message carries a
// create_time, that timestamp reorders the result, which matches the
// linear thread for ordinary exports.
func extractChatGPT(conv rawConversation) extracted {
	out := extracted{
		SourceID:        stringField(conv, "id", "conversation_id"),
		Title:           stringField(conv, "title"),
		SourceUpdatedAt: timestampField(conv, "update_time", "create_time"),
	}
	if out.Title == "" {
		out.Title = "Untitled"
	}

	var mapping map[string]chatgptNode
	if raw, ok := conv["mapping"]; ok {
		// Malformed mapping degrades to an empty conversation; the caller
		// counts it rather than aborting the batch.
		_ = json.Unmarshal(raw, &mapping)
	}

	type ordered struct {
		msg   sync.IncomingMessage
		at    float64
		timed bool
	}
	var nodes []ordered
	for _, id := range mappingOrder(mapping) {
		node := mapping[id]
		if node.Message == nil || node.Message.Content == nil {
			continue
		}

		role := node.Message.Role
		if node.Message.Author != nil && node.Message.Author.Role != "" {
			role = node.Message.Author.Role
		}
		// Tool/system nodes are not conversation turns.
		if role != "user" && role != "assistant" {
			continue
		}

		content := joinParts(node.Message.Content.Parts)
		if strings.TrimSpace(content) == "" {
			continue
		}

		entry := ordered{msg: sync.IncomingMessage{Role: role, Content: content}}
		if node.Message.ID != "" {
			msgID := node.Message.ID
			entry.msg.SourceID = &msgID
		}
		if t, ok := rawTimestamp(node.Message.CreateTime); ok {
			ts := t
			entry.msg.CreatedAt = &ts
			entry.at = float64(t.UnixNano())
			entry.timed = true
		}
		nodes = append(nodes, entry)
	}

	// create_time reorders only when every message carries one; a
	// partially timed thread keeps the tree walk order.
	allTimed := true
	for _, node := range nodes {
		if !node.timed {
			allTimed = false
			break
		}
	}
	if allTimed {
		sort.SliceStable(nodes, func(i, j int) bool {
			return nodes[i].at < nodes[j].at
		})
	}

	out.Messages = make([]sync.IncomingMessage, len(nodes))
	for i, node := range nodes {
		out.Messages[i] = node.msg
	}
	return out
}

// mappingOrder flattens the mapping into node IDs in thread order:
// roots (nodes without a resolvable parent) in ID order, each followed
// depth first through its children chain. Nodes unreachable from any
// root, including members of a cycle, are appended in ID order so the
// result covers the whole mapping deterministically.
func mappingOrder(mapping map[string]chatgptNode) []string {
	ids := make([]string, 0, len(mapping))
	for id := range mapping {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var roots []string
	for _, id := range ids {
		parent := mapping[id].Parent
		if parent == nil {
			roots = append(roots, id)
			continue
		}
		if _, ok := mapping[*parent]; !ok {
			roots = append(roots, id)
		}
	}

	order := make([]string, 0, len(mapping))
	visited := make(map[string]bool, len(mapping))
	var walk func(id string)
	walk = func(id string) {
		node, ok := mapping[id]
		if !ok || visited[id] {
			return
		}
		visited[id] = true
		order = append(order, id)
		for _, child := range node.Children {
			walk(child)
		}
	}
	for _, id := range roots {
		walk(id)
	}
	for _, id := range ids {
		if !visited[id] {
			order = append(order, id)
		}
	}
	return order
}

// joinParts flattens ChatGPT content parts, skipping non-text blocks.
func joinParts(parts []json.RawMessage) string {
	var texts []string
	for _, part := range parts {
		var s string
		if err := json.Unmarshal(part, &s); err == nil && s != "" {
			texts = append(texts, s)
		}
	}
	return strings.Join(texts, "\n")
}

func stringField(conv rawConversation, keys ...string) string {
	for _, key := range keys {
		raw, ok := conv[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			return s
		}
	}
	return ""
}

// timestampField extracts the first parseable timestamp among keys,
// nil when none parses. A nil result means "no update evidence".
func timestampField(conv rawConversation, keys ...string) *time.Time {
	for _, key := range keys {
		raw, ok := conv[key]
		if !ok {
			continue
		}
		if t, parsed := rawTimestamp(raw); parsed {
			ts := t
			return &ts
		}
	}
	return nil
}

func rawTimestamp(raw json.RawMessage) (time.Time, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return time.Time{}, false
	}
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return time.Time{}, false
	}
	return timeparse.Parse(v)
}
