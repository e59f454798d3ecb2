// Package sourcetype defines the closed set of chat platforms a
// conversation can originate from.
package sourcetype

import "strings"

// SourceType identifies the external platform or import format a
// conversation came from.
type SourceType string

const (
	OpenWebUI SourceType = "openwebui"
	Claude    SourceType = "claude"
	ChatGPT   SourceType = "chatgpt"
	DOCX      SourceType = "docx"
	Unknown   SourceType = "unknown"
)

// All lists every concrete source, excluding Unknown.
func All() []SourceType {
	return []SourceType{OpenWebUI, Claude, ChatGPT, DOCX}
}

// String returns the string representation of the source type.
func (s SourceType) String() string {
	return string(s)
}

// IsKnown reports whether the source type is one of the concrete sources.
func (s SourceType) IsKnown() bool {
	switch s {
	case OpenWebUI, Claude, ChatGPT, DOCX:
		return true
	}
	return false
}

// Normalize maps a free-form source label to a SourceType. Historical data
// carries a few spelling variants ("open-webui", "ChatGPT", "Claude AI"),
// so matching is case-insensitive and tolerant of separators.
func Normalize(raw string) SourceType {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, "_", "")
	s = strings.ReplaceAll(s, " ", "")

	switch {
	case s == "":
		return Unknown
	case strings.Contains(s, "openwebui"):
		return OpenWebUI
	case strings.Contains(s, "claude"):
		return Claude
	case strings.Contains(s, "chatgpt") || strings.Contains(s, "openai"):
		return ChatGPT
	case strings.Contains(s, "docx") || strings.Contains(s, "word"):
		return DOCX
	default:
		return Unknown
	}
}
