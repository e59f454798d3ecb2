package importer

import (
	"fmt"
	"strings"
)

// Result aggregates the outcome of one bulk import.
type Result struct {
	Imported          int      `json:"imported_count"`
	SkippedDuplicates int      `json:"skipped_duplicates"`
	Updated           int      `json:"updated_count"`
	MessagesAdded     int      `json:"messages_added"`
	Failed            int      `json:"failed_count"`
	FormatDetected    Format   `json:"format_detected"`
	Messages          []string `json:"messages,omitempty"`
	Errors            []string `json:"errors,omitempty"`
}

// NewResult creates an empty result.
func NewResult() *Result {
	return &Result{FormatDetected: FormatUnknown}
}

func (r *Result) addMessage(format string, args ...any) {
	r.Messages = append(r.Messages, fmt.Sprintf(format, args...))
}

func (r *Result) addError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Summary renders a user-facing one-line description of the import.
func (r *Result) Summary() string {
	if r.Imported == 0 && r.Failed == 0 && r.SkippedDuplicates == 0 && r.Updated == 0 {
		return "No conversations to import"
	}

	var parts []string
	if r.Imported > 0 {
		parts = append(parts, fmt.Sprintf("Imported %d conversations", r.Imported))
	}
	if r.Updated > 0 {
		updated := fmt.Sprintf("Updated %d conversations", r.Updated)
		if r.MessagesAdded > 0 {
			updated += fmt.Sprintf(" (%d new messages)", r.MessagesAdded)
		}
		parts = append(parts, updated)
	}
	if r.SkippedDuplicates > 0 {
		parts = append(parts, fmt.Sprintf("Skipped %d duplicates", r.SkippedDuplicates))
	}
	if r.Failed > 0 {
		parts = append(parts, fmt.Sprintf("Failed to import %d conversations", r.Failed))
	}

	summary := strings.Join(parts, " | ")
	if summary == "" {
		summary = "Import completed"
	}
	if r.FormatDetected != FormatUnknown {
		summary = fmt.Sprintf("%s (%s format)", summary, r.FormatDetected)
	}
	return summary
}
