package sync

import "fmt"

// Result aggregates the outcome of one sync run.
type Result struct {
	Imported      int      `json:"imported_count"`
	Updated       int      `json:"updated_count"`
	Skipped       int      `json:"skipped_count"`
	Failed        int      `json:"failed_count"`
	MessagesAdded int      `json:"messages_added"`
	Messages      []string `json:"messages,omitempty"`
	Errors        []string `json:"errors,omitempty"`
	Success       bool     `json:"success"`
}

// NewResult creates an empty successful result; failures flip Success
// as they are recorded.
func NewResult() *Result {
	return &Result{Success: true}
}

func (r *Result) addMessage(format string, args ...any) {
	r.Messages = append(r.Messages, fmt.Sprintf(format, args...))
}

func (r *Result) addError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// fail records a fatal error and marks the run unsuccessful.
func (r *Result) fail(format string, args ...any) {
	r.Success = false
	r.addError(format, args...)
}

// Summary renders the completion line used for progress reporting.
func (r *Result) Summary() string {
	summary := fmt.Sprintf("Sync complete: %d imported, %d updated, %d skipped",
		r.Imported, r.Updated, r.Skipped)
	if r.Failed > 0 {
		summary += fmt.Sprintf(", %d failed", r.Failed)
	}
	if r.MessagesAdded > 0 {
		summary += fmt.Sprintf(" (%d new messages added)", r.MessagesAdded)
	}
	return summary
}
