// Package webhook delivers sync lifecycle notifications over HTTP.
package webhook

import (
	"chat-archive/internal/domain/sync"
)

// Service handles webhook notifications for sync events.
type Service interface {
	sync.Notifier
}

// ErrorDetails contains machine readable error info.
type ErrorDetails struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Payload is the structure sent to the configured webhook URL.
type Payload struct {
	Event         string        `json:"event"` // "sync.completed" or "sync.failed"
	Imported      int           `json:"imported_count"`
	Updated       int           `json:"updated_count"`
	Skipped       int           `json:"skipped_count"`
	Failed        int           `json:"failed_count"`
	MessagesAdded int           `json:"messages_added"`
	Summary       string        `json:"summary,omitempty"`
	Error         *ErrorDetails `json:"error,omitempty"`
}
