// Package remote defines the contract for pulling conversations from a
// live chat service. The sync engine depends only on this package; the
// OpenWebUI HTTP client under infrastructure implements it.
package remote

import (
	"context"
	"time"
)

// ChatSummary is a per-conversation listing entry without message bodies.
type ChatSummary struct {
	ID        string
	Title     string
	UpdatedAt time.Time
	CreatedAt time.Time
	UserID    *string
	Archived  bool
	Pinned    bool
	FolderID  *string
	ShareID   *string

	// UpdatedAtSynthetic marks UpdatedAt as a local fallback because the
	// remote value was absent or unparseable. Change detection must not
	// compare against a synthetic timestamp as if it were observed.
	UpdatedAtSynthetic bool
}

// Chat is a fully fetched conversation including its messages.
type Chat struct {
	ChatSummary
	Messages []Message
}

// Message is one remote conversation turn in fetch order.
type Message struct {
	SourceID  string
	Role      string
	Content   string
	Model     string
	ParentID  *string
	CreatedAt *time.Time
}

// Client pulls conversations from a remote chat service.
type Client interface {
	// TestConnection verifies credentials and reachability with a single
	// listing call.
	TestConnection(ctx context.Context) error

	// ForEachChat streams every chat summary, preferring a bulk listing
	// and falling back to pagination. Iteration stops on the first error
	// returned by fn.
	ForEachChat(ctx context.Context, fn func(ChatSummary) error) error

	// GetChat fetches one conversation with messages.
	GetChat(ctx context.Context, id string) (*Chat, error)

	// GetChatTopics fetches the tags attached to a conversation. Errors
	// are real (not collapsed); callers decide whether they are fatal.
	GetChatTopics(ctx context.Context, id string) ([]string, error)
}

// Credentials configure a client for one remote instance.
type Credentials struct {
	BaseURL string
	APIKey  string
}

// Factory builds a client from runtime credentials. Credentials live in
// the settings store, so a fresh client is constructed per sync run.
type Factory func(creds Credentials) Client
