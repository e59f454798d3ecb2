package conversation

import (
	"time"

	"chat-archive/internal/domain/sourcetype"
)

// Conversation represents one archived chat thread.
type Conversation struct {
	ID              uint                  `json:"-"`
	PublicID        string                `json:"id"`
	Title           string                `json:"title"`
	SourceType      sourcetype.SourceType `json:"source_type"`
	SourceID        *string               `json:"source_id,omitempty"`
	SourceUpdatedAt *time.Time            `json:"source_updated_at,omitempty"`
	IsSaved         bool                  `json:"is_saved"`
	Messages        []Message             `json:"messages,omitempty"`
	Topics          []string              `json:"topics,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// Message is one turn in a conversation. Messages are immutable once
// created; incremental sync only appends.
type Message struct {
	ID              uint           `json:"-"`
	PublicID        string         `json:"id"`
	ConversationID  uint           `json:"-"`
	Role            string         `json:"role"`
	Content         string         `json:"content"`
	SourceMessageID *string        `json:"source_message_id,omitempty"`
	ContentHash     string         `json:"-"`
	Sequence        int            `json:"sequence"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
}

// TopicCount pairs a topic name with the number of conversations tagged
// with it.
type TopicCount struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// SourceTracking is the per-conversation change-detection record: the
// local row and the last remote modification time we saw for it.
type SourceTracking struct {
	ConversationID  uint
	PublicID        string
	SourceUpdatedAt *time.Time
}

// Filter narrows conversation queries.
type Filter struct {
	PublicID   *string
	SourceType *sourcetype.SourceType
	IsSaved    *bool
}

// Pagination bounds list queries.
type Pagination struct {
	Page     int
	PageSize int
}
