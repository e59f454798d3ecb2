package conversation

import (
	"context"
	"time"

	"chat-archive/internal/domain/sourcetype"
)

// Repository persists conversations.
type Repository interface {
	// Create inserts the conversation; generated IDs and timestamps are
	// written back into conv.
	Create(ctx context.Context, conv *Conversation) error

	// FindByPublicID fetches one conversation with its messages preloaded.
	FindByPublicID(ctx context.Context, publicID string) (*Conversation, error)

	// FindByFilter lists conversations without message bodies.
	FindByFilter(ctx context.Context, filter Filter, pagination *Pagination) ([]*Conversation, error)

	// Count returns the number of conversations matching the filter.
	Count(ctx context.Context, filter Filter) (int64, error)

	// CountBySourceType groups conversation counts per source.
	CountBySourceType(ctx context.Context) (map[sourcetype.SourceType]int64, error)

	// SourceTrackingMap builds source_id -> tracking record for every
	// conversation from the given source that carries a source ID. This is
	// the sole change-detection input for a sync run.
	SourceTrackingMap(ctx context.Context, source sourcetype.SourceType) (map[string]SourceTracking, error)

	// FindAllTracking returns every conversation without message bodies,
	// used by bulk import duplicate detection (including its legacy
	// metadata fallback).
	FindAllTracking(ctx context.Context) ([]*Conversation, error)

	// UpdateSourceTracking advances source_updated_at after a successful
	// remote reconciliation.
	UpdateSourceTracking(ctx context.Context, id uint, sourceUpdatedAt time.Time) error

	// UpdateTitle overwrites the conversation title.
	UpdateTitle(ctx context.Context, id uint, title string) error

	// SetSaved toggles the user bookmark flag.
	SetSaved(ctx context.Context, id uint, saved bool) error
}

// MessageRepository persists conversation messages.
type MessageRepository interface {
	// Create inserts the message; generated IDs are written back.
	Create(ctx context.Context, msg *Message) error

	// FindByConversation returns all messages ordered by sequence.
	FindByConversation(ctx context.Context, conversationID uint) ([]*Message, error)

	// SourceMessageIDs returns the set of non-null source message IDs
	// already present in the conversation.
	SourceMessageIDs(ctx context.Context, conversationID uint) (map[string]struct{}, error)

	// ContentHashes returns the set of content hashes already present in
	// the conversation, the fallback dedup tier for messages without a
	// source message ID.
	ContentHashes(ctx context.Context, conversationID uint) (map[string]struct{}, error)

	// MaxSequence returns the highest sequence number in the conversation,
	// zero when it has no messages.
	MaxSequence(ctx context.Context, conversationID uint) (int, error)
}

// TopicRepository manages free-text labels and their associations.
type TopicRepository interface {
	// SetConversationTopics replaces the conversation's topic set,
	// creating topics by name as needed (case-insensitive).
	SetConversationTopics(ctx context.Context, conversationID uint, names []string) error

	// TopicNamesForConversation lists the conversation's topics sorted by
	// name.
	TopicNamesForConversation(ctx context.Context, conversationID uint) ([]string, error)

	// TopicCounts lists all topics with usage counts, most used first.
	TopicCounts(ctx context.Context) ([]TopicCount, error)
}
