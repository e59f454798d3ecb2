package sync

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"chat-archive/internal/domain/conversation"
	"chat-archive/internal/domain/jobs"
	"chat-archive/internal/domain/sourcetype"
)

// IncomingMessage is a normalized message ready for persistence. Both
// the remote sync path and the bulk importers produce this shape.
type IncomingMessage struct {
	SourceID  *string
	Role      string
	Content   string
	CreatedAt *time.Time
}

// MessageUpserter appends messages to conversations with two-tier
// deduplication and enqueues embedding work for everything it stores.
type MessageUpserter struct {
	messages       conversation.MessageRepository
	queue          jobs.Queue
	embeddingModel string
	log            zerolog.Logger
}

// NewMessageUpserter constructs the upserter.
func NewMessageUpserter(
	messages conversation.MessageRepository,
	queue jobs.Queue,
	embeddingModel string,
	log zerolog.Logger,
) *MessageUpserter {
	return &MessageUpserter{
		messages:       messages,
		queue:          queue,
		embeddingModel: embeddingModel,
		log:            log.With().Str("component", "message-upserter").Logger(),
	}
}

// HashContent computes the dedup hash for a message: the first 16 hex
// characters of sha256("role:content").
func HashContent(role, content string) string {
	sum := sha256.Sum256([]byte(role + ":" + content))
	return hex.EncodeToString(sum[:])[:16]
}

// CreateInitial stores the messages of a freshly created conversation
// in order. Blank messages are dropped; no dedup is needed because the
// conversation is empty.
func (u *MessageUpserter) CreateInitial(
	ctx context.Context,
	conv *conversation.Conversation,
	incoming []IncomingMessage,
	source sourcetype.SourceType,
) (int, error) {
	added := 0
	for _, msg := range incoming {
		content := strings.TrimSpace(msg.Content)
		if content == "" {
			continue
		}

		added++
		if err := u.store(ctx, conv, msg, content, added, source); err != nil {
			return added - 1, err
		}
	}
	return added, nil
}

// Upsert appends messages that are not already in the conversation.
// A message is a duplicate when its source ID is known, or failing
// that, when its content hash is. New messages are appended after the
// current maximum sequence so existing ordering never changes.
func (u *MessageUpserter) Upsert(
	ctx context.Context,
	conv *conversation.Conversation,
	incoming []IncomingMessage,
	source sourcetype.SourceType,
) (int, error) {
	sourceIDs, err := u.messages.SourceMessageIDs(ctx, conv.ID)
	if err != nil {
		return 0, err
	}
	hashes, err := u.messages.ContentHashes(ctx, conv.ID)
	if err != nil {
		return 0, err
	}
	maxSequence, err := u.messages.MaxSequence(ctx, conv.ID)
	if err != nil {
		return 0, err
	}

	added := 0
	for _, msg := range incoming {
		content := strings.TrimSpace(msg.Content)
		if content == "" {
			continue
		}

		if msg.SourceID != nil {
			if _, dup := sourceIDs[*msg.SourceID]; dup {
				continue
			}
		}
		hash := HashContent(msg.Role, content)
		if _, dup := hashes[hash]; dup {
			continue
		}

		maxSequence++
		if err := u.store(ctx, conv, msg, content, maxSequence, source); err != nil {
			return added, err
		}

		added++
		hashes[hash] = struct{}{}
		if msg.SourceID != nil {
			sourceIDs[*msg.SourceID] = struct{}{}
		}
	}
	return added, nil
}

func (u *MessageUpserter) store(
	ctx context.Context,
	conv *conversation.Conversation,
	msg IncomingMessage,
	content string,
	sequence int,
	source sourcetype.SourceType,
) error {
	createdAt := time.Now().UTC()
	if msg.CreatedAt != nil {
		createdAt = *msg.CreatedAt
	}

	record := &conversation.Message{
		PublicID:        uuid.NewString(),
		ConversationID:  conv.ID,
		Role:            msg.Role,
		Content:         content,
		SourceMessageID: msg.SourceID,
		ContentHash:     HashContent(msg.Role, content),
		Sequence:        sequence,
		Metadata: map[string]any{
			"source":   string(source),
			"sequence": sequence,
		},
		CreatedAt: createdAt,
	}
	if err := u.messages.Create(ctx, record); err != nil {
		return err
	}

	// Embedding failures do not fail the sync; the message is already
	// durable and a later run can re-enqueue.
	if err := u.queue.EnqueueEmbedding(ctx, jobs.EmbeddingPayload{
		MessageID:      record.PublicID,
		ConversationID: conv.PublicID,
		Content:        content,
		Model:          u.embeddingModel,
	}); err != nil {
		u.log.Warn().Err(err).Str("message_id", record.PublicID).Msg("failed to enqueue embedding job")
	}
	return nil
}
