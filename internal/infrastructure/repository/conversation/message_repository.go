package conversation

import (
	"context"

	"gorm.io/gorm"

	domain "chat-archive/internal/domain/conversation"
	"chat-archive/internal/infrastructure/database/entities"
	"chat-archive/internal/utils/platformerrors"
)

// MessageRepository persists conversation messages.
type MessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository constructs the message repository.
func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create inserts a single message.
func (r *MessageRepository) Create(ctx context.Context, msg *domain.Message) error {
	entity := entities.NewSchemaMessage(msg)
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to create message",
			err,
			"create-message-error",
		)
	}
	msg.ID = entity.ID
	msg.CreatedAt = entity.CreatedAt
	return nil
}

// FindByConversation returns all messages ordered by sequence.
func (r *MessageRepository) FindByConversation(ctx context.Context, conversationID uint) ([]*domain.Message, error) {
	var rows []entities.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("sequence ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to list messages",
			err,
			"list-messages-error",
		)
	}

	messages := make([]*domain.Message, len(rows))
	for i := range rows {
		messages[i] = rows[i].EtoD()
	}
	return messages, nil
}

// SourceMessageIDs returns the set of non-null source message IDs in the
// conversation.
func (r *MessageRepository) SourceMessageIDs(ctx context.Context, conversationID uint) (map[string]struct{}, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&entities.Message{}).
		Where("conversation_id = ?", conversationID).
		Where("source_message_id IS NOT NULL").
		Pluck("source_message_id", &ids).Error
	if err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to load source message ids",
			err,
			"source-message-ids-error",
		)
	}

	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// ContentHashes returns the set of content hashes in the conversation.
func (r *MessageRepository) ContentHashes(ctx context.Context, conversationID uint) (map[string]struct{}, error) {
	var hashes []string
	err := r.db.WithContext(ctx).
		Model(&entities.Message{}).
		Where("conversation_id = ?", conversationID).
		Pluck("content_hash", &hashes).Error
	if err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to load content hashes",
			err,
			"content-hashes-error",
		)
	}

	set := make(map[string]struct{}, len(hashes))
	for _, hash := range hashes {
		set[hash] = struct{}{}
	}
	return set, nil
}

// MaxSequence returns the highest sequence in the conversation, zero
// when empty.
func (r *MessageRepository) MaxSequence(ctx context.Context, conversationID uint) (int, error) {
	var max *int
	err := r.db.WithContext(ctx).
		Model(&entities.Message{}).
		Where("conversation_id = ?", conversationID).
		Select("MAX(sequence)").
		Scan(&max).Error
	if err != nil {
		return 0, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to load max sequence",
			err,
			"max-sequence-error",
		)
	}
	if max == nil {
		return 0, nil
	}
	return *max, nil
}

// Ensure interface compliance.
var _ domain.MessageRepository = (*MessageRepository)(nil)
