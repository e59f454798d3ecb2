// Package topic persists free-text conversation labels.
package topic

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	domain "chat-archive/internal/domain/conversation"
	"chat-archive/internal/infrastructure/database/entities"
	"chat-archive/internal/utils/platformerrors"
)

// Repository manages topics and their conversation associations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs the topic repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// SetConversationTopics replaces the conversation's topic set, creating
// topics by name as needed. Lookup is case-insensitive; the first seen
// casing wins.
func (r *Repository) SetConversationTopics(ctx context.Context, conversationID uint, names []string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		topics := make([]entities.Topic, 0, len(names))
		seen := make(map[string]struct{}, len(names))
		for _, name := range names {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			key := strings.ToLower(name)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			topic, err := getOrCreate(tx, name)
			if err != nil {
				return err
			}
			topics = append(topics, *topic)
		}

		conv := entities.Conversation{ID: conversationID}
		return tx.Model(&conv).Association("Topics").Replace(topics)
	})
	if err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to set conversation topics",
			err,
			"set-topics-error",
		)
	}
	return nil
}

func getOrCreate(tx *gorm.DB, name string) (*entities.Topic, error) {
	var topic entities.Topic
	err := tx.Where("LOWER(name) = LOWER(?)", name).First(&topic).Error
	if err == nil {
		return &topic, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	topic = entities.Topic{
		PublicID: uuid.NewString(),
		Name:     name,
	}
	if err := tx.Create(&topic).Error; err != nil {
		return nil, err
	}
	return &topic, nil
}

// TopicNamesForConversation lists the conversation's topics sorted by name.
func (r *Repository) TopicNamesForConversation(ctx context.Context, conversationID uint) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).
		Model(&entities.Topic{}).
		Joins("JOIN conversation_topics ct ON ct.topic_id = topics.id").
		Where("ct.conversation_id = ?", conversationID).
		Order("topics.name ASC").
		Pluck("topics.name", &names).Error
	if err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to list conversation topics",
			err,
			"list-topics-error",
		)
	}
	return names, nil
}

// TopicCounts lists all topics with usage counts, most used first.
func (r *Repository) TopicCounts(ctx context.Context) ([]domain.TopicCount, error) {
	var rows []struct {
		PublicID string
		Name     string
		Total    int64
	}
	err := r.db.WithContext(ctx).
		Model(&entities.Topic{}).
		Select("topics.public_id, topics.name, COUNT(ct.conversation_id) AS total").
		Joins("LEFT JOIN conversation_topics ct ON ct.topic_id = topics.id").
		Group("topics.id").
		Order("total DESC, topics.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to count topics",
			err,
			"count-topics-error",
		)
	}

	counts := make([]domain.TopicCount, len(rows))
	for i, row := range rows {
		counts[i] = domain.TopicCount{
			ID:    row.PublicID,
			Name:  row.Name,
			Count: row.Total,
		}
	}
	return counts, nil
}

// Ensure interface compliance.
var _ domain.TopicRepository = (*Repository)(nil)
