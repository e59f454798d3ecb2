package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	domain "chat-archive/internal/domain/conversation"
	"chat-archive/internal/domain/sourcetype"
	"chat-archive/internal/infrastructure/database/entities"
	"chat-archive/internal/utils/platformerrors"
)

// Repository persists conversations in PostgreSQL.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs the conversation repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a conversation and writes generated fields back.
func (r *Repository) Create(ctx context.Context, conv *domain.Conversation) error {
	entity := entities.NewSchemaConversation(conv)
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to create conversation",
			err,
			"create-conversation-error",
		)
	}
	conv.ID = entity.ID
	conv.CreatedAt = entity.CreatedAt
	conv.UpdatedAt = entity.UpdatedAt
	return nil
}

// FindByPublicID retrieves a conversation with messages ordered by sequence.
func (r *Repository) FindByPublicID(ctx context.Context, publicID string) (*domain.Conversation, error) {
	var entity entities.Conversation
	err := r.db.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence ASC, id ASC")
		}).
		Preload("Topics", func(db *gorm.DB) *gorm.DB {
			return db.Order("name ASC")
		}).
		Where("public_id = ?", publicID).
		First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformerrors.NewError(
				ctx,
				platformerrors.LayerRepository,
				platformerrors.ErrorTypeNotFound,
				fmt.Sprintf("conversation not found: %s", publicID),
				nil,
				"find-conversation-not-found",
			)
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to find conversation",
			err,
			"find-conversation-error",
		)
	}
	return entity.EtoD(), nil
}

// FindByFilter lists conversations without message bodies, newest first.
func (r *Repository) FindByFilter(ctx context.Context, filter domain.Filter, pagination *domain.Pagination) ([]*domain.Conversation, error) {
	query := r.applyFilter(r.db.WithContext(ctx).Model(&entities.Conversation{}), filter).
		Preload("Topics").
		Order("updated_at DESC")

	if pagination != nil && pagination.PageSize > 0 {
		page := pagination.Page
		if page < 1 {
			page = 1
		}
		query = query.Offset((page - 1) * pagination.PageSize).Limit(pagination.PageSize)
	}

	var rows []entities.Conversation
	if err := query.Find(&rows).Error; err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to list conversations",
			err,
			"list-conversations-error",
		)
	}

	conversations := make([]*domain.Conversation, len(rows))
	for i := range rows {
		conversations[i] = rows[i].EtoD()
	}
	return conversations, nil
}

// Count returns the number of conversations matching the filter.
func (r *Repository) Count(ctx context.Context, filter domain.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&entities.Conversation{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to count conversations",
			err,
			"count-conversations-error",
		)
	}
	return count, nil
}

// CountBySourceType groups conversation counts per source.
func (r *Repository) CountBySourceType(ctx context.Context) (map[sourcetype.SourceType]int64, error) {
	var rows []struct {
		SourceType sourcetype.SourceType
		Total      int64
	}
	err := r.db.WithContext(ctx).
		Model(&entities.Conversation{}).
		Select("source_type, COUNT(*) AS total").
		Group("source_type").
		Scan(&rows).Error
	if err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to count conversations by source",
			err,
			"count-by-source-error",
		)
	}

	counts := make(map[sourcetype.SourceType]int64, len(rows))
	for _, row := range rows {
		counts[row.SourceType] = row.Total
	}
	return counts, nil
}

// SourceTrackingMap builds source_id -> tracking record for change
// detection. Conversations without a source ID are unreachable from a
// remote sync and are excluded.
func (r *Repository) SourceTrackingMap(ctx context.Context, source sourcetype.SourceType) (map[string]domain.SourceTracking, error) {
	var rows []struct {
		ID              uint
		PublicID        string
		SourceID        string
		SourceUpdatedAt *time.Time
	}
	err := r.db.WithContext(ctx).
		Model(&entities.Conversation{}).
		Select("id, public_id, source_id, source_updated_at").
		Where("source_type = ?", source).
		Where("source_id IS NOT NULL").
		Scan(&rows).Error
	if err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to load source tracking",
			err,
			"source-tracking-error",
		)
	}

	tracking := make(map[string]domain.SourceTracking, len(rows))
	for _, row := range rows {
		tracking[row.SourceID] = domain.SourceTracking{
			ConversationID:  row.ID,
			PublicID:        row.PublicID,
			SourceUpdatedAt: row.SourceUpdatedAt,
		}
	}
	return tracking, nil
}

// FindAllTracking returns every conversation without message bodies.
func (r *Repository) FindAllTracking(ctx context.Context) ([]*domain.Conversation, error) {
	var rows []entities.Conversation
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to load conversations",
			err,
			"find-all-tracking-error",
		)
	}

	conversations := make([]*domain.Conversation, len(rows))
	for i := range rows {
		conversations[i] = rows[i].EtoD()
	}
	return conversations, nil
}

// UpdateSourceTracking advances source_updated_at after reconciliation.
func (r *Repository) UpdateSourceTracking(ctx context.Context, id uint, sourceUpdatedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&entities.Conversation{}).
		Where("id = ?", id).
		Update("source_updated_at", sourceUpdatedAt)
	if result.Error != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to update source tracking",
			result.Error,
			"update-tracking-error",
		)
	}
	if result.RowsAffected == 0 {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeNotFound,
			fmt.Sprintf("conversation not found: %d", id),
			nil,
			"update-tracking-not-found",
		)
	}
	return nil
}

// UpdateTitle overwrites the conversation title.
func (r *Repository) UpdateTitle(ctx context.Context, id uint, title string) error {
	result := r.db.WithContext(ctx).
		Model(&entities.Conversation{}).
		Where("id = ?", id).
		Update("title", title)
	if result.Error != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to update conversation title",
			result.Error,
			"update-title-error",
		)
	}
	if result.RowsAffected == 0 {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeNotFound,
			fmt.Sprintf("conversation not found: %d", id),
			nil,
			"update-title-not-found",
		)
	}
	return nil
}

// SetSaved toggles the user bookmark flag.
func (r *Repository) SetSaved(ctx context.Context, id uint, saved bool) error {
	result := r.db.WithContext(ctx).
		Model(&entities.Conversation{}).
		Where("id = ?", id).
		Update("is_saved", saved)
	if result.Error != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to update saved flag",
			result.Error,
			"set-saved-error",
		)
	}
	if result.RowsAffected == 0 {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeNotFound,
			fmt.Sprintf("conversation not found: %d", id),
			nil,
			"set-saved-not-found",
		)
	}
	return nil
}

func (r *Repository) applyFilter(query *gorm.DB, filter domain.Filter) *gorm.DB {
	if filter.PublicID != nil {
		query = query.Where("public_id = ?", *filter.PublicID)
	}
	if filter.SourceType != nil {
		query = query.Where("source_type = ?", *filter.SourceType)
	}
	if filter.IsSaved != nil {
		query = query.Where("is_saved = ?", *filter.IsSaved)
	}
	return query
}

// Ensure interface compliance.
var _ domain.Repository = (*Repository)(nil)
