// Package settings persists runtime key/value settings.
package settings

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"chat-archive/internal/domain/setting"
	"chat-archive/internal/infrastructure/database/entities"
	"chat-archive/internal/utils/platformerrors"
)

// Repository stores settings in PostgreSQL.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs the settings repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Get returns the value for key, or found=false when unset.
func (r *Repository) Get(ctx context.Context, key string) (string, bool, error) {
	var entity entities.Setting
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to read setting",
			err,
			"get-setting-error",
		)
	}
	return entity.Value, true, nil
}

// Set upserts the value for key.
func (r *Repository) Set(ctx context.Context, key, value string) error {
	entity := entities.Setting{Key: key, Value: value}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&entity).Error
	if err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to write setting",
			err,
			"set-setting-error",
		)
	}
	return nil
}

// Ensure interface compliance.
var _ setting.Store = (*Repository)(nil)
