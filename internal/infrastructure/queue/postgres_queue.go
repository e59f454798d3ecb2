// Package queue implements the background job queue over PostgreSQL.
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"chat-archive/internal/domain/jobs"
	"chat-archive/internal/infrastructure/database/entities"
)

// PostgresQueue implements jobs.Queue using the embedding_jobs table.
type PostgresQueue struct {
	db  *gorm.DB
	log zerolog.Logger
}

// NewPostgresQueue creates a new PostgreSQL-backed job queue.
func NewPostgresQueue(db *gorm.DB, log zerolog.Logger) *PostgresQueue {
	return &PostgresQueue{
		db:  db,
		log: log.With().Str("component", "postgres-queue").Logger(),
	}
}

// EnqueueEmbedding queues embedding generation for a stored message.
func (q *PostgresQueue) EnqueueEmbedding(ctx context.Context, payload jobs.EmbeddingPayload) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal embedding payload: %w", err)
	}

	entity := entities.EmbeddingJob{
		Kind:    jobs.KindGenerateEmbedding,
		Status:  "queued",
		Payload: raw,
	}
	if err := q.db.WithContext(ctx).Create(&entity).Error; err != nil {
		return fmt.Errorf("enqueue embedding job: %w", err)
	}

	q.log.Debug().
		Str("message_id", payload.MessageID).
		Str("model", payload.Model).
		Msg("embedding job queued")
	return nil
}

// Depth returns the number of queued jobs.
func (q *PostgresQueue) Depth(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.WithContext(ctx).
		Model(&entities.EmbeddingJob{}).
		Where("status = ?", "queued").
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("get queue depth: %w", err)
	}
	return count, nil
}

// Ensure interface compliance.
var _ jobs.Queue = (*PostgresQueue)(nil)
