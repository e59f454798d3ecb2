// Package jobs defines the background job queue contract. This service
// only enqueues; a separate embedding worker drains the queue.
package jobs

import "context"

// KindGenerateEmbedding labels embedding generation jobs.
const KindGenerateEmbedding = "generate_embedding"

// EmbeddingPayload is the unit of embedding work for one stored message.
type EmbeddingPayload struct {
	MessageID      string `json:"message_id"`
	ConversationID string `json:"conversation_id"`
	Content        string `json:"content"`
	Model          string `json:"model"`
}

// Queue enqueues background jobs.
type Queue interface {
	// EnqueueEmbedding queues embedding generation for a message.
	EnqueueEmbedding(ctx context.Context, payload EmbeddingPayload) error

	// Depth returns the number of queued jobs.
	Depth(ctx context.Context) (int64, error)
}
