package handlers

import (
	"github.com/rs/zerolog"

	"chat-archive/internal/domain/conversation"
	"chat-archive/internal/domain/importer"
	"chat-archive/internal/domain/sync"
)

// Provider wires all HTTP handlers for dependency injection.
type Provider struct {
	Sync         *SyncHandler
	Import       *ImportHandler
	Conversation *ConversationHandler
}

// NewProvider constructs the handler provider with domain services.
func NewProvider(
	syncService *sync.Service,
	importService *importer.Service,
	conversationService conversation.Service,
	log zerolog.Logger,
) *Provider {
	return &Provider{
		Sync:         NewSyncHandler(syncService, log),
		Import:       NewImportHandler(importService, log),
		Conversation: NewConversationHandler(conversationService, log),
	}
}
