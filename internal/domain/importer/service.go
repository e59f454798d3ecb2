// Package importer ingests bulk conversation exports (ChatGPT, Claude
// JSON, extracted DOCX transcripts) through the same upsert path the
// remote sync uses.
package importer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"chat-archive/internal/domain/conversation"
	"chat-archive/internal/domain/sourcetype"
	"chat-archive/internal/domain/sync"
	"chat-archive/internal/utils/platformerrors"
)

// Service imports conversation export files.
type Service struct {
	conversations conversation.Repository
	messages      conversation.MessageRepository
	upserter      *sync.MessageUpserter
	log           zerolog.Logger
}

// NewService constructs the import service.
func NewService(
	conversations conversation.Repository,
	messages conversation.MessageRepository,
	upserter *sync.MessageUpserter,
	log zerolog.Logger,
) *Service {
	return &Service{
		conversations: conversations,
		messages:      messages,
		upserter:      upserter,
		log:           log.With().Str("component", "import-service").Logger(),
	}
}

// ImportJSON imports a JSON export. The format is detected from the
// structural shape of the data; an unrecognized shape on non-empty
// input fails the whole import.
func (s *Service) ImportJSON(ctx context.Context, raw []byte) (*Result, error) {
	conversations, err := parsePayload(raw)
	if err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation,
			"invalid import payload",
			err,
			"import-parse-error",
		)
	}
	if len(conversations) == 0 {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation,
			"no conversations found in import data",
			nil,
			"import-empty-error",
		)
	}

	format := detectFormat(conversations)
	if format == FormatUnknown {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation,
			"unrecognized import format",
			nil,
			"import-format-error",
		)
	}

	result := NewResult()
	result.FormatDetected = format
	result.addMessage("Detected %s format with %d conversations", format, len(conversations))

	existing, err := s.buildExistingMap(ctx)
	if err != nil {
		return nil, err
	}

	for _, conv := range conversations {
		var data extracted
		switch format {
		case FormatChatGPT:
			data = extractChatGPT(conv)
		case FormatClaude:
			data = extractClaude(conv)
		}

		if err := s.importSingle(ctx, data, format, existing, result); err != nil {
			result.Failed++
			result.addError("Failed to import '%s': %s", data.Title, err.Error())
			s.log.Error().Err(err).Str("title", data.Title).Msg("failed to import conversation")
		}
	}

	result.addMessage("%s", result.Summary())
	s.log.Info().Msg(result.Summary())
	return result, nil
}

// ImportExtracted imports one pre-extracted transcript, the contract
// used by DOCX uploads where the parser runs upstream. Transcripts have
// no stable remote identity, so each call creates a new conversation.
func (s *Service) ImportExtracted(ctx context.Context, title string, messages []sync.IncomingMessage) (*Result, error) {
	result := NewResult()
	result.FormatDetected = FormatDOCX

	if title == "" {
		title = "Untitled"
	}

	conv := &conversation.Conversation{
		PublicID:   uuid.NewString(),
		Title:      title,
		SourceType: sourcetype.DOCX,
	}
	if err := s.conversations.Create(ctx, conv); err != nil {
		return nil, err
	}

	added, err := s.upserter.CreateInitial(ctx, conv, messages, sourcetype.DOCX)
	if err != nil {
		return nil, err
	}

	result.Imported = 1
	result.MessagesAdded = added
	result.addMessage("%s", result.Summary())
	return result, nil
}

// existingEntry points duplicate detection at a stored conversation.
type existingEntry struct {
	conversationID  uint
	publicID        string
	sourceUpdatedAt *time.Time
}

// buildExistingMap indexes stored conversations by their external ID.
// New-style rows carry source_id; rows imported before source tracking
// existed are found through the original_conversation_id their message
// metadata recorded.
func (s *Service) buildExistingMap(ctx context.Context) (map[string]existingEntry, error) {
	all, err := s.conversations.FindAllTracking(ctx)
	if err != nil {
		return nil, err
	}

	existing := make(map[string]existingEntry, len(all))
	for _, conv := range all {
		entry := existingEntry{
			conversationID:  conv.ID,
			publicID:        conv.PublicID,
			sourceUpdatedAt: conv.SourceUpdatedAt,
		}

		if conv.SourceID != nil && *conv.SourceID != "" {
			existing[*conv.SourceID] = entry
			continue
		}

		// Legacy fallback only.
		legacyID, err := s.legacyConversationID(ctx, conv.ID)
		if err != nil {
			return nil, err
		}
		if legacyID != "" {
			existing[legacyID] = entry
		}
	}
	return existing, nil
}

func (s *Service) legacyConversationID(ctx context.Context, conversationID uint) (string, error) {
	messages, err := s.messages.FindByConversation(ctx, conversationID)
	if err != nil {
		return "", err
	}
	for _, msg := range messages {
		if msg.Metadata == nil {
			continue
		}
		if id, ok := msg.Metadata["original_conversation_id"].(string); ok && id != "" {
			return id, nil
		}
	}
	return "", nil
}

func (s *Service) importSingle(
	ctx context.Context,
	data extracted,
	format Format,
	existing map[string]existingEntry,
	result *Result,
) error {
	source := formatSourceType(format)

	var entry existingEntry
	known := false
	if data.SourceID != "" {
		entry, known = existing[data.SourceID]
	}

	if known {
		if !shouldUpdate(entry.sourceUpdatedAt, data.SourceUpdatedAt) {
			result.SkippedDuplicates++
			return nil
		}

		conv := &conversation.Conversation{ID: entry.conversationID, PublicID: entry.publicID}
		added, err := s.upserter.Upsert(ctx, conv, data.Messages, source)
		if err != nil {
			return err
		}
		if err := s.conversations.UpdateSourceTracking(ctx, entry.conversationID, *data.SourceUpdatedAt); err != nil {
			return err
		}
		existing[data.SourceID] = existingEntry{
			conversationID:  entry.conversationID,
			publicID:        entry.publicID,
			sourceUpdatedAt: data.SourceUpdatedAt,
		}

		result.Updated++
		result.MessagesAdded += added
		return nil
	}

	conv := &conversation.Conversation{
		PublicID:        uuid.NewString(),
		Title:           data.Title,
		SourceType:      source,
		SourceUpdatedAt: data.SourceUpdatedAt,
	}
	if data.SourceID != "" {
		sourceID := data.SourceID
		conv.SourceID = &sourceID
	}
	if err := s.conversations.Create(ctx, conv); err != nil {
		return err
	}

	if _, err := s.upserter.CreateInitial(ctx, conv, data.Messages, source); err != nil {
		return err
	}

	if data.SourceID != "" {
		existing[data.SourceID] = existingEntry{
			conversationID:  conv.ID,
			publicID:        conv.PublicID,
			sourceUpdatedAt: data.SourceUpdatedAt,
		}
	}

	result.Imported++
	return nil
}

// shouldUpdate decides whether an export entry supersedes a stored
// conversation. A missing new timestamp is never treated as newer; a
// conversation with no recorded timestamp always accepts the update.
func shouldUpdate(existing, incoming *time.Time) bool {
	if incoming == nil {
		return false
	}
	if existing == nil {
		return true
	}
	return incoming.After(*existing)
}

func formatSourceType(format Format) sourcetype.SourceType {
	switch format {
	case FormatChatGPT:
		return sourcetype.ChatGPT
	case FormatClaude:
		return sourcetype.Claude
	case FormatDOCX:
		return sourcetype.DOCX
	default:
		return sourcetype.Unknown
	}
}
