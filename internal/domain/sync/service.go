// Package sync reconciles remote conversations into the local archive.
package sync

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"chat-archive/internal/domain/conversation"
	"chat-archive/internal/domain/remote"
	"chat-archive/internal/domain/setting"
	"chat-archive/internal/domain/sourcetype"
)

// checkpointEvery is the number of processed chats between checkpoint
// writes, so a long run that dies keeps most of its progress.
const checkpointEvery = 50

// Runner admits background jobs; at most one sync runs at a time.
type Runner interface {
	TryRun(name string, fn func(ctx context.Context)) bool
}

// Notifier receives sync completion events. Implementations must not
// block the sync path for long.
type Notifier interface {
	SyncFinished(ctx context.Context, result *Result)
}

// Recorder observes sync outcomes for monitoring.
type Recorder interface {
	RecordSyncRun(result *Result)
}

// Service pulls conversations from the configured remote and
// reconciles them into the archive.
type Service struct {
	conversations conversation.Repository
	topics        conversation.TopicRepository
	settings      setting.Store
	upserter      *MessageUpserter
	factory       remote.Factory
	state         *State
	runner        Runner
	notifier      Notifier
	recorder      Recorder
	log           zerolog.Logger
}

// NewService constructs the sync service. notifier and recorder may be
// nil.
func NewService(
	conversations conversation.Repository,
	topics conversation.TopicRepository,
	settings setting.Store,
	upserter *MessageUpserter,
	factory remote.Factory,
	state *State,
	runner Runner,
	notifier Notifier,
	recorder Recorder,
	log zerolog.Logger,
) *Service {
	return &Service{
		conversations: conversations,
		topics:        topics,
		settings:      settings,
		upserter:      upserter,
		factory:       factory,
		state:         state,
		runner:        runner,
		notifier:      notifier,
		recorder:      recorder,
		log:           log.With().Str("component", "sync-service").Logger(),
	}
}

// StartStatus reports the outcome of a background sync request.
type StartStatus struct {
	Status    string     `json:"status"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	Progress  string     `json:"progress,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// StartBackground kicks off a sync in the background. Exactly one sync
// can run at a time; a request while one is running reports
// already_running with the current progress.
func (s *Service) StartBackground(ctx context.Context) StartStatus {
	// Validate configuration up front so a misconfigured instance fails
	// the request instead of a background run nobody is watching.
	if _, err := s.buildClient(ctx); err != nil {
		return StartStatus{Status: "error", Error: err.Error()}
	}

	admitted := s.runner.TryRun("openwebui-sync", func(runCtx context.Context) {
		s.runSync(runCtx)
	})
	if !admitted {
		snap := s.state.Snapshot()
		return StartStatus{
			Status:    "already_running",
			StartedAt: snap.StartedAt,
			Progress:  snap.Progress,
		}
	}

	now := time.Now().UTC()
	return StartStatus{Status: "started", StartedAt: &now}
}

// runSync executes one sync run and folds the outcome into the state.
func (s *Service) runSync(ctx context.Context) {
	result := s.SyncFromRemote(ctx)
	if result.Success {
		s.state.finish(result.Summary(), "")
	} else {
		errMsg := "Unknown error"
		if len(result.Errors) > 0 {
			errMsg = result.Errors[0]
		}
		s.state.finish("Failed", errMsg)
	}

	if s.recorder != nil {
		s.recorder.RecordSyncRun(result)
	}
	if s.notifier != nil {
		s.notifier.SyncFinished(ctx, result)
	}
}

// Progress returns the current sync progress snapshot.
func (s *Service) Progress() Snapshot {
	return s.state.Snapshot()
}

// Status summarizes sync configuration and archive contents.
type Status struct {
	LastSync             *string                          `json:"last_openwebui_sync"`
	ConversationsBySource map[sourcetype.SourceType]int64 `json:"conversations_by_source"`
	TotalConversations   int64                            `json:"total_conversations"`
	RemoteConfigured     bool                             `json:"openwebui_configured"`
	SyncRunning          bool                             `json:"sync_running"`
}

// Status reports the last sync time and conversation counts by source.
func (s *Service) Status(ctx context.Context) (*Status, error) {
	status := &Status{SyncRunning: s.state.Snapshot().Running}

	lastSync, found, err := s.settings.Get(ctx, setting.KeyLastSync)
	if err != nil {
		return nil, err
	}
	if found {
		status.LastSync = &lastSync
	}

	counts, err := s.conversations.CountBySourceType(ctx)
	if err != nil {
		return nil, err
	}
	// Every known source appears in the response even when empty.
	status.ConversationsBySource = make(map[sourcetype.SourceType]int64, len(sourcetype.All()))
	for _, source := range sourcetype.All() {
		status.ConversationsBySource[source] = counts[source]
	}

	status.TotalConversations, err = s.conversations.Count(ctx, conversation.Filter{})
	if err != nil {
		return nil, err
	}

	_, urlSet, err := s.settings.Get(ctx, setting.KeyRemoteURL)
	if err != nil {
		return nil, err
	}
	_, keySet, err := s.settings.Get(ctx, setting.KeyRemoteAPIKey)
	if err != nil {
		return nil, err
	}
	status.RemoteConfigured = urlSet && keySet

	return status, nil
}

// SyncFromRemote runs one full reconciliation pass synchronously.
func (s *Service) SyncFromRemote(ctx context.Context) *Result {
	s.state.begin()
	result := NewResult()

	client, err := s.buildClient(ctx)
	if err != nil {
		result.fail("%s", err.Error())
		return result
	}

	if err := client.TestConnection(ctx); err != nil {
		if remote.IsAuth(err) {
			result.fail("Authentication failed: %s", err.Error())
		} else {
			result.fail("Connection failed: %s", err.Error())
		}
		return result
	}

	tracking, err := s.conversations.SourceTrackingMap(ctx, sourcetype.OpenWebUI)
	if err != nil {
		result.fail("Failed to load existing conversations: %s", err.Error())
		return result
	}

	result.addMessage("Found %d existing OpenWebUI conversations", len(tracking))
	s.log.Info().Int("existing", len(tracking)).Msg("starting OpenWebUI sync")

	processed := 0
	err = client.ForEachChat(ctx, func(summary remote.ChatSummary) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := s.syncSingleChat(ctx, client, summary, tracking, result); err != nil {
			result.Failed++
			result.addError("Failed to sync chat '%s': %s", summary.Title, err.Error())
			s.log.Error().Err(err).Str("chat", summary.Title).Msg("failed to sync chat")
		}

		processed++
		if processed%checkpointEvery == 0 {
			s.writeCheckpoint(ctx)
			progress := s.progressLine(processed, result)
			s.state.setProgress(progress)
			s.log.Info().Msg(progress)
		}
		return nil
	})
	if err != nil {
		result.fail("Error fetching chats: %s", err.Error())
		// Partial progress still moves the checkpoint forward.
		s.writeCheckpoint(ctx)
		return result
	}

	s.writeCheckpoint(ctx)

	summary := result.Summary()
	result.addMessage("%s", summary)
	s.log.Info().Msg(summary)

	return result
}

// syncSingleChat reconciles one remote chat against the local archive.
func (s *Service) syncSingleChat(
	ctx context.Context,
	client remote.Client,
	summary remote.ChatSummary,
	tracking map[string]conversation.SourceTracking,
	result *Result,
) error {
	existing, known := tracking[summary.ID]
	if !known {
		return s.importChat(ctx, client, summary, result)
	}

	// Change detection: skip when the remote has not moved past what we
	// recorded. A synthetic remote timestamp is not evidence of change,
	// so a known conversation is skipped rather than refetched on it.
	if existing.SourceUpdatedAt != nil {
		if summary.UpdatedAtSynthetic || !summary.UpdatedAt.After(*existing.SourceUpdatedAt) {
			result.Skipped++
			return nil
		}
	}

	chat, err := client.GetChat(ctx, summary.ID)
	if err != nil {
		return err
	}

	conv := &conversation.Conversation{ID: existing.ConversationID, PublicID: existing.PublicID}
	added, err := s.upserter.Upsert(ctx, conv, incomingFromRemote(chat.Messages), sourcetype.OpenWebUI)
	if err != nil {
		return err
	}

	if err := s.conversations.UpdateSourceTracking(ctx, existing.ConversationID, summary.UpdatedAt); err != nil {
		return err
	}
	if err := s.conversations.UpdateTitle(ctx, existing.ConversationID, summary.Title); err != nil {
		return err
	}
	tracking[summary.ID] = conversation.SourceTracking{
		ConversationID:  existing.ConversationID,
		PublicID:        existing.PublicID,
		SourceUpdatedAt: &summary.UpdatedAt,
	}

	result.Updated++
	result.MessagesAdded += added

	s.syncTopics(ctx, client, summary.ID, existing.ConversationID)

	s.log.Info().
		Str("chat", summary.Title).
		Int("messages_added", added).
		Msg("updated conversation")
	return nil
}

// importChat creates a new local conversation from a remote chat.
func (s *Service) importChat(
	ctx context.Context,
	client remote.Client,
	summary remote.ChatSummary,
	result *Result,
) error {
	chat, err := client.GetChat(ctx, summary.ID)
	if err != nil {
		return err
	}
	if len(chat.Messages) == 0 {
		s.log.Warn().Str("chat", chat.Title).Msg("no messages extracted for chat")
	}

	sourceID := summary.ID
	conv := &conversation.Conversation{
		PublicID:        newPublicID(),
		Title:           summary.Title,
		SourceType:      sourcetype.OpenWebUI,
		SourceID:        &sourceID,
		SourceUpdatedAt: &summary.UpdatedAt,
	}
	if err := s.conversations.Create(ctx, conv); err != nil {
		return err
	}

	if _, err := s.upserter.CreateInitial(ctx, conv, incomingFromRemote(chat.Messages), sourcetype.OpenWebUI); err != nil {
		return err
	}

	s.syncTopics(ctx, client, summary.ID, conv.ID)

	result.Imported++
	s.log.Info().Str("chat", summary.Title).Msg("imported new conversation")
	return nil
}

// syncTopics replaces the conversation's topics from remote tags.
// Best effort: tag fetch or storage failures are logged, never fatal.
func (s *Service) syncTopics(ctx context.Context, client remote.Client, sourceID string, conversationID uint) {
	names, err := client.GetChatTopics(ctx, sourceID)
	if err != nil {
		s.log.Warn().Err(err).Str("source_id", sourceID).Msg("failed to fetch topics")
		return
	}
	if len(names) == 0 {
		return
	}

	if err := s.topics.SetConversationTopics(ctx, conversationID, names); err != nil {
		s.log.Warn().Err(err).Str("source_id", sourceID).Msg("failed to store topics")
		return
	}
	s.log.Debug().Int("topics", len(names)).Uint("conversation_id", conversationID).Msg("synced topics")
}

// buildClient loads remote credentials from settings and constructs a
// client. Missing credentials are a configuration error.
func (s *Service) buildClient(ctx context.Context) (remote.Client, error) {
	url, urlSet, err := s.settings.Get(ctx, setting.KeyRemoteURL)
	if err != nil {
		return nil, err
	}
	apiKey, keySet, err := s.settings.Get(ctx, setting.KeyRemoteAPIKey)
	if err != nil {
		return nil, err
	}
	if !urlSet || !keySet || url == "" || apiKey == "" {
		return nil, errNotConfigured
	}
	return s.factory(remote.Credentials{BaseURL: url, APIKey: apiKey}), nil
}

func (s *Service) writeCheckpoint(ctx context.Context) {
	timestamp := time.Now().UTC().Format(time.RFC3339)
	if err := s.settings.Set(ctx, setting.KeyLastSync, timestamp); err != nil {
		s.log.Warn().Err(err).Msg("failed to write sync checkpoint")
	}
}

func (s *Service) progressLine(processed int, result *Result) string {
	return progressFormat(processed, result)
}

func incomingFromRemote(messages []remote.Message) []IncomingMessage {
	incoming := make([]IncomingMessage, 0, len(messages))
	for _, msg := range messages {
		sourceID := msg.SourceID
		var sourceIDPtr *string
		if sourceID != "" {
			sourceIDPtr = &sourceID
		}
		incoming = append(incoming, IncomingMessage{
			SourceID:  sourceIDPtr,
			Role:      msg.Role,
			Content:   msg.Content,
			CreatedAt: msg.CreatedAt,
		})
	}
	return incoming
}
