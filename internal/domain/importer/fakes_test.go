package importer

import (
	"context"
	"errors"
	"sort"
	"time"

	"chat-archive/internal/domain/conversation"
	"chat-archive/internal/domain/jobs"
	"chat-archive/internal/domain/sourcetype"
)

type noopQueue struct{}

func (noopQueue) EnqueueEmbedding(context.Context, jobs.EmbeddingPayload) error { return nil }
func (noopQueue) Depth(context.Context) (int64, error)                         { return 0, nil }

// importArchive is an in-memory conversation and message store.
type importArchive struct {
	nextConvID    uint
	nextMsgID     uint
	conversations map[uint]*conversation.Conversation
	messages      map[uint][]*conversation.Message
}

func newImportArchive() *importArchive {
	return &importArchive{
		conversations: make(map[uint]*conversation.Conversation),
		messages:      make(map[uint][]*conversation.Message),
	}
}

func (a *importArchive) bySourceID(sourceID string) *conversation.Conversation {
	for _, conv := range a.conversations {
		if conv.SourceID != nil && *conv.SourceID == sourceID {
			return conv
		}
	}
	return nil
}

func (a *importArchive) Create(_ context.Context, conv *conversation.Conversation) error {
	a.nextConvID++
	conv.ID = a.nextConvID
	clone := *conv
	a.conversations[conv.ID] = &clone
	return nil
}

func (a *importArchive) FindByPublicID(context.Context, string) (*conversation.Conversation, error) {
	return nil, errors.New("not found")
}

func (a *importArchive) FindByFilter(context.Context, conversation.Filter, *conversation.Pagination) ([]*conversation.Conversation, error) {
	return nil, nil
}

func (a *importArchive) Count(context.Context, conversation.Filter) (int64, error) {
	return int64(len(a.conversations)), nil
}

func (a *importArchive) CountBySourceType(context.Context) (map[sourcetype.SourceType]int64, error) {
	return nil, nil
}

func (a *importArchive) SourceTrackingMap(context.Context, sourcetype.SourceType) (map[string]conversation.SourceTracking, error) {
	return nil, nil
}

func (a *importArchive) FindAllTracking(context.Context) ([]*conversation.Conversation, error) {
	all := make([]*conversation.Conversation, 0, len(a.conversations))
	for _, conv := range a.conversations {
		clone := *conv
		all = append(all, &clone)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all, nil
}

func (a *importArchive) UpdateSourceTracking(_ context.Context, id uint, sourceUpdatedAt time.Time) error {
	conv, ok := a.conversations[id]
	if !ok {
		return errors.New("not found")
	}
	ts := sourceUpdatedAt
	conv.SourceUpdatedAt = &ts
	return nil
}

func (a *importArchive) UpdateTitle(_ context.Context, id uint, title string) error {
	conv, ok := a.conversations[id]
	if !ok {
		return errors.New("not found")
	}
	conv.Title = title
	return nil
}

func (a *importArchive) SetSaved(_ context.Context, id uint, saved bool) error {
	conv, ok := a.conversations[id]
	if !ok {
		return errors.New("not found")
	}
	conv.IsSaved = saved
	return nil
}

func (a *importArchive) CreateMessage(_ context.Context, msg *conversation.Message) error {
	a.nextMsgID++
	msg.ID = a.nextMsgID
	clone := *msg
	a.messages[msg.ConversationID] = append(a.messages[msg.ConversationID], &clone)
	return nil
}

func (a *importArchive) FindByConversation(_ context.Context, conversationID uint) ([]*conversation.Message, error) {
	msgs := make([]*conversation.Message, len(a.messages[conversationID]))
	for i, msg := range a.messages[conversationID] {
		clone := *msg
		msgs[i] = &clone
	}
	return msgs, nil
}

func (a *importArchive) SourceMessageIDs(_ context.Context, conversationID uint) (map[string]struct{}, error) {
	set := make(map[string]struct{})
	for _, msg := range a.messages[conversationID] {
		if msg.SourceMessageID != nil {
			set[*msg.SourceMessageID] = struct{}{}
		}
	}
	return set, nil
}

func (a *importArchive) ContentHashes(_ context.Context, conversationID uint) (map[string]struct{}, error) {
	set := make(map[string]struct{})
	for _, msg := range a.messages[conversationID] {
		set[msg.ContentHash] = struct{}{}
	}
	return set, nil
}

func (a *importArchive) MaxSequence(_ context.Context, conversationID uint) (int, error) {
	max := 0
	for _, msg := range a.messages[conversationID] {
		if msg.Sequence > max {
			max = msg.Sequence
		}
	}
	return max, nil
}

// msgRepo exposes the archive's message methods under the repository
// interface without colliding with the conversation Create method.
type msgRepo struct{ a *importArchive }

func (m msgRepo) Create(ctx context.Context, msg *conversation.Message) error {
	return m.a.CreateMessage(ctx, msg)
}

func (m msgRepo) FindByConversation(ctx context.Context, id uint) ([]*conversation.Message, error) {
	return m.a.FindByConversation(ctx, id)
}

func (m msgRepo) SourceMessageIDs(ctx context.Context, id uint) (map[string]struct{}, error) {
	return m.a.SourceMessageIDs(ctx, id)
}

func (m msgRepo) ContentHashes(ctx context.Context, id uint) (map[string]struct{}, error) {
	return m.a.ContentHashes(ctx, id)
}

func (m msgRepo) MaxSequence(ctx context.Context, id uint) (int, error) {
	return m.a.MaxSequence(ctx, id)
}
