package sync

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"chat-archive/internal/domain/conversation"
	"chat-archive/internal/domain/jobs"
	"chat-archive/internal/domain/remote"
	"chat-archive/internal/domain/setting"
	"chat-archive/internal/domain/sourcetype"
)

// ---------------------------------------------------------------------
// In-memory fakes
// ---------------------------------------------------------------------

type fakeStore struct {
	mu      sync.Mutex
	values  map[string]string
	history map[string][]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		values:  make(map[string]string),
		history: make(map[string][]string),
	}
}

func (s *fakeStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, found := s.values[key]
	return value, found, nil
}

func (s *fakeStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	s.history[key] = append(s.history[key], value)
	return nil
}

func (s *fakeStore) writes(key string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.history[key]...)
}

type fakeQueue struct {
	mu       sync.Mutex
	payloads []jobs.EmbeddingPayload
	err      error
}

func (q *fakeQueue) EnqueueEmbedding(_ context.Context, payload jobs.EmbeddingPayload) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.payloads = append(q.payloads, payload)
	return nil
}

func (q *fakeQueue) Depth(context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.payloads)), nil
}

// fakeArchive implements Repository, MessageRepository and
// TopicRepository over in-memory maps.
type fakeArchive struct {
	mu            sync.Mutex
	nextConvID    uint
	nextMsgID     uint
	conversations map[uint]*conversation.Conversation
	messages      map[uint][]*conversation.Message
	topics        map[uint][]string
}

func newFakeArchive() *fakeArchive {
	return &fakeArchive{
		conversations: make(map[uint]*conversation.Conversation),
		messages:      make(map[uint][]*conversation.Message),
		topics:        make(map[uint][]string),
	}
}

func (a *fakeArchive) Create(_ context.Context, conv *conversation.Conversation) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nextConvID++
	conv.ID = a.nextConvID
	conv.CreatedAt = time.Now().UTC()
	conv.UpdatedAt = conv.CreatedAt
	clone := *conv
	a.conversations[conv.ID] = &clone
	return nil
}

func (a *fakeArchive) FindByPublicID(_ context.Context, publicID string) (*conversation.Conversation, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, conv := range a.conversations {
		if conv.PublicID == publicID {
			clone := *conv
			for _, msg := range a.messages[conv.ID] {
				clone.Messages = append(clone.Messages, *msg)
			}
			return &clone, nil
		}
	}
	return nil, errors.New("not found")
}

func (a *fakeArchive) FindByFilter(context.Context, conversation.Filter, *conversation.Pagination) ([]*conversation.Conversation, error) {
	return nil, nil
}

func (a *fakeArchive) Count(context.Context, conversation.Filter) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return int64(len(a.conversations)), nil
}

func (a *fakeArchive) CountBySourceType(context.Context) (map[sourcetype.SourceType]int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	counts := make(map[sourcetype.SourceType]int64)
	for _, conv := range a.conversations {
		counts[conv.SourceType]++
	}
	return counts, nil
}

func (a *fakeArchive) SourceTrackingMap(_ context.Context, source sourcetype.SourceType) (map[string]conversation.SourceTracking, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	tracking := make(map[string]conversation.SourceTracking)
	for _, conv := range a.conversations {
		if conv.SourceType != source || conv.SourceID == nil {
			continue
		}
		tracking[*conv.SourceID] = conversation.SourceTracking{
			ConversationID:  conv.ID,
			PublicID:        conv.PublicID,
			SourceUpdatedAt: conv.SourceUpdatedAt,
		}
	}
	return tracking, nil
}

func (a *fakeArchive) FindAllTracking(context.Context) ([]*conversation.Conversation, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	all := make([]*conversation.Conversation, 0, len(a.conversations))
	for _, conv := range a.conversations {
		clone := *conv
		all = append(all, &clone)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all, nil
}

func (a *fakeArchive) UpdateSourceTracking(_ context.Context, id uint, sourceUpdatedAt time.Time) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	conv, ok := a.conversations[id]
	if !ok {
		return errors.New("not found")
	}
	ts := sourceUpdatedAt
	conv.SourceUpdatedAt = &ts
	return nil
}

func (a *fakeArchive) UpdateTitle(_ context.Context, id uint, title string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	conv, ok := a.conversations[id]
	if !ok {
		return errors.New("not found")
	}
	conv.Title = title
	return nil
}

func (a *fakeArchive) SetSaved(_ context.Context, id uint, saved bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	conv, ok := a.conversations[id]
	if !ok {
		return errors.New("not found")
	}
	conv.IsSaved = saved
	return nil
}

func (a *fakeArchive) CreateMessage(_ context.Context, msg *conversation.Message) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nextMsgID++
	msg.ID = a.nextMsgID
	clone := *msg
	a.messages[msg.ConversationID] = append(a.messages[msg.ConversationID], &clone)
	return nil
}

func (a *fakeArchive) FindByConversation(_ context.Context, conversationID uint) ([]*conversation.Message, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	msgs := make([]*conversation.Message, len(a.messages[conversationID]))
	for i, msg := range a.messages[conversationID] {
		clone := *msg
		msgs[i] = &clone
	}
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].Sequence < msgs[j].Sequence })
	return msgs, nil
}

func (a *fakeArchive) SourceMessageIDs(_ context.Context, conversationID uint) (map[string]struct{}, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	set := make(map[string]struct{})
	for _, msg := range a.messages[conversationID] {
		if msg.SourceMessageID != nil {
			set[*msg.SourceMessageID] = struct{}{}
		}
	}
	return set, nil
}

func (a *fakeArchive) ContentHashes(_ context.Context, conversationID uint) (map[string]struct{}, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	set := make(map[string]struct{})
	for _, msg := range a.messages[conversationID] {
		set[msg.ContentHash] = struct{}{}
	}
	return set, nil
}

func (a *fakeArchive) MaxSequence(_ context.Context, conversationID uint) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	max := 0
	for _, msg := range a.messages[conversationID] {
		if msg.Sequence > max {
			max = msg.Sequence
		}
	}
	return max, nil
}

func (a *fakeArchive) SetConversationTopics(_ context.Context, conversationID uint, names []string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.topics[conversationID] = append([]string(nil), names...)
	return nil
}

func (a *fakeArchive) TopicNamesForConversation(_ context.Context, conversationID uint) ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.topics[conversationID]...), nil
}

func (a *fakeArchive) TopicCounts(context.Context) ([]conversation.TopicCount, error) {
	return nil, nil
}

// messageRepoAdapter renames CreateMessage to satisfy the interface
// without colliding with the conversation Create method.
type messageRepoAdapter struct{ archive *fakeArchive }

func (m messageRepoAdapter) Create(ctx context.Context, msg *conversation.Message) error {
	return m.archive.CreateMessage(ctx, msg)
}

func (m messageRepoAdapter) FindByConversation(ctx context.Context, id uint) ([]*conversation.Message, error) {
	return m.archive.FindByConversation(ctx, id)
}

func (m messageRepoAdapter) SourceMessageIDs(ctx context.Context, id uint) (map[string]struct{}, error) {
	return m.archive.SourceMessageIDs(ctx, id)
}

func (m messageRepoAdapter) ContentHashes(ctx context.Context, id uint) (map[string]struct{}, error) {
	return m.archive.ContentHashes(ctx, id)
}

func (m messageRepoAdapter) MaxSequence(ctx context.Context, id uint) (int, error) {
	return m.archive.MaxSequence(ctx, id)
}

// fakeClient serves canned chats and counts detail fetches.
type fakeClient struct {
	mu        sync.Mutex
	chats     []remote.Chat
	getCalls  map[string]int
	listErr   error
	blockList chan struct{}
}

func newFakeClient(chats ...remote.Chat) *fakeClient {
	return &fakeClient{chats: chats, getCalls: make(map[string]int)}
}

func (c *fakeClient) TestConnection(context.Context) error {
	return c.listErr
}

func (c *fakeClient) ForEachChat(ctx context.Context, fn func(remote.ChatSummary) error) error {
	if c.blockList != nil {
		<-c.blockList
	}
	if c.listErr != nil {
		return c.listErr
	}
	for _, chat := range c.chats {
		if err := fn(chat.ChatSummary); err != nil {
			return err
		}
	}
	return nil
}

func (c *fakeClient) GetChat(_ context.Context, id string) (*remote.Chat, error) {
	c.mu.Lock()
	c.getCalls[id]++
	c.mu.Unlock()
	for i := range c.chats {
		if c.chats[i].ID == id {
			chat := c.chats[i]
			return &chat, nil
		}
	}
	return nil, &remote.NotFoundError{Resource: "chat", ID: id}
}

func (c *fakeClient) GetChatTopics(_ context.Context, id string) ([]string, error) {
	for i := range c.chats {
		if c.chats[i].ID == id {
			return []string{"synced"}, nil
		}
	}
	return nil, nil
}

func (c *fakeClient) detailFetches(id string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getCalls[id]
}

// syncRunner runs admitted jobs synchronously so tests are deterministic.
type syncRunner struct{ busy bool }

func (r *syncRunner) TryRun(_ string, fn func(ctx context.Context)) bool {
	if r.busy {
		return false
	}
	fn(context.Background())
	return true
}

// ---------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------

func remoteChat(id, title string, updatedAt time.Time, messages ...remote.Message) remote.Chat {
	return remote.Chat{
		ChatSummary: remote.ChatSummary{
			ID:        id,
			Title:     title,
			UpdatedAt: updatedAt,
			CreatedAt: updatedAt.Add(-time.Hour),
		},
		Messages: messages,
	}
}

func remoteMsg(id, role, content string) remote.Message {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return remote.Message{SourceID: id, Role: role, Content: content, CreatedAt: &created}
}

type harness struct {
	service *Service
	archive *fakeArchive
	store   *fakeStore
	queue   *fakeQueue
	client  *fakeClient
	state   *State
}

func newHarness(t *testing.T, client *fakeClient) *harness {
	t.Helper()
	archive := newFakeArchive()
	store := newFakeStore()
	store.values[setting.KeyRemoteURL] = "https://owui.example.com"
	store.values[setting.KeyRemoteAPIKey] = "secret"
	queue := &fakeQueue{}
	state := NewState()

	upserter := NewMessageUpserter(messageRepoAdapter{archive}, queue, "all-MiniLM-L6-v2", zerolog.Nop())
	service := NewService(
		archive,
		archive,
		store,
		upserter,
		func(remote.Credentials) remote.Client { return client },
		state,
		&syncRunner{},
		nil,
		nil,
		zerolog.Nop(),
	)
	return &harness{service: service, archive: archive, store: store, queue: queue, client: client, state: state}
}

// ---------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------

func TestSync_ImportsNewConversations(t *testing.T) {
	updated := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	client := newFakeClient(
		remoteChat("chat-1", "Go questions", updated,
			remoteMsg("m1", "user", "What is a goroutine?"),
			remoteMsg("m2", "assistant", "A lightweight thread."),
		),
	)
	h := newHarness(t, client)

	result := h.service.SyncFromRemote(context.Background())
	if !result.Success {
		t.Fatalf("sync failed: %v", result.Errors)
	}
	if result.Imported != 1 || result.Updated != 0 || result.Skipped != 0 {
		t.Errorf("unexpected counts: %+v", result)
	}

	convs, _ := h.archive.FindAllTracking(context.Background())
	if len(convs) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(convs))
	}
	conv := convs[0]
	if conv.SourceType != sourcetype.OpenWebUI || conv.SourceID == nil || *conv.SourceID != "chat-1" {
		t.Errorf("source tracking not recorded: %+v", conv)
	}
	if conv.SourceUpdatedAt == nil || !conv.SourceUpdatedAt.Equal(updated) {
		t.Errorf("source_updated_at not recorded: %v", conv.SourceUpdatedAt)
	}

	msgs, _ := h.archive.FindByConversation(context.Background(), conv.ID)
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Sequence != 1 || msgs[1].Sequence != 2 {
		t.Errorf("expected sequences 1,2 got %d,%d", msgs[0].Sequence, msgs[1].Sequence)
	}

	// One embedding job per stored message with the configured model.
	if len(h.queue.payloads) != 2 {
		t.Fatalf("expected 2 embedding jobs, got %d", len(h.queue.payloads))
	}
	for _, payload := range h.queue.payloads {
		if payload.Model != "all-MiniLM-L6-v2" {
			t.Errorf("unexpected embedding model %q", payload.Model)
		}
		if payload.ConversationID != conv.PublicID {
			t.Errorf("embedding job references wrong conversation: %q", payload.ConversationID)
		}
	}

	topics, _ := h.archive.TopicNamesForConversation(context.Background(), conv.ID)
	if len(topics) != 1 || topics[0] != "synced" {
		t.Errorf("topics not synced: %v", topics)
	}
}

func TestSync_SecondRunSkipsUnchanged(t *testing.T) {
	updated := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	client := newFakeClient(
		remoteChat("chat-1", "Stable", updated, remoteMsg("m1", "user", "hello")),
	)
	h := newHarness(t, client)

	first := h.service.SyncFromRemote(context.Background())
	if first.Imported != 1 {
		t.Fatalf("first run should import, got %+v", first)
	}
	fetchesAfterFirst := client.detailFetches("chat-1")

	second := h.service.SyncFromRemote(context.Background())
	if second.Skipped != 1 || second.Imported != 0 || second.Updated != 0 {
		t.Errorf("second run should skip unchanged, got %+v", second)
	}
	if client.detailFetches("chat-1") != fetchesAfterFirst {
		t.Error("skip decision must come from the summary alone, without a detail fetch")
	}

	total, _ := h.archive.Count(context.Background(), conversation.Filter{})
	if total != 1 {
		t.Errorf("idempotence violated: %d conversations", total)
	}
}

func TestSync_UpdatedChatAppendsOnlyNewMessages(t *testing.T) {
	t1 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	client := newFakeClient(
		remoteChat("chat-1", "Growing", t1,
			remoteMsg("m1", "user", "first"),
			remoteMsg("m2", "assistant", "second"),
		),
	)
	h := newHarness(t, client)
	h.service.SyncFromRemote(context.Background())

	// Remote gains one message and a new title.
	t2 := t1.Add(time.Hour)
	client.chats[0] = remoteChat("chat-1", "Growing v2", t2,
		remoteMsg("m1", "user", "first"),
		remoteMsg("m2", "assistant", "second"),
		remoteMsg("m3", "user", "third"),
	)

	result := h.service.SyncFromRemote(context.Background())
	if result.Updated != 1 || result.MessagesAdded != 1 {
		t.Fatalf("expected 1 update with 1 new message, got %+v", result)
	}

	convs, _ := h.archive.FindAllTracking(context.Background())
	conv := convs[0]
	if conv.Title != "Growing v2" {
		t.Errorf("title not refreshed: %q", conv.Title)
	}
	if !conv.SourceUpdatedAt.Equal(t2) {
		t.Errorf("tracking timestamp not advanced: %v", conv.SourceUpdatedAt)
	}

	msgs, _ := h.archive.FindByConversation(context.Background(), conv.ID)
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	// Existing sequences untouched, new message appended after max.
	for i, msg := range msgs {
		if msg.Sequence != i+1 {
			t.Errorf("message %d has sequence %d", i, msg.Sequence)
		}
	}
}

func TestSync_DedupBySourceIDAndContentHash(t *testing.T) {
	t1 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	client := newFakeClient(
		remoteChat("chat-1", "Dedup", t1, remoteMsg("m1", "user", "hello")),
	)
	h := newHarness(t, client)
	h.service.SyncFromRemote(context.Background())

	// Same content returns under a different source ID, plus a genuinely
	// new message without any source ID.
	t2 := t1.Add(time.Hour)
	client.chats[0] = remote.Chat{
		ChatSummary: remote.ChatSummary{ID: "chat-1", Title: "Dedup", UpdatedAt: t2},
		Messages: []remote.Message{
			{SourceID: "m1-renamed", Role: "user", Content: "hello"},
			{Role: "assistant", Content: "fresh reply"},
			{Role: "assistant", Content: "   "},
		},
	}

	result := h.service.SyncFromRemote(context.Background())
	if result.MessagesAdded != 1 {
		t.Fatalf("expected exactly 1 new message, got %d", result.MessagesAdded)
	}

	convs, _ := h.archive.FindAllTracking(context.Background())
	msgs, _ := h.archive.FindByConversation(context.Background(), convs[0].ID)
	if len(msgs) != 2 {
		t.Errorf("expected 2 messages after dedup, got %d", len(msgs))
	}
}

func TestSync_SyntheticTimestampNeverForcesRefetch(t *testing.T) {
	t1 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	client := newFakeClient(
		remoteChat("chat-1", "Flaky server", t1, remoteMsg("m1", "user", "hello")),
	)
	h := newHarness(t, client)
	h.service.SyncFromRemote(context.Background())
	fetches := client.detailFetches("chat-1")

	// The server stops sending updated_at; the client substitutes now and
	// flags it. now > t1, but that must not look like a change.
	client.chats[0].ChatSummary.UpdatedAt = time.Now().UTC().Add(time.Hour)
	client.chats[0].ChatSummary.UpdatedAtSynthetic = true

	result := h.service.SyncFromRemote(context.Background())
	if result.Skipped != 1 {
		t.Errorf("expected synthetic timestamp to skip, got %+v", result)
	}
	if client.detailFetches("chat-1") != fetches {
		t.Error("synthetic timestamp triggered a detail fetch")
	}
}

func TestSync_EqualTimestampSkips(t *testing.T) {
	t1 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	client := newFakeClient(
		remoteChat("chat-1", "Same", t1, remoteMsg("m1", "user", "hi")),
	)
	h := newHarness(t, client)
	h.service.SyncFromRemote(context.Background())

	// Identical timestamp on the next run: not strictly after, so skip.
	result := h.service.SyncFromRemote(context.Background())
	if result.Skipped != 1 || result.Updated != 0 {
		t.Errorf("equal timestamp should skip, got %+v", result)
	}
}

func TestSync_FailedChatDoesNotAbortRun(t *testing.T) {
	t1 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	good := remoteChat("good", "Works", t1, remoteMsg("m1", "user", "hi"))

	// Broken chat first: its detail fetch 404s, the good one follows.
	h := newHarness(t, newFakeClient())
	h.service.factory = func(remote.Credentials) remote.Client {
		return &orderedClient{
			summaries: []remote.ChatSummary{
				{ID: "broken", Title: "Gone", UpdatedAt: t1},
				good.ChatSummary,
			},
			chats: map[string]remote.Chat{"good": good},
		}
	}

	result := h.service.SyncFromRemote(context.Background())
	if !result.Success {
		t.Fatalf("per-chat failure must not fail the run: %v", result.Errors)
	}
	if result.Failed != 1 || result.Imported != 1 {
		t.Errorf("expected 1 failed and 1 imported, got %+v", result)
	}
	if len(result.Errors) == 0 || !strings.Contains(result.Errors[0], "Gone") {
		t.Errorf("error should name the failing chat: %v", result.Errors)
	}
}

func TestSync_ListingFailureStillWritesCheckpoint(t *testing.T) {
	// Connection test passes, listing fails afterwards.
	h := newHarness(t, newFakeClient())
	h.service.factory = func(remote.Credentials) remote.Client {
		return &orderedClient{listErr: &remote.ClientError{Op: "list chats", Status: 500}}
	}

	result := h.service.SyncFromRemote(context.Background())
	if result.Success {
		t.Fatal("expected failure when listing breaks")
	}
	if _, found, _ := h.store.Get(context.Background(), setting.KeyLastSync); !found {
		t.Error("partial progress checkpoint was not written")
	}
}

func TestSync_LongRunCheckpointsMidway(t *testing.T) {
	// A run over more chats than the checkpoint interval must advance
	// the checkpoint and progress line before it finishes, not only at
	// the end.
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	chats := make([]remote.Chat, 0, checkpointEvery+10)
	for i := 0; i < checkpointEvery+10; i++ {
		id := fmt.Sprintf("chat-%03d", i)
		chats = append(chats, remoteChat(id, "Chat "+id, base.Add(time.Duration(i)*time.Minute),
			remoteMsg(id+"-m1", "user", "hello from "+id),
		))
	}
	h := newHarness(t, newFakeClient(chats...))

	result := h.service.SyncFromRemote(context.Background())
	if !result.Success {
		t.Fatalf("sync failed: %v", result.Errors)
	}
	if result.Imported != checkpointEvery+10 {
		t.Errorf("expected %d imported, got %d", checkpointEvery+10, result.Imported)
	}

	// One checkpoint at chat 50, one at the end of the run.
	writes := h.store.writes(setting.KeyLastSync)
	if len(writes) != 2 {
		t.Fatalf("expected 2 checkpoint writes (midway and final), got %d", len(writes))
	}
	for _, value := range writes {
		if _, err := time.Parse(time.RFC3339, value); err != nil {
			t.Errorf("checkpoint %q is not RFC3339: %v", value, err)
		}
	}

	want := fmt.Sprintf("Processed %d chats (%d new, 0 updated, 0 unchanged)", checkpointEvery, checkpointEvery)
	if got := h.state.Snapshot().Progress; got != want {
		t.Errorf("midway progress not published: got %q, want %q", got, want)
	}
}

func TestSync_NotConfigured(t *testing.T) {
	client := newFakeClient()
	h := newHarness(t, client)
	delete(h.store.values, setting.KeyRemoteAPIKey)

	result := h.service.SyncFromRemote(context.Background())
	if result.Success {
		t.Fatal("expected failure without credentials")
	}
	if len(result.Errors) == 0 || !strings.Contains(result.Errors[0], "configured") {
		t.Errorf("unexpected errors: %v", result.Errors)
	}
}

func TestSync_AuthFailureIsDistinguished(t *testing.T) {
	client := newFakeClient()
	client.listErr = &remote.AuthError{Status: 401}
	h := newHarness(t, client)

	result := h.service.SyncFromRemote(context.Background())
	if result.Success {
		t.Fatal("expected auth failure")
	}
	if !strings.Contains(result.Errors[0], "Authentication failed") {
		t.Errorf("expected authentication error, got %v", result.Errors)
	}
}

func TestStartBackground_RejectsConcurrentRuns(t *testing.T) {
	client := newFakeClient()
	h := newHarness(t, client)

	runner := &syncRunner{busy: true}
	h.service.runner = runner
	h.state.begin()
	h.state.setProgress("Processed 50 chats")

	status := h.service.StartBackground(context.Background())
	if status.Status != "already_running" {
		t.Fatalf("expected already_running, got %q", status.Status)
	}
	if status.Progress != "Processed 50 chats" {
		t.Errorf("expected current progress in response, got %q", status.Progress)
	}
}

func TestStartBackground_ErrorWhenNotConfigured(t *testing.T) {
	client := newFakeClient()
	h := newHarness(t, client)
	delete(h.store.values, setting.KeyRemoteURL)

	status := h.service.StartBackground(context.Background())
	if status.Status != "error" || status.Error == "" {
		t.Errorf("expected configuration error, got %+v", status)
	}
}

func TestStatus_ReportsCountsAndConfiguration(t *testing.T) {
	t1 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	client := newFakeClient(
		remoteChat("chat-1", "One", t1, remoteMsg("m1", "user", "hi")),
	)
	h := newHarness(t, client)
	h.service.SyncFromRemote(context.Background())

	status, err := h.service.Status(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.LastSync == nil {
		t.Error("expected last sync timestamp after a run")
	}
	if status.ConversationsBySource[sourcetype.OpenWebUI] != 1 {
		t.Errorf("unexpected counts: %v", status.ConversationsBySource)
	}
	if _, present := status.ConversationsBySource[sourcetype.Claude]; !present {
		t.Error("every known source should appear in the counts")
	}
	if status.TotalConversations != 1 {
		t.Errorf("unexpected total: %d", status.TotalConversations)
	}
	if !status.RemoteConfigured {
		t.Error("remote should report configured")
	}
}

// orderedClient serves a fixed summary order with selective detail data.
type orderedClient struct {
	summaries []remote.ChatSummary
	chats     map[string]remote.Chat
	listErr   error
}

func (c *orderedClient) TestConnection(context.Context) error { return nil }

func (c *orderedClient) ForEachChat(_ context.Context, fn func(remote.ChatSummary) error) error {
	if c.listErr != nil {
		return c.listErr
	}
	for _, summary := range c.summaries {
		if err := fn(summary); err != nil {
			return err
		}
	}
	return nil
}

func (c *orderedClient) GetChat(_ context.Context, id string) (*remote.Chat, error) {
	chat, ok := c.chats[id]
	if !ok {
		return nil, &remote.NotFoundError{Resource: "chat", ID: id}
	}
	return &chat, nil
}

func (c *orderedClient) GetChatTopics(context.Context, string) ([]string, error) {
	return nil, nil
}
