package sync

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"chat-archive/internal/domain/conversation"
	"chat-archive/internal/domain/sourcetype"
)

var errQueueDown = errors.New("queue unavailable")

func TestHashContent(t *testing.T) {
	hash := HashContent("user", "hello world")
	if len(hash) != 16 {
		t.Fatalf("expected 16-char hash, got %d (%q)", len(hash), hash)
	}
	if hash != HashContent("user", "hello world") {
		t.Error("hash must be deterministic")
	}
	// Role participates in the hash: the same text from another speaker
	// is a different message.
	if hash == HashContent("assistant", "hello world") {
		t.Error("role must distinguish otherwise identical content")
	}
}

func TestCreateInitial_SkipsBlankMessages(t *testing.T) {
	archive := newFakeArchive()
	queue := &fakeQueue{}
	upserter := NewMessageUpserter(messageRepoAdapter{archive}, queue, "all-MiniLM-L6-v2", zerolog.Nop())

	conv := &conversation.Conversation{ID: 1, PublicID: "conv-1"}
	added, err := upserter.CreateInitial(context.Background(), conv, []IncomingMessage{
		{Role: "user", Content: "real"},
		{Role: "assistant", Content: "  \n\t "},
		{Role: "user", Content: ""},
		{Role: "assistant", Content: "also real"},
	}, sourcetype.OpenWebUI)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if added != 2 {
		t.Errorf("expected 2 stored messages, got %d", added)
	}

	msgs, _ := archive.FindByConversation(context.Background(), 1)
	if msgs[0].Sequence != 1 || msgs[1].Sequence != 2 {
		t.Errorf("blank messages must not consume sequence numbers: %d, %d",
			msgs[0].Sequence, msgs[1].Sequence)
	}
}

func TestUpsert_EnqueueFailureDoesNotFailUpsert(t *testing.T) {
	archive := newFakeArchive()
	queue := &fakeQueue{err: errQueueDown}
	upserter := NewMessageUpserter(messageRepoAdapter{archive}, queue, "all-MiniLM-L6-v2", zerolog.Nop())

	conv := &conversation.Conversation{ID: 1, PublicID: "conv-1"}
	added, err := upserter.Upsert(context.Background(), conv, []IncomingMessage{
		{Role: "user", Content: "still stored"},
	}, sourcetype.OpenWebUI)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if added != 1 {
		t.Errorf("message should be stored despite queue failure, got %d", added)
	}
}
