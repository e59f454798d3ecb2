package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ListResult is one page of conversations plus the total match count.
type ListResult struct {
	Conversations []*Conversation `json:"conversations"`
	Total         int64           `json:"total"`
	Page          int             `json:"page"`
	PageSize      int             `json:"page_size"`
}

// Service describes the read and bookmark surface over the archive.
type Service interface {
	List(ctx context.Context, filter Filter, pagination Pagination) (*ListResult, error)
	Get(ctx context.Context, publicID string) (*Conversation, error)
	SetSaved(ctx context.Context, publicID string, saved bool) (*Conversation, error)
	ExportMarkdown(ctx context.Context, publicID string) (string, error)
	Topics(ctx context.Context) ([]TopicCount, error)
}

type service struct {
	conversations Repository
	topics        TopicRepository
	log           zerolog.Logger
}

// NewService wires the conversation service with its repositories.
func NewService(conversations Repository, topics TopicRepository, log zerolog.Logger) Service {
	return &service{
		conversations: conversations,
		topics:        topics,
		log:           log.With().Str("component", "conversation-service").Logger(),
	}
}

func (s *service) List(ctx context.Context, filter Filter, pagination Pagination) (*ListResult, error) {
	if pagination.Page < 1 {
		pagination.Page = 1
	}
	if pagination.PageSize < 1 || pagination.PageSize > 100 {
		pagination.PageSize = 20
	}

	total, err := s.conversations.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items, err := s.conversations.FindByFilter(ctx, filter, &pagination)
	if err != nil {
		return nil, err
	}

	return &ListResult{
		Conversations: items,
		Total:         total,
		Page:          pagination.Page,
		PageSize:      pagination.PageSize,
	}, nil
}

func (s *service) Get(ctx context.Context, publicID string) (*Conversation, error) {
	return s.conversations.FindByPublicID(ctx, publicID)
}

func (s *service) SetSaved(ctx context.Context, publicID string, saved bool) (*Conversation, error) {
	conv, err := s.conversations.FindByPublicID(ctx, publicID)
	if err != nil {
		return nil, err
	}
	if err := s.conversations.SetSaved(ctx, conv.ID, saved); err != nil {
		return nil, err
	}
	conv.IsSaved = saved
	return conv, nil
}

// ExportMarkdown renders the conversation as a markdown document with a
// metadata header and one section per message.
func (s *service) ExportMarkdown(ctx context.Context, publicID string) (string, error) {
	conv, err := s.conversations.FindByPublicID(ctx, publicID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", conv.Title)
	fmt.Fprintf(&b, "- Source: %s\n", conv.SourceType)
	fmt.Fprintf(&b, "- Created: %s\n", conv.CreatedAt.Format(time.RFC3339))
	if len(conv.Topics) > 0 {
		fmt.Fprintf(&b, "- Topics: %s\n", strings.Join(conv.Topics, ", "))
	}
	b.WriteString("\n---\n")

	for _, msg := range conv.Messages {
		fmt.Fprintf(&b, "\n## %s\n\n%s\n", titleRole(msg.Role), msg.Content)
	}

	return b.String(), nil
}

func (s *service) Topics(ctx context.Context) ([]TopicCount, error) {
	return s.topics.TopicCounts(ctx)
}

func titleRole(role string) string {
	if role == "" {
		return "Unknown"
	}
	return strings.ToUpper(role[:1]) + role[1:]
}
