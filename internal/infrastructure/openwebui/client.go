// Package openwebui implements the remote.Client contract against the
// OpenWebUI HTTP API.
//
// Endpoints used:
//   - GET /api/v1/chats/all/db   - full conversation list including folders
//   - GET /api/v1/chats/list     - paginated fallback list
//   - GET /api/v1/chats/{id}     - full conversation with messages
//   - GET /api/v1/chats/{id}/tags - conversation tags
package openwebui

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"chat-archive/internal/domain/remote"
	"chat-archive/internal/utils/timeparse"
)

// Client talks to one OpenWebUI instance.
type Client struct {
	httpClient *resty.Client
	timeout    time.Duration
}

// Options tune transport behavior. Zero values get defaults.
type Options struct {
	Timeout   time.Duration
	VerifySSL bool
}

// NewClient creates a Resty-backed client for the given instance.
// OpenWebUI deployments frequently run on self-signed certificates, so
// SSL verification is opt-in.
func NewClient(creds remote.Credentials, opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	// Timeouts are enforced per request through context deadlines so the
	// full-dump endpoint can get a doubled budget.
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(creds.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetHeader("Authorization", "Bearer "+creds.APIKey)

	if !opts.VerifySSL {
		httpClient.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}

	return &Client{httpClient: httpClient, timeout: timeout}
}

// NewFactory returns a remote.Factory that builds clients with the
// given transport options.
func NewFactory(opts Options) remote.Factory {
	return func(creds remote.Credentials) remote.Client {
		return NewClient(creds, opts)
	}
}

// TestConnection verifies credentials with a single first-page listing.
func (c *Client) TestConnection(ctx context.Context) error {
	_, err := c.listChats(ctx, 1)
	return err
}

// ForEachChat streams every chat summary. The all/db endpoint is tried
// first because the paginated listing omits conversations in folders;
// pagination is kept as a fallback for older deployments.
func (c *Client) ForEachChat(ctx context.Context, fn func(remote.ChatSummary) error) error {
	all, err := c.listAllChats(ctx)
	if err == nil {
		for _, chat := range all {
			if err := fn(chat); err != nil {
				return err
			}
		}
		return nil
	}
	if remote.IsAuth(err) {
		return err
	}

	log.Warn().Err(err).Msg("all/db endpoint failed, falling back to pagination")
	return c.forEachChatPaginated(ctx, fn)
}

func (c *Client) forEachChatPaginated(ctx context.Context, fn func(remote.ChatSummary) error) error {
	page := 1
	prevCount := -1
	for {
		batch, err := c.listChats(ctx, page)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}

		for _, chat := range batch {
			if err := fn(chat); err != nil {
				return err
			}
		}

		// The server controls page size; a shorter page than the previous
		// one is the last page.
		if prevCount >= 0 && len(batch) < prevCount {
			return nil
		}
		prevCount = len(batch)
		page++
	}
}

// GetChat fetches one conversation with its messages.
func (c *Client) GetChat(ctx context.Context, id string) (*remote.Chat, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.httpClient.R().
		SetContext(ctx).
		Get("/api/v1/chats/" + id)
	if err != nil {
		return nil, &remote.ClientError{Op: "get chat", Err: err}
	}
	if err := statusError(resp, "get chat"); err != nil {
		if resp.StatusCode() == http.StatusNotFound {
			return nil, &remote.NotFoundError{Resource: "chat", ID: id}
		}
		return nil, err
	}

	var payload chatPayload
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, &remote.ClientError{Op: "get chat", Err: fmt.Errorf("decode response: %w", err)}
	}

	chat := &remote.Chat{ChatSummary: payload.summary()}
	chat.Messages, err = decodeMessages(payload.Chat.History.Messages)
	if err != nil {
		return nil, &remote.ClientError{Op: "get chat", Err: err}
	}
	return chat, nil
}

// GetChatTopics fetches the tags attached to a conversation.
func (c *Client) GetChatTopics(ctx context.Context, id string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var tags []struct {
		Name string `json:"name"`
	}
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&tags).
		Get("/api/v1/chats/" + id + "/tags")
	if err != nil {
		return nil, &remote.ClientError{Op: "get chat tags", Err: err}
	}
	if err := statusError(resp, "get chat tags"); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag.Name != "" {
			names = append(names, tag.Name)
		}
	}
	return names, nil
}

func (c *Client) listChats(ctx context.Context, page int) ([]remote.ChatSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var payload []chatPayload
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("page", fmt.Sprintf("%d", page)).
		SetResult(&payload).
		Get("/api/v1/chats/list")
	if err != nil {
		return nil, &remote.ClientError{Op: "list chats", Err: err}
	}
	if err := statusError(resp, "list chats"); err != nil {
		return nil, err
	}

	chats := make([]remote.ChatSummary, 0, len(payload))
	for _, item := range payload {
		chats = append(chats, item.summary())
	}
	return chats, nil
}

func (c *Client) listAllChats(ctx context.Context) ([]remote.ChatSummary, error) {
	var payload []chatPayload
	// Full dump can be large; give it twice the normal budget.
	ctx, cancel := context.WithTimeout(ctx, c.timeout*2)
	defer cancel()

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&payload).
		Get("/api/v1/chats/all/db")
	if err != nil {
		return nil, &remote.ClientError{Op: "list all chats", Err: err}
	}
	if err := statusError(resp, "list all chats"); err != nil {
		return nil, err
	}

	chats := make([]remote.ChatSummary, 0, len(payload))
	for _, item := range payload {
		chats = append(chats, item.summary())
	}
	return chats, nil
}

func statusError(resp *resty.Response, op string) error {
	switch resp.StatusCode() {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &remote.AuthError{Status: resp.StatusCode()}
	}
	if resp.IsError() {
		return &remote.ClientError{Op: op, Status: resp.StatusCode()}
	}
	return nil
}

// chatPayload mirrors the OpenWebUI chat shape. Timestamps arrive in
// mixed epoch scales depending on the server version, so they are kept
// raw and normalized through timeparse.
type chatPayload struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	UpdatedAt json.RawMessage `json:"updated_at"`
	CreatedAt json.RawMessage `json:"created_at"`
	UserID    *string         `json:"user_id"`
	Archived  bool            `json:"archived"`
	Pinned    bool            `json:"pinned"`
	FolderID  *string         `json:"folder_id"`
	ShareID   *string         `json:"share_id"`
	Chat      struct {
		History struct {
			Messages json.RawMessage `json:"messages"`
		} `json:"history"`
	} `json:"chat"`
}

func (p chatPayload) summary() remote.ChatSummary {
	title := p.Title
	if title == "" {
		title = "Untitled"
	}

	updatedAt, updatedOK := parseRawTime(p.UpdatedAt)
	createdAt, _ := parseRawTime(p.CreatedAt)

	return remote.ChatSummary{
		ID:                 p.ID,
		Title:              title,
		UpdatedAt:          updatedAt,
		UpdatedAtSynthetic: !updatedOK,
		CreatedAt:          createdAt,
		UserID:             p.UserID,
		Archived:           p.Archived,
		Pinned:             p.Pinned,
		FolderID:           p.FolderID,
		ShareID:            p.ShareID,
	}
}

// parseRawTime normalizes a raw timestamp field. When the value is
// absent or unparseable it falls back to now and reports synthetic.
func parseRawTime(raw json.RawMessage) (time.Time, bool) {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Now().UTC(), false
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return time.Now().UTC(), false
	}

	t, ok := timeparse.Parse(v)
	if !ok {
		return time.Now().UTC(), false
	}
	return t, true
}

// decodeMessages walks the history.messages object in document order.
// OpenWebUI keys messages by ID and relies on object insertion order to
// express the conversation sequence, so a plain map decode would
// scramble it.
func decodeMessages(raw json.RawMessage) ([]remote.Message, error) {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("decode messages: expected object, got %v", tok)
	}

	var messages []remote.Message
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decode messages: %w", err)
		}
		id, _ := keyTok.(string)

		var body messagePayload
		if err := dec.Decode(&body); err != nil {
			return nil, fmt.Errorf("decode message %s: %w", id, err)
		}

		role := body.Role
		if role == "" {
			role = "user"
		}
		messages = append(messages, remote.Message{
			SourceID:  id,
			Role:      role,
			Content:   extractContent(body.Content),
			Model:     body.Model,
			ParentID:  body.ParentID,
			CreatedAt: messageTime(body),
		})
	}
	return messages, nil
}

type messagePayload struct {
	Role      string          `json:"role"`
	Content   json.RawMessage `json:"content"`
	Timestamp json.RawMessage `json:"timestamp"`
	CreatedAt json.RawMessage `json:"created_at"`
	Model     string          `json:"model"`
	ParentID  *string         `json:"parentId"`
}

func messageTime(body messagePayload) *time.Time {
	for _, raw := range []json.RawMessage{body.CreatedAt, body.Timestamp} {
		if t, ok := parseRawTime(raw); ok {
			return &t
		}
	}
	return nil
}

// extractContent flattens the content field, which can be a plain
// string or a structured block with text/content keys.
func extractContent(raw json.RawMessage) string {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err == nil {
		if text, ok := obj["text"].(string); ok && text != "" {
			return text
		}
		if content, ok := obj["content"].(string); ok && content != "" {
			return content
		}
	}
	return string(raw)
}

// Ensure interface compliance.
var _ remote.Client = (*Client)(nil)
