package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"chat-archive/internal/domain/sync"
)

// HTTPService implements webhook notifications via HTTP POST.
type HTTPService struct {
	httpClient *http.Client
	webhookURL string
	log        zerolog.Logger
	maxRetries int
	retryDelay time.Duration
}

var _ Service = (*HTTPService)(nil)

// NewHTTPService creates a new HTTP-based webhook service posting to the
// given URL. An empty URL disables delivery.
func NewHTTPService(webhookURL string, log zerolog.Logger) *HTTPService {
	return &HTTPService{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		webhookURL: webhookURL,
		log:        log.With().Str("component", "webhook").Logger(),
		maxRetries: 3,
		retryDelay: 2 * time.Second,
	}
}

// SyncFinished delivers the outcome of a sync run. Delivery failures are
// logged but never surfaced to the caller; a webhook must not affect the
// sync result.
func (s *HTTPService) SyncFinished(ctx context.Context, result *sync.Result) {
	if s.webhookURL == "" {
		s.log.Debug().Msg("no webhook URL configured, skipping notification")
		return
	}

	payload := Payload{
		Event:         "sync.completed",
		Imported:      result.Imported,
		Updated:       result.Updated,
		Skipped:       result.Skipped,
		Failed:        result.Failed,
		MessagesAdded: result.MessagesAdded,
		Summary:       result.Summary(),
	}
	if !result.Success {
		payload.Event = "sync.failed"
		message := "sync failed"
		if len(result.Errors) > 0 {
			message = result.Errors[0]
		}
		payload.Error = &ErrorDetails{Code: "sync_failed", Message: message}
	}

	if err := s.sendWebhook(ctx, payload); err != nil {
		s.log.Warn().Err(err).Str("event", payload.Event).Msg("webhook notification dropped")
	}
}

func (s *HTTPService) sendWebhook(ctx context.Context, payload Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create webhook request: %w", err)
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", "chat-archive/1.0")
		req.Header.Set("X-Archive-Event", payload.Event)

		resp, err := s.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("send webhook (attempt %d/%d): %w", attempt, s.maxRetries, err)
			s.log.Warn().Err(err).Str("url", s.webhookURL).Int("attempt", attempt).Msg("webhook delivery failed")

			if attempt < s.maxRetries {
				time.Sleep(s.retryDelay)
				continue
			}
			break
		}
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			s.log.Info().Str("url", s.webhookURL).Int("status", resp.StatusCode).Str("event", payload.Event).Msg("webhook delivered successfully")
			return nil
		}

		lastErr = fmt.Errorf("webhook returned status %d (attempt %d/%d)", resp.StatusCode, attempt, s.maxRetries)
		s.log.Warn().Int("status", resp.StatusCode).Str("url", s.webhookURL).Int("attempt", attempt).Msg("webhook delivery failed")

		if attempt < s.maxRetries {
			time.Sleep(s.retryDelay)
		}
	}

	return lastErr
}
