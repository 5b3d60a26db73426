package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

// DefaultAPIURL is the Telegram Bot API root.
const DefaultAPIURL = "https://api.telegram.org"

// TelegramNotifier sends messages via the Telegram Bot API.
type TelegramNotifier struct {
	BotToken string
	ChatID   string
	// Backoff is the first retry delay; it doubles on each attempt.
	Backoff time.Duration
	client  *resty.Client
}

// NewTelegramNotifier creates a notifier with optional proxy support.
func NewTelegramNotifier(apiURL, botToken, chatID, proxyURL string) *TelegramNotifier {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	client := resty.New().
		SetBaseURL(apiURL).
		SetTimeout(35*time.Second).
		SetPathParam("token", botToken)
	if proxyURL != "" {
		client.SetProxy(proxyURL)
	}
	return &TelegramNotifier{
		BotToken: botToken,
		ChatID:   chatID,
		Backoff:  time.Second,
		client:   client,
	}
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Send sends an HTML message to the configured chat.
func (t *TelegramNotifier) Send(ctx context.Context, text string) error {
	var result apiResponse
	resp, err := t.client.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"chat_id":    t.ChatID,
			"text":       text,
			"parse_mode": "HTML",
		}).
		SetResult(&result).
		SetError(&result).
		Post("/bot{token}/sendMessage")
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	if resp.IsError() || !result.OK {
		return fmt.Errorf("telegram API error: status %d: %s", resp.StatusCode(), result.Description)
	}
	return nil
}

// SendWithRetry sends a message with exponential backoff retry.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, text string, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		err := t.Send(ctx, text)
		if err == nil {
			return nil
		}
		lastErr = err
		if i == maxRetries {
			break
		}
		backoff := t.Backoff << uint(i)
		log.Warn().Err(err).
			Int("attempt", i+1).
			Int("max", maxRetries+1).
			Dur("retry_in", backoff).
			Msg("telegram send failed")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("all %d retries exhausted: %w", maxRetries+1, lastErr)
}
