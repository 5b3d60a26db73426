package notifier

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// CommandHandler is called when a user command is received.
type CommandHandler func(command string) string

// telegramUpdate represents a Telegram update from long polling.
type telegramUpdate struct {
	UpdateID int `json:"update_id"`
	Message  *struct {
		Text string `json:"text"`
	} `json:"message"`
}

// StartPolling begins long-polling for Telegram commands. Blocks until ctx is cancelled.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	offset := 0
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("telegram polling stopped")
			return
		default:
		}

		next, err := t.PollOnce(ctx, offset, 30, handler)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn().Err(err).Msg("telegram polling failed")
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Second):
			}
			continue
		}
		offset = next
	}
}

// PollOnce fetches pending updates starting at offset, answers each command
// through handler and returns the offset for the next call.
func (t *TelegramNotifier) PollOnce(ctx context.Context, offset, timeoutSec int, handler CommandHandler) (int, error) {
	var result struct {
		OK     bool             `json:"ok"`
		Result []telegramUpdate `json:"result"`
	}
	resp, err := t.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"offset":  strconv.Itoa(offset),
			"timeout": strconv.Itoa(timeoutSec),
		}).
		SetResult(&result).
		Get("/bot{token}/getUpdates")
	if err != nil {
		return offset, fmt.Errorf("get updates: %w", err)
	}
	if resp.IsError() || !result.OK {
		return offset, fmt.Errorf("get updates: status %d", resp.StatusCode())
	}

	for _, update := range result.Result {
		offset = update.UpdateID + 1
		if update.Message == nil || update.Message.Text == "" {
			continue
		}
		text := strings.TrimSpace(update.Message.Text)
		log.Info().Str("command", text).Msg("received command")
		if reply := handler(text); reply != "" {
			if err := t.Send(ctx, reply); err != nil {
				log.Error().Err(err).Msg("send reply")
			}
		}
	}
	return offset, nil
}
