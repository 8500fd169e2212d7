// Package telegram announces published posts to a channel.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/upliftnews/uplift/internal/retry"
)

const (
	defaultBaseURL  = "https://api.telegram.org"
	maxCaptionRunes = 1000
)

// Notifier sends messages through the Telegram bot API.
type Notifier struct {
	Token   string
	ChatID  string
	BaseURL string
	Client  *http.Client

	retryDelay time.Duration
}

func New(token, chatID string) *Notifier {
	return &Notifier{
		Token:      token,
		ChatID:     chatID,
		BaseURL:    defaultBaseURL,
		Client:     &http.Client{Timeout: 30 * time.Second},
		retryDelay: 2 * time.Second,
	}
}

// Announce sends a Markdown message to the channel.
func (n *Notifier) Announce(ctx context.Context, text string) error {
	payload := map[string]interface{}{
		"chat_id":                  n.ChatID,
		"text":                     text,
		"parse_mode":               "Markdown",
		"disable_web_page_preview": false,
	}
	return n.send(ctx, "sendMessage", payload)
}

// AnnouncePhoto sends a photo with a Markdown caption. Telegram caps
// captions around 1024 characters, so longer ones are trimmed.
func (n *Notifier) AnnouncePhoto(ctx context.Context, photoURL, caption string) error {
	if runes := []rune(caption); len(runes) > maxCaptionRunes {
		caption = strings.TrimSpace(string(runes[:maxCaptionRunes])) + "…"
	}

	payload := map[string]interface{}{
		"chat_id":    n.ChatID,
		"photo":      photoURL,
		"caption":    caption,
		"parse_mode": "Markdown",
	}
	return n.send(ctx, "sendPhoto", payload)
}

func (n *Notifier) send(ctx context.Context, method string, payload map[string]interface{}) error {
	cfg := retry.RetryConfig{
		MaxAttempts: 3,
		Delay:       n.retryDelay,
		Backoff:     true,
	}

	return retry.WithRetry(ctx, cfg, func() error {
		return n.sendOnce(ctx, method, payload)
	})
}

func (n *Notifier) sendOnce(ctx context.Context, method string, payload map[string]interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", n.BaseURL, n.Token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.Client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("telegram API status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}
