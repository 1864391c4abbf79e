package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultTelegramAPI     = "https://api.telegram.org"
	defaultTelegramTimeout = 20 * time.Second
	defaultParseMode       = "Markdown"
)

// Compile-time interface check.
var _ Channel = (*TelegramChannel)(nil)

// TelegramChannel sends messages through the Telegram Bot API.
type TelegramChannel struct {
	token     string
	chatID    string
	parseMode string
	apiURL    string
	client    *http.Client
}

// TelegramOption configures a TelegramChannel.
type TelegramOption func(*TelegramChannel)

// WithTelegramAPI overrides the Bot API base URL.
func WithTelegramAPI(apiURL string) TelegramOption {
	return func(ch *TelegramChannel) {
		if apiURL != "" {
			ch.apiURL = strings.TrimRight(apiURL, "/")
		}
	}
}

// WithParseMode sets parse_mode. An empty mode keeps Markdown.
func WithParseMode(mode string) TelegramOption {
	return func(ch *TelegramChannel) {
		if mode != "" {
			ch.parseMode = mode
		}
	}
}

// WithTelegramTimeout overrides the 20 second request timeout.
func WithTelegramTimeout(timeout time.Duration) TelegramOption {
	return func(ch *TelegramChannel) {
		if timeout > 0 {
			ch.client = &http.Client{Timeout: timeout}
		}
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) TelegramOption {
	return func(ch *TelegramChannel) {
		if client != nil {
			ch.client = client
		}
	}
}

// NewTelegramChannel constructs a Telegram channel for one chat.
func NewTelegramChannel(token, chatID string, opts ...TelegramOption) (*TelegramChannel, error) {
	if token == "" {
		return nil, errors.New("telegram channel: empty bot token")
	}
	if chatID == "" {
		return nil, errors.New("telegram channel: empty chat id")
	}
	ch := &TelegramChannel{
		token:     token,
		chatID:    chatID,
		parseMode: defaultParseMode,
		apiURL:    defaultTelegramAPI,
		client:    &http.Client{Timeout: defaultTelegramTimeout},
	}
	for _, opt := range opts {
		opt(ch)
	}
	return ch, nil
}

// Name implements Channel.
func (t *TelegramChannel) Name() string { return "telegram" }

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Send posts text with sendMessage. A non-2xx status or "ok": false is an
// error.
func (t *TelegramChannel) Send(ctx context.Context, text string) error {
	form := url.Values{
		"chat_id":    {t.chatID},
		"text":       {text},
		"parse_mode": {t.parseMode},
	}
	endpoint := t.apiURL + "/bot" + t.token + "/sendMessage"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("telegram channel: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		// The URL embeds the bot token; keep it out of logs.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return fmt.Errorf("telegram channel: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("telegram channel: read response: %w", err)
	}

	var parsed telegramResponse
	_ = json.Unmarshal(body, &parsed)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram channel: HTTP %d: %s", resp.StatusCode, parsed.Description)
	}
	if !parsed.OK {
		return fmt.Errorf("telegram channel: not ok: %s", parsed.Description)
	}
	return nil
}
