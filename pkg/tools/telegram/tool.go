// Package telegram provides the telegram-bot messaging tool.
package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	ToolID = "telegram-bot"

	defaultBaseURL = "https://api.telegram.org"
)

var (
	ErrTokenRequired   = errors.New("telegram tool requires a bot token")
	ErrChatIDRequired  = errors.New("telegram tool requires a chat_id argument")
	ErrMessageRequired = errors.New("telegram tool requires a message argument")
)

type Config struct {
	Token   string
	BaseURL string // override for tests
	Client  *http.Client
}

type Tool struct {
	token   string
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

func NewTool(config Config, logger *slog.Logger) (*Tool, error) {
	if config.Token == "" {
		return nil, ErrTokenRequired
	}

	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}

	if config.Client == nil {
		config.Client = &http.Client{Timeout: 15 * time.Second}
	}

	return &Tool{
		token:   config.Token,
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		client:  config.Client,
		logger:  logger.With("module", "telegram_tool"),
	}, nil
}

func (t *Tool) ID() string { return ToolID }

// Invoke sends a message. Sending is irreversible, so callers must not retry
// without their own idempotency discipline.
func (t *Tool) Invoke(ctx context.Context, args map[string]any) (any, error) {
	chatID := stringArg(args, "chat_id")
	if chatID == "" {
		return nil, ErrChatIDRequired
	}

	message := stringArg(args, "message")
	if message == "" {
		return nil, ErrMessageRequired
	}

	form := url.Values{}
	form.Set("chat_id", chatID)
	form.Set("text", message)

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	response, err := t.client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("telegram request failed: %w", err)
	}
	defer response.Body.Close()

	raw, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read telegram response: %w", err)
	}

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("telegram returned status %d: %s", response.StatusCode, string(raw))
	}

	var payload struct {
		OK     bool           `json:"ok"`
		Result map[string]any `json:"result"`
	}

	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode telegram response: %w", err)
	}

	if !payload.OK {
		return nil, fmt.Errorf("telegram rejected the message: %s", string(raw))
	}

	t.logger.InfoContext(ctx, "Telegram message sent", "chat_id", chatID)

	return map[string]any{
		"sent":    true,
		"chat_id": chatID,
		"result":  payload.Result,
	}, nil
}

func stringArg(args map[string]any, key string) string {
	switch v := args[key].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return ""
	}
}
