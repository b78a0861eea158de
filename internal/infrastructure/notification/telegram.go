// Package notification delivers operator messages through the Telegram Bot API.
package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	notificationapp "github.com/Marusmurong/mall-sub000/internal/application/notification"
	"github.com/Marusmurong/mall-sub000/internal/infrastructure/config"
	"go.uber.org/zap"
)

const defaultTelegramAPIURL = "https://api.telegram.org"

// telegramMaxMessage is the Bot API limit on message text
const telegramMaxMessage = 4096

var _ notificationapp.Sender = (*TelegramSender)(nil)

// TelegramSender posts HTML messages with sendMessage
type TelegramSender struct {
	apiURL string
	token  string
	http   *http.Client
	logger *zap.Logger
}

// NewTelegramSender creates a sender from configuration
func NewTelegramSender(cfg config.TelegramConfig, logger *zap.Logger) (*TelegramSender, error) {
	if cfg.BotToken == "" {
		return nil, errors.New("telegram bot token is required")
	}
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = defaultTelegramAPIURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &TelegramSender{
		apiURL: strings.TrimRight(apiURL, "/"),
		token:  cfg.BotToken,
		http:   &http.Client{Timeout: timeout},
		logger: logger,
	}, nil
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
	Parameters  *struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

// TelegramError is a rejected Bot API call
type TelegramError struct {
	Code        int
	Description string
	RetryAfter  time.Duration
}

func (e *TelegramError) Error() string {
	return fmt.Sprintf("telegram: %d %s", e.Code, e.Description)
}

// Send delivers text to chatID
func (s *TelegramSender) Send(ctx context.Context, chatID, text string) error {
	if chatID == "" {
		return errors.New("telegram: chat id is required")
	}
	if len(text) > telegramMaxMessage {
		text = text[:telegramMaxMessage-3] + "..."
	}
	raw, err := json.Marshal(sendMessageRequest{
		ChatID:                chatID,
		Text:                  text,
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
	})
	if err != nil {
		return fmt.Errorf("telegram: marshal request: %w", err)
	}

	url := s.apiURL + "/bot" + s.token + "/sendMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("telegram: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		// the URL carries the bot token, keep it out of logs
		return fmt.Errorf("telegram: request failed: %w", redactToken(err, s.token))
	}
	defer resp.Body.Close()

	var out telegramResponse
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(body, &out); err != nil {
		return fmt.Errorf("telegram: HTTP %d: undecodable response", resp.StatusCode)
	}
	if !out.OK {
		terr := &TelegramError{Code: out.ErrorCode, Description: out.Description}
		if out.Parameters != nil {
			terr.RetryAfter = time.Duration(out.Parameters.RetryAfter) * time.Second
		}
		return terr
	}
	s.logger.Debug("Telegram message sent", zap.String("chat_id", chatID))
	return nil
}

func redactToken(err error, token string) error {
	msg := strings.ReplaceAll(err.Error(), token, "<token>")
	return errors.New(msg)
}

// NopSender drops messages. Used when Telegram is disabled.
type NopSender struct{}

// Send does nothing
func (NopSender) Send(context.Context, string, string) error { return nil }
