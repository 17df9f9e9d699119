package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jonesrussell/north-cloud/restock/infrastructure/circuitbreaker"
	"github.com/jonesrussell/north-cloud/restock/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/restock/infrastructure/retry"
)

const (
	defaultTelegramAPI        = "https://api.telegram.org"
	defaultTelegramTimeout    = 10 * time.Second
	defaultMessagesPerMinute  = 20
	maxTelegramResponseBytes  = 64 << 10
	telegramParseModeHTML     = "HTML"
	telegramTooManyRequests   = http.StatusTooManyRequests
	telegramServerErrorCutoff = http.StatusInternalServerError
)

// TelegramConfig configures the Bot API transport.
type TelegramConfig struct {
	Token     string `env:"TELEGRAM_BOT_TOKEN"  yaml:"token"`
	ChannelID string `env:"TELEGRAM_CHANNEL_ID" yaml:"channel_id"`
	// APIURL is overridden in tests.
	APIURL  string        `yaml:"api_url"`
	Timeout time.Duration `yaml:"timeout"`
	// MessagesPerMinute caps sends to one chat; Telegram allows about 20.
	MessagesPerMinute int `yaml:"messages_per_minute"`
}

// SetDefaults fills unset values.
func (c *TelegramConfig) SetDefaults() {
	if c.APIURL == "" {
		c.APIURL = defaultTelegramAPI
	}
	if c.Timeout == 0 {
		c.Timeout = defaultTelegramTimeout
	}
	if c.MessagesPerMinute == 0 {
		c.MessagesPerMinute = defaultMessagesPerMinute
	}
}

// APIError is a Bot API response with ok=false.
type APIError struct {
	StatusCode  int
	Description string
	// RetryAfterSeconds is set by Telegram on flood control.
	RetryAfterSeconds int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram api error %d: %s", e.StatusCode, e.Description)
}

// Retryable reports whether the request may succeed when repeated.
func (e *APIError) Retryable() bool {
	return e.StatusCode == telegramTooManyRequests || e.StatusCode >= telegramServerErrorCutoff
}

// RetryAfter is Telegram's flood-control hint.
func (e *APIError) RetryAfter() time.Duration {
	return time.Duration(e.RetryAfterSeconds) * time.Second
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
	Parameters  *struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

// TelegramTransport sends messages through the Telegram Bot API.
type TelegramTransport struct {
	cfg      TelegramConfig
	client   *http.Client
	limiter  *rate.Limiter
	breaker  *circuitbreaker.Breaker
	retryCfg retry.Config
	logger   logger.Logger
}

var _ Transport = (*TelegramTransport)(nil)

// TelegramOption configures a TelegramTransport.
type TelegramOption func(*TelegramTransport)

// WithRetry replaces the retry policy.
func WithRetry(cfg retry.Config) TelegramOption {
	return func(t *TelegramTransport) { t.retryCfg = cfg }
}

// WithBreaker replaces the circuit breaker.
func WithBreaker(b *circuitbreaker.Breaker) TelegramOption {
	return func(t *TelegramTransport) { t.breaker = b }
}

// NewTelegramTransport creates a transport for cfg.
func NewTelegramTransport(cfg TelegramConfig, log logger.Logger, opts ...TelegramOption) *TelegramTransport {
	cfg.SetDefaults()

	perMessage := time.Minute / time.Duration(cfg.MessagesPerMinute)
	t := &TelegramTransport{
		cfg:      cfg,
		client:   &http.Client{Timeout: cfg.Timeout},
		limiter:  rate.NewLimiter(rate.Every(perMessage), 1),
		retryCfg: retry.DefaultConfig(),
		logger:   log,
	}

	breakerCfg := circuitbreaker.DefaultConfig()
	breakerCfg.OnStateChange = func(from, to circuitbreaker.State) {
		log.Warn("Telegram circuit breaker state changed",
			logger.String("from", from.String()),
			logger.String("to", to.String()),
		)
	}
	t.breaker = circuitbreaker.New(breakerCfg)

	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Send posts message to channel with parse_mode HTML.
func (t *TelegramTransport) Send(ctx context.Context, message, channel string) error {
	return t.breaker.Execute(ctx, func(ctx context.Context) error {
		return retry.Do(ctx, t.retryCfg, func(ctx context.Context) error {
			if err := t.limiter.Wait(ctx); err != nil {
				return fmt.Errorf("telegram rate limit: %w", err)
			}
			return t.sendMessage(ctx, message, channel)
		})
	})
}

func (t *TelegramTransport) sendMessage(ctx context.Context, message, channel string) error {
	body, err := json.Marshal(sendMessageRequest{
		ChatID:    channel,
		Text:      message,
		ParseMode: telegramParseModeHTML,
	})
	if err != nil {
		return fmt.Errorf("encode telegram request: %w", err)
	}

	endpoint := strings.TrimRight(t.cfg.APIURL, "/") + "/bot" + t.cfg.Token + "/sendMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		// The URL carries the bot token; never surface it.
		return fmt.Errorf("telegram request: %w", redactToken(err, t.cfg.Token))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxTelegramResponseBytes))
	if err != nil {
		return fmt.Errorf("read telegram response: %w", err)
	}

	var parsed apiResponse
	if unmarshalErr := json.Unmarshal(raw, &parsed); unmarshalErr != nil {
		return &APIError{StatusCode: resp.StatusCode, Description: http.StatusText(resp.StatusCode)}
	}
	if !parsed.OK {
		apiErr := &APIError{StatusCode: resp.StatusCode, Description: parsed.Description}
		if parsed.ErrorCode != 0 {
			apiErr.StatusCode = parsed.ErrorCode
		}
		if parsed.Parameters != nil {
			apiErr.RetryAfterSeconds = parsed.Parameters.RetryAfter
		}
		return apiErr
	}

	t.logger.Debug("Telegram message sent", logger.String("channel", channel))
	return nil
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }

func redactToken(err error, token string) error {
	if token == "" || !strings.Contains(err.Error(), token) {
		return err
	}
	return &redactedError{msg: strings.ReplaceAll(err.Error(), token, "<token>"), err: err}
}
