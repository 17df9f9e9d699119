package notify_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/restock/infrastructure/circuitbreaker"
	"github.com/jonesrussell/north-cloud/restock/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/restock/infrastructure/retry"
	"github.com/jonesrussell/north-cloud/restock/internal/notify"
)

const testToken = "123:secret"

func newTelegram(t *testing.T, handler http.HandlerFunc, opts ...notify.TelegramOption) *notify.TelegramTransport {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := notify.TelegramConfig{
		Token:             testToken,
		APIURL:            srv.URL,
		MessagesPerMinute: 60000,
	}
	fast := retry.Config{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
	return notify.NewTelegramTransport(cfg, logger.NewNop(), append([]notify.TelegramOption{notify.WithRetry(fast)}, opts...)...)
}

func TestTelegram_SendMessage(t *testing.T) {
	t.Parallel()

	var got map[string]any
	tg := newTelegram(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/bot"+testToken+"/sendMessage", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1}}`))
	})

	require.NoError(t, tg.Send(context.Background(), "<b>hi</b>", "@chan"))

	assert.Equal(t, "@chan", got["chat_id"])
	assert.Equal(t, "<b>hi</b>", got["text"])
	assert.Equal(t, "HTML", got["parse_mode"])
}

func TestTelegram_RetriesFloodControl(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	tg := newTelegram(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"ok":false,"error_code":429,"description":"Too Many Requests: retry after 0","parameters":{"retry_after":0}}`))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	require.NoError(t, tg.Send(context.Background(), "x", "@chan"))
	assert.Equal(t, int32(2), calls.Load())
}

func TestTelegram_PermanentAPIError(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	tg := newTelegram(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
	})

	err := tg.Send(context.Background(), "x", "@missing")

	var apiErr *notify.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.StatusCode)
	assert.Contains(t, apiErr.Description, "chat not found")
	assert.False(t, apiErr.Retryable())
	assert.Equal(t, int32(1), calls.Load())
	assert.NotContains(t, err.Error(), "secret")
}

func TestTelegram_BreakerOpensAfterFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	breaker := circuitbreaker.New(circuitbreaker.Config{FailureThreshold: 1, Timeout: time.Hour})
	tg := newTelegram(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`<html>bad gateway</html>`))
	}, notify.WithBreaker(breaker))

	err := tg.Send(context.Background(), "x", "@chan")
	require.ErrorIs(t, err, retry.ErrMaxAttemptsExceeded)
	assert.Equal(t, int32(3), calls.Load())

	err = tg.Send(context.Background(), "x", "@chan")
	require.ErrorIs(t, err, circuitbreaker.ErrCircuitOpen)
	assert.Equal(t, int32(3), calls.Load())
}

func TestAPIError_RetryAfter(t *testing.T) {
	t.Parallel()

	e := &notify.APIError{StatusCode: 429, RetryAfterSeconds: 7}
	assert.True(t, e.Retryable())
	assert.Equal(t, 7*time.Second, e.RetryAfter())
	assert.True(t, (&notify.APIError{StatusCode: 503}).Retryable())
}
