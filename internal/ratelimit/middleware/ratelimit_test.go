package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"registrar/internal/ratelimit/middleware/mocks"
	"registrar/internal/ratelimit/models"
	"registrar/internal/ratelimit/service"
	"registrar/internal/ratelimit/store/backoff"
	metadata "registrar/pkg/platform/middleware/metadata"
)

//go:generate mockgen -source=ratelimit.go -destination=mocks/mocks.go -package=mocks RateLimiter

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func newRequest() *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/v1/registrations/abcdef/", nil)
	req.Header.Set("User-Agent", "curl/8.5")
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	return req
}

func TestRateLimitBlocksAfterLimit(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := service.New(backoff.NewInMemoryStore(), service.WithLogger(logger))
	require.NoError(t, err)
	handler := metadata.ClientMetadata(New(svc, 3, logger).RateLimit(okHandler()))

	for i := range 2 {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, newRequest())
		require.Equal(t, http.StatusNoContent, rec.Code, "request %d", i+1)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, newRequest())
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "5", rec.Header().Get("Retry-After"))

	var body models.RateLimitExceededResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "rate_limit_exceeded", body.Error)
	assert.Equal(t, 5, body.RetryAfter)

	other := newRequest()
	other.Header.Set("User-Agent", "firefox")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, other)
	assert.Equal(t, http.StatusNoContent, rec.Code, "a different fingerprint has its own counter")
}

func TestRateLimitFailsOpen(t *testing.T) {
	ctrl := gomock.NewController(t)
	limiter := mocks.NewMockRateLimiter(ctrl)
	limiter.EXPECT().Admit(gomock.Any(), "curl/8.5:203.0.113.9:", 10).
		Return(nil, errors.New("redis down"))

	handler := New(limiter, 10, slog.New(slog.NewTextHandler(io.Discard, nil))).RateLimit(okHandler())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, newRequest())
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRateLimitRetryAfterFallsBackToExpiry(t *testing.T) {
	ctrl := gomock.NewController(t)
	limiter := mocks.NewMockRateLimiter(ctrl)
	limiter.EXPECT().Admit(gomock.Any(), gomock.Any(), 1).
		Return(&models.Decision{Allowed: false, Count: 4, Expiry: 9 * time.Second}, nil)
	limiter.EXPECT().Remaining(gomock.Any(), gomock.Any()).Return(time.Duration(0), errors.New("timeout"))

	handler := New(limiter, 1, slog.New(slog.NewTextHandler(io.Discard, nil))).RateLimit(okHandler())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, newRequest())
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "9", rec.Header().Get("Retry-After"))
}

func TestRateLimitDisabled(t *testing.T) {
	ctrl := gomock.NewController(t)
	limiter := mocks.NewMockRateLimiter(ctrl)

	handler := New(limiter, 1, slog.New(slog.NewTextHandler(io.Discard, nil)), WithDisabled(true)).RateLimit(okHandler())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, newRequest())
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
