package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"registrar/internal/ratelimit/models"
	"registrar/pkg/platform/httputil"
	metadata "registrar/pkg/platform/middleware/metadata"
	"registrar/pkg/requestcontext"
)

type RateLimiter interface {
	Admit(ctx context.Context, identifier string, limit int) (*models.Decision, error)
	Remaining(ctx context.Context, identifier string) (time.Duration, error)
}

type Middleware struct {
	limiter  RateLimiter
	limit    int
	logger   *slog.Logger
	disabled bool
}

type Option func(*Middleware)

// WithDisabled disables rate limiting entirely (for testing/demo mode).
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

func New(limiter RateLimiter, limit int, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		limiter: limiter,
		limit:   limit,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled {
		logger.Info("rate limiting disabled")
	}
	return m
}

// RateLimit rejects callers whose fingerprint exceeded the limit with 429 and
// a Retry-After header. Limiter errors are logged and the request proceeds.
func (m *Middleware) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.disabled {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		identifier := requestcontext.ClientIdentifier(ctx)
		if identifier == "" {
			identifier = metadata.ClientIdentifier(r)
		}

		decision, err := m.limiter.Admit(ctx, identifier, m.limit)
		if err != nil {
			m.logger.ErrorContext(ctx, "failed to check rate limit", "error", err, "key", models.Key(identifier))
			next.ServeHTTP(w, r)
			return
		}
		if decision.Allowed {
			next.ServeHTTP(w, r)
			return
		}

		retryAfter, err := m.limiter.Remaining(ctx, identifier)
		if err != nil || retryAfter <= 0 {
			retryAfter = decision.Expiry
		}
		writeRateLimitExceeded(w, retryAfter)
	})
}

func writeRateLimitExceeded(w http.ResponseWriter, retryAfter time.Duration) {
	seconds := int((retryAfter + time.Second - 1) / time.Second)
	w.Header().Set("Retry-After", strconv.Itoa(seconds))
	httputil.WriteJSON(w, http.StatusTooManyRequests, &models.RateLimitExceededResponse{
		Error:      "rate_limit_exceeded",
		Message:    "Maximum allowed requests reached. Please try again later.",
		RetryAfter: seconds,
	})
}
