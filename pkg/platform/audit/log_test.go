package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"registrar/pkg/requestcontext"
)

func TestLogAudit(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	ctx := requestcontext.WithRequestID(context.Background(), "req-1")

	LogAudit(ctx, logger, EventRegistrationCreated, "rid", "abcdef")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "registration_created", line["msg"])
	assert.Equal(t, "registration_created", line["event"])
	assert.Equal(t, "audit", line["log_type"])
	assert.Equal(t, "req-1", line["request_id"])
	assert.Equal(t, "abcdef", line["subject"])
}

func TestLogAuditNilLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		LogAudit(context.Background(), nil, EventRateLimitExceeded, "key", "ratelimit:00")
	})
}

func TestLogAuditRedactsSecrets(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	LogAudit(context.Background(), logger, EventAccountRequested, "rid", "abcdef", "password", "hunter2")

	assert.NotContains(t, buf.String(), "hunter2")
	assert.Contains(t, buf.String(), "[redacted]")
}
