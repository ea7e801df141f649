package audit

import (
	"context"
	"log/slog"

	"registrar/pkg/attrs"
	"registrar/pkg/requestcontext"
)

// sensitiveKeys are masked if a caller passes them by mistake.
var sensitiveKeys = []string{"token", "manager_token", "password", "secret"}

// LogAudit writes an audit line through logger, enriched with the request ID
// and the subject found in attrList.
func LogAudit(ctx context.Context, logger *slog.Logger, event Event, attrList ...any) {
	if logger == nil {
		return
	}
	attrList = attrs.Redact(attrList, sensitiveKeys...)
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attrList = append(attrList, "request_id", requestID)
	}
	if subject := extractSubject(attrList); subject != "" {
		attrList = append(attrList, "subject", subject)
	}
	attrList = append(attrList, "event", string(event), "log_type", "audit")
	logger.InfoContext(ctx, string(event), attrList...)
}

func extractSubject(attrList []any) string {
	for _, key := range []string{"rid", "key"} {
		if val := attrs.String(attrList, key); val != "" {
			return val
		}
	}
	return ""
}
