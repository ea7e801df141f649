package metadata

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"registrar/pkg/requestcontext"
)

// identifyingHeaders are joined, in order, into the caller fingerprint.
var identifyingHeaders = []string{"User-Agent", "X-Forwarded-For", "X-Real-IP"}

// ClientMetadata derives the caller fingerprint and the request ID and stores
// them in the context. Apply it after chi's RequestID middleware.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithClientIdentifier(r.Context(), ClientIdentifier(r))
		if reqID := middleware.GetReqID(ctx); reqID != "" {
			ctx = requestcontext.WithRequestID(ctx, reqID)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClientIdentifier builds the opaque rate-limit identifier from request
// headers. Missing headers contribute an empty segment.
func ClientIdentifier(r *http.Request) string {
	parts := make([]string, len(identifyingHeaders))
	for i, h := range identifyingHeaders {
		parts[i] = r.Header.Get(h)
	}
	return strings.Join(parts, ":")
}
