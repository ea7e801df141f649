package metadata

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"registrar/pkg/requestcontext"
)

func TestClientIdentifier(t *testing.T) {
	t.Run("joins identifying headers in order", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("User-Agent", "curl/8.0")
		req.Header.Set("X-Forwarded-For", "203.0.113.7")
		req.Header.Set("X-Real-IP", "10.0.0.2")

		assert.Equal(t, "curl/8.0:203.0.113.7:10.0.0.2", ClientIdentifier(req))
	})

	t.Run("missing headers leave empty segments", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Del("User-Agent")

		assert.Equal(t, "::", ClientIdentifier(req))
	})
}

func TestClientMetadataMiddleware(t *testing.T) {
	var got string
	h := ClientMetadata(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = requestcontext.ClientIdentifier(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("User-Agent", "ua")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "ua::", got)
}
