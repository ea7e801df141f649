package auth

import (
	"context"
	"log/slog"
	"net/http"

	dErrors "registrar/pkg/domain-errors"
	"registrar/pkg/platform/httputil"
	"registrar/pkg/requestcontext"
)

// Role is what a presented secret proves about the caller.
type Role string

const (
	RoleNone      Role = ""
	RoleApplicant Role = "applicant"
	RoleManager   Role = "manager"
)

// Principal is the authenticated caller of a single request. Nothing about
// it outlives the request.
type Principal struct {
	RID  string
	Role Role
}

// Authenticator resolves a basic-auth pair (rid, secret) to a principal.
// Every credential failure must carry dErrors.CodeUnauthorized.
type Authenticator interface {
	Authenticate(ctx context.Context, rid, secret string) (*Principal, error)
}

type contextKeyPrincipal struct{}

// ContextKeyPrincipal is exported for tests that bypass the middleware.
var ContextKeyPrincipal = contextKeyPrincipal{}

// GetPrincipal returns the authenticated principal or nil.
func GetPrincipal(ctx context.Context) *Principal {
	p, ok := ctx.Value(ContextKeyPrincipal).(*Principal)
	if !ok {
		return nil
	}
	return p
}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, ContextKeyPrincipal, p)
}

// RequireBasicAuth authenticates the Authorization header. Missing,
// malformed and wrong credentials, and unknown rids, all get the same 401.
func RequireBasicAuth(authenticator Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			rid, secret, ok := r.BasicAuth()
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing credentials",
					"request_id", requestcontext.RequestID(ctx),
				)
				WriteUnauthorized(w)
				return
			}

			principal, err := authenticator.Authenticate(ctx, rid, secret)
			if err != nil {
				if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
					logger.WarnContext(ctx, "unauthorized access - invalid credentials",
						"request_id", requestcontext.RequestID(ctx),
					)
					WriteUnauthorized(w)
					return
				}
				logger.ErrorContext(ctx, "failed to authenticate request",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(ctx, principal)))
		})
	}
}

// WriteUnauthorized renders the uniform credential failure with a basic-auth
// challenge.
func WriteUnauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="registrations", charset="UTF-8"`)
	httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials"))
}
