// Package matrix provisions homeserver accounts through the shared-secret
// admin registration API.
package matrix

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha1" //nolint:gosec // the registration API mandates HMAC-SHA1
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"registrar/internal/platform/metrics"
	"registrar/pkg/platform/circuit"
)

const (
	versionsPath      = "/_matrix/client/versions"
	adminRegisterPath = "/_matrix/client/%s/admin/register"
	maxResponseBytes  = 1 << 20
)

// Account is the homeserver account created for a registration.
type Account struct {
	UserID     string `json:"user_id"`
	HomeServer string `json:"home_server"`
}

type registerRequest struct {
	Nonce        string `json:"nonce"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	Admin        bool   `json:"admin"`
	UserType     string `json:"user_type,omitempty"`
	MAC          string `json:"mac"`
	InhibitLogin bool   `json:"inhibit_login"`
}

// Client talks to a single homeserver. The negotiated API version is
// resolved once and cached for the life of the client.
type Client struct {
	baseURL      string
	sharedSecret []byte
	userType     string
	supported    map[string]struct{}

	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *circuit.Breaker
	version    atomic.Pointer[string]

	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

type Option func(*Client)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithHTTPClient replaces the default client; its Timeout is left untouched.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBreaker replaces the breaker built from Config.
func WithBreaker(b *circuit.Breaker) Option {
	return func(c *Client) {
		c.breaker = b
	}
}

// New builds a client. A missing shared secret is refused here rather than
// at the first provisioning attempt.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.SharedSecret == "" {
		return nil, newError(ErrorNotConfigured, "registration shared secret is not set", nil)
	}
	u, err := url.Parse(cfg.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, newError(ErrorNotConfigured, "homeserver URL is invalid", err)
	}
	if len(cfg.SupportedVersions) == 0 {
		return nil, newError(ErrorNotConfigured, "no supported client API versions", nil)
	}

	supported := make(map[string]struct{}, len(cfg.SupportedVersions))
	for _, v := range cfg.SupportedVersions {
		supported[strings.TrimSpace(v)] = struct{}{}
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	c := &Client{
		baseURL:      strings.TrimRight(cfg.URL, "/"),
		sharedSecret: []byte(cfg.SharedSecret),
		userType:     cfg.UserType,
		supported:    supported,
		httpClient:   &http.Client{Timeout: cfg.RequestTimeout},
		limiter:      limiter,
		breaker: circuit.New("matrix",
			circuit.WithFailureThreshold(cfg.BreakerThreshold),
			circuit.WithCooldown(cfg.BreakerCooldown),
		),
		logger: slog.Default(),
		tracer: otel.Tracer("registrar/internal/matrix"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// CreateAccount registers a non-admin account without starting a session.
// Exactly one attempt is made.
func (c *Client) CreateAccount(ctx context.Context, username, password string) (acct *Account, err error) {
	ctx, span := c.tracer.Start(ctx, "matrix.CreateAccount", trace.WithSpanKind(trace.SpanKindClient))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(CategoryOf(err)))
		}
		span.End()
	}()

	if !c.breaker.Allow() {
		return nil, newError(ErrorRequest, "homeserver circuit is open", nil)
	}
	acct, err = c.createAccount(ctx, username, password)
	c.recordOutcome(ctx, err)
	return acct, err
}

func (c *Client) createAccount(ctx context.Context, username, password string) (*Account, error) {
	version, err := c.apiVersion(ctx)
	if err != nil {
		return nil, err
	}
	path := fmt.Sprintf(adminRegisterPath, version)

	var nonceResp struct {
		Nonce string `json:"nonce"`
	}
	if err := c.do(ctx, "nonce", http.MethodGet, path, nil, &nonceResp); err != nil {
		return nil, err
	}
	if nonceResp.Nonce == "" {
		return nil, newError(ErrorMalformedResponse, "nonce missing from response", nil)
	}

	req := registerRequest{
		Nonce:        nonceResp.Nonce,
		Username:     username,
		Password:     password,
		Admin:        false,
		UserType:     c.userType,
		MAC:          generateMAC(c.sharedSecret, nonceResp.Nonce, username, password, c.userType),
		InhibitLogin: true,
	}
	var acct Account
	if err := c.do(ctx, "register", http.MethodPost, path, req, &acct); err != nil {
		return nil, err
	}
	if acct.UserID == "" || acct.HomeServer == "" {
		return nil, newError(ErrorMalformedResponse, "account fields missing from response, the account may exist", nil)
	}
	return &acct, nil
}

// apiVersion returns the path segment of the last advertised version, e.g.
// "r0" for "r0.5.0".
func (c *Client) apiVersion(ctx context.Context) (string, error) {
	if v := c.version.Load(); v != nil {
		return *v, nil
	}

	var resp struct {
		Versions []string `json:"versions"`
	}
	if err := c.do(ctx, "versions", http.MethodGet, versionsPath, nil, &resp); err != nil {
		return "", err
	}
	if len(resp.Versions) == 0 {
		return "", newError(ErrorMalformedResponse, "versions missing from response", nil)
	}
	latest := resp.Versions[len(resp.Versions)-1]
	segment, _, _ := strings.Cut(latest, ".")
	if segment == "" || strings.Count(latest, ".") != 2 {
		return "", newError(ErrorMalformedResponse, fmt.Sprintf("malformed version %q", latest), nil)
	}
	if _, ok := c.supported[latest]; !ok {
		return "", newError(ErrorUnsupportedVersion, fmt.Sprintf("client API version %q is not supported", latest), nil)
	}

	c.version.Store(&segment)
	return segment, nil
}

func (c *Client) do(ctx context.Context, step, method, path string, body, out any) error {
	ctx, span := c.tracer.Start(ctx, "matrix."+step, trace.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("matrix.path", path),
	))
	defer span.End()

	if err := c.limiter.Wait(ctx); err != nil {
		return newError(ErrorRequest, "outbound rate limit wait", err)
	}
	start := time.Now()
	defer c.metrics.ObserveProviderCall(step, start)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return newError(ErrorRequest, "encode request", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return newError(ErrorRequest, "build request", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return newError(ErrorRequest, step+" request failed", err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return newError(ErrorRequest, fmt.Sprintf("%s returned status %d", step, resp.StatusCode), nil)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return newError(ErrorMalformedResponse, "decode "+step+" response", err)
	}
	return nil
}

// recordOutcome feeds the breaker. Only transport-level failures count; a
// homeserver that answers with bad content is still reachable.
func (c *Client) recordOutcome(ctx context.Context, err error) {
	if CategoryOf(err) == ErrorRequest {
		if _, change := c.breaker.RecordFailure(); change.Opened {
			c.logger.WarnContext(ctx, "matrix circuit opened", "breaker", c.breaker.Name())
		}
		return
	}
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.InfoContext(ctx, "matrix circuit closed", "breaker", c.breaker.Name())
	}
}

// generateMAC signs nonce, username, password, the admin flag and the
// optional user type, NUL-separated. The admin flag is always "notadmin".
func generateMAC(secret []byte, nonce, username, password, userType string) string {
	mac := hmac.New(sha1.New, secret)
	parts := []string{nonce, username, password, "notadmin"}
	if userType != "" {
		parts = append(parts, userType)
	}
	mac.Write([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(mac.Sum(nil))
}
