// Package api is the single choke point for every backend call. A Client
// resolves URLs and credentials and delegates the exchange to a Backend:
// RemoteBackend speaks HTTP/JSON, FixtureBackend serves the bundled dataset.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/medigate/medigate-cli/internal/config"
	"github.com/medigate/medigate-cli/internal/fixtures"
	"github.com/medigate/medigate-cli/internal/metrics"
	"github.com/medigate/medigate-cli/internal/securestore"
	"go.uber.org/zap"
)

// Request is what a Backend receives for one call.
type Request struct {
	Method   string
	Endpoint Endpoint
	// URL is the fully built target: base + path in remote mode, path only
	// in local mode.
	URL    string
	Params map[string]string
	Body   any
	Token  string
}

// Backend performs one exchange. Implementations report every expected
// failure as a failed Result.
type Backend interface {
	Do(ctx context.Context, req Request) Result[json.RawMessage]
	Mode() string
}

// Client is shared by all domain services.
type Client struct {
	baseURL     string
	backend     Backend
	creds       *securestore.Store
	metrics     *metrics.Metrics
	logger      *zap.Logger
	logRequests bool
}

// New selects the backend from cfg: the fixture dataset when no remote base
// URL is configured, HTTP otherwise.
func New(cfg *config.Config, dataset *fixtures.Dataset, creds *securestore.Store, m *metrics.Metrics, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.New()
	}

	var backend Backend
	if cfg.IsLocal() {
		backend = NewFixtureBackend(dataset, FixtureOptions{
			Latency: cfg.FixtureLatency(),
			Secret:  []byte(cfg.DevServer.JWTSecret),
		}, logger)
	} else {
		backend = NewRemoteBackend(RemoteOptions{
			Timeout:         cfg.Timeout(),
			RateLimit:       cfg.API.RateLimitRPS,
			RateBurst:       cfg.API.RateLimitBurst,
			BreakerFailures: cfg.API.BreakerFailures,
			BreakerCooldown: time.Duration(cfg.API.BreakerCooldown) * time.Second,
		}, m, logger)
	}

	c := NewWithBackend(cfg.API.BaseURL, backend, creds, m, logger)
	c.logRequests = cfg.API.EnableLogging
	return c
}

// NewWithBackend builds a client around an explicit backend.
func NewWithBackend(baseURL string, backend Backend, creds *securestore.Store, m *metrics.Metrics, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.New()
	}
	if creds == nil {
		creds = securestore.New(nil, logger)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		backend: backend,
		creds:   creds,
		metrics: m,
		logger:  logger,
	}
}

// IsLocal reports whether the client serves from the fixture dataset.
func (c *Client) IsLocal() bool {
	return c.baseURL == "" || c.baseURL == config.LocalBaseURL
}

func (c *Client) Mode() string {
	return c.backend.Mode()
}

// Credentials exposes the credential store the client reads tokens from.
func (c *Client) Credentials() *securestore.Store {
	return c.creds
}

func (c *Client) Metrics() *metrics.Metrics {
	return c.metrics
}

// SetLogging toggles per-request debug logging.
func (c *Client) SetLogging(enabled bool) {
	c.logRequests = enabled
}

// BuildURL substitutes every ":name" segment of template from params. In
// local mode the path is returned without a base URL.
func (c *Client) BuildURL(template string, params map[string]string) string {
	path, _ := ExpandPath(template, params)
	if c.IsLocal() {
		return path
	}
	return c.baseURL + path
}

// ExpandPath substitutes ":name" segments and returns the names that had no
// value. Unresolved segments are left verbatim.
func ExpandPath(template string, params map[string]string) (string, []string) {
	if !strings.Contains(template, ":") {
		return template, nil
	}
	var missing []string
	segments := strings.Split(template, "/")
	for i, seg := range segments {
		if !strings.HasPrefix(seg, ":") || len(seg) == 1 {
			continue
		}
		name := seg[1:]
		if v, ok := params[name]; ok {
			segments[i] = v
		} else {
			missing = append(missing, name)
		}
	}
	return strings.Join(segments, "/"), missing
}

// SetAuthToken persists token for subsequent requests.
func (c *Client) SetAuthToken(ctx context.Context, token string) error {
	return c.creds.SaveAuthToken(ctx, token)
}

// ClearAuthToken forgets the stored token.
func (c *Client) ClearAuthToken(ctx context.Context) error {
	return c.creds.Remove(ctx, securestore.KeyAuthToken)
}

// AuthToken reads the stored token through the credential store.
func (c *Client) AuthToken(ctx context.Context) (string, bool) {
	return c.creds.AuthToken(ctx)
}

// Request performs one call. It never panics or returns a Go error for
// transport or HTTP failures; those arrive as a failed Result.
func (c *Client) Request(ctx context.Context, method string, endpoint Endpoint, body any, params map[string]string) (res Result[json.RawMessage]) {
	if !endpoint.Valid() {
		return Fail[json.RawMessage](fmt.Sprintf("unknown endpoint %d", int(endpoint)))
	}

	path, missing := ExpandPath(endpoint.Path(), params)
	if len(missing) > 0 {
		c.logger.Warn("Unresolved URL placeholders",
			zap.Stringer("endpoint", endpoint),
			zap.Strings("missing", missing),
		)
	}
	url := path
	if !c.IsLocal() {
		url = c.baseURL + path
	}

	token, _ := c.creds.AuthToken(ctx)
	req := Request{
		Method:   method,
		Endpoint: endpoint,
		URL:      url,
		Params:   params,
		Body:     body,
		Token:    token,
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Backend panicked", zap.Stringer("endpoint", endpoint), zap.Any("panic", r))
			res = Fail[json.RawMessage](fmt.Sprintf("internal error: %v", r))
		}
		elapsed := time.Since(start)
		c.metrics.RecordRequest(endpoint.String(), c.backend.Mode(), res.Success, elapsed)
		if c.logRequests {
			c.logger.Debug("API request",
				zap.String("method", method),
				zap.String("url", url),
				zap.Stringer("endpoint", endpoint),
				zap.Bool("success", res.Success),
				zap.String("error", res.Error),
				zap.Duration("elapsed", elapsed),
			)
		}
	}()

	return c.backend.Do(ctx, req)
}

// Get performs a GET and decodes the data into T.
func Get[T any](ctx context.Context, c *Client, endpoint Endpoint, params map[string]string) Result[T] {
	return decode[T](c.Request(ctx, http.MethodGet, endpoint, nil, params))
}

func Post[T any](ctx context.Context, c *Client, endpoint Endpoint, body any, params map[string]string) Result[T] {
	return decode[T](c.Request(ctx, http.MethodPost, endpoint, body, params))
}

func Put[T any](ctx context.Context, c *Client, endpoint Endpoint, body any, params map[string]string) Result[T] {
	return decode[T](c.Request(ctx, http.MethodPut, endpoint, body, params))
}

func Patch[T any](ctx context.Context, c *Client, endpoint Endpoint, body any, params map[string]string) Result[T] {
	return decode[T](c.Request(ctx, http.MethodPatch, endpoint, body, params))
}

func Delete[T any](ctx context.Context, c *Client, endpoint Endpoint, params map[string]string) Result[T] {
	return decode[T](c.Request(ctx, http.MethodDelete, endpoint, nil, params))
}

// ID formats an entity id as a URL parameter map.
func ID(id int) map[string]string {
	return map[string]string{"id": fmt.Sprint(id)}
}
