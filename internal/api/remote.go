package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/medigate/medigate-cli/internal/errors"
	"github.com/medigate/medigate-cli/internal/metrics"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const defaultTimeout = 10 * time.Second

// RemoteOptions configures the HTTP backend
type RemoteOptions struct {
	Timeout time.Duration
	// RateLimit is requests per second; 0 disables client-side limiting.
	RateLimit float64
	RateBurst int
	// BreakerFailures is the number of consecutive transport failures that
	// open the circuit; 0 disables the breaker.
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

// RemoteBackend speaks the HTTP/JSON contract of the medigate backend.
type RemoteBackend struct {
	http    *resty.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[*resty.Response]
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewRemoteBackend(opts RemoteOptions, m *metrics.Metrics, logger *zap.Logger) *RemoteBackend {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.New()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}

	b := &RemoteBackend{
		http: resty.New().
			SetTimeout(opts.Timeout).
			SetHeader("Content-Type", "application/json").
			SetHeader("Accept", "application/json"),
		metrics: m,
		logger:  logger,
	}

	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst <= 0 {
			burst = 1
		}
		b.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	if opts.BreakerFailures > 0 {
		cooldown := opts.BreakerCooldown
		if cooldown <= 0 {
			cooldown = 30 * time.Second
		}
		threshold := opts.BreakerFailures
		b.breaker = gobreaker.NewCircuitBreaker[*resty.Response](gobreaker.Settings{
			Name:        "medigate-api",
			MaxRequests: 1,
			Timeout:     cooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("Circuit breaker state changed",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
				m.SetCircuitOpen(to == gobreaker.StateOpen)
			},
		})
	}

	return b
}

func (b *RemoteBackend) Mode() string {
	return "remote"
}

// Do issues the HTTP call. Non-2xx responses are not transport failures and
// do not count against the circuit breaker.
func (b *RemoteBackend) Do(ctx context.Context, req Request) Result[json.RawMessage] {
	if b.limiter != nil {
		if err := b.limiter.Wait(ctx); err != nil {
			b.metrics.RecordRequestBlocked("rate_limited")
			return Fail[json.RawMessage]("Network error: " + errors.ErrRateLimited.Message)
		}
	}

	call := func() (*resty.Response, error) {
		r := b.http.R().SetContext(ctx)
		if req.Token != "" {
			r.SetAuthToken(req.Token)
		}
		if req.Body != nil && hasBody(req.Method) {
			r.SetBody(req.Body)
		}
		return r.Execute(req.Method, req.URL)
	}

	var (
		resp *resty.Response
		err  error
	)
	if b.breaker != nil {
		resp, err = b.breaker.Execute(call)
	} else {
		resp, err = call()
	}

	if err != nil {
		if stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests) {
			b.metrics.RecordRequestBlocked("circuit_open")
			return Fail[json.RawMessage]("Network error: " + errors.ErrCircuitOpen.Message)
		}
		b.logger.Warn("API transport failure",
			zap.String("method", req.Method),
			zap.String("url", req.URL),
			zap.Error(err),
		)
		return Fail[json.RawMessage]("Network error: " + err.Error())
	}

	body := resp.Body()
	if !resp.IsSuccess() {
		var payload struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(body, &payload)
		b.logger.Debug("API request rejected",
			zap.String("url", req.URL),
			zap.Int("status", resp.StatusCode()),
			zap.String("message", payload.Message),
		)
		return Fail[json.RawMessage](payload.Message)
	}

	if len(body) == 0 {
		return Ok[json.RawMessage](nil)
	}
	if !json.Valid(body) {
		return Fail[json.RawMessage](errors.ErrInvalidResponse.Message)
	}
	return Ok(json.RawMessage(body))
}

func hasBody(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}
