package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	xhttp "RatePull/pkg/http"
	"RatePull/pkg/logger"
)

// Transport is the capability set shared by every provider scraper:
// an HTTP client with pacing (fixed delay and/or request-per-second
// cap), a circuit breaker over consecutive provider failures, and
// optional User-Agent rotation and proxying. One Transport per
// provider, since breaker state and headers are provider-scoped.
type Transport struct {
	bank     string
	client   *xhttp.Client
	limiter  *rate.Limiter
	delay    time.Duration
	breaker  *gobreaker.CircuitBreaker
	rotateUA bool
	headers  map[string]string

	proxyURL *url.URL
	timeout  time.Duration

	log *logger.Logger
	rec Metrics
}

// TransportOption configures Transport.
type TransportOption func(*Transport)

// NewTransport builds the transport for one provider.
func NewTransport(bank string, log *logger.Logger, rec Metrics, opts ...TransportOption) *Transport {
	t := &Transport{
		bank:    bank,
		headers: map[string]string{"Content-Type": "application/json"},
		timeout: 30 * time.Second,
		log:     log,
		rec:     rec,
	}

	for _, opt := range opts {
		opt(t)
	}

	if t.client == nil {
		clientOpts := []xhttp.ClientOption{xhttp.WithTimeout(t.timeout)}
		if t.proxyURL != nil {
			clientOpts = append(clientOpts, xhttp.WithProxy(t.proxyURL))
		}
		t.client = xhttp.NewClient(clientOpts...)
	}

	t.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    bank,
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return t
}

// ErrBlocked signals that the provider has blocked the scraper and the
// run should be aborted rather than retried.
var ErrBlocked = errors.New("provider blocked the scraper")

// GetJSON issues a paced GET and decodes the JSON response into dest.
func (t *Transport) GetJSON(ctx context.Context, rawURL string, headers map[string]string, dest any) error {
	return t.do(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodGet,
		URL:     rawURL,
		Headers: t.mergeHeaders(headers),
	}, dest)
}

// PostJSON issues a paced POST with a JSON body and decodes the
// response into dest.
func (t *Transport) PostJSON(ctx context.Context, rawURL string, body any, headers map[string]string, dest any) error {
	return t.do(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodPost,
		URL:     rawURL,
		Headers: t.mergeHeaders(headers),
		Body:    body,
	}, dest)
}

func (t *Transport) do(ctx context.Context, opts *xhttp.RequestOptions, dest any) error {
	if err := t.pace(ctx); err != nil {
		return err
	}

	start := time.Now()
	_, err := t.breaker.Execute(func() (any, error) {
		return nil, t.client.SendAndParse(ctx, opts, dest)
	})
	t.rec.RecordLatency(t.bank, time.Since(start).Seconds())
	t.rec.RecordRequest(t.bank, classify(err))

	if err != nil {
		t.log.Debug("request failed", logger.String("url", opts.URL), logger.Error(err))
		return fmt.Errorf("%s: %w", t.bank, err)
	}
	return nil
}

func (t *Transport) pace(ctx context.Context) error {
	if t.delay > 0 {
		select {
		case <-time.After(t.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (t *Transport) mergeHeaders(extra map[string]string) map[string]string {
	merged := make(map[string]string, len(t.headers)+len(extra)+1)
	for k, v := range t.headers {
		merged[k] = v
	}
	if t.rotateUA {
		merged["User-Agent"] = randomUserAgent()
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}

// SetHeader sets a base header sent with every request, e.g. the ICA
// bearer token.
func (t *Transport) SetHeader(key, value string) {
	t.headers[key] = value
}

func classify(err error) string {
	if err == nil {
		return "ok"
	}
	var statusErr *xhttp.StatusError
	if errors.As(err, &statusErr) {
		return fmt.Sprintf("http_%d", statusErr.StatusCode)
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "breaker_open"
	}
	return "error"
}

// --- options ---

// WithDelay adds a fixed pause before every request.
func WithDelay(d time.Duration) TransportOption {
	return func(t *Transport) { t.delay = d }
}

// WithRateLimit caps outbound requests per second.
func WithRateLimit(rps float64) TransportOption {
	return func(t *Transport) {
		if rps > 0 {
			t.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithRotateUserAgent rotates the User-Agent header per request.
func WithRotateUserAgent(enabled bool) TransportOption {
	return func(t *Transport) { t.rotateUA = enabled }
}

// WithProxy routes all requests through the given proxy URL.
func WithProxy(proxy *url.URL) TransportOption {
	return func(t *Transport) { t.proxyURL = proxy }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) TransportOption {
	return func(t *Transport) { t.timeout = d }
}

// WithClient injects a prebuilt HTTP client (tests).
func WithClient(client *xhttp.Client) TransportOption {
	return func(t *Transport) { t.client = client }
}
