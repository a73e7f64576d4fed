package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/codeact/internal/logging"
	"github.com/GriffinCanCode/codeact/internal/resilience"
)

var (
	ErrUnsupportedScheme = errors.New("only http and https URLs are allowed")
	ErrBodyTooLarge      = errors.New("response body exceeds size limit")
	ErrInvalidMethod     = errors.New("unsupported HTTP method")
)

// errServerStatus marks 5xx responses as breaker failures without
// failing the call itself
var errServerStatus = errors.New("server error status")

var allowedMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodPatch:   true,
	http.MethodDelete:  true,
	http.MethodOptions: true,
}

// Config configures the client
type Config struct {
	Timeout      time.Duration
	MaxBytes     int64
	RPS          float64 // <= 0 = unlimited
	Retries      int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	UserAgent    string
}

// DefaultConfig returns the default client configuration
func DefaultConfig() Config {
	return Config{
		Timeout:      30 * time.Second,
		MaxBytes:     5 << 20,
		Retries:      2,
		RetryWaitMin: 200 * time.Millisecond,
		RetryWaitMax: 2 * time.Second,
		UserAgent:    "codeact-fetch/1.0",
	}
}

// Request is one outbound call
type Request struct {
	URL     string
	Method  string
	Headers map[string]string
	Body    any    // string sent verbatim, anything else as JSON
	Format  string // auto, json, yaml, toml, html, text
}

// Response is the decoded result of a call
type Response struct {
	Status  int
	Headers map[string]string
	Body    string
	Data    any
	Title   string
	Text    string
	Format  string
}

// ToMap converts the response to the shape handed to the guest
func (r *Response) ToMap() map[string]any {
	m := map[string]any{
		"status":  r.Status,
		"headers": r.Headers,
		"body":    r.Body,
	}
	if r.Data != nil {
		m["data"] = r.Data
	}
	if r.Format == FormatHTML {
		m["title"] = r.Title
		m["text"] = r.Text
	}
	return m
}

// Client wraps resty with rate limiting and per-host circuit breakers
type Client struct {
	resty    *resty.Client
	limiter  *rate.Limiter
	breakers *resilience.Group
	config   Config
	logger   *logging.Logger
}

// New creates a client
func New(cfg Config, logger *logging.Logger) *Client {
	defaults := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = defaults.MaxBytes
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.RetryWaitMin <= 0 {
		cfg.RetryWaitMin = defaults.RetryWaitMin
	}
	if cfg.RetryWaitMax < cfg.RetryWaitMin {
		cfg.RetryWaitMax = defaults.RetryWaitMax
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaults.UserAgent
	}
	logger = logger.OrNop()

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.Retries
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.Logger = nil
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	restyClient := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent).
		SetTransport(&retryablehttp.RoundTripper{Client: retryClient})

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RPS > 0 {
		burst := int(cfg.RPS)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RPS), burst)
	}

	breakers := resilience.NewGroup(resilience.Settings{
		MaxRequests: 2,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5 ||
				(counts.Requests >= 20 && float64(counts.TotalFailures)/float64(counts.Requests) > 0.7)
		},
		OnStateChange: func(host string, from, to resilience.State) {
			logger.Warn("Fetch circuit breaker changed state",
				zap.String("host", host),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &Client{
		resty:    restyClient,
		limiter:  limiter,
		breakers: breakers,
		config:   cfg,
		logger:   logger,
	}
}

// Breakers exposes the per-host breaker states
func (c *Client) Breakers() map[string]resilience.State {
	return c.breakers.States()
}

// Do performs req. Non-2xx statuses are returned as responses, not errors.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	u, err := url.Parse(strings.TrimSpace(req.URL))
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, req.URL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid url %q: missing host", req.URL)
	}

	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}
	if !allowedMethods[method] {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMethod, method)
	}

	format, err := parseFormat(req.Format)
	if err != nil {
		return nil, err
	}

	r, err := c.request(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	var (
		status  int
		headers http.Header
		body    []byte
		readErr error
	)
	err = c.breakers.Get(u.Host).Do(func() error {
		resp, err := r.Execute(method, u.String())
		if err != nil {
			return err
		}
		raw := resp.RawBody()
		defer raw.Close()

		status = resp.StatusCode()
		headers = resp.Header()
		// an oversized body is the caller's problem, not the host's
		body, readErr = readLimited(raw, c.config.MaxBytes)
		if status >= http.StatusInternalServerError {
			return errServerStatus
		}
		return nil
	})
	if errors.Is(err, errServerStatus) {
		err = nil
	}
	switch {
	case errors.Is(err, resilience.ErrCircuitOpen), errors.Is(err, resilience.ErrTooManyRequests):
		return nil, fmt.Errorf("%s is unavailable: %w", u.Host, err)
	case err != nil:
		return nil, err
	case readErr != nil:
		return nil, readErr
	}

	c.logger.Debug("Fetched",
		zap.String("method", method),
		zap.String("host", u.Host),
		zap.Int("status", status),
		zap.Int("bytes", len(body)))

	return decode(status, headers, body, format)
}

func (c *Client) request(ctx context.Context, req Request) (*resty.Request, error) {
	r := c.resty.R().
		SetContext(ctx).
		SetDoNotParseResponse(true)
	for k, v := range req.Headers {
		r.SetHeader(k, v)
	}

	switch body := req.Body.(type) {
	case nil:
	case string:
		r.SetBody(body)
	case []byte:
		r.SetBody(body)
	default:
		data, err := sonic.ConfigStd.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		if r.Header.Get("Content-Type") == "" {
			r.SetHeader("Content-Type", "application/json")
		}
		r.SetBody(data)
	}
	return r, nil
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w (%d bytes)", ErrBodyTooLarge, limit)
	}
	return data, nil
}
