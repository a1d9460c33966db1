// Package medusa talks to a Medusa-compatible commerce backend. Every call
// issues exactly one HTTP request; failures come back as *FetchError and are
// logged, never panicked. The client keeps no cache.
package medusa

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"medusa-storefront/internal/logger"
	"medusa-storefront/internal/metrics"
	"medusa-storefront/internal/money"
)

const backendLabel = "medusa"

// Kind classifies a failed fetch.
type Kind string

const (
	KindRequest   Kind = "request"
	KindTransport Kind = "transport"
	KindStatus    Kind = "status"
	KindDecode    Kind = "decode"
)

// FetchError describes why a backend call produced no data.
type FetchError struct {
	Op     string
	Kind   Kind
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case KindStatus:
		return fmt.Sprintf("medusa %s: %s returned status %d", e.Op, e.URL, e.Status)
	default:
		if e.Err != nil {
			return fmt.Sprintf("medusa %s: %s %s: %v", e.Op, e.Kind, e.URL, e.Err)
		}
		return fmt.Sprintf("medusa %s: %s %s", e.Op, e.Kind, e.URL)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsStatus reports whether err is a FetchError for the given HTTP status.
func IsStatus(err error, status int) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Kind == KindStatus && fe.Status == status
}

// Options configures a Client.
type Options struct {
	BaseURL           string
	HTTPClient        *http.Client
	Timeout           time.Duration
	Money             money.Normalizer
	PreferredCurrency string
	Logger            *logger.Logger
	Metrics           *metrics.Metrics
}

// Client is safe for concurrent use.
type Client struct {
	baseURL           string
	http              *http.Client
	relay             *http.Client
	money             money.Normalizer
	preferredCurrency string
	logg              *logger.Logger
	metrics           *metrics.Metrics
}

func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	// the relay client hands redirects back to the caller untouched
	relay := *httpClient
	relay.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	logg := opts.Logger
	if logg == nil {
		logg = logger.Discard()
	}
	preferred := strings.ToLower(strings.TrimSpace(opts.PreferredCurrency))
	if preferred == "" {
		preferred = "usd"
	}
	return &Client{
		baseURL:           strings.TrimRight(opts.BaseURL, "/"),
		http:              httpClient,
		relay:             &relay,
		money:             opts.Money,
		preferredCurrency: preferred,
		logg:              logg,
		metrics:           opts.Metrics,
	}
}

// BaseURL returns the backend root without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) buildURL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

type cookieCtxKey struct{}

// WithCookieHeader attaches the shopper's Cookie header to ctx so store calls
// are made with the shopper's credentials.
func WithCookieHeader(ctx context.Context, header string) context.Context {
	if header == "" {
		return ctx
	}
	return context.WithValue(ctx, cookieCtxKey{}, header)
}

func cookieHeaderFrom(ctx context.Context) string {
	v, _ := ctx.Value(cookieCtxKey{}).(string)
	return v
}

// storeFetch performs one JSON request against the store API and decodes the
// response into out when out is non-nil.
func (c *Client) storeFetch(ctx context.Context, op, method, path string, payload any, out any) error {
	url := c.buildURL(path)

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return c.fail(ctx, &FetchError{Op: op, Kind: KindRequest, URL: url, Err: err}, timeNone)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return c.fail(ctx, &FetchError{Op: op, Kind: KindRequest, URL: url, Err: err}, timeNone)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie := cookieHeaderFrom(ctx); cookie != "" {
		req.Header.Set("Cookie", cookie)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return c.fail(ctx, &FetchError{Op: op, Kind: KindTransport, URL: url, Err: err}, start)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return c.fail(ctx, &FetchError{Op: op, Kind: KindStatus, URL: url, Status: resp.StatusCode}, start)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return c.fail(ctx, &FetchError{Op: op, Kind: KindDecode, URL: url, Status: resp.StatusCode, Err: err}, start)
		}
	}
	c.metrics.ObserveBackend(backendLabel, op, metrics.OutcomeOK, time.Since(start))
	return nil
}

func (c *Client) fail(ctx context.Context, fe *FetchError, start time.Time) error {
	var elapsed time.Duration
	if !start.IsZero() {
		elapsed = time.Since(start)
	}
	c.metrics.ObserveBackend(backendLabel, fe.Op, outcomeFor(fe.Kind), elapsed)
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"op":     fe.Op,
		"url":    fe.URL,
		"status": fe.Status,
		"kind":   string(fe.Kind),
	})
	c.logg.Error(logCtx, "medusa store request failed", fe.Err)
	return fe
}

func outcomeFor(kind Kind) string {
	switch kind {
	case KindStatus:
		return metrics.OutcomeStatus
	case KindDecode:
		return metrics.OutcomeDecode
	default:
		return metrics.OutcomeTransport
	}
}

// timeNone marks failures that happened before any request was sent.
var timeNone time.Time
