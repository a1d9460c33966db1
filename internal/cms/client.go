// Package cms reads marketing content from the headless CMS. Failures never
// reach the caller as missing data: Fetch always returns a usable fallback
// document alongside the error.
package cms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"medusa-storefront/internal/logger"
	"medusa-storefront/internal/metrics"
)

const (
	backendLabel = "cms"
	fetchOp      = "content.fetch"
)

var (
	emptyList = json.RawMessage(`{"data":[]}`)
	null      = json.RawMessage(`null`)
)

// ErrNoBaseURL is returned when the CMS location is not configured.
var ErrNoBaseURL = errors.New("cms base url is not configured")

type Kind string

const (
	KindRequest   Kind = "request"
	KindTransport Kind = "transport"
	KindStatus    Kind = "status"
	KindDecode    Kind = "decode"
)

// FetchError describes a content request that fell back to the empty document.
type FetchError struct {
	ContentType string
	Kind        Kind
	URL         string
	Status      int
	Err         error
}

func (e *FetchError) Error() string {
	if e.Kind == KindStatus {
		return fmt.Sprintf("cms %s: %s returned status %d", e.ContentType, e.URL, e.Status)
	}
	return fmt.Sprintf("cms %s: %s %s: %v", e.ContentType, e.Kind, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
	Logger     *logger.Logger
	Metrics    *metrics.Metrics
}

type Client struct {
	baseURL string
	http    *http.Client
	logg    *logger.Logger
	metrics *metrics.Metrics
}

func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logg := opts.Logger
	if logg == nil {
		logg = logger.Discard()
	}
	return &Client{
		baseURL: strings.TrimSpace(opts.BaseURL),
		http:    httpClient,
		logg:    logg,
		metrics: opts.Metrics,
	}
}

// Request selects a content collection.
type Request struct {
	ContentType string
	Params      map[string]any
	// Draft asks for unpublished content.
	Draft bool
	// Spread returns the first entry of a list, or the single object, instead
	// of the {data: ...} envelope.
	Spread bool
}

type envelope struct {
	Data json.RawMessage `json:"data"`
}

// Fetch returns the raw content document. On failure it returns {"data":[]}
// (or null when spreading) together with a *FetchError.
func (c *Client) Fetch(ctx context.Context, req Request) (json.RawMessage, error) {
	fallback := emptyList
	if req.Spread {
		fallback = null
	}

	params := make(map[string]any, len(req.Params)+1)
	for k, v := range req.Params {
		params[k] = v
	}
	if req.Draft {
		params["status"] = "draft"
	}

	endpoint, err := c.endpoint(req.ContentType)
	if err != nil {
		return fallback, c.fail(ctx, &FetchError{ContentType: req.ContentType, Kind: KindRequest, Err: err}, timeNone)
	}
	target := endpoint
	if q := EncodeQuery(params); q != "" {
		target += "?" + q
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fallback, c.fail(ctx, &FetchError{ContentType: req.ContentType, Kind: KindRequest, URL: endpoint, Err: err}, timeNone)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Cache-Control", "no-store")

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fallback, c.fail(ctx, &FetchError{ContentType: req.ContentType, Kind: KindTransport, URL: endpoint, Err: err}, start)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fallback, c.fail(ctx, &FetchError{ContentType: req.ContentType, Kind: KindStatus, URL: endpoint, Status: resp.StatusCode}, start)
	}

	raw, err := io.ReadAll(resp.Body)
	if err == nil && !json.Valid(raw) {
		err = errors.New("response is not valid JSON")
	}
	if err != nil {
		return fallback, c.fail(ctx, &FetchError{ContentType: req.ContentType, Kind: KindDecode, URL: endpoint, Status: resp.StatusCode, Err: err}, start)
	}
	c.metrics.ObserveBackend(backendLabel, fetchOp, metrics.OutcomeOK, time.Since(start))

	if !req.Spread {
		return raw, nil
	}
	spread, err := Spread(raw)
	if err != nil {
		return fallback, c.fail(ctx, &FetchError{ContentType: req.ContentType, Kind: KindDecode, URL: endpoint, Status: resp.StatusCode, Err: err}, timeNone)
	}
	return spread, nil
}

// Spread unwraps a {data: ...} document: the first element of a non-empty
// list, the object itself, or null for an empty list.
func Spread(doc json.RawMessage) (json.RawMessage, error) {
	var env envelope
	if err := json.Unmarshal(doc, &env); err != nil {
		return nil, err
	}
	data := []byte(strings.TrimSpace(string(env.Data)))
	if len(data) == 0 {
		return null, nil
	}
	if data[0] != '[' {
		return json.RawMessage(data), nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return null, nil
	}
	return items[0], nil
}

func (c *Client) endpoint(contentType string) (string, error) {
	if c.baseURL == "" {
		return "", ErrNoBaseURL
	}
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}
	rel, err := url.Parse("api/" + url.PathEscape(contentType))
	if err != nil {
		return "", err
	}
	return base.ResolveReference(rel).String(), nil
}

func (c *Client) fail(ctx context.Context, fe *FetchError, start time.Time) error {
	var elapsed time.Duration
	if !start.IsZero() {
		elapsed = time.Since(start)
	}
	outcome := metrics.OutcomeTransport
	switch fe.Kind {
	case KindStatus:
		outcome = metrics.OutcomeStatus
	case KindDecode:
		outcome = metrics.OutcomeDecode
	}
	c.metrics.ObserveBackend(backendLabel, fetchOp, outcome, elapsed)
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"content_type": fe.ContentType,
		"url":          fe.URL,
		"status":       fe.Status,
		"kind":         string(fe.Kind),
	})
	c.logg.Warn(logCtx, "cms content request failed: "+fe.Error())
	return fe
}

var timeNone time.Time
