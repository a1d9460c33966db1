package medusa

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"
)

// Relay is a backend response captured for verbatim relay to the browser.
type Relay struct {
	Status     int
	Body       []byte
	SetCookies []string
}

// ForwardRequest describes one call made on behalf of the browser.
type ForwardRequest struct {
	Method string
	Path   string
	// Body is sent as JSON when non-nil.
	Body []byte
	// Cookie is the browser's Cookie header, forwarded as-is.
	Cookie string
}

// Forward sends req to the backend without following redirects and captures
// the status, body and every Set-Cookie header. Any status is a successful
// relay; only request, transport and read failures return an error.
func (c *Client) Forward(ctx context.Context, req ForwardRequest) (*Relay, error) {
	op := "forward " + req.Path
	url := c.buildURL(req.Path)

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, url, body)
	if err != nil {
		return nil, c.fail(ctx, &FetchError{Op: op, Kind: KindRequest, URL: url, Err: err}, timeNone)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.Cookie != "" {
		httpReq.Header.Set("Cookie", req.Cookie)
	}

	start := time.Now()
	resp, err := c.relay.Do(httpReq)
	if err != nil {
		return nil, c.fail(ctx, &FetchError{Op: op, Kind: KindTransport, URL: url, Err: err}, start)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.fail(ctx, &FetchError{Op: op, Kind: KindDecode, URL: url, Status: resp.StatusCode, Err: err}, start)
	}
	c.metrics.ObserveBackend(backendLabel, op, "relayed", time.Since(start))

	return &Relay{
		Status:     resp.StatusCode,
		Body:       raw,
		SetCookies: resp.Header.Values("Set-Cookie"),
	}, nil
}

// OK reports a 2xx status.
func (r *Relay) OK() bool {
	return r.Status >= 200 && r.Status < 300
}
