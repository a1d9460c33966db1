package cms

import "strings"

// ResolveMediaURL makes a CMS media path absolute. Absolute and
// protocol-relative URLs are returned unchanged, as is everything when no
// base URL is configured.
func (c *Client) ResolveMediaURL(raw string) string {
	if raw == "" {
		return raw
	}
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") || strings.HasPrefix(raw, "//") {
		return raw
	}
	if c.baseURL == "" {
		return raw
	}
	if !strings.HasPrefix(raw, "/") {
		raw = "/" + raw
	}
	return strings.TrimSuffix(c.baseURL, "/") + raw
}
