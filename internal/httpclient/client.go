// Package httpclient wraps net/http with the outbound-request conventions
// the marketplace expects: browser-like headers rotated per request, bounded
// timeouts and convenient JSON access.
package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"
)

// Identity is one set of client-identity signals sent with a request.
type Identity struct {
	UserAgent      string
	AcceptLanguage string
	Extra          map[string]string
}

// DefaultIdentities returns the rotation pool used when none is configured.
func DefaultIdentities() []Identity {
	extra := map[string]string{
		"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
		"Cache-Control":             "no-cache",
		"Upgrade-Insecure-Requests": "1",
	}

	return []Identity{
		{
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			AcceptLanguage: "pt-BR,pt;q=0.9,en-US;q=0.8,en;q=0.7",
			Extra:          extra,
		},
		{
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:120.0) Gecko/20100101 Firefox/120.0",
			AcceptLanguage: "pt-BR,pt;q=0.9,en;q=0.8",
			Extra:          extra,
		},
		{
			UserAgent:      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			AcceptLanguage: "pt-BR,pt;q=0.9,en-US;q=0.8,en;q=0.7",
			Extra:          extra,
		},
	}
}

// Response carries the status and fully read body of one request.
type Response struct {
	StatusCode int
	Body       []byte
}

func (r *Response) JSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode JSON body: %w", err)
	}
	return nil
}

// Client issues GET requests with one identity from the pool per attempt.
// The pool is read-only after construction; selection is a single atomic
// counter, so a Client is safe for concurrent use.
type Client struct {
	hc         *http.Client
	identities []Identity
	next       atomic.Uint64
	maxBody    int64
}

type Options struct {
	Timeout    time.Duration
	Identities []Identity
	MaxBody    int64
}

func New(opts *Options) *Client {
	if opts == nil {
		opts = &Options{}
	}
	if opts.Timeout == 0 {
		opts.Timeout = 15 * time.Second
	}
	if len(opts.Identities) == 0 {
		opts.Identities = DefaultIdentities()
	}
	if opts.MaxBody == 0 {
		opts.MaxBody = 10 << 20
	}

	return &Client{
		hc:         &http.Client{Timeout: opts.Timeout},
		identities: opts.Identities,
		maxBody:    opts.MaxBody,
	}
}

// Get issues a GET to rawURL with optional query params and extra headers.
// Extra headers are applied after the rotated identity, so callers can
// override any identity header for a single request.
func (c *Client) Get(ctx context.Context, rawURL string, params url.Values, headers map[string]string) (*Response, error) {
	if len(params) > 0 {
		parsed, err := url.Parse(rawURL)
		if err != nil {
			return nil, fmt.Errorf("bad request URL: %w", err)
		}
		query := parsed.Query()
		for key, values := range params {
			for _, value := range values {
				query.Add(key, value)
			}
		}
		parsed.RawQuery = query.Encode()
		rawURL = parsed.String()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	c.applyIdentity(req)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}

func (c *Client) applyIdentity(req *http.Request) {
	id := c.identities[c.next.Add(1)%uint64(len(c.identities))]

	req.Header.Set("User-Agent", id.UserAgent)
	if id.AcceptLanguage != "" {
		req.Header.Set("Accept-Language", id.AcceptLanguage)
	}
	for key, value := range id.Extra {
		req.Header.Set(key, value)
	}
}
