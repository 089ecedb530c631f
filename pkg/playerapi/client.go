// Package playerapi is the HTTP client for the remote player-data API:
//
//	GET /search?name=<query>  -> {"results": [Candidate, ...]}
//	GET /player?url=<locator> -> DetailRecord (flat JSON object)
//
// There is no authentication and no pagination.
package playerapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxBodySize bounds what a single response may occupy in memory.
const maxBodySize = 8 << 20

// Client talks to one API base endpoint.
type Client struct {
	base string
	http *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout bounds each request. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.http
		hc.Timeout = d
		c.http = &hc
	}
}

// NewClient returns a client for baseURL (e.g. "http://127.0.0.1:8000").
// Trailing slashes are dropped so paths never end up as "//search".
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the normalized base endpoint.
func (c *Client) BaseURL() string { return c.base }

// Search returns the candidate list for name. A null or empty "results"
// array yields an empty slice and no error.
func (c *Client) Search(ctx context.Context, name string) ([]Candidate, error) {
	body, err := c.get(ctx, c.base+"/search?name="+url.QueryEscape(name))
	if err != nil {
		return nil, err
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: search: %v", ErrMalformed, err)
	}
	raw, ok := envelope["results"]
	if !ok {
		return nil, fmt.Errorf("%w: search: missing results", ErrMalformed)
	}
	var results []Candidate
	if err := json.Unmarshal(raw, &results); err != nil {
		return nil, fmt.Errorf("%w: search results: %v", ErrMalformed, err)
	}
	return results, nil
}

// Player returns the detail record identified by locator.
func (c *Client) Player(ctx context.Context, locator string) (DetailRecord, error) {
	body, err := c.get(ctx, c.base+"/player?url="+url.QueryEscape(locator))
	if err != nil {
		return nil, err
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, fmt.Errorf("%w: player: %v", ErrMalformed, err)
	}
	if obj == nil {
		return nil, fmt.Errorf("%w: player: null record", ErrMalformed)
	}
	return DetailRecord(body), nil
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrNetwork, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %v", ErrNetwork, u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return nil, &StatusError{URL: u, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrNetwork, err)
	}
	if len(body) > maxBodySize {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", ErrMalformed, maxBodySize)
	}
	return bytes.TrimSpace(body), nil
}
