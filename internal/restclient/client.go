// Package restclient is a small JSON-over-HTTP client for a node's REST API.
package restclient

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
)

// DefaultTimeout bounds every request when no timeout is given.
const DefaultTimeout = 10 * time.Second

// maxBody caps how much of a response is read.
const maxBody = 4 << 20

// ErrTransport marks every failure where no usable HTTP reply was received.
var ErrTransport = errors.New("rest transport failure")

// TransportError is a failure below the HTTP layer: connect, timeout,
// cancellation or a body that could not be read.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() []error { return []error{ErrTransport, e.Err} }

// HTTPError is a non-2xx reply. Body holds the raw response body.
type HTTPError struct {
	Status int
	Body   []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, strings.TrimSpace(string(e.Body)))
}

// Verdict reports whether the status is the server's answer about the
// request itself. 5xx replies and the throttling and timeout statuses 408,
// 425 and 429 say nothing about the request and are not verdicts.
func (e *HTTPError) Verdict() bool {
	switch e.Status {
	case http.StatusRequestTimeout, http.StatusTooEarly, http.StatusTooManyRequests:
		return false
	}
	return e.Status >= 400 && e.Status < 500
}

// Message extracts a human-readable reason from a JSON error body. It looks
// at "error", "detail" and "message" in that order and falls back to the
// raw body.
func (e *HTTPError) Message() string {
	var body map[string]any
	if err := json.Unmarshal(e.Body, &body); err == nil {
		for _, k := range []string{"error", "detail", "message"} {
			if s, ok := body[k].(string); ok && s != "" {
				return s
			}
		}
	}
	if s := strings.TrimSpace(string(e.Body)); s != "" {
		return s
	}
	return http.StatusText(e.Status)
}

// Client is a REST client bound to a base URL.
type Client struct {
	base string
	http *http.Client
}

// New creates a client with DefaultTimeout.
func New(base string) *Client {
	return NewWithTimeout(base, DefaultTimeout)
}

// NewWithTimeout creates a client with a custom request timeout.
func NewWithTimeout(base string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

// Base returns the base URL.
func (c *Client) Base() string { return c.base }

// Get issues GET base+path and decodes a 2xx JSON body into result.
func (c *Client) Get(ctx context.Context, path string, result any) error {
	return c.do(ctx, http.MethodGet, path, nil, result)
}

// Post issues POST base+path with a JSON body and decodes a 2xx JSON reply
// into result.
func (c *Client) Post(ctx context.Context, path string, body, result any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, data, result)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, result any) error {
	url := c.base + path
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Method: method, URL: url, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return &TransportError{Method: method, URL: url, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &HTTPError{Status: resp.StatusCode, Body: data}
	}

	if result != nil {
		if err := json.Unmarshal(data, result); err != nil {
			return &TransportError{Method: method, URL: url, Err: fmt.Errorf("decode response: %w", err)}
		}
	}
	return nil
}
