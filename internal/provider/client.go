package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// Client performs authenticated JSON calls against a single provider API.
// A Client is safe for concurrent use and holds no per-request state.
type Client struct {
	name       string
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	transport http.RoundTripper
	timeout   time.Duration
	headers   map[string]string
	bearer    string
}

// WithTransport sets the base transport for outbound calls (e.g., for tests or proxies).
func WithTransport(transport http.RoundTripper) Option {
	return func(o *clientOptions) {
		o.transport = transport
	}
}

// WithTimeout bounds every outbound call. Zero disables the bound; the
// caller's context still applies.
func WithTimeout(timeout time.Duration) Option {
	return func(o *clientOptions) {
		o.timeout = timeout
	}
}

// WithHeader sets a static header on every outbound call, typically an API key header.
func WithHeader(name, value string) Option {
	return func(o *clientOptions) {
		if o.headers == nil {
			o.headers = make(map[string]string)
		}
		o.headers[name] = value
	}
}

// WithBearerToken authenticates outbound calls with "Authorization: Bearer <token>".
func WithBearerToken(token string) Option {
	return func(o *clientOptions) {
		o.bearer = token
	}
}

// NewClient creates a Client for the provider named name, rooted at baseURL.
func NewClient(name, baseURL string, opts ...Option) *Client {
	var o clientOptions
	for _, opt := range opts {
		opt(&o)
	}

	transport := o.transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	if len(o.headers) > 0 {
		transport = &HeaderTransport{Base: transport, Headers: o.headers}
	}
	if o.bearer != "" {
		// Static API keys ride on oauth2.Transport so header handling matches token-based auth.
		transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: o.bearer}),
			Base:   transport,
		}
	}

	return &Client{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: o.timeout,
		httpClient: &http.Client{
			Transport: transport,
			// Client.Timeout stays 0: the per-call context deadline also covers streamed bodies
		},
	}
}

// Name returns the provider name used in errors and logs.
func (c *Client) Name() string {
	return c.name
}

// PostJSON sends payload as JSON to path and returns the body of a 2xx response.
func (c *Client) PostJSON(ctx context.Context, path string, payload any) ([]byte, error) {
	body, err := c.PostStream(ctx, path, payload, "application/json")
	if err != nil {
		return nil, err
	}
	defer func() { _ = body.Close() }()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, &TransportError{Provider: c.name, Err: fmt.Errorf("read response: %w", err)}
	}
	return data, nil
}

// PostStream sends payload as JSON to path and returns the body of a 2xx
// response for the caller to consume. Closing the body releases the call's
// timeout; the caller must always close it.
func (c *Client) PostStream(ctx context.Context, path string, payload any, accept string) (io.ReadCloser, error) {
	requestBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: marshal payload: %w", c.name, err)
	}

	ctx, cancel := c.callContext(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(requestBody))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%s: build request: %w", c.name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := c.httpClient.Do(req) //nolint:gosec // URL is built from trusted base URL config, not user input.
	if err != nil {
		cancel()
		return nil, &TransportError{Provider: c.name, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		_ = resp.Body.Close()
		cancel()
		return nil, &RejectionError{
			Provider:   c.name,
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}

	return &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}, nil
}

// callContext derives the context for one outbound call from the caller's context.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return context.WithCancel(ctx)
}

// cancelOnClose releases the call context once the response body is closed.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (r *cancelOnClose) Close() error {
	err := r.ReadCloser.Close()
	r.cancel()
	return err
}

// HeaderTransport sets static headers on every outbound request.
type HeaderTransport struct {
	Base    http.RoundTripper
	Headers map[string]string
}

// Compile-time check to ensure HeaderTransport implements http.RoundTripper
var _ http.RoundTripper = (*HeaderTransport)(nil)

// RoundTrip implements http.RoundTripper. The request is cloned before
// modification as required by the RoundTripper contract.
func (t *HeaderTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for name, value := range t.Headers {
		req.Header.Set(name, value)
	}

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}
