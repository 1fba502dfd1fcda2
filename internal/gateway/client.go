package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Doer executes HTTP requests. *http.Client satisfies it; tests substitute
// a mock.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a thin HTTP client for the mail.tm REST API. It handles
// Bearer token authentication, JSON (de)serialization and mapping of
// failures onto NetworkError, RejectedError and MalformedError. It does
// not retry.
type Client struct {
	baseURL string
	doer    Doer
	logger  zerolog.Logger
}

var _ Gateway = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithDoer replaces the underlying HTTP client.
func WithDoer(d Doer) Option {
	return func(c *Client) {
		c.doer = d
	}
}

// WithTimeout sets the per-request timeout. It applies only when the doer
// is an *http.Client; a custom Doer set with WithDoer is kept as is.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc, ok := c.doer.(*http.Client)
		if !ok {
			return
		}
		timed := *hc
		timed.Timeout = d
		c.doer = &timed
	}
}

// Timeout returns the per-request timeout of the underlying *http.Client,
// or zero when a custom Doer is in use.
func (c *Client) Timeout() time.Duration {
	if hc, ok := c.doer.(*http.Client); ok {
		return hc.Timeout
	}
	return 0
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a client for the service rooted at baseURL
// (e.g. https://api.mail.tm).
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		doer: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: log.With().Str("component", "gateway").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the root URL the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// request describes a single API call.
type request struct {
	method      string
	path        string
	token       string
	body        interface{}
	contentType string
}

// doJSON performs the request and unmarshals a JSON response into result.
// A nil result discards the body.
func (c *Client) doJSON(ctx context.Context, r request, result interface{}) error {
	data, err := c.do(ctx, r)
	if err != nil {
		return err
	}
	if result == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return &MalformedError{Method: r.method, Path: r.path, Err: err}
	}
	return nil
}

// do is the core HTTP method that builds the request, handles auth and
// maps the response status. It returns the raw body of a 2xx response.
func (c *Client) do(ctx context.Context, r request) ([]byte, error) {
	url := c.baseURL + r.path

	var bodyReader io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	if r.body != nil {
		ct := r.contentType
		if ct == "" {
			ct = "application/json"
		}
		req.Header.Set("Content-Type", ct)
	}

	start := time.Now()
	resp, err := c.doer.Do(req)
	if err != nil {
		c.logger.Debug().Str("method", r.method).Str("path", r.path).Err(err).
			Msg("Request failed")
		return nil, &NetworkError{Method: r.method, Path: r.path, Err: err}
	}

	respBody, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, &NetworkError{Method: r.method, Path: r.path, Err: readErr}
	}

	c.logger.Debug().Str("method", r.method).Str("path", r.path).
		Int("status", resp.StatusCode).Dur("elapsed", time.Since(start)).
		Msg("Request complete")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rej := &RejectedError{
			Method: r.method,
			Path:   r.path,
			Status: resp.StatusCode,
		}
		var eb errorBody
		if json.Unmarshal(respBody, &eb) == nil {
			rej.Description = eb.description()
		}
		return nil, rej
	}

	// No content to parse (e.g. 204).
	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}

	return respBody, nil
}
