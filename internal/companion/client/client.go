package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	apperrors "github.com/tessro/ytmdeck/internal/errors"
)

const (
	// DefaultTimeout bounds ordinary requests.
	DefaultTimeout = 5 * time.Second

	// AuthTimeout bounds the token request, which blocks until the user answers
	// the approval dialog in the desktop app.
	AuthTimeout = 60 * time.Second
)

// TokenSource supplies the current API token. An empty string means no token.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() string

// Token returns f().
func (f TokenFunc) Token() string { return f() }

// Client talks to the companion server REST API. It never retries; callers own retry policy.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     TokenSource
	timeout    time.Duration
	log        logrus.FieldLogger

	mu       sync.Mutex
	lastRate RateLimit
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Client) { c.log = log }
}

// New creates a client for the API rooted at baseURL, e.g. http://127.0.0.1:9863/api/v1.
// tokens may be nil for a client that only performs unauthenticated calls.
func New(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{},
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
		timeout:    DefaultTimeout,
		log:        logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// LastRateLimit returns the most recent rate-limit headers seen.
func (c *Client) LastRateLimit() RateLimit {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastRate
}

func (c *Client) token() string {
	if c.tokens == nil {
		return ""
	}
	return c.tokens.Token()
}

type requestOptions struct {
	authenticated bool
	timeout       time.Duration
}

func (c *Client) request(ctx context.Context, method, path string, body, result any, opts requestOptions) error {
	var token string
	if opts.authenticated {
		token = c.token()
		if token == "" {
			return apperrors.ErrAuthRequired
		}
	}

	var bodyReader io.Reader
	var jsonBody []byte
	if body != nil {
		var err error
		jsonBody, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	timeout := opts.timeout
	if timeout == 0 {
		timeout = c.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	fullURL := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	entry := c.log.WithFields(logrus.Fields{"method": method, "url": fullURL})
	if jsonBody != nil {
		entry = entry.WithField("body", string(jsonBody))
	}
	entry.Debug("companion request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		entry.WithError(err).Debug("companion network error")
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %w", apperrors.ErrUnreachable, apperrors.ErrTimeout)
		}
		return fmt.Errorf("%w: %v", apperrors.ErrUnreachable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %v", apperrors.ErrUnreachable, err)
	}

	if rl, ok := parseRateLimitHeaders(resp.Header, time.Now()); ok {
		c.mu.Lock()
		c.lastRate = rl
		c.mu.Unlock()
	}

	entry = entry.WithField("status", resp.StatusCode)
	if resp.StatusCode >= 400 {
		entry = entry.WithField("response", string(respBody))
	}
	entry.Debug("companion response")

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s", apperrors.ErrAuthRequired, apiMessage(resp.StatusCode, respBody))
	case resp.StatusCode == http.StatusTooManyRequests:
		msg := apiMessage(resp.StatusCode, respBody)
		return &apperrors.RateLimitError{
			RetryAfter: ParseRetryAfter(string(respBody), resp.Header),
			Message:    msg,
		}
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: %s", apperrors.ErrUnreachable, apiMessage(resp.StatusCode, respBody))
	case resp.StatusCode >= 400:
		return newAPIError(resp.StatusCode, respBody)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("%w: %v", apperrors.ErrMalformedPayload, err)
		}
	}

	return nil
}

// APIError is a non-retryable 4xx response from the companion server.
type APIError struct {
	Status  int    `json:"statusCode"`
	Kind    string `json:"error"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("companion API error %d", e.Status)
	}
	return fmt.Sprintf("companion API error %d: %s", e.Status, e.Message)
}

func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	apiErr.Status = status
	return apiErr
}

func apiMessage(status int, body []byte) string {
	return newAPIError(status, body).Message
}
