package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	gh "github.com/google/go-github/v68/github"

	"github.com/steveyegge/stale/internal/tracker"
)

// Client implements tracker.Remote and tracker.ContentFetcher against GitHub.
type Client struct {
	api          *gh.Client
	token        string
	httpClient   *http.Client
	baseURL      *url.URL
	retryInitial time.Duration
	retryMax     time.Duration
}

var (
	_ tracker.Remote         = (*Client)(nil)
	_ tracker.ContentFetcher = (*Client)(nil)
)

// NewClient creates a GitHub client. If token is empty the client is
// unauthenticated (limited to 60 requests/hour).
func NewClient(token string) *Client {
	c := &Client{
		token:        token,
		httpClient:   &http.Client{Timeout: DefaultTimeout},
		retryInitial: RetryInitialInterval,
		retryMax:     RetryMaxElapsed,
	}
	c.build()
	return c
}

func (c *Client) build() {
	api := gh.NewClient(c.httpClient)
	if c.token != "" {
		api = api.WithAuthToken(c.token)
	}
	if c.baseURL != nil {
		api.BaseURL = c.baseURL
	}
	c.api = api
}

func (c *Client) clone() *Client {
	cp := *c
	return &cp
}

// WithHTTPClient returns a copy of the client using httpClient.
func (c *Client) WithHTTPClient(httpClient *http.Client) *Client {
	cp := c.clone()
	cp.httpClient = httpClient
	cp.build()
	return cp
}

// WithBaseURL returns a copy of the client that talks to baseURL, for GitHub
// Enterprise ("https://ghe.example.com/api/v3/") or tests.
func (c *Client) WithBaseURL(baseURL string) (*Client, error) {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid GitHub base URL %q: %w", baseURL, err)
	}
	cp := c.clone()
	cp.baseURL = u
	cp.build()
	return cp, nil
}

// WithRetry returns a copy of the client with the given backoff bounds.
func (c *Client) WithRetry(initial, maxElapsed time.Duration) *Client {
	cp := c.clone()
	cp.retryInitial = initial
	cp.retryMax = maxElapsed
	return cp
}

// BaseURL returns the API endpoint in use.
func (c *Client) BaseURL() string {
	return c.api.BaseURL.String()
}

func (c *Client) newBackoff() backoff.BackOff {
	// BackOff implementations are stateful; always return a fresh instance.
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.retryInitial
	bo.MaxElapsedTime = c.retryMax
	return bo
}

// call runs fn with retry. Rate limits and 5xx responses are retried; any
// other failure stops immediately. 404 is mapped to tracker.ErrNotFound.
func (c *Client) call(ctx context.Context, op string, fn func() (*gh.Response, error)) error {
	return backoff.Retry(func() error {
		resp, err := fn()
		if err == nil {
			return nil
		}
		wrapped := wrapError(op, resp, err)
		if isRetryable(resp, err) {
			return wrapped
		}
		return backoff.Permanent(wrapped)
	}, backoff.WithContext(c.newBackoff(), ctx))
}

// isRetryable reports whether a failed call is worth retrying.
func isRetryable(resp *gh.Response, err error) bool {
	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) {
		return true
	}
	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return true
	}
	if resp != nil && (resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests) {
		return true
	}
	return false
}

func wrapError(op string, resp *gh.Response, err error) error {
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	if status == http.StatusNotFound {
		return fmt.Errorf("%s: %w", op, tracker.ErrNotFound)
	}
	return &tracker.RemoteError{Op: op, StatusCode: status, Err: err}
}
