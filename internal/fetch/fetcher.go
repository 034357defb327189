package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ppiankov/verisense/internal/util"
)

// ErrUnexpectedStatus is matched by every *StatusError
var ErrUnexpectedStatus = errors.New("unexpected status")

// StatusError reports a non-2xx upstream response
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d %s", e.StatusCode, e.Status)
}

// Is lets errors.Is match ErrUnexpectedStatus
func (e *StatusError) Is(target error) bool {
	return target == ErrUnexpectedStatus
}

// Options configures a Client
type Options struct {
	Timeout    time.Duration
	UserAgent  string
	MaxBytes   int64
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// Client fetches small JSON and XML documents from REST endpoints
type Client struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
}

// NewClient creates a new Client with the given configuration
func NewClient(opts Options) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = util.NewProxyFunc(opts.HTTPProxy, opts.HTTPSProxy, opts.NoProxy)

	return NewClientWithHTTP(&http.Client{
		Timeout:   opts.Timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 3 {
				return fmt.Errorf("stopped after 3 redirects")
			}
			return nil
		},
	}, opts.UserAgent, opts.MaxBytes)
}

// NewClientWithHTTP wraps an existing http.Client, e.g. one carrying OAuth2 tokens
func NewClientWithHTTP(httpClient *http.Client, userAgent string, maxBytes int64) *Client {
	if maxBytes <= 0 {
		maxBytes = 4_000_000
	}
	return &Client{
		httpClient: httpClient,
		userAgent:  userAgent,
		maxBytes:   maxBytes,
	}
}

// HTTPClient exposes the underlying client for SDKs that take one
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// UserAgent returns the configured User-Agent
func (c *Client) UserAgent() string {
	return c.userAgent
}

// Get retrieves the body at rawURL with query parameters and extra headers applied.
func (c *Client) Get(ctx context.Context, rawURL string, query url.Values, headers map[string]string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse URL: %w", err)
	}
	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{URL: u.Redacted(), StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// GetJSON retrieves rawURL and decodes the JSON body into out.
func (c *Client) GetJSON(ctx context.Context, rawURL string, query url.Values, headers map[string]string, out any) error {
	if headers == nil {
		headers = map[string]string{}
	}
	if _, ok := headers["Accept"]; !ok {
		headers["Accept"] = "application/json"
	}

	body, err := c.Get(ctx, rawURL, query, headers)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
