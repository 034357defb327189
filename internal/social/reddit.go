package social

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/ppiankov/verisense/internal/fetch"
	"github.com/ppiankov/verisense/internal/model"
)

const (
	// RedditTokenURL issues application-only tokens
	RedditTokenURL = "https://www.reddit.com/api/v1/access_token"
	// RedditAPIBase serves authenticated listing requests
	RedditAPIBase = "https://oauth.reddit.com"
)

// ErrMissingCredentials is returned by sources configured without credentials
var ErrMissingCredentials = errors.New("credentials not configured")

// RedditOptions configures the subreddit source
type RedditOptions struct {
	ClientID     string
	ClientSecret string
	Subreddit    string
	Limit        int
	TokenURL     string // Defaults to RedditTokenURL
	APIBase      string // Defaults to RedditAPIBase
	HTTPClient   *http.Client
	UserAgent    string
	MaxBytes     int64
}

// RedditSource reads the hot listing of one subreddit
type RedditSource struct {
	client    *fetch.Client
	apiBase   string
	subreddit string
	limit     int
}

// NewRedditSource creates the source. Tokens are fetched lazily on the first request.
func NewRedditSource(opts RedditOptions) (*RedditSource, error) {
	if opts.ClientID == "" || opts.ClientSecret == "" {
		return nil, fmt.Errorf("reddit: %w", ErrMissingCredentials)
	}
	if opts.TokenURL == "" {
		opts.TokenURL = RedditTokenURL
	}
	if opts.APIBase == "" {
		opts.APIBase = RedditAPIBase
	}
	if opts.Subreddit == "" {
		opts.Subreddit = "worldnews"
	}
	if opts.Limit <= 0 {
		opts.Limit = 10
	}

	base := opts.HTTPClient
	if base == nil {
		base = http.DefaultClient
	}
	// Reddit rejects token requests without a descriptive User-Agent
	base = withUserAgent(base, opts.UserAgent)

	cfg := clientcredentials.Config{
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
		TokenURL:     opts.TokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)

	return &RedditSource{
		client:    fetch.NewClientWithHTTP(cfg.Client(ctx), opts.UserAgent, opts.MaxBytes),
		apiBase:   opts.APIBase,
		subreddit: opts.Subreddit,
		limit:     opts.Limit,
	}, nil
}

// Name returns the source name
func (s *RedditSource) Name() string {
	return "reddit"
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data struct {
				Title string `json:"title"`
				URL   string `json:"url"`
				Score int    `json:"score"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// Hot returns the current hot posts
func (s *RedditSource) Hot(ctx context.Context) ([]model.RedditPost, error) {
	endpoint := fmt.Sprintf("%s/r/%s/hot", s.apiBase, url.PathEscape(s.subreddit))
	q := url.Values{}
	q.Set("limit", strconv.Itoa(s.limit))
	q.Set("raw_json", "1")

	var listing redditListing
	if err := s.client.GetJSON(ctx, endpoint, q, nil, &listing); err != nil {
		return nil, fmt.Errorf("reddit: %w", err)
	}

	posts := make([]model.RedditPost, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		posts = append(posts, model.RedditPost{
			Title: child.Data.Title,
			URL:   child.Data.URL,
			Score: child.Data.Score,
		})
	}
	return posts, nil
}

type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return t.base.RoundTrip(req)
	}
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(clone)
}

func withUserAgent(client *http.Client, userAgent string) *http.Client {
	if userAgent == "" {
		return client
	}
	base := client.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	wrapped := *client
	wrapped.Transport = &userAgentTransport{base: base, userAgent: userAgent}
	return &wrapped
}
