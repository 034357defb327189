package social

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"golang.org/x/oauth2"

	"github.com/ppiankov/verisense/internal/fetch"
	"github.com/ppiankov/verisense/internal/model"
)

// TwitterSearchURL is the v2 recent-search endpoint
const TwitterSearchURL = "https://api.twitter.com/2/tweets/search/recent"

// TwitterOptions configures the recent-search source
type TwitterOptions struct {
	BearerToken string
	Query       string
	MaxResults  int
	Endpoint    string // Defaults to TwitterSearchURL
	HTTPClient  *http.Client
	UserAgent   string
	MaxBytes    int64
}

// TwitterSource runs one recent-search query
type TwitterSource struct {
	client     *fetch.Client
	endpoint   string
	query      string
	maxResults int
}

// NewTwitterSource creates the source with an app-only bearer token
func NewTwitterSource(opts TwitterOptions) (*TwitterSource, error) {
	if opts.BearerToken == "" {
		return nil, fmt.Errorf("twitter: %w", ErrMissingCredentials)
	}
	if opts.Endpoint == "" {
		opts.Endpoint = TwitterSearchURL
	}
	if opts.Query == "" {
		opts.Query = "crisis"
	}
	// The API accepts 10..100
	if opts.MaxResults < 10 {
		opts.MaxResults = 10
	}
	if opts.MaxResults > 100 {
		opts.MaxResults = 100
	}

	base := opts.HTTPClient
	if base == nil {
		base = http.DefaultClient
	}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.BearerToken, TokenType: "Bearer"})

	return &TwitterSource{
		client:     fetch.NewClientWithHTTP(oauth2.NewClient(ctx, ts), opts.UserAgent, opts.MaxBytes),
		endpoint:   opts.Endpoint,
		query:      opts.Query,
		maxResults: opts.MaxResults,
	}, nil
}

// Name returns the source name
func (s *TwitterSource) Name() string {
	return "twitter"
}

type searchResponse struct {
	Data []struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
}

// Recent returns tweets matching the configured query
func (s *TwitterSource) Recent(ctx context.Context) ([]model.Tweet, error) {
	q := url.Values{}
	q.Set("query", s.query)
	q.Set("max_results", strconv.Itoa(s.maxResults))

	var resp searchResponse
	if err := s.client.GetJSON(ctx, s.endpoint, q, nil, &resp); err != nil {
		return nil, fmt.Errorf("twitter: %w", err)
	}

	tweets := make([]model.Tweet, 0, len(resp.Data))
	for _, d := range resp.Data {
		tweets = append(tweets, model.Tweet{ID: d.ID, Text: d.Text})
	}
	return tweets, nil
}
