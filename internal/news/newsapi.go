package news

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/ppiankov/verisense/internal/fetch"
	"github.com/ppiankov/verisense/internal/model"
)

const (
	// NewsAPIEndpoint is the top-headlines endpoint of newsapi.org
	NewsAPIEndpoint = "https://newsapi.org/v2/top-headlines"
	// NewsDataEndpoint is the latest-news endpoint of newsdata.io
	NewsDataEndpoint = "https://newsdata.io/api/1/news"
)

// ErrMissingKey is returned by sources that were configured without credentials
var ErrMissingKey = errors.New("api key not configured")

// NewsAPISource reads top headlines from newsapi.org
type NewsAPISource struct {
	client   *fetch.Client
	endpoint string
	apiKey   string
	query    string
	country  string
	pageSize int
}

// NewNewsAPISource creates a headline source. An empty endpoint uses NewsAPIEndpoint.
func NewNewsAPISource(client *fetch.Client, endpoint, apiKey, query, country string) *NewsAPISource {
	if endpoint == "" {
		endpoint = NewsAPIEndpoint
	}
	return &NewsAPISource{
		client:   client,
		endpoint: endpoint,
		apiKey:   apiKey,
		query:    query,
		country:  country,
		pageSize: 10,
	}
}

// Name returns the source name
func (s *NewsAPISource) Name() string {
	return "newsapi"
}

type newsAPIResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Articles []struct {
		Title       string `json:"title"`
		URL         string `json:"url"`
		Description string `json:"description"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

// Fetch retrieves one page of headlines
func (s *NewsAPISource) Fetch(ctx context.Context) ([]model.Article, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("newsapi: %w", ErrMissingKey)
	}

	q := url.Values{}
	q.Set("apiKey", s.apiKey)
	if s.query != "" {
		q.Set("q", s.query)
	}
	if s.country != "" {
		q.Set("country", s.country)
	}
	q.Set("pageSize", strconv.Itoa(s.pageSize))

	var resp newsAPIResponse
	if err := s.client.GetJSON(ctx, s.endpoint, q, nil, &resp); err != nil {
		return nil, fmt.Errorf("newsapi: %w", err)
	}
	if resp.Status == "error" {
		return nil, fmt.Errorf("newsapi: %s", resp.Message)
	}

	articles := make([]model.Article, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		articles = append(articles, model.Article{
			Title:       a.Title,
			Link:        a.URL,
			Description: a.Description,
			Source:      s.Name(),
			Published:   a.PublishedAt,
		})
	}
	return articles, nil
}

// NewsDataSource reads latest news from newsdata.io
type NewsDataSource struct {
	client   *fetch.Client
	endpoint string
	apiKey   string
	query    string
	country  string
}

// NewNewsDataSource creates a newsdata.io source. An empty endpoint uses NewsDataEndpoint.
func NewNewsDataSource(client *fetch.Client, endpoint, apiKey, query, country string) *NewsDataSource {
	if endpoint == "" {
		endpoint = NewsDataEndpoint
	}
	return &NewsDataSource{
		client:   client,
		endpoint: endpoint,
		apiKey:   apiKey,
		query:    query,
		country:  country,
	}
}

// Name returns the source name
func (s *NewsDataSource) Name() string {
	return "newsdata"
}

type newsDataResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Title       string `json:"title"`
		Link        string `json:"link"`
		Description string `json:"description"`
		PubDate     string `json:"pubDate"`
	} `json:"results"`
}

// Fetch retrieves the latest matching articles
func (s *NewsDataSource) Fetch(ctx context.Context) ([]model.Article, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("newsdata: %w", ErrMissingKey)
	}

	q := url.Values{}
	q.Set("apikey", s.apiKey)
	if s.query != "" {
		q.Set("q", s.query)
	}
	if s.country != "" {
		q.Set("country", s.country)
	}

	var resp newsDataResponse
	if err := s.client.GetJSON(ctx, s.endpoint, q, nil, &resp); err != nil {
		return nil, fmt.Errorf("newsdata: %w", err)
	}
	if resp.Status == "error" {
		return nil, fmt.Errorf("newsdata: upstream reported error")
	}

	articles := make([]model.Article, 0, len(resp.Results))
	for _, r := range resp.Results {
		articles = append(articles, model.Article{
			Title:       r.Title,
			Link:        r.Link,
			Description: r.Description,
			Source:      s.Name(),
			Published:   r.PubDate,
		})
	}
	return articles, nil
}
