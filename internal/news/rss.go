package news

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmcdole/gofeed"

	"github.com/ppiankov/verisense/internal/extract"
	"github.com/ppiankov/verisense/internal/fetch"
	"github.com/ppiankov/verisense/internal/model"
	"github.com/ppiankov/verisense/internal/util"
)

// ErrDisallowed is returned when robots.txt forbids fetching the feed
var ErrDisallowed = errors.New("disallowed by robots.txt")

// RSSSource reads a syndication feed (RSS or Atom)
type RSSSource struct {
	name   string
	url    string
	parser *gofeed.Parser
	robots *util.RobotsChecker
}

// NewRSSSource creates a feed source. A nil robots checker skips the robots.txt check.
func NewRSSSource(name, feedURL string, client *fetch.Client, robots *util.RobotsChecker) *RSSSource {
	parser := gofeed.NewParser()
	if client != nil {
		parser.Client = client.HTTPClient()
		if ua := client.UserAgent(); ua != "" {
			parser.UserAgent = ua
		}
	}
	return &RSSSource{
		name:   name,
		url:    feedURL,
		parser: parser,
		robots: robots,
	}
}

// Name returns the source name
func (s *RSSSource) Name() string {
	return s.name
}

// Fetch downloads and parses the feed
func (s *RSSSource) Fetch(ctx context.Context) ([]model.Article, error) {
	if s.robots != nil && !s.robots.IsAllowed(ctx, s.url) {
		return nil, fmt.Errorf("%s: %w", s.name, ErrDisallowed)
	}

	feed, err := s.parser.ParseURLWithContext(s.url, ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: parse feed: %w", s.name, err)
	}
	return s.articles(feed), nil
}

func (s *RSSSource) articles(feed *gofeed.Feed) []model.Article {
	articles := make([]model.Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		desc := item.Description
		if desc != "" {
			if text, err := extract.VisibleText(desc); err == nil {
				desc = text
			}
		}
		articles = append(articles, model.Article{
			Title:       item.Title,
			Link:        item.Link,
			Description: desc,
			Source:      s.name,
			Published:   item.Published,
		})
	}
	return articles
}
