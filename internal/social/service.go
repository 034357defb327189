package social

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/verisense/internal/metrics"
	"github.com/ppiankov/verisense/internal/model"
)

// PostSource lists forum posts
type PostSource interface {
	Hot(ctx context.Context) ([]model.RedditPost, error)
}

// TweetSource lists microblog posts
type TweetSource interface {
	Recent(ctx context.Context) ([]model.Tweet, error)
}

// Service combines both social sources. Either source may be nil when unconfigured.
type Service struct {
	posts   PostSource
	tweets  TweetSource
	logger  *slog.Logger
	metrics *metrics.Collector
}

// NewService creates the social feed service
func NewService(posts PostSource, tweets TweetSource, logger *slog.Logger, m *metrics.Collector) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		posts:   posts,
		tweets:  tweets,
		logger:  logger,
		metrics: m,
	}
}

// Feed fetches both sources concurrently. A failing or missing source yields an empty list.
func (s *Service) Feed(ctx context.Context) model.SocialFeed {
	feed := model.SocialFeed{
		Reddit:  []model.RedditPost{},
		Twitter: []model.Tweet{},
	}

	g, gctx := errgroup.WithContext(ctx)
	if s.posts != nil {
		g.Go(func() error {
			posts, err := s.posts.Hot(gctx)
			if err != nil {
				s.logger.Warn("reddit fetch failed", "error", err)
				s.metrics.ObserveUpstream("reddit", "error")
				return nil
			}
			s.metrics.ObserveUpstream("reddit", "ok")
			feed.Reddit = posts
			return nil
		})
	}
	if s.tweets != nil {
		g.Go(func() error {
			tweets, err := s.tweets.Recent(gctx)
			if err != nil {
				s.logger.Warn("twitter fetch failed", "error", err)
				s.metrics.ObserveUpstream("twitter", "error")
				return nil
			}
			s.metrics.ObserveUpstream("twitter", "ok")
			feed.Twitter = tweets
			return nil
		})
	}
	_ = g.Wait()

	return feed
}
