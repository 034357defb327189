package news

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/verisense/internal/metrics"
	"github.com/ppiankov/verisense/internal/model"
)

// Source produces articles from one upstream feed
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]model.Article, error)
}

// Aggregator fetches every source concurrently and concatenates the results
// in source order. A failing source contributes no articles.
type Aggregator struct {
	sources []Source
	logger  *slog.Logger
	metrics *metrics.Collector
}

// NewAggregator creates an aggregator over the given sources
func NewAggregator(logger *slog.Logger, m *metrics.Collector, sources ...Source) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		sources: sources,
		logger:  logger,
		metrics: m,
	}
}

// Articles returns the combined article list. It never fails; upstream errors are logged.
func (a *Aggregator) Articles(ctx context.Context) []model.Article {
	results := make([][]model.Article, len(a.sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range a.sources {
		g.Go(func() error {
			articles, err := src.Fetch(gctx)
			if err != nil {
				a.logger.Warn("news source failed", "source", src.Name(), "error", err)
				a.metrics.ObserveUpstream(src.Name(), "error")
				return nil
			}
			a.metrics.ObserveUpstream(src.Name(), "ok")
			results[i] = articles
			return nil
		})
	}
	_ = g.Wait()

	combined := []model.Article{}
	for _, r := range results {
		combined = append(combined, r...)
	}
	return combined
}
