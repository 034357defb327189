package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ppiankov/verisense/internal/cache"
	"github.com/ppiankov/verisense/internal/evidence"
	"github.com/ppiankov/verisense/internal/extract"
	"github.com/ppiankov/verisense/internal/fetch"
	"github.com/ppiankov/verisense/internal/llm"
	"github.com/ppiankov/verisense/internal/metrics"
	"github.com/ppiankov/verisense/internal/model"
	"github.com/ppiankov/verisense/internal/news"
	"github.com/ppiankov/verisense/internal/pipeline"
	"github.com/ppiankov/verisense/internal/reason"
	"github.com/ppiankov/verisense/internal/server"
	"github.com/ppiankov/verisense/internal/social"
	"github.com/ppiankov/verisense/internal/util"
	"github.com/ppiankov/verisense/internal/voice"
	"github.com/ppiankov/verisense/internal/worker"
)

// core holds the long-lived handles shared by every command
type core struct {
	cfg       *model.Config
	logger    *slog.Logger
	metrics   *metrics.Collector
	fetch     *fetch.Client
	extractor *extract.ClaimExtractor
	reasoner  reason.Reasoner
	pipeline  *pipeline.Pipeline
}

// buildCore constructs the verification pipeline. The entity recognizer is
// required; an unusable reasoning provider degrades to the fallback strategy.
func buildCore(ctx context.Context, cfg *model.Config, logger *slog.Logger) (*core, error) {
	m := metrics.New()
	client := fetch.NewClient(fetch.Options{
		Timeout:    cfg.HTTP.Timeout,
		UserAgent:  cfg.HTTP.UserAgent,
		MaxBytes:   cfg.HTTP.MaxBytes,
		HTTPProxy:  cfg.HTTP.HTTPProxy,
		HTTPSProxy: cfg.HTTP.HTTPSProxy,
		NoProxy:    cfg.HTTP.NoProxy,
	})

	recognizer, err := extract.NewGoogleRecognizer(ctx, extract.GoogleRecognizerOptions{
		APIKey:   cfg.NLP.APIKey,
		Endpoint: cfg.NLP.Endpoint,
	})
	if err != nil {
		return nil, err
	}
	extractor := extract.NewClaimExtractor(recognizer)

	gatherer, err := evidence.NewFactCheckGatherer(ctx, evidence.FactCheckOptions{
		APIKey:       cfg.FactCheck.APIKey,
		Endpoint:     cfg.FactCheck.Endpoint,
		LanguageCode: cfg.FactCheck.LanguageCode,
		Logger:       logger,
		Metrics:      m,
	})
	if err != nil {
		return nil, err
	}
	if cfg.FactCheck.APIKey == "" {
		logger.Warn("fact check api key not set; evidence lookups will be rejected upstream")
	}

	var provider llm.Provider
	if cfg.Reasoner.Mode == "" || cfg.Reasoner.Mode == reason.StrategyLLM {
		p, err := llm.NewProvider(llm.ConfigFromModel(*cfg))
		if err != nil {
			logger.Warn("reasoning provider unavailable, using fallback", "provider", cfg.LLM.Provider, "fallback", cfg.Reasoner.Fallback, "error", err)
		} else if p != nil {
			provider = p
		}
	}

	reasoner, err := reason.New(cfg.Reasoner.Mode, cfg.Reasoner.Fallback, provider, logger)
	if err != nil {
		return nil, fmt.Errorf("create reasoner: %w", err)
	}

	p := pipeline.NewPipeline(extractor, gatherer, reasoner, pipeline.Options{
		Logger:  logger,
		Metrics: m,
	})

	return &core{
		cfg:       cfg,
		logger:    logger,
		metrics:   m,
		fetch:     client,
		extractor: extractor,
		reasoner:  reasoner,
		pipeline:  p,
	}, nil
}

// newsAggregator wires the three feeds
func (c *core) newsAggregator() *news.Aggregator {
	nc := c.cfg.News

	var robots *util.RobotsChecker
	if nc.RespectRobots {
		robots = util.NewRobotsChecker(c.fetch.HTTPClient(), c.cfg.HTTP.UserAgent, time.Hour)
	}

	return news.NewAggregator(c.logger, c.metrics,
		news.NewNewsAPISource(c.fetch, "", nc.NewsAPIKey, nc.NewsAPIQuery, nc.NewsAPICountry),
		news.NewNewsDataSource(c.fetch, "", nc.NewsDataKey, nc.NewsDataQuery, nc.NewsDataCountry),
		news.NewRSSSource("pib", nc.RSSURL, c.fetch, robots),
	)
}

// socialService wires whichever social sources have credentials
func (c *core) socialService() *social.Service {
	sc := c.cfg.Social

	var posts social.PostSource
	reddit, err := social.NewRedditSource(social.RedditOptions{
		ClientID:     sc.RedditClientID,
		ClientSecret: sc.RedditSecret,
		Subreddit:    sc.Subreddit,
		Limit:        sc.RedditLimit,
		HTTPClient:   c.fetch.HTTPClient(),
		UserAgent:    c.cfg.HTTP.UserAgent,
		MaxBytes:     c.cfg.HTTP.MaxBytes,
	})
	if err != nil {
		c.logger.Info("reddit source disabled", "reason", err)
	} else {
		posts = reddit
	}

	var tweets social.TweetSource
	twitter, err := social.NewTwitterSource(social.TwitterOptions{
		BearerToken: sc.TwitterBearerToken,
		Query:       sc.TwitterQuery,
		MaxResults:  sc.TwitterMaxResults,
		HTTPClient:  c.fetch.HTTPClient(),
		UserAgent:   c.cfg.HTTP.UserAgent,
		MaxBytes:    c.cfg.HTTP.MaxBytes,
	})
	if err != nil {
		c.logger.Info("twitter source disabled", "reason", err)
	} else {
		tweets = twitter
	}

	return social.NewService(posts, tweets, c.logger, c.metrics)
}

// voiceProcessor wires speech in and out. It returns nil handles when no key is configured.
func (c *core) voiceProcessor() (*voice.Processor, *cache.FileStore, error) {
	vc := c.cfg.Voice
	if vc.APIKey == "" {
		c.logger.Info("voice endpoints disabled", "reason", "voice api key not set")
		return nil, nil, nil
	}

	store, err := cache.NewFileStore(vc.Dir, ".mp3", vc.TTL)
	if err != nil {
		return nil, nil, fmt.Errorf("create speech store: %w", err)
	}

	client := voice.NewClient(vc.APIKey, vc.BaseURL)
	processor := voice.NewProcessor(
		voice.NewOpenAITranscriber(client, vc.TranscriptionModel),
		voice.NewOpenAISynthesizer(client, vc.SpeechModel, vc.Voice, store),
		c.pipeline,
		vc.ClosingUtterance,
		c.logger,
	)
	return processor, store, nil
}

// newServer assembles the HTTP API from the core and the ancillary feeds
func (c *core) newServer() (*server.Server, func(), error) {
	deps := server.Dependencies{
		Extractor: c.extractor,
		Verifier:  c.pipeline,
		Reasoner:  c.reasoner,
		News:      c.newsAggregator(),
		Social:    c.socialService(),
	}

	processor, store, err := c.voiceProcessor()
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {}
	if processor != nil {
		deps.Voice = processor
		deps.Speech = store
		cleanup = func() { _ = store.Close() }
	}

	var limiter *worker.Limiter
	if c.cfg.Server.RequestsPerSecond > 0 {
		limiter = worker.NewLimiter(c.cfg.Server.RequestsPerSecond, c.cfg.Server.Burst)
	}

	srv := server.New(deps, server.Options{
		Logger:         c.logger,
		Metrics:        c.metrics,
		Limiter:        limiter,
		CORSOrigins:    c.cfg.Server.CORSOrigins,
		MaxUploadBytes: c.cfg.Server.MaxUploadBytes,
		Version:        Version,
	})
	return srv, cleanup, nil
}
