package evidence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"google.golang.org/api/factchecktools/v1alpha1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/ppiankov/verisense/internal/metrics"
	"github.com/ppiankov/verisense/internal/model"
)

const (
	unknownPublisher = "Unknown"
	unratedRating    = "Unrated"
	noResultsReason  = "No related fact-checks found for this claim."
)

// Gatherer collects evidence for a single claim. It never fails; upstream
// problems are folded into an Unverified bundle.
type Gatherer interface {
	Gather(ctx context.Context, claim string) model.EvidenceBundle
}

// FactCheckOptions configures a FactCheckGatherer
type FactCheckOptions struct {
	APIKey       string
	Endpoint     string
	LanguageCode string
	HTTPClient   *http.Client
	Logger       *slog.Logger
	Metrics      *metrics.Collector
}

// FactCheckGatherer queries the Google Fact Check Tools claim search
type FactCheckGatherer struct {
	svc          *factchecktools.Service
	languageCode string
	logger       *slog.Logger
	metrics      *metrics.Collector
}

// NewFactCheckGatherer creates the claim-search client once per process.
func NewFactCheckGatherer(ctx context.Context, opts FactCheckOptions) (*FactCheckGatherer, error) {
	var clientOpts []option.ClientOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint))
	}
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, option.WithHTTPClient(opts.HTTPClient))
	}
	if opts.APIKey == "" && opts.HTTPClient == nil {
		clientOpts = append(clientOpts, option.WithoutAuthentication())
	}

	svc, err := factchecktools.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create fact check service: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &FactCheckGatherer{
		svc:          svc,
		languageCode: opts.LanguageCode,
		logger:       logger,
		metrics:      opts.Metrics,
	}, nil
}

// Gather searches for published reviews of claim and classifies them.
func (g *FactCheckGatherer) Gather(ctx context.Context, claim string) model.EvidenceBundle {
	call := g.svc.Claims.Search().Query(claim).Context(ctx)
	if g.languageCode != "" {
		call = call.LanguageCode(g.languageCode)
	}

	resp, err := call.Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			g.logger.Warn("fact check search returned error status", "claim", claim, "status", apiErr.Code)
			g.metrics.ObserveUpstream("factcheck", "status")
			return model.NewUnverifiedBundle(0.5, fmt.Sprintf("Google API returned status %d.", apiErr.Code))
		}
		g.logger.Warn("fact check search failed", "claim", claim, "error", err)
		g.metrics.ObserveUpstream("factcheck", "error")
		return model.NewUnverifiedBundle(0.4, "Evidence gathering failed: "+err.Error())
	}
	g.metrics.ObserveUpstream("factcheck", "ok")

	reviews := flatten(resp.Claims)
	if len(resp.Claims) == 0 {
		return model.NewUnverifiedBundle(0.5, noResultsReason)
	}
	return Bundle(reviews)
}

// flatten turns every review of every matched claim into a Review, in order.
func flatten(claims []*factchecktools.GoogleFactcheckingFactchecktoolsV1alpha1Claim) []model.Review {
	var reviews []model.Review
	for _, c := range claims {
		if c == nil {
			continue
		}
		for _, r := range c.ClaimReview {
			if r == nil {
				continue
			}
			source := unknownPublisher
			if r.Publisher != nil && r.Publisher.Name != "" {
				source = r.Publisher.Name
			}
			rating := r.TextualRating
			if rating == "" {
				rating = unratedRating
			}
			reviews = append(reviews, model.Review{
				Text:   c.Text,
				Source: source,
				Rating: rating,
				URL:    r.Url,
			})
		}
	}
	return reviews
}
