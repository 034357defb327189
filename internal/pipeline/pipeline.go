package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ppiankov/verisense/internal/evidence"
	"github.com/ppiankov/verisense/internal/metrics"
	"github.com/ppiankov/verisense/internal/model"
	"github.com/ppiankov/verisense/internal/reason"
)

const (
	failureReasoning = "Verification pipeline failed."
	tracerName       = "github.com/ppiankov/verisense/internal/pipeline"
)

// Extractor turns input text into candidate claims
type Extractor interface {
	Extract(ctx context.Context, text string) ([]model.Claim, error)
}

// Outcome is the result of one pipeline run. Exactly one of the two shapes
// holds: on success Records has one entry per claim and Err is nil; on
// failure Records holds the single Error record and Err the cause.
type Outcome struct {
	Records []model.VerifiedClaimRecord
	Err     error
}

// Failed reports whether the run was abandoned
func (o Outcome) Failed() bool {
	return o.Err != nil
}

// Options configures a Pipeline
type Options struct {
	Logger  *slog.Logger
	Metrics *metrics.Collector
	Tracer  trace.Tracer
	Now     func() time.Time
}

// Pipeline sequences extraction, evidence gathering and reasoning
type Pipeline struct {
	extractor Extractor
	gatherer  evidence.Gatherer
	reasoner  reason.Reasoner
	logger    *slog.Logger
	metrics   *metrics.Collector
	tracer    trace.Tracer
	now       func() time.Time
}

// NewPipeline creates a new pipeline from its three stages
func NewPipeline(extractor Extractor, gatherer evidence.Gatherer, reasoner reason.Reasoner, opts Options) *Pipeline {
	p := &Pipeline{
		extractor: extractor,
		gatherer:  gatherer,
		reasoner:  reasoner,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		tracer:    opts.Tracer,
		now:       opts.Now,
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.tracer == nil {
		p.tracer = otel.Tracer(tracerName)
	}
	if p.now == nil {
		p.now = func() time.Time { return time.Now().UTC() }
	}
	return p
}

// Process runs the whole pipeline for text. Claims are handled one after
// another; any failure discards every record and yields one Error record.
func (p *Pipeline) Process(ctx context.Context, text string) (out Outcome) {
	ctx, span := p.tracer.Start(ctx, "pipeline.process")
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			out = p.fail(text, fmt.Errorf("%v", r))
		}
		if out.Failed() {
			span.RecordError(out.Err)
			span.SetStatus(codes.Error, out.Err.Error())
		}
		p.metrics.ObservePipeline(!out.Failed())
		for _, r := range out.Records {
			p.metrics.ObserveVerdict(string(r.Verdict))
		}
	}()

	records, err := p.run(ctx, text)
	if err != nil {
		return p.fail(text, err)
	}
	return Outcome{Records: records}
}

func (p *Pipeline) run(ctx context.Context, text string) ([]model.VerifiedClaimRecord, error) {
	claims, err := p.extract(ctx, text)
	if err != nil {
		return nil, err
	}

	records := make([]model.VerifiedClaimRecord, 0, len(claims))
	for _, claim := range claims {
		record, err := p.verify(ctx, claim)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func (p *Pipeline) extract(ctx context.Context, text string) ([]string, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.extract")
	defer span.End()

	claims, err := p.extractor.Extract(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("extract claims: %w", err)
	}

	texts := model.ClaimTexts(claims)
	if len(texts) == 0 {
		texts = []string{text}
	}
	span.SetAttributes(attribute.Int("claims.count", len(texts)))
	return texts, nil
}

func (p *Pipeline) verify(ctx context.Context, claim string) (model.VerifiedClaimRecord, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.verify", trace.WithAttributes(attribute.String("claim", claim)))
	defer span.End()

	bundle := p.gatherer.Gather(ctx, claim)

	result, err := p.reasoner.Reason(ctx, claim, bundle.Evidence)
	if err != nil {
		return model.VerifiedClaimRecord{}, fmt.Errorf("reason: %w", err)
	}

	reasoning := strings.TrimSpace(strings.Join(result.Reasoning, " "))
	if reasoning == "" {
		reasoning = model.DefaultReasoning
	}

	span.SetAttributes(
		attribute.String("verdict", string(bundle.Verdict)),
		attribute.String("reasoner", result.Strategy),
	)

	return model.VerifiedClaimRecord{
		Claim:      claim,
		Verdict:    bundle.Verdict,
		Confidence: bundle.Confidence,
		Sources:    bundle.Sources,
		Evidence:   bundle.Evidence,
		Reasoning:  reasoning,
		Timestamp:  p.now(),
	}.Normalize(), nil
}

func (p *Pipeline) fail(text string, err error) Outcome {
	p.logger.Error("pipeline execution failed", "error", err)
	return Outcome{
		Records: []model.VerifiedClaimRecord{FailureRecord(text, err, p.now())},
		Err:     err,
	}
}

// FailureRecord is the degraded record that replaces a whole failed run
func FailureRecord(text string, err error, at time.Time) model.VerifiedClaimRecord {
	return model.VerifiedClaimRecord{
		Claim:      text,
		Verdict:    model.VerdictError,
		Confidence: 0.0,
		Sources:    []string{},
		Evidence:   []string{"Pipeline execution failed: " + err.Error()},
		Reasoning:  failureReasoning,
		Timestamp:  at,
	}
}
