// Package title orchestrates the analysis pipeline: classify instruments,
// reconstruct the chain of title, pair releases with encumbrances, and assign
// survival dispositions. The stages are pure; the service owns validation,
// persistence, logging, and instrumentation.
package title

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"titlechain/internal/title/chain"
	"titlechain/internal/title/docclass"
	"titlechain/internal/title/metrics"
	"titlechain/internal/title/models"
	"titlechain/internal/title/namematch"
	"titlechain/internal/title/satisfaction"
	"titlechain/internal/title/store"
	"titlechain/internal/title/survival"
	dErrors "titlechain/pkg/domain-errors"
	"titlechain/pkg/platform/sentinel"
	"titlechain/pkg/requestcontext"
)

// Store is the persistence port the service writes finished results to.
type Store = store.Store

// Input is one property's worth of analysis input.
type Input struct {
	CaseID      string
	ParcelLegal string
	Instruments []models.InstrumentRecord
	Judgment    *models.ForeclosureJudgment
}

// Service runs analyses and persists their results.
type Service struct {
	store            Store
	logger           *slog.Logger
	metrics          *metrics.Metrics
	policy           survival.Policy
	tracer           trace.Tracer
	batchConcurrency int
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithPolicy overrides the statutory defaults, for jurisdictions with
// different lien lifetimes or redemption windows.
func WithPolicy(p survival.Policy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

// WithBatchConcurrency bounds parallelism in AnalyzeBatch.
func WithBatchConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchConcurrency = n
		}
	}
}

func New(st Store, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, fmt.Errorf("result store is required")
	}

	svc := &Service{
		store:            st,
		logger:           slog.Default(),
		policy:           survival.DefaultPolicy(),
		tracer:           otel.Tracer("titlechain/title"),
		batchConcurrency: 4,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Analyze runs the full pipeline for one property and persists the result.
// Malformed instruments are skipped with a reason, never fatal; the only
// errors are an invalid request or a persistence failure.
func (s *Service) Analyze(ctx context.Context, in Input) (models.AnalysisResult, error) {
	ctx, span := s.tracer.Start(ctx, "title.Analyze",
		trace.WithAttributes(
			attribute.String("case_id", in.CaseID),
			attribute.Int("instrument_count", len(in.Instruments)),
		))
	defer span.End()

	start := time.Now()

	if in.CaseID == "" {
		return models.AnalysisResult{}, dErrors.New(dErrors.CodeBadRequest, "case_id is required")
	}
	if in.Judgment != nil && !in.Judgment.Type.IsValid() {
		return models.AnalysisResult{}, dErrors.Newf(dErrors.CodeBadRequest, "unsupported foreclosure type %q", in.Judgment.Type)
	}

	valid, skipped := validateInstruments(in.Instruments)
	s.metrics.AddSkipped(len(skipped))

	now := requestcontext.Now(ctx)
	names := namematch.New()

	classified := docclass.ClassifyAll(valid, names)
	ch := chain.NewBuilder(names, now).Build(classified.Anchors, classified.Supports)

	matched := satisfaction.Match(classified.Releases, classified.Encumbrances, names, in.ParcelLegal)
	if matched.CheckPartial {
		ch.Summary.CheckPartial = true
	}
	s.metrics.AddUnmatched(len(matched.Unmatched))

	encs := survival.NewAnalyzer(s.policy, now).Analyze(ch, matched.Encumbrances, in.Judgment)
	encs = chain.AssignPeriods(ch.Periods, encs)

	result := models.AnalysisResult{
		SchemaVersion:     models.SchemaVersion,
		AnalysisID:        uuid.New(),
		CaseID:            in.CaseID,
		AnalyzedAt:        now,
		Periods:           ch.Periods,
		Encumbrances:      encs,
		Summary:           ch.Summary,
		UnmatchedReleases: matched.Unmatched,
		Skipped:           skipped,
	}

	if err := s.store.Save(ctx, result); err != nil {
		s.metrics.ObserveAnalysis("error", time.Since(start))
		return models.AnalysisResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save analysis result")
	}

	if len(ch.Summary.BrokenChainDates) > 0 {
		s.metrics.IncrementBrokenChains()
	}
	s.metrics.ObserveAnalysis("ok", time.Since(start))

	s.logger.InfoContext(ctx, "analysis complete",
		"case_id", in.CaseID,
		"analysis_id", result.AnalysisID,
		"periods", len(result.Periods),
		"encumbrances", len(result.Encumbrances),
		"skipped", len(skipped),
		"unmatched_releases", len(matched.Unmatched),
		"flags", ch.Summary.Flags(),
	)
	return result, nil
}

// Get returns the stored result for a case.
//
// Errors: CodeNotFound when the case has not been analyzed.
func (s *Service) Get(ctx context.Context, caseID string) (models.AnalysisResult, error) {
	if caseID == "" {
		return models.AnalysisResult{}, dErrors.New(dErrors.CodeBadRequest, "case_id is required")
	}
	result, err := s.store.FindByCase(ctx, caseID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.AnalysisResult{}, dErrors.Newf(dErrors.CodeNotFound, "no analysis for case %q", caseID)
		}
		return models.AnalysisResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load analysis result")
	}
	return result, nil
}

// AnalyzeBatch runs many analyses with bounded parallelism. Results come
// back in input order; the first failure cancels the remaining work.
func (s *Service) AnalyzeBatch(ctx context.Context, inputs []Input) ([]models.AnalysisResult, error) {
	results := make([]models.AnalysisResult, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.batchConcurrency)
	for i, in := range inputs {
		g.Go(func() error {
			result, err := s.Analyze(gctx, in)
			if err != nil {
				return fmt.Errorf("case %s: %w", in.CaseID, err)
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// validateInstruments splits the input into usable records and skipped ones.
// Duplicated instrument ids keep the first occurrence.
func validateInstruments(recs []models.InstrumentRecord) ([]models.InstrumentRecord, []models.SkippedInstrument) {
	var valid []models.InstrumentRecord
	var skipped []models.SkippedInstrument
	seen := make(map[string]bool, len(recs))

	for _, rec := range recs {
		switch {
		case rec.ID == "":
			skipped = append(skipped, models.SkippedInstrument{InstrumentID: "", Reason: "missing instrument id"})
		case seen[rec.ID]:
			skipped = append(skipped, models.SkippedInstrument{InstrumentID: rec.ID, Reason: "duplicate instrument id"})
		case !rec.DocType.IsValid():
			skipped = append(skipped, models.SkippedInstrument{InstrumentID: rec.ID, Reason: fmt.Sprintf("unsupported document type %q", rec.DocType)})
		case rec.RecordingDate.IsZero():
			skipped = append(skipped, models.SkippedInstrument{InstrumentID: rec.ID, Reason: "missing recording date"})
		case len(rec.PartyOne) == 0 && len(rec.PartyTwo) == 0:
			skipped = append(skipped, models.SkippedInstrument{InstrumentID: rec.ID, Reason: "no parties named"})
		default:
			seen[rec.ID] = true
			valid = append(valid, rec)
		}
	}
	return valid, skipped
}
