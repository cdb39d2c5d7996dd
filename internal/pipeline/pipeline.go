// Package pipeline runs one assessment end to end: normalize, match, analyze
// gaps, score.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/niana0/vendor-security-assessment-tool/internal/gap"
	"github.com/niana0/vendor-security-assessment-tool/internal/match"
	"github.com/niana0/vendor-security-assessment-tool/internal/metrics"
	"github.com/niana0/vendor-security-assessment-tool/internal/model"
	"github.com/niana0/vendor-security-assessment-tool/internal/normalize"
	"github.com/niana0/vendor-security-assessment-tool/internal/score"
	"github.com/niana0/vendor-security-assessment-tool/internal/similarity"
)

// Pipeline orchestrates the complete assessment
type Pipeline struct {
	normalizer *normalize.Normalizer
	similarity *similarity.Scorer
	matcher    *match.Matcher
	analyzer   *gap.Analyzer
	scorer     *score.Scorer
	metrics    *metrics.Metrics
	logger     *slog.Logger

	now   func() time.Time
	newID func() string
}

// New builds a pipeline from cfg. embedder may be nil for lexical-only matching.
func New(cfg model.Config, tokenizer *similarity.Tokenizer, embedder similarity.Embedder) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if tokenizer == nil {
		tokenizer = similarity.NewTokenizer(cfg.Tables.StopWords)
	}

	categorizer := normalize.NewCategorizer(cfg.Tables.CategoryRules)
	sim := similarity.NewScorer(cfg.Match, tokenizer, embedder)

	return &Pipeline{
		normalizer: normalize.NewNormalizer(cfg.Normalize, categorizer),
		similarity: sim,
		matcher:    match.NewMatcher(cfg.Match, sim, categorizer),
		analyzer:   gap.NewAnalyzer(cfg.Gaps, cfg.Tables),
		scorer:     score.NewScorer(cfg.Score, cfg.Tables),
		logger:     slog.Default(),
		now:        func() time.Time { return time.Now().UTC() },
		newID:      func() string { return uuid.NewString() },
	}, nil
}

// SetLogger replaces the logger on the pipeline and every stage
func (p *Pipeline) SetLogger(logger *slog.Logger) {
	if logger == nil {
		return
	}
	p.logger = logger
	p.normalizer.SetLogger(logger)
	p.similarity.SetLogger(logger)
	p.matcher.SetLogger(logger)
	p.analyzer.SetLogger(logger)
	p.scorer.SetLogger(logger)
}

// SetMetrics enables metric recording
func (p *Pipeline) SetMetrics(m *metrics.Metrics) {
	p.metrics = m
}

// Backend names the semantic similarity backend ("lexical" when there is none)
func (p *Pipeline) Backend() string {
	return p.similarity.Backend()
}

// Assess runs one vendor assessment. Structural input problems wrap
// model.ErrInvalidInput; embedding failures degrade the result instead of failing it.
func (p *Pipeline) Assess(ctx context.Context, input model.AssessmentInput) (*model.Assessment, error) {
	start := time.Now()

	assessment, err := p.assess(ctx, input)
	if err != nil {
		p.metrics.ObserveFailure()
		p.logger.Warn("assessment failed", "vendor", input.Vendor, "error", err)
		return nil, err
	}

	assessment.Duration = time.Since(start)
	p.metrics.ObserveAssessment(assessment, assessment.Duration)

	p.logger.Info("assessment complete",
		"id", assessment.ID,
		"vendor", assessment.Vendor,
		"evidence", assessment.Evidence.Len(),
		"questions", len(assessment.Results),
		"score", assessment.Report.OverallScore,
		"level", assessment.Report.OverallLevel,
		"degraded", assessment.Report.Degraded,
		"duration", assessment.Duration)
	return assessment, nil
}

func (p *Pipeline) assess(ctx context.Context, input model.AssessmentInput) (*model.Assessment, error) {
	// 1. Normalize and deduplicate evidence
	set := p.normalizer.Normalize(input.Evidence)

	// 2. Map questions onto evidence
	results, err := p.matcher.Match(ctx, input.Questions, set)
	if err != nil {
		return nil, fmt.Errorf("match: %w", err)
	}

	// 3. Gaps
	gaps := p.analyzer.Analyze(results)

	// 4. Score, with vendor profile and incidents feeding the threat model
	report, err := p.scorer.ScoreVendor(results, gaps, input.VendorContext())
	if err != nil {
		return nil, fmt.Errorf("score: %w", err)
	}
	report.Summary.EvidenceCount = set.Len()

	return &model.Assessment{
		ID:        p.newID(),
		Vendor:    input.Vendor,
		CreatedAt: p.now(),
		Backend:   p.similarity.Backend(),
		Evidence:  set,
		Results:   results,
		Report:    report,
	}, nil
}
