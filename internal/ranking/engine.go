package ranking

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/yojanahub/avsar/internal/catalog"
)

// DefaultTopK is the default result list length when the caller does not
// specify one.
const DefaultTopK = 10

// ScoreResult is one ranked entry. Results are created fresh per ranking
// call and never mutated after construction.
type ScoreResult struct {
	ID            string             `json:"id"`
	Score         float64            `json:"score"`
	Breakdown     map[string]float64 `json:"breakdown"`
	Confidence    float64            `json:"confidence"`
	ExplanationEN string             `json:"explanation_en,omitempty"`
	ExplanationHI string             `json:"explanation_hi,omitempty"`
	ScoringMethod string             `json:"scoring_method"`
}

// SkippedCandidate records one candidate rejected from a batch, with the
// input position and the reason. The engine scores the valid remainder
// instead of failing the whole call.
type SkippedCandidate struct {
	Index  int    `json:"index"`
	ID     string `json:"id,omitempty"`
	Reason string `json:"reason"`
}

// RankResult is the outcome of one ranking call.
type RankResult struct {
	Results []ScoreResult      `json:"results"`
	Skipped []SkippedCandidate `json:"skipped,omitempty"`

	// ScoringMethod tags which scorer produced the results.
	ScoringMethod string `json:"scoring_method"`
}

// RankRequest carries the inputs for one ranking call.
type RankRequest struct {
	Profile    catalog.Profile
	Candidates []catalog.Opportunity

	// TopK truncates the result list. Zero returns an empty list; a
	// negative value selects the engine default.
	TopK int

	// IncludeReasoning enables bilingual explanation strings on results.
	IncludeReasoning bool

	// MaxItems caps how many candidates are scored, in input order.
	// Zero means no cap.
	MaxItems int
}

// Explainer builds bilingual reasoning strings from a score breakdown.
type Explainer interface {
	Build(breakdown map[string]float64) (en, hi string)
}

// EngineConfig configures a ranking engine.
type EngineConfig struct {
	// Extractor tunes feature extraction.
	Extractor ExtractorConfig

	// Weights configures the rule scorer. Validated at construction.
	Weights Weights

	// Model is an optional learned scorer. The caller probes its
	// availability once at startup; nil means unavailable and every
	// call scores with the rule scorer.
	Model Scorer

	// Multipliers supplies feedback-derived weight multipliers. Nil
	// means every multiplier is the neutral 1.0.
	Multipliers MultiplierSource

	// Explainer builds reasoning strings when requested. Nil disables
	// explanations regardless of the request flag.
	Explainer Explainer

	// DefaultTopK applies when a request leaves TopK negative.
	// Zero selects DefaultTopK.
	DefaultTopK int

	// Logger for engine activity.
	Logger *slog.Logger

	// Metrics for ranking instrumentation.
	Metrics *Metrics

	// Tracer for distributed tracing spans around ranking calls.
	Tracer trace.Tracer
}

// Engine orchestrates feature extraction, scoring, confidence estimation,
// explanation, sorting, and truncation. It holds no mutable state, so
// ranking calls are safe to execute in parallel.
type Engine struct {
	extractor   *Extractor
	rule        *RuleScorer
	scorer      Scorer
	multipliers MultiplierSource
	explainer   Explainer
	defaultTopK int
	logger      *slog.Logger
	metrics     *Metrics
	tracer      trace.Tracer
}

// NewEngine creates a ranking engine. The scorer is selected once here:
// the learned model when available, otherwise the rule scorer. The
// fallback is invisible to callers except for the scoring_method tag on
// results.
func NewEngine(config EngineConfig) (*Engine, error) {
	rule, err := NewRuleScorer(config.Weights)
	if err != nil {
		return nil, err
	}

	scorer := Scorer(rule)
	if config.Model != nil {
		scorer = config.Model
	}

	if config.DefaultTopK <= 0 {
		config.DefaultTopK = DefaultTopK
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &Engine{
		extractor:   NewExtractor(config.Extractor),
		rule:        rule,
		scorer:      scorer,
		multipliers: config.Multipliers,
		explainer:   config.Explainer,
		defaultTopK: config.DefaultTopK,
		logger:      config.Logger,
		metrics:     config.Metrics,
		tracer:      config.Tracer,
	}, nil
}

// ScoringMethod returns the method tag of the scorer selected at
// construction.
func (e *Engine) ScoringMethod() string {
	return e.scorer.Method()
}

// scored pairs a result with the sort keys that are not part of the
// caller-visible payload.
type scored struct {
	result   ScoreResult
	deadline time.Time
}

// Rank scores the candidate batch against the profile and returns results
// sorted by score descending, tie-broken by deadline ascending (absent
// deadlines last) then by id ascending. Neither the profile nor the
// candidate slice is mutated. An empty batch returns an empty result.
func (e *Engine) Rank(ctx context.Context, req RankRequest) (*RankResult, error) {
	start := time.Now()

	if e.tracer != nil {
		var span trace.Span
		ctx, span = e.tracer.Start(ctx, "ranking.Rank",
			trace.WithAttributes(
				attribute.Int("ranking.candidates", len(req.Candidates)),
				attribute.String("ranking.method", e.scorer.Method()),
			))
		defer span.End()
	}

	if err := req.Profile.Validate(); err != nil {
		return nil, NewValidationError("profile", err.Error())
	}

	topK := req.TopK
	if topK < 0 {
		topK = e.defaultTopK
	}

	out := &RankResult{
		Results:       []ScoreResult{},
		ScoringMethod: e.scorer.Method(),
	}

	multipliers := e.multipliersFor(req.Profile.UserID)

	entries := make([]scored, 0, len(req.Candidates))
	for i := range req.Candidates {
		if req.MaxItems > 0 && len(entries) >= req.MaxItems {
			break
		}

		// Index the original slice to avoid copying per iteration; the
		// candidate is never written to.
		opp := &req.Candidates[i]

		if err := opp.Validate(); err != nil {
			out.Skipped = append(out.Skipped, SkippedCandidate{
				Index:  i,
				ID:     opp.ID,
				Reason: err.Error(),
			})
			continue
		}

		features := e.extractor.Extract(&req.Profile, opp)
		total, breakdown := e.scorer.Score(features, multipliers)

		result := ScoreResult{
			ID:            opp.ID,
			Score:         total,
			Breakdown:     breakdown,
			Confidence:    Confidence(features),
			ScoringMethod: e.scorer.Method(),
		}

		if req.IncludeReasoning && e.explainer != nil {
			result.ExplanationEN, result.ExplanationHI = e.explainer.Build(breakdown)
		}

		entries = append(entries, scored{result: result, deadline: opp.LastDate})
	}

	sortScored(entries)

	if topK > len(entries) {
		topK = len(entries)
	}
	for _, entry := range entries[:topK] {
		out.Results = append(out.Results, entry.result)
	}

	if e.metrics != nil {
		e.metrics.IncRankRequests(out.ScoringMethod)
		e.metrics.ObserveRankDuration(time.Since(start).Seconds())
		e.metrics.AddCandidatesScored(len(entries))
		e.metrics.AddCandidatesSkipped(len(out.Skipped))
	}

	e.logger.Debug("ranking completed",
		"user_id", req.Profile.UserID,
		"candidates", len(req.Candidates),
		"scored", len(entries),
		"skipped", len(out.Skipped),
		"returned", len(out.Results),
		"method", out.ScoringMethod)

	return out, nil
}

// multipliersFor snapshots the user's factor multipliers for one ranking
// call. Reads may be slightly stale; strict linearizability is not
// required.
func (e *Engine) multipliersFor(userID string) map[string]float64 {
	if e.multipliers == nil {
		return nil
	}
	multipliers := make(map[string]float64, len(Factors))
	for _, factor := range Factors {
		multipliers[factor] = e.multipliers.MultiplierFor(userID, factor)
	}
	return multipliers
}

// sortScored orders entries by score descending, then deadline ascending
// with absent deadlines last, then id ascending.
func sortScored(entries []scored) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.result.Score != b.result.Score {
			return a.result.Score > b.result.Score
		}
		aHas, bHas := !a.deadline.IsZero(), !b.deadline.IsZero()
		if aHas != bHas {
			return aHas
		}
		if aHas && !a.deadline.Equal(b.deadline) {
			return a.deadline.Before(b.deadline)
		}
		return a.result.ID < b.result.ID
	})
}
