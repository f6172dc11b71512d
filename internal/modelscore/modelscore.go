// Package modelscore loads a trained linear model artifact and scores
// feature vectors with it. Loading is a one-time probe at startup: a
// missing or invalid artifact means the model is unavailable and the
// caller keeps using rule-based scoring.
package modelscore

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/yojanahub/avsar/internal/ranking"
)

// Artifact is the JSON structure of a trained model file.
type Artifact struct {
	Version      string             `json:"version"`
	Bias         float64            `json:"bias"`
	Coefficients map[string]float64 `json:"coefficients"` // factor -> learned coefficient
}

// Validate checks the artifact covers every scoring factor.
func (a *Artifact) Validate() error {
	if len(a.Coefficients) == 0 {
		return fmt.Errorf("model artifact has no coefficients")
	}
	for _, factor := range ranking.Factors {
		if _, ok := a.Coefficients[factor]; !ok {
			return fmt.Errorf("model artifact missing coefficient for factor %q", factor)
		}
	}
	return nil
}

// Scorer scores feature vectors with a loaded linear model. It is
// immutable after construction and safe for concurrent use.
type Scorer struct {
	artifact Artifact
}

// Load reads and validates a model artifact. Any failure returns an
// error; the caller treats that as "model unavailable" and falls back
// to rule scoring rather than aborting startup.
func Load(path string) (*Scorer, error) {
	if path == "" {
		return nil, fmt.Errorf("no model artifact path configured")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("failed to read model artifact, model scoring unavailable",
			"path", path,
			"error", err)
		return nil, fmt.Errorf("failed to read model artifact: %w", err)
	}

	var artifact Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		slog.Warn("failed to parse model artifact, model scoring unavailable",
			"path", path,
			"error", err)
		return nil, fmt.Errorf("failed to parse model artifact: %w", err)
	}

	if err := artifact.Validate(); err != nil {
		slog.Warn("model artifact failed validation, model scoring unavailable",
			"path", path,
			"error", err)
		return nil, err
	}

	slog.Info("model artifact loaded",
		"path", path,
		"version", artifact.Version)
	return &Scorer{artifact: artifact}, nil
}

// Score computes bias + Σ(coefficient × feature × multiplier), clamped
// to [0, 1]. The breakdown carries the unclamped per-factor terms so
// explanations can still name the strongest contributors.
func (s *Scorer) Score(f ranking.Features, multipliers map[string]float64) (float64, map[string]float64) {
	total := s.artifact.Bias
	breakdown := make(map[string]float64, len(ranking.Factors))

	for _, factor := range ranking.Factors {
		multiplier := 1.0
		if multipliers != nil {
			if m, ok := multipliers[factor]; ok {
				multiplier = m
			}
		}
		term := s.artifact.Coefficients[factor] * f.Of(factor) * multiplier
		breakdown[factor] = term
		total += term
	}

	if total < 0 {
		total = 0
	}
	if total > 1 {
		total = 1
	}
	return total, breakdown
}

// Method returns the scoring method tag for observability.
func (s *Scorer) Method() string {
	return ranking.MethodModel
}

// Version returns the loaded artifact version.
func (s *Scorer) Version() string {
	return s.artifact.Version
}
