package modelscore

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/yojanahub/avsar/internal/ranking"
)

// The model scorer must satisfy the ranking engine's scorer contract.
var _ ranking.Scorer = (*Scorer)(nil)

func writeArtifact(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write model artifact: %v", err)
	}
	return path
}

const validArtifact = `{
	"version": "2026-08-01",
	"bias": 0.05,
	"coefficients": {
		"education": 0.22,
		"age": 0.18,
		"location": 0.20,
		"category": 0.23,
		"salary": 0.12
	}
}`

// TestLoadValidArtifact verifies a complete artifact loads.
func TestLoadValidArtifact(t *testing.T) {
	scorer, err := Load(writeArtifact(t, validArtifact))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if scorer.Method() != ranking.MethodModel {
		t.Errorf("Method() = %q, want %q", scorer.Method(), ranking.MethodModel)
	}
	if scorer.Version() != "2026-08-01" {
		t.Errorf("Version() = %q, want 2026-08-01", scorer.Version())
	}
}

// TestLoadUnavailable verifies every failure mode returns an error so
// the caller falls back to rule scoring.
func TestLoadUnavailable(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{name: "empty path", path: func(t *testing.T) string { return "" }},
		{name: "missing file", path: func(t *testing.T) string { return "/nonexistent/model.json" }},
		{name: "invalid json", path: func(t *testing.T) string { return writeArtifact(t, "{not json") }},
		{name: "no coefficients", path: func(t *testing.T) string {
			return writeArtifact(t, `{"version":"1","bias":0.1,"coefficients":{}}`)
		}},
		{name: "missing factor", path: func(t *testing.T) string {
			return writeArtifact(t, `{"version":"1","bias":0.1,"coefficients":{"education":0.5}}`)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(tt.path(t)); err == nil {
				t.Error("expected Load to fail")
			}
		})
	}
}

// TestScoreClamped verifies outputs stay in [0, 1].
func TestScoreClamped(t *testing.T) {
	scorer, err := Load(writeArtifact(t, validArtifact))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	perfect := ranking.Features{Education: 1, AgeFit: 1, Location: 1, Category: 1, Salary: 1}
	boosted, _ := scorer.Score(perfect, map[string]float64{
		"education": 1.5, "age": 1.5, "location": 1.5, "category": 1.5, "salary": 1.5,
	})
	if boosted != 1.0 {
		t.Errorf("heavily boosted score = %f, want clamp at 1.0", boosted)
	}

	empty, _ := scorer.Score(ranking.Features{}, nil)
	if empty < 0 || empty > 1 {
		t.Errorf("score %f outside [0,1]", empty)
	}
}

// TestScoreLinearTerms verifies the per-factor terms.
func TestScoreLinearTerms(t *testing.T) {
	scorer, err := Load(writeArtifact(t, validArtifact))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	f := ranking.Features{Education: 1, AgeFit: 0.5, Location: 1, Category: 0, Salary: 0.35}
	total, breakdown := scorer.Score(f, nil)

	want := 0.05 + 0.22*1 + 0.18*0.5 + 0.20*1 + 0.23*0 + 0.12*0.35
	if math.Abs(total-want) > 1e-9 {
		t.Errorf("score = %f, want %f", total, want)
	}
	if math.Abs(breakdown["age"]-0.09) > 1e-9 {
		t.Errorf("age term = %f, want 0.09", breakdown["age"])
	}
}

// TestModelScorerInEngine verifies end-to-end fallback wiring: a failed
// load leaves the engine on rule scoring, a successful load switches it.
func TestModelScorerInEngine(t *testing.T) {
	var model ranking.Scorer
	if loaded, err := Load("/nonexistent/model.json"); err == nil {
		model = loaded
	}

	engine, err := ranking.NewEngine(ranking.EngineConfig{
		Weights: *ranking.DefaultWeights(),
		Model:   model,
	})
	if err != nil {
		t.Fatalf("failed to construct engine: %v", err)
	}
	if engine.ScoringMethod() != ranking.MethodRule {
		t.Errorf("engine should fall back to rule scoring, got %q", engine.ScoringMethod())
	}

	loaded, err := Load(writeArtifact(t, validArtifact))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	engine, err = ranking.NewEngine(ranking.EngineConfig{
		Weights: *ranking.DefaultWeights(),
		Model:   loaded,
	})
	if err != nil {
		t.Fatalf("failed to construct engine: %v", err)
	}
	if engine.ScoringMethod() != ranking.MethodModel {
		t.Errorf("engine should use the loaded model, got %q", engine.ScoringMethod())
	}
}
