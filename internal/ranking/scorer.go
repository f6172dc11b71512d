package ranking

// Scoring method tags reported on results for observability.
const (
	MethodRule  = "rule"
	MethodModel = "model"
)

// Scorer is the capability shared by the rule scorer and any pluggable
// learned scorer: turn a feature vector into a total score and a
// per-factor breakdown. Implementations must be deterministic and safe
// for concurrent use.
type Scorer interface {
	// Score returns the total score and the per-factor contributions.
	// The multipliers map adjusts factor weights and may be nil, in
	// which case every multiplier is 1.0. The breakdown always sums to
	// the total within floating-point epsilon.
	Score(f Features, multipliers map[string]float64) (float64, map[string]float64)

	// Method returns the scoring method tag (MethodRule or MethodModel).
	Method() string
}

// MultiplierSource provides feedback-derived weight multipliers keyed by
// (user, factor). A source must return the neutral multiplier 1.0 for
// keys it has never seen.
type MultiplierSource interface {
	MultiplierFor(userID, factor string) float64
}

// RuleScorer is the deterministic weighted-sum scorer. It is always
// available, holds no external state, and produces identical output for
// identical input.
type RuleScorer struct {
	weights Weights
}

// NewRuleScorer creates a RuleScorer after validating the weight
// configuration. Construction fails with a ValidationError when weights
// are negative or do not sum to 1.0; weights are never silently
// renormalized.
func NewRuleScorer(weights Weights) (*RuleScorer, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	return &RuleScorer{weights: weights}, nil
}

// Weights returns a copy of the scorer's weight configuration.
func (s *RuleScorer) Weights() Weights {
	return s.weights
}

// Score computes total = Σ(weight_i × feature_i × multiplier_i). Without
// multipliers the total lies in [0, 1]; a multiplier above 1.0 can push
// it beyond, so callers must not assume an upper bound.
func (s *RuleScorer) Score(f Features, multipliers map[string]float64) (float64, map[string]float64) {
	breakdown := make(map[string]float64, len(Factors))
	var total float64

	for _, factor := range Factors {
		multiplier := 1.0
		if m, ok := multipliers[factor]; ok {
			multiplier = m
		}
		contribution := s.weights.Of(factor) * f.Of(factor) * multiplier
		breakdown[factor] = contribution
		total += contribution
	}

	return total, breakdown
}

// Method returns MethodRule.
func (s *RuleScorer) Method() string {
	return MethodRule
}
