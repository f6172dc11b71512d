package ranking

import (
	"fmt"
	"math"
)

// Factor names used in weight maps, score breakdowns, and the feedback
// ledger's multiplier keys.
const (
	FactorEducation = "education"
	FactorAge       = "age"
	FactorLocation  = "location"
	FactorCategory  = "category"
	FactorSalary    = "salary"
)

// Factors lists all scoring factors in canonical order.
var Factors = []string{
	FactorEducation,
	FactorAge,
	FactorLocation,
	FactorCategory,
	FactorSalary,
}

// WeightSumEpsilon is the tolerance when checking that weights sum to 1.0.
const WeightSumEpsilon = 1e-6

// Weights defines the rule scorer's per-factor weights. A valid
// configuration has non-negative weights summing to 1.0 within
// WeightSumEpsilon; the scorer refuses to construct otherwise rather than
// silently renormalizing.
type Weights struct {
	Education float64 `json:"education"` // Weight for education match (default: 0.25)
	Age       float64 `json:"age"`       // Weight for age fit (default: 0.20)
	Location  float64 `json:"location"`  // Weight for location match (default: 0.20)
	Category  float64 `json:"category"`  // Weight for category match (default: 0.20)
	Salary    float64 `json:"salary"`    // Weight for salary desirability (default: 0.15)
}

// DefaultWeights returns the default rule scoring weight configuration.
//
// Formula: score = (education * 0.25) + (age * 0.20) + (location * 0.20) +
// (category * 0.20) + (salary * 0.15), each term further scaled by the
// factor's feedback multiplier when one exists.
func DefaultWeights() *Weights {
	return &Weights{
		Education: 0.25,
		Age:       0.20,
		Location:  0.20,
		Category:  0.20,
		Salary:    0.15,
	}
}

// Of returns the weight for the named factor. Unknown factors weigh zero.
func (w *Weights) Of(factor string) float64 {
	switch factor {
	case FactorEducation:
		return w.Education
	case FactorAge:
		return w.Age
	case FactorLocation:
		return w.Location
	case FactorCategory:
		return w.Category
	case FactorSalary:
		return w.Salary
	default:
		return 0
	}
}

// Sum returns the total of all factor weights.
func (w *Weights) Sum() float64 {
	return w.Education + w.Age + w.Location + w.Category + w.Salary
}

// Validate checks that all weights are non-negative and sum to 1.0 within
// WeightSumEpsilon. Returns a ValidationError describing the first
// violation found.
func (w *Weights) Validate() error {
	for _, factor := range Factors {
		if w.Of(factor) < 0 {
			return NewValidationError("weights."+factor, fmt.Sprintf("weight must be non-negative, got %f", w.Of(factor)))
		}
	}
	if sum := w.Sum(); math.Abs(sum-1.0) > WeightSumEpsilon {
		return NewValidationError("weights", fmt.Sprintf("weights must sum to 1.0, got %f", sum))
	}
	return nil
}
