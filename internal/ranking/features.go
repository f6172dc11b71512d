package ranking

import (
	"strings"
	"unicode"

	"github.com/yojanahub/avsar/internal/catalog"
)

// NeutralSignal is the feature value substituted when a signal cannot be
// derived from the available data (missing salary, absent age bounds,
// unrecognized education level). Neutral substitutions lower the result's
// confidence but never exclude an item from ranking.
const NeutralSignal = 0.5

// Default extraction tuning.
const (
	// DefaultAgeDecayYears is the width of the linear decay applied when
	// the applicant's age falls outside an opportunity's bounds. An
	// applicant this many years outside the bounds scores 0.
	DefaultAgeDecayYears = 10

	// DefaultSalaryReference is the monthly salary (in rupees) that maps
	// to a salary desirability of 1.0. Lower salaries scale linearly.
	DefaultSalaryReference = 100000
)

// ExtractorConfig tunes feature extraction.
type ExtractorConfig struct {
	// AgeDecayYears is the linear decay width for out-of-bounds ages.
	AgeDecayYears int

	// SalaryReference is the salary value that normalizes to 1.0.
	SalaryReference float64
}

// DefaultExtractorConfig returns the default extraction tuning.
func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		AgeDecayYears:   DefaultAgeDecayYears,
		SalaryReference: DefaultSalaryReference,
	}
}

// Features is the normalized comparison vector derived from one
// (profile, opportunity) pair. Every component lies in [0, 1].
type Features struct {
	Education float64 // Education match [0, 1]
	AgeFit    float64 // Age fit [0, 1]
	Location  float64 // Location match [0, 1]
	Category  float64 // Category match [0, 1]
	Salary    float64 // Salary desirability [0, 1]

	// Neutral counts the components that resolved to NeutralSignal
	// because the underlying data was missing or unparseable. Used by
	// confidence estimation.
	Neutral int
}

// Of returns the feature value for the named factor. Unknown factors
// return 0.
func (f Features) Of(factor string) float64 {
	switch factor {
	case FactorEducation:
		return f.Education
	case FactorAge:
		return f.AgeFit
	case FactorLocation:
		return f.Location
	case FactorCategory:
		return f.Category
	case FactorSalary:
		return f.Salary
	default:
		return 0
	}
}

// Extractor derives feature vectors from raw records. It is a pure
// function of its inputs and holds no mutable state, so a single instance
// is safe for concurrent use.
type Extractor struct {
	config ExtractorConfig
}

// NewExtractor creates an Extractor, substituting defaults for zero
// config values.
func NewExtractor(config ExtractorConfig) *Extractor {
	if config.AgeDecayYears <= 0 {
		config.AgeDecayYears = DefaultAgeDecayYears
	}
	if config.SalaryReference <= 0 {
		config.SalaryReference = DefaultSalaryReference
	}
	return &Extractor{config: config}
}

// Extract derives the feature vector for one (profile, opportunity) pair.
// Extraction never fails for an opportunity that passed validation;
// unknown or unparseable sub-fields degrade to NeutralSignal.
func (e *Extractor) Extract(profile *catalog.Profile, opp *catalog.Opportunity) Features {
	var f Features

	f.Education = e.educationMatch(profile, opp, &f.Neutral)
	f.AgeFit = e.ageFit(profile, opp, &f.Neutral)
	f.Location = e.locationMatch(profile, opp, &f.Neutral)
	f.Category = e.categoryMatch(profile, opp, &f.Neutral)
	f.Salary = e.salaryDesirability(opp, &f.Neutral)

	return f
}

// educationMatch scores how the profile's education level compares to the
// opportunity's requirement. Meeting or exceeding the requirement scores
// 1.0 (overqualification is not penalized); falling short decays linearly
// with distance on the ordered education scale.
func (e *Extractor) educationMatch(profile *catalog.Profile, opp *catalog.Opportunity, neutral *int) float64 {
	reqRank, reqOK := catalog.EducationRank(opp.EducationRequired)
	profRank, profOK := catalog.EducationRank(profile.Education)

	if !reqOK || !profOK {
		*neutral++
		return NeutralSignal
	}

	if profRank >= reqRank {
		return 1.0
	}

	distance := float64(reqRank - profRank)
	score := 1.0 - distance/float64(catalog.EducationScaleMax())
	if score < 0 {
		score = 0
	}
	return score
}

// ageFit scores how the applicant's age fits the opportunity's bounds.
// Inside the bounds scores 1.0; outside decays linearly, reaching 0 at
// AgeDecayYears beyond the violated bound. Absent bounds are neutral.
func (e *Extractor) ageFit(profile *catalog.Profile, opp *catalog.Opportunity, neutral *int) float64 {
	if opp.AgeMin == 0 && opp.AgeMax == 0 {
		*neutral++
		return NeutralSignal
	}

	var delta int
	switch {
	case opp.AgeMin > 0 && profile.Age < opp.AgeMin:
		delta = opp.AgeMin - profile.Age
	case opp.AgeMax > 0 && profile.Age > opp.AgeMax:
		delta = profile.Age - opp.AgeMax
	default:
		return 1.0
	}

	score := 1.0 - float64(delta)/float64(e.config.AgeDecayYears)
	if score < 0 {
		score = 0
	}
	return score
}

// locationMatch scores 1.0 when the opportunity applies everywhere or to
// the applicant's region, 0.0 on a mismatch. A mismatch is a strong
// negative signal but never excludes the item from ranking.
func (e *Extractor) locationMatch(profile *catalog.Profile, opp *catalog.Opportunity, neutral *int) float64 {
	region := strings.ToLower(strings.TrimSpace(opp.State))
	if region == "" {
		*neutral++
		return NeutralSignal
	}
	if region == catalog.RegionAll {
		return 1.0
	}
	if strings.EqualFold(region, strings.TrimSpace(profile.State)) {
		return 1.0
	}
	return 0.0
}

// categoryMatch scores 1.0 when the opportunity's category is among the
// profile's preferences, 0.0 otherwise.
func (e *Extractor) categoryMatch(profile *catalog.Profile, opp *catalog.Opportunity, neutral *int) float64 {
	if strings.TrimSpace(opp.Category) == "" {
		*neutral++
		return NeutralSignal
	}
	if profile.PrefersCategory(opp.Category) {
		return 1.0
	}
	return 0.0
}

// salaryDesirability normalizes the advertised salary against the
// reference scale, clamped to [0, 1]. Missing or unparseable values are
// neutral.
func (e *Extractor) salaryDesirability(opp *catalog.Opportunity, neutral *int) float64 {
	amount, ok := ParseSalary(opp.Salary)
	if !ok {
		*neutral++
		return NeutralSignal
	}

	score := amount / e.config.SalaryReference
	if score > 1.0 {
		score = 1.0
	}
	if score < 0 {
		score = 0
	}
	return score
}

// ParseSalary extracts the first numeric amount from a salary string such
// as "₹35,000", "35000", or "₹35,000 - ₹40,000/month". Digit grouping
// separators are ignored. Returns (0, false) when no amount is present.
func ParseSalary(s string) (float64, bool) {
	var amount float64
	var seen bool

	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			amount = amount*10 + float64(r-'0')
			seen = true
		case r == ',' && seen:
			// Grouping separator inside a number, keep accumulating.
		default:
			if seen {
				return amount, true
			}
		}
	}

	return amount, seen
}
