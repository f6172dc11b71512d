// Package catalog defines the profile and opportunity records that the
// ranking engine consumes, along with the ordered education scale used
// for qualification matching.
package catalog

import (
	"errors"
	"strings"
	"time"
)

// Education level constants, ordered from lowest to highest qualification.
const (
	EducationBelow10th    = "below_10th"
	Education10th         = "10th"
	Education12th         = "12th"
	EducationDiploma      = "diploma"
	EducationGraduate     = "graduate"
	EducationPostgraduate = "postgraduate"
	EducationDoctorate    = "doctorate"
)

// educationRank maps education levels to their position on the ordered scale.
// Higher rank means higher qualification.
var educationRank = map[string]int{
	EducationBelow10th:    0,
	Education10th:         1,
	Education12th:         2,
	EducationDiploma:      3,
	EducationGraduate:     4,
	EducationPostgraduate: 5,
	EducationDoctorate:    6,
}

// RegionAll is the region code meaning an opportunity applies everywhere.
const RegionAll = "all"

// Validation errors.
var (
	ErrMissingID      = errors.New("opportunity is missing a unique id")
	ErrMissingUserID  = errors.New("profile is missing a user id")
	ErrNegativeAge    = errors.New("profile age cannot be negative")
	ErrNegativeSalary = errors.New("salary expectation cannot be negative")
)

// EducationRank returns the position of an education level on the ordered
// scale and whether the level is recognized. Lookup is case-insensitive and
// tolerant of surrounding whitespace; unrecognized levels return (0, false)
// so callers can degrade to a neutral signal instead of failing.
func EducationRank(level string) (int, bool) {
	rank, ok := educationRank[strings.ToLower(strings.TrimSpace(level))]
	return rank, ok
}

// EducationScaleMax returns the highest rank on the education scale.
func EducationScaleMax() int {
	return educationRank[EducationDoctorate]
}

// Profile holds the applicant attributes used for matching. The ranking
// engine treats a profile as an immutable input per call.
type Profile struct {
	UserID string `json:"user_id"`

	// Education is one of the ordered education level constants.
	Education string `json:"education"`

	// Age in years.
	Age int `json:"age"`

	// State is the applicant's state or region code.
	State string `json:"state"`

	// Categories are the applicant's preferred opportunity categories.
	Categories []string `json:"categories"`

	// SalaryExpectation is the desired monthly salary. Zero means unset.
	SalaryExpectation float64 `json:"salary_expectation,omitempty"`
}

// Validate checks that the profile's structural fields are well formed.
// Unknown education levels are not an error here; feature extraction
// degrades them to a neutral signal.
func (p *Profile) Validate() error {
	if p.UserID == "" {
		return ErrMissingUserID
	}
	if p.Age < 0 {
		return ErrNegativeAge
	}
	if p.SalaryExpectation < 0 {
		return ErrNegativeSalary
	}
	return nil
}

// PrefersCategory reports whether the profile lists the given category
// among its preferences. Comparison is case-insensitive.
func (p *Profile) PrefersCategory(category string) bool {
	for _, c := range p.Categories {
		if strings.EqualFold(strings.TrimSpace(c), strings.TrimSpace(category)) {
			return true
		}
	}
	return false
}

// Opportunity is a job or government scheme record being ranked.
// Optional numeric fields use zero as "absent": an AgeMin/AgeMax of 0 means
// no bound, and a zero LastDate means no deadline.
type Opportunity struct {
	ID       string `json:"id"`
	Category string `json:"category"`

	// EducationRequired is the minimum education level, on the same
	// ordered scale as Profile.Education.
	EducationRequired string `json:"education_required"`

	// AgeMin and AgeMax bound eligibility in years. Zero means no bound.
	AgeMin int `json:"age_min,omitempty"`
	AgeMax int `json:"age_max,omitempty"`

	// State is a specific region code, or RegionAll.
	State string `json:"state"`

	// Salary is the advertised salary or benefit value. It may be a
	// formatted amount like "₹35,000" or descriptive text; unparseable
	// values degrade to a neutral salary signal.
	Salary string `json:"salary,omitempty"`

	// Qualification is the free-text qualification description.
	Qualification string `json:"qualification,omitempty"`

	// LastDate is the application deadline. Zero means no deadline.
	LastDate time.Time `json:"last_date,omitempty"`
}

// Validate checks that the opportunity carries the fields the engine
// cannot substitute defaults for. An opportunity failing validation is
// skipped from the batch rather than aborting the whole ranking call.
func (o *Opportunity) Validate() error {
	if o.ID == "" {
		return ErrMissingID
	}
	return nil
}

// HasDeadline reports whether the opportunity carries a deadline.
func (o *Opportunity) HasDeadline() bool {
	return !o.LastDate.IsZero()
}
