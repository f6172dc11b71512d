package catalog

import (
	"testing"
	"time"
)

// TestEducationRank tests the ordered education scale lookup.
func TestEducationRank(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		wantRank int
		wantOK   bool
	}{
		{name: "lowest level", level: EducationBelow10th, wantRank: 0, wantOK: true},
		{name: "graduate", level: EducationGraduate, wantRank: 4, wantOK: true},
		{name: "doctorate is highest", level: EducationDoctorate, wantRank: 6, wantOK: true},
		{name: "case insensitive", level: "Graduate", wantRank: 4, wantOK: true},
		{name: "surrounding whitespace", level: "  postgraduate ", wantRank: 5, wantOK: true},
		{name: "unknown level", level: "certificate", wantRank: 0, wantOK: false},
		{name: "empty level", level: "", wantRank: 0, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rank, ok := EducationRank(tt.level)
			if ok != tt.wantOK {
				t.Fatalf("EducationRank(%q) ok = %v, want %v", tt.level, ok, tt.wantOK)
			}
			if rank != tt.wantRank {
				t.Errorf("EducationRank(%q) = %d, want %d", tt.level, rank, tt.wantRank)
			}
		})
	}
}

// TestEducationScaleOrder verifies the scale is strictly increasing in the
// documented order.
func TestEducationScaleOrder(t *testing.T) {
	order := []string{
		EducationBelow10th,
		Education10th,
		Education12th,
		EducationDiploma,
		EducationGraduate,
		EducationPostgraduate,
		EducationDoctorate,
	}

	prev := -1
	for _, level := range order {
		rank, ok := EducationRank(level)
		if !ok {
			t.Fatalf("level %q not recognized", level)
		}
		if rank <= prev {
			t.Errorf("level %q rank %d is not greater than previous rank %d", level, rank, prev)
		}
		prev = rank
	}

	if EducationScaleMax() != prev {
		t.Errorf("EducationScaleMax() = %d, want %d", EducationScaleMax(), prev)
	}
}

// TestProfileValidate tests structural profile validation.
func TestProfileValidate(t *testing.T) {
	tests := []struct {
		name    string
		profile Profile
		wantErr error
	}{
		{
			name:    "valid profile",
			profile: Profile{UserID: "user-1", Education: EducationGraduate, Age: 25, State: "BR"},
			wantErr: nil,
		},
		{
			name:    "missing user id",
			profile: Profile{Education: EducationGraduate, Age: 25},
			wantErr: ErrMissingUserID,
		},
		{
			name:    "negative age",
			profile: Profile{UserID: "user-1", Age: -1},
			wantErr: ErrNegativeAge,
		},
		{
			name:    "negative salary expectation",
			profile: Profile{UserID: "user-1", Age: 25, SalaryExpectation: -100},
			wantErr: ErrNegativeSalary,
		},
		{
			name:    "unknown education is not a validation error",
			profile: Profile{UserID: "user-1", Education: "certificate", Age: 25},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.profile.Validate()
			if err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestProfilePrefersCategory tests preferred category matching.
func TestProfilePrefersCategory(t *testing.T) {
	profile := Profile{
		UserID:     "user-1",
		Categories: []string{"Railway", "Bank"},
	}

	if !profile.PrefersCategory("Railway") {
		t.Error("expected exact category to match")
	}
	if !profile.PrefersCategory("railway") {
		t.Error("expected case-insensitive category to match")
	}
	if !profile.PrefersCategory(" bank ") {
		t.Error("expected whitespace-padded category to match")
	}
	if profile.PrefersCategory("Defence") {
		t.Error("expected unlisted category not to match")
	}

	empty := Profile{UserID: "user-2"}
	if empty.PrefersCategory("Railway") {
		t.Error("expected profile with no preferences not to match")
	}
}

// TestOpportunityValidate tests per-item candidate validation.
func TestOpportunityValidate(t *testing.T) {
	valid := Opportunity{ID: "job-1", Category: "Railway"}
	if err := valid.Validate(); err != nil {
		t.Errorf("expected valid opportunity, got %v", err)
	}

	missing := Opportunity{Category: "Railway"}
	if err := missing.Validate(); err != ErrMissingID {
		t.Errorf("expected ErrMissingID, got %v", err)
	}
}

// TestOpportunityHasDeadline tests deadline presence detection.
func TestOpportunityHasDeadline(t *testing.T) {
	noDeadline := Opportunity{ID: "job-1"}
	if noDeadline.HasDeadline() {
		t.Error("zero LastDate should mean no deadline")
	}

	withDeadline := Opportunity{ID: "job-2", LastDate: time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)}
	if !withDeadline.HasDeadline() {
		t.Error("expected deadline to be present")
	}
}
