package feedback

import (
	"testing"
	"time"
)

// TestLabelWeight verifies the label-to-weight mapping and rejection of
// unknown labels.
func TestLabelWeight(t *testing.T) {
	tests := []struct {
		label string
		want  float64
	}{
		{label: LabelApplied, want: 1.0},
		{label: LabelSaved, want: 0.8},
		{label: LabelClicked, want: 0.6},
		{label: LabelViewedLong, want: 0.4},
		{label: LabelSkipped, want: 0.1},
		{label: LabelRejected, want: 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, err := LabelWeight(tt.label)
			if err != nil {
				t.Fatalf("LabelWeight(%q) error = %v", tt.label, err)
			}
			if got != tt.want {
				t.Errorf("LabelWeight(%q) = %f, want %f", tt.label, got, tt.want)
			}
		})
	}

	if _, err := LabelWeight("bookmarked"); err != ErrUnknownLabel {
		t.Errorf("expected ErrUnknownLabel for unknown label, got %v", err)
	}
}

// TestValidLabel verifies label membership checks.
func TestValidLabel(t *testing.T) {
	for _, label := range Labels() {
		if !ValidLabel(label) {
			t.Errorf("ValidLabel(%q) = false, want true", label)
		}
	}
	if ValidLabel("") || ValidLabel("liked") {
		t.Error("unknown labels should not validate")
	}
}

// TestEventValidate verifies required field checks.
func TestEventValidate(t *testing.T) {
	valid := Event{
		ID:        "evt-1",
		UserID:    "user-1",
		ItemID:    "job-1",
		Label:     LabelApplied,
		Weight:    1.0,
		Timestamp: time.Now(),
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid event failed validation: %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(*Event)
		wantErr error
	}{
		{name: "missing user id", mutate: func(e *Event) { e.UserID = "" }, wantErr: ErrMissingUserID},
		{name: "missing item id", mutate: func(e *Event) { e.ItemID = "" }, wantErr: ErrMissingItemID},
		{name: "unknown label", mutate: func(e *Event) { e.Label = "liked" }, wantErr: ErrUnknownLabel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := valid
			tt.mutate(&e)
			if err := e.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
