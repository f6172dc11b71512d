// Package feedback records user interactions with ranked opportunities
// and derives per-user factor multipliers from them. The multipliers
// feed back into ranking so repeated engagement with a factor boosts it
// and repeated rejection dampens it, within bounded limits.
package feedback

import (
	"errors"
	"time"
)

// Interaction labels, ordered from strongest positive signal to
// strongest negative.
const (
	LabelApplied    = "applied"
	LabelSaved      = "saved"
	LabelClicked    = "clicked"
	LabelViewedLong = "viewed_long"
	LabelSkipped    = "skipped"
	LabelRejected   = "rejected"
)

// labelWeights maps each interaction label to its training weight.
var labelWeights = map[string]float64{
	LabelApplied:    1.0,
	LabelSaved:      0.8,
	LabelClicked:    0.6,
	LabelViewedLong: 0.4,
	LabelSkipped:    0.1,
	LabelRejected:   0.0,
}

// Validation errors.
var (
	ErrUnknownLabel  = errors.New("unknown feedback label")
	ErrMissingUserID = errors.New("feedback event requires a user id")
	ErrMissingItemID = errors.New("feedback event requires an item id")
)

// ValidLabel checks whether a label string is one of the known
// interaction labels.
func ValidLabel(label string) bool {
	_, exists := labelWeights[label]
	return exists
}

// LabelWeight returns the training weight for a label.
// Returns ErrUnknownLabel for labels outside the known set.
func LabelWeight(label string) (float64, error) {
	w, ok := labelWeights[label]
	if !ok {
		return 0, ErrUnknownLabel
	}
	return w, nil
}

// Labels returns the known interaction labels.
func Labels() []string {
	return []string{
		LabelApplied,
		LabelSaved,
		LabelClicked,
		LabelViewedLong,
		LabelSkipped,
		LabelRejected,
	}
}

// Event is one recorded interaction. Events are append-only; nothing in
// the system updates or deletes one after it is written.
type Event struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ItemID    string    `json:"item_id"`
	Label     string    `json:"label"`
	Weight    float64   `json:"weight"`
	Factors   []string  `json:"factors,omitempty"` // Scoring factors the interaction is attributed to
	Timestamp time.Time `json:"timestamp"`
}

// Validate checks the event carries the fields recording requires.
func (e *Event) Validate() error {
	if e.UserID == "" {
		return ErrMissingUserID
	}
	if e.ItemID == "" {
		return ErrMissingItemID
	}
	if !ValidLabel(e.Label) {
		return ErrUnknownLabel
	}
	return nil
}
