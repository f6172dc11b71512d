package feedback

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/yojanahub/avsar/internal/ranking"
)

// The ledger must satisfy the ranking engine's multiplier contract.
var _ ranking.MultiplierSource = (*Ledger)(nil)

func newTestLedger(t *testing.T, config LedgerConfig) (*Ledger, *InMemoryEventStore) {
	t.Helper()
	store := NewInMemoryEventStore()
	ledger, err := NewLedger(config, store)
	if err != nil {
		t.Fatalf("failed to construct ledger: %v", err)
	}
	return ledger, store
}

// TestRecordUnknownLabel verifies rejection before anything is stored.
func TestRecordUnknownLabel(t *testing.T) {
	ledger, store := newTestLedger(t, LedgerConfig{})

	if _, err := ledger.Record(context.Background(), "user-1", "job-1", "liked"); err != ErrUnknownLabel {
		t.Errorf("expected ErrUnknownLabel, got %v", err)
	}
	if store.CountByUser("user-1") != 0 {
		t.Error("rejected event must not be persisted")
	}
}

// TestRecordAppendsAndDerives verifies events persist and attributed
// factors get multipliers.
func TestRecordAppendsAndDerives(t *testing.T) {
	ledger, store := newTestLedger(t, LedgerConfig{})
	ctx := context.Background()

	event, err := ledger.Record(ctx, "user-1", "job-1", LabelApplied, "category")
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if event.ID == "" || event.Weight != 1.0 || event.Timestamp.IsZero() {
		t.Errorf("event not fully populated: %+v", event)
	}
	if store.CountByUser("user-1") != 1 {
		t.Error("event was not persisted")
	}

	// A single "applied" event: avg 1.0, multiplier at the ceiling.
	got := ledger.MultiplierFor("user-1", "category")
	if math.Abs(got-DefaultMultiplierCeiling) > 1e-9 {
		t.Errorf("multiplier = %f, want ceiling %f", got, DefaultMultiplierCeiling)
	}

	// Unattributed factors and other users stay neutral.
	if m := ledger.MultiplierFor("user-1", "salary"); m != 1.0 {
		t.Errorf("unattributed factor multiplier = %f, want 1.0", m)
	}
	if m := ledger.MultiplierFor("user-2", "category"); m != 1.0 {
		t.Errorf("other user's multiplier = %f, want 1.0", m)
	}
}

// TestRecordWithoutFactors verifies unattributed events persist but
// leave multipliers untouched.
func TestRecordWithoutFactors(t *testing.T) {
	ledger, store := newTestLedger(t, LedgerConfig{})

	if _, err := ledger.Record(context.Background(), "user-1", "job-1", LabelApplied); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if store.CountByUser("user-1") != 1 {
		t.Error("event was not persisted")
	}
	for _, factor := range []string{"education", "age", "location", "category", "salary"} {
		if m := ledger.MultiplierFor("user-1", factor); m != 1.0 {
			t.Errorf("factor %s multiplier = %f, want 1.0", factor, m)
		}
	}
	if ledger.DirtyTracker().IsDirty("user-1") {
		t.Error("event without attribution should not mark the user dirty")
	}
}

// TestMultiplierMonotoneUnderPositiveFeedback verifies consecutive
// positive events never lower the multiplier and it stays bounded by the
// ceiling.
func TestMultiplierMonotoneUnderPositiveFeedback(t *testing.T) {
	ledger, _ := newTestLedger(t, LedgerConfig{})
	ctx := context.Background()

	// Seed with mixed history so the multiplier starts below the ceiling.
	mixed := []string{LabelRejected, LabelSkipped, LabelViewedLong}
	for _, label := range mixed {
		if _, err := ledger.Record(ctx, "user-1", "job-x", label, "category"); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	prev := ledger.MultiplierFor("user-1", "category")
	for i := 0; i < 50; i++ {
		if _, err := ledger.Record(ctx, "user-1", "job-y", LabelApplied, "category"); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
		m := ledger.MultiplierFor("user-1", "category")
		if m < prev {
			t.Fatalf("multiplier decreased from %f to %f under positive feedback", prev, m)
		}
		if m > DefaultMultiplierCeiling {
			t.Fatalf("multiplier %f exceeds ceiling %f", m, DefaultMultiplierCeiling)
		}
		prev = m
	}
}

// TestMultiplierFloorUnderNegativeFeedback verifies sustained rejection
// bottoms out at the floor.
func TestMultiplierFloorUnderNegativeFeedback(t *testing.T) {
	ledger, _ := newTestLedger(t, LedgerConfig{})
	ctx := context.Background()

	for i := 0; i < 30; i++ {
		if _, err := ledger.Record(ctx, "user-1", "job-x", LabelRejected, "location"); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	got := ledger.MultiplierFor("user-1", "location")
	if math.Abs(got-DefaultMultiplierFloor) > 1e-9 {
		t.Errorf("multiplier = %f, want floor %f", got, DefaultMultiplierFloor)
	}
}

// TestMultiplierRollingWindow verifies old events age out.
func TestMultiplierRollingWindow(t *testing.T) {
	ledger, _ := newTestLedger(t, LedgerConfig{WindowSize: 5})
	ctx := context.Background()

	// Fill the window with rejections, then push them out with applies.
	for i := 0; i < 5; i++ {
		if _, err := ledger.Record(ctx, "user-1", "job-x", LabelRejected, "salary"); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}
	if m := ledger.MultiplierFor("user-1", "salary"); m != DefaultMultiplierFloor {
		t.Fatalf("multiplier = %f, want floor after all rejections", m)
	}

	for i := 0; i < 5; i++ {
		if _, err := ledger.Record(ctx, "user-1", "job-y", LabelApplied, "salary"); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}
	if m := ledger.MultiplierFor("user-1", "salary"); m != DefaultMultiplierCeiling {
		t.Errorf("multiplier = %f, rejections should have aged out of the window", m)
	}
}

// TestNeutralHistoryYieldsNeutralMultiplier verifies an average at the
// midpoint maps to exactly 1.0.
func TestNeutralHistoryYieldsNeutralMultiplier(t *testing.T) {
	ledger, _ := newTestLedger(t, LedgerConfig{})
	ctx := context.Background()

	// applied (1.0) + rejected (0.0) average to the neutral 0.5.
	if _, err := ledger.Record(ctx, "user-1", "job-a", LabelApplied, "education"); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if _, err := ledger.Record(ctx, "user-1", "job-b", LabelRejected, "education"); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	if m := ledger.MultiplierFor("user-1", "education"); math.Abs(m-1.0) > 1e-9 {
		t.Errorf("multiplier = %f, want neutral 1.0", m)
	}
}

// TestLedgerConfigValidation verifies bad bounds are rejected.
func TestLedgerConfigValidation(t *testing.T) {
	store := NewInMemoryEventStore()
	if _, err := NewLedger(LedgerConfig{Floor: 1.5, Ceiling: 0.5}, store); err == nil {
		t.Error("expected inverted bounds to be rejected")
	}
}

// TestWarmRebuildsFromStore verifies multipliers survive a restart via
// the event store.
func TestWarmRebuildsFromStore(t *testing.T) {
	store := NewInMemoryEventStore()
	ctx := context.Background()

	first, err := NewLedger(LedgerConfig{}, store)
	if err != nil {
		t.Fatalf("failed to construct ledger: %v", err)
	}
	for i := 0; i < 10; i++ {
		if _, err := first.Record(ctx, "user-1", "job-x", LabelApplied, "category"); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}
	want := first.MultiplierFor("user-1", "category")

	second, err := NewLedger(LedgerConfig{}, store)
	if err != nil {
		t.Fatalf("failed to construct ledger: %v", err)
	}
	if m := second.MultiplierFor("user-1", "category"); m != 1.0 {
		t.Fatalf("fresh ledger should start neutral, got %f", m)
	}

	if err := second.Warm(ctx); err != nil {
		t.Fatalf("Warm() error = %v", err)
	}
	if m := second.MultiplierFor("user-1", "category"); math.Abs(m-want) > 1e-9 {
		t.Errorf("warmed multiplier = %f, want %f", m, want)
	}
}

// TestMultipliersForUser verifies the per-user snapshot.
func TestMultipliersForUser(t *testing.T) {
	ledger, _ := newTestLedger(t, LedgerConfig{})
	ctx := context.Background()

	if _, err := ledger.Record(ctx, "user-1", "job-a", LabelApplied, "category", "location"); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if _, err := ledger.Record(ctx, "user-2", "job-b", LabelRejected, "salary"); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	snapshot := ledger.MultipliersForUser("user-1")
	if len(snapshot) != 2 {
		t.Fatalf("snapshot has %d factors, want 2: %v", len(snapshot), snapshot)
	}
	if _, ok := snapshot["salary"]; ok {
		t.Error("snapshot leaked another user's factor")
	}
}

// TestConcurrentRecordDistinctKeys verifies parallel recording for
// unrelated (user, factor) keys: every event lands and each key's
// multiplier is derived from its own history only.
func TestConcurrentRecordDistinctKeys(t *testing.T) {
	ledger, store := newTestLedger(t, LedgerConfig{})
	ctx := context.Background()

	const users = 8
	const perUser = 25

	var wg sync.WaitGroup
	for u := 0; u < users; u++ {
		wg.Add(1)
		go func(u int) {
			defer wg.Done()
			userID := fmt.Sprintf("user-%d", u)
			// Even users apply, odd users reject.
			label := LabelApplied
			if u%2 == 1 {
				label = LabelRejected
			}
			for i := 0; i < perUser; i++ {
				if _, err := ledger.Record(ctx, userID, "job-x", label, "category"); err != nil {
					t.Errorf("Record() error = %v", err)
					return
				}
			}
		}(u)
	}
	wg.Wait()

	for u := 0; u < users; u++ {
		userID := fmt.Sprintf("user-%d", u)
		if got := store.CountByUser(userID); got != perUser {
			t.Errorf("%s has %d persisted events, want %d", userID, got, perUser)
		}
		want := DefaultMultiplierCeiling
		if u%2 == 1 {
			want = DefaultMultiplierFloor
		}
		if m := ledger.MultiplierFor(userID, "category"); math.Abs(m-want) > 1e-9 {
			t.Errorf("%s multiplier = %f, want %f", userID, m, want)
		}
	}
}

// TestConcurrentRecordSameKey verifies racing folds on one key keep
// the window within size and the multiplier within bounds.
func TestConcurrentRecordSameKey(t *testing.T) {
	ledger, store := newTestLedger(t, LedgerConfig{WindowSize: 10})
	ctx := context.Background()

	const writers = 4
	const perWriter = 20

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				if _, err := ledger.Record(ctx, "user-1", "job-x", LabelApplied, "salary"); err != nil {
					t.Errorf("Record() error = %v", err)
					return
				}
				// Interleave reads with the writes.
				if m := ledger.MultiplierFor("user-1", "salary"); m < DefaultMultiplierFloor || m > DefaultMultiplierCeiling {
					t.Errorf("multiplier %f outside [%f, %f]", m, DefaultMultiplierFloor, DefaultMultiplierCeiling)
					return
				}
			}
		}()
	}
	wg.Wait()

	if got := store.CountByUser("user-1"); got != writers*perWriter {
		t.Errorf("persisted %d events, want %d", got, writers*perWriter)
	}
	// Every event carried the same weight, so the rolling average is
	// exact regardless of interleaving.
	if m := ledger.MultiplierFor("user-1", "salary"); math.Abs(m-DefaultMultiplierCeiling) > 1e-9 {
		t.Errorf("multiplier = %f, want ceiling %f", m, DefaultMultiplierCeiling)
	}
}
