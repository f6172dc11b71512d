package feedback

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Default multiplier bounds and window size.
const (
	DefaultMultiplierFloor   = 0.5
	DefaultMultiplierCeiling = 1.5
	DefaultWindowSize        = 200
)

// neutralWeight is the label weight at which a factor's multiplier
// stays at 1.0.
const neutralWeight = 0.5

// LedgerConfig configures a feedback ledger.
type LedgerConfig struct {
	// Floor and Ceiling bound every derived multiplier. Zero values
	// select the defaults.
	Floor   float64
	Ceiling float64

	// WindowSize is how many recent events per user and factor
	// contribute to the multiplier. Zero selects the default.
	WindowSize int

	// Logger for ledger activity.
	Logger *slog.Logger

	// Metrics for feedback instrumentation.
	Metrics *Metrics
}

// Ledger records feedback events and maintains per-user factor
// multipliers over a rolling window of recent interactions. It
// implements the multiplier source contract of the ranking engine.
//
// Locking is per (user, factor) window: the ledger mutex guards only
// map membership, and each window carries its own lock, so recording
// feedback for one key never blocks folds or reads on unrelated keys.
type Ledger struct {
	config LedgerConfig
	store  EventStore
	dirty  *DirtyTracker

	mu      sync.RWMutex
	windows map[string]*window // keyed by userID+"/"+factor
}

// window holds the rolling weights for one (user, factor) key, oldest
// first, plus the multiplier derived from them.
type window struct {
	mu         sync.Mutex
	weights    []float64
	multiplier float64
}

// NewLedger creates a feedback ledger backed by the given event store.
func NewLedger(config LedgerConfig, store EventStore) (*Ledger, error) {
	if config.Floor == 0 {
		config.Floor = DefaultMultiplierFloor
	}
	if config.Ceiling == 0 {
		config.Ceiling = DefaultMultiplierCeiling
	}
	if config.Floor >= config.Ceiling {
		return nil, fmt.Errorf("multiplier floor %.2f must be below ceiling %.2f", config.Floor, config.Ceiling)
	}
	if config.WindowSize <= 0 {
		config.WindowSize = DefaultWindowSize
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &Ledger{
		config:  config,
		store:   store,
		dirty:   NewDirtyTracker(),
		windows: make(map[string]*window),
	}, nil
}

// DirtyTracker exposes the tracker so a recompute job can sync changed
// users to an external cache.
func (l *Ledger) DirtyTracker() *DirtyTracker {
	return l.dirty
}

// Record validates and stores one interaction, then folds its weight
// into the rolling window of every attributed factor. Events without
// factor attribution are persisted but leave multipliers untouched.
func (l *Ledger) Record(ctx context.Context, userID, itemID, label string, factors ...string) (*Event, error) {
	weight, err := LabelWeight(label)
	if err != nil {
		return nil, err
	}

	event := Event{
		ID:        uuid.NewString(),
		UserID:    userID,
		ItemID:    itemID,
		Label:     label,
		Weight:    weight,
		Factors:   factors,
		Timestamp: time.Now().UTC(),
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}

	if err := l.store.Append(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to persist feedback event: %w", err)
	}

	if len(factors) > 0 {
		for _, factor := range factors {
			l.fold(userID, factor, weight)
		}
		l.dirty.MarkDirty(userID)
	}

	if l.config.Metrics != nil {
		l.config.Metrics.IncEventsRecorded(label)
	}

	l.config.Logger.Debug("feedback event recorded",
		"user_id", userID,
		"item_id", itemID,
		"label", label,
		"factors", factors)

	return &event, nil
}

// MultiplierFor returns the derived multiplier for a user and factor.
// Users or factors without feedback history return the neutral 1.0.
func (l *Ledger) MultiplierFor(userID, factor string) float64 {
	l.mu.RLock()
	w := l.windows[windowKey(userID, factor)]
	l.mu.RUnlock()
	if w == nil {
		return 1.0
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	// An entry may exist before its first fold lands; stay neutral
	// until it holds at least one weight.
	if len(w.weights) == 0 {
		return 1.0
	}
	return w.multiplier
}

// MultipliersForUser returns every derived multiplier for one user,
// keyed by factor.
func (l *Ledger) MultipliersForUser(userID string) map[string]float64 {
	prefix := userID + "/"

	l.mu.RLock()
	entries := make(map[string]*window)
	for key, w := range l.windows {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			entries[key[len(prefix):]] = w
		}
	}
	l.mu.RUnlock()

	result := make(map[string]float64, len(entries))
	for factor, w := range entries {
		w.mu.Lock()
		if len(w.weights) > 0 {
			result[factor] = w.multiplier
		}
		w.mu.Unlock()
	}
	return result
}

// Warm rebuilds the rolling windows from the event store. Called at
// startup so multipliers survive restarts.
func (l *Ledger) Warm(ctx context.Context) error {
	users, err := l.store.Users(ctx)
	if err != nil {
		return fmt.Errorf("failed to list feedback users: %w", err)
	}

	var restored int
	for _, userID := range users {
		if err := l.rebuildUser(ctx, userID); err != nil {
			return err
		}
		restored++
	}

	l.config.Logger.Info("feedback ledger warmed from store",
		"users", restored)
	return nil
}

// rebuildUser reloads one user's windows from the store, replacing the
// in-memory state.
func (l *Ledger) rebuildUser(ctx context.Context, userID string) error {
	// Events come back newest first; windows want oldest first.
	events, err := l.store.RecentByUser(ctx, userID, l.config.WindowSize)
	if err != nil {
		return fmt.Errorf("failed to load events for user %s: %w", userID, err)
	}

	prefix := userID + "/"
	l.mu.Lock()
	for key := range l.windows {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			delete(l.windows, key)
		}
	}
	l.mu.Unlock()

	for i := len(events) - 1; i >= 0; i-- {
		for _, factor := range events[i].Factors {
			l.fold(userID, factor, events[i].Weight)
		}
	}
	return nil
}

// windowFor returns the entry for a key, creating it when absent. The
// read-locked fast path covers the steady state; insertion re-checks
// under the write lock so two racing creators converge on one entry.
func (l *Ledger) windowFor(key string) *window {
	l.mu.RLock()
	w := l.windows[key]
	l.mu.RUnlock()
	if w != nil {
		return w
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if w = l.windows[key]; w == nil {
		w = &window{multiplier: 1.0}
		l.windows[key] = w
	}
	return w
}

// fold appends one weight to the key's window, trims it to the
// configured size, and refreshes the derived multiplier. Only the
// entry's own lock is held, so folds for other keys proceed in
// parallel.
func (l *Ledger) fold(userID, factor string, weight float64) {
	w := l.windowFor(windowKey(userID, factor))

	w.mu.Lock()
	defer w.mu.Unlock()

	w.weights = append(w.weights, weight)
	if len(w.weights) > l.config.WindowSize {
		w.weights = w.weights[len(w.weights)-l.config.WindowSize:]
	}

	var sum float64
	for _, v := range w.weights {
		sum += v
	}
	w.multiplier = l.transform(sum / float64(len(w.weights)))
}

// transform maps an average label weight to a bounded multiplier. An
// average at the neutral weight yields exactly 1.0; averages above it
// boost and below it dampen, linearly, clamped to the configured bounds.
func (l *Ledger) transform(avg float64) float64 {
	m := 1.0 + (avg-neutralWeight)*(l.config.Ceiling-l.config.Floor)
	if m < l.config.Floor {
		return l.config.Floor
	}
	if m > l.config.Ceiling {
		return l.config.Ceiling
	}
	return m
}

func windowKey(userID, factor string) string {
	return userID + "/" + factor
}

// DirtyTracker tracks which users have multiplier changes pending an
// external cache sync. Thread-safe via RWMutex.
type DirtyTracker struct {
	mu         sync.RWMutex
	dirtyFlags map[string]time.Time // userID -> time marked dirty
}

// NewDirtyTracker creates a new DirtyTracker instance.
func NewDirtyTracker() *DirtyTracker {
	return &DirtyTracker{
		dirtyFlags: make(map[string]time.Time),
	}
}

// MarkDirty marks a user as having unsynced multiplier changes.
func (t *DirtyTracker) MarkDirty(userID string) {
	t.mu.Lock()
	t.dirtyFlags[userID] = time.Now()
	t.mu.Unlock()
}

// ClearDirty removes the dirty flag for a user after a sync.
func (t *DirtyTracker) ClearDirty(userID string) {
	t.mu.Lock()
	delete(t.dirtyFlags, userID)
	t.mu.Unlock()
}

// GetDirtyUsers returns a list of user ids marked dirty.
// Returns a copy to avoid external modification.
func (t *DirtyTracker) GetDirtyUsers() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	users := make([]string, 0, len(t.dirtyFlags))
	for userID := range t.dirtyFlags {
		users = append(users, userID)
	}
	return users
}

// IsDirty checks if a specific user is marked as dirty.
func (t *DirtyTracker) IsDirty(userID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, exists := t.dirtyFlags[userID]
	return exists
}

// DirtyCount returns the number of users marked as dirty.
func (t *DirtyTracker) DirtyCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.dirtyFlags)
}
