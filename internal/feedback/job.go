package feedback

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// MultiplierCache receives derived multipliers so other processes can
// read them without access to this ledger's memory.
type MultiplierCache interface {
	// SetMultipliers stores all multipliers for a user, keyed by factor.
	SetMultipliers(ctx context.Context, userID string, multipliers map[string]float64) error
}

// JobMetrics provides centralized background job metrics tracking.
// This interface allows the job to report to the centralized job metrics system.
type JobMetrics interface {
	IncJobsTotal(jobType, status string)
	ObserveJobDuration(jobType string, seconds float64)
	IncJobErrors(jobType, errorType string)
}

// RecomputeJobConfig configures the multiplier recompute job.
type RecomputeJobConfig struct {
	// Interval is the duration between recompute cycles.
	Interval time.Duration
	// Logger for job activity.
	Logger *slog.Logger
	// Metrics for performance tracking.
	Metrics *Metrics
	// JobMetrics for centralized background job tracking.
	JobMetrics JobMetrics
	// Timeout for each recompute cycle.
	Timeout time.Duration
}

// DefaultRecomputeInterval is the default interval between recompute cycles.
const DefaultRecomputeInterval = 30 * time.Second

// DefaultRecomputeTimeout is the default timeout for a single recompute cycle.
const DefaultRecomputeTimeout = 30 * time.Second

// jobType labels this job in centralized job metrics.
const jobType = "multiplier_recompute"

// RecomputeJob periodically rebuilds multipliers for users with fresh
// feedback from the authoritative event store, then syncs them to the
// external cache.
type RecomputeJob struct {
	config RecomputeJobConfig
	ledger *Ledger
	cache  MultiplierCache

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewRecomputeJob creates a new multiplier recompute job. A nil cache
// skips the sync step; windows are still rebuilt from the store.
func NewRecomputeJob(config RecomputeJobConfig, ledger *Ledger, cache MultiplierCache) *RecomputeJob {
	if config.Interval == 0 {
		config.Interval = DefaultRecomputeInterval
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultRecomputeTimeout
	}

	return &RecomputeJob{
		config: config,
		ledger: ledger,
		cache:  cache,
	}
}

// Start begins the periodic recompute job.
// Returns immediately; the job runs in a background goroutine.
func (j *RecomputeJob) Start(ctx context.Context) error {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return nil
	}
	j.running = true
	j.stopCh = make(chan struct{})
	j.doneCh = make(chan struct{})
	j.mu.Unlock()

	go j.run(ctx)
	return nil
}

// Stop signals the recompute job to stop and waits for it to finish.
func (j *RecomputeJob) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	stopCh := j.stopCh
	doneCh := j.doneCh
	j.mu.Unlock()

	close(stopCh)
	<-doneCh

	j.mu.Lock()
	j.running = false
	j.mu.Unlock()
}

// IsRunning returns whether the job is currently running.
func (j *RecomputeJob) IsRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.running
}

// run is the main loop for the recompute job.
func (j *RecomputeJob) run(ctx context.Context) {
	defer close(j.doneCh)

	ticker := time.NewTicker(j.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.config.Logger.Info("multiplier recompute job stopping due to context cancellation")
			return
		case <-j.stopCh:
			j.config.Logger.Info("multiplier recompute job stopping due to stop signal")
			return
		case <-ticker.C:
			j.recomputeDirtyUsers(ctx)
		}
	}
}

// recomputeDirtyUsers processes all dirty users, rebuilding their
// windows from the store and syncing the results to the cache.
func (j *RecomputeJob) recomputeDirtyUsers(parentCtx context.Context) {
	dirtyUsers := j.ledger.DirtyTracker().GetDirtyUsers()
	if len(dirtyUsers) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(parentCtx, j.config.Timeout)
	defer cancel()

	startTime := time.Now()
	userCount := len(dirtyUsers)
	var successCount int

	j.config.Logger.Info("recomputing feedback multipliers",
		"dirty_count", userCount)

	for i, userID := range dirtyUsers {
		select {
		case <-ctx.Done():
			j.config.Logger.Error("multiplier recompute timeout exceeded",
				"processed", i,
				"total", userCount,
				"timeout", j.config.Timeout)
			if j.config.Metrics != nil {
				j.config.Metrics.IncRecomputeErrors()
			}
			if j.config.JobMetrics != nil {
				j.config.JobMetrics.IncJobErrors(jobType, "timeout")
			}

			duration := time.Since(startTime).Seconds()
			if j.config.Metrics != nil {
				j.config.Metrics.ObserveRecomputeDuration(duration)
			}
			if j.config.JobMetrics != nil {
				j.config.JobMetrics.IncJobsTotal(jobType, "failure")
				j.config.JobMetrics.ObserveJobDuration(jobType, duration)
			}
			return
		default:
		}

		if err := j.recomputeUser(ctx, userID); err != nil {
			j.config.Logger.Error("failed to recompute multipliers",
				"user_id", userID,
				"error", err)
			if j.config.Metrics != nil {
				j.config.Metrics.IncRecomputeErrors()
			}
			if j.config.JobMetrics != nil {
				j.config.JobMetrics.IncJobErrors(jobType, "recompute_error")
			}
			continue
		}

		j.ledger.DirtyTracker().ClearDirty(userID)
		successCount++

		// Log batch progress every 10 users
		if (i+1)%10 == 0 {
			j.config.Logger.Debug("recompute progress",
				"processed", i+1,
				"total", userCount)
		}
	}

	duration := time.Since(startTime).Seconds()

	status := "success"
	if successCount < userCount {
		status = "failure"
	}

	if j.config.Metrics != nil {
		j.config.Metrics.IncRecomputeTotal()
		j.config.Metrics.ObserveRecomputeDuration(duration)
		j.config.Metrics.SetLastRecomputeTimestamp(float64(time.Now().Unix()))
		j.config.Metrics.SetLastRecomputeUserCount(float64(successCount))
	}

	if j.config.JobMetrics != nil {
		j.config.JobMetrics.IncJobsTotal(jobType, status)
		j.config.JobMetrics.ObserveJobDuration(jobType, duration)
	}

	j.config.Logger.Info("multiplier recompute completed",
		"duration_seconds", duration,
		"users_processed", successCount,
		"users_failed", userCount-successCount)
}

// recomputeUser rebuilds one user's windows from the store and syncs
// the derived multipliers to the cache.
func (j *RecomputeJob) recomputeUser(ctx context.Context, userID string) error {
	if err := j.ledger.rebuildUser(ctx, userID); err != nil {
		return err
	}

	if j.cache != nil {
		multipliers := j.ledger.MultipliersForUser(userID)
		if err := j.cache.SetMultipliers(ctx, userID, multipliers); err != nil {
			return err
		}
	}

	j.config.Logger.Debug("multipliers recomputed",
		"user_id", userID)
	return nil
}

// RecomputeNow immediately recomputes all dirty users without waiting
// for the ticker. This is useful for testing or forcing immediate updates.
func (j *RecomputeJob) RecomputeNow() {
	j.recomputeDirtyUsers(context.Background())
}
