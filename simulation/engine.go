package simulation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/baseball-sim/sim-engine/logger"
	"github.com/baseball-sim/sim-engine/metrics"
	"github.com/baseball-sim/sim-engine/models"
)

var (
	// ErrRunNotFound is returned for unknown run IDs
	ErrRunNotFound = errors.New("simulation run not found")

	// ErrRunNotComplete is returned when a result is requested before the run finishes
	ErrRunNotComplete = errors.New("simulation run not complete")
)

// RunState is the lifecycle stage of a run
type RunState string

const (
	RunPending   RunState = "pending"
	RunRunning   RunState = "running"
	RunCompleted RunState = "completed"
	RunFailed    RunState = "failed"
	RunCancelled RunState = "cancelled"
)

// IsFinal reports whether the run will not change again
func (s RunState) IsFinal() bool {
	return s == RunCompleted || s == RunFailed || s == RunCancelled
}

// progressFlushInterval is how many trials pass between progress writes to the store
const progressFlushInterval = 1000

// RunStatus tracks the progress of a simulation run
type RunStatus struct {
	RunID           string     `json:"run_id"`
	GameID          string     `json:"game_id,omitempty"`
	Status          RunState   `json:"status"`
	TotalTrials     int        `json:"total_trials"`
	CompletedTrials int        `json:"completed_trials"`
	Seed            uint64     `json:"seed"`
	Error           string     `json:"error,omitempty"`
	StartTime       time.Time  `json:"start_time"`
	CompletedTime   *time.Time `json:"completed_time,omitempty"`
}

// Progress returns the completed share of trials in [0, 1]
func (s RunStatus) Progress() float64 {
	if s.TotalTrials <= 0 {
		return 0
	}
	return float64(s.CompletedTrials) / float64(s.TotalTrials)
}

type runEntry struct {
	status    RunStatus
	completed atomic.Int64
	summary   *Summary
	cancel    context.CancelFunc
}

// SimulationEngine runs simulations in the background and keeps their status and results
type SimulationEngine struct {
	driver    *Driver
	store     RunStore
	forecasts ForecastProvider
	defaults  RunOptions
	retention time.Duration
	logger    logrus.FieldLogger
	runLogger *logger.RunLogger

	mu   sync.RWMutex
	runs map[string]*runEntry
	wg   sync.WaitGroup
}

// EngineOptions wire the engine's optional collaborators
type EngineOptions struct {
	Store     RunStore         // nil keeps results in memory only
	Forecasts ForecastProvider // nil skips weather lookups
	Defaults  RunOptions
	Retention time.Duration
	Logger    logrus.FieldLogger
}

// NewSimulationEngine creates a new simulation engine
func NewSimulationEngine(driver *Driver, opts EngineOptions) *SimulationEngine {
	if opts.Defaults.Trials < 1 {
		opts.Defaults = DefaultRunOptions()
	}
	if opts.Retention <= 0 {
		opts.Retention = 24 * time.Hour
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}

	return &SimulationEngine{
		driver:    driver,
		store:     opts.Store,
		forecasts: opts.Forecasts,
		defaults:  opts.Defaults,
		retention: opts.Retention,
		logger:    opts.Logger,
		runLogger: logger.NewRunLogger(opts.Logger),
		runs:      make(map[string]*runEntry),
	}
}

// Defaults returns the run options applied to requests that leave fields unset
func (se *SimulationEngine) Defaults() RunOptions {
	return se.defaults
}

// Prepare resolves weather and imputes the matchup. Errors here are request errors.
func (se *SimulationEngine) Prepare(ctx context.Context, m *models.Matchup) (*GameSetup, error) {
	if err := ResolveWeather(ctx, se.forecasts, m); err != nil {
		se.logger.WithError(err).Warn("Weather lookup failed, using default conditions")
	}
	return NewGameSetup(m)
}

// Simulate runs a matchup synchronously
func (se *SimulationEngine) Simulate(ctx context.Context, m *models.Matchup, opts RunOptions) (*Summary, error) {
	setup, err := se.Prepare(ctx, m)
	if err != nil {
		return nil, err
	}
	return se.driver.Run(ctx, setup, opts, nil)
}

// StartRun validates the matchup, registers a run and simulates it in the background.
// The returned ID is usable with GetRunStatus and GetRunResult immediately.
func (se *SimulationEngine) StartRun(ctx context.Context, m *models.Matchup, opts RunOptions) (string, error) {
	if opts.Trials < 1 {
		return "", fmt.Errorf("%w: trials must be positive", ErrInvalidMatchup)
	}
	setup, err := se.Prepare(ctx, m)
	if err != nil {
		return "", err
	}

	runID := uuid.NewString()
	runCtx, cancel := context.WithCancel(context.Background())
	entry := &runEntry{
		status: RunStatus{
			RunID:       runID,
			GameID:      m.GameID,
			Status:      RunPending,
			TotalTrials: opts.Trials,
			Seed:        opts.Seed,
			StartTime:   time.Now(),
		},
		cancel: cancel,
	}

	se.mu.Lock()
	se.runs[runID] = entry
	se.mu.Unlock()

	se.persistStatus(entry.status)
	metrics.RecordRunStarted()
	se.runLogger.LogRunStarted(runID, m.GameID, opts.Trials, opts.Workers, opts.Seed)

	se.wg.Add(1)
	go func() {
		defer se.wg.Done()
		defer cancel()
		se.execute(runCtx, entry, setup, opts)
	}()

	return runID, nil
}

// execute runs the batch and records its outcome
func (se *SimulationEngine) execute(ctx context.Context, entry *runEntry, setup *GameSetup, opts RunOptions) {
	runID := entry.status.RunID
	se.setState(entry, RunRunning, "")

	progress := func() {
		n := entry.completed.Add(1)
		if se.store != nil && n%progressFlushInterval == 0 {
			writeCtx, cancel := context.WithTimeout(context.Background(), storeTimeout)
			defer cancel()
			if err := se.store.UpdateProgress(writeCtx, runID, int(n)); err != nil {
				se.logger.WithError(err).WithField("run_id", runID).Warn("Failed to update progress")
			}
		}
	}

	summary, err := se.driver.Run(ctx, setup, opts, progress)
	elapsed := time.Since(entry.status.StartTime)

	if err != nil {
		state := RunFailed
		if errors.Is(err, context.Canceled) {
			state = RunCancelled
		}
		se.setState(entry, state, err.Error())
		metrics.RecordRunFinished(string(state), elapsed.Seconds())
		se.runLogger.LogRunFailed(runID, err)
		return
	}

	se.mu.Lock()
	entry.summary = summary
	se.mu.Unlock()

	if se.store != nil {
		writeCtx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		if err := se.store.SaveSummary(writeCtx, runID, summary); err != nil {
			se.logger.WithError(err).WithField("run_id", runID).Error("Failed to store summary")
		}
		cancel()
	}

	se.setState(entry, RunCompleted, "")
	metrics.RecordRunFinished(string(RunCompleted), elapsed.Seconds())
	se.runLogger.LogRunCompleted(runID, elapsed, summary.HomeWinProbability, summary.SafetyCapHits)
}

// setState moves a run to a new state and persists it
func (se *SimulationEngine) setState(entry *runEntry, state RunState, errMsg string) {
	se.mu.Lock()
	entry.status.Status = state
	entry.status.Error = errMsg
	if state.IsFinal() {
		now := time.Now()
		entry.status.CompletedTime = &now
	}
	snapshot := se.snapshot(entry)
	se.mu.Unlock()

	se.persistStatus(snapshot)
}

func (se *SimulationEngine) persistStatus(status RunStatus) {
	if se.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := se.store.SaveRun(ctx, status); err != nil {
		se.logger.WithError(err).WithField("run_id", status.RunID).Warn("Failed to update run status")
	}
}

// snapshot copies the status with the live trial count; callers hold se.mu
func (se *SimulationEngine) snapshot(entry *runEntry) RunStatus {
	status := entry.status
	status.CompletedTrials = int(entry.completed.Load())
	if status.CompletedTime != nil {
		completed := *status.CompletedTime
		status.CompletedTime = &completed
	}
	return status
}

// GetRunStatus returns the current status of a simulation run
func (se *SimulationEngine) GetRunStatus(runID string) (RunStatus, error) {
	se.mu.RLock()
	defer se.mu.RUnlock()

	entry, ok := se.runs[runID]
	if !ok {
		return RunStatus{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return se.snapshot(entry), nil
}

// GetRunResult returns the summary of a completed run, falling back to the store
// for runs that have been cleaned out of memory
func (se *SimulationEngine) GetRunResult(ctx context.Context, runID string) (*Summary, error) {
	se.mu.RLock()
	entry, ok := se.runs[runID]
	var summary *Summary
	var state RunState
	var errMsg string
	if ok {
		summary = entry.summary
		state = entry.status.Status
		errMsg = entry.status.Error
	}
	se.mu.RUnlock()

	if ok {
		if summary != nil {
			return summary, nil
		}
		if state == RunFailed || state == RunCancelled {
			return nil, fmt.Errorf("run %s %s: %s", runID, state, errMsg)
		}
		return nil, fmt.Errorf("%w: %s is %s", ErrRunNotComplete, runID, state)
	}

	if se.store == nil {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return se.store.LoadSummary(ctx, runID)
}

// CancelRun stops a run in progress
func (se *SimulationEngine) CancelRun(runID string) error {
	se.mu.RLock()
	entry, ok := se.runs[runID]
	se.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	entry.cancel()
	return nil
}

// ActiveRuns returns the number of runs not yet finished
func (se *SimulationEngine) ActiveRuns() int {
	se.mu.RLock()
	defer se.mu.RUnlock()

	active := 0
	for _, entry := range se.runs {
		if !entry.status.Status.IsFinal() {
			active++
		}
	}
	return active
}

// CleanupOldRuns removes finished runs older than the retention window from memory
func (se *SimulationEngine) CleanupOldRuns() int {
	se.mu.Lock()
	defer se.mu.Unlock()

	cutoff := time.Now().Add(-se.retention)
	removed := 0
	for runID, entry := range se.runs {
		if entry.status.Status.IsFinal() && entry.status.StartTime.Before(cutoff) {
			delete(se.runs, runID)
			removed++
		}
	}
	return removed
}

// StartCleanup schedules CleanupOldRuns on a cron spec such as "@hourly"
// until ctx is done
func (se *SimulationEngine) StartCleanup(ctx context.Context, spec string) error {
	scheduler := cron.New(cron.WithLocation(time.UTC))
	_, err := scheduler.AddFunc(spec, func() {
		if removed := se.CleanupOldRuns(); removed > 0 {
			se.logger.WithField("removed", removed).Info("Cleaned up old simulation runs")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid cleanup schedule %q: %w", spec, err)
	}
	scheduler.Start()

	go func() {
		<-ctx.Done()
		<-scheduler.Stop().Done()
	}()
	return nil
}

// Shutdown cancels every run in progress and waits for them to stop
func (se *SimulationEngine) Shutdown(ctx context.Context) error {
	se.mu.RLock()
	for _, entry := range se.runs {
		entry.cancel()
	}
	se.mu.RUnlock()

	done := make(chan struct{})
	go func() {
		se.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
