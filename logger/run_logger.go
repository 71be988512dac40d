package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// RunLogger provides dedicated logging for asynchronous simulation runs.
type RunLogger struct {
	*logrus.Entry
}

// NewRunLogger creates a new run logger.
func NewRunLogger(baseLogger logrus.FieldLogger) *RunLogger {
	return &RunLogger{
		Entry: baseLogger.WithField("component", "simulation_run"),
	}
}

// LogRunStarted logs a run being accepted.
func (rl *RunLogger) LogRunStarted(runID, gameID string, trials, workers int, seed uint64) {
	rl.WithFields(logrus.Fields{
		"run_id":  runID,
		"game_id": gameID,
		"trials":  trials,
		"workers": workers,
		"seed":    seed,
	}).Info("Simulation run started")
}

// LogRunCompleted logs a finished run with its headline numbers.
func (rl *RunLogger) LogRunCompleted(runID string, duration time.Duration, homeWinProbability float64, safetyCapHits int) {
	rl.WithFields(logrus.Fields{
		"run_id":               runID,
		"duration_ms":          duration.Milliseconds(),
		"home_win_probability": homeWinProbability,
		"safety_cap_hits":      safetyCapHits,
	}).Info("Simulation run completed")
}

// LogRunFailed logs a run that ended in error.
func (rl *RunLogger) LogRunFailed(runID string, err error) {
	rl.WithFields(logrus.Fields{
		"run_id": runID,
		"error":  err.Error(),
	}).Error("Simulation run failed")
}
