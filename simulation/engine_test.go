package simulation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baseball-sim/sim-engine/distribution"
	"github.com/baseball-sim/sim-engine/models"
)

// memoryStore is a RunStore that keeps everything in maps
type memoryStore struct {
	mu        sync.Mutex
	runs      map[string]RunStatus
	progress  map[string][]int
	summaries map[string]*Summary
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		runs:      make(map[string]RunStatus),
		progress:  make(map[string][]int),
		summaries: make(map[string]*Summary),
	}
}

func (s *memoryStore) SaveRun(_ context.Context, status RunStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[status.RunID] = status
	return nil
}

func (s *memoryStore) UpdateProgress(_ context.Context, runID string, completed int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress[runID] = append(s.progress[runID], completed)
	return nil
}

func (s *memoryStore) SaveSummary(_ context.Context, runID string, summary *Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries[runID] = summary
	return nil
}

func (s *memoryStore) LoadSummary(_ context.Context, runID string) (*Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	summary, ok := s.summaries[runID]
	if !ok {
		return nil, ErrRunNotFound
	}
	return summary, nil
}

func (s *memoryStore) run(runID string) RunStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs[runID]
}

type stubForecasts struct {
	weather models.Weather
	err     error
	calls   int
}

func (f *stubForecasts) GetWeatherForGame(_ context.Context, _ models.Stadium, _ time.Time) (models.Weather, error) {
	f.calls++
	return f.weather, f.err
}

func newTestEngine(store RunStore, forecasts ForecastProvider) *SimulationEngine {
	logger, _ := test.NewNullLogger()
	driver := NewDriver(testParams(), distribution.Calibration{}, nil, logger)
	return NewSimulationEngine(driver, EngineOptions{
		Store:     store,
		Forecasts: forecasts,
		Logger:    logger,
	})
}

func waitForState(t *testing.T, engine *SimulationEngine, runID string, want RunState) RunStatus {
	t.Helper()
	var status RunStatus
	require.Eventually(t, func() bool {
		var err error
		status, err = engine.GetRunStatus(runID)
		return err == nil && status.Status == want
	}, 30*time.Second, 10*time.Millisecond)
	return status
}

func TestStartRunCompletes(t *testing.T) {
	store := newMemoryStore()
	engine := newTestEngine(store, nil)

	runID, err := engine.StartRun(context.Background(), leagueMatchup(), RunOptions{Trials: 1000, Workers: 2, Seed: 3, Noise: true})
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	status := waitForState(t, engine, runID, RunCompleted)
	assert.Equal(t, "test-game", status.GameID)
	assert.Equal(t, 1000, status.CompletedTrials)
	assert.Equal(t, 1.0, status.Progress())
	assert.NotNil(t, status.CompletedTime)
	assert.Zero(t, engine.ActiveRuns())

	summary, err := engine.GetRunResult(context.Background(), runID)
	require.NoError(t, err)
	assert.Equal(t, 1000, summary.Trials)
	assert.Equal(t, uint64(3), summary.Seed)

	// The final status write lands just after the in-memory transition
	assert.Eventually(t, func() bool { return store.run(runID).Status == RunCompleted }, 5*time.Second, 10*time.Millisecond)
	store.mu.Lock()
	assert.Equal(t, []int{1000}, store.progress[runID])
	assert.Same(t, summary, store.summaries[runID])
	store.mu.Unlock()
}

func TestStartRunRejectsBadInput(t *testing.T) {
	engine := newTestEngine(nil, nil)

	_, err := engine.StartRun(context.Background(), leagueMatchup(), RunOptions{Trials: 0})
	assert.ErrorIs(t, err, ErrInvalidMatchup)

	m := leagueMatchup()
	m.Home.Lineup = nil
	_, err = engine.StartRun(context.Background(), m, RunOptions{Trials: 10})
	assert.ErrorIs(t, err, ErrInvalidMatchup)

	m = leagueMatchup()
	m.Away.Starter.Stats["Stuff+"] = map[string]interface{}{"fastball": 110}
	_, err = engine.StartRun(context.Background(), m, RunOptions{Trials: 10})
	assert.ErrorIs(t, err, ErrMalformedStat)

	assert.Zero(t, engine.ActiveRuns())
}

func TestUnknownRun(t *testing.T) {
	engine := newTestEngine(nil, nil)

	_, err := engine.GetRunStatus("missing")
	assert.ErrorIs(t, err, ErrRunNotFound)

	_, err = engine.GetRunResult(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)

	assert.ErrorIs(t, engine.CancelRun("missing"), ErrRunNotFound)
}

func TestCancelRun(t *testing.T) {
	engine := newTestEngine(nil, nil)

	runID, err := engine.StartRun(context.Background(), leagueMatchup(), RunOptions{Trials: 1000000, Workers: 1, Seed: 1})
	require.NoError(t, err)

	_, err = engine.GetRunResult(context.Background(), runID)
	assert.ErrorIs(t, err, ErrRunNotComplete)

	require.NoError(t, engine.CancelRun(runID))
	status := waitForState(t, engine, runID, RunCancelled)
	assert.NotEmpty(t, status.Error)

	_, err = engine.GetRunResult(context.Background(), runID)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrRunNotComplete))
	assert.Contains(t, err.Error(), "cancelled")
}

func TestCleanupFallsBackToStore(t *testing.T) {
	store := newMemoryStore()
	engine := newTestEngine(store, nil)

	runID, err := engine.StartRun(context.Background(), leagueMatchup(), RunOptions{Trials: 50, Workers: 1, Seed: 2})
	require.NoError(t, err)
	waitForState(t, engine, runID, RunCompleted)

	assert.Zero(t, engine.CleanupOldRuns(), "fresh runs are kept")

	engine.mu.Lock()
	engine.runs[runID].status.StartTime = time.Now().Add(-48 * time.Hour)
	engine.mu.Unlock()

	assert.Equal(t, 1, engine.CleanupOldRuns())
	_, err = engine.GetRunStatus(runID)
	assert.ErrorIs(t, err, ErrRunNotFound)

	summary, err := engine.GetRunResult(context.Background(), runID)
	require.NoError(t, err)
	assert.Equal(t, 50, summary.Trials)
}

func TestStartCleanup(t *testing.T) {
	engine := newTestEngine(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	assert.Error(t, engine.StartCleanup(ctx, "every so often"))

	runID, err := engine.StartRun(context.Background(), leagueMatchup(), RunOptions{Trials: 20, Workers: 1, Seed: 3})
	require.NoError(t, err)
	waitForState(t, engine, runID, RunCompleted)

	engine.mu.Lock()
	engine.runs[runID].status.StartTime = time.Now().Add(-48 * time.Hour)
	engine.mu.Unlock()

	require.NoError(t, engine.StartCleanup(ctx, "@every 1s"))
	assert.Eventually(t, func() bool {
		_, err := engine.GetRunStatus(runID)
		return errors.Is(err, ErrRunNotFound)
	}, 5*time.Second, 50*time.Millisecond)
}

func TestShutdownStopsRuns(t *testing.T) {
	engine := newTestEngine(nil, nil)

	runID, err := engine.StartRun(context.Background(), leagueMatchup(), RunOptions{Trials: 1000000, Workers: 2, Seed: 1})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, engine.Shutdown(ctx))

	status, err := engine.GetRunStatus(runID)
	require.NoError(t, err)
	assert.Equal(t, RunCancelled, status.Status)
}

func TestSimulate(t *testing.T) {
	engine := newTestEngine(nil, nil)

	summary, err := engine.Simulate(context.Background(), leagueMatchup(), RunOptions{Trials: 100, Workers: 2, Seed: 4})
	require.NoError(t, err)
	assert.Equal(t, 100, summary.Trials)
	assert.Equal(t, DefaultRunOptions(), engine.Defaults())
}

func TestPrepareResolvesWeather(t *testing.T) {
	forecasts := &stubForecasts{weather: models.Weather{Temperature: 90, WindSpeed: 15, WindDir: "out", Humidity: 40, Pressure: 29.9}}
	engine := newTestEngine(nil, forecasts)

	m := leagueMatchup()
	m.GameTime = time.Date(2024, 7, 4, 19, 5, 0, 0, time.UTC)
	setup, err := engine.Prepare(context.Background(), m)
	require.NoError(t, err)

	require.NotNil(t, m.Weather)
	assert.Equal(t, 90, m.Weather.Temperature)
	assert.Greater(t, setup.Env.WeatherHRMultiplier, 1.0)
	assert.Equal(t, 1, forecasts.calls)

	// Failures fall back to default conditions
	forecasts.err = errors.New("upstream down")
	m = leagueMatchup()
	m.GameTime = time.Date(2024, 7, 4, 19, 5, 0, 0, time.UTC)
	_, err = engine.Prepare(context.Background(), m)
	require.NoError(t, err)
	assert.Nil(t, m.Weather)
}

func TestResolveWeatherSkips(t *testing.T) {
	gameTime := time.Date(2024, 5, 1, 18, 0, 0, 0, time.UTC)
	env := models.NeutralEnvironment()

	tests := []struct {
		name   string
		mutate func(m *models.Matchup)
	}{
		{"no game time", func(m *models.Matchup) { m.GameTime = time.Time{} }},
		{"dome", func(m *models.Matchup) { m.Stadium.RoofType = "dome" }},
		{"weather supplied", func(m *models.Matchup) { m.Weather = &models.Weather{Temperature: 60} }},
		{"environment supplied", func(m *models.Matchup) { m.Environment = &env }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			forecasts := &stubForecasts{}
			m := leagueMatchup()
			m.GameTime = gameTime
			tt.mutate(m)

			require.NoError(t, ResolveWeather(context.Background(), forecasts, m))
			assert.Zero(t, forecasts.calls)
		})
	}

	assert.NoError(t, ResolveWeather(context.Background(), nil, leagueMatchup()))
	assert.NoError(t, ResolveWeather(context.Background(), &stubForecasts{}, nil))
}

func TestRunStateIsFinal(t *testing.T) {
	assert.False(t, RunPending.IsFinal())
	assert.False(t, RunRunning.IsFinal())
	assert.True(t, RunCompleted.IsFinal())
	assert.True(t, RunFailed.IsFinal())
	assert.True(t, RunCancelled.IsFinal())
	assert.Zero(t, RunStatus{}.Progress())
}
