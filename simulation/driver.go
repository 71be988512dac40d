package simulation

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/baseball-sim/sim-engine/distribution"
	"github.com/baseball-sim/sim-engine/metrics"
	"github.com/baseball-sim/sim-engine/models"
)

// RunOptions control one batch of trials
type RunOptions struct {
	Trials  int    `json:"trials" validate:"min=1,max=1000000"`
	Workers int    `json:"workers" validate:"min=0,max=256"`
	Seed    uint64 `json:"seed"`
	Noise   bool   `json:"noise"`

	// ShareReliefUsage keeps reliever usage across a worker's trials instead of resetting per game
	ShareReliefUsage bool `json:"share_relief_usage"`
}

// DefaultRunOptions returns the standard batch: 10,000 noisy trials on one worker
func DefaultRunOptions() RunOptions {
	return RunOptions{
		Trials:  10000,
		Workers: 1,
		Seed:    1,
		Noise:   true,
	}
}

// DistributionSet holds the PMFs for one segment
type DistributionSet struct {
	Total        distribution.PMF `json:"total"`
	Home         distribution.PMF `json:"home"`
	Away         distribution.PMF `json:"away"`
	Differential distribution.PMF `json:"differential"`
}

// SegmentSummary is the raw and calibrated picture of one segment
type SegmentSummary struct {
	Raw         DistributionSet                 `json:"raw"`
	Scaled      DistributionSet                 `json:"scaled"`
	Stats       map[string]distribution.Summary `json:"stats"`
	ScaledStats map[string]distribution.Summary `json:"scaled_stats"`
}

// Summary is the output of a batch: distributions, markets and diagnostics
type Summary struct {
	Trials             int                                  `json:"trials"`
	Workers            int                                  `json:"workers"`
	Seed               uint64                               `json:"seed"`
	Segments           map[models.Segment]*SegmentSummary   `json:"segments"`
	Markets            []distribution.Market                `json:"markets"`
	HomeWinProbability float64                              `json:"home_win_probability"`
	Outcomes           map[models.Side]models.OutcomeCounts `json:"outcomes"`
	RelieverUsage      map[models.Side]map[string]int       `json:"reliever_usage"`
	GameTypes          map[string]int                       `json:"game_types"`
	SafetyCapHits      int                                  `json:"safety_cap_hits"`
	SampleGame         *models.GameResult                   `json:"sample_game,omitempty"`
	Duration           time.Duration                        `json:"duration_ns"`
}

// trialScore is the per-segment score of one simulated game
type trialScore struct {
	home [len(segmentOrder)]int
	away [len(segmentOrder)]int
}

var segmentOrder = [...]models.Segment{
	models.FirstInning,
	models.FirstThree,
	models.FirstFive,
	models.FirstSeven,
	models.FullGame,
}

// Driver runs batches of independent game simulations
type Driver struct {
	params      *Params
	calibration distribution.Calibration
	lines       map[string]distribution.SegmentLines
	logger      logrus.FieldLogger
}

// NewDriver creates a driver. Nil lines price the default lines.
func NewDriver(params *Params, calibration distribution.Calibration, lines map[string]distribution.SegmentLines,
	logger logrus.FieldLogger) *Driver {

	if lines == nil {
		lines = distribution.DefaultLines()
	}
	return &Driver{
		params:      params,
		calibration: calibration,
		lines:       lines,
		logger:      logger,
	}
}

// Run simulates opts.Trials games and aggregates them. Each worker draws from
// its own stream seeded from opts.Seed, so a seed and worker count always
// reproduce the same summary. progress, when set, is called after every trial.
func (d *Driver) Run(ctx context.Context, setup *GameSetup, opts RunOptions, progress func()) (*Summary, error) {
	if opts.Trials < 1 {
		return nil, fmt.Errorf("%w: trials must be positive", ErrInvalidMatchup)
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Workers > opts.Trials {
		opts.Workers = opts.Trials
	}

	start := time.Now()
	logger := d.logger.WithFields(logrus.Fields{
		"trials":  opts.Trials,
		"workers": opts.Workers,
		"seed":    opts.Seed,
	})
	logger.Debug("Starting simulation batch")

	scores := make([][]trialScore, opts.Workers)
	contexts := make([]*SimulationContext, opts.Workers)
	var sample *models.GameResult

	trialsPerWorker := opts.Trials / opts.Workers
	remainder := opts.Trials % opts.Workers

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < opts.Workers; i++ {
		workerID := i
		count := trialsPerWorker
		if workerID < remainder {
			count++
		}

		g.Go(func() error {
			rng := NewSource(opts.Seed + uint64(workerID))
			simCtx := NewSimulationContext()
			tracker := NewReliefUsageTracker()
			selector := NewBullpenSelector(tracker, d.params)
			game := NewGame(setup, d.params, selector, logger.WithField("worker", workerID))
			game.Noise = opts.Noise

			results := make([]trialScore, 0, count)
			for j := 0; j < count; j++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				if !opts.ShareReliefUsage {
					tracker.Reset()
				}

				// Only the very first game keeps its play-by-play
				game.RecordEvents = workerID == 0 && j == 0
				result := game.Play(rng, simCtx)
				if game.RecordEvents {
					sample = result
				}

				results = append(results, scoreTrial(result))
				if progress != nil {
					progress()
				}
			}

			scores[workerID] = results
			contexts[workerID] = simCtx
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("simulation batch cancelled: %w", err)
	}

	// Merge in worker order so output doesn't depend on scheduling
	merged := NewSimulationContext()
	var all []trialScore
	for i := range scores {
		all = append(all, scores[i]...)
		merged.Merge(contexts[i])
	}

	summary := d.summarize(all, merged)
	summary.Workers = opts.Workers
	summary.Seed = opts.Seed
	summary.SampleGame = sample
	summary.Duration = time.Since(start)

	metrics.RecordTrials(len(all))
	for gameType, n := range merged.GameTypes {
		metrics.RecordGameTypes(gameType, n)
	}

	logger.WithFields(logrus.Fields{
		"duration":             summary.Duration.String(),
		"home_win_probability": summary.HomeWinProbability,
		"safety_cap_hits":      summary.SafetyCapHits,
	}).Info("Simulation batch complete")

	return summary, nil
}

func scoreTrial(result *models.GameResult) trialScore {
	var ts trialScore
	for i, segment := range segmentOrder {
		ts.home[i], ts.away[i] = segment.Runs(result)
	}
	return ts
}

// summarize builds PMFs, calibrated distributions and markets from the trial scores
func (d *Driver) summarize(all []trialScore, simCtx *SimulationContext) *Summary {
	summary := &Summary{
		Trials:        len(all),
		Segments:      make(map[models.Segment]*SegmentSummary, len(segmentOrder)),
		Outcomes:      simCtx.Outcomes,
		RelieverUsage: simCtx.RelieverUsage,
		GameTypes:     simCtx.GameTypes,
		SafetyCapHits: simCtx.SafetyCapHits,
	}

	for i, segment := range segmentOrder {
		home := make([]float64, len(all))
		away := make([]float64, len(all))
		total := make([]float64, len(all))
		diff := make([]float64, len(all))
		for j, ts := range all {
			home[j] = float64(ts.home[i])
			away[j] = float64(ts.away[i])
			total[j] = home[j] + away[j]
			diff[j] = home[j] - away[j]
		}

		name := string(segment)
		scaledTotal := distribution.Scale(total, d.calibration.TotalTarget(name))
		scaledDiff := distribution.Scale(diff, d.calibration.DifferentialTarget(name))
		scaledHome, scaledAway := distribution.ScaleTeamTotals(home, away, d.calibration.TeamTotals)

		seg := &SegmentSummary{
			Raw: DistributionSet{
				Total:        distribution.FromValues(total),
				Home:         distribution.FromValues(home),
				Away:         distribution.FromValues(away),
				Differential: distribution.FromValues(diff),
			},
			Scaled: DistributionSet{
				Total:        distribution.FromValues(scaledTotal),
				Home:         distribution.FromValues(scaledHome),
				Away:         distribution.FromValues(scaledAway),
				Differential: distribution.FromValues(scaledDiff),
			},
			Stats: map[string]distribution.Summary{
				"total":        distribution.Summarize(total),
				"home":         distribution.Summarize(home),
				"away":         distribution.Summarize(away),
				"differential": distribution.Summarize(diff),
			},
			ScaledStats: map[string]distribution.Summary{
				"total":        distribution.Summarize(scaledTotal),
				"home":         distribution.Summarize(scaledHome),
				"away":         distribution.Summarize(scaledAway),
				"differential": distribution.Summarize(scaledDiff),
			},
		}
		summary.Segments[segment] = seg

		lines, _ := distribution.LinesFor(d.lines, name)
		markets := distribution.BuildMarkets(name, distribution.SegmentDistributions{
			Total:        seg.Scaled.Total,
			Home:         seg.Scaled.Home,
			Away:         seg.Scaled.Away,
			Differential: seg.Scaled.Differential,
		}, lines, segment == models.FullGame, d.calibration.WinProbability)
		summary.Markets = append(summary.Markets, markets...)

		if segment == models.FullGame {
			for _, m := range markets {
				if m.Type == distribution.MarketMoneyline && m.Selection == distribution.Home {
					summary.HomeWinProbability = m.Probability
				}
			}
		}
	}

	return summary
}
