package simulation

import (
	"github.com/sirupsen/logrus"

	"github.com/baseball-sim/sim-engine/metrics"
	"github.com/baseball-sim/sim-engine/models"
)

// fastRunnerSpeed is the sprint speed (ft/s) above which runners take the extra base more often
const fastRunnerSpeed = 28.5

// BattingOrder is a lineup plus the spot due up next. The spot carries
// over from one half-inning to the next for the same team.
type BattingOrder struct {
	batters []models.BatterProfile
	next    int
}

// NewBattingOrder starts the lineup at the leadoff spot
func NewBattingOrder(lineup []models.BatterProfile) *BattingOrder {
	return &BattingOrder{batters: lineup}
}

// Next returns the batter due up and advances the order
func (o *BattingOrder) Next() models.BatterProfile {
	b := o.batters[o.next]
	o.next = (o.next + 1) % len(o.batters)
	return b
}

// Previous returns the batter who made the last plate appearance
func (o *BattingOrder) Previous() models.BatterProfile {
	return o.batters[(o.next+len(o.batters)-1)%len(o.batters)]
}

// Position returns the lineup index due up next
func (o *BattingOrder) Position() int {
	return o.next
}

// HalfInning plays one side's turn at bat
type HalfInning struct {
	Inning        int
	Side          models.Side // batting side
	Order         *BattingOrder
	Staff         *PitchingStaff
	DefenseRating float64
	Env           *models.GameEnvironment
	Params        *Params
	Selector      *BullpenSelector
	Noise         bool
	RecordEvents  bool

	// WalkOffTarget ends the half once this many runs score; zero or less disables it
	WalkOffTarget int

	// StartingRunner is placed on second before the first pitch
	StartingRunner *models.BaseRunner

	Logger logrus.FieldLogger
}

// HalfInningResult is what a half-inning produced
type HalfInningResult struct {
	Runs             int
	Outs             int
	PlateAppearances int
	SafetyCapHit     bool
	WalkOff          bool
	Events           []models.PlateAppearanceEvent
}

// Play runs plate appearances until three outs, a walk-off, or the safety cap
func (h *HalfInning) Play(rng Source, ctx *SimulationContext) HalfInningResult {
	var result HalfInningResult
	var bases models.BaseState
	if h.StartingRunner != nil {
		runner := *h.StartingRunner
		bases.Second = &runner
	}

	for result.Outs < 3 {
		if result.PlateAppearances >= h.Params.MaxPlateAppearances {
			result.SafetyCapHit = true
			metrics.RecordSafetyCapHit(h.Side.String())
			if h.Logger != nil {
				h.Logger.WithFields(logrus.Fields{
					"inning":            h.Inning,
					"side":              h.Side.String(),
					"plate_appearances": result.PlateAppearances,
					"runs":              result.Runs,
					"outs":              result.Outs,
				}).Warn("Half-inning hit plate appearance safety cap, ending with partial result")
			}
			break
		}

		h.Staff.CheckSubstitution(rng, h.Selector, h.Params, ctx)

		batter := h.Order.Next()
		pitcher := h.Staff.Current
		adjusted := ApplyFatigue(pitcher.Pitcher, pitcher, h.Params)

		pa := ResolvePlateAppearance(rng, PlateAppearance{
			Batter:        batter,
			Pitcher:       adjusted,
			Env:           h.Env,
			DefenseRating: h.DefenseRating,
			Noise:         h.Noise,
		}, h.Params, ctx, h.Side)
		pitcher.RecordBatter(pa.Pitches)
		result.PlateAppearances++

		runs, outs := advanceRunners(rng, &bases, pa.Outcome, batter, result.Outs, h.Params)
		runs = walkOffRuns(runs, result.Runs, h.WalkOffTarget, pa.Outcome)
		result.Runs += runs
		result.Outs += outs

		if h.RecordEvents {
			result.Events = append(result.Events, models.PlateAppearanceEvent{
				Batter:  batter.Name,
				Pitcher: pitcher.Name,
				Outcome: pa.Outcome,
				Runs:    runs,
				Outs:    outs,
				Note:    eventNote(pa),
			})
		}

		if h.WalkOffTarget > 0 && result.Runs >= h.WalkOffTarget {
			result.WalkOff = true
			break
		}
	}

	if result.Outs > 3 {
		result.Outs = 3
	}
	return result
}

// walkOffRuns limits the runs credited on a game-ending play to those needed
// to win. A home run is the exception: the batter and every runner score.
func walkOffRuns(runs, scored, target int, outcome models.Outcome) int {
	if target <= 0 || outcome == models.HomeRun || scored+runs <= target {
		return runs
	}
	return max(target-scored, 0)
}

func eventNote(pa PAResult) string {
	switch {
	case pa.InfieldHit:
		return "infield hit"
	case pa.BattedBall != nil:
		return pa.BattedBall.String()
	default:
		return ""
	}
}

// advanceRunners applies a plate appearance outcome to the bases.
// outsBefore is the out count when the play began.
func advanceRunners(rng Source, bases *models.BaseState, outcome models.Outcome, batter models.BatterProfile,
	outsBefore int, params *Params) (runs, outs int) {

	switch outcome {
	case models.Single:
		return processSingle(rng, bases, batter, params), 0
	case models.Double:
		return processDouble(rng, bases, batter, params), 0
	case models.Triple:
		return processTriple(bases, batter), 0
	case models.HomeRun:
		return processHomeRun(bases), 0
	case models.Walk:
		return processWalk(bases, batter), 0
	case models.Strikeout:
		return 0, 1
	case models.Out:
		return processOut(rng, bases, outsBefore, params)
	default:
		return 0, 1
	}
}

func newRunner(batter models.BatterProfile) *models.BaseRunner {
	return &models.BaseRunner{Name: batter.Name, Speed: batter.Speed}
}

// advanceChance adds the fast-runner bonus to an advancement probability
func advanceChance(base float64, runner *models.BaseRunner, params *Params) float64 {
	if runner.Speed > fastRunnerSpeed {
		return base + params.FastRunnerBonus
	}
	return base
}

// processSingle handles a single hit
func processSingle(rng Source, bases *models.BaseState, batter models.BatterProfile, params *Params) int {
	runs := 0

	// Third base scores
	if bases.Third != nil {
		runs++
		bases.Third = nil
	}

	// Second base scores or holds at third
	if bases.Second != nil {
		if rng.Float64() < advanceChance(params.ScoreFromSecondOnSingle, bases.Second, params) {
			runs++
		} else {
			bases.Third = bases.Second
		}
		bases.Second = nil
	}

	// First base to second, or to third when it's open
	if bases.First != nil {
		if bases.Third == nil && rng.Float64() < advanceChance(params.FirstToThirdOnSingle, bases.First, params) {
			bases.Third = bases.First
		} else {
			bases.Second = bases.First
		}
		bases.First = nil
	}

	bases.First = newRunner(batter)
	return runs
}

// processDouble handles a double
func processDouble(rng Source, bases *models.BaseState, batter models.BatterProfile, params *Params) int {
	runs := 0

	// Third and second base score
	if bases.Third != nil {
		runs++
		bases.Third = nil
	}
	if bases.Second != nil {
		runs++
		bases.Second = nil
	}

	// First base scores or stops at third
	if bases.First != nil {
		if rng.Float64() < advanceChance(params.ScoreFromFirstOnDouble, bases.First, params) {
			runs++
		} else {
			bases.Third = bases.First
		}
		bases.First = nil
	}

	bases.Second = newRunner(batter)
	return runs
}

// processTriple handles a triple
func processTriple(bases *models.BaseState, batter models.BatterProfile) int {
	runs := bases.Count()
	bases.Clear()
	bases.Third = newRunner(batter)
	return runs
}

// processHomeRun handles a home run
func processHomeRun(bases *models.BaseState) int {
	runs := bases.Count() + 1 // Batter scores
	bases.Clear()
	return runs
}

// processWalk forces runners only when the base behind them is occupied
func processWalk(bases *models.BaseState, batter models.BatterProfile) int {
	runs := 0

	if bases.First != nil && bases.Second != nil && bases.Third != nil {
		runs++ // Force runner home from third
		bases.Third = bases.Second
		bases.Second = bases.First
	} else if bases.First != nil && bases.Second != nil {
		bases.Third = bases.Second
		bases.Second = bases.First
	} else if bases.First != nil {
		bases.Second = bases.First
	}

	bases.First = newRunner(batter)
	return runs
}

// processOut handles a ball in play that was caught or thrown out.
// With a runner on first and fewer than two outs it can become a double play;
// otherwise a runner on third can tag up and score.
func processOut(rng Source, bases *models.BaseState, outsBefore int, params *Params) (runs, outs int) {
	if outsBefore >= 2 {
		return 0, 1
	}

	if bases.First != nil && rng.Float64() < params.DoublePlayRate {
		bases.First = nil
		return 0, 2
	}

	if bases.Third != nil && rng.Float64() < params.TagUpRate {
		bases.Third = nil
		return 1, 1
	}

	return 0, 1
}
