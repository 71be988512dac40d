package simulation

import (
	"github.com/sirupsen/logrus"

	"github.com/baseball-sim/sim-engine/models"
)

// ShouldReplacePitcher reports whether the pitcher on the mound is done:
// past the pitch limit for his role, or due to face the lineup a third time.
func ShouldReplacePitcher(state *models.PitcherState, params *Params) bool {
	limit := params.PitchCountLimit
	if state.Pitcher.Role == models.Reliever {
		limit = params.ReliefPitchLimit
	}
	return state.PitchCount > limit || state.TimesThrough >= params.TTOLimit
}

// PitchingStaff is one club's pitchers for a single game
type PitchingStaff struct {
	Side      models.Side // fielding side
	Current   *models.PitcherState
	available []models.PitcherProfile
	lines     []*models.PitcherState
	relievers []string
}

// NewPitchingStaff puts the starter on the mound with the full bullpen available
func NewPitchingStaff(side models.Side, team *models.Team) *PitchingStaff {
	starter := models.NewPitcherState(team.Starter)
	available := make([]models.PitcherProfile, len(team.Bullpen))
	copy(available, team.Bullpen)

	return &PitchingStaff{
		Side:      side,
		Current:   starter,
		available: available,
		lines:     []*models.PitcherState{starter},
	}
}

// CheckSubstitution brings in a reliever when the current pitcher is done.
// With nobody eligible in the bullpen the current pitcher stays in.
func (s *PitchingStaff) CheckSubstitution(rng Source, selector *BullpenSelector, params *Params, ctx *SimulationContext) bool {
	if !ShouldReplacePitcher(s.Current, params) || len(s.available) == 0 {
		return false
	}

	picked := selector.Select(rng, s.Side, s.available, 1)
	if len(picked) == 0 {
		return false
	}
	reliever := picked[0]

	// A pitcher who leaves the game doesn't come back
	for i, p := range s.available {
		if p.Name == reliever.Name {
			s.available = append(s.available[:i], s.available[i+1:]...)
			break
		}
	}

	s.Current = models.NewPitcherState(reliever)
	s.lines = append(s.lines, s.Current)
	s.relievers = append(s.relievers, reliever.Name)
	ctx.RecordReliever(s.Side, reliever.Name)
	return true
}

// Relievers returns the relievers used, in order of appearance
func (s *PitchingStaff) Relievers() []string {
	return s.relievers
}

// Lines summarizes every pitcher who appeared
func (s *PitchingStaff) Lines() []models.PitcherLine {
	lines := make([]models.PitcherLine, len(s.lines))
	for i, ps := range s.lines {
		lines[i] = models.PitcherLine{
			Name:         ps.Name,
			Role:         ps.Pitcher.Role,
			PitchCount:   ps.PitchCount,
			BattersFaced: ps.BattersFaced,
		}
	}
	return lines
}

// Game simulates one game between two imputed rosters
type Game struct {
	Home         *models.Team
	Away         *models.Team
	Env          models.GameEnvironment
	Params       *Params
	Selector     *BullpenSelector
	Noise        bool
	RecordEvents bool
	Logger       logrus.FieldLogger
}

// NewGame creates a game from a prepared matchup
func NewGame(setup *GameSetup, params *Params, selector *BullpenSelector, logger logrus.FieldLogger) *Game {
	return &Game{
		Home:         &setup.Home,
		Away:         &setup.Away,
		Env:          setup.Env.WithDefaults(),
		Params:       params,
		Selector:     selector,
		Noise:        true,
		RecordEvents: true,
		Logger:       logger,
	}
}

// Play simulates the game to completion
func (g *Game) Play(rng Source, ctx *SimulationContext) *models.GameResult {
	state := models.NewGameState()
	result := &models.GameResult{
		Outcomes: map[models.Side]models.OutcomeCounts{
			models.Away: {},
			models.Home: {},
		},
	}

	orders := map[models.Side]*BattingOrder{
		models.Away: NewBattingOrder(g.Away.Lineup),
		models.Home: NewBattingOrder(g.Home.Lineup),
	}
	// Staffs and defense are keyed by the batting side they face
	teams := map[models.Side]*models.Team{models.Away: g.Away, models.Home: g.Home}
	staffs := make(map[models.Side]*PitchingStaff, 2)
	defense := make(map[models.Side]float64, 2)
	for side := range orders {
		fielding := side.Opponent()
		staffs[side] = NewPitchingStaff(fielding, teams[fielding])
		defense[side] = teams[fielding].DefenseRating
	}

	// Per-game outcome tally alongside the batch context
	gameCtx := NewSimulationContext()

	playHalf := func(side models.Side, walkOffTarget int) HalfInningResult {
		half := &HalfInning{
			Inning:        state.Inning,
			Side:          side,
			Order:         orders[side],
			Staff:         staffs[side],
			DefenseRating: defense[side],
			Env:           &g.Env,
			Params:        g.Params,
			Selector:      g.Selector,
			Noise:         g.Noise,
			RecordEvents:  g.RecordEvents,
			WalkOffTarget: walkOffTarget,
			Logger:        g.Logger,
		}
		if g.Params.ExtraInningRunner && state.Inning > models.RegulationInnings {
			half.StartingRunner = newRunner(orders[side].Previous())
		}

		hr := half.Play(rng, gameCtx)
		if hr.SafetyCapHit {
			result.SafetyCapHits++
		}
		return hr
	}

	for {
		record := models.InningRecord{Inning: state.Inning}

		top := playHalf(models.Away, 0)
		state.AddRuns(top.Runs)
		record.Away = top.Runs
		record.AwayEvents = top.Events

		if state.IsGameOver() {
			result.Innings = append(result.Innings, record)
			break
		}

		state.AdvanceInning()
		bottom := playHalf(models.Home, state.WalkOffTarget())
		state.AddRuns(bottom.Runs)
		record.Home = bottom.Runs
		record.HomeEvents = bottom.Events
		record.HomeBatted = true
		result.Innings = append(result.Innings, record)

		if state.IsGameOver() {
			break
		}
		if state.Inning >= g.Params.MaxInnings {
			if g.Logger != nil {
				g.Logger.WithFields(logrus.Fields{
					"inning":     state.Inning,
					"home_score": state.HomeScore,
					"away_score": state.AwayScore,
				}).Warn("Game reached innings cap, ending tied")
			}
			break
		}
		state.AdvanceInning()
	}

	result.HomeScore = state.HomeScore
	result.AwayScore = state.AwayScore
	result.ExtraInnings = state.Inning > models.RegulationInnings
	result.HomeRelievers = staffs[models.Away].Relievers()
	result.AwayRelievers = staffs[models.Home].Relievers()
	result.FinalPitchers = map[models.Side][]models.PitcherLine{
		models.Home: staffs[models.Away].Lines(),
		models.Away: staffs[models.Home].Lines(),
	}
	result.Outcomes = gameCtx.Outcomes
	result.GameType = ClassifyGame(result)

	gameCtx.RecordGame(result)
	ctx.Merge(gameCtx)

	return result
}

// ClassifyGame buckets a finished game by total runs and margin
func ClassifyGame(result *models.GameResult) string {
	total := result.HomeScore + result.AwayScore
	margin := result.HomeScore - result.AwayScore
	if margin < 0 {
		margin = -margin
	}

	switch {
	case margin >= 7:
		return "Blowout"
	case total <= 4:
		return "Pitcher's Duel"
	case total >= 13:
		return "Slugfest"
	case result.ExtraInnings:
		return "Extra-Inning Thriller"
	case margin == 1:
		return "Nail-Biter"
	default:
		return "Standard"
	}
}
