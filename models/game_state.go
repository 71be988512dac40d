package models

// Half identifies the top or bottom of an inning
type Half string

const (
	Top    Half = "top"
	Bottom Half = "bottom"
)

// BattingSide returns the club that bats in this half
func (h Half) BattingSide() Side {
	if h == Bottom {
		return Home
	}
	return Away
}

// RegulationInnings is the scheduled length of a game
const RegulationInnings = 9

// GameState tracks the inning and score as a game progresses
type GameState struct {
	Inning    int  `json:"inning"`
	Half      Half `json:"half"`
	HomeScore int  `json:"home_score"`
	AwayScore int  `json:"away_score"`
}

// NewGameState creates the state at first pitch
func NewGameState() *GameState {
	return &GameState{
		Inning: 1,
		Half:   Top,
	}
}

// AddRuns adds runs to the batting team's score
func (gs *GameState) AddRuns(runs int) {
	if gs.Half == Top {
		gs.AwayScore += runs
	} else {
		gs.HomeScore += runs
	}
}

// HomeNeedsToBat reports whether the bottom half must be played.
// From the ninth on, a home team already in front does not bat.
func (gs *GameState) HomeNeedsToBat() bool {
	if gs.Inning < RegulationInnings {
		return true
	}
	return gs.HomeScore <= gs.AwayScore
}

// WalkOffTarget returns the runs the home team needs to take the lead in the
// current bottom half, or -1 when a lead would not end the game.
func (gs *GameState) WalkOffTarget() int {
	if gs.Inning < RegulationInnings {
		return -1
	}
	return gs.AwayScore - gs.HomeScore + 1
}

// IsGameOver checks whether the game has ended after a completed half-inning
func (gs *GameState) IsGameOver() bool {
	if gs.Inning < RegulationInnings {
		return false
	}
	if gs.Half == Top {
		// Top half just finished; the game only ends if home need not bat
		return !gs.HomeNeedsToBat()
	}
	return gs.HomeScore != gs.AwayScore
}

// AdvanceInning moves to the next half-inning
func (gs *GameState) AdvanceInning() {
	if gs.Half == Top {
		gs.Half = Bottom
	} else {
		gs.Half = Top
		gs.Inning++
	}
}

// BaseState represents which bases are occupied
type BaseState struct {
	First  *BaseRunner `json:"first,omitempty"`
	Second *BaseRunner `json:"second,omitempty"`
	Third  *BaseRunner `json:"third,omitempty"`
}

// BaseRunner represents a player on base
type BaseRunner struct {
	Name  string  `json:"name"`
	Speed float64 `json:"speed"` // sprint speed, ft/s
}

// Runners returns a slice of all base runners, lead runner last
func (bs *BaseState) Runners() []*BaseRunner {
	var runners []*BaseRunner
	if bs.First != nil {
		runners = append(runners, bs.First)
	}
	if bs.Second != nil {
		runners = append(runners, bs.Second)
	}
	if bs.Third != nil {
		runners = append(runners, bs.Third)
	}
	return runners
}

// IsEmpty checks if all bases are empty
func (bs *BaseState) IsEmpty() bool {
	return bs.First == nil && bs.Second == nil && bs.Third == nil
}

// Count returns the number of runners on base
func (bs *BaseState) Count() int {
	return len(bs.Runners())
}

// Clear removes all base runners
func (bs *BaseState) Clear() {
	bs.First = nil
	bs.Second = nil
	bs.Third = nil
}

// PlateAppearanceEvent is one entry in a half-inning's event log
type PlateAppearanceEvent struct {
	Batter  string  `json:"batter"`
	Pitcher string  `json:"pitcher"`
	Outcome Outcome `json:"outcome"`
	Runs    int     `json:"runs,omitempty"`
	Outs    int     `json:"outs,omitempty"`
	Note    string  `json:"note,omitempty"`
}

// InningRecord holds the runs scored by each club in one inning
type InningRecord struct {
	Inning     int                    `json:"inning"`
	Away       int                    `json:"away"`
	Home       int                    `json:"home"`
	HomeBatted bool                   `json:"home_batted"`
	AwayEvents []PlateAppearanceEvent `json:"away_events,omitempty"`
	HomeEvents []PlateAppearanceEvent `json:"home_events,omitempty"`
}

// PitcherLine summarizes one pitcher's outing
type PitcherLine struct {
	Name         string `json:"name"`
	Role         Role   `json:"role"`
	PitchCount   int    `json:"pitch_count"`
	BattersFaced int    `json:"batters_faced"`
}

// GameResult is the outcome of one simulated game
type GameResult struct {
	Innings       []InningRecord         `json:"innings"`
	HomeScore     int                    `json:"home_score"`
	AwayScore     int                    `json:"away_score"`
	HomeRelievers []string               `json:"home_relievers"`
	AwayRelievers []string               `json:"away_relievers"`
	FinalPitchers map[Side][]PitcherLine `json:"final_pitchers"`
	Outcomes      map[Side]OutcomeCounts `json:"outcomes"`
	GameType      string                 `json:"game_type"`
	SafetyCapHits int                    `json:"safety_cap_hits"`
	ExtraInnings  bool                   `json:"extra_innings"`
}

// Winner returns the winning side; ok is false for an unfinished tie
func (gr *GameResult) Winner() (side Side, ok bool) {
	switch {
	case gr.HomeScore > gr.AwayScore:
		return Home, true
	case gr.AwayScore > gr.HomeScore:
		return Away, true
	default:
		return Home, false
	}
}

// RunsThrough returns each club's runs over the first n innings
func (gr *GameResult) RunsThrough(n int) (home, away int) {
	for _, inning := range gr.Innings {
		if inning.Inning > n {
			break
		}
		home += inning.Home
		away += inning.Away
	}
	return home, away
}

// Segment is a portion of the game priced as its own market
type Segment string

const (
	FirstInning Segment = "F1"
	FirstThree  Segment = "F3"
	FirstFive   Segment = "F5"
	FirstSeven  Segment = "F7"
	FullGame    Segment = "FG"
)

// AllSegments lists segments in game order
var AllSegments = []Segment{FirstInning, FirstThree, FirstFive, FirstSeven, FullGame}

// Innings returns the last inning the segment covers; zero means the full game
func (s Segment) Innings() int {
	switch s {
	case FirstInning:
		return 1
	case FirstThree:
		return 3
	case FirstFive:
		return 5
	case FirstSeven:
		return 7
	default:
		return 0
	}
}

// Runs returns each club's runs over the segment
func (s Segment) Runs(gr *GameResult) (home, away int) {
	if s.Innings() == 0 {
		return gr.HomeScore, gr.AwayScore
	}
	return gr.RunsThrough(s.Innings())
}
