package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGameStateIsGameOver(t *testing.T) {
	tests := []struct {
		name  string
		state GameState
		want  bool
	}{
		{"middle innings", GameState{Inning: 5, Half: Bottom, HomeScore: 9}, false},
		{"top ninth home ahead", GameState{Inning: 9, Half: Top, HomeScore: 3, AwayScore: 2}, true},
		{"top ninth home behind", GameState{Inning: 9, Half: Top, HomeScore: 1, AwayScore: 2}, false},
		{"top ninth tied", GameState{Inning: 9, Half: Top, HomeScore: 2, AwayScore: 2}, false},
		{"bottom ninth tied", GameState{Inning: 9, Half: Bottom, HomeScore: 2, AwayScore: 2}, false},
		{"bottom ninth decided", GameState{Inning: 9, Half: Bottom, HomeScore: 2, AwayScore: 4}, true},
		{"bottom twelfth walk-off", GameState{Inning: 12, Half: Bottom, HomeScore: 5, AwayScore: 4}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.state.IsGameOver())
		})
	}
}

func TestGameStateAdvance(t *testing.T) {
	gs := NewGameState()
	gs.AddRuns(2)
	gs.AdvanceInning()
	gs.AddRuns(1)
	gs.AdvanceInning()

	assert.Equal(t, 2, gs.AwayScore)
	assert.Equal(t, 1, gs.HomeScore)
	assert.Equal(t, 2, gs.Inning)
	assert.Equal(t, Top, gs.Half)
}

func TestWalkOffTarget(t *testing.T) {
	assert.Equal(t, -1, (&GameState{Inning: 8, AwayScore: 3}).WalkOffTarget())
	assert.Equal(t, 4, (&GameState{Inning: 9, AwayScore: 3}).WalkOffTarget())
	assert.Equal(t, 1, (&GameState{Inning: 10, AwayScore: 3, HomeScore: 3}).WalkOffTarget())
}

func TestBaseState(t *testing.T) {
	var bases BaseState
	assert.True(t, bases.IsEmpty())

	bases.First = &BaseRunner{Name: "a"}
	bases.Third = &BaseRunner{Name: "c"}
	assert.Equal(t, 2, bases.Count())
	assert.Equal(t, "c", bases.Runners()[1].Name)

	bases.Clear()
	assert.True(t, bases.IsEmpty())
}

func TestSegmentRuns(t *testing.T) {
	result := &GameResult{
		Innings: []InningRecord{
			{Inning: 1, Away: 1, Home: 0},
			{Inning: 2, Away: 0, Home: 2},
			{Inning: 3, Away: 3, Home: 0},
			{Inning: 4, Away: 0, Home: 0},
			{Inning: 5, Away: 1, Home: 1},
			{Inning: 6, Away: 0, Home: 0},
			{Inning: 7, Away: 0, Home: 0},
			{Inning: 8, Away: 2, Home: 0},
			{Inning: 9, Away: 0, Home: 1},
		},
		HomeScore: 4,
		AwayScore: 7,
	}

	tests := []struct {
		segment    Segment
		home, away int
	}{
		{FirstInning, 0, 1},
		{FirstThree, 2, 4},
		{FirstFive, 3, 5},
		{FirstSeven, 3, 5},
		{FullGame, 4, 7},
	}

	for _, tt := range tests {
		t.Run(string(tt.segment), func(t *testing.T) {
			home, away := tt.segment.Runs(result)
			assert.Equal(t, tt.home, home)
			assert.Equal(t, tt.away, away)
		})
	}

	winner, ok := result.Winner()
	assert.True(t, ok)
	assert.Equal(t, Away, winner)
}

func TestOutcomeText(t *testing.T) {
	counts := OutcomeCounts{Strikeout: 3, HomeRun: 1}
	data, err := json.Marshal(counts)
	require.NoError(t, err)

	var decoded OutcomeCounts
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, counts, decoded)

	assert.Equal(t, 4, counts.Total())
	assert.InDelta(t, 0.75, counts.Rate(Strikeout), 1e-9)

	var o Outcome
	assert.Error(t, o.UnmarshalText([]byte("XYZ")))
}

func TestSideKeyedJSON(t *testing.T) {
	bySide := map[Side]OutcomeCounts{Home: {Walk: 2}, Away: {Out: 5}}
	data, err := json.Marshal(bySide)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"home"`)

	var decoded map[Side]OutcomeCounts
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, bySide, decoded)

	var s Side
	assert.Error(t, s.UnmarshalText([]byte("visitors")))
	assert.Equal(t, Away, Home.Opponent())
	assert.Equal(t, Home, Away.Opponent())
}

func TestTeamWithDefaults(t *testing.T) {
	team := Team{
		Lineup:  []BatterProfile{{Name: "a"}},
		Starter: PitcherProfile{Name: "s", Role: Reliever},
		Bullpen: []PitcherProfile{{Name: "r", Role: Starter, KRate: 0.30}},
	}.WithDefaults()

	assert.Equal(t, LeagueKRate, team.Lineup[0].KRate)
	assert.Equal(t, LeagueSprintSpeed, team.Lineup[0].Speed)
	assert.Equal(t, Starter, team.Starter.Role)
	assert.Equal(t, Reliever, team.Bullpen[0].Role)
	assert.Equal(t, 0.30, team.Bullpen[0].KRate)
	assert.Equal(t, LeagueDefense, team.DefenseRating)
}

func TestPitcherStateTimesThrough(t *testing.T) {
	ps := NewPitcherState(PitcherProfile{Name: "ace"})
	for i := 0; i < 18; i++ {
		ps.RecordBatter(4)
	}
	assert.Equal(t, 72, ps.PitchCount)
	assert.Equal(t, 3, ps.TimesThrough)
}
