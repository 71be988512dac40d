package simulation

import (
	"fmt"

	"github.com/baseball-sim/sim-engine/models"
)

// scriptedSource replays fixed uniforms so a single play can be pinned down
type scriptedSource struct {
	floats []float64
	i      int
}

func script(floats ...float64) *scriptedSource {
	return &scriptedSource{floats: floats}
}

func (s *scriptedSource) Float64() float64 {
	v := s.floats[s.i%len(s.floats)]
	s.i++
	return v
}

func (s *scriptedSource) IntN(n int) int { return 0 }

func (s *scriptedSource) Uint64() uint64 { return 0 }

func testParams() *Params {
	p := DefaultParams()
	return &p
}

// leagueTeam is nine league-average hitters, a starter and a four-man bullpen
func leagueTeam(name string) models.Team {
	team := models.Team{Name: name}
	for i := 1; i <= 9; i++ {
		team.Lineup = append(team.Lineup, models.BatterProfile{Name: fmt.Sprintf("%s batter %d", name, i)})
	}
	team.Starter = models.PitcherProfile{Name: name + " starter", TBF: 600, HR: 18, IP: 150}
	for i := 1; i <= 4; i++ {
		team.Bullpen = append(team.Bullpen, models.PitcherProfile{
			Name: fmt.Sprintf("%s reliever %d", name, i),
			IP:   float64(20 * i),
		})
	}

	team = team.WithDefaults()
	team.Starter.HRPerPA = ProjectHRPerPA(team.Starter).Smoothed
	for i := range team.Bullpen {
		team.Bullpen[i].HRPerPA = ProjectHRPerPA(team.Bullpen[i]).Smoothed
	}
	return team
}

func leagueSetup() *GameSetup {
	return &GameSetup{
		Home: leagueTeam("home"),
		Away: leagueTeam("away"),
		Env:  models.NeutralEnvironment(),
	}
}

// fixedRateTeam bats and pitches with exact K and BB rates; no league imputation
func fixedRateTeam(name string, kRate, bbRate float64) models.Team {
	team := models.Team{Name: name, DefenseRating: 100}
	for i := 1; i <= 9; i++ {
		team.Lineup = append(team.Lineup, models.BatterProfile{
			Name:   fmt.Sprintf("%s batter %d", name, i),
			KRate:  kRate,
			BBRate: bbRate,
		})
	}
	team.Starter = models.PitcherProfile{Name: name + " starter", Role: models.Starter, KRate: kRate, BBRate: bbRate}
	return team
}

// certainParams lets K+BB reach one and switches off fatigue so fixed-rate
// teams stay fully deterministic however long they pitch
func certainParams() *Params {
	p := testParams()
	p.MaxWalkPlusK = 1
	p.TTOStrikeoutPenalty = []float64{1.0}
	p.TTOWalkPenalty = []float64{1.0}
	p.FatiguePitchThreshold = 1000
	return p
}

func leagueMatchup() *models.Matchup {
	lineup := func(prefix string) []models.PlayerStats {
		var players []models.PlayerStats
		for i := 1; i <= 9; i++ {
			players = append(players, models.PlayerStats{
				Name:  fmt.Sprintf("%s %d", prefix, i),
				Stats: map[string]interface{}{"K%": 22.0, "BB%": 8.5, "ISO": 0.150},
			})
		}
		return players
	}

	return &models.Matchup{
		GameID: "test-game",
		Home: models.TeamInput{
			Name:    "Home",
			Lineup:  lineup("home"),
			Starter: models.PlayerStats{Name: "home starter", Stats: map[string]interface{}{"TBF": 600, "HR": 18, "IP": 150.0}},
			Bullpen: []models.PlayerStats{
				{Name: "home closer", Stats: map[string]interface{}{"IP": 60.0}},
				{Name: "home setup", Stats: map[string]interface{}{"IP": 55.0}},
			},
		},
		Away: models.TeamInput{
			Name:    "Away",
			Lineup:  lineup("away"),
			Starter: models.PlayerStats{Name: "away starter", Stats: map[string]interface{}{"TBF": 500, "HR": 12, "IP": 120.0}},
			Bullpen: []models.PlayerStats{
				{Name: "away closer", Stats: map[string]interface{}{"IP": 62.0}},
			},
		},
		Stadium: models.Stadium{Name: "Neutral Park"},
	}
}
