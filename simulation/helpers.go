package simulation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"

	"github.com/baseball-sim/sim-engine/models"
)

var (
	// ErrMalformedStat means a stat record carries a list or map where a number belongs
	ErrMalformedStat = errors.New("malformed stat")

	// ErrInvalidMatchup means the matchup cannot be simulated as given
	ErrInvalidMatchup = errors.New("invalid matchup")
)

// Stat record keys
const (
	statKRate       = "K%"
	statBBRate      = "BB%"
	statISO         = "ISO"
	statAVG         = "AVG"
	statWOBA        = "wOBA"
	statSprintSpeed = "Sprint Speed"
	statStrikeouts  = "SO"
	statWalks       = "BB"
	statStuffPlus   = "Stuff+"
	statCommandPlus = "Command+"
	statLocation    = "Location+"
	statExitVelo    = "EV"
	statLaunchAngle = "LA"
	statBarrelRate  = "Barrel%"
	statXSLG        = "xSLG"
	statXWOBACON    = "xwOBACON"
	statSweetSpot   = "SweetSpot%"
	statHomeRuns    = "HR"
	statTBF         = "TBF"
	statIP          = "IP"
)

// GameSetup is a matchup ready to simulate: imputed rosters and a resolved environment
type GameSetup struct {
	Home models.Team            `json:"home"`
	Away models.Team            `json:"away"`
	Env  models.GameEnvironment `json:"environment"`
}

// NewGameSetup imputes both rosters and resolves the environment.
// Any malformed stat fails the whole matchup before a single trial runs.
func NewGameSetup(m *models.Matchup) (*GameSetup, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil matchup", ErrInvalidMatchup)
	}

	home, err := TeamFromInput(m.Home)
	if err != nil {
		return nil, fmt.Errorf("home team: %w", err)
	}
	away, err := TeamFromInput(m.Away)
	if err != nil {
		return nil, fmt.Errorf("away team: %w", err)
	}

	return &GameSetup{
		Home: home,
		Away: away,
		Env:  m.ResolveEnvironment(),
	}, nil
}

// TeamFromInput builds a team from raw stat records and projects each pitcher's HR rate
func TeamFromInput(in models.TeamInput) (models.Team, error) {
	if len(in.Lineup) == 0 {
		return models.Team{}, fmt.Errorf("%w: %s has an empty lineup", ErrInvalidMatchup, in.Name)
	}

	team := models.Team{
		Name:          in.Name,
		Lineup:        make([]models.BatterProfile, 0, len(in.Lineup)),
		Bullpen:       make([]models.PitcherProfile, 0, len(in.Bullpen)),
		DefenseRating: in.DefenseRating,
	}

	for _, ps := range in.Lineup {
		batter, err := BatterFromStats(ps)
		if err != nil {
			return models.Team{}, fmt.Errorf("lineup: %w", err)
		}
		team.Lineup = append(team.Lineup, batter)
	}

	starter, err := PitcherFromStats(in.Starter, models.Starter)
	if err != nil {
		return models.Team{}, fmt.Errorf("starter: %w", err)
	}
	starter.HRPerPA = ProjectHRPerPA(starter).Smoothed
	team.Starter = starter

	for _, ps := range in.Bullpen {
		reliever, err := PitcherFromStats(ps, models.Reliever)
		if err != nil {
			return models.Team{}, fmt.Errorf("bullpen: %w", err)
		}
		reliever.HRPerPA = ProjectHRPerPA(reliever).Smoothed
		team.Bullpen = append(team.Bullpen, reliever)
	}

	return team.WithDefaults(), nil
}

// BatterFromStats applies a batting stat record to a batter profile
func BatterFromStats(ps models.PlayerStats) (models.BatterProfile, error) {
	b := models.BatterProfile{Name: ps.Name, Hand: ps.Hand}
	r := statReader{stats: ps.Stats, player: ps.Name}

	b.KRate = r.rate(statKRate, models.LeagueKRate)
	b.BBRate = r.rate(statBBRate, models.LeagueBBRate)
	b.ISO = r.float(statISO, models.LeagueISO)
	b.AVG = r.float(statAVG, models.LeagueAVG)
	b.WOBA = r.float(statWOBA, models.LeagueWOBA)
	b.Speed = r.float(statSprintSpeed, models.LeagueSprintSpeed)

	if r.err != nil {
		return models.BatterProfile{}, r.err
	}
	return b.WithDefaults(), nil
}

// PitcherFromStats applies a pitching stat record to a pitcher profile
func PitcherFromStats(ps models.PlayerStats, role models.Role) (models.PitcherProfile, error) {
	p := models.PitcherProfile{Name: ps.Name, Hand: ps.Hand, Role: role}
	r := statReader{stats: ps.Stats, player: ps.Name}

	// Counting stats
	p.HR = r.int(statHomeRuns, 0)
	p.TBF = r.int(statTBF, 0)
	p.IP = r.float(statIP, 0)

	// Rates fall back to counting stats before league averages
	kDefault, bbDefault := models.LeagueKRate, models.LeagueBBRate
	if p.TBF > 0 {
		if so := r.int(statStrikeouts, -1); so >= 0 {
			kDefault = float64(so) / float64(p.TBF)
		}
		if bb := r.int(statWalks, -1); bb >= 0 {
			bbDefault = float64(bb) / float64(p.TBF)
		}
	}
	p.KRate = r.rate(statKRate, kDefault)
	p.BBRate = r.rate(statBBRate, bbDefault)

	// Pitch quality
	p.StuffPlus = r.float(statStuffPlus, models.LeaguePlusRating)
	p.CommandPlus = r.float(statCommandPlus, models.LeaguePlusRating)
	p.LocationPlus = r.float(statLocation, models.LeaguePlusRating)

	// Contact quality allowed
	p.AvgExitVelo = r.float(statExitVelo, models.LeagueExitVelo)
	p.LaunchAngle = r.float(statLaunchAngle, models.LeagueLaunchAngle)
	p.BarrelRate = r.rate(statBarrelRate, models.LeagueBarrelRate)
	p.XSLG = r.float(statXSLG, models.LeagueXSLG)
	p.XWOBACON = r.float(statXWOBACON, models.LeagueXWOBACON)
	p.SweetSpotRate = r.rate(statSweetSpot, models.LeagueSweetSpotRate)

	if r.err != nil {
		return models.PitcherProfile{}, r.err
	}
	return p.WithDefaults(), nil
}

// statReader pulls numbers out of a loosely typed stat map and keeps the first error
type statReader struct {
	stats  map[string]interface{}
	player string
	err    error
}

func (r *statReader) float(key string, defaultValue float64) float64 {
	v, err := getFloatFromStats(r.stats, key, defaultValue)
	if err != nil && r.err == nil {
		r.err = fmt.Errorf("%s: %w", r.player, err)
	}
	return v
}

// rate reads a rate that may be written as a fraction or a percentage
func (r *statReader) rate(key string, defaultValue float64) float64 {
	v := r.float(key, defaultValue)
	if v > 1 {
		return v / 100.0
	}
	return v
}

func (r *statReader) int(key string, defaultValue int) int {
	v, err := getIntFromStats(r.stats, key, defaultValue)
	if err != nil && r.err == nil {
		r.err = fmt.Errorf("%s: %w", r.player, err)
	}
	return v
}

// Helper functions for extracting values from stats maps
func getFloatFromStats(stats map[string]interface{}, key string, defaultValue float64) (float64, error) {
	val, exists := stats[key]
	if !exists || val == nil {
		return defaultValue, nil
	}

	switch v := val.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		if parsed, err := v.Float64(); err == nil {
			return parsed, nil
		}
	case string:
		// Try to parse string as float
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed, nil
		}
	default:
		switch reflect.TypeOf(val).Kind() {
		case reflect.Slice, reflect.Array, reflect.Map:
			return 0, fmt.Errorf("%w: %q is a %T, want a number", ErrMalformedStat, key, val)
		}
	}
	return defaultValue, nil
}

func getIntFromStats(stats map[string]interface{}, key string, defaultValue int) (int, error) {
	v, err := getFloatFromStats(stats, key, float64(defaultValue))
	if err != nil {
		return 0, err
	}
	return int(v), nil
}
