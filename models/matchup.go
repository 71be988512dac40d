package models

import "time"

// PlayerStats is one player's raw statistic record as received from upstream.
// Values are loosely typed; imputation happens in the simulation package.
type PlayerStats struct {
	Name  string                 `json:"name" validate:"required"`
	Hand  string                 `json:"hand,omitempty"`
	Stats map[string]interface{} `json:"stats"`
}

// TeamInput is one club's roster for a matchup
type TeamInput struct {
	Name          string        `json:"name" validate:"required"`
	Lineup        []PlayerStats `json:"lineup" validate:"required,min=1,dive"`
	Starter       PlayerStats   `json:"starter" validate:"required"`
	Bullpen       []PlayerStats `json:"bullpen" validate:"dive"`
	DefenseRating float64       `json:"defense_rating,omitempty"`
}

// Matchup is the full input for simulating one game
type Matchup struct {
	GameID   string            `json:"game_id,omitempty"`
	GameTime time.Time         `json:"game_time,omitempty"`
	Home     TeamInput         `json:"home" validate:"required"`
	Away     TeamInput         `json:"away" validate:"required"`
	Stadium  Stadium           `json:"stadium"`
	Weather  *Weather          `json:"weather,omitempty"`
	Umpire   *UmpireTendencies `json:"umpire,omitempty"`

	// Environment, when set, overrides the multipliers derived from stadium, weather and umpire
	Environment *GameEnvironment `json:"environment,omitempty"`
}

// ResolveEnvironment returns the game environment for the matchup
func (m *Matchup) ResolveEnvironment() GameEnvironment {
	if m.Environment != nil {
		return m.Environment.WithDefaults()
	}

	weather := DefaultWeather()
	if m.Weather != nil {
		weather = *m.Weather
	}
	umpire := DefaultUmpireTendencies()
	if m.Umpire != nil {
		umpire = *m.Umpire
	}

	return NewGameEnvironment(m.Stadium, weather, umpire)
}
