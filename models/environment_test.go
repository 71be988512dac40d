package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWeatherHomeRunMultiplier(t *testing.T) {
	tests := []struct {
		name    string
		weather Weather
		want    float64
	}{
		{"neutral", DefaultWeather(), 1.0},
		{"blowing out", Weather{Temperature: 72, WindSpeed: 10, WindDir: "out", Humidity: 50}, 1.10},
		{"blowing in", Weather{Temperature: 72, WindSpeed: 10, WindDir: "in", Humidity: 50}, 0.90},
		{"cold night", Weather{Temperature: 42, WindDir: "left", Humidity: 50}, 0.94},
		{"hot and humid", Weather{Temperature: 92, Humidity: 85}, 1.04 * 0.98},
		{"gale out is capped", Weather{Temperature: 72, WindSpeed: 60, WindDir: "out"}, 1.40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.weather.HomeRunMultiplier(), 1e-9)
		})
	}
}

func TestAirDensityIndex(t *testing.T) {
	assert.Equal(t, 1.0, AirDensityIndex(0, DefaultWeather()))
	assert.InDelta(t, 1.0856, AirDensityIndex(5280, Weather{Pressure: 24.64}), 0.001)

	// A storm front below the altitude-expected reading adds carry
	low := AirDensityIndex(0, Weather{Pressure: 29.2})
	assert.InDelta(t, 1.01, low, 1e-9)
}

func TestGameEnvironmentWithDefaults(t *testing.T) {
	env := GameEnvironment{ParkHRMultiplier: 1.2}.WithDefaults()

	assert.Equal(t, 1.2, env.ParkHRMultiplier)
	assert.Equal(t, 1.0, env.ParkSingleMultiplier)
	assert.Equal(t, 1.0, env.WeatherHRMultiplier)
	assert.Equal(t, 1.0, env.AirDensityIndex)
	assert.Equal(t, 1.0, env.UmpireStrikeoutMultiplier)
	assert.Equal(t, 1.0, env.UmpireWalkMultiplier)
	assert.InDelta(t, 1.2, env.HomeRunMultiplier(), 1e-9)
}

func TestNewGameEnvironment(t *testing.T) {
	windy := Weather{Temperature: 72, WindSpeed: 10, WindDir: "out", Humidity: 50, Pressure: 29.92}

	t.Run("outdoor park uses weather", func(t *testing.T) {
		stadium := Stadium{RoofType: "outdoor", Factors: ParkFactors{HRFactor: 110, HitsFactor: 100}}
		env := NewGameEnvironment(stadium, windy, DefaultUmpireTendencies())

		assert.InDelta(t, 1.10, env.ParkHRMultiplier, 1e-9)
		assert.InDelta(t, 1.10, env.WeatherHRMultiplier, 1e-9)
		assert.InDelta(t, 1.21, env.HomeRunMultiplier(), 1e-9)
	})

	t.Run("dome ignores weather", func(t *testing.T) {
		stadium := Stadium{RoofType: "dome"}
		env := NewGameEnvironment(stadium, windy, DefaultUmpireTendencies())

		assert.Equal(t, 1.0, env.WeatherHRMultiplier)
		assert.Equal(t, 1.0, env.HomeRunMultiplier())
	})
}

func TestGameEnvironmentHandednessSplits(t *testing.T) {
	stadium := Stadium{RoofType: "dome", Factors: ParkFactors{HRFactor: 100, LHBHRFactor: 120, RHBHRFactor: 95}}
	env := NewGameEnvironment(stadium, DefaultWeather(), DefaultUmpireTendencies())

	tests := []struct {
		side string
		want float64
	}{
		{"L", 1.20},
		{"R", 0.95},
		{"", 1.00},
	}

	for _, tt := range tests {
		t.Run("side_"+tt.side, func(t *testing.T) {
			assert.InDelta(t, tt.want, env.HomeRunMultiplierFor(tt.side), 1e-9)
		})
	}

	override := GameEnvironment{ParkHRMultiplier: 1.1}.WithDefaults()
	assert.InDelta(t, 1.1, override.HomeRunMultiplierFor("L"), 1e-9, "no split falls back to the overall factor")
}

func TestBattingSide(t *testing.T) {
	tests := []struct {
		batter, pitcher, want string
	}{
		{"L", "R", "L"},
		{"R", "R", "R"},
		{"S", "R", "L"},
		{"S", "L", "R"},
		{"S", "", "L"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, BattingSide(tt.batter, tt.pitcher), "%s vs %s", tt.batter, tt.pitcher)
	}
}

func TestMatchupResolveEnvironment(t *testing.T) {
	override := &GameEnvironment{UmpireStrikeoutMultiplier: 1.05}
	m := Matchup{Environment: override, Stadium: Stadium{Factors: ParkFactors{HRFactor: 130}}}

	env := m.ResolveEnvironment()
	assert.Equal(t, 1.05, env.UmpireStrikeoutMultiplier)
	assert.Equal(t, 1.0, env.ParkHRMultiplier, "override wins over stadium factors")

	m.Environment = nil
	env = m.ResolveEnvironment()
	assert.InDelta(t, 1.30, env.ParkHRMultiplier, 1e-9)
}
