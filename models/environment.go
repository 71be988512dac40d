package models

import "math"

// Weather represents conditions at first pitch
type Weather struct {
	Temperature int     `json:"temperature"` // Fahrenheit
	WindSpeed   int     `json:"wind_speed"`  // MPH
	WindDir     string  `json:"wind_dir"`    // "in", "out", "left", "right"
	Humidity    int     `json:"humidity"`    // Percentage
	Pressure    float64 `json:"pressure"`    // Inches of mercury
}

// DefaultWeather returns neutral conditions
func DefaultWeather() Weather {
	return Weather{
		Temperature: 72,
		WindSpeed:   5,
		WindDir:     "varies",
		Humidity:    50,
		Pressure:    29.92,
	}
}

// HomeRunMultiplier converts conditions into a home run rate multiplier
func (w Weather) HomeRunMultiplier() float64 {
	mult := 1.0

	// Wind effects
	switch w.WindDir {
	case "out":
		mult += float64(w.WindSpeed) * 0.010 // Carries fly balls
	case "in":
		mult -= float64(w.WindSpeed) * 0.010 // Knocks them down
	}

	// Temperature effects (cold weather hurts offense)
	if w.Temperature > 0 && w.Temperature < 50 {
		mult *= 0.94
	} else if w.Temperature > 80 {
		mult *= 1.04
	}

	// Humidity effects (high humidity hurts fly balls slightly)
	if w.Humidity > 80 {
		mult *= 0.98
	}

	return clamp(mult, 0.70, 1.40)
}

// AirDensityIndex returns the carry multiplier from thin air.
// Altitude is the primary driver; a barometer reading well below
// normal for the altitude adds a little more carry.
func AirDensityIndex(altitude int, w Weather) float64 {
	index := GetAltitudeEffect(altitude)

	if w.Pressure > 0 {
		expected := 29.92 - float64(altitude)/1000.0
		if drop := expected - w.Pressure; drop > 0.3 {
			index *= 1.01
		}
	}

	return index
}

// GameEnvironment holds the precomputed multipliers applied to every plate appearance.
// A zero field means no adjustment.
type GameEnvironment struct {
	ParkHRMultiplier          float64 `json:"park_hr_multiplier"`
	ParkHRMultiplierLHB       float64 `json:"park_hr_multiplier_lhb,omitempty"` // zero falls back to ParkHRMultiplier
	ParkHRMultiplierRHB       float64 `json:"park_hr_multiplier_rhb,omitempty"`
	ParkSingleMultiplier      float64 `json:"park_single_multiplier"`
	WeatherHRMultiplier       float64 `json:"weather_hr_multiplier"`
	AirDensityIndex           float64 `json:"air_density_index"`
	UmpireStrikeoutMultiplier float64 `json:"umpire_strikeout_multiplier"`
	UmpireWalkMultiplier      float64 `json:"umpire_walk_multiplier"`
}

// NeutralEnvironment returns an environment with every multiplier at 1
func NeutralEnvironment() GameEnvironment {
	return GameEnvironment{}.WithDefaults()
}

// NewGameEnvironment composes park, weather and umpire inputs
func NewGameEnvironment(stadium Stadium, weather Weather, umpire UmpireTendencies) GameEnvironment {
	env := GameEnvironment{
		ParkHRMultiplier:          stadium.Factors.HomeRunMultiplier(""),
		ParkHRMultiplierLHB:       stadium.Factors.HomeRunMultiplier("L"),
		ParkHRMultiplierRHB:       stadium.Factors.HomeRunMultiplier("R"),
		ParkSingleMultiplier:      stadium.SingleMultiplier(),
		UmpireStrikeoutMultiplier: umpire.StrikeoutMultiplier(),
		UmpireWalkMultiplier:      umpire.WalkMultiplier(),
		WeatherHRMultiplier:       1.0,
	}

	// Roof closed: weather doesn't reach the ball
	if !stadium.IsDome() {
		env.WeatherHRMultiplier = weather.HomeRunMultiplier()
	}
	env.AirDensityIndex = AirDensityIndex(stadium.Altitude, weather)

	return env.WithDefaults()
}

// WithDefaults replaces missing multipliers with 1
func (e GameEnvironment) WithDefaults() GameEnvironment {
	e.ParkHRMultiplier = orDefault(e.ParkHRMultiplier, 1.0)
	e.ParkSingleMultiplier = orDefault(e.ParkSingleMultiplier, 1.0)
	e.WeatherHRMultiplier = orDefault(e.WeatherHRMultiplier, 1.0)
	e.AirDensityIndex = orDefault(e.AirDensityIndex, 1.0)
	e.UmpireStrikeoutMultiplier = orDefault(e.UmpireStrikeoutMultiplier, 1.0)
	e.UmpireWalkMultiplier = orDefault(e.UmpireWalkMultiplier, 1.0)
	return e
}

// HomeRunMultiplier is the combined park, weather and air density effect
func (e *GameEnvironment) HomeRunMultiplier() float64 {
	return e.HomeRunMultiplierFor("")
}

// HomeRunMultiplierFor applies the park's split for the side the batter hits from
func (e *GameEnvironment) HomeRunMultiplierFor(side string) float64 {
	park := e.ParkHRMultiplier
	switch {
	case side == "L" && e.ParkHRMultiplierLHB > 0:
		park = e.ParkHRMultiplierLHB
	case side == "R" && e.ParkHRMultiplierRHB > 0:
		park = e.ParkHRMultiplierRHB
	}
	return park * e.WeatherHRMultiplier * e.AirDensityIndex
}

// BattingSide returns the side a batter hits from against a pitcher.
// Switch hitters stand opposite the pitcher's throwing hand.
func BattingSide(batterHand, pitcherHand string) string {
	if batterHand != "S" {
		return batterHand
	}
	if pitcherHand == "L" {
		return "R"
	}
	return "L"
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
