package simulation

import (
	"math"

	"github.com/baseball-sim/sim-engine/models"
)

// ApplyFatigue returns a copy of the pitcher's profile adjusted for the current outing.
// The state is only read.
func ApplyFatigue(base models.PitcherProfile, state *models.PitcherState, params *Params) models.PitcherProfile {
	adjusted := base
	if state == nil {
		return adjusted
	}

	// Hitters adjust each time through the order
	adjusted.KRate *= ttoPenalty(params.TTOStrikeoutPenalty, state.TimesThrough)
	adjusted.BBRate *= ttoPenalty(params.TTOWalkPenalty, state.TimesThrough)

	over := float64(state.PitchCount - params.FatiguePitchThreshold)
	if over <= 0 {
		return adjusted
	}

	decay := math.Min(over*params.FatigueDecayPerPitch, params.MaxFatigueDecay)
	adjusted.KRate *= 1 - decay
	adjusted.BBRate *= 1 + decay

	drop := over * params.RatingDecayPerPitch
	adjusted.StuffPlus = decayRating(adjusted.StuffPlus, drop, params.RatingFloor)
	adjusted.CommandPlus = decayRating(adjusted.CommandPlus, drop, params.RatingFloor)
	adjusted.LocationPlus = decayRating(adjusted.LocationPlus, drop, params.RatingFloor)

	// Lost stuff and location feed the HR rate at the projector's per-point slopes
	if adjusted.HRPerPA > 0 {
		adjusted.HRPerPA += 0.0002*(base.StuffPlus-adjusted.StuffPlus) +
			0.0002*(base.LocationPlus-adjusted.LocationPlus)
	}

	return adjusted
}

// decayRating lowers a rating toward the floor; ratings already below it stay put
func decayRating(rating, drop, floor float64) float64 {
	if rating <= floor {
		return rating
	}
	return math.Max(floor, rating-drop)
}
