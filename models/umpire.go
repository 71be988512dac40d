package models

// UmpireTendencies represents the plate umpire's historical strike zone tendencies
type UmpireTendencies struct {
	Name string `json:"name,omitempty"`

	// Strike zone size relative to average (100 = average, >100 = larger zone, <100 = smaller zone)
	StrikeZoneSize float64 `json:"strike_zone_size"`

	// Rate adjustments (positive = more of that outcome)
	StrikeoutRateAdjustment float64 `json:"strikeout_rate_adjustment"` // % points
	WalkRateAdjustment      float64 `json:"walk_rate_adjustment"`      // % points
}

// GetStrikeoutAdjustment returns the K% adjustment from this umpire in percentage points
func (ut UmpireTendencies) GetStrikeoutAdjustment() float64 {
	adjustment := ut.StrikeoutRateAdjustment

	// Larger zone = more strikeouts
	if ut.StrikeZoneSize > 0 {
		adjustment += (ut.StrikeZoneSize - 100.0) * 0.05
	}

	return adjustment
}

// GetWalkAdjustment returns the BB% adjustment from this umpire in percentage points
func (ut UmpireTendencies) GetWalkAdjustment() float64 {
	adjustment := ut.WalkRateAdjustment

	// Smaller zone = more walks
	if ut.StrikeZoneSize > 0 {
		adjustment -= (ut.StrikeZoneSize - 100.0) * 0.05
	}

	return adjustment
}

// StrikeoutMultiplier expresses the K% adjustment relative to the league rate
func (ut UmpireTendencies) StrikeoutMultiplier() float64 {
	league := LeagueKRate * 100
	return clamp((league+ut.GetStrikeoutAdjustment())/league, 0.85, 1.15)
}

// WalkMultiplier expresses the BB% adjustment relative to the league rate
func (ut UmpireTendencies) WalkMultiplier() float64 {
	league := LeagueBBRate * 100
	return clamp((league+ut.GetWalkAdjustment())/league, 0.85, 1.15)
}

// DefaultUmpireTendencies returns league average umpire tendencies
func DefaultUmpireTendencies() UmpireTendencies {
	return UmpireTendencies{
		StrikeZoneSize: 100.0,
	}
}
