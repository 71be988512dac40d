package models

// Stadium holds the ballpark facts that shape a game's environment
type Stadium struct {
	Name      string      `json:"name"`
	Location  string      `json:"location,omitempty"`
	Latitude  float64     `json:"latitude,omitempty"`
	Longitude float64     `json:"longitude,omitempty"`
	RoofType  string      `json:"roof_type,omitempty"` // "dome", "retractable", "outdoor"
	Surface   string      `json:"surface,omitempty"`   // "grass", "turf"
	Altitude  int         `json:"altitude,omitempty"`  // feet
	Factors   ParkFactors `json:"park_factors"`
}

// IsDome reports whether the roof keeps weather out
func (s Stadium) IsDome() bool {
	switch s.RoofType {
	case "dome", "indoor", "fixed_roof", "closed":
		return true
	default:
		return false
	}
}

// SingleMultiplier returns the park's effect on balls in play falling for hits
func (s Stadium) SingleMultiplier() float64 {
	return s.Factors.HitMultiplier() * GetSurfaceEffect(s.Surface)
}

// ParkFactors represents how a stadium affects different outcomes
type ParkFactors struct {
	// Overall factors (100 = neutral, >100 = favors offense, <100 = favors pitchers)
	RunsFactor float64 `json:"runs_factor"`
	HRFactor   float64 `json:"hr_factor"`
	HitsFactor float64 `json:"hits_factor"`

	// Handedness splits
	LHBHRFactor float64 `json:"lhb_hr_factor"`
	RHBHRFactor float64 `json:"rhb_hr_factor"`
}

// HomeRunMultiplier returns the park HR factor for a batter hand; empty hand uses the overall factor
func (pf ParkFactors) HomeRunMultiplier(batterHand string) float64 {
	// Apply handedness-specific HR factor if available
	if batterHand == "L" && pf.LHBHRFactor > 0 {
		return pf.LHBHRFactor / 100.0
	} else if batterHand == "R" && pf.RHBHRFactor > 0 {
		return pf.RHBHRFactor / 100.0
	}
	if pf.HRFactor > 0 {
		return pf.HRFactor / 100.0
	}
	return 1.0
}

// HitMultiplier returns the park factor for hits on balls in play
func (pf ParkFactors) HitMultiplier() float64 {
	if pf.HitsFactor > 0 {
		return pf.HitsFactor / 100.0
	}
	return 1.0
}

// GetAltitudeEffect returns the home run boost from altitude
// High altitude stadiums like Coors Field (5280 ft) see ~10-15% boost
func GetAltitudeEffect(altitude int) float64 {
	if altitude <= 1000 {
		return 1.0 // No effect at sea level or low elevation
	}

	// Linear increase: ~2% per 1000 feet above 1000 feet
	// Capped at 20% boost
	boost := float64(altitude-1000) / 1000.0 * 0.02
	if boost > 0.20 {
		boost = 0.20
	}

	return 1.0 + boost
}

// GetSurfaceEffect returns the effect of playing surface on balls in play
func GetSurfaceEffect(surface string) float64 {
	switch surface {
	case "turf", "artificial":
		return 1.03 // Turf speeds up ground balls
	default:
		return 1.0
	}
}
