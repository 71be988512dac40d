package simulation

import (
	"math"

	"github.com/baseball-sim/sim-engine/models"
)

// BattedBallType classifies contact by trajectory
type BattedBallType int

const (
	GroundBall BattedBallType = iota
	LineDrive
	FlyBall
	PopUp
)

func (t BattedBallType) String() string {
	switch t {
	case GroundBall:
		return "ground_ball"
	case LineDrive:
		return "line_drive"
	case FlyBall:
		return "fly_ball"
	case PopUp:
		return "pop_up"
	default:
		return "unknown"
	}
}

// BattedBall describes one ball put in play.
// ExitVelo and LaunchAngle are optional; nil skips the contact-quality adjustments.
type BattedBall struct {
	Type          BattedBallType
	ExitVelo      *float64
	LaunchAngle   *float64
	RunnerSpeed   float64 // sprint speed, ft/s
	FielderRating float64 // 100 = average range
	BatterAVG     float64
}

// BattedBallResult reports whether the ball fell in
type BattedBallResult struct {
	Hit        bool
	InfieldHit bool
}

// hitProbability returns the chance a ball in play becomes a hit
func hitProbability(ball BattedBall, parkSingleMult float64, params *Params) float64 {
	var prob float64
	switch ball.Type {
	case GroundBall:
		prob = params.BaseHitProbability.GroundBall
	case LineDrive:
		prob = params.BaseHitProbability.LineDrive
	case FlyBall:
		prob = params.BaseHitProbability.FlyBall
	case PopUp:
		prob = params.BaseHitProbability.PopUp
	}

	// Runner speed: beating out grounders matters most
	switch {
	case ball.RunnerSpeed > 28.5:
		if ball.Type == GroundBall {
			prob *= 1.10
		} else {
			prob *= 1.03
		}
	case ball.RunnerSpeed > 0 && ball.RunnerSpeed < 26.0:
		prob *= 0.93
	}

	// Fielder range
	switch {
	case ball.FielderRating > 105:
		prob *= 0.94
	case ball.FielderRating > 0 && ball.FielderRating < 95:
		prob *= 1.06
	}

	// Only extreme contact moves the needle
	if ball.ExitVelo != nil {
		switch ev := *ball.ExitVelo; {
		case ev >= 95:
			prob *= 1.10
		case ev <= 85:
			prob *= 0.90
		}
	}
	if ball.LaunchAngle != nil {
		switch la := *ball.LaunchAngle; {
		case la >= 10 && la <= 25:
			prob *= 1.05 // Sweet spot
		case la > 40 || la < -10:
			prob *= 0.85
		}
	}

	if ball.BatterAVG > 0 {
		prob *= math.Max(0.8, math.Min(1.2, ball.BatterAVG/models.LeagueAVG))
	}
	if parkSingleMult > 0 {
		prob *= parkSingleMult
	}

	return math.Max(params.MinHitProbability, math.Min(params.MaxHitProbability, prob))
}

// ResolveBattedBall decides hit or out for a ball in play.
// An out still has a small chance of turning into an infield single.
func ResolveBattedBall(rng Source, ball BattedBall, parkSingleMult float64, params *Params) BattedBallResult {
	if rng.Float64() < hitProbability(ball, parkSingleMult, params) {
		return BattedBallResult{Hit: true}
	}
	if rng.Float64() < params.InfieldHitRate {
		return BattedBallResult{Hit: true, InfieldHit: true}
	}
	return BattedBallResult{}
}
