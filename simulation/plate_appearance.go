package simulation

import (
	"math"

	"github.com/baseball-sim/sim-engine/models"
)

// leagueHRPerPA stands in when a pitcher arrives without a projection
const leagueHRPerPA = 0.030

// PlateAppearance is one batter against the pitcher on the mound
type PlateAppearance struct {
	Batter        models.BatterProfile
	Pitcher       models.PitcherProfile // already fatigue-adjusted
	Env           *models.GameEnvironment
	DefenseRating float64
	Noise         bool
}

// PAResult is the outcome of a plate appearance
type PAResult struct {
	Outcome    models.Outcome
	Pitches    int
	BattedBall *BattedBallType
	InfieldHit bool
}

// ResolvePlateAppearance simulates one plate appearance and records the
// outcome for the batting side in ctx.
func ResolvePlateAppearance(rng Source, pa PlateAppearance, params *Params, ctx *SimulationContext, side models.Side) PAResult {
	result := resolvePlateAppearance(rng, pa, params)
	result.Pitches = params.pitchRange(result.Outcome).draw(rng)
	ctx.RecordOutcome(side, result.Outcome)
	return result
}

func resolvePlateAppearance(rng Source, pa PlateAppearance, params *Params) PAResult {
	env := pa.Env
	if env == nil {
		neutral := models.NeutralEnvironment()
		env = &neutral
	}

	kRate, bbRate := blendedRates(pa.Batter, pa.Pitcher, env)
	if pa.Noise {
		kRate = sampleBeta(rng, kRate, params.SmoothingWeight)
		bbRate = sampleBeta(rng, bbRate, params.SmoothingWeight)
	}

	// Leave room for contact
	if total := kRate + bbRate; total > params.MaxWalkPlusK {
		scale := params.MaxWalkPlusK / total
		kRate *= scale
		bbRate *= scale
	}

	roll := rng.Float64()
	switch {
	case roll < kRate:
		return PAResult{Outcome: models.Strikeout}
	case roll < kRate+bbRate:
		return PAResult{Outcome: models.Walk}
	}

	// Ball in play or over the fence. The HR rate is per plate appearance,
	// so the check on contact is conditional on not striking out or walking.
	contact := 1 - kRate - bbRate
	hrGivenContact := math.Min(1, homeRunRate(pa, env, params)/contact)
	if rng.Float64() < hrGivenContact {
		return PAResult{Outcome: models.HomeRun}
	}

	ballType := BattedBallType(pickIndex(rng, params.BattedBalls.weights()))
	ev, la := pa.Pitcher.AvgExitVelo, pa.Pitcher.LaunchAngle
	ball := BattedBall{
		Type:          ballType,
		ExitVelo:      &ev,
		LaunchAngle:   &la,
		RunnerSpeed:   pa.Batter.Speed,
		FielderRating: pa.DefenseRating,
		BatterAVG:     pa.Batter.AVG,
	}

	bip := ResolveBattedBall(rng, ball, env.ParkSingleMultiplier, params)
	switch {
	case !bip.Hit:
		return PAResult{Outcome: models.Out, BattedBall: &ballType}
	case bip.InfieldHit:
		return PAResult{Outcome: models.Single, BattedBall: &ballType, InfieldHit: true}
	}

	outcome := [...]models.Outcome{models.Single, models.Double, models.Triple}[pickIndex(rng, params.Hits.weights())]
	return PAResult{Outcome: outcome, BattedBall: &ballType}
}

// blendedRates averages batter and pitcher rates and applies the umpire
func blendedRates(b models.BatterProfile, p models.PitcherProfile, env *models.GameEnvironment) (kRate, bbRate float64) {
	kRate = (b.KRate + p.KRate) / 2 * env.UmpireStrikeoutMultiplier
	bbRate = (b.BBRate + p.BBRate) / 2 * env.UmpireWalkMultiplier
	return kRate, bbRate
}

// homeRunRate is the per-PA HR probability for this matchup in this park
func homeRunRate(pa PlateAppearance, env *models.GameEnvironment, params *Params) float64 {
	rate := pa.Pitcher.HRPerPA
	if rate <= 0 {
		rate = leagueHRPerPA
	}

	// Batter power relative to league ISO, damped
	power := 1.0
	if pa.Batter.ISO > 0 {
		power = math.Sqrt(math.Max(params.MinPowerFactor, math.Min(params.MaxPowerFactor, pa.Batter.ISO/models.LeagueISO)))
	}

	return rate * env.HomeRunMultiplierFor(models.BattingSide(pa.Batter.Hand, pa.Pitcher.Hand)) * power
}
