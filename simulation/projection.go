package simulation

import (
	"math"

	"github.com/baseball-sim/sim-engine/models"
)

// HRProjection is a pitcher's projected home runs allowed per plate appearance
type HRProjection struct {
	Smoothed    float64 `json:"smoothed"`
	Empirical   float64 `json:"empirical"`
	Model       float64 `json:"model"`
	Prior       float64 `json:"prior"`
	ModelWeight float64 `json:"model_weight"`
	HRPer9      float64 `json:"hr_per_9"`
}

const (
	// Shrinkage sample size is priorStrength*referenceTBF/TBF batters
	priorStrength = 200.0
	referenceTBF  = 200.0

	minModelHRRate = 0.010
	maxModelHRRate = 0.060
)

// ProjectHRPerPA blends a batted-ball quality model with a role-based prior.
// Few batters faced leans on the prior; a large sample leans on the model.
func ProjectHRPerPA(p models.PitcherProfile) HRProjection {
	p = p.WithDefaults()

	proj := HRProjection{
		Model: modelHRRate(p),
		Prior: priorHRRate(p.Role, p.StuffPlus),
	}

	if p.TBF > 0 {
		proj.Empirical = float64(p.HR) / float64(p.TBF)

		tbf := float64(p.TBF)
		k := priorStrength * referenceTBF / tbf
		proj.ModelWeight = tbf / (tbf + k)
	}

	proj.Smoothed = proj.ModelWeight*proj.Model + (1-proj.ModelWeight)*proj.Prior

	// Batters per inning from the sample, league rate without one
	battersPerInning := models.LeagueBattersPerIP
	if p.IP > 0 && p.TBF > 0 {
		battersPerInning = float64(p.TBF) / p.IP
	}
	proj.HRPer9 = proj.Smoothed * battersPerInning * 9

	return proj
}

// modelHRRate estimates HR/PA from contact quality and pitch quality
func modelHRRate(p models.PitcherProfile) float64 {
	barrelZ := (p.BarrelRate - models.LeagueBarrelRate) / 0.03
	evZ := (p.AvgExitVelo - models.LeagueExitVelo) / 2.0
	laZ := (p.LaunchAngle - models.LeagueLaunchAngle) / 4.0
	xslgZ := (p.XSLG - models.LeagueXSLG) / 0.06
	xwobaconZ := (p.XWOBACON - models.LeagueXWOBACON) / 0.04
	sweetZ := (p.SweetSpotRate - models.LeagueSweetSpotRate) / 0.04
	stuffZ := (p.StuffPlus - models.LeaguePlusRating) / 10.0
	locZ := (p.LocationPlus - models.LeaguePlusRating) / 5.0

	rate := 0.030 +
		0.0040*barrelZ +
		0.0015*evZ +
		0.0010*laZ +
		0.0020*xslgZ +
		0.0015*xwobaconZ +
		0.0008*sweetZ -
		0.0020*stuffZ -
		0.0010*locZ

	// The model runs hot on big samples
	if p.TBF > 600 {
		rate *= 0.94
	} else if p.TBF > 300 {
		rate *= 0.97
	}

	return math.Max(minModelHRRate, math.Min(maxModelHRRate, rate))
}

// priorHRRate is the league-average HR/PA for a pitcher of this role and stuff
func priorHRRate(role models.Role, stuffPlus float64) float64 {
	prior := 0.031
	if role == models.Reliever {
		prior = 0.029
	}

	switch {
	case stuffPlus >= 110 && role == models.Reliever:
		prior = 0.025
	case stuffPlus >= 110:
		prior = 0.028
	case stuffPlus <= 90:
		prior += 0.003
	}

	return prior
}

// ProjectHRPerPAFromStats projects from a raw stat record.
// Missing values fall back to league averages; a list or map where a number
// belongs returns ErrMalformedStat.
func ProjectHRPerPAFromStats(name string, role models.Role, stats map[string]interface{}) (HRProjection, error) {
	p, err := PitcherFromStats(models.PlayerStats{Name: name, Stats: stats}, role)
	if err != nil {
		return HRProjection{}, err
	}
	return ProjectHRPerPA(p), nil
}
