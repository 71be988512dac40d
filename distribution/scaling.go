package distribution

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// Target is a calibrated mean and standard deviation; a nil field leaves that moment alone
type Target struct {
	Mean   *float64 `mapstructure:"mean" json:"mean,omitempty"`
	StdDev *float64 `mapstructure:"std_dev" json:"std_dev,omitempty"`
}

// Scale applies an affine transform so values hit the target moments.
// The spread is rescaled around the raw mean first, then the whole list is
// shifted onto the target mean. Order is preserved and nothing is resampled.
func Scale(values []float64, target Target) []float64 {
	scaled := make([]float64, len(values))
	copy(scaled, values)
	if len(values) == 0 {
		return scaled
	}

	rawMean, rawSD := stat.PopMeanStdDev(values, nil)

	if target.StdDev != nil && rawSD > 0 {
		ratio := *target.StdDev / rawSD
		for i, v := range scaled {
			scaled[i] = (v-rawMean)*ratio + rawMean
		}
	}

	if target.Mean != nil {
		shift := *target.Mean - rawMean
		for i := range scaled {
			scaled[i] += shift
		}
	}

	return scaled
}

// TeamScaling multiplies each club's raw mean and standard deviation independently.
// Zero means 1.
type TeamScaling struct {
	HomeMean   float64 `mapstructure:"home_mean" json:"home_mean"`
	HomeStdDev float64 `mapstructure:"home_std_dev" json:"home_std_dev"`
	AwayMean   float64 `mapstructure:"away_mean" json:"away_mean"`
	AwayStdDev float64 `mapstructure:"away_std_dev" json:"away_std_dev"`
}

// ScaleTeamTotals rescales home and away run totals with their own multipliers
func ScaleTeamTotals(home, away []float64, scaling TeamScaling) (scaledHome, scaledAway []float64) {
	return scaleByMultipliers(home, scaling.HomeMean, scaling.HomeStdDev),
		scaleByMultipliers(away, scaling.AwayMean, scaling.AwayStdDev)
}

func scaleByMultipliers(values []float64, meanMult, sdMult float64) []float64 {
	if len(values) == 0 {
		return []float64{}
	}
	mean, sd := stat.PopMeanStdDev(values, nil)

	targetMean := mean * orOne(meanMult)
	targetSD := sd * orOne(sdMult)
	return Scale(values, Target{Mean: &targetMean, StdDev: &targetSD})
}

func orOne(v float64) float64 {
	if v <= 0 {
		return 1
	}
	return v
}

// WinProbabilityCalibration recalibrates a simulated win probability on the logit scale:
// calibrated = sigmoid(Intercept + Slope*logit(p)). The zero value is the identity.
type WinProbabilityCalibration struct {
	Intercept float64 `mapstructure:"intercept" json:"intercept"`
	Slope     float64 `mapstructure:"slope" json:"slope"`
}

// Apply returns the calibrated probability
func (c WinProbabilityCalibration) Apply(p float64) float64 {
	if c.Intercept == 0 && (c.Slope == 0 || c.Slope == 1) {
		return p
	}
	if p <= 0 || p >= 1 {
		return p
	}

	slope := c.Slope
	if slope == 0 {
		slope = 1
	}
	logit := math.Log(p / (1 - p))
	return 1 / (1 + math.Exp(-(c.Intercept + slope*logit)))
}

// Calibration holds every externally supplied calibration target.
// Segment keys are matched case-insensitively since config loaders lowercase them.
type Calibration struct {
	Totals         map[string]Target         `mapstructure:"totals" json:"totals,omitempty"`
	Differentials  map[string]Target         `mapstructure:"differentials" json:"differentials,omitempty"`
	TeamTotals     TeamScaling               `mapstructure:"team_totals" json:"team_totals"`
	WinProbability WinProbabilityCalibration `mapstructure:"win_probability" json:"win_probability"`
}

// TotalTarget returns the run-total target for a segment
func (c *Calibration) TotalTarget(segment string) Target {
	return lookupTarget(c.Totals, segment)
}

// DifferentialTarget returns the run-differential target for a segment
func (c *Calibration) DifferentialTarget(segment string) Target {
	return lookupTarget(c.Differentials, segment)
}

func lookupTarget(targets map[string]Target, segment string) Target {
	for key, target := range targets {
		if strings.EqualFold(key, segment) {
			return target
		}
	}
	return Target{}
}
