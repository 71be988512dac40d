package simulation

import (
	"errors"
	"fmt"
	"math"

	"github.com/baseball-sim/sim-engine/models"
)

// BattedBallMix is a categorical distribution (or table) over batted-ball types
type BattedBallMix struct {
	GroundBall float64 `mapstructure:"ground_ball" json:"ground_ball"`
	LineDrive  float64 `mapstructure:"line_drive" json:"line_drive"`
	FlyBall    float64 `mapstructure:"fly_ball" json:"fly_ball"`
	PopUp      float64 `mapstructure:"pop_up" json:"pop_up"`
}

func (m BattedBallMix) weights() []float64 {
	return []float64{m.GroundBall, m.LineDrive, m.FlyBall, m.PopUp}
}

// HitMix splits base hits that stay in the park into singles, doubles and triples
type HitMix struct {
	Single float64 `mapstructure:"single" json:"single"`
	Double float64 `mapstructure:"double" json:"double"`
	Triple float64 `mapstructure:"triple" json:"triple"`
}

func (m HitMix) weights() []float64 {
	return []float64{m.Single, m.Double, m.Triple}
}

// PitchRange bounds the pitches a plate appearance takes; draws are uniform within it
type PitchRange struct {
	Min int `mapstructure:"min" json:"min"`
	Max int `mapstructure:"max" json:"max"`
}

func (r PitchRange) draw(rng Source) int {
	return r.Min + rng.IntN(r.Max-r.Min+1)
}

func (r PitchRange) valid() bool {
	return r.Min >= 1 && r.Max >= r.Min
}

// Params holds every tunable constant of the engine
type Params struct {
	// Plate appearance
	SmoothingWeight float64       `mapstructure:"smoothing_weight" json:"smoothing_weight"`
	MaxWalkPlusK    float64       `mapstructure:"max_walk_plus_k" json:"max_walk_plus_k"`
	BattedBalls     BattedBallMix `mapstructure:"batted_balls" json:"batted_balls"`
	Hits            HitMix        `mapstructure:"hits" json:"hits"`
	MinPowerFactor  float64       `mapstructure:"min_power_factor" json:"min_power_factor"`
	MaxPowerFactor  float64       `mapstructure:"max_power_factor" json:"max_power_factor"`

	// Pitch counts. Strikeouts and walks go deep into the count, balls in play often don't.
	StrikeoutPitches PitchRange `mapstructure:"strikeout_pitches" json:"strikeout_pitches"`
	WalkPitches      PitchRange `mapstructure:"walk_pitches" json:"walk_pitches"`
	ContactPitches   PitchRange `mapstructure:"contact_pitches" json:"contact_pitches"`

	// Batted ball
	BaseHitProbability BattedBallMix `mapstructure:"base_hit_probability" json:"base_hit_probability"`
	MinHitProbability  float64       `mapstructure:"min_hit_probability" json:"min_hit_probability"`
	MaxHitProbability  float64       `mapstructure:"max_hit_probability" json:"max_hit_probability"`
	InfieldHitRate     float64       `mapstructure:"infield_hit_rate" json:"infield_hit_rate"`

	// Fatigue
	FatiguePitchThreshold int       `mapstructure:"fatigue_pitch_threshold" json:"fatigue_pitch_threshold"`
	FatigueDecayPerPitch  float64   `mapstructure:"fatigue_decay_per_pitch" json:"fatigue_decay_per_pitch"`
	MaxFatigueDecay       float64   `mapstructure:"max_fatigue_decay" json:"max_fatigue_decay"`
	TTOStrikeoutPenalty   []float64 `mapstructure:"tto_strikeout_penalty" json:"tto_strikeout_penalty"`
	TTOWalkPenalty        []float64 `mapstructure:"tto_walk_penalty" json:"tto_walk_penalty"`
	RatingDecayPerPitch   float64   `mapstructure:"rating_decay_per_pitch" json:"rating_decay_per_pitch"`
	RatingFloor           float64   `mapstructure:"rating_floor" json:"rating_floor"`

	// Bullpen
	RelieverMaxUses  int     `mapstructure:"reliever_max_uses" json:"reliever_max_uses"`
	UsageSuppression float64 `mapstructure:"usage_suppression" json:"usage_suppression"`
	SuppressionFloor float64 `mapstructure:"suppression_floor" json:"suppression_floor"`

	// Pitching changes
	PitchCountLimit  int `mapstructure:"pitch_count_limit" json:"pitch_count_limit"`
	ReliefPitchLimit int `mapstructure:"relief_pitch_limit" json:"relief_pitch_limit"`
	TTOLimit         int `mapstructure:"tto_limit" json:"tto_limit"`

	// Baserunning
	ScoreFromSecondOnSingle float64 `mapstructure:"score_from_second_on_single" json:"score_from_second_on_single"`
	FirstToThirdOnSingle    float64 `mapstructure:"first_to_third_on_single" json:"first_to_third_on_single"`
	ScoreFromFirstOnDouble  float64 `mapstructure:"score_from_first_on_double" json:"score_from_first_on_double"`
	FastRunnerBonus         float64 `mapstructure:"fast_runner_bonus" json:"fast_runner_bonus"`
	DoublePlayRate          float64 `mapstructure:"double_play_rate" json:"double_play_rate"`
	TagUpRate               float64 `mapstructure:"tag_up_rate" json:"tag_up_rate"`

	// Game flow
	MaxPlateAppearances int  `mapstructure:"max_plate_appearances" json:"max_plate_appearances"`
	ExtraInningRunner   bool `mapstructure:"extra_inning_runner" json:"extra_inning_runner"`
	MaxInnings          int  `mapstructure:"max_innings" json:"max_innings"`
}

// DefaultParams returns the engine constants calibrated to recent league play
func DefaultParams() Params {
	return Params{
		SmoothingWeight: 200,
		MaxWalkPlusK:    0.95,
		BattedBalls: BattedBallMix{
			GroundBall: 0.43,
			LineDrive:  0.21,
			FlyBall:    0.26,
			PopUp:      0.10,
		},
		Hits: HitMix{
			Single: 0.78,
			Double: 0.20,
			Triple: 0.02,
		},
		MinPowerFactor:  0.5,
		MaxPowerFactor:  2.0,

		// About 4 pitches per plate appearance at league K and BB rates
		StrikeoutPitches: PitchRange{Min: 3, Max: 7},
		WalkPitches:      PitchRange{Min: 4, Max: 8},
		ContactPitches:   PitchRange{Min: 1, Max: 6},

		BaseHitProbability: BattedBallMix{
			GroundBall: 0.24,
			LineDrive:  0.62,
			FlyBall:    0.14,
			PopUp:      0.02,
		},
		MinHitProbability: 0.05,
		MaxHitProbability: 0.65,
		InfieldHitRate:    0.015,

		FatiguePitchThreshold: 75,
		FatigueDecayPerPitch:  0.004,
		MaxFatigueDecay:       0.25,
		TTOStrikeoutPenalty:   []float64{1.0, 0.97, 0.93, 0.88},
		TTOWalkPenalty:        []float64{1.0, 1.03, 1.07, 1.12},
		RatingDecayPerPitch:   0.15,
		RatingFloor:           80,

		RelieverMaxUses:  3,
		UsageSuppression: 0.6,
		SuppressionFloor: 0.25,

		PitchCountLimit:  90,
		ReliefPitchLimit: 35,
		TTOLimit:         3,

		ScoreFromSecondOnSingle: 0.60,
		FirstToThirdOnSingle:    0.28,
		ScoreFromFirstOnDouble:  0.40,
		FastRunnerBonus:         0.10,
		DoublePlayRate:          0.12,
		TagUpRate:               0.35,

		MaxPlateAppearances: 50,
		ExtraInningRunner:   true,
		MaxInnings:          25,
	}
}

// ErrInvalidParams is returned when engine constants are out of range
var ErrInvalidParams = errors.New("invalid engine parameters")

// Validate checks that probabilities are probabilities and limits are positive
func (p Params) Validate() error {
	probabilities := map[string]float64{
		"max_walk_plus_k":             p.MaxWalkPlusK,
		"min_hit_probability":         p.MinHitProbability,
		"max_hit_probability":         p.MaxHitProbability,
		"infield_hit_rate":            p.InfieldHitRate,
		"max_fatigue_decay":           p.MaxFatigueDecay,
		"usage_suppression":           p.UsageSuppression,
		"suppression_floor":           p.SuppressionFloor,
		"score_from_second_on_single": p.ScoreFromSecondOnSingle,
		"first_to_third_on_single":    p.FirstToThirdOnSingle,
		"score_from_first_on_double":  p.ScoreFromFirstOnDouble,
		"double_play_rate":            p.DoublePlayRate,
		"tag_up_rate":                 p.TagUpRate,
	}
	for name, v := range probabilities {
		if v < 0 || v > 1 || math.IsNaN(v) {
			return fmt.Errorf("%w: %s=%v must be within [0, 1]", ErrInvalidParams, name, v)
		}
	}

	if p.MinHitProbability > p.MaxHitProbability {
		return fmt.Errorf("%w: min_hit_probability exceeds max_hit_probability", ErrInvalidParams)
	}
	if !positiveSum(p.BattedBalls.weights()) {
		return fmt.Errorf("%w: batted_balls must have positive weight", ErrInvalidParams)
	}
	if !positiveSum(p.Hits.weights()) {
		return fmt.Errorf("%w: hits must have positive weight", ErrInvalidParams)
	}
	for name, r := range map[string]PitchRange{
		"strikeout_pitches": p.StrikeoutPitches,
		"walk_pitches":      p.WalkPitches,
		"contact_pitches":   p.ContactPitches,
	} {
		if !r.valid() {
			return fmt.Errorf("%w: %s range [%d, %d]", ErrInvalidParams, name, r.Min, r.Max)
		}
	}
	if len(p.TTOStrikeoutPenalty) == 0 || len(p.TTOWalkPenalty) == 0 {
		return fmt.Errorf("%w: times-through-order penalties are required", ErrInvalidParams)
	}
	if p.RelieverMaxUses < 1 || p.PitchCountLimit < 1 || p.ReliefPitchLimit < 1 || p.TTOLimit < 1 {
		return fmt.Errorf("%w: usage and pitching change limits must be positive", ErrInvalidParams)
	}
	if p.MaxPlateAppearances < 3 || p.MaxInnings < 9 {
		return fmt.Errorf("%w: max_plate_appearances must be >= 3 and max_innings >= 9", ErrInvalidParams)
	}

	return nil
}

func positiveSum(weights []float64) bool {
	total := 0.0
	for _, w := range weights {
		if w < 0 {
			return false
		}
		total += w
	}
	return total > 0
}

// ttoPenalty returns the multiplier for the given times through the order (1-based)
func ttoPenalty(table []float64, timesThrough int) float64 {
	if len(table) == 0 || timesThrough < 1 {
		return 1.0
	}
	if timesThrough > len(table) {
		return table[len(table)-1]
	}
	return table[timesThrough-1]
}

// pitchRange returns the pitch count range for a plate appearance outcome
func (p *Params) pitchRange(o models.Outcome) PitchRange {
	switch o {
	case models.Strikeout:
		return p.StrikeoutPitches
	case models.Walk:
		return p.WalkPitches
	default:
		return p.ContactPitches
	}
}
