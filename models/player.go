package models

// League-average constants used when a statistic is missing
const (
	LeagueKRate         = 0.22
	LeagueBBRate        = 0.085
	LeagueISO           = 0.150
	LeagueAVG           = 0.245
	LeagueWOBA          = 0.315
	LeagueSprintSpeed   = 27.0 // ft/s
	LeaguePlusRating    = 100.0
	LeagueExitVelo      = 88.5 // mph
	LeagueLaunchAngle   = 12.0 // degrees
	LeagueBarrelRate    = 0.075
	LeagueXSLG          = 0.400
	LeagueXWOBACON      = 0.370
	LeagueSweetSpotRate = 0.33
	LeagueDefense       = 100.0
	LeagueBattersPerIP  = 4.3
)

// Role distinguishes starting pitchers from relievers
type Role string

const (
	Starter  Role = "starter"
	Reliever Role = "reliever"
)

// BatterProfile holds the rate stats a batter brings to every plate appearance
type BatterProfile struct {
	Name   string  `json:"name"`
	Hand   string  `json:"hand"` // "L", "R" or "S"
	KRate  float64 `json:"k_rate"`
	BBRate float64 `json:"bb_rate"`
	ISO    float64 `json:"iso"`
	AVG    float64 `json:"avg"`
	WOBA   float64 `json:"woba"`
	Speed  float64 `json:"speed"` // sprint speed, ft/s
}

// WithDefaults fills missing values with league averages
func (b BatterProfile) WithDefaults() BatterProfile {
	b.KRate = orDefault(b.KRate, LeagueKRate)
	b.BBRate = orDefault(b.BBRate, LeagueBBRate)
	b.ISO = orDefault(b.ISO, LeagueISO)
	b.AVG = orDefault(b.AVG, LeagueAVG)
	b.WOBA = orDefault(b.WOBA, LeagueWOBA)
	b.Speed = orDefault(b.Speed, LeagueSprintSpeed)
	if b.Hand == "" {
		b.Hand = "R"
	}
	return b
}

// PitcherProfile holds a pitcher's immutable base data
type PitcherProfile struct {
	Name string `json:"name"`
	Hand string `json:"hand"`
	Role Role   `json:"role"`

	// Rate stats
	KRate  float64 `json:"k_rate"`
	BBRate float64 `json:"bb_rate"`

	// Pitch quality ratings (100 = average)
	StuffPlus    float64 `json:"stuff_plus"`
	CommandPlus  float64 `json:"command_plus"`
	LocationPlus float64 `json:"location_plus"`

	// Batted-ball quality allowed
	AvgExitVelo   float64 `json:"avg_exit_velo"`
	LaunchAngle   float64 `json:"launch_angle"`
	BarrelRate    float64 `json:"barrel_rate"`
	XSLG          float64 `json:"xslg"`
	XWOBACON      float64 `json:"xwobacon"`
	SweetSpotRate float64 `json:"sweet_spot_rate"`

	// Career home run sample
	HR  int     `json:"hr"`
	TBF int     `json:"tbf"`
	IP  float64 `json:"ip"`

	// Derived projection
	HRPerPA float64 `json:"hr_per_pa"`
}

// WithDefaults fills missing rate and rating values with league averages.
// Counting stats are left alone; zero batters faced is meaningful to the projector.
func (p PitcherProfile) WithDefaults() PitcherProfile {
	p.KRate = orDefault(p.KRate, LeagueKRate)
	p.BBRate = orDefault(p.BBRate, LeagueBBRate)
	p.StuffPlus = orDefault(p.StuffPlus, LeaguePlusRating)
	p.CommandPlus = orDefault(p.CommandPlus, LeaguePlusRating)
	p.LocationPlus = orDefault(p.LocationPlus, LeaguePlusRating)
	p.AvgExitVelo = orDefault(p.AvgExitVelo, LeagueExitVelo)
	p.LaunchAngle = orDefault(p.LaunchAngle, LeagueLaunchAngle)
	p.BarrelRate = orDefault(p.BarrelRate, LeagueBarrelRate)
	p.XSLG = orDefault(p.XSLG, LeagueXSLG)
	p.XWOBACON = orDefault(p.XWOBACON, LeagueXWOBACON)
	p.SweetSpotRate = orDefault(p.SweetSpotRate, LeagueSweetSpotRate)
	if p.Role == "" {
		p.Role = Starter
	}
	if p.Hand == "" {
		p.Hand = "R"
	}
	return p
}

// PitcherState is the in-game workload of the pitcher currently on the mound
type PitcherState struct {
	Pitcher      PitcherProfile `json:"-"`
	Name         string         `json:"name"`
	PitchCount   int            `json:"pitch_count"`
	BattersFaced int            `json:"batters_faced"`
	TimesThrough int            `json:"times_through_order"`
}

// NewPitcherState starts a fresh outing for the pitcher
func NewPitcherState(p PitcherProfile) *PitcherState {
	return &PitcherState{
		Pitcher:      p,
		Name:         p.Name,
		TimesThrough: 1,
	}
}

// RecordBatter adds a completed plate appearance to the outing.
// A lineup turns over every nine batters.
func (ps *PitcherState) RecordBatter(pitches int) {
	ps.PitchCount += pitches
	ps.BattersFaced++
	ps.TimesThrough = ps.BattersFaced/9 + 1
}

// Team is one club's personnel for a single game
type Team struct {
	Name          string           `json:"name"`
	Lineup        []BatterProfile  `json:"lineup"`
	Starter       PitcherProfile   `json:"starter"`
	Bullpen       []PitcherProfile `json:"bullpen"`
	DefenseRating float64          `json:"defense_rating"` // 100 = average range
}

// WithDefaults imputes league averages throughout the roster
func (t Team) WithDefaults() Team {
	lineup := make([]BatterProfile, len(t.Lineup))
	for i, b := range t.Lineup {
		lineup[i] = b.WithDefaults()
	}
	t.Lineup = lineup

	t.Starter = t.Starter.WithDefaults()
	t.Starter.Role = Starter

	bullpen := make([]PitcherProfile, len(t.Bullpen))
	for i, p := range t.Bullpen {
		p = p.WithDefaults()
		p.Role = Reliever
		bullpen[i] = p
	}
	t.Bullpen = bullpen

	t.DefenseRating = orDefault(t.DefenseRating, LeagueDefense)
	return t
}

func orDefault(value, fallback float64) float64 {
	if value <= 0 {
		return fallback
	}
	return value
}
