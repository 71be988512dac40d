package distribution

import (
	"math"
	"strings"
)

// MarketType names the kind of line being priced
type MarketType string

const (
	MarketTotal         MarketType = "total"
	MarketHomeTeamTotal MarketType = "team_total_home"
	MarketAwayTeamTotal MarketType = "team_total_away"
	MarketRunLine       MarketType = "run_line"
	MarketMoneyline     MarketType = "moneyline"
)

// Selection sides
const (
	Over  = "over"
	Under = "under"
	Home  = "home"
	Away  = "away"
	Draw  = "draw"
)

// Market is one priced selection. Probability counts pushes as losses;
// the fair odds are priced on the push-excluded probability.
type Market struct {
	Type            MarketType `json:"type"`
	Segment         string     `json:"segment"`
	Line            float64    `json:"line"`
	Selection       string     `json:"selection"`
	Probability     float64    `json:"probability"`
	PushProbability float64    `json:"push_probability,omitempty"`
	FairOdds        Odds       `json:"fair_odds"`
}

// SegmentLines are the lines to price for one segment
type SegmentLines struct {
	Totals     []float64 `mapstructure:"totals" json:"totals"`
	TeamTotals []float64 `mapstructure:"team_totals" json:"team_totals"`
	RunLines   []float64 `mapstructure:"run_lines" json:"run_lines"` // home handicap
}

// DefaultLines returns common lines for each segment
func DefaultLines() map[string]SegmentLines {
	return map[string]SegmentLines{
		"F1": {Totals: []float64{0.5}, TeamTotals: []float64{0.5}},
		"F3": {Totals: []float64{2.5, 3.5}, TeamTotals: []float64{1.5}, RunLines: []float64{-0.5, 0.5}},
		"F5": {Totals: []float64{4.5, 5.5}, TeamTotals: []float64{2.5}, RunLines: []float64{-0.5, 0.5}},
		"F7": {Totals: []float64{6.5, 7.5}, TeamTotals: []float64{3.5}, RunLines: []float64{-0.5, 0.5}},
		"FG": {Totals: []float64{7.5, 8.5, 9.5}, TeamTotals: []float64{3.5, 4.5}, RunLines: []float64{-1.5, 1.5}},
	}
}

// LinesFor returns the configured lines for a segment, matching keys case-insensitively
func LinesFor(lines map[string]SegmentLines, segment string) (SegmentLines, bool) {
	for key, l := range lines {
		if strings.EqualFold(key, segment) {
			return l, true
		}
	}
	return SegmentLines{}, false
}

// AutoLines returns the two half-point lines bracketing the mean
func AutoLines(pmf PMF) []float64 {
	if len(pmf) == 0 {
		return nil
	}
	base := math.Floor(pmf.Mean()) + 0.5
	return []float64{base - 1, base}
}

// SegmentDistributions are the PMFs needed to price a segment
type SegmentDistributions struct {
	Total        PMF
	Home         PMF
	Away         PMF
	Differential PMF // home minus away
}

// BuildMarkets prices every configured line for a segment.
// Full-game moneylines are two-way and pass through the win probability calibration;
// partial segments can end level and are priced three-way.
func BuildMarkets(segment string, dists SegmentDistributions, lines SegmentLines, fullGame bool,
	winCalibration WinProbabilityCalibration) []Market {

	var markets []Market

	totals := lines.Totals
	if len(totals) == 0 {
		totals = AutoLines(dists.Total)
	}
	for _, line := range totals {
		markets = append(markets, overUnder(MarketTotal, segment, line, dists.Total)...)
	}

	for _, line := range lines.TeamTotals {
		markets = append(markets, overUnder(MarketHomeTeamTotal, segment, line, dists.Home)...)
		markets = append(markets, overUnder(MarketAwayTeamTotal, segment, line, dists.Away)...)
	}

	for _, line := range lines.RunLines {
		markets = append(markets, runLine(segment, line, dists.Differential)...)
	}

	markets = append(markets, moneyline(segment, dists.Differential, fullGame, winCalibration)...)
	return markets
}

func overUnder(marketType MarketType, segment string, line float64, pmf PMF) []Market {
	push := pmf.Exactly(line)
	return []Market{
		newMarket(marketType, segment, line, Over, pmf.Over(line), push),
		newMarket(marketType, segment, line, Under, pmf.Under(line), push),
	}
}

// runLine prices the home side at the handicap and the away side at its mirror.
// Home covers when differential + line > 0.
func runLine(segment string, line float64, diff PMF) []Market {
	push := diff.Exactly(-line)
	return []Market{
		newMarket(MarketRunLine, segment, line, Home, diff.Over(-line), push),
		newMarket(MarketRunLine, segment, -line, Away, diff.Under(-line), push),
	}
}

func moneyline(segment string, diff PMF, fullGame bool, calibration WinProbabilityCalibration) []Market {
	home, away, draw := diff.Over(0), diff.Under(0), diff.Exactly(0)

	if !fullGame {
		return []Market{
			newMarket(MarketMoneyline, segment, 0, Home, home, 0),
			newMarket(MarketMoneyline, segment, 0, Away, away, 0),
			newMarket(MarketMoneyline, segment, 0, Draw, draw, 0),
		}
	}

	// Games ended level at the innings cap are removed before calibrating
	if decided := home + away; decided > 0 {
		home = calibration.Apply(home / decided)
		away = 1 - home
	}
	return []Market{
		newMarket(MarketMoneyline, segment, 0, Home, home, 0),
		newMarket(MarketMoneyline, segment, 0, Away, away, 0),
	}
}

func newMarket(marketType MarketType, segment string, line float64, selection string, prob, push float64) Market {
	fair := prob
	if push > 0 && push < 1 {
		fair = prob / (1 - push)
	}
	return Market{
		Type:            marketType,
		Segment:         segment,
		Line:            line,
		Selection:       selection,
		Probability:     prob,
		PushProbability: push,
		FairOdds:        FairOdds(fair),
	}
}
