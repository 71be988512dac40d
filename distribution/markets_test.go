package distribution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findMarket(t *testing.T, markets []Market, marketType MarketType, line float64, selection string) Market {
	t.Helper()
	for _, m := range markets {
		if m.Type == marketType && m.Line == line && m.Selection == selection {
			return m
		}
	}
	require.Failf(t, "market not found", "%s %v %s", marketType, line, selection)
	return Market{}
}

func TestDefaultLines(t *testing.T) {
	lines := DefaultLines()
	for _, segment := range []string{"F1", "F3", "F5", "F7", "FG"} {
		l, ok := LinesFor(lines, segment)
		require.True(t, ok, segment)
		assert.NotEmpty(t, l.Totals, segment)
	}

	l, ok := LinesFor(lines, "fg")
	assert.True(t, ok)
	assert.Equal(t, []float64{-1.5, 1.5}, l.RunLines)

	_, ok = LinesFor(lines, "F9")
	assert.False(t, ok)
}

func TestAutoLines(t *testing.T) {
	assert.Equal(t, []float64{7.5, 8.5}, AutoLines(FromInts([]int{8, 8, 9, 8})))
	assert.Nil(t, AutoLines(PMF{}))
}

func TestBuildMarketsTotals(t *testing.T) {
	dists := SegmentDistributions{
		Total:        FromInts([]int{7, 8, 8, 9}),
		Home:         FromInts([]int{3, 4, 4, 5}),
		Away:         FromInts([]int{4, 4, 4, 4}),
		Differential: FromInts([]int{-1, 0, 0, 1}),
	}
	markets := BuildMarkets("FG", dists, SegmentLines{Totals: []float64{8, 8.5}, TeamTotals: []float64{3.5}}, true,
		WinProbabilityCalibration{})

	over := findMarket(t, markets, MarketTotal, 8.5, Over)
	assert.InDelta(t, 0.25, over.Probability, 1e-12)
	assert.Zero(t, over.PushProbability)
	assert.Equal(t, "FG", over.Segment)

	// Pushes count against both sides; fair odds exclude them
	pushOver := findMarket(t, markets, MarketTotal, 8, Over)
	pushUnder := findMarket(t, markets, MarketTotal, 8, Under)
	assert.InDelta(t, 0.25, pushOver.Probability, 1e-12)
	assert.InDelta(t, 0.5, pushOver.PushProbability, 1e-12)
	assert.InDelta(t, 0.5, pushOver.FairOdds.Probability, 1e-12)
	assert.InDelta(t, 0.5, pushUnder.FairOdds.Probability, 1e-12)

	home := findMarket(t, markets, MarketHomeTeamTotal, 3.5, Over)
	away := findMarket(t, markets, MarketAwayTeamTotal, 3.5, Over)
	assert.InDelta(t, 0.75, home.Probability, 1e-12)
	assert.InDelta(t, 1.0, away.Probability, 1e-12)
}

func TestBuildMarketsAutoTotals(t *testing.T) {
	dists := SegmentDistributions{
		Total:        FromInts([]int{0, 1, 1, 2}),
		Differential: FromInts([]int{0, 0, 1, -1}),
	}
	markets := BuildMarkets("F1", dists, SegmentLines{}, false, WinProbabilityCalibration{})

	findMarket(t, markets, MarketTotal, 1.5, Over)
	under := findMarket(t, markets, MarketTotal, 0.5, Under)
	assert.InDelta(t, 0.25, under.Probability, 1e-12)
}

func TestBuildMarketsRunLine(t *testing.T) {
	dists := SegmentDistributions{
		Total:        FromInts([]int{5}),
		Differential: FromInts([]int{-2, -1, 1, 2}),
	}
	markets := BuildMarkets("F5", dists, SegmentLines{Totals: []float64{4.5}, RunLines: []float64{-1.5, -1}}, false,
		WinProbabilityCalibration{})

	homeMinus := findMarket(t, markets, MarketRunLine, -1.5, Home)
	awayPlus := findMarket(t, markets, MarketRunLine, 1.5, Away)
	assert.InDelta(t, 0.25, homeMinus.Probability, 1e-12)
	assert.InDelta(t, 0.75, awayPlus.Probability, 1e-12)

	// Home -1 pushes on a one-run win
	homeMinusOne := findMarket(t, markets, MarketRunLine, -1, Home)
	assert.InDelta(t, 0.25, homeMinusOne.Probability, 1e-12)
	assert.InDelta(t, 0.25, homeMinusOne.PushProbability, 1e-12)
	assert.InDelta(t, 1.0/3.0, homeMinusOne.FairOdds.Probability, 1e-12)
}

func TestBuildMarketsMoneyline(t *testing.T) {
	diff := FromInts([]int{-1, 1, 1, 0})
	dists := SegmentDistributions{Total: FromInts([]int{3}), Differential: diff}

	t.Run("partial segment is three-way", func(t *testing.T) {
		markets := BuildMarkets("F5", dists, SegmentLines{Totals: []float64{2.5}}, false, WinProbabilityCalibration{})

		assert.InDelta(t, 0.5, findMarket(t, markets, MarketMoneyline, 0, Home).Probability, 1e-12)
		assert.InDelta(t, 0.25, findMarket(t, markets, MarketMoneyline, 0, Away).Probability, 1e-12)
		assert.InDelta(t, 0.25, findMarket(t, markets, MarketMoneyline, 0, Draw).Probability, 1e-12)
	})

	t.Run("full game drops ties", func(t *testing.T) {
		markets := BuildMarkets("FG", dists, SegmentLines{Totals: []float64{2.5}}, true, WinProbabilityCalibration{})

		home := findMarket(t, markets, MarketMoneyline, 0, Home)
		away := findMarket(t, markets, MarketMoneyline, 0, Away)
		assert.InDelta(t, 2.0/3.0, home.Probability, 1e-12)
		assert.InDelta(t, 1.0/3.0, away.Probability, 1e-12)
		for _, m := range markets {
			assert.NotEqual(t, Draw, m.Selection)
		}
	})

	t.Run("full game calibrates", func(t *testing.T) {
		cal := WinProbabilityCalibration{Intercept: 0.2, Slope: 0.8}
		markets := BuildMarkets("FG", dists, SegmentLines{Totals: []float64{2.5}}, true, cal)

		home := findMarket(t, markets, MarketMoneyline, 0, Home)
		away := findMarket(t, markets, MarketMoneyline, 0, Away)
		assert.InDelta(t, cal.Apply(2.0/3.0), home.Probability, 1e-12)
		assert.InDelta(t, 1.0, home.Probability+away.Probability, 1e-12)
	})
}
