package distribution

import (
	"github.com/shopspring/decimal"
)

// Odds is a fair price for an event: no margin, just the inverse probability.
// Either odds field is null when the price is undefined (probability 0, or 1 for American).
type Odds struct {
	Probability float64             `json:"probability"`
	Decimal     decimal.NullDecimal `json:"decimal"`
	American    decimal.NullDecimal `json:"american"`
}

// FairOdds converts a probability into decimal (1/p) and American odds
func FairOdds(p float64) Odds {
	odds := Odds{Probability: p}
	if p <= 0 || p > 1 {
		return odds
	}

	prob := decimal.NewFromFloat(p)
	hundred := decimal.NewFromInt(100)

	odds.Decimal = decimal.NewNullDecimal(decimal.NewFromInt(1).DivRound(prob, 3))

	switch {
	case p >= 1:
		// Certain outcome has no American price
	case p >= 0.5:
		// Favorite: -100p/(1-p)
		odds.American = decimal.NewNullDecimal(hundred.Mul(prob).Div(decimal.NewFromInt(1).Sub(prob)).Neg().Round(0))
	default:
		// Underdog: +100(1-p)/p
		odds.American = decimal.NewNullDecimal(hundred.Mul(decimal.NewFromInt(1).Sub(prob)).Div(prob).Round(0))
	}

	return odds
}
