// Package distribution turns simulated values into probability mass functions,
// calibrates them, and prices market-style lines from them.
package distribution

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// valueTolerance is how close two values must be to count as the same point
const valueTolerance = 1e-9

// Point is one value of a PMF and its probability
type Point struct {
	Value float64 `json:"value"`
	Prob  float64 `json:"prob"`
}

// PMF is an empirical probability mass function, sorted by value.
// Probabilities are non-negative and sum to one.
type PMF []Point

// FromValues builds a PMF where each distinct value gets count/N
func FromValues(values []float64) PMF {
	if len(values) == 0 {
		return PMF{}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	n := float64(len(sorted))
	pmf := make(PMF, 0, 32)
	count := 0
	for i, v := range sorted {
		count++
		if i == len(sorted)-1 || sorted[i+1]-v > valueTolerance {
			pmf = append(pmf, Point{Value: v, Prob: float64(count) / n})
			count = 0
		}
	}
	return pmf
}

// FromInts builds a PMF from integer observations
func FromInts(values []int) PMF {
	floats := make([]float64, len(values))
	for i, v := range values {
		floats[i] = float64(v)
	}
	return FromValues(floats)
}

// Over returns P(value > threshold)
func (p PMF) Over(threshold float64) float64 {
	total := 0.0
	for _, pt := range p {
		if pt.Value > threshold+valueTolerance {
			total += pt.Prob
		}
	}
	return total
}

// Under returns P(value < threshold)
func (p PMF) Under(threshold float64) float64 {
	total := 0.0
	for _, pt := range p {
		if pt.Value < threshold-valueTolerance {
			total += pt.Prob
		}
	}
	return total
}

// Exactly returns P(value == threshold), the push probability on an integer line
func (p PMF) Exactly(threshold float64) float64 {
	total := 0.0
	for _, pt := range p {
		if math.Abs(pt.Value-threshold) <= valueTolerance {
			total += pt.Prob
		}
	}
	return total
}

// Total returns the sum of all probabilities
func (p PMF) Total() float64 {
	total := 0.0
	for _, pt := range p {
		total += pt.Prob
	}
	return total
}

// Mean returns the expected value
func (p PMF) Mean() float64 {
	if len(p) == 0 {
		return 0
	}
	values, weights := p.split()
	return stat.Mean(values, weights)
}

func (p PMF) split() (values, weights []float64) {
	values = make([]float64, len(p))
	weights = make([]float64, len(p))
	for i, pt := range p {
		values[i] = pt.Value
		weights[i] = pt.Prob
	}
	return values, weights
}

// Summary holds the moments and spread of a simulated distribution
type Summary struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	P10    float64 `json:"p10"`
	Median float64 `json:"median"`
	P90    float64 `json:"p90"`
	Max    float64 `json:"max"`
}

// Summarize computes summary statistics over raw values
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mean, std := stat.PopMeanStdDev(sorted, nil)
	return Summary{
		Mean:   mean,
		StdDev: std,
		Min:    sorted[0],
		P10:    stat.Quantile(0.10, stat.Empirical, sorted, nil),
		Median: stat.Quantile(0.50, stat.Empirical, sorted, nil),
		P90:    stat.Quantile(0.90, stat.Empirical, sorted, nil),
		Max:    sorted[len(sorted)-1],
	}
}
