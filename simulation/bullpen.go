package simulation

import (
	"math"

	"github.com/baseball-sim/sim-engine/models"
)

type usageKey struct {
	side models.Side
	name string
}

// ReliefUsageTracker counts relief appearances per pitcher within one tracking scope.
// It is not safe for concurrent use; each worker owns its own.
type ReliefUsageTracker struct {
	uses map[usageKey]int
}

// NewReliefUsageTracker creates an empty tracker
func NewReliefUsageTracker() *ReliefUsageTracker {
	return &ReliefUsageTracker{uses: make(map[usageKey]int)}
}

// Uses returns how many times the reliever has been used in this scope
func (t *ReliefUsageTracker) Uses(side models.Side, name string) int {
	return t.uses[usageKey{side, name}]
}

// Record adds one appearance
func (t *ReliefUsageTracker) Record(side models.Side, name string) {
	t.uses[usageKey{side, name}]++
}

// Reset starts a new tracking scope
func (t *ReliefUsageTracker) Reset() {
	clear(t.uses)
}

// BullpenSelector picks relievers weighted by workload and recent usage
type BullpenSelector struct {
	tracker *ReliefUsageTracker
	params  *Params
}

// NewBullpenSelector creates a selector that records picks in tracker
func NewBullpenSelector(tracker *ReliefUsageTracker, params *Params) *BullpenSelector {
	return &BullpenSelector{
		tracker: tracker,
		params:  params,
	}
}

// Tracker returns the usage tracker the selector records into
func (s *BullpenSelector) Tracker() *ReliefUsageTracker {
	return s.tracker
}

// Suppression returns the weight multiplier after the given number of uses.
// It never increases with use and never drops below the configured floor.
func (s *BullpenSelector) Suppression(uses int) float64 {
	return math.Max(s.params.SuppressionFloor, math.Pow(s.params.UsageSuppression, float64(uses)))
}

// Eligible reports whether the reliever is under the usage cap
func (s *BullpenSelector) Eligible(side models.Side, p models.PitcherProfile) bool {
	return s.tracker.Uses(side, p.Name) < s.params.RelieverMaxUses
}

// Weight returns the sampling weight for a reliever: innings pitched times usage suppression
func (s *BullpenSelector) Weight(side models.Side, p models.PitcherProfile) float64 {
	if !s.Eligible(side, p) || p.IP <= 0 {
		return 0
	}
	return p.IP * s.Suppression(s.tracker.Uses(side, p.Name))
}

// Select draws up to n relievers from pool without replacement and records each pick.
// Fewer than n come back when the eligible pool runs out.
func (s *BullpenSelector) Select(rng Source, side models.Side, pool []models.PitcherProfile, n int) []models.PitcherProfile {
	if n <= 0 {
		return []models.PitcherProfile{}
	}

	candidates := make([]models.PitcherProfile, 0, len(pool))
	for _, p := range pool {
		if s.Eligible(side, p) {
			candidates = append(candidates, p)
		}
	}

	picked := make([]models.PitcherProfile, 0, n)
	for len(picked) < n && len(candidates) > 0 {
		weights := make([]float64, len(candidates))
		for i, p := range candidates {
			weights[i] = s.Weight(side, p)
		}

		// pickIndex falls back to uniform when every weight is zero
		idx := pickIndex(rng, weights)
		choice := candidates[idx]
		picked = append(picked, choice)
		s.tracker.Record(side, choice.Name)

		candidates = append(candidates[:idx], candidates[idx+1:]...)
	}

	return picked
}
