package simulation

import (
	"github.com/baseball-sim/sim-engine/models"
)

// SimulationContext collects diagnostic tallies for one batch of trials.
// It is owned by a single worker and merged after the batch finishes.
type SimulationContext struct {
	Outcomes      map[models.Side]models.OutcomeCounts `json:"outcomes"`
	RelieverUsage map[models.Side]map[string]int       `json:"reliever_usage"`
	GameTypes     map[string]int                       `json:"game_types"`
	SafetyCapHits int                                  `json:"safety_cap_hits"`
	Games         int                                  `json:"games"`
}

// NewSimulationContext creates an empty context
func NewSimulationContext() *SimulationContext {
	return &SimulationContext{
		Outcomes: map[models.Side]models.OutcomeCounts{
			models.Away: {},
			models.Home: {},
		},
		RelieverUsage: map[models.Side]map[string]int{
			models.Away: {},
			models.Home: {},
		},
		GameTypes: make(map[string]int),
	}
}

// RecordOutcome tallies one plate appearance for the batting side
func (c *SimulationContext) RecordOutcome(side models.Side, o models.Outcome) {
	if c == nil {
		return
	}
	c.Outcomes[side][o]++
}

// RecordReliever tallies one relief appearance
func (c *SimulationContext) RecordReliever(side models.Side, name string) {
	if c == nil {
		return
	}
	c.RelieverUsage[side][name]++
}

// RecordGame tallies a finished game
func (c *SimulationContext) RecordGame(result *models.GameResult) {
	if c == nil {
		return
	}
	c.Games++
	c.GameTypes[result.GameType]++
	c.SafetyCapHits += result.SafetyCapHits
}

// Merge folds another context into this one
func (c *SimulationContext) Merge(other *SimulationContext) {
	if c == nil || other == nil {
		return
	}
	for side, counts := range other.Outcomes {
		if c.Outcomes[side] == nil {
			c.Outcomes[side] = models.OutcomeCounts{}
		}
		c.Outcomes[side].Add(counts)
	}
	for side, usage := range other.RelieverUsage {
		if c.RelieverUsage[side] == nil {
			c.RelieverUsage[side] = make(map[string]int)
		}
		for name, n := range usage {
			c.RelieverUsage[side][name] += n
		}
	}
	for gameType, n := range other.GameTypes {
		c.GameTypes[gameType] += n
	}
	c.SafetyCapHits += other.SafetyCapHits
	c.Games += other.Games
}
