package simulation

import (
	"context"
	"fmt"
	"time"

	"github.com/baseball-sim/sim-engine/models"
)

// ForecastProvider supplies game-time weather for a ballpark
type ForecastProvider interface {
	GetWeatherForGame(ctx context.Context, stadium models.Stadium, gameTime time.Time) (models.Weather, error)
}

// ResolveWeather fills in the matchup's weather from the provider when the request
// carried none. Precomputed environments, indoor parks and matchups without a
// game time are left alone.
func ResolveWeather(ctx context.Context, provider ForecastProvider, m *models.Matchup) error {
	if provider == nil || m == nil {
		return nil
	}
	if m.Weather != nil || m.Environment != nil || m.GameTime.IsZero() || m.Stadium.IsDome() {
		return nil
	}

	weather, err := provider.GetWeatherForGame(ctx, m.Stadium, m.GameTime)
	if err != nil {
		return fmt.Errorf("forecast for %s: %w", m.Stadium.Name, err)
	}
	m.Weather = &weather
	return nil
}
