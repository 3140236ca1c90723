package paraglidingweather

import (
	"context"
	"log/slog"
	"time"

	"paraglide-stack/internal/models"
	"paraglide-stack/shared/flyability"
	"paraglide-stack/shared/monitoring"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

// forecastLookup reports whether a forecast came from the cache.
type forecastLookup interface {
	Lookup(ctx context.Context, loc models.Location) (*Forecast, bool, error)
}

// QuickWeather fetches compact summaries for many locations at once.
type QuickWeather struct {
	forecasts   forecastLookup
	advisor     Advisor
	home        models.Location
	workers     int
	itemTimeout time.Duration
	clock       clockwork.Clock
	metrics     *monitoring.Metrics
	logger      *slog.Logger
}

func NewQuickWeather(forecasts forecastLookup, advisor Advisor, home models.Location, workers int, itemTimeout time.Duration, clock clockwork.Clock, metrics *monitoring.Metrics, logger *slog.Logger) *QuickWeather {
	return &QuickWeather{
		forecasts:   forecasts,
		advisor:     advisor,
		home:        home,
		workers:     max(workers, 1),
		itemTimeout: itemTimeout,
		clock:       clock,
		metrics:     metrics,
		logger:      logger,
	}
}

// Fetch runs at most workers lookups concurrently, each bounded by the item
// timeout. A failing location yields an error result and never cancels its
// siblings. Results come back in input order once the whole batch is done.
func (q *QuickWeather) Fetch(ctx context.Context, locations []models.Location) []models.QuickWeatherResult {
	results := make([]models.QuickWeatherResult, len(locations))

	var g errgroup.Group
	g.SetLimit(q.workers)

	for i, loc := range locations {
		g.Go(func() error {
			results[i] = q.fetchOne(ctx, loc)
			return nil
		})
	}
	_ = g.Wait()

	if q.metrics == nil {
		return results
	}
	for _, r := range results {
		q.metrics.QuickWeatherItems.WithLabelValues(string(r.Status)).Inc()
	}
	return results
}

func (q *QuickWeather) fetchOne(ctx context.Context, loc models.Location) models.QuickWeatherResult {
	result := models.QuickWeatherResult{
		Location:   loc,
		DistanceKm: DistanceKm(q.home, loc),
	}

	itemCtx, cancel := context.WithTimeout(ctx, q.itemTimeout)
	defer cancel()

	f, cached, err := q.forecasts.Lookup(itemCtx, loc)
	if err != nil {
		q.logger.Warn("quick weather fetch failed", "location", loc.Name, "error", err)
		result.Status = models.QuickWeatherError
		result.Error = FailureMessage(err)
		return result
	}

	result.Status = models.QuickWeatherOK
	if cached {
		result.Status = models.QuickWeatherCached
	}

	now := f.Now(q.clock.Now())
	if i, ok := f.CurrentIndex(now); ok {
		result.CurrentScore = flyability.ScoreHour(f.Series, i, q.advisor.Thresholds, q.advisor.Filter)
	}
	today := flyability.AssessDay(f.Series, now.Format(time.DateOnly), q.advisor.Thresholds, q.advisor.Filter)
	if today.WorstScore != 0 {
		result.TodayLight = today.TrafficLight
		result.BestWindow = today.BestWindow
	}
	return result
}
