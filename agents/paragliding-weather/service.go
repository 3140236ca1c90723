package paraglidingweather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"paraglide-stack/internal/models"
	"paraglide-stack/shared/flyability"
	"paraglide-stack/shared/monitoring"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// ErrUnknownHour is returned when a requested hour is not in the forecast.
var ErrUnknownHour = errors.New("hour not in forecast")

type elevationSource interface {
	Elevation(ctx context.Context, loc models.Location) (float64, error)
}

// AssessOptions adjusts one assessment. A nil Filter keeps the configured
// filter; Override is merged onto the configured thresholds and must have
// been validated by the caller.
type AssessOptions struct {
	Filter   *flyability.CategoryFilter
	Override flyability.ThresholdSet
}

// Service assesses locations on demand. The scheduled agent and the HTTP
// API share one instance and therefore one forecast cache.
type Service struct {
	forecasts *CachedForecaster
	elevation elevationSource
	quick     *QuickWeather
	advisor   Advisor
	home      models.Location
	favorites []models.Location
	clock     clockwork.Clock
	metrics   *monitoring.Metrics
	logger    *slog.Logger
}

// ServiceDeps bundles the collaborators of a Service.
type ServiceDeps struct {
	Forecasts *CachedForecaster
	Elevation elevationSource
	Quick     *QuickWeather
	Advisor   Advisor
	Home      models.Location
	Favorites []models.Location
	Clock     clockwork.Clock
	Metrics   *monitoring.Metrics // optional
	Logger    *slog.Logger
}

func NewService(d ServiceDeps) *Service {
	return &Service{
		forecasts: d.Forecasts,
		elevation: d.Elevation,
		quick:     d.Quick,
		advisor:   d.Advisor,
		home:      d.Home,
		favorites: d.Favorites,
		clock:     d.Clock,
		metrics:   d.Metrics,
		logger:    d.Logger,
	}
}

// Home returns the configured home site.
func (s *Service) Home() models.Location {
	return s.home
}

func (s *Service) advisorFor(opts AssessOptions) Advisor {
	a := s.advisor
	if opts.Filter != nil {
		a.Filter = *opts.Filter
	}
	a.Thresholds = flyability.Resolve(a.Thresholds, opts.Override)
	return a
}

// Assess fetches the forecast for loc and assesses every forecast day. An
// elevation lookup failure falls back to the model grid elevation and is
// reported in Warnings.
func (s *Service) Assess(ctx context.Context, loc models.Location, opts AssessOptions) (*models.FlightAdvisory, error) {
	f, err := s.forecasts.Forecast(ctx, loc)
	if err != nil {
		return nil, err
	}

	advisory := &models.FlightAdvisory{
		RunID:       uuid.NewString(),
		Location:    loc,
		ElevationM:  f.ElevationM,
		Timezone:    f.Timezone,
		GeneratedAt: s.clock.Now(),
		Days:        s.advisorFor(opts).Days(f.Series),
	}

	if s.elevation != nil {
		elevation, err := s.elevation.Elevation(ctx, loc)
		if err != nil {
			s.logger.Warn("elevation lookup failed", "location", loc.Name, "error", err)
			advisory.Warnings = append(advisory.Warnings, fmt.Sprintf("elevation lookup failed: %s", FailureMessage(err)))
		} else {
			advisory.ElevationM = &elevation
		}
	}

	s.observe(advisory.Days)
	return advisory, nil
}

// AssessHour reports the forecast hour with the given "2006-01-02T15:04" key.
func (s *Service) AssessHour(ctx context.Context, loc models.Location, key string, opts AssessOptions) (*models.HourReport, error) {
	f, err := s.forecasts.Forecast(ctx, loc)
	if err != nil {
		return nil, err
	}
	i, ok := f.Series.IndexOf(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownHour, key)
	}
	r := s.advisorFor(opts).Hour(f.Series, i)
	return &r, nil
}

// Favorites returns quick weather for the configured favorites, nearest to
// home first.
func (s *Service) Favorites(ctx context.Context) []models.QuickWeatherResult {
	if len(s.favorites) == 0 {
		return []models.QuickWeatherResult{}
	}
	return s.quick.Fetch(ctx, s.sortedFavorites())
}

func (s *Service) sortedFavorites() []models.Location {
	sorted := slices.Clone(s.favorites)
	slices.SortStableFunc(sorted, func(a, b models.Location) int {
		da, db := DistanceKm(s.home, a), DistanceKm(s.home, b)
		switch {
		case da < db:
			return -1
		case da > db:
			return 1
		}
		return 0
	})
	return sorted
}

func (s *Service) observe(days []models.DayReport) {
	if s.metrics == nil {
		return
	}
	for _, d := range days {
		s.metrics.DayLights.WithLabelValues(d.TrafficLight.String()).Inc()
		for _, h := range d.Hours {
			s.metrics.HoursScored.WithLabelValues(h.Score.String()).Inc()
		}
	}
}
