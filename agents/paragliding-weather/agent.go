package paraglidingweather

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"paraglide-stack/internal/models"
	"paraglide-stack/shared/ai"
	"paraglide-stack/shared/config"
	"paraglide-stack/shared/email"
	"paraglide-stack/shared/monitoring"
	"paraglide-stack/shared/scheduler"
	"paraglide-stack/shared/storage"

	"github.com/jonboulle/clockwork"
)

// notifiedRetention bounds how long announced days are remembered.
const notifiedRetention = 7 * 24 * time.Hour

// AdvisoryMetrics represents the metrics collected during one advisory run
type AdvisoryMetrics struct {
	Days              int  `json:"days"`
	FlyableDays       int  `json:"flyable_days"`
	FavoritesChecked  int  `json:"favorites_checked"`
	FavoritesFailed   int  `json:"favorites_failed"`
	BriefingGenerated bool `json:"briefing_generated"`
	EmailSent         bool `json:"email_sent"`
}

// GetSummary implements the scheduler.Metrics interface
func (m AdvisoryMetrics) GetSummary() string {
	s := fmt.Sprintf("%d of %d days flyable", m.FlyableDays, m.Days)
	if m.FavoritesChecked > 0 {
		s += fmt.Sprintf(", %d/%d favorites fetched", m.FavoritesChecked-m.FavoritesFailed, m.FavoritesChecked)
	}
	if m.EmailSent {
		s += ", advisory email sent"
	}
	return s
}

type briefer interface {
	Brief(ctx context.Context, advisory *models.FlightAdvisory) (string, error)
}

type advisorySender interface {
	SendAdvisory(advisory *models.FlightAdvisory) error
}

type notificationTracker interface {
	IsNotified(location, date string) bool
	MarkNotified(location string, dates ...string) error
}

// ParaglidingWeatherAgent implements the scheduler.Agent interface
type ParaglidingWeatherAgent struct {
	config  *config.Config
	metrics *monitoring.Metrics
	logger  *slog.Logger
	clock   clockwork.Clock

	service *Service
	briefer briefer
	sender  advisorySender
	tracker notificationTracker

	mu     sync.RWMutex
	latest *models.FlightAdvisory
}

func NewParaglidingWeatherAgent(cfg *config.Config, metrics *monitoring.Metrics, logger *slog.Logger) *ParaglidingWeatherAgent {
	return &ParaglidingWeatherAgent{
		config:  cfg,
		metrics: metrics,
		logger:  logger,
		clock:   clockwork.NewRealClock(),
	}
}

func (a *ParaglidingWeatherAgent) Name() string {
	return "Paragliding Weather Agent"
}

func (a *ParaglidingWeatherAgent) Initialize() error {
	a.logger.Info("initializing agent", "agent", a.Name())

	if a.service == nil {
		a.service = NewServiceFromConfig(a.config, a.clock, a.metrics, a.logger)
	}

	if a.config.AI.Enabled && a.briefer == nil {
		b, err := ai.NewBriefer(context.Background(), &a.config.AI, a.logger)
		if err != nil {
			return fmt.Errorf("failed to initialize briefer: %w", err)
		}
		a.briefer = b
	}

	if a.config.Email.Enabled {
		if a.sender == nil {
			a.sender = email.NewSender(&a.config.Email)
		}
		if a.tracker == nil {
			t, err := storage.NewAdvisoryTracker(a.config.DataDir, notifiedRetention)
			if err != nil {
				return fmt.Errorf("failed to initialize advisory tracker: %w", err)
			}
			a.tracker = t
		}
	}

	a.logger.Info("configured home site",
		"name", a.config.Home.Name,
		"latitude", a.config.Home.Latitude,
		"longitude", a.config.Home.Longitude,
		"favorites", len(a.config.Favorites),
		"email", a.sender != nil,
		"briefing", a.briefer != nil)
	return nil
}

// Service returns the assessment service. Initialize must have run.
func (a *ParaglidingWeatherAgent) Service() *Service {
	return a.service
}

// Latest returns the advisory of the last successful run, or nil.
func (a *ParaglidingWeatherAgent) Latest() *models.FlightAdvisory {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.latest
}

func (a *ParaglidingWeatherAgent) RunOnce(ctx context.Context, events *scheduler.AgentEvents) error {
	startTime := a.clock.Now()
	metrics := AdvisoryMetrics{}
	home := a.config.Home

	advisory, err := a.service.Assess(ctx, home, AssessOptions{})
	if err != nil {
		err = fmt.Errorf("failed to assess %s: %w", home.Name, err)
		critical(events, err, a.clock.Since(startTime))
		return err
	}
	log := a.logger.With("run_id", advisory.RunID)

	for _, w := range advisory.Warnings {
		partial(events, fmt.Errorf("%s", w), a.clock.Since(startTime))
	}

	metrics.Days = len(advisory.Days)
	for _, d := range advisory.Days {
		if d.Flyable() {
			metrics.FlyableDays++
		}
		window := "-"
		if d.BestWindow != nil {
			window = d.BestWindow.String()
		}
		log.Info("day assessed", "date", d.Date, "light", d.TrafficLight.String(), "worst", d.WorstScore.String(), "window", window)
	}

	advisory.Favorites = a.service.Favorites(ctx)
	metrics.FavoritesChecked = len(advisory.Favorites)
	for _, f := range advisory.Favorites {
		if f.Status == models.QuickWeatherError {
			metrics.FavoritesFailed++
		}
	}
	if metrics.FavoritesFailed > 0 {
		partial(events, fmt.Errorf("%d of %d favorites could not be fetched", metrics.FavoritesFailed, metrics.FavoritesChecked), a.clock.Since(startTime))
	}

	if a.briefer != nil {
		text, err := a.briefer.Brief(ctx, advisory)
		if err != nil {
			partial(events, fmt.Errorf("failed to generate briefing: %w", err), a.clock.Since(startTime))
		} else {
			advisory.Briefing = text
			metrics.BriefingGenerated = true
		}
	}

	a.mu.Lock()
	a.latest = advisory
	a.mu.Unlock()

	if a.sender != nil {
		sent, err := a.sendAdvisory(advisory, log)
		if err != nil {
			err = fmt.Errorf("failed to send advisory email: %w", err)
			critical(events, err, a.clock.Since(startTime))
			return err
		}
		metrics.EmailSent = sent
	}

	if events != nil && events.OnSuccess != nil {
		events.OnSuccess(metrics, a.clock.Since(startTime))
	}
	log.Info("advisory run complete", "flyable_days", metrics.FlyableDays, "email_sent", metrics.EmailSent)
	return nil
}

// sendAdvisory emails the advisory when it has a flyable day not announced yet.
func (a *ParaglidingWeatherAgent) sendAdvisory(advisory *models.FlightAdvisory, log *slog.Logger) (bool, error) {
	key := advisory.Location.Key()
	var fresh []string
	for _, d := range advisory.FlyableDays() {
		if !a.tracker.IsNotified(key, d.Date) {
			fresh = append(fresh, d.Date)
		}
	}
	if len(fresh) == 0 {
		log.Info("no new flyable day, email skipped")
		return false, nil
	}

	if err := a.sender.SendAdvisory(advisory); err != nil {
		return false, err
	}
	if a.metrics != nil {
		a.metrics.AdvisoriesSent.Inc()
	}

	if err := a.tracker.MarkNotified(key, fresh...); err != nil {
		log.Warn("failed to record notified days", "error", err)
	}
	log.Info("advisory email sent", "new_days", fresh)
	return true, nil
}

func critical(events *scheduler.AgentEvents, err error, d time.Duration) {
	if events != nil && events.OnCriticalFailure != nil {
		events.OnCriticalFailure(err, d)
	}
}

func partial(events *scheduler.AgentEvents, err error, d time.Duration) {
	if events != nil && events.OnPartialFailure != nil {
		events.OnPartialFailure(err, d)
	}
}

// NewServiceFromConfig wires the Open-Meteo clients, cache and quick-weather
// pool described by cfg.
func NewServiceFromConfig(cfg *config.Config, clock clockwork.Clock, metrics *monitoring.Metrics, logger *slog.Logger) *Service {
	advisor := Advisor{
		Thresholds: cfg.ResolvedThresholds(),
		Filter:     cfg.Filter,
		Beginner:   cfg.Beginner,
	}
	forecasts := NewCachedForecaster(NewForecastClient(&cfg.Forecast, metrics, logger), cfg.Forecast.CacheTTL, clock, metrics)
	quick := NewQuickWeather(forecasts, advisor, cfg.Home, cfg.QuickWeather.Workers, cfg.QuickWeather.ItemTimeout, clock, metrics, logger)

	return NewService(ServiceDeps{
		Forecasts: forecasts,
		Elevation: NewElevationClient(&cfg.Forecast, metrics, logger),
		Quick:     quick,
		Advisor:   advisor,
		Home:      cfg.Home,
		Favorites: cfg.Favorites,
		Clock:     clock,
		Metrics:   metrics,
		Logger:    logger,
	})
}
