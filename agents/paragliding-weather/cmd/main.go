package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jonboulle/clockwork"
	flag "github.com/spf13/pflag"

	paraglidingweather "paraglide-stack/agents/paragliding-weather"
	"paraglide-stack/agents/paragliding-weather/httpapi"
	"paraglide-stack/internal/models"
	"paraglide-stack/shared/config"
	"paraglide-stack/shared/monitoring"
	"paraglide-stack/shared/scheduler"
)

func main() {
	once := flag.Bool("once", false, "run a single advisory for the home site and exit")
	configFile := flag.String("config", "", "path to the YAML config (default $CONFIG_FILE or config.yaml)")
	lat := flag.Float64("lat", 0, "assess this latitude once and print the advisory as JSON")
	lon := flag.Float64("lon", 0, "assess this longitude once and print the advisory as JSON")
	name := flag.String("name", "", "site name used with --lat/--lon")
	flag.Parse()

	cfg, err := config.LoadFile(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := monitoring.NewLogger(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)
	metrics := monitoring.NewMetrics()

	// Create context that responds to signals
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if flag.CommandLine.Changed("lat") || flag.CommandLine.Changed("lon") {
		if err := assessOnce(ctx, cfg, metrics, logger, *lat, *lon, *name); err != nil {
			log.Fatalf("Assessment failed: %v", err)
		}
		return
	}

	agent := paraglidingweather.NewParaglidingWeatherAgent(cfg, metrics, logger)
	s := scheduler.New(cfg, agent, metrics, logger)

	if *once {
		fmt.Println("Running once...")
		if err := agent.Initialize(); err != nil {
			log.Fatalf("Failed to initialize agent: %v", err)
		}

		if err := s.RunOnce(ctx); err != nil {
			log.Fatalf("Failed to run: %v", err)
		}
		return
	}

	if err := agent.Initialize(); err != nil {
		log.Fatalf("Failed to initialize agent: %v", err)
	}

	if cfg.API.Enabled {
		app := newAPI(agent)
		go func() {
			logger.Info("API server listening", "port", cfg.API.Port)
			if err := app.Listen(fmt.Sprintf(":%d", cfg.API.Port)); err != nil {
				logger.Error("API server stopped", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := app.ShutdownWithContext(shutdownCtx); err != nil {
				logger.Error("API server shutdown failed", "error", err)
			}
		}()
	}

	fmt.Println("Starting scheduler...")

	if err := s.Start(ctx); err != nil {
		log.Fatalf("Scheduler failed: %v", err)
	}
}

func newAPI(agent *paraglidingweather.ParaglidingWeatherAgent) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "paraglide-advisor",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})
	app.Use(recover.New())
	httpapi.RegisterRoutes(app, agent.Service(), agent.Latest)
	return app
}

func assessOnce(ctx context.Context, cfg *config.Config, metrics *monitoring.Metrics, logger *slog.Logger, lat, lon float64, name string) error {
	if name == "" {
		name = fmt.Sprintf("%.4f, %.4f", lat, lon)
	}
	loc := models.Location{Name: name, Latitude: lat, Longitude: lon}

	svc := paraglidingweather.NewServiceFromConfig(cfg, clockwork.NewRealClock(), metrics, logger)
	advisory, err := svc.Assess(ctx, loc, paraglidingweather.AssessOptions{})
	if err != nil {
		return fmt.Errorf("%s: %w", paraglidingweather.FailureMessage(err), err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(advisory)
}
