package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"paraglide-stack/internal/models"
	"paraglide-stack/shared/flyability"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Home         models.Location               `yaml:"home"`
	Favorites    []models.Location             `yaml:"favorites" validate:"dive"`
	Forecast     ForecastConfig                `yaml:"forecast"`
	QuickWeather QuickWeatherConfig            `yaml:"quick_weather"`
	Filter       flyability.CategoryFilter     `yaml:"filter"`
	Thresholds   flyability.ThresholdSet       `yaml:"thresholds"`
	Beginner     flyability.BeginnerThresholds `yaml:"beginner"`
	Email        EmailConfig                   `yaml:"email"`
	AI           AIConfig                      `yaml:"ai"`
	Monitoring   MonitoringConfig              `yaml:"monitoring"`
	API          APIConfig                     `yaml:"api"`
	Log          LogConfig                     `yaml:"log"`
	DataDir      string                        `yaml:"data_dir" validate:"required"`
	Schedule     string                        `yaml:"schedule" validate:"required"`
}

type ForecastConfig struct {
	WeatherURL   string        `yaml:"weather_url" validate:"required,url"`
	ElevationURL string        `yaml:"elevation_url" validate:"required,url"`
	Days         int           `yaml:"days" validate:"min=1,max=16"`
	Timeout      time.Duration `yaml:"timeout" validate:"gt=0"`
	MaxRetries   int           `yaml:"max_retries" validate:"min=0,max=10"`
	CacheTTL     time.Duration `yaml:"cache_ttl" validate:"gte=0"`
}

type QuickWeatherConfig struct {
	Workers     int           `yaml:"workers" validate:"min=1,max=32"`
	ItemTimeout time.Duration `yaml:"item_timeout" validate:"gt=0"`
}

type EmailConfig struct {
	Enabled    bool   `yaml:"enabled"`
	SMTPServer string `yaml:"smtp_server"`
	SMTPPort   int    `yaml:"smtp_port" validate:"min=0,max=65535"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	FromEmail  string `yaml:"from_email" validate:"omitempty,email"`
	ToEmail    string `yaml:"to_email" validate:"omitempty,email"`
}

type AIConfig struct {
	Enabled      bool   `yaml:"enabled"`
	GeminiAPIKey string `yaml:"gemini_api_key"`
	Model        string `yaml:"model"`
}

type MonitoringConfig struct {
	HealthPort int `yaml:"health_port" validate:"min=1,max=65535"`
}

type APIConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port" validate:"min=1,max=65535"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// environment holds the values read from the process environment. Secrets
// only fill what the file left empty; the operational knobs override it.
type environment struct {
	ConfigFile    string `envconfig:"CONFIG_FILE" default:"config.yaml"`
	EmailUsername string `envconfig:"EMAIL_USERNAME"`
	EmailPassword string `envconfig:"EMAIL_PASSWORD"`
	GeminiAPIKey  string `envconfig:"GEMINI_API_KEY"`
	LogLevel      string `envconfig:"LOG_LEVEL"`
	HealthPort    int    `envconfig:"HEALTH_PORT"`
	APIPort       int    `envconfig:"API_PORT"`
	DataDir       string `envconfig:"DATA_DIR"`
}

var validate = validator.New()

// Default returns the configuration used for every key the file leaves out.
func Default() *Config {
	return &Config{
		Forecast: ForecastConfig{
			WeatherURL:   "https://api.open-meteo.com/v1/forecast",
			ElevationURL: "https://api.open-meteo.com/v1/elevation",
			Days:         3,
			Timeout:      15 * time.Second,
			MaxRetries:   3,
			CacheTTL:     30 * time.Minute,
		},
		QuickWeather: QuickWeatherConfig{
			Workers:     4,
			ItemTimeout: 10 * time.Second,
		},
		Filter:     flyability.AllCategories(),
		Beginner:   flyability.DefaultBeginnerThresholds(),
		Email:      EmailConfig{SMTPServer: "smtp.gmail.com", SMTPPort: 587},
		AI:         AIConfig{Model: "gemini-2.5-flash"},
		Monitoring: MonitoringConfig{HealthPort: 8080},
		API:        APIConfig{Enabled: true, Port: 8081},
		Log:        LogConfig{Level: "info", Format: "text"},
		DataDir:    "data",
		Schedule:   "0 0 6 * * *", // Daily at 6 AM, before the morning launch decision
	}
}

// Load reads .env, then the YAML file named by CONFIG_FILE.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile loads the configuration from path, falling back to CONFIG_FILE
// when path is empty.
func LoadFile(path string) (*Config, error) {
	_ = godotenv.Load()

	var env environment
	if err := envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	if path == "" {
		path = env.ConfigFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg, err := parse(data, env)
	if err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates a YAML document without consulting the
// environment.
func Parse(data []byte) (*Config, error) {
	return parse(data, environment{})
}

func parse(data []byte, env environment) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvironment(env)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnvironment(env environment) {
	if c.Email.Username == "" {
		c.Email.Username = env.EmailUsername
	}
	if c.Email.Password == "" {
		c.Email.Password = env.EmailPassword
	}
	if c.AI.GeminiAPIKey == "" {
		c.AI.GeminiAPIKey = env.GeminiAPIKey
	}

	if env.LogLevel != "" {
		c.Log.Level = env.LogLevel
	}
	if env.HealthPort != 0 {
		c.Monitoring.HealthPort = env.HealthPort
	}
	if env.APIPort != 0 {
		c.API.Port = env.APIPort
	}
	if env.DataDir != "" {
		c.DataDir = env.DataDir
	}
}

func (c *Config) validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Home.Latitude == 0 && c.Home.Longitude == 0 {
		return errors.New("home coordinates must be configured (home.latitude and home.longitude)")
	}
	if err := flyability.ValidateOverride(c.Thresholds); err != nil {
		return fmt.Errorf("thresholds: %w", err)
	}

	if c.Email.Enabled {
		if c.Email.Username == "" {
			return errors.New("email username is required (set EMAIL_USERNAME or email.username)")
		}
		if c.Email.Password == "" {
			return errors.New("email password is required (set EMAIL_PASSWORD or email.password)")
		}
		if c.Email.SMTPServer == "" || c.Email.SMTPPort == 0 {
			return errors.New("email smtp_server and smtp_port are required")
		}
		if c.Email.FromEmail == "" || c.Email.ToEmail == "" {
			return errors.New("email from_email and to_email are required")
		}
	}
	if c.AI.Enabled && c.AI.GeminiAPIKey == "" {
		return errors.New("Gemini API key is required (set GEMINI_API_KEY or ai.gemini_api_key)")
	}
	return nil
}

// ResolvedThresholds merges the configured override onto the built-in table.
func (c *Config) ResolvedThresholds() flyability.ThresholdSet {
	return flyability.Resolve(flyability.DefaultThresholds(), c.Thresholds)
}
