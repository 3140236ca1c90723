package paraglidingweather

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"paraglide-stack/internal/models"
	"paraglide-stack/shared/config"
	"paraglide-stack/shared/flyability"
	"paraglide-stack/shared/monitoring"
)

// hourlyVariables are requested from Open-Meteo; the names match the
// WeatherSeries JSON tags.
var hourlyVariables = []string{
	"wind_speed_10m", "wind_direction_10m", "wind_gusts_10m",
	"wind_speed_900hPa", "wind_direction_900hPa",
	"wind_speed_850hPa", "wind_direction_850hPa",
	"wind_speed_800hPa", "wind_direction_800hPa",
	"wind_speed_700hPa", "wind_direction_700hPa",
	"temperature_2m", "dew_point_2m", "cape", "lifted_index",
	"cloud_cover", "cloud_cover_low", "cloud_cover_mid", "cloud_cover_high", "visibility",
	"precipitation", "precipitation_probability", "showers",
	"boundary_layer_height", "freezing_level_height", "shortwave_radiation", "weather_code",
}

// Forecaster fetches the hourly forecast for a location.
type Forecaster interface {
	Forecast(ctx context.Context, loc models.Location) (*Forecast, error)
}

// Forecast is one decoded Open-Meteo response.
type Forecast struct {
	Location   models.Location           `json:"location"`
	Timezone   string                    `json:"timezone"`
	ElevationM *float64                  `json:"elevation_m,omitempty"` // model grid elevation
	FetchedAt  time.Time                 `json:"fetched_at"`
	Series     *flyability.WeatherSeries `json:"series"`
}

// Now returns the current time in the forecast's timezone, falling back to
// UTC when the zone is unknown.
func (f *Forecast) Now(now time.Time) time.Time {
	loc, err := time.LoadLocation(f.Timezone)
	if err != nil {
		return now.UTC()
	}
	return now.In(loc)
}

// CurrentIndex returns the sample for the hour containing now, in site time.
func (f *Forecast) CurrentIndex(now time.Time) (int, bool) {
	local := f.Now(now).Truncate(time.Hour)
	return f.Series.IndexOf(local.Format(flyability.TimeLayout))
}

type forecastResponse struct {
	Latitude  float64                  `json:"latitude"`
	Longitude float64                  `json:"longitude"`
	Elevation *float64                 `json:"elevation"`
	Timezone  string                   `json:"timezone"`
	Hourly    flyability.WeatherSeries `json:"hourly"`
}

// ForecastClient handles interactions with the Open-Meteo forecast API
type ForecastClient struct {
	baseURL string
	days    int
	up      *upstream
	now     func() time.Time
}

func NewForecastClient(cfg *config.ForecastConfig, metrics *monitoring.Metrics, logger *slog.Logger) *ForecastClient {
	retry := DefaultRetryPolicy()
	retry.MaxRetries = cfg.MaxRetries

	return &ForecastClient{
		baseURL: cfg.WeatherURL,
		days:    cfg.Days,
		up:      newUpstream("forecast", &http.Client{Timeout: cfg.Timeout}, retry, metrics, logger),
		now:     time.Now,
	}
}

// Forecast fetches every scored variable for loc. A response without
// timestamps or surface wind is reported as ErrNoForecast.
func (c *ForecastClient) Forecast(ctx context.Context, loc models.Location) (*Forecast, error) {
	var resp forecastResponse
	if err := c.up.getJSON(ctx, c.url(loc), &resp); err != nil {
		return nil, fmt.Errorf("forecast for %s: %w", loc, err)
	}

	if resp.Hourly.Len() == 0 || len(resp.Hourly.WindSpeed) == 0 {
		return nil, fmt.Errorf("forecast for %s: %w", loc, ErrNoForecast)
	}

	return &Forecast{
		Location:   loc,
		Timezone:   resp.Timezone,
		ElevationM: resp.Elevation,
		FetchedAt:  c.now(),
		Series:     &resp.Hourly,
	}, nil
}

func (c *ForecastClient) url(loc models.Location) string {
	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(loc.Latitude, 'f', 4, 64))
	values.Set("longitude", strconv.FormatFloat(loc.Longitude, 'f', 4, 64))
	values.Set("hourly", strings.Join(hourlyVariables, ","))
	values.Set("wind_speed_unit", "kmh")
	values.Set("timezone", "auto")
	values.Set("forecast_days", strconv.Itoa(c.days))
	return c.baseURL + "?" + values.Encode()
}
