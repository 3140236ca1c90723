package paraglidingweather

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"paraglide-stack/internal/models"

	"github.com/stretchr/testify/require"
)

var (
	annecy   = models.Location{Name: "Annecy Forclaz", Latitude: 45.8127, Longitude: 6.2286}
	planfait = models.Location{Name: "Planfait", Latitude: 45.8544, Longitude: 6.1973}
	niesen   = models.Location{Name: "Niesen", Latitude: 46.6450, Longitude: 7.6510}
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// sample describes one forecast hour.
type sample struct {
	surface, gusts             float64
	w1000, w1500, w2000, w3000 float64
	temp, dew                  float64
	cape, li                   float64
	cloud, low, vis            float64
	precip, prob, showers      float64
}

// calm passes every default threshold and the beginner checks.
func calm() sample {
	return sample{
		surface: 8, gusts: 12,
		w1000: 10, w1500: 12, w2000: 15, w3000: 20,
		temp: 20, dew: 8,
		cape: 100, li: 1,
		cloud: 30, low: 10, vis: 30000,
		precip: 0, prob: 10, showers: 0,
	}
}

func stormy() sample {
	s := calm()
	s.surface, s.gusts = 40, 45
	return s
}

func allHours(s sample) func(date string, hour int) sample {
	return func(string, int) sample { return s }
}

// forecastJSON renders an Open-Meteo forecast response with 24 hourly samples
// for each date.
func forecastJSON(t *testing.T, timezone string, dates []string, pick func(date string, hour int) sample) []byte {
	t.Helper()

	hourly := map[string][]any{}
	add := func(key string, v any) { hourly[key] = append(hourly[key], v) }

	for _, date := range dates {
		for hour := 0; hour < 24; hour++ {
			s := pick(date, hour)
			add("time", fmt.Sprintf("%sT%02d:00", date, hour))
			add("wind_speed_10m", s.surface)
			add("wind_direction_10m", 270)
			add("wind_gusts_10m", s.gusts)
			add("wind_speed_900hPa", s.w1000)
			add("wind_speed_850hPa", s.w1500)
			add("wind_speed_800hPa", s.w2000)
			add("wind_speed_700hPa", s.w3000)
			add("temperature_2m", s.temp)
			add("dew_point_2m", s.dew)
			add("cape", s.cape)
			add("lifted_index", s.li)
			add("cloud_cover", s.cloud)
			add("cloud_cover_low", s.low)
			add("visibility", s.vis)
			add("precipitation", s.precip)
			add("precipitation_probability", s.prob)
			add("showers", s.showers)
		}
	}

	body, err := json.Marshal(map[string]any{
		"latitude":  45.81,
		"longitude": 6.23,
		"elevation": 1250.0,
		"timezone":  timezone,
		"hourly":    hourly,
	})
	require.NoError(t, err)
	return body
}

// forecastFor decodes forecastJSON the way ForecastClient does.
func forecastFor(t *testing.T, loc models.Location, dates []string, pick func(date string, hour int) sample) *Forecast {
	t.Helper()
	var resp forecastResponse
	require.NoError(t, json.Unmarshal(forecastJSON(t, "UTC", dates, pick), &resp))
	return &Forecast{Location: loc, Timezone: resp.Timezone, ElevationM: resp.Elevation, Series: &resp.Hourly}
}
