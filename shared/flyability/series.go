package flyability

import (
	"encoding/json"
	"fmt"
	"math"
)

// TimeLayout is the layout of WeatherSeries.Times keys (local site time).
const TimeLayout = "2006-01-02T15:04"

// WeatherSeries holds hourly samples as parallel arrays indexed like Times.
// Field tags match Open-Meteo hourly variable names so a forecast response
// decodes straight into it. A nil array, a short array, a JSON null or a NaN
// all mean the value is missing for that hour.
type WeatherSeries struct {
	Times []string `json:"time"`

	WindSpeed     []*float64 `json:"wind_speed_10m"`
	WindDirection []*float64 `json:"wind_direction_10m"`
	WindGusts     []*float64 `json:"wind_gusts_10m"`

	// Pressure levels used as proxies for ~1000/1500/2000/3000 m.
	WindSpeed900     []*float64 `json:"wind_speed_900hPa"`
	WindDirection900 []*float64 `json:"wind_direction_900hPa"`
	WindSpeed850     []*float64 `json:"wind_speed_850hPa"`
	WindDirection850 []*float64 `json:"wind_direction_850hPa"`
	WindSpeed800     []*float64 `json:"wind_speed_800hPa"`
	WindDirection800 []*float64 `json:"wind_direction_800hPa"`
	WindSpeed700     []*float64 `json:"wind_speed_700hPa"`
	WindDirection700 []*float64 `json:"wind_direction_700hPa"`

	Temperature []*float64 `json:"temperature_2m"`
	DewPoint    []*float64 `json:"dew_point_2m"`
	CAPE        []*float64 `json:"cape"`
	LiftedIndex []*float64 `json:"lifted_index"`

	CloudCover     []*float64 `json:"cloud_cover"`
	CloudCoverLow  []*float64 `json:"cloud_cover_low"`
	CloudCoverMid  []*float64 `json:"cloud_cover_mid"`
	CloudCoverHigh []*float64 `json:"cloud_cover_high"`
	Visibility     []*float64 `json:"visibility"`

	Precipitation            []*float64 `json:"precipitation"`
	PrecipitationProbability []*float64 `json:"precipitation_probability"`
	Showers                  []*float64 `json:"showers"`

	BoundaryLayerHeight []*float64 `json:"boundary_layer_height"`
	FreezingLevelHeight []*float64 `json:"freezing_level_height"`
	ShortwaveRadiation  []*float64 `json:"shortwave_radiation"`
	WeatherCode         []*float64 `json:"weather_code"`
}

// Len returns the number of hourly samples.
func (s *WeatherSeries) Len() int {
	return len(s.Times)
}

// IndexOf returns the position of the sample with the given time key.
func (s *WeatherSeries) IndexOf(key string) (int, bool) {
	for i, t := range s.Times {
		if t == key {
			return i, true
		}
	}
	return -1, false
}

// Days returns the distinct dates (YYYY-MM-DD) covered by the series, in order.
func (s *WeatherSeries) Days() []string {
	var days []string
	seen := make(map[string]bool)
	for _, t := range s.Times {
		if len(t) < 10 {
			continue
		}
		d := t[:10]
		if !seen[d] {
			seen[d] = true
			days = append(days, d)
		}
	}
	return days
}

func (s *WeatherSeries) timeIndex() map[string]int {
	idx := make(map[string]int, len(s.Times))
	for i, t := range s.Times {
		if _, dup := idx[t]; !dup {
			idx[t] = i
		}
	}
	return idx
}

// mustIndex enforces the one hard precondition of the package: the hour index
// must address an existing sample.
func (s *WeatherSeries) mustIndex(i int) {
	if i < 0 || i >= len(s.Times) {
		panic(fmt.Sprintf("flyability: hour index %d out of range [0,%d)", i, len(s.Times)))
	}
}

// HourKey builds the series key for a date and hour of day.
func HourKey(day string, hour int) string {
	return fmt.Sprintf("%sT%02d:00", day, hour)
}

// Reading is an optional measurement.
type Reading struct {
	Value float64
	Valid bool
}

// Known wraps a present value.
func Known(v float64) Reading {
	return Reading{Value: v, Valid: true}
}

// Or returns the value, or def when the reading is missing.
func (r Reading) Or(def float64) float64 {
	if !r.Valid {
		return def
	}
	return r.Value
}

func (r Reading) MarshalJSON() ([]byte, error) {
	if !r.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(r.Value)
}

func (r *Reading) UnmarshalJSON(data []byte) error {
	var v *float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v == nil || math.IsNaN(*v) {
		*r = Reading{}
		return nil
	}
	*r = Known(*v)
	return nil
}

func at(values []*float64, i int) Reading {
	if i >= len(values) || values[i] == nil || math.IsNaN(*values[i]) {
		return Reading{}
	}
	return Known(*values[i])
}
