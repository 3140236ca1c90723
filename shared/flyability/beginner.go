package flyability

// BeginnerThresholds are single pass/fail cutoffs, stricter than the
// two-tier ThresholdSet. Max values must not be reached; Min values must be.
type BeginnerThresholds struct {
	MaxSurfaceWind float64 `yaml:"max_surface_wind" json:"max_surface_wind"`
	MaxGustSpread  float64 `yaml:"max_gust_spread" json:"max_gust_spread"`
	MaxWind1000    float64 `yaml:"max_wind_1000" json:"max_wind_1000"`
	MaxWind1500    float64 `yaml:"max_wind_1500" json:"max_wind_1500"`
	MaxWind2000    float64 `yaml:"max_wind_2000" json:"max_wind_2000"`
	MaxWind3000    float64 `yaml:"max_wind_3000" json:"max_wind_3000"`
	MaxGradient    float64 `yaml:"max_gradient" json:"max_gradient"`
	MaxCAPE        float64 `yaml:"max_cape" json:"max_cape"`
	MinVisibility  float64 `yaml:"min_visibility" json:"min_visibility"`
	MinSpread      float64 `yaml:"min_spread" json:"min_spread"`
}

func DefaultBeginnerThresholds() BeginnerThresholds {
	return BeginnerThresholds{
		MaxSurfaceWind: 10,
		MaxGustSpread:  8,
		MaxWind1000:    15,
		MaxWind1500:    20,
		MaxWind2000:    25,
		MaxWind3000:    30,
		MaxGradient:    10,
		MaxCAPE:        200,
		MinVisibility:  10000,
		MinSpread:      3,
	}
}

// BeginnerCheck is one failed beginner check.
type BeginnerCheck struct {
	Name      string  `json:"name"`
	Value     float64 `json:"value"`
	Threshold float64 `json:"threshold"`
	Unit      string  `json:"unit"`
}

// BeginnerResult is the outcome of AssessBeginnerSafety. InsufficientData
// means neither pass nor fail could be decided.
type BeginnerResult struct {
	Friendly         bool            `json:"friendly"`
	InsufficientData bool            `json:"insufficient_data"`
	Failed           []BeginnerCheck `json:"failed,omitempty"`
}

// AssessBeginnerSafety runs every beginner check on sample i and lists all
// failures. Surface wind and 1500 m wind are required. The result is only
// meaningful for hours that already score Go; filtering is up to the caller.
func AssessBeginnerSafety(s *WeatherSeries, i int, bt BeginnerThresholds) BeginnerResult {
	v := Extract(s, i)
	if !v.Wind.SurfaceKnown || !v.Wind.Wind1500Known {
		return BeginnerResult{InsufficientData: true}
	}

	var failed []BeginnerCheck
	below := func(name string, value, limit float64, unit string) {
		if value >= limit {
			failed = append(failed, BeginnerCheck{Name: name, Value: value, Threshold: limit, Unit: unit})
		}
	}
	atLeast := func(name string, value, limit float64, unit string) {
		if value < limit {
			failed = append(failed, BeginnerCheck{Name: name, Value: value, Threshold: limit, Unit: unit})
		}
	}

	below("Surface wind", v.Wind.Surface, bt.MaxSurfaceWind, "km/h")
	below("Gust spread", v.Wind.GustSpread, bt.MaxGustSpread, "km/h")
	below("Wind at 1000 m", v.Wind.Wind1000, bt.MaxWind1000, "km/h")
	below("Wind at 1500 m", v.Wind.Wind1500, bt.MaxWind1500, "km/h")
	below("Wind at 2000 m", v.Wind.Wind2000, bt.MaxWind2000, "km/h")
	below("Wind at 3000 m", v.Wind.Wind3000, bt.MaxWind3000, "km/h")
	below("Wind gradient", v.Wind.Gradient, bt.MaxGradient, "km/h")
	below("CAPE", v.Thermal.CAPE, bt.MaxCAPE, "J/kg")
	atLeast("Visibility", v.Cloud.Visibility, bt.MinVisibility, "m")
	if v.Thermal.Spread.Valid {
		atLeast("Temperature/dew point spread", v.Thermal.Spread.Value, bt.MinSpread, "°C")
	}

	return BeginnerResult{Friendly: len(failed) == 0, Failed: failed}
}
