package flyability

import "math"

// ClearVisibility is assumed when the forecast carries no visibility.
const ClearVisibility = 50000.0

// WindValues are the wind readings of one hour in km/h. Missing speeds
// default to 0; SurfaceKnown and Wind1500Known tell a real zero from a gap.
type WindValues struct {
	Surface       float64 `json:"surface"`
	Direction     float64 `json:"direction"`
	Gusts         float64 `json:"gusts"`
	Wind1000      float64 `json:"w1000"`
	Direction1000 float64 `json:"direction1000"`
	Wind1500      float64 `json:"w1500"`
	Direction1500 float64 `json:"direction1500"`
	Wind2000      float64 `json:"w2000"`
	Direction2000 float64 `json:"direction2000"`
	Wind3000      float64 `json:"w3000"`
	Direction3000 float64 `json:"direction3000"`

	GustSpread   float64 `json:"gust_spread"`
	Gradient     float64 `json:"gradient"`
	Gradient3000 float64 `json:"gradient3000"`

	SurfaceKnown  bool `json:"surface_known"`
	Wind1500Known bool `json:"w1500_known"`
}

// GustFactor returns (gusts - surface) / surface, or 0 without wind.
func (w WindValues) GustFactor() float64 {
	if w.Surface <= 0 {
		return 0
	}
	return (w.Gusts - w.Surface) / w.Surface
}

// ThermalValues are stability and moisture readings. Temperature, dew point
// and spread stay unknown when missing.
type ThermalValues struct {
	CAPE        float64 `json:"cape"`
	LiftedIndex float64 `json:"lifted_index"`
	Temperature Reading `json:"temperature"`
	DewPoint    Reading `json:"dew_point"`
	Spread      Reading `json:"spread"`
}

// CloudValues are cloud cover percentages and visibility in metres.
type CloudValues struct {
	Total      float64 `json:"total"`
	Low        float64 `json:"low"`
	Mid        float64 `json:"mid"`
	High       float64 `json:"high"`
	Visibility float64 `json:"visibility"`
}

// PrecipValues are precipitation and showers in mm/h and probability in %.
type PrecipValues struct {
	Precipitation float64 `json:"precipitation"`
	Probability   float64 `json:"probability"`
	Showers       float64 `json:"showers"`
}

// AuxValues are shown to pilots but never scored.
type AuxValues struct {
	BoundaryLayerHeight Reading `json:"boundary_layer_height"`
	FreezingLevelHeight Reading `json:"freezing_level_height"`
	ShortwaveRadiation  Reading `json:"shortwave_radiation"`
	WeatherCode         Reading `json:"weather_code"`
}

// Values is everything extracted for one hour.
type Values struct {
	Time    string        `json:"time"`
	Wind    WindValues    `json:"wind"`
	Thermal ThermalValues `json:"thermal"`
	Cloud   CloudValues   `json:"cloud"`
	Precip  PrecipValues  `json:"precip"`
	Aux     AuxValues     `json:"aux"`
}

// Extract reads all parameter groups of sample i. It panics when i does not
// address a sample of the series.
func Extract(s *WeatherSeries, i int) Values {
	s.mustIndex(i)
	return Values{
		Time:    s.Times[i],
		Wind:    ExtractWind(s, i),
		Thermal: ExtractThermal(s, i),
		Cloud:   ExtractCloud(s, i),
		Precip:  ExtractPrecip(s, i),
		Aux: AuxValues{
			BoundaryLayerHeight: at(s.BoundaryLayerHeight, i),
			FreezingLevelHeight: at(s.FreezingLevelHeight, i),
			ShortwaveRadiation:  at(s.ShortwaveRadiation, i),
			WeatherCode:         at(s.WeatherCode, i),
		},
	}
}

// ExtractWind reads surface and altitude winds and derives gust spread and
// gradients. Missing altitude levels count as calm.
func ExtractWind(s *WeatherSeries, i int) WindValues {
	s.mustIndex(i)
	surface := at(s.WindSpeed, i)
	w1500 := at(s.WindSpeed850, i)

	w := WindValues{
		Surface:       surface.Or(0),
		Direction:     at(s.WindDirection, i).Or(0),
		Gusts:         at(s.WindGusts, i).Or(0),
		Wind1000:      at(s.WindSpeed900, i).Or(0),
		Direction1000: at(s.WindDirection900, i).Or(0),
		Wind1500:      w1500.Or(0),
		Direction1500: at(s.WindDirection850, i).Or(0),
		Wind2000:      at(s.WindSpeed800, i).Or(0),
		Direction2000: at(s.WindDirection800, i).Or(0),
		Wind3000:      at(s.WindSpeed700, i).Or(0),
		Direction3000: at(s.WindDirection700, i).Or(0),
		SurfaceKnown:  surface.Valid,
		Wind1500Known: w1500.Valid,
	}
	w.GustSpread = w.Gusts - w.Surface
	w.Gradient = math.Abs(w.Wind1500 - w.Surface)
	w.Gradient3000 = math.Abs(w.Wind3000 - w.Surface)
	return w
}

// ExtractThermal reads CAPE and lifted index (default 0) and derives the
// temperature/dew point spread when both are present.
func ExtractThermal(s *WeatherSeries, i int) ThermalValues {
	s.mustIndex(i)
	t := ThermalValues{
		CAPE:        at(s.CAPE, i).Or(0),
		LiftedIndex: at(s.LiftedIndex, i).Or(0),
		Temperature: at(s.Temperature, i),
		DewPoint:    at(s.DewPoint, i),
	}
	if t.Temperature.Valid && t.DewPoint.Valid {
		t.Spread = Known(t.Temperature.Value - t.DewPoint.Value)
	}
	return t
}

// ExtractCloud reads cloud cover (default 0) and visibility (default clear).
func ExtractCloud(s *WeatherSeries, i int) CloudValues {
	s.mustIndex(i)
	return CloudValues{
		Total:      at(s.CloudCover, i).Or(0),
		Low:        at(s.CloudCoverLow, i).Or(0),
		Mid:        at(s.CloudCoverMid, i).Or(0),
		High:       at(s.CloudCoverHigh, i).Or(0),
		Visibility: at(s.Visibility, i).Or(ClearVisibility),
	}
}

// ExtractPrecip reads precipitation, probability and showers (default 0).
func ExtractPrecip(s *WeatherSeries, i int) PrecipValues {
	s.mustIndex(i)
	return PrecipValues{
		Precipitation: at(s.Precipitation, i).Or(0),
		Probability:   at(s.PrecipitationProbability, i).Or(0),
		Showers:       at(s.Showers, i).Or(0),
	}
}
