package flyability

// hourSample is a compact description of one forecast hour used to build
// test series.
type hourSample struct {
	surface, gusts             float64
	w1000, w1500, w2000, w3000 float64
	temp, dew                  float64
	cape, li                   float64
	cloud, low, vis            float64
	precip, prob, showers      float64
}

// flyable is an hour that passes every default threshold.
func flyable() hourSample {
	return hourSample{
		surface: 8, gusts: 12,
		w1000: 10, w1500: 12, w2000: 15, w3000: 20,
		temp: 20, dew: 8,
		cape: 100, li: 1,
		cloud: 30, low: 10, vis: 30000,
		precip: 0, prob: 10, showers: 0,
	}
}

func (h hourSample) with(mut func(*hourSample)) hourSample {
	mut(&h)
	return h
}

func windy() hourSample {
	return flyable().with(func(h *hourSample) { h.surface, h.gusts = 40, 45 })
}

func breezy() hourSample {
	return flyable().with(func(h *hourSample) { h.surface, h.gusts = 15, 18 })
}

func num(v float64) *float64 {
	return &v
}

// seriesOf lays samples out hour by hour starting at firstHour on day.
func seriesOf(day string, firstHour int, samples ...hourSample) *WeatherSeries {
	s := &WeatherSeries{}
	for i, h := range samples {
		s.Times = append(s.Times, HourKey(day, firstHour+i))
		s.WindSpeed = append(s.WindSpeed, num(h.surface))
		s.WindDirection = append(s.WindDirection, num(270))
		s.WindGusts = append(s.WindGusts, num(h.gusts))
		s.WindSpeed900 = append(s.WindSpeed900, num(h.w1000))
		s.WindSpeed850 = append(s.WindSpeed850, num(h.w1500))
		s.WindSpeed800 = append(s.WindSpeed800, num(h.w2000))
		s.WindSpeed700 = append(s.WindSpeed700, num(h.w3000))
		s.Temperature = append(s.Temperature, num(h.temp))
		s.DewPoint = append(s.DewPoint, num(h.dew))
		s.CAPE = append(s.CAPE, num(h.cape))
		s.LiftedIndex = append(s.LiftedIndex, num(h.li))
		s.CloudCover = append(s.CloudCover, num(h.cloud))
		s.CloudCoverLow = append(s.CloudCoverLow, num(h.low))
		s.Visibility = append(s.Visibility, num(h.vis))
		s.Precipitation = append(s.Precipitation, num(h.precip))
		s.PrecipitationProbability = append(s.PrecipitationProbability, num(h.prob))
		s.Showers = append(s.Showers, num(h.showers))
	}
	return s
}

// flyingDay returns samples for 06:00-20:00 where pick decides each hour.
func flyingDay(pick func(hour int) hourSample) []hourSample {
	var out []hourSample
	for h := FirstFlyingHour; h <= LastFlyingHour; h++ {
		out = append(out, pick(h))
	}
	return out
}

func valuesOf(h hourSample) Values {
	return Extract(seriesOf("2025-06-01", 12, h), 0)
}
