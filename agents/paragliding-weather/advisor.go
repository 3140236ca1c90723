package paraglidingweather

import (
	"strconv"

	"paraglide-stack/internal/models"
	"paraglide-stack/shared/flyability"
)

// Advisor turns a forecast series into reports using one effective
// threshold set, category filter and beginner profile.
type Advisor struct {
	Thresholds flyability.ThresholdSet
	Filter     flyability.CategoryFilter
	Beginner   flyability.BeginnerThresholds
}

// Days assesses every date of the series. Each day carries the ranked
// reasons of its worst flying hour and, on Go days, the beginner check for
// the first hour of the best window.
func (a Advisor) Days(s *flyability.WeatherSeries) []models.DayReport {
	days := flyability.AssessSeries(s, a.Thresholds, a.Filter)
	reports := make([]models.DayReport, 0, len(days))

	for _, d := range days {
		r := models.DayReport{DayAssessment: d, Reasons: []flyability.ReasonHint{}}

		if key, ok := worstFlyingHour(d); ok {
			if i, found := s.IndexOf(key); found {
				r.WorstHour = key
				r.Reasons = flyability.RankReasons(flyability.Extract(s, i), a.Thresholds, a.Filter)
			}
		}

		if d.TrafficLight == flyability.Go && d.BestWindow != nil {
			if i, found := s.IndexOf(flyability.HourKey(d.Date, d.BestWindow.StartHour)); found {
				b := flyability.AssessBeginnerSafety(s, i, a.Beginner)
				r.Beginner = &b
			}
		}
		reports = append(reports, r)
	}
	return reports
}

// Hour reports sample i of the series.
func (a Advisor) Hour(s *flyability.WeatherSeries, i int) models.HourReport {
	v := flyability.Extract(s, i)
	h := flyability.AssessHour(s, i, a.Thresholds, a.Filter)

	r := models.HourReport{
		HourAssessment: h,
		Reasons:        flyability.RankReasons(v, a.Thresholds, a.Filter),
	}
	if h.Score == flyability.Go {
		b := flyability.AssessBeginnerSafety(s, i, a.Beginner)
		r.Beginner = &b
	}
	return r
}

// worstFlyingHour returns the first 06:00-20:00 hour scoring the day's worst.
func worstFlyingHour(d flyability.DayAssessment) (string, bool) {
	if d.WorstScore == 0 {
		return "", false
	}
	for _, h := range d.Hours {
		hour, ok := hourOfKey(h.Time)
		if !ok || hour < flyability.FirstFlyingHour || hour > flyability.LastFlyingHour {
			continue
		}
		if h.Score == d.WorstScore {
			return h.Time, true
		}
	}
	return "", false
}

func hourOfKey(key string) (int, bool) {
	if len(key) < len(flyability.TimeLayout) {
		return 0, false
	}
	h, err := strconv.Atoi(key[11:13])
	if err != nil {
		return 0, false
	}
	return h, true
}
