package flyability

import (
	"fmt"
	"strconv"
)

// Flying hours scanned for windows and the day traffic light, inclusive.
const (
	FirstFlyingHour = 6
	LastFlyingHour  = 20
)

// GoodWindowHours is the window length that makes a day Go.
const GoodWindowHours = 3

// TimeWindow is a contiguous run of Go hours, both ends inclusive.
type TimeWindow struct {
	StartHour int `json:"start_hour"`
	EndHour   int `json:"end_hour"`
}

// Hours returns the window length.
func (w TimeWindow) Hours() int {
	return w.EndHour - w.StartHour + 1
}

func (w TimeWindow) String() string {
	return fmt.Sprintf("%02d:00-%02d:00", w.StartHour, w.EndHour)
}

// DayAssessment summarises the flying hours of one date. Hours holds every
// sample of the date; the other fields only look at 06:00-20:00.
type DayAssessment struct {
	Date          string             `json:"date"`
	Hours         []HourAssessment   `json:"hours"`
	WorstScore    Score              `json:"worst_score"`
	CategoryWorst map[Category]Score `json:"category_worst"`
	BestWindow    *TimeWindow        `json:"best_window,omitempty"`
	TrafficLight  Score              `json:"traffic_light"`
}

// FindBestWindow returns the longest run of consecutive Go hours between
// 06:00 and 20:00 on day, or nil when no hour is Go. The earliest run wins a
// tie. An hour missing from the series ends the current run.
func FindBestWindow(s *WeatherSeries, day string, th ThresholdSet, filter CategoryFilter) *TimeWindow {
	idx := s.timeIndex()
	scores := make(map[int]Score)
	for h := FirstFlyingHour; h <= LastFlyingHour; h++ {
		if i, ok := idx[HourKey(day, h)]; ok {
			scores[h] = ScoreHour(s, i, th, filter)
		}
	}
	return bestRun(scores)
}

// bestRun scans hour scores keyed by hour of day.
func bestRun(scores map[int]Score) *TimeWindow {
	var best *TimeWindow
	start := -1

	closeRun := func(end int) {
		if start < 0 {
			return
		}
		run := TimeWindow{StartHour: start, EndHour: end}
		if best == nil || run.Hours() > best.Hours() {
			best = &run
		}
		start = -1
	}

	for h := FirstFlyingHour; h <= LastFlyingHour; h++ {
		if score, ok := scores[h]; ok && score == Go {
			if start < 0 {
				start = h
			}
			continue
		}
		closeRun(h - 1)
	}
	closeRun(LastFlyingHour)
	return best
}

// DayTrafficLight classifies a day: Go with a window of at least three hours,
// Caution with any window or when no flying hour is NoGo, NoGo otherwise.
func DayTrafficLight(best *TimeWindow, hasNoGo bool) Score {
	switch {
	case best != nil && best.Hours() >= GoodWindowHours:
		return Go
	case best != nil || !hasNoGo:
		return Caution
	default:
		return NoGo
	}
}

// AssessDay scores every hour of day and derives the worst scores, the best
// window and the traffic light.
func AssessDay(s *WeatherSeries, day string, th ThresholdSet, filter CategoryFilter) DayAssessment {
	d := DayAssessment{
		Date:          day,
		CategoryWorst: make(map[Category]Score, 4),
	}
	scores := make(map[int]Score)
	hasNoGo := false

	for i, t := range s.Times {
		if len(t) < len(TimeLayout) || t[:10] != day {
			continue
		}
		h := assessValues(Extract(s, i), th, filter)
		d.Hours = append(d.Hours, h)

		hour, err := strconv.Atoi(t[11:13])
		if err != nil {
			continue
		}
		if hour < FirstFlyingHour || hour > LastFlyingHour {
			continue
		}
		if _, dup := scores[hour]; dup {
			continue
		}
		scores[hour] = h.Score
		d.WorstScore = Worst(d.WorstScore, h.Score)
		for c, cs := range h.Categories {
			d.CategoryWorst[c] = Worst(d.CategoryWorst[c], cs)
		}
		if h.Score == NoGo {
			hasNoGo = true
		}
	}

	d.BestWindow = bestRun(scores)
	d.TrafficLight = DayTrafficLight(d.BestWindow, hasNoGo)
	return d
}

// AssessSeries assesses every date in the series, in order.
func AssessSeries(s *WeatherSeries, th ThresholdSet, filter CategoryFilter) []DayAssessment {
	days := s.Days()
	out := make([]DayAssessment, 0, len(days))
	for _, day := range days {
		out = append(out, AssessDay(s, day, th, filter))
	}
	return out
}
