package models

import (
	"time"

	"paraglide-stack/shared/flyability"
)

// DayReport is the assessment of one forecast day together with the ranked
// reasons behind its worst flying hour.
type DayReport struct {
	flyability.DayAssessment

	// WorstHour is the first 06:00-20:00 sample scoring WorstScore.
	WorstHour string                     `json:"worst_hour,omitempty"`
	Reasons   []flyability.ReasonHint    `json:"reasons"`
	Beginner  *flyability.BeginnerResult `json:"beginner,omitempty"` // first hour of the best window, Go days only
}

// Flyable reports whether the day earned a green traffic light.
func (d DayReport) Flyable() bool {
	return d.TrafficLight == flyability.Go
}

// HourReport details one forecast hour. Beginner is only set for Go hours.
type HourReport struct {
	flyability.HourAssessment

	Reasons  []flyability.ReasonHint    `json:"reasons"`
	Beginner *flyability.BeginnerResult `json:"beginner,omitempty"`
}

// FlightAdvisory is the full report produced for the home site on one run.
type FlightAdvisory struct {
	RunID       string               `json:"run_id"`
	Location    Location             `json:"location"`
	ElevationM  *float64             `json:"elevation_m,omitempty"`
	Timezone    string               `json:"timezone"`
	GeneratedAt time.Time            `json:"generated_at"`
	Days        []DayReport          `json:"days"`
	Favorites   []QuickWeatherResult `json:"favorites,omitempty"`
	Briefing    string               `json:"briefing,omitempty"`
	Warnings    []string             `json:"warnings,omitempty"`
}

// FlyableDays returns the days with a green traffic light, in forecast order.
func (a *FlightAdvisory) FlyableDays() []DayReport {
	var days []DayReport
	for _, d := range a.Days {
		if d.Flyable() {
			days = append(days, d)
		}
	}
	return days
}

// QuickWeatherStatus tells where a favorite's result came from.
type QuickWeatherStatus string

const (
	QuickWeatherOK     QuickWeatherStatus = "ok"
	QuickWeatherCached QuickWeatherStatus = "cached"
	QuickWeatherError  QuickWeatherStatus = "error"
)

// QuickWeatherResult is the compact per-favorite summary of a batch fetch.
// Score fields are left unassessed when Status is error.
type QuickWeatherResult struct {
	Location     Location               `json:"location"`
	Status       QuickWeatherStatus     `json:"status"`
	Error        string                 `json:"error,omitempty"`
	CurrentScore flyability.Score       `json:"current_score"`
	TodayLight   flyability.Score       `json:"today_light"`
	BestWindow   *flyability.TimeWindow `json:"best_window,omitempty"`
	DistanceKm   float64                `json:"distance_km"`
}
