package flyability

// HourAssessment is the score of one hour with its per-category breakdown.
// Categories only holds the enabled categories.
type HourAssessment struct {
	Time       string             `json:"time"`
	Score      Score              `json:"score"`
	Categories map[Category]Score `json:"categories"`
	Fog        FogRisk            `json:"fog"`
}

// ScoreValues aggregates the enabled category scores of extracted values.
// With every category disabled the hour is considered Go.
func ScoreValues(v Values, th ThresholdSet, filter CategoryFilter) Score {
	score := Go
	for _, c := range Categories() {
		if filter.Enabled(c) {
			score = min(score, Evaluate(c, v, th))
		}
	}
	return score
}

// ScoreHour scores sample i of the series.
func ScoreHour(s *WeatherSeries, i int, th ThresholdSet, filter CategoryFilter) Score {
	return ScoreValues(Extract(s, i), th, filter)
}

// AssessHour scores sample i and keeps the category scores and fog risk.
func AssessHour(s *WeatherSeries, i int, th ThresholdSet, filter CategoryFilter) HourAssessment {
	return assessValues(Extract(s, i), th, filter)
}

func assessValues(v Values, th ThresholdSet, filter CategoryFilter) HourAssessment {
	h := HourAssessment{
		Time:       v.Time,
		Score:      Go,
		Categories: make(map[Category]Score, 4),
		Fog:        ClassifyFog(v.Thermal.Spread, v.Wind.Surface, v.Cloud.Visibility, th),
	}
	for _, c := range Categories() {
		if !filter.Enabled(c) {
			continue
		}
		cs := Evaluate(c, v, th)
		h.Categories[c] = cs
		h.Score = min(h.Score, cs)
	}
	return h
}
