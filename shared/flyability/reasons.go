package flyability

import (
	"fmt"
	"math"
	"sort"
)

// Severity of a reason hint.
type Severity string

const (
	SeverityRed    Severity = "red"
	SeverityYellow Severity = "yellow"
	// SeverityGreen only marks the all-clear summary.
	SeverityGreen Severity = "green"
)

func (s Severity) rank() int {
	switch s {
	case SeverityRed:
		return 2
	case SeverityYellow:
		return 1
	}
	return 0
}

// Deviations given to fog risks, which have no numeric overshoot.
const (
	FogSevereDeviation   = 150.0
	FogLikelyDeviation   = 80.0
	FogPossibleDeviation = 50.0
)

// AllClearText is the single hint returned for a Go hour.
const AllClearText = "All parameters within limits"

// ReasonHint explains one threshold breach.
type ReasonHint struct {
	Severity  Severity `json:"severity"`
	Category  Category `json:"category"`
	Parameter string   `json:"parameter"`
	Text      string   `json:"text"`
	Deviation float64  `json:"deviation"`
	Value     float64  `json:"value"`
	Threshold float64  `json:"threshold"`
}

// RankReasons lists every breach of the enabled categories, red before
// yellow and then by decreasing deviation. A red deviation is 100 plus the
// overshoot past yellow as a percentage of the green-yellow span; a yellow
// deviation is the share of that span already used. When the hour scores Go
// the result is a single all-clear hint.
func RankReasons(v Values, th ThresholdSet, filter CategoryFilter) []ReasonHint {
	if ScoreValues(v, th, filter) == Go {
		return []ReasonHint{{Severity: SeverityGreen, Text: AllClearText}}
	}

	var hints []ReasonHint
	for _, c := range Categories() {
		if !filter.Enabled(c) {
			continue
		}
		for _, r := range rulesFor(c) {
			if hint, ok := r.hint(c, v, th); ok {
				hints = append(hints, hint)
			}
		}
		if c == CategoryClouds && v.Thermal.Spread.Valid {
			if hint, ok := fogHint(ClassifyFog(v.Thermal.Spread, v.Wind.Surface, v.Cloud.Visibility, th)); ok {
				hints = append(hints, hint)
			}
		}
	}

	sort.SliceStable(hints, func(i, j int) bool {
		ri, rj := hints[i].Severity.rank(), hints[j].Severity.rank()
		if ri != rj {
			return ri > rj
		}
		return hints[i].Deviation > hints[j].Deviation
	})
	return hints
}

func (r rule) hint(c Category, v Values, th ThresholdSet) (ReasonHint, bool) {
	value, ok := r.value(v, th)
	if !ok {
		return ReasonHint{}, false
	}
	yellow, hasYellow := r.yellowBound(th)
	green, hasGreen := r.greenBound(th)

	switch {
	case hasYellow && r.breaches(value, yellow):
		span := math.Abs(yellow)
		if hasGreen {
			span = math.Abs(yellow - green)
		}
		return ReasonHint{
			Severity:  SeverityRed,
			Category:  c,
			Parameter: r.param,
			Text:      r.describe(value, yellow, "no-go"),
			Deviation: 100 + percentOf(r.overshoot(value, yellow), span),
			Value:     value,
			Threshold: yellow,
		}, true
	case hasGreen && r.breaches(value, green):
		span := math.Abs(green)
		if hasYellow {
			span = math.Abs(yellow - green)
		}
		return ReasonHint{
			Severity:  SeverityYellow,
			Category:  c,
			Parameter: r.param,
			Text:      r.describe(value, green, "caution"),
			Deviation: percentOf(r.overshoot(value, green), span),
			Value:     value,
			Threshold: green,
		}, true
	}
	return ReasonHint{}, false
}

func (r rule) overshoot(value, bound float64) float64 {
	if r.reversed() {
		return bound - value
	}
	return value - bound
}

func (r rule) describe(value, bound float64, tier string) string {
	verb := "exceeds"
	if r.reversed() {
		verb = "is below"
	}
	return fmt.Sprintf("%s %s %s the %s limit of %s", r.label, r.quantity(value), verb, tier, r.quantity(bound))
}

func (r rule) quantity(v float64) string {
	s := fmt.Sprintf(r.format, v)
	if r.unit == "" {
		return s
	}
	if r.unit == "%" {
		return s + "%"
	}
	return s + " " + r.unit
}

func percentOf(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return part / whole * 100
}

func fogHint(risk FogRisk) (ReasonHint, bool) {
	h := ReasonHint{Category: CategoryClouds, Parameter: GroupFog}
	switch risk {
	case FogSevere:
		h.Severity, h.Deviation, h.Text = SeverityRed, FogSevereDeviation, "Severe fog risk: very low visibility or saturated still air"
	case FogLikely:
		h.Severity, h.Deviation, h.Text = SeverityYellow, FogLikelyDeviation, "Fog likely: humid air with little wind to disperse it"
	case FogPossible:
		h.Severity, h.Deviation, h.Text = SeverityYellow, FogPossibleDeviation, "Fog possible: reduced visibility or small spread"
	default:
		return ReasonHint{}, false
	}
	return h, true
}
