package flyability

// rule is one scored parameter. value returns false when the check does not
// apply to the hour.
type rule struct {
	group  string
	param  string
	label  string
	unit   string
	format string
	// capped rules only ever yield Caution. Their bound is Limit, or Yellow
	// when no Limit is set.
	capped bool
	value  func(v Values, th ThresholdSet) (float64, bool)
}

func (r rule) reversed() bool {
	return isReversed(r.group, r.param)
}

func (r rule) yellowBound(th ThresholdSet) (float64, bool) {
	if r.capped {
		return 0, false
	}
	return th.yellow(r.group, r.param)
}

func (r rule) greenBound(th ThresholdSet) (float64, bool) {
	if r.capped {
		if l, ok := th.limit(r.group, r.param); ok {
			return l, true
		}
		return th.yellow(r.group, r.param)
	}
	return th.green(r.group, r.param)
}

func (r rule) breaches(value, bound float64) bool {
	if r.reversed() {
		return value < bound
	}
	return value > bound
}

func (r rule) breachesYellow(v Values, th ThresholdSet) bool {
	bound, ok := r.yellowBound(th)
	if !ok {
		return false
	}
	value, ok := r.value(v, th)
	return ok && r.breaches(value, bound)
}

func (r rule) breachesGreen(v Values, th ThresholdSet) bool {
	bound, ok := r.greenBound(th)
	if !ok {
		return false
	}
	value, ok := r.value(v, th)
	return ok && r.breaches(value, bound)
}

func always(f func(Values) float64) func(Values, ThresholdSet) (float64, bool) {
	return func(v Values, _ ThresholdSet) (float64, bool) {
		return f(v), true
	}
}

var windRules = []rule{
	{group: GroupWind, param: ParamSurface, label: "Surface wind", unit: "km/h", format: "%.0f",
		value: always(func(v Values) float64 { return v.Wind.Surface })},
	{group: GroupWind, param: ParamGusts, label: "Gusts", unit: "km/h", format: "%.0f",
		value: always(func(v Values) float64 { return v.Wind.Gusts })},
	{group: GroupWind, param: ParamGustSpread, label: "Gust spread", unit: "km/h", format: "%.0f",
		value: always(func(v Values) float64 { return v.Wind.GustSpread })},
	{group: GroupWind, param: ParamWind1000, label: "Wind at 1000 m", unit: "km/h", format: "%.0f",
		value: always(func(v Values) float64 { return v.Wind.Wind1000 })},
	{group: GroupWind, param: ParamWind1500, label: "Wind at 1500 m", unit: "km/h", format: "%.0f",
		value: always(func(v Values) float64 { return v.Wind.Wind1500 })},
	{group: GroupWind, param: ParamWind2000, label: "Wind at 2000 m", unit: "km/h", format: "%.0f",
		value: always(func(v Values) float64 { return v.Wind.Wind2000 })},
	{group: GroupWind, param: ParamWind3000, label: "Wind at 3000 m", unit: "km/h", format: "%.0f",
		value: always(func(v Values) float64 { return v.Wind.Wind3000 })},
	{group: GroupWind, param: ParamGradient, label: "Wind gradient to 1500 m", unit: "km/h", format: "%.0f",
		value: always(func(v Values) float64 { return v.Wind.Gradient })},
	{group: GroupWind, param: ParamGradient3000, label: "Wind gradient to 3000 m", unit: "km/h", format: "%.0f",
		value: always(func(v Values) float64 { return v.Wind.Gradient3000 })},
	{group: GroupWind, param: ParamGustFactor, label: "Gust factor", format: "%.2f",
		value: func(v Values, th ThresholdSet) (float64, bool) {
			// The ratio is meaningless in near-calm air.
			minWind, _ := th.limit(GroupWind, ParamGustFactorMinWind)
			if v.Wind.Surface <= minWind || v.Wind.Surface <= 0 {
				return 0, false
			}
			return v.Wind.GustFactor(), true
		}},
}

var thermalRules = []rule{
	{group: GroupThermal, param: ParamCAPE, label: "CAPE", unit: "J/kg", format: "%.0f",
		value: always(func(v Values) float64 { return v.Thermal.CAPE })},
	{group: GroupThermal, param: ParamLiftedIndex, label: "Lifted index", format: "%.1f",
		value: always(func(v Values) float64 { return v.Thermal.LiftedIndex })},
	{group: GroupThermal, param: ParamSpreadDry, label: "Temperature/dew point spread", unit: "°C", format: "%.1f", capped: true,
		value: func(v Values, _ ThresholdSet) (float64, bool) {
			return v.Thermal.Spread.Value, v.Thermal.Spread.Valid
		}},
}

var (
	cloudLowRule = rule{group: GroupClouds, param: ParamCloudLow, label: "Low cloud cover", unit: "%", format: "%.0f",
		value: always(func(v Values) float64 { return v.Cloud.Low })}
	cloudTotalRule = rule{group: GroupClouds, param: ParamCloudTotal, label: "Total cloud cover", unit: "%", format: "%.0f", capped: true,
		value: always(func(v Values) float64 { return v.Cloud.Total })}
	visibilityRule = rule{group: GroupClouds, param: ParamVisibility, label: "Visibility", unit: "m", format: "%.0f",
		value: always(func(v Values) float64 { return v.Cloud.Visibility })}

	cloudRules = []rule{cloudLowRule, cloudTotalRule, visibilityRule}
)

var precipRules = []rule{
	{group: GroupPrecip, param: ParamPrecipitation, label: "Precipitation", unit: "mm/h", format: "%.1f",
		value: always(func(v Values) float64 { return v.Precip.Precipitation })},
	{group: GroupPrecip, param: ParamStormCAPE, label: "Thunderstorm potential (CAPE)", unit: "J/kg", format: "%.0f",
		value: always(func(v Values) float64 { return v.Thermal.CAPE })},
	{group: GroupPrecip, param: ParamShowers, label: "Showers", unit: "mm/h", format: "%.1f",
		value: always(func(v Values) float64 { return v.Precip.Showers })},
	{group: GroupPrecip, param: ParamProbability, label: "Precipitation probability", unit: "%", format: "%.0f",
		value: always(func(v Values) float64 { return v.Precip.Probability })},
}

func evaluateRules(rules []rule, v Values, th ThresholdSet) Score {
	for _, r := range rules {
		if r.breachesYellow(v, th) {
			return NoGo
		}
	}
	for _, r := range rules {
		if r.breachesGreen(v, th) {
			return Caution
		}
	}
	return Go
}

// EvaluateWind scores surface wind, gusts, gust spread, the four altitude
// winds, both gradients and the gust factor.
func EvaluateWind(v Values, th ThresholdSet) Score {
	return evaluateRules(windRules, v, th)
}

// EvaluateThermal scores CAPE and lifted index. A spread above the dry bound
// means weak thermals and yields Caution at worst.
func EvaluateThermal(v Values, th ThresholdSet) Score {
	return evaluateRules(thermalRules, v, th)
}

// EvaluateClouds scores low cloud, fog risk, total cloud and visibility.
// The visibility bounds apply whether or not the spread is known; fog risk
// is only classified with a known spread.
func EvaluateClouds(v Values, th ThresholdSet) Score {
	if cloudLowRule.breachesYellow(v, th) || visibilityRule.breachesYellow(v, th) {
		return NoGo
	}
	if v.Thermal.Spread.Valid {
		switch ClassifyFog(v.Thermal.Spread, v.Wind.Surface, v.Cloud.Visibility, th) {
		case FogSevere:
			return NoGo
		case FogLikely, FogPossible:
			return Caution
		}
	}
	for _, r := range cloudRules {
		if r.breachesGreen(v, th) {
			return Caution
		}
	}
	return Go
}

// EvaluatePrecip scores precipitation, showers, thunderstorm CAPE and
// precipitation probability.
func EvaluatePrecip(v Values, th ThresholdSet) Score {
	return evaluateRules(precipRules, v, th)
}

// Evaluate runs the evaluator of one category.
func Evaluate(c Category, v Values, th ThresholdSet) Score {
	switch c {
	case CategoryWind:
		return EvaluateWind(v, th)
	case CategoryThermal:
		return EvaluateThermal(v, th)
	case CategoryClouds:
		return EvaluateClouds(v, th)
	case CategoryPrecip:
		return EvaluatePrecip(v, th)
	}
	return 0
}

func rulesFor(c Category) []rule {
	switch c {
	case CategoryWind:
		return windRules
	case CategoryThermal:
		return thermalRules
	case CategoryClouds:
		return cloudRules
	case CategoryPrecip:
		return precipRules
	}
	return nil
}
