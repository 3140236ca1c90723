package flyability

// FogRisk is the qualitative fog classification of one hour.
type FogRisk string

const (
	FogSevere   FogRisk = "severe"
	FogLikely   FogRisk = "likely"
	FogPossible FogRisk = "possible"
	FogUnlikely FogRisk = "unlikely"
)

// DrySpread stands in for an unknown temperature/dew point spread.
const DrySpread = 10.0

// ClassifyFog combines spread (°C), surface wind (km/h) and visibility (m)
// into a fog risk. The first matching level wins. Fog limits missing from th
// fall back to the built-in ones.
func ClassifyFog(spread Reading, surfaceWind, visibility float64, th ThresholdSet) FogRisk {
	sp := spread.Or(DrySpread)

	severeVis := fogLimit(th, ParamSevereVisibility)
	warnVis := fogLimit(th, ParamWarningVisibility)
	stillAir := fogLimit(th, ParamStillAir)
	dispersal := fogLimit(th, ParamDispersalWind)

	switch {
	case visibility < severeVis || (sp <= fogLimit(th, ParamSevereSpread) && surfaceWind < stillAir):
		return FogSevere
	case sp <= fogLimit(th, ParamLikelySpread) && surfaceWind < dispersal && visibility < warnVis:
		return FogLikely
	case visibility < warnVis || (sp < fogLimit(th, ParamWarningSpread) && surfaceWind < dispersal):
		return FogPossible
	default:
		return FogUnlikely
	}
}

func fogLimit(th ThresholdSet, param string) float64 {
	if v, ok := th.limit(GroupFog, param); ok {
		return v
	}
	v, _ := baseThresholds.limit(GroupFog, param)
	return v
}
