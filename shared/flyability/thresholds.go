package flyability

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// Threshold groups. The four scored categories share their names with
// Category; fog holds the limits of the fog-risk classifier.
const (
	GroupWind    = string(CategoryWind)
	GroupThermal = string(CategoryThermal)
	GroupClouds  = string(CategoryClouds)
	GroupPrecip  = string(CategoryPrecip)
	GroupFog     = "fog"
)

// Parameter keys inside a ThresholdSet.
const (
	ParamSurface           = "surface"
	ParamGusts             = "gusts"
	ParamGustSpread        = "gust_spread"
	ParamWind1000          = "w1000"
	ParamWind1500          = "w1500"
	ParamWind2000          = "w2000"
	ParamWind3000          = "w3000"
	ParamGradient          = "gradient"
	ParamGradient3000      = "gradient3000"
	ParamGustFactor        = "gust_factor"
	ParamGustFactorMinWind = "gust_factor_min_wind"

	ParamCAPE        = "cape"
	ParamLiftedIndex = "lifted_index"
	ParamSpreadDry   = "spread_dry"

	ParamCloudLow   = "cloud_low"
	ParamCloudTotal = "cloud_total"
	ParamVisibility = "visibility"

	ParamPrecipitation = "precipitation"
	ParamShowers       = "showers"
	ParamStormCAPE     = "storm_cape"
	ParamProbability   = "probability"

	ParamSevereVisibility  = "severe_visibility"
	ParamWarningVisibility = "warning_visibility"
	ParamSevereSpread      = "severe_spread"
	ParamLikelySpread      = "likely_spread"
	ParamWarningSpread     = "warning_spread"
	ParamStillAir          = "still_air"
	ParamDispersalWind     = "dispersal_wind"
)

// ErrInvalidOverride is returned by ValidateOverride.
var ErrInvalidOverride = errors.New("invalid threshold override")

// Band holds the bounds of one parameter. Green and Yellow form the two-tier
// check; Limit is used by one-sided settings. A nil field is absent.
type Band struct {
	Green  *float64 `yaml:"green,omitempty" json:"green,omitempty"`
	Yellow *float64 `yaml:"yellow,omitempty" json:"yellow,omitempty"`
	Limit  *float64 `yaml:"limit,omitempty" json:"limit,omitempty"`
}

func (b Band) clone() Band {
	return Band{Green: clonePtr(b.Green), Yellow: clonePtr(b.Yellow), Limit: clonePtr(b.Limit)}
}

// ThresholdSet maps group -> parameter -> Band.
type ThresholdSet map[string]map[string]Band

// Lookup returns the band of a parameter.
func (t ThresholdSet) Lookup(group, param string) (Band, bool) {
	params, ok := t[group]
	if !ok {
		return Band{}, false
	}
	b, ok := params[param]
	return b, ok
}

func (t ThresholdSet) green(group, param string) (float64, bool) {
	b, _ := t.Lookup(group, param)
	return deref(b.Green)
}

func (t ThresholdSet) yellow(group, param string) (float64, bool) {
	b, _ := t.Lookup(group, param)
	return deref(b.Yellow)
}

func (t ThresholdSet) limit(group, param string) (float64, bool) {
	b, _ := t.Lookup(group, param)
	return deref(b.Limit)
}

// Clone returns a deep copy.
func (t ThresholdSet) Clone() ThresholdSet {
	if t == nil {
		return nil
	}
	out := make(ThresholdSet, len(t))
	for group, params := range t {
		cp := make(map[string]Band, len(params))
		for name, b := range params {
			cp[name] = b.clone()
		}
		out[group] = cp
	}
	return out
}

// Resolve merges an override onto base. With no override, base itself is
// returned. Otherwise the result is a new set in which every bound present in
// the override replaces the base bound; groups and parameters unknown to base
// are taken as given. Neither argument is modified.
func Resolve(base, override ThresholdSet) ThresholdSet {
	if len(override) == 0 {
		return base
	}
	out := base.Clone()
	if out == nil {
		out = make(ThresholdSet, len(override))
	}
	for group, params := range override {
		dst, ok := out[group]
		if !ok {
			dst = make(map[string]Band, len(params))
			out[group] = dst
		}
		for name, ob := range params {
			b := dst[name]
			if ob.Green != nil {
				b.Green = clonePtr(ob.Green)
			}
			if ob.Yellow != nil {
				b.Yellow = clonePtr(ob.Yellow)
			}
			if ob.Limit != nil {
				b.Limit = clonePtr(ob.Limit)
			}
			dst[name] = b
		}
	}
	return out
}

// DefaultThresholds returns a fresh copy of the built-in thresholds.
func DefaultThresholds() ThresholdSet {
	return baseThresholds.Clone()
}

var baseThresholds = ThresholdSet{
	GroupWind: {
		ParamSurface:           twoTier(12, 18),
		ParamGusts:             twoTier(20, 25),
		ParamGustSpread:        twoTier(8, 12),
		ParamWind1000:          twoTier(20, 30),
		ParamWind1500:          twoTier(25, 35),
		ParamWind2000:          twoTier(30, 40),
		ParamWind3000:          twoTier(40, 50),
		ParamGradient:          twoTier(15, 25),
		ParamGradient3000:      twoTier(25, 35),
		ParamGustFactor:        twoTier(0.5, 0.8),
		ParamGustFactorMinWind: limitOnly(8),
	},
	GroupThermal: {
		ParamCAPE:        twoTier(300, 1000),
		ParamLiftedIndex: twoTier(-2, -4),
		ParamSpreadDry:   limitOnly(18),
	},
	GroupClouds: {
		ParamCloudLow:   twoTier(50, 80),
		ParamCloudTotal: {Yellow: Float(90)},
		ParamVisibility: twoTier(10000, 2000),
	},
	GroupPrecip: {
		ParamPrecipitation: twoTier(0.1, 1.0),
		ParamShowers:       twoTier(0.1, 0.5),
		ParamStormCAPE:     {Yellow: Float(1500)},
		ParamProbability:   {Green: Float(40)},
	},
	GroupFog: {
		ParamSevereVisibility:  limitOnly(2000),
		ParamWarningVisibility: limitOnly(5000),
		ParamSevereSpread:      limitOnly(1.0),
		ParamLikelySpread:      limitOnly(2.0),
		ParamWarningSpread:     limitOnly(3.0),
		ParamStillAir:          limitOnly(5),
		ParamDispersalWind:     limitOnly(10),
	},
}

// reversed parameters are safer when higher.
var reversed = map[string]map[string]bool{
	GroupThermal: {ParamLiftedIndex: true},
	GroupClouds:  {ParamVisibility: true},
}

func isReversed(group, param string) bool {
	return reversed[group][param]
}

// validRanges bounds what a user may set for each known parameter.
var validRanges = map[string]map[string][2]float64{
	GroupWind: {
		ParamSurface:           {0, 150},
		ParamGusts:             {0, 200},
		ParamGustSpread:        {0, 100},
		ParamWind1000:          {0, 200},
		ParamWind1500:          {0, 200},
		ParamWind2000:          {0, 200},
		ParamWind3000:          {0, 200},
		ParamGradient:          {0, 150},
		ParamGradient3000:      {0, 150},
		ParamGustFactor:        {0, 5},
		ParamGustFactorMinWind: {0, 100},
	},
	GroupThermal: {
		ParamCAPE:        {0, 6000},
		ParamLiftedIndex: {-15, 15},
		ParamSpreadDry:   {0, 50},
	},
	GroupClouds: {
		ParamCloudLow:   {0, 100},
		ParamCloudTotal: {0, 100},
		ParamVisibility: {0, 100000},
	},
	GroupPrecip: {
		ParamPrecipitation: {0, 100},
		ParamShowers:       {0, 100},
		ParamStormCAPE:     {0, 6000},
		ParamProbability:   {0, 100},
	},
	GroupFog: {
		ParamSevereVisibility:  {0, 100000},
		ParamWarningVisibility: {0, 100000},
		ParamSevereSpread:      {0, 20},
		ParamLikelySpread:      {0, 20},
		ParamWarningSpread:     {0, 20},
		ParamStillAir:          {0, 100},
		ParamDispersalWind:     {0, 100},
	},
}

// ValidateOverride checks a user override before it is handed to Resolve:
// every parameter must be known, only set the bounds its built-in band uses,
// keep every bound inside its valid range, and keep green on the safe side of
// yellow once merged with the defaults.
func ValidateOverride(override ThresholdSet) error {
	merged := Resolve(baseThresholds, override)
	for _, group := range slices.Sorted(maps.Keys(override)) {
		ranges, ok := validRanges[group]
		if !ok {
			return fmt.Errorf("%w: unknown group %q", ErrInvalidOverride, group)
		}
		for _, name := range slices.Sorted(maps.Keys(override[group])) {
			rng, ok := ranges[name]
			if !ok {
				return fmt.Errorf("%w: unknown parameter %s.%s", ErrInvalidOverride, group, name)
			}
			ob := override[group][name]
			for _, v := range []*float64{ob.Green, ob.Yellow, ob.Limit} {
				if v != nil && (*v < rng[0] || *v > rng[1]) {
					return fmt.Errorf("%w: %s.%s value %g outside [%g, %g]", ErrInvalidOverride, group, name, *v, rng[0], rng[1])
				}
			}
			if field, ok := unsupportedField(group, name, ob); ok {
				return fmt.Errorf("%w: %s.%s does not accept a %s bound", ErrInvalidOverride, group, name, field)
			}
			mb, _ := merged.Lookup(group, name)
			g, gok := deref(mb.Green)
			y, yok := deref(mb.Yellow)
			if !gok || !yok {
				continue
			}
			if isReversed(group, name) && g < y {
				return fmt.Errorf("%w: %s.%s green %g must not be below yellow %g", ErrInvalidOverride, group, name, g, y)
			}
			if !isReversed(group, name) && g > y {
				return fmt.Errorf("%w: %s.%s green %g must not exceed yellow %g", ErrInvalidOverride, group, name, g, y)
			}
		}
	}
	return nil
}

// unsupportedField reports the first bound in ob that the built-in band for
// group.name leaves unset. Evaluators read only those bounds, so any other
// field would either be ignored or change what the parameter means.
func unsupportedField(group, name string, ob Band) (string, bool) {
	base, _ := baseThresholds.Lookup(group, name)
	switch {
	case ob.Green != nil && base.Green == nil:
		return "green", true
	case ob.Yellow != nil && base.Yellow == nil:
		return "yellow", true
	case ob.Limit != nil && base.Limit == nil:
		return "limit", true
	}
	return "", false
}

func twoTier(green, yellow float64) Band {
	return Band{Green: Float(green), Yellow: Float(yellow)}
}

func limitOnly(v float64) Band {
	return Band{Limit: Float(v)}
}

// Float returns a pointer to v, for building overrides.
func Float(v float64) *float64 {
	return &v
}

func clonePtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func deref(p *float64) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}
