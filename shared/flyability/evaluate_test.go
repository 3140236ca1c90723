package flyability

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_DefaultsForMissingFields(t *testing.T) {
	s := &WeatherSeries{
		Times:     []string{"2025-06-01T12:00"},
		WindSpeed: []*float64{num(14)},
		WindGusts: []*float64{num(20)},
	}

	v := Extract(s, 0)

	assert.Equal(t, "2025-06-01T12:00", v.Time)
	assert.True(t, v.Wind.SurfaceKnown)
	assert.False(t, v.Wind.Wind1500Known)
	assert.Equal(t, 0.0, v.Wind.Wind1000)
	assert.Equal(t, 14.0, v.Wind.Gradient, "missing 1500 m wind counts as calm")
	assert.Equal(t, 14.0, v.Wind.Gradient3000)
	assert.Equal(t, 6.0, v.Wind.GustSpread)
	assert.Equal(t, 0.0, v.Thermal.CAPE)
	assert.False(t, v.Thermal.Temperature.Valid)
	assert.False(t, v.Thermal.Spread.Valid)
	assert.Equal(t, ClearVisibility, v.Cloud.Visibility)
	assert.Equal(t, 0.0, v.Precip.Probability)
	assert.False(t, v.Aux.WeatherCode.Valid)
}

func TestExtract_NullAndNaNAreMissing(t *testing.T) {
	s := &WeatherSeries{
		Times:       []string{"2025-06-01T12:00", "2025-06-01T13:00"},
		WindSpeed:   []*float64{nil, num(math.NaN())},
		Temperature: []*float64{num(18), num(18)},
		DewPoint:    []*float64{nil},
	}

	for i := range s.Times {
		v := Extract(s, i)
		assert.False(t, v.Wind.SurfaceKnown)
		assert.Equal(t, 0.0, v.Wind.Surface)
		assert.True(t, v.Thermal.Temperature.Valid)
		assert.False(t, v.Thermal.Spread.Valid, "spread needs both temperature and dew point")
	}
}

func TestExtract_Spread(t *testing.T) {
	v := valuesOf(flyable().with(func(h *hourSample) { h.temp, h.dew = 15, 13.5 }))
	require.True(t, v.Thermal.Spread.Valid)
	assert.InDelta(t, 1.5, v.Thermal.Spread.Value, 1e-9)
}

func TestExtract_IndexOutOfRangePanics(t *testing.T) {
	s := seriesOf("2025-06-01", 12, flyable())
	assert.Panics(t, func() { Extract(s, 1) })
	assert.Panics(t, func() { Extract(s, -1) })
}

func TestClassifyFog(t *testing.T) {
	th := DefaultThresholds()
	tests := []struct {
		name   string
		spread Reading
		wind   float64
		vis    float64
		want   FogRisk
	}{
		{"visibility veto beats dry windy air", Known(10), 20, 1000, FogSevere},
		{"saturated still air", Known(0.5), 3, 30000, FogSevere},
		{"humid light wind reduced visibility", Known(1.5), 8, 4000, FogLikely},
		{"reduced visibility only", Known(8), 20, 4000, FogPossible},
		{"small spread light wind", Known(2.5), 8, 30000, FogPossible},
		{"humid but good visibility", Known(1.5), 8, 30000, FogPossible},
		{"unknown spread treated as dry", Reading{}, 3, 30000, FogUnlikely},
		{"dry and clear", Known(12), 5, 30000, FogUnlikely},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyFog(tt.spread, tt.wind, tt.vis, th))
		})
	}
}

func TestCategoryEvaluators(t *testing.T) {
	th := DefaultThresholds()
	tests := []struct {
		name     string
		category Category
		sample   hourSample
		want     Score
	}{
		{"wind calm", CategoryWind, flyable(), Go},
		{"wind surface caution", CategoryWind, breezy(), Caution},
		{"wind surface no-go", CategoryWind, windy(), NoGo},
		{"wind gusts no-go", CategoryWind, flyable().with(func(h *hourSample) { h.gusts = 26 }), NoGo},
		{"wind 3000 m caution", CategoryWind, flyable().with(func(h *hourSample) { h.w3000 = 42 }), Caution},
		{"wind 2000 m no-go", CategoryWind, flyable().with(func(h *hourSample) { h.w2000 = 41; h.w3000 = 30 }), NoGo},
		{"wind gust factor no-go", CategoryWind, flyable().with(func(h *hourSample) { h.surface, h.gusts = 10, 19 }), NoGo},

		{"thermal calm", CategoryThermal, flyable(), Go},
		{"thermal cape caution", CategoryThermal, flyable().with(func(h *hourSample) { h.cape = 500 }), Caution},
		{"thermal cape no-go", CategoryThermal, flyable().with(func(h *hourSample) { h.cape = 1200 }), NoGo},
		{"thermal lifted index caution", CategoryThermal, flyable().with(func(h *hourSample) { h.li = -3 }), Caution},
		{"thermal lifted index no-go", CategoryThermal, flyable().with(func(h *hourSample) { h.li = -5 }), NoGo},
		{"thermal too dry is caution only", CategoryThermal, flyable().with(func(h *hourSample) { h.temp, h.dew = 35, 5 }), Caution},

		{"clouds clear", CategoryClouds, flyable(), Go},
		{"clouds low no-go", CategoryClouds, flyable().with(func(h *hourSample) { h.low = 85 }), NoGo},
		{"clouds low caution", CategoryClouds, flyable().with(func(h *hourSample) { h.low = 60 }), Caution},
		{"clouds overcast caution", CategoryClouds, flyable().with(func(h *hourSample) { h.cloud = 95 }), Caution},
		{"clouds severe fog", CategoryClouds, flyable().with(func(h *hourSample) { h.vis = 1500 }), NoGo},
		{"clouds fog possible", CategoryClouds, flyable().with(func(h *hourSample) { h.temp, h.dew = 10, 8 }), Caution},
		{"clouds hazy", CategoryClouds, flyable().with(func(h *hourSample) { h.vis = 8000 }), Caution},

		{"precip dry", CategoryPrecip, flyable(), Go},
		{"precip rain no-go", CategoryPrecip, flyable().with(func(h *hourSample) { h.precip = 2 }), NoGo},
		{"precip storm cape no-go", CategoryPrecip, flyable().with(func(h *hourSample) { h.cape = 1600 }), NoGo},
		{"precip showers no-go", CategoryPrecip, flyable().with(func(h *hourSample) { h.showers = 0.6 }), NoGo},
		{"precip drizzle caution", CategoryPrecip, flyable().with(func(h *hourSample) { h.precip = 0.5 }), Caution},
		{"precip probability caution", CategoryPrecip, flyable().with(func(h *hourSample) { h.prob = 50 }), Caution},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.category, valuesOf(tt.sample), th))
		})
	}
}

func TestEvaluateClouds_VisibilityFallbackWithoutSpread(t *testing.T) {
	th := DefaultThresholds()
	s := seriesOf("2025-06-01", 12,
		flyable().with(func(h *hourSample) { h.vis = 1500 }),
		flyable().with(func(h *hourSample) { h.vis = 4000 }),
		flyable(),
	)
	s.DewPoint = nil

	assert.Equal(t, NoGo, EvaluateClouds(Extract(s, 0), th))
	assert.Equal(t, Caution, EvaluateClouds(Extract(s, 1), th))
	assert.Equal(t, Go, EvaluateClouds(Extract(s, 2), th))
}

func TestEvaluateClouds_VisibilityOverrideWithKnownSpread(t *testing.T) {
	th := Resolve(DefaultThresholds(), ThresholdSet{GroupClouds: {ParamVisibility: {Yellow: Float(4000)}}})
	v := valuesOf(flyable().with(func(h *hourSample) { h.vis = 3000 }))
	require.True(t, v.Thermal.Spread.Valid)

	assert.Equal(t, NoGo, EvaluateClouds(v, th))

	var found bool
	for _, hint := range RankReasons(v, th, AllCategories()) {
		if hint.Parameter == ParamVisibility {
			found = true
			assert.Equal(t, SeverityRed, hint.Severity)
			assert.Equal(t, 4000.0, hint.Threshold)
		}
	}
	assert.True(t, found, "expected a visibility hint")
}

func TestEvaluateWind_GustFactorSkippedInLightWind(t *testing.T) {
	onlyFactor := ThresholdSet{GroupWind: {
		ParamGustFactor:        twoTier(0.5, 0.8),
		ParamGustFactorMinWind: limitOnly(8),
	}}

	light := valuesOf(flyable().with(func(h *hourSample) { h.surface, h.gusts = 3, 20 }))
	assert.Equal(t, Go, EvaluateWind(light, onlyFactor))

	stronger := valuesOf(flyable().with(func(h *hourSample) { h.surface, h.gusts = 10, 19 }))
	assert.Equal(t, NoGo, EvaluateWind(stronger, onlyFactor))

	for _, hint := range RankReasons(light, DefaultThresholds(), AllCategories()) {
		assert.NotEqual(t, ParamGustFactor, hint.Parameter)
	}
}

func TestEvaluate_MissingThresholdSkipsCheck(t *testing.T) {
	th := DefaultThresholds()
	delete(th[GroupWind], ParamSurface)

	v := valuesOf(breezy())
	assert.Equal(t, Go, EvaluateWind(v, th))
}

func TestScoreHour_WorstCaseAcrossCategories(t *testing.T) {
	th := DefaultThresholds()
	samples := []hourSample{
		flyable(),
		breezy(),
		windy(),
		flyable().with(func(h *hourSample) { h.cape = 500; h.low = 85 }),
		flyable().with(func(h *hourSample) { h.prob = 60; h.li = -3 }),
	}
	s := seriesOf("2025-06-01", 8, samples...)

	for i := range samples {
		v := Extract(s, i)
		want := min(EvaluateWind(v, th), EvaluateThermal(v, th), EvaluateClouds(v, th), EvaluatePrecip(v, th))
		assert.Equal(t, want, ScoreHour(s, i, th, AllCategories()))
	}
}

func TestScoreHour_DisablingCategoryNeverLowersScore(t *testing.T) {
	th := DefaultThresholds()
	s := seriesOf("2025-06-01", 8,
		windy(),
		flyable().with(func(h *hourSample) { h.cape = 1200 }),
		flyable().with(func(h *hourSample) { h.vis = 1000 }),
		flyable().with(func(h *hourSample) { h.precip = 3 }),
	)
	filters := []CategoryFilter{
		{Thermal: true, Clouds: true, Precip: true},
		{Wind: true, Clouds: true, Precip: true},
		{Wind: true, Thermal: true, Precip: true},
		{Wind: true, Thermal: true, Clouds: true},
	}

	for i := range s.Times {
		all := ScoreHour(s, i, th, AllCategories())
		for _, f := range filters {
			assert.GreaterOrEqual(t, ScoreHour(s, i, th, f), all)
		}
		// The category that caused the no-go is the one disabled in filters[i].
		assert.Equal(t, NoGo, all)
		assert.Equal(t, Go, ScoreHour(s, i, th, filters[i]))
	}
}

func TestScoreHour_AllCategoriesDisabledIsGo(t *testing.T) {
	s := seriesOf("2025-06-01", 8, windy())
	assert.Equal(t, Go, ScoreHour(s, 0, DefaultThresholds(), CategoryFilter{}))
}

func TestScoreHour_Idempotent(t *testing.T) {
	th := DefaultThresholds()
	s := seriesOf("2025-06-01", 8, breezy(), windy(), flyable())
	for i := range s.Times {
		assert.Equal(t, ScoreHour(s, i, th, AllCategories()), ScoreHour(s, i, th, AllCategories()))
	}
}

func TestScoreHour_MonotonicPastYellow(t *testing.T) {
	th := DefaultThresholds()
	tests := []struct {
		name     string
		category Category
		set      func(h *hourSample, v float64)
		steps    []float64
	}{
		{"surface wind", CategoryWind, func(h *hourSample, v float64) { h.surface, h.gusts = v, v }, []float64{5, 14, 19, 30}},
		{"gusts", CategoryWind, func(h *hourSample, v float64) { h.gusts = v }, []float64{10, 17, 22, 26, 40}},
		{"1500 m wind", CategoryWind, func(h *hourSample, v float64) { h.w1500 = v }, []float64{10, 26, 36, 60}},
		{"cape", CategoryThermal, func(h *hourSample, v float64) { h.cape = v }, []float64{100, 400, 1100, 2000}},
		{"low cloud", CategoryClouds, func(h *hourSample, v float64) { h.low = v }, []float64{10, 60, 85, 100}},
		{"precipitation", CategoryPrecip, func(h *hourSample, v float64) { h.precip = v }, []float64{0, 0.5, 1.5, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prevCat, prevHour := Go, Go
			for _, step := range tt.steps {
				h := flyable()
				tt.set(&h, step)
				v := valuesOf(h)

				cat := Evaluate(tt.category, v, th)
				hour := ScoreValues(v, th, AllCategories())
				assert.LessOrEqual(t, cat, prevCat, "category improved at %v", step)
				assert.LessOrEqual(t, hour, prevHour, "hour improved at %v", step)
				prevCat, prevHour = cat, hour
			}
			assert.Equal(t, NoGo, prevCat)
		})
	}
}

func TestAssessHour_BreakdownOnlyHasEnabledCategories(t *testing.T) {
	s := seriesOf("2025-06-01", 8, breezy())

	h := AssessHour(s, 0, DefaultThresholds(), CategoryFilter{Wind: true, Precip: true})

	assert.Equal(t, "2025-06-01T08:00", h.Time)
	assert.Equal(t, Caution, h.Score)
	assert.Equal(t, map[Category]Score{CategoryWind: Caution, CategoryPrecip: Go}, h.Categories)
	assert.Equal(t, FogUnlikely, h.Fog)
}
