package flyability

// Score is the three-level flyability rating. Lower is worse and the zero
// value means "not assessed".
type Score int

const (
	NoGo    Score = 1
	Caution Score = 2
	Go      Score = 3
)

func (s Score) String() string {
	switch s {
	case NoGo:
		return "NO-GO"
	case Caution:
		return "CAUTION"
	case Go:
		return "GO"
	default:
		return "UNKNOWN"
	}
}

// MarshalText renders the score as its traffic-light label.
func (s Score) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText accepts the labels produced by MarshalText. Anything else
// decodes to the unassessed zero value.
func (s *Score) UnmarshalText(text []byte) error {
	switch string(text) {
	case "NO-GO":
		*s = NoGo
	case "CAUTION":
		*s = Caution
	case "GO":
		*s = Go
	default:
		*s = 0
	}
	return nil
}

// Worst returns the lower of two scores, ignoring unassessed ones.
func Worst(a, b Score) Score {
	if a == 0 {
		return b
	}
	if b == 0 || a < b {
		return a
	}
	return b
}

// Category groups the parameters scored together.
type Category string

const (
	CategoryWind    Category = "wind"
	CategoryThermal Category = "thermal"
	CategoryClouds  Category = "clouds"
	CategoryPrecip  Category = "precip"
)

// Categories lists the scored categories in evaluation order.
func Categories() []Category {
	return []Category{CategoryWind, CategoryThermal, CategoryClouds, CategoryPrecip}
}

// CategoryFilter selects which categories take part in the hour score.
// A disabled category is left out of the aggregation entirely.
type CategoryFilter struct {
	Wind    bool `yaml:"wind" json:"wind"`
	Thermal bool `yaml:"thermal" json:"thermal"`
	Clouds  bool `yaml:"clouds" json:"clouds"`
	Precip  bool `yaml:"precip" json:"precip"`
}

// AllCategories enables every category.
func AllCategories() CategoryFilter {
	return CategoryFilter{Wind: true, Thermal: true, Clouds: true, Precip: true}
}

// Enabled reports whether c is active in the filter.
func (f CategoryFilter) Enabled(c Category) bool {
	switch c {
	case CategoryWind:
		return f.Wind
	case CategoryThermal:
		return f.Thermal
	case CategoryClouds:
		return f.Clouds
	case CategoryPrecip:
		return f.Precip
	}
	return false
}

// Any reports whether at least one category is enabled.
func (f CategoryFilter) Any() bool {
	return f.Wind || f.Thermal || f.Clouds || f.Precip
}
