package models

import "fmt"

// Location is a named launch site or forecast point.
type Location struct {
	Name      string  `yaml:"name" json:"name" validate:"required"`
	Latitude  float64 `yaml:"latitude" json:"latitude" validate:"latitude"`
	Longitude float64 `yaml:"longitude" json:"longitude" validate:"longitude"`
}

// Key identifies the forecast point, rounded to about 10 m.
func (l Location) Key() string {
	return fmt.Sprintf("%.4f,%.4f", l.Latitude, l.Longitude)
}

func (l Location) String() string {
	if l.Name == "" {
		return l.Key()
	}
	return fmt.Sprintf("%s (%s)", l.Name, l.Key())
}
