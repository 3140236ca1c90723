// Package flyability scores hourly forecast data for paragliding.
//
// Every function in this package is pure: it reads a WeatherSeries, an
// effective ThresholdSet and a CategoryFilter passed in by the caller and
// returns a freshly built result. Nothing here performs I/O, blocks or keeps
// state between calls, so hours and days can be scored in any order or in
// parallel.
//
// Scores follow a worst-case policy. Each category evaluator returns NoGo on
// the first yellow breach, Caution on the first green breach and Go otherwise;
// the hour score is the minimum over the enabled categories.
package flyability
