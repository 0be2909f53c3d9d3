// Package marketdata provides the read-only, date keyed lookup tables the
// simulation consumes: bitcoin prices, bitcoin transaction fees, monthly
// CPI and the historical crash scenario.
package marketdata

import (
	"fmt"
	"sort"
	"time"
)

// DateLayout is the key format of every date keyed table.
const DateLayout = "2006-01-02"

// Point is a single dated value.
type Point struct {
	Date  time.Time
	Value float64
}

// Series is an ordered, read-only set of dated values. Lookups for a date
// that has no value fall back to the nearest prior date.
type Series struct {
	points []Point
}

// NewSeries constructs a series from a map keyed by ISO date.
func NewSeries(values map[string]float64) (*Series, error) {
	points := make([]Point, 0, len(values))
	for key, value := range values {
		date, err := ParseDate(key)
		if err != nil {
			return nil, err
		}
		points = append(points, Point{Date: date, Value: value})
	}

	return newSeries(points), nil
}

func newSeries(points []Point) *Series {
	sort.Slice(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})

	return &Series{points: points}
}

// Len returns the number of points in the series.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.points)
}

// At returns the value for the specified date or the nearest prior date.
// The boolean is false when the date precedes the first point.
func (s *Series) At(date time.Time) (float64, bool) {
	if s.Len() == 0 {
		return 0, false
	}

	day := Day(date)
	idx := sort.Search(len(s.points), func(i int) bool {
		return s.points[i].Date.After(day)
	})
	if idx == 0 {
		return 0, false
	}

	return s.points[idx-1].Value, true
}

// Latest returns the most recent point in the series.
func (s *Series) Latest() (Point, bool) {
	if s.Len() == 0 {
		return Point{}, false
	}
	return s.points[len(s.points)-1], true
}

// First returns the earliest point in the series.
func (s *Series) First() (Point, bool) {
	if s.Len() == 0 {
		return Point{}, false
	}
	return s.points[0], true
}

// =============================================================================

// Day truncates the date to midnight UTC.
func Day(date time.Time) time.Time {
	y, m, d := date.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// dateLayouts are the formats seen in the source data files.
var dateLayouts = []string{
	DateLayout,
	time.RFC3339,
	"2006/01/02",
	"January 2, 2006",
	"Jan 2, 2006",
}

// ParseDate parses a date in any of the supported layouts and returns it
// as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if date, err := time.Parse(layout, s); err == nil {
			return Day(date), nil
		}
	}

	return time.Time{}, fmt.Errorf("invalid date %q", s)
}
