package temperature

import (
	"math"
	"time"
)

// RawTable is the tabular feed as delivered by a DataSource: one unparsed
// date column plus one column of readings per city. A missing reading is NaN.
type RawTable struct {
	Dates   []string
	Columns []Column
}

// Column holds the readings of a single city, aligned with RawTable.Dates.
type Column struct {
	Name   string
	Values []float64
}

// Missing reports whether a cell value represents an absent reading.
func Missing(v float64) bool {
	return math.IsNaN(v)
}

// Point is a single daily reading.
type Point struct {
	Date  time.Time `json:"date"` // UTC midnight
	Value float64   `json:"value"`
}

// Series is an ordered run of daily readings for one city.
// Series values are never mutated after a query returns them.
type Series struct {
	City   string  `json:"city"`
	Points []Point `json:"points"`
}

// Len returns the number of points.
func (s Series) Len() int {
	return len(s.Points)
}

// Values returns a copy of the readings in date order.
func (s Series) Values() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Value
	}
	return out
}

// Stats is the descriptive summary of a Series. Count is not reported.
type Stats struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	Min  float64 `json:"min"`
	P25  float64 `json:"p25"`
	P50  float64 `json:"p50"`
	P75  float64 `json:"p75"`
	Max  float64 `json:"max"`
}

// Mode selects the date scope of a Query.
type Mode int

const (
	ModeOverall Mode = iota
	ModeYear
	ModeMonth
)

func (m Mode) String() string {
	switch m {
	case ModeOverall:
		return "overall"
	case ModeYear:
		return "year"
	case ModeMonth:
		return "month"
	default:
		return "unknown"
	}
}

// ParseMode maps the wire name of a mode onto a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "overall":
		return ModeOverall, nil
	case "year":
		return ModeYear, nil
	case "month":
		return ModeMonth, nil
	default:
		return 0, &InvalidInputError{Field: "mode", Reason: "must be one of overall, year, month"}
	}
}

// Query is a scoped request for one city's readings. Year is used by
// ModeYear and ModeMonth, Month only by ModeMonth.
type Query struct {
	Mode  Mode
	City  string
	Year  int
	Month time.Month
}

// Overall builds a query over the full date range.
func Overall(city string) Query {
	return Query{Mode: ModeOverall, City: city}
}

// ByYear builds a query over one calendar year.
func ByYear(city string, year int) Query {
	return Query{Mode: ModeYear, City: city, Year: year}
}

// ByMonth builds a query over one calendar month.
func ByMonth(city string, year int, month time.Month) Query {
	return Query{Mode: ModeMonth, City: city, Year: year, Month: month}
}

// Status summarises the currently published store.
type Status struct {
	Loaded   bool      `json:"loaded"`
	LoadedAt time.Time `json:"loadedAt,omitempty"`
	Cities   int       `json:"cities"`
	Years    int       `json:"years"`
	Days     int       `json:"days"`
}
