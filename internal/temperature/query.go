package temperature

import (
	"time"
)

// QueryEngine answers overall, year and month scoped queries against a Store.
type QueryEngine struct {
	store Store
}

// NewQueryEngine creates a QueryEngine reading from store.
func NewQueryEngine(store Store) *QueryEngine {
	return &QueryEngine{store: store}
}

// Overall returns every reading of city.
func (e *QueryEngine) Overall(city string) (Series, error) {
	return e.Run(Overall(city))
}

// ByYear returns the readings of city from January 1 to December 31 of year.
func (e *QueryEngine) ByYear(city string, year int) (Series, error) {
	return e.Run(ByYear(city, year))
}

// ByMonth returns the readings of city for every day of the given month.
func (e *QueryEngine) ByMonth(city string, year int, month time.Month) (Series, error) {
	return e.Run(ByMonth(city, year, month))
}

// Run executes q. An empty city means "nothing selected yet" and yields an
// empty series. Ranges outside the loaded dates also yield an empty series.
func (e *QueryEngine) Run(q Query) (Series, error) {
	// Fail loudly on integration errors before honouring the empty-city sentinel.
	if _, err := e.store.Years(); err != nil {
		return Series{}, err
	}

	var from, to time.Time
	switch q.Mode {
	case ModeOverall:
	case ModeYear:
		from, to = YearBounds(q.Year)
	case ModeMonth:
		if q.Month < time.January || q.Month > time.December {
			return Series{}, &InvalidInputError{Field: "month", Reason: "must be between 1 and 12"}
		}
		from, to = MonthBounds(q.Year, q.Month)
	default:
		return Series{}, &InvalidInputError{Field: "mode", Reason: "unsupported query mode"}
	}

	if q.City == "" {
		return Series{Points: []Point{}}, nil
	}

	if q.Mode == ModeOverall {
		return e.store.GetAll(q.City)
	}
	return e.store.GetRange(q.City, from, to)
}

// YearBounds returns the first and last day of year.
func YearBounds(year int) (time.Time, time.Time) {
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
}

// MonthBounds returns the first and last day of the month.
func MonthBounds(year int, month time.Month) (time.Time, time.Time) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return first, time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
}

// DaysIn returns the number of days of month in year.
func DaysIn(year int, month time.Month) int {
	_, last := MonthBounds(year, month)
	return last.Day()
}
