package store

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/i474232898/japan-temperature/internal/temperature"
)

var (
	// ErrMalformedTable is returned when a raw table cannot be turned into a store.
	ErrMalformedTable = errors.New("malformed temperature table")
)

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"1/2/2006",
}

// table is one fully cleaned, immutable load of the feed.
type table struct {
	dates   []time.Time
	cities  []string
	columns map[string][]float64
	lookup  map[string]string // lower-cased name -> canonical name
	years   []int
}

// MemoryStore is a concurrency-safe in-memory temperature store. Each Load
// builds a new table and publishes it atomically.
type MemoryStore struct {
	current atomic.Pointer[table]
}

// NewMemoryStore creates an empty, not yet loaded MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load cleans raw and replaces the published table. On error the previous
// table, if any, stays in place.
func (s *MemoryStore) Load(raw temperature.RawTable) error {
	t, err := build(raw)
	if err != nil {
		return err
	}
	s.current.Store(t)
	return nil
}

func build(raw temperature.RawTable) (*table, error) {
	n := len(raw.Dates)
	for _, col := range raw.Columns {
		if len(col.Values) != n {
			return nil, fmt.Errorf("%w: column %q has %d values for %d dates", ErrMalformedTable, col.Name, len(col.Values), n)
		}
	}

	dates := make([]time.Time, n)
	for i, s := range raw.Dates {
		d, err := parseDate(s)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrMalformedTable, i+1, err)
		}
		dates[i] = d
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return dates[order[a]].Before(dates[order[b]])
	})
	for i := 1; i < n; i++ {
		if dates[order[i]].Equal(dates[order[i-1]]) {
			return nil, fmt.Errorf("%w: duplicate date %s", ErrMalformedTable, dates[order[i]].Format(time.DateOnly))
		}
	}

	// Drop the trailing year; an incremental feed only carries part of it.
	keep := order
	if n > 0 {
		lastYear := dates[order[n-1]].Year()
		cut := sort.Search(n, func(i int) bool {
			return dates[order[i]].Year() >= lastYear
		})
		keep = order[:cut]
	}

	t := &table{
		dates:   make([]time.Time, len(keep)),
		columns: make(map[string][]float64),
		lookup:  make(map[string]string),
	}
	for i, idx := range keep {
		t.dates[i] = dates[idx]
	}

	for _, col := range raw.Columns {
		if hasMissing(col.Values) {
			continue
		}
		name := strings.TrimSpace(col.Name)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, dup := t.lookup[key]; dup {
			return nil, fmt.Errorf("%w: duplicate city column %q", ErrMalformedTable, name)
		}
		values := make([]float64, len(keep))
		for i, idx := range keep {
			values[i] = col.Values[idx]
		}
		t.columns[name] = values
		t.lookup[key] = name
		t.cities = append(t.cities, name)
	}
	sort.Strings(t.cities)

	if len(t.dates) > 0 {
		first, last := t.dates[0].Year(), t.dates[len(t.dates)-1].Year()
		for y := first; y <= last; y++ {
			t.years = append(t.years, y)
		}
	}

	return t, nil
}

// hasMissing checks the full raw column, trailing year included, matching a
// column-wise drop performed before truncation.
func hasMissing(values []float64) bool {
	for _, v := range values {
		if temperature.Missing(v) {
			return true
		}
	}
	return false
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

func (s *MemoryStore) loaded() (*table, error) {
	t := s.current.Load()
	if t == nil {
		return nil, temperature.ErrStoreNotLoaded
	}
	return t, nil
}

// Cities returns the sorted names of cities with complete data.
func (s *MemoryStore) Cities() ([]string, error) {
	t, err := s.loaded()
	if err != nil {
		return nil, err
	}
	return append([]string(nil), t.cities...), nil
}

// Years returns the contiguous range of years covered by the dates.
func (s *MemoryStore) Years() ([]int, error) {
	t, err := s.loaded()
	if err != nil {
		return nil, err
	}
	return append([]int(nil), t.years...), nil
}

// Dates returns every date in ascending order.
func (s *MemoryStore) Dates() ([]time.Time, error) {
	t, err := s.loaded()
	if err != nil {
		return nil, err
	}
	return append([]time.Time(nil), t.dates...), nil
}

// GetAll returns every reading of city.
func (s *MemoryStore) GetAll(city string) (temperature.Series, error) {
	t, err := s.loaded()
	if err != nil {
		return temperature.Series{}, err
	}
	return t.series(city, 0, len(t.dates))
}

// GetRange returns the readings of city between from and to (inclusive).
func (s *MemoryStore) GetRange(city string, from, to time.Time) (temperature.Series, error) {
	t, err := s.loaded()
	if err != nil {
		return temperature.Series{}, err
	}
	lo := sort.Search(len(t.dates), func(i int) bool {
		return !t.dates[i].Before(from)
	})
	hi := sort.Search(len(t.dates), func(i int) bool {
		return t.dates[i].After(to)
	})
	if hi < lo {
		hi = lo
	}
	return t.series(city, lo, hi)
}

func (t *table) series(city string, lo, hi int) (temperature.Series, error) {
	name, ok := t.lookup[strings.ToLower(city)]
	if !ok {
		return temperature.Series{}, &temperature.CityNotFoundError{City: city}
	}
	values := t.columns[name]
	points := make([]temperature.Point, 0, hi-lo)
	for i := lo; i < hi; i++ {
		points = append(points, temperature.Point{Date: t.dates[i], Value: values[i]})
	}
	return temperature.Series{City: name, Points: points}, nil
}
