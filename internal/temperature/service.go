package temperature

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/i474232898/japan-temperature/internal/common"
	"github.com/i474232898/japan-temperature/internal/observability"
)

// Service is the query surface consumed by the presentation layer. It owns
// the data source, the store and the query engine.
type Service struct {
	source  DataSource
	store   Store
	engine  *QueryEngine
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics

	loadMu   sync.Mutex // serialises LoadStore
	statusMu sync.RWMutex
	loadedAt time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithClock replaces the wall clock used to stamp loads.
func WithClock(c clockwork.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService creates a new Service.
func NewService(source DataSource, store Store, opts ...Option) *Service {
	s := &Service{
		source: source,
		store:  store,
		engine: NewQueryEngine(store),
		clock:  clockwork.NewRealClock(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadStore fetches the feed and publishes a freshly cleaned store. Any fetch
// or parse failure is reported as a *DataUnavailableError and leaves the
// previously published store untouched.
func (s *Service) LoadStore(ctx context.Context) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	start := s.clock.Now()
	err := s.load(ctx)
	elapsed := s.clock.Since(start)

	if err != nil {
		s.observeLoad("error", elapsed)
		s.logger.Error("store load failed", "source", s.source.Name(), "error", err)
		return &DataUnavailableError{Err: err}
	}
	s.observeLoad("success", elapsed)

	s.statusMu.Lock()
	s.loadedAt = s.clock.Now().UTC()
	s.statusMu.Unlock()
	return nil
}

func (s *Service) load(ctx context.Context) error {
	table, err := s.source.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch from %s: %w", s.source.Name(), err)
	}
	if err := s.store.Load(table); err != nil {
		return fmt.Errorf("load table: %w", err)
	}

	cities, _ := s.store.Cities()
	dates, _ := s.store.Dates()
	s.logger.Info("store loaded", "source", s.source.Name(), "cities", len(cities), "days", len(dates))
	if s.metrics != nil {
		s.metrics.StoreCities.Set(float64(len(cities)))
		s.metrics.StoreDays.Set(float64(len(dates)))
	}
	return nil
}

func (s *Service) observeLoad(outcome string, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.StoreLoads.WithLabelValues(outcome).Inc()
	s.metrics.StoreLoadDuration.Observe(elapsed.Seconds())
}

// ListCities returns the sorted city names.
func (s *Service) ListCities() ([]string, error) {
	return s.store.Cities()
}

// SearchCities returns the cities whose name contains term, ignoring case.
// An empty term returns every city.
func (s *Service) SearchCities(term string) ([]string, error) {
	cities, err := s.store.Cities()
	if err != nil {
		return nil, err
	}
	if term == "" {
		return cities, nil
	}
	filtered := make([]string, 0, len(cities))
	for _, c := range cities {
		if common.ContainsFold(c, term) {
			filtered = append(filtered, c)
		}
	}
	return filtered, nil
}

// ListYears returns the contiguous year range of the store.
func (s *Service) ListYears() ([]int, error) {
	return s.store.Years()
}

// Query runs q against the published store.
func (s *Service) Query(q Query) (Series, error) {
	series, err := s.engine.Run(q)
	s.observeQuery(q.Mode, series, err)
	return series, err
}

func (s *Service) observeQuery(mode Mode, series Series, err error) {
	if s.metrics == nil {
		return
	}
	var (
		notFound *CityNotFoundError
		invalid  *InvalidInputError
	)
	outcome := "success"
	switch {
	case errors.As(err, &notFound):
		outcome = "not_found"
	case errors.As(err, &invalid):
		outcome = "invalid"
	case err != nil:
		outcome = "error"
	case series.Len() == 0:
		outcome = "empty"
	}
	s.metrics.Queries.WithLabelValues(mode.String(), outcome).Inc()
}

// Describe computes descriptive statistics for series.
func (s *Service) Describe(series Series) (Stats, error) {
	stats, err := Describe(series)
	if s.metrics != nil {
		outcome := "success"
		if err != nil {
			outcome = "empty"
		}
		s.metrics.Describes.WithLabelValues(outcome).Inc()
	}
	return stats, err
}

// Compare runs the same scoped query for several cities. Cities are matched
// case-insensitively and each city is returned once, in request order.
// Empty names are skipped.
func (s *Service) Compare(mode Mode, cities []string, year int, month time.Month) ([]Series, error) {
	seen := make(map[string]bool, len(cities))
	out := make([]Series, 0, len(cities))
	for _, city := range cities {
		key := strings.ToLower(strings.TrimSpace(city))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true

		series, err := s.Query(Query{Mode: mode, City: strings.TrimSpace(city), Year: year, Month: month})
		if err != nil {
			return nil, err
		}
		out = append(out, series)
	}
	return out, nil
}

// Status reports whether a store is published and how much it holds.
func (s *Service) Status() Status {
	years, err := s.store.Years()
	if err != nil {
		return Status{}
	}
	cities, _ := s.store.Cities()
	dates, _ := s.store.Dates()

	s.statusMu.RLock()
	loadedAt := s.loadedAt
	s.statusMu.RUnlock()

	return Status{
		Loaded:   true,
		LoadedAt: loadedAt,
		Cities:   len(cities),
		Years:    len(years),
		Days:     len(dates),
	}
}

// CheckReadiness returns nil once a store has been published.
func (s *Service) CheckReadiness(_ context.Context) error {
	_, err := s.store.Years()
	return err
}
