package temperature_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/japan-temperature/internal/observability"
	"github.com/i474232898/japan-temperature/internal/store"
	"github.com/i474232898/japan-temperature/internal/temperature"
)

type stubSource struct {
	table temperature.RawTable
	err   error
	calls int
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) Fetch(context.Context) (temperature.RawTable, error) {
	s.calls++
	return s.table, s.err
}

type serviceFixture struct {
	svc     *temperature.Service
	source  *stubSource
	clock   *clockwork.FakeClock
	metrics *observability.Metrics
}

func newService(t *testing.T, source *stubSource) serviceFixture {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2024, time.April, 1, 9, 0, 0, 0, time.UTC))
	metrics := observability.NewMetricsForTesting()
	svc := temperature.NewService(source, store.NewMemoryStore(),
		temperature.WithClock(clock),
		temperature.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		temperature.WithMetrics(metrics),
	)
	return serviceFixture{svc: svc, source: source, clock: clock, metrics: metrics}
}

func TestLoadStore_Success(t *testing.T) {
	f := newService(t, &stubSource{table: fixture()})

	require.NoError(t, f.svc.LoadStore(context.Background()))

	cities, err := f.svc.ListCities()
	require.NoError(t, err)
	assert.Equal(t, []string{"Osaka", "Tokyo"}, cities)

	years, err := f.svc.ListYears()
	require.NoError(t, err)
	assert.Equal(t, []int{2019, 2020}, years)

	status := f.svc.Status()
	assert.True(t, status.Loaded)
	assert.Equal(t, f.clock.Now(), status.LoadedAt)
	assert.Equal(t, 2, status.Cities)
	assert.Equal(t, 2, status.Years)
	assert.Equal(t, 731, status.Days)

	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.StoreLoads.WithLabelValues("success")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(f.metrics.StoreCities), 0)
	assert.InDelta(t, 731, testutil.ToFloat64(f.metrics.StoreDays), 0)
	assert.NoError(t, f.svc.CheckReadiness(context.Background()))
}

func TestLoadStore_FetchFailure(t *testing.T) {
	f := newService(t, &stubSource{err: errors.New("connection refused")})

	err := f.svc.LoadStore(context.Background())
	var unavailable *temperature.DataUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Contains(t, err.Error(), "connection refused")

	_, err = f.svc.ListCities()
	assert.ErrorIs(t, err, temperature.ErrStoreNotLoaded)
	assert.False(t, f.svc.Status().Loaded)
	assert.ErrorIs(t, f.svc.CheckReadiness(context.Background()), temperature.ErrStoreNotLoaded)
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.StoreLoads.WithLabelValues("error")), 0)
}

func TestLoadStore_ParseFailureKeepsPreviousStore(t *testing.T) {
	source := &stubSource{table: fixture()}
	f := newService(t, source)
	require.NoError(t, f.svc.LoadStore(context.Background()))
	loadedAt := f.svc.Status().LoadedAt

	f.clock.Advance(24 * time.Hour)
	source.table = temperature.RawTable{Dates: []string{"garbage"}}
	err := f.svc.LoadStore(context.Background())
	var unavailable *temperature.DataUnavailableError
	require.ErrorAs(t, err, &unavailable)

	status := f.svc.Status()
	assert.True(t, status.Loaded)
	assert.Equal(t, loadedAt, status.LoadedAt)
	assert.Equal(t, 2, source.calls)
}

func TestQueryAndDescribe(t *testing.T) {
	f := newService(t, &stubSource{table: fixture()})
	require.NoError(t, f.svc.LoadStore(context.Background()))

	series, err := f.svc.Query(temperature.ByMonth("osaka", 2019, time.January))
	require.NoError(t, err)
	require.Equal(t, 31, series.Len())
	assert.Equal(t, "Osaka", series.City)

	// Osaka reads 0..30 in January 2019.
	stats, err := f.svc.Describe(series)
	require.NoError(t, err)
	assert.InDelta(t, 15.0, stats.Mean, 1e-12)
	assert.Equal(t, 0.0, stats.Min)
	assert.Equal(t, 30.0, stats.Max)
	assert.InDelta(t, 7.5, stats.P25, 1e-12)
	assert.InDelta(t, 15.0, stats.P50, 1e-12)
	assert.InDelta(t, 22.5, stats.P75, 1e-12)

	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.Queries.WithLabelValues("month", "success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.Describes.WithLabelValues("success")), 0)
}

func TestQuery_Outcomes(t *testing.T) {
	f := newService(t, &stubSource{table: fixture()})
	require.NoError(t, f.svc.LoadStore(context.Background()))

	_, err := f.svc.Query(temperature.Overall("Atlantis"))
	var notFound *temperature.CityNotFoundError
	require.ErrorAs(t, err, &notFound)

	empty, err := f.svc.Query(temperature.ByYear("Tokyo", 1850))
	require.NoError(t, err)
	_, err = f.svc.Describe(empty)
	assert.ErrorIs(t, err, temperature.ErrEmptySeries)

	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.Queries.WithLabelValues("overall", "not_found")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.Queries.WithLabelValues("year", "empty")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.Describes.WithLabelValues("empty")), 0)
}

func TestSearchCities(t *testing.T) {
	f := newService(t, &stubSource{table: fixture()})
	require.NoError(t, f.svc.LoadStore(context.Background()))

	got, err := f.svc.SearchCities("KY")
	require.NoError(t, err)
	assert.Equal(t, []string{"Tokyo"}, got)

	got, err = f.svc.SearchCities("")
	require.NoError(t, err)
	assert.Equal(t, []string{"Osaka", "Tokyo"}, got)

	got, err = f.svc.SearchCities("zzz")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCompare(t *testing.T) {
	f := newService(t, &stubSource{table: fixture()})
	require.NoError(t, f.svc.LoadStore(context.Background()))

	series, err := f.svc.Compare(temperature.ModeYear, []string{"tokyo", " Osaka", "TOKYO", ""}, 2019, 0)
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.Equal(t, "Tokyo", series[0].City)
	assert.Equal(t, "Osaka", series[1].City)
	assert.Equal(t, 365, series[0].Len())

	_, err = f.svc.Compare(temperature.ModeOverall, []string{"Tokyo", "Atlantis"}, 0, 0)
	var notFound *temperature.CityNotFoundError
	assert.ErrorAs(t, err, &notFound)
}
