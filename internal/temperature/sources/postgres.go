package sources

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/i474232898/japan-temperature/internal/temperature"
)

// Reading is one row of the long-format readings table.
type Reading struct {
	Date        time.Time
	City        string
	Temperature *float64
}

// PostgresSource reads a long-format table (date, city, temperature) and
// pivots it into the date-by-city layout of the CSV feed.
type PostgresSource struct {
	pool  *pgxpool.Pool
	table string
}

// NewPostgresSource creates a source over table. The table name is quoted as
// a single identifier.
func NewPostgresSource(pool *pgxpool.Pool, table string) *PostgresSource {
	return &PostgresSource{pool: pool, table: table}
}

func (s *PostgresSource) Name() string {
	return "postgres"
}

func (s *PostgresSource) Fetch(ctx context.Context) (temperature.RawTable, error) {
	query := fmt.Sprintf(`
		SELECT date, city, temperature
		FROM %s
		ORDER BY date, city
	`, pgx.Identifier{s.table}.Sanitize())

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return temperature.RawTable{}, fmt.Errorf("postgres: failed to query readings: %w", err)
	}
	defer rows.Close()

	var readings []Reading
	for rows.Next() {
		var r Reading
		if err := rows.Scan(&r.Date, &r.City, &r.Temperature); err != nil {
			return temperature.RawTable{}, fmt.Errorf("postgres: failed to scan reading: %w", err)
		}
		readings = append(readings, r)
	}
	if err := rows.Err(); err != nil {
		return temperature.RawTable{}, fmt.Errorf("postgres: failed to read readings: %w", err)
	}

	return Pivot(readings), nil
}

// Pivot arranges long-format readings into a RawTable. A city without a
// reading for some date, or with a NULL reading, gets a missing cell.
func Pivot(readings []Reading) temperature.RawTable {
	dayIndex := make(map[time.Time]int)
	var days []time.Time
	cityValues := make(map[string]map[time.Time]float64)

	for _, r := range readings {
		day := time.Date(r.Date.Year(), r.Date.Month(), r.Date.Day(), 0, 0, 0, 0, time.UTC)
		if _, ok := dayIndex[day]; !ok {
			dayIndex[day] = len(days)
			days = append(days, day)
		}
		values, ok := cityValues[r.City]
		if !ok {
			values = make(map[time.Time]float64)
			cityValues[r.City] = values
		}
		v := math.NaN()
		if r.Temperature != nil {
			v = *r.Temperature
		}
		values[day] = v
	}

	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	cities := make([]string, 0, len(cityValues))
	for c := range cityValues {
		cities = append(cities, c)
	}
	sort.Strings(cities)

	table := temperature.RawTable{Dates: make([]string, len(days))}
	for i, d := range days {
		table.Dates[i] = d.Format(time.DateOnly)
	}
	for _, c := range cities {
		col := temperature.Column{Name: c, Values: make([]float64, len(days))}
		for i, d := range days {
			v, ok := cityValues[c][d]
			if !ok {
				v = math.NaN()
			}
			col.Values[i] = v
		}
		table.Columns = append(table.Columns, col)
	}
	return table
}
