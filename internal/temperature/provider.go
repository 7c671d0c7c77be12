package temperature

import (
	"context"
	"time"
)

// DataSource abstracts where the raw temperature table comes from
// (remote CSV, local file, spreadsheet, database).
type DataSource interface {
	Name() string
	Fetch(ctx context.Context) (RawTable, error)
}

// Store is the contract the in-memory temperature store must satisfy.
// Every read observes a single fully loaded table.
type Store interface {
	Load(table RawTable) error
	Cities() ([]string, error)
	Years() ([]int, error)
	Dates() ([]time.Time, error)

	// GetAll returns every reading of city. The lookup is case-insensitive.
	GetAll(city string) (Series, error)
	// GetRange returns the readings of city between from and to (inclusive).
	GetRange(city string, from, to time.Time) (Series, error)
}
