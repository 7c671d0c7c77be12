package temperature

import (
	"errors"
	"fmt"
)

var (
	// ErrStoreNotLoaded is returned by store accessors before the first successful load.
	ErrStoreNotLoaded = errors.New("temperature store not loaded")

	// ErrEmptySeries is returned when statistics are requested for a series without points.
	ErrEmptySeries = errors.New("series has no data")
)

// DataUnavailableError reports that the raw feed could not be fetched or parsed.
type DataUnavailableError struct {
	Err error
}

func (e *DataUnavailableError) Error() string {
	return fmt.Sprintf("temperature data unavailable: %v", e.Err)
}

func (e *DataUnavailableError) Unwrap() error {
	return e.Err
}

// CityNotFoundError reports a city that is not part of the loaded dataset.
type CityNotFoundError struct {
	City string
}

func (e *CityNotFoundError) Error() string {
	return fmt.Sprintf("%s not in Japan", e.City)
}

// InvalidInputError reports a malformed city, year, month or mode.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
