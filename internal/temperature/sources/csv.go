package sources

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/i474232898/japan-temperature/internal/common"
	"github.com/i474232898/japan-temperature/internal/temperature"
)

// ErrMalformedFeed is returned when a feed cannot be decoded into a table.
var ErrMalformedFeed = errors.New("malformed temperature feed")

var missingTokens = []string{"", "nan", "na", "n/a", "null"}

// HTTPSource downloads the feed as CSV.
type HTTPSource struct {
	name    string
	url     string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

// NewHTTPSource creates a source reading CSV from url with retries and a circuit breaker.
func NewHTTPSource(client *http.Client, url string) *HTTPSource {
	return &HTTPSource{
		name: "http",
		url:  url,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: defaultBackoff(),
		},
		circuit: newBreaker("temperature-feed"),
	}
}

func (s *HTTPSource) Name() string {
	return s.name
}

func (s *HTTPSource) Fetch(ctx context.Context) (temperature.RawTable, error) {
	buildRequest := func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodGet, s.url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "text/csv")
		return req, nil
	}

	resp, err := doRequestWithResilience(ctx, s.httpCfg, s.circuit, buildRequest)
	if err != nil {
		return temperature.RawTable{}, err
	}
	defer resp.Body.Close()

	return ParseCSV(resp.Body)
}

// FileSource reads the feed from a CSV file on disk.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Name() string {
	return "file"
}

func (s *FileSource) Fetch(ctx context.Context) (temperature.RawTable, error) {
	if err := ctx.Err(); err != nil {
		return temperature.RawTable{}, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		return temperature.RawTable{}, err
	}
	defer f.Close()

	return ParseCSV(f)
}

// ParseCSV decodes a header row followed by one row per date. The date
// column is the one named "Date" (any case), otherwise the first column.
func ParseCSV(r io.Reader) (temperature.RawTable, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return temperature.RawTable{}, fmt.Errorf("%w: %v", ErrMalformedFeed, err)
	}
	return fromRows(records)
}

// fromRows turns string rows (header first) into a RawTable.
// It is shared by the CSV and spreadsheet sources.
func fromRows(rows [][]string) (temperature.RawTable, error) {
	if len(rows) == 0 {
		return temperature.RawTable{}, fmt.Errorf("%w: no header row", ErrMalformedFeed)
	}
	header := rows[0]
	if len(header) < 2 {
		return temperature.RawTable{}, fmt.Errorf("%w: need a date column and at least one city", ErrMalformedFeed)
	}

	dateCol := 0
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), "date") {
			dateCol = i
			break
		}
	}

	table := temperature.RawTable{Dates: make([]string, 0, len(rows)-1)}
	colIdx := make([]int, 0, len(header)-1)
	for i, h := range header {
		if i == dateCol {
			continue
		}
		colIdx = append(colIdx, i)
		table.Columns = append(table.Columns, temperature.Column{
			Name:   strings.TrimSpace(h),
			Values: make([]float64, 0, len(rows)-1),
		})
	}

	for n, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		line := n + 2
		if dateCol >= len(row) {
			return temperature.RawTable{}, fmt.Errorf("%w: line %d: missing date", ErrMalformedFeed, line)
		}
		table.Dates = append(table.Dates, strings.TrimSpace(row[dateCol]))

		for c, idx := range colIdx {
			cell := ""
			if idx < len(row) {
				cell = row[idx]
			}
			v, err := parseCell(cell)
			if err != nil {
				return temperature.RawTable{}, fmt.Errorf("%w: line %d, column %q: %v", ErrMalformedFeed, line, table.Columns[c].Name, err)
			}
			table.Columns[c].Values = append(table.Columns[c].Values, v)
		}
	}

	return table, nil
}

func parseCell(cell string) (float64, error) {
	cell = strings.TrimSpace(cell)
	if common.EqualFoldAny(cell, missingTokens...) {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(cell, 64)
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
