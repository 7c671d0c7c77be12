package sources

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/i474232898/japan-temperature/internal/temperature"
)

// ExcelSource reads the feed from an .xlsx workbook laid out like the CSV
// feed: a header row, then one row per date.
type ExcelSource struct {
	path  string
	sheet string
}

// NewExcelSource creates a source for the given workbook. An empty sheet
// selects the first sheet.
func NewExcelSource(path, sheet string) *ExcelSource {
	return &ExcelSource{path: path, sheet: sheet}
}

func (s *ExcelSource) Name() string {
	return "excel"
}

func (s *ExcelSource) Fetch(ctx context.Context) (temperature.RawTable, error) {
	if err := ctx.Err(); err != nil {
		return temperature.RawTable{}, err
	}

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return temperature.RawTable{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := s.sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return temperature.RawTable{}, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) > 0 {
		normalizeSerialDates(rows)
	}
	return fromRows(rows)
}

// normalizeSerialDates rewrites Excel serial date numbers in the date column
// as ISO dates so the store can parse them like any other feed.
func normalizeSerialDates(rows [][]string) {
	dateCol := 0
	for i, h := range rows[0] {
		if strings.EqualFold(strings.TrimSpace(h), "date") {
			dateCol = i
			break
		}
	}
	for _, row := range rows[1:] {
		if dateCol >= len(row) {
			continue
		}
		serial, err := strconv.ParseFloat(strings.TrimSpace(row[dateCol]), 64)
		if err != nil {
			continue
		}
		ts, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			continue
		}
		row[dateCol] = ts.Format(time.DateOnly)
	}
}
