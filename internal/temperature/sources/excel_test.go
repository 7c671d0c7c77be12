package sources

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, sheet string, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	if sheet != "Sheet1" {
		_, err := f.NewSheet(sheet)
		require.NoError(t, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "japan.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestExcelSource_TextDates(t *testing.T) {
	path := writeWorkbook(t, "Sheet1", [][]interface{}{
		{"Date", "Tokyo", "Osaka"},
		{"2020-01-01", 5.5, 6.25},
		{"2020-01-02", 4.0, nil},
	})

	src := NewExcelSource(path, "")
	assert.Equal(t, "excel", src.Name())

	table, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"2020-01-01", "2020-01-02"}, table.Dates)
	require.Len(t, table.Columns, 2)
	assert.Equal(t, []float64{5.5, 4.0}, table.Columns[0].Values)
	assert.True(t, math.IsNaN(table.Columns[1].Values[1]))
}

func TestExcelSource_SerialDatesAndNamedSheet(t *testing.T) {
	path := writeWorkbook(t, "daily", [][]interface{}{
		{"Date", "Sapporo"},
		{time.Date(2019, time.March, 1, 0, 0, 0, 0, time.UTC), -2.5},
	})

	table, err := NewExcelSource(path, "daily").Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"2019-03-01"}, table.Dates)
	assert.Equal(t, []float64{-2.5}, table.Columns[0].Values)
}

func TestExcelSource_MissingFile(t *testing.T) {
	_, err := NewExcelSource(filepath.Join(t.TempDir(), "none.xlsx"), "").Fetch(context.Background())
	assert.Error(t, err)
}

func TestExcelSource_UnknownSheet(t *testing.T) {
	path := writeWorkbook(t, "Sheet1", [][]interface{}{{"Date", "Tokyo"}})

	_, err := NewExcelSource(path, "monthly").Fetch(context.Background())
	assert.Error(t, err)
}
