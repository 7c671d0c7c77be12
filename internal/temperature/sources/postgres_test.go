package sources

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func TestPivot(t *testing.T) {
	d1 := time.Date(2020, time.January, 2, 0, 0, 0, 0, time.UTC)
	d0 := time.Date(2020, time.January, 1, 15, 30, 0, 0, time.UTC)

	table := Pivot([]Reading{
		{Date: d1, City: "Tokyo", Temperature: ptr(6)},
		{Date: d0, City: "Tokyo", Temperature: ptr(5)},
		{Date: d0, City: "Osaka", Temperature: ptr(7)},
		{Date: d1, City: "Kobe", Temperature: nil},
		{Date: d0, City: "Kobe", Temperature: ptr(8)},
	})

	assert.Equal(t, []string{"2020-01-01", "2020-01-02"}, table.Dates)
	require.Len(t, table.Columns, 3)

	assert.Equal(t, "Kobe", table.Columns[0].Name)
	assert.Equal(t, 8.0, table.Columns[0].Values[0])
	assert.True(t, math.IsNaN(table.Columns[0].Values[1]))

	assert.Equal(t, "Osaka", table.Columns[1].Name)
	assert.Equal(t, 7.0, table.Columns[1].Values[0])
	assert.True(t, math.IsNaN(table.Columns[1].Values[1]))

	assert.Equal(t, "Tokyo", table.Columns[2].Name)
	assert.Equal(t, []float64{5, 6}, table.Columns[2].Values)
}

func TestPivot_Empty(t *testing.T) {
	table := Pivot(nil)
	assert.Empty(t, table.Dates)
	assert.Empty(t, table.Columns)
}
