package temperature

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Describe summarises the values of series: mean, sample standard deviation,
// minimum, quartiles and maximum. A series with a single point has a NaN
// standard deviation.
func Describe(series Series) (Stats, error) {
	if series.Len() == 0 {
		return Stats{}, ErrEmptySeries
	}

	values := series.Values()
	sort.Float64s(values)

	mean, std := stat.MeanStdDev(values, nil)
	if len(values) == 1 {
		std = math.NaN()
	}

	return Stats{
		Mean: mean,
		Std:  std,
		Min:  floats.Min(values),
		P25:  quantile(0.25, values),
		P50:  quantile(0.50, values),
		P75:  quantile(0.75, values),
		Max:  floats.Max(values),
	}, nil
}

// quantile interpolates linearly between the closest ranks of sorted,
// i.e. the h = (n-1)p estimator.
func quantile(p float64, sorted []float64) float64 {
	h := float64(len(sorted)-1) * p
	lo := math.Floor(h)
	i := int(lo)
	if i+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	return sorted[i] + (h-lo)*(sorted[i+1]-sorted[i])
}
