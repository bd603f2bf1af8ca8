// Package stats summarizes the numeric columns of a Measurement Table.
package stats

import (
	"math"

	"github.com/couchcryptid/arctic-profile-etl/internal/domain"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Columns are the columns Summarize reports, in output order.
var Columns = []domain.Column{
	domain.ColumnPressure,
	domain.ColumnTemperature,
	domain.ColumnSalinity,
	domain.ColumnLongitude,
	domain.ColumnLatitude,
}

// Column holds the statistics of one column. Count excludes absent values;
// the other fields are NaN when Count is zero. StdDev is the sample
// standard deviation.
type Column struct {
	Name   domain.Column
	Count  int
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
}

// Summary describes a whole table.
type Summary struct {
	Rows     int
	Profiles int
	Columns  []Column
}

// Summarize computes per-column statistics over t.
func Summarize(t *domain.Table) Summary {
	s := Summary{
		Rows:     t.Len(),
		Profiles: len(t.Profiles()),
		Columns:  make([]Column, 0, len(Columns)),
	}
	for _, c := range Columns {
		s.Columns = append(s.Columns, Describe(c, t.Column(c)))
	}
	return s
}

// Describe computes the statistics of values, ignoring NaN.
func Describe(name domain.Column, values []float64) Column {
	present := Present(values)
	col := Column{Name: name, Count: len(present)}
	if col.Count == 0 {
		nan := math.NaN()
		col.Min, col.Max, col.Mean, col.StdDev = nan, nan, nan, nan
		return col
	}
	col.Min = floats.Min(present)
	col.Max = floats.Max(present)
	col.Mean, col.StdDev = stat.MeanStdDev(present, nil)
	return col
}

// Present returns the non-NaN values.
func Present(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Get returns the statistics for column c.
func (s Summary) Get(c domain.Column) (Column, bool) {
	for _, col := range s.Columns {
		if col.Name == c {
			return col, true
		}
	}
	return Column{}, false
}
