// Package filter applies per-profile predicates to parsed rows. Filters are
// pure: each returns a new row set and never mutates its input.
package filter

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/couchcryptid/arctic-profile-etl/internal/domain"
)

// DefaultMinPoints is how many rows a profile must keep after direction
// filtering.
const DefaultMinPoints = 10

// Filter transforms the rows of exactly one profile.
type Filter interface {
	Name() string
	Apply(rows []domain.Row) ([]domain.Row, error)
}

// Range keeps rows whose column value lies strictly between Lo and Hi.
type Range struct {
	Column domain.Column
	Lo, Hi float64
}

// NewRange orders the bounds, so [280, 260] means the same as [260, 280].
func NewRange(c domain.Column, a, b float64) Range {
	return Range{Column: c, Lo: min(a, b), Hi: max(a, b)}
}

// PressureRange keeps lo < pressure < hi.
func PressureRange(a, b float64) Range { return NewRange(domain.ColumnPressure, a, b) }

// TemperatureRange keeps lo < temperature < hi.
func TemperatureRange(a, b float64) Range { return NewRange(domain.ColumnTemperature, a, b) }

// SalinityRange keeps lo < salinity < hi.
func SalinityRange(a, b float64) Range { return NewRange(domain.ColumnSalinity, a, b) }

// Name implements Filter.
func (r Range) Name() string {
	switch r.Column {
	case domain.ColumnPressure:
		return "pressure_range"
	case domain.ColumnTemperature:
		return "temperature_range"
	case domain.ColumnSalinity:
		return "salinity_range"
	default:
		return string(r.Column) + "_range"
	}
}

// Apply implements Filter. Bounds are exclusive; NaN never passes.
func (r Range) Apply(rows []domain.Row) ([]domain.Row, error) {
	out := make([]domain.Row, 0, len(rows))
	for _, row := range rows {
		if v := row.Value(r.Column); r.Lo < v && v < r.Hi {
			out = append(out, row)
		}
	}
	return out, nil
}

// Direction is the cast direction to retain.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// ParseDirection accepts "up" or "down".
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(s); d {
	case Up, Down:
		return d, nil
	default:
		return "", fmt.Errorf("cast_direction must be %q or %q, got %q", Up, Down, s)
	}
}

// CastDirection keeps the rows acquired while the sensor moved in one
// direction. Each row is compared with its predecessor in acquisition order:
// a pressure decrease means the sensor was rising (up), an increase that it
// was sinking (down). The first row has no predecessor and is dropped. The
// retained rows are sorted by pressure and their notes get "-up" or "-down".
type CastDirection struct {
	Direction Direction
	MinPoints int
}

// NewCastDirection returns a direction filter requiring DefaultMinPoints.
func NewCastDirection(d Direction) CastDirection {
	return CastDirection{Direction: d, MinPoints: DefaultMinPoints}
}

// Name implements Filter.
func (CastDirection) Name() string { return "cast_direction" }

// Apply implements Filter. It returns domain.ErrInsufficientPoints when fewer
// than MinPoints rows remain.
func (c CastDirection) Apply(rows []domain.Row) ([]domain.Row, error) {
	minPoints := c.MinPoints
	if minPoints <= 0 {
		minPoints = DefaultMinPoints
	}

	out := make([]domain.Row, 0, len(rows))
	for i := 1; i < len(rows); i++ {
		diff := rows[i].Pressure - rows[i-1].Pressure
		if (c.Direction == Up && diff < 0) || (c.Direction == Down && diff > 0) {
			out = append(out, rows[i])
		}
	}
	if len(out) < minPoints {
		return nil, fmt.Errorf("%d %s points, need %d: %w", len(out), c.Direction, minPoints, domain.ErrInsufficientPoints)
	}

	slices.SortStableFunc(out, func(a, b domain.Row) int {
		return cmp.Compare(a.Pressure, b.Pressure)
	})
	for i := range out {
		out[i].Notes += "-" + string(c.Direction)
	}
	return out, nil
}

// Chain applies filters in order after dropping rows with a missing
// measurement. The first error rejects the profile.
type Chain []Filter

// Apply runs the chain over one profile's rows.
func (c Chain) Apply(rows []domain.Row) ([]domain.Row, error) {
	out := domain.DropIncomplete(rows)
	for _, f := range c {
		var err error
		out, err = f.Apply(out)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name(), err)
		}
	}
	return out, nil
}

// WithMinPoints returns a copy of the chain whose direction filters require
// n points.
func (c Chain) WithMinPoints(n int) Chain {
	out := make(Chain, len(c))
	for i, f := range c {
		if cd, ok := f.(CastDirection); ok {
			cd.MinPoints = n
			f = cd
		}
		out[i] = f
	}
	return out
}

// Names lists the filter names in application order.
func (c Chain) Names() []string {
	names := make([]string, len(c))
	for i, f := range c {
		names[i] = f.Name()
	}
	return names
}
