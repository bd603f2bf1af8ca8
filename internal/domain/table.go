package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Column names a numeric column of the Table.
type Column string

const (
	ColumnTemperature Column = "temp"
	ColumnSalinity    Column = "salt"
	ColumnPressure    Column = "p"
	ColumnLongitude   Column = "lon"
	ColumnLatitude    Column = "lat"
	ColumnDate        Column = "date"
)

// ParseColumn accepts a column name or one of its long aliases.
func ParseColumn(s string) (Column, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "temp", "temperature", "t":
		return ColumnTemperature, nil
	case "salt", "salinity", "s":
		return ColumnSalinity, nil
	case "p", "pressure", "depth":
		return ColumnPressure, nil
	case "lon", "longitude":
		return ColumnLongitude, nil
	case "lat", "latitude":
		return ColumnLatitude, nil
	case "date", "time", "timestamp":
		return ColumnDate, nil
	default:
		return "", fmt.Errorf("unknown column %q", s)
	}
}

// Label returns an axis label with units.
func (c Column) Label() string {
	switch c {
	case ColumnTemperature:
		return "Temperature (C)"
	case ColumnSalinity:
		return "Salinity (g/kg)"
	case ColumnPressure:
		return "Pressure (dbar)"
	case ColumnLongitude:
		return "Longitude"
	case ColumnLatitude:
		return "Latitude"
	case ColumnDate:
		return "Date"
	default:
		return string(c)
	}
}

// Table is the Measurement Table produced by one load. Consumers treat it as
// read-only; notes are written by the filter engine before hand-off.
type Table struct {
	RunID    string
	LoadedAt time.Time
	rows     []Row
}

// NewTable builds a table from rows, dropping any row missing temperature,
// salinity or pressure.
func NewTable(runID string, rows []Row) *Table {
	return &Table{
		RunID:    runID,
		LoadedAt: clock.Now(),
		rows:     DropIncomplete(rows),
	}
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Rows returns the rows in load order. The slice is shared; do not modify it.
func (t *Table) Rows() []Row { return t.rows }

// Profiles returns the distinct profiles in order of first appearance.
func (t *Table) Profiles() []ProfileKey {
	seen := make(map[ProfileKey]struct{})
	var keys []ProfileKey
	for _, r := range t.rows {
		k := r.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	return keys
}

// ProfileRows returns the rows of one profile in table order.
func (t *Table) ProfileRows(key ProfileKey) []Row {
	var out []Row
	for _, r := range t.rows {
		if r.Key() == key {
			out = append(out, r)
		}
	}
	return out
}

// Column returns one value per row. Absent coordinates and dates are NaN;
// dates are Unix seconds.
func (t *Table) Column(c Column) []float64 {
	out := make([]float64, len(t.rows))
	for i, r := range t.rows {
		out[i] = r.Value(c)
	}
	return out
}

// Value returns the row's value for column c, NaN when absent.
func (r Row) Value(c Column) float64 {
	switch c {
	case ColumnTemperature:
		return r.Temperature
	case ColumnSalinity:
		return r.Salinity
	case ColumnPressure:
		return r.Pressure
	case ColumnLongitude:
		if r.Longitude != nil {
			return *r.Longitude
		}
	case ColumnLatitude:
		if r.Latitude != nil {
			return *r.Latitude
		}
	case ColumnDate:
		if r.Timestamp != nil {
			return float64(r.Timestamp.Unix())
		}
	}
	return math.NaN()
}

// Sources returns the distinct sources in order of first appearance.
func (t *Table) Sources() []Source {
	seen := make(map[Source]bool)
	var out []Source
	for _, r := range t.rows {
		if !seen[r.Source] {
			seen[r.Source] = true
			out = append(out, r.Source)
		}
	}
	return out
}

// Instruments returns the distinct instruments in order of first appearance.
func (t *Table) Instruments() []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range t.rows {
		if !seen[r.Instrument] {
			seen[r.Instrument] = true
			out = append(out, r.Instrument)
		}
	}
	return out
}

// Notes concatenates the distinct non-empty notes values, e.g. "-up".
func (t *Table) Notes() string {
	seen := make(map[string]bool)
	var b strings.Builder
	for _, r := range t.rows {
		if r.Notes == "" || seen[r.Notes] {
			continue
		}
		seen[r.Notes] = true
		b.WriteString(r.Notes)
	}
	return b.String()
}
