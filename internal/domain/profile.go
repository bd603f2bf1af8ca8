package domain

import (
	"math"
	"time"
)

// Source identifies an instrument family.
type Source string

const (
	SourceAIDJEX Source = "AIDJEX"
	SourceITP    Source = "ITP"
)

// Format identifies the physical file format a profile was read from.
type Format string

const (
	FormatAIDJEX Format = "aidjex"
	FormatFinal  Format = "final"
	FormatCormat Format = "cormat"
)

// Source returns the instrument family that produces this format.
func (f Format) Source() Source {
	if f == FormatAIDJEX {
		return SourceAIDJEX
	}
	return SourceITP
}

// Tag is the display tag carried on rows: empty for AIDJEX, the sub-format
// name for ITP.
func (f Format) Tag() string {
	if f == FormatAIDJEX {
		return ""
	}
	return string(f)
}

// Valid reports whether f is one of the known formats.
func (f Format) Valid() bool {
	switch f {
	case FormatAIDJEX, FormatFinal, FormatCormat:
		return true
	default:
		return false
	}
}

// SourceRequest names one instrument's data to load. Format selects the
// parser, and through it the source family and directory layout.
type SourceRequest struct {
	Format     Format
	Instrument string
}

// AIDJEX returns a request for one AIDJEX station.
func AIDJEX(station string) SourceRequest {
	return SourceRequest{Format: FormatAIDJEX, Instrument: station}
}

// ITP returns a request for one ITP buoy in the given sub-format.
func ITP(instrument string, format Format) SourceRequest {
	return SourceRequest{Format: format, Instrument: instrument}
}

// Source returns the instrument family of the request.
func (r SourceRequest) Source() Source { return r.Format.Source() }

func (r SourceRequest) String() string {
	if tag := r.Format.Tag(); tag != "" {
		return string(r.Source()) + "-" + r.Instrument + "-" + tag
	}
	return string(r.Source()) + "-" + r.Instrument
}

// ProfileKey identifies one cast.
type ProfileKey struct {
	Source        Source
	Instrument    string
	ProfileNumber string
}

// Row is one measurement: the atomic unit of a Table.
type Row struct {
	Source        Source
	Instrument    string
	ProfileNumber string
	Longitude     *float64
	Latitude      *float64
	Timestamp     *time.Time
	Format        Format
	Notes         string

	Temperature float64 // °C
	Salinity    float64 // practical salinity / PPT
	Pressure    float64 // dbar, or m for AIDJEX
}

// Key returns the profile the row belongs to.
func (r Row) Key() ProfileKey {
	return ProfileKey{Source: r.Source, Instrument: r.Instrument, ProfileNumber: r.ProfileNumber}
}

// FormatTag returns the row's display format tag.
func (r Row) FormatTag() string { return r.Format.Tag() }

// Complete reports whether temperature, salinity and pressure are all present.
func (r Row) Complete() bool {
	return !math.IsNaN(r.Temperature) && !math.IsNaN(r.Salinity) && !math.IsNaN(r.Pressure)
}

// ProfileHeader is the per-cast metadata shared by every row of a profile.
type ProfileHeader struct {
	Source        Source
	Instrument    string
	ProfileNumber string
	Format        Format
	Longitude     *float64
	Latitude      *float64
	Timestamp     *time.Time
}

// Profile is the row set of one cast. Rows may still contain NaN
// measurements until the assembler enforces completeness.
type Profile struct {
	Header ProfileHeader
	Rows   []Row
}

// Key returns the profile identity.
func (p Profile) Key() ProfileKey {
	return ProfileKey{Source: p.Header.Source, Instrument: p.Header.Instrument, ProfileNumber: p.Header.ProfileNumber}
}

// NewProfile zips the three measurement columns into rows that all carry
// the header metadata. Columns are truncated to the shortest length.
func NewProfile(h ProfileHeader, temperature, salinity, pressure []float64) Profile {
	n := min(len(temperature), len(salinity), len(pressure))
	rows := make([]Row, n)
	for i := range n {
		rows[i] = Row{
			Source:        h.Source,
			Instrument:    h.Instrument,
			ProfileNumber: h.ProfileNumber,
			Longitude:     h.Longitude,
			Latitude:      h.Latitude,
			Timestamp:     h.Timestamp,
			Format:        h.Format,
			Temperature:   temperature[i],
			Salinity:      salinity[i],
			Pressure:      pressure[i],
		}
	}
	return Profile{Header: h, Rows: rows}
}

// DropIncomplete returns a copy of rows without any row missing temperature,
// salinity or pressure.
func DropIncomplete(rows []Row) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if r.Complete() {
			out = append(out, r)
		}
	}
	return out
}
