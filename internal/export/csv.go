package export

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/couchcryptid/arctic-profile-etl/internal/domain"
)

// Header is the CSV column order.
var Header = []string{
	"source", "instrument", "profile_number", "longitude", "latitude",
	"timestamp", "format", "notes", "temp", "salt", "p",
}

// WriteCSV writes t with a header row. Absent coordinates and timestamps are
// empty cells.
func WriteCSV(w io.Writer, t *domain.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range t.Rows() {
		rec := []string{
			string(r.Source),
			r.Instrument,
			r.ProfileNumber,
			optFloat(r.Longitude),
			optFloat(r.Latitude),
			optTime(r.Timestamp),
			r.FormatTag(),
			r.Notes,
			num(r.Temperature),
			num(r.Salinity),
			num(r.Pressure),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes t to dir/<name>.csv and returns the path.
func WriteCSVFile(dir, name string, t *domain.Table) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name+".csv")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := WriteCSV(f, t); err != nil {
		_ = f.Close()
		return "", err
	}
	return path, f.Close()
}

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func optFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return num(*v)
}

func optTime(v *time.Time) string {
	if v == nil {
		return ""
	}
	return v.UTC().Format(time.RFC3339)
}
