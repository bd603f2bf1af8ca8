// Package render draws plot records from a Measurement Table: static PNG
// figures through gonum/plot and interactive HTML pages through go-echarts.
package render

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/couchcryptid/arctic-profile-etl/internal/config"
	"github.com/couchcryptid/arctic-profile-etl/internal/domain"
	"github.com/couchcryptid/arctic-profile-etl/internal/stats"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrNothingToPlot means every value of a plotted column is absent.
var ErrNothingToPlot = errors.New("nothing to plot")

// Render draws plot p from t into dir and returns the written path,
// dir/<name>.<output>.
func Render(t *domain.Table, p config.Plot, dir string) (string, error) {
	x, y, err := p.Axes()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	out := filepath.Join(dir, p.Name+"."+p.Output)

	f := figure{
		title:    title(t, p),
		subtitle: subtitle(t),
		x:        x,
		y:        y,
		bins:     p.Bins,
	}
	switch p.Kind {
	case config.KindDateHist, config.KindPHist:
		f.values = stats.Present(t.Column(x))
		if len(f.values) == 0 {
			return "", fmt.Errorf("%s: %w", x, ErrNothingToPlot)
		}
	case config.KindProfiles:
		f.series = byProfile(t, x, y)
		f.invertY = y == domain.ColumnPressure
	default:
		f.series = byInstrument(t, x, y)
	}
	if f.values == nil && len(f.series) == 0 {
		return "", fmt.Errorf("%s/%s: %w", x, y, ErrNothingToPlot)
	}

	if p.Output == config.OutputHTML {
		err = f.writeHTML(out)
	} else {
		err = f.writePNG(out)
	}
	if err != nil {
		return "", fmt.Errorf("render %s: %w", p.Name, err)
	}
	return out, nil
}

// figure is a plot record resolved against a table.
type figure struct {
	title    string
	subtitle string
	x, y     domain.Column
	bins     int
	invertY  bool

	series []series  // scatter and line kinds
	values []float64 // histogram kinds
}

func (f figure) histogram() bool { return f.values != nil }

// series is one legend entry: points in table order.
type series struct {
	name string
	x, y []float64
}

func (s *series) add(x, y float64) {
	if math.IsNaN(x) || math.IsNaN(y) {
		return
	}
	s.x = append(s.x, x)
	s.y = append(s.y, y)
}

// byInstrument groups points by source and instrument.
func byInstrument(t *domain.Table, x, y domain.Column) []series {
	return group(t, x, y, func(r domain.Row) string {
		name := string(r.Source) + " " + r.Instrument
		if tag := r.FormatTag(); tag != "" {
			name += " " + tag
		}
		return name
	})
}

// byProfile groups points by cast.
func byProfile(t *domain.Table, x, y domain.Column) []series {
	return group(t, x, y, func(r domain.Row) string {
		return fmt.Sprintf("%s %s #%s", r.Source, r.Instrument, r.ProfileNumber)
	})
}

func group(t *domain.Table, x, y domain.Column, key func(domain.Row) string) []series {
	index := make(map[string]int)
	var out []series
	for _, r := range t.Rows() {
		k := key(r)
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, series{name: k})
		}
		out[i].add(r.Value(x), r.Value(y))
	}
	kept := out[:0]
	for _, s := range out {
		if len(s.x) > 0 {
			kept = append(kept, s)
		}
	}
	return kept
}

func title(t *domain.Table, p config.Plot) string {
	s := fmt.Sprintf("%s: %d points", p.Name, t.Len())
	if notes := t.Notes(); notes != "" {
		s += " " + notes
	}
	return s
}

func subtitle(t *domain.Table) string {
	return fmt.Sprintf("%d profiles, run %s", len(t.Profiles()), t.RunID)
}

// Bins counts values into n equal-width bins over their range and returns
// the bin edges (n+1) and counts (n).
func Bins(values []float64, n int) (edges, counts []float64) {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	lo, hi := sorted[0], sorted[len(sorted)-1]
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	edges = floats.Span(make([]float64, n+1), lo, hi)
	dividers := append([]float64(nil), edges...)
	dividers[n] = math.Nextafter(hi, math.Inf(1))
	counts = stat.Histogram(nil, dividers, sorted, nil)
	return edges, counts
}
