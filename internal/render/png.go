package render

import (
	"fmt"
	"time"

	"github.com/couchcryptid/arctic-profile-etl/internal/domain"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

const (
	pngWidth  = 10 * vg.Inch
	pngHeight = 7 * vg.Inch
)

func (f figure) writePNG(path string) error {
	p := plot.New()
	p.Title.Text = f.title + "\n" + f.subtitle
	p.X.Label.Text = f.x.Label()
	if f.x == domain.ColumnDate {
		p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02", Time: unixUTC}
	}

	if f.histogram() {
		h, err := plotter.NewHist(plotter.Values(f.values), f.bins)
		if err != nil {
			return fmt.Errorf("histogram: %w", err)
		}
		p.Y.Label.Text = "Count"
		p.Add(h)
		return p.Save(pngWidth, pngHeight, path)
	}

	p.Y.Label.Text = f.y.Label()
	if f.invertY {
		p.Y.Scale = plot.InvertedScale{Normalizer: plot.LinearScale{}}
	}
	for i, s := range f.series {
		xys := make(plotter.XYs, len(s.x))
		for j := range s.x {
			xys[j] = plotter.XY{X: s.x[j], Y: s.y[j]}
		}
		if f.invertY {
			line, err := plotter.NewLine(xys)
			if err != nil {
				return fmt.Errorf("series %s: %w", s.name, err)
			}
			line.Color = plotutil.Color(i)
			line.Width = vg.Points(1)
			p.Add(line)
			p.Legend.Add(s.name, line)
			continue
		}
		sc, err := plotter.NewScatter(xys)
		if err != nil {
			return fmt.Errorf("series %s: %w", s.name, err)
		}
		sc.Color = plotutil.Color(i)
		sc.Shape = draw.CircleGlyph{}
		sc.Radius = vg.Points(1.5)
		p.Add(sc)
		p.Legend.Add(s.name, sc)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p.Save(pngWidth, pngHeight, path)
}

func unixUTC(v float64) time.Time { return time.Unix(int64(v), 0).UTC() }
