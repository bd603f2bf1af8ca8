package render

import (
	"fmt"
	"os"
	"strconv"

	"github.com/couchcryptid/arctic-profile-etl/internal/domain"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

func (f figure) writeHTML(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	global := []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{PageTitle: f.title, Width: "1100px", Height: "760px"}),
		charts.WithTitleOpts(opts.Title{Title: f.title, Subtitle: f.subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	}

	if f.histogram() {
		edges, counts := Bins(f.values, f.bins)
		labels := make([]string, len(counts))
		data := make([]opts.BarData, len(counts))
		for i, n := range counts {
			labels[i] = f.binLabel(edges[i])
			data[i] = opts.BarData{Value: n}
		}
		bar := charts.NewBar()
		bar.SetGlobalOptions(append(global,
			charts.WithXAxisOpts(opts.XAxis{Name: f.x.Label(), NameLocation: "middle", NameGap: 30}),
			charts.WithYAxisOpts(opts.YAxis{Name: "Count"}),
		)...)
		bar.SetXAxis(labels).AddSeries("count", data)
		if err := bar.Render(file); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		return file.Close()
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(append(global,
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Name: f.x.Label(), NameLocation: "middle", NameGap: 25, Type: axisType(f.x)}),
		charts.WithYAxisOpts(opts.YAxis{Name: f.y.Label(), NameLocation: "middle", NameGap: 40, Type: axisType(f.y)}),
	)...)
	for _, s := range f.series {
		data := make([]opts.ScatterData, len(s.x))
		for i := range s.x {
			data[i] = opts.ScatterData{Value: []interface{}{axisValue(f.x, s.x[i]), axisValue(f.y, s.y[i])}}
		}
		scatter.AddSeries(s.name, data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}))
	}
	if err := scatter.Render(file); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return file.Close()
}

func axisType(c domain.Column) string {
	if c == domain.ColumnDate {
		return "time"
	}
	return "value"
}

// axisValue converts dates to the milliseconds echarts time axes expect.
func axisValue(c domain.Column, v float64) float64 {
	if c == domain.ColumnDate {
		return v * 1000
	}
	return v
}

func (f figure) binLabel(lo float64) string {
	if f.x == domain.ColumnDate {
		return unixUTC(lo).Format("2006-01-02")
	}
	return strconv.FormatFloat(lo, 'g', 5, 64)
}
