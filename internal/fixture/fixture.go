// Package fixture writes synthetic profile files in the three physical
// formats, laid out the way the data root expects them. Tests build
// in-memory trees from it; cmd/genfixtures writes the same trees to disk.
package fixture

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"testing/fstest"
	"time"

	"github.com/couchcryptid/arctic-profile-etl/internal/matfile"
)

// Cast is one synthetic profile in acquisition order.
type Cast struct {
	Number      int
	Time        time.Time
	Lon, Lat    float64
	Pressure    []float64
	Temperature []float64
	Salinity    []float64
}

// Synthetic water column: a warm intermediate layer under a cold mixed
// layer, roughly the Atlantic Water structure of the Canada Basin.
const (
	surfaceTemp   = -1.6
	layerTemp     = 2.4
	layerDepth    = 300.0
	layerWidth    = 150.0
	surfaceSal    = 30.0
	deepSalGain   = 4.8
	salScaleDepth = 200.0
	stepSpacing   = 4.0
	stepAmplitude = 0.02
)

// Synthetic returns an n-sample cast from 10 dbar down in dz steps. An
// up-cast is acquired deep to shallow, so its first pressure is the largest.
func Synthetic(number int, t time.Time, lon, lat float64, n int, dz float64, up bool) Cast {
	c := Cast{
		Number:      number,
		Time:        t,
		Lon:         lon,
		Lat:         lat,
		Pressure:    make([]float64, n),
		Temperature: make([]float64, n),
		Salinity:    make([]float64, n),
	}
	for i := range n {
		j := i
		if up {
			j = n - 1 - i
		}
		p := 10 + dz*float64(j)
		z := (p - layerDepth) / layerWidth
		c.Pressure[i] = p
		c.Temperature[i] = round4(surfaceTemp + layerTemp*math.Exp(-z*z) + stepAmplitude*math.Sin(p/stepSpacing))
		c.Salinity[i] = round4(surfaceSal + deepSalGain*(1-math.Exp(-p/salScaleDepth)))
	}
	return c
}

func round4(v float64) float64 { return math.Round(v*1e4) / 1e4 }

// AIDJEXName is the file name of an AIDJEX cast: BigBear_042.
func AIDJEXName(station string, number int) string {
	return fmt.Sprintf("%s_%03d", station, number)
}

// FinalName is the file name of an ITP "final" cast: itp1grd0042.dat.
func FinalName(instrument string, number int) string {
	return fmt.Sprintf("itp%sgrd%04d.dat", instrument, number)
}

// CormatName is the file name of an ITP "cormat" cast: cor0042.mat.
func CormatName(number int) string {
	return fmt.Sprintf("cor%04d.mat", number)
}

// AIDJEX renders a station text file. Coordinates of 99.9999 reproduce the
// no-fix sentinel.
func AIDJEX(station string, c Cast) []byte {
	var b bytes.Buffer
	hhmm := c.Time.Hour()*100 + c.Time.Minute()
	fmt.Fprintf(&b, "AIDJEX %s CTD %d/%s/%d %d\n",
		station, c.Time.Day(), strings.ToUpper(c.Time.Format("Jan")), c.Time.Year(), hhmm)
	fmt.Fprintf(&b, "Lat %.4f Lon %.4f\n", c.Lat, c.Lon)
	fmt.Fprintf(&b, "station %s cast %d\n", station, c.Number)
	b.WriteString("Depth(m) Temp(C) Sal(PPT)\n")
	for i := range c.Pressure {
		fmt.Fprintf(&b, "%s %s %s\n", num(c.Pressure[i]), num(c.Temperature[i]), num(c.Salinity[i]))
	}
	return b.Bytes()
}

// Final renders an ITP "final" text file with its footer line.
func Final(instrument string, c Cast) []byte {
	var b bytes.Buffer
	start := time.Date(c.Time.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	day := 1 + c.Time.Sub(start).Hours()/24
	fmt.Fprintf(&b, "%%ITP %s, profile %d: year day longitude(E+) latitude(N) ndepths\n", instrument, c.Number)
	fmt.Fprintf(&b, "%d %.6f %.4f %.4f %d\n", c.Time.Year(), day, c.Lon, c.Lat, len(c.Pressure))
	b.WriteString("%pressure(dbar) temperature(C) salinity\n")
	for i := range c.Pressure {
		fmt.Fprintf(&b, "%s %s %s\n", num(c.Pressure[i]), num(c.Temperature[i]), num(c.Salinity[i]))
	}
	b.WriteString("%endofdat\n")
	return b.Bytes()
}

// Cormat renders an ITP "cormat" container, Level 5 (compressed) by default
// or Level 4 when legacy is set.
func Cormat(c Cast, legacy bool) ([]byte, error) {
	date := c.Time.Format("01/02/06")
	clock := c.Time.Format("15:04:05")
	n := len(c.Pressure)
	if legacy {
		return matfile.EncodeLevel4([]matfile.Variable{
			matfile.Char("psdate", date),
			matfile.Char("pstart", clock),
			matfile.Scalar("longitude", c.Lon),
			matfile.Scalar("latitude", c.Lat),
			matfile.Float64s("te_adj", c.Temperature),
			matfile.Float64s("sa_adj", c.Salinity),
			matfile.Float64s("pr_filt", c.Pressure),
		})
	}
	return matfile.EncodeLevel5([]matfile.Variable{
		matfile.Cell("psdate", matfile.Char("", date)),
		matfile.Cell("pstart", matfile.Char("", clock)),
		matfile.Scalar("longitude", c.Lon),
		matfile.Scalar("latitude", c.Lat),
		matfile.Float64s("te_adj", c.Temperature, n, 1),
		matfile.Float64s("sa_adj", c.Salinity, n, 1),
		matfile.Float64s("pr_filt", c.Pressure, n, 1),
	}, true)
}

// num prints NaN the way the instrument files do.
func num(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Tree is a data root: slash-separated relative path to file contents.
type Tree map[string][]byte

// AddAIDJEX adds station casts under AIDJEX/AIDJEX/<station>.
func (t Tree) AddAIDJEX(station string, casts ...Cast) {
	dir := path.Join("AIDJEX", "AIDJEX", station)
	for _, c := range casts {
		t[path.Join(dir, AIDJEXName(station, c.Number))] = AIDJEX(station, c)
	}
}

// AddFinal adds casts under ITPs/itp<n>/itp<n>final.
func (t Tree) AddFinal(instrument string, casts ...Cast) {
	dir := itpDir(instrument, "final")
	for _, c := range casts {
		t[path.Join(dir, FinalName(instrument, c.Number))] = Final(instrument, c)
	}
}

// AddCormat adds casts under ITPs/itp<n>/itp<n>cormat.
func (t Tree) AddCormat(instrument string, legacy bool, casts ...Cast) error {
	dir := itpDir(instrument, "cormat")
	for _, c := range casts {
		data, err := Cormat(c, legacy)
		if err != nil {
			return fmt.Errorf("cast %d: %w", c.Number, err)
		}
		t[path.Join(dir, CormatName(c.Number))] = data
	}
	return nil
}

func itpDir(instrument, format string) string {
	return path.Join("ITPs", "itp"+instrument, "itp"+instrument+format)
}

// FS returns the tree as an in-memory file system.
func (t Tree) FS() fstest.MapFS {
	fsys := make(fstest.MapFS, len(t))
	for name, data := range t {
		fsys[name] = &fstest.MapFile{Data: data, Mode: 0o644}
	}
	return fsys
}

// Paths returns the file paths in lexical order.
func (t Tree) Paths() []string {
	out := make([]string, 0, len(t))
	for name := range t {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Write materializes the tree under root.
func (t Tree) Write(root string) error {
	for _, name := range t.Paths() {
		dst := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(dst, t[name], 0o644); err != nil {
			return err
		}
	}
	return nil
}
