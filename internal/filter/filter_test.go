package filter

import (
	"math"
	"testing"

	"github.com/couchcryptid/arctic-profile-etl/internal/domain"
	"github.com/couchcryptid/arctic-profile-etl/internal/exclusion"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// profile builds one profile's rows from pressures in acquisition order.
func profile(pressures ...float64) []domain.Row {
	rows := make([]domain.Row, len(pressures))
	for i, p := range pressures {
		rows[i] = domain.Row{
			Source:        domain.SourceITP,
			Instrument:    "1",
			ProfileNumber: "7",
			Temperature:   -1 + 0.1*float64(i),
			Salinity:      30 + 0.1*float64(i),
			Pressure:      p,
		}
	}
	return rows
}

func pressures(rows []domain.Row) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = r.Pressure
	}
	return out
}

func TestRange_Exclusive(t *testing.T) {
	rows := profile(259.9, 260, 261, 270, 279.5, 280, 280.1)

	got, err := PressureRange(260, 280).Apply(rows)
	require.NoError(t, err)
	assert.Equal(t, []float64{261, 270, 279.5}, pressures(got))
}

func TestRange_BoundsOrderInsensitive(t *testing.T) {
	rows := profile(250, 270, 290)

	a, _ := PressureRange(260, 280).Apply(rows)
	b, _ := PressureRange(280, 260).Apply(rows)
	assert.Equal(t, pressures(a), pressures(b))
}

func TestRange_Columns(t *testing.T) {
	rows := profile(10, 20, 30, 40)

	got, err := TemperatureRange(-1, -0.75).Apply(rows)
	require.NoError(t, err)
	assert.Equal(t, []float64{20, 30}, pressures(got))

	got, err = SalinityRange(30.15, 31).Apply(rows)
	require.NoError(t, err)
	assert.Equal(t, []float64{30, 40}, pressures(got))

	assert.Equal(t, "temperature_range", TemperatureRange(0, 1).Name())
	assert.Equal(t, "salinity_range", SalinityRange(0, 1).Name())
}

func TestCastDirection_SmallProfile(t *testing.T) {
	rows := profile(10, 20, 15, 25, 30)

	down := CastDirection{Direction: Down, MinPoints: 1}
	got, err := down.Apply(rows)
	require.NoError(t, err)
	assert.Equal(t, []float64{20, 25, 30}, pressures(got))

	up := CastDirection{Direction: Up, MinPoints: 1}
	got, err = up.Apply(rows)
	require.NoError(t, err)
	assert.Equal(t, []float64{15}, pressures(got))
	assert.Equal(t, "-up", got[0].Notes)
}

func TestCastDirection_MinPointsBoundary(t *testing.T) {
	// n+1 increasing samples give n positive differences.
	ramp := func(n int) []domain.Row {
		p := make([]float64, n+1)
		for i := range p {
			p[i] = float64(10 * i)
		}
		return profile(p...)
	}

	_, err := NewCastDirection(Down).Apply(ramp(9))
	require.ErrorIs(t, err, domain.ErrInsufficientPoints)

	got, err := NewCastDirection(Down).Apply(ramp(10))
	require.NoError(t, err)
	assert.Len(t, got, 10)

	_, err = NewCastDirection(Up).Apply(ramp(20))
	assert.ErrorIs(t, err, domain.ErrInsufficientPoints, "a pure down-cast has no up points")
}

func TestCastDirection_SortsAndAnnotates(t *testing.T) {
	// An up-cast: pressure falls from 100 to 0 with one reversal.
	rows := profile(100, 90, 80, 85, 70, 60, 50, 40, 30, 20, 10, 0)
	rows[3].Notes = "x"

	got, err := NewCastDirection(Up).Apply(rows)
	require.NoError(t, err)

	assert.Equal(t, []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90}, pressures(got))
	for _, r := range got {
		assert.Equal(t, "-up", r.Notes)
	}
	assert.Equal(t, "x", rows[3].Notes, "input rows are not modified")
	assert.Equal(t, 100.0, rows[0].Pressure)
}

func TestChain_DropsIncompleteFirst(t *testing.T) {
	rows := profile(10, 20, 30)
	rows[1].Salinity = math.NaN()

	got, err := Chain{}.Apply(rows)
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 30}, pressures(got))
}

func TestChain_AppliesInOrder(t *testing.T) {
	rows := profile(300, 290, 280, 275, 270, 265, 262, 261, 259, 250, 200, 150, 100, 50, 0)

	chain := Chain{PressureRange(0, 400), NewCastDirection(Up)}
	got, err := chain.Apply(rows)
	require.NoError(t, err)
	assert.Len(t, got, 13, "first row of the remaining profile is dropped")

	chain = Chain{PressureRange(260, 280), NewCastDirection(Up)}
	_, err = chain.Apply(rows)
	require.ErrorIs(t, err, domain.ErrInsufficientPoints)
	assert.Contains(t, err.Error(), "cast_direction")
}

func TestChain_WithMinPoints(t *testing.T) {
	chain := Chain{PressureRange(0, 1), NewCastDirection(Down)}

	got := chain.WithMinPoints(3)

	assert.Equal(t, 3, got[1].(CastDirection).MinPoints)
	assert.Equal(t, DefaultMinPoints, chain[1].(CastDirection).MinPoints)
	assert.Equal(t, []string{"pressure_range", "cast_direction"}, got.Names())
}

func TestParseDirection(t *testing.T) {
	d, err := ParseDirection("up")
	require.NoError(t, err)
	assert.Equal(t, Up, d)

	_, err = ParseDirection("sideways")
	assert.Error(t, err)
}

func TestParseConfig(t *testing.T) {
	src := []byte(`
cast_direction: down
p_range: [280, 260]
T_range: [-2, 2]
salinity_range: [30, 35]
white_list:
  AIDJEX: {BigBear: [1, "3"]}
  ITP: {2: [7]}
`)
	cfg, err := ParseConfig(src)
	require.NoError(t, err)

	want := Chain{
		NewCastDirection(Down),
		PressureRange(260, 280),
		TemperatureRange(-2, 2),
		SalinityRange(30, 35),
	}
	if diff := cmp.Diff(want, cfg.Filters); diff != "" {
		t.Errorf("filters mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, exclusion.AllowList{
		domain.SourceAIDJEX: {"BigBear": {"1", "3"}},
		domain.SourceITP:    {"2": {"7"}},
	}, cfg.Allow)
}

func TestParseConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown filter", "interpolate: 1.0"},
		{"one bound", "pressure_range: [260]"},
		{"bad direction", "cast_direction: sideways"},
		{"non-numeric bound", "T_range: [a, b]"},
		{"unknown source", "white_list: {WHOI: {x: [1]}}"},
		{"profiles not a list", "white_list: {ITP: {2: 7}}"},
		{"not a mapping", "- p_range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.src))
			assert.Error(t, err)
		})
	}
}

func TestParseConfig_Empty(t *testing.T) {
	cfg, err := ParseConfig(nil)
	require.NoError(t, err)
	assert.Empty(t, cfg.Filters)
	assert.Nil(t, cfg.Allow)
}
