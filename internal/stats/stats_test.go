package stats

import (
	"math"
	"testing"
	"time"

	"github.com/couchcryptid/arctic-profile-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	col := Describe(domain.ColumnTemperature, []float64{2, 4, math.NaN(), 4, 5, 5, 7, 9, 4})

	assert.Equal(t, 8, col.Count)
	assert.InDelta(t, 2, col.Min, 0)
	assert.InDelta(t, 9, col.Max, 0)
	assert.InDelta(t, 5, col.Mean, 1e-12)
	// Sample standard deviation of {2,4,4,4,5,5,7,9}.
	assert.InDelta(t, math.Sqrt(32.0/7), col.StdDev, 1e-12)
}

func TestDescribe_AllAbsent(t *testing.T) {
	col := Describe(domain.ColumnLongitude, []float64{math.NaN(), math.NaN()})

	assert.Zero(t, col.Count)
	assert.True(t, math.IsNaN(col.Min))
	assert.True(t, math.IsNaN(col.Mean))
}

func TestSummarize(t *testing.T) {
	lon, lat := -150.0, 75.0
	ts := time.Date(1975, time.April, 12, 0, 0, 0, 0, time.UTC)
	h := domain.ProfileHeader{Source: domain.SourceAIDJEX, Instrument: "BigBear", ProfileNumber: "1", Format: domain.FormatAIDJEX, Longitude: &lon, Latitude: &lat, Timestamp: &ts}
	p1 := domain.NewProfile(h, []float64{-1, 0}, []float64{30, 31}, []float64{10, 20})
	h.ProfileNumber, h.Longitude, h.Latitude = "2", nil, nil
	p2 := domain.NewProfile(h, []float64{1}, []float64{32}, []float64{30})

	tbl := domain.NewTable("run", append(p1.Rows, p2.Rows...))
	s := Summarize(tbl)

	assert.Equal(t, 3, s.Rows)
	assert.Equal(t, 2, s.Profiles)
	require.Len(t, s.Columns, len(Columns))

	p, ok := s.Get(domain.ColumnPressure)
	require.True(t, ok)
	assert.Equal(t, 3, p.Count)
	assert.InDelta(t, 20, p.Mean, 1e-12)

	lonCol, ok := s.Get(domain.ColumnLongitude)
	require.True(t, ok)
	assert.Equal(t, 2, lonCol.Count)

	_, ok = s.Get(domain.ColumnDate)
	assert.False(t, ok)
}
