package pipeline_test

import (
	"context"
	"io"
	"io/fs"
	"log/slog"
	"math"
	"testing"
	"testing/fstest"
	"time"

	"github.com/couchcryptid/arctic-profile-etl/internal/domain"
	"github.com/couchcryptid/arctic-profile-etl/internal/exclusion"
	"github.com/couchcryptid/arctic-profile-etl/internal/filter"
	"github.com/couchcryptid/arctic-profile-etl/internal/fixture"
	"github.com/couchcryptid/arctic-profile-etl/internal/format"
	"github.com/couchcryptid/arctic-profile-etl/internal/observability"
	"github.com/couchcryptid/arctic-profile-etl/internal/pipeline"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	castTime = time.Date(1975, time.April, 12, 13, 5, 0, 0, time.UTC)
	itpTime  = time.Date(2018, time.March, 2, 12, 0, 0, 0, time.UTC)
)

const castLen = 15

func down(number int, t time.Time) fixture.Cast {
	return fixture.Synthetic(number, t, -150.25, 75.5, castLen, 2, false)
}

func up(number int, t time.Time) fixture.Cast {
	return fixture.Synthetic(number, t, -140.75, 77.25, castLen, 2, true)
}

func newAssembler(t *testing.T, fsys fstest.MapFS, minPoints int) (*pipeline.Assembler, *observability.Metrics) {
	t.Helper()
	metrics := observability.NewMetricsForTesting()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	parsers := format.NewRegistry(exclusion.NewPolicy(exclusion.KnownBad()))
	return pipeline.New(fsys, parsers, logger, metrics, minPoints), metrics
}

func mixedTree(t *testing.T) fixture.Tree {
	t.Helper()
	tree := fixture.Tree{}
	tree.AddAIDJEX("BigBear", down(1, castTime), down(2, castTime.Add(6*time.Hour)))
	tree.AddFinal("1", down(1, itpTime))
	require.NoError(t, tree.AddCormat("3", false, up(1, itpTime), down(2, itpTime)))
	require.NoError(t, tree.AddCormat("3", true, up(3, itpTime)))
	return tree
}

func TestAssembler_Load_MixedSources(t *testing.T) {
	a, metrics := newAssembler(t, mixedTree(t).FS(), 10)

	tbl, err := a.Load(context.Background(), []domain.SourceRequest{
		domain.ITP("1", domain.FormatFinal),
		domain.AIDJEX("BigBear"),
		domain.ITP("3", domain.FormatCormat),
	}, filter.Config{})
	require.NoError(t, err)

	assert.Equal(t, 5*castLen, tbl.Len())
	assert.Equal(t, []domain.ProfileKey{
		{Source: domain.SourceITP, Instrument: "1", ProfileNumber: "1"},
		{Source: domain.SourceAIDJEX, Instrument: "BigBear", ProfileNumber: "1"},
		{Source: domain.SourceAIDJEX, Instrument: "BigBear", ProfileNumber: "2"},
		{Source: domain.SourceITP, Instrument: "3", ProfileNumber: "1"},
		{Source: domain.SourceITP, Instrument: "3", ProfileNumber: "3"},
	}, tbl.Profiles())
	assert.Equal(t, []domain.Source{domain.SourceITP, domain.SourceAIDJEX}, tbl.Sources())
	assert.Equal(t, []string{"1", "BigBear", "3"}, tbl.Instruments())

	first := tbl.Rows()[0]
	assert.Equal(t, domain.FormatFinal, first.Format)
	require.NotNil(t, first.Timestamp)
	assert.True(t, itpTime.Equal(*first.Timestamp), "got %s", first.Timestamp)

	aidjex := tbl.ProfileRows(domain.ProfileKey{Source: domain.SourceAIDJEX, Instrument: "BigBear", ProfileNumber: "1"})
	require.Len(t, aidjex, castLen)
	assert.Empty(t, aidjex[0].FormatTag())
	require.NotNil(t, aidjex[0].Timestamp)
	assert.True(t, castTime.Equal(*aidjex[0].Timestamp))
	require.NotNil(t, aidjex[0].Longitude)
	assert.InDelta(t, -150.25, *aidjex[0].Longitude, 1e-9)

	legacy := tbl.ProfileRows(domain.ProfileKey{Source: domain.SourceITP, Instrument: "3", ProfileNumber: "3"})
	require.Len(t, legacy, castLen)
	assert.Equal(t, "cormat", legacy[0].FormatTag())

	assert.InDelta(t, 2, testutil.ToFloat64(metrics.Profiles.WithLabelValues("AIDJEX", "accepted")), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(metrics.Profiles.WithLabelValues("ITP", "accepted")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.Profiles.WithLabelValues("ITP", "skipped")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.ProfilesSkipped.WithLabelValues(domain.ReasonDownCast)), 0)
	assert.InDelta(t, 4, testutil.ToFloat64(metrics.FilesDiscovered.WithLabelValues("ITP")), 0)
	assert.InDelta(t, float64(5*castLen), testutil.ToFloat64(metrics.RowsLoaded), 0)
	assert.InDelta(t, float64(5*castLen), testutil.ToFloat64(metrics.TableRows), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.LoadRunning), 0)
}

func TestAssembler_Load_DropsIncompleteRows(t *testing.T) {
	c := down(1, castTime)
	c.Temperature[3] = math.NaN()
	c.Salinity[7] = math.NaN()
	tree := fixture.Tree{}
	tree.AddAIDJEX("BigBear", c)

	a, _ := newAssembler(t, tree.FS(), 10)
	tbl, err := a.Load(context.Background(), []domain.SourceRequest{domain.AIDJEX("BigBear")}, filter.Config{})
	require.NoError(t, err)

	assert.Equal(t, castLen-2, tbl.Len())
	for _, r := range tbl.Rows() {
		assert.True(t, r.Complete())
	}
}

func TestAssembler_Load_DenyWinsOverAllow(t *testing.T) {
	tree := fixture.Tree{}
	tree.AddAIDJEX("BigBear", down(1, castTime), down(531, castTime), down(7, castTime))

	a, metrics := newAssembler(t, tree.FS(), 10)
	tbl, err := a.Load(context.Background(), []domain.SourceRequest{domain.AIDJEX("BigBear")}, filter.Config{
		Allow: exclusion.AllowList{domain.SourceAIDJEX: {"BigBear": {"1", "531"}}},
	})
	require.NoError(t, err)

	assert.Equal(t, []domain.ProfileKey{
		{Source: domain.SourceAIDJEX, Instrument: "BigBear", ProfileNumber: "1"},
	}, tbl.Profiles())
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.ProfilesSkipped.WithLabelValues(domain.ReasonDenyListed)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.ProfilesSkipped.WithLabelValues(domain.ReasonNotAllowed)), 0)
}

func TestAssembler_Load_NoData(t *testing.T) {
	tree := fixture.Tree{}
	tree.AddAIDJEX("Snowbird", down(443, castTime))

	a, _ := newAssembler(t, tree.FS(), 10)
	_, err := a.Load(context.Background(), []domain.SourceRequest{domain.AIDJEX("Snowbird")}, filter.Config{})
	require.ErrorIs(t, err, domain.ErrNoData)
}

func TestAssembler_Load_EmptyDirectory(t *testing.T) {
	fsys := fstest.MapFS{"AIDJEX/AIDJEX/Caribou": &fstest.MapFile{Mode: fs.ModeDir | 0o755}}

	a, _ := newAssembler(t, fsys, 10)
	_, err := a.Load(context.Background(), []domain.SourceRequest{domain.AIDJEX("Caribou")}, filter.Config{})
	require.ErrorIs(t, err, domain.ErrNoData)
}

func TestAssembler_Load_SourceNotFound(t *testing.T) {
	tree := fixture.Tree{}
	tree.AddAIDJEX("BigBear", down(1, castTime))

	a, _ := newAssembler(t, tree.FS(), 10)
	_, err := a.Load(context.Background(), []domain.SourceRequest{
		domain.AIDJEX("BigBear"),
		domain.ITP("99", domain.FormatFinal),
	}, filter.Config{})
	require.ErrorIs(t, err, domain.ErrSourceNotFound)
	assert.Contains(t, err.Error(), "ITP-99-final")
}

func TestAssembler_Load_CastDirection(t *testing.T) {
	tree := fixture.Tree{}
	tree.AddFinal("1", up(1, itpTime), down(2, itpTime))

	a, metrics := newAssembler(t, tree.FS(), 10)
	tbl, err := a.Load(context.Background(), []domain.SourceRequest{domain.ITP("1", domain.FormatFinal)}, filter.Config{
		Filters: filter.Chain{filter.NewCastDirection(filter.Up)},
	})
	require.NoError(t, err)

	// The first sample has no predecessor and is dropped.
	require.Equal(t, castLen-1, tbl.Len())
	assert.Equal(t, "-up", tbl.Notes())
	p := tbl.Column(domain.ColumnPressure)
	for i := 1; i < len(p); i++ {
		assert.Less(t, p[i-1], p[i])
	}
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.ProfilesSkipped.WithLabelValues(domain.ReasonTooFewPoints)), 0)
}

func TestAssembler_Load_MinPointsOverride(t *testing.T) {
	tree := fixture.Tree{}
	tree.AddFinal("1", up(1, itpTime))

	a, _ := newAssembler(t, tree.FS(), castLen+5)
	_, err := a.Load(context.Background(), []domain.SourceRequest{domain.ITP("1", domain.FormatFinal)}, filter.Config{
		Filters: filter.Chain{filter.NewCastDirection(filter.Up)},
	})
	require.ErrorIs(t, err, domain.ErrNoData)
}

func TestAssembler_Load_Cancelled(t *testing.T) {
	a, _ := newAssembler(t, mixedTree(t).FS(), 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := a.Load(ctx, []domain.SourceRequest{domain.AIDJEX("BigBear")}, filter.Config{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestAssembler_Load_StampsTable(t *testing.T) {
	loadedAt := time.Date(2024, time.June, 1, 9, 30, 0, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(loadedAt))
	t.Cleanup(func() { domain.SetClock(nil) })

	a, _ := newAssembler(t, mixedTree(t).FS(), 10)
	first, err := a.Load(context.Background(), []domain.SourceRequest{domain.AIDJEX("BigBear")}, filter.Config{})
	require.NoError(t, err)
	second, err := a.Load(context.Background(), []domain.SourceRequest{domain.AIDJEX("BigBear")}, filter.Config{})
	require.NoError(t, err)

	assert.Equal(t, loadedAt, first.LoadedAt)
	assert.NotEmpty(t, first.RunID)
	assert.NotEqual(t, first.RunID, second.RunID)
}
