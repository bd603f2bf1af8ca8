// Package pipeline assembles a Measurement Table from source requests:
// discover files, parse each, filter each profile, concatenate.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"

	"github.com/couchcryptid/arctic-profile-etl/internal/discovery"
	"github.com/couchcryptid/arctic-profile-etl/internal/domain"
	"github.com/couchcryptid/arctic-profile-etl/internal/exclusion"
	"github.com/couchcryptid/arctic-profile-etl/internal/filter"
	"github.com/couchcryptid/arctic-profile-etl/internal/format"
	"github.com/couchcryptid/arctic-profile-etl/internal/observability"
	"github.com/google/uuid"
)

// Parsers resolves the parser for a physical format.
type Parsers interface {
	For(f domain.Format) (format.Parser, error)
}

// Assembler orchestrates discovery, parsing and filtering across requests.
type Assembler struct {
	fsys      fs.FS
	parsers   Parsers
	logger    *slog.Logger
	metrics   *observability.Metrics
	minPoints int
}

// New creates an Assembler reading from fsys, the data root.
func New(fsys fs.FS, parsers Parsers, logger *slog.Logger, metrics *observability.Metrics, minPoints int) *Assembler {
	return &Assembler{
		fsys:      fsys,
		parsers:   parsers,
		logger:    logger,
		metrics:   metrics,
		minPoints: minPoints,
	}
}

// Load builds one table from the requests, in request order. It fails with
// domain.ErrSourceNotFound when a source directory is missing and with
// domain.ErrNoData when no row survives.
func (a *Assembler) Load(ctx context.Context, requests []domain.SourceRequest, cfg filter.Config) (*domain.Table, error) {
	start := domain.Now()
	a.metrics.LoadRunning.Set(1)
	defer a.metrics.LoadRunning.Set(0)

	chain := cfg.Filters
	if a.minPoints > 0 {
		chain = chain.WithMinPoints(a.minPoints)
	}

	var rows []domain.Row
	for _, req := range requests {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		got, err := a.loadSource(ctx, req, chain, cfg.Allow)
		if err != nil {
			return nil, err
		}
		rows = append(rows, got...)
	}

	tbl := domain.NewTable(uuid.NewString(), rows)
	if tbl.Len() == 0 {
		return nil, domain.ErrNoData
	}

	a.metrics.RowsLoaded.Add(float64(tbl.Len()))
	a.metrics.TableRows.Set(float64(tbl.Len()))
	a.metrics.LoadDuration.Observe(domain.Now().Sub(start).Seconds())
	a.logger.Info("load complete",
		"run_id", tbl.RunID,
		"rows", tbl.Len(),
		"profiles", len(tbl.Profiles()),
		"filters", chain.Names(),
	)
	return tbl, nil
}

// loadSource parses and filters every file of one request.
func (a *Assembler) loadSource(ctx context.Context, req domain.SourceRequest, chain filter.Chain, allow exclusion.AllowList) ([]domain.Row, error) {
	parser, err := a.parsers.For(req.Format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", req, err)
	}
	dir := parser.Dir(req.Instrument)
	src := string(req.Source())
	a.logger.Info("loading data", "source", src, "instrument", req.Instrument, "format", req.Format.Tag())

	files, err := discovery.List(a.fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", req, err)
	}
	a.metrics.FilesDiscovered.WithLabelValues(src).Add(float64(len(files)))
	a.logger.Info("loading files", "source", src, "instrument", req.Instrument, "count", len(files))

	var rows []domain.Row
	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res := parser.Parse(a.fsys, path.Join(dir, name), req.Instrument, allow)
		if res.Status == domain.Accepted {
			res = applyFilters(res, chain)
		}

		a.metrics.Profiles.WithLabelValues(src, res.Status.String()).Inc()
		switch res.Status {
		case domain.Skipped:
			a.metrics.ProfilesSkipped.WithLabelValues(res.Reason).Inc()
			a.logger.Info("skipping file", "source", src, "instrument", req.Instrument, "file", name, "reason", res.Reason)
		case domain.Failed:
			a.logger.Warn("parse failed, skipping file", "source", src, "instrument", req.Instrument, "file", name, "error", res.Err)
		case domain.Accepted:
			rows = append(rows, res.Profile.Rows...)
		}
	}
	return rows, nil
}

// applyFilters runs the chain over an accepted profile. Too few points after
// direction filtering turns the result into a skip.
func applyFilters(res domain.Result, chain filter.Chain) domain.Result {
	rows, err := chain.Apply(res.Profile.Rows)
	switch {
	case errors.Is(err, domain.ErrInsufficientPoints):
		return domain.Skip(domain.ReasonTooFewPoints)
	case err != nil:
		return domain.Fail(err)
	}
	p := res.Profile
	p.Rows = domain.DropIncomplete(rows)
	return domain.Accept(p)
}
