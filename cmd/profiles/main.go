// Command profiles runs every plot record in PLOTS_FILE: load the requested
// sources from DATA_ROOT, filter, render into OUTPUT_DIR and optionally
// export the table to SQLite and CSV.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/couchcryptid/arctic-profile-etl/internal/config"
	"github.com/couchcryptid/arctic-profile-etl/internal/domain"
	"github.com/couchcryptid/arctic-profile-etl/internal/exclusion"
	"github.com/couchcryptid/arctic-profile-etl/internal/export"
	"github.com/couchcryptid/arctic-profile-etl/internal/format"
	"github.com/couchcryptid/arctic-profile-etl/internal/observability"
	"github.com/couchcryptid/arctic-profile-etl/internal/pipeline"
	"github.com/couchcryptid/arctic-profile-etl/internal/render"
	"github.com/couchcryptid/arctic-profile-etl/internal/stats"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	plots, err := config.LoadPlots(cfg.PlotsFile)
	if err != nil {
		logger.Error("failed to load plot records", "error", err)
		os.Exit(1)
	}

	policy := exclusion.NewPolicy(exclusion.KnownBad())
	asm := pipeline.New(os.DirFS(cfg.DataRoot), format.NewRegistry(policy), logger, metrics, cfg.MinDirectionPoints)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	r := &runner{cfg: cfg, asm: asm, logger: logger}
	err = r.run(ctx, plots)
	stop()

	if cfg.MetricsTextfile != "" {
		if werr := observability.WriteTextfile(cfg.MetricsTextfile); werr != nil {
			logger.Error("metrics textfile write error", "path", cfg.MetricsTextfile, "error", werr)
		}
	}

	switch {
	case errors.Is(err, context.Canceled):
		logger.Info("interrupted", "rendered", r.rendered, "plots", len(plots))
		os.Exit(1)
	case err != nil:
		logger.Error("batch aborted", "error", err, "rendered", r.rendered, "plots", len(plots))
		os.Exit(1)
	}
	logger.Info("batch complete", "rendered", r.rendered, "output_dir", cfg.OutputDir)
}

type runner struct {
	cfg      *config.Config
	asm      *pipeline.Assembler
	logger   *slog.Logger
	rendered int
}

// run processes plot records in file order. A missing source directory or a
// load that yields no rows ends the batch.
func (r *runner) run(ctx context.Context, plots []config.Plot) error {
	for _, p := range plots {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.plot(ctx, p); err != nil {
			return err
		}
		r.rendered++
	}
	return nil
}

func (r *runner) plot(ctx context.Context, p config.Plot) error {
	log := r.logger.With("plot", p.Name, "kind", p.Kind)

	tbl, err := r.asm.Load(ctx, p.Requests(), p.Filters)
	if err != nil {
		return err
	}

	summary := stats.Summarize(tbl)
	for _, c := range summary.Columns {
		log.Debug("column summary", "column", c.Name, "count", c.Count, "min", c.Min, "max", c.Max, "mean", c.Mean, "stddev", c.StdDev)
	}

	path, err := render.Render(tbl, p, r.cfg.OutputDir)
	switch {
	case errors.Is(err, render.ErrNothingToPlot):
		log.Warn("nothing to plot", "error", err)
	case err != nil:
		return err
	default:
		log.Info("plot written", "path", path, "rows", summary.Rows, "profiles", summary.Profiles, "notes", tbl.Notes())
	}

	return r.export(ctx, p.Name, tbl, log)
}

// export writes the optional SQLite and CSV hand-offs. After an interrupt an
// in-flight export still gets ShutdownTimeout to finish.
func (r *runner) export(ctx context.Context, name string, tbl *domain.Table, log *slog.Logger) error {
	if r.cfg.ExportSQLite != "" {
		exportCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.cfg.ShutdownTimeout)
		start := time.Now()
		err := export.WriteSQLite(exportCtx, r.cfg.ExportSQLite, name, tbl)
		cancel()
		if err != nil {
			return err
		}
		log.Info("sqlite export written", "path", r.cfg.ExportSQLite, "run_id", tbl.RunID, "duration", time.Since(start))
	}
	if r.cfg.ExportCSVDir != "" {
		path, err := export.WriteCSVFile(r.cfg.ExportCSVDir, name, tbl)
		if err != nil {
			return err
		}
		log.Info("csv export written", "path", path)
	}
	return nil
}
