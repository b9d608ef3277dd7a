package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/hydrolab-nz/hydro-dataset-viewer/services/api/catalog"
	"github.com/hydrolab-nz/hydro-dataset-viewer/services/api/db"
	"github.com/hydrolab-nz/hydro-dataset-viewer/services/api/geo"
	"github.com/hydrolab-nz/hydro-dataset-viewer/services/api/logging"
	"github.com/hydrolab-nz/hydro-dataset-viewer/services/api/wq"
	"github.com/hydrolab-nz/hydro-dataset-viewer/services/exporter/internal/config"
	"github.com/hydrolab-nz/hydro-dataset-viewer/services/exporter/internal/report"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("exporter failed: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	store, err := db.New(ctx, cfg.DBDriver, cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	secondary := catalog.SecondaryConfig{
		Enabled:              cfg.SecondaryEnabled(),
		DataProvider:         cfg.WQProvider,
		RecordType:           cfg.WQRecordType,
		SurfaceWaterPatterns: cfg.SurfaceWaterPatterns,
	}
	resolver := catalog.NewResolver(store, secondary, cfg.SyntheticIDOffset, logger)
	assembler := catalog.NewAssembler(resolver, store, geo.MustNZTM2000(), logger)

	snap, err := assembler.Assemble(ctx, cfg.FacetFilters())
	if err != nil {
		return err
	}
	logger.Info("summary index loaded",
		zap.Int("rows", snap.Len()),
		zap.Int("orphaned_rows", snap.Reconciliation().OrphanedRows))

	criteria, err := cfg.Criteria(snap.DefaultCriteria())
	if err != nil {
		return err
	}
	rows := snap.Filter(criteria)
	fmt.Println(report.SummaryTable(rows))

	if cfg.DryRun {
		logger.Info("dry-run: skipping summary csv", zap.Int("rows", len(rows)))
	} else if err := writeFile(cfg.OutputDir, "summary.csv", func(w io.Writer) error {
		return catalog.WriteSummaryCSV(w, rows)
	}); err != nil {
		return err
	}

	if cfg.DatasetID == 0 {
		return nil
	}

	var client catalog.MeasurementClient
	if cfg.SecondaryEnabled() {
		wqClient, err := wq.NewClient(wq.Config{
			BaseURL:     cfg.WQBaseURL,
			DatasetFile: cfg.WQDatasetFile,
			Timeout:     cfg.WQRequestTimeout,
			Breaker:     wq.DefaultBreakerSettings,
		}, nil, logger)
		if err != nil {
			return err
		}
		client = wqClient
	}
	fetcher := catalog.NewFetcher(store, client, cfg.SyntheticIDOffset, cfg.WQFetchConcurrency, logger)

	dataset, ok := snap.DatasetType(cfg.DatasetID)
	if !ok {
		return fmt.Errorf("%w: %d", catalog.ErrDatasetNotFound, cfg.DatasetID)
	}
	sites := cfg.Sites
	if len(sites) == 0 {
		for _, r := range rows {
			if r.DatasetType.ID == cfg.DatasetID {
				sites = append(sites, r.ExternalID)
			}
		}
	}

	series, err := fetcher.FetchSelection(ctx, snap, cfg.DatasetID, sites, criteria.Start, criteria.End, cfg.DTLMethod)
	if err != nil {
		return err
	}
	fmt.Println(report.SeriesTable(dataset, series))

	if cfg.DryRun {
		logger.Info("dry-run: skipping time series csv", zap.Int("observations", len(series)))
		return nil
	}
	return writeFile(cfg.OutputDir, "time_series.csv", func(w io.Writer) error {
		return catalog.WriteTimeSeriesCSV(w, series)
	})
}

func writeFile(dir, name string, write func(io.Writer) error) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	log.Printf("wrote %s", path)
	return nil
}
