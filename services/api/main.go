package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/hydrolab-nz/hydro-dataset-viewer/services/api/catalog"
	"github.com/hydrolab-nz/hydro-dataset-viewer/services/api/config"
	"github.com/hydrolab-nz/hydro-dataset-viewer/services/api/db"
	"github.com/hydrolab-nz/hydro-dataset-viewer/services/api/geo"
	httpserver "github.com/hydrolab-nz/hydro-dataset-viewer/services/api/http"
	"github.com/hydrolab-nz/hydro-dataset-viewer/services/api/logging"
	"github.com/hydrolab-nz/hydro-dataset-viewer/services/api/wq"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := db.New(ctx, cfg.DBDriver, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("db connection error", zap.Error(err))
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

	// Left as a nil interface when the secondary catalog is off.
	var client catalog.MeasurementClient
	if cfg.SecondaryEnabled() {
		wqClient, err := wq.NewClient(wq.Config{
			BaseURL:     cfg.WQBaseURL,
			DatasetFile: cfg.WQDatasetFile,
			Timeout:     cfg.WQRequestTimeout,
			Breaker:     wq.DefaultBreakerSettings,
		}, nil, logger)
		if err != nil {
			logger.Fatal("measurement service client error", zap.Error(err))
		}
		client = wqClient
	}
	fetcher := catalog.NewFetcher(store, client, cfg.SyntheticIDOffset, cfg.WQFetchConcurrency, logger)

	srv := httpserver.New(cfg, assembler, fetcher, logger)
	if _, err := srv.Reload(ctx); err != nil {
		logger.Fatal("initial summary index load failed", zap.Error(err))
	}

	logger.Info("REST API listening",
		zap.String("addr", cfg.ListenAddr()),
		zap.String("db_driver", store.Driver()),
		zap.Bool("secondary_catalog", secondary.Enabled))

	if err := srv.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
