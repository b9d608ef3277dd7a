package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hydrolab-nz/hydro-dataset-viewer/services/api/catalog"
	"github.com/hydrolab-nz/hydro-dataset-viewer/services/api/config"
	"github.com/hydrolab-nz/hydro-dataset-viewer/services/api/logging"
	"github.com/hydrolab-nz/hydro-dataset-viewer/services/api/metrics"
)

// SnapshotLoader builds a fresh summary index.
type SnapshotLoader interface {
	Assemble(ctx context.Context, filters catalog.FacetFilters) (*catalog.Snapshot, error)
}

// SeriesFetcher retrieves observations for a selection in a snapshot.
type SeriesFetcher interface {
	FetchSelection(ctx context.Context, snap *catalog.Snapshot, datasetID int, sites []string, start, end catalog.Date, dtl catalog.DetectionLimitMethod) ([]catalog.TimeSeriesRow, error)
}

// Server bundles router and dependencies for the REST API.
type Server struct {
	cfg      config.Config
	loader   SnapshotLoader
	fetcher  SeriesFetcher
	snapshot atomic.Pointer[catalog.Snapshot]
	logger   *zap.Logger
	engine   *gin.Engine
}

// New constructs a server with routes and middleware.
func New(cfg config.Config, loader SnapshotLoader, fetcher SeriesFetcher, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	registerValidators()

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(logging.GinMiddleware(logger))
	engine.Use(corsMiddleware())

	server := &Server{cfg: cfg, loader: loader, fetcher: fetcher, logger: logger.Named("server"), engine: engine}
	server.registerRoutes()
	return server
}

// Engine exposes the underlying gin engine (for tests).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Snapshot returns the summary index currently served, or nil before the
// first successful load.
func (s *Server) Snapshot() *catalog.Snapshot {
	return s.snapshot.Load()
}

// Reload assembles a new summary index and swaps it in. On failure the
// previous index keeps serving.
func (s *Server) Reload(ctx context.Context) (*catalog.Snapshot, error) {
	start := time.Now()
	snap, err := s.loader.Assemble(ctx, catalog.FacetFilters{})
	if err != nil {
		metrics.RecordSnapshot(0, 0, 0, err)
		s.logger.Error("summary index load failed", zap.Error(err))
		return nil, err
	}
	metrics.RecordSnapshot(snap.Len(), snap.Reconciliation().OrphanedRows, time.Since(start), nil)
	s.snapshot.Store(snap)
	s.logger.Info("summary index loaded",
		zap.Int("rows", snap.Len()),
		zap.Int("dataset_types", len(snap.DatasetTypes())),
		zap.Duration("took", time.Since(start)))
	return snap, nil
}

// Run starts the HTTP server and blocks until shutdown.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.ListenAddr(),
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		status := "ok"
		if s.Snapshot() == nil {
			status = "loading"
		}
		c.JSON(http.StatusOK, gin.H{"status": status})
	})
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.registerV1Routes()
}

func bearerAuthMiddleware(expected string) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		if token != expected {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func apiVersionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-API-Version", "v1")
		c.Next()
	}
}

// currentSnapshot writes 503 and returns nil until the first load succeeds.
func (s *Server) currentSnapshot(c *gin.Context) *catalog.Snapshot {
	snap := s.Snapshot()
	if snap == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "summary index not loaded"})
	}
	return snap
}

// writeError maps pipeline errors onto HTTP statuses.
func (s *Server) writeError(c *gin.Context, err error) {
	var (
		dse      *catalog.DataSourceError
		mismatch *catalog.SchemaMismatchError
		status   = http.StatusInternalServerError
	)
	switch {
	case errors.Is(err, catalog.ErrDatasetNotFound):
		status = http.StatusNotFound
	case errors.Is(err, catalog.ErrInvalidDateRange),
		errors.Is(err, catalog.ErrMixedDatasets),
		errors.Is(err, catalog.ErrInvalidDetectionLimitMethod):
		status = http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	case errors.As(err, &dse):
		status = http.StatusBadGateway
	case errors.As(err, &mismatch):
		status = http.StatusInternalServerError
	}
	if status >= 500 {
		_ = c.Error(err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
