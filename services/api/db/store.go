package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hydrolab-nz/hydro-dataset-viewer/services/api/catalog"
	"github.com/hydrolab-nz/hydro-dataset-viewer/services/api/metrics"
)

const (
	DriverPostgres  = "postgres"
	DriverSQLServer = "sqlserver"
)

// rows is the cursor shape shared by pgx and database/sql.
type rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

// backend runs SQL against one driver.
type backend interface {
	Query(ctx context.Context, sql string, args ...any) (rows, error)
	Ping(ctx context.Context) error
	Close()
}

// Store wraps database access helpers. It implements catalog.Store.
type Store struct {
	be      backend
	dialect dialect
	logger  *zap.Logger
}

var _ catalog.Store = (*Store)(nil)

// New opens a Store for driver ("postgres" or "sqlserver").
func New(ctx context.Context, driver, databaseURL string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var (
		be  backend
		err error
	)
	switch driver {
	case DriverPostgres, "":
		be, err = openPostgres(ctx, databaseURL)
		driver = DriverPostgres
	case DriverSQLServer:
		be, err = openSQLServer(ctx, databaseURL)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	logger.Named("db").Info("connected to tabular store", zap.String("driver", driver))
	return newStore(be, dialectFor(driver), logger), nil
}

func newStore(be backend, d dialect, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{be: be, dialect: d, logger: logger.Named("db")}
}

// Close releases the pool resources.
func (s *Store) Close() {
	if s.be != nil {
		s.be.Close()
	}
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.be.Ping(ctx)
}

// Driver names the SQL dialect in use.
func (s *Store) Driver() string { return s.dialect.name }

func (s *Store) query(ctx context.Context, op, sql string, args []any, scan func(rows) error) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveQuery(s.dialect.name, op, start, err) }()

	r, err := s.be.Query(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer r.Close()

	for r.Next() {
		if err = scan(r); err != nil {
			return fmt.Errorf("%s: scan: %w", op, err)
		}
	}
	if err = r.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

const datasetTypesSQL = `
    SELECT DatasetTypeID, Feature, MeasurementType, CollectionType, DataCode, DataProvider
    FROM vDatasetTypeNamesActive`

// DatasetTypes returns the active primary dataset types matching filters.
func (s *Store) DatasetTypes(ctx context.Context, f catalog.FacetFilters) ([]catalog.PrimaryDataset, error) {
	q := s.dialect.newQuery()
	conds := make([]string, 0, 5)
	for _, facet := range []struct {
		col string
		set catalog.FacetSet
	}{
		{"Feature", f.Features},
		{"MeasurementType", f.MeasurementTypes},
		{"CollectionType", f.CollectionTypes},
		{"DataCode", f.DataCodes},
		{"DataProvider", f.DataProviders},
	} {
		if len(facet.set) > 0 {
			conds = append(conds, inList(q, facet.col, facet.set.Values()))
		}
	}
	sql := datasetTypesSQL + where(conds) + " ORDER BY DatasetTypeID"

	out := make([]catalog.PrimaryDataset, 0)
	err := s.query(ctx, "dataset_types", sql, q.args, func(r rows) error {
		var d catalog.PrimaryDataset
		if err := r.Scan(&d.ID, &d.Feature, &d.MeasurementType, &d.CollectionType, &d.DataCode, &d.DataProvider); err != nil {
			return err
		}
		out = append(out, d)
		return nil
	})
	return out, err
}

const measurementTypesSQL = `
    SELECT MeasurementType, COALESCE(Units, '')
    FROM MeasurementType
    ORDER BY MeasurementType`

// MeasurementTypes returns the primary measurement-type lookup.
func (s *Store) MeasurementTypes(ctx context.Context) ([]catalog.MeasurementUnit, error) {
	out := make([]catalog.MeasurementUnit, 0)
	err := s.query(ctx, "measurement_types", measurementTypesSQL, nil, func(r rows) error {
		var m catalog.MeasurementUnit
		if err := r.Scan(&m.MeasurementType, &m.Units); err != nil {
			return err
		}
		out = append(out, m)
		return nil
	})
	return out, err
}

const primarySummariesSQL = `
    SELECT ExtSiteID, DatasetTypeID, Min, Mean, Median, Max, Count, FromDate, ToDate
    FROM TSDataNumericDailySumm`

// PrimarySummaries returns the per-site statistics for datasetIDs.
func (s *Store) PrimarySummaries(ctx context.Context, datasetIDs []int) ([]catalog.PrimarySummary, error) {
	out := make([]catalog.PrimarySummary, 0)
	if len(datasetIDs) == 0 {
		return out, nil
	}
	q := s.dialect.newQuery()
	sql := primarySummariesSQL + where([]string{inList(q, "DatasetTypeID", datasetIDs)}) + " ORDER BY DatasetTypeID, ExtSiteID"

	err := s.query(ctx, "primary_summaries", sql, q.args, func(r rows) error {
		var p catalog.PrimarySummary
		if err := r.Scan(&p.SiteID, &p.DatasetTypeID, &p.Min, &p.Mean, &p.Median, &p.Max, &p.Count, &p.FromDate, &p.ToDate); err != nil {
			return err
		}
		out = append(out, p)
		return nil
	})
	return out, err
}

const sitesSQL = `
    SELECT ExtSiteID, ExtSiteName, CAST(NZTMX AS float), CAST(NZTMY AS float)
    FROM ExternalSite`

// Sites returns the site metadata for siteIDs. Long id lists are split to
// stay under the dialect's parameter limit.
func (s *Store) Sites(ctx context.Context, siteIDs []string) ([]catalog.SiteRecord, error) {
	out := make([]catalog.SiteRecord, 0, len(siteIDs))
	for _, ids := range chunk(siteIDs, s.dialect.maxListParams) {
		q := s.dialect.newQuery()
		sql := sitesSQL + where([]string{inList(q, "ExtSiteID", ids)})

		err := s.query(ctx, "sites", sql, q.args, func(r rows) error {
			var rec catalog.SiteRecord
			if err := r.Scan(&rec.ExternalID, &rec.Name, &rec.Easting, &rec.Northing); err != nil {
				return err
			}
			out = append(out, rec)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

const observationsSQL = `
    SELECT ExtSiteID, DateTime, Value
    FROM TSDataNumericDaily`

// Observations returns the raw values of one dataset at siteIDs within
// [from, to], ordered by site then time.
func (s *Store) Observations(ctx context.Context, datasetID int, siteIDs []string, from, to time.Time) ([]catalog.Observation, error) {
	out := make([]catalog.Observation, 0)
	for _, ids := range chunk(siteIDs, s.dialect.maxListParams-3) {
		q := s.dialect.newQuery()
		conds := []string{
			"DatasetTypeID = " + q.bind(datasetID),
			inList(q, "ExtSiteID", ids),
			"DateTime >= " + q.bind(from),
			"DateTime <= " + q.bind(to),
		}
		sql := observationsSQL + where(conds) + " ORDER BY ExtSiteID, DateTime"

		err := s.query(ctx, "observations", sql, q.args, func(r rows) error {
			var o catalog.Observation
			if err := r.Scan(&o.SiteID, &o.Timestamp, &o.Value); err != nil {
				return err
			}
			out = append(out, o)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

const secondaryMeasurementsSQL = `
    SELECT MeasurementID, MeasurementType, COALESCE(Units, '')
    FROM WQMeasurementType`

// SecondaryMeasurements returns the water-quality measurements named in
// measurementTypes, or all of them when the list is empty.
func (s *Store) SecondaryMeasurements(ctx context.Context, measurementTypes []string) ([]catalog.SecondaryMeasurement, error) {
	q := s.dialect.newQuery()
	var conds []string
	if len(measurementTypes) > 0 {
		conds = append(conds, inList(q, "MeasurementType", measurementTypes))
	}
	sql := secondaryMeasurementsSQL + where(conds) + " ORDER BY MeasurementID"

	out := make([]catalog.SecondaryMeasurement, 0)
	err := s.query(ctx, "wq_measurement_types", sql, q.args, func(r rows) error {
		var m catalog.SecondaryMeasurement
		if err := r.Scan(&m.MeasurementID, &m.MeasurementType, &m.Units); err != nil {
			return err
		}
		out = append(out, m)
		return nil
	})
	return out, err
}

const secondarySitePairsSQL = `
    SELECT DISTINCT ExtSiteID, MeasurementID
    FROM WQMeasurementSumm`

// SecondarySitePairs returns the distinct sites sampled for each measurement.
func (s *Store) SecondarySitePairs(ctx context.Context, measurementIDs []int, recordType string) ([]catalog.SecondarySitePair, error) {
	out := make([]catalog.SecondarySitePair, 0)
	if len(measurementIDs) == 0 {
		return out, nil
	}
	q := s.dialect.newQuery()
	conds := []string{
		"RecordType = " + q.bind(recordType),
		inList(q, "MeasurementID", measurementIDs),
	}
	sql := secondarySitePairsSQL + where(conds) + " ORDER BY MeasurementID, ExtSiteID"

	err := s.query(ctx, "wq_site_pairs", sql, q.args, func(r rows) error {
		var p catalog.SecondarySitePair
		if err := r.Scan(&p.SiteID, &p.MeasurementID); err != nil {
			return err
		}
		out = append(out, p)
		return nil
	})
	return out, err
}

const secondarySummariesSQL = `
    SELECT COALESCE(s.ExtSiteID, ''), s.MeasurementID, COALESCE(m.MeasurementType, ''), COALESCE(m.Units, ''), s.FromDate, s.ToDate
    FROM WQMeasurementSumm s
    LEFT JOIN WQMeasurementType m ON m.MeasurementID = s.MeasurementID`

// SecondarySummaries returns the water-quality availability windows.
func (s *Store) SecondarySummaries(ctx context.Context, measurementIDs []int, recordType string) ([]catalog.SecondarySummary, error) {
	out := make([]catalog.SecondarySummary, 0)
	if len(measurementIDs) == 0 {
		return out, nil
	}
	q := s.dialect.newQuery()
	conds := []string{
		"s.RecordType = " + q.bind(recordType),
		inList(q, "s.MeasurementID", measurementIDs),
	}
	sql := secondarySummariesSQL + where(conds) + " ORDER BY s.MeasurementID, s.ExtSiteID"

	err := s.query(ctx, "wq_summaries", sql, q.args, func(r rows) error {
		var w catalog.SecondarySummary
		if err := r.Scan(&w.SiteID, &w.MeasurementID, &w.MeasurementType, &w.Units, &w.FromDate, &w.ToDate); err != nil {
			return err
		}
		out = append(out, w)
		return nil
	})
	return out, err
}

func where(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return "\n    WHERE " + strings.Join(conds, " AND ")
}
