package catalog

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Fetcher retrieves raw observations for one dataset at one or more sites.
type Fetcher struct {
	store       Store
	client      MeasurementClient
	offset      int
	concurrency int
	logger      *zap.Logger
}

// NewFetcher wires a fetcher. client may be nil when no secondary catalog is
// configured; concurrency bounds the per-site web-service calls.
func NewFetcher(store Store, client MeasurementClient, offset, concurrency int, logger *zap.Logger) *Fetcher {
	if offset <= 0 {
		offset = DefaultSyntheticIDOffset
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		store:       store,
		client:      client,
		offset:      offset,
		concurrency: concurrency,
		logger:      logger.Named("fetcher"),
	}
}

// Fetch returns the observations for rows within [start, end]. All rows must
// share one dataset type.
func (f *Fetcher) Fetch(ctx context.Context, rows []SummaryRow, start, end Date, dtl DetectionLimitMethod) ([]TimeSeriesRow, error) {
	if len(rows) == 0 {
		return []TimeSeriesRow{}, nil
	}
	if start.After(end) {
		return nil, ErrInvalidDateRange
	}
	dataset := rows[0].DatasetType
	for _, r := range rows[1:] {
		if r.DatasetType.ID != dataset.ID {
			return nil, fmt.Errorf("%w: %d and %d", ErrMixedDatasets, dataset.ID, r.DatasetType.ID)
		}
	}

	siteIDs := distinctSiteIDs(rows)
	if IsSynthetic(dataset.ID, f.offset) {
		return f.fetchSecondary(ctx, dataset, siteIDs, start, end, dtl)
	}
	return f.fetchPrimary(ctx, dataset, siteIDs, start, end)
}

// FetchSelection resolves rows from the snapshot by dataset id and site ids
// (or hover labels) and fetches them.
func (f *Fetcher) FetchSelection(ctx context.Context, snap *Snapshot, datasetID int, sites []string, start, end Date, dtl DetectionLimitMethod) ([]TimeSeriesRow, error) {
	if _, ok := snap.DatasetType(datasetID); !ok {
		return nil, fmt.Errorf("%w: %d", ErrDatasetNotFound, datasetID)
	}
	ids := make([]string, 0, len(sites))
	for _, s := range sites {
		if id := SiteIDFromHover(s); id != "" {
			ids = append(ids, id)
		}
	}
	return f.Fetch(ctx, snap.RowsFor(datasetID, ids), start, end, dtl)
}

func (f *Fetcher) fetchPrimary(ctx context.Context, dataset DatasetType, siteIDs []string, start, end Date) ([]TimeSeriesRow, error) {
	obs, err := f.store.Observations(ctx, dataset.ID, siteIDs, start.Time(), end.EndOfDay())
	if err != nil {
		return nil, dataSourceErr("primary store", "observations", err)
	}

	wanted := make(map[string]struct{}, len(siteIDs))
	for _, id := range siteIDs {
		wanted[id] = struct{}{}
	}
	out := make([]TimeSeriesRow, 0, len(obs))
	for _, o := range obs {
		if _, ok := wanted[o.SiteID]; !ok {
			continue
		}
		out = append(out, TimeSeriesRow{SiteID: o.SiteID, Timestamp: o.Timestamp, Value: o.Value})
	}
	f.logger.Debug("fetched primary observations",
		zap.Int("dataset_type_id", dataset.ID),
		zap.Int("sites", len(siteIDs)),
		zap.Int("rows", len(out)))
	return out, nil
}

func (f *Fetcher) fetchSecondary(ctx context.Context, dataset DatasetType, siteIDs []string, start, end Date, dtl DetectionLimitMethod) ([]TimeSeriesRow, error) {
	if f.client == nil {
		return nil, &DataSourceError{
			Source: "measurement service",
			Op:     "get data",
			Err:    fmt.Errorf("dataset %d needs the measurement service, which is not configured", dataset.ID),
		}
	}

	// One slot per site keeps each site's rows contiguous in the output.
	results := make([][]Observation, len(siteIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)
	for i, site := range siteIDs {
		g.Go(func() error {
			obs, err := f.client.GetData(gctx, DataRequest{
				SiteID:          site,
				MeasurementType: dataset.MeasurementType,
				From:            start,
				To:              end,
				DetectionLimit:  dtl,
			})
			if err != nil {
				return dataSourceErr("measurement service", "get data for site "+site, err)
			}
			results[i] = obs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]TimeSeriesRow, 0)
	for i, obs := range results {
		for _, o := range obs {
			out = append(out, TimeSeriesRow{SiteID: siteIDs[i], Timestamp: o.Timestamp, Value: o.Value})
		}
	}
	f.logger.Debug("fetched secondary observations",
		zap.Int("dataset_type_id", dataset.ID),
		zap.String("measurement", dataset.MeasurementType),
		zap.Int("sites", len(siteIDs)),
		zap.Int("rows", len(out)))
	return out, nil
}

func distinctSiteIDs(rows []SummaryRow) []string {
	seen := make(map[string]struct{}, len(rows))
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		if _, ok := seen[r.ExternalID]; ok {
			continue
		}
		seen[r.ExternalID] = struct{}{}
		out = append(out, r.ExternalID)
	}
	return out
}
