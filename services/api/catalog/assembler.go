package catalog

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
)

// Assembler builds the summary index from the catalogs, the summary tables
// and the site metadata.
type Assembler struct {
	resolver  *Resolver
	store     Store
	projector Projector
	logger    *zap.Logger
	now       func() time.Time
}

// NewAssembler wires an assembler around a resolver sharing the same store.
func NewAssembler(resolver *Resolver, store Store, projector Projector, logger *zap.Logger) *Assembler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assembler{
		resolver:  resolver,
		store:     store,
		projector: projector,
		logger:    logger.Named("assembler"),
		now:       time.Now,
	}
}

// Assemble resolves the catalogs for filters and returns a fresh snapshot.
func (a *Assembler) Assemble(ctx context.Context, filters FacetFilters) (*Snapshot, error) {
	cat, err := a.resolver.Resolve(ctx, filters)
	if err != nil {
		return nil, err
	}
	if len(cat.DatasetTypes) == 0 {
		a.logger.Info("no dataset types matched the catalog filters")
		return newSnapshot(nil, nil, Reconciliation{}, a.now()), nil
	}

	pending, err := a.primaryRows(ctx, cat.Primary())
	if err != nil {
		return nil, err
	}

	secondary, err := a.secondaryRows(ctx, cat)
	if err != nil {
		return nil, err
	}
	pending = append(pending, secondary...)

	sites, err := a.loadSites(ctx, pending)
	if err != nil {
		return nil, err
	}

	rows, rec := reconcile(pending, sites)
	if rec.OrphanedRows > 0 {
		a.logger.Warn("dropped summary rows for unknown sites",
			zap.Int("rows", rec.OrphanedRows),
			zap.Strings("site_ids", rec.OrphanedSiteIDs))
	}

	a.logger.Info("assembled summary index",
		zap.Int("dataset_types", len(cat.DatasetTypes)),
		zap.Int("rows", len(rows)),
		zap.Int("sites", len(sites)))

	return newSnapshot(rows, cat.DatasetTypes, rec, a.now()), nil
}

// pendingRow is a summary row waiting for its site.
type pendingRow struct {
	siteID string
	row    SummaryRow
}

func (a *Assembler) primaryRows(ctx context.Context, types []DatasetType) ([]pendingRow, error) {
	if len(types) == 0 {
		return nil, nil
	}
	byID := make(map[int]DatasetType, len(types))
	ids := make([]int, 0, len(types))
	for _, d := range types {
		byID[d.ID] = d
		ids = append(ids, d.ID)
	}

	summaries, err := a.store.PrimarySummaries(ctx, ids)
	if err != nil {
		return nil, dataSourceErr("primary catalog", "summaries", err)
	}

	out := make([]pendingRow, 0, len(summaries))
	for _, s := range summaries {
		d, ok := byID[s.DatasetTypeID]
		if !ok {
			continue
		}
		from, to, err := window("TSDataNumericDailySumm", s.SiteID, s.FromDate, s.ToDate)
		if err != nil {
			return nil, err
		}
		out = append(out, pendingRow{
			siteID: s.SiteID,
			row: SummaryRow{
				DatasetType: d,
				FromDate:    from,
				ToDate:      to,
				Min:         s.Min,
				Mean:        s.Mean,
				Median:      s.Median,
				Max:         s.Max,
				Count:       s.Count,
			},
		})
	}
	return out, nil
}

func (a *Assembler) secondaryRows(ctx context.Context, cat Catalog) ([]pendingRow, error) {
	types := cat.Secondary()
	if len(types) == 0 {
		return nil, nil
	}
	byKey := make(map[facetKey]DatasetType, len(types))
	for _, d := range types {
		byKey[d.key()] = d
	}

	summaries, err := a.store.SecondarySummaries(ctx, cat.SecondaryMeasurementIDs, a.resolver.secondary.RecordType)
	if err != nil {
		return nil, dataSourceErr("secondary catalog", "summaries", err)
	}

	out := make([]pendingRow, 0, len(summaries))
	for _, s := range summaries {
		if s.SiteID == "" || s.MeasurementType == "" {
			return nil, &SchemaMismatchError{
				Source: "WQMeasurementSumm",
				Field:  "Site/Measurement",
				Detail: fmt.Sprintf("row for measurement %d is missing its site or measurement name", s.MeasurementID),
			}
		}
		probe := a.resolver.secondaryType(s.SiteID, SecondaryMeasurement{
			MeasurementID:   s.MeasurementID,
			MeasurementType: s.MeasurementType,
			Units:           s.Units,
		})
		d, ok := byKey[probe.key()]
		if !ok {
			// Combination excluded by the facet filters.
			continue
		}
		from, to, err := window("WQMeasurementSumm", s.SiteID, s.FromDate, s.ToDate)
		if err != nil {
			return nil, err
		}
		out = append(out, pendingRow{
			siteID: s.SiteID,
			row: SummaryRow{
				DatasetType: d,
				FromDate:    from,
				ToDate:      to,
			},
		})
	}
	return out, nil
}

func window(source, siteID string, from, to time.Time) (Date, Date, error) {
	if from.IsZero() || to.IsZero() {
		return Date{}, Date{}, &SchemaMismatchError{
			Source: source,
			Field:  "FromDate/ToDate",
			Detail: fmt.Sprintf("site %s has no availability window", siteID),
		}
	}
	f, t := NewDate(from), NewDate(to)
	if f.After(t) {
		return Date{}, Date{}, &SchemaMismatchError{
			Source: source,
			Field:  "FromDate/ToDate",
			Detail: fmt.Sprintf("site %s window %s after %s", siteID, f, t),
		}
	}
	return f, t, nil
}

func (a *Assembler) loadSites(ctx context.Context, rows []pendingRow) (map[string]Site, error) {
	if len(rows) == 0 {
		return map[string]Site{}, nil
	}
	seen := make(map[string]struct{}, len(rows))
	ids := make([]string, 0)
	for _, r := range rows {
		if _, ok := seen[r.siteID]; ok {
			continue
		}
		seen[r.siteID] = struct{}{}
		ids = append(ids, r.siteID)
	}

	records, err := a.store.Sites(ctx, ids)
	if err != nil {
		return nil, dataSourceErr("site metadata", "sites", err)
	}

	sites := make(map[string]Site, len(records))
	for _, rec := range records {
		site, err := a.buildSite(rec)
		if err != nil {
			return nil, err
		}
		sites[site.ExternalID] = site
	}
	return sites, nil
}

func (a *Assembler) buildSite(rec SiteRecord) (Site, error) {
	site := Site{
		ExternalID: rec.ExternalID,
		Easting:    int(rec.Easting),
		Northing:   int(rec.Northing),
	}
	if rec.Name != nil {
		site.Name = *rec.Name
	}
	lon, lat, err := a.projector.Project(float64(site.Easting), float64(site.Northing))
	if err != nil {
		return Site{}, fmt.Errorf("project site %s: %w", rec.ExternalID, err)
	}
	if math.IsNaN(lon) || math.IsNaN(lat) {
		return Site{}, fmt.Errorf("project site %s: non-finite coordinates", rec.ExternalID)
	}
	site.Lon, site.Lat = lon, lat
	return site, nil
}

// Reconciliation reports summary rows dropped because their site is missing
// from the site table.
type Reconciliation struct {
	OrphanedRows    int      `json:"orphaned_rows"`
	OrphanedSiteIDs []string `json:"orphaned_site_ids"`
}

func reconcile(pending []pendingRow, sites map[string]Site) ([]SummaryRow, Reconciliation) {
	rows := make([]SummaryRow, 0, len(pending))
	rec := Reconciliation{OrphanedSiteIDs: []string{}}
	orphaned := make(map[string]struct{})
	for _, p := range pending {
		site, ok := sites[p.siteID]
		if !ok {
			rec.OrphanedRows++
			if _, dup := orphaned[p.siteID]; !dup {
				orphaned[p.siteID] = struct{}{}
				rec.OrphanedSiteIDs = append(rec.OrphanedSiteIDs, p.siteID)
			}
			continue
		}
		row := p.row
		row.Site = site
		rows = append(rows, row)
	}
	return rows, rec
}
