package catalog

import (
	"sort"
	"time"
)

// Snapshot is the immutable summary index for one load. It is handed to the
// filter and the fetcher explicitly and never modified after construction.
type Snapshot struct {
	rows           []SummaryRow
	datasetTypes   []DatasetType
	byID           map[int]DatasetType
	reconciliation Reconciliation
	loadedAt       time.Time
}

func newSnapshot(rows []SummaryRow, types []DatasetType, rec Reconciliation, loadedAt time.Time) *Snapshot {
	if rows == nil {
		rows = []SummaryRow{}
	}
	if types == nil {
		types = []DatasetType{}
	}
	if rec.OrphanedSiteIDs == nil {
		rec.OrphanedSiteIDs = []string{}
	}
	byID := make(map[int]DatasetType, len(types))
	for _, d := range types {
		byID[d.ID] = d
	}
	return &Snapshot{
		rows:           rows,
		datasetTypes:   types,
		byID:           byID,
		reconciliation: rec,
		loadedAt:       loadedAt,
	}
}

// NewSnapshot builds a snapshot from already assembled rows.
func NewSnapshot(rows []SummaryRow, types []DatasetType) *Snapshot {
	return newSnapshot(append([]SummaryRow(nil), rows...), append([]DatasetType(nil), types...), Reconciliation{}, time.Now())
}

// Rows returns a copy of the summary index.
func (s *Snapshot) Rows() []SummaryRow {
	return append([]SummaryRow(nil), s.rows...)
}

func (s *Snapshot) Len() int { return len(s.rows) }

func (s *Snapshot) LoadedAt() time.Time { return s.loadedAt }

func (s *Snapshot) Reconciliation() Reconciliation { return s.reconciliation }

// DatasetTypes returns a copy of the resolved dataset types.
func (s *Snapshot) DatasetTypes() []DatasetType {
	return append([]DatasetType(nil), s.datasetTypes...)
}

// DatasetType looks up a resolved dataset type by id.
func (s *Snapshot) DatasetType(id int) (DatasetType, bool) {
	d, ok := s.byID[id]
	return d, ok
}

// Filter applies the faceted interval filter to the snapshot.
func (s *Snapshot) Filter(c FilterCriteria) []SummaryRow {
	return Filter(s.rows, c)
}

// RowsFor returns the rows of one dataset at the given sites, in site order.
// Sites without a row for the dataset are skipped.
func (s *Snapshot) RowsFor(datasetID int, siteIDs []string) []SummaryRow {
	bySite := make(map[string]SummaryRow)
	for _, r := range s.rows {
		if r.DatasetType.ID == datasetID {
			bySite[r.ExternalID] = r
		}
	}
	out := make([]SummaryRow, 0, len(siteIDs))
	seen := make(map[string]struct{}, len(siteIDs))
	for _, id := range siteIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if r, ok := bySite[id]; ok {
			out = append(out, r)
		}
	}
	return out
}

// FacetOptions lists the distinct values of every facet in the index.
type FacetOptions struct {
	Features         []string `json:"features"`
	MeasurementTypes []string `json:"measurement_types"`
	CollectionTypes  []string `json:"collection_types"`
	DataCodes        []string `json:"data_codes"`
	DataProviders    []string `json:"data_providers"`
	MinDate          Date     `json:"min_date"`
	MaxDate          Date     `json:"max_date"`
}

// Facets returns the sorted facet options and the overall date bounds.
func (s *Snapshot) Facets() FacetOptions {
	features, mtypes, ctypes, codes, providers := NewFacetSet(), NewFacetSet(), NewFacetSet(), NewFacetSet(), NewFacetSet()
	var opts FacetOptions
	for i, r := range s.rows {
		features[r.Feature] = struct{}{}
		mtypes[r.MeasurementType] = struct{}{}
		ctypes[r.CollectionType] = struct{}{}
		codes[r.DataCode] = struct{}{}
		providers[r.DataProvider] = struct{}{}
		if i == 0 || r.FromDate.Before(opts.MinDate) {
			opts.MinDate = r.FromDate
		}
		if i == 0 || r.ToDate.After(opts.MaxDate) {
			opts.MaxDate = r.ToDate
		}
	}
	opts.Features = features.Values()
	opts.MeasurementTypes = mtypes.Values()
	opts.CollectionTypes = ctypes.Values()
	opts.DataCodes = codes.Values()
	opts.DataProviders = providers.Values()
	return opts
}

// DefaultCriteria is the dashboard's initial selection: recorder river flow
// from the primary provider over the last year of available data.
func (s *Snapshot) DefaultCriteria() FilterCriteria {
	end := s.Facets().MaxDate
	if end.IsZero() {
		end = NewDate(s.loadedAt)
	}
	return FilterCriteria{
		Features:         NewFacetSet(FeatureRiver),
		MeasurementTypes: NewFacetSet("Flow"),
		CollectionTypes:  NewFacetSet("Recorder"),
		DataCodes:        NewFacetSet("Primary"),
		DataProviders:    NewFacetSet(DefaultSecondaryProvider),
		Start:            end.AddYears(-1),
		End:              end,
	}
}

// Sites returns the distinct sites of rows, sorted by id, for map markers.
func Sites(rows []SummaryRow) []Site {
	seen := make(map[string]Site)
	for _, r := range rows {
		seen[r.ExternalID] = r.Site
	}
	out := make([]Site, 0, len(seen))
	for _, s := range seen {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExternalID < out[j].ExternalID })
	return out
}
