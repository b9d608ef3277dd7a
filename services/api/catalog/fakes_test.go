package catalog

import (
	"context"
	"errors"
	"sync"
	"time"
)

// fakeStore is an in-memory Store. Filters mirror the SQL the real store runs.
type fakeStore struct {
	datasets     []PrimaryDataset
	mtypes       []MeasurementUnit
	summaries    []PrimarySummary
	sites        []SiteRecord
	observations map[int][]Observation

	wqMeasurements []SecondaryMeasurement
	wqSummaries    []SecondarySummary
	wqRecordTypes  map[int]string

	err      error
	failOn   string
	lastObsQ struct {
		datasetID int
		siteIDs   []string
		from, to  time.Time
	}
}

func (s *fakeStore) fail(op string) error {
	if s.err != nil && (s.failOn == "" || s.failOn == op) {
		return s.err
	}
	return nil
}

func (s *fakeStore) DatasetTypes(_ context.Context, f FacetFilters) ([]PrimaryDataset, error) {
	if err := s.fail("datasets"); err != nil {
		return nil, err
	}
	out := make([]PrimaryDataset, 0)
	for _, d := range s.datasets {
		probe := DatasetType{Feature: d.Feature, MeasurementType: d.MeasurementType, CollectionType: d.CollectionType, DataCode: d.DataCode, DataProvider: d.DataProvider}
		if f.allows(probe) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *fakeStore) MeasurementTypes(context.Context) ([]MeasurementUnit, error) {
	if err := s.fail("mtypes"); err != nil {
		return nil, err
	}
	return s.mtypes, nil
}

func (s *fakeStore) PrimarySummaries(_ context.Context, ids []int) ([]PrimarySummary, error) {
	if err := s.fail("summaries"); err != nil {
		return nil, err
	}
	want := make(map[int]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	out := make([]PrimarySummary, 0)
	for _, r := range s.summaries {
		if want[r.DatasetTypeID] {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeStore) Sites(_ context.Context, ids []string) ([]SiteRecord, error) {
	if err := s.fail("sites"); err != nil {
		return nil, err
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	out := make([]SiteRecord, 0)
	for _, r := range s.sites {
		if want[r.ExternalID] {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeStore) Observations(_ context.Context, datasetID int, siteIDs []string, from, to time.Time) ([]Observation, error) {
	if err := s.fail("observations"); err != nil {
		return nil, err
	}
	s.lastObsQ.datasetID, s.lastObsQ.siteIDs, s.lastObsQ.from, s.lastObsQ.to = datasetID, siteIDs, from, to
	want := make(map[string]bool, len(siteIDs))
	for _, id := range siteIDs {
		want[id] = true
	}
	out := make([]Observation, 0)
	for _, o := range s.observations[datasetID] {
		if want[o.SiteID] && !o.Timestamp.Before(from) && !o.Timestamp.After(to) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *fakeStore) SecondaryMeasurements(_ context.Context, mtypes []string) ([]SecondaryMeasurement, error) {
	if err := s.fail("wq_mtypes"); err != nil {
		return nil, err
	}
	set := NewFacetSet(mtypes...)
	out := make([]SecondaryMeasurement, 0)
	for _, m := range s.wqMeasurements {
		if len(set) == 0 || set.Contains(m.MeasurementType) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *fakeStore) SecondarySitePairs(ctx context.Context, ids []int, recordType string) ([]SecondarySitePair, error) {
	rows, err := s.SecondarySummaries(ctx, ids, recordType)
	if err != nil {
		return nil, err
	}
	seen := make(map[SecondarySitePair]bool)
	out := make([]SecondarySitePair, 0)
	for _, r := range rows {
		p := SecondarySitePair{SiteID: r.SiteID, MeasurementID: r.MeasurementID}
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *fakeStore) SecondarySummaries(_ context.Context, ids []int, recordType string) ([]SecondarySummary, error) {
	if err := s.fail("wq_summaries"); err != nil {
		return nil, err
	}
	want := make(map[int]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	out := make([]SecondarySummary, 0)
	for _, r := range s.wqSummaries {
		if want[r.MeasurementID] && s.wqRecordTypes[r.MeasurementID] == recordType {
			out = append(out, r)
		}
	}
	return out, nil
}

// fakeClient is an in-memory MeasurementClient.
type fakeClient struct {
	mu       sync.Mutex
	data     map[string][]Observation
	failSite string
	calls    []DataRequest
}

func (c *fakeClient) GetData(_ context.Context, req DataRequest) ([]Observation, error) {
	c.mu.Lock()
	c.calls = append(c.calls, req)
	c.mu.Unlock()
	if req.SiteID == c.failSite {
		return nil, errors.New("service unavailable")
	}
	return c.data[req.SiteID], nil
}

// identityProjector passes coordinates through scaled into degree range.
type identityProjector struct{}

func (identityProjector) Project(e, n float64) (float64, float64, error) {
	return e / 1e5, -n / 1e6, nil
}

func ptr(v float64) *float64 { return &v }

func count(v int64) *int64 { return &v }

func day(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func ts(s string) time.Time {
	t, err := time.Parse(time.DateTime, s)
	if err != nil {
		panic(err)
	}
	return t
}

func name(s string) *string { return &s }

// hydroStore is a small catalog with river flow, aquifer level and
// water-quality nitrate data.
func hydroStore() *fakeStore {
	return &fakeStore{
		datasets: []PrimaryDataset{
			{ID: 5, Feature: "River", MeasurementType: "Flow", CollectionType: "Recorder", DataCode: "Primary", DataProvider: "ECan"},
			{ID: 4, Feature: "Aquifer", MeasurementType: "Water Level", CollectionType: "Recorder", DataCode: "Primary", DataProvider: "ECan"},
			{ID: 15, Feature: "Atmosphere", MeasurementType: "Precipitation", CollectionType: "Recorder", DataCode: "RAW", DataProvider: "NIWA"},
		},
		mtypes: []MeasurementUnit{
			{MeasurementType: "Flow", Units: "m**3/s"},
			{MeasurementType: "Water Level", Units: "m"},
			{MeasurementType: "Precipitation", Units: "mm"},
		},
		summaries: []PrimarySummary{
			{SiteID: "66401", DatasetTypeID: 5, Min: ptr(0.1234), Mean: ptr(12.34567), Max: ptr(98.7654), Count: count(365), FromDate: ts("2019-06-01 00:00:00"), ToDate: ts("2020-06-01 00:00:00")},
			{SiteID: "69505", DatasetTypeID: 5, Min: ptr(1), Mean: ptr(2), Max: ptr(3), Count: count(10), FromDate: ts("2010-01-01 00:00:00"), ToDate: ts("2012-12-31 00:00:00")},
			{SiteID: "L36/0092", DatasetTypeID: 4, Min: ptr(3), Mean: ptr(4), Max: ptr(5), Count: count(20), FromDate: ts("2018-01-01 00:00:00"), ToDate: ts("2018-12-31 00:00:00")},
			{SiteID: "GHOST", DatasetTypeID: 15, Min: ptr(0), Mean: ptr(1), Max: ptr(2), Count: count(3), FromDate: ts("2019-01-01 00:00:00"), ToDate: ts("2019-02-01 00:00:00")},
		},
		sites: []SiteRecord{
			{ExternalID: "66401", Name: name(" Waimakariri at Old Highway Bridge "), Easting: 1570000.7, Northing: 5180000.2},
			{ExternalID: "69505", Name: nil, Easting: 1500000, Northing: 5150000},
			{ExternalID: "L36/0092", Name: name("Well"), Easting: 1550000, Northing: 5170000},
			{ExternalID: "SQ30141", Name: name("Avon at Gloucester St"), Easting: 1571000, Northing: 5181000},
			{ExternalID: "M35/1080", Name: name("Bore"), Easting: 1540000, Northing: 5160000},
		},
		observations: map[int][]Observation{
			5: {
				{SiteID: "66401", Timestamp: ts("2020-01-01 00:00:00"), Value: 10},
				{SiteID: "66401", Timestamp: ts("2020-01-02 00:00:00"), Value: 11},
				{SiteID: "69505", Timestamp: ts("2020-01-01 00:00:00"), Value: 20},
				{SiteID: "70105", Timestamp: ts("2020-01-01 00:00:00"), Value: 30},
				{SiteID: "66401", Timestamp: ts("2021-01-01 00:00:00"), Value: 99},
			},
		},
		wqMeasurements: []SecondaryMeasurement{
			{MeasurementID: 201, MeasurementType: "Nitrate Nitrogen", Units: "mg/L"},
			{MeasurementID: 202, MeasurementType: "E. coli", Units: "cfu/100mL"},
		},
		wqSummaries: []SecondarySummary{
			{SiteID: "SQ30141", MeasurementID: 201, MeasurementType: "Nitrate Nitrogen", Units: "mg/L", FromDate: ts("2015-01-01 00:00:00"), ToDate: ts("2020-12-31 00:00:00")},
			{SiteID: "M35/1080", MeasurementID: 201, MeasurementType: "Nitrate Nitrogen", Units: "mg/L", FromDate: ts("2016-01-01 00:00:00"), ToDate: ts("2019-12-31 00:00:00")},
			{SiteID: "SQ30141", MeasurementID: 202, MeasurementType: "E. coli", Units: "cfu/100mL", FromDate: ts("2017-01-01 00:00:00"), ToDate: ts("2017-12-31 00:00:00")},
		},
		wqRecordTypes: map[int]string{201: DefaultRecordType, 202: DefaultRecordType},
	}
}

func secondaryEnabled() SecondaryConfig {
	return SecondaryConfig{Enabled: true, SurfaceWaterPatterns: []string{"sq"}}
}
