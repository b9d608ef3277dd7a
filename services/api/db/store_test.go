package db

import (
	"context"
	"errors"
	"reflect"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydrolab-nz/hydro-dataset-viewer/services/api/catalog"
)

// fakeRows replays fixed records, assigning each value to the matching dest.
type fakeRows struct {
	records [][]any
	i       int
	closed  bool
}

func (r *fakeRows) Next() bool {
	r.i++
	return r.i <= len(r.records)
}

func (r *fakeRows) Scan(dest ...any) error {
	rec := r.records[r.i-1]
	if len(rec) != len(dest) {
		return errors.New("column count mismatch")
	}
	for i, v := range rec {
		target := reflect.ValueOf(dest[i]).Elem()
		if v == nil {
			target.Set(reflect.Zero(target.Type()))
			continue
		}
		val := reflect.ValueOf(v)
		if target.Kind() == reflect.Pointer {
			p := reflect.New(target.Type().Elem())
			p.Elem().Set(val)
			target.Set(p)
			continue
		}
		target.Set(val)
	}
	return nil
}

func (r *fakeRows) Err() error { return nil }
func (r *fakeRows) Close() { r.closed = true }

type call struct {
	sql  string
	args []any
}

type fakeBackend struct {
	calls   []call
	results [][][]any
	err     error
}

func (b *fakeBackend) Query(_ context.Context, sql string, args ...any) (rows, error) {
	b.calls = append(b.calls, call{sql: sql, args: args})
	if b.err != nil {
		return nil, b.err
	}
	var recs [][]any
	if len(b.results) > 0 {
		recs, b.results = b.results[0], b.results[1:]
	}
	return &fakeRows{records: recs}, nil
}

func (b *fakeBackend) Ping(context.Context) error { return b.err }
func (b *fakeBackend) Close() {}

func TestInListPostgres(t *testing.T) {
	q := postgresDialect.newQuery()
	got := inList(q, "DatasetTypeID", []int{5, 4})

	assert.Equal(t, "DatasetTypeID = ANY($1)", got)
	assert.Equal(t, []any{[]int{5, 4}}, q.args)
}

func TestInListSQLServer(t *testing.T) {
	q := sqlServerDialect.newQuery()
	first := "RecordType = " + q.bind("WQ Sample")
	got := inList(q, "ExtSiteID", []string{"66401", "69505"})

	assert.Equal(t, "RecordType = @p1", first)
	assert.Equal(t, "ExtSiteID IN (@p2, @p3)", got)
	assert.Equal(t, []any{"WQ Sample", "66401", "69505"}, q.args)
}

func TestInListEmptyMatchesNothing(t *testing.T) {
	q := sqlServerDialect.newQuery()
	assert.Equal(t, "1 = 0", inList(q, "ExtSiteID", []string{}))
	assert.Empty(t, q.args)
}

func TestChunk(t *testing.T) {
	assert.Nil(t, chunk([]int{}, 2))
	assert.Equal(t, [][]int{{1, 2, 3}}, chunk([]int{1, 2, 3}, 0))
	assert.Equal(t, [][]int{{1, 2}, {3}}, chunk([]int{1, 2, 3}, 2))
}

func TestDatasetTypesBuildsFacetFilters(t *testing.T) {
	be := &fakeBackend{results: [][][]any{{
		{5, "River", "Flow", "Recorder", "Primary", "ECan"},
	}}}
	s := newStore(be, sqlServerDialect, nil)

	got, err := s.DatasetTypes(context.Background(), catalog.FacetFilters{
		Features:      catalog.NewFacetSet("River"),
		DataProviders: catalog.NewFacetSet("NIWA", "ECan"),
	})
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, catalog.PrimaryDataset{ID: 5, Feature: "River", MeasurementType: "Flow", CollectionType: "Recorder", DataCode: "Primary", DataProvider: "ECan"}, got[0])

	require.Len(t, be.calls, 1)
	sql := be.calls[0].sql
	assert.Contains(t, sql, "FROM vDatasetTypeNamesActive")
	assert.Contains(t, sql, "WHERE Feature IN (@p1) AND DataProvider IN (@p2, @p3)")
	assert.Equal(t, []any{"River", "ECan", "NIWA"}, be.calls[0].args)
}

func TestDatasetTypesUnfiltered(t *testing.T) {
	be := &fakeBackend{}
	s := newStore(be, postgresDialect, nil)

	got, err := s.DatasetTypes(context.Background(), catalog.FacetFilters{})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.NotContains(t, be.calls[0].sql, "WHERE")
}

func TestPrimarySummariesScansNullableStats(t *testing.T) {
	from := time.Date(2019, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)
	be := &fakeBackend{results: [][][]any{{
		{"66401", 5, 0.12, 12.3, nil, 98.7, int64(365), from, to},
	}}}
	s := newStore(be, postgresDialect, nil)

	got, err := s.PrimarySummaries(context.Background(), []int{5})
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "66401", got[0].SiteID)
	assert.Nil(t, got[0].Median)
	assert.Equal(t, 12.3, *got[0].Mean)
	assert.Equal(t, int64(365), *got[0].Count)
	assert.Contains(t, be.calls[0].sql, "DatasetTypeID = ANY($1)")
}

func TestPrimarySummariesEmptyIDsSkipsQuery(t *testing.T) {
	be := &fakeBackend{}
	got, err := newStore(be, postgresDialect, nil).PrimarySummaries(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, be.calls)
}

func TestSitesSplitsLongListsForSQLServer(t *testing.T) {
	ids := make([]string, 2500)
	for i := range ids {
		ids[i] = "S" + strconv.Itoa(i)
	}
	be := &fakeBackend{results: [][][]any{
		{{"S1", "Bridge", 1570000.0, 5180000.0}},
		{{"S2001", nil, 1500000.0, 5150000.0}},
	}}
	s := newStore(be, sqlServerDialect, nil)

	got, err := s.Sites(context.Background(), ids)
	require.NoError(t, err)

	assert.Len(t, be.calls, 2)
	assert.Len(t, be.calls[0].args, 2000)
	assert.Len(t, be.calls[1].args, 500)
	require.Len(t, got, 2)
	assert.Equal(t, "Bridge", *got[0].Name)
	assert.Nil(t, got[1].Name)
}

func TestObservationsBindsWindow(t *testing.T) {
	from := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)
	be := &fakeBackend{results: [][][]any{{
		{"66401", from, 10.5},
	}}}
	s := newStore(be, postgresDialect, nil)

	got, err := s.Observations(context.Background(), 5, []string{"66401", "69505"}, from, to)
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, 10.5, got[0].Value)
	c := be.calls[0]
	assert.Contains(t, c.sql, "DatasetTypeID = $1 AND ExtSiteID = ANY($2) AND DateTime >= $3 AND DateTime <= $4")
	assert.Equal(t, []any{5, []string{"66401", "69505"}, from, to}, c.args)
}

func TestSecondarySummariesFiltersRecordType(t *testing.T) {
	from := time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)
	be := &fakeBackend{results: [][][]any{{
		{"SQ30141", 201, "Nitrate Nitrogen", "mg/L", from, from.AddDate(5, 0, 0)},
	}}}
	s := newStore(be, sqlServerDialect, nil)

	got, err := s.SecondarySummaries(context.Background(), []int{201, 202}, "WQ Sample")
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "Nitrate Nitrogen", got[0].MeasurementType)
	assert.Contains(t, be.calls[0].sql, "s.RecordType = @p1 AND s.MeasurementID IN (@p2, @p3)")
}

func TestQueryErrorsAreWrapped(t *testing.T) {
	boom := errors.New("login failed")
	s := newStore(&fakeBackend{err: boom}, sqlServerDialect, nil)

	_, err := s.MeasurementTypes(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "measurement_types")
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	_, err := New(context.Background(), "oracle", "oracle://x", nil)
	assert.Error(t, err)
}
