package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydrolab-nz/hydro-dataset-viewer/services/api/catalog"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://hydro@localhost/hydro")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ".", cfg.OutputDir)
	assert.Equal(t, 5*time.Minute, cfg.Timeout)
	assert.Equal(t, 0, cfg.DatasetID)
	assert.Empty(t, cfg.Features)
	assert.Equal(t, catalog.DetectionLimitNone, cfg.DTLMethod)
	assert.False(t, cfg.DryRun)
	assert.Equal(t, "postgres", cfg.DBDriver)
}

func TestLoadExportSelection(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://hydro@localhost/hydro")
	t.Setenv("EXPORT_OUTPUT_DIR", "/tmp/out")
	t.Setenv("EXPORT_FEATURE", "River, Aquifer")
	t.Setenv("EXPORT_MTYPE", "Nitrate")
	t.Setenv("EXPORT_START", "2019-01-01")
	t.Setenv("EXPORT_DATASET_ID", "10002")
	t.Setenv("EXPORT_SITES", "SQ30141,SQ31045")
	t.Setenv("EXPORT_DTL_METHOD", "Half")
	t.Setenv("DRY_RUN", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/out", cfg.OutputDir)
	assert.Equal(t, []string{"River", "Aquifer"}, cfg.Features)
	assert.Equal(t, 10002, cfg.DatasetID)
	assert.Equal(t, []string{"SQ30141", "SQ31045"}, cfg.Sites)
	assert.Equal(t, catalog.DetectionLimitHalf, cfg.DTLMethod)
	assert.True(t, cfg.DryRun)

	filters := cfg.FacetFilters()
	assert.True(t, filters.Features.Contains("Aquifer"))
	assert.Empty(t, filters.CollectionTypes)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"EXPORT_TIMEOUT", "later"},
		{"EXPORT_START", "01/02/2020"},
		{"EXPORT_END", "2020-02-30"},
		{"EXPORT_DATASET_ID", "abc"},
		{"EXPORT_DTL_METHOD", "zero"},
		{"DB_DRIVER", "oracle"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "postgres://hydro@localhost/hydro")
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestCriteriaOverridesDefaults(t *testing.T) {
	defaults := catalog.FilterCriteria{
		Features:         catalog.NewFacetSet("River"),
		MeasurementTypes: catalog.NewFacetSet("Flow"),
		CollectionTypes:  catalog.NewFacetSet("Recorder"),
		DataCodes:        catalog.NewFacetSet("Primary"),
		DataProviders:    catalog.NewFacetSet("ECan"),
		Start:            catalog.DateOf(2019, time.June, 30),
		End:              catalog.DateOf(2020, time.June, 30),
	}
	cfg := Config{MeasurementTypes: []string{"Nitrate", "E. coli"}, Start: "2018-01-01"}

	c, err := cfg.Criteria(defaults)
	require.NoError(t, err)
	assert.Equal(t, []string{"E. coli", "Nitrate"}, c.MeasurementTypes.Values())
	assert.Equal(t, []string{"River"}, c.Features.Values())
	assert.Equal(t, "2018-01-01", c.Start.String())
	assert.Equal(t, "2020-06-30", c.End.String())

	cfg = Config{End: "2010-01-01"}
	_, err = cfg.Criteria(defaults)
	assert.True(t, errors.Is(err, catalog.ErrInvalidDateRange))
}
