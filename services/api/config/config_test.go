package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://hydro@localhost/hydro")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, ":8080", cfg.ListenAddr())
	assert.Equal(t, 10000, cfg.SyntheticIDOffset)
	assert.Equal(t, []string{"SQ"}, cfg.SurfaceWaterPatterns)
	assert.Equal(t, 30*time.Second, cfg.WQRequestTimeout)
	assert.False(t, cfg.SecondaryEnabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "sqlserver://sa:pw@sql2012test01?database=hydro")
	t.Setenv("DB_DRIVER", "SQLServer")
	t.Setenv("API_PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("WQ_BASE_URL", "http://wateruse.ecan.govt.nz")
	t.Setenv("WQ_REQUEST_TIMEOUT", "5s")
	t.Setenv("WQ_FETCH_CONCURRENCY", "8")
	t.Setenv("SURFACE_WATER_PATTERNS", "SQ, BW ,,")
	t.Setenv("SYNTHETIC_ID_OFFSET", "50000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlserver", cfg.DBDriver)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.SecondaryEnabled())
	assert.Equal(t, 5*time.Second, cfg.WQRequestTimeout)
	assert.Equal(t, 8, cfg.WQFetchConcurrency)
	assert.Equal(t, []string{"SQ", "BW"}, cfg.SurfaceWaterPatterns)
	assert.Equal(t, 50000, cfg.SyntheticIDOffset)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"DB_DRIVER", "oracle"},
		{"PORT", "http"},
		{"LOG_FORMAT", "xml"},
		{"API_DEFAULT_WINDOW_DAYS", "0"},
		{"SYNTHETIC_ID_OFFSET", "-1"},
		{"WQ_REQUEST_TIMEOUT", "soon"},
		{"WQ_FETCH_CONCURRENCY", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "postgres://hydro@localhost/hydro")
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, err := Load()
	assert.EqualError(t, err, "DATABASE_URL is required")
}
