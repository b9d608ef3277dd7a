package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hydrolab-nz/hydro-dataset-viewer/services/api/catalog"
	apiconfig "github.com/hydrolab-nz/hydro-dataset-viewer/services/api/config"
)

const (
	defaultOutputDir = "."
	defaultTimeout   = 5 * time.Minute
)

// Config holds runtime configuration for the exporter. Data source settings
// are shared with the API service.
type Config struct {
	apiconfig.Config

	OutputDir string
	Timeout   time.Duration
	DryRun    bool

	// Facet selection; an empty facet falls back to the dashboard default.
	Features         []string
	MeasurementTypes []string
	CollectionTypes  []string
	DataCodes        []string
	DataProviders    []string
	Start            string
	End              string

	// Time series export; skipped when DatasetID is zero.
	DatasetID int
	Sites     []string
	DTLMethod catalog.DetectionLimitMethod
}

// Load reads configuration from environment variables (optionally .env).
func Load() (Config, error) {
	base, err := apiconfig.Load()
	if err != nil {
		return Config{}, err
	}
	cfg := Config{Config: base}

	cfg.OutputDir = strings.TrimSpace(os.Getenv("EXPORT_OUTPUT_DIR"))
	if cfg.OutputDir == "" {
		cfg.OutputDir = defaultOutputDir
	}

	cfg.Timeout = defaultTimeout
	if v := strings.TrimSpace(os.Getenv("EXPORT_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return cfg, fmt.Errorf("invalid EXPORT_TIMEOUT: %s", v)
		}
		cfg.Timeout = d
	}

	cfg.Features = list("EXPORT_FEATURE")
	cfg.MeasurementTypes = list("EXPORT_MTYPE")
	cfg.CollectionTypes = list("EXPORT_CTYPE")
	cfg.DataCodes = list("EXPORT_DATA_CODE")
	cfg.DataProviders = list("EXPORT_PROVIDER")

	cfg.Start = strings.TrimSpace(os.Getenv("EXPORT_START"))
	if cfg.Start != "" {
		if _, err := catalog.ParseDate(cfg.Start); err != nil {
			return cfg, fmt.Errorf("invalid EXPORT_START: %w", err)
		}
	}
	cfg.End = strings.TrimSpace(os.Getenv("EXPORT_END"))
	if cfg.End != "" {
		if _, err := catalog.ParseDate(cfg.End); err != nil {
			return cfg, fmt.Errorf("invalid EXPORT_END: %w", err)
		}
	}

	if v := strings.TrimSpace(os.Getenv("EXPORT_DATASET_ID")); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil || id <= 0 {
			return cfg, fmt.Errorf("invalid EXPORT_DATASET_ID: %s", v)
		}
		cfg.DatasetID = id
	}
	cfg.Sites = list("EXPORT_SITES")

	cfg.DTLMethod, err = catalog.ParseDetectionLimitMethod(os.Getenv("EXPORT_DTL_METHOD"))
	if err != nil {
		return cfg, fmt.Errorf("invalid EXPORT_DTL_METHOD: %w", err)
	}

	dryRun := strings.TrimSpace(os.Getenv("DRY_RUN"))
	cfg.DryRun = dryRun == "1" || strings.EqualFold(dryRun, "true")

	return cfg, nil
}

// FacetFilters narrows what the resolver pulls to the requested facets.
func (c Config) FacetFilters() catalog.FacetFilters {
	return catalog.FacetFilters{
		Features:         catalog.NewFacetSet(c.Features...),
		MeasurementTypes: catalog.NewFacetSet(c.MeasurementTypes...),
		CollectionTypes:  catalog.NewFacetSet(c.CollectionTypes...),
		DataCodes:        catalog.NewFacetSet(c.DataCodes...),
		DataProviders:    catalog.NewFacetSet(c.DataProviders...),
	}
}

// Criteria fills every facet or bound left unset from defaults.
func (c Config) Criteria(defaults catalog.FilterCriteria) (catalog.FilterCriteria, error) {
	out := defaults
	if len(c.Features) > 0 {
		out.Features = catalog.NewFacetSet(c.Features...)
	}
	if len(c.MeasurementTypes) > 0 {
		out.MeasurementTypes = catalog.NewFacetSet(c.MeasurementTypes...)
	}
	if len(c.CollectionTypes) > 0 {
		out.CollectionTypes = catalog.NewFacetSet(c.CollectionTypes...)
	}
	if len(c.DataCodes) > 0 {
		out.DataCodes = catalog.NewFacetSet(c.DataCodes...)
	}
	if len(c.DataProviders) > 0 {
		out.DataProviders = catalog.NewFacetSet(c.DataProviders...)
	}
	if c.Start != "" {
		out.Start, _ = catalog.ParseDate(c.Start)
	}
	if c.End != "" {
		out.End, _ = catalog.ParseDate(c.End)
	}
	if out.Start.After(out.End) {
		return out, fmt.Errorf("%w: %s > %s", catalog.ErrInvalidDateRange, out.Start, out.End)
	}
	return out, nil
}

func list(key string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
