package catalog

import (
	"context"
	"time"
)

// PrimaryDataset is a row of the primary dataset-type catalog.
type PrimaryDataset struct {
	ID              int
	Feature         string
	MeasurementType string
	CollectionType  string
	DataCode        string
	DataProvider    string
}

// MeasurementUnit is a row of the primary measurement-type lookup.
type MeasurementUnit struct {
	MeasurementType string
	Units           string
}

// PrimarySummary is a per-site-per-dataset statistics row.
type PrimarySummary struct {
	SiteID        string
	DatasetTypeID int
	Min           *float64
	Mean          *float64
	Median        *float64
	Max           *float64
	Count         *int64
	FromDate      time.Time
	ToDate        time.Time
}

// SiteRecord is a row of the site metadata table. Coordinates arrive as
// floats in some deployments and are normalised to integers on assembly.
type SiteRecord struct {
	ExternalID string
	Name       *string
	Easting    float64
	Northing   float64
}

// SecondaryMeasurement is a row of the water-quality measurement lookup.
type SecondaryMeasurement struct {
	MeasurementID   int
	MeasurementType string
	Units           string
}

// SecondarySitePair is a distinct site and measurement seen in the secondary summary.
type SecondarySitePair struct {
	SiteID        string
	MeasurementID int
}

// SecondarySummary is a row of the water-quality summary table.
type SecondarySummary struct {
	SiteID          string
	MeasurementID   int
	MeasurementType string
	Units           string
	FromDate        time.Time
	ToDate          time.Time
}

// Observation is one raw value from the primary observation table.
type Observation struct {
	SiteID    string
	Timestamp time.Time
	Value     float64
}

// Store is the tabular store the pipeline reads from.
type Store interface {
	DatasetTypes(ctx context.Context, filters FacetFilters) ([]PrimaryDataset, error)
	MeasurementTypes(ctx context.Context) ([]MeasurementUnit, error)
	PrimarySummaries(ctx context.Context, datasetIDs []int) ([]PrimarySummary, error)
	Sites(ctx context.Context, siteIDs []string) ([]SiteRecord, error)
	Observations(ctx context.Context, datasetID int, siteIDs []string, from, to time.Time) ([]Observation, error)

	SecondaryMeasurements(ctx context.Context, measurementTypes []string) ([]SecondaryMeasurement, error)
	SecondarySitePairs(ctx context.Context, measurementIDs []int, recordType string) ([]SecondarySitePair, error)
	SecondarySummaries(ctx context.Context, measurementIDs []int, recordType string) ([]SecondarySummary, error)
}

// DataRequest is one per-site call to the measurement web service.
type DataRequest struct {
	SiteID          string
	MeasurementType string
	From            Date
	To              Date
	DetectionLimit  DetectionLimitMethod
}

// MeasurementClient is the secondary measurement web service.
type MeasurementClient interface {
	GetData(ctx context.Context, req DataRequest) ([]Observation, error)
}

// Projector converts projected easting/northing to geographic lon/lat.
type Projector interface {
	Project(easting, northing float64) (lon, lat float64, err error)
}
