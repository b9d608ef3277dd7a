package catalog

import (
	"strings"
	"time"
)

// Source identifies which catalog a dataset type came from.
type Source string

const (
	SourcePrimary   Source = "primary"
	SourceSecondary Source = "secondary"
)

// DefaultSyntheticIDOffset is the first id handed out to dataset types that
// only exist in the secondary measurement catalog.
const DefaultSyntheticIDOffset = 10000

// IsSynthetic reports whether id belongs to the secondary id space.
func IsSynthetic(id, offset int) bool { return id >= offset }

// HoverSeparator joins a site id and its name in map hover labels.
const HoverSeparator = "<br>"

// DatasetType is a distinct combination of facets describing what is measured.
type DatasetType struct {
	ID              int    `json:"dataset_type_id"`
	Feature         string `json:"feature"`
	MeasurementType string `json:"measurement_type"`
	CollectionType  string `json:"collection_type"`
	DataCode        string `json:"data_code"`
	DataProvider    string `json:"data_provider"`
	Units           string `json:"units"`
	Source          Source `json:"source"`
}

// DisplayName is derived from the facets and units on every call.
func (d DatasetType) DisplayName() string {
	var b strings.Builder
	b.WriteString(d.Feature)
	b.WriteString(" - ")
	b.WriteString(d.MeasurementType)
	b.WriteString(" - ")
	b.WriteString(d.CollectionType)
	b.WriteString(" - ")
	b.WriteString(d.DataCode)
	b.WriteString(" - ")
	b.WriteString(d.DataProvider)
	b.WriteString(" (")
	b.WriteString(d.Units)
	b.WriteString(")")
	return b.String()
}

// facetKey is the five-facet tuple used to join secondary summaries back to
// their synthetic dataset type.
type facetKey struct {
	Feature         string
	MeasurementType string
	CollectionType  string
	DataCode        string
	DataProvider    string
}

func (d DatasetType) key() facetKey {
	return facetKey{d.Feature, d.MeasurementType, d.CollectionType, d.DataCode, d.DataProvider}
}

func (k facetKey) less(o facetKey) bool {
	switch {
	case k.Feature != o.Feature:
		return k.Feature < o.Feature
	case k.MeasurementType != o.MeasurementType:
		return k.MeasurementType < o.MeasurementType
	case k.CollectionType != o.CollectionType:
		return k.CollectionType < o.CollectionType
	case k.DataCode != o.DataCode:
		return k.DataCode < o.DataCode
	default:
		return k.DataProvider < o.DataProvider
	}
}

// Site is a monitored physical location.
type Site struct {
	ExternalID string  `json:"ext_site_id"`
	Name       string  `json:"ext_site_name"`
	Easting    int     `json:"nztmx"`
	Northing   int     `json:"nztmy"`
	Lon        float64 `json:"lon"`
	Lat        float64 `json:"lat"`
}

// HoverLabel is the map marker text for the site.
func (s Site) HoverLabel() string {
	return s.ExternalID + HoverSeparator + strings.TrimSpace(s.Name)
}

// SiteIDFromHover extracts the site id from a hover label. Plain ids are
// returned unchanged.
func SiteIDFromHover(label string) string {
	id, _, _ := strings.Cut(label, HoverSeparator)
	return strings.TrimSpace(id)
}

// SummaryRow is one site by dataset type observation window.
type SummaryRow struct {
	Site
	DatasetType

	FromDate Date     `json:"from_date"`
	ToDate   Date     `json:"to_date"`
	Min      *float64 `json:"min,omitempty"`
	Mean     *float64 `json:"mean,omitempty"`
	Median   *float64 `json:"median,omitempty"`
	Max      *float64 `json:"max,omitempty"`
	Count    *int64   `json:"count,omitempty"`
}

// TimeSeriesRow is the shared observation shape returned by both backends.
type TimeSeriesRow struct {
	SiteID    string    `json:"ext_site_id"`
	Timestamp time.Time `json:"date_time"`
	Value     float64   `json:"value"`
}
