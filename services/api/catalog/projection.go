package catalog

import (
	"encoding/csv"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// DisplayPlaces is the rounding applied to statistics in the table and exports.
const DisplayPlaces = 3

// SummaryColumns is the header of the summary table and its CSV export.
var SummaryColumns = []string{
	"ExtSiteID", "DatasetTypeID", "Feature", "MeasurementType", "CollectionType",
	"DataCode", "DataProvider", "Units", "Min", "Mean", "Median", "Max", "Count",
	"FromDate", "ToDate",
}

// TimeSeriesColumns is the header of the time series CSV export.
var TimeSeriesColumns = []string{"ExtSiteID", "DateTime", "Value"}

// TableRow is the string-coerced projection of a summary row.
type TableRow struct {
	ExtSiteID       string `json:"ExtSiteID"`
	DatasetTypeID   string `json:"DatasetTypeID"`
	Feature         string `json:"Feature"`
	MeasurementType string `json:"MeasurementType"`
	CollectionType  string `json:"CollectionType"`
	DataCode        string `json:"DataCode"`
	DataProvider    string `json:"DataProvider"`
	Units           string `json:"Units"`
	Min             string `json:"Min"`
	Mean            string `json:"Mean"`
	Median          string `json:"Median"`
	Max             string `json:"Max"`
	Count           string `json:"Count"`
	FromDate        string `json:"FromDate"`
	ToDate          string `json:"ToDate"`
}

// Values returns the cells in SummaryColumns order.
func (t TableRow) Values() []string {
	return []string{
		t.ExtSiteID, t.DatasetTypeID, t.Feature, t.MeasurementType, t.CollectionType,
		t.DataCode, t.DataProvider, t.Units, t.Min, t.Mean, t.Median, t.Max, t.Count,
		t.FromDate, t.ToDate,
	}
}

// ToTableRow rounds and stringifies a row for display.
func ToTableRow(r SummaryRow) TableRow {
	return TableRow{
		ExtSiteID:       r.ExternalID,
		DatasetTypeID:   strconv.Itoa(r.DatasetType.ID),
		Feature:         r.Feature,
		MeasurementType: r.MeasurementType,
		CollectionType:  r.CollectionType,
		DataCode:        r.DataCode,
		DataProvider:    r.DataProvider,
		Units:           r.Units,
		Min:             FormatValue(r.Min),
		Mean:            FormatValue(r.Mean),
		Median:          FormatValue(r.Median),
		Max:             FormatValue(r.Max),
		Count:           formatCount(r.Count),
		FromDate:        r.FromDate.String(),
		ToDate:          r.ToDate.String(),
	}
}

// TableRows projects every row.
func TableRows(rows []SummaryRow) []TableRow {
	out := make([]TableRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, ToTableRow(r))
	}
	return out
}

// FormatValue rounds to DisplayPlaces; nil becomes an empty cell.
func FormatValue(v *float64) string {
	if v == nil {
		return ""
	}
	return Round(*v).String()
}

// Round rounds half away from zero to DisplayPlaces.
func Round(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(DisplayPlaces)
}

func formatCount(c *int64) string {
	if c == nil {
		return ""
	}
	return strconv.FormatInt(*c, 10)
}

// DatasetOption is one entry of the dataset selector.
type DatasetOption struct {
	Value int    `json:"value"`
	Label string `json:"label"`
}

// DatasetOptions returns the distinct dataset types of rows ordered by label.
func DatasetOptions(rows []SummaryRow) []DatasetOption {
	seen := make(map[int]struct{})
	out := make([]DatasetOption, 0)
	for _, r := range rows {
		if _, ok := seen[r.DatasetType.ID]; ok {
			continue
		}
		seen[r.DatasetType.ID] = struct{}{}
		out = append(out, DatasetOption{Value: r.DatasetType.ID, Label: r.DisplayName()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// WriteSummaryCSV writes the table projection of rows with a header row.
func WriteSummaryCSV(w io.Writer, rows []SummaryRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(SummaryColumns); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(ToTableRow(r).Values()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTimeSeriesCSV writes observations with a header row.
func WriteTimeSeriesCSV(w io.Writer, rows []TimeSeriesRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(TimeSeriesColumns); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			r.SiteID,
			r.Timestamp.Format(time.DateTime),
			strconv.FormatFloat(r.Value, 'f', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
