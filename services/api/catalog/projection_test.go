package catalog

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatValueRounding(t *testing.T) {
	tests := []struct {
		in   *float64
		want string
	}{
		{ptr(12.34567), "12.346"},
		{ptr(0.1234), "0.123"},
		{ptr(1.0005), "1.001"},
		{ptr(-1.0005), "-1.001"},
		{ptr(2), "2"},
		{nil, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatValue(tt.in))
	}
}

func TestToTableRow(t *testing.T) {
	r := summaryRow("66401", "River", "2019-06-01", "2020-06-01")
	r.Max = ptr(98.7654)
	r.Count = count(365)

	got := ToTableRow(r)
	assert.Equal(t, "66401", got.ExtSiteID)
	assert.Equal(t, "5", got.DatasetTypeID)
	assert.Equal(t, "1.235", got.Mean)
	assert.Equal(t, "98.765", got.Max)
	assert.Equal(t, "", got.Min)
	assert.Equal(t, "365", got.Count)
	assert.Equal(t, "2019-06-01", got.FromDate)
	assert.Len(t, got.Values(), len(SummaryColumns))
}

func TestWriteSummaryCSV(t *testing.T) {
	rows := []SummaryRow{summaryRow("66401", "River", "2019-06-01", "2020-06-01")}

	var buf bytes.Buffer
	require.NoError(t, WriteSummaryCSV(&buf, rows))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, SummaryColumns, records[0])
	assert.Equal(t, "ExtSiteID,DatasetTypeID,Feature,MeasurementType,CollectionType,DataCode,DataProvider,Units,Min,Mean,Median,Max,Count,FromDate,ToDate",
		strings.Join(records[0], ","))
	assert.Equal(t, "1.235", records[1][9])
}

func TestWriteTimeSeriesCSV(t *testing.T) {
	rows := []TimeSeriesRow{
		{SiteID: "66401", Timestamp: ts("2020-01-01 00:00:00"), Value: 10.25},
		{SiteID: "SQ30141", Timestamp: ts("2018-03-01 10:30:00"), Value: 0.005},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteTimeSeriesCSV(&buf, rows))

	assert.Equal(t,
		"ExtSiteID,DateTime,Value\n66401,2020-01-01 00:00:00,10.25\nSQ30141,2018-03-01 10:30:00,0.005\n",
		buf.String())
}

func TestWriteTimeSeriesCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTimeSeriesCSV(&buf, nil))
	assert.Equal(t, "ExtSiteID,DateTime,Value\n", buf.String())
}

func TestDatasetOptions(t *testing.T) {
	flow := summaryRow("A", "River", "2020-01-01", "2020-12-31")
	level := summaryRow("B", "Aquifer", "2020-01-01", "2020-12-31")
	level.DatasetType.ID = 4
	level.MeasurementType = "Water Level"

	got := DatasetOptions([]SummaryRow{flow, level, flow})

	require.Len(t, got, 2)
	assert.Equal(t, 4, got[0].Value)
	assert.Equal(t, "Aquifer - Water Level - Recorder - Primary - ECan (m**3/s)", got[0].Label)
	assert.Equal(t, 5, got[1].Value)
}
