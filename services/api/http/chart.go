package http

import (
	"io"
	"math"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/hydrolab-nz/hydro-dataset-viewer/services/api/catalog"
)

const (
	chartWidth  = 1200
	chartHeight = 600
)

// renderTimeSeriesPNG draws one line per site. rows must not be empty.
func renderTimeSeriesPNG(w io.Writer, dataset catalog.DatasetType, rows []catalog.TimeSeriesRow) error {
	order := make([]string, 0)
	bySite := make(map[string]*chart.TimeSeries)
	minT, maxT := rows[0].Timestamp, rows[0].Timestamp
	minV, maxV := rows[0].Value, rows[0].Value

	for _, r := range rows {
		ts, ok := bySite[r.SiteID]
		if !ok {
			ts = &chart.TimeSeries{
				Name: r.SiteID,
				Style: chart.Style{
					StrokeColor: chart.GetDefaultColor(len(order)),
					StrokeWidth: 1.5,
				},
			}
			bySite[r.SiteID] = ts
			order = append(order, r.SiteID)
		}
		ts.XValues = append(ts.XValues, r.Timestamp)
		ts.YValues = append(ts.YValues, r.Value)

		if r.Timestamp.Before(minT) {
			minT = r.Timestamp
		}
		if r.Timestamp.After(maxT) {
			maxT = r.Timestamp
		}
		minV = math.Min(minV, r.Value)
		maxV = math.Max(maxV, r.Value)
	}

	series := make([]chart.Series, 0, len(order))
	for _, id := range order {
		series = append(series, *bySite[id])
	}

	// go-chart rejects a zero width range, which a single observation produces.
	if !maxT.After(minT) {
		minT, maxT = minT.Add(-12*time.Hour), maxT.Add(12*time.Hour)
	}
	if maxV <= minV {
		pad := math.Max(math.Abs(minV)*0.1, 1)
		minV, maxV = minV-pad, maxV+pad
	}

	graph := chart.Chart{
		Title:  dataset.DisplayName(),
		Width:  chartWidth,
		Height: chartHeight,
		Background: chart.Style{
			Padding: chart.Box{
				Top:   40,
				Left:  20,
				Right: 20,
			},
			FillColor: drawing.ColorWhite,
		},
		XAxis: chart.XAxis{
			Name:           "DateTime",
			ValueFormatter: chart.TimeValueFormatterWithFormat(catalog.DateLayout),
			Range: &chart.ContinuousRange{
				Min: chart.TimeToFloat64(minT),
				Max: chart.TimeToFloat64(maxT),
			},
		},
		YAxis: chart.YAxis{
			Name: dataset.Units,
			Range: &chart.ContinuousRange{
				Min: minV,
				Max: maxV,
			},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	graph.Background.StrokeColor = drawing.ColorFromHex("efefef")

	return graph.Render(chart.PNG, w)
}
