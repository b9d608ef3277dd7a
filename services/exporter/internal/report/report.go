package report

import (
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/hydrolab-nz/hydro-dataset-viewer/services/api/catalog"
)

// SummaryTable renders the filtered summary rows with the same columns as the
// CSV export.
func SummaryTable(rows []catalog.SummaryRow) string {
	t := table.NewWriter()

	header := make(table.Row, 0, len(catalog.SummaryColumns))
	for _, col := range catalog.SummaryColumns {
		header = append(header, col)
	}
	t.AppendHeader(header)

	for _, r := range catalog.TableRows(rows) {
		row := make(table.Row, 0, len(header))
		for _, v := range r.Values() {
			row = append(row, v)
		}
		t.AppendRow(row)
	}
	t.AppendFooter(table.Row{"Rows", len(rows)})

	t.SetStyle(table.StyleLight)
	return t.Render()
}

// SeriesTable renders one line per site: observation count, first and last
// timestamp and the value range.
func SeriesTable(dataset catalog.DatasetType, rows []catalog.TimeSeriesRow) string {
	type siteStats struct {
		count       int
		first, last time.Time
		min, max    float64
	}
	stats := make(map[string]*siteStats)
	for _, r := range rows {
		s, ok := stats[r.SiteID]
		if !ok {
			stats[r.SiteID] = &siteStats{count: 1, first: r.Timestamp, last: r.Timestamp, min: r.Value, max: r.Value}
			continue
		}
		s.count++
		if r.Timestamp.Before(s.first) {
			s.first = r.Timestamp
		}
		if r.Timestamp.After(s.last) {
			s.last = r.Timestamp
		}
		if r.Value < s.min {
			s.min = r.Value
		}
		if r.Value > s.max {
			s.max = r.Value
		}
	}

	ids := make([]string, 0, len(stats))
	for id := range stats {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	t := table.NewWriter()
	t.SetTitle(dataset.DisplayName())
	t.AppendHeader(table.Row{"ExtSiteID", "Count", "First", "Last", "Min", "Max"})
	for _, id := range ids {
		s := stats[id]
		lo, hi := s.min, s.max
		t.AppendRow(table.Row{
			id,
			s.count,
			s.first.Format(time.DateTime),
			s.last.Format(time.DateTime),
			catalog.FormatValue(&lo),
			catalog.FormatValue(&hi),
		})
	}
	t.AppendFooter(table.Row{"Sites", len(ids), "Observations", len(rows)})

	t.SetStyle(table.StyleLight)
	return t.Render()
}
