package catalog

// Filter returns the rows whose five facets are accepted by c and whose
// availability window overlaps [c.Start, c.End]. The input is never modified.
func Filter(rows []SummaryRow, c FilterCriteria) []SummaryRow {
	out := make([]SummaryRow, 0)
	for _, r := range rows {
		if matches(r, c) {
			out = append(out, r)
		}
	}
	return out
}

func matches(r SummaryRow, c FilterCriteria) bool {
	return c.Features.Contains(r.Feature) &&
		c.MeasurementTypes.Contains(r.MeasurementType) &&
		c.CollectionTypes.Contains(r.CollectionType) &&
		c.DataCodes.Contains(r.DataCode) &&
		c.DataProviders.Contains(r.DataProvider) &&
		Overlaps(r.FromDate, r.ToDate, c.Start, c.End)
}

// Overlaps reports whether the window [from, to] starts inside, ends inside
// or fully contains the query window [start, end].
func Overlaps(from, to, start, end Date) bool {
	return from.Between(start, end) ||
		to.Between(start, end) ||
		(!from.After(start) && !to.Before(end))
}
