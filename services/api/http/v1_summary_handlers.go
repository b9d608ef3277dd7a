package http

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hydrolab-nz/hydro-dataset-viewer/services/api/catalog"
	"github.com/hydrolab-nz/hydro-dataset-viewer/services/api/metrics"
)

type siteMarker struct {
	catalog.Site
	Hover string `json:"hover"`
}

// filteredRows binds the facet query and filters the current snapshot. It
// writes the error response itself and returns ok=false on failure.
func (s *Server) filteredRows(c *gin.Context) ([]catalog.SummaryRow, catalog.FilterCriteria, bool) {
	snap := s.currentSnapshot(c)
	if snap == nil {
		return nil, catalog.FilterCriteria{}, false
	}

	var q filterQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, catalog.FilterCriteria{}, false
	}
	criteria, err := q.criteria(s.defaultCriteria(snap))
	if err != nil {
		s.writeError(c, err)
		return nil, catalog.FilterCriteria{}, false
	}

	rows := snap.Filter(criteria)
	metrics.FilterResultRows.Observe(float64(len(rows)))
	return rows, criteria, true
}

// handleV1Summary returns the filtered summary table with the dataset options
// and map sites it implies
// GET /api/v1/summary?feature=River&mtype=Flow&start=2020-01-01&end=2020-12-31
func (s *Server) handleV1Summary(c *gin.Context) {
	rows, criteria, ok := s.filteredRows(c)
	if !ok {
		return
	}

	sites := catalog.Sites(rows)
	markers := make([]siteMarker, 0, len(sites))
	for _, site := range sites {
		markers = append(markers, siteMarker{Site: site, Hover: site.HoverLabel()})
	}

	c.JSON(http.StatusOK, gin.H{
		"data": catalog.TableRows(rows),
		"meta": gin.H{
			"count":    len(rows),
			"start":    criteria.Start,
			"end":      criteria.End,
			"datasets": catalog.DatasetOptions(rows),
			"sites":    markers,
		},
	})
}

// handleV1SummaryCSV downloads the filtered summary table
// GET /api/v1/summary.csv
func (s *Server) handleV1SummaryCSV(c *gin.Context) {
	rows, _, ok := s.filteredRows(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := catalog.WriteSummaryCSV(&buf, rows); err != nil {
		s.writeError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="summary.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
