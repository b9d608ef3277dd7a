package http

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hydrolab-nz/hydro-dataset-viewer/services/api/catalog"
)

// fetchSeries binds the selection and fetches its observations. It writes the
// error response itself and returns ok=false on failure.
func (s *Server) fetchSeries(c *gin.Context) (catalog.DatasetType, []catalog.TimeSeriesRow, bool) {
	snap := s.currentSnapshot(c)
	if snap == nil {
		return catalog.DatasetType{}, nil, false
	}

	var q timeSeriesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return catalog.DatasetType{}, nil, false
	}
	dataset, ok := snap.DatasetType(q.DatasetID)
	if !ok {
		s.writeError(c, fmt.Errorf("%w: %d", catalog.ErrDatasetNotFound, q.DatasetID))
		return catalog.DatasetType{}, nil, false
	}
	start, end, err := q.window(s.defaultCriteria(snap))
	if err != nil {
		s.writeError(c, err)
		return catalog.DatasetType{}, nil, false
	}
	dtl, err := catalog.ParseDetectionLimitMethod(q.DTLMethod)
	if err != nil {
		s.writeError(c, err)
		return catalog.DatasetType{}, nil, false
	}

	timeout := 60 * time.Second
	if s.cfg.WQRequestTimeout > 0 && catalog.IsSynthetic(dataset.ID, s.cfg.SyntheticIDOffset) {
		timeout = 2 * s.cfg.WQRequestTimeout
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	rows, err := s.fetcher.FetchSelection(ctx, snap, q.DatasetID, q.Sites, start, end, dtl)
	if err != nil {
		s.writeError(c, err)
		return catalog.DatasetType{}, nil, false
	}
	return dataset, rows, true
}

// handleV1TimeSeries returns raw observations for one dataset at the selected sites
// GET /api/v1/timeseries?dataset_id=5&site=SQ30141&site=SQ31045&start=2020-01-01
func (s *Server) handleV1TimeSeries(c *gin.Context) {
	dataset, rows, ok := s.fetchSeries(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": rows,
		"meta": gin.H{
			"count":        len(rows),
			"dataset":      datasetView{DatasetType: dataset, DisplayName: dataset.DisplayName()},
			"y_axis_title": dataset.Units,
		},
	})
}

// handleV1TimeSeriesCSV downloads the selected observations
// GET /api/v1/timeseries.csv
func (s *Server) handleV1TimeSeriesCSV(c *gin.Context) {
	_, rows, ok := s.fetchSeries(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := catalog.WriteTimeSeriesCSV(&buf, rows); err != nil {
		s.writeError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="time_series.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// handleV1TimeSeriesPNG renders the selected observations as a line chart
// GET /api/v1/timeseries.png
func (s *Server) handleV1TimeSeriesPNG(c *gin.Context) {
	dataset, rows, ok := s.fetchSeries(c)
	if !ok {
		return
	}
	if len(rows) == 0 {
		c.Status(http.StatusNoContent)
		return
	}

	var buf bytes.Buffer
	if err := renderTimeSeriesPNG(&buf, dataset, rows); err != nil {
		s.writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}
