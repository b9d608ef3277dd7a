package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hydrolab-nz/hydro-dataset-viewer/services/api/catalog"
)

type datasetView struct {
	catalog.DatasetType
	DisplayName string `json:"display_name"`
}

// handleV1Datasets returns every resolved dataset type
// GET /api/v1/catalog/datasets
func (s *Server) handleV1Datasets(c *gin.Context) {
	snap := s.currentSnapshot(c)
	if snap == nil {
		return
	}

	types := snap.DatasetTypes()
	data := make([]datasetView, 0, len(types))
	for _, d := range types {
		data = append(data, datasetView{DatasetType: d, DisplayName: d.DisplayName()})
	}

	c.JSON(http.StatusOK, gin.H{
		"data": data,
		"meta": gin.H{
			"count":     len(data),
			"loaded_at": snap.LoadedAt(),
		},
	})
}

// handleV1Facets returns facet options, date bounds and the default selection
// GET /api/v1/catalog/facets
func (s *Server) handleV1Facets(c *gin.Context) {
	snap := s.currentSnapshot(c)
	if snap == nil {
		return
	}

	def := s.defaultCriteria(snap)
	rec := snap.Reconciliation()
	c.JSON(http.StatusOK, gin.H{
		"data": snap.Facets(),
		"meta": gin.H{
			"rows":              snap.Len(),
			"orphaned_rows":     rec.OrphanedRows,
			"orphaned_site_ids": rec.OrphanedSiteIDs,
			"defaults": gin.H{
				"feature":   def.Features.Values(),
				"mtype":     def.MeasurementTypes.Values(),
				"ctype":     def.CollectionTypes.Values(),
				"data_code": def.DataCodes.Values(),
				"provider":  def.DataProviders.Values(),
				"start":     def.Start,
				"end":       def.End,
			},
		},
	})
}

// handleV1Reload rebuilds the summary index from the data sources
// POST /api/v1/catalog/reload
func (s *Server) handleV1Reload(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Minute)
	defer cancel()

	snap, err := s.Reload(ctx)
	if err != nil {
		s.writeError(c, err)
		return
	}

	rec := snap.Reconciliation()
	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"rows":          snap.Len(),
			"dataset_types": len(snap.DatasetTypes()),
			"orphaned_rows": rec.OrphanedRows,
			"loaded_at":     snap.LoadedAt(),
		},
	})
}

// defaultCriteria is the snapshot's initial selection with the configured
// window length ending at the latest available date.
func (s *Server) defaultCriteria(snap *catalog.Snapshot) catalog.FilterCriteria {
	def := snap.DefaultCriteria()
	if s.cfg.DefaultWindowDays > 0 {
		def.Start = def.End.AddDays(-s.cfg.DefaultWindowDays)
	}
	return def
}
