package http

// registerV1Routes sets up the v1 API structure
// Groups: /api/v1/catalog, /api/v1/summary, /api/v1/timeseries
func (s *Server) registerV1Routes() {
	v1 := s.engine.Group("/api/v1")
	v1.Use(apiVersionMiddleware()) // Add X-API-Version: v1 header
	if s.cfg.BearerToken != "" {
		v1.Use(bearerAuthMiddleware(s.cfg.BearerToken))
	}

	// Catalog endpoints - dataset types, facet options and reload
	cat := v1.Group("/catalog")
	{
		cat.GET("/datasets", s.handleV1Datasets)
		cat.GET("/facets", s.handleV1Facets)
		cat.POST("/reload", s.handleV1Reload)
	}

	// Summary endpoints - filtered table, dataset options and map sites
	v1.GET("/summary", s.handleV1Summary)
	v1.GET("/summary.csv", s.handleV1SummaryCSV)

	// Time series endpoints - raw observations for one dataset and many sites
	v1.GET("/timeseries", s.handleV1TimeSeries)
	v1.GET("/timeseries.csv", s.handleV1TimeSeriesCSV)
	v1.GET("/timeseries.png", s.handleV1TimeSeriesPNG)
}
