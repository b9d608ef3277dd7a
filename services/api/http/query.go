package http

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/hydrolab-nz/hydro-dataset-viewer/services/api/catalog"
)

var validatorsOnce sync.Once

// registerValidators adds the query tags used below to gin's validator.
func registerValidators() {
	validatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
			_, err := catalog.ParseDate(fl.Field().String())
			return err == nil
		})
		_ = v.RegisterValidation("dtlmethod", func(fl validator.FieldLevel) bool {
			_, err := catalog.ParseDetectionLimitMethod(fl.Field().String())
			return err == nil
		})
	})
}

// filterQuery is the facet and window selection shared by the summary endpoints.
// Repeat a facet parameter to select several values.
type filterQuery struct {
	Features        []string `form:"feature"`
	MeasurementType []string `form:"mtype"`
	CollectionType  []string `form:"ctype"`
	DataCode        []string `form:"data_code"`
	DataProvider    []string `form:"provider"`
	Start           string   `form:"start" binding:"omitempty,isodate"`
	End             string   `form:"end" binding:"omitempty,isodate"`
}

// criteria fills every missing facet or bound from defaults, the
// dashboard's initial selection.
func (q filterQuery) criteria(defaults catalog.FilterCriteria) (catalog.FilterCriteria, error) {
	c := catalog.FilterCriteria{
		Features:         facetOr(q.Features, defaults.Features),
		MeasurementTypes: facetOr(q.MeasurementType, defaults.MeasurementTypes),
		CollectionTypes:  facetOr(q.CollectionType, defaults.CollectionTypes),
		DataCodes:        facetOr(q.DataCode, defaults.DataCodes),
		DataProviders:    facetOr(q.DataProvider, defaults.DataProviders),
		Start:            defaults.Start,
		End:              defaults.End,
	}
	var err error
	if q.Start != "" {
		if c.Start, err = catalog.ParseDate(q.Start); err != nil {
			return c, err
		}
	}
	if q.End != "" {
		if c.End, err = catalog.ParseDate(q.End); err != nil {
			return c, err
		}
	}
	if c.Start.After(c.End) {
		return c, fmt.Errorf("%w: %s > %s", catalog.ErrInvalidDateRange, c.Start, c.End)
	}
	return c, nil
}

func facetOr(values []string, fallback catalog.FacetSet) catalog.FacetSet {
	if len(values) == 0 {
		return fallback
	}
	// Accept comma separated values as well as repeated parameters.
	split := make([]string, 0, len(values))
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			split = append(split, strings.TrimSpace(part))
		}
	}
	return catalog.NewFacetSet(split...)
}

// timeSeriesQuery selects one dataset at one or more sites. Sites may be
// plain ids or map hover labels.
type timeSeriesQuery struct {
	DatasetID int      `form:"dataset_id" binding:"required,gt=0"`
	Sites     []string `form:"site" binding:"required,min=1,dive,required"`
	Start     string   `form:"start" binding:"omitempty,isodate"`
	End       string   `form:"end" binding:"omitempty,isodate"`
	DTLMethod string   `form:"dtl_method" binding:"omitempty,dtlmethod"`
}

func (q timeSeriesQuery) window(defaults catalog.FilterCriteria) (catalog.Date, catalog.Date, error) {
	fq := filterQuery{Start: q.Start, End: q.End}
	c, err := fq.criteria(defaults)
	return c.Start, c.End, err
}
