package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
)

const (
	FeatureRiver   = "River"
	FeatureAquifer = "Aquifer"

	SecondaryCollectionType  = "Manual Field"
	SecondaryDataCode        = "Primary"
	DefaultSecondaryProvider = "ECan"
	DefaultRecordType        = "WQ Sample"
)

// SecondaryConfig describes the water-quality catalog. The secondary path is
// skipped entirely when Enabled is false.
type SecondaryConfig struct {
	Enabled              bool
	DataProvider         string
	RecordType           string
	SurfaceWaterPatterns []string
}

// Classifier assigns a feature to a secondary catalog site.
type Classifier struct {
	patterns []string
}

// NewClassifier builds a case-insensitive substring classifier.
func NewClassifier(patterns []string) Classifier {
	lowered := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if p = strings.TrimSpace(p); p != "" {
			lowered = append(lowered, strings.ToLower(p))
		}
	}
	return Classifier{patterns: lowered}
}

// Feature returns River for sites matching a surface-water pattern and
// Aquifer for everything else.
func (c Classifier) Feature(siteID string) string {
	id := strings.ToLower(siteID)
	for _, p := range c.patterns {
		if strings.Contains(id, p) {
			return FeatureRiver
		}
	}
	return FeatureAquifer
}

// Catalog is the unified dataset-type table produced by one resolution.
type Catalog struct {
	DatasetTypes []DatasetType

	// SecondaryMeasurementIDs are the water-quality measurements behind the
	// secondary dataset types.
	SecondaryMeasurementIDs []int
}

// Primary returns the dataset types with native ids.
func (c Catalog) Primary() []DatasetType {
	out := make([]DatasetType, 0, len(c.DatasetTypes))
	for _, d := range c.DatasetTypes {
		if d.Source == SourcePrimary {
			out = append(out, d)
		}
	}
	return out
}

// Secondary returns the dataset types with synthetic ids.
func (c Catalog) Secondary() []DatasetType {
	out := make([]DatasetType, 0)
	for _, d := range c.DatasetTypes {
		if d.Source == SourceSecondary {
			out = append(out, d)
		}
	}
	return out
}

// Resolver unifies the primary and secondary dataset catalogs.
type Resolver struct {
	store      Store
	secondary  SecondaryConfig
	classifier Classifier
	offset     int
	logger     *zap.Logger
}

// NewResolver wires a resolver. offset <= 0 falls back to DefaultSyntheticIDOffset.
func NewResolver(store Store, secondary SecondaryConfig, offset int, logger *zap.Logger) *Resolver {
	if offset <= 0 {
		offset = DefaultSyntheticIDOffset
	}
	if secondary.DataProvider == "" {
		secondary.DataProvider = DefaultSecondaryProvider
	}
	if secondary.RecordType == "" {
		secondary.RecordType = DefaultRecordType
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		store:      store,
		secondary:  secondary,
		classifier: NewClassifier(secondary.SurfaceWaterPatterns),
		offset:     offset,
		logger:     logger.Named("resolver"),
	}
}

// Offset is the first synthetic id.
func (r *Resolver) Offset() int { return r.offset }

// Resolve loads the dataset types matching filters from both catalogs.
func (r *Resolver) Resolve(ctx context.Context, filters FacetFilters) (Catalog, error) {
	primary, err := r.resolvePrimary(ctx, filters)
	if err != nil {
		return Catalog{}, err
	}

	secondary, measurementIDs, err := r.resolveSecondary(ctx, filters)
	if err != nil {
		return Catalog{}, err
	}

	r.logger.Debug("resolved dataset types",
		zap.Int("primary", len(primary)),
		zap.Int("secondary", len(secondary)))

	return Catalog{
		DatasetTypes:            append(primary, secondary...),
		SecondaryMeasurementIDs: measurementIDs,
	}, nil
}

func (r *Resolver) resolvePrimary(ctx context.Context, filters FacetFilters) ([]DatasetType, error) {
	datasets, err := r.store.DatasetTypes(ctx, filters)
	if err != nil {
		return nil, dataSourceErr("primary catalog", "dataset types", err)
	}
	mtypes, err := r.store.MeasurementTypes(ctx)
	if err != nil {
		return nil, dataSourceErr("primary catalog", "measurement types", err)
	}

	units := make(map[string]string, len(mtypes))
	for _, m := range mtypes {
		units[m.MeasurementType] = m.Units
	}

	out := make([]DatasetType, 0, len(datasets))
	for _, d := range datasets {
		if d.ID >= r.offset {
			return nil, fmt.Errorf("%w: dataset %d, offset %d", ErrIDSpaceCollision, d.ID, r.offset)
		}
		u, ok := units[d.MeasurementType]
		if !ok {
			return nil, &SchemaMismatchError{
				Source: "MeasurementType",
				Field:  "MeasurementType",
				Detail: fmt.Sprintf("dataset %d references unknown measurement type %q", d.ID, d.MeasurementType),
			}
		}
		out = append(out, DatasetType{
			ID:              d.ID,
			Feature:         d.Feature,
			MeasurementType: d.MeasurementType,
			CollectionType:  d.CollectionType,
			DataCode:        d.DataCode,
			DataProvider:    d.DataProvider,
			Units:           u,
			Source:          SourcePrimary,
		})
	}
	return out, nil
}

func (r *Resolver) resolveSecondary(ctx context.Context, filters FacetFilters) ([]DatasetType, []int, error) {
	if !r.secondary.Enabled {
		return nil, nil, nil
	}

	measurements, err := r.store.SecondaryMeasurements(ctx, filters.MeasurementTypes.Values())
	if err != nil {
		return nil, nil, dataSourceErr("secondary catalog", "measurement types", err)
	}
	if len(measurements) == 0 {
		return nil, nil, nil
	}

	byID := make(map[int]SecondaryMeasurement, len(measurements))
	ids := make([]int, 0, len(measurements))
	for _, m := range measurements {
		byID[m.MeasurementID] = m
		ids = append(ids, m.MeasurementID)
	}

	pairs, err := r.store.SecondarySitePairs(ctx, ids, r.secondary.RecordType)
	if err != nil {
		return nil, nil, dataSourceErr("secondary catalog", "site measurements", err)
	}

	seen := make(map[facetKey]DatasetType)
	used := make(map[int]struct{})
	for _, p := range pairs {
		m, ok := byID[p.MeasurementID]
		if !ok {
			continue
		}
		d := r.secondaryType(p.SiteID, m)
		if !filters.allows(d) {
			continue
		}
		used[m.MeasurementID] = struct{}{}
		if _, dup := seen[d.key()]; !dup {
			seen[d.key()] = d
		}
	}

	keys := make([]facetKey, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].less(keys[j]) })

	out := make([]DatasetType, 0, len(keys))
	for i, k := range keys {
		d := seen[k]
		d.ID = r.offset + i
		out = append(out, d)
	}

	measurementIDs := make([]int, 0, len(used))
	for id := range used {
		measurementIDs = append(measurementIDs, id)
	}
	sort.Ints(measurementIDs)
	return out, measurementIDs, nil
}

// secondaryType applies the fixed facet defaults and the feature rule.
func (r *Resolver) secondaryType(siteID string, m SecondaryMeasurement) DatasetType {
	return DatasetType{
		Feature:         r.classifier.Feature(siteID),
		MeasurementType: m.MeasurementType,
		CollectionType:  SecondaryCollectionType,
		DataCode:        SecondaryDataCode,
		DataProvider:    r.secondary.DataProvider,
		Units:           m.Units,
		Source:          SourceSecondary,
	}
}
