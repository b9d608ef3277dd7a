package catalog

import "sort"

// FacetSet is a set of accepted values for one facet. A bare value becomes a
// singleton set at the boundary, through NewFacetSet.
type FacetSet map[string]struct{}

// NewFacetSet builds a set from values; empty strings are ignored.
func NewFacetSet(values ...string) FacetSet {
	set := make(FacetSet, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		set[v] = struct{}{}
	}
	return set
}

// Contains reports membership. A nil or empty set contains nothing.
func (s FacetSet) Contains(v string) bool {
	_, ok := s[v]
	return ok
}

// Values returns the members in sorted order.
func (s FacetSet) Values() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// FacetFilters restricts which catalog entries are pulled by the resolver.
// An empty set leaves that facet unconstrained.
type FacetFilters struct {
	Features         FacetSet
	MeasurementTypes FacetSet
	CollectionTypes  FacetSet
	DataCodes        FacetSet
	DataProviders    FacetSet
}

func (f FacetFilters) allows(d DatasetType) bool {
	return allowed(f.Features, d.Feature) &&
		allowed(f.MeasurementTypes, d.MeasurementType) &&
		allowed(f.CollectionTypes, d.CollectionType) &&
		allowed(f.DataCodes, d.DataCode) &&
		allowed(f.DataProviders, d.DataProvider)
}

func allowed(set FacetSet, v string) bool {
	return len(set) == 0 || set.Contains(v)
}

// FilterCriteria is the transient input of Filter. Unlike FacetFilters an
// empty facet set matches no rows.
type FilterCriteria struct {
	Features         FacetSet
	MeasurementTypes FacetSet
	CollectionTypes  FacetSet
	DataCodes        FacetSet
	DataProviders    FacetSet
	Start            Date
	End              Date
}
