package catalog

import (
	"errors"
	"fmt"
)

var (
	ErrIDSpaceCollision            = errors.New("primary dataset id inside synthetic id range")
	ErrMixedDatasets               = errors.New("summary rows span more than one dataset type")
	ErrInvalidDetectionLimitMethod = errors.New("invalid detection limit method")
	ErrInvalidDateRange            = errors.New("start date after end date")
	ErrDatasetNotFound             = errors.New("dataset type not found")
)

// DataSourceError wraps a failure reaching or querying a backing store.
type DataSourceError struct {
	Source string
	Op     string
	Err    error
}

func (e *DataSourceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Source, e.Op, e.Err)
}

func (e *DataSourceError) Unwrap() error { return e.Err }

func dataSourceErr(source, op string, err error) error {
	if err == nil {
		return nil
	}
	var dse *DataSourceError
	if errors.As(err, &dse) {
		return err
	}
	return &DataSourceError{Source: source, Op: op, Err: err}
}

// SchemaMismatchError reports a source row that lacks a value needed to join
// or validate it.
type SchemaMismatchError struct {
	Source string
	Field  string
	Detail string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("schema mismatch in %s.%s: %s", e.Source, e.Field, e.Detail)
}
