package db

import (
	"strconv"
	"strings"
)

// dialect captures the placeholder and list-binding differences between
// Postgres and SQL Server.
type dialect struct {
	name string

	// arrays binds a whole slice as one "= ANY($n)" parameter.
	arrays bool

	// maxListParams caps the values bound per IN list; 0 means unlimited.
	maxListParams int

	placeholder func(n int) string
}

var (
	postgresDialect = dialect{
		name:        DriverPostgres,
		arrays:      true,
		placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
	}

	// SQL Server accepts at most 2100 parameters per request.
	sqlServerDialect = dialect{
		name:          DriverSQLServer,
		maxListParams: 2000,
		placeholder:   func(n int) string { return "@p" + strconv.Itoa(n) },
	}
)

func dialectFor(driver string) dialect {
	if driver == DriverSQLServer {
		return sqlServerDialect
	}
	return postgresDialect
}

// query accumulates positional arguments for one statement.
type query struct {
	d    dialect
	args []any
}

func (d dialect) newQuery() *query {
	return &query{d: d}
}

// bind appends v and returns its placeholder.
func (q *query) bind(v any) string {
	q.args = append(q.args, v)
	return q.d.placeholder(len(q.args))
}

// inList renders a membership test for col. An empty list matches nothing.
func inList[T any](q *query, col string, values []T) string {
	if len(values) == 0 {
		return "1 = 0"
	}
	if q.d.arrays {
		return col + " = ANY(" + q.bind(values) + ")"
	}
	ph := make([]string, len(values))
	for i, v := range values {
		ph[i] = q.bind(v)
	}
	return col + " IN (" + strings.Join(ph, ", ") + ")"
}

// chunk splits values into slices of at most size elements. size <= 0
// returns values whole.
func chunk[T any](values []T, size int) [][]T {
	if len(values) == 0 {
		return nil
	}
	if size <= 0 || len(values) <= size {
		return [][]T{values}
	}
	out := make([][]T, 0, (len(values)+size-1)/size)
	for start := 0; start < len(values); start += size {
		end := min(start+size, len(values))
		out = append(out, values[start:end])
	}
	return out
}
