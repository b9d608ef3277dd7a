package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveQueryCountsErrors(t *testing.T) {
	before := testutil.ToFloat64(DBQueryErrors.WithLabelValues("postgres", "sites"))

	ObserveQuery("postgres", "sites", time.Now(), nil)
	ObserveQuery("postgres", "sites", time.Now(), errors.New("connection reset"))

	after := testutil.ToFloat64(DBQueryErrors.WithLabelValues("postgres", "sites"))
	assert.Equal(t, before+1, after)
}

func TestRecordSnapshot(t *testing.T) {
	RecordSnapshot(120, 3, 2*time.Second, nil)
	assert.Equal(t, 120.0, testutil.ToFloat64(SnapshotRows))
	assert.Equal(t, 3.0, testutil.ToFloat64(SnapshotOrphanedRows))

	failures := testutil.ToFloat64(SnapshotLoads.WithLabelValues("error"))
	RecordSnapshot(0, 0, 0, errors.New("store down"))
	assert.Equal(t, failures+1, testutil.ToFloat64(SnapshotLoads.WithLabelValues("error")))
	assert.Equal(t, 120.0, testutil.ToFloat64(SnapshotRows), "failed load keeps the previous gauges")
}
