package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordRunFinished(t *testing.T) {
	before := testutil.ToFloat64(runsTotal.WithLabelValues("unit", ResultFailed))

	RecordRunStarted()
	assert.Equal(t, 1.0, testutil.ToFloat64(running))

	RecordRunFinished("unit", ResultFailed, 1500*time.Millisecond)
	assert.Equal(t, 0.0, testutil.ToFloat64(running))
	assert.Equal(t, before+1, testutil.ToFloat64(runsTotal.WithLabelValues("unit", ResultFailed)))
	assert.Equal(t, 1.5, testutil.ToFloat64(runDuration.WithLabelValues("unit")))
}

func TestRecordLastRun(t *testing.T) {
	RecordLastRun(10, 7, 2)
	assert.Equal(t, 10.0, testutil.ToFloat64(lastRunTests.WithLabelValues("total")))
	assert.Equal(t, 7.0, testutil.ToFloat64(lastRunTests.WithLabelValues(ResultPassed)))
	assert.Equal(t, 2.0, testutil.ToFloat64(lastRunTests.WithLabelValues(ResultFailed)))
}

func TestRecordConflict(t *testing.T) {
	before := testutil.ToFloat64(runsTotal.WithLabelValues("all", ResultConflict))
	RecordConflict("all")
	assert.Equal(t, before+1, testutil.ToFloat64(runsTotal.WithLabelValues("all", ResultConflict)))
}
