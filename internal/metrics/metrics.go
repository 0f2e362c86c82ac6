package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	MetricsNamespace = "dashboard"

	ResultPassed   = "passed"
	ResultFailed   = "failed"
	ResultError    = "error"
	ResultConflict = "conflict"
)

var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "runs_total",
		Help:      "Count of test runs by requested test id and outcome",
	}, []string{
		"test_id",
		"result",
	})

	runDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_duration_seconds",
		Help:      "Wall clock duration of the last run per test id",
	}, []string{
		"test_id",
	})

	lastRunTests = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "last_run_tests",
		Help:      "Test results of the last completed run by status",
	}, []string{
		"status",
	})

	running = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_in_progress",
		Help:      "1 while a run is in flight",
	})
)

func RecordRunStarted() {
	running.Set(1)
}

func RecordRunFinished(testID, result string, elapsed time.Duration) {
	running.Set(0)
	runsTotal.WithLabelValues(testID, result).Inc()
	runDuration.WithLabelValues(testID).Set(elapsed.Seconds())
}

func RecordConflict(testID string) {
	runsTotal.WithLabelValues(testID, ResultConflict).Inc()
}

func RecordLastRun(total, passed, failed int) {
	lastRunTests.WithLabelValues("total").Set(float64(total))
	lastRunTests.WithLabelValues(ResultPassed).Set(float64(passed))
	lastRunTests.WithLabelValues(ResultFailed).Set(float64(failed))
}
