// Package orchestrator owns the run state and the result cache and drives
// the test tools for every requested run.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/catering/dashboard/internal/collections"
	"github.com/catering/dashboard/internal/database"
	"github.com/catering/dashboard/internal/executor"
	"github.com/catering/dashboard/internal/fixtures"
	"github.com/catering/dashboard/internal/metrics"
	"github.com/catering/dashboard/internal/reports"
	"github.com/catering/dashboard/internal/results"
	"github.com/google/uuid"
)

const (
	TestUnit       = "unit"
	TestEndToEnd   = "end-to-end"
	TestCollection = "collection"
	TestAll        = "all"
)

// ErrRunInProgress is returned, before anything is spawned, when a run is
// requested while another one is in flight.
var ErrRunInProgress = errors.New("run already in progress")

type UnknownTestError struct {
	TestID string
}

func (e *UnknownTestError) Error() string {
	return fmt.Sprintf("unknown test id %q (expected %s, %s or %s)", e.TestID, TestUnit, TestEndToEnd, TestCollection)
}

type Status struct {
	Running      bool   `json:"running"`
	CurrentRunID string `json:"currentRunId,omitempty"`
}

type Options struct {
	UnitCommand    executor.Command // {report} is replaced by the report path
	E2ECommand     executor.Command
	UnitReportPath string
	E2EReportPath  string
	WorkDir        string

	CollectionNames           []string
	RunAllIncludesCollections bool

	RunTimeout   time.Duration
	StreamOutput bool

	// Optional collaborators.
	Store    database.Store
	Fixtures *fixtures.SchemaPreparer
}

// Coordinator enforces that at most one run is in flight, executes runs and
// keeps the most recent RunResponse.
type Coordinator struct {
	exec        executor.Executor
	collections *collections.Runner
	opts        Options
	now         func() time.Time

	mu    sync.Mutex
	state Status

	cache atomic.Pointer[results.RunResponse]
}

func New(exec executor.Executor, batch *collections.Runner, opts Options) *Coordinator {
	return &Coordinator{
		exec:        exec,
		collections: batch,
		opts:        opts,
		now:         time.Now,
	}
}

// Status never blocks on a run.
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Cached returns the most recent response, or nil if there is none.
// The returned value is shared and must not be modified.
func (c *Coordinator) Cached() *results.RunResponse {
	return c.cache.Load()
}

// Run executes one named suite: unit, end-to-end or collection.
func (c *Coordinator) Run(ctx context.Context, testID string, verbose bool) (*results.RunResponse, error) {
	switch testID {
	case TestUnit, TestEndToEnd, TestCollection:
	default:
		return nil, &UnknownTestError{TestID: testID}
	}
	return c.exclusive(ctx, testID, verbose)
}

// RunAll runs the unit suite then the end-to-end suite, and the collections
// when configured to. A failing sub-run never stops the others.
func (c *Coordinator) RunAll(ctx context.Context, verbose bool) (*results.RunResponse, error) {
	return c.exclusive(ctx, TestAll, verbose)
}

func (c *Coordinator) exclusive(ctx context.Context, testID string, verbose bool) (*results.RunResponse, error) {
	if err := c.begin(testID); err != nil {
		return nil, err
	}
	defer c.end()

	return c.execute(ctx, testID, verbose)
}

func (c *Coordinator) begin(testID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Running {
		metrics.RecordConflict(testID)
		return ErrRunInProgress
	}
	c.state = Status{Running: true, CurrentRunID: testID}
	return nil
}

func (c *Coordinator) end() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Status{}
}

func (c *Coordinator) execute(ctx context.Context, testID string, verbose bool) (*results.RunResponse, error) {
	runID := uuid.New().String()
	start := time.Now()
	metrics.RecordRunStarted()
	log.Printf("Coordinator: starting %s run %s", testID, runID)

	if c.opts.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.RunTimeout)
		defer cancel()
	}

	lines, stopLogs := c.startLogPump(runID)
	run := &run{lines: lines, verbose: verbose}

	var err error
	switch testID {
	case TestUnit:
		err = c.runStructured(ctx, run, results.KindUnit)
	case TestEndToEnd:
		err = c.runStructured(ctx, run, results.KindEndToEnd)
	case TestCollection:
		c.runCollections(ctx, run)
	case TestAll:
		c.runAll(ctx, run)
	}
	stopLogs()

	if err != nil {
		log.Printf("Coordinator: %s run %s failed: %v", testID, runID, err)
		metrics.RecordRunFinished(testID, metrics.ResultError, time.Since(start))
		return nil, err
	}

	resp := results.NewRunResponse(run.suites, c.now())
	resp.RunID = runID
	resp.TestID = testID
	if verbose {
		resp.CombinedRawOutput = run.raw.String()
	}
	c.publish(resp)

	outcome := metrics.ResultPassed
	if !resp.Success {
		outcome = metrics.ResultFailed
	}
	metrics.RecordRunFinished(testID, outcome, time.Since(start))
	log.Printf("Coordinator: %s run %s finished in %s: %d passed, %d failed, %d total",
		testID, runID, time.Since(start).Round(time.Millisecond), resp.Summary.Passed, resp.Summary.Failed, resp.Summary.Total)

	return resp, nil
}

// run accumulates the suites of one run in execution order.
type run struct {
	lines   chan<- executor.Line
	verbose bool
	suites  []results.TestSuite
	raw     strings.Builder
}

func (r *run) addOutput(label, output string) {
	fmt.Fprintf(&r.raw, "=== %s ===\n%s", label, output)
}

func (c *Coordinator) runAll(ctx context.Context, r *run) {
	// Sequential: each structured sub-run must finish writing and reading
	// its report before the next tool starts.
	for _, kind := range []results.SuiteKind{results.KindUnit, results.KindEndToEnd} {
		if err := c.runStructured(ctx, r, kind); err != nil {
			log.Printf("Coordinator: %s sub-run failed: %v", label(kind), err)
			r.suites = append(r.suites, results.NewSuite(label(kind), kind, []results.TestResult{
				results.Failure(label(kind)+"-error", label(kind)+" run failed", err.Error()),
			}))
		}
	}
	if c.opts.RunAllIncludesCollections {
		c.runCollections(ctx, r)
	}
}

// runStructured runs the unit or end-to-end framework and reads its report.
// Only a failure to execute the tool is returned; report problems become
// suite data.
func (c *Coordinator) runStructured(ctx context.Context, r *run, kind results.SuiteKind) error {
	template, reportPath := c.opts.UnitCommand, c.opts.UnitReportPath
	if kind == results.KindEndToEnd {
		template, reportPath = c.opts.E2ECommand, c.opts.E2EReportPath
		if c.opts.Fixtures.Enabled() {
			if err := c.opts.Fixtures.Prepare(ctx); err != nil {
				log.Printf("Warning: end-to-end schema not prepared: %v", err)
			}
		}
	}

	// a report left by an earlier run must never be read as this run's
	reports.Remove(reportPath)

	cmd := template.Expand(map[string]string{"report": reportPath})
	cmd.Dir = c.opts.WorkDir

	start := time.Now()
	res, err := c.exec.Execute(ctx, cmd, r.lines)
	if err != nil {
		if res != nil {
			r.addOutput(label(kind), res.Output)
		}
		return err
	}
	r.addOutput(label(kind), res.Output)
	log.Printf("Coordinator: %s tool exited with code %d", label(kind), res.ExitCode)

	suites, err := loadFreshReport(reportPath, kind, start)
	if err != nil {
		log.Printf("Coordinator: %v", err)
		suites = []results.TestSuite{results.NewSuite(label(kind), kind, []results.TestResult{
			results.Failure(label(kind)+"-report", label(kind)+" report unreadable", err.Error()),
		})}
	}
	if r.verbose {
		attachRawOutput(suites, res.Output)
	}
	r.suites = append(r.suites, suites...)
	return nil
}

func (c *Coordinator) runCollections(ctx context.Context, r *run) {
	batch := c.collections.Run(ctx, collections.Request{
		Names:   c.opts.CollectionNames,
		Verbose: r.verbose,
		Lines:   r.lines,
	})
	r.addOutput(TestCollection, batch.RawOutput)
	r.suites = append(r.suites, batch.Suite)
}

// loadFreshReport reads a structured report written by the run that started
// at start. A missing report, or one left over from an earlier run, yields
// no suites.
func loadFreshReport(path string, kind results.SuiteKind, start time.Time) ([]results.TestSuite, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("Coordinator: no %s report at %s", label(kind), path)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to stat report %s: %w", path, err)
	}
	if info.ModTime().Before(start.Truncate(time.Second)) {
		log.Printf("Coordinator: ignoring stale %s report %s (written %s)", label(kind), path, info.ModTime().Format(time.RFC3339))
		return nil, nil
	}

	suites, _, err := reports.LoadUnitSuites(path, kind)
	return suites, err
}

func (c *Coordinator) publish(resp *results.RunResponse) {
	c.cache.Store(resp)
	metrics.RecordLastRun(resp.Summary.Total, resp.Summary.Passed, resp.Summary.Failed)

	if c.opts.Store != nil {
		if err := c.opts.Store.SaveLatest(resp); err != nil {
			log.Printf("Warning: failed to persist latest results: %v", err)
		}
	}
}

// startLogPump consumes classified console lines for the live log. The
// returned stop function must be called once every tool has exited.
func (c *Coordinator) startLogPump(runID string) (chan<- executor.Line, func()) {
	if !c.opts.StreamOutput {
		return nil, func() {}
	}

	lines := make(chan executor.Line, 256)
	done := make(chan struct{})
	tag := runID[:8]
	go func() {
		defer close(done)
		for l := range lines {
			if l.Kind == executor.LineGeneric {
				log.Printf("[%s] %s", tag, l.Text)
				continue
			}
			log.Printf("[%s] %s: %s", tag, l.Kind, l.Text)
		}
	}()

	return lines, func() {
		close(lines)
		<-done
	}
}

func attachRawOutput(suites []results.TestSuite, output string) {
	for i := range suites {
		for j := range suites[i].Results {
			if suites[i].Results[j].Status == results.StatusFailed {
				suites[i].Results[j].RawOutput = output
			}
		}
	}
}

func label(kind results.SuiteKind) string {
	switch kind {
	case results.KindUnit:
		return TestUnit
	case results.KindEndToEnd:
		return TestEndToEnd
	default:
		return TestCollection
	}
}
