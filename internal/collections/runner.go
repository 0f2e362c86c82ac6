// Package collections runs the API collections through the collection runner
// and merges their outcomes into a single suite.
package collections

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/catering/dashboard/internal/executor"
	"github.com/catering/dashboard/internal/reports"
	"github.com/catering/dashboard/internal/results"
	"golang.org/x/sync/errgroup"
)

const (
	SuiteName      = "API collections"
	NoTestsID      = "collections-none"
	collectionExt  = ".postman_collection.json"
	noTestsMessage = "no collection results were produced; check that the collection runner is installed and collections are configured"
)

type Options struct {
	Command        executor.Command // may use {collection}, {report} and {name}
	CollectionsDir string
	ReportDir      string
	WorkDir        string
	Timeout        time.Duration
}

type Runner struct {
	exec executor.Executor
	opts Options
}

func NewRunner(exec executor.Executor, opts Options) *Runner {
	return &Runner{exec: exec, opts: opts}
}

type Request struct {
	Names   []string
	Verbose bool
	Lines   chan<- executor.Line
}

type BatchResult struct {
	Suite     results.TestSuite
	RawOutput string
}

// uniqueNames drops repeated collection names, keeping first occurrences in
// order. Each name owns one report path, so it may only run once per batch.
func uniqueNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

type outcome struct {
	results []results.TestResult
	output  string
}

// Run executes every named collection concurrently and waits for all of
// them. It never fails: a collection that cannot run becomes one failing
// result, and an empty batch becomes a single "no tests available" failure.
func (r *Runner) Run(ctx context.Context, req Request) BatchResult {
	if _, err := os.Stat(r.opts.CollectionsDir); err != nil {
		log.Printf("Collections: directory %s not available: %v", r.opts.CollectionsDir, err)
		return noTests()
	}
	if err := os.MkdirAll(r.opts.ReportDir, 0755); err != nil {
		log.Printf("Collections: failed to create report dir %s: %v", r.opts.ReportDir, err)
	}

	names := uniqueNames(req.Names)
	outcomes := make([]outcome, len(names))
	var g errgroup.Group
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			outcomes[i] = r.runCollection(ctx, name, req.Lines)
			return nil
		})
	}
	_ = g.Wait()

	var merged []results.TestResult
	var raw strings.Builder
	for i, o := range outcomes {
		if req.Verbose {
			for j := range o.results {
				if o.results[j].Status == results.StatusFailed {
					o.results[j].RawOutput = o.output
				}
			}
		}
		merged = append(merged, o.results...)
		fmt.Fprintf(&raw, "=== %s ===\n%s", names[i], o.output)
	}

	if len(merged) == 0 {
		batch := noTests()
		batch.RawOutput = raw.String()
		return batch
	}

	return BatchResult{
		Suite:     results.NewSuite(SuiteName, results.KindAPICollection, merged),
		RawOutput: raw.String(),
	}
}

func (r *Runner) runCollection(ctx context.Context, name string, lines chan<- executor.Line) outcome {
	collectionPath := filepath.Join(r.opts.CollectionsDir, name+collectionExt)
	if _, err := os.Stat(collectionPath); err != nil {
		log.Printf("Collections: skipping %s, collection file not available: %v", name, err)
		return outcome{}
	}

	reportPath := filepath.Join(r.opts.ReportDir, name+".json")
	// a leftover report from an interrupted run must not be read as this run's
	reports.Remove(reportPath)

	cmd := r.opts.Command.Expand(map[string]string{
		"collection": collectionPath,
		"report":     reportPath,
		"name":       name,
	})
	cmd.Dir = r.opts.WorkDir

	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	start := time.Now()
	res, err := r.exec.Execute(ctx, cmd, lines)
	if err != nil {
		log.Printf("Collections: %s failed to run: %v", name, err)
		reports.Remove(reportPath)
		var output string
		if res != nil {
			output = res.Output
		}
		return outcome{
			results: []results.TestResult{results.Failure(name+"-error", name, err.Error())},
			output:  output,
		}
	}
	log.Printf("Collections: %s exited with code %d after %s", name, res.ExitCode, time.Since(start).Round(time.Millisecond))

	return outcome{results: collectResults(name, reportPath, res.Output), output: res.Output}
}

// collectResults prefers the JSON report and consumes it; without one it
// falls back to the console transcript.
func collectResults(name, reportPath, output string) []results.TestResult {
	data, found, err := reports.Read(reportPath)
	if err != nil {
		log.Printf("Collections: %v", err)
	}
	if found {
		defer reports.Remove(reportPath)
		report, err := reports.ParseCollectionReport(data)
		if err == nil {
			return report.Results(name)
		}
		log.Printf("Collections: %s: %v, falling back to console output", name, err)
	}

	if _, _, matched := reports.ScanTranscript(output); !matched {
		log.Printf("Collections: %s produced no report and no recognizable summary", name)
	}
	return reports.TranscriptResults(name, output)
}

func noTests() BatchResult {
	return BatchResult{
		Suite: results.NewSuite(SuiteName, results.KindAPICollection, []results.TestResult{
			results.Failure(NoTestsID, "No API tests available", noTestsMessage),
		}),
	}
}
