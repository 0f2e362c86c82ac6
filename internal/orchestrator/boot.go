package orchestrator

import (
	"log"
	"os"

	"github.com/catering/dashboard/internal/metrics"
	"github.com/catering/dashboard/internal/reports"
	"github.com/catering/dashboard/internal/results"
)

// LoadBootResults seeds the cache before any live run. The pre-built report
// at path wins; without one the last persisted response is used. Neither
// being available is not an error. A live run that already completed is
// never overwritten. It reports whether the cache was seeded.
func (c *Coordinator) LoadBootResults(path string) bool {
	resp := c.bootFromFile(path)
	if resp == nil {
		resp = c.bootFromStore()
	}
	if resp == nil {
		log.Printf("Boot: no pre-built results available, cache left empty")
		return false
	}

	if !c.cache.CompareAndSwap(nil, resp) {
		log.Printf("Boot: a run already completed, keeping its results")
		return false
	}
	metrics.RecordLastRun(resp.Summary.Total, resp.Summary.Passed, resp.Summary.Failed)
	return true
}

func (c *Coordinator) bootFromFile(path string) *results.RunResponse {
	if path == "" {
		return nil
	}
	suites, found, err := reports.LoadUnitSuites(path, results.KindUnit)
	if err != nil {
		log.Printf("Boot: ignoring unreadable report: %v", err)
		return nil
	}
	if !found {
		log.Printf("Boot: no pre-built report at %s", path)
		return nil
	}

	at := c.now()
	if info, err := os.Stat(path); err == nil {
		at = info.ModTime()
	}
	resp := results.NewRunResponse(suites, at)
	resp.TestID = TestUnit
	log.Printf("Boot: loaded %d results from %s", resp.Summary.Total, path)
	return resp
}

func (c *Coordinator) bootFromStore() *results.RunResponse {
	if c.opts.Store == nil {
		return nil
	}
	resp, err := c.opts.Store.LoadLatest()
	if err != nil {
		log.Printf("Warning: failed to load persisted results: %v", err)
		return nil
	}
	if resp != nil {
		log.Printf("Boot: restored results of run %s from the database", resp.RunID)
	}
	return resp
}
