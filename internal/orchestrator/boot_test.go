package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/catering/dashboard/internal/database"
	"github.com/catering/dashboard/internal/executor"
	"github.com/catering/dashboard/internal/results"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadBootResults_FromFile(t *testing.T) {
	c, opts := newCoordinator(t, executor.NewMockExecutor(nil))
	path := filepath.Join(opts.WorkDir, "prebuilt-results.json")
	require.NoError(t, os.WriteFile(path, []byte(scenarioAReport), 0644))
	built := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(path, built, built))

	assert.True(t, c.LoadBootResults(path))

	cached := c.Cached()
	require.NotNil(t, cached)
	assert.Equal(t, results.RunSummary{Total: 2, Passed: 1, Failed: 1, DurationMs: 20}, cached.Summary)
	assert.False(t, cached.Success)
	assert.True(t, built.Equal(cached.Timestamp))
	assert.Equal(t, Status{}, c.Status(), "boot never counts as a run")
}

func TestLoadBootResults_Absent(t *testing.T) {
	c, opts := newCoordinator(t, executor.NewMockExecutor(nil))

	assert.False(t, c.LoadBootResults(filepath.Join(opts.WorkDir, "missing.json")))
	assert.False(t, c.LoadBootResults(""))
	assert.Nil(t, c.Cached())
}

func TestLoadBootResults_Malformed(t *testing.T) {
	c, opts := newCoordinator(t, executor.NewMockExecutor(nil))
	path := filepath.Join(opts.WorkDir, "prebuilt-results.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0644))

	assert.False(t, c.LoadBootResults(path))
	assert.Nil(t, c.Cached())
}

func TestLoadBootResults_FallsBackToStore(t *testing.T) {
	store := database.NewMockDatabase()
	persisted := results.NewRunResponse([]results.TestSuite{
		results.NewSuite("order.test.js", results.KindEndToEnd, []results.TestResult{
			{ID: "order.test.js:0", Name: "places an order", Status: results.StatusPassed, DurationMs: 40},
		}),
	}, time.Now())
	persisted.RunID = "persisted-run"
	require.NoError(t, store.SaveLatest(persisted))

	c, opts := newCoordinator(t, executor.NewMockExecutor(nil), func(o *Options) { o.Store = store })

	assert.True(t, c.LoadBootResults(filepath.Join(opts.WorkDir, "missing.json")))
	require.NotNil(t, c.Cached())
	assert.Equal(t, "persisted-run", c.Cached().RunID)
	assert.Equal(t, 1, c.Cached().Summary.Passed)
}

func TestLoadBootResults_FilePreferredOverStore(t *testing.T) {
	store := database.NewMockDatabase()
	require.NoError(t, store.SaveLatest(&results.RunResponse{RunID: "persisted-run"}))

	c, opts := newCoordinator(t, executor.NewMockExecutor(nil), func(o *Options) { o.Store = store })
	path := filepath.Join(opts.WorkDir, "prebuilt-results.json")
	require.NoError(t, os.WriteFile(path, []byte(scenarioAReport), 0644))

	assert.True(t, c.LoadBootResults(path))
	assert.Empty(t, c.Cached().RunID)
	assert.Equal(t, 2, c.Cached().Summary.Total)
}

func TestLoadBootResults_NeverOverwritesLiveRun(t *testing.T) {
	exec := executor.NewMockExecutor(writeReport(t, passingReport))
	c, opts := newCoordinator(t, exec)

	live, err := c.Run(context.Background(), TestUnit, false)
	require.NoError(t, err)

	path := filepath.Join(opts.WorkDir, "prebuilt-results.json")
	require.NoError(t, os.WriteFile(path, []byte(scenarioAReport), 0644))

	assert.False(t, c.LoadBootResults(path))
	assert.Same(t, live, c.Cached())
}
