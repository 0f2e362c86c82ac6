package results

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewSuiteCounts(t *testing.T) {
	s := NewSuite("cart.test.js", KindUnit, []TestResult{
		{ID: "1", Name: "adds item", Status: StatusPassed, DurationMs: 12},
		{ID: "2", Name: "removes item", Status: StatusFailed, DurationMs: 30, ErrorMessage: "boom"},
		{ID: "3", Name: "todo", Status: StatusSkipped},
	})

	assert.Equal(t, 1, s.TotalPassed)
	assert.Equal(t, 1, s.TotalFailed)
	assert.Equal(t, 1, s.Skipped())
	assert.Equal(t, int64(42), s.TotalDurationMs)
	assert.Equal(t, len(s.Results), s.TotalPassed+s.TotalFailed+s.Skipped())
}

func TestNewSuiteNilResults(t *testing.T) {
	s := NewSuite("empty.test.js", KindUnit, nil)
	assert.NotNil(t, s.Results)
	assert.Empty(t, s.Results)
	assert.Zero(t, s.TotalPassed)
	assert.Zero(t, s.TotalFailed)
}

func TestNewRunResponse(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name    string
		suites  []TestSuite
		summary RunSummary
		success bool
	}{
		{
			name:    "no suites",
			suites:  nil,
			summary: RunSummary{},
			success: true,
		},
		{
			name: "one pass one fail",
			suites: []TestSuite{NewSuite("menu.test.js", KindUnit, []TestResult{
				{ID: "a", Status: StatusPassed, DurationMs: 5},
				{ID: "b", Status: StatusFailed, DurationMs: 7},
			})},
			summary: RunSummary{Total: 2, Passed: 1, Failed: 1, DurationMs: 12},
			success: false,
		},
		{
			name: "two suites all green with a skip",
			suites: []TestSuite{
				NewSuite("a", KindUnit, []TestResult{{ID: "a", Status: StatusPassed, DurationMs: 1}}),
				NewSuite("b", KindEndToEnd, []TestResult{
					{ID: "b", Status: StatusPassed, DurationMs: 2},
					{ID: "c", Status: StatusSkipped},
				}),
			},
			summary: RunSummary{Total: 3, Passed: 2, Failed: 0, DurationMs: 3},
			success: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := NewRunResponse(tt.suites, now)
			assert.Equal(t, tt.summary, resp.Summary)
			assert.Equal(t, tt.success, resp.Success)
			assert.Equal(t, resp.Summary.Failed == 0, resp.Success)
			assert.LessOrEqual(t, resp.Summary.Passed+resp.Summary.Failed, resp.Summary.Total)
			assert.Equal(t, now, resp.Timestamp)
			assert.NotNil(t, resp.Suites)
		})
	}
}

func TestFailure(t *testing.T) {
	r := Failure("auth-error", "auth", "exec: not found")
	assert.Equal(t, StatusFailed, r.Status)
	assert.Equal(t, "exec: not found", r.ErrorMessage)
	assert.Zero(t, r.DurationMs)
}
