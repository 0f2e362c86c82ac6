package results

import (
	"time"
)

// NewSuite builds a suite and derives its totals from the given results.
// Result order is kept as given.
func NewSuite(name string, kind SuiteKind, tests []TestResult) TestSuite {
	if tests == nil {
		tests = []TestResult{}
	}
	s := TestSuite{
		Name:    name,
		Kind:    kind,
		Results: tests,
	}
	s.Recount()
	return s
}

// Recount recomputes TotalPassed, TotalFailed and TotalDurationMs from Results.
func (s *TestSuite) Recount() {
	s.TotalPassed = 0
	s.TotalFailed = 0
	s.TotalDurationMs = 0
	for _, r := range s.Results {
		switch r.Status {
		case StatusPassed:
			s.TotalPassed++
		case StatusFailed:
			s.TotalFailed++
		}
		s.TotalDurationMs += r.DurationMs
	}
}

// Skipped is every result that is neither passed nor failed.
func (s TestSuite) Skipped() int {
	return len(s.Results) - s.TotalPassed - s.TotalFailed
}

// Failure returns a single failing result. Used wherever a whole suite or
// collection could not produce real results.
func Failure(id, name, message string) TestResult {
	return TestResult{
		ID:           id,
		Name:         name,
		Status:       StatusFailed,
		ErrorMessage: message,
	}
}

// Summarize sums totals across suites.
func Summarize(suites []TestSuite) RunSummary {
	var sum RunSummary
	for _, s := range suites {
		sum.Total += s.TotalPassed + s.TotalFailed + s.Skipped()
		sum.Passed += s.TotalPassed
		sum.Failed += s.TotalFailed
		sum.DurationMs += s.TotalDurationMs
	}
	return sum
}

// NewRunResponse assembles a response; Success is derived from the summary.
func NewRunResponse(suites []TestSuite, at time.Time) *RunResponse {
	if suites == nil {
		suites = []TestSuite{}
	}
	summary := Summarize(suites)
	return &RunResponse{
		Success:   summary.Failed == 0,
		Suites:    suites,
		Summary:   summary,
		Timestamp: at,
	}
}
