// Package legacy converts unified suites into the response shape older
// dashboard consumers still read. It derives everything from the unified
// model and is never a source of truth.
package legacy

import (
	"github.com/catering/dashboard/internal/results"
)

type Test struct {
	Name         string `json:"name"`
	Status       string `json:"status"`
	DurationMs   int64  `json:"durationMs"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

type Suite struct {
	Name         string `json:"name"`
	Tests        []Test `json:"tests"`
	PassedCount  int    `json:"passedCount"`
	FailedCount  int    `json:"failedCount"`
	SkippedCount int    `json:"skippedCount"`
}

type Summary struct {
	Unit     []Suite `json:"unit"`
	EndToEnd []Suite `json:"endToEnd"`
}

// ToLegacyShape converts suites one to one. Counts are taken from the
// converted tests so they always agree with them.
func ToLegacyShape(suites []results.TestSuite) []Suite {
	out := make([]Suite, 0, len(suites))
	for _, s := range suites {
		ls := Suite{
			Name:  s.Name,
			Tests: make([]Test, 0, len(s.Results)),
		}
		for _, r := range s.Results {
			ls.Tests = append(ls.Tests, Test{
				Name:         r.Name,
				Status:       string(r.Status),
				DurationMs:   r.DurationMs,
				ErrorMessage: r.ErrorMessage,
			})
			switch r.Status {
			case results.StatusPassed:
				ls.PassedCount++
			case results.StatusFailed:
				ls.FailedCount++
			default:
				ls.SkippedCount++
			}
		}
		out = append(out, ls)
	}
	return out
}
