package reports

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/acarl005/stripansi"
	"github.com/catering/dashboard/internal/results"
)

// UnitReport is the structured JSON report written by the unit and
// end-to-end test framework (--json --outputFile).
type UnitReport struct {
	NumTotalTests  int
	NumPassedTests int
	NumFailedTests int
	Files          []FileResult
}

type FileResult struct {
	Path       string
	Status     string
	Assertions []AssertionResult
}

type AssertionResult struct {
	AncestorTitles  []string
	Title           string
	FullName        string
	Status          string
	DurationMs      int64
	FailureMessages []string
}

type unitReportJSON struct {
	NumTotalTests  int  `json:"numTotalTests"`
	NumPassedTests int  `json:"numPassedTests"`
	NumFailedTests int  `json:"numFailedTests"`
	TestResults    *[]struct {
		Name             string `json:"name"`
		TestFilePath     string `json:"testFilePath"`
		Status           string `json:"status"`
		AssertionResults []struct {
			AncestorTitles  []string `json:"ancestorTitles"`
			Title           string   `json:"title"`
			FullName        string   `json:"fullName"`
			Status          string   `json:"status"`
			Duration        *float64 `json:"duration"`
			FailureMessages []string `json:"failureMessages"`
		} `json:"assertionResults"`
	} `json:"testResults"`
}

// ParseUnitReport validates and decodes a structured report. Absent optional
// fields become zero values; a missing testResults array is an error.
func ParseUnitReport(data []byte) (*UnitReport, error) {
	var raw unitReportJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse structured report: %w", err)
	}
	if raw.TestResults == nil {
		return nil, errors.New("failed to parse structured report: missing testResults")
	}

	report := &UnitReport{
		NumTotalTests:  raw.NumTotalTests,
		NumPassedTests: raw.NumPassedTests,
		NumFailedTests: raw.NumFailedTests,
		Files:          make([]FileResult, 0, len(*raw.TestResults)),
	}

	for _, f := range *raw.TestResults {
		path := f.Name
		if path == "" {
			path = f.TestFilePath
		}
		file := FileResult{
			Path:       path,
			Status:     f.Status,
			Assertions: make([]AssertionResult, 0, len(f.AssertionResults)),
		}
		for _, a := range f.AssertionResults {
			var duration int64
			if a.Duration != nil && *a.Duration > 0 {
				duration = int64(math.Round(*a.Duration))
			}
			file.Assertions = append(file.Assertions, AssertionResult{
				AncestorTitles:  a.AncestorTitles,
				Title:           a.Title,
				FullName:        a.FullName,
				Status:          a.Status,
				DurationMs:      duration,
				FailureMessages: a.FailureMessages,
			})
		}
		report.Files = append(report.Files, file)
	}

	return report, nil
}

// MapStatus converts a framework status string to a result status.
// Anything that is not passed or failed (pending, todo, disabled) is skipped.
func MapStatus(status string) results.Status {
	switch status {
	case "passed":
		return results.StatusPassed
	case "failed":
		return results.StatusFailed
	default:
		return results.StatusSkipped
	}
}

// Suites builds one suite per test file, named after the file's base name.
func (r *UnitReport) Suites(kind results.SuiteKind) []results.TestSuite {
	suites := make([]results.TestSuite, 0, len(r.Files))
	for _, f := range r.Files {
		name := "unnamed"
		if f.Path != "" {
			name = filepath.Base(f.Path)
		}

		tests := make([]results.TestResult, 0, len(f.Assertions))
		for i, a := range f.Assertions {
			tr := results.TestResult{
				ID:         fmt.Sprintf("%s:%d", name, i+1),
				Name:       assertionName(a, i),
				Status:     MapStatus(a.Status),
				DurationMs: a.DurationMs,
			}
			if tr.Status == results.StatusFailed && len(a.FailureMessages) > 0 {
				tr.ErrorMessage = stripansi.Strip(strings.Join(a.FailureMessages, "\n"))
			}
			tests = append(tests, tr)
		}

		suites = append(suites, results.NewSuite(name, kind, tests))
	}
	return suites
}

func assertionName(a AssertionResult, i int) string {
	if a.FullName != "" {
		return a.FullName
	}
	parts := append(append([]string{}, a.AncestorTitles...), a.Title)
	if name := strings.TrimSpace(strings.Join(parts, " ")); name != "" {
		return name
	}
	return fmt.Sprintf("test #%d", i+1)
}

// LoadUnitSuites reads and parses a structured report file. A missing file
// yields found=false with no error.
func LoadUnitSuites(path string, kind results.SuiteKind) (suites []results.TestSuite, found bool, err error) {
	data, found, err := Read(path)
	if err != nil || !found {
		return nil, found, err
	}
	report, err := ParseUnitReport(data)
	if err != nil {
		return nil, true, fmt.Errorf("%s: %w", path, err)
	}
	return report.Suites(kind), true, nil
}
