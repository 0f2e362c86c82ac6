package reports

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"

	"github.com/acarl005/stripansi"
	"github.com/catering/dashboard/internal/results"
)

// PlaceholderDurationMs is the nominal duration given to results synthesized
// from a console transcript.
const PlaceholderDurationMs = 100

// CollectionReport is the JSON report written by the API collection runner
// (--reporters json --reporter-json-export).
type CollectionReport struct {
	Executions []Execution
}

type Execution struct {
	ItemName       string
	ResponseTimeMs int64
	RequestError   string
	Assertions     []Assertion
}

type Assertion struct {
	Name  string
	Error string // empty when the assertion held
}

type collectionReportJSON struct {
	Run *struct {
		Executions []struct {
			Item struct {
				Name string `json:"name"`
			} `json:"item"`
			Assertions []struct {
				Assertion string `json:"assertion"`
				Error     *struct {
					Message string `json:"message"`
				} `json:"error"`
			} `json:"assertions"`
			Response *struct {
				ResponseTime float64 `json:"responseTime"`
			} `json:"response"`
			RequestError *struct {
				Message string `json:"message"`
			} `json:"requestError"`
		} `json:"executions"`
	} `json:"run"`
}

func ParseCollectionReport(data []byte) (*CollectionReport, error) {
	var raw collectionReportJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse collection report: %w", err)
	}
	if raw.Run == nil {
		return nil, errors.New("failed to parse collection report: missing run")
	}

	report := &CollectionReport{Executions: make([]Execution, 0, len(raw.Run.Executions))}
	for _, e := range raw.Run.Executions {
		exec := Execution{ItemName: e.Item.Name}
		if e.Response != nil && e.Response.ResponseTime > 0 {
			exec.ResponseTimeMs = int64(e.Response.ResponseTime)
		}
		if e.RequestError != nil {
			exec.RequestError = e.RequestError.Message
			if exec.RequestError == "" {
				exec.RequestError = "request failed"
			}
		}
		for _, a := range e.Assertions {
			assertion := Assertion{Name: a.Assertion}
			if a.Error != nil {
				assertion.Error = a.Error.Message
				if assertion.Error == "" {
					assertion.Error = "assertion failed"
				}
			}
			exec.Assertions = append(exec.Assertions, assertion)
		}
		report.Executions = append(report.Executions, exec)
	}
	return report, nil
}

// Results gives one result per executed item. An item passes when none of
// its assertions reported an error and the request itself did not fail.
func (r *CollectionReport) Results(collection string) []results.TestResult {
	out := make([]results.TestResult, 0, len(r.Executions))
	for i, e := range r.Executions {
		name := e.ItemName
		if name == "" {
			name = fmt.Sprintf("%s request #%d", collection, i+1)
		}

		var failures []string
		if e.RequestError != "" {
			failures = append(failures, e.RequestError)
		}
		for _, a := range e.Assertions {
			if a.Error != "" {
				failures = append(failures, a.Error)
			}
		}

		tr := results.TestResult{
			ID:         fmt.Sprintf("%s-%d", collection, i+1),
			Name:       name,
			Status:     results.StatusPassed,
			DurationMs: e.ResponseTimeMs,
		}
		if len(failures) > 0 {
			tr.Status = results.StatusFailed
			tr.ErrorMessage = strings.Join(failures, "\n")
		}
		out = append(out, tr)
	}
	return out
}

var (
	passingRegex = regexp.MustCompile(`(\d+)\s+passing`)
	failingRegex = regexp.MustCompile(`(\d+)\s+failing`)
)

// MaxTranscriptCount caps each counter read from a transcript.
const MaxTranscriptCount = 10000

// ScanTranscript finds the "<N> passing" and "<N> failing" counters in a
// console transcript. matched is false when neither counter appears. A
// counter that does not parse is ignored; one above MaxTranscriptCount is
// clamped.
func ScanTranscript(output string) (passing, failing int, matched bool) {
	clean := stripansi.Strip(output)
	var ok bool
	if passing, ok = scanCounter(passingRegex, clean); ok {
		matched = true
	}
	if failing, ok = scanCounter(failingRegex, clean); ok {
		matched = true
	}
	return passing, failing, matched
}

func scanCounter(re *regexp.Regexp, text string) (int, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		log.Printf("Reports: ignoring transcript counter %q: %v", m[0], err)
		return 0, false
	}
	if n > MaxTranscriptCount {
		log.Printf("Reports: clamping transcript counter %q to %d", m[0], MaxTranscriptCount)
		n = MaxTranscriptCount
	}
	return n, true
}

// TranscriptResults synthesizes placeholder results from the transcript
// counters. Item names are lost; the pass and fail counts are kept.
func TranscriptResults(collection, output string) []results.TestResult {
	passing, failing, _ := ScanTranscript(output)

	out := make([]results.TestResult, 0, passing+failing)
	for i := 0; i < passing; i++ {
		out = append(out, results.TestResult{
			ID:         fmt.Sprintf("%s-passed-%d", collection, i+1),
			Name:       fmt.Sprintf("%s passing #%d", collection, i+1),
			Status:     results.StatusPassed,
			DurationMs: PlaceholderDurationMs,
		})
	}
	for i := 0; i < failing; i++ {
		out = append(out, results.TestResult{
			ID:           fmt.Sprintf("%s-failed-%d", collection, i+1),
			Name:         fmt.Sprintf("%s failing #%d", collection, i+1),
			Status:       results.StatusFailed,
			DurationMs:   PlaceholderDurationMs,
			ErrorMessage: "failure reported in console output, see raw output for details",
		})
	}
	return out
}
