package results

import (
	"time"
)

type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
	StatusRunning Status = "running"
	StatusIdle    Status = "idle"
)

type SuiteKind string

const (
	KindUnit          SuiteKind = "unit-framework"
	KindEndToEnd      SuiteKind = "end-to-end-framework"
	KindAPICollection SuiteKind = "api-collection"
)

type TestResult struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Status       Status `json:"status"`
	DurationMs   int64  `json:"durationMs"`
	ErrorMessage string `json:"errorMessage,omitempty"` // only set when Status is failed
	RawOutput    string `json:"rawOutput,omitempty"`
}

type TestSuite struct {
	Name            string       `json:"name"`
	Kind            SuiteKind    `json:"kind"`
	Results         []TestResult `json:"results"`
	TotalPassed     int          `json:"totalPassed"`
	TotalFailed     int          `json:"totalFailed"`
	TotalDurationMs int64        `json:"totalDurationMs"`
}

type RunSummary struct {
	Total      int   `json:"total"`
	Passed     int   `json:"passed"`
	Failed     int   `json:"failed"`
	DurationMs int64 `json:"durationMs"`
}

type RunResponse struct {
	RunID             string      `json:"runId,omitempty"`
	TestID            string      `json:"testId,omitempty"`
	Success           bool        `json:"success"`
	Suites            []TestSuite `json:"suites"`
	Summary           RunSummary  `json:"summary"`
	Timestamp         time.Time   `json:"timestamp"`
	CombinedRawOutput string      `json:"combinedRawOutput,omitempty"`
}
