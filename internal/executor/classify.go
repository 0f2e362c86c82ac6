package executor

import (
	"regexp"
	"strings"

	"github.com/acarl005/stripansi"
)

type Stream string

const (
	StreamStdout Stream = "stdout"
	StreamStderr Stream = "stderr"
)

// LineKind tags a console line for the live log. It is cosmetic and never
// used to decide whether a test passed.
type LineKind string

const (
	LineGeneric       LineKind = "generic"
	LineSuitePass     LineKind = "suite-pass"
	LineSuiteFail     LineKind = "suite-fail"
	LineAssertionPass LineKind = "assertion-pass"
	LineAssertionFail LineKind = "assertion-fail"
	LineSummary       LineKind = "summary"
)

type Line struct {
	Stream Stream
	Kind   LineKind
	Text   string
}

var (
	summaryCountRegex   = regexp.MustCompile(`^\d+\s+(passing|failing|pending)\b`)
	summaryTableRegex   = regexp.MustCompile(`^│\s+(iterations|requests|test-scripts|prerequest-scripts|assertions)\s+│`)
	numberedFailure     = regexp.MustCompile(`^\d+\.\s+\S`)
	summaryLinePrefixes = []string{"Tests:", "Test Suites:", "Snapshots:", "Time:", "Ran all test suites"}
)

// Classify tags a single output line of a unit framework or collection runner.
func Classify(text string) LineKind {
	line := strings.TrimSpace(stripansi.Strip(text))
	if line == "" {
		return LineGeneric
	}

	switch {
	case strings.HasPrefix(line, "PASS "):
		return LineSuitePass
	case strings.HasPrefix(line, "FAIL "):
		return LineSuiteFail
	case strings.HasPrefix(line, "✓"), strings.HasPrefix(line, "√"):
		return LineAssertionPass
	case strings.HasPrefix(line, "✕"), strings.HasPrefix(line, "✗"), strings.HasPrefix(line, "×"):
		return LineAssertionFail
	case summaryCountRegex.MatchString(line), summaryTableRegex.MatchString(line):
		return LineSummary
	case numberedFailure.MatchString(line):
		return LineAssertionFail
	}

	for _, prefix := range summaryLinePrefixes {
		if strings.HasPrefix(line, prefix) {
			return LineSummary
		}
	}
	return LineGeneric
}
