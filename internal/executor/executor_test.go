package executor

import (
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessExecutor_CapturesBothStreams(t *testing.T) {
	e := NewProcessExecutor()

	res, err := e.Execute(context.Background(), Command{
		Name: "sh",
		Args: []string{"-c", "echo out-line; echo err-line 1>&2"},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, res.ExitCode)
	assert.Contains(t, res.Output, "out-line\n")
	assert.Contains(t, res.Output, "err-line\n")
}

func TestProcessExecutor_NonZeroExitIsNotAnError(t *testing.T) {
	e := NewProcessExecutor()

	res, err := e.Execute(context.Background(), Command{
		Name: "sh",
		Args: []string{"-c", "echo '1 failing'; exit 3"},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "1 failing\n", res.Output)
}

func TestProcessExecutor_SpawnFailure(t *testing.T) {
	e := NewProcessExecutor()

	res, err := e.Execute(context.Background(), Command{Name: "definitely-not-a-real-binary-xyz"}, nil)
	assert.Nil(t, res)

	var execErr *ExecError
	require.True(t, errors.As(err, &execErr))
	assert.True(t, errors.Is(err, exec.ErrNotFound))
	assert.Equal(t, "definitely-not-a-real-binary-xyz", execErr.Command)
}

func TestProcessExecutor_EmptyCommand(t *testing.T) {
	_, err := NewProcessExecutor().Execute(context.Background(), Command{}, nil)

	var execErr *ExecError
	assert.True(t, errors.As(err, &execErr))
}

func TestProcessExecutor_Timeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err := NewProcessExecutor().Execute(ctx, Command{Name: "sleep", Args: []string{"5"}}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestProcessExecutor_StreamsClassifiedLines(t *testing.T) {
	lines := make(chan Line, 16)

	res, err := NewProcessExecutor().Execute(context.Background(), Command{
		Name: "sh",
		Args: []string{"-c", "echo 'PASS src/menu.test.js'; printf 'no newline'"},
	}, lines)
	require.NoError(t, err)
	close(lines)

	var got []Line
	for l := range lines {
		got = append(got, l)
	}
	require.Len(t, got, 2)
	assert.Equal(t, LineSuitePass, got[0].Kind)
	assert.Equal(t, StreamStdout, got[0].Stream)
	assert.Equal(t, "no newline", got[1].Text)
	assert.Equal(t, "PASS src/menu.test.js\nno newline\n", res.Output)
}

func TestProcessExecutor_WorkingDirectory(t *testing.T) {
	dir := t.TempDir()

	res, err := NewProcessExecutor().Execute(context.Background(), Command{Name: "pwd", Dir: dir}, nil)
	require.NoError(t, err)
	assert.Contains(t, res.Output, dir)
}

func TestParseCommand(t *testing.T) {
	cmd, err := ParseCommand("  npx jest --json --outputFile=reports/unit.json ")
	require.NoError(t, err)
	assert.Equal(t, "npx", cmd.Name)
	assert.Equal(t, []string{"jest", "--json", "--outputFile=reports/unit.json"}, cmd.Args)
	assert.Equal(t, "npx jest --json --outputFile=reports/unit.json", cmd.String())

	_, err = ParseCommand("   ")
	assert.Error(t, err)
}

func TestCommandExpand(t *testing.T) {
	cmd, err := ParseCommand("npx newman run {collection} --reporter-json-export {report}")
	require.NoError(t, err)

	got := cmd.Expand(map[string]string{
		"collection": "collections/order history.json",
		"report":     "reports/orders.json",
	})
	assert.Equal(t, []string{"newman", "run", "collections/order history.json", "--reporter-json-export", "reports/orders.json"}, got.Args)
	assert.Equal(t, "run", cmd.Args[1])
	assert.Equal(t, "{collection}", cmd.Args[2])
}

func TestClassify(t *testing.T) {
	tests := []struct {
		line string
		want LineKind
	}{
		{"PASS tests/unit/menu.test.js", LineSuitePass},
		{"FAIL tests/unit/order.test.js (5.2 s)", LineSuiteFail},
		{"    ✓ creates a menu (12 ms)", LineAssertionPass},
		{"    ✕ rejects empty name (3 ms)", LineAssertionFail},
		{"  1. Status code is 200", LineAssertionFail},
		{"Tests:       1 failed, 4 passed, 5 total", LineSummary},
		{"  3 passing (2s)", LineSummary},
		{"│              assertions │         12 │         1 │", LineSummary},
		{"\x1b[32mPASS\x1b[39m tests/unit/diet.test.js", LineSuitePass},
		{"console.log src/app.js:12", LineGeneric},
		{"", LineGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.line))
		})
	}
}
