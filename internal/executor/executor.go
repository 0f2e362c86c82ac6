package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// Pipes of grandchildren (npx -> node) can outlive a killed child.
// Wait gives up on them after this long.
const waitDelay = 5 * time.Second

var _ Executor = (*ProcessExecutor)(nil)

// Command is an executable plus its argument list. It is never run through a shell.
type Command struct {
	Name string
	Args []string
	Dir  string
	Env  []string // added on top of the current environment
}

func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// ParseCommand splits a whitespace separated command line into a Command.
// Quoting is not interpreted.
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("empty command")
	}
	return Command{Name: fields[0], Args: fields[1:]}, nil
}

// Expand replaces {placeholder} tokens inside each argument. Arguments are
// expanded one by one so a value can never split into extra arguments.
func (c Command) Expand(vars map[string]string) Command {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	r := strings.NewReplacer(pairs...)

	out := c
	out.Name = r.Replace(c.Name)
	out.Args = make([]string, len(c.Args))
	for i, a := range c.Args {
		out.Args[i] = r.Replace(a)
	}
	return out
}

type Result struct {
	ExitCode int
	Output   string
}

// Executor runs one external command to completion.
// A non-zero exit code is a normal result, not an error. Lines, when non-nil,
// receives every output line as it arrives; the executor never closes it.
type Executor interface {
	Execute(ctx context.Context, cmd Command, lines chan<- Line) (*Result, error)
}

// ExecError is returned when a command could not be started or was stopped
// by its context before exiting on its own.
type ExecError struct {
	Command string
	Err     error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("failed to execute %q: %v", e.Command, e.Err)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// ProcessExecutor runs commands as OS processes.
type ProcessExecutor struct{}

func NewProcessExecutor() *ProcessExecutor {
	return &ProcessExecutor{}
}

func (e *ProcessExecutor) Execute(ctx context.Context, c Command, lines chan<- Line) (*Result, error) {
	if c.Name == "" {
		return nil, &ExecError{Command: c.String(), Err: errors.New("empty command")}
	}

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.Env = append(os.Environ(), c.Env...)
	cmd.WaitDelay = waitDelay

	out := &capture{ctx: ctx, lines: lines}
	stdout := &lineWriter{stream: StreamStdout, out: out}
	stderr := &lineWriter{stream: StreamStderr, out: out}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err := cmd.Run()
	stdout.flush()
	stderr.flush()
	out.close()

	if cmd.ProcessState == nil {
		// never started
		return nil, &ExecError{Command: c.String(), Err: err}
	}

	res := &Result{
		ExitCode: cmd.ProcessState.ExitCode(),
		Output:   out.String(),
	}

	if ctxErr := ctx.Err(); err != nil && ctxErr != nil {
		return res, &ExecError{Command: c.String(), Err: ctxErr}
	}

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) && !errors.Is(err, exec.ErrWaitDelay) {
		return res, &ExecError{Command: c.String(), Err: err}
	}

	return res, nil
}

// capture collects the combined transcript of both streams.
type capture struct {
	ctx   context.Context
	lines chan<- Line

	mu     sync.Mutex
	buf    strings.Builder
	closed bool
}

// add is serialized by mu so no line is sent once close has returned,
// even if a stray copy goroutine outlives WaitDelay.
func (c *capture) add(stream Stream, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.buf.WriteString(text)
	c.buf.WriteByte('\n')

	if c.lines == nil {
		return
	}
	select {
	case c.lines <- Line{Stream: stream, Kind: Classify(text), Text: text}:
	case <-c.ctx.Done():
	}
}

func (c *capture) close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *capture) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.String()
}

// lineWriter splits a byte stream into lines.
type lineWriter struct {
	stream Stream
	out    *capture

	mu      sync.Mutex
	partial []byte
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.partial = append(w.partial, p...)
	for {
		i := bytes.IndexByte(w.partial, '\n')
		if i < 0 {
			break
		}
		w.out.add(w.stream, strings.TrimSuffix(string(w.partial[:i]), "\r"))
		w.partial = w.partial[i+1:]
	}
	return len(p), nil
}

func (w *lineWriter) flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.partial) > 0 {
		w.out.add(w.stream, strings.TrimSuffix(string(w.partial), "\r"))
		w.partial = nil
	}
}
