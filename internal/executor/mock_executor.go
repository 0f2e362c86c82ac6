package executor

import (
	"context"
	"strings"
	"sync"
)

var _ Executor = (*MockExecutor)(nil)

// MockExecutor records every command and answers with Handler.
// Without a Handler it succeeds with empty output.
type MockExecutor struct {
	Handler func(ctx context.Context, cmd Command) (*Result, error)

	mu    sync.Mutex
	calls []Command
}

func NewMockExecutor(handler func(ctx context.Context, cmd Command) (*Result, error)) *MockExecutor {
	return &MockExecutor{Handler: handler}
}

func (m *MockExecutor) Execute(ctx context.Context, cmd Command, lines chan<- Line) (*Result, error) {
	m.mu.Lock()
	m.calls = append(m.calls, cmd)
	m.mu.Unlock()

	if m.Handler == nil {
		return &Result{}, nil
	}
	res, err := m.Handler(ctx, cmd)
	if res != nil && lines != nil {
		for _, text := range strings.Split(strings.TrimRight(res.Output, "\n"), "\n") {
			if text == "" {
				continue
			}
			select {
			case lines <- Line{Stream: StreamStdout, Kind: Classify(text), Text: text}:
			case <-ctx.Done():
				return res, err
			}
		}
	}
	return res, err
}

func (m *MockExecutor) Calls() []Command {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Command, len(m.calls))
	copy(out, m.calls)
	return out
}
