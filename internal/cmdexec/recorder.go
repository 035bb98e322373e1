package cmdexec

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

// Response scripts the Recorder's answer for invocations whose rendered
// line starts with Match.
type Response struct {
	Match  string
	Result Result
	Err    error
}

// Recorder is a Runner for tests. It answers from a script and records
// every invocation so tests can assert what would have run, in what order,
// with which privileges.
type Recorder struct {
	mu sync.Mutex

	// Responses are checked in order; the first prefix match wins.
	// Unmatched invocations succeed with empty output.
	Responses []Response

	// Paths maps command names to LookPath results. Absent names resolve
	// as not found.
	Paths map[string]string

	// Calls accumulates every Run invocation.
	Calls []Command
}

var _ Runner = (*Recorder)(nil)

// Run records the invocation and replies from the script.
func (r *Recorder) Run(_ context.Context, command Command) (Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Calls = append(r.Calls, command)

	line := command.Line()
	for _, response := range r.Responses {
		if strings.HasPrefix(line, response.Match) {
			return response.Result, response.Err
		}
	}
	return Result{}, nil
}

// LookPath resolves names from the Paths map.
func (r *Recorder) LookPath(name string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if path, ok := r.Paths[name]; ok {
		return path, nil
	}
	return "", fmt.Errorf("%s: %w", name, exec.ErrNotFound)
}

// Lines renders every recorded invocation, in order.
func (r *Recorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	lines := make([]string, 0, len(r.Calls))
	for _, call := range r.Calls {
		lines = append(lines, call.Line())
	}
	return lines
}
