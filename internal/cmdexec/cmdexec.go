// Package cmdexec is the single place pinion touches external processes.
// Everything above it (probe, registry adapter, executor) depends on the
// Runner interface, so tests substitute a Recorder and never fork.
package cmdexec

import (
	"context"
	"strings"
)

// Command describes one external invocation.
type Command struct {
	Name string
	Args []string

	// Env holds extra KEY=VALUE pairs appended to the parent environment.
	Env []string

	// Dir is the working directory; empty inherits the process directory.
	Dir string

	// Privileged invocations run through sudo in non-interactive mode. The
	// privilege lease must already hold cached credentials.
	Privileged bool

	// Stream mirrors the child's output to the operator's terminal while
	// capturing it. Probe commands stay quiet; mutating ones stream.
	Stream bool
}

// Line renders the invocation as a single shell-like line for logs,
// prompts and test assertions.
func (c Command) Line() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Result captures what a finished command produced. Output is trimmed.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// PrimaryOutput returns stderr if present, otherwise stdout. Failure
// messages lead with whichever the command actually complained on.
func (r Result) PrimaryOutput() string {
	if r.Stderr != "" {
		return r.Stderr
	}
	return r.Stdout
}

// Runner executes external commands.
type Runner interface {
	// Run executes the command and returns its captured output. A non-zero
	// exit is reported as an error wrapping exec.ExitError.
	Run(ctx context.Context, command Command) (Result, error)

	// LookPath resolves a command name against PATH.
	LookPath(name string) (string, error)
}
