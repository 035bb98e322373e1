package cmdexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// System runs commands on the host.
type System struct {
	// Stdout and Stderr receive streamed output. Nil selects the process
	// streams.
	Stdout io.Writer
	Stderr io.Writer
}

var _ Runner = (*System)(nil)

// Run executes the command, capturing output and optionally mirroring it to
// the operator. Non-zero exits come back as errors carrying the command's
// primary output so callers can surface what actually went wrong.
func (s *System) Run(ctx context.Context, command Command) (Result, error) {
	name, args := invocation(command)

	cmd := exec.CommandContext(ctx, name, args...)
	if command.Dir != "" {
		cmd.Dir = command.Dir
	}
	cmd.Env = append(os.Environ(), command.Env...)

	var stdoutBuf, stderrBuf bytes.Buffer
	if command.Stream {
		cmd.Stdout = io.MultiWriter(s.stdout(), &stdoutBuf)
		cmd.Stderr = io.MultiWriter(s.stderr(), &stderrBuf)
	} else {
		cmd.Stdout = &stdoutBuf
		cmd.Stderr = &stderrBuf
	}

	err := cmd.Run()

	result := Result{
		ExitCode: -1,
		Stdout:   strings.TrimSpace(stdoutBuf.String()),
		Stderr:   strings.TrimSpace(stderrBuf.String()),
	}
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if out := result.PrimaryOutput(); out != "" {
				return result, fmt.Errorf("%w: %s", err, out)
			}
		}
		return result, err
	}

	return result, nil
}

// LookPath resolves a command name against PATH.
func (s *System) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// invocation maps a Command onto the name and argument list actually
// executed. Privileged commands go through sudo -n: the lease already holds
// cached credentials, so a prompt at this point would mean the lease
// expired and failing fast beats hanging on a hidden password read.
func invocation(command Command) (string, []string) {
	if !command.Privileged {
		return command.Name, command.Args
	}
	return "sudo", append([]string{"-n", "--", command.Name}, command.Args...)
}

func (s *System) stdout() io.Writer {
	if s.Stdout != nil {
		return s.Stdout
	}
	return os.Stdout
}

func (s *System) stderr() io.Writer {
	if s.Stderr != nil {
		return s.Stderr
	}
	return os.Stderr
}
