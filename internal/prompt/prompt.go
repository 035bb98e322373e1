// Package prompt puts execution questions in front of the operator.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/pinionhq/pinion/internal/execute"
)

// Interactive reports whether stdin and stdout are both terminals. Without
// one there is nobody to answer, and the caller falls back to a
// non-interactive decider.
func Interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// Terminal renders each question as a huh confirm form. Aborting the form
// with Esc or Ctrl+C declines the question rather than killing the run;
// the convergence loop treats a decline as a skip, which is the safe
// reading of an interrupted prompt.
type Terminal struct {
	run func(ctx context.Context, form *huh.Form) error
}

var _ execute.Decider = (*Terminal)(nil)

// NewTerminal builds the interactive decider.
func NewTerminal() *Terminal {
	return &Terminal{
		run: func(ctx context.Context, form *huh.Form) error {
			return form.RunWithContext(ctx)
		},
	}
}

// Confirm blocks until the operator answers the question.
func (t *Terminal) Confirm(ctx context.Context, question string) (bool, error) {
	answer := false
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(question).
				Affirmative("Yes").
				Negative("No").
				Value(&answer),
		),
	)

	err := t.run(ctx, form)
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("prompt failed: %w", err)
	}
	return answer, nil
}
