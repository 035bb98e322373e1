package prompt

import (
	"context"
	"fmt"
	"testing"

	"github.com/charmbracelet/huh"
	"github.com/stretchr/testify/require"
)

func TestTerminalConfirmAbortDeclines(t *testing.T) {
	t.Parallel()

	terminal := &Terminal{
		run: func(context.Context, *huh.Form) error { return huh.ErrUserAborted },
	}

	answer, err := terminal.Confirm(context.Background(), "install runtime php8.2?")
	require.NoError(t, err)
	require.False(t, answer)
}

func TestTerminalConfirmPropagatesFormErrors(t *testing.T) {
	t.Parallel()

	formErr := fmt.Errorf("tty gone")
	terminal := &Terminal{
		run: func(context.Context, *huh.Form) error { return formErr },
	}

	answer, err := terminal.Confirm(context.Background(), "install runtime php8.2?")
	require.Error(t, err)
	require.ErrorIs(t, err, formErr)
	require.False(t, answer)
}

func TestTerminalConfirmDefaultsToNo(t *testing.T) {
	t.Parallel()

	terminal := &Terminal{
		run: func(context.Context, *huh.Form) error { return nil },
	}

	answer, err := terminal.Confirm(context.Background(), "install runtime php8.2?")
	require.NoError(t, err)
	require.False(t, answer)
}

func TestInteractiveRunsWithoutTerminal(t *testing.T) {
	t.Parallel()

	// Test processes rarely own a TTY; the call must still be safe.
	_ = Interactive()
}
