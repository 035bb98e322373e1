package execute

import (
	"context"

	"github.com/pinionhq/pinion/internal/cmdexec"
	"github.com/pinionhq/pinion/internal/logger"
	pinionerrors "github.com/pinionhq/pinion/pkg/errors"
)

// Lease keeps elevated credentials warm for the run. The executor acquires
// it lazily before the first privileged action, so a plan with nothing
// privileged never prompts, and refreshes it before privileged or
// long-running actions so the credential cache cannot expire mid-run.
type Lease interface {
	Acquire(ctx context.Context) error
	Refresh(ctx context.Context) error
}

// SudoLease drives sudo's credential cache. Acquire validates once, which
// may prompt on the controlling terminal; Refresh renews non-interactively
// and falls back to a fresh Acquire when the ticket expired.
type SudoLease struct {
	runner cmdexec.Runner
	log    *logger.Logger
}

var _ Lease = (*SudoLease)(nil)

// NewSudoLease builds a lease on the given runner.
func NewSudoLease(runner cmdexec.Runner, log *logger.Logger) *SudoLease {
	return &SudoLease{runner: runner, log: log}
}

// Acquire validates sudo access, prompting if needed.
func (l *SudoLease) Acquire(ctx context.Context) error {
	if _, err := l.runner.Run(ctx, cmdexec.Command{Name: "sudo", Args: []string{"-v"}, Stream: true}); err != nil {
		return pinionerrors.NewPrivilegeAcquisitionError("check sudo access with `sudo -v` and retry", err)
	}
	return nil
}

// Refresh renews the credential cache without prompting; an expired ticket
// falls back to an interactive Acquire.
func (l *SudoLease) Refresh(ctx context.Context) error {
	if _, err := l.runner.Run(ctx, cmdexec.Command{Name: "sudo", Args: []string{"-n", "-v"}}); err != nil {
		l.log.Debug("sudo ticket expired, re-acquiring")
		return l.Acquire(ctx)
	}
	return nil
}
