package model

import "time"

const (
	// StatusSuccess marks an action that executed and succeeded.
	StatusSuccess = "success"
	// StatusSkipped marks an action the executor never ran, either because
	// the operator declined it or because its group was skipped.
	StatusSkipped = "skipped"
	// StatusFailed marks a failure during action execution.
	StatusFailed = "failed"
)

// ActionResult captures the outcome of executing a single action.
type ActionResult struct {
	Action    Action
	Status    string
	Message   string
	Err       error
	Duration  time.Duration
	Timestamp time.Time
}

// Phase names a stage of the convergence pipeline.
type Phase string

const (
	PhaseInit    Phase = "init"
	PhaseProbe   Phase = "probe"
	PhasePlan    Phase = "plan"
	PhaseConfirm Phase = "confirm"
	PhaseExecute Phase = "execute"
	PhaseVerify  Phase = "verify"
	PhaseDone    Phase = "done"
)

// RunStatus is the overall outcome of a convergence run.
type RunStatus string

const (
	// RunClean means every planned action succeeded and verification found
	// the system matching the target.
	RunClean RunStatus = "clean"

	// RunWarnings means the run completed but something degraded: declined
	// confirmations, a tolerated dependency failure, or a verification
	// mismatch. The process still exits zero.
	RunWarnings RunStatus = "warnings"

	// RunFailed means the pipeline aborted.
	RunFailed RunStatus = "failed"
)

// Report is what a convergence run hands back to the caller.
type Report struct {
	Status RunStatus

	// Phase is PhaseDone for completed runs; for failures it names the
	// stage that aborted the pipeline.
	Phase Phase

	// Plan is what the planner produced, even when execution never started.
	Plan Plan

	// Results holds one entry per dispatched or skipped action, in plan
	// order.
	Results []ActionResult

	// Warnings carries declined-action notices, tolerated failures and
	// verification mismatches.
	Warnings []string

	// Err is the fatal error for failed runs.
	Err error

	Duration time.Duration
}

// Failed reports whether the run aborted.
func (r *Report) Failed() bool {
	return r != nil && r.Status == RunFailed
}

// ExitCode maps the run outcome to a process exit code. Warnings still
// exit zero: a run that converged what it was allowed to converge, and
// said so, is a successful run.
func (r *Report) ExitCode() int {
	if r.Failed() {
		return 1
	}
	return 0
}
