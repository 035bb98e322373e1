// Package converge drives the pipeline: probe the machine, plan the gap to
// the target, collect confirmations, execute, then probe again and compare.
// The second probe is the point of the design. An action reporting success
// means nothing until the observable state agrees, so the driver re-reads
// the machine and downgrades any disagreement to a warning instead of
// trusting the executor.
package converge

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pinionhq/pinion/internal/alternatives"
	"github.com/pinionhq/pinion/internal/cmdexec"
	"github.com/pinionhq/pinion/internal/config"
	"github.com/pinionhq/pinion/internal/execute"
	"github.com/pinionhq/pinion/internal/logger"
	"github.com/pinionhq/pinion/internal/model"
	"github.com/pinionhq/pinion/internal/plan"
	"github.com/pinionhq/pinion/internal/probe"
	pinionerrors "github.com/pinionhq/pinion/pkg/errors"
)

// Options tune a single run.
type Options struct {
	SkipDeps      bool
	RefreshConfig bool
}

// Driver owns one convergence run against one target.
type Driver struct {
	target   *config.Config
	runner   cmdexec.Runner
	registry alternatives.Registry
	lease    execute.Lease
	decider  execute.Decider
	opts     Options
	log      *logger.Logger

	// euid is os.Geteuid, injectable for tests.
	euid func() int
}

// New wires a Driver.
func New(target *config.Config, runner cmdexec.Runner, registry alternatives.Registry, lease execute.Lease, decider execute.Decider, opts Options, log *logger.Logger) *Driver {
	return &Driver{
		target:   target,
		runner:   runner,
		registry: registry,
		lease:    lease,
		decider:  decider,
		opts:     opts,
		log:      log,
		euid:     os.Geteuid,
	}
}

// Plan probes the machine and plans the gap without mutating anything.
// Both status reporting and dry runs go through here.
func (d *Driver) Plan(ctx context.Context) (model.Plan, model.ObservedState, error) {
	prober := probe.New(d.runner, d.registry, d.log)
	observed := prober.Probe(ctx, d.target)

	p, err := plan.Build(d.target, observed, d.planOptions())
	if err != nil {
		return model.Plan{}, observed, err
	}
	return p, observed, nil
}

// Run walks the full pipeline and always returns a Report; fatal errors
// are carried inside it together with the phase that raised them.
func (d *Driver) Run(ctx context.Context) *model.Report {
	started := time.Now()
	report := &model.Report{Status: model.RunClean, Phase: model.PhaseInit}

	// Converging as root would leave root-owned caches and config in the
	// operator's tree. Privileged steps elevate per command instead.
	if uid := d.euid(); uid == 0 {
		return d.fail(report, started, pinionerrors.NewPrivilegeMisuseError(uid))
	}

	report.Phase = model.PhaseProbe
	prober := probe.New(d.runner, d.registry, d.log)
	observed := prober.Probe(ctx, d.target)

	report.Phase = model.PhasePlan
	p, err := plan.Build(d.target, observed, d.planOptions())
	if err != nil {
		return d.fail(report, started, err)
	}
	report.Plan = p
	d.log.WithFields(map[string]any{"actions": len(p.Actions), "notes": len(p.Notes)}).Info("plan ready")

	decisions, err := d.confirm(ctx, report, p)
	if err != nil {
		return d.fail(report, started, err)
	}

	report.Phase = model.PhaseExecute
	executor := execute.New(d.target, d.runner, d.registry, d.lease, d.decider, d.log)
	out, execErr := executor.Execute(ctx, p, decisions)
	report.Results = out.Results
	report.Warnings = append(report.Warnings, out.Warnings...)
	if execErr != nil {
		return d.fail(report, started, execErr)
	}

	report.Phase = model.PhaseVerify
	after := prober.Probe(ctx, d.target)
	for _, mismatch := range drift(d.target, after) {
		report.Warnings = append(report.Warnings, "verification: "+mismatch)
		d.log.Warn("verification mismatch: " + mismatch)
	}

	report.Phase = model.PhaseDone
	report.Duration = time.Since(started)
	if len(report.Warnings) > 0 {
		report.Status = model.RunWarnings
	}
	return report
}

// confirm collects operator decisions for every needs-confirmation action.
func (d *Driver) confirm(ctx context.Context, report *model.Report, p model.Plan) (model.Decisions, error) {
	if !p.NeedsConfirmation() {
		return nil, nil
	}

	report.Phase = model.PhaseConfirm
	decisions := make(model.Decisions)
	for i, action := range p.Actions {
		if action.Class != model.ClassNeedsConfirmation {
			continue
		}
		answer, err := d.decider.Confirm(ctx, fmt.Sprintf("Proceed: %s?", action.Description))
		if err != nil {
			return nil, err
		}
		decisions[i] = answer
	}
	return decisions, nil
}

func (d *Driver) planOptions() plan.Options {
	return plan.Options{
		SkipDeps:      d.opts.SkipDeps,
		RefreshConfig: d.opts.RefreshConfig,
	}
}

func (d *Driver) fail(report *model.Report, started time.Time, err error) *model.Report {
	report.Status = model.RunFailed
	report.Err = err
	report.Duration = time.Since(started)
	d.log.Error(err, "convergence failed")
	return report
}
