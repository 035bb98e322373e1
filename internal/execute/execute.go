// Package execute dispatches planned actions against the machine. The
// executor owns the privilege lease, the confirmation flow and the
// group-decline skip logic; everything that actually mutates state goes
// through the command runner, the registry adapter or plain file
// operations here.
package execute

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pinionhq/pinion/internal/alternatives"
	"github.com/pinionhq/pinion/internal/cmdexec"
	"github.com/pinionhq/pinion/internal/config"
	"github.com/pinionhq/pinion/internal/logger"
	"github.com/pinionhq/pinion/internal/model"
	"github.com/pinionhq/pinion/pkg/diff"
	pinionerrors "github.com/pinionhq/pinion/pkg/errors"
)

// Executor runs a plan in order.
type Executor struct {
	target   *config.Config
	runner   cmdexec.Runner
	registry alternatives.Registry
	lease    Lease
	decider  Decider
	log      *logger.Logger
}

// New builds an Executor for one target.
func New(target *config.Config, runner cmdexec.Runner, registry alternatives.Registry, lease Lease, decider Decider, log *logger.Logger) *Executor {
	return &Executor{
		target:   target,
		runner:   runner,
		registry: registry,
		lease:    lease,
		decider:  decider,
		log:      log,
	}
}

// Outcome is what execution produced, fatal or not.
type Outcome struct {
	Results  []model.ActionResult
	Warnings []string
}

// Execute dispatches the plan's actions sequentially. decisions carries the
// operator's answers for needs-confirmation actions, keyed by action index.
//
// A declined confirmation skips the action, marks its group declined, and
// everything later in that group or in groups depending on it is skipped
// too. Skips and tolerated failures degrade the run to warnings; any other
// failure aborts it.
func (e *Executor) Execute(ctx context.Context, p model.Plan, decisions model.Decisions) (Outcome, error) {
	var out Outcome
	declined := make(map[model.Group]bool)
	leased := false
	removedAll := false

	for i, action := range p.Actions {
		log := e.log.WithFields(map[string]any{"action": string(action.Kind), "group": string(action.Group)})

		if blocked(action.Group, declined) {
			message := fmt.Sprintf("skipped, %s was declined earlier", firstDeclined(action.Group, declined))
			out.Results = append(out.Results, skippedResult(action, message))
			log.Debug("skipping action in declined chain")
			continue
		}

		if action.Class == model.ClassNeedsConfirmation && !decisions[i] {
			declined[action.Group] = true
			out.Results = append(out.Results, skippedResult(action, "declined"))
			out.Warnings = append(out.Warnings, fmt.Sprintf("declined: %s", action.Description))
			log.Info("action declined")
			continue
		}

		if action.Privileged && !leased {
			if err := e.lease.Acquire(ctx); err != nil {
				out.Results = append(out.Results, failedResult(action, err, 0))
				return out, err
			}
			leased = true
		} else if leased && (action.Privileged || action.Kind == model.KindRunCommand) {
			if err := e.lease.Refresh(ctx); err != nil {
				out.Results = append(out.Results, failedResult(action, err, 0))
				return out, err
			}
		}

		log.Info(action.Description)
		started := time.Now()
		status, message, err := e.perform(ctx, action, &removedAll)
		duration := time.Since(started)

		if err != nil {
			actionErr := wrapActionError(action, err)
			out.Results = append(out.Results, failedResult(action, actionErr, duration))

			if action.ContinueGate {
				keepGoing, decideErr := e.decider.Confirm(ctx,
					fmt.Sprintf("%s failed: %v. Continue anyway?", action.Description, err))
				if decideErr != nil {
					return out, decideErr
				}
				if keepGoing {
					out.Warnings = append(out.Warnings, fmt.Sprintf("%s failed, continuing: %v", action.Description, err))
					log.Warn("tolerating failure on operator request")
					continue
				}
			}
			return out, actionErr
		}

		out.Results = append(out.Results, model.ActionResult{
			Action:    action,
			Status:    status,
			Message:   message,
			Duration:  duration,
			Timestamp: time.Now(),
		})
		if status == model.StatusSkipped {
			out.Warnings = append(out.Warnings, message)
		}
	}

	return out, nil
}

// perform executes a single action. A non-empty skip status means the
// action chose not to run; errors mean it ran and failed.
func (e *Executor) perform(ctx context.Context, action model.Action, removedAll *bool) (string, string, error) {
	switch action.Kind {
	case model.KindInstallRuntime, model.KindInstallCapabilities:
		if err := e.installPackages(ctx, action.Packages); err != nil {
			return "", "", err
		}
		return model.StatusSuccess, fmt.Sprintf("installed %s", strings.Join(action.Packages, " ")), nil

	case model.KindRegisterAlternative:
		// The first registration of a run clears the facility so stale
		// entries cannot outlive convergence.
		if !*removedAll {
			if err := e.registry.RemoveAll(ctx); err != nil {
				return "", "", err
			}
			*removedAll = true
		}
		if err := e.registry.Register(ctx, action.Version, action.Priority); err != nil {
			return "", "", err
		}
		return model.StatusSuccess, fmt.Sprintf("registered %s at priority %d", action.Version, action.Priority), nil

	case model.KindSetActiveAlternative:
		if err := e.registry.SetActive(ctx, action.Version); err != nil {
			return "", "", err
		}
		return model.StatusSuccess, fmt.Sprintf("%s now resolves to %s", e.target.Runtime.Command, action.Version), nil

	case model.KindEnsureDirectory:
		if err := os.MkdirAll(action.Path, action.Mode); err != nil {
			return "", "", err
		}
		// MkdirAll leaves existing directories and umask-filtered bits
		// alone, so the mode is enforced explicitly.
		if err := os.Chmod(action.Path, action.Mode); err != nil {
			return "", "", err
		}
		return model.StatusSuccess, fmt.Sprintf("directory %s ready", action.Path), nil

	case model.KindCreateFile:
		if err := createEmptyFile(action.Path); err != nil {
			return "", "", err
		}
		return model.StatusSuccess, fmt.Sprintf("created %s", action.Path), nil

	case model.KindCopyConfig:
		return e.copyConfig(ctx, action)

	case model.KindRunCommand:
		command := cmdexec.Command{
			Name:       action.Command[0],
			Args:       action.Command[1:],
			Env:        passEnv(action.PassEnv),
			Privileged: action.Privileged,
			Stream:     true,
		}
		if _, err := e.runner.Run(ctx, command); err != nil {
			return "", "", err
		}
		return model.StatusSuccess, fmt.Sprintf("ran %s", command.Line()), nil

	case model.KindWriteEnvFile:
		if err := os.MkdirAll(filepath.Dir(action.Path), 0o755); err != nil {
			return "", "", err
		}
		if err := os.WriteFile(action.Path, []byte(action.Token+"\n"), 0o644); err != nil {
			return "", "", err
		}
		return model.StatusSuccess, fmt.Sprintf("wrote %q to %s", action.Token, action.Path), nil

	default:
		return "", "", fmt.Errorf("unknown action kind %q", action.Kind)
	}
}

// copyConfig seeds the local config file from its template. When the file
// appeared between probing and execution and the action was not explicitly
// confirmed, the operator sees what would change and decides whether the
// newcomer gets overwritten. A file that already matches the template needs
// no answer.
func (e *Executor) copyConfig(ctx context.Context, action model.Action) (string, string, error) {
	if action.Class == model.ClassAutomatic {
		if current, err := os.ReadFile(action.Path); err == nil {
			desired, readErr := os.ReadFile(action.Template)
			if readErr != nil {
				return "", "", readErr
			}
			patch := diff.Unified(current, desired, action.Path, action.Template)
			if patch == "" {
				return model.StatusSuccess, fmt.Sprintf("%s already matches %s", action.Path, action.Template), nil
			}
			overwrite, decideErr := e.decider.Confirm(ctx,
				fmt.Sprintf("%s appeared since probing. Overwrite it from %s?\n\n%s", action.Path, action.Template, patch))
			if decideErr != nil {
				return "", "", decideErr
			}
			if !overwrite {
				return model.StatusSkipped, fmt.Sprintf("kept existing %s", action.Path), nil
			}
		}
	}

	if err := copyFile(action.Template, action.Path); err != nil {
		return "", "", err
	}
	return model.StatusSuccess, fmt.Sprintf("copied %s to %s", action.Template, action.Path), nil
}

func (e *Executor) installPackages(ctx context.Context, packages []string) error {
	argv := append(append([]string(nil), e.target.Packages.InstallCommand...), packages...)
	_, err := e.runner.Run(ctx, cmdexec.Command{
		Name:       argv[0],
		Args:       argv[1:],
		Privileged: true,
		Stream:     true,
	})
	return err
}

// blocked reports whether the group, or any group it depends on, was
// declined earlier in this run.
func blocked(group model.Group, declined map[model.Group]bool) bool {
	if declined[group] {
		return true
	}
	for _, dep := range group.DependsOn() {
		if blocked(dep, declined) {
			return true
		}
	}
	return false
}

// firstDeclined names the declined group that blocks this one.
func firstDeclined(group model.Group, declined map[model.Group]bool) model.Group {
	if declined[group] {
		return group
	}
	for _, dep := range group.DependsOn() {
		if blocked(dep, declined) {
			return firstDeclined(dep, declined)
		}
	}
	return group
}

func wrapActionError(action model.Action, err error) error {
	var registryErr *pinionerrors.RegistryError
	if errors.As(err, &registryErr) {
		return err
	}
	return pinionerrors.NewExecutionError(string(action.Kind), err)
}

func skippedResult(action model.Action, message string) model.ActionResult {
	return model.ActionResult{
		Action:    action,
		Status:    model.StatusSkipped,
		Message:   message,
		Timestamp: time.Now(),
	}
}

func failedResult(action model.Action, err error, duration time.Duration) model.ActionResult {
	return model.ActionResult{
		Action:    action,
		Status:    model.StatusFailed,
		Message:   err.Error(),
		Err:       err,
		Duration:  duration,
		Timestamp: time.Now(),
	}
}

func createEmptyFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	return file.Close()
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dst, data, info.Mode().Perm())
}

func passEnv(names []string) []string {
	var env []string
	for _, name := range names {
		if value, ok := os.LookupEnv(name); ok {
			env = append(env, name+"="+value)
		}
	}
	return env
}
