// Package plan turns a target and an observed state into an ordered action
// list. Planning is pure: no I/O, no clock, no randomness. The same inputs
// always produce the same plan, and a converged machine produces an empty
// one.
package plan

import (
	"fmt"
	"strings"

	"github.com/pinionhq/pinion/internal/config"
	"github.com/pinionhq/pinion/internal/model"
)

// Registration priorities. Non-target versions stay available but can
// never outrank the pinned one.
const (
	basePriority   = 100
	targetPriority = 150
)

// Options adjust planning for operator flags.
type Options struct {
	// SkipDeps leaves the dependency aspect out of the plan.
	SkipDeps bool

	// RefreshConfig plans a confirmed config overwrite even when the
	// destination exists.
	RefreshConfig bool
}

// Build computes the plan that converges observed onto target.
//
// Action order is fixed: runtime install, registry re-registration with the
// target last, set-active, capabilities, directories, files, config,
// dependency installer, dependency run, bootstrap commands, and the
// environment token at the very end, so an interrupted first provision
// re-runs bootstrap on the next attempt.
func Build(target *config.Config, observed model.ObservedState, opts Options) (model.Plan, error) {
	if target == nil {
		return model.Plan{}, fmt.Errorf("plan: target is nil")
	}

	var p model.Plan
	planRuntime(&p, target, observed)
	planRegistry(&p, target, observed)
	planCapabilities(&p, target, observed)
	planDirectories(&p, target, observed)
	planFiles(&p, target, observed)
	planConfigFile(&p, target, observed, opts)
	planDependencies(&p, target, observed, opts)
	planBootstrap(&p, target, observed)
	return p, nil
}

func planRuntime(p *model.Plan, target *config.Config, observed model.ObservedState) {
	runtime := target.Runtime
	if observed.HasVersion(runtime.Version) {
		p.Notes = append(p.Notes, fmt.Sprintf("runtime %s is installed", runtime.ExecutableName(runtime.Version)))
		return
	}

	packages := runtime.InstallPackages(runtime.Version)
	p.Actions = append(p.Actions, model.Action{
		Kind:        model.KindInstallRuntime,
		Class:       model.ClassNeedsConfirmation,
		Group:       model.GroupRuntime,
		Description: fmt.Sprintf("install runtime %s (%s)", runtime.ExecutableName(runtime.Version), strings.Join(packages, " ")),
		Version:     runtime.Version,
		Packages:    packages,
		Privileged:  true,
	})
}

// planRegistry re-registers every known version and pins the link whenever
// the observable link state disagrees with the target: wrong active
// version, or a registry where the pinned version does not hold the
// strictly highest priority.
func planRegistry(p *model.Plan, target *config.Config, observed model.ObservedState) {
	runtime := target.Runtime
	if registryConverged(runtime.Version, observed) {
		p.Notes = append(p.Notes, fmt.Sprintf("%s already resolves to %s", runtime.Command, runtime.Version))
		return
	}

	for _, alt := range observed.Discovered {
		if alt.Version == runtime.Version {
			continue
		}
		p.Actions = append(p.Actions, model.Action{
			Kind:        model.KindRegisterAlternative,
			Class:       model.ClassAutomatic,
			Group:       model.GroupRegistry,
			Description: fmt.Sprintf("register %s at priority %d", runtime.ExecutableName(alt.Version), basePriority),
			Version:     alt.Version,
			Priority:    basePriority,
			Privileged:  true,
		})
	}

	p.Actions = append(p.Actions, model.Action{
		Kind:        model.KindRegisterAlternative,
		Class:       model.ClassAutomatic,
		Group:       model.GroupRegistry,
		Description: fmt.Sprintf("register %s at priority %d", runtime.ExecutableName(runtime.Version), targetPriority),
		Version:     runtime.Version,
		Priority:    targetPriority,
		Privileged:  true,
	})

	p.Actions = append(p.Actions, model.Action{
		Kind:        model.KindSetActiveAlternative,
		Class:       model.ClassAutomatic,
		Group:       model.GroupRegistry,
		Description: fmt.Sprintf("point %s at %s", runtime.Command, runtime.ExecutableName(runtime.Version)),
		Version:     runtime.Version,
		Privileged:  true,
	})
}

func registryConverged(targetVersion string, observed model.ObservedState) bool {
	if observed.ActiveVersion != targetVersion {
		return false
	}
	if len(observed.RegistryEntries) == 0 {
		return true
	}

	targetPrio, found := 0, false
	for _, entry := range observed.RegistryEntries {
		if entry.Version == targetVersion {
			targetPrio, found = entry.Priority, true
			break
		}
	}
	if !found {
		return false
	}
	for _, entry := range observed.RegistryEntries {
		if entry.Version != targetVersion && entry.Priority >= targetPrio {
			return false
		}
	}
	return true
}

func planCapabilities(p *model.Plan, target *config.Config, observed model.ObservedState) {
	runtime := target.Runtime
	if len(runtime.Capabilities) == 0 {
		return
	}

	var names, packages []string
	for _, name := range runtime.Capabilities {
		if observed.HasCapability(strings.ToLower(name)) {
			continue
		}
		names = append(names, name)
		packages = append(packages, runtime.CapabilityPackageName(name))
	}

	if len(names) == 0 {
		p.Notes = append(p.Notes, fmt.Sprintf("capabilities present: %s", strings.Join(runtime.Capabilities, ", ")))
		return
	}

	p.Actions = append(p.Actions, model.Action{
		Kind:        model.KindInstallCapabilities,
		Class:       model.ClassAutomatic,
		Group:       model.GroupCapabilities,
		Description: fmt.Sprintf("install capabilities %s (%s)", strings.Join(names, ", "), strings.Join(packages, " ")),
		Names:       names,
		Packages:    packages,
		Privileged:  true,
	})
}

func planDirectories(p *model.Plan, target *config.Config, observed model.ObservedState) {
	for _, dir := range target.Directories {
		state := observed.Directories[dir.Path]
		mode := dir.FileMode()

		switch {
		case !state.Exists:
			p.Actions = append(p.Actions, model.Action{
				Kind:        model.KindEnsureDirectory,
				Class:       model.ClassAutomatic,
				Group:       model.GroupFilesystem,
				Description: fmt.Sprintf("create directory %s (mode %s)", dir.Path, model.OctalMode(mode)),
				Path:        dir.Path,
				Mode:        mode,
			})
		case state.Mode != mode:
			p.Actions = append(p.Actions, model.Action{
				Kind:        model.KindEnsureDirectory,
				Class:       model.ClassAutomatic,
				Group:       model.GroupFilesystem,
				Description: fmt.Sprintf("reset mode on %s to %s", dir.Path, model.OctalMode(mode)),
				Path:        dir.Path,
				Mode:        mode,
			})
		default:
			p.Notes = append(p.Notes, fmt.Sprintf("directory %s ok", dir.Path))
		}
	}
}

func planFiles(p *model.Plan, target *config.Config, observed model.ObservedState) {
	for _, path := range target.Files {
		if observed.Files[path] {
			p.Notes = append(p.Notes, fmt.Sprintf("file %s exists", path))
			continue
		}
		p.Actions = append(p.Actions, model.Action{
			Kind:        model.KindCreateFile,
			Class:       model.ClassAutomatic,
			Group:       model.GroupFilesystem,
			Description: fmt.Sprintf("create empty file %s", path),
			Path:        path,
		})
	}
}

func planConfigFile(p *model.Plan, target *config.Config, observed model.ObservedState, opts Options) {
	cf := target.ConfigFile
	if cf.Path == "" {
		return
	}

	switch {
	case !observed.ConfigPresent:
		p.Actions = append(p.Actions, model.Action{
			Kind:        model.KindCopyConfig,
			Class:       model.ClassAutomatic,
			Group:       model.GroupConfig,
			Description: fmt.Sprintf("copy %s to %s", cf.Template, cf.Path),
			Path:        cf.Path,
			Template:    cf.Template,
		})
	case opts.RefreshConfig:
		p.Actions = append(p.Actions, model.Action{
			Kind:        model.KindCopyConfig,
			Class:       model.ClassNeedsConfirmation,
			Group:       model.GroupConfig,
			Description: fmt.Sprintf("overwrite %s from %s", cf.Path, cf.Template),
			Path:        cf.Path,
			Template:    cf.Template,
		})
	default:
		p.Notes = append(p.Notes, fmt.Sprintf("config %s present", cf.Path))
	}
}

func planDependencies(p *model.Plan, target *config.Config, observed model.ObservedState, opts Options) {
	deps := target.Dependencies
	if deps == nil {
		return
	}
	if opts.SkipDeps {
		p.Notes = append(p.Notes, "dependencies skipped on request")
		return
	}

	if !observed.ManagerPresent {
		if len(deps.Installer) == 0 {
			p.Notes = append(p.Notes, fmt.Sprintf("%s is missing and no installer is configured", deps.Manager))
			return
		}
		p.Actions = append(p.Actions, model.Action{
			Kind:        model.KindRunCommand,
			Class:       model.ClassNeedsConfirmation,
			Group:       model.GroupDependencies,
			Description: fmt.Sprintf("install %s (%s)", deps.Manager, strings.Join(deps.Installer, " ")),
			Command:     deps.Installer,
			Privileged:  deps.InstallerPrivileged,
		})
	}

	switch {
	case observed.LockfilePresent && observed.VendorPresent:
		p.Notes = append(p.Notes, "dependencies installed")
	case observed.LockfilePresent:
		p.Actions = append(p.Actions, dependencyRun(deps, deps.Install))
	default:
		p.Actions = append(p.Actions, dependencyRun(deps, deps.Update))
	}
}

func dependencyRun(deps *config.Dependencies, command []string) model.Action {
	action := model.Action{
		Kind:         model.KindRunCommand,
		Class:        model.ClassAutomatic,
		Group:        model.GroupDependencies,
		Description:  fmt.Sprintf("run %s", strings.Join(command, " ")),
		Command:      command,
		ContinueGate: true,
	}
	if deps.MemoryLimitEnv != "" {
		action.PassEnv = []string{deps.MemoryLimitEnv}
	}
	return action
}

func planBootstrap(p *model.Plan, target *config.Config, observed model.ObservedState) {
	env := target.Environment
	if env.Path == "" {
		return
	}

	if observed.EnvPresent && observed.EnvToken == env.Token {
		p.Notes = append(p.Notes, fmt.Sprintf("environment %q bootstrapped", env.Token))
		return
	}

	if !observed.EnvPresent {
		for _, command := range target.Bootstrap {
			p.Actions = append(p.Actions, model.Action{
				Kind:        model.KindRunCommand,
				Class:       model.ClassAutomatic,
				Group:       model.GroupBootstrap,
				Description: fmt.Sprintf("run %s", strings.Join(command, " ")),
				Command:     command,
			})
		}
	}

	// The token is written last. A present indicator with the wrong token
	// only gets rewritten; bootstrap already ran.
	p.Actions = append(p.Actions, model.Action{
		Kind:        model.KindWriteEnvFile,
		Class:       model.ClassAutomatic,
		Group:       model.GroupEnvironment,
		Description: fmt.Sprintf("write %q to %s", env.Token, env.Path),
		Path:        env.Path,
		Token:       env.Token,
	})
}
