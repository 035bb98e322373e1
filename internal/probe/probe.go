// Package probe gathers the observable facts planning runs on. Probing is
// read-only and total: every query that fails degrades to an absent fact
// and a debug log line, so a machine with nothing installed still probes
// cleanly.
package probe

import (
	"context"
	"os"
	"regexp"
	"strings"

	"github.com/pinionhq/pinion/internal/alternatives"
	"github.com/pinionhq/pinion/internal/cmdexec"
	"github.com/pinionhq/pinion/internal/config"
	"github.com/pinionhq/pinion/internal/logger"
	"github.com/pinionhq/pinion/internal/model"
)

// versionPattern tolerates any banner layout: the first major.minor in the
// output is taken as the active version.
var versionPattern = regexp.MustCompile(`(\d+\.\d+)`)

// Prober reads the machine's current state.
type Prober struct {
	runner   cmdexec.Runner
	registry alternatives.Registry
	log      *logger.Logger
}

// New builds a Prober on the given runner and registry adapter.
func New(runner cmdexec.Runner, registry alternatives.Registry, log *logger.Logger) *Prober {
	return &Prober{runner: runner, registry: registry, log: log}
}

// Probe collects an ObservedState for the target. It never returns an
// error; the zero value of every fact means "absent".
func (p *Prober) Probe(ctx context.Context, target *config.Config) model.ObservedState {
	state := model.ObservedState{
		ActiveVersion: p.activeVersion(ctx, target.Runtime),
		Capabilities:  p.capabilities(ctx, target.Runtime),
		Directories:   p.directories(target.Directories),
		Files:         p.files(target.Files),
	}

	state.Discovered = p.discovered(ctx)
	state.RegistryEntries = p.registryEntries(ctx)

	if target.ConfigFile.Path != "" {
		state.ConfigPresent = fileExists(target.ConfigFile.Path)
	}

	if target.Environment.Path != "" {
		state.EnvPresent, state.EnvToken = p.envToken(target.Environment.Path)
	}

	if deps := target.Dependencies; deps != nil {
		state.ManagerPresent = p.managerPresent(deps.Manager)
		state.LockfilePresent = fileExists(deps.Lockfile)
		state.VendorPresent = dirExists(deps.VendorDir)
	}

	return state
}

func (p *Prober) activeVersion(ctx context.Context, runtime config.Runtime) string {
	result, err := p.runner.Run(ctx, cmdexec.Command{
		Name: runtime.Command,
		Args: runtime.VersionArgs,
	})
	if err != nil {
		p.log.With("command", runtime.Command).Debug("runtime version query degraded")
		return ""
	}

	match := versionPattern.FindString(result.PrimaryOutput())
	if match == "" {
		p.log.With("command", runtime.Command).Debug("no version in runtime output")
	}
	return match
}

func (p *Prober) capabilities(ctx context.Context, runtime config.Runtime) map[string]bool {
	result, err := p.runner.Run(ctx, cmdexec.Command{
		Name: runtime.Command,
		Args: runtime.ModulesArgs,
	})
	if err != nil {
		p.log.With("command", runtime.Command).Debug("capability query degraded")
		return nil
	}

	capabilities := make(map[string]bool)
	for _, line := range strings.Split(result.Stdout, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "[") {
			continue
		}
		capabilities[strings.ToLower(line)] = true
	}
	return capabilities
}

func (p *Prober) discovered(ctx context.Context) []model.Alternative {
	found, err := p.registry.List(ctx)
	if err != nil {
		p.log.Debug("alternative discovery degraded")
		return nil
	}
	return found
}

func (p *Prober) registryEntries(ctx context.Context) []model.RegistryEntry {
	entries, err := p.registry.Entries(ctx)
	if err != nil {
		p.log.Debug("registry query degraded")
		return nil
	}
	return entries
}

func (p *Prober) directories(dirs []config.Directory) map[string]model.DirState {
	observed := make(map[string]model.DirState, len(dirs))
	for _, dir := range dirs {
		info, err := os.Stat(dir.Path)
		if err != nil || !info.IsDir() {
			observed[dir.Path] = model.DirState{}
			continue
		}
		observed[dir.Path] = model.DirState{Exists: true, Mode: info.Mode() & model.PinnedModeBits}
	}
	return observed
}

func (p *Prober) files(paths []string) map[string]bool {
	observed := make(map[string]bool, len(paths))
	for _, path := range paths {
		observed[path] = fileExists(path)
	}
	return observed
}

func (p *Prober) envToken(path string) (bool, string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, ""
	}
	firstLine, _, _ := strings.Cut(string(data), "\n")
	return true, strings.TrimSpace(firstLine)
}

func (p *Prober) managerPresent(manager string) bool {
	if manager == "" {
		return false
	}
	_, err := p.runner.LookPath(manager)
	return err == nil
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
