package converge

import (
	"fmt"
	"strings"

	"github.com/pinionhq/pinion/internal/config"
	"github.com/pinionhq/pinion/internal/model"
)

// drift compares a post-execution probe against the target and names every
// observable disagreement. Dependency and bootstrap state are not checked
// here; their actions carry their own continue gates and the indicator
// token already encodes bootstrap completion.
func drift(target *config.Config, observed model.ObservedState) []string {
	var mismatches []string

	runtime := target.Runtime
	if observed.ActiveVersion != runtime.Version {
		mismatches = append(mismatches,
			fmt.Sprintf("active %s version is %q, want %s", runtime.Command, observed.ActiveVersion, runtime.Version))
	}

	if len(observed.RegistryEntries) > 0 && !targetHoldsHighestPriority(runtime.Version, observed.RegistryEntries) {
		mismatches = append(mismatches,
			fmt.Sprintf("%s does not hold the highest registry priority", runtime.ExecutableName(runtime.Version)))
	}

	for _, name := range runtime.Capabilities {
		if !observed.HasCapability(strings.ToLower(name)) {
			mismatches = append(mismatches, fmt.Sprintf("capability %s is not active", name))
		}
	}

	for _, dir := range target.Directories {
		state := observed.Directories[dir.Path]
		switch {
		case !state.Exists:
			mismatches = append(mismatches, fmt.Sprintf("directory %s is missing", dir.Path))
		case state.Mode != dir.FileMode():
			mismatches = append(mismatches,
				fmt.Sprintf("directory %s has mode %s, want %s",
					dir.Path, model.OctalMode(state.Mode), model.OctalMode(dir.FileMode())))
		}
	}

	for _, path := range target.Files {
		if !observed.Files[path] {
			mismatches = append(mismatches, fmt.Sprintf("file %s is missing", path))
		}
	}

	if target.ConfigFile.Path != "" && !observed.ConfigPresent {
		mismatches = append(mismatches, fmt.Sprintf("config %s is missing", target.ConfigFile.Path))
	}

	if env := target.Environment; env.Path != "" {
		switch {
		case !observed.EnvPresent:
			mismatches = append(mismatches, fmt.Sprintf("environment indicator %s is missing", env.Path))
		case observed.EnvToken != env.Token:
			mismatches = append(mismatches,
				fmt.Sprintf("environment token is %q, want %q", observed.EnvToken, env.Token))
		}
	}

	return mismatches
}

// targetHoldsHighestPriority reports whether the target version is
// registered with a priority strictly above every other entry.
func targetHoldsHighestPriority(version string, entries []model.RegistryEntry) bool {
	priority, found := 0, false
	for _, entry := range entries {
		if entry.Version == version {
			priority, found = entry.Priority, true
			break
		}
	}
	if !found {
		return false
	}
	for _, entry := range entries {
		if entry.Version != version && entry.Priority >= priority {
			return false
		}
	}
	return true
}
