package alternatives

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pinionhq/pinion/internal/cmdexec"
	"github.com/pinionhq/pinion/internal/config"
	"github.com/pinionhq/pinion/internal/logger"
	"github.com/pinionhq/pinion/internal/model"
	pinionerrors "github.com/pinionhq/pinion/pkg/errors"
)

const updateAlternatives = "update-alternatives"

// System talks to the real update-alternatives facility and scans the real
// PATH. All mutating calls run privileged.
type System struct {
	runtime config.Runtime
	pattern *regexp.Regexp
	runner  cmdexec.Runner
	log     *logger.Logger
}

var _ Registry = (*System)(nil)

// NewSystem builds a System adapter for the target's runtime convention.
func NewSystem(runtime config.Runtime, runner cmdexec.Runner, log *logger.Logger) (*System, error) {
	pattern, err := runtime.DiscoveryPattern()
	if err != nil {
		return nil, pinionerrors.NewRegistryError("discover", "", err)
	}
	return &System{runtime: runtime, pattern: pattern, runner: runner, log: log}, nil
}

// List scans each PATH directory for executables matching the naming
// convention. Unreadable directories are skipped: absence of evidence is
// an absent fact, not a failure.
func (s *System) List(_ context.Context) ([]model.Alternative, error) {
	seenDir := make(map[string]bool)
	seenVersion := make(map[string]bool)
	var found []model.Alternative

	for _, dir := range filepath.SplitList(os.Getenv("PATH")) {
		if dir == "" || seenDir[dir] {
			continue
		}
		seenDir[dir] = true

		entries, err := os.ReadDir(dir)
		if err != nil {
			s.log.With("dir", dir).Debug("skipping unreadable PATH entry")
			continue
		}

		for _, entry := range entries {
			match := s.pattern.FindStringSubmatch(entry.Name())
			if match == nil || seenVersion[match[1]] {
				continue
			}

			path := filepath.Join(dir, entry.Name())
			info, err := os.Stat(path)
			if err != nil || info.IsDir() || info.Mode()&0o111 == 0 {
				continue
			}

			seenVersion[match[1]] = true
			found = append(found, model.Alternative{Version: match[1], Path: path})
		}
	}

	sort.Slice(found, func(i, j int) bool {
		return versionLess(found[i].Version, found[j].Version)
	})
	return found, nil
}

// Entries queries the facility for the command's registrations.
func (s *System) Entries(ctx context.Context) ([]model.RegistryEntry, error) {
	result, err := s.runner.Run(ctx, cmdexec.Command{
		Name: updateAlternatives,
		Args: []string{"--query", s.runtime.Command},
	})
	if err != nil {
		if notRegistered(result, err) {
			return nil, nil
		}
		return nil, pinionerrors.NewRegistryError("query", "", err)
	}

	return s.parseQuery(result.Stdout), nil
}

// parseQuery extracts Alternative/Priority stanzas from --query output.
// Paths outside the naming convention keep an empty version label.
func (s *System) parseQuery(output string) []model.RegistryEntry {
	var entries []model.RegistryEntry
	var current *model.RegistryEntry

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "Alternative:"):
			path := strings.TrimSpace(strings.TrimPrefix(line, "Alternative:"))
			entry := model.RegistryEntry{Path: path}
			if match := s.pattern.FindStringSubmatch(filepath.Base(path)); match != nil {
				entry.Version = match[1]
			}
			entries = append(entries, entry)
			current = &entries[len(entries)-1]
		case strings.HasPrefix(line, "Priority:") && current != nil:
			value := strings.TrimSpace(strings.TrimPrefix(line, "Priority:"))
			if priority, err := strconv.Atoi(value); err == nil {
				current.Priority = priority
			}
		}
	}
	return entries
}

// RemoveAll drops the command's registrations. An unknown command is
// already in the desired state.
func (s *System) RemoveAll(ctx context.Context) error {
	result, err := s.runner.Run(ctx, cmdexec.Command{
		Name:       updateAlternatives,
		Args:       []string{"--remove-all", s.runtime.Command},
		Privileged: true,
		Stream:     true,
	})
	if err != nil && !notRegistered(result, err) {
		return pinionerrors.NewRegistryError("remove-all", "", err)
	}
	return nil
}

// Register installs one version at a priority, deriving link and path from
// the naming convention.
func (s *System) Register(ctx context.Context, version string, priority int) error {
	_, err := s.runner.Run(ctx, cmdexec.Command{
		Name: updateAlternatives,
		Args: []string{
			"--install",
			s.runtime.LinkPath(),
			s.runtime.Command,
			s.runtime.ExecutablePath(version),
			strconv.Itoa(priority),
		},
		Privileged: true,
		Stream:     true,
	})
	if err != nil {
		return pinionerrors.NewRegistryError("register", version, err)
	}
	return nil
}

// SetActive pins the link to a registered version in manual mode.
func (s *System) SetActive(ctx context.Context, version string) error {
	entries, err := s.Entries(ctx)
	if err != nil {
		return err
	}

	path := ""
	for _, entry := range entries {
		if entry.Version == version {
			path = entry.Path
			break
		}
	}
	if path == "" {
		return pinionerrors.NewRegistryError("set", version, fmt.Errorf("version is not registered"))
	}

	_, err = s.runner.Run(ctx, cmdexec.Command{
		Name:       updateAlternatives,
		Args:       []string{"--set", s.runtime.Command, path},
		Privileged: true,
		Stream:     true,
	})
	if err != nil {
		return pinionerrors.NewRegistryError("set", version, err)
	}
	return nil
}

// notRegistered recognizes the facility's "no alternatives for <name>"
// answer, which reads as an empty registry rather than a failure.
func notRegistered(result cmdexec.Result, err error) bool {
	if strings.Contains(result.Stderr, "no alternatives") {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "no alternatives")
}

func versionLess(a, b string) bool {
	aMajor, aMinor := splitVersion(a)
	bMajor, bMinor := splitVersion(b)
	if aMajor != bMajor {
		return aMajor < bMajor
	}
	return aMinor < bMinor
}

func splitVersion(v string) (int, int) {
	parts := strings.SplitN(v, ".", 2)
	major, _ := strconv.Atoi(parts[0])
	minor := 0
	if len(parts) == 2 {
		minor, _ = strconv.Atoi(parts[1])
	}
	return major, minor
}
