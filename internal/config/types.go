package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

const (
	versionPlaceholder = "{version}"
	namePlaceholder    = "{name}"

	defaultBinDir = "/usr/bin"
)

const defaultDirMode os.FileMode = 0o755

// Config represents the full target document: the pinned description of the
// machine state pinion converges onto. It is parsed once at startup and
// never mutated afterwards.
type Config struct {
	Version      string        `yaml:"version" validate:"required,semver"`
	Name         string        `yaml:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Runtime      Runtime       `yaml:"runtime"`
	Packages     Packages      `yaml:"packages,omitempty"`
	Environment  Environment   `yaml:"environment,omitempty"`
	ConfigFile   ConfigFile    `yaml:"config_file,omitempty"`
	Directories  []Directory   `yaml:"directories,omitempty" validate:"omitempty,dive"`
	Files        []string      `yaml:"files,omitempty" validate:"omitempty,dive,min=1"`
	Dependencies *Dependencies `yaml:"dependencies,omitempty"`
	Bootstrap    [][]string    `yaml:"bootstrap,omitempty"`
}

// Runtime pins the managed command to one versioned executable and names
// the conventions used to discover, install and register versions.
type Runtime struct {
	// Command is the logical name the alternatives link serves, e.g. "php".
	Command string `yaml:"command" validate:"required,min=1"`

	// Version is the pinned major.minor target.
	Version string `yaml:"version" validate:"required,major_minor"`

	// Package is the versioned naming convention for executables and
	// system packages. Must contain the {version} placeholder.
	// Defaults to "<command>{version}".
	Package string `yaml:"package,omitempty"`

	// BinDir is where versioned executables and the managed link live.
	BinDir string `yaml:"bin_dir,omitempty"`

	// VersionArgs asks the active runtime for its version.
	VersionArgs []string `yaml:"version_args,omitempty"`

	// ModulesArgs lists the active runtime's capabilities.
	ModulesArgs []string `yaml:"modules_args,omitempty"`

	// Capabilities are the module names the target requires.
	Capabilities []string `yaml:"capabilities,omitempty" validate:"omitempty,dive,min=1"`

	// CapabilityPackage maps a capability name to its system package.
	// Must contain the {name} placeholder; {version} is optional.
	// Defaults to "<package>-{name}".
	CapabilityPackage string `yaml:"capability_package,omitempty"`
}

// ExecutableName expands the package naming convention for a version.
func (r Runtime) ExecutableName(version string) string {
	return strings.ReplaceAll(r.Package, versionPlaceholder, version)
}

// ExecutablePath is the expected absolute path of a version's executable.
func (r Runtime) ExecutablePath(version string) string {
	return filepath.Join(r.BinDir, r.ExecutableName(version))
}

// LinkPath is where the alternatives link for the managed command lives.
func (r Runtime) LinkPath() string {
	return filepath.Join(r.BinDir, r.Command)
}

// InstallPackages is the system package set that installs a runtime version.
func (r Runtime) InstallPackages(version string) []string {
	return []string{r.ExecutableName(version)}
}

// CapabilityPackageName expands the capability package convention for one
// capability of the pinned version.
func (r Runtime) CapabilityPackageName(name string) string {
	pkg := strings.ReplaceAll(r.CapabilityPackage, versionPlaceholder, r.Version)
	return strings.ReplaceAll(pkg, namePlaceholder, name)
}

// DiscoveryPattern compiles the naming convention into a regexp whose first
// submatch extracts the major.minor version from an executable name.
func (r Runtime) DiscoveryPattern() (*regexp.Regexp, error) {
	idx := strings.Index(r.Package, versionPlaceholder)
	if idx < 0 {
		return nil, fmt.Errorf("package %q lacks the %s placeholder", r.Package, versionPlaceholder)
	}
	prefix := regexp.QuoteMeta(r.Package[:idx])
	suffix := regexp.QuoteMeta(r.Package[idx+len(versionPlaceholder):])
	return regexp.Compile("^" + prefix + `(\d+\.\d+)` + suffix + "$")
}

// Packages configures how system packages get installed.
type Packages struct {
	// InstallCommand is the installer prefix the package names are appended
	// to. Defaults to [apt-get, install, -y].
	InstallCommand []string `yaml:"install_command,omitempty"`
}

// Environment describes the single-token indicator file that marks a
// bootstrapped working tree.
type Environment struct {
	Path  string `yaml:"path,omitempty"`
	Token string `yaml:"token,omitempty"`
}

// ConfigFile describes the local configuration file seeded from a template.
type ConfigFile struct {
	Path     string `yaml:"path,omitempty"`
	Template string `yaml:"template,omitempty"`
}

// Directory is one managed directory with enforced permissions.
type Directory struct {
	Path string `yaml:"path" validate:"required,min=1"`
	Mode string `yaml:"mode,omitempty" validate:"omitempty,octal_mode"`
}

// FileMode returns the configured mode. The setuid, setgid and sticky
// digits map onto their os.FileMode flag bits, which is what Chmod reads
// them from. The mode string is validated at parse time; an empty one
// means 0755.
func (d Directory) FileMode() os.FileMode {
	if d.Mode == "" {
		return defaultDirMode
	}
	parsed, err := strconv.ParseUint(strings.TrimPrefix(d.Mode, "0o"), 8, 32)
	if err != nil {
		return defaultDirMode
	}
	mode := os.FileMode(parsed & 0o777)
	if parsed&0o4000 != 0 {
		mode |= os.ModeSetuid
	}
	if parsed&0o2000 != 0 {
		mode |= os.ModeSetgid
	}
	if parsed&0o1000 != 0 {
		mode |= os.ModeSticky
	}
	return mode
}

// Dependencies configures the project dependency manager.
type Dependencies struct {
	// Manager is the dependency manager command, e.g. "composer".
	Manager string `yaml:"manager" validate:"required,min=1"`

	// Lockfile is the lock file checked before choosing install over update.
	Lockfile string `yaml:"lockfile,omitempty"`

	// VendorDir marks an already-installed dependency tree.
	VendorDir string `yaml:"vendor_dir,omitempty"`

	// Install runs when the lockfile is present; defaults to
	// [manager, install].
	Install []string `yaml:"install,omitempty"`

	// Update runs when the lockfile is absent; defaults to
	// [manager, update].
	Update []string `yaml:"update,omitempty"`

	// Installer provisions the manager itself when it is missing.
	Installer []string `yaml:"installer,omitempty"`

	// InstallerPrivileged marks the installer as needing the privilege
	// lease.
	InstallerPrivileged bool `yaml:"installer_privileged,omitempty"`

	// MemoryLimitEnv names an environment variable forwarded into manager
	// subprocesses when set in the parent.
	MemoryLimitEnv string `yaml:"memory_limit_env,omitempty"`
}

// ApplyDefaults fills the conventional values a document may omit. It runs
// after decoding and before validation, so validation sees the effective
// configuration. Callers constructing a Config programmatically should
// apply defaults before validating.
func ApplyDefaults(cfg *Config) {
	r := &cfg.Runtime
	if r.Package == "" {
		r.Package = r.Command + versionPlaceholder
	}
	if r.BinDir == "" {
		r.BinDir = defaultBinDir
	}
	if len(r.VersionArgs) == 0 {
		r.VersionArgs = []string{"--version"}
	}
	if len(r.ModulesArgs) == 0 {
		r.ModulesArgs = []string{"-m"}
	}
	if r.CapabilityPackage == "" {
		r.CapabilityPackage = r.Package + "-" + namePlaceholder
	}

	if len(cfg.Packages.InstallCommand) == 0 {
		cfg.Packages.InstallCommand = []string{"apt-get", "install", "-y"}
	}

	if deps := cfg.Dependencies; deps != nil && deps.Manager != "" {
		if len(deps.Install) == 0 {
			deps.Install = []string{deps.Manager, "install"}
		}
		if len(deps.Update) == 0 {
			deps.Update = []string{deps.Manager, "update"}
		}
	}
}
