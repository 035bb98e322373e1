package model

import "os"

// ActionKind identifies what an action does to the system.
type ActionKind string

const (
	KindInstallRuntime       ActionKind = "install_runtime"
	KindRegisterAlternative  ActionKind = "register_alternative"
	KindSetActiveAlternative ActionKind = "set_active_alternative"
	KindInstallCapabilities  ActionKind = "install_capabilities"
	KindEnsureDirectory      ActionKind = "ensure_directory"
	KindCreateFile           ActionKind = "create_file"
	KindCopyConfig           ActionKind = "copy_config"
	KindRunCommand           ActionKind = "run_command"
	KindWriteEnvFile         ActionKind = "write_env_file"
)

// Class splits planned actions by how the executor dispatches them.
// Satisfied aspects plan no action at all; they surface as Plan.Notes.
type Class string

const (
	// ClassAutomatic actions run without asking the operator.
	ClassAutomatic Class = "automatic"

	// ClassNeedsConfirmation actions require an explicit yes before they run.
	ClassNeedsConfirmation Class = "needs_confirmation"
)

// Group names the aspect an action converges. Declining a confirmation
// marks the whole group declined: the rest of that group, and every group
// depending on it, is skipped instead of executed.
type Group string

const (
	GroupRuntime      Group = "runtime"
	GroupRegistry     Group = "registry"
	GroupCapabilities Group = "capabilities"
	GroupFilesystem   Group = "filesystem"
	GroupConfig       Group = "config"
	GroupDependencies Group = "dependencies"
	GroupBootstrap    Group = "bootstrap"
	GroupEnvironment  Group = "environment"
)

// DependsOn reports the groups whose decline also skips g. The executor
// resolves the chain transitively, so declining the runtime install skips
// registry and capability work, and declining the dependency installer
// skips bootstrap commands and the environment token write behind them.
func (g Group) DependsOn() []Group {
	switch g {
	case GroupRegistry, GroupCapabilities:
		return []Group{GroupRuntime}
	case GroupBootstrap:
		return []Group{GroupDependencies}
	case GroupEnvironment:
		return []Group{GroupBootstrap}
	}
	return nil
}

// Action is one planned step toward the target. Kind selects which payload
// fields are meaningful; everything else stays zero.
type Action struct {
	Kind  ActionKind
	Class Class
	Group Group

	// Description is the single human-readable line shown in plan listings
	// and confirmation prompts.
	Description string

	// Version names the runtime version for install, register and
	// set-active actions.
	Version string

	// Priority is the registration priority for register actions.
	Priority int

	// Packages lists the system packages an install action pulls in.
	Packages []string

	// Names lists the capability names behind a batched capability install.
	Names []string

	// Path is the filesystem target for directory, file, config and
	// environment actions.
	Path string

	// Mode is the enforced permission bits for directory actions.
	Mode os.FileMode

	// Template is the source file a config copy duplicates.
	Template string

	// Token is the value a write-env action stores.
	Token string

	// Command is the argv a run-command action executes.
	Command []string

	// PassEnv lists environment variable names whose parent-process values
	// are forwarded into the child command when set.
	PassEnv []string

	// Privileged actions run under the privilege lease.
	Privileged bool

	// ContinueGate marks a failure as recoverable behind an operator
	// prompt instead of fatal.
	ContinueGate bool
}
