package model

import (
	"fmt"
	"os"
)

// Alternative is one versioned runtime executable discovered on the system,
// whether or not the link facility knows about it.
type Alternative struct {
	// Version is the major.minor label derived from the executable name.
	Version string

	// Path is the absolute path of the executable.
	Path string
}

// RegistryEntry is one alternative currently registered with the system
// link facility for the managed command.
type RegistryEntry struct {
	// Version is the major.minor label derived from the entry path.
	// Empty when the path does not follow the naming convention.
	Version string

	// Path is the alternative's target path.
	Path string

	// Priority is the entry's registered priority.
	Priority int
}

// PinnedModeBits are the mode bits a directory target pins: the permission
// bits plus setuid, setgid and sticky.
const PinnedModeBits = os.ModePerm | os.ModeSetuid | os.ModeSetgid | os.ModeSticky

// OctalMode renders a mode the way target documents write it, e.g. "0775"
// or "1777".
func OctalMode(mode os.FileMode) string {
	bits := uint32(mode.Perm())
	if mode&os.ModeSetuid != 0 {
		bits |= 0o4000
	}
	if mode&os.ModeSetgid != 0 {
		bits |= 0o2000
	}
	if mode&os.ModeSticky != 0 {
		bits |= 0o1000
	}
	return fmt.Sprintf("%04o", bits)
}

// DirState captures what the probe saw for one managed directory.
type DirState struct {
	Exists bool

	// Mode is the existing directory's mode masked to PinnedModeBits; zero
	// when absent.
	Mode os.FileMode
}

// ObservedState is the probe's point-in-time snapshot of every fact the
// planner consumes. Probing is read-only and total: queries that fail
// degrade to absent facts instead of errors, so an ObservedState is always
// usable even on a machine with nothing installed.
type ObservedState struct {
	// ActiveVersion is the major.minor reported by the runtime currently on
	// PATH. Empty when the command is absent or its output is unparseable.
	ActiveVersion string

	// Discovered lists every versioned runtime executable found on PATH.
	Discovered []Alternative

	// RegistryEntries lists what the link facility has registered for the
	// managed command. Empty when the facility knows nothing about it.
	RegistryEntries []RegistryEntry

	// Capabilities is the set of modules the active runtime reports,
	// lowercased. Nil when the runtime is absent.
	Capabilities map[string]bool

	// Directories maps each managed directory path to its observed state.
	Directories map[string]DirState

	// Files maps each managed placeholder file path to its existence.
	Files map[string]bool

	// ConfigPresent reports whether the local configuration file exists.
	ConfigPresent bool

	// EnvPresent reports whether the environment indicator file exists;
	// EnvToken is its first line, trimmed. The pair distinguishes a missing
	// indicator (full bootstrap) from a stale one (rewrite only).
	EnvPresent bool
	EnvToken   string

	// ManagerPresent reports whether the dependency manager is on PATH.
	ManagerPresent bool

	// LockfilePresent and VendorPresent describe the dependency tree markers.
	LockfilePresent bool
	VendorPresent   bool
}

// HasVersion reports whether a runtime executable for version is installed.
func (s ObservedState) HasVersion(version string) bool {
	for _, alt := range s.Discovered {
		if alt.Version == version {
			return true
		}
	}
	return false
}

// HasCapability reports whether the active runtime exposes the named module.
func (s ObservedState) HasCapability(name string) bool {
	return s.Capabilities[name]
}

// RegistryHas reports whether the link facility has an entry for version.
func (s ObservedState) RegistryHas(version string) bool {
	for _, entry := range s.RegistryEntries {
		if entry.Version == version {
			return true
		}
	}
	return false
}
