// Package alternatives adapts the system's managed-link facility
// (update-alternatives on Debian-family systems) for one command. The
// Registry interface is the seam: probing and execution go through it, and
// tests swap in the Memory implementation.
package alternatives

import (
	"context"

	"github.com/pinionhq/pinion/internal/model"
)

// Registry is pinion's view of the alternatives facility for the managed
// command.
type Registry interface {
	// List discovers versioned executables on PATH following the target's
	// naming convention, one entry per version, first PATH hit wins.
	List(ctx context.Context) ([]model.Alternative, error)

	// Entries reports what the facility currently has registered for the
	// command. A command the facility does not know yields an empty list,
	// not an error.
	Entries(ctx context.Context) ([]model.RegistryEntry, error)

	// RemoveAll drops every registration for the command. Removing an
	// unregistered command is not an error.
	RemoveAll(ctx context.Context) error

	// Register adds the named version at the given priority. The
	// executable path is derived from the naming convention.
	Register(ctx context.Context, version string, priority int) error

	// SetActive points the managed link at a registered version. The path
	// is resolved from the current entries; an unregistered version is a
	// RegistryError.
	SetActive(ctx context.Context, version string) error
}
