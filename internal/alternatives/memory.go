package alternatives

import (
	"context"
	"fmt"
	"sync"

	"github.com/pinionhq/pinion/internal/model"
	pinionerrors "github.com/pinionhq/pinion/pkg/errors"
)

// Memory implements Registry in memory. Tests preload what discovery
// should find, then assert against the operation journal that mutations
// happened in the required order.
type Memory struct {
	mu sync.Mutex

	// Available is what List discovers.
	Available []model.Alternative

	// Registered is the current registry content.
	Registered []model.RegistryEntry

	// Active is the version the managed link points at.
	Active string

	// Ops journals every mutating call, e.g. "remove-all",
	// "register 8.2 150", "set-active 8.2".
	Ops []string

	// FailOn makes the named operation ("remove-all", "register", "set",
	// "query") fail, for failure-path tests.
	FailOn string
}

var _ Registry = (*Memory)(nil)

func (m *Memory) List(_ context.Context) ([]model.Alternative, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Alternative(nil), m.Available...), nil
}

func (m *Memory) Entries(_ context.Context) ([]model.RegistryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailOn == "query" {
		return nil, pinionerrors.NewRegistryError("query", "", fmt.Errorf("scripted failure"))
	}
	return append([]model.RegistryEntry(nil), m.Registered...), nil
}

func (m *Memory) RemoveAll(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Ops = append(m.Ops, "remove-all")
	if m.FailOn == "remove-all" {
		return pinionerrors.NewRegistryError("remove-all", "", fmt.Errorf("scripted failure"))
	}
	m.Registered = nil
	return nil
}

func (m *Memory) Register(_ context.Context, version string, priority int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Ops = append(m.Ops, fmt.Sprintf("register %s %d", version, priority))
	if m.FailOn == "register" {
		return pinionerrors.NewRegistryError("register", version, fmt.Errorf("scripted failure"))
	}
	m.Registered = append(m.Registered, model.RegistryEntry{
		Version:  version,
		Path:     m.pathFor(version),
		Priority: priority,
	})
	return nil
}

func (m *Memory) SetActive(_ context.Context, version string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Ops = append(m.Ops, "set-active "+version)
	if m.FailOn == "set" {
		return pinionerrors.NewRegistryError("set", version, fmt.Errorf("scripted failure"))
	}
	for _, entry := range m.Registered {
		if entry.Version == version {
			m.Active = version
			return nil
		}
	}
	return pinionerrors.NewRegistryError("set", version, fmt.Errorf("version is not registered"))
}

func (m *Memory) pathFor(version string) string {
	for _, alt := range m.Available {
		if alt.Version == version {
			return alt.Path
		}
	}
	return "/usr/bin/unknown" + version
}
