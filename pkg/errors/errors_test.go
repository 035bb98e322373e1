package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseErrorWrapsUnderlying(t *testing.T) {
	t.Parallel()

	underlying := fmt.Errorf("unexpected token")
	err := NewParseError("pinion.yaml", 12, underlying)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, "pinion.yaml", parseErr.Path)
	require.Equal(t, 12, parseErr.Line)
	require.True(t, stdErrors.Is(err, underlying))
	require.Contains(t, err.Error(), "pinion.yaml")
}

func TestValidationErrorAggregatesFields(t *testing.T) {
	t.Parallel()

	err := NewValidationError("runtime.version", "must be major.minor", nil)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Equal(t, "runtime.version", validationErr.Field)
	require.Contains(t, validationErr.Message, "must be major.minor")
}

func TestExecutionErrorIncludesActionContext(t *testing.T) {
	t.Parallel()

	underlying := stdErrors.New("exit status 100")
	err := NewExecutionError("install runtime 8.2", underlying)

	var executionErr *ExecutionError
	require.ErrorAs(t, err, &executionErr)
	require.Equal(t, "install runtime 8.2", executionErr.Action)
	require.True(t, stdErrors.Is(err, underlying))
	require.Contains(t, err.Error(), "install runtime 8.2")
}

func TestRegistryErrorCarriesOperation(t *testing.T) {
	t.Parallel()

	underlying := stdErrors.New("no alternatives for php")
	err := NewRegistryError("set-active", "8.2", underlying)

	var registryErr *RegistryError
	require.ErrorAs(t, err, &registryErr)
	require.Equal(t, "set-active", registryErr.Op)
	require.Equal(t, "8.2", registryErr.Version)
	require.True(t, stdErrors.Is(err, underlying))
	require.Contains(t, err.Error(), "set-active 8.2")
}

func TestPrivilegeAcquisitionErrorIncludesHint(t *testing.T) {
	t.Parallel()

	underlying := stdErrors.New("sudo: 3 incorrect password attempts")
	err := NewPrivilegeAcquisitionError("check your sudoers entry", underlying)

	var privErr *PrivilegeAcquisitionError
	require.ErrorAs(t, err, &privErr)
	require.Equal(t, "check your sudoers entry", privErr.Hint)
	require.True(t, stdErrors.Is(err, underlying))
	require.Contains(t, err.Error(), "check your sudoers entry")
}

func TestPrivilegeMisuseErrorNamesUID(t *testing.T) {
	t.Parallel()

	err := NewPrivilegeMisuseError(0)

	var misuseErr *PrivilegeMisuseError
	require.ErrorAs(t, err, &misuseErr)
	require.Equal(t, 0, misuseErr.UID)
	require.Contains(t, err.Error(), "regular user")
}
