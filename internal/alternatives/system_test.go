package alternatives

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pinionhq/pinion/internal/cmdexec"
	"github.com/pinionhq/pinion/internal/config"
	"github.com/pinionhq/pinion/internal/logger"
	"github.com/pinionhq/pinion/internal/model"
	pinionerrors "github.com/pinionhq/pinion/pkg/errors"
)

func phpRuntime() config.Runtime {
	return config.Runtime{
		Command: "php",
		Version: "8.2",
		Package: "php{version}",
		BinDir:  "/usr/bin",
	}
}

const queryOutput = `Name: php
Link: /usr/bin/php
Status: auto
Best: /usr/bin/php8.2
Value: /usr/bin/php8.2

Alternative: /usr/bin/php7.4
Priority: 100

Alternative: /usr/bin/php8.2
Priority: 150

Alternative: /opt/custom/php-snapshot
Priority: 10
`

func TestSystemEntriesParsesQueryOutput(t *testing.T) {
	t.Parallel()

	recorder := &cmdexec.Recorder{
		Responses: []cmdexec.Response{
			{Match: "update-alternatives --query php", Result: cmdexec.Result{Stdout: queryOutput}},
		},
	}
	sys, err := NewSystem(phpRuntime(), recorder, logger.Nop())
	require.NoError(t, err)

	entries, err := sys.Entries(context.Background())
	require.NoError(t, err)
	require.Equal(t, []model.RegistryEntry{
		{Version: "7.4", Path: "/usr/bin/php7.4", Priority: 100},
		{Version: "8.2", Path: "/usr/bin/php8.2", Priority: 150},
		{Version: "", Path: "/opt/custom/php-snapshot", Priority: 10},
	}, entries)
}

func TestSystemEntriesUnregisteredCommandIsEmpty(t *testing.T) {
	t.Parallel()

	recorder := &cmdexec.Recorder{
		Responses: []cmdexec.Response{{
			Match:  "update-alternatives --query php",
			Result: cmdexec.Result{ExitCode: 2, Stderr: "update-alternatives: error: no alternatives for php"},
			Err:    errors.New("exit status 2: update-alternatives: error: no alternatives for php"),
		}},
	}
	sys, err := NewSystem(phpRuntime(), recorder, logger.Nop())
	require.NoError(t, err)

	entries, err := sys.Entries(context.Background())
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestSystemEntriesFailureIsRegistryError(t *testing.T) {
	t.Parallel()

	recorder := &cmdexec.Recorder{
		Responses: []cmdexec.Response{{
			Match: "update-alternatives --query php",
			Err:   errors.New("exec format error"),
		}},
	}
	sys, err := NewSystem(phpRuntime(), recorder, logger.Nop())
	require.NoError(t, err)

	_, err = sys.Entries(context.Background())
	require.Error(t, err)

	var registryErr *pinionerrors.RegistryError
	require.ErrorAs(t, err, &registryErr)
	require.Equal(t, "query", registryErr.Op)
}

func TestSystemRegisterBuildsInstallInvocation(t *testing.T) {
	t.Parallel()

	recorder := &cmdexec.Recorder{}
	sys, err := NewSystem(phpRuntime(), recorder, logger.Nop())
	require.NoError(t, err)

	require.NoError(t, sys.Register(context.Background(), "8.2", 150))

	require.Equal(t, []string{"update-alternatives --install /usr/bin/php php /usr/bin/php8.2 150"}, recorder.Lines())
	require.True(t, recorder.Calls[0].Privileged)
	require.True(t, recorder.Calls[0].Stream)
}

func TestSystemRemoveAllToleratesUnregistered(t *testing.T) {
	t.Parallel()

	recorder := &cmdexec.Recorder{
		Responses: []cmdexec.Response{{
			Match:  "update-alternatives --remove-all php",
			Result: cmdexec.Result{ExitCode: 2, Stderr: "update-alternatives: error: no alternatives for php"},
			Err:    errors.New("exit status 2"),
		}},
	}
	sys, err := NewSystem(phpRuntime(), recorder, logger.Nop())
	require.NoError(t, err)

	require.NoError(t, sys.RemoveAll(context.Background()))
	require.Equal(t, []string{"update-alternatives --remove-all php"}, recorder.Lines())
}

func TestSystemSetActiveResolvesRegisteredPath(t *testing.T) {
	t.Parallel()

	recorder := &cmdexec.Recorder{
		Responses: []cmdexec.Response{
			{Match: "update-alternatives --query php", Result: cmdexec.Result{Stdout: queryOutput}},
		},
	}
	sys, err := NewSystem(phpRuntime(), recorder, logger.Nop())
	require.NoError(t, err)

	require.NoError(t, sys.SetActive(context.Background(), "8.2"))

	lines := recorder.Lines()
	require.Len(t, lines, 2)
	require.Equal(t, "update-alternatives --set php /usr/bin/php8.2", lines[1])
	require.True(t, recorder.Calls[1].Privileged)
}

func TestSystemSetActiveUnregisteredVersion(t *testing.T) {
	t.Parallel()

	recorder := &cmdexec.Recorder{
		Responses: []cmdexec.Response{
			{Match: "update-alternatives --query php", Result: cmdexec.Result{Stdout: queryOutput}},
		},
	}
	sys, err := NewSystem(phpRuntime(), recorder, logger.Nop())
	require.NoError(t, err)

	err = sys.SetActive(context.Background(), "8.3")
	require.Error(t, err)

	var registryErr *pinionerrors.RegistryError
	require.ErrorAs(t, err, &registryErr)
	require.Equal(t, "8.3", registryErr.Version)
	require.Len(t, recorder.Lines(), 1)
}

func TestSystemListScansPath(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()

	writeExecutable(t, filepath.Join(first, "php8.2"))
	writeExecutable(t, filepath.Join(first, "php"))
	writeExecutable(t, filepath.Join(second, "php7.4"))
	writeExecutable(t, filepath.Join(second, "php8.2"))
	require.NoError(t, os.WriteFile(filepath.Join(second, "php8.1"), []byte("#!/bin/sh\n"), 0o644))

	t.Setenv("PATH", first+string(os.PathListSeparator)+second)

	sys, err := NewSystem(phpRuntime(), &cmdexec.Recorder{}, logger.Nop())
	require.NoError(t, err)

	found, err := sys.List(context.Background())
	require.NoError(t, err)

	require.Equal(t, []model.Alternative{
		{Version: "7.4", Path: filepath.Join(second, "php7.4")},
		{Version: "8.2", Path: filepath.Join(first, "php8.2")},
	}, found)
}

func TestSystemListEmptyPath(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	sys, err := NewSystem(phpRuntime(), &cmdexec.Recorder{}, logger.Nop())
	require.NoError(t, err)

	found, err := sys.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, found)
}

func TestVersionLess(t *testing.T) {
	t.Parallel()

	require.True(t, versionLess("7.4", "8.1"))
	require.True(t, versionLess("8.1", "8.2"))
	require.True(t, versionLess("9.9", "10.0"))
	require.False(t, versionLess("8.2", "8.2"))
	require.False(t, versionLess("10.0", "9.9"))
}

func writeExecutable(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755))
}
