package probe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pinionhq/pinion/internal/alternatives"
	"github.com/pinionhq/pinion/internal/cmdexec"
	"github.com/pinionhq/pinion/internal/config"
	"github.com/pinionhq/pinion/internal/logger"
	"github.com/pinionhq/pinion/internal/model"
)

const phpVersionBanner = `PHP 8.2.20 (cli) (built: Jun  7 2024 10:00:00) (NTS)
Copyright (c) The PHP Group
Zend Engine v4.2.20, Copyright (c) Zend Technologies`

const phpModules = `[PHP Modules]
Core
curl
mbstring
SQLite3

[Zend Modules]
Zend OPcache`

func probeTarget(t *testing.T) *config.Config {
	t.Helper()

	dir := t.TempDir()
	cfg := &config.Config{
		Version: "1.0",
		Runtime: config.Runtime{
			Command:      "php",
			Version:      "8.2",
			Capabilities: []string{"curl", "mbstring", "sqlite3"},
		},
		Environment: config.Environment{Path: filepath.Join(dir, ".environment"), Token: "development"},
		ConfigFile:  config.ConfigFile{Path: filepath.Join(dir, "app.php"), Template: filepath.Join(dir, "app.default.php")},
		Directories: []config.Directory{{Path: filepath.Join(dir, "tmp"), Mode: "0775"}},
		Files:       []string{filepath.Join(dir, "primary.sqlite")},
		Dependencies: &config.Dependencies{
			Manager:   "composer",
			Lockfile:  filepath.Join(dir, "composer.lock"),
			VendorDir: filepath.Join(dir, "vendor"),
		},
	}
	config.ApplyDefaults(cfg)
	require.NoError(t, config.ValidateConfig(cfg))
	return cfg
}

func TestProbeReadsRuntimeFacts(t *testing.T) {
	t.Parallel()

	recorder := &cmdexec.Recorder{
		Responses: []cmdexec.Response{
			{Match: "php --version", Result: cmdexec.Result{Stdout: phpVersionBanner}},
			{Match: "php -m", Result: cmdexec.Result{Stdout: phpModules}},
		},
		Paths: map[string]string{"composer": "/usr/local/bin/composer"},
	}
	registry := &alternatives.Memory{
		Available: []model.Alternative{
			{Version: "7.4", Path: "/usr/bin/php7.4"},
			{Version: "8.2", Path: "/usr/bin/php8.2"},
		},
		Registered: []model.RegistryEntry{
			{Version: "7.4", Path: "/usr/bin/php7.4", Priority: 100},
		},
	}

	prober := New(recorder, registry, logger.Nop())
	state := prober.Probe(context.Background(), probeTarget(t))

	require.Equal(t, "8.2", state.ActiveVersion)
	require.True(t, state.HasCapability("curl"))
	require.True(t, state.HasCapability("mbstring"))
	require.True(t, state.HasCapability("sqlite3"))
	require.False(t, state.HasCapability("core missing"))
	require.True(t, state.HasVersion("7.4"))
	require.True(t, state.HasVersion("8.2"))
	require.True(t, state.RegistryHas("7.4"))
	require.False(t, state.RegistryHas("8.2"))
	require.True(t, state.ManagerPresent)
}

func TestProbeDegradesOnRuntimeFailure(t *testing.T) {
	t.Parallel()

	recorder := &cmdexec.Recorder{
		Responses: []cmdexec.Response{
			{Match: "php", Err: errors.New("executable file not found in $PATH")},
		},
	}

	prober := New(recorder, &alternatives.Memory{}, logger.Nop())
	state := prober.Probe(context.Background(), probeTarget(t))

	require.Empty(t, state.ActiveVersion)
	require.Empty(t, state.Capabilities)
	require.False(t, state.ManagerPresent)
}

func TestProbeDegradesOnRegistryFailure(t *testing.T) {
	t.Parallel()

	registry := &alternatives.Memory{FailOn: "query"}
	prober := New(&cmdexec.Recorder{}, registry, logger.Nop())

	state := prober.Probe(context.Background(), probeTarget(t))
	require.Empty(t, state.RegistryEntries)
}

func TestProbeUnparseableVersionIsAbsent(t *testing.T) {
	t.Parallel()

	recorder := &cmdexec.Recorder{
		Responses: []cmdexec.Response{
			{Match: "php --version", Result: cmdexec.Result{Stdout: "something without numbers"}},
		},
	}

	prober := New(recorder, &alternatives.Memory{}, logger.Nop())
	state := prober.Probe(context.Background(), probeTarget(t))
	require.Empty(t, state.ActiveVersion)
}

func TestProbeObservesFilesystem(t *testing.T) {
	t.Parallel()

	target := probeTarget(t)

	dirPath := target.Directories[0].Path
	require.NoError(t, os.Mkdir(dirPath, 0o700))
	require.NoError(t, os.WriteFile(target.Files[0], nil, 0o644))
	require.NoError(t, os.WriteFile(target.ConfigFile.Path, []byte("<?php\n"), 0o644))
	require.NoError(t, os.WriteFile(target.Environment.Path, []byte("development\nextra\n"), 0o644))
	require.NoError(t, os.WriteFile(target.Dependencies.Lockfile, []byte("{}"), 0o644))
	require.NoError(t, os.Mkdir(target.Dependencies.VendorDir, 0o755))

	prober := New(&cmdexec.Recorder{}, &alternatives.Memory{}, logger.Nop())
	state := prober.Probe(context.Background(), target)

	require.True(t, state.Directories[dirPath].Exists)
	require.Equal(t, os.FileMode(0o700), state.Directories[dirPath].Mode)
	require.True(t, state.Files[target.Files[0]])
	require.True(t, state.ConfigPresent)
	require.True(t, state.EnvPresent)
	require.Equal(t, "development", state.EnvToken)
	require.True(t, state.LockfilePresent)
	require.True(t, state.VendorPresent)
}

func TestProbeObservesStickyBit(t *testing.T) {
	t.Parallel()

	target := probeTarget(t)
	dirPath := target.Directories[0].Path
	require.NoError(t, os.Mkdir(dirPath, 0o777))
	require.NoError(t, os.Chmod(dirPath, 0o777|os.ModeSticky))

	prober := New(&cmdexec.Recorder{}, &alternatives.Memory{}, logger.Nop())
	state := prober.Probe(context.Background(), target)

	require.True(t, state.Directories[dirPath].Exists)
	require.Equal(t, os.FileMode(0o777)|os.ModeSticky, state.Directories[dirPath].Mode)
}

func TestProbeOnBareMachine(t *testing.T) {
	t.Parallel()

	target := probeTarget(t)
	recorder := &cmdexec.Recorder{
		Responses: []cmdexec.Response{{Match: "php", Err: errors.New("not found")}},
	}

	prober := New(recorder, &alternatives.Memory{}, logger.Nop())
	state := prober.Probe(context.Background(), target)

	require.Empty(t, state.ActiveVersion)
	require.Empty(t, state.Discovered)
	require.Empty(t, state.RegistryEntries)
	require.False(t, state.Directories[target.Directories[0].Path].Exists)
	require.False(t, state.Files[target.Files[0]])
	require.False(t, state.ConfigPresent)
	require.False(t, state.EnvPresent)
	require.False(t, state.LockfilePresent)
	require.False(t, state.VendorPresent)
}

func TestProbeEnvTokenFirstLineTrimmed(t *testing.T) {
	t.Parallel()

	target := probeTarget(t)
	require.NoError(t, os.WriteFile(target.Environment.Path, []byte("  staging  \nsecond line\n"), 0o644))

	prober := New(&cmdexec.Recorder{}, &alternatives.Memory{}, logger.Nop())
	state := prober.Probe(context.Background(), target)

	require.True(t, state.EnvPresent)
	require.Equal(t, "staging", state.EnvToken)
}
