package config

import (
	"testing"

	"github.com/stretchr/testify/require"

	pinionerrors "github.com/pinionhq/pinion/pkg/errors"
)

func validConfig() *Config {
	cfg := &Config{
		Version: "1.0",
		Name:    "demo-app dev environment",
		Runtime: Runtime{
			Command:      "php",
			Version:      "8.2",
			Capabilities: []string{"curl", "mbstring"},
		},
		Environment: Environment{Path: "config/.environment", Token: "development"},
		ConfigFile:  ConfigFile{Path: "config/app.php", Template: "config/app.default.php"},
		Directories: []Directory{{Path: "tmp", Mode: "0775"}},
		Files:       []string{"database/primary.sqlite"},
		Dependencies: &Dependencies{
			Manager:   "composer",
			Lockfile:  "composer.lock",
			VendorDir: "vendor",
		},
		Bootstrap: [][]string{{"bin/console", "migrate"}},
	}
	ApplyDefaults(cfg)
	return cfg
}

func TestValidateConfigAcceptsCompleteTarget(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidateConfig(validConfig()))
}

func TestValidateConfigRejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		mutate    func(cfg *Config)
		wantField string
	}{
		{
			name:      "missing runtime command",
			mutate:    func(cfg *Config) { cfg.Runtime.Command = "" },
			wantField: "command",
		},
		{
			name:      "patch version is not a pin",
			mutate:    func(cfg *Config) { cfg.Runtime.Version = "8.2.1" },
			wantField: "version",
		},
		{
			name:      "non numeric version",
			mutate:    func(cfg *Config) { cfg.Runtime.Version = "latest" },
			wantField: "version",
		},
		{
			name:      "package without placeholder",
			mutate:    func(cfg *Config) { cfg.Runtime.Package = "php" },
			wantField: "runtime.package",
		},
		{
			name:      "capability package without name placeholder",
			mutate:    func(cfg *Config) { cfg.Runtime.CapabilityPackage = "php-extras" },
			wantField: "runtime.capability_package",
		},
		{
			name:      "bad directory mode",
			mutate:    func(cfg *Config) { cfg.Directories[0].Mode = "rwxrwxr-x" },
			wantField: "mode",
		},
		{
			name:      "mode beyond four octal digits",
			mutate:    func(cfg *Config) { cfg.Directories[0].Mode = "17777" },
			wantField: "mode",
		},
		{
			name:      "environment token without path",
			mutate:    func(cfg *Config) { cfg.Environment.Path = "" },
			wantField: "environment",
		},
		{
			name:      "config file without template",
			mutate:    func(cfg *Config) { cfg.ConfigFile.Template = "" },
			wantField: "config_file",
		},
		{
			name:      "dependencies without lockfile",
			mutate:    func(cfg *Config) { cfg.Dependencies.Lockfile = "" },
			wantField: "dependencies.lockfile",
		},
		{
			name:      "dependencies without vendor dir",
			mutate:    func(cfg *Config) { cfg.Dependencies.VendorDir = "" },
			wantField: "dependencies.vendor_dir",
		},
		{
			name:      "empty bootstrap command",
			mutate:    func(cfg *Config) { cfg.Bootstrap = append(cfg.Bootstrap, nil) },
			wantField: "bootstrap[1]",
		},
		{
			name: "bootstrap without environment indicator",
			mutate: func(cfg *Config) {
				cfg.Environment = Environment{}
			},
			wantField: "bootstrap",
		},
		{
			name:      "empty file entry",
			mutate:    func(cfg *Config) { cfg.Files = []string{""} },
			wantField: "files",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(cfg)

			err := ValidateConfig(cfg)
			require.Error(t, err)

			var validationErr *pinionerrors.ValidationError
			require.ErrorAs(t, err, &validationErr)
			require.Contains(t, validationErr.Field, tt.wantField)
		})
	}
}

func TestValidateConfigNil(t *testing.T) {
	t.Parallel()

	err := ValidateConfig(nil)
	require.Error(t, err)

	var validationErr *pinionerrors.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestValidateConfigAcceptsSpecialModeBits(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Directories[0].Mode = "1777"
	require.NoError(t, ValidateConfig(cfg))
}

func TestValidateConfigCapabilitiesOptional(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Runtime.Capabilities = nil
	cfg.Runtime.CapabilityPackage = "whatever"
	require.NoError(t, ValidateConfig(cfg))
}

func TestValidateConfigWithoutOptionalSections(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		Version: "1.0",
		Runtime: Runtime{Command: "php", Version: "8.2"},
	}
	ApplyDefaults(cfg)
	require.NoError(t, ValidateConfig(cfg))
}
