package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	pinionerrors "github.com/pinionhq/pinion/pkg/errors"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	semverPattern     = regexp.MustCompile(`^\d+\.\d+(?:\.\d+)?$`)
	majorMinorPattern = regexp.MustCompile(`^\d+\.\d+$`)
)

// validatorInstance configures and returns the shared validator used across
// the config package.
func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		_ = v.RegisterValidation("semver", func(fl validator.FieldLevel) bool {
			return semverPattern.MatchString(fl.Field().String())
		})

		_ = v.RegisterValidation("major_minor", func(fl validator.FieldLevel) bool {
			return majorMinorPattern.MatchString(fl.Field().String())
		})

		_ = v.RegisterValidation("octal_mode", func(fl validator.FieldLevel) bool {
			mode := strings.TrimPrefix(fl.Field().String(), "0o")
			if mode == "" {
				return false
			}
			parsed, err := strconv.ParseUint(mode, 8, 32)
			return err == nil && parsed <= 0o7777
		})

		validateInst = v
	})

	return validateInst
}

// ValidateConfig performs schema and cross-field validation on a target.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return pinionerrors.NewValidationError("config", "configuration is nil", nil)
	}

	v := validatorInstance()
	if err := v.Struct(cfg); err != nil {
		return convertValidationError(err)
	}

	if !strings.Contains(cfg.Runtime.Package, versionPlaceholder) {
		return pinionerrors.NewValidationError("runtime.package",
			fmt.Sprintf("must contain the %s placeholder", versionPlaceholder), nil)
	}

	if len(cfg.Runtime.Capabilities) > 0 && !strings.Contains(cfg.Runtime.CapabilityPackage, namePlaceholder) {
		return pinionerrors.NewValidationError("runtime.capability_package",
			fmt.Sprintf("must contain the %s placeholder", namePlaceholder), nil)
	}

	if (cfg.Environment.Path == "") != (cfg.Environment.Token == "") {
		return pinionerrors.NewValidationError("environment", "path and token must be set together", nil)
	}

	if (cfg.ConfigFile.Path == "") != (cfg.ConfigFile.Template == "") {
		return pinionerrors.NewValidationError("config_file", "path and template must be set together", nil)
	}

	if deps := cfg.Dependencies; deps != nil {
		if deps.Lockfile == "" {
			return pinionerrors.NewValidationError("dependencies.lockfile", "required when a manager is set", nil)
		}
		if deps.VendorDir == "" {
			return pinionerrors.NewValidationError("dependencies.vendor_dir", "required when a manager is set", nil)
		}
	}

	if len(cfg.Bootstrap) > 0 && cfg.Environment.Path == "" {
		return pinionerrors.NewValidationError("bootstrap", "requires an environment indicator file to make bootstrap runs observable", nil)
	}

	for i, command := range cfg.Bootstrap {
		if len(command) == 0 || command[0] == "" {
			return pinionerrors.NewValidationError(fmt.Sprintf("bootstrap[%d]", i), "command must not be empty", nil)
		}
	}

	return nil
}

func convertValidationError(err error) error {
	if err == nil {
		return nil
	}

	if ves, ok := err.(validator.ValidationErrors); ok {
		ve := ves[0]
		field := yamlishFieldName(ve)
		msg := fmt.Sprintf("%s failed validation for tag '%s'", field, ve.Tag())
		return pinionerrors.NewValidationError(field, msg, err)
	}

	return pinionerrors.NewValidationError("config", err.Error(), err)
}

func yamlishFieldName(fe validator.FieldError) string {
	ns := fe.StructNamespace()
	parts := strings.Split(ns, ".")
	var lowered []string
	for _, part := range parts {
		lowered = append(lowered, strings.ToLower(part))
	}
	return strings.Join(lowered, ".")
}
