package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/wildcard/cmdai/pkg/types"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// tomlKeys maps validator struct namespaces to the TOML paths users see.
var tomlKeys = map[string]string{
	"Config.General.SafetyLevel":      "general.safety_level",
	"Config.General.DefaultShell":     "general.default_shell",
	"Config.Logging.LogLevel":         "logging.log_level",
	"Config.Logging.LogRotationDays":  "logging.log_rotation_days",
	"Config.Cache.MaxSizeGB":          "cache.max_size_gb",
}

// Validate checks every field range and enum. The first failure is
// returned as an InvalidValueError naming the accepted set.
func Validate(cfg Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		key := tomlKeys[fe.StructNamespace()]
		if key == "" {
			key = strings.ToLower(fe.StructNamespace())
		}
		return &InvalidValueError{Key: key, Reason: reasonFor(key, fe)}
	}
	return err
}

func reasonFor(key string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "oneof", "required":
		switch key {
		case "general.safety_level":
			return fmt.Sprintf("got %q, accepted values: %s", fe.Value(), joinSafety())
		case "general.default_shell":
			return fmt.Sprintf("got %q, accepted values: %s", fe.Value(), joinShells())
		case "logging.log_level":
			return fmt.Sprintf("got %q, accepted values: %s", fe.Value(), joinLevels())
		}
		return fmt.Sprintf("got %q, accepted values: %s", fe.Value(), fe.Param())
	case "min", "max":
		switch key {
		case "cache.max_size_gb":
			return fmt.Sprintf("got %v, accepted range: 1 to 1000", fe.Value())
		case "logging.log_rotation_days":
			return fmt.Sprintf("got %v, accepted range: 1 to 365", fe.Value())
		}
		return fmt.Sprintf("got %v, out of range (%s=%s)", fe.Value(), fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("got %v, failed %s validation", fe.Value(), fe.Tag())
}

func joinSafety() string {
	parts := make([]string, 0, 3)
	for _, l := range types.KnownSafetyLevels() {
		parts = append(parts, l.String())
	}
	return strings.Join(parts, ", ")
}

func joinShells() string {
	parts := make([]string, 0, 6)
	for _, s := range types.KnownShells() {
		parts = append(parts, s.String())
	}
	return strings.Join(parts, ", ")
}

func joinLevels() string {
	parts := make([]string, 0, 4)
	for _, l := range types.KnownLogLevels() {
		parts = append(parts, l.String())
	}
	return strings.Join(parts, ", ")
}
