// env.go - Environment variable configuration and validation
package conf

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// envBinding holds metadata for environment variable bindings (internal use)
type envBinding struct {
	ConfigKey string             // Viper config key
	EnvVar    string             // Environment variable name
	Validate  func(string) error // Optional validation function
}

// getEnvBindings returns all environment variable bindings with validation
func getEnvBindings() []envBinding {
	return []envBinding{
		{"database.enabled", envPrefix + "_DATABASE_ENABLED", validateEnvBool},
		{"database.url", envPrefix + "_DATABASE_URL", validateEnvDatabaseURL},
		{"database.echo", envPrefix + "_DATABASE_ECHO", validateEnvBool},
		{"database.pool_size", envPrefix + "_DATABASE_POOL_SIZE", validateEnvPositiveInt},
		{"database.max_overflow", envPrefix + "_DATABASE_MAX_OVERFLOW", validateEnvNonNegativeInt},

		{"data_roots.audio_dir", envPrefix + "_DATA_ROOTS_AUDIO_DIR", nil},
		{"data_roots.features_dir", envPrefix + "_DATA_ROOTS_FEATURES_DIR", nil},

		{"ingest.scan_glob_h5", envPrefix + "_INGEST_SCAN_GLOB_H5", nil},
		{"ingest.workers", envPrefix + "_INGEST_WORKERS", validateEnvNonNegativeInt},
		{"ingest.lock_dir", envPrefix + "_INGEST_LOCK_DIR", nil},

		{"logging.default_level", envPrefix + "_LOG_LEVEL", validateEnvLogLevel},

		{"telemetry.enabled", envPrefix + "_TELEMETRY_ENABLED", validateEnvBool},
		{"telemetry.dsn", envPrefix + "_TELEMETRY_DSN", nil},
	}
}

// bindEnvVars sets up environment variable bindings with validation (internal)
func bindEnvVars(v *viper.Viper) error {
	var warnings []string

	for _, binding := range getEnvBindings() {
		if err := v.BindEnv(binding.ConfigKey, binding.EnvVar); err != nil {
			warnings = append(warnings, fmt.Sprintf("Failed to bind %s: %v", binding.EnvVar, err))
			continue
		}

		if binding.Validate != nil {
			if envValue := os.Getenv(binding.EnvVar); envValue != "" {
				if err := binding.Validate(envValue); err != nil {
					warnings = append(warnings, fmt.Sprintf("Invalid %s value '%s': %v", binding.EnvVar, envValue, err))
				}
			}
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}

	return nil
}

func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(strings.TrimSpace(value)); err != nil {
		return fmt.Errorf("invalid boolean value '%s': must be true/false, 1/0, t/f", value)
	}
	return nil
}

func validateEnvPositiveInt(value string) error {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("invalid integer: %w", err)
	}
	if n < 1 {
		return fmt.Errorf("must be at least 1, got %d", n)
	}
	return nil
}

func validateEnvNonNegativeInt(value string) error {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("invalid integer: %w", err)
	}
	if n < 0 {
		return fmt.Errorf("must be non-negative, got %d", n)
	}
	return nil
}

func validateEnvDatabaseURL(value string) error {
	return validateDatabaseURL(value)
}

func validateEnvLogLevel(value string) error {
	if !isValidLogLevel(value) {
		return fmt.Errorf("must be one of: %s", strings.Join(validLogLevels, ", "))
	}
	return nil
}
