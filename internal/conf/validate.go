// conf/validate.go

package conf

import (
	"fmt"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/tphakala/syllable-catalog/internal/errors"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ErrorCategory marks settings problems as configuration errors
func (ve ValidationError) ErrorCategory() errors.ErrorCategory {
	return errors.CategoryConfiguration
}

var (
	supportedSchemes   = []string{"sqlite", "mysql"}
	supportedChecksums = []string{"sha256"}
	validLogLevels     = []string{"trace", "debug", "info", "warn", "error"}
)

// ValidateSettings validates the entire Settings struct and reports every violation at once
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	if err := validateDatabaseSettings(&settings.Database); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateIngestSettings(&settings.Ingest); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateLoggingLevels(settings); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if settings.Telemetry.Enabled && settings.Telemetry.DSN == "" {
		ve.Errors = append(ve.Errors, "telemetry.dsn is required when telemetry is enabled")
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateDatabaseSettings(settings *DatabaseSettings) error {
	var errs []string

	if settings.Enabled {
		if err := validateDatabaseURL(settings.URL); err != nil {
			errs = append(errs, err.Error())
		}
	}

	if settings.PoolSize < 1 {
		errs = append(errs, fmt.Sprintf("database.pool_size must be at least 1, got %d", settings.PoolSize))
	}

	if settings.MaxOverflow < 0 {
		errs = append(errs, fmt.Sprintf("database.max_overflow must be non-negative, got %d", settings.MaxOverflow))
	}

	if len(errs) > 0 {
		return fmt.Errorf("database settings errors: %v", errs)
	}
	return nil
}

// validateDatabaseURL checks that the URL names a supported engine scheme
func validateDatabaseURL(url string) error {
	if url == "" {
		return errors.NewStd("database.url must not be empty")
	}

	scheme, rest, found := strings.Cut(url, "://")
	if !found {
		return fmt.Errorf("database.url %q has no scheme, expected one of %v", url, supportedSchemes)
	}
	if !slices.Contains(supportedSchemes, strings.ToLower(scheme)) {
		return fmt.Errorf("database.url scheme %q is not supported, expected one of %v", scheme, supportedSchemes)
	}
	if rest == "" {
		return fmt.Errorf("database.url %q has no location", url)
	}
	return nil
}

func validateIngestSettings(settings *IngestSettings) error {
	var errs []string

	if settings.ScanGlobH5 == "" || !doublestar.ValidatePattern(settings.ScanGlobH5) {
		errs = append(errs, fmt.Sprintf("ingest.scan_glob_h5 %q is not a valid glob pattern", settings.ScanGlobH5))
	}

	if settings.ScanGlobAudio != "" && !doublestar.ValidatePattern(settings.ScanGlobAudio) {
		errs = append(errs, fmt.Sprintf("ingest.scan_glob_audio %q is not a valid glob pattern", settings.ScanGlobAudio))
	}

	if !slices.Contains(supportedChecksums, strings.ToLower(settings.Checksum)) {
		errs = append(errs, fmt.Sprintf("ingest.checksum %q is not supported, expected one of %v", settings.Checksum, supportedChecksums))
	}

	if settings.Workers < 0 {
		errs = append(errs, fmt.Sprintf("ingest.workers must be non-negative, got %d", settings.Workers))
	}

	if len(errs) > 0 {
		return fmt.Errorf("ingest settings errors: %v", errs)
	}
	return nil
}

func validateLoggingLevels(settings *Settings) error {
	var errs []string

	check := func(key, level string) {
		if level != "" && !isValidLogLevel(level) {
			errs = append(errs, fmt.Sprintf("%s %q is not a valid log level", key, level))
		}
	}

	check("logging.default_level", settings.Logging.DefaultLevel)
	if settings.Logging.Console != nil {
		check("logging.console.level", settings.Logging.Console.Level)
	}
	if settings.Logging.FileOutput != nil {
		check("logging.file_output.level", settings.Logging.FileOutput.Level)
	}
	for module, level := range settings.Logging.ModuleLevels {
		check("logging.module_levels."+module, level)
	}

	if len(errs) > 0 {
		slices.Sort(errs)
		return fmt.Errorf("logging settings errors: %v", errs)
	}
	return nil
}

func isValidLogLevel(level string) bool {
	return slices.Contains(validLogLevels, strings.ToLower(strings.TrimSpace(level)))
}
