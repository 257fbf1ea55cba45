// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"

	"github.com/tphakala/syllable-catalog/internal/logger"
)

// Default setting values shared with the CLI help text.
const (
	DefaultDatabaseURL   = "sqlite://catalog.db"
	DefaultPoolSize      = 5
	DefaultMaxOverflow   = 10
	DefaultScanGlobAudio = "**/*.wav"
	DefaultScanGlobH5    = "**/*.h5"
	DefaultChecksum      = "sha256"
)

// setDefaultConfig sets default values for every configuration key.
// Every key must have a default so UnmarshalExact and env overrides see it.
func setDefaultConfig(v *viper.Viper) {
	v.SetDefault("database.enabled", true)
	v.SetDefault("database.url", DefaultDatabaseURL)
	v.SetDefault("database.echo", false)
	v.SetDefault("database.pool_size", DefaultPoolSize)
	v.SetDefault("database.max_overflow", DefaultMaxOverflow)

	v.SetDefault("data_roots.audio_dir", "data/audio")
	v.SetDefault("data_roots.features_dir", "data/features")

	v.SetDefault("ingest.scan_glob_audio", DefaultScanGlobAudio)
	v.SetDefault("ingest.scan_glob_h5", DefaultScanGlobH5)
	v.SetDefault("ingest.checksum", DefaultChecksum)
	v.SetDefault("ingest.workers", 0)
	v.SetDefault("ingest.lock_dir", "")

	v.SetDefault("logging.default_level", logger.DefaultLogLevel)
	v.SetDefault("logging.timezone", "Local")
	v.SetDefault("logging.console.enabled", logger.DefaultConsoleEnabled)
	v.SetDefault("logging.console.level", logger.DefaultLogLevel)
	v.SetDefault("logging.file_output.enabled", logger.DefaultFileEnabled)
	v.SetDefault("logging.file_output.path", logger.DefaultLogPath)
	v.SetDefault("logging.file_output.level", logger.DefaultLogLevel)
	v.SetDefault("logging.file_output.max_size", logger.DefaultMaxSize)
	v.SetDefault("logging.file_output.max_age", logger.DefaultMaxAge)
	v.SetDefault("logging.file_output.max_rotated_files", logger.DefaultMaxRotatedFiles)
	v.SetDefault("logging.file_output.compress", false)
	v.SetDefault("logging.module_levels", map[string]string{})

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.dsn", "")
}
