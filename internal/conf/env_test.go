package conf

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEnvBool(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"true", "true", false},
		{"false", "false", false},
		{"1", "1", false},
		{"0", "0", false},
		{"TRUE", "TRUE", false},
		{"true with spaces", " true ", false},
		{"invalid", "maybe", true},
		{"yes", "yes", true},
		{"decimal", "0.5", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateEnvBool(tt.value)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid boolean value")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateEnvInts(t *testing.T) {
	t.Parallel()

	assert.NoError(t, validateEnvPositiveInt("5"))
	assert.Error(t, validateEnvPositiveInt("0"))
	assert.Error(t, validateEnvPositiveInt("five"))

	assert.NoError(t, validateEnvNonNegativeInt("0"))
	assert.Error(t, validateEnvNonNegativeInt("-2"))
}

func TestBindEnvVarsReportsInvalidValues(t *testing.T) {
	t.Setenv("CATALOG_DATABASE_POOL_SIZE", "zero")
	t.Setenv("CATALOG_LOG_LEVEL", "chatty")

	err := bindEnvVars(viper.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CATALOG_DATABASE_POOL_SIZE")
	assert.Contains(t, err.Error(), "CATALOG_LOG_LEVEL")
}

func TestBindEnvVarsAppliesOverrides(t *testing.T) {
	t.Setenv("CATALOG_INGEST_WORKERS", "3")

	v := viper.New()
	setDefaultConfig(v)
	require.NoError(t, bindEnvVars(v))
	assert.Equal(t, 3, v.GetInt("ingest.workers"))
}
