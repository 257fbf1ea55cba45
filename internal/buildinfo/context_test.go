package buildinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		version   string
		buildDate string
		want      string
		release   string
	}{
		{"injected values", "v1.2.0", "2026-10-01", "v1.2.0 (built 2026-10-01)", "syllable-catalog@v1.2.0"},
		{"empty values", "", "", "dev (built unknown)", "syllable-catalog@dev"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.version, tt.buildDate)
			assert.Equal(t, tt.want, c.String())
			assert.Equal(t, tt.release, c.Release())
		})
	}
}
