package conf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSettings(t *testing.T) {
	t.Parallel()

	valid := &Settings{
		Audio:     AudioSettings{Device: "default", QueueDepth: 16, MirrorMono: true},
		Export:    ExportSettings{Enabled: false},
		Telemetry: TelemetrySettings{Enabled: false},
	}
	require.NoError(t, ValidateSettings(valid))

	t.Run("queue depth must be positive", func(t *testing.T) {
		t.Parallel()
		s := *valid
		s.Audio.QueueDepth = 0
		assert.Error(t, ValidateSettings(&s))
	})

	t.Run("meter refresh must not be negative", func(t *testing.T) {
		t.Parallel()
		s := *valid
		s.Audio.MeterRefreshMs = -1
		assert.Error(t, ValidateSettings(&s))
	})

	t.Run("telemetry needs listen address", func(t *testing.T) {
		t.Parallel()
		s := *valid
		s.Telemetry = TelemetrySettings{Enabled: true, Listen: ""}
		assert.Error(t, ValidateSettings(&s))
	})

	t.Run("export needs path", func(t *testing.T) {
		t.Parallel()
		s := *valid
		s.Export = ExportSettings{Enabled: true, Path: ""}
		assert.Error(t, ValidateSettings(&s))
	})
}

func TestGetDefaultConfigPathsNeverEmpty(t *testing.T) {
	t.Parallel()

	paths, err := GetDefaultConfigPaths()
	require.NoError(t, err)
	assert.NotEmpty(t, paths)
}
