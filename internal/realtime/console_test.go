package realtime

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmeters/openmeters-go/internal/audiocore"
)

func TestLevelBarSilenceIsEmpty(t *testing.T) {
	t.Parallel()

	bar := levelBar(0, 0)
	require.Len(t, bar, barWidth+2)
	assert.NotContains(t, bar, "#")
	assert.NotContains(t, bar, "|")
}

func TestLevelBarFullScale(t *testing.T) {
	t.Parallel()

	bar := levelBar(1.0, 1.0)
	assert.Equal(t, barWidth, strings.Count(bar, "#"))
}

func TestLevelBarPeakMarkerPastRMS(t *testing.T) {
	t.Parallel()

	bar := levelBar(0.5, 0.1)
	assert.Contains(t, bar, "#")
	assert.Contains(t, bar, "|")
	assert.Less(t, strings.Index(bar, "#"), strings.Index(bar, "|"))
}

func TestDBPositionBounds(t *testing.T) {
	t.Parallel()

	assert.Equal(t, -1, dbPosition(0))
	assert.Equal(t, barWidth-1, dbPosition(1.0))
	pos := dbPosition(0.5)
	assert.Greater(t, pos, 0)
	assert.Less(t, pos, barWidth)
}

func TestConsoleMeterStopsAfterFinish(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	c := newConsoleMeter(&sb, nil, 0)

	snapshot := audiocore.MeterSnapshot{
		Peak: audiocore.Level{Left: 0.5, Right: 0.5},
		RMS:  audiocore.Level{Left: 0.25, Right: 0.25},
	}
	c.OnMeterData(snapshot)
	require.NotEmpty(t, sb.String())

	c.finish()
	c.finish()
	before := sb.Len()
	c.OnMeterData(snapshot)
	assert.Equal(t, before, sb.Len())
}
