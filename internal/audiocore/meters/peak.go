// Package meters implements the per-channel level reducers of the metering
// pipeline. Both meters are stateless across calls: each Process reports
// only the buffer given to it, with no smoothing or decay.
package meters

import (
	"math"

	"github.com/openmeters/openmeters-go/internal/audiocore"
)

// PeakMeter reports the maximum absolute sample magnitude per channel.
type PeakMeter struct {
	mirrorMono bool
}

// NewPeakMeter creates a peak meter. When mirrorMono is set, a mono source's
// level is reported on both channels.
func NewPeakMeter(mirrorMono bool) *PeakMeter {
	return &PeakMeter{mirrorMono: mirrorMono}
}

// Process computes the per-channel peak of the buffer, clamped to [0, 1].
// A zero-frame buffer yields the zero level.
func (m *PeakMeter) Process(samples []float32, frameCount int, format audiocore.AudioFormat) audiocore.Level {
	channels := format.Channels
	if frameCount == 0 || channels < 1 || channels > 2 {
		return audiocore.Level{}
	}

	var peaks [2]float64
	for frame := range frameCount {
		for ch := range channels {
			idx := frame*channels + ch
			if idx >= len(samples) {
				break
			}
			v := math.Abs(float64(samples[idx]))
			if v > peaks[ch] {
				peaks[ch] = v
			}
		}
	}

	return makeLevel(peaks, channels, m.mirrorMono)
}

// makeLevel clamps per-channel values and applies the mono mirroring policy.
func makeLevel(values [2]float64, channels int, mirrorMono bool) audiocore.Level {
	level := audiocore.Level{
		Left:  clampUnit(values[0]),
		Right: clampUnit(values[1]),
	}
	if channels == 1 && mirrorMono {
		level.Right = level.Left
	}
	return level
}

// clampUnit clamps v to [0, 1], mapping NaN to 0.
func clampUnit(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
