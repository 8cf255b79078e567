package meters

import (
	"math"

	"github.com/openmeters/openmeters-go/internal/audiocore"
)

// RMSMeter reports the root-mean-square amplitude per channel, a perceptual
// loudness approximation.
type RMSMeter struct {
	mirrorMono bool
}

// NewRMSMeter creates an RMS meter. When mirrorMono is set, a mono source's
// level is reported on both channels.
func NewRMSMeter(mirrorMono bool) *RMSMeter {
	return &RMSMeter{mirrorMono: mirrorMono}
}

// Process computes the per-channel RMS of the buffer, clamped to [0, 1].
// Squares accumulate in float64 to avoid precision loss over long buffers.
// A zero-frame buffer yields the zero level.
func (m *RMSMeter) Process(samples []float32, frameCount int, format audiocore.AudioFormat) audiocore.Level {
	channels := format.Channels
	if frameCount == 0 || channels < 1 || channels > 2 {
		return audiocore.Level{}
	}

	var sums [2]float64
	var counts [2]int
	for frame := range frameCount {
		for ch := range channels {
			idx := frame*channels + ch
			if idx >= len(samples) {
				break
			}
			v := float64(samples[idx])
			sums[ch] += v * v
			counts[ch]++
		}
	}

	var values [2]float64
	for ch := range channels {
		if counts[ch] > 0 {
			values[ch] = math.Sqrt(sums[ch] / float64(counts[ch]))
		}
	}

	return makeLevel(values, channels, m.mirrorMono)
}
