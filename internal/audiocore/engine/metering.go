package engine

import (
	"time"

	"github.com/openmeters/openmeters-go/internal/audiocore"
	"github.com/openmeters/openmeters-go/internal/audiocore/meters"
)

// meteringAdapter sits between the capture engine and the facade. On each
// raw-audio delivery it drives both meters and forwards the derived
// snapshot; raw audio is consumed here, not re-published.
type meteringAdapter struct {
	engine *AudioEngine
	peak   *meters.PeakMeter
	rms    *meters.RMSMeter
}

func newMeteringAdapter(engine *AudioEngine, mirrorMono bool) *meteringAdapter {
	return &meteringAdapter{
		engine: engine,
		peak:   meters.NewPeakMeter(mirrorMono),
		rms:    meters.NewRMSMeter(mirrorMono),
	}
}

// OnAudioData runs on the capture goroutine.
func (a *meteringAdapter) OnAudioData(samples []float32, frameCount int, format audiocore.AudioFormat) {
	if frameCount == 0 {
		return
	}

	snapshot := audiocore.MeterSnapshot{
		Peak:        a.peak.Process(samples, frameCount, format),
		RMS:         a.rms.Process(samples, frameCount, format),
		TimestampMs: time.Now().UnixMilli(),
	}

	a.engine.forwardMeterData(snapshot)
}
