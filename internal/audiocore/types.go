package audiocore

// AudioFormat describes one capture session's negotiated format. It is a
// value type: every component that needs it holds its own copy.
type AudioFormat struct {
	SampleRate uint32 // sample rate in Hz (e.g. 48000)
	Channels   int    // 1 for mono, 2 for stereo
}

// SamplesPerFrame returns the number of interleaved samples in one frame.
func (f AudioFormat) SamplesPerFrame() int {
	return f.Channels
}

// Valid reports whether the format satisfies the pipeline's invariants.
func (f AudioFormat) Valid() bool {
	return f.SampleRate > 0 && (f.Channels == 1 || f.Channels == 2)
}

// Level holds one per-channel meter reading, each value in [0, 1].
// For mono sources Right mirrors Left when mirroring is enabled.
type Level struct {
	Left  float64
	Right float64
}

// MeterSnapshot bundles the peak and RMS levels computed from one audio
// buffer. Snapshots are immutable values passed by copy to every observer.
type MeterSnapshot struct {
	Peak        Level
	RMS         Level
	TimestampMs int64 // wall clock, milliseconds since the Unix epoch
}

// AudioObserver receives normalized audio from the capture engine. Calls
// arrive on the capture goroutine; implementations must return quickly and
// must not retain the samples slice past the call.
type AudioObserver interface {
	OnAudioData(samples []float32, frameCount int, format AudioFormat)
}

// MeterObserver receives derived meter snapshots from the engine fan-out.
// Calls arrive on the capture goroutine; implementations must not block.
type MeterObserver interface {
	OnMeterData(snapshot MeterSnapshot)
}

// CaptureSource is the device capture engine contract consumed by the audio
// engine facade. capture.Engine is the production implementation; tests
// substitute fakes.
type CaptureSource interface {
	// Initialize acquires the device session and negotiates the format.
	// It releases every partially acquired resource on failure.
	Initialize() error

	// Start begins capture. No-op if already capturing.
	Start() error

	// Stop signals the capture goroutine and blocks until it has exited.
	// No-op if not capturing.
	Stop()

	// Shutdown stops capture and releases the device session. Safe to call
	// repeatedly and without a prior successful Initialize.
	Shutdown()

	// RegisterCallback adds a raw-audio observer. A nil observer is a no-op.
	RegisterCallback(observer AudioObserver)

	// UnregisterCallback removes a raw-audio observer. Unknown observers
	// are a no-op.
	UnregisterCallback(observer AudioObserver)

	// GetFormat returns the negotiated format, zero before Initialize.
	GetFormat() AudioFormat

	// IsCapturing reports whether the capture goroutine is running.
	IsCapturing() bool
}
