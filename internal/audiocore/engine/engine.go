// Package engine composes the device capture engine and the metering
// adapter into the audio engine facade consumed by applications. It owns
// the session state machine and the external meter-observer fan-out.
package engine

import (
	"log/slog"
	"sync"

	"github.com/openmeters/openmeters-go/internal/audiocore"
	"github.com/openmeters/openmeters-go/internal/audiocore/capture"
	"github.com/openmeters/openmeters-go/internal/conf"
	"github.com/openmeters/openmeters-go/internal/errors"
	"github.com/openmeters/openmeters-go/internal/observability/metrics"
)

// State is the lifecycle state of the audio engine.
type State int

const (
	StateUninitialized State = iota
	StateInitialized
	StateCapturing
	StateStopped
	StateShutdown
)

// String returns the state name for logs.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitialized:
		return "initialized"
	case StateCapturing:
		return "capturing"
	case StateStopped:
		return "stopped"
	case StateShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// Config contains facade-level configuration.
type Config struct {
	MirrorMono bool // report a mono source's level on both meter channels
}

// AudioEngine is the public facade over the capture and metering pipeline.
// All methods are safe for concurrent use from caller goroutines; meter
// deliveries arrive on the capture goroutine.
type AudioEngine struct {
	source  audiocore.CaptureSource
	adapter *meteringAdapter
	logger  *slog.Logger

	stateMu sync.Mutex
	state   State

	observerMu sync.Mutex
	observers  []audiocore.MeterObserver
}

// New creates an audio engine over the given capture source.
func New(source audiocore.CaptureSource, config Config, logger *slog.Logger) *AudioEngine {
	if logger == nil {
		logger = slog.Default()
	}

	e := &AudioEngine{
		source: source,
		logger: logger.With("component", "engine"),
		state:  StateUninitialized,
	}
	e.adapter = newMeteringAdapter(e, config.MirrorMono)
	return e
}

// NewFromSettings creates an audio engine wired to a real device capture
// engine. metricsCollector may be nil.
func NewFromSettings(settings *conf.Settings, logger *slog.Logger, metricsCollector *metrics.CaptureMetrics) *AudioEngine {
	source := capture.New(capture.Config{
		Device:     settings.Audio.Device,
		QueueDepth: settings.Audio.QueueDepth,
	}, logger, metricsCollector)

	return New(source, Config{MirrorMono: settings.Audio.MirrorMono}, logger)
}

// Initialize acquires the device session and registers the metering adapter
// as the engine's sole internal raw-audio observer. Idempotent once
// initialized; fails after Shutdown.
func (e *AudioEngine) Initialize() error {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()

	switch e.state {
	case StateShutdown:
		return errors.New(audiocore.ErrEngineShutdown).
			Component(audiocore.ComponentAudioCore).
			Category(errors.CategoryState).
			Context("operation", "initialize").
			Build()
	case StateUninitialized:
		// proceed
	default:
		return nil
	}

	if err := e.source.Initialize(); err != nil {
		return err
	}

	e.source.RegisterCallback(e.adapter)
	e.state = StateInitialized

	format := e.source.GetFormat()
	e.logger.Info("audio engine initialized",
		"sample_rate", format.SampleRate,
		"channels", format.Channels)
	return nil
}

// Start begins capture. No-op while capturing; restartable after Stop.
func (e *AudioEngine) Start() error {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()

	switch e.state {
	case StateCapturing:
		return nil
	case StateInitialized, StateStopped:
		// proceed
	case StateShutdown:
		return errors.New(audiocore.ErrEngineShutdown).
			Component(audiocore.ComponentAudioCore).
			Category(errors.CategoryState).
			Context("operation", "start").
			Build()
	default:
		return errors.New(audiocore.ErrNotInitialized).
			Component(audiocore.ComponentAudioCore).
			Category(errors.CategoryState).
			Context("operation", "start").
			Build()
	}

	if err := e.source.Start(); err != nil {
		return err
	}

	e.state = StateCapturing
	return nil
}

// Stop halts capture, blocking until the capture goroutine has exited.
// No-op unless capturing.
func (e *AudioEngine) Stop() {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()

	if e.state != StateCapturing {
		return
	}

	e.source.Stop()
	e.state = StateStopped
}

// Shutdown stops capture, unregisters the internal adapter, clears every
// external registration and releases the device session. Terminal; safe to
// call repeatedly and without a prior Initialize.
func (e *AudioEngine) Shutdown() {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()

	if e.state == StateShutdown {
		return
	}

	if e.state == StateCapturing {
		e.source.Stop()
	}

	e.source.UnregisterCallback(e.adapter)

	e.observerMu.Lock()
	e.observers = nil
	e.observerMu.Unlock()

	e.source.Shutdown()
	e.state = StateShutdown
	e.logger.Info("audio engine shut down")
}

// RegisterCallback adds an external meter observer. Nil observers and
// duplicate registrations are no-ops.
func (e *AudioEngine) RegisterCallback(observer audiocore.MeterObserver) {
	if observer == nil {
		return
	}

	e.observerMu.Lock()
	defer e.observerMu.Unlock()
	for _, o := range e.observers {
		if o == observer {
			return
		}
	}
	e.observers = append(e.observers, observer)
}

// UnregisterCallback removes an external meter observer. Unknown observers
// are a no-op.
func (e *AudioEngine) UnregisterCallback(observer audiocore.MeterObserver) {
	if observer == nil {
		return
	}

	e.observerMu.Lock()
	defer e.observerMu.Unlock()
	for i, o := range e.observers {
		if o == observer {
			e.observers = append(e.observers[:i], e.observers[i+1:]...)
			return
		}
	}
}

// RegisterAudioObserver registers a raw-audio observer directly on the
// capture engine, for consumers like WAV export that need the normalized
// stream itself. Raw audio still never travels the snapshot path.
func (e *AudioEngine) RegisterAudioObserver(observer audiocore.AudioObserver) {
	e.source.RegisterCallback(observer)
}

// UnregisterAudioObserver removes a raw-audio observer.
func (e *AudioEngine) UnregisterAudioObserver(observer audiocore.AudioObserver) {
	e.source.UnregisterCallback(observer)
}

// GetFormat returns the negotiated capture format.
func (e *AudioEngine) GetFormat() audiocore.AudioFormat {
	return e.source.GetFormat()
}

// IsCapturing reports whether the engine is capturing.
func (e *AudioEngine) IsCapturing() bool {
	return e.source.IsCapturing()
}

// State returns the current lifecycle state.
func (e *AudioEngine) State() State {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	return e.state
}

// forwardMeterData delivers one snapshot to every registered observer in
// registration order. Runs on the capture goroutine; observers must not
// block.
func (e *AudioEngine) forwardMeterData(snapshot audiocore.MeterSnapshot) {
	e.observerMu.Lock()
	defer e.observerMu.Unlock()
	for _, o := range e.observers {
		o.OnMeterData(snapshot)
	}
}
