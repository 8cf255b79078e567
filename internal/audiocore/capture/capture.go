// Package capture owns the OS audio session and the real-time capture loop.
// It acquires the default output device in loopback mode, normalizes raw
// device buffers to float32, and fans them out to registered observers from
// a single dedicated goroutine.
package capture

import (
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gen2brain/malgo"
	"github.com/google/uuid"

	"github.com/openmeters/openmeters-go/internal/audiocore"
	"github.com/openmeters/openmeters-go/internal/errors"
	"github.com/openmeters/openmeters-go/internal/observability/metrics"
)

// restartDelay is the wait before attempting to restart a device that
// stopped on its own.
const restartDelay = 1 * time.Second

// Config contains configuration for the capture engine
type Config struct {
	Device     string // device name, empty or "default" for the default output
	Channels   int    // requested channel count, 1 or 2
	QueueDepth int    // packet queue depth between device callback and capture loop
}

// packet carries one raw device buffer from the malgo callback to the
// capture goroutine. buf points into the engine's pool.
type packet struct {
	buf    *[]byte
	frames int
}

// Engine is the device capture engine. It implements audiocore.CaptureSource.
type Engine struct {
	config    Config
	sessionID string
	logger    *slog.Logger
	metrics   *metrics.CaptureMetrics

	// Lifecycle state, serialized by mu
	mu          sync.Mutex
	malgoCtx    *malgo.AllocatedContext
	device      *malgo.Device
	format      audiocore.AudioFormat
	nativeType  malgo.FormatType
	initialized bool

	// Capture session state
	capturing atomic.Bool
	stopCh    chan struct{}
	doneCh    chan struct{}
	packets   chan packet
	pool      sync.Pool

	callbackMu sync.Mutex
	callbacks  []audiocore.AudioObserver

	// floatBuf is the reusable normalized buffer, owned exclusively by the
	// capture goroutine while capture runs.
	floatBuf []float32
}

// New creates a capture engine. metricsCollector may be nil to disable
// metrics recording.
func New(config Config, logger *slog.Logger, metricsCollector *metrics.CaptureMetrics) *Engine {
	if config.Channels == 0 {
		config.Channels = 2
	}
	if config.QueueDepth == 0 {
		config.QueueDepth = 16
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		config:  config,
		logger:  logger.With("component", "capture"),
		metrics: metricsCollector,
	}
}

// Initialize acquires the default output device in loopback mode and
// negotiates its native mix format. Every partially acquired resource is
// released before returning an error.
func (e *Engine) Initialize() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.initialized {
		return nil
	}

	if e.config.Channels < 1 || e.config.Channels > 2 {
		return errors.New(nil).
			Component(audiocore.ComponentAudioCore).
			Category(errors.CategoryValidation).
			Context("channels", e.config.Channels).
			Context("error", "channel count must be 1 or 2").
			Build()
	}

	e.sessionID = uuid.NewString()

	backend := e.backend()
	malgoCtx, err := malgo.InitContext([]malgo.Backend{backend}, malgo.ContextConfig{}, nil)
	if err != nil {
		return errors.New(err).
			Component(audiocore.ComponentAudioCore).
			Category(errors.CategoryDevice).
			Context("backend", runtime.GOOS).
			Context("operation", "init_context").
			Build()
	}

	deviceConfig := malgo.DefaultDeviceConfig(e.deviceType())
	deviceConfig.Capture.Channels = uint32(e.config.Channels)
	deviceConfig.Alsa.NoMMap = 1
	// Format and sample rate stay unset so the backend delivers the
	// device's native mix format.

	deviceCallbacks := malgo.DeviceCallbacks{
		Data: e.onDeviceData,
		Stop: e.onDeviceStop,
	}

	device, err := malgo.InitDevice(malgoCtx.Context, deviceConfig, deviceCallbacks)
	if err != nil {
		_ = malgoCtx.Uninit()
		return errors.New(err).
			Component(audiocore.ComponentAudioCore).
			Category(errors.CategoryDevice).
			Context("device", e.config.Device).
			Context("operation", "init_device").
			Build()
	}

	nativeType := device.CaptureFormat()
	if BytesPerSample(nativeType) == 0 || !supportedFormat(nativeType) {
		device.Uninit()
		_ = malgoCtx.Uninit()
		return errors.New(audiocore.ErrUnsupportedFormat).
			Component(audiocore.ComponentAudioCore).
			Category(errors.CategoryValidation).
			Context("native_format", FormatName(nativeType)).
			Build()
	}

	format := audiocore.AudioFormat{
		SampleRate: device.SampleRate(),
		Channels:   e.config.Channels,
	}
	if !format.Valid() {
		device.Uninit()
		_ = malgoCtx.Uninit()
		return errors.New(audiocore.ErrUnsupportedFormat).
			Component(audiocore.ComponentAudioCore).
			Category(errors.CategoryValidation).
			Context("sample_rate", format.SampleRate).
			Context("channels", format.Channels).
			Build()
	}

	bytesPerFrame := BytesPerSample(nativeType) * format.Channels
	e.pool = sync.Pool{
		New: func() any {
			// Typical miniaudio period is around 10 ms of frames
			buf := make([]byte, 0, bytesPerFrame*int(format.SampleRate)/100)
			return &buf
		},
	}

	e.malgoCtx = malgoCtx
	e.device = device
	e.format = format
	e.nativeType = nativeType
	e.initialized = true

	e.logger.Info("capture session initialized",
		"session_id", e.sessionID,
		"sample_rate", format.SampleRate,
		"channels", format.Channels,
		"native_format", FormatName(nativeType))

	return nil
}

// Start begins capture. It is idempotent: starting a capturing engine is a
// no-op. The device start is rolled back if the session cannot be spun up.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return errors.New(audiocore.ErrNotInitialized).
			Component(audiocore.ComponentAudioCore).
			Category(errors.CategoryState).
			Context("operation", "start").
			Build()
	}
	if e.capturing.Load() {
		return nil
	}

	e.stopCh = make(chan struct{})
	e.doneCh = make(chan struct{})
	e.packets = make(chan packet, e.config.QueueDepth)

	if err := e.device.Start(); err != nil {
		return errors.New(err).
			Component(audiocore.ComponentAudioCore).
			Category(errors.CategoryDevice).
			Context("operation", "start_device").
			Build()
	}

	e.capturing.Store(true)
	go e.run(e.stopCh, e.doneCh, e.packets)

	e.logger.Info("capture started", "session_id", e.sessionID)
	return nil
}

// Stop signals the capture goroutine, stops the device stream and blocks
// until the goroutine has fully exited. Idempotent.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
}

func (e *Engine) stopLocked() {
	if !e.capturing.CompareAndSwap(true, false) {
		return
	}

	close(e.stopCh)

	if e.device != nil {
		_ = e.device.Stop()
	}

	// Join the capture goroutine; no dangling deliveries after Stop returns
	<-e.doneCh

	e.logger.Info("capture stopped", "session_id", e.sessionID)
}

// Shutdown stops capture and releases the device session. Safe to call
// repeatedly and without a prior successful Initialize.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stopLocked()

	if e.device != nil {
		e.device.Uninit()
		e.device = nil
	}
	if e.malgoCtx != nil {
		_ = e.malgoCtx.Uninit()
		e.malgoCtx = nil
	}
	if e.initialized {
		e.initialized = false
		e.format = audiocore.AudioFormat{}
		e.logger.Info("capture session released", "session_id", e.sessionID)
	}
}

// RegisterCallback adds a raw-audio observer. Nil observers and duplicate
// registrations are no-ops.
func (e *Engine) RegisterCallback(observer audiocore.AudioObserver) {
	if observer == nil {
		return
	}

	e.callbackMu.Lock()
	defer e.callbackMu.Unlock()
	for _, cb := range e.callbacks {
		if cb == observer {
			return
		}
	}
	e.callbacks = append(e.callbacks, observer)
}

// UnregisterCallback removes a raw-audio observer. Unknown observers are a
// no-op. An observer removed mid-delivery stops receiving buffers from the
// next buffer onwards.
func (e *Engine) UnregisterCallback(observer audiocore.AudioObserver) {
	if observer == nil {
		return
	}

	e.callbackMu.Lock()
	defer e.callbackMu.Unlock()
	for i, cb := range e.callbacks {
		if cb == observer {
			e.callbacks = append(e.callbacks[:i], e.callbacks[i+1:]...)
			return
		}
	}
}

// GetFormat returns the negotiated format, zero before Initialize.
func (e *Engine) GetFormat() audiocore.AudioFormat {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.format
}

// IsCapturing reports whether the capture goroutine is running.
func (e *Engine) IsCapturing() bool {
	return e.capturing.Load()
}

// onDeviceData runs on the miniaudio device thread. It copies the raw
// buffer out of device-owned memory and hands it to the capture goroutine
// without ever blocking; a full queue drops the packet, a transient
// condition the loop absorbs.
func (e *Engine) onDeviceData(_, input []byte, frameCount uint32) {
	if !e.capturing.Load() || frameCount == 0 {
		return
	}

	bufPtr := e.pool.Get().(*[]byte)
	buf := append((*bufPtr)[:0], input...)
	*bufPtr = buf

	select {
	case e.packets <- packet{buf: bufPtr, frames: int(frameCount)}:
	default:
		e.pool.Put(bufPtr)
		if e.metrics != nil {
			e.metrics.RecordPacketDropped(e.sessionID, "queue_full")
		}
	}
}

// onDeviceStop runs when the device stream stops. Expected stops (our own
// Stop call) are ignored; an unexpected stop triggers a restart attempt
// after a short delay.
func (e *Engine) onDeviceStop() {
	if !e.capturing.Load() {
		return
	}

	e.logger.Warn("audio device stopped unexpectedly", "session_id", e.sessionID)

	go func() {
		time.Sleep(restartDelay)

		e.mu.Lock()
		defer e.mu.Unlock()
		if !e.capturing.Load() || e.device == nil {
			return
		}

		status := "ok"
		if err := e.device.Start(); err != nil {
			status = "failed"
			e.logger.Error("device restart failed",
				"session_id", e.sessionID,
				"error", err)
		}
		if e.metrics != nil {
			e.metrics.RecordDeviceRestart(e.sessionID, status)
		}
	}()
}

// run is the capture loop. It executes on a dedicated OS thread and blocks
// only on the stop signal or the next packet, so cancellation latency is
// bounded by the in-flight delivery.
func (e *Engine) run(stopCh <-chan struct{}, doneCh chan<- struct{}, packets <-chan packet) {
	defer close(doneCh)

	// The loop performs all per-buffer processing; pinning it keeps
	// delivery on one OS thread for the lifetime of the session.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	for {
		select {
		case <-stopCh:
			return
		case pkt := <-packets:
			e.process(pkt)
		}
	}
}

// process converts one raw buffer and fans it out to every registered
// observer, in registration order, before the next buffer is touched.
func (e *Engine) process(pkt packet) {
	raw := *pkt.buf
	totalSamples := pkt.frames * e.format.Channels

	if isSilent(raw) {
		// Numerically equivalent fast path: skip conversion entirely
		e.floatBuf = ensureLen(e.floatBuf, totalSamples)
		zeroFill(e.floatBuf)
		if e.metrics != nil {
			e.metrics.RecordSilenceBuffer(e.sessionID)
		}
	} else {
		var ok bool
		e.floatBuf, ok = ConvertToFloat32(raw, pkt.frames, e.format.Channels, e.nativeType, e.floatBuf)
		if !ok && e.metrics != nil {
			e.metrics.RecordConverterFallback(e.sessionID)
		}
	}

	// The raw buffer is done with; return it to the pool exactly once
	e.pool.Put(pkt.buf)

	e.callbackMu.Lock()
	for _, cb := range e.callbacks {
		cb.OnAudioData(e.floatBuf, pkt.frames, e.format)
	}
	e.callbackMu.Unlock()

	if e.metrics != nil {
		e.metrics.RecordBufferProcessed(e.sessionID)
		e.metrics.RecordFramesDelivered(e.sessionID, pkt.frames)
	}
}

// backend returns the miniaudio backend for the current platform.
func (e *Engine) backend() malgo.Backend {
	switch runtime.GOOS {
	case "windows":
		return malgo.BackendWasapi
	case "linux":
		return malgo.BackendAlsa
	case "darwin":
		return malgo.BackendCoreaudio
	default:
		return malgo.BackendNull
	}
}

// deviceType selects loopback capture where the backend supports it
// natively (WASAPI). Elsewhere the default capture device is used; on
// PulseAudio systems that device can be a monitor source, which yields the
// same system-audio stream.
func (e *Engine) deviceType() malgo.DeviceType {
	if runtime.GOOS == "windows" {
		return malgo.Loopback
	}
	return malgo.Capture
}

// supportedFormat reports whether the pipeline can normalize the format.
// Other formats degrade to silence per buffer, but a session is only opened
// on formats the converter handles.
func supportedFormat(format malgo.FormatType) bool {
	switch format {
	case malgo.FormatS16, malgo.FormatS32, malgo.FormatF32:
		return true
	default:
		return false
	}
}
