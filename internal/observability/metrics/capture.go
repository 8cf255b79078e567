// Package metrics provides Prometheus metrics for the capture and metering
// pipeline. Counter increments are atomic and allocation-free, cheap enough
// to record from the capture goroutine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CaptureMetrics contains Prometheus metrics for capture pipeline operations
type CaptureMetrics struct {
	registry *prometheus.Registry

	// Capture loop metrics
	buffersProcessed   *prometheus.CounterVec
	framesDelivered    *prometheus.CounterVec
	packetsDropped     *prometheus.CounterVec
	silenceBuffers     *prometheus.CounterVec
	converterFallbacks *prometheus.CounterVec
	deviceRestarts     *prometheus.CounterVec

	// Meter readout gauges, updated by the display layer
	peakLevel *prometheus.GaugeVec
	rmsLevel  *prometheus.GaugeVec

	// collectors is a slice of all collectors for easier iteration
	collectors []prometheus.Collector
}

// NewCaptureMetrics creates and registers new capture metrics
func NewCaptureMetrics(registry *prometheus.Registry) (*CaptureMetrics, error) {
	m := &CaptureMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// initMetrics initializes all Prometheus metrics
func (m *CaptureMetrics) initMetrics() {
	m.buffersProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "openmeters_buffers_processed_total",
			Help: "Total number of audio buffers processed by the capture loop",
		},
		[]string{"session_id"},
	)

	m.framesDelivered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "openmeters_frames_delivered_total",
			Help: "Total number of audio frames delivered to observers",
		},
		[]string{"session_id"},
	)

	m.packetsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "openmeters_packets_dropped_total",
			Help: "Total number of capture packets dropped before processing",
		},
		[]string{"session_id", "reason"},
	)

	m.silenceBuffers = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "openmeters_silence_buffers_total",
			Help: "Total number of device buffers taken through the silence fast path",
		},
		[]string{"session_id"},
	)

	m.converterFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "openmeters_converter_fallbacks_total",
			Help: "Total number of buffers zero-filled due to an unsupported sample format",
		},
		[]string{"session_id"},
	)

	m.deviceRestarts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "openmeters_device_restarts_total",
			Help: "Total number of automatic device restart attempts",
		},
		[]string{"session_id", "status"},
	)

	m.peakLevel = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "openmeters_peak_level",
			Help: "Most recent peak level per channel, normalized to [0, 1]",
		},
		[]string{"channel"},
	)

	m.rmsLevel = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "openmeters_rms_level",
			Help: "Most recent RMS level per channel, normalized to [0, 1]",
		},
		[]string{"channel"},
	)

	m.collectors = []prometheus.Collector{
		m.buffersProcessed,
		m.framesDelivered,
		m.packetsDropped,
		m.silenceBuffers,
		m.converterFallbacks,
		m.deviceRestarts,
		m.peakLevel,
		m.rmsLevel,
	}
}

// Describe implements prometheus.Collector
func (m *CaptureMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.collectors {
		collector.Describe(ch)
	}
}

// Collect implements prometheus.Collector
func (m *CaptureMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.collectors {
		collector.Collect(ch)
	}
}

// RecordBufferProcessed increments the processed-buffer counter
func (m *CaptureMetrics) RecordBufferProcessed(sessionID string) {
	m.buffersProcessed.WithLabelValues(sessionID).Inc()
}

// RecordFramesDelivered adds to the delivered-frame counter
func (m *CaptureMetrics) RecordFramesDelivered(sessionID string, frames int) {
	m.framesDelivered.WithLabelValues(sessionID).Add(float64(frames))
}

// RecordPacketDropped increments the dropped-packet counter
func (m *CaptureMetrics) RecordPacketDropped(sessionID, reason string) {
	m.packetsDropped.WithLabelValues(sessionID, reason).Inc()
}

// RecordSilenceBuffer increments the silence fast-path counter
func (m *CaptureMetrics) RecordSilenceBuffer(sessionID string) {
	m.silenceBuffers.WithLabelValues(sessionID).Inc()
}

// RecordConverterFallback increments the unsupported-format counter
func (m *CaptureMetrics) RecordConverterFallback(sessionID string) {
	m.converterFallbacks.WithLabelValues(sessionID).Inc()
}

// RecordDeviceRestart increments the device-restart counter
func (m *CaptureMetrics) RecordDeviceRestart(sessionID, status string) {
	m.deviceRestarts.WithLabelValues(sessionID, status).Inc()
}

// UpdateMeterLevels publishes the most recent snapshot levels
func (m *CaptureMetrics) UpdateMeterLevels(peakLeft, peakRight, rmsLeft, rmsRight float64) {
	m.peakLevel.WithLabelValues("left").Set(peakLeft)
	m.peakLevel.WithLabelValues("right").Set(peakRight)
	m.rmsLevel.WithLabelValues("left").Set(rmsLeft)
	m.rmsLevel.WithLabelValues("right").Set(rmsRight)
}
