// Package export records the normalized capture stream to WAV files. The
// recorder is a raw-audio observer: deliveries arrive on the capture
// goroutine, so encoding happens on a separate writer goroutine fed through
// a bounded queue that is never blocked on.
package export

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/openmeters/openmeters-go/internal/audiocore"
	"github.com/openmeters/openmeters-go/internal/errors"
)

const (
	wavBitDepth    = 16
	wavAudioFormat = 1 // PCM
	queueDepth     = 64
)

// WavRecorder writes the normalized float stream to a 16-bit PCM WAV file.
type WavRecorder struct {
	file    *os.File
	encoder *wav.Encoder
	format  audiocore.AudioFormat
	logger  *slog.Logger

	queue  chan []int
	done   chan struct{}
	closed sync.Once

	mu       sync.Mutex
	writeErr error
	dropped  int
}

// NewWavRecorder creates a recorder writing a timestamped file under dir.
func NewWavRecorder(dir string, format audiocore.AudioFormat, logger *slog.Logger) (*WavRecorder, error) {
	if !format.Valid() {
		return nil, errors.New(audiocore.ErrUnsupportedFormat).
			Component("export").
			Category(errors.CategoryValidation).
			Context("channels", format.Channels).
			Build()
	}
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.New(err).
			Component("export").
			Category(errors.CategoryFileIO).
			Context("path", dir).
			Build()
	}

	name := fmt.Sprintf("capture_%s.wav", time.Now().Format("20060102_150405"))
	path := filepath.Join(dir, name)
	file, err := os.Create(path)
	if err != nil {
		return nil, errors.New(err).
			Component("export").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}

	r := &WavRecorder{
		file: file,
		encoder: wav.NewEncoder(file,
			int(format.SampleRate), wavBitDepth, format.Channels, wavAudioFormat),
		format: format,
		logger: logger.With("component", "wav_recorder", "path", path),
		queue:  make(chan []int, queueDepth),
		done:   make(chan struct{}),
	}

	go r.writeLoop()

	r.logger.Info("wav recording started",
		"sample_rate", format.SampleRate,
		"channels", format.Channels)
	return r, nil
}

// Path returns the output file path.
func (r *WavRecorder) Path() string {
	return r.file.Name()
}

// OnAudioData implements audiocore.AudioObserver. It copies and quantizes
// the borrowed buffer, then hands it to the writer goroutine without
// blocking; a full queue drops the chunk.
func (r *WavRecorder) OnAudioData(samples []float32, frameCount int, format audiocore.AudioFormat) {
	if frameCount == 0 || format.Channels != r.format.Channels {
		return
	}

	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = quantize16(s)
	}

	select {
	case r.queue <- data:
	default:
		r.mu.Lock()
		r.dropped++
		r.mu.Unlock()
	}
}

// Close drains the queue, finalizes the WAV header and closes the file.
// Safe to call multiple times.
func (r *WavRecorder) Close() error {
	var err error
	r.closed.Do(func() {
		close(r.queue)
		<-r.done

		encErr := r.encoder.Close()
		fileErr := r.file.Close()

		r.mu.Lock()
		dropped := r.dropped
		writeErr := r.writeErr
		r.mu.Unlock()

		if dropped > 0 {
			r.logger.Warn("dropped audio chunks during recording", "count", dropped)
		}

		err = errors.Join(writeErr, encErr, fileErr)
		if err == nil {
			r.logger.Info("wav recording finished")
		}
	})
	return err
}

// writeLoop encodes queued chunks until the queue closes.
func (r *WavRecorder) writeLoop() {
	defer close(r.done)

	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: r.format.Channels,
			SampleRate:  int(r.format.SampleRate),
		},
		SourceBitDepth: wavBitDepth,
	}

	for data := range r.queue {
		buf.Data = data
		if err := r.encoder.Write(buf); err != nil {
			r.mu.Lock()
			if r.writeErr == nil {
				r.writeErr = err
			}
			r.mu.Unlock()
			return
		}
	}
}

// quantize16 maps a normalized float sample to the int16 range, clamping
// out-of-range input.
func quantize16(s float32) int {
	v := int(float64(s) * 32767.0)
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return v
}
