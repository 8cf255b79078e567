package audiocore

import (
	"github.com/openmeters/openmeters-go/internal/errors"
)

// Component identifier for audiocore errors
const ComponentAudioCore = "audiocore"

// Error categories specific to the capture and metering pipeline
var (
	// ErrDeviceUnavailable is returned when no default output device can be
	// acquired or activation fails
	ErrDeviceUnavailable = errors.New(nil).
				Component(ComponentAudioCore).
				Category(errors.CategoryDevice).
				Context("error", "audio device unavailable").
				Build()

	// ErrUnsupportedFormat is returned when the negotiated device format is
	// not PCM/float or violates the channel-count invariant
	ErrUnsupportedFormat = errors.New(nil).
				Component(ComponentAudioCore).
				Category(errors.CategoryValidation).
				Context("error", "unsupported audio format").
				Build()

	// ErrNotInitialized is returned when an operation requires a prior
	// successful Initialize
	ErrNotInitialized = errors.New(nil).
				Component(ComponentAudioCore).
				Category(errors.CategoryState).
				Context("error", "engine not initialized").
				Build()

	// ErrEngineShutdown is returned when an operation is attempted on an
	// engine that has been shut down
	ErrEngineShutdown = errors.New(nil).
				Component(ComponentAudioCore).
				Category(errors.CategoryState).
				Context("error", "engine has been shut down").
				Build()
)
