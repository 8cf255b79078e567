package capture

import (
	"testing"

	"github.com/gen2brain/malgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmeters/openmeters-go/internal/audiocore"
)

// recordingObserver captures every delivery for assertions.
type recordingObserver struct {
	buffers    [][]float32
	frameCount []int
}

func (r *recordingObserver) OnAudioData(samples []float32, frameCount int, _ audiocore.AudioFormat) {
	// Copy: the slice is only valid for the duration of the call
	buf := make([]float32, len(samples))
	copy(buf, samples)
	r.buffers = append(r.buffers, buf)
	r.frameCount = append(r.frameCount, frameCount)
}

// testEngine builds an engine with session state primed for white-box
// delivery tests, without touching real hardware.
func testEngine(channels int, native malgo.FormatType) *Engine {
	e := New(Config{Channels: channels}, nil, nil)
	e.format = audiocore.AudioFormat{SampleRate: 48000, Channels: channels}
	e.nativeType = native
	return e
}

func TestRegisterCallbackIdempotent(t *testing.T) {
	t.Parallel()

	e := New(Config{}, nil, nil)
	obs := &recordingObserver{}

	e.RegisterCallback(nil)
	assert.Empty(t, e.callbacks, "nil observer is a no-op")

	e.RegisterCallback(obs)
	e.RegisterCallback(obs)
	assert.Len(t, e.callbacks, 1, "duplicate registration is a no-op")
}

func TestUnregisterCallbackUnknownIsNoop(t *testing.T) {
	t.Parallel()

	e := New(Config{}, nil, nil)
	a := &recordingObserver{}
	b := &recordingObserver{}

	e.RegisterCallback(a)
	e.UnregisterCallback(b)
	e.UnregisterCallback(nil)
	assert.Len(t, e.callbacks, 1)

	e.UnregisterCallback(a)
	assert.Empty(t, e.callbacks)
	e.UnregisterCallback(a)
	assert.Empty(t, e.callbacks, "double unregister is a no-op")
}

func TestProcessFansOutInRegistrationOrder(t *testing.T) {
	t.Parallel()

	e := testEngine(1, malgo.FormatS16)

	var order []string
	first := &taggedObserver{tag: "a", order: &order}
	second := &taggedObserver{tag: "b", order: &order}
	e.RegisterCallback(first)
	e.RegisterCallback(second)

	raw := s16Bytes(100, 200, 300)
	for range 3 {
		buf := append([]byte(nil), raw...)
		e.process(packet{buf: &buf, frames: 3})
	}

	require.Len(t, order, 6)
	assert.Equal(t, []string{"a", "b", "a", "b", "a", "b"}, order,
		"every buffer reaches all observers in registration order before the next buffer")
}

// taggedObserver appends its tag to a shared order log on every delivery.
type taggedObserver struct {
	tag   string
	order *[]string
}

func (o *taggedObserver) OnAudioData([]float32, int, audiocore.AudioFormat) {
	*o.order = append(*o.order, o.tag)
}

func TestProcessConvertsAndDelivers(t *testing.T) {
	t.Parallel()

	e := testEngine(2, malgo.FormatS16)
	obs := &recordingObserver{}
	e.RegisterCallback(obs)

	buf := s16Bytes(16384, -16384, 0, 32767)
	e.process(packet{buf: &buf, frames: 2})

	require.Len(t, obs.buffers, 1)
	require.Len(t, obs.buffers[0], 4)
	assert.Equal(t, 2, obs.frameCount[0])
	assert.InDelta(t, 0.5, obs.buffers[0][0], 1e-6)
	assert.InDelta(t, -0.5, obs.buffers[0][1], 1e-6)
}

func TestProcessSilenceFastPath(t *testing.T) {
	t.Parallel()

	e := testEngine(1, malgo.FormatS16)
	obs := &recordingObserver{}
	e.RegisterCallback(obs)

	// Leave stale values in the reusable buffer to prove zero-filling
	e.floatBuf = []float32{0.7, 0.7, 0.7, 0.7}

	buf := make([]byte, 8) // all-zero device buffer
	e.process(packet{buf: &buf, frames: 4})

	require.Len(t, obs.buffers, 1)
	assert.Equal(t, []float32{0, 0, 0, 0}, obs.buffers[0])
}

func TestProcessUnsupportedNativeFormatDegradesToSilence(t *testing.T) {
	t.Parallel()

	e := testEngine(1, malgo.FormatS24)
	obs := &recordingObserver{}
	e.RegisterCallback(obs)

	buf := []byte{1, 2, 3, 4, 5, 6}
	e.process(packet{buf: &buf, frames: 2})

	require.Len(t, obs.buffers, 1)
	assert.Equal(t, []float32{0, 0}, obs.buffers[0], "unsupported bit depth delivers silence, not a failure")
}

func TestObserverRemovedMidStreamStopsReceiving(t *testing.T) {
	t.Parallel()

	e := testEngine(1, malgo.FormatS16)
	a := &recordingObserver{}
	b := &recordingObserver{}
	e.RegisterCallback(a)
	e.RegisterCallback(b)

	raw := s16Bytes(1, 2)
	buf1 := append([]byte(nil), raw...)
	e.process(packet{buf: &buf1, frames: 2})

	e.UnregisterCallback(a)

	buf2 := append([]byte(nil), raw...)
	e.process(packet{buf: &buf2, frames: 2})

	assert.Len(t, a.buffers, 1)
	assert.Len(t, b.buffers, 2)
}

func TestStartWithoutInitializeFails(t *testing.T) {
	t.Parallel()

	e := New(Config{}, nil, nil)
	err := e.Start()
	require.Error(t, err)
	assert.ErrorIs(t, err, audiocore.ErrNotInitialized)
}

func TestStopWithoutStartIsNoop(t *testing.T) {
	t.Parallel()

	e := New(Config{}, nil, nil)
	e.Stop()
	e.Stop()
	assert.False(t, e.IsCapturing())
}

func TestShutdownWithoutInitializeIsSafe(t *testing.T) {
	t.Parallel()

	e := New(Config{}, nil, nil)
	e.Shutdown()
	e.Shutdown()
	assert.False(t, e.IsCapturing())
	assert.Equal(t, audiocore.AudioFormat{}, e.GetFormat())
}

func TestInitializeRejectsInvalidChannelCount(t *testing.T) {
	t.Parallel()

	e := New(Config{Channels: 6}, nil, nil)
	// Channel validation fails before any device resource is acquired
	err := e.Initialize()
	require.Error(t, err)
	assert.Nil(t, e.device)
	assert.Nil(t, e.malgoCtx)
}

func TestSupportedFormat(t *testing.T) {
	t.Parallel()

	assert.True(t, supportedFormat(malgo.FormatS16))
	assert.True(t, supportedFormat(malgo.FormatS32))
	assert.True(t, supportedFormat(malgo.FormatF32))
	assert.False(t, supportedFormat(malgo.FormatS24))
	assert.False(t, supportedFormat(malgo.FormatU8))
	assert.False(t, supportedFormat(malgo.FormatUnknown))
}
