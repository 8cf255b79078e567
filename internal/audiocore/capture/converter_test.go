package capture

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/gen2brain/malgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func s16Bytes(samples ...int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return buf
}

func s32Bytes(samples ...int32) []byte {
	buf := make([]byte, len(samples)*4)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(buf[i*4:], uint32(s))
	}
	return buf
}

func f32Bytes(samples ...float32) []byte {
	buf := make([]byte, len(samples)*4)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(s))
	}
	return buf
}

func TestConvertS16(t *testing.T) {
	t.Parallel()

	raw := s16Bytes(32767, -32768, 0, 16384)
	out, ok := ConvertToFloat32(raw, 4, 1, malgo.FormatS16, nil)

	require.True(t, ok)
	require.Len(t, out, 4)
	assert.InDelta(t, 32767.0/32768.0, out[0], 1e-7, "positive full scale is just below 1.0")
	assert.Equal(t, float32(-1.0), out[1], "negative full scale maps to -1.0 exactly")
	assert.Equal(t, float32(0), out[2])
	assert.InDelta(t, 0.5, out[3], 1e-7)
}

func TestConvertS32(t *testing.T) {
	t.Parallel()

	raw := s32Bytes(math.MaxInt32, math.MinInt32, 0, 1<<30)
	out, ok := ConvertToFloat32(raw, 4, 1, malgo.FormatS32, nil)

	require.True(t, ok)
	require.Len(t, out, 4)
	assert.InDelta(t, 1.0, out[0], 1e-6)
	assert.Equal(t, float32(-1.0), out[1])
	assert.Equal(t, float32(0), out[2])
	assert.InDelta(t, 0.5, out[3], 1e-7)
}

func TestConvertF32IsByteExact(t *testing.T) {
	t.Parallel()

	src := []float32{0.25, -0.75, 1.0, -1.0}
	out, ok := ConvertToFloat32(f32Bytes(src...), 2, 2, malgo.FormatF32, nil)

	require.True(t, ok)
	assert.Equal(t, src, out, "float32 input is copied without scaling")
}

func TestConvertPreservesInterleaving(t *testing.T) {
	t.Parallel()

	// Stereo frames: (L=1000, R=-1000), (L=2000, R=-2000)
	raw := s16Bytes(1000, -1000, 2000, -2000)
	out, ok := ConvertToFloat32(raw, 2, 2, malgo.FormatS16, nil)

	require.True(t, ok)
	require.Len(t, out, 4)
	assert.Positive(t, out[0])
	assert.Negative(t, out[1])
	assert.Positive(t, out[2])
	assert.Negative(t, out[3])
}

func TestConvertUnsupportedFormatZeroFills(t *testing.T) {
	t.Parallel()

	// Pre-fill dst to prove it really gets cleared
	dst := []float32{9, 9, 9, 9}
	out, ok := ConvertToFloat32([]byte{1, 2, 3, 4, 5, 6}, 2, 1, malgo.FormatS24, dst)

	assert.False(t, ok)
	require.Len(t, out, 2)
	assert.Equal(t, []float32{0, 0}, out)
}

func TestConvertShortBufferZeroFills(t *testing.T) {
	t.Parallel()

	out, ok := ConvertToFloat32(s16Bytes(100), 4, 1, malgo.FormatS16, nil)

	assert.False(t, ok)
	assert.Equal(t, []float32{0, 0, 0, 0}, out)
}

func TestConvertZeroFrames(t *testing.T) {
	t.Parallel()

	out, ok := ConvertToFloat32(nil, 0, 2, malgo.FormatF32, nil)
	assert.True(t, ok)
	assert.Empty(t, out)
}

func TestConvertReusesDestination(t *testing.T) {
	t.Parallel()

	dst := make([]float32, 0, 16)
	out, ok := ConvertToFloat32(s16Bytes(1, 2, 3), 3, 1, malgo.FormatS16, dst)

	require.True(t, ok)
	assert.Len(t, out, 3)
	assert.Equal(t, 16, cap(out), "capacity-sufficient destination is reused")
}

func TestIsSilent(t *testing.T) {
	t.Parallel()

	assert.True(t, isSilent(nil))
	assert.True(t, isSilent(make([]byte, 128)))
	buf := make([]byte, 128)
	buf[127] = 1
	assert.False(t, isSilent(buf))
}

func TestBytesPerSample(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 2, BytesPerSample(malgo.FormatS16))
	assert.Equal(t, 4, BytesPerSample(malgo.FormatS32))
	assert.Equal(t, 4, BytesPerSample(malgo.FormatF32))
	assert.Equal(t, 3, BytesPerSample(malgo.FormatS24))
	assert.Equal(t, 0, BytesPerSample(malgo.FormatUnknown))
}
