package capture

import (
	"encoding/binary"
	"math"

	"github.com/gen2brain/malgo"
)

// Scale factors for integer PCM normalization. Full-scale negative input
// maps to exactly -1.0.
const (
	scaleS16 = 1.0 / 32768.0
	scaleS32 = 1.0 / 2147483648.0
)

// ConvertToFloat32 converts an interleaved raw device buffer into normalized
// float32 samples in [-1, 1], preserving frame-major channel order. dst is
// reused when large enough. The returned bool is false when the source
// format is unsupported, in which case the output is zero-filled: the
// pipeline degrades to silence instead of failing the session.
func ConvertToFloat32(raw []byte, frameCount, channels int, sourceFormat malgo.FormatType, dst []float32) ([]float32, bool) {
	totalSamples := frameCount * channels
	dst = ensureLen(dst, totalSamples)
	if totalSamples == 0 {
		return dst, true
	}

	switch sourceFormat {
	case malgo.FormatF32:
		// Already float32, byte-reinterpreted copy
		if len(raw) < totalSamples*4 {
			zeroFill(dst)
			return dst, false
		}
		for i := range totalSamples {
			bits := binary.LittleEndian.Uint32(raw[i*4 : i*4+4])
			dst[i] = math.Float32frombits(bits)
		}
		return dst, true

	case malgo.FormatS16:
		if len(raw) < totalSamples*2 {
			zeroFill(dst)
			return dst, false
		}
		for i := range totalSamples {
			sample := int16(binary.LittleEndian.Uint16(raw[i*2 : i*2+2]))
			dst[i] = float32(float64(sample) * scaleS16)
		}
		return dst, true

	case malgo.FormatS32:
		if len(raw) < totalSamples*4 {
			zeroFill(dst)
			return dst, false
		}
		for i := range totalSamples {
			sample := int32(binary.LittleEndian.Uint32(raw[i*4 : i*4+4]))
			dst[i] = float32(float64(sample) * scaleS32)
		}
		return dst, true

	default:
		// Unsupported bit depth or tag: defined degraded behavior
		zeroFill(dst)
		return dst, false
	}
}

// BytesPerSample returns the sample width of a device format, 0 if unknown.
func BytesPerSample(format malgo.FormatType) int {
	switch format {
	case malgo.FormatU8:
		return 1
	case malgo.FormatS16:
		return 2
	case malgo.FormatS24:
		return 3
	case malgo.FormatS32, malgo.FormatF32:
		return 4
	default:
		return 0
	}
}

// FormatName returns a short human-readable name for a device format.
func FormatName(format malgo.FormatType) string {
	switch format {
	case malgo.FormatU8:
		return "U8"
	case malgo.FormatS16:
		return "S16"
	case malgo.FormatS24:
		return "S24"
	case malgo.FormatS32:
		return "S32"
	case malgo.FormatF32:
		return "F32"
	default:
		return "unknown"
	}
}

// isSilent reports whether every byte of the raw device buffer is zero.
// Zero bytes decode to exactly 0.0 in every supported sample format, so the
// caller may skip conversion and zero-fill directly.
func isSilent(raw []byte) bool {
	for _, b := range raw {
		if b != 0 {
			return false
		}
	}
	return true
}

// ensureLen returns buf resized to n, reallocating only when capacity is
// insufficient.
func ensureLen(buf []float32, n int) []float32 {
	if cap(buf) < n {
		return make([]float32, n)
	}
	return buf[:n]
}

func zeroFill(buf []float32) {
	for i := range buf {
		buf[i] = 0
	}
}
