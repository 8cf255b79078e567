package realtime

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/openmeters/openmeters-go/internal/audiocore"
	"github.com/openmeters/openmeters-go/internal/audiocore/meters"
	"github.com/openmeters/openmeters-go/internal/observability/metrics"
)

const (
	barWidth               = 30
	defaultRefreshInterval = 50 * time.Millisecond
)

// consoleMeter renders peak and RMS levels as an in-place text display.
// It implements audiocore.MeterObserver; deliveries arrive on the capture
// goroutine so rendering is throttled and kept allocation-light.
type consoleMeter struct {
	w        io.Writer
	metrics  *metrics.CaptureMetrics
	interval time.Duration

	mu       sync.Mutex
	lastDraw time.Time
	done     bool
}

func newConsoleMeter(w io.Writer, captureMetrics *metrics.CaptureMetrics, interval time.Duration) *consoleMeter {
	if interval <= 0 {
		interval = defaultRefreshInterval
	}
	return &consoleMeter{w: w, metrics: captureMetrics, interval: interval}
}

// OnMeterData implements audiocore.MeterObserver.
func (c *consoleMeter) OnMeterData(snapshot audiocore.MeterSnapshot) {
	if c.metrics != nil {
		c.metrics.UpdateMeterLevels(
			snapshot.Peak.Left, snapshot.Peak.Right,
			snapshot.RMS.Left, snapshot.RMS.Right)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done {
		return
	}
	now := time.Now()
	if now.Sub(c.lastDraw) < c.interval {
		return
	}
	c.lastDraw = now

	fmt.Fprintf(c.w, "\rL %s %6.1f dB  R %s %6.1f dB",
		levelBar(snapshot.Peak.Left, snapshot.RMS.Left),
		meters.LevelToDB(snapshot.Peak.Left),
		levelBar(snapshot.Peak.Right, snapshot.RMS.Right),
		meters.LevelToDB(snapshot.Peak.Right))
}

// finish terminates the in-place display line. Further snapshots are
// ignored after this.
func (c *consoleMeter) finish() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done {
		return
	}
	c.done = true
	fmt.Fprintln(c.w)
}

// levelBar renders a dB-scaled bar. RMS fills solid, the peak position is
// marked past the RMS fill.
func levelBar(peak, rms float64) string {
	peakPos := dbPosition(peak)
	rmsPos := dbPosition(rms)

	var b strings.Builder
	b.Grow(barWidth + 2)
	b.WriteByte('[')
	for i := 0; i < barWidth; i++ {
		switch {
		case i < rmsPos:
			b.WriteByte('#')
		case i == peakPos && peakPos >= rmsPos:
			b.WriteByte('|')
		default:
			b.WriteByte('-')
		}
	}
	b.WriteByte(']')
	return b.String()
}

// dbPosition maps a normalized level to a bar cell on the dB scale
// [MinDB, 0].
func dbPosition(level float64) int {
	db := meters.LevelToDB(level)
	if db <= meters.MinDB {
		return -1
	}
	pos := int((db - meters.MinDB) / -meters.MinDB * float64(barWidth))
	if pos >= barWidth {
		pos = barWidth - 1
	}
	return pos
}
