package comms

import (
	"io"
	"sync"
	"time"
)

// bandwidthWindow is the sliding window Rate averages over.
const bandwidthWindow = time.Second

// BandwidthTracker accumulates byte counts and reports a sliding-window
// rate, the way a viewer's bandwidth panel wants it.
type BandwidthTracker struct {
	mu      sync.Mutex
	now     func() time.Time
	samples []bandwidthSample
	total   uint64
}

type bandwidthSample struct {
	at time.Time
	n  int
}

func NewBandwidthTracker() *BandwidthTracker {
	return &BandwidthTracker{now: time.Now}
}

// Add records n transferred bytes.
func (t *BandwidthTracker) Add(n int) {
	if n <= 0 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.total += uint64(n)
	t.samples = append(t.samples, bandwidthSample{at: t.now(), n: n})
	t.dropOld(t.now())
}

// Rate returns the bytes per second transferred over the last window.
func (t *BandwidthTracker) Rate() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.dropOld(t.now())

	var sum int
	for _, s := range t.samples {
		sum += s.n
	}
	return float64(sum) / bandwidthWindow.Seconds()
}

// Total returns the total bytes transferred.
func (t *BandwidthTracker) Total() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total
}

func (t *BandwidthTracker) dropOld(now time.Time) {
	cutoff := now.Add(-bandwidthWindow)

	drop := 0
	for drop < len(t.samples) && t.samples[drop].at.Before(cutoff) {
		drop++
	}
	if drop > 0 {
		t.samples = append(t.samples[:0], t.samples[drop:]...)
	}
}

// countingWriter forwards writes to an underlying writer and feeds the byte
// counts to a tracker.
type countingWriter struct {
	w     io.Writer
	track *BandwidthTracker
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.track.Add(n)
	return n, err
}
