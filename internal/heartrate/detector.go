// Package heartrate extracts beats-per-minute from a raw
// photoplethysmography sample stream using an adaptive local-minimum
// threshold over sample-to-sample deltas.
package heartrate

import (
	"sync"
	"sync/atomic"
	"time"
)

const (
	ringSize = 8
	avgSize  = 10

	initialThreshold = -20

	// A physiologically plausible beat shows up as a dip of this depth
	// in the delta stream.
	minDip = -2000
	maxDip = -20

	// Without a beat for this long the detector returns to baseline.
	resetAfterMs = 3000

	DefaultSampleInterval = 50 * time.Millisecond
)

// Detector is the streaming peak detector. One new sample is expected
// roughly every sample interval; the published average is readable
// concurrently and never blocks.
type Detector struct {
	intervalMs int

	mu               sync.Mutex
	deltas           [ringSize]int
	idx              int // next ring slot, count mod 8
	prev             int
	threshold        float64
	samplesSinceBeat int
	rates            [avgSize]float64
	rateIdx          int

	published atomic.Int64
}

func NewDetector(sampleInterval time.Duration) *Detector {
	if sampleInterval <= 0 {
		sampleInterval = DefaultSampleInterval
	}
	return &Detector{
		intervalMs: int(sampleInterval.Milliseconds()),
		threshold:  initialThreshold,
	}
}

// AddSample feeds one raw sample and reports whether it completed a
// beat. A beat updates the rolling average; a long quiet stretch resets
// the detector and zeroes the published average.
func (d *Detector) AddSample(sample int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.samplesSinceBeat++
	beat := d.checkForBeat(sample)
	if beat {
		dtMs := d.samplesSinceBeat * d.intervalMs
		d.samplesSinceBeat = 0
		bpm := 60000 / float64(dtMs)
		if bpm > 20 && bpm < 255 {
			d.rates[d.rateIdx] = bpm
			d.rateIdx = (d.rateIdx + 1) % avgSize
			// Mean over all slots, zeros included: the average reads
			// low until the buffer fills.
			var sum float64
			for _, r := range d.rates {
				sum += r
			}
			d.published.Store(int64(sum / avgSize))
		}
	}

	if d.samplesSinceBeat >= resetAfterMs/d.intervalMs {
		d.reset()
	}

	return beat
}

// checkForBeat stores the sample delta and looks for a qualifying dip
// four slots behind the write position. The slot before the dip must be
// non-zero so an all-zero warm-up buffer never triggers.
func (d *Detector) checkForBeat(sample int) bool {
	d.deltas[d.idx] = sample - d.prev
	d.prev = sample
	d.idx = (d.idx + 1) % ringSize

	min := d.deltas[0]
	for _, v := range d.deltas[1:] {
		if v < min {
			min = v
		}
	}

	dipSlot := (d.idx - 4) & (ringSize - 1)
	guardSlot := (d.idx - 5) & (ringSize - 1)
	if d.deltas[dipSlot] != min || d.deltas[guardSlot] == 0 || float64(min) > d.threshold {
		return false
	}
	if min < minDip || min > maxDip {
		return false
	}

	d.threshold = (d.threshold + float64(min)*0.6) / 2
	d.deltas = [ringSize]int{}
	return true
}

func (d *Detector) reset() {
	d.samplesSinceBeat = 0
	d.threshold = initialThreshold
	d.deltas = [ringSize]int{}
	d.rates = [avgSize]float64{}
	d.published.Store(0)
}

// Average returns the published rolling-average BPM, zero when no
// beats have been seen recently.
func (d *Detector) Average() int {
	return int(d.published.Load())
}
