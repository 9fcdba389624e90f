package heartrate

import (
	"testing"
	"time"
)

// beatSequence produces one -500 dip flanked by small non-zero deltas.
// The dip lands four slots behind the ring write position on the eighth
// sample, which is where the detector looks for it.
var beatSequence = []int{10, 20, 30, 40, -460, -450, -440, -430}

func feed(d *Detector, samples []int) int {
	beats := 0
	for _, s := range samples {
		if d.AddSample(s) {
			beats++
		}
	}
	return beats
}

func TestDetectorFindsSingleBeat(t *testing.T) {
	d := NewDetector(50 * time.Millisecond)

	if beats := feed(d, beatSequence); beats != 1 {
		t.Fatalf("expected exactly one beat, got %d", beats)
	}

	// Eight samples at 50 ms between beats: 60000/400 = 150 BPM, then
	// averaged over the 10-slot buffer with nine empty slots.
	if got := d.Average(); got != 15 {
		t.Fatalf("average mismatch: got %d want 15", got)
	}
	if d.threshold != -160 {
		t.Fatalf("threshold not adapted: got %v want -160", d.threshold)
	}
}

func TestDetectorIgnoresImplausibleDip(t *testing.T) {
	d := NewDetector(50 * time.Millisecond)

	samples := []int{10, 20, 30, 40, -4960, -4950, -4940, -4930}
	if beats := feed(d, samples); beats != 0 {
		t.Fatalf("dip of -5000 must not register as a beat, got %d", beats)
	}
}

func TestDetectorWarmupGuard(t *testing.T) {
	d := NewDetector(50 * time.Millisecond)

	for i := 0; i < 20; i++ {
		if d.AddSample(0) {
			t.Fatalf("all-zero warm-up buffer produced a beat at sample %d", i)
		}
	}
	if got := d.Average(); got != 0 {
		t.Fatalf("average should stay zero during warm-up, got %d", got)
	}
}

func TestDetectorResetsAfterQuietStretch(t *testing.T) {
	d := NewDetector(50 * time.Millisecond)

	if beats := feed(d, beatSequence); beats != 1 {
		t.Fatalf("setup beat not detected")
	}
	if d.Average() == 0 {
		t.Fatalf("setup average should be non-zero")
	}

	// A flat stream for 3000 ms of sample time (60 samples at 50 ms)
	// returns the detector to baseline.
	for i := 0; i < 60; i++ {
		if d.AddSample(-430) {
			t.Fatalf("flat stream produced a beat")
		}
	}

	if got := d.Average(); got != 0 {
		t.Fatalf("average not reset: got %d", got)
	}
	if d.threshold != initialThreshold {
		t.Fatalf("threshold not reset: got %v want %d", d.threshold, initialThreshold)
	}
}

func TestDetectorRejectsOutOfBandBPM(t *testing.T) {
	d := NewDetector(50 * time.Millisecond)

	// A beat on the eighth sample ever gives 150 BPM; a second beat
	// only 8 samples later also gives 150. Feed two consecutive beat
	// windows and expect both accepted.
	if beats := feed(d, beatSequence); beats != 1 {
		t.Fatalf("first beat missing")
	}
	second := []int{-420, -410, -400, -390, -890, -880, -870, -860}
	if beats := feed(d, second); beats != 1 {
		t.Fatalf("second beat missing")
	}
	if got := d.Average(); got != 30 {
		t.Fatalf("average mismatch after two beats: got %d want 30", got)
	}
}
