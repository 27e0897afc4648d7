package model

import (
	"math"
	"testing"
)

func approxEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

// audioStartTime + sliceDuration = audioEndTime, and the cue
// point lands exactly on m.Time.
func TestOneshotMarkerAlignment(t *testing.T) {
	d := OneshotDefinition{TrimStart: 0.1, TrimEnd: 0.5, CuePoint: 0.3}
	m := OneshotMarker{Time: 2.0}

	start := AudioStartTime(m, d)
	end := AudioEndTime(m, d)

	if !approxEqual(start, 1.8) {
		t.Errorf("AudioStartTime = %v, want 1.8", start)
	}
	if !approxEqual(end, 2.2) {
		t.Errorf("AudioEndTime = %v, want 2.2", end)
	}
	if !approxEqual(start+d.SliceDuration(), end) {
		t.Errorf("start + sliceDuration != end: %v + %v != %v", start, d.SliceDuration(), end)
	}
	if !approxEqual(start+(d.CuePoint-d.TrimStart), m.Time) {
		t.Errorf("cue point does not align with marker time")
	}
}

func TestSidechainEnvelopeLookupOutOfRange(t *testing.T) {
	e := &SidechainEnvelope{GainValues: []float64{0.5, 0.6, 0.7}, Duration: 3.0 / EnvelopeSampleRate}
	if g := e.LookupGain(-1); g != 1.0 {
		t.Errorf("negative t: got %v, want 1.0", g)
	}
	if g := e.LookupGain(10); g != 1.0 {
		t.Errorf("t past duration: got %v, want 1.0", g)
	}
}

func TestSidechainEnvelopeLookupNilOrEmpty(t *testing.T) {
	var e *SidechainEnvelope
	if g := e.LookupGain(0.1); g != 1.0 {
		t.Errorf("nil envelope: got %v, want 1.0", g)
	}
	e2 := &SidechainEnvelope{}
	if g := e2.LookupGain(0.1); g != 1.0 {
		t.Errorf("empty envelope: got %v, want 1.0", g)
	}
}

func TestSidechainEnvelopeLookupInterpolates(t *testing.T) {
	e := &SidechainEnvelope{GainValues: []float64{0.0, 1.0}, Duration: 2.0 / EnvelopeSampleRate}
	// t halfway between sample 0 and sample 1.
	got := e.LookupGain(0.5 / EnvelopeSampleRate)
	if !approxEqual(got, 0.5) {
		t.Errorf("interpolated gain = %v, want 0.5", got)
	}
}

func TestSceneTotalDurationIgnoresHiddenTracks(t *testing.T) {
	s := &Scene{
		Tracks: []Track{
			{ID: NewTrackID(), Elements: []Element{{StartTime: 0, Duration: 5}}},
			{ID: NewTrackID(), Hidden: true, Elements: []Element{{StartTime: 0, Duration: 50}}},
		},
	}
	if got := s.TotalDuration(); !approxEqual(got, 5) {
		t.Errorf("TotalDuration = %v, want 5", got)
	}
}

func TestElementActive(t *testing.T) {
	e := Element{StartTime: 2, Duration: 3}
	if e.Active(1.9) {
		t.Error("should not be active before start")
	}
	if !e.Active(2) {
		t.Error("should be active at start")
	}
	if !e.Active(4.999) {
		t.Error("should be active just before end")
	}
	if e.Active(5) {
		t.Error("should not be active at end (half-open interval)")
	}
}
