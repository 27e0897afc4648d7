package validate

import (
	"testing"

	"github.com/timelineaudio/engine/internal/model"
)

func TestOneshotDefinitionRejectsCueOutsideTrim(t *testing.T) {
	d := model.OneshotDefinition{TrimStart: 0.1, TrimEnd: 0.5, CuePoint: 0.9}
	if err := OneshotDefinition("test", d); err == nil {
		t.Fatal("expected invariant violation for cue point outside trim window")
	}
}

func TestOneshotDefinitionAcceptsValidCue(t *testing.T) {
	d := model.OneshotDefinition{TrimStart: 0.1, TrimEnd: 0.5, CuePoint: 0.3}
	if err := OneshotDefinition("test", d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTimeScaleRejectsNonPositive(t *testing.T) {
	if err := TimeScale("test", 0); err == nil {
		t.Fatal("expected invariant violation for timeScale = 0")
	}
	if err := TimeScale("test", -1); err == nil {
		t.Fatal("expected invariant violation for negative timeScale")
	}
	if err := TimeScale("test", 1.5); err != nil {
		t.Fatalf("unexpected error for valid timeScale: %v", err)
	}
}

func TestSidechainSelfTargetRejected(t *testing.T) {
	track := model.NewTrackID()
	c := model.SidechainConfig{
		ID:             model.NewConfigID(),
		Source:         model.SidechainSource{Kind: model.SidechainSourceTrack, TrackID: track},
		TargetTrackIDs: map[model.TrackID]struct{}{track: {}},
	}
	if err := SidechainSelfTarget("test", c); err == nil {
		t.Fatal("expected invariant violation for self-targeting sidechain config")
	}
}
