package oneshot

import (
	"math/rand"
	"testing"

	"github.com/timelineaudio/engine/internal/model"
)

func TestAlignmentS1(t *testing.T) {
	d := model.OneshotDefinition{
		ID:        model.NewDefinitionID(),
		TrimStart: 0.1,
		TrimEnd:   0.5,
		CuePoint:  0.3,
	}
	m := model.OneshotMarker{
		ID:        model.NewMarkerID(),
		OneshotID: d.ID,
		Time:      2.0,
	}

	start := model.AudioStartTime(m, d)
	end := model.AudioEndTime(m, d)

	if !almostEqual(start, 1.8) {
		t.Errorf("audioStartTime = %v, want 1.8", start)
	}
	if !almostEqual(end, 2.2) {
		t.Errorf("audioEndTime = %v, want 2.2", end)
	}
}

func TestMarkersInWindowColdAndHotAgree(t *testing.T) {
	defs, markers := randomOneshotScene(40, 300)
	mgr := NewManager(defs, markers, nil)

	for i := 0; i < 50; i++ {
		a := rand.Float64() * 120
		b := a + rand.Float64()*20
		cold := toSet(mgr.coldQuery(a, b))

		mgr.PrepareForPlayback()
		hot := toSet(mgr.MarkersInWindow(a, b))
		mgr.Teardown()

		if !setsEqual(cold, hot) {
			t.Fatalf("cold/hot mismatch for window [%v,%v]: cold=%v hot=%v", a, b, cold, hot)
		}
	}
}

func TestMarkersInWindowCatchesStillPlayingEarlierOnset(t *testing.T) {
	d := model.OneshotDefinition{ID: model.NewDefinitionID(), TrimStart: 0, TrimEnd: 5, CuePoint: 0}
	m := model.OneshotMarker{ID: model.NewMarkerID(), OneshotID: d.ID, Time: 0}
	mgr := NewManager([]model.OneshotDefinition{d}, []model.OneshotMarker{m}, nil)
	mgr.PrepareForPlayback()

	hits := mgr.MarkersInWindow(3, 4)
	if len(hits) != 1 {
		t.Fatalf("expected the long-running one-shot to still be caught at window [3,4], got %d hits", len(hits))
	}
}

func almostEqual(a, b float64) bool { return a-b < 1e-9 && b-a < 1e-9 }

func toSet(hits []Hit) map[model.MarkerID]bool {
	s := make(map[model.MarkerID]bool, len(hits))
	for _, h := range hits {
		s[h.Marker.ID] = true
	}
	return s
}

func setsEqual(a, b map[model.MarkerID]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

func randomOneshotScene(numDefs, numMarkers int) ([]model.OneshotDefinition, []model.OneshotMarker) {
	defs := make([]model.OneshotDefinition, numDefs)
	for i := range defs {
		trimStart := rand.Float64() * 2
		trimEnd := trimStart + rand.Float64()*3 + 0.1
		defs[i] = model.OneshotDefinition{
			ID:        model.NewDefinitionID(),
			TrimStart: trimStart,
			TrimEnd:   trimEnd,
			CuePoint:  trimStart + rand.Float64()*(trimEnd-trimStart),
		}
	}
	markers := make([]model.OneshotMarker, numMarkers)
	for i := range markers {
		d := defs[rand.Intn(len(defs))]
		markers[i] = model.OneshotMarker{
			ID:        model.NewMarkerID(),
			OneshotID: d.ID,
			Time:      rand.Float64() * 120,
		}
	}
	return defs, markers
}
