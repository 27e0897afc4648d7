package sidechain

import (
	"testing"

	"github.com/timelineaudio/engine/internal/envelope"
	"github.com/timelineaudio/engine/internal/model"
)

type fakeProvider struct {
	trackSources map[model.TrackID][]envelope.Source
	duration     float64
}

func (p fakeProvider) TrackSources(id model.TrackID) []envelope.Source   { return p.trackSources[id] }
func (p fakeProvider) OneshotSources(model.DefinitionID) []envelope.Source { return nil }
func (p fakeProvider) TotalDuration() float64                              { return p.duration }

func defaultParams() model.SidechainParams {
	return model.SidechainParams{ThresholdDB: -20, Ratio: 4, AttackSec: 0.01, ReleaseSec: 0.2, DepthDB: -15}
}

func TestGainForTrackNoConfigIsUnity(t *testing.T) {
	mgr := NewManager(nil, fakeProvider{duration: 10})
	mgr.PrepareForPlayback()
	if g := mgr.GainForTrack(model.NewTrackID(), 5); g != 1.0 {
		t.Errorf("gain with no configs = %v, want 1.0", g)
	}
}

func TestGainForTrackDuckStacking(t *testing.T) {
	target := model.NewTrackID()
	trigger := model.NewTrackID()

	buf := make([]float64, 48000*4)
	for i := range buf {
		if i%2 == 0 {
			buf[i] = 0.9
		} else {
			buf[i] = -0.9
		}
	}
	sources := []envelope.Source{{Buffer: buf, Rate: 48000, StartTime: 0, TrimStart: 0, Duration: 4}}

	provider := fakeProvider{trackSources: map[model.TrackID][]envelope.Source{trigger: sources}, duration: 4}

	cfgA := model.SidechainConfig{
		ID:              model.NewConfigID(),
		Source:          model.SidechainSource{Kind: model.SidechainSourceTrack, TrackID: trigger},
		TargetTrackIDs:  map[model.TrackID]struct{}{target: {}},
		Params:          defaultParams(),
		Enabled:         true,
	}
	cfgB := model.SidechainConfig{
		ID:              model.NewConfigID(),
		Source:          model.SidechainSource{Kind: model.SidechainSourceTrack, TrackID: trigger},
		TargetTrackIDs:  map[model.TrackID]struct{}{target: {}},
		Params:          defaultParams(),
		Enabled:         true,
	}

	single := NewManager([]model.SidechainConfig{cfgA}, provider)
	single.PrepareForPlayback()
	gainSingle := single.GainForTrack(target, 2)

	stacked := NewManager([]model.SidechainConfig{cfgA, cfgB}, provider)
	stacked.PrepareForPlayback()
	gainStacked := stacked.GainForTrack(target, 2)

	if gainStacked >= gainSingle {
		t.Errorf("stacked duck gain %v should be less than single duck gain %v", gainStacked, gainSingle)
	}
}

func TestInvalidateConfigForcesRecompute(t *testing.T) {
	target := model.NewTrackID()
	trigger := model.NewTrackID()
	provider := fakeProvider{duration: 2}
	cfg := model.SidechainConfig{
		ID:             model.NewConfigID(),
		Source:         model.SidechainSource{Kind: model.SidechainSourceTrack, TrackID: trigger},
		TargetTrackIDs: map[model.TrackID]struct{}{target: {}},
		Params:         defaultParams(),
		Enabled:        true,
	}
	mgr := NewManager([]model.SidechainConfig{cfg}, provider)
	mgr.PrepareForPlayback()
	_ = mgr.GainForTrack(target, 1)

	mgr.InvalidateConfig(cfg.ID)
	if _, cached := mgr.envCache[cfg.ID]; cached {
		t.Errorf("expected envelope cache entry to be cleared after InvalidateConfig")
	}
}
