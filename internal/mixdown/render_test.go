package mixdown

import (
	"context"
	"testing"

	"github.com/timelineaudio/engine/internal/media"
	"github.com/timelineaudio/engine/internal/model"
)

type fakeResolver struct {
	buffers map[model.MediaID]*media.Buffer
}

func (r fakeResolver) Decode(ctx context.Context, id model.MediaID) (*media.Buffer, bool) {
	b, ok := r.buffers[id]
	return b, ok
}

func squareWaveBuffer(rate int, seconds float64) *media.Buffer {
	frames := int(float64(rate) * seconds)
	samples := make([]float64, frames*2)
	for i := 0; i < frames; i++ {
		v := 0.5
		if i%2 == 1 {
			v = -0.5
		}
		samples[i*2] = v
		samples[i*2+1] = v
	}
	return &media.Buffer{Samples: samples, Rate: rate, Channels: 2}
}

func TestRenderUnityTimeScaleStretchIsSuperposition(t *testing.T) {
	mediaID := model.NewMediaID()
	buf := squareWaveBuffer(44100, 4)
	resolver := fakeResolver{buffers: map[model.MediaID]*media.Buffer{mediaID: buf}}

	track := model.Track{
		ID:   model.NewTrackID(),
		Kind: model.TrackAudio,
		Elements: []model.Element{
			{
				ID:        model.NewElementID(),
				Kind:      model.ElementAudio,
				StartTime: 0,
				Duration:  4,
				Audio:     &model.AudioElementData{MediaID: mediaID, BaseVolume: 1},
			},
		},
	}
	scene := &model.Scene{Tracks: []model.Track{track}}
	cfg := model.TimeRemapConfig{TimeScale: 1}

	out, err := Render(context.Background(), scene, cfg, 44100, resolver, nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	expectedFrames := 44100 * 4
	if len(out) != expectedFrames*2 {
		t.Fatalf("output length = %d, want %d", len(out), expectedFrames*2)
	}
	for i := 0; i < expectedFrames; i++ {
		if out[i*2] != buf.Samples[i*2] {
			t.Fatalf("frame %d: out=%v want=%v (superposition at timeScale=1 must be bit-identical)", i, out[i*2], buf.Samples[i*2])
			break
		}
	}
}

func TestRenderHalfTimeScaleLoopTilesSourceS5(t *testing.T) {
	mediaID := model.NewMediaID()
	buf := squareWaveBuffer(44100, 4)
	resolver := fakeResolver{buffers: map[model.MediaID]*media.Buffer{mediaID: buf}}

	track := model.Track{
		ID:   model.NewTrackID(),
		Kind: model.TrackAudio,
		Elements: []model.Element{
			{
				ID:        model.NewElementID(),
				Kind:      model.ElementAudio,
				StartTime: 0,
				Duration:  4,
				Audio:     &model.AudioElementData{MediaID: mediaID, BaseVolume: 1},
			},
		},
	}
	scene := &model.Scene{Tracks: []model.Track{track}}
	cfg := model.TimeRemapConfig{
		TimeScale:     0.5,
		TrackBehavior: map[model.TrackID]model.TrackRemapBehavior{track.ID: model.RemapLoop},
	}

	out, err := Render(context.Background(), scene, cfg, 44100, resolver, nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	// newDur = origDur/timeScale = 4/0.5 = 8s.
	expectedFrames := 44100 * 8
	if len(out) != expectedFrames*2 {
		t.Fatalf("output length = %d, want %d (8s at 44100Hz stereo)", len(out), expectedFrames*2)
	}

	sourceFrames := 44100 * 4
	for i := 0; i < sourceFrames; i++ {
		if out[i*2] != buf.Samples[i*2] {
			t.Fatalf("first loop iteration diverges at frame %d", i)
		}
		tiled := out[(i+sourceFrames)*2]
		if tiled != buf.Samples[i*2] {
			t.Fatalf("second loop iteration diverges at frame %d: got %v want %v", i, tiled, buf.Samples[i*2])
		}
	}
}

func TestRenderReportsCompletionProgress(t *testing.T) {
	mediaID := model.NewMediaID()
	buf := squareWaveBuffer(44100, 1)
	resolver := fakeResolver{buffers: map[model.MediaID]*media.Buffer{mediaID: buf}}
	track := model.Track{
		ID: model.NewTrackID(),
		Elements: []model.Element{
			{Kind: model.ElementAudio, StartTime: 0, Duration: 1, Audio: &model.AudioElementData{MediaID: mediaID, BaseVolume: 1}},
		},
	}
	scene := &model.Scene{Tracks: []model.Track{track}}

	var last float64
	_, err := Render(context.Background(), scene, model.TimeRemapConfig{TimeScale: 1}, 44100, resolver, func(f float64) { last = f })
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if last != 1.0 {
		t.Errorf("final progress callback = %v, want 1.0", last)
	}
}
