package editor

import (
	"context"

	"github.com/timelineaudio/engine/internal/envelope"
	"github.com/timelineaudio/engine/internal/model"
)

// sourceProvider implements sidechain.SourceProvider over the Editor's
// active scene, decoding the audio elements/one-shot definitions a config
// targets through the Editor's shared media cache.
type sourceProvider struct {
	editor *Editor
}

func (p *sourceProvider) TotalDuration() float64 {
	return p.editor.timeline.TotalDuration()
}

// TrackSources returns one envelope.Source per audible audio element on
// trackID, decoded via the editor's media cache.
func (p *sourceProvider) TrackSources(trackID model.TrackID) []envelope.Source {
	sc, ok := p.editor.ActiveScene()
	if !ok {
		return nil
	}
	tr, ok := sc.TrackByID(trackID)
	if !ok {
		return nil
	}

	ctx := context.Background()
	var sources []envelope.Source
	for _, el := range tr.Elements {
		if el.Hidden || !el.IsAudible() {
			continue
		}
		asset, ok := sc.MediaAssetByID(el.Audio.MediaID)
		if !ok {
			continue
		}
		path, ok := p.editor.resolveSourceHandle(ctx, asset.SourceHandle)
		if !ok {
			continue
		}
		buf, ok := p.editor.mediaCache.GetByFile(ctx, asset.ID.String(), path)
		if !ok {
			continue
		}
		sources = append(sources, envelope.Source{
			Buffer:    buf.Mono(),
			Rate:      buf.Rate,
			StartTime: el.StartTime,
			TrimStart: el.TrimStart,
			Duration:  el.Duration,
			Loop:      el.Audio.Loop,
		})
	}
	return sources
}

// OneshotSources returns one envelope.Source per marker triggering
// definition defID, each anchored at the marker's derived audio start time.
func (p *sourceProvider) OneshotSources(defID model.DefinitionID) []envelope.Source {
	sc, ok := p.editor.ActiveScene()
	if !ok {
		return nil
	}
	var def model.OneshotDefinition
	found := false
	for _, d := range sc.OneshotDefinitions {
		if d.ID == defID {
			def = d
			found = true
			break
		}
	}
	if !found {
		return nil
	}

	buf, ok := p.editor.oneshots.Buffer(context.Background(), def)
	if !ok {
		return nil
	}

	var sources []envelope.Source
	for _, mk := range sc.OneshotMarkers {
		if mk.OneshotID != defID {
			continue
		}
		sources = append(sources, envelope.Source{
			Buffer:    buf.Mono(),
			Rate:      buf.Rate,
			StartTime: model.AudioStartTime(mk, def),
			TrimStart: def.TrimStart,
			Duration:  def.SliceDuration(),
			Loop:      false,
		})
	}
	return sources
}
