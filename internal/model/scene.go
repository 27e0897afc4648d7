package model

// TrackKind is the render-stacking kind of a Track.
type TrackKind int

const (
	TrackVideo TrackKind = iota
	TrackAudio
	TrackText
	TrackSticker
)

// Track is ordered by render-stacking order within a Scene.
type Track struct {
	ID       TrackID
	Kind     TrackKind
	Name     string
	Hidden   bool
	IsMain   bool // at most one track per scene may be flagged main
	Elements []Element
}

// ElementKind tags the Element union.
type ElementKind int

const (
	ElementVideo ElementKind = iota
	ElementImage
	ElementAudio
	ElementText
	ElementSticker
)

// AudioElementData holds the fields only audio elements carry. Always
// narrow by checking Element.Kind == ElementAudio before dereferencing
// Element.Audio -- never chain through Element.Audio.BaseVolume without
// having bound Kind locally first.
type AudioElementData struct {
	MediaID    MediaID
	BaseVolume float64 // [0,1]
	Loop       bool
}

// Element is a tagged union over {video, image, audio, text, sticker}.
// Common fields live on the struct; the Audio field is populated only when
// Kind == ElementAudio.
//
// Invariant: 0 <= TrimStart <= TrimEnd <= source duration; Duration > 0.
type Element struct {
	ID        ElementID
	Kind      ElementKind
	StartTime float64 // seconds on the timeline
	Duration  float64
	TrimStart float64 // seconds within source media
	TrimEnd   float64
	Hidden    bool

	Audio *AudioElementData
}

// EndTime is the timeline time at which the element's active window ends.
func (e Element) EndTime() float64 { return e.StartTime + e.Duration }

// Active reports whether t falls within [StartTime, StartTime+Duration).
func (e Element) Active(t float64) bool {
	return t >= e.StartTime && t < e.EndTime()
}

// IsAudible reports whether the element carries audio: Kind == ElementAudio
// with a non-nil Audio payload. Hidden and base volume are not consulted --
// a hidden or zero-volume audio element still counts as audible; skipping
// those is left to callers.
func (e Element) IsAudible() bool {
	return e.Kind == ElementAudio && e.Audio != nil
}

// MediaKind is the kind of a MediaAsset.
type MediaKind int

const (
	MediaAudio MediaKind = iota
	MediaVideo
	MediaImage
)

// MediaAsset is an opaque source handle (a file blob) plus metadata.
type MediaAsset struct {
	ID             MediaID
	Kind           MediaKind
	SourceHandle   string // opaque blob reference, resolved by a MediaProvider
	Name           string
	NaturalDuration float64
}

// Scene is the aggregate root and source of truth for one edit session.
// Persisted field-by-field: every field here must be explicitly present on
// save and restored on load (see internal/persistence).
type Scene struct {
	ID SceneID

	Tracks             []Track
	MediaAssets        []MediaAsset
	OneshotDefinitions []OneshotDefinition
	OneshotMarkers     []OneshotMarker
	AutomationStates   []AutomationState
	AutomationMarkers  []AutomationMarker
	SidechainConfigs   []SidechainConfig

	// Keybindings is part of the persisted layout (subject to migration,
	// see internal/persistence) though the engine itself only exposes the
	// actions these bind to.
	Keybindings map[string]string
}

// TrackByID returns the track with the given id, or false.
func (s *Scene) TrackByID(id TrackID) (*Track, bool) {
	for i := range s.Tracks {
		if s.Tracks[i].ID == id {
			return &s.Tracks[i], true
		}
	}
	return nil, false
}

// ElementByID returns the element (and its owning track id) with the given
// id, searching all tracks. Element ids are unique within a track but this
// searches the whole scene since callers rarely know the track up front.
func (s *Scene) ElementByID(id ElementID) (*Element, TrackID, bool) {
	for i := range s.Tracks {
		for j := range s.Tracks[i].Elements {
			if s.Tracks[i].Elements[j].ID == id {
				return &s.Tracks[i].Elements[j], s.Tracks[i].ID, true
			}
		}
	}
	return nil, TrackID{}, false
}

// MediaAssetByID returns the asset with the given id, or false.
func (s *Scene) MediaAssetByID(id MediaID) (*MediaAsset, bool) {
	for i := range s.MediaAssets {
		if s.MediaAssets[i].ID == id {
			return &s.MediaAssets[i], true
		}
	}
	return nil, false
}

// TotalDuration is the timeline duration: the furthest EndTime across all
// non-hidden elements on all tracks. Zero if the scene has no elements.
func (s *Scene) TotalDuration() float64 {
	var max float64
	for _, tr := range s.Tracks {
		if tr.Hidden {
			continue
		}
		for _, el := range tr.Elements {
			if end := el.EndTime(); end > max {
				max = end
			}
		}
	}
	return max
}

// Clone returns a deep copy of the scene: every slice and the keybinding
// map get their own backing storage, so mutating the clone never perturbs
// the original. Used by internal/scene to keep undo snapshots independent
// of the live scene state.
func (s Scene) Clone() Scene {
	out := s

	out.Tracks = make([]Track, len(s.Tracks))
	for i, tr := range s.Tracks {
		out.Tracks[i] = tr
		out.Tracks[i].Elements = make([]Element, len(tr.Elements))
		copy(out.Tracks[i].Elements, tr.Elements)
		for j, el := range tr.Elements {
			if el.Audio != nil {
				cp := *el.Audio
				out.Tracks[i].Elements[j].Audio = &cp
			}
		}
	}

	out.MediaAssets = append([]MediaAsset{}, s.MediaAssets...)
	out.OneshotMarkers = append([]OneshotMarker{}, s.OneshotMarkers...)

	out.OneshotDefinitions = make([]OneshotDefinition, len(s.OneshotDefinitions))
	for i, d := range s.OneshotDefinitions {
		out.OneshotDefinitions[i] = d
		out.OneshotDefinitions[i].Timestamps = append([]float64{}, d.Timestamps...)
	}
	out.AutomationMarkers = append([]AutomationMarker{}, s.AutomationMarkers...)

	out.AutomationStates = make([]AutomationState, len(s.AutomationStates))
	for i, st := range s.AutomationStates {
		out.AutomationStates[i] = st
		out.AutomationStates[i].Operations = append([]AutomationOperation{}, st.Operations...)
	}

	out.SidechainConfigs = make([]SidechainConfig, len(s.SidechainConfigs))
	for i, c := range s.SidechainConfigs {
		out.SidechainConfigs[i] = c
		if c.TargetTrackIDs != nil {
			out.SidechainConfigs[i].TargetTrackIDs = make(map[TrackID]struct{}, len(c.TargetTrackIDs))
			for k := range c.TargetTrackIDs {
				out.SidechainConfigs[i].TargetTrackIDs[k] = struct{}{}
			}
		}
		if c.TargetOneshotDefinitionIDs != nil {
			out.SidechainConfigs[i].TargetOneshotDefinitionIDs = make(map[DefinitionID]struct{}, len(c.TargetOneshotDefinitionIDs))
			for k := range c.TargetOneshotDefinitionIDs {
				out.SidechainConfigs[i].TargetOneshotDefinitionIDs[k] = struct{}{}
			}
		}
	}

	if s.Keybindings != nil {
		out.Keybindings = make(map[string]string, len(s.Keybindings))
		for k, v := range s.Keybindings {
			out.Keybindings[k] = v
		}
	}

	return out
}

// AudioElements returns every audio element on the track, in track order.
func (t *Track) AudioElements() []Element {
	out := make([]Element, 0, len(t.Elements))
	for _, el := range t.Elements {
		if el.Kind == ElementAudio {
			out = append(out, el)
		}
	}
	return out
}
