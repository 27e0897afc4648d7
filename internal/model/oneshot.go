package model

import "time"

// AudioSourceKind tags the OneshotDefinition.AudioSource union.
type AudioSourceKind int

const (
	AudioSourceLibrary AudioSourceKind = iota
	AudioSourceUpload
)

// AudioSource is a tagged union: a library sound identified by URL+id, or a
// user upload identified by asset id + URL. Narrow on Kind before reading
// the variant-specific fields.
type AudioSource struct {
	Kind AudioSourceKind

	// AudioSourceLibrary fields.
	LibraryID  string
	LibraryURL string

	// AudioSourceUpload fields.
	AssetID  MediaID
	AssetURL string
}

// OneshotDefinition describes a reusable triggered sample.
//
// Invariant: TrimStart <= CuePoint <= TrimEnd.
type OneshotDefinition struct {
	ID          DefinitionID
	Name        string
	Color       string
	AudioSource AudioSource

	TrimStart     float64
	TrimEnd       float64
	CuePoint      float64 // in [TrimStart, TrimEnd]
	AudioDuration float64
	Timestamps    []float64 // onset/beat markers within the slice, editor metadata
}

// SliceDuration is the duration of audio actually played per trigger.
func (d OneshotDefinition) SliceDuration() float64 { return d.TrimEnd - d.TrimStart }

// OneshotMarker anchors a OneshotDefinition to a point on the timeline.
type OneshotMarker struct {
	ID         MarkerID
	OneshotID  DefinitionID
	Time       float64 // timeline seconds where CuePoint aligns
	Volume     *float64 // optional, [0,1]
	CreatedAt  time.Time
}

// AudioStartTime returns the timeline time at which playback of the
// underlying slice must begin so that the definition's cue point lands
// exactly on m.Time.
func AudioStartTime(m OneshotMarker, d OneshotDefinition) float64 {
	return m.Time - (d.CuePoint - d.TrimStart)
}

// AudioEndTime returns AudioStartTime(m, d) + SliceDuration(d).
func AudioEndTime(m OneshotMarker, d OneshotDefinition) float64 {
	return AudioStartTime(m, d) + d.SliceDuration()
}

// EffectiveVolume returns the marker's own volume override if set, else 1.0
// (the sidechain/automation layers apply further multiplicative gain on
// top of this).
func (m OneshotMarker) EffectiveVolume() float64 {
	if m.Volume != nil {
		return *m.Volume
	}
	return 1.0
}
