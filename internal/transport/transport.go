// Package transport defines the Transport and Timeline-queries
// collaborators the scheduler consumes: playback state plus
// change notification. The scheduler reacts to these; it never writes
// back to them.
package transport

import "github.com/timelineaudio/engine/internal/model"

// SeekEvent carries a requested seek time, in timeline seconds.
type SeekEvent struct {
	Time float64
}

// Listener receives transport change notifications. Implementations must
// return quickly; the scheduler calls these synchronously from its single
// logical thread.
type Listener interface {
	OnPlayStateChanged(playing bool)
	OnVolumeChanged(volume float64)
	OnSeek(evt SeekEvent)
}

// Transport is the read-only playback-state surface the scheduler consults
// and subscribes to. The engine never calls a mutating method on this
// interface -- all transport mutation is the host application's concern.
type Transport interface {
	IsPlaying() bool
	CurrentTime() float64
	Volume() float64
	Subscribe(l Listener) (unsubscribe func())
}

// TimelineQueries is the read-only view over the active Scene's timeline
// shape the scheduler needs without reaching into the Scene directly.
type TimelineQueries interface {
	Tracks() []model.Track
	TotalDuration() float64
	TrackByID(id model.TrackID) (model.Track, bool)
	SubscribeChange(onChange func()) (unsubscribe func())
}
