// Package monitor exposes the scheduler's master mix -- the same PCM a
// real-time audio graph would receive -- to external watchers over HTTP
// (MP3) and WebRTC (Opus), for QA and remote-scrub use. It carries no
// timeline-editing authority; it is a read-only preview tap.
package monitor

import (
	"encoding/binary"
	"time"
)

const (
	SampleRate    = 48000
	Channels      = 2
	FrameDuration = 20 * time.Millisecond
	FrameSize     = 960                  // samples per channel per 20ms frame
	FrameSamples  = FrameSize * Channels // interleaved samples per frame
)

// Frame is one FrameDuration slice of the master mix, numbered by Seq so a
// listener (or the broadcaster itself) can tell whether frames were dropped
// rather than just receiving a bare PCM blob. Seq is assigned by Pump in
// emission order and is shared by every listener subscribed to the same
// Broadcaster -- a listener that sees Seq jump by more than one missed
// exactly that many frames.
type Frame struct {
	Seq uint64
	PCM []int16
}

// Int16Frame converts a slice of interleaved float64 PCM samples,
// normalized to [-1,1], to interleaved int16 samples clipped to range.
func Int16Frame(samples []float64) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		v := s * 32767
		switch {
		case v > 32767:
			v = 32767
		case v < -32768:
			v = -32768
		}
		out[i] = int16(v)
	}
	return out
}

// SamplesToBytes converts int16 samples to little-endian bytes, the wire
// format ffmpeg's raw PCM stdin expects.
func SamplesToBytes(samples []int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return buf
}
