package media

import (
	"context"
	"encoding/binary"
	"fmt"
	"os/exec"
)

// DecodeRate and DecodeChannels are the fixed PCM format every decode is
// normalized to (48kHz stereo s16le) but exposed here as float64 samples.
const (
	DecodeRate     = 48000
	DecodeChannels = 2
)

// FFmpegProvider decodes audio files via one ffmpeg subprocess per call;
// there is no persistent ffmpeg process kept warm between decodes.
type FFmpegProvider struct {
	resolver Resolver
}

// Resolver maps a durable asset id to a local file path. Implementations
// back this with whatever blob store the host application uses; the
// contract is "same assetId -> same handle".
type Resolver interface {
	ResolveHandle(ctx context.Context, assetID string) (string, error)
}

// NewFFmpegProvider creates a decode Provider backed by ffmpeg and the
// given asset resolver.
func NewFFmpegProvider(resolver Resolver) *FFmpegProvider {
	return &FFmpegProvider{resolver: resolver}
}

// ResolveHandle delegates to the configured Resolver.
func (p *FFmpegProvider) ResolveHandle(ctx context.Context, assetID string) (string, error) {
	return p.resolver.ResolveHandle(ctx, assetID)
}

// DecodeFile runs ffmpeg to decode a local file to normalized float64 PCM.
func (p *FFmpegProvider) DecodeFile(ctx context.Context, path string) (*Buffer, error) {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", path,
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ar", fmt.Sprint(DecodeRate),
		"-ac", fmt.Sprint(DecodeChannels),
		"-loglevel", "error",
		"pipe:1",
	)

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg decode %s: %w", path, err)
	}
	return decodeS16LE(out), nil
}

// DecodeURL fetches and decodes a remote audio source. ffmpeg can read
// most URL schemes directly, so this is the same pipeline as DecodeFile
// with a URL in place of a path.
func (p *FFmpegProvider) DecodeURL(ctx context.Context, url string) (*Buffer, error) {
	return p.DecodeFile(ctx, url)
}

func decodeS16LE(raw []byte) *Buffer {
	if len(raw)%2 != 0 {
		raw = raw[:len(raw)-1]
	}
	samples := make([]float64, len(raw)/2)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(raw[i*2 : i*2+2]))
		samples[i] = float64(v) / 32768.0
	}
	return &Buffer{Samples: samples, Rate: DecodeRate, Channels: DecodeChannels}
}
