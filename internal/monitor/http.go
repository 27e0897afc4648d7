package monitor

import (
	"context"
	"io"
	"net/http"
	"os/exec"

	"github.com/rs/zerolog"
)

// HTTPHandler serves a chunked MP3 preview of the master mix. Each
// connection spawns an FFmpeg process to encode PCM -> MP3 in real time.
type HTTPHandler struct {
	broadcaster *Broadcaster
	log         zerolog.Logger
}

// NewHTTPHandler creates an HTTP monitor handler.
func NewHTTPHandler(b *Broadcaster, log zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{broadcaster: b, log: log}
}

func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Cache-Control", "no-cache, no-store")
	w.Header().Set("Connection", "close")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-f", "s16le",
		"-ar", "48000",
		"-ac", "2",
		"-i", "pipe:0",
		"-codec:a", "libmp3lame",
		"-b:a", "192k",
		"-f", "mp3",
		"-fflags", "nobuffer",
		"-flush_packets", "1",
		"-loglevel", "error",
		"pipe:1",
	)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		h.log.Warn().Err(err).Msg("monitor: ffmpeg stdin pipe error")
		return
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		h.log.Warn().Err(err).Msg("monitor: ffmpeg stdout pipe error")
		return
	}

	if err := cmd.Start(); err != nil {
		h.log.Warn().Err(err).Msg("monitor: ffmpeg start error")
		return
	}

	listener := h.broadcaster.Subscribe()
	defer h.broadcaster.Unsubscribe(listener)

	h.log.Info().Int("listeners", h.broadcaster.ListenerCount()).Msg("monitor: HTTP listener connected")
	defer func() {
		h.log.Info().Uint64("dropped_frames", listener.Dropped.Load()).Msg("monitor: HTTP listener disconnected")
	}()

	go func() {
		defer stdin.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case <-listener.done:
				return
			case frame, ok := <-listener.C:
				if !ok {
					return
				}
				if _, err := stdin.Write(SamplesToBytes(frame.PCM)); err != nil {
					return
				}
			}
		}
	}()

	buf := make([]byte, 4096)
	for {
		n, err := stdout.Read(buf)
		if n > 0 {
			if _, writeErr := w.Write(buf[:n]); writeErr != nil {
				break
			}
			flusher.Flush()
		}
		if err != nil {
			if err != io.EOF {
				h.log.Warn().Err(err).Msg("monitor: ffmpeg read error")
			}
			break
		}
	}

	cmd.Wait()
}
