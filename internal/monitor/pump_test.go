package monitor

import (
	"context"
	"testing"
	"time"
)

func TestPumpReChunksToFrameSamples(t *testing.T) {
	p := NewPump()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go p.Run(ctx)

	chunk := make([]float64, FrameSamples/2)
	for i := range chunk {
		chunk[i] = 0.5
	}
	p.Push(ctx, chunk)
	p.Push(ctx, chunk)

	select {
	case frame := <-p.Frames():
		if len(frame.PCM) != FrameSamples {
			t.Errorf("len(frame.PCM) = %d, want %d", len(frame.PCM), FrameSamples)
		}
		if frame.Seq != 0 {
			t.Errorf("first frame Seq = %d, want 0", frame.Seq)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for frame")
	}
}

func TestPumpNumbersFramesSequentially(t *testing.T) {
	p := NewPump()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go p.Run(ctx)

	chunk := make([]float64, FrameSamples)
	p.Push(ctx, chunk)
	p.Push(ctx, chunk)
	p.Push(ctx, chunk)

	for want := uint64(0); want < 3; want++ {
		select {
		case frame := <-p.Frames():
			if frame.Seq != want {
				t.Errorf("frame Seq = %d, want %d", frame.Seq, want)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for frame")
		}
	}
}

func TestPumpConvertsAmplitude(t *testing.T) {
	p := NewPump()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go p.Run(ctx)

	chunk := make([]float64, FrameSamples)
	for i := range chunk {
		chunk[i] = 1.0
	}
	p.Push(ctx, chunk)

	select {
	case frame := <-p.Frames():
		for i, s := range frame.PCM {
			if s != 32767 {
				t.Errorf("frame.PCM[%d] = %d, want 32767", i, s)
			}
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for frame")
	}
}

func TestPumpStopsOnContextCancel(t *testing.T) {
	p := NewPump()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pump did not stop after context cancel")
	}
}
