package monitor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/timelineaudio/engine/internal/logging"
)

func TestNewBroadcaster(t *testing.T) {
	b := NewBroadcaster(logging.Nop())
	if b == nil {
		t.Fatal("NewBroadcaster returned nil")
	}
	if b.ListenerCount() != 0 {
		t.Errorf("Initial ListenerCount = %d, want 0", b.ListenerCount())
	}
}

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroadcaster(logging.Nop())

	l1 := b.Subscribe()
	if b.ListenerCount() != 1 {
		t.Errorf("After 1 subscribe: ListenerCount = %d, want 1", b.ListenerCount())
	}

	l2 := b.Subscribe()
	if b.ListenerCount() != 2 {
		t.Errorf("After 2 subscribes: ListenerCount = %d, want 2", b.ListenerCount())
	}

	b.Unsubscribe(l1)
	if b.ListenerCount() != 1 {
		t.Errorf("After 1 unsubscribe: ListenerCount = %d, want 1", b.ListenerCount())
	}

	b.Unsubscribe(l2)
	if b.ListenerCount() != 0 {
		t.Errorf("After all unsubscribed: ListenerCount = %d, want 0", b.ListenerCount())
	}
}

func TestBroadcastDelivers(t *testing.T) {
	b := NewBroadcaster(logging.Nop())
	l := b.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	source := make(chan Frame, 10)

	go b.Run(ctx, source)

	frame := Frame{Seq: 0, PCM: []int16{100, 200, 300, 400}}
	source <- frame

	select {
	case got := <-l.C:
		if got.Seq != frame.Seq {
			t.Errorf("Received Seq %d, want %d", got.Seq, frame.Seq)
		}
		if len(got.PCM) != len(frame.PCM) {
			t.Errorf("Received frame length %d, want %d", len(got.PCM), len(frame.PCM))
		}
		for i, v := range got.PCM {
			if v != frame.PCM[i] {
				t.Errorf("Frame[%d] = %d, want %d", i, v, frame.PCM[i])
			}
		}
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for frame")
	}

	cancel()
	b.Unsubscribe(l)
}

func TestBroadcastMultipleListeners(t *testing.T) {
	b := NewBroadcaster(logging.Nop())
	listeners := make([]*Listener, 5)
	for i := range listeners {
		listeners[i] = b.Subscribe()
	}

	ctx, cancel := context.WithCancel(context.Background())
	source := make(chan Frame, 10)

	go b.Run(ctx, source)

	source <- Frame{Seq: 0, PCM: []int16{42, -42}}

	for i, l := range listeners {
		select {
		case got := <-l.C:
			if got.PCM[0] != 42 {
				t.Errorf("Listener %d got frame[0]=%d, want 42", i, got.PCM[0])
			}
		case <-time.After(time.Second):
			t.Errorf("Listener %d timed out", i)
		}
	}

	cancel()
	for _, l := range listeners {
		b.Unsubscribe(l)
	}
}

func TestBroadcastDropsSlowListenerAndCountsThem(t *testing.T) {
	b := NewBroadcaster(logging.Nop())
	slow := b.Subscribe()
	fast := b.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	source := make(chan Frame, 200)

	go b.Run(ctx, source)

	for i := 0; i < 200; i++ {
		source <- Frame{Seq: uint64(i), PCM: []int16{int16(i)}}
	}

	time.Sleep(100 * time.Millisecond)

	fastCount := 0
loop1:
	for {
		select {
		case <-fast.C:
			fastCount++
		default:
			break loop1
		}
	}

	slowCount := 0
loop2:
	for {
		select {
		case <-slow.C:
			slowCount++
		default:
			break loop2
		}
	}

	if slowCount > 150 {
		t.Errorf("Slow listener got %d frames, should cap at buffer size 150", slowCount)
	}
	if fastCount == 0 {
		t.Error("Fast listener got 0 frames")
	}
	if slow.Dropped.Load() == 0 {
		t.Error("Slow listener's Dropped counter should be nonzero once its buffer filled")
	}

	cancel()
	b.Unsubscribe(slow)
	b.Unsubscribe(fast)
}

func TestBroadcastStopsOnContextCancel(t *testing.T) {
	b := NewBroadcaster(logging.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	source := make(chan Frame, 10)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		b.Run(ctx, source)
	}()

	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Broadcaster did not stop after context cancel")
	}
}

func TestListenerDoneChannel(t *testing.T) {
	b := NewBroadcaster(logging.Nop())
	l := b.Subscribe()

	b.Unsubscribe(l)

	select {
	case <-l.done:
	default:
		t.Error("Listener done channel not closed after unsubscribe")
	}
}
