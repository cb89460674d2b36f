package sse

import (
	"errors"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/hacklabs/hwlib/pkg/logger"
)

type recordingListener struct {
	mu     sync.Mutex
	frames [][]byte
	err    error
	done   chan struct{}
}

func newRecordingListener() *recordingListener {
	return &recordingListener{done: make(chan struct{})}
}

func (l *recordingListener) Send(frame []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return l.err
	}
	l.frames = append(l.frames, frame)
	return nil
}

func (l *recordingListener) Done() <-chan struct{} { return l.done }

func (l *recordingListener) received() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.frames))
	for i, f := range l.frames {
		out[i] = string(f)
	}
	return out
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestSerialize(t *testing.T) {
	frame, err := Serialize(map[string]int{"type": 2})
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if got, want := string(frame), "data: {\"type\":2}\n\n"; got != want {
		t.Fatalf("frame = %q, want %q", got, want)
	}

	if _, err := Serialize(make(chan int)); err == nil {
		t.Fatal("expected error for unserializable value")
	}
}

func TestBroadcast_ReachesEveryListener(t *testing.T) {
	b := New(logger.Nop())
	a, c := newRecordingListener(), newRecordingListener()
	b.Register(a)
	b.Register(c)

	b.Broadcast(map[string]string{"k": "v"})

	for _, l := range []*recordingListener{a, c} {
		got := l.received()
		if len(got) != 1 || got[0] != "data: {\"k\":\"v\"}\n\n" {
			t.Fatalf("unexpected frames %q", got)
		}
	}
}

func TestRegister_Idempotent(t *testing.T) {
	b := New(logger.Nop())
	l := newRecordingListener()
	b.Register(l)
	b.Register(l)

	if b.Len() != 1 {
		t.Fatalf("Len = %d, want 1", b.Len())
	}
	b.Broadcast(1)
	if n := len(l.received()); n != 1 {
		t.Fatalf("listener got %d frames, want 1", n)
	}
}

func TestBroadcast_DropsFailingListener(t *testing.T) {
	b := New(logger.Nop())
	bad, good := newRecordingListener(), newRecordingListener()
	bad.err = errors.New("gone")
	b.Register(bad)
	b.Register(good)

	b.Broadcast(1)
	b.Broadcast(2)

	if b.Len() != 1 {
		t.Fatalf("Len = %d, want 1 after failing listener dropped", b.Len())
	}
	if n := len(good.received()); n != 2 {
		t.Fatalf("healthy listener got %d frames, want 2", n)
	}
}

func TestBroadcast_NoListeners(t *testing.T) {
	b := New(logger.Nop())
	b.Broadcast(struct{}{})
	if b.Len() != 0 {
		t.Fatalf("Len = %d", b.Len())
	}
}

func TestRegister_PrunesOnDone(t *testing.T) {
	b := New(logger.Nop())
	l := newRecordingListener()
	b.Register(l)
	close(l.done)

	waitFor(t, func() bool { return b.Len() == 0 })
}

func TestBroadcast_DroppedListenerReleasesWatcher(t *testing.T) {
	b := New(logger.Nop())
	base := runtime.NumGoroutine()

	// Done never closes for these listeners.
	for range 20 {
		l := newRecordingListener()
		l.err = errors.New("gone")
		b.Register(l)
	}
	b.Broadcast(1)

	if b.Len() != 0 {
		t.Fatalf("Len = %d, want 0", b.Len())
	}
	waitFor(t, func() bool { return runtime.NumGoroutine() <= base })
}

func TestRegister_AfterDropHasOneWatcher(t *testing.T) {
	b := New(logger.Nop())
	base := runtime.NumGoroutine()

	l := newRecordingListener()
	l.err = errors.New("slow")
	b.Register(l)
	b.Broadcast(1)
	waitFor(t, func() bool { return runtime.NumGoroutine() <= base })

	l.mu.Lock()
	l.err = nil
	l.mu.Unlock()
	b.Register(l)
	if got := runtime.NumGoroutine(); got > base+1 {
		t.Fatalf("goroutines = %d, want at most %d", got, base+1)
	}

	close(l.done)
	waitFor(t, func() bool { return b.Len() == 0 && runtime.NumGoroutine() <= base })
}
