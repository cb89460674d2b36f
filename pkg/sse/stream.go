package sse

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"
)

const (
	DefaultWriteTimeout = 5 * time.Second
	DefaultKeepAlive    = 15 * time.Second
	DefaultBuffer       = 16
)

var keepAliveFrame = []byte(": keep-alive\n\n")

// StreamListener buffers frames for one HTTP stream. It is done when the
// context it was created with is cancelled.
type StreamListener struct {
	frames  chan []byte
	done    <-chan struct{}
	dropped chan struct{}
	once    sync.Once
}

// NewStreamListener returns a listener holding at most buffer pending frames.
func NewStreamListener(ctx context.Context, buffer int) *StreamListener {
	if buffer < 1 {
		buffer = DefaultBuffer
	}
	return &StreamListener{
		frames:  make(chan []byte, buffer),
		done:    ctx.Done(),
		dropped: make(chan struct{}),
	}
}

// Send queues frame, returning ErrListenerBlocked when the buffer is full.
// A blocked listener is marked dropped and accepts nothing further.
func (l *StreamListener) Send(frame []byte) error {
	select {
	case <-l.done:
		return ErrListenerClosed
	default:
	}
	select {
	case <-l.dropped:
		return ErrListenerBlocked
	default:
	}
	select {
	case l.frames <- frame:
		return nil
	default:
		l.once.Do(func() { close(l.dropped) })
		return ErrListenerBlocked
	}
}

func (l *StreamListener) Done() <-chan struct{} { return l.done }

// Frames is the queue the stream writer drains.
func (l *StreamListener) Frames() <-chan []byte { return l.frames }

// Dropped is closed once the listener has missed a frame.
func (l *StreamListener) Dropped() <-chan struct{} { return l.dropped }

// StreamConfig bounds a single client stream.
type StreamConfig struct {
	WriteTimeout time.Duration
	KeepAlive    time.Duration
	Buffer       int
}

func (c StreamConfig) withDefaults() StreamConfig {
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	if c.KeepAlive <= 0 {
		c.KeepAlive = DefaultKeepAlive
	}
	if c.Buffer <= 0 {
		c.Buffer = DefaultBuffer
	}
	return c
}

// StreamHandler serves the broadcast as text/event-stream. Each write gets
// its own deadline, which also lifts the server-wide WriteTimeout for the
// lifetime of the stream. The handler returns when the client disconnects,
// a write fails, a frame is dropped because the client fell behind, or the
// Broadcaster is shut down.
func (b *Broadcaster) StreamHandler(cfg StreamConfig) http.HandlerFunc {
	cfg = cfg.withDefaults()
	return func(w http.ResponseWriter, r *http.Request) {
		rc := http.NewResponseController(w)

		h := w.Header()
		h.Set("Content-Type", "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		h.Set("X-Accel-Buffering", "no")

		write := func(frame []byte) error {
			if err := rc.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout)); err != nil && !errors.Is(err, http.ErrNotSupported) {
				return err
			}
			if _, err := w.Write(frame); err != nil {
				return err
			}
			return rc.Flush()
		}

		if err := rc.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout)); err != nil && !errors.Is(err, http.ErrNotSupported) {
			b.log.WarnContext(r.Context(), "sse: set write deadline", "error", err)
			return
		}
		w.WriteHeader(http.StatusOK)
		if err := rc.Flush(); err != nil {
			b.log.WarnContext(r.Context(), "sse: response writer cannot flush", "error", err)
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		l := NewStreamListener(ctx, cfg.Buffer)
		b.Register(l)

		ticker := time.NewTicker(cfg.KeepAlive)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-b.closing:
				return
			case <-l.Dropped():
				b.log.InfoContext(ctx, "sse: client fell behind, closing stream")
				return
			case frame := <-l.Frames():
				if err := write(frame); err != nil {
					b.log.DebugContext(ctx, "sse: write failed", "error", err)
					return
				}
			case <-ticker.C:
				if err := write(keepAliveFrame); err != nil {
					b.log.DebugContext(ctx, "sse: keep-alive failed", "error", err)
					return
				}
			}
		}
	}
}
