// Package sse fans serialized events out to in-process listeners and streams
// them to HTTP clients as Server-Sent Events.
//
// Delivery is best-effort: a frame is offered once to every listener that is
// registered at broadcast time. There is no replay for late subscribers and
// no acknowledgement. A listener whose Send fails is dropped.
package sse

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/hacklabs/hwlib/pkg/logger"
)

var (
	// ErrListenerBlocked is returned by Send when the listener cannot take a
	// frame without blocking.
	ErrListenerBlocked = errors.New("sse: listener blocked")

	// ErrListenerClosed is returned by Send after the listener is done.
	ErrListenerClosed = errors.New("sse: listener closed")
)

// Listener receives serialized frames. Send must not block. Done is closed
// when the listener goes away; the Broadcaster then forgets it.
//
// Listeners are compared by identity, so implementations should be pointers.
type Listener interface {
	Send(frame []byte) error
	Done() <-chan struct{}
}

// Broadcaster is a set of listeners. The zero value is not usable; call New.
type Broadcaster struct {
	mu        sync.RWMutex
	listeners map[Listener]chan struct{} // value stops the listener's watcher
	log       logger.Logger

	closing   chan struct{}
	closeOnce sync.Once
}

// New returns an empty Broadcaster.
func New(log logger.Logger) *Broadcaster {
	return &Broadcaster{
		listeners: make(map[Listener]chan struct{}),
		log:       log,
		closing:   make(chan struct{}),
	}
}

// Shutdown ends every open stream served by StreamHandler. Pass it to
// http.Server.RegisterOnShutdown: Shutdown does not interrupt active
// connections on its own.
func (b *Broadcaster) Shutdown() {
	b.closeOnce.Do(func() { close(b.closing) })
}

// Register adds l. Registering a listener that is already registered is a
// no-op. l is removed automatically once l.Done() is closed. Each registered
// listener has exactly one watcher goroutine, which exits when l is removed
// for any reason.
func (b *Broadcaster) Register(l Listener) {
	b.mu.Lock()
	if _, ok := b.listeners[l]; ok {
		b.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	b.listeners[l] = stop
	b.mu.Unlock()

	go func() {
		select {
		case <-l.Done():
			b.remove(l)
		case <-stop:
		}
	}()
}

// Len reports the number of registered listeners.
func (b *Broadcaster) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}

// Broadcast serializes v once and offers the frame to every listener.
// Failures are logged, never returned.
func (b *Broadcaster) Broadcast(v any) {
	frame, err := Serialize(v)
	if err != nil {
		b.log.Error("sse: serialize event", "error", err)
		return
	}

	b.mu.RLock()
	targets := make([]Listener, 0, len(b.listeners))
	for l := range b.listeners {
		targets = append(targets, l)
	}
	b.mu.RUnlock()

	for _, l := range targets {
		if err := l.Send(frame); err != nil {
			b.remove(l)
			b.log.Debug("sse: dropped listener", "error", err)
		}
	}
}

func (b *Broadcaster) remove(l Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if stop, ok := b.listeners[l]; ok {
		close(stop)
		delete(b.listeners, l)
	}
}

// Serialize renders v as one SSE data frame: "data: <json>\n\n".
func Serialize(v any) ([]byte, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("sse: marshal: %w", err)
	}
	frame := make([]byte, 0, len(payload)+8)
	frame = append(frame, "data: "...)
	frame = append(frame, payload...)
	frame = append(frame, '\n', '\n')
	return frame, nil
}
