// Package watch runs the background clipboard change loop.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrInit is returned when the change source cannot be subscribed to.
var ErrInit = errors.New("clipboard watcher init failed")

// Source delivers a signal on every clipboard change until ctx is done.
type Source interface {
	Watch(ctx context.Context) (<-chan struct{}, error)
}

// Handle owns one running watcher loop.
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Start subscribes to src and calls fn once per change on a dedicated
// goroutine. If subscribing fails no goroutine is left running.
func Start(src Source, fn func()) (*Handle, error) {
	ctx, cancel := context.WithCancel(context.Background())
	ch, err := src.Watch(ctx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: %w", ErrInit, err)
	}

	h := &Handle{cancel: cancel, done: make(chan struct{})}
	go h.run(ctx, ch, fn)
	return h, nil
}

func (h *Handle) run(ctx context.Context, ch <-chan struct{}, fn func()) {
	defer close(h.done)
	slog.Debug("clipboard watcher started")
	for {
		select {
		case <-ctx.Done():
			slog.Debug("clipboard watcher stopped")
			return
		case _, ok := <-ch:
			if !ok {
				slog.Debug("clipboard change source closed")
				return
			}
			invoke(fn)
		}
	}
}

// invoke runs fn, swallowing panics so a bad callback cannot take the
// process down.
func invoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("clipboard change callback panicked", "panic", r)
		}
	}()
	fn()
}

// Stop cancels the loop and blocks until it has exited. It is safe to call
// on a nil Handle and more than once.
func (h *Handle) Stop() {
	if h == nil {
		return
	}
	h.once.Do(h.cancel)
	<-h.done
}

// Done is closed once the loop has exited.
func (h *Handle) Done() <-chan struct{} { return h.done }
