package watch

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chanSource hands out one channel per Watch call and closes it when the
// subscriber's context ends.
type chanSource struct {
	ch     chan struct{}
	closed chan struct{}
	err    error
}

func newChanSource() *chanSource {
	return &chanSource{ch: make(chan struct{}), closed: make(chan struct{})}
}

func (s *chanSource) Watch(ctx context.Context) (<-chan struct{}, error) {
	if s.err != nil {
		return nil, s.err
	}
	go func() {
		<-ctx.Done()
		close(s.closed)
	}()
	return s.ch, nil
}

func TestCallbackPerChange(t *testing.T) {
	src := newChanSource()
	var calls atomic.Int32
	h, err := Start(src, func() { calls.Add(1) })
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		src.ch <- struct{}{}
	}
	require.Eventually(t, func() bool { return calls.Load() == 3 }, time.Second, 5*time.Millisecond)

	h.Stop()
	select {
	case <-src.closed:
	case <-time.After(time.Second):
		t.Fatal("source context not cancelled by Stop")
	}
}

func TestStopBlocksUntilExit(t *testing.T) {
	src := newChanSource()
	h, err := Start(src, func() {})
	require.NoError(t, err)

	h.Stop()
	select {
	case <-h.Done():
	default:
		t.Fatal("Stop returned before the loop exited")
	}
	h.Stop()
}

func TestStopNilHandle(t *testing.T) {
	var h *Handle
	assert.NotPanics(t, h.Stop)
}

func TestInitFailure(t *testing.T) {
	boom := errors.New("no display")
	src := &chanSource{err: boom}
	h, err := Start(src, func() {})
	assert.Nil(t, h)
	assert.ErrorIs(t, err, ErrInit)
	assert.ErrorIs(t, err, boom)
}

func TestCallbackPanicIsSwallowed(t *testing.T) {
	src := newChanSource()
	var calls atomic.Int32
	h, err := Start(src, func() {
		if calls.Add(1) == 1 {
			panic("first change explodes")
		}
	})
	require.NoError(t, err)
	defer h.Stop()

	src.ch <- struct{}{}
	src.ch <- struct{}{}
	require.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestSourceCloseEndsLoop(t *testing.T) {
	src := newChanSource()
	h, err := Start(src, func() {})
	require.NoError(t, err)

	close(src.ch)
	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatal("loop did not exit when the source closed")
	}
	h.Stop()
}
