package clip

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func closedWithin(t *testing.T, ch <-chan struct{}, d time.Duration) {
	t.Helper()
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, d, 5*time.Millisecond)
}

func TestMergeDrainsUnreadSources(t *testing.T) {
	src := make(chan []byte)
	sent := make(chan struct{})
	go func() {
		defer close(sent)
		for i := 0; i < 3; i++ {
			src <- []byte{byte(i)}
		}
		close(src)
	}()

	out := merge(nil, src)
	select {
	case <-sent:
	case <-time.After(time.Second):
		t.Fatal("sender blocked with nobody reading the merged channel")
	}
	closedWithin(t, out, time.Second)
}

func TestMergeCoalescesAndFilters(t *testing.T) {
	a := make(chan struct{}, 4)
	b := make(chan struct{}, 4)
	for i := 0; i < 4; i++ {
		a <- struct{}{}
		b <- struct{}{}
	}
	close(a)
	close(b)

	out := merge(func() bool { return false }, a, b)
	_, ok := <-out
	assert.False(t, ok, "rejected values are not forwarded")

	c := make(chan struct{}, 4)
	for i := 0; i < 4; i++ {
		c <- struct{}{}
	}
	close(c)
	out = merge(nil, c)
	time.Sleep(20 * time.Millisecond)
	n := 0
	for range out {
		n++
	}
	assert.Equal(t, 1, n, "a burst collapses into one wake-up")
}
