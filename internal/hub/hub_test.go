package hub

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmitFansOut(t *testing.T) {
	h := New()
	a := NewChanPeer("a", 4)
	b := NewChanPeer("b", 4)
	h.Register(a)
	h.Register(b)
	assert.Equal(t, []string{"a", "b"}, h.Peers())

	h.Emit("clipboard_change")
	for _, p := range []*ChanPeer{a, b} {
		select {
		case ev := <-p.C:
			assert.Equal(t, "clipboard_change", ev.Name)
			assert.False(t, ev.At.IsZero())
		default:
			t.Fatalf("peer %s got no event", p.ID())
		}
	}
}

func TestUnregister(t *testing.T) {
	h := New()
	a := NewChanPeer("a", 1)
	h.Register(a)
	h.Unregister(a)
	h.Emit("clipboard_change")
	assert.Empty(t, h.Peers())
	assert.Len(t, a.C, 0)
}

func TestUnregisterKeepsReplacement(t *testing.T) {
	h := New()
	old := NewChanPeer("same", 1)
	cur := NewChanPeer("same", 1)
	h.Register(old)
	h.Register(cur)
	h.Unregister(old)
	assert.Equal(t, []string{"same"}, h.Peers())
}

func TestFullPeerDropsWithoutBlocking(t *testing.T) {
	h := New()
	p := NewChanPeer("slow", 1)
	h.Register(p)
	h.Emit("one")
	h.Emit("two")
	assert.Len(t, p.C, 1)
	assert.Equal(t, "one", (<-p.C).Name)
}
