// Package hub fans clipboard events out to every subscribed host.
// It is transport-agnostic: peers register, receive events through a
// non-blocking Send, and the watcher publishes through Emit.
package hub

import (
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Event is one notification delivered to a peer.
type Event struct {
	Name string
	At   time.Time
}

// Peer is anything that can receive events from the hub.
type Peer interface {
	ID() string
	// Send delivers an event to the peer. Must be non-blocking.
	Send(Event)
}

// Hub routes events to all registered peers.
type Hub struct {
	mu    sync.RWMutex
	peers map[string]Peer
}

// New returns an empty Hub.
func New() *Hub {
	return &Hub{peers: make(map[string]Peer)}
}

// Register adds a peer. A peer registered under an existing ID replaces it.
func (h *Hub) Register(p Peer) {
	h.mu.Lock()
	h.peers[p.ID()] = p
	total := len(h.peers)
	h.mu.Unlock()

	slog.Info("event subscriber registered", "peer", p.ID(), "total", total)
}

// Unregister removes a peer from the hub.
func (h *Hub) Unregister(p Peer) {
	h.mu.Lock()
	if cur, ok := h.peers[p.ID()]; ok && cur == p {
		delete(h.peers, p.ID())
	}
	total := len(h.peers)
	h.mu.Unlock()

	slog.Info("event subscriber unregistered", "peer", p.ID(), "total", total)
}

// Emit publishes a named event to every peer.
func (h *Hub) Emit(name string) {
	h.Publish(Event{Name: name, At: time.Now()})
}

// Publish delivers ev to every peer.
func (h *Hub) Publish(ev Event) {
	h.mu.RLock()
	targets := make([]Peer, 0, len(h.peers))
	for _, p := range h.peers {
		targets = append(targets, p)
	}
	h.mu.RUnlock()

	slog.Debug("event", "name", ev.Name, "subscribers", len(targets))
	for _, p := range targets {
		p.Send(ev)
	}
}

// Peers returns the sorted IDs of all registered peers.
func (h *Hub) Peers() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.peers))
	for id := range h.peers {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// ── ChanPeer ──────────────────────────────────────────────────────────────

// ChanPeer is a Peer backed by a buffered channel. Events that arrive while
// the buffer is full are dropped.
type ChanPeer struct {
	id string
	C  chan Event
}

// NewChanPeer returns a ChanPeer with room for size pending events.
func NewChanPeer(id string, size int) *ChanPeer {
	return &ChanPeer{id: id, C: make(chan Event, size)}
}

func (p *ChanPeer) ID() string { return p.id }

func (p *ChanPeer) Send(ev Event) {
	select {
	case p.C <- ev:
	default:
		slog.Debug("subscriber channel full, dropping event", "peer", p.id, "event", ev.Name)
	}
}
