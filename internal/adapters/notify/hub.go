// Package notify fans "room topology changed" hints out to connected clients.
package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Breakout/internal/core"
)

var _ core.Notifier = (*Hub)(nil)

type Event struct {
	Type string `json:"type"`
}

type HubOptions struct {
	QueueSize  int
	ReadLimit  int64
	PingPeriod time.Duration
}

func (o HubOptions) withDefaults() HubOptions {
	if o.QueueSize <= 0 {
		o.QueueSize = 32
	}
	if o.ReadLimit <= 0 {
		o.ReadLimit = 512
	}
	if o.PingPeriod <= 0 {
		o.PingPeriod = 54 * time.Second
	}
	return o
}

// Hub delivers each event at most once to every listener connected at the
// time it is dispatched. Broadcast never blocks.
type Hub struct {
	opts   HubOptions
	events chan string

	mu        sync.RWMutex
	listeners map[*wsListener]struct{}
}

func NewHub(opts HubOptions) *Hub {
	opts = opts.withDefaults()
	return &Hub{
		opts:      opts,
		events:    make(chan string, opts.QueueSize),
		listeners: make(map[*wsListener]struct{}),
	}
}

func (h *Hub) Broadcast(event string) {
	select {
	case h.events <- event:
	default:
		log.Warn().Str("module", "notify.hub").Str("event", event).Msg("event queue full, dropping")
	}
}

// Run dispatches queued events until ctx is done, then closes all listeners.
func (h *Hub) Run(ctx context.Context) {
	defer h.closeAll()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-h.events:
			h.dispatch(ev)
		}
	}
}

func (h *Hub) dispatch(event string) {
	frame, err := json.Marshal(Event{Type: event})
	if err != nil {
		log.Error().Err(err).Str("module", "notify.hub").Msg("marshal event")
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	sent, dropped := 0, 0
	for l := range h.listeners {
		if err := l.TrySend(frame); err != nil {
			dropped++
			continue
		}
		sent++
	}
	log.Debug().Str("module", "notify.hub").Str("event", event).Int("sent_to", sent).Int("dropped", dropped).Msg("event dispatched")
}

// Attach takes ownership of an upgraded connection and keeps it until the
// client goes away or ctx ends. Every connection is its own listener, so
// several tabs of one client each get every event; owner only labels logs.
func (h *Hub) Attach(ctx context.Context, owner string, conn *websocket.Conn) {
	l := newListener(owner, conn, h.opts.QueueSize)

	h.mu.Lock()
	h.listeners[l] = struct{}{}
	h.mu.Unlock()
	log.Info().Str("module", "notify.hub").Str("listener", owner).Msg("listener attached")

	ctx, cancel := context.WithCancel(ctx)
	go l.writePump(ctx, h.opts.PingPeriod)
	go l.readPump(h.opts.ReadLimit, h.opts.PingPeriod*10/9, func() {
		cancel()
		h.detach(l)
	})
}

func (h *Hub) detach(l *wsListener) {
	h.mu.Lock()
	delete(h.listeners, l)
	h.mu.Unlock()
	l.Close()
	log.Info().Str("module", "notify.hub").Str("listener", l.id).Msg("listener detached")
}

func (h *Hub) ListenerCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for l := range h.listeners {
		l.Close()
		delete(h.listeners, l)
	}
}
