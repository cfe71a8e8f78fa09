package client

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Breakout/internal/domain"
	"github.com/dkeye/Breakout/internal/session"
)

// streamMirror turns remote track lifecycles of one peer connection into
// session track events. A track is unsubscribed when its RTP stream ends;
// every remaining participant is disconnected when the peer connection
// closes or fails.
type streamMirror struct {
	mu      sync.Mutex
	onEvent func(session.TrackEvent)
	streams map[domain.Identity]map[session.TrackID]struct{}
}

func newStreamMirror(onEvent func(session.TrackEvent)) *streamMirror {
	if onEvent == nil {
		onEvent = func(session.TrackEvent) {}
	}
	return &streamMirror{
		onEvent: onEvent,
		streams: make(map[domain.Identity]map[session.TrackID]struct{}),
	}
}

func (m *streamMirror) subscribed(p domain.Identity, t session.TrackID) {
	m.mu.Lock()
	set, ok := m.streams[p]
	if !ok {
		set = make(map[session.TrackID]struct{})
		m.streams[p] = set
	}
	set[t] = struct{}{}
	m.mu.Unlock()

	m.onEvent(session.TrackEvent{Kind: session.TrackSubscribed, Participant: p, Track: t})
}

// follow reads until read fails, then reports the track as unsubscribed.
func (m *streamMirror) follow(p domain.Identity, t session.TrackID, read func() error) {
	var err error
	for err == nil {
		err = read()
	}
	log.Debug().Err(err).Str("module", "client.mirror").Str("participant", string(p)).Str("track_id", string(t)).Msg("remote track ended")
	m.unsubscribed(p, t)
}

func (m *streamMirror) unsubscribed(p domain.Identity, t session.TrackID) {
	m.mu.Lock()
	set := m.streams[p]
	_, ok := set[t]
	if ok {
		delete(set, t)
		if len(set) == 0 {
			delete(m.streams, p)
		}
	}
	m.mu.Unlock()

	if ok {
		m.onEvent(session.TrackEvent{Kind: session.TrackUnsubscribed, Participant: p, Track: t})
	}
}

func (m *streamMirror) closeAll() {
	m.mu.Lock()
	gone := make([]domain.Identity, 0, len(m.streams))
	for p := range m.streams {
		gone = append(gone, p)
	}
	clear(m.streams)
	m.mu.Unlock()

	for _, p := range gone {
		m.onEvent(session.TrackEvent{Kind: session.ParticipantDisconnected, Participant: p})
	}
}
