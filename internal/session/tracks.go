package session

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Breakout/internal/domain"
)

type TrackID string

type EventKind int

const (
	TrackSubscribed EventKind = iota + 1
	TrackUnsubscribed
	ParticipantDisconnected
)

func (k EventKind) String() string {
	switch k {
	case TrackSubscribed:
		return "track_subscribed"
	case TrackUnsubscribed:
		return "track_unsubscribed"
	case ParticipantDisconnected:
		return "participant_disconnected"
	}
	return "unknown"
}

// TrackEvent is a remote participant change reported by a room connection.
// Track is empty for ParticipantDisconnected.
type TrackEvent struct {
	Kind        EventKind
	Participant domain.Identity
	Track       TrackID
}

// Surface renders remote tracks.
type Surface interface {
	Attach(p domain.Identity, t TrackID)
	Detach(p domain.Identity, t TrackID)
}

type nopSurface struct{}

func (nopSurface) Attach(domain.Identity, TrackID) {}
func (nopSurface) Detach(domain.Identity, TrackID) {}

// Participants mirrors the remote tracks of the current room. Events carry the
// epoch of the connection that produced them; events from an older epoch are
// dropped so nothing from a left room is rendered.
type Participants struct {
	mu      sync.Mutex
	epoch   uint64
	tracks  map[domain.Identity]map[TrackID]struct{}
	surface Surface
}

func NewParticipants(surface Surface) *Participants {
	if surface == nil {
		surface = nopSurface{}
	}
	return &Participants{
		tracks:  make(map[domain.Identity]map[TrackID]struct{}),
		surface: surface,
	}
}

func (p *Participants) Apply(epoch uint64, ev TrackEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if epoch != p.epoch {
		log.Debug().Str("module", "session.tracks").Str("event", ev.Kind.String()).Uint64("epoch", epoch).Msg("stale event ignored")
		return
	}

	switch ev.Kind {
	case TrackSubscribed:
		set, ok := p.tracks[ev.Participant]
		if !ok {
			set = make(map[TrackID]struct{})
			p.tracks[ev.Participant] = set
		}
		if _, dup := set[ev.Track]; dup {
			return
		}
		set[ev.Track] = struct{}{}
		p.surface.Attach(ev.Participant, ev.Track)

	case TrackUnsubscribed:
		set := p.tracks[ev.Participant]
		if _, ok := set[ev.Track]; !ok {
			return
		}
		delete(set, ev.Track)
		if len(set) == 0 {
			delete(p.tracks, ev.Participant)
		}
		p.surface.Detach(ev.Participant, ev.Track)

	case ParticipantDisconnected:
		for t := range p.tracks[ev.Participant] {
			p.surface.Detach(ev.Participant, t)
		}
		delete(p.tracks, ev.Participant)
	}
}

// Reset detaches everything and starts a new epoch.
func (p *Participants) Reset() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, set := range p.tracks {
		for t := range set {
			p.surface.Detach(id, t)
		}
	}
	clear(p.tracks)
	p.epoch++
	return p.epoch
}

func (p *Participants) Tracks(id domain.Identity) []TrackID {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]TrackID, 0, len(p.tracks[id]))
	for t := range p.tracks[id] {
		out = append(out, t)
	}
	return out
}

func (p *Participants) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.tracks)
}
