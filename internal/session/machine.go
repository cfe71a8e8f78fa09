// Package session drives a single client's presence across a room hierarchy.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Breakout/internal/domain"
)

var (
	ErrAlreadyConnected = errors.New("session already connected")
	ErrNoHomeRoom       = errors.New("no home main room recorded")
	ErrEmptyRoom        = errors.New("room id is empty")
)

type State int

const (
	Disconnected State = iota
	Connected
)

func (s State) String() string {
	if s == Connected {
		return "connected"
	}
	return "disconnected"
}

// Conn is one live connection to a provider room.
type Conn interface {
	PublishLocal(ctx context.Context) error
	Disconnect(ctx context.Context) error
}

// Connector opens room connections. onEvent may be called from any goroutine
// until Disconnect returns.
type Connector interface {
	Connect(ctx context.Context, room domain.RoomID, onEvent func(TrackEvent)) (Conn, error)
}

// Target is a room to join. An empty MainRoomID, or one equal to RoomID,
// marks RoomID as a main room.
type Target struct {
	RoomID     domain.RoomID
	MainRoomID domain.RoomID
}

func (t Target) home() domain.RoomID {
	if t.MainRoomID == "" {
		return t.RoomID
	}
	return t.MainRoomID
}

type Status struct {
	State State
	Room  domain.RoomID
	Home  domain.RoomID
}

// Machine serialises join, switch and leave. No operation overlaps another.
type Machine struct {
	mu        sync.Mutex
	connector Connector
	remote    *Participants

	state State
	room  domain.RoomID
	home  domain.RoomID
	conn  Conn
}

func NewMachine(connector Connector, surface Surface) *Machine {
	return &Machine{
		connector: connector,
		remote:    NewParticipants(surface),
	}
}

func (m *Machine) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Status{State: m.state, Room: m.room, Home: m.home}
}

func (m *Machine) Remote() *Participants { return m.remote }

func (m *Machine) Join(ctx context.Context, t Target) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.join(ctx, t)
}

func (m *Machine) join(ctx context.Context, t Target) error {
	if m.state != Disconnected {
		return fmt.Errorf("join %s: %w (in %s)", t.RoomID, ErrAlreadyConnected, m.room)
	}
	if t.RoomID == "" {
		return ErrEmptyRoom
	}

	epoch := m.remote.Reset()
	conn, err := m.connector.Connect(ctx, t.RoomID, func(ev TrackEvent) {
		m.remote.Apply(epoch, ev)
	})
	if err != nil {
		m.remote.Reset()
		return fmt.Errorf("connect %s: %w", t.RoomID, err)
	}
	if err := conn.PublishLocal(ctx); err != nil {
		if derr := conn.Disconnect(context.WithoutCancel(ctx)); derr != nil {
			log.Warn().Err(derr).Str("module", "session.machine").Str("room", string(t.RoomID)).Msg("disconnect after failed publish")
		}
		m.remote.Reset()
		return fmt.Errorf("publish local media in %s: %w", t.RoomID, err)
	}

	m.state = Connected
	m.conn = conn
	m.room = t.RoomID
	m.home = t.home()
	log.Info().Str("module", "session.machine").Str("room", string(m.room)).Str("home", string(m.home)).Msg("joined")
	return nil
}

// Leave ends the session: it disconnects and forgets the home room. It is a
// no-op when already disconnected. The session ends up Disconnected even
// when the provider disconnect reports an error.
func (m *Machine) Leave(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.home = ""
	return m.leave(ctx)
}

// leave disconnects but keeps the home room, so a switch that fails to
// join can still return to it.

func (m *Machine) leave(ctx context.Context) error {
	if m.state == Disconnected {
		return nil
	}
	room, conn := m.room, m.conn
	m.state = Disconnected
	m.conn = nil
	m.room = ""

	err := conn.Disconnect(ctx)
	m.remote.Reset()
	if err != nil {
		log.Warn().Err(err).Str("module", "session.machine").Str("room", string(room)).Msg("disconnect")
		return fmt.Errorf("leave %s: %w", room, err)
	}
	log.Info().Str("module", "session.machine").Str("room", string(room)).Msg("left")
	return nil
}

// SwitchRoom leaves the current room and only then joins the target. With
// returnToMain the target is the recorded home main room and targetID is
// ignored. Other targets are joined as breakouts of the home room.
func (m *Machine) SwitchRoom(ctx context.Context, targetID domain.RoomID, returnToMain bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	home := m.home
	if home == "" {
		home = targetID
	}
	target := Target{RoomID: targetID, MainRoomID: home}
	if returnToMain {
		if m.home == "" {
			return ErrNoHomeRoom
		}
		target = Target{RoomID: m.home}
	}
	if target.RoomID == "" {
		return ErrEmptyRoom
	}

	if err := m.leave(ctx); err != nil {
		log.Warn().Err(err).Str("module", "session.machine").Msg("switch continues after leave error")
	}
	return m.join(ctx, target)
}
