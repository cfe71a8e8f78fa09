package store

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/dkeye/Breakout/internal/core"
	"github.com/dkeye/Breakout/internal/domain"
	"github.com/rs/zerolog/log"
)

var _ core.HierarchyStore = (*Memory)(nil)

type memEntry struct {
	room domain.MainRoom
	rev  uint64
}

// Memory is a threadsafe in-process HierarchyStore for dev mode and tests.
type Memory struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*memEntry
	order []domain.RoomID
}

func NewMemory() *Memory {
	return &Memory{rooms: make(map[domain.RoomID]*memEntry)}
}

func (m *Memory) Insert(_ context.Context, room domain.MainRoom) (domain.Revision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[room.ID]; ok {
		return "", fmt.Errorf("insert %s: already exists: %w", room.ID, domain.ErrConflict)
	}
	e := &memEntry{room: room.Clone(), rev: 1}
	m.rooms[room.ID] = e
	m.order = append(m.order, room.ID)
	log.Debug().Str("module", "store.memory").Str("room", string(room.ID)).Msg("inserted main room")
	return formatRev(e.rev), nil
}

func (m *Memory) Get(_ context.Context, id domain.RoomID) (domain.MainRoom, domain.Revision, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.rooms[id]
	if !ok {
		return domain.MainRoom{}, "", fmt.Errorf("get %s: %w", id, domain.ErrNotFound)
	}
	return e.snapshot(), formatRev(e.rev), nil
}

func (m *Memory) Put(_ context.Context, room domain.MainRoom, rev domain.Revision) (domain.Revision, error) {
	want, err := parseRev(rev)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.rooms[room.ID]
	if !ok {
		return "", fmt.Errorf("put %s: %w", room.ID, domain.ErrNotFound)
	}
	if e.rev != want {
		return "", fmt.Errorf("put %s: have revision %d, got %d: %w", room.ID, e.rev, want, domain.ErrConflict)
	}
	e.room = room.Clone()
	e.rev++
	log.Debug().Str("module", "store.memory").Str("room", string(room.ID)).Uint64("rev", e.rev).Msg("updated main room")
	return formatRev(e.rev), nil
}

func (m *Memory) ListAll(_ context.Context) ([]domain.MainRoom, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.MainRoom, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.rooms[id].snapshot())
	}
	return out, nil
}

func (e *memEntry) snapshot() domain.MainRoom {
	r := e.room.Clone()
	r.Revision = formatRev(e.rev)
	return r
}

func formatRev(n uint64) domain.Revision {
	return domain.Revision(strconv.FormatUint(n, 10))
}

func parseRev(rev domain.Revision) (uint64, error) {
	n, err := strconv.ParseUint(string(rev), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad revision %q: %w", rev, domain.ErrConflict)
	}
	return n, nil
}
