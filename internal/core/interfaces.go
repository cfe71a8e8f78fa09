package core

import (
	"context"

	"github.com/dkeye/Breakout/internal/domain"
)

//go:generate mockgen -destination=mocks/provider_mock.go -package=mocks github.com/dkeye/Breakout/internal/core RoomProvider

// RoomProvider is the external video service. It is authoritative for
// whether a room is live and knows nothing about parents or children.
type RoomProvider interface {
	CreateRoom(ctx context.Context, name domain.RoomName) (domain.ProviderRoom, error)
	ListRooms(ctx context.Context, status domain.RoomStatus, limit int) ([]domain.ProviderRoom, error)
}

// HierarchyStore keeps one document per main room. It is authoritative for
// topology and knows nothing about liveness.
//
// Implementations return errors wrapping domain.ErrNotFound when a document
// is missing and domain.ErrConflict when a revision is stale or an insert
// collides with an existing document.
type HierarchyStore interface {
	Insert(ctx context.Context, room domain.MainRoom) (domain.Revision, error)
	Get(ctx context.Context, id domain.RoomID) (domain.MainRoom, domain.Revision, error)
	Put(ctx context.Context, room domain.MainRoom, rev domain.Revision) (domain.Revision, error)
	ListAll(ctx context.Context) ([]domain.MainRoom, error)
}

// Notifier tells connected clients that room topology changed.
// Fire-and-forget: no payload, no acknowledgement.
type Notifier interface {
	Broadcast(event string)
}

const (
	EventMainRoomCreated     = "main_room_created"
	EventBreakoutRoomCreated = "breakout_room_created"
)

// NopNotifier drops every event.
type NopNotifier struct{}

func (NopNotifier) Broadcast(string) {}
