// Package domain contains entities without logic, just meta-data
package domain

import (
	"errors"
	"slices"
	"time"
)

const MaxRoomNameLen = 128

var ErrRoomNameTooLong = errors.New("room name too long")

type (
	RoomID   string
	RoomName string
	// Revision is the store's opaque concurrency token for a MainRoom document.
	Revision string
)

// RoomStatus mirrors the provider's lifecycle states.
type RoomStatus string

const (
	StatusInProgress RoomStatus = "in-progress"
	StatusCompleted  RoomStatus = "completed"
	StatusFailed     RoomStatus = "failed"
)

// MainRoom is the hierarchy document. BreakoutIDs keeps creation order.
type MainRoom struct {
	ID          RoomID    `json:"id"`
	Name        RoomName  `json:"name"`
	Revision    Revision  `json:"revision,omitempty"`
	BreakoutIDs []RoomID  `json:"breakout_ids"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewMainRoom(id RoomID, name RoomName) MainRoom {
	return MainRoom{ID: id, Name: name, BreakoutIDs: []RoomID{}, CreatedAt: time.Now().UTC()}
}

func (m MainRoom) HasBreakout(id RoomID) bool {
	return slices.Contains(m.BreakoutIDs, id)
}

// AddBreakout appends id unless it is already present and reports whether it did.
func (m *MainRoom) AddBreakout(id RoomID) bool {
	if m.HasBreakout(id) {
		return false
	}
	m.BreakoutIDs = append(m.BreakoutIDs, id)
	return true
}

// Clone returns a copy that shares no slice memory with m.
func (m MainRoom) Clone() MainRoom {
	out := m
	out.BreakoutIDs = slices.Clone(m.BreakoutIDs)
	if out.BreakoutIDs == nil {
		out.BreakoutIDs = []RoomID{}
	}
	return out
}

type BreakoutRoom struct {
	ID   RoomID   `json:"id"`
	Name RoomName `json:"name"`
}

// ProviderRoom is what the video provider reports about a room.
type ProviderRoom struct {
	ID     RoomID
	Name   RoomName
	Status RoomStatus
}

// LiveRoomView is a MainRoom that is in progress right now together with
// its breakouts that are also in progress. Never persisted.
type LiveRoomView struct {
	ID        RoomID         `json:"id"`
	Name      RoomName       `json:"name"`
	Breakouts []BreakoutRoom `json:"breakouts"`
}

func ValidateRoomName(name string) error {
	if len(name) > MaxRoomNameLen {
		return ErrRoomNameTooLong
	}
	return nil
}
