package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/Breakout/internal/domain"
	"github.com/dkeye/Breakout/internal/session"
)

type staticRooms []domain.LiveRoomView

func (r staticRooms) ListActiveRooms(context.Context) ([]domain.LiveRoomView, error) {
	return r, nil
}

type nopConn struct{}

func (nopConn) PublishLocal(context.Context) error { return nil }
func (nopConn) Disconnect(context.Context) error   { return nil }

type recordingConnector struct {
	rooms []domain.RoomID
}

func (c *recordingConnector) Connect(_ context.Context, room domain.RoomID, _ func(session.TrackEvent)) (session.Conn, error) {
	c.rooms = append(c.rooms, room)
	return nopConn{}, nil
}

func newTestShell() (*shell, *recordingConnector, *bytes.Buffer) {
	out := &bytes.Buffer{}
	conn := &recordingConnector{}
	return &shell{
		rooms:   staticRooms{{ID: "M1", Name: "Standup", Breakouts: []domain.BreakoutRoom{{ID: "B1", Name: "A"}}}},
		machine: session.NewMachine(conn, printSurface{out: out}),
		out:     out,
	}, conn, out
}

func TestShellSession(t *testing.T) {
	sh, conn, out := newTestShell()
	input := strings.Join([]string{
		"rooms",
		"join M1",
		"switch B1",
		"back",
		"leave",
		"quit",
	}, "\n")

	require.NoError(t, sh.run(context.Background(), strings.NewReader(input), &cliEnv{v: viper.New()}))
	assert.Equal(t, []domain.RoomID{"M1", "B1", "M1"}, conn.rooms)
	assert.Contains(t, out.String(), "└ B1\tA")
	assert.Contains(t, out.String(), "connected to B1 (home M1)")
	assert.Contains(t, out.String(), "disconnected (home -)")
}

func TestShellRejectsSecondJoin(t *testing.T) {
	sh, _, _ := newTestShell()
	ctx := context.Background()
	require.NoError(t, sh.exec(ctx, "join M1"))

	err := sh.exec(ctx, `join "B 1" M1`)
	assert.ErrorIs(t, err, session.ErrAlreadyConnected)
}

func TestShellUsageErrors(t *testing.T) {
	sh, _, _ := newTestShell()
	ctx := context.Background()
	assert.Error(t, sh.exec(ctx, "join"))
	assert.Error(t, sh.exec(ctx, "switch"))
	assert.ErrorIs(t, sh.exec(ctx, "back"), session.ErrNoHomeRoom)
	assert.Error(t, sh.exec(ctx, "dance"))
	assert.ErrorIs(t, sh.exec(ctx, "exit"), errQuit)
}
