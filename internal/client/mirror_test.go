package client

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/Breakout/internal/domain"
	"github.com/dkeye/Breakout/internal/session"
)

type surfaceLog struct {
	mu      sync.Mutex
	entries []string
}

func (s *surfaceLog) Attach(p domain.Identity, t session.TrackID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, "attach "+string(p)+"/"+string(t))
}

func (s *surfaceLog) Detach(p domain.Identity, t session.TrackID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, "detach "+string(p)+"/"+string(t))
}

func (s *surfaceLog) list() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.entries...)
}

func newMirrorInto(surface session.Surface) *streamMirror {
	parts := session.NewParticipants(surface)
	epoch := parts.Reset()
	return newStreamMirror(func(ev session.TrackEvent) { parts.Apply(epoch, ev) })
}

func TestMirrorDetachesWhenStreamEnds(t *testing.T) {
	surface := &surfaceLog{}
	m := newMirrorInto(surface)

	packets := make(chan struct{})
	m.subscribed("bob", "audio")
	done := make(chan struct{})
	go func() {
		m.follow("bob", "audio", func() error {
			if _, ok := <-packets; !ok {
				return io.EOF
			}
			return nil
		})
		close(done)
	}()

	packets <- struct{}{}
	assert.Equal(t, []string{"attach bob/audio"}, surface.list())

	close(packets)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("follow did not return after EOF")
	}
	assert.Equal(t, []string{"attach bob/audio", "detach bob/audio"}, surface.list())

	// closing afterwards has nothing left to report
	m.closeAll()
	assert.Len(t, surface.list(), 2)
}

func TestMirrorCloseDisconnectsParticipants(t *testing.T) {
	surface := &surfaceLog{}
	m := newMirrorInto(surface)
	m.subscribed("bob", "audio")
	m.subscribed("bob", "video")
	m.subscribed("carol", "audio")

	m.closeAll()
	m.unsubscribed("bob", "audio")

	assert.ElementsMatch(t, []string{
		"attach bob/audio", "attach bob/video", "attach carol/audio",
		"detach bob/audio", "detach bob/video", "detach carol/audio",
	}, surface.list())
}

func TestPeerConnDisconnectReportsRemaining(t *testing.T) {
	var events []session.TrackEvent
	m := newStreamMirror(func(ev session.TrackEvent) { events = append(events, ev) })
	m.subscribed("bob", "audio")

	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{})
	require.NoError(t, err)
	conn := &peerConn{pc: pc, room: "RM1", mirror: m}
	require.NoError(t, conn.Disconnect(t.Context()))

	require.Len(t, events, 2)
	assert.Equal(t, session.TrackEvent{Kind: session.ParticipantDisconnected, Participant: "bob"}, events[1])
}
