package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParticipantsNeverAttachTwice(t *testing.T) {
	j := &journal{}
	p := NewParticipants(recordingSurface{log: j})
	epoch := p.Reset()

	ev := TrackEvent{Kind: TrackSubscribed, Participant: "alice", Track: "cam"}
	p.Apply(epoch, ev)
	p.Apply(epoch, ev)

	assert.Equal(t, []string{"attach alice/cam"}, j.list())
	assert.Equal(t, []TrackID{"cam"}, p.Tracks("alice"))
}

func TestParticipantsDetachOnUnsubscribe(t *testing.T) {
	j := &journal{}
	p := NewParticipants(recordingSurface{log: j})
	epoch := p.Reset()

	p.Apply(epoch, TrackEvent{Kind: TrackSubscribed, Participant: "alice", Track: "cam"})
	p.Apply(epoch, TrackEvent{Kind: TrackUnsubscribed, Participant: "alice", Track: "cam"})
	p.Apply(epoch, TrackEvent{Kind: TrackUnsubscribed, Participant: "alice", Track: "cam"})

	assert.Equal(t, []string{"attach alice/cam", "detach alice/cam"}, j.list())
	assert.Zero(t, p.Len())
}

func TestParticipantsDisconnectDetachesAll(t *testing.T) {
	j := &journal{}
	p := NewParticipants(recordingSurface{log: j})
	epoch := p.Reset()

	p.Apply(epoch, TrackEvent{Kind: TrackSubscribed, Participant: "alice", Track: "cam"})
	p.Apply(epoch, TrackEvent{Kind: TrackSubscribed, Participant: "alice", Track: "mic"})
	p.Apply(epoch, TrackEvent{Kind: TrackSubscribed, Participant: "bob", Track: "mic"})
	j.reset()

	p.Apply(epoch, TrackEvent{Kind: ParticipantDisconnected, Participant: "alice"})
	assert.ElementsMatch(t, []string{"detach alice/cam", "detach alice/mic"}, j.list())
	assert.Equal(t, 1, p.Len())
	assert.Empty(t, p.Tracks("alice"))
}

func TestParticipantsIgnoreStaleEpoch(t *testing.T) {
	p := NewParticipants(nil)
	old := p.Reset()
	p.Reset()

	p.Apply(old, TrackEvent{Kind: TrackSubscribed, Participant: "alice", Track: "cam"})
	assert.Zero(t, p.Len())
}
