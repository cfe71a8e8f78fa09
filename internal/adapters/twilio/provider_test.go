package twilio

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	twclient "github.com/twilio/twilio-go/client"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	twilioVideo "github.com/twilio/twilio-go/rest/video/v1"

	"github.com/dkeye/Breakout/internal/domain"
)

type fakeRooms struct {
	created []*twilioVideo.CreateRoomParams
	listed  []*twilioVideo.ListRoomParams
	room    *twilioVideo.VideoV1Room
	rooms   []twilioVideo.VideoV1Room
	err     error
}

func (f *fakeRooms) CreateRoom(p *twilioVideo.CreateRoomParams) (*twilioVideo.VideoV1Room, error) {
	f.created = append(f.created, p)
	return f.room, f.err
}

func (f *fakeRooms) ListRoom(p *twilioVideo.ListRoomParams) ([]twilioVideo.VideoV1Room, error) {
	f.listed = append(f.listed, p)
	return f.rooms, f.err
}

type fakeNTS struct {
	token *twilioApi.ApiV2010Token
}

func (f *fakeNTS) CreateToken(*twilioApi.CreateTokenParams) (*twilioApi.ApiV2010Token, error) {
	return f.token, nil
}

func strp(s string) *string { return &s }

func TestCreateRoom(t *testing.T) {
	f := &fakeRooms{room: &twilioVideo.VideoV1Room{Sid: strp("RM1"), UniqueName: strp("Standup"), Status: strp("in-progress")}}
	p := &Provider{rooms: f, roomType: "group"}

	got, err := p.CreateRoom(context.Background(), "Standup")
	require.NoError(t, err)
	assert.Equal(t, domain.ProviderRoom{ID: "RM1", Name: "Standup", Status: domain.StatusInProgress}, got)
	require.Len(t, f.created, 1)
	require.NotNil(t, f.created[0].UniqueName)
	assert.Equal(t, "Standup", *f.created[0].UniqueName)
	assert.Equal(t, "group", *f.created[0].Type)
}

func TestCreateRoomWithoutNameLeavesNamingToTwilio(t *testing.T) {
	f := &fakeRooms{room: &twilioVideo.VideoV1Room{Sid: strp("RM2"), UniqueName: strp("RM2")}}
	p := &Provider{rooms: f}

	_, err := p.CreateRoom(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, f.created[0].UniqueName)
}

func TestCreateRoomRestError(t *testing.T) {
	f := &fakeRooms{err: &twclient.TwilioRestError{Code: 53113, Status: 400, Message: "Room exists"}}
	p := &Provider{rooms: f}

	_, err := p.CreateRoom(context.Background(), "dup")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProvider)
	assert.Contains(t, err.Error(), "53113")
}

func TestListRooms(t *testing.T) {
	f := &fakeRooms{rooms: []twilioVideo.VideoV1Room{
		{Sid: strp("RM1"), UniqueName: strp("Standup"), Status: strp("in-progress")},
		{UniqueName: strp("no sid")},
	}}
	p := &Provider{rooms: f}

	got, err := p.ListRooms(context.Background(), domain.StatusInProgress, 20)
	require.NoError(t, err)
	assert.Equal(t, []domain.ProviderRoom{{ID: "RM1", Name: "Standup", Status: domain.StatusInProgress}}, got)
	require.Len(t, f.listed, 1)
	assert.Equal(t, "in-progress", *f.listed[0].Status)
	assert.Equal(t, 20, *f.listed[0].Limit)
}

func TestListRoomsUnavailable(t *testing.T) {
	p := &Provider{rooms: &fakeRooms{err: errors.New("dial tcp: timeout")}}
	_, err := p.ListRooms(context.Background(), domain.StatusInProgress, 20)
	assert.ErrorIs(t, err, domain.ErrProvider)
}

func TestICEServers(t *testing.T) {
	servers := []twilioApi.ApiV2010AccountTokenIceServers{
		{Url: "stun:global.stun.twilio.com:3478"},
		{Url: "turn:global.turn.twilio.com:3478?transport=udp", Username: "u", Credential: "c"},
	}
	p := &Provider{nts: &fakeNTS{token: &twilioApi.ApiV2010Token{IceServers: &servers}}}

	got, err := p.ICEServers(context.Background(), 3600)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"stun:global.stun.twilio.com:3478"}, got[0].URLs)
	assert.Equal(t, "u", got[1].Username)
	assert.Equal(t, "c", got[1].Credential)
}

func TestTokenIssuerRequiresKey(t *testing.T) {
	_, err := (&TokenIssuer{}).Issue("alice", "RM1")
	assert.ErrorIs(t, err, ErrTokenNotConfigured)
}
