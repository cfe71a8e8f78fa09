package client

import (
	"context"
	"fmt"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Breakout/internal/domain"
	"github.com/dkeye/Breakout/internal/session"
)

var _ session.Connector = (*Connector)(nil)

// Connector prepares a room connection: a room-scoped access token plus a
// peer connection configured with the server's ICE servers. Exchanging
// media with the provider is left to the embedding application.
type Connector struct {
	api *API
}

func NewConnector(api *API) *Connector {
	return &Connector{api: api}
}

func (c *Connector) Connect(ctx context.Context, room domain.RoomID, onEvent func(session.TrackEvent)) (session.Conn, error) {
	token, err := c.api.Token(ctx, room)
	if err != nil {
		return nil, fmt.Errorf("fetch token: %w", err)
	}
	servers, err := c.api.ICEServers(ctx)
	if err != nil {
		log.Warn().Err(err).Str("module", "client.connector").Msg("no ice servers, using host candidates only")
		servers = nil
	}

	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{ICEServers: servers})
	if err != nil {
		return nil, err
	}
	mirror := newStreamMirror(onEvent)
	conn := &peerConn{pc: pc, room: room, token: token, mirror: mirror}

	pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		log.Info().
			Str("module", "client.connector").
			Str("room", string(room)).
			Str("kind", track.Kind().String()).
			Str("track_id", track.ID()).
			Str("stream_id", track.StreamID()).
			Msg("remote track")
		p, t := domain.Identity(track.StreamID()), session.TrackID(track.ID())
		mirror.subscribed(p, t)
		go mirror.follow(p, t, func() error {
			_, _, err := track.ReadRTP()
			return err
		})
	})
	pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		log.Info().Str("module", "client.connector").Str("room", string(room)).Str("peer_connection_state", s.String()).Msg("peer state")
		if s == webrtc.PeerConnectionStateFailed || s == webrtc.PeerConnectionStateClosed {
			mirror.closeAll()
		}
	})

	log.Info().Str("module", "client.connector").Str("room", string(room)).Str("identity", string(token.Identity)).Int("ice_servers", len(servers)).Msg("room connection prepared")
	return conn, nil
}

type peerConn struct {
	pc     *webrtc.PeerConnection
	room   domain.RoomID
	token  Token
	mirror *streamMirror
}

// PeerConnection and Token are what an embedding signaller needs to
// negotiate media with the provider.
func (c *peerConn) PeerConnection() *webrtc.PeerConnection { return c.pc }

func (c *peerConn) Token() Token { return c.token }

// PublishLocal adds the local microphone and camera tracks.
func (c *peerConn) PublishLocal(context.Context) error {
	stream := string(c.token.Identity)
	audio, err := webrtc.NewTrackLocalStaticSample(webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus}, "audio", stream)
	if err != nil {
		return err
	}
	video, err := webrtc.NewTrackLocalStaticSample(webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8}, "video", stream)
	if err != nil {
		return err
	}
	for _, t := range []webrtc.TrackLocal{audio, video} {
		if _, err := c.pc.AddTrack(t); err != nil {
			return fmt.Errorf("add %s track: %w", t.Kind(), err)
		}
	}
	return nil
}

func (c *peerConn) Disconnect(context.Context) error {
	defer c.mirror.closeAll()
	if err := c.pc.Close(); err != nil {
		log.Error().Err(err).Str("module", "client.connector").Str("room", string(c.room)).Msg("close error")
		return err
	}
	log.Info().Str("module", "client.connector").Str("room", string(c.room)).Msg("closed")
	return nil
}
