// Package twilio adapts Twilio Programmable Video to the coordinator's
// RoomProvider contract and issues client credentials.
package twilio

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/twilio/twilio-go"
	twclient "github.com/twilio/twilio-go/client"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	twilioVideo "github.com/twilio/twilio-go/rest/video/v1"

	"github.com/dkeye/Breakout/internal/config"
	"github.com/dkeye/Breakout/internal/core"
	"github.com/dkeye/Breakout/internal/domain"
)

var _ core.RoomProvider = (*Provider)(nil)

// videoRooms is the slice of the Video v1 API the provider uses.
type videoRooms interface {
	CreateRoom(params *twilioVideo.CreateRoomParams) (*twilioVideo.VideoV1Room, error)
	ListRoom(params *twilioVideo.ListRoomParams) ([]twilioVideo.VideoV1Room, error)
}

type tokenAPI interface {
	CreateToken(params *twilioApi.CreateTokenParams) (*twilioApi.ApiV2010Token, error)
}

type Provider struct {
	rooms    videoRooms
	nts      tokenAPI
	roomType string
}

func NewRestClient(cfg config.Twilio) *twilio.RestClient {
	return twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
}

func NewProvider(rc *twilio.RestClient, cfg config.Twilio) *Provider {
	return &Provider{rooms: rc.VideoV1, nts: rc.Api, roomType: cfg.RoomType}
}

func (p *Provider) CreateRoom(ctx context.Context, name domain.RoomName) (domain.ProviderRoom, error) {
	if err := ctx.Err(); err != nil {
		return domain.ProviderRoom{}, err
	}
	params := &twilioVideo.CreateRoomParams{}
	if name != "" {
		params.SetUniqueName(string(name))
	}
	if p.roomType != "" {
		params.SetType(p.roomType)
	}

	room, err := p.rooms.CreateRoom(params)
	if err != nil {
		return domain.ProviderRoom{}, wrapRestErr("create room", err)
	}
	out := toProviderRoom(*room)
	if out.ID == "" {
		return domain.ProviderRoom{}, fmt.Errorf("create room: empty sid: %w", domain.ErrProvider)
	}
	log.Info().Str("module", "adapters.twilio").Str("room", string(out.ID)).Str("name", string(out.Name)).Msg("room created")
	return out, nil
}

func (p *Provider) ListRooms(ctx context.Context, status domain.RoomStatus, limit int) ([]domain.ProviderRoom, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	params := &twilioVideo.ListRoomParams{}
	params.SetStatus(string(status))
	if limit > 0 {
		params.SetLimit(limit)
	}

	rooms, err := p.rooms.ListRoom(params)
	if err != nil {
		return nil, wrapRestErr("list rooms", err)
	}
	out := make([]domain.ProviderRoom, 0, len(rooms))
	for _, r := range rooms {
		pr := toProviderRoom(r)
		if pr.ID == "" {
			continue
		}
		out = append(out, pr)
	}
	log.Debug().Str("module", "adapters.twilio").Str("status", string(status)).Int("count", len(out)).Msg("rooms listed")
	return out, nil
}

func toProviderRoom(r twilioVideo.VideoV1Room) domain.ProviderRoom {
	var out domain.ProviderRoom
	if r.Sid != nil {
		out.ID = domain.RoomID(*r.Sid)
	}
	if r.UniqueName != nil {
		out.Name = domain.RoomName(*r.UniqueName)
	}
	if r.Status != nil {
		out.Status = domain.RoomStatus(*r.Status)
	}
	return out
}

func wrapRestErr(op string, err error) error {
	var rest *twclient.TwilioRestError
	if errors.As(err, &rest) {
		return fmt.Errorf("%s: twilio %d (http %d): %s: %w", op, rest.Code, rest.Status, rest.Message, domain.ErrProvider)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrProvider, err)
}
