package twilio

import (
	"errors"
	"time"

	"github.com/twilio/twilio-go/client/jwt"

	"github.com/dkeye/Breakout/internal/config"
	"github.com/dkeye/Breakout/internal/domain"
)

var ErrTokenNotConfigured = errors.New("twilio api key not configured")

// TokenIssuer mints Video access tokens scoped to a single room.
type TokenIssuer struct {
	accountSID string
	keySID     string
	keySecret  string
	ttl        time.Duration
}

func NewTokenIssuer(cfg config.Twilio) *TokenIssuer {
	return &TokenIssuer{
		accountSID: cfg.AccountSID,
		keySID:     cfg.APIKeySID,
		keySecret:  cfg.APIKeySecret,
		ttl:        cfg.TokenTTL,
	}
}

func (i *TokenIssuer) Issue(identity domain.Identity, room domain.RoomID) (string, error) {
	if i.accountSID == "" || i.keySID == "" || i.keySecret == "" {
		return "", ErrTokenNotConfigured
	}
	token := jwt.CreateAccessToken(jwt.AccessTokenParams{
		AccountSid:    i.accountSID,
		SigningKeySid: i.keySID,
		Secret:        i.keySecret,
		Identity:      string(identity),
		Ttl:           i.ttl.Seconds(),
	})
	token.AddGrant(&jwt.VideoGrant{Room: string(room)})
	return token.ToJwt()
}
