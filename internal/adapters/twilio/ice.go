package twilio

import (
	"context"
	"fmt"
	"strings"

	"github.com/pion/webrtc/v4"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// ICEServers fetches short-lived STUN/TURN credentials from Twilio's
// Network Traversal Service.
func (p *Provider) ICEServers(ctx context.Context, ttl int) ([]webrtc.ICEServer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	params := &twilioApi.CreateTokenParams{}
	if ttl > 0 {
		params.Ttl = &ttl
	}
	token, err := p.nts.CreateToken(params)
	if err != nil {
		return nil, wrapRestErr("ice servers", err)
	}
	if token.IceServers == nil {
		return []webrtc.ICEServer{}, nil
	}

	out := make([]webrtc.ICEServer, 0, len(*token.IceServers))
	for _, s := range *token.IceServers {
		if s.Url == "" {
			continue
		}
		srv := webrtc.ICEServer{URLs: []string{s.Url}}
		if s.Username != "" {
			srv.Username = s.Username
			srv.Credential = s.Credential
			srv.CredentialType = webrtc.ICECredentialTypePassword
		}
		out = append(out, srv)
	}
	if err := validateICE(out); err != nil {
		return nil, err
	}
	return out, nil
}

func validateICE(servers []webrtc.ICEServer) error {
	for _, s := range servers {
		for _, u := range s.URLs {
			if !strings.HasPrefix(u, "stun:") && !strings.HasPrefix(u, "turn:") && !strings.HasPrefix(u, "turns:") {
				return fmt.Errorf("ice servers: unexpected url scheme %q", u)
			}
		}
	}
	return nil
}
