// Package client talks to the breakout server over its HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/pion/webrtc/v4"

	"github.com/dkeye/Breakout/internal/domain"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status int
	Msg    string
	Kind   string
	Orphan domain.RoomID
}

func (e *APIError) Error() string {
	if e.Orphan != "" {
		return fmt.Sprintf("server %d: %s (orphan room %s)", e.Status, e.Msg, e.Orphan)
	}
	return fmt.Sprintf("server %d: %s", e.Status, e.Msg)
}

type Room struct {
	ID          domain.RoomID   `json:"id"`
	Name        domain.RoomName `json:"name"`
	BreakoutIDs []domain.RoomID `json:"breakout_ids"`
}

type Token struct {
	Token    string          `json:"token"`
	Identity domain.Identity `json:"identity"`
	Room     domain.RoomID   `json:"room"`
}

// API keeps the server-issued client token cookie across calls, so every
// call made through one API acts as the same identity.
type API struct {
	base *url.URL
	http *http.Client
}

func NewAPI(server string) (*API, error) {
	base, err := url.Parse(strings.TrimRight(server, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("server url %q: scheme must be http or https", server)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &API{base: base, http: &http.Client{Jar: jar, Timeout: 15 * time.Second}}, nil
}

func (a *API) CreateMainRoom(ctx context.Context, name domain.RoomName) (Room, error) {
	var out Room
	err := a.do(ctx, http.MethodPost, "/api/rooms", map[string]string{"name": string(name)}, &out)
	return out, err
}

func (a *API) CreateBreakoutRoom(ctx context.Context, name domain.RoomName, parent domain.RoomID) (Room, error) {
	var out Room
	path := "/api/rooms/" + url.PathEscape(string(parent)) + "/breakouts"
	err := a.do(ctx, http.MethodPost, path, map[string]string{"name": string(name)}, &out)
	return out, err
}

func (a *API) ListActiveRooms(ctx context.Context) ([]domain.LiveRoomView, error) {
	var out struct {
		Rooms []domain.LiveRoomView `json:"rooms"`
	}
	err := a.do(ctx, http.MethodGet, "/api/rooms/active", nil, &out)
	return out.Rooms, err
}

func (a *API) Token(ctx context.Context, room domain.RoomID) (Token, error) {
	var out Token
	err := a.do(ctx, http.MethodPost, "/api/token", map[string]string{"room": string(room)}, &out)
	return out, err
}

func (a *API) ICEServers(ctx context.Context) ([]webrtc.ICEServer, error) {
	var out struct {
		Servers []webrtc.ICEServer `json:"iceServers"`
	}
	err := a.do(ctx, http.MethodGet, "/api/ice-servers", nil, &out)
	return out.Servers, err
}

// EventsURL is the websocket address of the room notifier.
func (a *API) EventsURL() string {
	u := *a.base
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path += "/api/ws/rooms"
	return u.String()
}

func (a *API) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, a.base.String()+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e struct {
			Error  string        `json:"error"`
			Kind   string        `json:"kind"`
			Orphan domain.RoomID `json:"orphan_room_id"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Msg: e.Error, Kind: e.Kind, Orphan: e.Orphan}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
