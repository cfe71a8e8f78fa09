package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Breakout/internal/domain"
)

type TokenIssuer interface {
	Issue(identity domain.Identity, room domain.RoomID) (string, error)
}

type ICESource interface {
	ICEServers(ctx context.Context, ttl int) ([]webrtc.ICEServer, error)
}

type createRoomRequest struct {
	Name string `json:"name"`
}

type tokenRequest struct {
	Room string `json:"room" binding:"required"`
}

type roomResponse struct {
	ID          domain.RoomID   `json:"id"`
	Name        domain.RoomName `json:"name"`
	BreakoutIDs []domain.RoomID `json:"breakout_ids"`
}

type errorResponse struct {
	Error  string        `json:"error"`
	Kind   string        `json:"kind,omitempty"`
	Orphan domain.RoomID `json:"orphan_room_id,omitempty"`
}

type roomHandlers struct {
	deps   Deps
	iceTTL int
}

func toRoomResponse(m domain.MainRoom) roomResponse {
	ids := m.BreakoutIDs
	if ids == nil {
		ids = []domain.RoomID{}
	}
	return roomResponse{ID: m.ID, Name: m.Name, BreakoutIDs: ids}
}

func (h *roomHandlers) identity(c *gin.Context) domain.Identity {
	return domain.Identity(c.GetString(clientTokenKey))
}

func (h *roomHandlers) limited(next gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !h.deps.Limiter.Allow(h.identity(c)) {
			c.JSON(http.StatusTooManyRequests, errorResponse{Error: "too many rooms created, slow down"})
			return
		}
		next(c)
	}
}

// bindName accepts an empty or missing body as "no name".
func bindName(c *gin.Context) (domain.RoomName, bool) {
	var req createRoomRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "bad_payload"})
			return "", false
		}
	}
	return domain.RoomName(req.Name), true
}

func (h *roomHandlers) createMain(c *gin.Context) {
	name, ok := bindName(c)
	if !ok {
		return
	}
	room, err := h.deps.Coordinator.CreateMainRoom(c.Request.Context(), name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toRoomResponse(room))
}

func (h *roomHandlers) createBreakout(c *gin.Context) {
	name, ok := bindName(c)
	if !ok {
		return
	}
	parent, err := h.deps.Coordinator.CreateBreakoutRoom(c.Request.Context(), name, domain.RoomID(c.Param("id")))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toRoomResponse(parent))
}

func (h *roomHandlers) listActive(c *gin.Context) {
	views, err := h.deps.Coordinator.ListActiveRooms(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rooms": views})
}

func (h *roomHandlers) issueToken(c *gin.Context) {
	if h.deps.Tokens == nil {
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "tokens disabled"})
		return
	}
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "room is required"})
		return
	}
	identity := h.identity(c)
	token, err := h.deps.Tokens.Issue(identity, domain.RoomID(req.Room))
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Str("room", req.Room).Msg("issue token")
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "could not issue token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "identity": identity, "room": req.Room})
}

func (h *roomHandlers) iceServers(c *gin.Context) {
	if h.deps.ICE == nil {
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "ice servers disabled"})
		return
	}
	servers, err := h.deps.ICE.ICEServers(c.Request.Context(), h.iceTTL)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"iceServers": servers})
}

func statusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindProvider:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeError(c *gin.Context, err error) {
	kind := domain.KindOf(err, domain.KindStore)
	resp := errorResponse{Error: err.Error(), Kind: kind.String()}
	if orphan, ok := domain.OrphanOf(err); ok {
		resp.Orphan = orphan
	}
	if errors.Is(err, context.Canceled) {
		log.Info().Str("module", "adapters.http").Str("path", c.FullPath()).Msg("request canceled")
	} else {
		log.Error().Err(err).Str("module", "adapters.http").Str("path", c.FullPath()).Msg("request failed")
	}
	c.JSON(statusFor(kind), resp)
}
