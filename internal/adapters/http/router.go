package http

import (
	"context"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Breakout/internal/adapters/notify"
	"github.com/dkeye/Breakout/internal/app"
	"github.com/dkeye/Breakout/internal/config"
	"github.com/dkeye/Breakout/internal/domain"
)

const clientTokenKey = "client_token"

func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if _, err := domain.ParseIdentity(token); err != nil {
			token = string(domain.NewIdentity())
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set(clientTokenKey, token)
		c.Next()
	}
}

// Deps are the collaborators the HTTP layer talks to.
type Deps struct {
	Coordinator *app.Coordinator
	Hub         *notify.Hub
	Tokens      TokenIssuer
	ICE         ICESource
	Limiter     *RoomRateLimiter
}

func SetupRouter(ctx context.Context, cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("BreakoutSessions", store))
	r.Use(ClientTokenMiddleware())

	if cfg.StaticPath != "" {
		r.Static("/static", cfg.StaticPath)
		r.GET("/", func(c *gin.Context) {
			c.File(cfg.StaticPath + "/index.html")
		})
	}
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	h := &roomHandlers{deps: deps, iceTTL: cfg.Twilio.ICETTL}
	api := r.Group("/api")
	api.GET("/rooms/active", h.listActive)
	api.POST("/rooms", h.limited(h.createMain))
	api.POST("/rooms/:id/breakouts", h.limited(h.createBreakout))
	api.POST("/token", h.issueToken)
	api.GET("/ice-servers", h.iceServers)

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	api.GET("/ws/rooms", func(c *gin.Context) {
		if deps.Hub == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "notifications disabled"})
			return
		}
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Error().Err(err).Str("module", "adapters.http").Msg("ws upgrade")
			return
		}
		deps.Hub.Attach(ctx, c.GetString(clientTokenKey), ws)
	})

	return r
}
