package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/voicechat/internal/api/handlers"
	"github.com/yoockh/voicechat/internal/api/middleware"
	"github.com/yoockh/voicechat/internal/services"
)

type Deps struct {
	Sessions services.SessionService

	Chat    *handlers.ChatHandler
	Session *handlers.SessionHandler
	WS      *handlers.WSHandler // nil without Redis

	Metrics http.Handler // nil disables /metrics
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics))
	}

	// Start never reuses the caller's session.
	r.POST("/session/start", d.Session.Start)

	s := r.Group("/")
	s.Use(middleware.Session(d.Sessions))

	s.POST("/chat", d.Chat.Chat)

	s.POST("/session/reset", d.Session.Reset)
	s.GET("/session", d.Session.Get)
	s.GET("/session/transcript", d.Session.Transcript)
	s.POST("/session/end", d.Session.End)

	if d.WS != nil {
		r.GET("/ws/session/:session_id", d.WS.SessionWS)
	}
}
