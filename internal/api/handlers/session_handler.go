package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/voicechat/internal/api/middleware"
	"github.com/yoockh/voicechat/internal/models"
	"github.com/yoockh/voicechat/internal/services"
)

type SessionHandler struct {
	svc services.SessionService
}

func NewSessionHandler(svc services.SessionService) *SessionHandler {
	return &SessionHandler{svc: svc}
}

type SessionResponse struct {
	SessionID       string `json:"session_id"`
	Status          string `json:"status"`
	CreatedAt       string `json:"created_at"`
	ResetAt         string `json:"reset_at,omitempty"`
	EndedAt         string `json:"ended_at,omitempty"`
	DurationSeconds int64  `json:"duration_seconds,omitempty"`
	TurnCount       *int   `json:"turn_count,omitempty"`
}

type TranscriptResponse struct {
	SessionID string        `json:"session_id"`
	Turns     []models.Turn `json:"turns"`
}

func toSessionResponse(s *models.Session) SessionResponse {
	out := SessionResponse{
		SessionID:       s.SessionID,
		Status:          s.Status,
		CreatedAt:       s.CreatedAt.Format(time.RFC3339),
		DurationSeconds: s.DurationSeconds,
	}
	if s.ResetAt != nil {
		out.ResetAt = s.ResetAt.Format(time.RFC3339)
	}
	if s.EndedAt != nil {
		out.EndedAt = s.EndedAt.Format(time.RFC3339)
	}
	return out
}

// Start always issues a fresh session, ignoring any id the client still holds.
func (h *SessionHandler) Start(c *gin.Context) {
	sess, err := h.svc.Start(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	middleware.SetSession(c, sess.SessionID)
	c.JSON(http.StatusOK, toSessionResponse(sess))
}

func (h *SessionHandler) Reset(c *gin.Context) {
	sessionID, ok := requireSessionID(c)
	if !ok {
		return
	}

	if err := h.svc.Reset(c.Request.Context(), sessionID); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"session_id": sessionID, "status": "reset"})
}

func (h *SessionHandler) Get(c *gin.Context) {
	sessionID, ok := requireSessionID(c)
	if !ok {
		return
	}

	sess, err := h.svc.Get(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	turns, err := h.svc.Transcript(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}

	out := toSessionResponse(sess)
	n := len(turns)
	out.TurnCount = &n
	c.JSON(http.StatusOK, out)
}

func (h *SessionHandler) Transcript(c *gin.Context) {
	sessionID, ok := requireSessionID(c)
	if !ok {
		return
	}

	turns, err := h.svc.Transcript(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, TranscriptResponse{SessionID: sessionID, Turns: turns})
}

func (h *SessionHandler) End(c *gin.Context) {
	sessionID, ok := requireSessionID(c)
	if !ok {
		return
	}

	ended, err := h.svc.End(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, toSessionResponse(ended))
}
