package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/voicechat/internal/services"
	"github.com/yoockh/voicechat/internal/utils"
)

const (
	SessionHeader = "X-Session-Id"
	SessionCookie = "session_id"

	sessionKey      = "session_id"
	maxSessionIDLen = 128
)

// Session resolves the caller's session from the X-Session-Id header or the
// session_id cookie, starting a new session when neither is present.
func Session(sessions services.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(SessionHeader))
		if id == "" {
			if v, err := c.Cookie(SessionCookie); err == nil {
				id = strings.TrimSpace(v)
			}
		}

		if len(id) > maxSessionIDLen {
			c.AbortWithStatusJSON(http.StatusBadRequest, apiError{
				Code:    utils.CodeInvalidArgument,
				Message: "session id too long",
			})
			return
		}

		if id == "" {
			s, err := sessions.Start(c.Request.Context())
			if err != nil {
				_ = c.Error(err)
				c.AbortWithStatusJSON(utils.HTTPStatus(err), apiError{
					Code:    utils.CodeInternal,
					Message: "failed to start session",
				})
				return
			}
			id = s.SessionID
		}

		SetSession(c, id)
		c.Next()
	}
}

// SetSession binds id to the request and echoes it back to the client.
func SetSession(c *gin.Context, id string) {
	c.Set(sessionKey, id)
	c.Header(SessionHeader, id)
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, id, 0, "/", "", false, true)
}

func SessionID(c *gin.Context) string {
	if v, ok := c.Get(sessionKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

type apiError struct {
	Code    utils.Code `json:"code"`
	Message string     `json:"message"`
}
