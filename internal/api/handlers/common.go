package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/voicechat/internal/api/middleware"
	"github.com/yoockh/voicechat/internal/utils"
)

type APIError struct {
	Code    utils.Code `json:"code"`
	Message string     `json:"message"`
}

func writeError(c *gin.Context, err error) {
	_ = c.Error(err)
	status := utils.HTTPStatus(err)

	var ae *utils.AppError
	if errors.As(err, &ae) {
		c.JSON(status, APIError{
			Code:    ae.Code,
			Message: ae.Message,
		})
		return
	}

	c.JSON(status, APIError{
		Code:    utils.CodeInternal,
		Message: http.StatusText(status),
	})
}

func requireSessionID(c *gin.Context) (string, bool) {
	if id := middleware.SessionID(c); id != "" {
		return id, true
	}
	writeError(c, utils.E(utils.CodeInvalidArgument, "Session", "missing session", nil))
	return "", false
}
