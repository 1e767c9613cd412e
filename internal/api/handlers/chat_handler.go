package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/voicechat/internal/models"
	"github.com/yoockh/voicechat/internal/services"
	"github.com/yoockh/voicechat/internal/utils"
)

const (
	audioFailurePrefix = "Failed to process audio: "

	// Room for text_input and multipart framing on top of the audio limit.
	formOverheadBytes = 1 << 20
	formMemoryBytes   = 32 << 20
)

type ChatHandler struct {
	svc           services.ChatService
	maxAudioBytes int64
}

// NewChatHandler returns a handler for POST /chat. maxAudioBytes <= 0 disables
// the upload size check.
func NewChatHandler(svc services.ChatService, maxAudioBytes int64) *ChatHandler {
	return &ChatHandler{svc: svc, maxAudioBytes: maxAudioBytes}
}

// Chat accepts multipart form fields text_input and audio_input and always
// answers with the ChatResult shape.
func (h *ChatHandler) Chat(c *gin.Context) {
	const op = "ChatHandler.Chat"

	sessionID, ok := requireSessionID(c)
	if !ok {
		return
	}

	if h.maxAudioBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxAudioBytes+formOverheadBytes)
	}

	err := c.Request.ParseMultipartForm(formMemoryBytes)
	var tooLarge *http.MaxBytesError
	switch {
	case err == nil, errors.Is(err, http.ErrNotMultipart):
	case errors.As(err, &tooLarge):
		h.writeResult(c, utils.E(utils.CodeTooLarge, op,
			fmt.Sprintf("%srequest exceeds %d bytes", audioFailurePrefix, tooLarge.Limit), err))
		return
	default:
		h.audioFailure(c, err)
		return
	}

	in := services.ChatInput{
		SessionID: sessionID,
		Text:      c.PostForm("text_input"),
	}

	fh, err := c.FormFile("audio_input")
	switch {
	case err == nil:
		if h.maxAudioBytes > 0 && fh.Size > h.maxAudioBytes {
			h.writeResult(c, utils.E(utils.CodeTooLarge, op,
				fmt.Sprintf("%saudio exceeds %d bytes", audioFailurePrefix, h.maxAudioBytes), nil))
			return
		}

		f, err := fh.Open()
		if err != nil {
			h.audioFailure(c, err)
			return
		}
		audio, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			h.audioFailure(c, err)
			return
		}

		in.HasAudio = true
		in.Audio = audio
		in.AudioContentType = fh.Header.Get("Content-Type")

	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		// text only

	default:
		h.audioFailure(c, err)
		return
	}

	res, err := h.svc.Chat(c.Request.Context(), in)
	if err != nil {
		h.writeResult(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// writeResult reports err in the ChatResult shape.
func (h *ChatHandler) writeResult(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(utils.HTTPStatus(err), models.ChatResult{Response: utils.Message(err)})
}

func (h *ChatHandler) audioFailure(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, models.ChatResult{
		Response: audioFailurePrefix + err.Error(),
	})
}
