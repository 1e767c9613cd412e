package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/voicechat/internal/api/handlers"
	"github.com/yoockh/voicechat/internal/api/routes"
	"github.com/yoockh/voicechat/internal/models"
	"github.com/yoockh/voicechat/internal/providers/stt"
	"github.com/yoockh/voicechat/internal/providers/tts"
	"github.com/yoockh/voicechat/internal/repositories/memory"
	"github.com/yoockh/voicechat/internal/services"
)

type stubSTT struct {
	text string
	err  error
}

func (s *stubSTT) Transcribe(context.Context, []byte, stt.Options) (string, error) {
	return s.text, s.err
}

func (s *stubSTT) Close() error { return nil }

type stubLLM struct {
	reply string
	err   error

	mu       sync.Mutex
	messages []string
}

func (s *stubLLM) Chat(_ context.Context, _ []models.Turn, message string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, message)
	return s.reply, s.err
}

func (s *stubLLM) Close() error { return nil }

type stubTTS struct {
	audio []byte
	err   error
}

func (s *stubTTS) Synthesize(context.Context, string, tts.Voice) ([]byte, error) {
	return s.audio, s.err
}

func (s *stubTTS) Close() error { return nil }

type server struct {
	router   *gin.Engine
	sessions services.SessionService
	stt      *stubSTT
	llm      *stubLLM
	tts      *stubTTS
}

func newServer(t *testing.T, maxAudioBytes int64) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	l := logrus.New()
	l.SetOutput(io.Discard)

	s := &server{
		stt: &stubSTT{text: "spoken words"},
		llm: &stubLLM{reply: "model reply"},
		tts: &stubTTS{audio: []byte("mp3")},
	}

	registry := memory.NewSessionRepo()
	transcripts := memory.NewTranscriptRepo()
	locks := services.NewSessionLocks()
	s.sessions = services.NewSessionService(registry, transcripts, locks, nil, nil, l)
	chat := services.NewChatService(services.ChatOptions{
		Transcripts: transcripts,
		Sessions:    registry,
		Locks:       locks,
		STT:         s.stt,
		LLM:         s.llm,
		TTS:         s.tts,
		Logger:      l,
	})

	s.router = gin.New()
	routes.RegisterRoutes(s.router, routes.Deps{
		Sessions: s.sessions,
		Chat:     handlers.NewChatHandler(chat, maxAudioBytes),
		Session:  handlers.NewSessionHandler(s.sessions),
		WS:       handlers.NewWSHandler(s.sessions, nil),
	})
	return s
}

func (s *server) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *server) startSession(t *testing.T) string {
	t.Helper()
	w := s.do(httptest.NewRequest(http.MethodPost, "/session/start", nil))
	require.Equal(t, http.StatusOK, w.Code)
	id := w.Header().Get("X-Session-Id")
	require.NotEmpty(t, id)
	return id
}

// chatRequest builds a multipart POST /chat. audio == nil omits the file part.
func chatRequest(t *testing.T, sessionID, text string, audio []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if text != "" {
		require.NoError(t, mw.WriteField("text_input", text))
	}
	if audio != nil {
		fw, err := mw.CreateFormFile("audio_input", "clip.webm")
		require.NoError(t, err)
		_, err = fw.Write(audio)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/chat", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if sessionID != "" {
		req.Header.Set("X-Session-Id", sessionID)
	}
	return req
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
