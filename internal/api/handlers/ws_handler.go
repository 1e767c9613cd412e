package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/yoockh/voicechat/internal/events"
	"github.com/yoockh/voicechat/internal/services"
	"github.com/yoockh/voicechat/internal/utils"
)

const (
	wsReadWait  = 60 * time.Second
	wsWriteWait = 10 * time.Second

	// Pings keep listen-only clients inside wsReadWait.
	wsPingPeriod = wsReadWait * 9 / 10
)

// WSHandler streams a session's progress events from Redis pub/sub to a websocket.
type WSHandler struct {
	sessions services.SessionService
	redis    *redis.Client
	upgrader websocket.Upgrader
}

func NewWSHandler(sessions services.SessionService, rdb *redis.Client) *WSHandler {
	return &WSHandler{
		sessions: sessions,
		redis:    rdb,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

type wsClientMsg struct {
	Type string `json:"type"` // ping|reset|end_session
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeText(b []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.c.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return w.c.WriteMessage(websocket.TextMessage, b)
}

func (w *wsConn) ping() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.c.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait))
}

func (w *wsConn) writeJSON(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return w.writeText(b)
}

func (h *WSHandler) SessionWS(c *gin.Context) {
	const op = "WSHandler.SessionWS"

	sessionID := c.Param("session_id")
	if sessionID == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "missing session_id", nil))
		return
	}

	if _, err := h.sessions.Get(c.Request.Context(), sessionID); err != nil {
		writeError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrader already wrote the response
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	pubsub := h.redis.Subscribe(ctx, events.StatusChannel(sessionID))
	defer pubsub.Close()

	// reader: control messages from the client; also detects disconnects
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		defer cancel()

		_ = conn.SetReadDeadline(time.Now().Add(wsReadWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsReadWait))
		})

		for {
			_, data, rerr := conn.ReadMessage()
			if rerr != nil {
				return
			}
			_ = conn.SetReadDeadline(time.Now().Add(wsReadWait))

			var msg wsClientMsg
			if err := json.Unmarshal(data, &msg); err != nil {
				_ = wc.writeJSON(APIError{Code: utils.CodeInvalidArgument, Message: "invalid json"})
				continue
			}

			switch msg.Type {
			case "ping":
				_ = wc.writeJSON(events.Event{Type: "pong"})

			case "reset":
				if err := h.sessions.Reset(ctx, sessionID); err != nil {
					_ = wc.writeJSON(APIError{Code: utils.CodeInternal, Message: utils.Message(err)})
				}

			case "end_session":
				if _, err := h.sessions.End(ctx, sessionID); err != nil {
					_ = wc.writeJSON(APIError{Code: utils.CodeInternal, Message: utils.Message(err)})
					continue
				}
				_ = wc.writeJSON(events.Status(events.StatusEnded, "session ended"))
				return

			default:
				_ = wc.writeJSON(APIError{Code: utils.CodeInvalidArgument, Message: "unknown message type"})
			}
		}
	}()

	forward(ctx, wc, pubsub.Channel(), readDone, wsPingPeriod)
}

// forward writes pub/sub payloads (already JSON) to the websocket and pings
// it every pingEvery until the reader finishes or ctx ends.
func forward(ctx context.Context, wc *wsConn, msgs <-chan *redis.Message, readDone <-chan struct{}, pingEvery time.Duration) {
	ticker := time.NewTicker(pingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-readDone:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := wc.ping(); err != nil {
				return
			}
		case m, ok := <-msgs:
			if !ok {
				return
			}
			if err := wc.writeText([]byte(m.Payload)); err != nil {
				return
			}
		}
	}
}
