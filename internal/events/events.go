package events

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

const (
	StatusTranscribing = "transcribing"
	StatusThinking     = "thinking"
	StatusSynthesizing = "synthesizing"
	StatusDone         = "done"
	StatusFailed       = "failed"
	StatusReset        = "reset"
	StatusEnded        = "ended"
)

type Event struct {
	Type    string `json:"type"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func Status(status, message string) Event {
	return Event{Type: "status", Status: status, Message: message}
}

// Publisher fans out progress events for a session. Delivery is best effort.
type Publisher interface {
	Publish(ctx context.Context, sessionID string, ev Event) error
}

func StatusChannel(sessionID string) string {
	return "session:" + sessionID + ":status"
}

type RedisPublisher struct {
	rdb *redis.Client
}

func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

func (p *RedisPublisher) Publish(ctx context.Context, sessionID string, ev Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, StatusChannel(sessionID), b).Err()
}

type Nop struct{}

func (Nop) Publish(context.Context, string, Event) error { return nil }
