package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	SessionActive = "active"
	SessionEnded  = "ended"
)

// Session is the metadata record of a chat session. Turns live in the
// transcript repository and are never stored here.
type Session struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	SessionID string             `bson:"session_id" json:"session_id"` // uuid v4
	Status    string             `bson:"status" json:"status"`         // active|ended

	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	ResetAt   *time.Time `bson:"reset_at,omitempty" json:"reset_at,omitempty"`
	EndedAt   *time.Time `bson:"ended_at,omitempty" json:"ended_at,omitempty"`

	DurationSeconds int64 `bson:"duration_seconds" json:"duration_seconds"`
}
