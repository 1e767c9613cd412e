package repositories

import (
	"context"
	"time"

	"github.com/yoockh/voicechat/internal/models"
)

// SessionRepository stores session metadata records. GetBySessionID returns
// utils.ErrNotFound for unknown ids.
type SessionRepository interface {
	Create(ctx context.Context, s *models.Session) error
	GetBySessionID(ctx context.Context, sessionID string) (*models.Session, error)
	MarkReset(ctx context.Context, sessionID string, at time.Time) error
	End(ctx context.Context, sessionID string, endedAt time.Time, durationSeconds int64) error
	DeleteEndedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
