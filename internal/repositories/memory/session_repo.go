package memory

import (
	"context"
	"sync"
	"time"

	"github.com/yoockh/voicechat/internal/models"
	"github.com/yoockh/voicechat/internal/repositories"
	"github.com/yoockh/voicechat/internal/utils"
)

// sessionRepo is the registry used when no MongoDB is configured.
type sessionRepo struct {
	mu   sync.RWMutex
	byID map[string]models.Session
}

func NewSessionRepo() repositories.SessionRepository {
	return &sessionRepo{byID: map[string]models.Session{}}
}

func (r *sessionRepo) Create(_ context.Context, s *models.Session) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byID[s.SessionID] = *s
	return nil
}

func (r *sessionRepo) GetBySessionID(_ context.Context, sessionID string) (*models.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byID[sessionID]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return &s, nil
}

func (r *sessionRepo) MarkReset(_ context.Context, sessionID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byID[sessionID]
	if !ok {
		return utils.ErrNotFound
	}
	at = at.UTC()
	s.ResetAt = &at
	s.Status = models.SessionActive
	s.EndedAt = nil
	r.byID[sessionID] = s
	return nil
}

func (r *sessionRepo) End(_ context.Context, sessionID string, endedAt time.Time, durationSeconds int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byID[sessionID]
	if !ok {
		return utils.ErrNotFound
	}
	endedAt = endedAt.UTC()
	s.Status = models.SessionEnded
	s.EndedAt = &endedAt
	s.DurationSeconds = durationSeconds
	r.byID[sessionID] = s
	return nil
}

func (r *sessionRepo) DeleteEndedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, s := range r.byID {
		if s.Status == models.SessionEnded && s.EndedAt != nil && s.EndedAt.Before(cutoff) {
			delete(r.byID, id)
			n++
		}
	}
	return n, nil
}
