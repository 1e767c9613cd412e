package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/voicechat/internal/events"
	"github.com/yoockh/voicechat/internal/metrics"
	"github.com/yoockh/voicechat/internal/models"
	"github.com/yoockh/voicechat/internal/repositories"
	"github.com/yoockh/voicechat/internal/repositories/memory"
	"github.com/yoockh/voicechat/internal/utils"
)

type SessionService interface {
	Start(ctx context.Context) (*models.Session, error)
	Get(ctx context.Context, sessionID string) (*models.Session, error)
	Reset(ctx context.Context, sessionID string) error
	Transcript(ctx context.Context, sessionID string) ([]models.Turn, error)
	End(ctx context.Context, sessionID string) (*models.Session, error)
	ExpireIdle(ctx context.Context, idleSince, prunedEndedBefore time.Time) (int, error)
}

type sessionService struct {
	sessions    repositories.SessionRepository
	transcripts memory.TranscriptRepository
	locks       *SessionLocks
	events      events.Publisher
	metrics     *metrics.Metrics
	log         *logrus.Logger
	now         func() time.Time
}

func NewSessionService(
	sessions repositories.SessionRepository,
	transcripts memory.TranscriptRepository,
	locks *SessionLocks,
	pub events.Publisher,
	m *metrics.Metrics,
	l *logrus.Logger,
) SessionService {
	if locks == nil {
		locks = NewSessionLocks()
	}
	if pub == nil {
		pub = events.Nop{}
	}
	if l == nil {
		l = logrus.New()
	}
	return &sessionService{
		sessions:    sessions,
		transcripts: transcripts,
		locks:       locks,
		events:      pub,
		metrics:     m,
		log:         l,
		now:         time.Now,
	}
}

func (s *sessionService) Start(ctx context.Context) (*models.Session, error) {
	const op = "SessionService.Start"

	session := &models.Session{
		SessionID: uuid.NewString(),
		Status:    models.SessionActive,
		CreatedAt: s.now().UTC(),
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create session", err)
	}
	if err := s.transcripts.Reset(ctx, session.SessionID); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create transcript", err)
	}

	s.metrics.SessionStarted()
	s.log.WithField("session_id", session.SessionID).Info("session started")
	return session, nil
}

func (s *sessionService) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	const op = "SessionService.Get"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}

	out, err := s.sessions.GetBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "session not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get session", err)
	}
	return out, nil
}

// Reset empties the session's transcript. Ids unknown to the registry (for
// example issued before a restart) are registered on the spot.
func (s *sessionService) Reset(ctx context.Context, sessionID string) error {
	const op = "SessionService.Reset"

	if sessionID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	if err := s.transcripts.Reset(ctx, sessionID); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to reset transcript", err)
	}

	now := s.now().UTC()
	err := s.sessions.MarkReset(ctx, sessionID, now)
	if errors.Is(err, utils.ErrNotFound) {
		err = s.sessions.Create(ctx, &models.Session{
			SessionID: sessionID,
			Status:    models.SessionActive,
			CreatedAt: now,
			ResetAt:   &now,
		})
		if err == nil {
			s.metrics.SessionStarted()
		}
	}
	if err != nil {
		return utils.E(utils.CodeInternal, op, "failed to update session", err)
	}

	_ = s.events.Publish(ctx, sessionID, events.Status(events.StatusReset, "transcript cleared"))
	s.log.WithField("session_id", sessionID).Info("session reset")
	return nil
}

func (s *sessionService) Transcript(ctx context.Context, sessionID string) ([]models.Turn, error) {
	const op = "SessionService.Transcript"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	turns, err := s.transcripts.Snapshot(ctx, sessionID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to read transcript", err)
	}
	return turns, nil
}

func (s *sessionService) End(ctx context.Context, sessionID string) (*models.Session, error) {
	const op = "SessionService.End"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	ss, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if err := s.transcripts.Delete(ctx, sessionID); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to drop transcript", err)
	}
	if ss.Status == models.SessionEnded {
		return ss, nil
	}

	now := s.now().UTC()
	dur := int64(now.Sub(ss.CreatedAt).Seconds())
	if dur < 0 {
		dur = 0
	}

	if err := s.sessions.End(ctx, sessionID, now, dur); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to end session", err)
	}

	ss.Status = models.SessionEnded
	ss.EndedAt = &now
	ss.DurationSeconds = dur

	s.metrics.SessionsEndedBy("explicit", 1)
	_ = s.events.Publish(ctx, sessionID, events.Status(events.StatusEnded, "session ended"))
	return ss, nil
}

// ExpireIdle drops transcripts untouched since idleSince, marks their
// sessions ended and prunes records that ended before prunedEndedBefore.
// It returns the number of sessions it ended.
func (s *sessionService) ExpireIdle(ctx context.Context, idleSince, prunedEndedBefore time.Time) (int, error) {
	const op = "SessionService.ExpireIdle"

	evicted := s.transcripts.SweepIdle(idleSince)
	now := s.now().UTC()
	ended := 0

	for _, id := range evicted {
		ss, err := s.sessions.GetBySessionID(ctx, id)
		if err != nil {
			if !errors.Is(err, utils.ErrNotFound) {
				s.log.WithError(err).WithField("session_id", id).Warn("expire: lookup failed")
			}
			continue
		}
		if ss.Status == models.SessionEnded {
			continue
		}
		dur := int64(now.Sub(ss.CreatedAt).Seconds())
		if dur < 0 {
			dur = 0
		}
		if err := s.sessions.End(ctx, id, now, dur); err != nil {
			s.log.WithError(err).WithField("session_id", id).Warn("expire: end failed")
			continue
		}
		ended++
	}
	s.metrics.SessionsEndedBy("idle", ended)

	if _, err := s.sessions.DeleteEndedBefore(ctx, prunedEndedBefore); err != nil {
		return ended, utils.E(utils.CodeInternal, op, "failed to prune ended sessions", err)
	}
	return ended, nil
}
