package workers

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yoockh/voicechat/internal/services"
)

// SessionJanitor periodically ends sessions whose transcript has been idle
// for IdleTTL and prunes ended session records older than IdleTTL.
type SessionJanitor struct {
	Sessions services.SessionService
	IdleTTL  time.Duration
	Interval time.Duration
	Logger   *logrus.Logger

	now func() time.Time
}

func (j *SessionJanitor) Start(ctx context.Context) error {
	if j.Sessions == nil {
		return errors.New("SessionJanitor missing dependency: Sessions must be set")
	}
	if j.IdleTTL <= 0 {
		j.IdleTTL = 2 * time.Hour
	}
	if j.Interval <= 0 {
		j.Interval = 5 * time.Minute
	}
	if j.Logger == nil {
		j.Logger = logrus.New()
	}
	if j.now == nil {
		j.now = time.Now
	}

	go j.run(ctx)
	return nil
}

func (j *SessionJanitor) run(ctx context.Context) {
	t := time.NewTicker(j.Interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			j.sweep(ctx)
		}
	}
}

func (j *SessionJanitor) sweep(ctx context.Context) {
	cutoff := j.now().Add(-j.IdleTTL)

	n, err := j.Sessions.ExpireIdle(ctx, cutoff, cutoff)
	log := j.Logger.WithFields(logrus.Fields{"expired": n, "cutoff": cutoff})
	if err != nil {
		log.WithError(err).Warn("session sweep incomplete")
		return
	}
	if n > 0 {
		log.Info("expired idle sessions")
	}
}
