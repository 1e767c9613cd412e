package memory

import (
	"context"
	"sync"
	"time"

	"github.com/yoockh/voicechat/internal/models"
)

// TranscriptRepository holds one transcript per session. Callers that need a
// read-then-append sequence to be atomic must serialize per session
// themselves; the repository only guarantees each call is safe on its own.
type TranscriptRepository interface {
	Reset(ctx context.Context, sessionID string) error
	Append(ctx context.Context, sessionID string, turn models.Turn) error
	Snapshot(ctx context.Context, sessionID string) ([]models.Turn, error)
	Delete(ctx context.Context, sessionID string) error
	SweepIdle(olderThan time.Time) []string
}

type transcript struct {
	turns     []models.Turn
	touchedAt time.Time
}

type transcriptRepo struct {
	mu   sync.RWMutex
	byID map[string]*transcript
	now  func() time.Time
}

func NewTranscriptRepo() TranscriptRepository {
	return &transcriptRepo{byID: map[string]*transcript{}, now: time.Now}
}

func (r *transcriptRepo) Reset(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byID[sessionID] = &transcript{touchedAt: r.now()}
	return nil
}

func (r *transcriptRepo) Append(_ context.Context, sessionID string, turn models.Turn) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.byID[sessionID]
	if !ok {
		t = &transcript{}
		r.byID[sessionID] = t
	}
	t.turns = append(t.turns, turn)
	t.touchedAt = r.now()
	return nil
}

func (r *transcriptRepo) Snapshot(_ context.Context, sessionID string) ([]models.Turn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.byID[sessionID]
	if !ok {
		return []models.Turn{}, nil
	}
	out := make([]models.Turn, len(t.turns))
	copy(out, t.turns)
	return out, nil
}

func (r *transcriptRepo) Delete(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.byID, sessionID)
	return nil
}

// SweepIdle drops transcripts not touched since olderThan and returns their
// session ids.
func (r *transcriptRepo) SweepIdle(olderThan time.Time) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var evicted []string
	for id, t := range r.byID {
		if t.touchedAt.Before(olderThan) {
			delete(r.byID, id)
			evicted = append(evicted, id)
		}
	}
	return evicted
}
