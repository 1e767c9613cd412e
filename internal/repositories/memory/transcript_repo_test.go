package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/voicechat/internal/models"
)

func TestTranscriptRepo_AppendKeepsOrder(t *testing.T) {
	ctx := context.Background()
	r := NewTranscriptRepo()

	require.NoError(t, r.Append(ctx, "s1", models.Turn{Role: models.RoleUser, Text: "hi"}))
	require.NoError(t, r.Append(ctx, "s1", models.Turn{Role: models.RoleModel, Text: "hello"}))
	require.NoError(t, r.Append(ctx, "s1", models.Turn{Role: models.RoleUser, Text: "again"}))

	got, err := r.Snapshot(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []models.Turn{
		{Role: models.RoleUser, Text: "hi"},
		{Role: models.RoleModel, Text: "hello"},
		{Role: models.RoleUser, Text: "again"},
	}, got)
}

func TestTranscriptRepo_NoAlternationEnforced(t *testing.T) {
	ctx := context.Background()
	r := NewTranscriptRepo()

	require.NoError(t, r.Append(ctx, "s1", models.Turn{Role: models.RoleUser, Text: "one"}))
	require.NoError(t, r.Append(ctx, "s1", models.Turn{Role: models.RoleUser, Text: "two"}))

	got, _ := r.Snapshot(ctx, "s1")
	assert.Len(t, got, 2)
}

func TestTranscriptRepo_UnknownSessionIsEmpty(t *testing.T) {
	got, err := NewTranscriptRepo().Snapshot(context.Background(), "nope")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestTranscriptRepo_SnapshotIsDetached(t *testing.T) {
	ctx := context.Background()
	r := NewTranscriptRepo()
	require.NoError(t, r.Append(ctx, "s1", models.Turn{Role: models.RoleUser, Text: "hi"}))

	snap, _ := r.Snapshot(ctx, "s1")
	snap[0].Text = "mutated"
	require.NoError(t, r.Append(ctx, "s1", models.Turn{Role: models.RoleModel, Text: "reply"}))

	assert.Len(t, snap, 1)
	fresh, _ := r.Snapshot(ctx, "s1")
	assert.Equal(t, "hi", fresh[0].Text)
	assert.Len(t, fresh, 2)
}

func TestTranscriptRepo_ResetIsIdempotentAndScoped(t *testing.T) {
	ctx := context.Background()
	r := NewTranscriptRepo()
	require.NoError(t, r.Append(ctx, "s1", models.Turn{Role: models.RoleUser, Text: "a"}))
	require.NoError(t, r.Append(ctx, "s2", models.Turn{Role: models.RoleUser, Text: "b"}))

	for i := 0; i < 2; i++ {
		require.NoError(t, r.Reset(ctx, "s1"))
		got, _ := r.Snapshot(ctx, "s1")
		assert.Empty(t, got)
	}

	other, _ := r.Snapshot(ctx, "s2")
	assert.Len(t, other, 1)
}

func TestTranscriptRepo_Delete(t *testing.T) {
	ctx := context.Background()
	r := NewTranscriptRepo()
	require.NoError(t, r.Append(ctx, "s1", models.Turn{Role: models.RoleUser, Text: "a"}))
	require.NoError(t, r.Delete(ctx, "s1"))

	got, _ := r.Snapshot(ctx, "s1")
	assert.Empty(t, got)
}

func TestTranscriptRepo_SweepIdle(t *testing.T) {
	ctx := context.Background()
	r := NewTranscriptRepo().(*transcriptRepo)

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return base }
	require.NoError(t, r.Append(ctx, "old", models.Turn{Role: models.RoleUser, Text: "a"}))

	r.now = func() time.Time { return base.Add(time.Hour) }
	require.NoError(t, r.Append(ctx, "fresh", models.Turn{Role: models.RoleUser, Text: "b"}))

	evicted := r.SweepIdle(base.Add(30 * time.Minute))
	assert.Equal(t, []string{"old"}, evicted)

	got, _ := r.Snapshot(ctx, "fresh")
	assert.Len(t, got, 1)
}

func TestTranscriptRepo_ConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	r := NewTranscriptRepo()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = r.Append(ctx, "s1", models.Turn{Role: models.RoleUser, Text: fmt.Sprint(i)})
		}(i)
	}
	wg.Wait()

	got, _ := r.Snapshot(ctx, "s1")
	assert.Len(t, got, 50)
}
