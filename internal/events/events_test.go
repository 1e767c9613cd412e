package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusChannel(t *testing.T) {
	assert.Equal(t, "session:abc:status", StatusChannel("abc"))
}

func TestStatusEvent_JSON(t *testing.T) {
	b, err := json.Marshal(Status(StatusThinking, ""))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"status","status":"thinking"}`, string(b))

	b, err = json.Marshal(Status(StatusFailed, "transcription failed"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"status","status":"failed","message":"transcription failed"}`, string(b))
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	assert.NoError(t, p.Publish(context.Background(), "abc", Status(StatusDone, "")))
}
