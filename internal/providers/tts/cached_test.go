package tts

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memCache struct {
	data   map[string][]byte
	getErr error
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (m *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	b, ok := m.data[key]
	return b, ok, nil
}

func (m *memCache) Set(_ context.Context, key string, val []byte, _ time.Duration) error {
	m.data[key] = val
	return nil
}

type countingTTS struct {
	calls int
	audio []byte
	err   error
}

func (c *countingTTS) Synthesize(context.Context, string, Voice) ([]byte, error) {
	c.calls++
	return c.audio, c.err
}

func (c *countingTTS) Close() error { return nil }

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestCached_SecondCallIsServedFromCache(t *testing.T) {
	next := &countingTTS{audio: []byte{0xff, 0xfb, 0x90}}
	c := NewCached(next, newMemCache(), time.Hour, quietLogger())

	first, err := c.Synthesize(context.Background(), "hello", Voice{})
	require.NoError(t, err)
	second, err := c.Synthesize(context.Background(), "hello", Voice{})
	require.NoError(t, err)

	assert.Equal(t, next.audio, first)
	assert.Equal(t, next.audio, second)
	assert.Equal(t, 1, next.calls)
}

func TestCached_KeyIncludesVoice(t *testing.T) {
	next := &countingTTS{audio: []byte("mp3")}
	c := NewCached(next, newMemCache(), time.Hour, quietLogger())

	_, _ = c.Synthesize(context.Background(), "hello", Voice{Name: "en-US-Standard-A"})
	_, _ = c.Synthesize(context.Background(), "hello", Voice{Name: "en-US-Wavenet-C"})

	assert.Equal(t, 2, next.calls)
}

func TestCached_DefaultsShareKeyWithExplicitDefaults(t *testing.T) {
	assert.Equal(t,
		cacheKey("hi", Voice{}.withDefaults()),
		cacheKey("hi", Voice{Language: DefaultLanguage, Gender: DefaultGender, Name: DefaultVoice}),
	)
}

func TestCached_ErrorsAreNotCached(t *testing.T) {
	next := &countingTTS{err: errors.New("quota exceeded")}
	mc := newMemCache()
	c := NewCached(next, mc, time.Hour, quietLogger())

	_, err := c.Synthesize(context.Background(), "hello", Voice{})
	require.Error(t, err)
	_, err = c.Synthesize(context.Background(), "hello", Voice{})
	require.Error(t, err)

	assert.Equal(t, 2, next.calls)
	assert.Empty(t, mc.data)
}

func TestCached_CacheReadFailureFallsThrough(t *testing.T) {
	next := &countingTTS{audio: []byte("mp3")}
	mc := newMemCache()
	mc.getErr = errors.New("redis down")
	c := NewCached(next, mc, time.Hour, quietLogger())

	audio, err := c.Synthesize(context.Background(), "hello", Voice{})
	require.NoError(t, err)
	assert.Equal(t, []byte("mp3"), audio)
}

func TestParseGender(t *testing.T) {
	for _, s := range []string{"NEUTRAL", "male", " Female "} {
		_, err := parseGender(s)
		assert.NoError(t, err, s)
	}
	_, err := parseGender("robot")
	assert.Error(t, err)
}
