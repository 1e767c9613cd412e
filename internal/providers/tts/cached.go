package tts

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/voicechat/internal/cache"
)

// Cached memoizes synthesized audio. Replies such as the input prompt or the
// model fallback text repeat often and are synthesized once per TTL.
type Cached struct {
	Next   Provider
	Cache  cache.Cache
	TTL    time.Duration
	Logger *logrus.Logger
}

func NewCached(next Provider, c cache.Cache, ttl time.Duration, l *logrus.Logger) *Cached {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if l == nil {
		l = logrus.New()
	}
	return &Cached{Next: next, Cache: c, TTL: ttl, Logger: l}
}

func (c *Cached) Close() error { return c.Next.Close() }

func (c *Cached) Synthesize(ctx context.Context, text string, voice Voice) ([]byte, error) {
	voice = voice.withDefaults()
	key := cacheKey(text, voice)

	audio, hit, err := c.Cache.Get(ctx, key)
	if err != nil {
		c.Logger.WithError(err).Warn("tts cache read failed")
	}
	if hit && len(audio) > 0 {
		return audio, nil
	}

	audio, err = c.Next.Synthesize(ctx, text, voice)
	if err != nil {
		return nil, err
	}
	if len(audio) > 0 {
		if err := c.Cache.Set(ctx, key, audio, c.TTL); err != nil {
			c.Logger.WithError(err).Warn("tts cache write failed")
		}
	}
	return audio, nil
}

func cacheKey(text string, v Voice) string {
	h := sha256.New()
	for _, s := range []string{v.Language, v.Gender, v.Name, text} {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
