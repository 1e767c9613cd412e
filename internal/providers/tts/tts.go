package tts

import "context"

const (
	DefaultLanguage = "en-US"
	DefaultGender   = "NEUTRAL"
	DefaultVoice    = "en-US-Standard-A"
)

type Voice struct {
	Language string
	Gender   string // NEUTRAL|MALE|FEMALE
	Name     string
}

func (v Voice) withDefaults() Voice {
	if v.Language == "" {
		v.Language = DefaultLanguage
	}
	if v.Gender == "" {
		v.Gender = DefaultGender
	}
	if v.Name == "" {
		v.Name = DefaultVoice
	}
	return v
}

// Provider renders text as MP3 audio.
type Provider interface {
	Synthesize(ctx context.Context, text string, voice Voice) ([]byte, error)
	Close() error
}
