package stt

import "context"

const (
	DefaultSampleRateHz int32 = 48000
	DefaultLanguage           = "en-US"
)

type Options struct {
	SampleRateHz int32
	Language     string // example: "en-US", "id-ID"
}

// Provider turns a WebM/Opus recording into text. An empty string with a nil
// error means the engine heard nothing.
type Provider interface {
	Transcribe(ctx context.Context, audio []byte, opts Options) (string, error)
	Close() error
}
