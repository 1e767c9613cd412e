package services

import (
	"context"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/yoockh/voicechat/internal/events"
	"github.com/yoockh/voicechat/internal/models"
	"github.com/yoockh/voicechat/internal/providers/stt"
	"github.com/yoockh/voicechat/internal/providers/tts"
)

// blockUntilDone waits for ctx to finish and reports whether it carried a deadline.
func blockUntilDone(ctx context.Context) (hadDeadline bool, err error) {
	_, hadDeadline = ctx.Deadline()
	<-ctx.Done()
	return hadDeadline, ctx.Err()
}

type fakeSTT struct {
	text  string
	err   error
	block bool

	calls       int
	gotOpts     stt.Options
	hadDeadline bool
}

func (f *fakeSTT) Transcribe(ctx context.Context, _ []byte, opts stt.Options) (string, error) {
	f.calls++
	f.gotOpts = opts
	if f.block {
		var err error
		f.hadDeadline, err = blockUntilDone(ctx)
		return "", err
	}
	return f.text, f.err
}

func (f *fakeSTT) Close() error { return nil }

type llmCall struct {
	history []models.Turn
	message string
}

type fakeLLM struct {
	reply string
	err   error
	block bool

	mu          sync.Mutex
	calls       []llmCall
	hadDeadline bool
}

func (f *fakeLLM) Chat(ctx context.Context, history []models.Turn, message string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, llmCall{history: history, message: message})
	if f.block {
		var err error
		f.hadDeadline, err = blockUntilDone(ctx)
		return "", err
	}
	return f.reply, f.err
}

func (f *fakeLLM) Close() error { return nil }

type fakeTTS struct {
	audio []byte
	err   error
	block bool

	mu          sync.Mutex
	texts       []string
	hadDeadline bool
}

func (f *fakeTTS) Synthesize(ctx context.Context, text string, _ tts.Voice) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	if f.block {
		var err error
		f.hadDeadline, err = blockUntilDone(ctx)
		return nil, err
	}
	return f.audio, f.err
}

func (f *fakeTTS) Close() error { return nil }

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) statuses() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Status)
	}
	return out
}

type fakeUploader struct {
	names []string
	body  []byte
	err   error
}

func (u *fakeUploader) Upload(_ context.Context, objectName, _ string, r io.Reader) (string, error) {
	u.names = append(u.names, objectName)
	u.body, _ = io.ReadAll(r)
	if u.err != nil {
		return "", u.err
	}
	return "gs://bucket/" + objectName, nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
