package stt

import (
	"context"
	"errors"
	"fmt"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"
)

type GoogleSpeech struct {
	c *speech.Client

	Encoding speechpb.RecognitionConfig_AudioEncoding
}

func NewGoogleSpeech(ctx context.Context, opts ...option.ClientOption) (*GoogleSpeech, error) {
	c, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &GoogleSpeech{
		c:        c,
		Encoding: speechpb.RecognitionConfig_WEBM_OPUS,
	}, nil
}

func (g *GoogleSpeech) Close() error { return g.c.Close() }

func (g *GoogleSpeech) Transcribe(ctx context.Context, audio []byte, opts Options) (string, error) {
	if len(audio) == 0 {
		return "", errors.New("empty audio")
	}
	if opts.SampleRateHz <= 0 {
		opts.SampleRateHz = DefaultSampleRateHz
	}
	if opts.Language == "" {
		opts.Language = DefaultLanguage
	}

	resp, err := g.c.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   g.Encoding,
			SampleRateHertz:            opts.SampleRateHz,
			LanguageCode:               opts.Language,
			EnableAutomaticPunctuation: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		return "", fmt.Errorf("recognize: %w", err)
	}

	return topTranscript(resp), nil
}

// topTranscript picks the first alternative of the first result.
func topTranscript(resp *speechpb.RecognizeResponse) string {
	if resp == nil || len(resp.Results) == 0 {
		return ""
	}
	alts := resp.Results[0].Alternatives
	if len(alts) == 0 {
		return ""
	}
	return alts[0].Transcript
}
