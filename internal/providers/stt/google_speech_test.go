package stt

import (
	"testing"

	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/stretchr/testify/assert"
)

func TestTopTranscript(t *testing.T) {
	tests := []struct {
		name string
		resp *speechpb.RecognizeResponse
		want string
	}{
		{name: "nil response", resp: nil, want: ""},
		{name: "no results", resp: &speechpb.RecognizeResponse{}, want: ""},
		{
			name: "result without alternatives",
			resp: &speechpb.RecognizeResponse{Results: []*speechpb.SpeechRecognitionResult{{}}},
			want: "",
		},
		{
			name: "first alternative of first result wins",
			resp: &speechpb.RecognizeResponse{Results: []*speechpb.SpeechRecognitionResult{
				{Alternatives: []*speechpb.SpeechRecognitionAlternative{
					{Transcript: "hello there", Confidence: 0.7},
					{Transcript: "hello bear", Confidence: 0.9},
				}},
				{Alternatives: []*speechpb.SpeechRecognitionAlternative{
					{Transcript: "second result"},
				}},
			}},
			want: "hello there",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, topTranscript(tt.resp))
		})
	}
}
