package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/voicechat/internal/events"
	"github.com/yoockh/voicechat/internal/metrics"
	"github.com/yoockh/voicechat/internal/models"
	"github.com/yoockh/voicechat/internal/providers/llm"
	"github.com/yoockh/voicechat/internal/providers/stt"
	"github.com/yoockh/voicechat/internal/providers/tts"
	"github.com/yoockh/voicechat/internal/repositories"
	"github.com/yoockh/voicechat/internal/repositories/memory"
	"github.com/yoockh/voicechat/internal/storage"
	"github.com/yoockh/voicechat/internal/utils"
)

// Instruction is prepended to every query sent to the model. It is never
// stored in the transcript.
const Instruction = "Please provide a detailed, point-wise explanation for the following. " +
	"Ensure the response is well-structured using bullet points or numbered lists, " +
	"and avoid unnecessary repetition. Focus on clarity and conciseness."

const (
	EmptyInputMessage       = "Please provide some input (text or audio)."
	ModelUnavailableMessage = "I'm having trouble connecting to the AI model."
	SessionEndedMessage     = "This session has ended. Start a new session or reset this one to keep chatting."

	TranscribeErrorPrefix = "Error transcribing audio: "
	ModelErrorPrefix      = "An error occurred with the AI model: "
)

var errNoSTT = errors.New("speech recognition is not configured")

type ChatInput struct {
	SessionID string
	Text      string

	// HasAudio distinguishes "no upload" from an empty upload.
	HasAudio         bool
	Audio            []byte
	AudioContentType string
}

type ChatService interface {
	Chat(ctx context.Context, in ChatInput) (*models.ChatResult, error)
}

type ChatOptions struct {
	Transcripts memory.TranscriptRepository
	Sessions    repositories.SessionRepository // optional: nil skips the ended-session check
	Locks       *SessionLocks

	STT stt.Provider
	LLM llm.Provider // nil: every reply is ModelUnavailableMessage
	TTS tts.Provider // nil: replies carry no audio

	Archive storage.Uploader // optional
	Events  events.Publisher // optional
	Metrics *metrics.Metrics // optional
	Logger  *logrus.Logger

	STTOptions stt.Options
	Voice      tts.Voice

	STTTimeout time.Duration
	LLMTimeout time.Duration
	TTSTimeout time.Duration
}

type chatService struct {
	opts ChatOptions
}

func NewChatService(opts ChatOptions) ChatService {
	if opts.Locks == nil {
		opts.Locks = NewSessionLocks()
	}
	if opts.Events == nil {
		opts.Events = events.Nop{}
	}
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}
	return &chatService{opts: opts}
}

// MergeQuery combines typed text with the transcription of the attached audio.
func MergeQuery(text, transcribed string) string {
	switch {
	case text != "" && transcribed != "":
		return text + " (from audio: " + transcribed + ")"
	case text != "":
		return text
	default:
		return transcribed
	}
}

// ModelMessage is what is actually sent to the model for query.
func ModelMessage(query string) string {
	return Instruction + "\n\nUser Query: " + query
}

func (s *chatService) Chat(ctx context.Context, in ChatInput) (*models.ChatResult, error) {
	const op = "ChatService.Chat"

	if in.SessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}
	log := s.opts.Logger.WithField("session_id", in.SessionID)

	query := in.Text
	if in.HasAudio {
		s.archive(ctx, log, in)
		s.publish(ctx, in.SessionID, events.StatusTranscribing, "")

		transcribed, err := s.transcribe(ctx, in.Audio)
		if err != nil {
			log.WithError(err).Error("transcription failed")
			s.publish(ctx, in.SessionID, events.StatusFailed, "transcription failed")
			s.opts.Metrics.RecordChatOutcome(metrics.OutcomeFailed)
			return nil, utils.E(utils.CodeInternal, op, TranscribeErrorPrefix+err.Error(), err)
		}
		log.WithField("transcript", transcribed).Debug("transcribed audio")
		query = MergeQuery(in.Text, transcribed)
	}

	if strings.TrimSpace(query) == "" {
		s.opts.Metrics.RecordChatOutcome(metrics.OutcomeEmpty)
		return &models.ChatResult{Response: EmptyInputMessage}, nil
	}

	s.publish(ctx, in.SessionID, events.StatusThinking, "")
	reply, degraded, err := s.converse(ctx, log, in.SessionID, query)
	if err != nil {
		s.publish(ctx, in.SessionID, events.StatusFailed, utils.Message(err))
		s.opts.Metrics.RecordChatOutcome(metrics.OutcomeFailed)
		return nil, err
	}

	s.publish(ctx, in.SessionID, events.StatusSynthesizing, "")
	audio := s.synthesize(ctx, log, reply)

	result := &models.ChatResult{Response: reply}
	if len(audio) > 0 {
		result.AudioResponseBase64 = base64.StdEncoding.EncodeToString(audio)
	}

	if degraded {
		s.opts.Metrics.RecordChatOutcome(metrics.OutcomeDegraded)
	} else {
		s.opts.Metrics.RecordChatOutcome(metrics.OutcomeOK)
	}
	s.publish(ctx, in.SessionID, events.StatusDone, "")
	return result, nil
}

// converse records the user turn, asks the model and records its reply, all
// under the session lock. A failed model call yields a fallback reply and
// leaves the user turn unpaired.
func (s *chatService) converse(ctx context.Context, log *logrus.Entry, sessionID, query string) (reply string, degraded bool, err error) {
	const op = "ChatService.converse"

	unlock := s.opts.Locks.Lock(sessionID)
	defer unlock()

	if err := s.ensureActive(ctx, sessionID); err != nil {
		return "", false, err
	}

	if err := s.opts.Transcripts.Append(ctx, sessionID, models.Turn{Role: models.RoleUser, Text: query}); err != nil {
		return "", false, utils.E(utils.CodeInternal, op, "failed to record user turn", err)
	}

	if s.opts.LLM == nil {
		log.Warn("no language model configured")
		return ModelUnavailableMessage, true, nil
	}

	history, err := s.opts.Transcripts.Snapshot(ctx, sessionID)
	if err != nil {
		return "", false, utils.E(utils.CodeInternal, op, "failed to read transcript", err)
	}

	llmCtx, cancel := withTimeout(ctx, s.opts.LLMTimeout)
	defer cancel()

	start := time.Now()
	reply, err = s.opts.LLM.Chat(llmCtx, history, ModelMessage(query))
	s.opts.Metrics.RecordEngineCall(metrics.EngineLLM, err, time.Since(start).Seconds())
	if err != nil {
		log.WithError(err).Error("language model call failed")
		return ModelErrorPrefix + err.Error(), true, nil
	}

	if err := s.opts.Transcripts.Append(ctx, sessionID, models.Turn{Role: models.RoleModel, Text: reply}); err != nil {
		return "", false, utils.E(utils.CodeInternal, op, "failed to record model turn", err)
	}
	return reply, false, nil
}

// ensureActive rejects sessions the registry marks ended. Ids the registry
// does not know chat against an empty transcript.
func (s *chatService) ensureActive(ctx context.Context, sessionID string) error {
	const op = "ChatService.ensureActive"

	if s.opts.Sessions == nil {
		return nil
	}
	ss, err := s.opts.Sessions.GetBySessionID(ctx, sessionID)
	switch {
	case errors.Is(err, utils.ErrNotFound):
		return nil
	case err != nil:
		return utils.E(utils.CodeUnavailable, op, "session registry unavailable", err)
	case ss.Status == models.SessionEnded:
		return utils.E(utils.CodeConflict, op, SessionEndedMessage, nil)
	}
	return nil
}

func (s *chatService) transcribe(ctx context.Context, audio []byte) (string, error) {
	if s.opts.STT == nil {
		return "", errNoSTT
	}

	sttCtx, cancel := withTimeout(ctx, s.opts.STTTimeout)
	defer cancel()

	start := time.Now()
	text, err := s.opts.STT.Transcribe(sttCtx, audio, s.opts.STTOptions)
	s.opts.Metrics.RecordEngineCall(metrics.EngineSTT, err, time.Since(start).Seconds())
	return text, err
}

// synthesize returns nil when no audio is available for any reason.
func (s *chatService) synthesize(ctx context.Context, log *logrus.Entry, text string) []byte {
	if s.opts.TTS == nil {
		return nil
	}

	ttsCtx, cancel := withTimeout(ctx, s.opts.TTSTimeout)
	defer cancel()

	start := time.Now()
	audio, err := s.opts.TTS.Synthesize(ttsCtx, text, s.opts.Voice)
	s.opts.Metrics.RecordEngineCall(metrics.EngineTTS, err, time.Since(start).Seconds())
	if err != nil {
		log.WithError(err).Warn("speech synthesis failed")
		return nil
	}
	return audio
}

func (s *chatService) archive(ctx context.Context, log *logrus.Entry, in ChatInput) {
	if s.opts.Archive == nil || len(in.Audio) == 0 {
		return
	}
	ct := in.AudioContentType
	if ct == "" {
		ct = "audio/webm"
	}
	name := "audio/" + in.SessionID + "/" + uuid.NewString() + ".webm"
	path, err := s.opts.Archive.Upload(ctx, name, ct, bytes.NewReader(in.Audio))
	if err != nil {
		log.WithError(err).Warn("audio archive upload failed")
		return
	}
	log.WithField("path", path).Debug("archived audio")
}

func (s *chatService) publish(ctx context.Context, sessionID, status, msg string) {
	if err := s.opts.Events.Publish(ctx, sessionID, events.Status(status, msg)); err != nil {
		s.opts.Logger.WithError(err).WithField("session_id", sessionID).Debug("publish event failed")
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
