package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"

	"github.com/yoockh/voicechat/config"
	"github.com/yoockh/voicechat/internal/api/handlers"
	"github.com/yoockh/voicechat/internal/api/middleware"
	"github.com/yoockh/voicechat/internal/api/routes"
	"github.com/yoockh/voicechat/internal/cache"
	"github.com/yoockh/voicechat/internal/events"
	"github.com/yoockh/voicechat/internal/logger"
	"github.com/yoockh/voicechat/internal/metrics"
	"github.com/yoockh/voicechat/internal/providers/llm"
	"github.com/yoockh/voicechat/internal/providers/stt"
	"github.com/yoockh/voicechat/internal/providers/tts"
	"github.com/yoockh/voicechat/internal/repositories"
	"github.com/yoockh/voicechat/internal/repositories/memory"
	mongorepo "github.com/yoockh/voicechat/internal/repositories/mongo"
	"github.com/yoockh/voicechat/internal/services"
	"github.com/yoockh/voicechat/internal/storage"
	"github.com/yoockh/voicechat/internal/workers"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	l := logger.New(cfg.LogLevel, cfg.LogFormat)
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var gopts []option.ClientOption
	if cfg.CredentialsFile != "" {
		gopts = append(gopts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(reg)

	// Engines
	speech, err := stt.NewGoogleSpeech(ctx, gopts...)
	if err != nil {
		l.WithError(err).Fatal("speech-to-text init failed")
	}
	defer speech.Close()

	var synth tts.Provider
	googleTTS, err := tts.NewGoogleTTS(ctx, gopts...)
	if err != nil {
		l.WithError(err).Fatal("text-to-speech init failed")
	}
	synth = googleTTS

	model, err := llm.New(ctx, llm.Settings{
		Backend:        cfg.LLM.Backend,
		APIKey:         cfg.LLM.APIKey,
		Model:          cfg.LLM.Model,
		VertexProject:  cfg.LLM.VertexProject,
		VertexLocation: cfg.LLM.VertexLocation,
	}, gopts...)
	if err != nil {
		// Chat keeps working and answers with a fixed apology.
		l.WithError(err).Warn("language model unavailable")
	} else {
		defer model.Close()
	}

	// Optional backends
	var pub events.Publisher = events.Nop{}
	if cfg.RedisAddr != "" {
		if err := config.InitRedis(cfg.RedisAddr); err != nil {
			l.WithError(err).Warn("redis unavailable; tts cache and progress events disabled")
			if config.RedisClient != nil {
				_ = config.RedisClient.Close()
				config.RedisClient = nil
			}
		} else {
			defer config.RedisClient.Close()
			pub = events.NewRedisPublisher(config.RedisClient)
			synth = tts.NewCached(googleTTS, cache.NewRedisCache(config.RedisClient, "tts:"), cfg.TTSCacheTTL, l)
			l.Info("redis connected")
		}
	}
	defer synth.Close()

	var sessionRepo repositories.SessionRepository = memory.NewSessionRepo()
	if cfg.MongoURI != "" {
		if err := config.InitMongo(cfg.MongoURI); err != nil {
			l.WithError(err).Warn("mongo unavailable; using in-memory session registry")
		} else {
			if err := config.EnsureMongoIndexes(cfg.MongoDB); err != nil {
				l.WithError(err).Warn("mongo index setup failed")
			}
			sessionRepo = mongorepo.NewSessionRepo(config.MongoClient.Database(cfg.MongoDB))
			defer func() {
				dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = config.MongoClient.Disconnect(dctx)
			}()
			l.Info("mongo connected")
		}
	}

	var archive storage.Uploader
	if cfg.AudioBucket != "" {
		gcs, err := storage.NewGCSUploader(ctx, cfg.AudioBucket, gopts...)
		if err != nil {
			l.WithError(err).Warn("audio archive disabled")
		} else {
			defer gcs.Close()
			archive = gcs
		}
	}

	// Services
	transcripts := memory.NewTranscriptRepo()
	locks := services.NewSessionLocks()

	sessionSvc := services.NewSessionService(sessionRepo, transcripts, locks, pub, m, l)
	chatSvc := services.NewChatService(services.ChatOptions{
		Transcripts: transcripts,
		Sessions:    sessionRepo,
		Locks:       locks,
		STT:         speech,
		LLM:         model,
		TTS:         synth,
		Archive:     archive,
		Events:      pub,
		Metrics:     m,
		Logger:      l,
		STTOptions: stt.Options{
			SampleRateHz: cfg.STT.SampleRateHz,
			Language:     cfg.STT.Language,
		},
		Voice: tts.Voice{
			Language: cfg.TTS.Language,
			Gender:   cfg.TTS.Gender,
			Name:     cfg.TTS.Voice,
		},
		STTTimeout: cfg.STT.Timeout,
		LLMTimeout: cfg.LLM.Timeout,
		TTSTimeout: cfg.TTS.Timeout,
	})

	janitor := &workers.SessionJanitor{
		Sessions: sessionSvc,
		IdleTTL:  cfg.SessionIdleTTL,
		Interval: cfg.JanitorInterval,
		Logger:   l,
	}
	if err := janitor.Start(ctx); err != nil {
		l.WithError(err).Fatal("session janitor failed to start")
	}

	// HTTP
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(l, m))

	deps := routes.Deps{
		Sessions: sessionSvc,
		Chat:     handlers.NewChatHandler(chatSvc, cfg.MaxAudioBytes),
		Session:  handlers.NewSessionHandler(sessionSvc),
		Metrics:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}
	if config.RedisClient != nil {
		deps.WS = handlers.NewWSHandler(sessionSvc, config.RedisClient)
	}
	routes.RegisterRoutes(r, deps)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		l.WithFields(logrus.Fields{"port": cfg.Port, "llm_backend": cfg.LLM.Backend}).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.WithError(err).Error("server error")
			stop()
		}
	}()

	<-ctx.Done()
	l.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.WithError(err).Error("graceful shutdown failed")
	}
}
