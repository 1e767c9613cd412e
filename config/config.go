package config

import (
	"time"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	Port      string `env:"PORT" envDefault:"8080"`
	GinMode   string `env:"GIN_MODE"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"` // json|text

	// Service account key for the Google clients; empty means ADC.
	CredentialsFile string `env:"GOOGLE_APPLICATION_CREDENTIALS"`

	STT STTConfig
	TTS TTSConfig
	LLM LLMConfig

	MaxAudioBytes int64 `env:"MAX_AUDIO_BYTES" envDefault:"10485760"`

	// Optional backends. Empty disables the feature.
	RedisAddr   string        `env:"REDIS_ADDR"`
	RedisURL    string        `env:"REDIS_URL"`
	TTSCacheTTL time.Duration `env:"TTS_CACHE_TTL" envDefault:"24h"`
	MongoURI    string        `env:"MONGO_URI"`
	MongoDB     string        `env:"MONGO_DB" envDefault:"voicechat"`
	AudioBucket string        `env:"AUDIO_BUCKET"`

	SessionIdleTTL  time.Duration `env:"SESSION_IDLE_TTL" envDefault:"2h"`
	JanitorInterval time.Duration `env:"JANITOR_INTERVAL" envDefault:"5m"`
}

type STTConfig struct {
	Language     string        `env:"STT_LANGUAGE" envDefault:"en-US"`
	SampleRateHz int32         `env:"STT_SAMPLE_RATE" envDefault:"48000"`
	Timeout      time.Duration `env:"STT_TIMEOUT" envDefault:"30s"`
}

type TTSConfig struct {
	Language string        `env:"TTS_LANGUAGE" envDefault:"en-US"`
	Gender   string        `env:"TTS_GENDER" envDefault:"NEUTRAL"`
	Voice    string        `env:"TTS_VOICE" envDefault:"en-US-Standard-A"`
	Timeout  time.Duration `env:"TTS_TIMEOUT" envDefault:"30s"`
}

type LLMConfig struct {
	Backend        string        `env:"LLM_BACKEND" envDefault:"gemini-api"` // gemini-api|vertex
	APIKey         string        `env:"GEMINI_API_KEY"`
	Model          string        `env:"GEMINI_MODEL" envDefault:"gemini-1.5-flash"`
	VertexProject  string        `env:"VERTEX_PROJECT"`
	VertexLocation string        `env:"VERTEX_LOCATION" envDefault:"us-central1"`
	Timeout        time.Duration `env:"LLM_TIMEOUT" envDefault:"60s"`
}

// Load parses the process environment. Call godotenv.Load first to pick up .env.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if cfg.RedisAddr == "" {
		cfg.RedisAddr = cfg.RedisURL
	}
	return cfg, nil
}
