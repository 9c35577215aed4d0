package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`
	BaseURL           string `mapstructure:"BASE_URL"`

	// Document store. STORE_BACKEND is "file" or "mongo".
	StoreBackend string `mapstructure:"STORE_BACKEND"`
	DataFile     string `mapstructure:"DATA_FILE"`
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`

	// Redis configuration.
	RedisAddr         string `mapstructure:"REDIS_ADDR"`
	RedisPassword     string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB      int    `mapstructure:"REDIS_CACHE_DB"`
	RedisQueueDB      int    `mapstructure:"REDIS_QUEUE_DB"`
	SnapshotTTLMinute int    `mapstructure:"SNAPSHOT_TTL_MINUTES"`

	// Holds and maintenance.
	HoldDurationMinutes int    `mapstructure:"HOLD_DURATION_MINUTES"`
	SweepCron           string `mapstructure:"SWEEP_CRON"`

	// Completion model. COMPLETION_PROVIDER is "openai" or "gemini".
	CompletionProvider string `mapstructure:"COMPLETION_PROVIDER"`
	OpenAIAPIKey       string `mapstructure:"OPENAI_API_KEY"`
	OpenAIModel        string `mapstructure:"OPENAI_MODEL"`
	OpenAIBaseURL      string `mapstructure:"OPENAI_BASE_URL"`
	GeminiAPIKey       string `mapstructure:"GEMINI_API_KEY"`
	GeminiModel        string `mapstructure:"GEMINI_MODEL"`

	// ElevenLabs voice.
	ElevenLabsAPIKey        string  `mapstructure:"ELEVENLABS_API_KEY"`
	ElevenLabsVoiceID       string  `mapstructure:"ELEVENLABS_VOICE_ID"`
	ElevenLabsModel         string  `mapstructure:"ELEVENLABS_MODEL"`
	ElevenLabsSTTModel      string  `mapstructure:"ELEVENLABS_STT_MODEL"`
	ElevenLabsWebhookSecret string  `mapstructure:"ELEVENLABS_WEBHOOK_SECRET"`
	VoiceStability          float64 `mapstructure:"VOICE_STABILITY"`
	VoiceSimilarity         float64 `mapstructure:"VOICE_SIMILARITY"`

	// Transcription. STT_PROVIDER is "elevenlabs" or "google".
	STTProvider              string `mapstructure:"STT_PROVIDER"`
	GoogleServiceAccountFile string `mapstructure:"GOOGLE_SERVICE_ACCOUNT_FILE"`

	// SMTP.
	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUsername string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	SenderEmail  string `mapstructure:"SENDER_EMAIL"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if AppConfig.SenderEmail == "" {
		AppConfig.SenderEmail = AppConfig.SMTPUsername
	}
}

func setDefaults() {
	viper.SetDefault("APP_PORT", "8000")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("BASE_URL", "http://localhost:8000")

	viper.SetDefault("STORE_BACKEND", "file")
	viper.SetDefault("DATA_FILE", "data/appointments.json")
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "kvrdesk")

	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_QUEUE_DB", 1)
	viper.SetDefault("SNAPSHOT_TTL_MINUTES", 60)

	viper.SetDefault("HOLD_DURATION_MINUTES", 30)
	viper.SetDefault("SWEEP_CRON", "@every 5m")

	viper.SetDefault("COMPLETION_PROVIDER", "openai")
	viper.SetDefault("OPENAI_API_KEY", "")
	viper.SetDefault("OPENAI_MODEL", "gpt-4.1-nano")
	viper.SetDefault("OPENAI_BASE_URL", "https://api.openai.com/v1")
	viper.SetDefault("GEMINI_API_KEY", "")
	viper.SetDefault("GEMINI_MODEL", "gemini-1.5-pro")

	viper.SetDefault("ELEVENLABS_API_KEY", "")
	viper.SetDefault("ELEVENLABS_VOICE_ID", "21m00Tcm4TlvDq8ikWAM")
	viper.SetDefault("ELEVENLABS_MODEL", "eleven_multilingual_v2")
	viper.SetDefault("ELEVENLABS_STT_MODEL", "scribe_v1")
	viper.SetDefault("ELEVENLABS_WEBHOOK_SECRET", "")
	viper.SetDefault("VOICE_STABILITY", 0.5)
	viper.SetDefault("VOICE_SIMILARITY", 0.75)

	viper.SetDefault("STT_PROVIDER", "elevenlabs")
	viper.SetDefault("GOOGLE_SERVICE_ACCOUNT_FILE", "")

	viper.SetDefault("SMTP_HOST", "smtp.gmail.com")
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("SMTP_USERNAME", "")
	viper.SetDefault("SMTP_PASSWORD", "")
	viper.SetDefault("SENDER_EMAIL", "")
}

// HoldDuration is the lifetime of a pending confirmation.
func HoldDuration() time.Duration {
	if AppConfig.HoldDurationMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(AppConfig.HoldDurationMinutes) * time.Minute
}

// SnapshotTTL is how long a conversation snapshot stays in Redis.
func SnapshotTTL() time.Duration {
	if AppConfig.SnapshotTTLMinute <= 0 {
		return time.Hour
	}
	return time.Duration(AppConfig.SnapshotTTLMinute) * time.Minute
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
