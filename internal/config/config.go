package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port    string
	Env     string
	LogMode string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// JWT
	JWTSecret string

	// Gemini AI
	GeminiAPIKey         string
	GeminiTextModel      string
	GeminiTTSModel       string
	GeminiVoice          string
	GeminiConcurrentReqs int
	GeminiMaxAttempts    int
	AIRequestsPerMin     int
	// "memory" or "redis"
	RateLimitBackend string

	// Speech: "gemini" or "cloud"
	SpeechBackend         string
	GoogleCredentialsFile string
	CloudSpeechLanguage   string
	CloudSpeechVoice      string

	// Audio cache: "memory" or "redis"
	AudioCache           string
	AudioCacheTTLMinutes int
	AudioWorkers         int

	// Chat
	ChatSessionIdleMinutes int

	// Database migrations
	MigrationsDir string

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:                   getEnvOrDefault("PORT", "8080"),
		Env:                    getEnvOrDefault("ENV", "development"),
		LogMode:                getEnvOrDefault("LOG_MODE", "development"),
		DatabaseURL:            mustGetEnv("DATABASE_URL"),
		RedisURL:               mustGetEnv("REDIS_URL"),
		JWTSecret:              mustGetEnv("JWT_SECRET"),
		GeminiAPIKey:           mustGetEnv("GEMINI_API_KEY"),
		GeminiTextModel:        getEnvOrDefault("GEMINI_TEXT_MODEL", "gemini-3-flash-preview"),
		GeminiTTSModel:         getEnvOrDefault("GEMINI_TTS_MODEL", "gemini-2.5-flash-preview-tts"),
		GeminiVoice:            getEnvOrDefault("GEMINI_VOICE", "Kore"),
		GeminiConcurrentReqs:   getEnvAsIntOrDefault("GEMINI_CONCURRENT_REQUESTS", 5),
		GeminiMaxAttempts:      getEnvAsIntOrDefault("GEMINI_MAX_ATTEMPTS", 2),
		AIRequestsPerMin:       getEnvAsIntOrDefault("AI_REQUESTS_PER_MINUTE", 30),
		RateLimitBackend:       getEnvOrDefault("RATE_LIMIT_BACKEND", "memory"),
		SpeechBackend:          getEnvOrDefault("SPEECH_BACKEND", "gemini"),
		GoogleCredentialsFile:  getEnvOrDefault("GOOGLE_CREDENTIALS_FILE", ""),
		CloudSpeechLanguage:    getEnvOrDefault("CLOUD_SPEECH_LANGUAGE", "en-US"),
		CloudSpeechVoice:       getEnvOrDefault("CLOUD_SPEECH_VOICE", "en-US-Chirp3-HD-Kore"),
		AudioCache:             getEnvOrDefault("AUDIO_CACHE", "memory"),
		AudioCacheTTLMinutes:   getEnvAsIntOrDefault("AUDIO_CACHE_TTL_MINUTES", 180),
		AudioWorkers:           getEnvAsIntOrDefault("AUDIO_WORKERS", 2),
		ChatSessionIdleMinutes: getEnvAsIntOrDefault("CHAT_SESSION_IDLE_MINUTES", 60),
		MigrationsDir:          getEnvOrDefault("MIGRATIONS_DIR", "migrations"),
		FrontendURL:            getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	if cfg.SpeechBackend == "cloud" && cfg.GoogleCredentialsFile == "" {
		panic("GOOGLE_CREDENTIALS_FILE is required when SPEECH_BACKEND=cloud")
	}

	return cfg
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}
