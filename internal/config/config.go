package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// JWT
	JWTSecret string

	// Deepgram transcription
	DeepgramAPIKey string

	// Google AI. The profiler uses the native API; the ghostwriter goes
	// through the OpenAI-compatible bridge with the same key.
	GoogleAIKey    string
	ProfilerModel  string
	GeneratorModel string
	OpenAIBaseURL  string

	// Payment webhook
	LemonSqueezySecret string

	// Pipeline limits
	MaxVideoDurationMin int
	MaxAudioBytes       int64
	MaxSampleChars      int
	TempDir             string

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:        getEnvOrDefault("PORT", "8080"),
		Env:         getEnvOrDefault("ENV", "development"),
		DatabaseURL: mustGetEnv("DATABASE_URL"),
		RedisURL:    mustGetEnv("REDIS_URL"),
		JWTSecret:   mustGetEnv("JWT_SECRET"),

		DeepgramAPIKey: mustGetEnv("DEEPGRAM_API_KEY"),
		GoogleAIKey:    mustGetEnv("GOOGLE_AI_KEY"),
		ProfilerModel:  getEnvOrDefault("PROFILER_MODEL", "gemini-2.5-flash"),
		GeneratorModel: getEnvOrDefault("GENERATOR_MODEL", "gemini-2.5-flash"),
		OpenAIBaseURL:  getEnvOrDefault("OPENAI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/openai/"),

		LemonSqueezySecret: mustGetEnv("LEMONSQUEEZY_WEBHOOK_SECRET"),

		MaxVideoDurationMin: getEnvAsIntOrDefault("MAX_VIDEO_DURATION_MINUTES", 45),
		MaxAudioBytes:       int64(getEnvAsIntOrDefault("MAX_AUDIO_MB", 50)) * 1024 * 1024,
		MaxSampleChars:      getEnvAsIntOrDefault("MAX_SAMPLE_CHARS", 6000),
		TempDir:             getEnvOrDefault("TEMP_DIR", os.TempDir()),

		FrontendURL: getEnvOrDefault("FRONTEND_URL", "http://localhost:3000"),
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
