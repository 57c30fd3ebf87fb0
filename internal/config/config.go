package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port             int
	DatabaseURL      string
	NatsURL          string
	NatsToken        string
	LogLevel         string
	LLMAPIKey        string
	LLMBaseURL       string
	LLMChatModel     string
	LLMReasonerModel string
	APIToken         string
	ScoreWorkers     int
}

func Load() Config {
	// Local development convenience; a missing .env file is not an error.
	_ = godotenv.Load()

	return Config{
		Port:             envInt("RAPPORT_PORT", 8680),
		DatabaseURL:      envStr("DATABASE_URL", ""),
		NatsURL:          envStr("NATS_URL", "nats://localhost:4222"),
		NatsToken:        envStr("NATS_TOKEN", ""),
		LogLevel:         envStr("LOG_LEVEL", "info"),
		LLMAPIKey:        envStr("LLM_API_KEY", ""),
		LLMBaseURL:       envStr("LLM_BASE_URL", "https://api.deepseek.com/v1"),
		LLMChatModel:     envStr("LLM_CHAT_MODEL", "deepseek-chat"),
		LLMReasonerModel: envStr("LLM_REASONER_MODEL", "deepseek-reasoner"),
		APIToken:         envStr("RAPPORT_API_TOKEN", ""),
		ScoreWorkers:     envInt("SCORE_WORKERS", 3),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
