package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port            int
	LogLevel        string
	OpenAIAPIKey    string
	ChatModel       string
	TranscribeModel string
	VectorStoreID   string
	TranscriptDir   string
	Language        string
	AllowedOrigins  []string
	PlaylistURL     string
}

func Load() Config {
	return Config{
		Port:            envInt("COACH_PORT", 8080),
		LogLevel:        envStr("LOG_LEVEL", "info"),
		OpenAIAPIKey:    envStr("OPENAI_API_KEY", ""),
		ChatModel:       envStr("COACH_MODEL", "gpt-4.1"),
		TranscribeModel: envStr("COACH_TRANSCRIBE_MODEL", "whisper-1"),
		VectorStoreID:   envStr("COACH_VECTOR_STORE_ID", ""),
		TranscriptDir:   envStr("COACH_TRANSCRIPT_DIR", "speakers"),
		Language:        envStr("COACH_TRANSCRIBE_LANGUAGE", "tr"),
		AllowedOrigins:  envList("COACH_ALLOWED_ORIGINS", "*"),
		PlaylistURL:     envStr("COACH_PLAYLIST_URL", ""),
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

func envList(key, fallback string) []string {
	v := os.Getenv(key)
	if v == "" {
		v = fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
