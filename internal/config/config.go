package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr    string
	DBPath        string
	FilePath      string
	LogLevel      string
	LogFile       string
	JWTSecret     string
	TokenTTL      time.Duration
	RefreshTTL    time.Duration
	AdminEmail    string
	AdminPassword string
	ScanBackend   string
	OllamaHost    string
	OllamaModel   string
	ClaudeKey     string
	ClaudeModel   string
}

func Load() *Config {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	return &Config{
		ListenAddr:    getEnv("LISTEN_ADDR", ":8080"),
		DBPath:        getEnv("DB_PATH", "/data/stockroom.db"),
		FilePath:      getEnv("FILE_PATH", "/data/files"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFile:       getEnv("LOG_FILE", ""),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		TokenTTL:      getDuration("TOKEN_TTL_MINUTES", 15) * time.Minute,
		RefreshTTL:    getDuration("REFRESH_TTL_HOURS", 24*14) * time.Hour,
		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		ScanBackend:   getEnv("SCAN_BACKEND", "disabled"),
		OllamaHost:    getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OllamaModel:   getEnv("OLLAMA_MODEL", "moondream"),
		ClaudeKey:     getEnv("CLAUDE_API_KEY", ""),
		ClaudeModel:   getEnv("CLAUDE_MODEL", "claude-sonnet-4-20250514"),
	}
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

func getDuration(key string, defaultVal int64) time.Duration {
	if val, exists := os.LookupEnv(key); exists {
		if n, err := strconv.ParseInt(val, 10, 64); err == nil && n > 0 {
			return time.Duration(n)
		}
	}
	return time.Duration(defaultVal)
}
