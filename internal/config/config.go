package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v10"
)

// ServerConfig centraliza la configuración del proxy.
type ServerConfig struct {
	HTTPPort        string        `env:"HTTP_PORT" envDefault:"8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	LLMProvider     string        `env:"LLM_PROVIDER" envDefault:"openai"`
	LLMAPIKey       string        `env:"LLM_API_KEY"`
	LLMBaseURL      string        `env:"LLM_BASE_URL" envDefault:"https://api.openai.com/v1"`
	GeminiAPIKey    string        `env:"GEMINI_API_KEY"`
	GeminiModel     string        `env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash"`
	SystemPrompt    string        `env:"CHAT_SYSTEM_PROMPT" envDefault:"You are a helpful AI assistant. Provide clear, accurate, and helpful responses."`
	MaxTokens       int           `env:"CHAT_MAX_TOKENS" envDefault:"1000"`
	Temperature     float64       `env:"CHAT_TEMPERATURE" envDefault:"0.7"`
}

// ClientConfig centraliza la configuración del cliente de terminal.
type ClientConfig struct {
	ProxyURL      string        `env:"CHAT_PROXY_URL" envDefault:"http://localhost:8080/api/openai/chat"`
	HeaderTimeout time.Duration `env:"CHAT_HEADER_TIMEOUT" envDefault:"60s"`
	Store         string        `env:"CHAT_STORE" envDefault:"file"`
	StorePath     string        `env:"CHAT_STORE_PATH"`
	LogFile       string        `env:"CHAT_LOG_FILE"`
	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	RedisPrefix   string        `env:"REDIS_PREFIX" envDefault:"streamchat:"`
	DatabaseURL   string        `env:"DATABASE_URL"`
}

// LoadServerConfig carga la configuración del proxy desde variables de entorno.
func LoadServerConfig() (*ServerConfig, error) {
	var cfg ServerConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadClientConfig carga la configuración del cliente desde variables de entorno.
func LoadClientConfig() (*ClientConfig, error) {
	var cfg ClientConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if cfg.StorePath == "" {
		cfg.StorePath = DefaultStorePath(cfg.Store)
	}
	return &cfg, nil
}

// DefaultStorePath devuelve la ubicacion por defecto del store local segun el backend.
func DefaultStorePath(store string) string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = os.TempDir()
	}
	dir := filepath.Join(base, "streamchat")
	if store == "sqlite" {
		return filepath.Join(dir, "chat.db")
	}
	return dir
}
