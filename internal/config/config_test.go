package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLoadServerConfigDefaults(t *testing.T) {
	t.Setenv("LLM_API_KEY", "sk-test")

	cfg, err := LoadServerConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPPort != "8080" || cfg.LLMProvider != "openai" || cfg.LLMAPIKey != "sk-test" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Temperature != 0.7 || cfg.ShutdownTimeout != 10*time.Second {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadServerConfigRejectsBadNumbers(t *testing.T) {
	t.Setenv("CHAT_MAX_TOKENS", "lots")
	if _, err := LoadServerConfig(); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestLoadClientConfigStorePath(t *testing.T) {
	t.Setenv("CHAT_STORE", "sqlite")
	t.Setenv("CHAT_STORE_PATH", "")

	cfg, err := LoadClientConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if filepath.Base(cfg.StorePath) != "chat.db" {
		t.Fatalf("expected sqlite default path, got %q", cfg.StorePath)
	}

	dir := t.TempDir()
	t.Setenv("CHAT_STORE_PATH", dir)
	cfg, err = LoadClientConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StorePath != dir || cfg.ProxyURL != "http://localhost:8080/api/openai/chat" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}
