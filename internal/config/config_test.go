package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vango-dev/spendsync/internal/errors"
)

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.API.BaseURL != DefaultBaseURL {
		t.Errorf("API.BaseURL = %q, want %q", cfg.API.BaseURL, DefaultBaseURL)
	}
	if cfg.API.Transport != TransportHTTP {
		t.Errorf("API.Transport = %q, want %q", cfg.API.Transport, TransportHTTP)
	}
	if cfg.Timeout() != 30*time.Second {
		t.Errorf("Timeout() = %v, want 30s", cfg.Timeout())
	}
	if cfg.Attachments.Backend != BackendMemory {
		t.Errorf("Attachments.Backend = %q, want %q", cfg.Attachments.Backend, BackendMemory)
	}
	if cfg.Attachments.MaxSize != DefaultMaxAttachmentSize {
		t.Errorf("Attachments.MaxSize = %d, want %d", cfg.Attachments.MaxSize, DefaultMaxAttachmentSize)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadYAML(t *testing.T) {
	tmpDir := t.TempDir()

	if _, err := Load(tmpDir); !errors.HasCode(err, "S100") {
		t.Errorf("expected S100 for missing config, got %v", err)
	}

	configYAML := `api:
  baseURL: https://api.example.com
  transport: ws
  timeout: 5s
  retry:
    initialInterval: 100ms
locale: es
log:
  level: debug
attachments:
  backend: s3
  bucket: receipts
`
	if err := os.WriteFile(filepath.Join(tmpDir, "spendsync.yaml"), []byte(configYAML), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.API.BaseURL != "https://api.example.com" {
		t.Errorf("API.BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.API.Transport != TransportWS {
		t.Errorf("API.Transport = %q, want ws", cfg.API.Transport)
	}
	if cfg.Timeout() != 5*time.Second {
		t.Errorf("Timeout() = %v, want 5s", cfg.Timeout())
	}
	if cfg.RetryInitialInterval() != 100*time.Millisecond {
		t.Errorf("RetryInitialInterval() = %v", cfg.RetryInitialInterval())
	}
	if cfg.RetryMaxElapsed() != 5*time.Second {
		t.Errorf("expected default retry budget, got %v", cfg.RetryMaxElapsed())
	}
	if cfg.Locale != "es" || cfg.Log.Level != "debug" || cfg.Log.Format != "text" {
		t.Errorf("unexpected locale/log %q %+v", cfg.Locale, cfg.Log)
	}
	if cfg.Attachments.Bucket != "receipts" || cfg.Attachments.Prefix != "attachments/" {
		t.Errorf("unexpected attachments %+v", cfg.Attachments)
	}
	if cfg.WebSocketURL() != "wss://api.example.com/ws" {
		t.Errorf("WebSocketURL() = %q", cfg.WebSocketURL())
	}
	if cfg.Path() != filepath.Join(tmpDir, "spendsync.yaml") {
		t.Errorf("Path() = %q", cfg.Path())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadFileJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spendsync.json")
	if err := os.WriteFile(path, []byte(`{"api": {"baseURL": "http://localhost:9000"}, "attachments": {"backend": "disk", "dir": "files"}}`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if cfg.API.BaseURL != "http://localhost:9000" {
		t.Errorf("API.BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.AttachmentDir() != filepath.Join(filepath.Dir(path), "files") {
		t.Errorf("AttachmentDir() = %q", cfg.AttachmentDir())
	}
	if cfg.WebSocketURL() != "ws://localhost:9000/ws" {
		t.Errorf("WebSocketURL() = %q", cfg.WebSocketURL())
	}
}

func TestLoadFileErrors(t *testing.T) {
	tmpDir := t.TempDir()
	tests := []struct {
		name    string
		file    string
		content string
		code    string
	}{
		{"invalid json", "spendsync.json", "not valid json", "S100"},
		{"invalid yaml", "spendsync.yaml", "api: [unclosed", "S100"},
		{"unsupported", "spendsync.toml", "a = 1", "S102"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(tmpDir, tt.file)
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := LoadFile(path)
			if !errors.HasCode(err, tt.code) {
				t.Errorf("expected %s error, got: %v", tt.code, err)
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spendsync.yaml")
	if err := os.WriteFile(path, []byte("locale: en\n"), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("SPENDSYNC_API_BASE_URL", "http://mock:8080")
	t.Setenv("SPENDSYNC_API_TRANSPORT", "ws")
	t.Setenv("SPENDSYNC_LOCALE", "es")
	t.Setenv("SPENDSYNC_LOG_LEVEL", "warn")
	t.Setenv("SPENDSYNC_ATTACHMENTS_BACKEND", "disk")
	t.Setenv("SPENDSYNC_ATTACHMENTS_MAX_SIZE", "1024")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if cfg.API.BaseURL != "http://mock:8080" || cfg.API.Transport != "ws" {
		t.Errorf("unexpected api %+v", cfg.API)
	}
	if cfg.Locale != "es" || cfg.Log.Level != "warn" {
		t.Errorf("unexpected locale %q, level %q", cfg.Locale, cfg.Log.Level)
	}
	if cfg.Attachments.Backend != "disk" || cfg.Attachments.MaxSize != 1024 {
		t.Errorf("unexpected attachments %+v", cfg.Attachments)
	}
}

func TestSave(t *testing.T) {
	for _, name := range []string{"spendsync.yaml", "spendsync.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)

			cfg := New()
			cfg.Locale = "es"

			if err := cfg.Save(); err == nil {
				t.Error("expected error when saving without path")
			}
			if err := cfg.SaveTo(path); err != nil {
				t.Fatalf("SaveTo error: %v", err)
			}

			loaded, err := LoadFile(path)
			if err != nil {
				t.Fatalf("LoadFile error: %v", err)
			}
			if loaded.Locale != "es" {
				t.Errorf("Locale = %q, want es", loaded.Locale)
			}

			loaded.API.Transport = TransportWS
			if err := loaded.Save(); err != nil {
				t.Fatalf("Save error: %v", err)
			}
			reloaded, err := LoadFile(path)
			if err != nil {
				t.Fatalf("LoadFile error: %v", err)
			}
			if reloaded.API.Transport != TransportWS {
				t.Errorf("Transport = %q, want ws", reloaded.API.Transport)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		detail string
	}{
		{"base url", func(c *Config) { c.API.BaseURL = "ftp://x" }, "api.baseURL"},
		{"transport", func(c *Config) { c.API.Transport = "grpc" }, "api.transport"},
		{"timeout", func(c *Config) { c.API.Timeout = "soon" }, "api.timeout"},
		{"retry", func(c *Config) { c.API.Retry.MaxElapsed = "-1s" }, "api.retry.maxElapsed"},
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"backend", func(c *Config) { c.Attachments.Backend = "ftp" }, "attachments.backend"},
		{"bucket", func(c *Config) { c.Attachments.Backend = BackendS3 }, "attachments.bucket"},
		{"max size", func(c *Config) { c.Attachments.MaxSize = -1 }, "attachments.maxSize"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.HasCode(err, "S101") {
				t.Fatalf("expected S101, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.detail) {
				t.Errorf("expected %q in %q", tt.detail, err.Error())
			}
		})
	}
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "spendsync.yml"), []byte("locale: en\n"), 0644); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	found, err := FindProjectRoot(nested)
	if err != nil {
		t.Fatalf("FindProjectRoot error: %v", err)
	}
	want, _ := filepath.Abs(root)
	if found != want {
		t.Errorf("FindProjectRoot = %q, want %q", found, want)
	}
	if !Exists(root) || Exists(nested) {
		t.Error("Exists mismatch")
	}
}
