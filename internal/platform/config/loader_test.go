package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	platformerrors "tts-mcp-go/internal/platform/errors"
)

func envMap(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func TestLoader_Defaults(t *testing.T) {
	res, err := NewLoader().WithDotEnv(false).WithEnv(envMap(nil)).Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	cfg := res.Config
	if cfg.TTS.Model != "tts-1" || cfg.TTS.Voice != "alloy" || cfg.TTS.Format != "mp3" {
		t.Errorf("unexpected tts defaults: %+v", cfg.TTS)
	}
	if cfg.TTS.Speed != 1.0 {
		t.Errorf("expected default speed 1.0, got %v", cfg.TTS.Speed)
	}
	if !cfg.Player.Sequential {
		t.Error("expected sequential playback by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoader_FileThenEnv(t *testing.T) {
	tempDir := t.TempDir()
	configFile := filepath.Join(tempDir, "tts.yaml")

	configContent := `
openai:
  api_key: "file-key"
  timeout: 30s
tts:
  model: "tts-1-hd"
  voice: "nova"
  format: "wav"
player:
  command: "mpv"
  args: ["--no-video"]
log:
  level: "DEBUG"
  file: "/tmp/tts-test.log"
`
	if err := os.WriteFile(configFile, []byte(configContent), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	res, err := NewLoader().
		WithDotEnv(false).
		WithPath(configFile).
		WithEnv(envMap(map[string]string{EnvVoice: "echo", EnvSpeed: "1.5"})).
		Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	cfg := res.Config
	if res.Path != configFile {
		t.Errorf("expected path %s, got %s", configFile, res.Path)
	}
	if cfg.OpenAI.APIKey != "file-key" {
		t.Errorf("expected api key from file, got %q", cfg.OpenAI.APIKey)
	}
	if cfg.OpenAI.Timeout != 30*time.Second {
		t.Errorf("expected 30s timeout, got %v", cfg.OpenAI.Timeout)
	}
	if cfg.TTS.Model != "tts-1-hd" || cfg.TTS.Format != "wav" {
		t.Errorf("file values not applied: %+v", cfg.TTS)
	}
	if cfg.TTS.Voice != "echo" {
		t.Errorf("env should override file voice, got %s", cfg.TTS.Voice)
	}
	if cfg.TTS.Speed != 1.5 {
		t.Errorf("env speed not applied, got %v", cfg.TTS.Speed)
	}
	if cfg.Player.Command != "mpv" || len(cfg.Player.Args) != 1 {
		t.Errorf("player config not applied: %+v", cfg.Player)
	}
	if cfg.Log.Level != "DEBUG" || cfg.Log.File != "/tmp/tts-test.log" {
		t.Errorf("log section not applied: %+v", cfg.Log)
	}
	if cfg.TTS.OutputDir != "output" {
		t.Errorf("unset keys should keep defaults, got %q", cfg.TTS.OutputDir)
	}
}

func TestLoader_Errors(t *testing.T) {
	_, err := NewLoader().WithDotEnv(false).WithPath(filepath.Join(t.TempDir(), "missing.yaml")).Load()
	if !platformerrors.IsKind(err, platformerrors.KindConfig) {
		t.Fatalf("expected config error for missing file, got %v", err)
	}

	_, err = NewLoader().WithDotEnv(false).WithEnv(envMap(map[string]string{EnvSpeed: "fast"})).Load()
	if !platformerrors.IsKind(err, platformerrors.KindConfig) {
		t.Fatalf("expected config error for bad speed, got %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid config", mutate: func(*Config) {}},
		{name: "unknown voice is tolerated", mutate: func(c *Config) { c.TTS.Voice = "robot" }},
		{name: "unknown model", mutate: func(c *Config) { c.TTS.Model = "tts-9" }, wantErr: true},
		{name: "unknown format", mutate: func(c *Config) { c.TTS.Format = "ogg" }, wantErr: true},
		{name: "speed too high", mutate: func(c *Config) { c.TTS.Speed = 5 }, wantErr: true},
		{name: "negative timeout", mutate: func(c *Config) { c.Player.Timeout = -time.Second }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !platformerrors.IsKind(err, platformerrors.KindConfig) {
				t.Errorf("expected config kind, got %v", err)
			}
		})
	}
}

func TestConfig_ValidateNormalisesNames(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TTS.Model = " TTS-1-HD "
	cfg.TTS.Format = "MP3"

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if cfg.TTS.Model != "tts-1-hd" {
		t.Errorf("model = %q, want tts-1-hd", cfg.TTS.Model)
	}
	if cfg.TTS.Format != "mp3" {
		t.Errorf("format = %q, want mp3", cfg.TTS.Format)
	}
}

func TestConfig_RequireCredential(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.RequireCredential(); !platformerrors.IsKind(err, platformerrors.KindConfig) {
		t.Fatalf("expected config error, got %v", err)
	}
	cfg.OpenAI.APIKey = "sk-test"
	if err := cfg.RequireCredential(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
