package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"tts-mcp-go/internal/domain/tts/aggregate"
	platformerrors "tts-mcp-go/internal/platform/errors"
)

// Environment variables read by the loader.
const (
	EnvAPIKey   = "OPENAI_API_KEY"
	EnvBaseURL  = "OPENAI_BASE_URL"
	EnvModel    = "TTS_MODEL"
	EnvVoice    = "TTS_VOICE"
	EnvFormat   = "TTS_FORMAT"
	EnvSpeed    = "TTS_SPEED"
	EnvLogFile  = "TTS_LOG_FILE"
	EnvLogLevel = "TTS_LOG_LEVEL"
	EnvPlayer   = "TTS_PLAYER"
)

// Loader resolves configuration from defaults, an optional YAML file and
// the environment, in that order of precedence.
type Loader struct {
	useDotEnv bool
	path      string
	lookupEnv func(string) (string, bool)
}

// NewLoader creates a loader that reads .env and the process environment.
func NewLoader() *Loader {
	return &Loader{
		useDotEnv: true,
		lookupEnv: os.LookupEnv,
	}
}

// WithDotEnv toggles loading variables from a .env file before reading config.
func (l *Loader) WithDotEnv(enabled bool) *Loader {
	l.useDotEnv = enabled
	return l
}

// WithPath sets the YAML file to read. An empty path skips the file.
func (l *Loader) WithPath(path string) *Loader {
	l.path = path
	return l
}

// WithEnv overrides environment lookup (useful for tests).
func (l *Loader) WithEnv(lookup func(string) (string, bool)) *Loader {
	if lookup != nil {
		l.lookupEnv = lookup
	}
	return l
}

// Result captures the loaded configuration and its origin path.
type Result struct {
	Config *Config
	Path   string
}

// Load builds the configuration. It does not validate; callers apply their
// own overrides first and then call Validate.
func (l *Loader) Load() (*Result, error) {
	if l.useDotEnv {
		// .env 文件可选；stdout 属于 MCP 协议，这里不输出任何提示
		_ = godotenv.Load()
	}

	cfg := DefaultConfig()
	if l.path != "" {
		data, err := os.ReadFile(l.path)
		if err != nil {
			return nil, platformerrors.Wrap(platformerrors.KindConfig, "config:load", "failed to read config file", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, platformerrors.Wrap(platformerrors.KindConfig, "config:load", "failed to parse config file", err)
		}
	}

	if err := l.applyEnv(cfg); err != nil {
		return nil, err
	}

	return &Result{Config: cfg, Path: l.path}, nil
}

func (l *Loader) applyEnv(cfg *Config) error {
	setString := func(key string, dst *string) {
		if v, ok := l.lookupEnv(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	setString(EnvAPIKey, &cfg.OpenAI.APIKey)
	setString(EnvBaseURL, &cfg.OpenAI.BaseURL)
	setString(EnvModel, &cfg.TTS.Model)
	setString(EnvVoice, &cfg.TTS.Voice)
	setString(EnvFormat, &cfg.TTS.Format)
	setString(EnvLogFile, &cfg.Log.File)
	setString(EnvLogLevel, &cfg.Log.Level)
	setString(EnvPlayer, &cfg.Player.Command)

	if v, ok := l.lookupEnv(EnvSpeed); ok && strings.TrimSpace(v) != "" {
		speed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return platformerrors.Wrap(platformerrors.KindConfig, "config:env", EnvSpeed+" is not a number", err)
		}
		cfg.TTS.Speed = speed
	}
	return nil
}

// Validate checks the values that are fixed for the lifetime of a process
// and stores the canonical model and format names back into c.TTS.
// The voice is not checked here: unknown voices fall back to the default at
// request time.
func (c *Config) Validate() error {
	model, ok := aggregate.ParseModel(c.TTS.Model)
	if !ok {
		return platformerrors.Newf(platformerrors.KindConfig, "config:validate",
			"unsupported model %q (supported: %s)", c.TTS.Model, aggregate.ModelNames())
	}
	format, ok := aggregate.ParseFormat(c.TTS.Format)
	if !ok {
		return platformerrors.Newf(platformerrors.KindConfig, "config:validate",
			"unsupported format %q (supported: %s)", c.TTS.Format, aggregate.FormatNames())
	}
	c.TTS.Model = string(model)
	c.TTS.Format = string(format)
	if !aggregate.SpeedInRange(c.TTS.Speed) {
		return platformerrors.Newf(platformerrors.KindConfig, "config:validate",
			"speed must be between %.2f and %.1f, got %v", aggregate.MinSpeed, aggregate.MaxSpeed, c.TTS.Speed)
	}
	if c.OpenAI.Timeout < 0 || c.Player.Timeout < 0 {
		return platformerrors.New(platformerrors.KindConfig, "config:validate", "timeouts must not be negative")
	}
	return nil
}

// RequireCredential reports a config error when no API key is available.
func (c *Config) RequireCredential() error {
	if strings.TrimSpace(c.OpenAI.APIKey) == "" {
		return platformerrors.New(platformerrors.KindConfig, "config:credential",
			fmt.Sprintf("OpenAI API key is not set; pass --api-key or set %s", EnvAPIKey))
	}
	return nil
}
