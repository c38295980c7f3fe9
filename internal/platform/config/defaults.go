package config

import "time"

const (
	DefaultServerName    = "tts-mcp"
	DefaultServerVersion = "1.0.0"
	DefaultLogFile       = "tts-mcp.log"
)

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Name:    DefaultServerName,
			Version: DefaultServerVersion,
		},
		OpenAI: OpenAIConfig{
			Timeout: 2 * time.Minute,
		},
		TTS: TTSConfig{
			Model:     "tts-1",
			Voice:     "alloy",
			Format:    "mp3",
			Speed:     1.0,
			OutputDir: "output",
		},
		Player: PlayerConfig{
			Sequential: true,
		},
		Log: LogConfig{
			Level: "INFO",
		},
	}
}
