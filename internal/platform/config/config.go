package config

import (
	"time"
)

type Config struct {
	Server ServerConfig `yaml:"server"`
	OpenAI OpenAIConfig `yaml:"openai"`
	TTS    TTSConfig    `yaml:"tts"`
	Player PlayerConfig `yaml:"player"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig identifies the MCP server to connecting clients.
type ServerConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type OpenAIConfig struct {
	APIKey       string        `yaml:"api_key"`
	BaseURL      string        `yaml:"base_url"`
	Organization string        `yaml:"organization"`
	Timeout      time.Duration `yaml:"timeout"`
}

type TTSConfig struct {
	Model        string  `yaml:"model"`
	Voice        string  `yaml:"voice"`
	Format       string  `yaml:"format"`
	Speed        float64 `yaml:"speed"`
	Instructions string  `yaml:"instructions"`
	// OutputDir is the directory, relative to the working directory, used
	// when the CLI is not given an explicit output path.
	OutputDir string `yaml:"output_dir"`
}

// PlayerConfig 音频播放器配置
type PlayerConfig struct {
	Command    string        `yaml:"command"`
	Args       []string      `yaml:"args"`
	Timeout    time.Duration `yaml:"timeout"`
	Sequential bool          `yaml:"sequential"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}
