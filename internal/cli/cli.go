package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	platformconfig "tts-mcp-go/internal/platform/config"
	platformerrors "tts-mcp-go/internal/platform/errors"
)

// Streams 命令使用的标准输入输出
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// StdStreams returns the process streams.
func StdStreams() Streams {
	return Streams{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
}

// Execute runs cmd and converts any error into "Error: <message>" on stderr
// and exit code 1.
func Execute(ctx context.Context, cmd *cobra.Command, stderr io.Writer) int {
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", platformerrors.Summary(err))
		return 1
	}
	return 0
}

// commonFlags are shared by both commands. Values only override the loaded
// configuration when the flag was set explicitly.
type commonFlags struct {
	configPath string
	apiKey     string
	baseURL    string
	model      string
	voice      string
	format     string
	logFile    string
	logLevel   string
}

func (f *commonFlags) register(cmd *cobra.Command, formatShorthand string) {
	flags := cmd.Flags()
	flags.StringVar(&f.configPath, "config", "", "YAML config file")
	flags.StringVar(&f.apiKey, "api-key", "", "OpenAI API key (default $"+platformconfig.EnvAPIKey+")")
	flags.StringVar(&f.baseURL, "base-url", "", "OpenAI API base URL (default $"+platformconfig.EnvBaseURL+")")
	flags.StringVarP(&f.model, "model", "m", "tts-1", "TTS model (tts-1, tts-1-hd, gpt-4o-mini-tts)")
	flags.StringVarP(&f.voice, "voice", "v", "alloy", "voice (alloy, ash, coral, echo, fable, onyx, nova, sage, shimmer)")
	flags.StringVarP(&f.format, "format", formatShorthand, "mp3", "audio format (mp3, opus, aac, flac, wav, pcm)")
	flags.StringVar(&f.logFile, "log-file", "", "append logs to this file")
	flags.StringVar(&f.logLevel, "log-level", "", "log level (debug, info, warn, error)")
}

// load reads .env, the optional config file and the environment, then
// applies explicitly set flags.
func (f *commonFlags) load(cmd *cobra.Command) (*platformconfig.Config, error) {
	result, err := platformconfig.NewLoader().WithPath(f.configPath).Load()
	if err != nil {
		return nil, err
	}
	cfg := result.Config

	flags := cmd.Flags()
	override := func(name string, value string, dst *string) {
		if flags.Changed(name) {
			*dst = value
		}
	}
	override("api-key", f.apiKey, &cfg.OpenAI.APIKey)
	override("base-url", f.baseURL, &cfg.OpenAI.BaseURL)
	override("model", f.model, &cfg.TTS.Model)
	override("voice", f.voice, &cfg.TTS.Voice)
	override("format", f.format, &cfg.TTS.Format)
	override("log-file", f.logFile, &cfg.Log.File)
	override("log-level", f.logLevel, &cfg.Log.Level)
	return cfg, nil
}
