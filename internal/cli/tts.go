package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tts-mcp-go/internal/domain/tts"
	"tts-mcp-go/internal/domain/tts/aggregate"
	"tts-mcp-go/internal/domain/tts/infrastructure/adapters/openai"
	platformlogging "tts-mcp-go/internal/platform/logging"
	"tts-mcp-go/internal/platform/observability"
)

type speakFlags struct {
	commonFlags
	text         string
	file         string
	output       string
	speed        float64
	instructions string
}

// NewTTSCommand builds the file-output command.
func NewTTSCommand(streams Streams) *cobra.Command {
	f := &speakFlags{}
	cmd := &cobra.Command{
		Use:   "tts",
		Short: "Convert text to speech with the OpenAI API and save it to a file",
		Example: `  tts -t "Hello, world" -o hello.mp3
  tts -f script.txt -v nova --format wav
  tts -t "Welcome" -m gpt-4o-mini-tts --instructions "Speak cheerfully"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSpeak(cmd, streams, f)
		},
	}
	cmd.SetIn(streams.In)
	cmd.SetOut(streams.Out)
	cmd.SetErr(streams.Err)

	f.register(cmd, "")
	flags := cmd.Flags()
	flags.StringVarP(&f.text, "text", "t", "", "text to convert")
	flags.StringVarP(&f.file, "file", "f", "", "read the text from this file")
	flags.StringVarP(&f.output, "output", "o", "", "output file (default ./output/speech_<timestamp>.<format>)")
	flags.Float64VarP(&f.speed, "speed", "s", aggregate.DefaultSpeed, "speech speed (0.25-4.0)")
	flags.StringVar(&f.instructions, "instructions", "", "voice style instructions (gpt-4o-mini-tts)")
	return cmd
}

func runSpeak(cmd *cobra.Command, streams Streams, f *speakFlags) error {
	opts := tts.Options{Text: f.text, FilePath: f.file}
	if cmd.Flags().Changed("speed") {
		opts.Speed = &f.speed
	}
	if err := tts.ValidateOptions(opts); err != nil {
		return err
	}

	cfg, err := f.load(cmd)
	if err != nil {
		return err
	}
	if opts.Speed != nil {
		cfg.TTS.Speed = *opts.Speed
	}
	if cmd.Flags().Changed("instructions") {
		cfg.TTS.Instructions = f.instructions
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.RequireCredential(); err != nil {
		return err
	}

	logger := platformlogging.New(platformlogging.Config{
		Level:   cfg.Log.Level,
		File:    cfg.Log.File,
		Console: streams.Err,
	})
	defer logger.Close()

	ctx := cmd.Context()
	shutdown, err := observability.Setup(ctx, observability.Config{
		Enabled: strings.EqualFold(cfg.Log.Level, "debug"),
	}, logger.Slog())
	if err != nil {
		return err
	}
	defer shutdown(ctx)

	text, err := tts.LoadText(f.text, f.file)
	if err != nil {
		return err
	}

	format := aggregate.Format(cfg.TTS.Format)
	outputPath, err := tts.ResolveOutputPath(tts.OutputPathOptions{
		Explicit:   f.output,
		Format:     format,
		DefaultDir: cfg.TTS.OutputDir,
	})
	if err != nil {
		return err
	}

	provider := openai.NewProvider(openai.Config{
		BaseURL:      cfg.OpenAI.BaseURL,
		Organization: cfg.OpenAI.Organization,
		Timeout:      cfg.OpenAI.Timeout,
	}, logger)
	service, err := tts.NewService(tts.ServiceOptions{Synthesizer: provider, Logger: logger})
	if err != nil {
		return err
	}

	result, err := service.Save(ctx, aggregate.SynthesisRequest{
		Text:         text,
		Model:        aggregate.Model(cfg.TTS.Model),
		Voice:        aggregate.Voice(cfg.TTS.Voice),
		Speed:        cfg.TTS.Speed,
		Format:       format,
		Instructions: cfg.TTS.Instructions,
		Credential:   cfg.OpenAI.APIKey,
	}, outputPath)
	if err != nil {
		return err
	}

	if result.AudioSeconds > 0 {
		logger.InfoTag("CLI", "处理完成 (%d 字符, 约 %.1f 秒)", result.TextLength, result.AudioSeconds)
	} else {
		logger.InfoTag("CLI", "处理完成 (%d 字符)", result.TextLength)
	}
	fmt.Fprintln(streams.Out, result.Path)
	return nil
}
