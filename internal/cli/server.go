package cli

import (
	"github.com/spf13/cobra"

	"tts-mcp-go/internal/bootstrap"
	platformconfig "tts-mcp-go/internal/platform/config"
)

type serverFlags struct {
	commonFlags
	player string
}

// NewServerCommand builds the MCP stdio server command. Stdout belongs to
// the protocol; everything else goes to stderr or the log file.
func NewServerCommand(streams Streams) *cobra.Command {
	f := &serverFlags{}
	cmd := &cobra.Command{
		Use:     "tts-mcp-server",
		Short:   "MCP server exposing a text-to-speech tool over stdio",
		Version: platformconfig.DefaultServerVersion,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := f.load(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("player") {
				cfg.Player.Command = f.player
			}
			if cfg.Log.File == "" {
				cfg.Log.File = platformconfig.DefaultLogFile
			}

			return bootstrap.Run(cmd.Context(), bootstrap.Options{
				Config:     cfg,
				ConfigPath: f.configPath,
				Stdin:      streams.In,
				Stdout:     streams.Out,
				Console:    streams.Err,
			})
		},
	}
	cmd.SetIn(streams.In)
	// Help and version output must not corrupt the protocol stream.
	cmd.SetOut(streams.Err)
	cmd.SetErr(streams.Err)

	f.register(cmd, "f")
	cmd.Flags().StringVar(&f.player, "player", "", "audio player command (default: auto-detect)")
	// The log file always exists in server mode.
	cmd.Flags().Lookup("log-file").DefValue = "./" + platformconfig.DefaultLogFile
	return cmd
}
