package player

import (
	"bytes"
	"context"
	"os/exec"
	"runtime"
	"strings"
	"time"

	platformerrors "tts-mcp-go/internal/platform/errors"
)

// candidates 各平台按顺序探测的播放器，每项为命令及其固定参数
var candidates = map[string][][]string{
	"darwin": {
		{"afplay"},
	},
	"linux": {
		{"mpg123", "-q"},
		{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet"},
		{"mpv", "--no-video", "--really-quiet"},
		{"mplayer", "-really-quiet"},
		{"paplay"},
		{"aplay", "-q"},
		{"cvlc", "--play-and-exit", "--quiet"},
		{"play", "-q"},
	},
	"windows": {
		{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet"},
		{"mpv", "--no-video", "--really-quiet"},
		{"mplayer", "-really-quiet"},
	},
}

type Config struct {
	// Command overrides detection. Args are placed before the file path.
	Command string
	Args    []string
	// Timeout kills the player after the given duration. Zero waits forever.
	Timeout time.Duration
}

// ExecPlayer plays an audio file by running an external program and waiting
// for it to exit. Its output is captured, never forwarded.
type ExecPlayer struct {
	command  string
	args     []string
	timeout  time.Duration
	lookPath func(string) (string, error)
}

func NewExecPlayer(cfg Config) *ExecPlayer {
	return &ExecPlayer{
		command:  cfg.Command,
		args:     cfg.Args,
		timeout:  cfg.Timeout,
		lookPath: exec.LookPath,
	}
}

// Resolve returns the command line the player would run, without the file.
func (p *ExecPlayer) Resolve() (string, []string, error) {
	if p.command != "" {
		path, err := p.lookPath(p.command)
		if err != nil {
			return "", nil, platformerrors.Wrap(platformerrors.KindPlayback, "player:resolve",
				"audio player "+p.command+" not found", err)
		}
		return path, p.args, nil
	}

	for _, candidate := range candidates[runtime.GOOS] {
		if path, err := p.lookPath(candidate[0]); err == nil {
			return path, candidate[1:], nil
		}
	}
	return "", nil, platformerrors.Newf(platformerrors.KindPlayback, "player:resolve",
		"no audio player found for %s; set player.command or TTS_PLAYER", runtime.GOOS)
}

// Play blocks until the player exits.
func (p *ExecPlayer) Play(ctx context.Context, path string) error {
	command, args, err := p.Resolve()
	if err != nil {
		return err
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	argv := append(append([]string{}, args...), path)
	cmd := exec.CommandContext(ctx, command, argv...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Players that fork helpers can keep the pipes open after being killed.
	cmd.WaitDelay = 2 * time.Second

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return platformerrors.Wrap(platformerrors.KindPlayback, "player:play", "playback interrupted", ctxErr)
		}
		msg := "audio player failed"
		if detail := strings.TrimSpace(stderr.String()); detail != "" {
			msg += ": " + detail
		}
		return platformerrors.Wrap(platformerrors.KindPlayback, "player:play", msg, err)
	}
	return nil
}
