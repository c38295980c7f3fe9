package player

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	platformerrors "tts-mcp-go/internal/platform/errors"
)

func requireUnix(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("uses POSIX shell utilities")
	}
}

func TestPlay_Success(t *testing.T) {
	requireUnix(t)
	p := NewExecPlayer(Config{Command: "true"})

	assert.NoError(t, p.Play(context.Background(), "/tmp/clip.mp3"))
}

func TestPlay_NonZeroExit(t *testing.T) {
	requireUnix(t)
	p := NewExecPlayer(Config{Command: "false"})

	err := p.Play(context.Background(), "/tmp/clip.mp3")
	require.Error(t, err)
	assert.True(t, platformerrors.IsKind(err, platformerrors.KindPlayback))
}

func TestPlay_CapturesOutput(t *testing.T) {
	requireUnix(t)
	script := filepath.Join(t.TempDir(), "noisy.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho to-stdout\necho device busy >&2\nexit 3\n"), 0o755))

	p := NewExecPlayer(Config{Command: script})
	err := p.Play(context.Background(), "/tmp/clip.mp3")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "device busy")
	assert.NotContains(t, err.Error(), "to-stdout")
}

func TestPlay_PassesArgsBeforePath(t *testing.T) {
	requireUnix(t)
	dir := t.TempDir()
	out := filepath.Join(dir, "argv.txt")
	script := filepath.Join(dir, "record.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho \"$@\" > "+out+"\n"), 0o755))

	p := NewExecPlayer(Config{Command: script, Args: []string{"-q", "--volume=50"}})
	require.NoError(t, p.Play(context.Background(), "/tmp/clip.mp3"))

	content, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "-q --volume=50 /tmp/clip.mp3\n", string(content))
}

func TestPlay_MissingCommand(t *testing.T) {
	p := NewExecPlayer(Config{Command: "definitely-not-an-audio-player-xyz"})

	err := p.Play(context.Background(), "/tmp/clip.mp3")
	require.Error(t, err)
	assert.True(t, platformerrors.IsKind(err, platformerrors.KindPlayback))
	assert.Contains(t, err.Error(), "not found")
}

func TestPlay_Timeout(t *testing.T) {
	requireUnix(t)
	script := filepath.Join(t.TempDir(), "slow.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nexec sleep 5\n"), 0o755))

	p := NewExecPlayer(Config{Command: script, Timeout: 50 * time.Millisecond})

	start := time.Now()
	err := p.Play(context.Background(), "/tmp/clip.mp3")
	require.Error(t, err)
	assert.True(t, platformerrors.IsKind(err, platformerrors.KindPlayback))
	assert.Contains(t, err.Error(), "interrupted")
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestResolve_Detection(t *testing.T) {
	p := NewExecPlayer(Config{})
	p.lookPath = func(name string) (string, error) {
		if name == candidates[runtime.GOOS][len(candidates[runtime.GOOS])-1][0] {
			return "/usr/bin/" + name, nil
		}
		return "", errors.New("not found")
	}

	if len(candidates[runtime.GOOS]) == 0 {
		_, _, err := p.Resolve()
		assert.Error(t, err)
		return
	}

	last := candidates[runtime.GOOS][len(candidates[runtime.GOOS])-1]
	command, args, err := p.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "/usr/bin/"+last[0], command)
	assert.Equal(t, last[1:], args)
}

func TestResolve_NothingInstalled(t *testing.T) {
	p := NewExecPlayer(Config{})
	p.lookPath = func(string) (string, error) { return "", errors.New("not found") }

	_, _, err := p.Resolve()
	assert.True(t, platformerrors.IsKind(err, platformerrors.KindPlayback))
}
