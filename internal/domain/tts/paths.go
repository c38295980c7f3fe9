package tts

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"tts-mcp-go/internal/domain/tts/aggregate"
	platformerrors "tts-mcp-go/internal/platform/errors"
)

const defaultOutputDir = "output"

// OutputPathOptions 输出路径解析参数
type OutputPathOptions struct {
	Explicit   string
	Format     aggregate.Format
	WorkDir    string    // 为空时使用当前工作目录
	DefaultDir string    // 为空时使用 "output"
	Now        time.Time // 为零值时使用当前时间
}

// ResolveOutputPath returns the absolute destination for a saved clip.
// Absolute explicit paths are returned unchanged, relative ones are joined to
// the working directory, and a missing path becomes
// <workdir>/output/speech_<epoch-millis>.<format>. It never touches the
// filesystem beyond reading the working directory.
func ResolveOutputPath(o OutputPathOptions) (string, error) {
	if o.Explicit != "" && filepath.IsAbs(o.Explicit) {
		return o.Explicit, nil
	}

	workDir := o.WorkDir
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", platformerrors.Wrap(platformerrors.KindIO, "tts:output-path", "failed to read working directory", err)
		}
		workDir = wd
	}

	if o.Explicit != "" {
		return filepath.Join(workDir, o.Explicit), nil
	}

	dir := o.DefaultDir
	if dir == "" {
		dir = defaultOutputDir
	}
	now := o.Now
	if now.IsZero() {
		now = time.Now()
	}
	format := o.Format
	if format == "" {
		format = aggregate.DefaultFormat
	}

	name := fmt.Sprintf("speech_%d%s", now.UnixMilli(), format.Extension())
	if filepath.IsAbs(dir) {
		return filepath.Join(dir, name), nil
	}
	return filepath.Join(workDir, dir, name), nil
}
