package tts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"tts-mcp-go/internal/domain/tts/aggregate"
	"tts-mcp-go/internal/domain/tts/infrastructure/audio"
	"tts-mcp-go/internal/domain/tts/inter"
	platformerrors "tts-mcp-go/internal/platform/errors"
	"tts-mcp-go/internal/platform/observability"
)

// ServiceOptions 语音服务依赖
type ServiceOptions struct {
	Synthesizer inter.Synthesizer
	// Player is only needed by Speak.
	Player inter.Player
	Logger inter.Logger
	// TempDir defaults to os.TempDir().
	TempDir string
	// Sequential makes concurrent Speak calls wait for each other.
	Sequential bool
}

// Service runs one synthesis per call and hands the audio either to a file
// (Save) or to the external player (Speak).
type Service struct {
	synth   inter.Synthesizer
	player  inter.Player
	logger  inter.Logger
	tempDir string
	gate    *semaphore.Weighted
}

func NewService(opts ServiceOptions) (*Service, error) {
	if opts.Synthesizer == nil {
		return nil, platformerrors.New(platformerrors.KindConfig, "tts:new-service", "synthesizer is required")
	}

	s := &Service{
		synth:   opts.Synthesizer,
		player:  opts.Player,
		logger:  opts.Logger,
		tempDir: opts.TempDir,
	}
	if s.logger == nil {
		s.logger = inter.NopLogger{}
	}
	if s.tempDir == "" {
		s.tempDir = os.TempDir()
	}
	if opts.Sequential {
		s.gate = semaphore.NewWeighted(1)
	}
	return s, nil
}

func (s *Service) synthesize(ctx context.Context, req aggregate.SynthesisRequest) ([]byte, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	s.logger.InfoTag("TTS", "语音生成开始 (provider=%s, model=%s, chars=%d)", s.synth.Name(), req.Model, req.TextLength())

	spanCtx, end := observability.StartSpan(ctx, "tts", "synthesize")
	data, err := s.synth.Synthesize(spanCtx, req)
	end(err)
	if err != nil {
		return nil, err
	}

	observability.RecordMetric(ctx, "tts.audio.bytes", float64(len(data)), map[string]string{
		"format":   string(req.Format),
		"provider": s.synth.Name(),
	})
	return data, nil
}

// Save synthesizes req and writes the audio to outputPath, creating the
// parent directory when needed. An existing file is overwritten.
func (s *Service) Save(ctx context.Context, req aggregate.SynthesisRequest, outputPath string) (*aggregate.SaveResult, error) {
	if outputPath == "" {
		return nil, platformerrors.New(platformerrors.KindValidation, "tts:save", "output path is required")
	}

	data, err := s.synthesize(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := s.ensureDir(filepath.Dir(outputPath)); err != nil {
		return nil, err
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindIO, "tts:save", "failed to write audio file", err)
	}

	result := &aggregate.SaveResult{
		Path:       outputPath,
		Bytes:      len(data),
		TextLength: req.TextLength(),
	}
	if d, ok := audio.EstimateDuration(req.Format, data); ok {
		result.AudioSeconds = audio.Seconds(d)
	}

	s.logger.InfoTag("TTS", "音频文件已生成: %s (%d bytes)", outputPath, len(data))
	return result, nil
}

func (s *Service) ensureDir(dir string) error {
	if _, err := os.Stat(dir); err == nil {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return platformerrors.Wrap(platformerrors.KindIO, "tts:save", "failed to create output directory", err)
	}
	s.logger.InfoTag("TTS", "已创建目录: %s", dir)
	return nil
}

// Speak synthesizes req, plays it through a temporary file and reports how
// long playback took. Once the temporary file exists it is removed on every
// path; removal failures are logged and never returned.
func (s *Service) Speak(ctx context.Context, req aggregate.SynthesisRequest) (*aggregate.PlaybackResult, error) {
	if s.player == nil {
		return nil, platformerrors.New(platformerrors.KindConfig, "tts:speak", "no audio player configured")
	}

	if s.gate != nil {
		if err := s.gate.Acquire(ctx, 1); err != nil {
			return nil, platformerrors.Wrap(platformerrors.KindPlayback, "tts:speak", "cancelled while waiting for previous playback", err)
		}
		defer s.gate.Release(1)
	}

	data, err := s.synthesize(ctx, req)
	if err != nil {
		s.logger.ErrorTag("TTS", "语音生成失败: %v", err)
		return nil, err
	}

	path, err := s.writeTemp(data, req.Format)
	if path != "" {
		defer s.removeTemp(path)
	}
	if err != nil {
		s.logger.ErrorTag("TTS", "写入临时文件失败: %v", err)
		return nil, err
	}
	s.logger.Append(fmt.Sprintf("[TTS] 临时音频文件已创建: %s", path))

	s.logger.InfoTag("播放", "开始播放: %s", path)
	start := time.Now()
	spanCtx, end := observability.StartSpan(ctx, "player", "play")
	err = s.player.Play(spanCtx, path)
	end(err)
	if err != nil {
		s.logger.ErrorTag("播放", "播放失败: %v", err)
		return nil, platformerrors.Wrap(platformerrors.KindPlayback, "tts:speak", "playback failed", err)
	}

	elapsed := time.Since(start)
	result := &aggregate.PlaybackResult{
		DurationSeconds: audio.Seconds(elapsed),
		TextLength:      req.TextLength(),
	}
	if d, ok := audio.EstimateDuration(req.Format, data); ok {
		result.AudioSeconds = audio.Seconds(d)
	}

	observability.RecordMetric(ctx, "tts.playback.seconds", elapsed.Seconds(), nil)
	s.logger.InfoTag("播放", "播放完成 (耗时: %.1f秒)", result.DurationSeconds)
	return result, nil
}

// writeTemp creates a fresh file in the temp dir. A non-empty path is
// returned whenever the file was created, even if writing failed.
func (s *Service) writeTemp(data []byte, format aggregate.Format) (string, error) {
	name := fmt.Sprintf("speech_%s%s", uuid.NewString(), format.Extension())
	path := filepath.Join(s.tempDir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", platformerrors.Wrap(platformerrors.KindIO, "tts:temp-file", "failed to create temporary audio file", err)
	}

	_, writeErr := f.Write(data)
	closeErr := f.Close()
	if writeErr != nil {
		return path, platformerrors.Wrap(platformerrors.KindIO, "tts:temp-file", "failed to write temporary audio file", writeErr)
	}
	if closeErr != nil {
		return path, platformerrors.Wrap(platformerrors.KindIO, "tts:temp-file", "failed to write temporary audio file", closeErr)
	}
	return path, nil
}

func (s *Service) removeTemp(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.WarnTag("TTS", "删除临时文件失败: %v", err)
		return
	}
	s.logger.Append(fmt.Sprintf("[TTS] 已删除临时文件: %s", path))
}
