package inter

import (
	"context"

	"tts-mcp-go/internal/domain/tts/aggregate"
)

// Synthesizer 语音合成提供者接口。返回的音频字节不做解析。
type Synthesizer interface {
	Synthesize(ctx context.Context, req aggregate.SynthesisRequest) ([]byte, error)
	Name() string
}

// Player 外部播放器接口。Play 阻塞直到播放结束或失败。
type Player interface {
	Play(ctx context.Context, path string) error
}

// Logger captures the logging interface consumed by the domain.
type Logger interface {
	Append(message string)
	DebugTag(tag string, format string, args ...any)
	InfoTag(tag string, format string, args ...any)
	WarnTag(tag string, format string, args ...any)
	ErrorTag(tag string, format string, args ...any)
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Append(string)                   {}
func (NopLogger) DebugTag(string, string, ...any) {}
func (NopLogger) InfoTag(string, string, ...any)  {}
func (NopLogger) WarnTag(string, string, ...any)  {}
func (NopLogger) ErrorTag(string, string, ...any) {}
