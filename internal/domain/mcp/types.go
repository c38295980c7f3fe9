package mcp

import (
	"context"

	"tts-mcp-go/internal/domain/tts/aggregate"
)

// ToolName is the only tool this server exposes.
const ToolName = "text-to-speech"

// Speaker runs one synthesize-and-play cycle.
type Speaker interface {
	Speak(ctx context.Context, req aggregate.SynthesisRequest) (*aggregate.PlaybackResult, error)
}

// ToolConfig 服务启动时绑定的语音参数，调用期间只读
type ToolConfig struct {
	Model        aggregate.Model
	Voice        aggregate.Voice
	Format       aggregate.Format
	Credential   string
	Instructions string
}

// Logger captures the logging interface consumed by the domain.
type Logger interface {
	DebugTag(tag string, format string, args ...any)
	InfoTag(tag string, format string, args ...any)
	WarnTag(tag string, format string, args ...any)
	ErrorTag(tag string, format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) DebugTag(string, string, ...any) {}
func (nopLogger) InfoTag(string, string, ...any)  {}
func (nopLogger) WarnTag(string, string, ...any)  {}
func (nopLogger) ErrorTag(string, string, ...any) {}
