package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"tts-mcp-go/internal/domain/tts/aggregate"
	platformerrors "tts-mcp-go/internal/platform/errors"
)

// TextToSpeechTool turns tool calls into playback requests.
type TextToSpeechTool struct {
	speaker   Speaker
	config    ToolConfig
	logger    Logger
	validator *argumentValidator
}

func NewTextToSpeechTool(speaker Speaker, config ToolConfig, logger Logger) *TextToSpeechTool {
	if logger == nil {
		logger = nopLogger{}
	}
	t := &TextToSpeechTool{speaker: speaker, config: config, logger: logger}

	validator, err := newArgumentValidator(t.Definition())
	if err != nil {
		// parseArgs still enforces the contract
		logger.WarnTag("MCP", "参数模式校验不可用: %v", err)
	} else {
		t.validator = validator
	}
	return t
}

// Definition 返回工具的名称、描述与参数模式
func (t *TextToSpeechTool) Definition() mcp.Tool {
	return mcp.NewTool(ToolName,
		mcp.WithDescription("Convert text to speech using OpenAI TTS and play it on this machine"),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("The text to speak aloud"),
		),
		mcp.WithNumber("speed",
			mcp.Description(fmt.Sprintf("Speech speed (%.2f-%.1f, default: %.1f)", aggregate.MinSpeed, aggregate.MaxSpeed, aggregate.DefaultSpeed)),
			mcp.Min(aggregate.MinSpeed),
			mcp.Max(aggregate.MaxSpeed),
			mcp.DefaultNumber(aggregate.DefaultSpeed),
		),
		mcp.WithString("instructions",
			mcp.Description("Optional guidance for voice style, tone and delivery"),
		),
	)
}

type toolArgs struct {
	text         string
	speed        float64
	instructions string
}

func parseArgs(raw map[string]any) (toolArgs, error) {
	args := toolArgs{speed: aggregate.DefaultSpeed}

	text, _ := raw["text"].(string)
	if strings.TrimSpace(text) == "" {
		return args, platformerrors.New(platformerrors.KindValidation, "mcp:args", "text is required")
	}
	args.text = text

	if v, ok := raw["speed"]; ok && v != nil {
		speed, err := toFloat(v)
		if err != nil {
			return args, err
		}
		if !aggregate.SpeedInRange(speed) {
			return args, platformerrors.Newf(platformerrors.KindValidation, "mcp:args",
				"speed must be between %.2f and %.1f", aggregate.MinSpeed, aggregate.MaxSpeed)
		}
		args.speed = speed
	}

	if v, ok := raw["instructions"]; ok && v != nil {
		s, isString := v.(string)
		if !isString {
			return args, platformerrors.New(platformerrors.KindValidation, "mcp:args", "instructions must be a string")
		}
		args.instructions = s
	}
	return args, nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, platformerrors.Wrap(platformerrors.KindValidation, "mcp:args", "speed must be a number", err)
		}
		return f, nil
	default:
		return 0, platformerrors.New(platformerrors.KindValidation, "mcp:args", "speed must be a number")
	}
}

// Handle never returns a Go error: every failure, panics included, becomes
// an error result for the calling agent.
func (t *TextToSpeechTool) Handle(ctx context.Context, req mcp.CallToolRequest) (result *mcp.CallToolResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.ErrorTag("MCP", "工具调用异常: %v", r)
			result = failure(platformerrors.Newf(platformerrors.KindUnknown, "mcp:call", "unexpected failure: %v", r))
			err = nil
		}
	}()

	raw, _ := any(req.Params.Arguments).(map[string]any)
	if t.validator != nil {
		if err := t.validator.validate(raw); err != nil {
			t.logger.WarnTag("MCP", "工具参数无效: %v", err)
			return failure(err), nil
		}
	}
	args, parseErr := parseArgs(raw)
	if parseErr != nil {
		t.logger.WarnTag("MCP", "工具参数无效: %v", parseErr)
		return failure(parseErr), nil
	}

	instructions := args.instructions
	if instructions == "" {
		instructions = t.config.Instructions
	}

	synthesis := aggregate.SynthesisRequest{
		Text:         args.text,
		Model:        t.config.Model,
		Voice:        t.config.Voice,
		Speed:        args.speed,
		Format:       t.config.Format,
		Instructions: instructions,
		Credential:   t.config.Credential,
	}

	t.logger.InfoTag("MCP", "收到语音请求 (chars=%d, speed=%.2f)", synthesis.TextLength(), args.speed)
	played, speakErr := t.speaker.Speak(ctx, synthesis)
	if speakErr != nil {
		t.logger.ErrorTag("MCP", "语音请求失败: %v", speakErr)
		return failure(speakErr), nil
	}

	res := mcp.NewToolResultText(fmt.Sprintf("Played text as speech (duration: %.1f seconds)", played.DurationSeconds))
	res.Meta = map[string]any{
		"duration":      played.DurationSeconds,
		"text_length":   played.TextLength,
		"audio_seconds": played.AudioSeconds,
	}
	t.logger.InfoTag("MCP", "语音请求完成 (耗时: %.1f秒)", played.DurationSeconds)
	return res, nil
}

func failure(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError("Error: failed to generate or play speech - " + platformerrors.Summary(err))
}
