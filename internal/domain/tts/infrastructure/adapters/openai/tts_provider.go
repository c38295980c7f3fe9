package openai

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"tts-mcp-go/internal/domain/tts/aggregate"
	"tts-mcp-go/internal/domain/tts/inter"
	platformerrors "tts-mcp-go/internal/platform/errors"
)

const providerName = "openai"

// Config OpenAI语音接口配置。凭证不在此处，每次请求单独携带。
type Config struct {
	BaseURL      string
	Organization string
	// Timeout bounds one request including the body read. Zero disables it.
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Provider 调用 OpenAI /audio/speech 接口的语音合成提供者
type Provider struct {
	config Config
	logger inter.Logger
}

func NewProvider(config Config, logger inter.Logger) *Provider {
	if logger == nil {
		logger = inter.NopLogger{}
	}
	return &Provider{config: config, logger: logger}
}

func (p *Provider) Name() string {
	return providerName
}

// newClient builds a client for one credential. The credential is part of
// the request, so clients are not cached.
func (p *Provider) newClient(credential string) *goopenai.Client {
	cfg := goopenai.DefaultConfig(credential)
	if p.config.BaseURL != "" {
		cfg.BaseURL = p.config.BaseURL
	}
	if p.config.Organization != "" {
		cfg.OrgID = p.config.Organization
	}
	if p.config.HTTPClient != nil {
		cfg.HTTPClient = p.config.HTTPClient
	}
	return goopenai.NewClientWithConfig(cfg)
}

// Synthesize sends one speech request and returns the raw audio body.
func (p *Provider) Synthesize(ctx context.Context, req aggregate.SynthesisRequest) ([]byte, error) {
	if req.Credential == "" {
		err := platformerrors.New(platformerrors.KindConfig, "openai:speech", "OpenAI API key is required")
		p.logger.ErrorTag("TTS", "语音生成失败: %v", err)
		return nil, err
	}

	voice, coerced := aggregate.ResolveVoice(string(req.Voice))
	if coerced {
		p.logger.WarnTag("TTS", "未知音色 %q，使用默认音色 %s", req.Voice, voice)
	}

	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()
	}

	speechReq := goopenai.CreateSpeechRequest{
		Model:          goopenai.SpeechModel(req.Model),
		Input:          req.Text,
		Voice:          goopenai.SpeechVoice(voice),
		ResponseFormat: goopenai.SpeechResponseFormat(req.Format),
		Speed:          req.Speed,
	}
	if req.Instructions != "" {
		speechReq.Instructions = req.Instructions
	}

	p.logger.DebugTag("TTS", "请求 OpenAI 语音接口 (model=%s, voice=%s, format=%s, speed=%.2f)",
		req.Model, voice, req.Format, req.Speed)

	resp, err := p.newClient(req.Credential).CreateSpeech(ctx, speechReq)
	if err != nil {
		classified := classify(err)
		p.logger.ErrorTag("TTS", "OpenAI 请求失败: %v", classified)
		return nil, classified
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		wrapped := platformerrors.Wrap(platformerrors.KindTransport, "openai:speech", "failed to read audio response", err)
		p.logger.ErrorTag("TTS", "读取音频数据失败: %v", wrapped)
		return nil, wrapped
	}

	p.logger.DebugTag("TTS", "收到音频数据 %d bytes", len(data))
	return data, nil
}

// classify maps a go-openai error to a kind. A structured error body means
// the provider answered; anything else never got a usable answer.
func classify(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return platformerrors.Newf(platformerrors.KindProvider, "openai:speech",
			"OpenAI API error (status %d): %s", apiErr.HTTPStatusCode, apiErr.Message)
	}

	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return platformerrors.Wrap(platformerrors.KindTransport, "openai:speech",
			"OpenAI request failed with status "+reqErr.HTTPStatus, err)
	}

	return platformerrors.Wrap(platformerrors.KindTransport, "openai:speech", "OpenAI request failed", err)
}
