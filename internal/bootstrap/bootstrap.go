package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	domainmcp "tts-mcp-go/internal/domain/mcp"
	"tts-mcp-go/internal/domain/player"
	"tts-mcp-go/internal/domain/tts"
	"tts-mcp-go/internal/domain/tts/aggregate"
	"tts-mcp-go/internal/domain/tts/infrastructure/adapters/openai"
	"tts-mcp-go/internal/domain/tts/inter"
	platformconfig "tts-mcp-go/internal/platform/config"
	platformerrors "tts-mcp-go/internal/platform/errors"
	platformlogging "tts-mcp-go/internal/platform/logging"
	platformobservability "tts-mcp-go/internal/platform/observability"
)

// Options 服务启动参数。配置在进入启动流程前已合并命令行参数。
type Options struct {
	Config     *platformconfig.Config
	ConfigPath string
	Stdin      io.Reader
	Stdout     io.Writer
	// Console receives human readable logs. Defaults to os.Stderr.
	Console io.Writer
	// Player replaces the external player, mainly for tests.
	Player inter.Player
}

type stepFn func(context.Context, *appState) error

type initStep struct {
	ID        string
	Title     string
	DependsOn []string
	Kind      platformerrors.Kind
	Execute   stepFn
}

type appState struct {
	opts                  Options
	config                *platformconfig.Config
	logger                *platformlogging.Logger
	slogger               *slog.Logger
	observabilityShutdown platformobservability.ShutdownFunc
	speechService         *tts.Service
	mcpServer             *domainmcp.Server
}

// Run 启动 MCP 服务并阻塞，直到标准输入关闭或收到退出信号。
func Run(ctx context.Context, opts Options) error {
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Console == nil {
		opts.Console = os.Stderr
	}

	state := &appState{opts: opts}
	defer state.close()

	steps := InitGraph()
	if err := executeInitSteps(ctx, steps, state); err != nil {
		if state.logger != nil {
			state.logger.ErrorTag("引导", "启动失败: %v", err)
		}
		return err
	}

	logger := state.logger
	if state.mcpServer == nil || logger == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"bootstrap state validation",
			"mcp server/logger not initialised",
		)
	}

	logBootstrapGraph(steps, logger)

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(signalCtx)
	group.Go(func() error {
		return state.mcpServer.ServeStdio(groupCtx, opts.Stdin, opts.Stdout)
	})

	return waitForShutdown(signalCtx, logger, group)
}

func (s *appState) close() {
	if shutdown := s.observabilityShutdown; shutdown != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil && s.logger != nil {
			s.logger.WarnTag("引导", "可观测性未正常关闭: %v", err)
		}
	}
	if s.logger != nil {
		s.logger.InfoTag("引导", "服务已退出")
		_ = s.logger.Close()
	}
}

func logBootstrapGraph(steps []initStep, logger *platformlogging.Logger) {
	if logger == nil {
		return
	}
	logger.InfoTag("引导", "初始化依赖关系概览")
	for _, step := range steps {
		if len(step.DependsOn) == 0 {
			logger.DebugTag("引导", "%s (%s)", step.ID, step.Title)
			continue
		}
		logger.DebugTag("引导", "%s (%s) <- %s", step.ID, step.Title, strings.Join(step.DependsOn, ", "))
	}
	logger.InfoTag("引导", "启动服务")
}

func executeInitSteps(ctx context.Context, steps []initStep, state *appState) error {
	if state == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"execute init steps",
			"nil bootstrap state",
		)
	}

	completed := make(map[string]struct{}, len(steps))
	for _, step := range steps {
		for _, dep := range step.DependsOn {
			if _, ok := completed[dep]; !ok {
				return platformerrors.New(
					platformerrors.KindBootstrap,
					step.ID,
					fmt.Sprintf("dependency %s not satisfied", dep),
				)
			}
		}
		if step.Execute == nil {
			return platformerrors.New(
				platformerrors.KindBootstrap,
				step.ID,
				"missing execute function",
			)
		}
		if err := step.Execute(ctx, state); err != nil {
			var typed *platformerrors.Error
			if errors.As(err, &typed) {
				return err
			}

			kind := step.Kind
			if kind == "" {
				kind = platformerrors.KindBootstrap
			}
			return platformerrors.Wrap(kind, step.ID, "bootstrap step failed", err)
		}
		completed[step.ID] = struct{}{}
	}
	return nil
}

func InitGraph() []initStep {
	return []initStep{
		{
			ID:      "config:validate",
			Title:   "Validate configuration",
			Kind:    platformerrors.KindConfig,
			Execute: validateConfigStep,
		},
		{
			ID:        "logging:init-provider",
			Title:     "Initialise logging provider",
			DependsOn: []string{"config:validate"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initLoggingStep,
		},
		{
			ID:        "observability:setup-hooks",
			Title:     "Setup observability hooks",
			DependsOn: []string{"logging:init-provider"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   setupObservabilityStep,
		},
		{
			ID:        "tts:init-service",
			Title:     "Initialise speech service",
			DependsOn: []string{"logging:init-provider", "observability:setup-hooks"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initSpeechServiceStep,
		},
		{
			ID:        "mcp:init-server",
			Title:     "Initialise MCP server",
			DependsOn: []string{"tts:init-service"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initMCPServerStep,
		},
	}
}

func validateConfigStep(_ context.Context, state *appState) error {
	config := state.opts.Config
	if config == nil {
		return platformerrors.New(platformerrors.KindConfig, "config:validate", "config not loaded")
	}
	if err := config.Validate(); err != nil {
		return err
	}
	if err := config.RequireCredential(); err != nil {
		return err
	}
	state.config = config
	return nil
}

func initLoggingStep(_ context.Context, state *appState) error {
	if state.config == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"logging:init-provider",
			"config not loaded",
		)
	}

	logger := platformlogging.New(platformlogging.Config{
		Level:   state.config.Log.Level,
		File:    state.config.Log.File,
		Console: state.opts.Console,
	})
	state.logger = logger
	state.slogger = logger.Slog()

	source := state.opts.ConfigPath
	if source == "" {
		source = "defaults+env"
	}
	logger.InfoTag("引导", "日志模块就绪 [%s] %s", state.config.Log.Level, source)
	return nil
}

func setupObservabilityStep(ctx context.Context, state *appState) error {
	if state.logger == nil || state.config == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"observability:setup-hooks",
			"config/logger not initialised",
		)
	}

	cfg := platformobservability.Config{
		Enabled: strings.EqualFold(state.config.Log.Level, "debug"),
	}

	shutdown, err := platformobservability.Setup(ctx, cfg, state.slogger)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "observability:setup-hooks", "failed to setup observability hooks", err)
	}
	state.observabilityShutdown = shutdown
	return nil
}

func initSpeechServiceStep(_ context.Context, state *appState) error {
	cfg := state.config

	provider := openai.NewProvider(openai.Config{
		BaseURL:      cfg.OpenAI.BaseURL,
		Organization: cfg.OpenAI.Organization,
		Timeout:      cfg.OpenAI.Timeout,
	}, state.logger)

	audioPlayer := state.opts.Player
	if audioPlayer == nil {
		execPlayer := player.NewExecPlayer(player.Config{
			Command: cfg.Player.Command,
			Args:    cfg.Player.Args,
			Timeout: cfg.Player.Timeout,
		})
		if command, _, err := execPlayer.Resolve(); err != nil {
			// 不中断启动，调用工具时会返回播放错误
			state.logger.WarnTag("播放", "未找到可用的音频播放器: %v", err)
		} else {
			state.logger.InfoTag("播放", "使用音频播放器: %s", command)
		}
		audioPlayer = execPlayer
	}

	service, err := tts.NewService(tts.ServiceOptions{
		Synthesizer: provider,
		Player:      audioPlayer,
		Logger:      state.logger,
		Sequential:  cfg.Player.Sequential,
	})
	if err != nil {
		return err
	}
	state.speechService = service
	state.logger.InfoTag("TTS", "语音服务就绪 (model=%s, voice=%s, format=%s)", cfg.TTS.Model, cfg.TTS.Voice, cfg.TTS.Format)
	return nil
}

func initMCPServerStep(_ context.Context, state *appState) error {
	if state.speechService == nil {
		return platformerrors.New(platformerrors.KindBootstrap, "mcp:init-server", "speech service not initialised")
	}
	cfg := state.config

	voice, coerced := aggregate.ResolveVoice(cfg.TTS.Voice)
	if coerced {
		state.logger.WarnTag("MCP", "未知音色 %q，使用默认音色 %s", cfg.TTS.Voice, voice)
	}

	tool := domainmcp.NewTextToSpeechTool(state.speechService, domainmcp.ToolConfig{
		Model:        aggregate.Model(cfg.TTS.Model),
		Voice:        voice,
		Format:       aggregate.Format(cfg.TTS.Format),
		Credential:   cfg.OpenAI.APIKey,
		Instructions: cfg.TTS.Instructions,
	}, state.logger)

	state.mcpServer = domainmcp.NewServer(domainmcp.ServerOptions{
		Name:     cfg.Server.Name,
		Version:  cfg.Server.Version,
		ErrorLog: slog.NewLogLogger(state.slogger.Handler(), slog.LevelError),
	}, tool, state.logger)

	state.logger.InfoTag("MCP", "已注册工具: %s", domainmcp.ToolName)
	return nil
}

// waitForShutdown returns when the server stops on its own (stdin closed) or
// after a signal, whichever comes first.
func waitForShutdown(
	ctx context.Context,
	logger *platformlogging.Logger,
	g *errgroup.Group,
) error {
	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			logger.ErrorTag("引导", "服务异常退出: %v", err)
			return platformerrors.Wrap(platformerrors.KindBootstrap, "bootstrap:serve", "mcp server stopped", err)
		}
		logger.InfoTag("引导", "客户端已断开连接")
		return nil
	case <-ctx.Done():
		logger.InfoTag("引导", "收到系统信号 %v，正在进行资源清理", context.Cause(ctx))
	}

	select {
	case err := <-done:
		if err != nil {
			logger.ErrorTag("引导", "服务关闭过程中出现错误: %v", err)
			return err
		}
		logger.InfoTag("引导", "所有服务已成功关闭")
	case <-time.After(15 * time.Second):
		logger.ErrorTag("引导", "服务关闭超时，已强制退出")
		return platformerrors.New(platformerrors.KindBootstrap, "bootstrap:shutdown", "服务关闭超时")
	}
	return nil
}
