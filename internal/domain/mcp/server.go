package mcp

import (
	"context"
	"io"
	"log"

	"github.com/mark3labs/mcp-go/server"
)

type ServerOptions struct {
	Name    string
	Version string
	// ErrorLog receives transport errors. It must not write to stdout.
	ErrorLog *log.Logger
}

// Server 通过标准输入输出对外提供 text-to-speech 工具
type Server struct {
	mcpServer *server.MCPServer
	errorLog  *log.Logger
	logger    Logger
}

func NewServer(opts ServerOptions, tool *TextToSpeechTool, logger Logger) *Server {
	if logger == nil {
		logger = nopLogger{}
	}

	s := server.NewMCPServer(opts.Name, opts.Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	s.AddTool(tool.Definition(), tool.Handle)

	return &Server{mcpServer: s, errorLog: opts.ErrorLog, logger: logger}
}

// MCPServer exposes the underlying server for in-process use.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio serves until stdin is closed or ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	stdio := server.NewStdioServer(s.mcpServer)
	if s.errorLog != nil {
		stdio.SetErrorLogger(s.errorLog)
	}

	s.logger.InfoTag("MCP", "stdio 服务已启动，等待客户端请求")
	err := stdio.Listen(ctx, stdin, stdout)
	if err != nil && ctx.Err() == nil {
		s.logger.ErrorTag("MCP", "stdio 服务异常退出: %v", err)
		return err
	}
	s.logger.InfoTag("MCP", "stdio 服务已停止")
	return nil
}
