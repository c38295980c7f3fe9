package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

var (
	colorReset = "\x1b[0m"
	colorTime  = "\x1b[90m" // 时间：灰色
	colorDebug = "\x1b[36m" // DEBUG：青色
	colorInfo  = "\x1b[32m" // INFO：绿色
	colorWarn  = "\x1b[33m" // WARN：黄色
	colorError = "\x1b[31m" // ERROR：红色
)

// 模块标签颜色
var tagColors = map[string]string{
	"[引导]":  "\x1b[96m",
	"[TTS]": "\x1b[95m",
	"[MCP]": "\x1b[36m",
	"[播放]":  "\x1b[92m",
	"[CLI]": "\x1b[94m",
	"[配置]":  "\x1b[97m",
}

// CustomTextHandler 控制台文本处理器。输出固定写到 stderr，stdout 留给 MCP 协议。
type CustomTextHandler struct {
	writer io.Writer
	level  slog.Level
	color  bool
	mu     sync.Mutex
}

func newTextHandler(w io.Writer, level slog.Level, color bool) *CustomTextHandler {
	return &CustomTextHandler{writer: w, level: level, color: color}
}

func (h *CustomTextHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *CustomTextHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	timeStr := r.Time.Format("2006-01-02 15:04:05.000")

	var levelStr, levelColor string
	switch {
	case r.Level >= slog.LevelError:
		levelStr, levelColor = "错误", colorError
	case r.Level >= slog.LevelWarn:
		levelStr, levelColor = "警告", colorWarn
	case r.Level >= slog.LevelInfo:
		levelStr, levelColor = "信息", colorInfo
	default:
		levelStr, levelColor = "调试", colorDebug
	}

	msg := r.Message
	var b strings.Builder
	if tag, color, ok := moduleTag(msg); ok && r.Level < slog.LevelWarn {
		// 模块日志格式: [时间] [模块] 消息
		b.WriteString(h.paint(colorTime, "["+timeStr+"]"))
		b.WriteString(" ")
		b.WriteString(h.paint(color, tag))
		b.WriteString(msg[len(tag):])
	} else {
		// 普通日志格式: [时间] [级别] 消息
		b.WriteString(h.paint(colorTime, "["+timeStr+"]"))
		b.WriteString(" ")
		b.WriteString(h.paint(levelColor, "["+levelStr+"]"))
		b.WriteString(" ")
		b.WriteString(msg)
	}

	if r.NumAttrs() > 0 {
		b.WriteString(" {")
		r.Attrs(func(a slog.Attr) bool {
			fmt.Fprintf(&b, " %s=%v", a.Key, a.Value)
			return true
		})
		b.WriteString(" }")
	}
	b.WriteString("\n")

	_, err := io.WriteString(h.writer, b.String())
	return err
}

func (h *CustomTextHandler) WithAttrs(_ []slog.Attr) slog.Handler {
	return h // 简化实现
}

func (h *CustomTextHandler) WithGroup(_ string) slog.Handler {
	return h // 简化实现
}

func (h *CustomTextHandler) paint(color, s string) string {
	if !h.color {
		return s
	}
	return color + s + colorReset
}

func moduleTag(msg string) (string, string, bool) {
	if !strings.HasPrefix(msg, "[") {
		return "", "", false
	}
	end := strings.Index(msg, "]")
	if end < 0 {
		return "", "", false
	}
	tag := msg[:end+1]
	color, ok := tagColors[tag]
	return tag, color, ok
}
