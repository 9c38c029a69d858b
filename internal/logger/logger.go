package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"log/slog"
)

var (
	levelVar slog.LevelVar
	mu       sync.RWMutex
	base     *slog.Logger
)

func init() {
	levelVar.Set(slog.LevelInfo)
	base = newLogger(os.Stdout)
}

func newLogger(w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: &levelVar})
	return slog.New(handler)
}

// SetOutput replaces the destination for all subsequent log lines.
func SetOutput(w io.Writer) {
	mu.Lock()
	base = newLogger(w)
	mu.Unlock()
}

func SetLevel(level string) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		levelVar.Set(slog.LevelDebug)
	case "info":
		levelVar.Set(slog.LevelInfo)
	case "warn", "warning":
		levelVar.Set(slog.LevelWarn)
	case "error":
		levelVar.Set(slog.LevelError)
	default:
		levelVar.Set(slog.LevelInfo)
	}
}

func active() *slog.Logger {
	mu.RLock()
	l := base
	mu.RUnlock()
	if l != nil {
		return l
	}
	mu.Lock()
	defer mu.Unlock()
	if base == nil {
		base = newLogger(os.Stdout)
	}
	return base
}

func Debugf(format string, v ...any) {
	active().Debug(fmt.Sprintf(format, v...))
}

func Infof(format string, v ...any) {
	active().Info(fmt.Sprintf(format, v...))
}

func Warnf(format string, v ...any) {
	active().Warn(fmt.Sprintf(format, v...))
}

func Errorf(format string, v ...any) {
	active().Error(fmt.Sprintf(format, v...))
}

// InfoBlock logs a multi-line block (account tables, round summaries) line by
// line so every line carries the usual prefix.
func InfoBlock(block string) {
	block = strings.TrimSpace(block)
	if block == "" {
		return
	}
	for _, line := range strings.Split(block, "\n") {
		Infof("%s", line)
	}
}
