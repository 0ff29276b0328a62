// Package logger is a thin formatted-print facade over slog shared by every
// component. Output and level are process-wide, set once from the CLI
// entrypoint after the config is loaded.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"log/slog"
)

var (
	level slog.LevelVar
	log   atomic.Pointer[slog.Logger]
)

func init() {
	log.Store(build(os.Stdout))
}

func build(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: &level}))
}

// SetOutput redirects all subsequent lines, typically to a stdout+file
// multiwriter.
func SetOutput(w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	log.Store(build(w))
}

// SetLevel applies a configured level name; unknown names keep info.
func SetLevel(name string) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		level.Set(slog.LevelDebug)
	case "warn", "warning":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	default:
		level.Set(slog.LevelInfo)
	}
}

func Debugf(format string, v ...any) { log.Load().Debug(fmt.Sprintf(format, v...)) }

func Infof(format string, v ...any) { log.Load().Info(fmt.Sprintf(format, v...)) }

func Warnf(format string, v ...any) { log.Load().Warn(fmt.Sprintf(format, v...)) }

func Errorf(format string, v ...any) { log.Load().Error(fmt.Sprintf(format, v...)) }
