// Package logging provides structured logging for para using log/slog.
//
// Usage:
//
//	if err := logging.Init(); err != nil {
//	    // non-fatal: falls back to stderr
//	}
//	defer logging.Close()
//
//	ctx = logging.WithSession(ctx, sessionName)
//	logging.Info(ctx, "workspace created", slog.String("branch", branch))
package logging

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/para-dev/para/internal/paths"
	"github.com/para-dev/para/internal/redact"
)

// LogLevelEnvVar controls the log level when set, overriding config.
const LogLevelEnvVar = "PARA_LOG_LEVEL"

// LogFileName is the log file written under the state directory.
const LogFileName = "para.log"

var (
	mu           sync.RWMutex
	logger       *slog.Logger
	logFile      *os.File
	logBufWriter *bufio.Writer
)

// Init opens the log file under the repository's state directory
// (<repo>/.para/para.log) and installs a JSON slog logger writing to it. If
// the repository root or log file can't be resolved, Init falls back to
// stderr and returns nil: logging must never block startup.
func Init() error {
	mu.Lock()
	defer mu.Unlock()

	flush()

	level := parseLogLevel(os.Getenv(LogLevelEnvVar))

	stateDir, err := paths.StateDir()
	if err != nil {
		logger = createLogger(os.Stderr, level)
		return nil
	}
	if err := os.MkdirAll(stateDir, 0o750); err != nil {
		logger = createLogger(os.Stderr, level)
		return nil
	}

	f, err := os.OpenFile(filepath.Join(stateDir, LogFileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		logger = createLogger(os.Stderr, level)
		return nil
	}

	logFile = f
	logBufWriter = bufio.NewWriterSize(f, 8192)
	logger = createLogger(logBufWriter, level)
	return nil
}

// Close flushes and closes the log file. Safe to call multiple times.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	flush()
}

func flush() {
	if logBufWriter != nil {
		_ = logBufWriter.Flush()
		logBufWriter = nil
	}
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}

func getLogger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if logger == nil {
		return slog.Default()
	}
	return logger
}

func createLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func Debug(ctx context.Context, msg string, attrs ...any) { log(ctx, slog.LevelDebug, msg, attrs...) }
func Info(ctx context.Context, msg string, attrs ...any)  { log(ctx, slog.LevelInfo, msg, attrs...) }
func Warn(ctx context.Context, msg string, attrs ...any)  { log(ctx, slog.LevelWarn, msg, attrs...) }
func Error(ctx context.Context, msg string, attrs ...any) { log(ctx, slog.LevelError, msg, attrs...) }

func log(ctx context.Context, level slog.Level, msg string, attrs ...any) {
	l := getLogger()

	var all []any
	if v := stringValue(ctx, sessionIDKey); v != "" {
		all = append(all, slog.String("session", v))
	}
	if v := stringValue(ctx, componentKey); v != "" {
		all = append(all, slog.String("component", v))
	}
	if v := stringValue(ctx, agentKey); v != "" {
		all = append(all, slog.String("agent", v))
	}
	all = append(all, attrs...)

	// msg often includes interpolated command output or error text from a
	// subprocess (git, an agent CLI, docker); scrub it before it hits disk.
	l.Log(context.Background(), level, redact.String(msg), all...)
}

// Fatalf logs at ERROR level and exits the process with status 1. Used only
// by cmd/para for conditions that make it unsafe to continue (e.g. a
// corrupt state directory detected at startup before any command runs).
func Fatalf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	getLogger().Error(msg)
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
