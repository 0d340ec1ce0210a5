package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
)

// Level orders log severities; messages below the global threshold are dropped.
type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	// INFO_EMOJI Emoji constants
	INFO_EMOJI    = "ℹ️ "
	SUCCESS_EMOJI = "✅ "
	WARN_EMOJI    = "⚠️ "
	ERROR_EMOJI   = "❌ "
	DEBUG_EMOJI   = "🔍 "
)

var threshold atomic.Int32

func init() {
	threshold.Store(int32(ParseLevel(os.Getenv("LOG_LEVEL"))))
}

// ParseLevel maps LOG_LEVEL values to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// SetLevel changes the process-wide threshold.
func SetLevel(l Level) {
	threshold.Store(int32(l))
}

type Logger struct {
	serviceName string
}

func New(serviceName string) *Logger {
	return &Logger{
		serviceName: serviceName,
	}
}

// Named returns a child logger whose component is appended to the parent's.
func (l *Logger) Named(component string) *Logger {
	return &Logger{serviceName: l.serviceName + "/" + component}
}

func enabled(l Level) bool {
	return int32(l) >= threshold.Load()
}

func (l *Logger) formatMessage(level, emoji, msg string) string {
	_, file, line, _ := runtime.Caller(2)
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fileName := filepath.Base(file)

	return fmt.Sprintf("%s | %s | %s | %s:%d | %s | %s",
		emoji,
		timestamp,
		level,
		fileName,
		line,
		l.serviceName,
		msg,
	)
}

func (l *Logger) Info(msg string, args ...interface{}) {
	if !enabled(LevelInfo) {
		return
	}
	formatted := l.formatMessage("INFO", INFO_EMOJI, fmt.Sprintf(msg, args...))
	color.Cyan(formatted)
}

func (l *Logger) Success(msg string, args ...interface{}) {
	if !enabled(LevelInfo) {
		return
	}
	formatted := l.formatMessage("SUCCESS", SUCCESS_EMOJI, fmt.Sprintf(msg, args...))
	color.Green(formatted)
}

func (l *Logger) Warn(msg string, args ...interface{}) {
	if !enabled(LevelWarn) {
		return
	}
	formatted := l.formatMessage("WARN", WARN_EMOJI, fmt.Sprintf(msg, args...))
	color.Yellow(formatted)
}

// Error logs msg with err appended and returns msg wrapping err, so call sites
// can log and propagate in one statement.
func (l *Logger) Error(msg string, err error, args ...interface{}) error {
	if enabled(LevelError) {
		formatted := l.formatMessage("ERROR", ERROR_EMOJI, fmt.Sprintf(msg, args...)+fmt.Sprintf(": %v", err))
		color.Red(formatted)
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(msg, args...), err)
}

func (l *Logger) Debug(msg string, args ...interface{}) {
	if !enabled(LevelDebug) {
		return
	}
	formatted := l.formatMessage("DEBUG", DEBUG_EMOJI, fmt.Sprintf(msg, args...))
	color.Magenta(formatted)
}
