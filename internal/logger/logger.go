package logger

import (
	"fmt"
	"io"
	"log"
	"strings"
)

// Logger is the leveled logger used across the client. Extra args are
// printed after the message; an error arg is reported with its stack
// by backends that support it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Level orders log severities.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps a config string to a Level, defaulting to info.
func ParseLevel(raw string) Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
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

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// StdLogger writes to a *log.Logger, dropping records below its level.
type StdLogger struct {
	std   *log.Logger
	level Level
}

var _ Logger = (*StdLogger)(nil)

func NewStdLogger(w io.Writer, level Level) *StdLogger {
	return &StdLogger{
		std:   log.New(w, "cellhub ", log.LstdFlags),
		level: level,
	}
}

func (l *StdLogger) print(level Level, msg string, args []any) {
	if level < l.level {
		return
	}
	var b strings.Builder
	b.WriteString(level.String())
	b.WriteString(" ")
	b.WriteString(msg)
	for _, arg := range args {
		b.WriteString(" ")
		b.WriteString(fmt.Sprintf("%+v", arg))
	}
	l.std.Println(b.String())
}

func (l *StdLogger) Debug(msg string, args ...any) { l.print(LevelDebug, msg, args) }
func (l *StdLogger) Info(msg string, args ...any)  { l.print(LevelInfo, msg, args) }
func (l *StdLogger) Warn(msg string, args ...any)  { l.print(LevelWarn, msg, args) }
func (l *StdLogger) Error(msg string, args ...any) { l.print(LevelError, msg, args) }

// Nop discards everything.
type Nop struct{}

var _ Logger = Nop{}

func (Nop) Debug(string, ...any) {}
func (Nop) Info(string, ...any)  {}
func (Nop) Warn(string, ...any)  {}
func (Nop) Error(string, ...any) {}
