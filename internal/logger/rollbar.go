package logger

import (
	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"
)

// RollbarLogger reports to Rollbar and mirrors every record to a
// StdLogger.
type RollbarLogger struct {
	std *StdLogger
}

var _ Logger = (*RollbarLogger)(nil)

// RollbarOptions identifies the reporting process.
type RollbarOptions struct {
	Token       string
	Environment string
	CodeVersion string
}

func NewRollbarLogger(std *StdLogger, opts RollbarOptions) *RollbarLogger {
	rollbar.SetToken(opts.Token)
	rollbar.SetEnvironment(opts.Environment)
	rollbar.SetCodeVersion(opts.CodeVersion)
	rollbar.SetStackTracer(errors.StackTracer)
	return &RollbarLogger{std: std}
}

// Close flushes pending reports.
func (l *RollbarLogger) Close() {
	rollbar.Close()
}

func prepare(msg string, args []any) []any {
	out := make([]any, 0, len(args)+1)
	out = append(out, msg)
	return append(out, args...)
}

func (l *RollbarLogger) Debug(msg string, args ...any) {
	rollbar.Debug(prepare(msg, args)...)
	l.std.Debug(msg, args...)
}

func (l *RollbarLogger) Info(msg string, args ...any) {
	rollbar.Info(prepare(msg, args)...)
	l.std.Info(msg, args...)
}

func (l *RollbarLogger) Warn(msg string, args ...any) {
	rollbar.Warning(prepare(msg, args)...)
	l.std.Warn(msg, args...)
}

func (l *RollbarLogger) Error(msg string, args ...any) {
	rollbar.Error(prepare(msg, args)...)
	l.std.Error(msg, args...)
}
