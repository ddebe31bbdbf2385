package logger

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/labstack/gommon/log"
)

const header = `${time_rfc3339} ${level} ${prefix}`

// Logger is the leveled, printf-style logger shared by every component.
type Logger interface {
	Debug(ctx context.Context, msg string, args ...interface{})
	Info(ctx context.Context, msg string, args ...interface{})
	Warn(ctx context.Context, msg string, args ...interface{})
	Error(ctx context.Context, msg string, args ...interface{})
}

type implLogger struct {
	logger *log.Logger
}

// New creates a Logger writing to stdout with the given level name.
func New(prefix, level string) Logger {
	return NewWithOutput(prefix, level, os.Stdout)
}

// NewWithOutput creates a Logger writing to w.
func NewWithOutput(prefix, level string, w io.Writer) Logger {
	l := log.New(prefix)
	l.SetOutput(w)
	l.SetHeader(header)
	l.SetLevel(ParseLevel(level))
	return &implLogger{logger: l}
}

// Backend exposes the underlying gommon logger so echo can share it.
func Backend(l Logger) (*log.Logger, bool) {
	impl, ok := l.(*implLogger)
	if !ok {
		return nil, false
	}
	return impl.logger, true
}

// ParseLevel maps a level name to a gommon level, defaulting to info.
func ParseLevel(level string) log.Lvl {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DEBUG
	case "warn", "warning":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	default:
		return log.INFO
	}
}

func (l *implLogger) Debug(ctx context.Context, msg string, args ...interface{}) {
	l.logger.Debugf(msg, args...)
}

func (l *implLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	l.logger.Infof(msg, args...)
}

func (l *implLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	l.logger.Warnf(msg, args...)
}

func (l *implLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	l.logger.Errorf(msg, args...)
}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return NewWithOutput("nop", "off", io.Discard)
}
