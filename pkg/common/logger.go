package common

import (
	"fmt"
	"log"
	"os"
)

// Logger is the printf-style leveled logger injected into services.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// DefaultLogger writes "[prefix] [LEVEL] message" lines.
type DefaultLogger struct {
	prefix string
	debug  bool
	logger *log.Logger
}

// NewLogger creates a logger writing to stdout. Debug lines are suppressed
// unless WTR_DEBUG is set.
func NewLogger(prefix string) Logger {
	return &DefaultLogger{
		prefix: prefix,
		debug:  os.Getenv("WTR_DEBUG") != "",
		logger: log.New(os.Stdout, "", log.LstdFlags),
	}
}

func (l *DefaultLogger) Debug(msg string, args ...interface{}) {
	if !l.debug {
		return
	}
	l.log("DEBUG", msg, args...)
}

func (l *DefaultLogger) Info(msg string, args ...interface{}) {
	l.log("INFO", msg, args...)
}

func (l *DefaultLogger) Warn(msg string, args ...interface{}) {
	l.log("WARN", msg, args...)
}

func (l *DefaultLogger) Error(msg string, args ...interface{}) {
	l.log("ERROR", msg, args...)
}

func (l *DefaultLogger) Fatal(msg string, args ...interface{}) {
	l.log("FATAL", msg, args...)
	os.Exit(1)
}

func (l *DefaultLogger) log(level string, msg string, args ...interface{}) {
	formatted := fmt.Sprintf(msg, args...)
	l.logger.Printf("[%s] [%s] %s", l.prefix, level, formatted)
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debug(string, ...interface{}) {}
func (NopLogger) Info(string, ...interface{})  {}
func (NopLogger) Warn(string, ...interface{})  {}
func (NopLogger) Error(string, ...interface{}) {}
func (NopLogger) Fatal(string, ...interface{}) {}
