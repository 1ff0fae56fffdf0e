package log

import (
	"log"
	"os"
)

// Level selects which messages reach the sink. Table rejections are
// chatty and expected, so they log at Debug; nothing in this module
// escalates beyond Error.
type Level int

const (
	LevelDebug Level = iota
	LevelWarn
	LevelError
)

type Logger interface {
	Debugf(format string, args ...interface{})

	Warnf(format string, args ...interface{})

	Errorf(format string, args ...interface{})
}

var DefaultLogger Logger

func init() {
	DefaultLogger = &logWrapper{
		Logger: log.New(os.Stderr, "", log.LstdFlags),
		Level:  LevelWarn,
	}
}

type logWrapper struct {
	Logger *log.Logger
	Level  Level
}

func (logger *logWrapper) Debugf(format string, args ...interface{}) {
	if logger.Level <= LevelDebug {
		logger.Logger.Printf("[DEBUG] "+format, args...)
	}
}

func (logger *logWrapper) Warnf(format string, args ...interface{}) {
	if logger.Level <= LevelWarn {
		logger.Logger.Printf("[WARN] "+format, args...)
	}
}

func (logger *logWrapper) Errorf(format string, args ...interface{}) {
	if logger.Level <= LevelError {
		logger.Logger.Printf("[ERROR] "+format, args...)
	}
}

// SetLevel adjusts the default logger's verbosity. It is a no-op if the
// default logger has been replaced with a custom implementation.
func SetLevel(l Level) {
	if w, ok := DefaultLogger.(*logWrapper); ok {
		w.Level = l
	}
}

func Debugf(format string, args ...interface{}) {
	DefaultLogger.Debugf(format, args...)
}

func Warnf(format string, args ...interface{}) {
	DefaultLogger.Warnf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	DefaultLogger.Errorf(format, args...)
}
