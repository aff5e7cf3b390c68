package core

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

/*
===============================================================================
    Logging
===============================================================================
*/

// level is shared by every logger created through this package, so that
// `SetLoggingLevel` affects loggers already handed out to decoders.
var level = zap.NewAtomicLevelAt(zapcore.InfoLevel)

var (
	loggerMu sync.RWMutex
	logger   = NewConsoleLogger(zapcore.Lock(os.Stderr))
)

func normaliseWriters(writers ...zapcore.WriteSyncer) zapcore.WriteSyncer {
	var writer zapcore.WriteSyncer
	if len(writers) == 1 {
		writer = writers[0]
	} else {
		writer = zapcore.NewMultiWriteSyncer(writers...)
	}
	return writer
}

func encoderConfig(levelEncoder zapcore.LevelEncoder) zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "ts",
		MessageKey:     "msg",
		LevelKey:       "level",
		NameKey:        "logger",
		EncodeLevel:    levelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeName:     zapcore.FullNameEncoder,
	}
}

// NewJSONLogger creates a `zap.SugaredLogger` configured for JSON output to `writers`
func NewJSONLogger(writers ...zapcore.WriteSyncer) *zap.SugaredLogger {
	writer := normaliseWriters(writers...)
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig(zapcore.LowercaseLevelEncoder)), writer, level)
	return zap.New(core).Sugar()
}

// NewConsoleLogger creates a `zap.SugaredLogger` configured for human-readable output to `writers`
func NewConsoleLogger(writers ...zapcore.WriteSyncer) *zap.SugaredLogger {
	writer := normaliseWriters(writers...)
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig(zapcore.LowercaseColorLevelEncoder)), writer, level)
	return zap.New(core).Sugar()
}

// NewLoggerForFormat returns a JSON logger for "json" and a console logger otherwise.
func NewLoggerForFormat(format string, writers ...zapcore.WriteSyncer) *zap.SugaredLogger {
	if strings.EqualFold(format, "json") {
		return NewJSONLogger(writers...)
	}
	return NewConsoleLogger(writers...)
}

// Logger returns the package default logger.
func Logger() *zap.SugaredLogger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}

// SetLogger replaces the package default logger. A nil `l` is ignored.
func SetLogger(l *zap.SugaredLogger) {
	if l == nil {
		return
	}
	loggerMu.Lock()
	logger = l
	loggerMu.Unlock()
}

// SetLoggingLevel takes a level string and accordingly adjusts the shared level.
// Supported values:
// "debug" / "5": all logging enabled
// "info" / "4":  info and above enabled
// "warn" / "3":  warn and above enabled
// "error" / "2": error and above enabled
// "fatal" / "1": only fatal enabled
// "disabled" / "none" / "off", "0": all logging disabled
//
// It returns false if `lvl` is not recognised, leaving the level untouched.
func SetLoggingLevel(lvl string) bool {
	switch strings.ToLower(lvl) {
	case "debug", "5":
		level.SetLevel(zapcore.DebugLevel)
	case "info", "4":
		level.SetLevel(zapcore.InfoLevel)
	case "warn", "3":
		level.SetLevel(zapcore.WarnLevel)
	case "error", "2":
		level.SetLevel(zapcore.ErrorLevel)
	case "fatal", "1":
		level.SetLevel(zapcore.FatalLevel)
	case "disabled", "none", "off", "0":
		// nothing is logged above fatal
		level.SetLevel(zapcore.FatalLevel + 1)
	default:
		return false
	}
	return true
}

// Debugf logs to the default logger at debug level.
// Arguments are handled in the manner of fmt.Printf
func Debugf(format string, v ...interface{}) {
	Logger().Debugf(format, v...)
}

// Infof logs to the default logger at info level.
// Arguments are handled in the manner of fmt.Printf
func Infof(format string, v ...interface{}) {
	Logger().Infof(format, v...)
}

// Warnf logs to the default logger at warn level.
// Arguments are handled in the manner of fmt.Printf
func Warnf(format string, v ...interface{}) {
	Logger().Warnf(format, v...)
}

// Errorf logs to the default logger at error level.
// Arguments are handled in the manner of fmt.Printf
func Errorf(format string, v ...interface{}) {
	Logger().Errorf(format, v...)
}

// Fatalf logs to the default logger at fatal level, then exits.
func Fatalf(format string, v ...interface{}) {
	Logger().Fatalf(format, v...)
}
