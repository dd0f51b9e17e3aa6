package common

import (
	"fmt"
	"strings"
	"sync"

	"github.com/lni/dragonboat/v4/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerNames lists every logger used by Memorized packages.
var LoggerNames = []string{
	"rpc/server",
	"rpc/client",
	"transport",
	"codec",
	"data",
	"auth",
	"cmd",
}

var (
	baseOnce   sync.Once
	baseLogger *zap.Logger
	factoryMu  sync.Mutex
	factorySet bool
)

// --------------------------------------------------------------------------
// Custom Logger (implements dragonboats logger.ILogger)
// --------------------------------------------------------------------------

// zapLogger implements the ILogger interface on top of a named zap logger
type zapLogger struct {
	level zap.AtomicLevel
	sugar *zap.SugaredLogger
}

func (l *zapLogger) SetLevel(level logger.LogLevel) {
	l.level.SetLevel(toZapLevel(level))
}

func (l *zapLogger) Debugf(format string, args ...interface{}) {
	l.sugar.Debugf(format, args...)
}

func (l *zapLogger) Infof(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

func (l *zapLogger) Warningf(format string, args ...interface{}) {
	l.sugar.Warnf(format, args...)
}

func (l *zapLogger) Errorf(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
}

func (l *zapLogger) Panicf(format string, args ...interface{}) {
	l.sugar.Panicf(format, args...)
}

// --------------------------------------------------------------------------
// Logger Factory
// --------------------------------------------------------------------------

// BaseLogger returns the process wide zap logger all package loggers derive from.
func BaseLogger() *zap.Logger {
	baseOnce.Do(func() {
		logConfig := zap.NewProductionConfig()
		logConfig.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		logConfig.Encoding = "json"

		l, err := logConfig.Build()
		if err != nil {
			l = zap.NewNop()
		}
		baseLogger = l
	})
	return baseLogger
}

// CreateLogger implements the dragonboat logger.Factory
func CreateLogger(pkgName string) logger.ILogger {
	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	core := BaseLogger().Named(pkgName).WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return &leveledCore{Core: c, level: level}
	}))
	return &zapLogger{
		level: level,
		sugar: core.Sugar(),
	}
}

// leveledCore filters a shared core by a per logger level
type leveledCore struct {
	zapcore.Core
	level zap.AtomicLevel
}

func (c *leveledCore) Enabled(l zapcore.Level) bool {
	return c.level.Enabled(l) && c.Core.Enabled(l)
}

func (c *leveledCore) With(fields []zapcore.Field) zapcore.Core {
	return &leveledCore{Core: c.Core.With(fields), level: c.level}
}

func (c *leveledCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(e.Level) {
		return ce.AddCore(e, c)
	}
	return ce
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// ParseLogLevel converts a string level to logger.LogLevel
func ParseLogLevel(level string) (logger.LogLevel, error) {
	switch strings.ToLower(level) {
	case "debug":
		return logger.DEBUG, nil
	case "info":
		return logger.INFO, nil
	case "warning", "warn":
		return logger.WARNING, nil
	case "error":
		return logger.ERROR, nil
	default:
		return logger.INFO, fmt.Errorf("invalid log level: %s. must be one of debug, info, warn, error", level)
	}
}

func toZapLevel(level logger.LogLevel) zapcore.Level {
	switch level {
	case logger.DEBUG:
		return zap.DebugLevel
	case logger.INFO:
		return zap.InfoLevel
	case logger.WARNING:
		return zap.WarnLevel
	case logger.ERROR:
		return zap.ErrorLevel
	default:
		return zap.DPanicLevel
	}
}

// --------------------------------------------------------------------------
// Logger initialization
// --------------------------------------------------------------------------

// InitLoggers installs the zap backed factory (once per process) and sets
// the level of every Memorized logger.
func InitLoggers(level string) error {
	parsed, err := ParseLogLevel(level)
	if err != nil {
		return err
	}

	factoryMu.Lock()
	if !factorySet {
		logger.SetLoggerFactory(CreateLogger)
		factorySet = true
	}
	factoryMu.Unlock()

	for _, name := range LoggerNames {
		logger.GetLogger(name).SetLevel(parsed)
	}
	return nil
}
