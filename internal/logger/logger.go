package logger

import (
	"os"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls logging output.
type Config struct {
	Enabled    bool
	Level      string
	File       string
	Console    bool
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

var global atomic.Pointer[zap.SugaredLogger]

// Init initializes the global logger. A disabled config installs a no-op
// logger so call sites never need nil checks.
func Init(cfg Config) error {
	if !cfg.Enabled {
		global.Store(zap.NewNop().Sugar())
		return nil
	}

	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level.SetLevel(zap.InfoLevel)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	var cores []zapcore.Core
	if cfg.File != "" {
		fileWriter := zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		})
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), fileWriter, level))
	}
	if cfg.Console || len(cores) == 0 {
		consoleWriter := zapcore.Lock(os.Stdout)
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), consoleWriter, level))
	}

	logger := zap.New(zapcore.NewTee(cores...))
	zap.ReplaceGlobals(logger)
	global.Store(logger.Sugar())
	return nil
}

func get() *zap.SugaredLogger {
	if l := global.Load(); l != nil {
		return l
	}
	return zap.S()
}

// Debugf logs a debug message.
func Debugf(format string, args ...interface{}) {
	get().Debugf(format, args...)
}

// Infof logs an info message.
func Infof(format string, args ...interface{}) {
	get().Infof(format, args...)
}

// Warnf logs a warning.
func Warnf(format string, args ...interface{}) {
	get().Warnf(format, args...)
}

// Errorf logs an error message.
func Errorf(format string, args ...interface{}) {
	get().Errorf(format, args...)
}

// Sync flushes buffered log entries. Call before exiting.
func Sync() {
	_ = get().Sync()
}
