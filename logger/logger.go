package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the process-wide logger
type Options struct {
	Level      string
	File       string
	Production bool
}

var (
	mu     sync.RWMutex
	logger *zap.Logger
)

// Init builds the process-wide logger. Records go to a rotated JSON file and,
// outside production, to a console core as well.
func Init(opts Options) error {
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
		level.SetLevel(zap.InfoLevel)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var cores []zapcore.Core
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), os.ModePerm); err != nil {
			return err
		}
		logFile := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(logFile), level))
	}

	if !opts.Production || opts.File == "" {
		consoleEncoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		cores = append(cores, zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stdout), level))
	}

	set(zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)))
	return nil
}

// Get returns the process-wide logger, falling back to a development logger
func Get() *zap.Logger {
	mu.RLock()
	l := logger
	mu.RUnlock()
	if l != nil {
		return l
	}

	l, err := zap.NewDevelopment()
	if err != nil {
		l = zap.NewNop()
	}
	set(l)
	return l
}

// Named returns a child logger for a component
func Named(name string, fields ...zap.Field) *zap.Logger {
	return Get().Named(name).With(fields...)
}

// Sync flushes buffered records
func Sync() {
	_ = Get().Sync()
}

// SetTestCaptureLogger redirects all records at or above level into buf as JSON
func SetTestCaptureLogger(buf *bytes.Buffer, level zapcore.Level) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(buf), level)
	set(zap.New(core))
}

// SetTestLoggerNop silences logging
func SetTestLoggerNop() {
	set(zap.NewNop())
}

func set(l *zap.Logger) {
	mu.Lock()
	logger = l
	mu.Unlock()
}
