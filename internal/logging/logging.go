// Package logging builds the engine's zap logger: a stderr core plus an
// optional rotating file core. Stdout is left to command output.
package logging

import (
	"io"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"jobscrape-engine/internal/config"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func encoderConfig() zapcore.EncoderConfig {
	ec := zap.NewProductionEncoderConfig()
	ec.EncodeLevel = zapcore.CapitalLevelEncoder
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	return ec
}

func encoder(format string) zapcore.Encoder {
	if format == "json" {
		return zapcore.NewJSONEncoder(encoderConfig())
	}
	return zapcore.NewConsoleEncoder(encoderConfig())
}

// rotating returns the file sink. Lumberjack has no Sync, so the caller must
// Close it before exit to flush.
func rotating(path string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:  path,
		MaxSize:   50, // MB
		MaxAge:    14,
		LocalTime: true,
		Compress:  true,
	}
}

// New builds a logger for cfg. The returned closer releases the log file.
func New(cfg config.LogConfig) (*zap.Logger, io.Closer, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, eris.Wrap(err, "logging: parse level")
	}

	cores := []zapcore.Core{
		zapcore.NewCore(encoder(cfg.Format), zapcore.Lock(zapcore.AddSync(os.Stderr)), level),
	}

	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		w := rotating(cfg.File)
		// file output is always JSON so it can be shipped as-is
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), zapcore.AddSync(w), level))
		closer = w
	}

	stackLevel := zap.LevelEnablerFunc(func(l zapcore.Level) bool { return l >= zapcore.DPanicLevel })
	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(stackLevel))
	return logger, closer, nil
}

// Init builds the logger and installs it as zap's global.
func Init(cfg config.LogConfig) (io.Closer, error) {
	logger, closer, err := New(cfg)
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return closer, nil
}
