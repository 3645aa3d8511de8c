package util

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the process logger. Output goes to stderr: stdout is
// reserved for MCP protocol frames and must never carry log lines.
func NewLogger(level string, development bool) *zap.SugaredLogger {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "T",
		LevelKey:       "L",
		MessageKey:     "M",
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.0000"),
		EncodeDuration: zapcore.StringDurationEncoder,
	}

	logLevel := zapcore.InfoLevel
	if parsed, err := zapcore.ParseLevel(level); err == nil {
		logLevel = parsed
	}
	if development && logLevel > zapcore.DebugLevel {
		logLevel = zapcore.DebugLevel
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(os.Stderr),
		logLevel,
	)

	return zap.New(core).Sugar()
}
