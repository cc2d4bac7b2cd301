package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// consoleEncoder builds a compact console encoder: HH:MM:SS, single-letter level
func consoleEncoder() zapcore.Encoder {
	config := zap.NewDevelopmentEncoderConfig()

	config.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.Format("15:04:05"))
	}

	config.EncodeLevel = func(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		switch level {
		case zapcore.DebugLevel:
			enc.AppendString("D")
		case zapcore.InfoLevel:
			enc.AppendString("I")
		case zapcore.WarnLevel:
			enc.AppendString("W")
		case zapcore.ErrorLevel:
			enc.AppendString("E")
		default:
			enc.AppendString("?")
		}
	}

	config.EncodeCaller = nil
	config.CallerKey = ""

	return zapcore.NewConsoleEncoder(config)
}

// ParseLevel converts a level name (debug, info, warn, error) to a zap level
func ParseLevel(level string) (zapcore.Level, error) {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(level)))); err != nil {
		return l, fmt.Errorf("invalid log level %q", level)
	}
	return l, nil
}

// New creates a logger writing to w at the given level
func New(w io.Writer, level string) (*zap.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	core := zapcore.NewCore(consoleEncoder(), zapcore.AddSync(w), lvl)
	return zap.New(core), nil
}

// NewStderr creates the diagnostic logger. stdout is reserved for log output.
func NewStderr(level string) (*zap.Logger, error) {
	return New(os.Stderr, level)
}
