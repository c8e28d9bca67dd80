// Package logging builds the zap loggers used across imglocate.
//
// Output always goes to stderr: stdout carries annotation listings, search
// results and, under serve, the MCP protocol stream.
package logging

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EnvLevel names the environment variable that overrides the verbosity
// derived from -v flags. Accepts any zap level name ("debug", "info", ...).
const EnvLevel = "IMGLOCATE_LOG_LEVEL"

// NewConfig returns the base logger config: console encoding, colored levels,
// ISO8601 timestamps, no stacktraces, everything on stderr.
func NewConfig(level zapcore.Level) zap.Config {
	return zap.Config{
		Level:    zap.NewAtomicLevelAt(level),
		Encoding: "console",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalColorLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		DisableStacktrace: true,
		OutputPaths:       []string{"stderr"},
		ErrorOutputPaths:  []string{"stderr"},
	}
}

// LevelForVerbosity maps a count of -v flags to a level:
// 0 error, 1 warn, 2 info, 3 or more debug.
func LevelForVerbosity(v int) zapcore.Level {
	switch {
	case v <= 0:
		return zapcore.ErrorLevel
	case v == 1:
		return zapcore.WarnLevel
	case v == 2:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}

// Level resolves the effective level, letting $IMGLOCATE_LOG_LEVEL win over
// verbosity when it names a valid level.
func Level(verbosity int) zapcore.Level {
	if env := strings.TrimSpace(os.Getenv(EnvLevel)); env != "" {
		var lvl zapcore.Level
		if err := lvl.UnmarshalText([]byte(strings.ToLower(env))); err == nil {
			return lvl
		}
	}
	return LevelForVerbosity(verbosity)
}

// New returns a named sugared logger for the given verbosity.
func New(name string, verbosity int) (*zap.SugaredLogger, error) {
	logger, err := NewConfig(Level(verbosity)).Build()
	if err != nil {
		return nil, err
	}
	return logger.Named(name).Sugar(), nil
}
