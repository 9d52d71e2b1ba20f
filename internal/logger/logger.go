// Package logger builds the service's zap loggers and carries request-scoped
// loggers through context.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the server logger for env: JSON for prod, colored console
// for local, dev and docker, console at warn for test. A non-empty level
// overrides the environment's default.
func NewLogger(env string, level ...string) (*zap.Logger, error) {
	var cfg zap.Config
	switch env {
	case "prod":
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	case "local", "dev", "docker":
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	case "test":
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	default:
		return nil, fmt.Errorf("unknown environment %q for logger", env)
	}
	if len(level) > 0 {
		if err := setLevel(&cfg, level[0]); err != nil {
			return nil, err
		}
	}
	return build(cfg, zap.AddStacktrace(zapcore.ErrorLevel), zap.Fields(zap.String("service", "gradereco")))
}

// NewCLILogger builds a warn-level console logger on stderr, for commands
// whose stdout carries data (tools stdio, tools call).
func NewCLILogger(level string) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if err := setLevel(&cfg, level); err != nil {
		return nil, err
	}
	return build(cfg)
}

func setLevel(cfg *zap.Config, level string) error {
	if level == "" {
		return nil
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return nil
}

func build(cfg zap.Config, opts ...zap.Option) (*zap.Logger, error) {
	l, err := cfg.Build(opts...)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return l, nil
}
