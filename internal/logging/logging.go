// Package logging builds the structured logger shared by every jobhunter component.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Standard field names for structured log lines.
const (
	FieldPlatform   = "platform"
	FieldPlatformID = "platform_id"
	FieldTitle      = "title"
	FieldCompany    = "company"
	FieldSelector   = "selector"
	FieldStep       = "step"
	FieldCount      = "count"
	FieldOutcome    = "outcome"
	FieldReason     = "reason"
	FieldURL        = "url"
	FieldError      = "error"
	FieldRunID      = "run_id"
)

// Options controls logger construction.
type Options struct {
	JSON    bool // machine-readable output
	Verbose bool // include debug lines
}

// New builds a sugared zap logger. Console output goes to stderr so it does
// not interleave with interactive prompts on stdout.
func New(opts Options) (*zap.SugaredLogger, error) {
	level := zap.InfoLevel
	if opts.Verbose {
		level = zap.DebugLevel
	}

	if opts.JSON {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(level)
		cfg.OutputPaths = []string{"stderr"}
		logger, err := cfg.Build()
		if err != nil {
			return nil, err
		}
		return logger.Sugar(), nil
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.AddSync(os.Stderr),
		level,
	)
	return zap.New(core).Sugar(), nil
}

// Nop returns a logger that discards everything. Components fall back to it
// when constructed without a logger.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.SugaredLogger) *zap.SugaredLogger {
	if l == nil {
		return Nop()
	}
	return l
}
