package logging

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const DefaultFile = "simulation_log.txt"

type Options struct {
	// File is appended to; empty disables the file sink.
	File    string
	Console bool
	Level   string
}

// ParseLevel accepts debug, info, warn and error. Empty means info.
func ParseLevel(s string) (zapcore.Level, error) {
	if strings.TrimSpace(s) == "" {
		return zapcore.InfoLevel, nil
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(s)))); err != nil {
		return zapcore.InfoLevel, fmt.Errorf("log level %q: %w", s, err)
	}
	return lvl, nil
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.EncodeCaller = nil
	cfg.CallerKey = ""
	return cfg
}

// New builds the simulation logger, teeing to the log file and stderr. The
// returned close func flushes the logger and closes the log file.
func New(opts Options) (*zap.Logger, func() error, error) {
	lvl, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}
	enc := zapcore.NewConsoleEncoder(encoderConfig())

	var (
		cores []zapcore.Core
		file  *os.File
	)
	if opts.File != "" {
		file, err = os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		cores = append(cores, zapcore.NewCore(enc, zapcore.AddSync(file), lvl))
	}
	if opts.Console {
		cores = append(cores, zapcore.NewCore(enc.Clone(), zapcore.Lock(os.Stderr), lvl))
	}
	if len(cores) == 0 {
		return zap.NewNop(), func() error { return nil }, nil
	}
	l := zap.New(zapcore.NewTee(cores...))
	closeLog := func() error {
		err := Sync(l)
		if file != nil {
			err = multierr.Append(err, file.Close())
		}
		return err
	}
	return l, closeLog, nil
}

// ForTurn scopes l to one simulated turn.
func ForTurn(l *zap.Logger, turn int) *zap.Logger {
	return l.With(zap.Int("turn", turn))
}

// Sync flushes l, ignoring the errors stderr returns on terminals.
func Sync(l *zap.Logger) error {
	err := l.Sync()
	if err == nil || errors.Is(err, syscall.ENOTTY) || errors.Is(err, syscall.EINVAL) {
		return nil
	}
	return err
}
