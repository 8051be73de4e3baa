// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var _ LoggerInterface = (*Logger)(nil)

type Logger struct {
	*zap.SugaredLogger

	security *SecurityLogger
}

func (l *Logger) Security() SecurityLoggerInterface {
	return l.security
}

// NewLogger creates a JSON logger at the given level, it panics on an unknown level
func NewLogger(l string) *Logger {
	level, err := zapcore.ParseLevel(strings.ToLower(l))
	if err != nil {
		panic(err)
	}

	c := zap.NewProductionConfig()
	c.Level = zap.NewAtomicLevelAt(level)
	c.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	c.EncoderConfig.TimeKey = "@timestamp"

	if level == zapcore.DebugLevel {
		c.Development = true
	}

	lgr := zap.Must(c.Build())

	return &Logger{
		SugaredLogger: lgr.Sugar(),
		security:      newSecurityLogger(lgr),
	}
}

// NewNoopLogger discards everything, security events included.
func NewNoopLogger() *Logger {
	nop := zap.NewNop()

	return &Logger{
		SugaredLogger: nop.Sugar(),
		security:      newSecurityLogger(nop),
	}
}
