// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestDebugLogger(t *testing.T) {
	func() {
		_ = recover()
		NewLogger("DEBUG")
	}()
}

func TestInvalidLevel(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic on invalid level")
		}
	}()

	NewLogger("invalid")
}

func TestSecurityLogger_AuthzFailure(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	s := newSecurityLogger(zap.New(core))

	s.AuthzFailure("user-1", "workspace:ws-1")

	entries := logs.FilterField(zap.String("user_id", "user-1")).All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 security entry, got %d", len(entries))
	}

	if entries[0].LoggerName != securityLoggerName {
		t.Errorf("expected logger name %q, got %q", securityLoggerName, entries[0].LoggerName)
	}

	if entries[0].Level != zapcore.WarnLevel {
		t.Errorf("expected warn level, got %v", entries[0].Level)
	}
}

func TestSecurityLogger_AuthnFailureDoesNotCarryCredential(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	s := newSecurityLogger(zap.New(core))

	s.AuthnFailure("session_invalid")

	for _, e := range logs.All() {
		for _, f := range e.Context {
			if f.Key == "credential" || f.Key == "token" {
				t.Errorf("security entry carries %q field", f.Key)
			}
		}
	}
}
