// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package logging

import (
	"go.uber.org/zap"
)

const (
	securityLoggerName = "security"

	eventAuthnFailure   = "authn_login_fail"
	eventAuthzFailure   = "authz_fail"
	eventAdminAction    = "admin_action"
	eventSystemStartup  = "sys_startup"
	eventSystemShutdown = "sys_shutdown"
)

var _ SecurityLoggerInterface = (*SecurityLogger)(nil)

// SecurityLogger writes events in the OWASP logging vocabulary format,
// the event name is always carried in the "event" field
type SecurityLogger struct {
	l *zap.Logger
}

func (s *SecurityLogger) AuthnFailure(reason string) {
	s.l.Warn(
		"authentication failure",
		zap.String("event", eventAuthnFailure),
		zap.String("reason", reason),
	)
}

func (s *SecurityLogger) AuthzFailure(userID, resource string) {
	s.l.Warn(
		"authorization failure",
		zap.String("event", eventAuthzFailure+":"+userID+","+resource),
		zap.String("user_id", userID),
		zap.String("resource", resource),
	)
}

func (s *SecurityLogger) AdminAction(userID, action, resource string) {
	s.l.Info(
		"administrative action",
		zap.String("event", eventAdminAction+":"+userID+","+action),
		zap.String("user_id", userID),
		zap.String("action", action),
		zap.String("resource", resource),
	)
}

func (s *SecurityLogger) SystemStartup() {
	s.l.Info("system startup", zap.String("event", eventSystemStartup))
}

func (s *SecurityLogger) SystemShutdown() {
	s.l.Info("system shutdown", zap.String("event", eventSystemShutdown))
}

func newSecurityLogger(l *zap.Logger) *SecurityLogger {
	return &SecurityLogger{
		l: l.Named(securityLoggerName).With(zap.String("type", "security")),
	}
}
