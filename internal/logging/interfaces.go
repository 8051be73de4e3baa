// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package logging

type LoggerInterface interface {
	Error(...interface{})
	Info(...interface{})
	Warn(...interface{})
	Debug(...interface{})
	Fatal(...interface{})
	Errorf(string, ...interface{})
	Infof(string, ...interface{})
	Warnf(string, ...interface{})
	Debugf(string, ...interface{})
	Fatalf(string, ...interface{})
	Sync() error

	Security() SecurityLoggerInterface
}

// SecurityLoggerInterface emits security relevant events on a dedicated channel,
// separate from the application log stream.
type SecurityLoggerInterface interface {
	AuthnFailure(reason string)
	AuthzFailure(userID, resource string)
	AdminAction(userID, action, resource string)
	SystemStartup()
	SystemShutdown()
}
