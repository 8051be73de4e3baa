// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package monitoring

// MonitorInterface records service metrics, labels are passed as plain maps so
// callers do not depend on the metrics backend.
type MonitorInterface interface {
	GetService() string
	// SetResponseTimeMetric observes a request duration in seconds, labelled by route and status
	SetResponseTimeMetric(map[string]string, float64) error
	// SetDependencyAvailability sets 1 or 0 for the labelled component
	SetDependencyAvailability(map[string]string, float64) error
	// IncAuthorizationDecision counts guard outcomes, labelled by required role and decision
	IncAuthorizationDecision(map[string]string) error
}
