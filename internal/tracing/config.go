// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package tracing

import (
	"github.com/canonical/workspace-service/internal/logging"
)

// Config selects the span exporter. With tracing enabled and no endpoint set
// spans go to stdout.
type Config struct {
	ServiceName      string
	OtelHTTPEndpoint string
	OtelGRPCEndpoint string
	Logger           logging.LoggerInterface

	Enabled bool
}

func (c *Config) service() string {
	if c.ServiceName == "" {
		return serviceName
	}

	return c.ServiceName
}

func NewConfig(enabled bool, service, otelGRPCEndpoint, otelHTTPEndpoint string, logger logging.LoggerInterface) *Config {
	c := new(Config)

	c.ServiceName = service
	c.OtelGRPCEndpoint = otelGRPCEndpoint
	c.OtelHTTPEndpoint = otelHTTPEndpoint
	c.Logger = logger
	c.Enabled = enabled

	return c
}

func NewNoopConfig() *Config {
	c := new(Config)
	c.Enabled = false
	return c
}
