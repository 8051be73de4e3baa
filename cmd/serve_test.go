// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"testing"

	"github.com/canonical/workspace-service/internal/logging"
)

type fakeServer struct {
	listenErr   error
	shutdownErr error

	// release unblocks ListenAndServe the way Shutdown does on a real server
	release  chan struct{}
	shutdown bool
}

func (f *fakeServer) ListenAndServe() error {
	if f.listenErr != nil {
		return f.listenErr
	}

	<-f.release
	return http.ErrServerClosed
}

func (f *fakeServer) Shutdown(context.Context) error {
	f.shutdown = true
	close(f.release)
	return f.shutdownErr
}

func TestRun(t *testing.T) {
	bindErr := errors.New("address already in use")

	tests := []struct {
		name        string
		listenErr   error
		shutdownErr error
		signal      bool
		expectErr   error
	}{
		{
			name:   "signal shuts down cleanly",
			signal: true,
		},
		{
			name:      "listener failure is returned",
			listenErr: bindErr,
			expectErr: bindErr,
		},
		{
			name:        "shutdown failure after a signal is returned",
			signal:      true,
			shutdownErr: context.DeadlineExceeded,
			expectErr:   context.DeadlineExceeded,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			srv := &fakeServer{
				listenErr:   test.listenErr,
				shutdownErr: test.shutdownErr,
				release:     make(chan struct{}),
			}

			signals := make(chan os.Signal, 1)
			if test.signal {
				signals <- os.Interrupt
			}

			stopped := false
			err := run(srv, signals, func() { stopped = true }, logging.NewNoopLogger())

			if test.expectErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if test.expectErr != nil && !errors.Is(err, test.expectErr) {
				t.Fatalf("expected %v, got %v", test.expectErr, err)
			}
			if !stopped {
				t.Error("background work must be stopped")
			}
			if !srv.shutdown {
				t.Error("server must be shut down")
			}
		})
	}
}
