// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/canonical/workspace-service/internal/authorization"
	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring/prometheus"
	"github.com/canonical/workspace-service/internal/storage"
	"github.com/canonical/workspace-service/internal/tracing"
	"github.com/canonical/workspace-service/pkg/authentication"
	"github.com/canonical/workspace-service/pkg/invites"
	"github.com/canonical/workspace-service/pkg/members"
	"github.com/canonical/workspace-service/pkg/web"
	"github.com/canonical/workspace-service/pkg/webhooks"
	"github.com/canonical/workspace-service/pkg/workspaces"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "serve starts the web server",
	Long:  `Launch the web application, list of environment variables is available in the readme`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := serve(); err != nil {
			fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve() error {
	specs, err := loadSpecs()
	if err != nil {
		return err
	}

	logger := logging.NewLogger(specs.LogLevel)
	defer logger.Sync()

	monitor := prometheus.NewMonitor(serviceName, logger)
	tracer := tracing.NewTracer(tracing.NewConfig(specs.TracingEnabled, serviceName, specs.OtelGRPCEndpoint, specs.OtelHTTPEndpoint, logger))

	dbClient, err := newDBClient(specs, tracer, monitor, logger)
	if err != nil {
		return err
	}
	defer dbClient.Close()

	s := storage.NewStorage(dbClient, tracer, monitor, logger)
	authorizer := authorization.NewAuthorizer(s, tracer, monitor, logger)
	directory := newDirectory(specs, tracer, monitor, logger)

	validator, err := newCredentialValidator(context.Background(), specs, directory, tracer, monitor, logger)
	if err != nil {
		return fmt.Errorf("failed to set up identity provider: %w", err)
	}
	logger.Infof("Using %s identity provider", specs.IdentityProvider)

	resolver := authentication.NewResolver(validator, tracer, monitor, logger)
	binder := workspaces.NewBinder(s, authorizer, tracer, monitor, logger)
	workspaceService := workspaces.NewService(s, authorizer, dbClient, tracer, monitor, logger)
	inviteService := invites.NewService(s, authorizer, directory, dbClient, specs.InvitationLifetime, tracer, monitor, logger)
	memberService := members.NewService(s, authorizer, directory, dbClient, tracer, monitor, logger)
	webhookService := webhooks.NewService(s, workspaceService, tracer, monitor, logger)

	router := web.NewRouter(
		web.Config{
			SessionCookieName:   specs.SessionCookieName,
			WorkspaceCookieName: specs.WorkspaceCookieName,
			PublicPathPrefixes:  specs.PublicPathPrefixes,
			APIPathPrefix:       specs.APIPathPrefix,
			SignInURL:           specs.SignInURL,
			CORSAllowedOrigins:  specs.CORSAllowedOrigins,
			WebhookAPIKey:       specs.WebhookAPIKey,
		},
		resolver,
		binder,
		workspaceService,
		inviteService,
		memberService,
		webhookService,
		dbClient,
		tracer,
		monitor,
		logger,
	)
	logger.Infof("Starting HTTP server on port %v", specs.Port)

	srv := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%v", specs.Port),
		WriteTimeout: time.Second * 60,
		ReadTimeout:  time.Second * 15,
		IdleTimeout:  time.Second * 60,
		Handler:      router,
	}

	reaperCtx, stopReaper := context.WithCancel(context.Background())
	defer stopReaper()

	if specs.InviteReapInterval > 0 {
		go reapInvites(reaperCtx, inviteService, specs.InviteReapInterval, logger)
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	return run(srv, c, stopReaper, logger)
}

type server interface {
	ListenAndServe() error
	Shutdown(context.Context) error
}

// run serves until a signal arrives or the listener fails, then shuts down
// within 15 seconds. onStop runs before the shutdown starts.
func run(srv server, signals <-chan os.Signal, onStop func(), logger logging.LoggerInterface) error {
	serverErr := make(chan error, 1)

	go func() {
		logger.Security().SystemStartup()
		serverErr <- srv.ListenAndServe()
	}()

	var runErr error
	select {
	case <-signals:
	case runErr = <-serverErr:
		if errors.Is(runErr, http.ErrServerClosed) {
			runErr = nil
		} else {
			runErr = fmt.Errorf("server error: %w", runErr)
		}
	}

	onStop()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	logger.Security().SystemShutdown()
	if err := srv.Shutdown(ctx); err != nil && runErr == nil {
		runErr = fmt.Errorf("server shutdown error: %w", err)
	}

	return runErr
}

// reapInvites deletes expired invites until ctx is cancelled.
func reapInvites(ctx context.Context, service invites.ServiceInterface, interval time.Duration, logger logging.LoggerInterface) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := service.ReapExpired(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Errorf("invite reaper: %v", err)
			}
		}
	}
}
