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

	"github.com/HSousa1987/Lavandaria-sub001/cmd/cmdutil"
	"github.com/HSousa1987/Lavandaria-sub001/internal/auth"
	"github.com/HSousa1987/Lavandaria-sub001/internal/credentials"
	"github.com/HSousa1987/Lavandaria-sub001/internal/db/bunx"
	"github.com/HSousa1987/Lavandaria-sub001/internal/policy"
	"github.com/HSousa1987/Lavandaria-sub001/internal/repository"
	"github.com/HSousa1987/Lavandaria-sub001/internal/server"
	"github.com/HSousa1987/Lavandaria-sub001/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Lavandaria gateway",
	Long:  `Starts the HTTP server. Every /api request passes the session gateway before reaching its handler.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := cmdutil.NewLogger(cfg)

		shutdownTelemetry, err := telemetry.Init(ctx, cfg.Observability, logger)
		if err != nil {
			return err
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTelemetry(sctx); err != nil {
				logger.Warn(sctx, "telemetry shutdown failed", "error", err)
			}
		}()

		serverMetrics, err := telemetry.NewServerMetrics()
		if err != nil {
			return fmt.Errorf("create server metrics: %w", err)
		}
		gatewayMetrics, err := telemetry.NewGatewayMetrics()
		if err != nil {
			return fmt.Errorf("create gateway metrics: %w", err)
		}

		// Connect to database
		db, err := cmdutil.OpenDB(ctx, cfg)
		if err != nil {
			return err
		}
		defer bunx.Close(db)
		logger.Info(ctx, "connected to database", "type", bunx.DetectDatabaseType(cfg.DatabaseURL))

		// Initialize repositories
		staffRepo := repository.NewBunStaffRepository(db)
		clientRepo := repository.NewBunClientRepository(db)
		jobRepo := repository.NewBunJobRepository(db)
		paymentRepo := repository.NewBunPaymentRepository(db)

		verifier, err := credentials.NewVerifier(staffRepo, clientRepo)
		if err != nil {
			return fmt.Errorf("create credential verifier: %w", err)
		}

		backend, closeBackend, err := cmdutil.NewSessionBackend(ctx, cfg, db, logger, gatewayMetrics)
		if err != nil {
			return err
		}
		defer closeBackend()
		mgr := cmdutil.NewSessionManager(cfg, backend, logger)

		routes, err := policy.LoadTable(cfg.Policy.RoutesFile)
		if err != nil {
			return fmt.Errorf("load route policy: %w", err)
		}
		logger.Info(ctx, "route policy loaded", "routes", len(routes.Routes()), "file", cfg.Policy.RoutesFile)

		corsOpts := server.DefaultCORSOptions()
		if len(cfg.CORS.AllowedOrigins) > 0 {
			corsOpts.AllowedOrigins = cfg.CORS.AllowedOrigins
		}

		handler := server.NewH2CHandler(server.RouterOptions{
			Sessions: mgr,
			Routes:   routes,
			Verifier: verifier,
			Staff:    staffRepo,
			Clients:  clientRepo,
			Jobs:     jobRepo,
			Payments: paymentRepo,
			Readiness: []server.ReadinessCheck{
				{Name: "database", Check: db.PingContext},
				{Name: "sessions", Check: mgr.Ping},
			},
			Cookie:         auth.CookieConfig{Name: cfg.Cookie.Name, Secure: cfg.Cookie.Secure},
			CORSOptions:    &corsOpts,
			Logger:         logger,
			ServerMetrics:  serverMetrics,
			GatewayMetrics: gatewayMetrics,
		})

		// Create HTTP server
		srv := &http.Server{
			Addr:         cfg.ServerAddr,
			Handler:      handler,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		sweepCtx, stopSweeper := context.WithCancel(ctx)
		defer stopSweeper()
		go mgr.RunSweeper(sweepCtx, cfg.Session.SweepInterval)

		// Start server in goroutine
		serverErrors := make(chan error, 1)
		go func() {
			logger.Info(ctx, "starting server",
				"addr", cfg.ServerAddr,
				"environment", cfg.Environment,
				"session_backend", cfg.Session.Backend,
				"secure_cookie", cfg.Cookie.Secure,
			)
			serverErrors <- srv.ListenAndServe()
		}()

		// Wait for interrupt signal
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			logger.Info(ctx, "shutting down gracefully", "signal", sig.String())

			// Graceful shutdown with timeout
			sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := srv.Shutdown(sctx); err != nil {
				srv.Close()
				return fmt.Errorf("graceful shutdown failed: %w", err)
			}

			logger.Info(sctx, "server stopped")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
