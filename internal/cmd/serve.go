package cmd

import (
	"context"
	"net/http"
	"time"

	"github.com/fulmenhq/gofulmen/signals"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/domainscout/domainscout/internal/config"
	errwrap "github.com/domainscout/domainscout/internal/errors"
	"github.com/domainscout/domainscout/internal/observability"
	"github.com/domainscout/domainscout/internal/server"
	"github.com/domainscout/domainscout/internal/server/handlers"
)

var (
	serverPort int
	serverHost string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the HTTP availability server with graceful shutdown support.

Signal Handling:
  • Ctrl+C (SIGINT) or SIGTERM: Graceful shutdown
  • Ctrl+C twice within 2s: Force quit
  • SIGHUP: Config reload (placeholder - restart recommended)

The server drains in-flight resolutions and flushes logs on shutdown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadedConfig()

		// Initialize server logger
		observability.InitServerLogger("domainscout", cfg.Logging.Level)

		serverCfg := cfg.Server
		if cmd.Flags().Changed("host") {
			serverCfg.Host = serverHost
		}
		if cmd.Flags().Changed("port") {
			serverCfg.Port = serverPort
		}

		observability.ServerLogger.Info("Initializing server",
			zap.String("service", "domainscout"),
			zap.String("version", versionInfo.Version),
			zap.String("host", serverCfg.Host),
			zap.Int("port", serverCfg.Port))

		db, err := openStore(cmd.Context())
		if err != nil {
			return errwrap.WrapDatabaseError(cmd.Context(), err, "store initialization failed")
		}

		eng := buildEngine(cfg, db, observability.ServerLogger)

		// Drop stale cache rows left over from previous runs.
		if purged, err := db.PurgeExpiredAvailability(cmd.Context()); err != nil {
			observability.ServerLogger.Warn("Cache purge failed", zap.Error(err))
		} else if purged > 0 {
			observability.ServerLogger.Info("Purged expired cache entries",
				zap.Int64("rows", purged))
		}

		// Health manager with a store reachability check
		handlers.SetVersionInfo(versionInfo.Version, versionInfo.Commit, versionInfo.BuildDate)
		health := handlers.NewHealthManager(versionInfo.Version)
		health.RegisterChecker("store", db)

		srv := server.New(serverCfg, server.Deps{
			Resolver: eng.resolver,
			Batch:    eng.scheduler,
			Health:   health,
		})

		shutdownTimeout := serverCfg.ShutdownTimeout
		if shutdownTimeout == 0 {
			shutdownTimeout = 10 * time.Second
		}

		// Graceful shutdown handlers (LIFO order - last registered, first executed)
		// Handler 1: Flush logger (executed last)
		signals.OnShutdown(func(ctx context.Context) error {
			observability.ServerLogger.Info("Flushing logger...")
			if err := observability.ServerLogger.Sync(); err != nil {
				// Sync errors are often benign (stdout/stderr already closed)
				observability.ServerLogger.Warn("Logger sync returned error (may be benign)",
					zap.Error(err))
			}
			return nil
		})

		// Handler 2: Close the store (after in-flight work drains)
		signals.OnShutdown(func(ctx context.Context) error {
			observability.ServerLogger.Info("Draining resolver and closing store...")
			eng.resolver.Drain()
			if err := db.Close(); err != nil {
				observability.ServerLogger.Warn("Store close returned error", zap.Error(err))
			}
			return nil
		})

		// Handler 3: Shutdown HTTP server (executed first)
		signals.OnShutdown(func(ctx context.Context) error {
			observability.ServerLogger.Info("Shutting down HTTP server...")
			shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				return errwrap.WrapInternal(ctx, err, "server shutdown failed")
			}

			observability.ServerLogger.Info("HTTP server stopped gracefully")
			return nil
		})

		// Config reload handler (SIGHUP)
		signals.OnReload(func(ctx context.Context) error {
			observability.ServerLogger.Info("Received SIGHUP: attempting config reload")

			if _, err := config.Load(cfgFile); err != nil {
				observability.ServerLogger.Error("Failed to reload config",
					zap.Error(err))
				return errwrap.WrapConfigInvalid(ctx, err, "config reload failed")
			}

			observability.ServerLogger.Info("Configuration reloaded successfully")
			return nil
		})

		// Enable double-tap force quit (Ctrl+C within 2 seconds)
		if err := signals.EnableDoubleTap(signals.DoubleTapConfig{
			Window:  2 * time.Second,
			Message: "Press Ctrl+C again within 2 seconds to force quit",
		}); err != nil {
			observability.ServerLogger.Warn("Failed to enable double-tap force quit",
				zap.Error(err))
		}

		// Start server in background goroutine
		errChan := make(chan error, 1)
		go func() {
			observability.ServerLogger.Info("Starting HTTP server...",
				zap.String("host", serverCfg.Host),
				zap.Int("port", serverCfg.Port))
			if err := srv.Start(); err != nil && err != http.ErrServerClosed {
				errChan <- err
			}
		}()

		// Start signal listener in background
		go func() {
			if err := signals.Listen(cmd.Context()); err != nil {
				observability.ServerLogger.Error("Signal handler error", zap.Error(err))
				errChan <- err
			}
		}()

		// Wait for error or shutdown completion
		if err := <-errChan; err != nil {
			return errwrap.WrapInternal(cmd.Context(), err, "server error")
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverHost, "host", "127.0.0.1", "server host")
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "server port")
}
