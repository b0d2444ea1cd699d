package cmd

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/signals"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/calgate/calgate/internal/anthropic"
	"github.com/calgate/calgate/internal/config"
	errwrap "github.com/calgate/calgate/internal/errors"
	"github.com/calgate/calgate/internal/gateway"
	"github.com/calgate/calgate/internal/gateway/prompt"
	"github.com/calgate/calgate/internal/metrics"
	"github.com/calgate/calgate/internal/observability"
	"github.com/calgate/calgate/internal/ratelimit"
	"github.com/calgate/calgate/internal/server"
	"github.com/calgate/calgate/internal/server/handlers"
)

var (
	serverPort int
	serverHost string
)

// signalHealthChecker implements HealthChecker for signal system
type signalHealthChecker struct{}

func (s signalHealthChecker) CheckHealth(ctx context.Context) error {
	return nil // Signal handlers are registered and ready
}

// telemetryHealthChecker ensures telemetry system and exporter are available
type telemetryHealthChecker struct{}

func (telemetryHealthChecker) CheckHealth(ctx context.Context) error {
	if observability.TelemetrySystem == nil || observability.PrometheusExporter == nil {
		return errwrap.NewInternalError("telemetry system not initialized")
	}
	return nil
}

// identityHealthChecker validates app identity metadata
type identityHealthChecker struct {
	binaryName string
	envPrefix  string
	configName string
}

func (i identityHealthChecker) CheckHealth(ctx context.Context) error {
	switch {
	case i.binaryName == "":
		return errwrap.NewConfigInvalidError("app identity missing binary name")
	case i.envPrefix == "":
		return errwrap.NewConfigInvalidError("app identity missing env prefix")
	case i.configName == "":
		return errwrap.NewConfigInvalidError("app identity missing config name")
	}
	return nil
}

// sharedCredentialChecker reports degraded when the shared upstream key is
// absent. The gateway still serves caller-supplied keys in that state, so
// this never fails probes outright.
type sharedCredentialChecker struct {
	keyEnv string
}

func (c sharedCredentialChecker) CheckHealth(ctx context.Context) error {
	if strings.TrimSpace(os.Getenv(c.keyEnv)) == "" {
		return handlers.ErrDegraded
	}
	return nil
}

// limiterHealthChecker confirms the admission limiter is wired.
type limiterHealthChecker struct {
	limiter *ratelimit.Limiter
}

func (c limiterHealthChecker) CheckHealth(ctx context.Context) error {
	if c.limiter == nil {
		return errwrap.NewInternalError("rate limiter not initialized")
	}
	return nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP gateway",
	Long: `Start the HTTP gateway with graceful shutdown support.

Signal Handling:
  • Ctrl+C (SIGINT) or SIGTERM: Graceful shutdown
  • Ctrl+C twice within 2s: Force quit
  • SIGHUP: Config reload (placeholder - restart recommended)

The server will cleanly shut down the HTTP server and flush logs on shutdown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Get app identity for telemetry namespace
		identity := GetAppIdentity()
		namespace := identity.TelemetryNamespace()

		// Decode typed config from viper (defaults, file, env)
		cfg, err := config.FromViper()
		if err != nil {
			return errwrap.WrapConfigInvalid(cmd.Context(), err, "config decode failed")
		}

		// Flags are bound into viper, so the decoded config already reflects
		// flag > env > file > default precedence.
		host := cfg.Server.Host
		if host == "" {
			host = serverHost
		}
		port := cfg.Server.Port
		if port == 0 {
			port = serverPort
		}

		// Initialize server logger with namespace
		observability.InitServerLogger(identity.BinaryName, cfg.Logging.Level, namespace)

		metricsPort := cfg.Metrics.Port
		if metricsPort == 0 {
			metricsPort = 9090
		}

		// Initialize metrics with namespace
		if err := observability.InitMetrics(identity.BinaryName, metricsPort, namespace); err != nil {
			observability.ServerLogger.Error("Failed to initialize metrics",
				zap.Error(err))
			return errwrap.WrapInternal(cmd.Context(), err, "metrics initialization failed")
		}

		observability.ServerLogger.Info("Initializing gateway",
			zap.String("service", identity.BinaryName),
			zap.String("namespace", namespace),
			zap.String("version", versionInfo.Version),
			zap.String("host", host),
			zap.Int("port", port),
			zap.Int("metrics_port", metricsPort),
			zap.Int("rate_limit", cfg.RateLimit.Limit),
			zap.Duration("rate_window", cfg.RateLimit.Window),
			zap.String("upstream_model", cfg.Upstream.Model))

		// Resolve the system prompt: built-in unless a prompt file is set
		systemPrompt := prompt.Default()
		if cfg.Prompt.File != "" {
			loaded, err := prompt.LoadFile(cfg.Prompt.File)
			if err != nil {
				observability.ServerLogger.Error("Failed to load prompt file",
					zap.String("file", cfg.Prompt.File),
					zap.Error(err))
				return errwrap.WrapConfigInvalid(cmd.Context(), err, "prompt file load failed")
			}
			systemPrompt = loaded.System
			observability.ServerLogger.Info("Using prompt file",
				zap.String("file", loaded.Source),
				zap.String("name", loaded.Config.Name))
		}

		// Assemble the chat pipeline: limiter, upstream client, handler
		limiter := ratelimit.New(cfg.RateLimit.Limit, cfg.RateLimit.Window)

		client := anthropic.NewClient(cfg.Upstream.BaseURL)
		client.Timeout = cfg.Upstream.Timeout

		chat := gateway.New(gateway.Config{
			Limiter:      limiter,
			Client:       client,
			Model:        cfg.Upstream.Model,
			MaxTokens:    cfg.Upstream.MaxTokens,
			SystemPrompt: systemPrompt,
			SharedKeyEnv: cfg.Upstream.KeyEnv,
			Logger:       observability.ServerLogger,
		})

		// Initialize health manager
		handlers.InitHealthManager(versionInfo.Version)
		hm := handlers.GetHealthManager()
		hm.RegisterChecker("signal_handlers", signalHealthChecker{})
		hm.RegisterChecker("telemetry", telemetryHealthChecker{})
		hm.RegisterChecker("app_identity", identityHealthChecker{
			binaryName: identity.BinaryName,
			envPrefix:  identity.EnvPrefix,
			configName: identity.ConfigName,
		})
		hm.RegisterChecker("shared_credential", sharedCredentialChecker{keyEnv: cfg.Upstream.KeyEnv})
		hm.RegisterChecker("rate_limiter", limiterHealthChecker{limiter: limiter})

		// Create server
		srv := server.New(host, port, chat)

		// Set app identity for handlers
		handlers.SetAppIdentity(identity)

		metrics.SetServerStartTime(time.Now().Unix())

		// Get shutdown timeout from config
		shutdownTimeout := cfg.Server.ShutdownTimeout
		if shutdownTimeout == 0 {
			shutdownTimeout = 10 * time.Second
		}

		// Register graceful shutdown handlers (LIFO order - last registered, first executed)
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

		// Handler 2: Shutdown HTTP server (executed first)
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

		// Register config reload handler (SIGHUP)
		signals.OnReload(func(ctx context.Context) error {
			observability.ServerLogger.Info("Received SIGHUP: attempting config reload")

			// Attempt to reload configuration
			if err := viper.ReadInConfig(); err != nil {
				if _, ok := err.(viper.ConfigFileNotFoundError); ok {
					observability.ServerLogger.Info("No config file found - using defaults and environment variables")
					return nil
				}
				observability.ServerLogger.Error("Failed to reload config file",
					zap.String("file", viper.ConfigFileUsed()),
					zap.Error(err))
				return errwrap.WrapConfigInvalid(ctx, err, "config reload failed")
			}

			observability.ServerLogger.Info("Configuration reloaded successfully",
				zap.String("file", viper.ConfigFileUsed()))

			// NOTE: The rate limiter and upstream client keep their
			// construction-time settings; a restart is required to apply
			// changes to those sections.

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
				zap.String("host", host),
				zap.Int("port", port))
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

	serveCmd.Flags().StringVar(&serverHost, "host", "localhost", "server host")
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "server port")

	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
}
