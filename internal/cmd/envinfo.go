package cmd

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/calgate/calgate/internal/config"
	"github.com/calgate/calgate/internal/observability"
)

var envInfoCmd = &cobra.Command{
	Use:   "envinfo",
	Short: "Display environment information",
	Long:  "Display comprehensive environment, configuration, and version information.",
	Run: func(cmd *cobra.Command, args []string) {
		version := crucible.GetVersion()

		observability.CLILogger.Info("=== Calgate Environment Information ===")
		observability.CLILogger.Info("")

		// Application Info
		identity := GetAppIdentity()
		observability.CLILogger.Info("Application:")
		observability.CLILogger.Info("  Name:       " + identity.BinaryName)
		observability.CLILogger.Info("  Version:    " + versionInfo.Version)
		observability.CLILogger.Info("  Commit:     " + versionInfo.Commit)
		observability.CLILogger.Info("  Built:      " + versionInfo.BuildDate)
		observability.CLILogger.Info("")

		// SSOT Info
		observability.CLILogger.Info("SSOT:")
		observability.CLILogger.Info("  Gofulmen:   "+version.Gofulmen, zap.String("gofulmen_version", version.Gofulmen))
		observability.CLILogger.Info("  Crucible:   "+version.Crucible, zap.String("crucible_version", version.Crucible))
		observability.CLILogger.Info("")

		// Runtime Info
		observability.CLILogger.Info("Runtime:")
		observability.CLILogger.Info("  Go Version: "+runtime.Version(), zap.String("go_version", runtime.Version()))
		observability.CLILogger.Info("  GOOS:       "+runtime.GOOS, zap.String("goos", runtime.GOOS))
		observability.CLILogger.Info("  GOARCH:     "+runtime.GOARCH, zap.String("goarch", runtime.GOARCH))
		observability.CLILogger.Info(fmt.Sprintf("  NumCPU:     %d", runtime.NumCPU()), zap.Int("num_cpu", runtime.NumCPU()))
		observability.CLILogger.Info("")

		cfg, err := config.FromViper()
		if err != nil {
			observability.CLILogger.Warn("Config decode failed", zap.Error(err))
			return
		}

		// Configuration
		observability.CLILogger.Info("Configuration:")
		observability.CLILogger.Info("  Server Host:    "+cfg.Server.Host, zap.String("host", cfg.Server.Host))
		observability.CLILogger.Info(fmt.Sprintf("  Server Port:    %d", cfg.Server.Port), zap.Int("port", cfg.Server.Port))
		observability.CLILogger.Info("  Log Level:      "+cfg.Logging.Level, zap.String("log_level", cfg.Logging.Level))
		observability.CLILogger.Info("  Log Profile:    "+cfg.Logging.Profile, zap.String("log_profile", cfg.Logging.Profile))
		observability.CLILogger.Info(fmt.Sprintf("  Metrics Port:   %d", cfg.Metrics.Port), zap.Int("metrics_port", cfg.Metrics.Port))
		observability.CLILogger.Info("  Config File:    "+config.DefaultConfigPath(identity), zap.String("config_file", config.DefaultConfigPath(identity)))
		observability.CLILogger.Info("")

		// Rate Limiting Configuration
		observability.CLILogger.Info("Rate Limiting:")
		observability.CLILogger.Info(fmt.Sprintf("  Limit:          %d requests", cfg.RateLimit.Limit), zap.Int("rate_limit", cfg.RateLimit.Limit))
		observability.CLILogger.Info("  Window:         "+cfg.RateLimit.Window.String(), zap.Duration("rate_window", cfg.RateLimit.Window))
		observability.CLILogger.Info("")

		// Upstream Configuration
		observability.CLILogger.Info("Upstream:")
		observability.CLILogger.Info("  Base URL:       " + cfg.Upstream.BaseURL)
		observability.CLILogger.Info("  Model:          " + cfg.Upstream.Model)
		observability.CLILogger.Info(fmt.Sprintf("  Max Tokens:     %d", cfg.Upstream.MaxTokens))
		observability.CLILogger.Info("  Timeout:        " + cfg.Upstream.Timeout.String())
		keyEnv := cfg.Upstream.KeyEnv
		if keyEnv == "" {
			keyEnv = "ANTHROPIC_API_KEY"
		}
		// The credential value is never printed, only its presence.
		if strings.TrimSpace(os.Getenv(keyEnv)) != "" {
			observability.CLILogger.Info("  " + keyEnv + ": (set)")
		} else {
			observability.CLILogger.Info("  " + keyEnv + ": (not set)")
		}
		observability.CLILogger.Info("")

		// Prompt Configuration
		observability.CLILogger.Info("Prompt:")
		if cfg.Prompt.File != "" {
			observability.CLILogger.Info("  File:           " + cfg.Prompt.File)
		} else {
			observability.CLILogger.Info("  File:           (built-in calendar prompt)")
		}
		observability.CLILogger.Info("")

		observability.CLILogger.Info("=== End Environment Information ===")
	},
}

func init() {
	rootCmd.AddCommand(envInfoCmd)
}
