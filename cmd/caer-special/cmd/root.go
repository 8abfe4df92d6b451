/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ssargent/caerevents/pkg/config"
	"github.com/ssargent/caerevents/pkg/di"
	"github.com/ssargent/caerevents/pkg/diag"
	"github.com/ssargent/caerevents/pkg/events"
	"github.com/ssargent/caerevents/pkg/metrics"
	"github.com/ssargent/caerevents/pkg/storage"
)

var container *di.Container

// SetContainer sets the dependency injection container
func SetContainer(c *di.Container) {
	container = c
}

type contextKey string

const appKey contextKey = "app"

// app is what every subcommand gets from PersistentPreRunE
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	diag     diag.Sink
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "caer-special",
	Short: "caer-special - special event packet tool",
	Long: `caer-special builds, inspects and archives special event packets:
timestamp wraps and resets, external input edges and other out-of-band
markers produced by event cameras.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		logger, err := newLogger(cfg.Logging)
		if err != nil {
			return err
		}

		reg := prometheus.NewRegistry()
		m := metrics.New(reg)

		a := &app{
			cfg:      cfg,
			logger:   logger,
			registry: reg,
			metrics:  m,
			diag:     newDiagnostics(cfg, logger, m),
		}
		cmd.SetContext(context.WithValue(cmd.Context(), appKey, a))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if a, ok := cmd.Context().Value(appKey).(*app); ok {
			_ = a.logger.Sync()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Config file (default is $HOME/.config/caer-special/config.yaml)")
	rootCmd.PersistentFlags().StringP("data-dir", "d", "", "Data directory for the packet archive (overrides config)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (overrides config)")
}

// loadConfig reads the config file when there is one and applies flag
// overrides on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	explicit := configPath != ""
	if !explicit {
		configPath = config.GetDefaultConfigPath()
	}

	cfg := config.DefaultConfig()
	if config.ConfigExists(configPath) {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else if explicit && cmd.Name() != initCmd.Name() {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	if dataDir, _ := cmd.Flags().GetString("data-dir"); dataDir != "" {
		cfg.DataDir = dataDir
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	return cfg, nil
}

func newLogger(cfg config.Logging) (*zap.Logger, error) {
	var zc zap.Config
	if cfg.Format == "json" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}

	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	zc.Level = level

	return zc.Build()
}

// newDiagnostics logs packet diagnostics at or above the configured level
// and counts all of them.
func newDiagnostics(cfg *config.Config, logger *zap.Logger, m *metrics.Metrics) diag.Sink {
	level, enabled, err := cfg.DiagnosticsLevel()
	if err != nil || !enabled {
		return m.DiagnosticsSink()
	}
	return diag.Multi(diag.Threshold(diag.NewZapSink(logger), level), m.DiagnosticsSink())
}

func appFrom(cmd *cobra.Command) *app {
	a, ok := cmd.Context().Value(appKey).(*app)
	if !ok {
		panic("caer-special: command context has no app")
	}
	return a
}

// packetOptions returns the options every packet built or decoded by the
// CLI gets.
func (a *app) packetOptions() []events.Option {
	return []events.Option{events.WithDiagnostics(a.diag)}
}

// openStore opens the packet archive in the configured data directory.
func (a *app) openStore() (*storage.PacketStore, error) {
	if container == nil {
		return nil, fmt.Errorf("dependency container not initialized")
	}
	if err := os.MkdirAll(a.cfg.DataDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	return container.GetStoreFactory().OpenStore(a.cfg.DataDir, storage.WithPacketOptions(a.packetOptions()...))
}
