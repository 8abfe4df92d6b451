/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ssargent/caerevents/pkg/api"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the packet archive REST API server",
	Long: `Start the packet archive REST API server. Packets are uploaded and
downloaded in their wire form under /api/v1/packets, and Prometheus metrics
are served at /metrics.

Examples:
  caer-special serve
  caer-special serve --port 9000 --bind 0.0.0.0`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a := appFrom(cmd)

		config := api.ServerConfig{
			Port:   a.cfg.Port,
			Bind:   a.cfg.Bind,
			APIKey: a.cfg.Security.APIKey,
		}
		if cmd.Flags().Changed("port") {
			config.Port, _ = cmd.Flags().GetInt("port")
		}
		if cmd.Flags().Changed("bind") {
			config.Bind, _ = cmd.Flags().GetString("bind")
		}
		if cmd.Flags().Changed("api-key") {
			config.APIKey, _ = cmd.Flags().GetString("api-key")
		}

		if config.APIKey == "" {
			a.logger.Warn("no API key configured, /api/v1 is unauthenticated")
		}

		s, err := a.openStore()
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		defer s.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a.logger.Info("serving packet archive",
			zap.String("data_dir", a.cfg.DataDir),
			zap.String("bind", config.Bind),
			zap.Int("port", config.Port))

		if err := container.GetServerStarter().StartServer(ctx, s, config, a.registry, a.logger); err != nil {
			return fmt.Errorf("server stopped: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on (overrides config)")
	serveCmd.Flags().String("bind", "127.0.0.1", "Address to bind to (overrides config)")
	serveCmd.Flags().String("api-key", "", "API key for authentication (overrides config)")
}
