package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/noovy/concierge/internal/config"
	"github.com/noovy/concierge/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the concierge backend server",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		if host, _ := cmd.Flags().GetString("host"); host != "" {
			cfg.Host = host
		}
		if port, _ := cmd.Flags().GetInt("port"); port != 0 {
			cfg.Port = port
		}
		if dataDir, _ := cmd.Flags().GetString("data-dir"); dataDir != "" {
			cfg.DataDir = dataDir
		}
		if maxAge, _ := cmd.Flags().GetString("session-max-age"); maxAge != "" {
			d, err := time.ParseDuration(maxAge)
			if err != nil {
				return err
			}
			cfg.SessionMaxAge = d
		}

		if err := config.EnsureDirs(cfg); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		srv, err := server.New(cfg)
		if err != nil {
			return err
		}
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().String("config", "", "path to a YAML configuration file")
	serveCmd.Flags().String("host", "", "bind address")
	serveCmd.Flags().Int("port", 0, "listen port")
	serveCmd.Flags().String("data-dir", "", "data storage directory")
	serveCmd.Flags().String("session-max-age", "", "idle session expiry, e.g. 1h")
	rootCmd.AddCommand(serveCmd)
}
