package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"media-tracker/internal/config"
)

func newRootCommand() *cobra.Command {
	var swaggerPath string

	rootCmd := &cobra.Command{
		Use:           "mediatracker",
		Short:         "Media tracker API server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), swaggerPath)
		},
	}
	rootCmd.PersistentFlags().StringVar(&swaggerPath, "swagger", "docs/swagger.yaml", "Path to the OpenAPI document served at /swagger")

	rootCmd.AddCommand(newServeCommand(&swaggerPath))
	rootCmd.AddCommand(newMigrateCommand())

	return rootCmd
}

// loadConfig reads the environment and installs the JSON logger at the
// configured level.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))
	return cfg, nil
}
