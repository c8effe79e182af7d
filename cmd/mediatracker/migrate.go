package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"media-tracker/internal/config"
	"media-tracker/internal/database"
	"media-tracker/internal/repository"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the PostgreSQL tables and MongoDB indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Storage != config.StoragePostgres {
				return fmt.Errorf("migrate needs STORAGE_BACKEND=%s, got %q", config.StoragePostgres, cfg.Storage)
			}

			ctx := cmd.Context()
			stores, err := database.Open(ctx, cfg)
			if err != nil {
				return err
			}
			defer stores.Close(context.WithoutCancel(ctx))

			if err := migrate(ctx, stores); err != nil {
				return err
			}
			slog.Info("migrations applied")
			return nil
		},
	}
}

func migrate(ctx context.Context, stores *database.Stores) error {
	if err := database.Migrate(ctx, stores.SQL); err != nil {
		return err
	}
	if err := repository.NewLockRepository(stores.MongoDB).EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("ensure lock indexes: %w", err)
	}
	return nil
}
