package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ph-studio/internal/config"
	"ph-studio/internal/storage"
)

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Manages the postgres schema",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			if cfg.Storage.Driver != config.StoragePostgres {
				return fmt.Errorf("migrate: STORAGE_DRIVER is %q, migrations only apply to %q", cfg.Storage.Driver, config.StoragePostgres)
			}

			ctx := cmd.Context()
			pg, err := storage.NewPostgresStorage(ctx, cfg.Database, log)
			if err != nil {
				return err
			}
			defer pg.Close()

			action := "up"
			if len(args) > 0 {
				action = args[0]
			}

			switch action {
			case "down":
				return storage.RollbackMigration(ctx, pg.DB(), log)
			case "status":
				return storage.MigrationStatus(ctx, pg.DB(), log)
			default:
				return storage.RunMigrations(ctx, pg.DB(), log)
			}
		},
	}
}
