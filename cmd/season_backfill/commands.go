package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/SscSPs/supply_chain_app/internal/core/services"
	"github.com/SscSPs/supply_chain_app/internal/middleware"
	"github.com/SscSPs/supply_chain_app/internal/platform/config"
	"github.com/SscSPs/supply_chain_app/internal/repositories/database/pgsql"
	"github.com/SscSPs/supply_chain_app/pkg/database"
)

func newRootCmd(logger *slog.Logger) *cobra.Command {
	var (
		cfg            *config.Config
		migrationsPath string
	)

	rootCmd := &cobra.Command{
		Use:           "season_backfill",
		Short:         "Assign seasons to transactions recorded without one",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.LoadConfig()
			if err != nil {
				return err
			}
			if loaded.ChainStore != config.StorePostgres {
				return fmt.Errorf("season backfill needs CHAIN_STORE=%s, got %q", config.StorePostgres, loaded.ChainStore)
			}
			cfg = loaded
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&migrationsPath, "migrations", database.DefaultMigrationsPath, "migrations source URL")

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := database.RunMigrations(cfg.DatabaseURL, migrationsPath, logger)
			return err
		},
	}

	var (
		batchSize   int
		skipMigrate bool
	)
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the backfill once and print its summary as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("batch-size") {
				batchSize = cfg.SeasonBackfillBatchSize
			}
			if !skipMigrate {
				if _, err := database.RunMigrations(cfg.DatabaseURL, migrationsPath, logger); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runBackfill(ctx, cmd, cfg, logger, batchSize)
		},
	}
	runCmd.Flags().IntVar(&batchSize, "batch-size", 0, "transactions per page (default SEASON_BACKFILL_BATCH_SIZE)")
	runCmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not apply migrations first")

	rootCmd.AddCommand(migrateCmd, runCmd)
	return rootCmd
}

func runBackfill(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, batchSize int) error {
	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, true)
	if err != nil {
		return err
	}
	defer database.ClosePgxPool(dbPool)

	repos := pgsql.NewRepositoryProvider(dbPool)
	seasonService := services.NewSeasonService(repos.SeasonRepo)

	ctx = middleware.WithLogger(ctx, logger.With(slog.String("job", "season_backfill")))
	result, err := seasonService.BackfillSeasons(ctx, batchSize)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
