package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gitlab.com/yelinaung/finance-ledger/internal/database"
	"gitlab.com/yelinaung/finance-ledger/internal/logger"
)

func migrateCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pool, err := connect(cmd.Context(), v)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := database.RunMigrations(cmd.Context(), pool); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
			logger.Log.Info().Msg("Migrations applied")
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Schema is up to date")
			return nil
		},
	}
}
