package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gitlab.com/yelinaung/finance-ledger/internal/ledger"
)

func sweepCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Close budgets and saving goals whose period has ended",
		Long: `Close every in-progress budget and active saving goal whose end date has
passed, and notify their owners. The bot runs the same sweep periodically;
this command is for running it from cron or by hand.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			batch, _ := cmd.Flags().GetInt("batch")

			pool, err := connect(cmd.Context(), v)
			if err != nil {
				return err
			}
			defer pool.Close()

			return runSweep(cmd.Context(), ledger.New(pool), cmd.OutOrStdout(), batch)
		},
	}
	cmd.Flags().Int("batch", ledger.DefaultSweepBatch, "maximum envelopes of each kind to close")
	return cmd
}

func runSweep(ctx context.Context, svc *ledger.Service, out io.Writer, batch int) error {
	result, err := svc.SweepExpired(ctx, batch)
	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}
	fmt.Fprintf(out, "Closed %d budget(s) and %d saving goal(s)\n", result.Budgets, result.Savings)
	return nil
}
