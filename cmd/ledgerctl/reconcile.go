package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gitlab.com/yelinaung/finance-ledger/internal/ledger"
)

func reconcileCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile <user-id>",
		Short: "Compare stored totals with the transaction log",
		Long: `Recompute every budget and saving goal of a user from their transactions
and report where the stored amounts differ. With --fix the drifted envelopes
are rewritten. Account balances are reported but never changed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || userID <= 0 {
				return fmt.Errorf("invalid user id %q", args[0])
			}
			fix, _ := cmd.Flags().GetBool("fix")

			pool, err := connect(cmd.Context(), v)
			if err != nil {
				return err
			}
			defer pool.Close()

			return runReconcile(cmd.Context(), ledger.New(pool), cmd.OutOrStdout(), userID, fix)
		},
	}
	cmd.Flags().Bool("fix", false, "rewrite envelopes whose stored amount drifted")
	return cmd
}

// errInconsistent makes the command exit non-zero when drift remains.
var errInconsistent = errors.New("ledger is inconsistent")

func runReconcile(ctx context.Context, svc *ledger.Service, out io.Writer, userID int64, fix bool) error {
	report, err := svc.Reconcile(ctx, userID, fix)
	if err != nil {
		return fmt.Errorf("reconcile failed: %w", err)
	}

	fmt.Fprintf(out, "User %d: checked %d envelope(s)\n", report.UserID, report.Envelopes)
	fmt.Fprintf(out, "  balance  stored %s, derived %s\n", report.StoredBalance.StringFixed(2), report.DerivedBalance.StringFixed(2))
	fmt.Fprintf(out, "  savings  stored %s, derived %s\n", report.StoredSavings.StringFixed(2), report.DerivedSavings.StringFixed(2))
	for _, d := range report.Drifts {
		fmt.Fprintf(out, "  drift    %s #%d %q: stored %s, derived %s\n",
			d.Kind, d.ID, d.Name, d.Stored.StringFixed(2), d.Derived.StringFixed(2))
	}

	switch {
	case report.Consistent():
		fmt.Fprintln(out, "✓ Consistent")
		return nil
	case report.Fixed && report.BalanceConsistent():
		fmt.Fprintf(out, "✓ Fixed %d envelope(s)\n", len(report.Drifts))
		return nil
	case report.Fixed:
		fmt.Fprintf(out, "Fixed %d envelope(s); account balances still differ\n", len(report.Drifts))
		return errInconsistent
	default:
		fmt.Fprintln(out, "✗ Drift found, rerun with --fix to repair envelopes")
		return errInconsistent
	}
}
