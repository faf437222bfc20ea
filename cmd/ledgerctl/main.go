// Command ledgerctl runs maintenance tasks against the finance ledger
// database: schema migrations, expiry sweeps and aggregate reconciliation.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gitlab.com/yelinaung/finance-ledger/internal/database"
	"gitlab.com/yelinaung/finance-ledger/internal/logger"
)

var version = "dev"

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Log.Info().Msg("Received interrupt signal, shutting down...")
		cancel()
	}()

	err := newRootCmd(viper.New()).ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Flags are bound to v, which also reads
// DATABASE_URL, LOG_LEVEL, LOG_FORMAT and LOG_HASH_SALT from the environment.
func newRootCmd(v *viper.Viper) *cobra.Command {
	root := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Maintenance tasks for the finance ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			logger.Configure(v.GetString("log-level"), v.GetString("log-format"))
			logger.InitHashSalt(v.GetString("log-hash-salt"))
			return nil
		},
	}

	_ = godotenv.Load()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root.PersistentFlags().String("database-url", "", "PostgreSQL connection string (env DATABASE_URL)")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-format", "console", "log format (console, json)")
	root.PersistentFlags().String("log-hash-salt", "", "salt for hashed user IDs in logs (env LOG_HASH_SALT)")
	for _, name := range []string{"database-url", "log-level", "log-format", "log-hash-salt"} {
		_ = v.BindPFlag(name, root.PersistentFlags().Lookup(name))
	}

	root.AddCommand(
		migrateCmd(v),
		sweepCmd(v),
		reconcileCmd(v),
		versionCmd(),
	)
	return root
}

// connect opens the database named by --database-url or DATABASE_URL.
func connect(ctx context.Context, v *viper.Viper) (*pgxpool.Pool, error) {
	url := v.GetString("database-url")
	if url == "" {
		return nil, fmt.Errorf("database URL is required: set --database-url or DATABASE_URL")
	}
	return database.Connect(ctx, url)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ledgerctl %s\n", version)
		},
	}
}
