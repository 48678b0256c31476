package cmd

import (
	"fmt"

	"github.com/mkarlsen/gridsync/internal/contract"
	"github.com/mkarlsen/gridsync/internal/decision"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// migrateCmd applies run-history schema migrations.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate the run-history schema in the decision store.",
	Long: `Run database migrations for the run-history table.

Versions:
  -1  migrate to the latest version (default)
   0  roll back all migrations
   N  migrate to version N

Examples:
  # Migrate to the latest schema
  gridsync migrate

  # Roll back the run-history table
  gridsync migrate --target-version 0`,
	Args:    cobra.NoArgs,
	PreRunE: metaSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := decision.MigrateRuns(cfg.DecisionBackend, cfg.DecisionDBConnect, targetVersion); err != nil {
			contract.LogFatal("Cannot migrate run history", err)
		}
		fmt.Println("Run-history migration completed.")
	},
}
