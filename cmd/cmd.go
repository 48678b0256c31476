// Package cmd defines the command-line interface for gridsync.
package cmd

import (
	"github.com/mkarlsen/gridsync/internal/contract"
	"github.com/mkarlsen/gridsync/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(windowsCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(tiersCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the windows subcommands to the parent windows command
	windowsCmd.AddCommand(windowsListCmd)
	windowsCmd.AddCommand(windowsApproveCmd)
	windowsCmd.AddCommand(windowsRejectCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().IntP("step", "s", contract.DefaultStepSeconds, "Master grid step in seconds")
	rootCmd.PersistentFlags().IntP("tolerance", "t", contract.DefaultToleranceSeconds, "Maximum alignment distance in seconds")
	rootCmd.PersistentFlags().Float64("anomaly-jump", contract.DefaultAnomalyJump, "Absolute value jump across a gap treated as a sensor anomaly")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent workers")
	rootCmd.PersistentFlags().IntP("limit", "l", contract.DefaultResultLimit, "Number of rows to display in tables")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().String("parquet-file", "", "Optional path to export fused rows as parquet")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("decision-backend", string(schema.SQLiteBackend), "Decision store backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("decision-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("emoji", "yes", "Enable emojis in output headers (yes/no)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of migrateCmd to Viper
	migrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(migrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding migrate flags", err)
	}
}
