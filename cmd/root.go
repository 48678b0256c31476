package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/mkarlsen/gridsync/internal/contract"
	"github.com/mkarlsen/gridsync/internal/decision"
	"github.com/mkarlsen/gridsync/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = &contract.Config{}

// input holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper will unmarshal into this struct.
var input = &contract.ConfigRawInput{}

// decisionStore is the global decision store instance. It stays nil when
// the backend is "none".
var decisionStore contract.DecisionStore

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:                "gridsync",
	Short:              "Synchronize multi-rate sensor streams onto a uniform master grid.",
	Long:               `Gridsync fuses irregular sensor timelines into gap-aware, confidence-scored rows ready for downstream physics.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// Check if a specific config file is provided
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		// Set config file name and paths
		viper.SetConfigName(".gridsync") // Name of config file (without extension)
		viper.SetConfigType("yaml")      // We'll use YAML format
		viper.AddConfigPath(".")         // Look in the current directory
		viper.AddConfigPath("$HOME")     // Look in the home directory
	}

	// Set environment variable prefix
	viper.SetEnvPrefix("GRIDSYNC")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // Read in environment variables that match

	// Set defaults in Viper
	viper.SetDefault("step", contract.DefaultStepSeconds)
	viper.SetDefault("tolerance", contract.DefaultToleranceSeconds)
	viper.SetDefault("anomaly-jump", contract.DefaultAnomalyJump)
	viper.SetDefault("workers", contract.DefaultWorkers)
	viper.SetDefault("limit", contract.DefaultResultLimit)
	viper.SetDefault("precision", contract.DefaultPrecision)
	viper.SetDefault("output", schema.TextOut)
	viper.SetDefault("decision-backend", schema.SQLiteBackend)
	viper.SetDefault("decision-db-connect", "")
	viper.SetDefault("emoji", "yes")
	viper.SetDefault("color", "yes")
}

// sharedSetup unmarshals config, runs validation and opens the decision store.
// When wantInput is true the first positional argument is the input file.
func sharedSetup(_ context.Context, _ *cobra.Command, args []string, wantInput bool) error {
	// 1. Read config file. This merges defaults, file, env, and flags.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, which is fine; we'll use defaults/env/flags.
	}

	// 2. Unmarshal all resolved values from Viper into our raw input struct.
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	// 3. Handle positional arguments (which Viper doesn't do).
	if wantInput && len(args) >= 1 {
		input.InputPathStr = args[0]
	}

	// 4. Run all validation and complex parsing.
	// This function now populates the global 'cfg' from 'input'.
	if err := contract.ProcessAndValidate(cfg, input); err != nil {
		return err
	}

	// 5. Initialize the decision store with validated config
	store, err := decision.NewStore(cfg.DecisionBackend, cfg.DecisionDBConnect)
	if err != nil {
		return fmt.Errorf("failed to initialize decision store: %w", err)
	}
	decisionStore = store

	return nil
}

// sharedSetupWrapper wraps sharedSetup for commands taking an input file.
func sharedSetupWrapper(cmd *cobra.Command, args []string) error {
	return sharedSetup(rootCtx, cmd, args, true)
}

// metaSetupWrapper wraps sharedSetup for commands whose positional
// arguments are not an input file.
func metaSetupWrapper(cmd *cobra.Command, args []string) error {
	return sharedSetup(rootCtx, cmd, args, false)
}

// Execute runs the root command.
func Execute() error {
	defer closeStore()
	return rootCmd.Execute()
}

// closeStore releases the decision store connection if one was opened.
func closeStore() {
	if decisionStore == nil {
		return
	}
	if err := decisionStore.Close(); err != nil {
		contract.LogWarn("Cannot close decision store", err)
	}
}
