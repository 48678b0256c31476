package contract

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/mkarlsen/gridsync/schema"
)

// Default values for configuration.
const (
	DefaultStepSeconds      = 900
	DefaultToleranceSeconds = 1800
	DefaultResultLimit      = 25
	MaxResultLimit          = 100000
	DefaultPrecision        = 2
	DefaultAnomalyJump      = 5.0
)

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// Config holds the runtime configuration for a synchronization run.
// This struct remains the "final, validated" config.
type Config struct {
	InputPath   string
	Step        time.Duration
	Tolerance   time.Duration
	AnomalyJump float64 // absolute value jump that marks a gap as sensor anomaly
	Workers     int
	ResultLimit int
	Precision   int
	Output      schema.OutputMode
	OutputFile  string
	ParquetFile string
	Width       int // Terminal width override (0 = auto-detect)

	DecisionBackend   schema.DatabaseBackend
	DecisionDBConnect string // Please use env var as this is plaintext

	UseEmojis bool // Enable emojis in output headers
	UseColors bool // Enable colored labels in table output
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	InputPathStr string

	// --- Fields from rootCmd.PersistentFlags() ---
	Step              int    `mapstructure:"step"`
	Tolerance         int    `mapstructure:"tolerance"`
	AnomalyJump       float64 `mapstructure:"anomaly-jump"`
	Workers           int    `mapstructure:"workers"`
	Limit             int    `mapstructure:"limit"`
	Precision         int    `mapstructure:"precision"`
	Output            string `mapstructure:"output"`
	OutputFile        string `mapstructure:"output-file"`
	ParquetFile       string `mapstructure:"parquet-file"`
	Width             int    `mapstructure:"width"`
	DecisionBackend   string `mapstructure:"decision-backend"`
	DecisionDBConnect string `mapstructure:"decision-db-connect"`
	Emoji             string `mapstructure:"emoji"`
	Color             string `mapstructure:"color"`
}

// Clone returns a copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// ProcessAndValidate performs parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	cfg.InputPath = input.InputPathStr

	if input.Step <= 0 {
		return fmt.Errorf("step must be a positive number of seconds, got %d", input.Step)
	}
	cfg.Step = time.Duration(input.Step) * time.Second

	if input.Tolerance <= 0 {
		return fmt.Errorf("tolerance must be a positive number of seconds, got %d", input.Tolerance)
	}
	cfg.Tolerance = time.Duration(input.Tolerance) * time.Second

	if input.AnomalyJump <= 0 {
		return fmt.Errorf("anomaly-jump must be positive, got %g", input.AnomalyJump)
	}
	cfg.AnomalyJump = input.AnomalyJump

	if input.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", input.Workers)
	}
	cfg.Workers = input.Workers

	if input.Limit < 1 || input.Limit > MaxResultLimit {
		return fmt.Errorf("limit must be between 1 and %d, got %d", MaxResultLimit, input.Limit)
	}
	cfg.ResultLimit = input.Limit

	if input.Precision < 0 || input.Precision > 10 {
		return fmt.Errorf("precision must be between 0 and 10, got %d", input.Precision)
	}
	cfg.Precision = input.Precision

	output := schema.OutputMode(input.Output)
	if _, ok := schema.ValidOutputModes[output]; !ok {
		return fmt.Errorf("invalid output mode %q: must be text, csv, or json", input.Output)
	}
	cfg.Output = output
	cfg.OutputFile = input.OutputFile
	cfg.ParquetFile = input.ParquetFile
	cfg.Width = input.Width

	backend := schema.DatabaseBackend(input.DecisionBackend)
	if _, ok := schema.ValidBackends[backend]; !ok {
		return fmt.Errorf("invalid decision backend %q: must be sqlite, mysql, postgresql, or none", input.DecisionBackend)
	}
	cfg.DecisionBackend = backend
	cfg.DecisionDBConnect = input.DecisionDBConnect

	var err error
	if cfg.UseEmojis, err = parseYesNo("emoji", input.Emoji); err != nil {
		return err
	}
	if cfg.UseColors, err = parseYesNo("color", input.Color); err != nil {
		return err
	}

	return nil
}

// parseYesNo converts a yes/no flag value to a bool.
func parseYesNo(name, value string) (bool, error) {
	switch value {
	case "yes", "":
		return true, nil
	case "no":
		return false, nil
	default:
		return false, errors.New(name + " must be 'yes' or 'no'")
	}
}

// ConfigParams returns the loggable subset of the config for run history.
func (c *Config) ConfigParams() map[string]any {
	return map[string]any{
		"input":        c.InputPath,
		"step":         c.Step.String(),
		"tolerance":    c.Tolerance.String(),
		"anomaly_jump": c.AnomalyJump,
		"workers":      c.Workers,
	}
}
