package contract

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
)

// Confidence label constants.
const (
	HighValue     = "High"     // High confidence
	ModerateValue = "Moderate" // Moderate confidence
	LowValue      = "Low"      // Low confidence
	NoneValue     = "None"     // Zero confidence (gap or excluded row)
)

// Color variables for console output.
var (
	HighColor     = color.New(color.FgGreen)            // highColor represents trustworthy rows.
	ModerateColor = color.New(color.FgYellow)           // moderateColor represents standard caution, not bold.
	LowColor      = color.New(color.FgMagenta)          // lowColor represents degraded alignment.
	NoneColor     = color.New(color.FgRed, color.Bold)  // noneColor represents rows downstream must not trust.
	WarnColor     = color.New(color.FgYellow)           // warnColor for warning lines.
)

// GetPlainLabel returns a plain text label for a row or stage confidence.
// This is the core logic used for CSV, JSON, and table printing.
func GetPlainLabel(confidence float64) string {
	switch {
	case confidence >= 0.90:
		return HighValue
	case confidence >= 0.85:
		return ModerateValue
	case confidence > 0:
		return LowValue
	default:
		return NoneValue
	}
}

// GetColorLabel returns a colored text label for console output (table).
// It uses GetPlainLabel to determine the string, and then applies the appropriate color.
func GetColorLabel(confidence float64) string {
	text := GetPlainLabel(confidence)

	switch text {
	case HighValue:
		return HighColor.Sprint(text)
	case ModerateValue:
		return ModerateColor.Sprint(text)
	case LowValue:
		return LowColor.Sprint(text)
	default: // "None"
		return NoneColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path and format type. It falls back to os.Stdout when no path is given.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetDecisionDBFilePath returns the path to the SQLite DB file for the decision store.
func GetDecisionDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".gridsync.db"
	}
	return filepath.Join(homeDir, ".gridsync.db")
}
