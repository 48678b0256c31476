package outwriter

import (
	"os"

	"github.com/mkarlsen/gridsync/internal/contract"
	"golang.org/x/term"
)

// GetMaxStreamColumns calculates how many per-stream value columns fit
// in the row table, based on terminal width and table configuration.
func GetMaxStreamColumns(cfg *contract.Config) int {
	var termWidth int

	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		termWidth = cfg.Width
	}

	if termWidth == 0 { // Not set by override
		// Get terminal width
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			// Fallback to conservative default if terminal size can't be detected
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	// Reserve space for fixed columns with table formatting:
	// Timestamp + Gap Type + Confidence + Label with borders/padding
	baseWidth := 60

	// Each stream column holds a formatted value plus a quality marker
	streamColWidth := 16

	available := termWidth - baseWidth
	if available < streamColWidth {
		// Always show at least one stream column
		return 1
	}
	count := available / streamColWidth
	if count > 12 {
		// Cap the table width; full detail lives in CSV/JSON/parquet
		return 12
	}
	return count
}
