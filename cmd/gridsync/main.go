// main is the entry point for the gridsync CLI.
package main

import (
	"os"

	"github.com/mkarlsen/gridsync/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
