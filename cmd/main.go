package cmd

import (
	"log"
	"os"
)

// Main is the CLI entry point; cmd/lumenforge's main.go calls it directly.
func Main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v\n", err)
		os.Exit(1)
	}
}
