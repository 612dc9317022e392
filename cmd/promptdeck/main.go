// Package main is the entry point for the promptdeck CLI.
package main

import (
	"os"

	"github.com/jmylchreest/promptdeck/cmd/promptdeck/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
