package main

import (
	"os"

	"github.com/kbukum/orchestrator/cmd/orchestrator/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
