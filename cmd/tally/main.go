package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/tally-ledger/tally/internal/commands"
)

func main() {
	// A missing .env is fine; values then come from the environment or tally.yaml.
	_ = godotenv.Load()

	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
