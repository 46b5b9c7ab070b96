package main

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/afero"

	"cvector/internal/cli"
)

func main() {
	_ = godotenv.Load()

	logger := log.New(os.Stderr)
	if os.Getenv("CVECTOR_DEBUG") != "" {
		logger.SetLevel(log.DebugLevel)
	}

	rootCmd := cli.NewRootCommand(afero.NewOsFs(), logger)
	if err := rootCmd.Execute(); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}
