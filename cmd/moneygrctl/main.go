package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"moneygr/internal/cli"
	"moneygr/internal/config"
	"moneygr/internal/log"
)

func main() {
	cli.LoadEnvFile()

	rootCmd := &cobra.Command{
		Use:          "moneygrctl",
		Short:        "Administrative commands for moneygr",
		SilenceUsage: true,
	}
	rootCmd.AddCommand(newReportCmd(), newMigrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads configuration and a logger writing to stderr so command output
// stays clean.
func setup() (*config.Config, *log.Logger, error) {
	cfg := config.Load()
	lc := log.DefaultConfig()
	lc.Level = log.ParseLevel(cfg.LogLevel)
	lc.Output = os.Stderr
	logger := log.New(lc)
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
