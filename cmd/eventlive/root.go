package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"ustudiopd/eventlive/pkg/cli"
	"ustudiopd/eventlive/pkg/config"
	"ustudiopd/eventlive/pkg/telemetry/logging"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "eventlive",
	Short: "Eventlive - survey guideline compiler and campaign analyzer",
	Long: `Eventlive turns registration survey answers into analysis packs that
event marketers can act on.

Guideline packs describe which questions matter, how answers score and which
crosstabs to compute. Eventlive compiles them against the live form, repairs
them when the form drifts, and analyzes the campaign:
  - Per-question statistics and crosstabs with lift
  - Lead scoring and tiering
  - Optional model-drafted recommendations checked against the evidence`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with the command's exit code.
func Execute() {
	err := rootCmd.Execute()
	os.Exit(exitCode(err))
}

func exitCode(err error) int {
	if err == nil {
		return cli.ExitOK
	}
	var exitErr *cli.ExitCodeError
	if errors.As(err, &exitErr) {
		if !exitErr.Silent {
			fmt.Fprintln(os.Stderr, "Error:", exitErr.Err)
		}
		return exitErr.Code
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	return cli.ExitError
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (defaults plus EVENTLIVE_* environment when empty)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig reads the configuration and installs the default logger.
// Logs go to stderr so command output stays machine readable.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, nil, cli.NewCommandError("config", err)
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	logger, err := logging.New(cfg.Telemetry.Logging, os.Stderr)
	if err != nil {
		return nil, nil, cli.NewCommandError("config", err)
	}
	slog.SetDefault(logger)
	return cfg, logger, nil
}
