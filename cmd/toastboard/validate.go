package main

import (
	"fmt"
	"time"

	"github.com/jpalmerr/toastboard/config"
	"github.com/spf13/cobra"
)

// validateCmd validates a config file without starting the server.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a Toastboard configuration file without starting the server.

This command parses the YAML, expands environment variables, and validates
all fields. It's useful for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  toastboard validate -c config.yaml
  toastboard validate -c config.yaml --env-file .env`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	validateCmd.Flags().String("env-file", "", "optional .env file loaded before the config")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	envFile, _ := cmd.Flags().GetString("env-file")
	if envFile != "" {
		if err := config.LoadEnvFile(envFile); err != nil {
			return err
		}
	}

	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Port:    %d\n", cfg.Port)
	fmt.Fprintf(out, "  Dismiss: default=%s success=%s info=%s error=%s\n",
		describeDismiss(cfg.Dismiss.Default),
		describeDismiss(cfg.Dismiss.Success),
		describeDismiss(cfg.Dismiss.Info),
		describeDismiss(cfg.Dismiss.Error),
	)
	fmt.Fprintf(out, "  Logging: %s/%s\n", cfg.Log.Level, cfg.Log.Format)
	fmt.Fprintf(out, "  Toasts:  %d at startup\n", len(cfg.Toasts))

	return nil
}

func describeDismiss(d *config.Duration) string {
	switch {
	case d == nil:
		return "built-in"
	case d.Duration() == 0:
		return "never"
	default:
		return d.Duration().Round(time.Millisecond).String()
	}
}
