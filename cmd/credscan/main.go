// Package main is the entry point for the credscan CLI.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"CredibilityScanner/internal/app"
	"CredibilityScanner/internal/config"
	"CredibilityScanner/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "credscan",
	Short: "Explainable credibility analysis for articles and posts",
	Long: `credscan scores free text for credibility. The fast track runs the
heuristic detectors only; --deep adds the classifier, sentiment model, claim
verification, fact-check lookup and summarization.

Configuration comes from the YAML file named by --config or CREDSCAN_CONFIG,
a local .env file and environment overrides.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "YAML config file (overrides CREDSCAN_CONFIG)")
}

// bootstrap loads configuration and builds the application. Logs go to
// stderr so stdout stays machine readable.
func bootstrap(cmd *cobra.Command) (*app.Application, *slog.Logger, error) {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		if err := os.Setenv("CREDSCAN_CONFIG", path); err != nil {
			return nil, nil, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger := logging.NewWithWriter(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)

	application, err := app.New(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("build application: %w", err)
	}
	return application, logger, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
