// Package main provides the gradereco CLI: the HTTP API server, demo seeding
// and the query tools.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lspl/gradereco/internal/config"
	logpkg "github.com/lspl/gradereco/internal/logger"
)

var (
	// envName is set by the --env flag; empty means $ENV or "local".
	envName string
	// dotenvPath is set by the --dotenv flag.
	dotenvPath string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "gradereco",
	Short: "LSPL grade recommendation service",
	Long: `gradereco proposes a product grade for a customer requirement from the
catalog, similar historical tickets and trial, complaint and R&D evidence.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return loadDotenv(dotenvPath)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envName, "env", "", "config environment (default: $ENV or local)")
	rootCmd.PersistentFlags().StringVar(&dotenvPath, "dotenv", ".env", "dotenv file loaded before config; real environment variables win")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadDotenv loads path into the process environment. A missing file is fine.
func loadDotenv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func currentEnv() string {
	if envName != "" {
		return envName
	}
	return config.GetEnv()
}

// loadConfig reads configuration and builds a logger. cli selects the stderr
// console logger used by commands that write data to stdout.
func loadConfig(cli bool) (config.Config, *zap.Logger, error) {
	env := currentEnv()
	cfg, err := config.Load(env)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}

	var logger *zap.Logger
	if cli {
		logger, err = logpkg.NewCLILogger(cfg.Logging.Level)
	} else {
		logger, err = logpkg.NewLogger(env, cfg.Logging.Level)
	}
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("create logger: %w", err)
	}
	return cfg, logger, nil
}
