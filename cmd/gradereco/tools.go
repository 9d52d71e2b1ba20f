package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lspl/gradereco/internal/transport/mcp"
	"github.com/lspl/gradereco/internal/version"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List, call or serve the read-only query tools",
}

var toolsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the tool catalog as JSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		cfg, logger, err := loadConfig(true)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		store, err := openStore(ctx, cfg.Database, logger)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(newToolService(store).List())
	},
}

var toolsCallCmd = &cobra.Command{
	Use:   "call NAME [JSON_ARGS]",
	Short: "Invoke one tool and print its JSON result",
	Example: `  gradereco tools call sql_recent_tickets '{"limit": 3}'
  gradereco tools call sql_trials_by_grade '{"grade": "DieLube-3000"}'`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		toolArgs := map[string]any{}
		if len(args) == 2 && strings.TrimSpace(args[1]) != "" {
			if err := json.Unmarshal([]byte(args[1]), &toolArgs); err != nil {
				return fmt.Errorf("arguments must be a JSON object: %w", err)
			}
		}

		cfg, logger, err := loadConfig(true)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		store, err := openStore(ctx, cfg.Database, logger)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		text, err := newToolService(store).Call(ctx, args[0], toolArgs)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	},
}

var toolsStdioCmd = &cobra.Command{
	Use:   "stdio",
	Short: "Serve the tools as an MCP server over stdin/stdout",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		cfg, logger, err := loadConfig(true)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		store, err := openStore(ctx, cfg.Database, logger)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		server := mcp.NewServer(newToolService(store), version.Version, logger)
		logger.Info("MCP server listening on stdio")
		return server.Serve(ctx, os.Stdin, os.Stdout)
	},
}

func init() {
	toolsCmd.AddCommand(toolsListCmd)
	toolsCmd.AddCommand(toolsCallCmd)
	toolsCmd.AddCommand(toolsStdioCmd)
}
