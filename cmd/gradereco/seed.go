package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lspl/gradereco/internal/domain"
	"github.com/lspl/gradereco/internal/seed"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the demo catalog, evidence and tickets",
	Long: `Creates the schema if needed and inserts the demo data in one transaction.
Refuses to run when the catalog already holds products.`,
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

		sum, err := seed.Run(ctx, store, logger)
		if errors.Is(err, domain.ErrAlreadySeeded) {
			logger.Warn("skipping seed", zap.Error(err))
			fmt.Fprintln(cmd.OutOrStdout(), "Catalog already seeded.")
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Seeded demo data: %d products, %d R&D, %d trials, %d complaints, %d tickets.\n",
			sum.Products, sum.RnD, sum.Trials, sum.Complaints, sum.Tickets)
		return nil
	},
}
