// Package seed loads the demo catalog, evidence and ticket history.
package seed

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lspl/gradereco/internal/db"
	"github.com/lspl/gradereco/internal/domain"
	"github.com/lspl/gradereco/internal/repository/catalog"
	ticketrepo "github.com/lspl/gradereco/internal/repository/ticket"
)

// Summary counts the rows written by Run.
type Summary struct {
	Products   int
	RnD        int
	Trials     int
	Complaints int
	Tickets    int
}

// Run inserts the demo data in one transaction. It returns domain.ErrAlreadySeeded
// when the catalog already has products, and writes nothing in that case.
func Run(ctx context.Context, store db.Transactor, logger *zap.Logger) (Summary, error) {
	var sum Summary
	err := store.WithTx(ctx, func(q db.Querier) error {
		n, err := catalog.New(q).CountProducts(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: %d products present", domain.ErrAlreadySeeded, n)
		}

		for _, p := range Products {
			if _, err := q.ExecContext(ctx, `INSERT INTO products
				(lspl_grade, division, category, compatible_process, metal, temp_min_c, temp_max_c, notes)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				p.Grade, p.Division, p.Category, p.CompatibleProcess, p.Metal, p.TempMinC, p.TempMaxC, p.Notes,
			); err != nil {
				return fmt.Errorf("%w: insert product %s: %w", domain.ErrStoreFailure, p.Grade, err)
			}
			sum.Products++
		}

		for _, r := range RnD {
			if _, err := q.ExecContext(ctx,
				`INSERT INTO rnd_records (lspl_grade, spec_summary, flags, constraints) VALUES (?, ?, ?, ?)`,
				r.Grade, r.SpecSummary, r.Flags, r.Constraints,
			); err != nil {
				return fmt.Errorf("%w: insert rnd record: %w", domain.ErrStoreFailure, err)
			}
			sum.RnD++
		}

		for _, tr := range Trials {
			if _, err := q.ExecContext(ctx,
				`INSERT INTO trial_records (customer_name, lspl_grade, conditions, outcome, notes) VALUES (?, ?, ?, ?, ?)`,
				tr.CustomerName, tr.Grade, tr.Conditions, tr.Outcome, tr.Notes,
			); err != nil {
				return fmt.Errorf("%w: insert trial record: %w", domain.ErrStoreFailure, err)
			}
			sum.Trials++
		}

		for _, c := range Complaints {
			if _, err := q.ExecContext(ctx,
				`INSERT INTO complaint_records (customer_name, lspl_grade, conditions, issue, severity) VALUES (?, ?, ?, ?, ?)`,
				c.CustomerName, c.Grade, c.Conditions, c.Issue, c.Severity,
			); err != nil {
				return fmt.Errorf("%w: insert complaint record: %w", domain.ErrStoreFailure, err)
			}
			sum.Complaints++
		}

		tickets := ticketrepo.New(q)
		for _, t := range Tickets {
			if _, err := tickets.Create(ctx, t); err != nil {
				return err
			}
			sum.Tickets++
		}
		return nil
	})
	if err != nil {
		return Summary{}, fmt.Errorf("seed: %w", err)
	}

	logger.Info("demo data seeded",
		zap.Int("products", sum.Products),
		zap.Int("rnd", sum.RnD),
		zap.Int("trials", sum.Trials),
		zap.Int("complaints", sum.Complaints),
		zap.Int("tickets", sum.Tickets),
	)
	return sum, nil
}
