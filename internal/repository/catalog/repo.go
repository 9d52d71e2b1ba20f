package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lspl/gradereco/internal/domain"
)

// querier is the consumer interface for catalog reads (ISP).
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Repo reads products and per-grade evidence. Evidence rows come back most recent first.
type Repo struct {
	db querier
}

// New creates a catalog repository.
func New(q querier) *Repo {
	return &Repo{db: q}
}

const productColumns = `id, lspl_grade, division, category, compatible_process, metal, temp_min_c, temp_max_c, COALESCE(notes, '')`

// Candidates returns products matching the given filters. A nil filter is unconstrained;
// a non-nil filter matches equal values and products with the column unset.
func (r *Repo) Candidates(ctx context.Context, division, category *string) ([]domain.Product, error) {
	var (
		where []string
		args  []any
	)
	if division != nil {
		where = append(where, "(division = ? OR division IS NULL)")
		args = append(args, *division)
	}
	if category != nil {
		where = append(where, "(category = ? OR category IS NULL)")
		args = append(args, *category)
	}

	query := "SELECT " + productColumns + " FROM products"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id"

	return r.queryProducts(ctx, query, args...)
}

// ProductsByCategory returns products whose columns equal the given filters exactly.
// A nil filter is ignored. At most limit rows are returned.
func (r *Repo) ProductsByCategory(ctx context.Context, division, category *string, limit int) ([]domain.Product, error) {
	var (
		where []string
		args  []any
	)
	if division != nil {
		where = append(where, "division = ?")
		args = append(args, *division)
	}
	if category != nil {
		where = append(where, "category = ?")
		args = append(args, *category)
	}

	query := "SELECT " + productColumns + " FROM products"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id LIMIT ?"
	args = append(args, limit)

	return r.queryProducts(ctx, query, args...)
}

// CountProducts returns the number of catalog entries.
func (r *Repo) CountProducts(ctx context.Context) (int, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT COUNT(*) FROM products")
	if err != nil {
		return 0, fmt.Errorf("%w: count products: %w", domain.ErrStoreFailure, err)
	}
	defer rows.Close()

	var n int
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, fmt.Errorf("%w: scan count: %w", domain.ErrStoreFailure, err)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("%w: count products: %w", domain.ErrStoreFailure, err)
	}
	return n, nil
}

func (r *Repo) queryProducts(ctx context.Context, query string, args ...any) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query products: %w", domain.ErrStoreFailure, err)
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		var (
			p        domain.Product
			div, cat sql.NullString
			proc     sql.NullString
			metal    sql.NullString
			tmin     sql.NullFloat64
			tmax     sql.NullFloat64
		)
		if err := rows.Scan(&p.ID, &p.Grade, &div, &cat, &proc, &metal, &tmin, &tmax, &p.Notes); err != nil {
			return nil, fmt.Errorf("%w: scan product: %w", domain.ErrStoreFailure, err)
		}
		p.Division = nullString(div)
		p.Category = nullString(cat)
		p.CompatibleProcess = nullString(proc)
		p.Metal = nullString(metal)
		p.TempMinC = nullFloat(tmin)
		p.TempMaxC = nullFloat(tmax)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate products: %w", domain.ErrStoreFailure, err)
	}
	return out, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func nullFloat(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	return &nf.Float64
}
