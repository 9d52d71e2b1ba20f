package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lspl/gradereco/internal/domain"
)

// RnDByGrade returns R&D rows for grade in the given order. limit <= 0 means all rows.
func (r *Repo) RnDByGrade(ctx context.Context, grade string, limit int, order domain.RowOrder) ([]domain.RnDRecord, error) {
	query, args := byGrade(`SELECT id, COALESCE(lspl_grade, ''), spec_summary, flags, constraints
		FROM rnd_records`, grade, limit, order)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query rnd: %w", domain.ErrStoreFailure, err)
	}
	defer rows.Close()

	var out []domain.RnDRecord
	for rows.Next() {
		var (
			rec                      domain.RnDRecord
			spec, flags, constraints sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.Grade, &spec, &flags, &constraints); err != nil {
			return nil, fmt.Errorf("%w: scan rnd: %w", domain.ErrStoreFailure, err)
		}
		rec.SpecSummary = nullString(spec)
		rec.Flags = nullString(flags)
		rec.Constraints = nullString(constraints)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate rnd: %w", domain.ErrStoreFailure, err)
	}
	return out, nil
}

// TrialsByGrade returns trial rows for grade in the given order. limit <= 0 means all rows.
func (r *Repo) TrialsByGrade(ctx context.Context, grade string, limit int, order domain.RowOrder) ([]domain.TrialRecord, error) {
	query, args := byGrade(`SELECT id, customer_name, COALESCE(lspl_grade, ''), conditions, outcome, notes
		FROM trial_records`, grade, limit, order)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query trials: %w", domain.ErrStoreFailure, err)
	}
	defer rows.Close()

	var out []domain.TrialRecord
	for rows.Next() {
		var (
			rec                                  domain.TrialRecord
			customer, conditions, outcome, notes sql.NullString
		)
		if err := rows.Scan(&rec.ID, &customer, &rec.Grade, &conditions, &outcome, &notes); err != nil {
			return nil, fmt.Errorf("%w: scan trial: %w", domain.ErrStoreFailure, err)
		}
		rec.CustomerName = nullString(customer)
		rec.Conditions = nullString(conditions)
		rec.Outcome = nullString(outcome)
		rec.Notes = nullString(notes)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate trials: %w", domain.ErrStoreFailure, err)
	}
	return out, nil
}

// ComplaintsByGrade returns complaint rows for grade in the given order. limit <= 0 means all rows.
func (r *Repo) ComplaintsByGrade(ctx context.Context, grade string, limit int, order domain.RowOrder) ([]domain.ComplaintRecord, error) {
	query, args := byGrade(`SELECT id, customer_name, COALESCE(lspl_grade, ''), conditions, issue, severity
		FROM complaint_records`, grade, limit, order)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query complaints: %w", domain.ErrStoreFailure, err)
	}
	defer rows.Close()

	var out []domain.ComplaintRecord
	for rows.Next() {
		var (
			rec                                   domain.ComplaintRecord
			customer, conditions, issue, severity sql.NullString
		)
		if err := rows.Scan(&rec.ID, &customer, &rec.Grade, &conditions, &issue, &severity); err != nil {
			return nil, fmt.Errorf("%w: scan complaint: %w", domain.ErrStoreFailure, err)
		}
		rec.CustomerName = nullString(customer)
		rec.Conditions = nullString(conditions)
		rec.Issue = nullString(issue)
		rec.Severity = nullString(severity)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate complaints: %w", domain.ErrStoreFailure, err)
	}
	return out, nil
}

func byGrade(selectFrom, grade string, limit int, order domain.RowOrder) (string, []any) {
	query := selectFrom + " WHERE lspl_grade = ? ORDER BY id"
	if order == domain.NewestFirst {
		query += " DESC"
	}
	args := []any{grade}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return query, args
}
